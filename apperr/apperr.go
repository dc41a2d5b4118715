// Package apperr 定义引擎的错误分类。
// service 层只返回这里的错误类型，HTTP 状态码映射集中在 utils.WriteError。
package apperr

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindUnknown Kind = iota
	KindNotFound
	KindQuotaExceeded
	KindBlocked
	KindConflict
	KindValidation
	KindPreconditionFailed
	KindInternal
)

// 拉黑方向，用于前端区分提示（不泄露更多信息）
type BlockDirection string

const (
	BlockedByYou  BlockDirection = "by_you"  // 你拉黑了对方
	BlockedByThem BlockDirection = "by_them" // 对方拉黑了你
)

type Error struct {
	Kind      Kind
	Message   string
	Direction BlockDirection // 仅 KindBlocked 时有值
	Err       error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func NotFound(msg string) *Error {
	return &Error{Kind: KindNotFound, Message: msg}
}

func QuotaExceeded(msg string) *Error {
	return &Error{Kind: KindQuotaExceeded, Message: msg}
}

func Blocked(direction BlockDirection) *Error {
	msg := "you have blocked this user"
	if direction == BlockedByThem {
		msg = "this user has blocked you"
	}
	return &Error{Kind: KindBlocked, Message: msg, Direction: direction}
}

func Conflict(msg string) *Error {
	return &Error{Kind: KindConflict, Message: msg}
}

func Validation(msg string) *Error {
	return &Error{Kind: KindValidation, Message: msg}
}

func PreconditionFailed(msg string) *Error {
	return &Error{Kind: KindPreconditionFailed, Message: msg}
}

func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Message: "internal error", Err: err}
}

// KindOf 提取错误分类；非 apperr 错误一律按 Internal 处理
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// DirectionOf 提取拉黑方向（非拉黑错误返回空）
func DirectionOf(err error) BlockDirection {
	var e *Error
	if errors.As(err, &e) {
		return e.Direction
	}
	return ""
}

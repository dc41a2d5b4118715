package utils

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"sparkmatch/apperr"
)

// Response 统一响应结构
type Response struct {
	Code    int         `json:"code"`           // 业务状态码（0表示成功）
	Message string      `json:"message"`        // 提示信息
	Data    interface{} `json:"data,omitempty"` // 响应数据
}

// SuccessResponse 成功响应（带数据）
func SuccessResponse(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// SuccessWithMessage 成功响应（自定义消息）
func SuccessWithMessage(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    0,
		Message: message,
		Data:    data,
	})
}

// ErrorResponse 错误响应
func ErrorResponse(c *gin.Context, httpStatus int, message string) {
	c.JSON(httpStatus, Response{
		Code:    httpStatus,
		Message: message,
		Data:    nil,
	})
}

// WriteError 按错误分类写出对应的 HTTP 状态码
func WriteError(c *gin.Context, err error) {
	switch apperr.KindOf(err) {
	case apperr.KindValidation:
		ErrorResponse(c, http.StatusBadRequest, err.Error())
	case apperr.KindQuotaExceeded, apperr.KindBlocked:
		ErrorResponse(c, http.StatusForbidden, err.Error())
	case apperr.KindNotFound:
		ErrorResponse(c, http.StatusNotFound, err.Error())
	case apperr.KindConflict:
		ErrorResponse(c, http.StatusConflict, err.Error())
	case apperr.KindPreconditionFailed:
		ErrorResponse(c, http.StatusPreconditionFailed, err.Error())
	default:
		log.Printf("[ERROR] 内部错误: %v", err)
		ErrorResponse(c, http.StatusInternalServerError, "internal server error")
	}
}

// 常用错误响应快捷方法

// BadRequest 400 错误请求
func BadRequest(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusBadRequest, message)
}

// Unauthorized 401 未授权
func Unauthorized(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusUnauthorized, message)
}

// Forbidden 403 禁止访问
func Forbidden(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusForbidden, message)
}

// NotFound 404 资源不存在
func NotFound(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusNotFound, message)
}

// InternalServerError 500 服务器错误
func InternalServerError(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusInternalServerError, message)
}

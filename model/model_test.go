package model_test

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"sparkmatch/model"
)

func TestOrderPair(t *testing.T) {
	a := uuid.New()
	b := uuid.New()

	x1, y1 := model.OrderPair(a, b)
	x2, y2 := model.OrderPair(b, a)

	// 两个方向归一化到同一对
	assert.Equal(t, x1, x2)
	assert.Equal(t, y1, y2)
	assert.True(t, x1.String() < y1.String())
}

func TestConversationParticipants(t *testing.T) {
	a := uuid.New()
	b := uuid.New()
	conv := &model.Conversation{UserAID: a, UserBID: b}

	assert.True(t, conv.HasParticipant(a))
	assert.True(t, conv.HasParticipant(b))
	assert.False(t, conv.HasParticipant(uuid.New()))

	assert.Equal(t, b, conv.Counterpart(a))
	assert.Equal(t, a, conv.Counterpart(b))
}

func TestMessagePreview(t *testing.T) {
	short := &model.Message{Content: "hello"}
	assert.Equal(t, "hello", short.Preview())

	long := &model.Message{Content: strings.Repeat("a", 80)}
	preview := long.Preview()
	assert.Equal(t, strings.Repeat("a", 50)+"...", preview)
}

func TestUUIDListContains(t *testing.T) {
	a := uuid.New()
	list := model.UUIDList{a}
	assert.True(t, list.Contains(a))
	assert.False(t, list.Contains(uuid.New()))
}

func TestSwipeKindValid(t *testing.T) {
	assert.True(t, model.SwipeLike.Valid())
	assert.True(t, model.SwipeDislike.Valid())
	assert.False(t, model.SwipeKind("superlike").Valid())
}

package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHistoryAppendAndReplace(t *testing.T) {
	h := NewHistory()
	assert.Equal(t, 0, h.Len())

	_, ok := h.Last()
	assert.False(t, ok)

	h.Append(NewUserTextMessage("one"), NewUserTextMessage("two"))
	assert.Equal(t, 2, h.Len())

	last, ok := h.Last()
	assert.True(t, ok)
	assert.Equal(t, "two", last.Text())

	h.Replace([]Message{NewUserTextMessage("only")})
	assert.Equal(t, 1, h.Len())
}

func TestHistoryMessagesIsACopy(t *testing.T) {
	h := NewHistory()
	h.Append(NewUserTextMessage("original"))

	msgs := h.Messages()
	msgs[0] = NewUserTextMessage("mutated")

	fresh := h.Messages()
	assert.Equal(t, "original", fresh[0].Text())
}

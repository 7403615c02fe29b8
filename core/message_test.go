package core

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMessageHelpers(t *testing.T) {
	msg := Message{
		Role: RoleAssistant,
		Content: []ContentBlock{
			TextBlock{Text: "Let me check. "},
			ToolUseBlock{ToolUseID: "tu-1", Name: "get_weather", Input: map[string]any{"city": "Berlin"}},
			TextBlock{Text: "One moment."},
		},
	}

	assert.True(t, msg.HasToolUse())
	assert.False(t, msg.HasToolResult())
	assert.Equal(t, "Let me check. One moment.", msg.Text())

	uses := msg.ToolUses()
	assert.Len(t, uses, 1)
	assert.Equal(t, "get_weather", uses[0].Name)
}

func TestNewUserTextMessage(t *testing.T) {
	msg := NewUserTextMessage("hello")
	assert.Equal(t, RoleUser, msg.Role)
	assert.Equal(t, "hello", msg.Text())
	assert.False(t, msg.HasToolUse())
}

func TestToolResults(t *testing.T) {
	msg := NewUserMessage(
		ToolResultBlock{ToolUseID: "tu-1", Status: ToolResultSuccess, Content: "42"},
		ToolResultBlock{ToolUseID: "tu-2", Status: ToolResultError, Content: "boom"},
	)

	assert.True(t, msg.HasToolResult())
	results := msg.ToolResults()
	assert.Len(t, results, 2)
	assert.Equal(t, "tu-1", results[0].ToolUseID)
	assert.Equal(t, ToolResultError, results[1].Status)
}

func TestNewToolResultError(t *testing.T) {
	res := NewToolResultError("tu-9", "Unknown tool: frobnicate")
	assert.Equal(t, "tu-9", res.ToolUseID)
	assert.Equal(t, ToolResultError, res.Status)
	assert.Equal(t, "Unknown tool: frobnicate", res.Content)
}

func TestIsContextOverflow(t *testing.T) {
	direct := &ContextWindowOverflowError{}
	assert.True(t, IsContextOverflow(direct))

	wrapped := fmt.Errorf("model call failed: %w", &ContextWindowOverflowError{Cause: errors.New("prompt too long")})
	assert.True(t, IsContextOverflow(wrapped))

	assert.False(t, IsContextOverflow(errors.New("some other error")))
	assert.False(t, IsContextOverflow(nil))
}

func TestNewID(t *testing.T) {
	a, b := NewID(), NewID()
	assert.NotEmpty(t, a)
	assert.NotEqual(t, a, b)
}

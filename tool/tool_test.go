package tool

import (
	"context"
	"errors"
	"testing"

	"github.com/relayagents/relay/core"
	"github.com/stretchr/testify/assert"
)

func runTool(t *testing.T, tl Tool, tc *Context, input map[string]any) (*core.ToolResultBlock, []Event, error) {
	t.Helper()

	events, errCh := tl.Stream(tc, input)
	var (
		progress []Event
		result   *core.ToolResultBlock
	)
	for ev := range events {
		if re, ok := ev.(ResultEvent); ok {
			r := re.Result
			result = &r
			continue
		}
		progress = append(progress, ev)
	}
	return result, progress, <-errCh
}

func newTestContext() *Context {
	return NewContext(context.Background(), "tu-1", "TestAgent", nil, nil)
}

func TestFunctionToolSuccess(t *testing.T) {
	sum := NewFunctionTool(
		"calculate_sum",
		"Calculate the sum of two numbers",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"a": map[string]any{"type": "number"},
				"b": map[string]any{"type": "number"},
			},
			"required": []string{"a", "b"},
		},
		func(tc *Context, args map[string]any) (string, error) {
			return "7", nil
		},
	)

	result, _, err := runTool(t, sum, newTestContext(), map[string]any{"a": float64(3), "b": float64(4)})
	assert.NoError(t, err)
	assert.NotNil(t, result)
	assert.Equal(t, core.ToolResultSuccess, result.Status)
	assert.Equal(t, "7", result.Content)
	assert.Equal(t, "tu-1", result.ToolUseID)
}

func TestFunctionToolValidationError(t *testing.T) {
	tl := NewFunctionTool(
		"echo",
		"Echo the input",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"text": map[string]any{"type": "string"},
			},
			"required": []string{"text"},
		},
		func(tc *Context, args map[string]any) (string, error) {
			return args["text"].(string), nil
		},
	)

	result, _, err := runTool(t, tl, newTestContext(), map[string]any{})
	assert.Nil(t, result)
	assert.Error(t, err)

	var toolErr *ToolError
	assert.True(t, errors.As(err, &toolErr))
	assert.Equal(t, "VALIDATION_ERROR", toolErr.Code)
}

func TestFunctionToolExecutionError(t *testing.T) {
	tl := NewFunctionTool(
		"fail",
		"Always fails",
		map[string]any{"type": "object", "properties": map[string]any{}},
		func(tc *Context, args map[string]any) (string, error) {
			return "", errors.New("backend unavailable")
		},
	)

	result, _, err := runTool(t, tl, newTestContext(), map[string]any{})
	assert.Nil(t, result)

	var toolErr *ToolError
	assert.True(t, errors.As(err, &toolErr))
	assert.Equal(t, "EXECUTION_ERROR", toolErr.Code)
	assert.Contains(t, toolErr.Message, "backend unavailable")
}

func TestFunctionToolPreservesCustomToolError(t *testing.T) {
	custom := NewToolError("lookup", "rate limited", "RATE_LIMITED")
	tl := NewFunctionTool(
		"lookup",
		"Rate limited lookup",
		map[string]any{"type": "object", "properties": map[string]any{}},
		func(tc *Context, args map[string]any) (string, error) {
			return "", custom
		},
	)

	_, _, err := runTool(t, tl, newTestContext(), map[string]any{})
	var toolErr *ToolError
	assert.True(t, errors.As(err, &toolErr))
	assert.Equal(t, "RATE_LIMITED", toolErr.Code)
}

func TestRegistry(t *testing.T) {
	echo := NewFunctionTool("echo", "Echo", map[string]any{"type": "object"}, nil)
	other := NewFunctionTool("other", "Other", map[string]any{"type": "object"}, nil)

	r := NewRegistry(other, echo)
	assert.Equal(t, 2, r.Len())
	assert.Equal(t, []string{"echo", "other"}, r.Names())

	got, ok := r.Get("echo")
	assert.True(t, ok)
	assert.Equal(t, "echo", got.Name())

	err := r.Register(NewFunctionTool("echo", "Duplicate", map[string]any{"type": "object"}, nil))
	assert.Error(t, err)
}

func TestTransferToolValidTarget(t *testing.T) {
	transfer := NewTransferTool(func() map[string]string {
		return map[string]string{"Mathematician": "Solves math problems"}
	})

	assert.Equal(t, TransferToolName, transfer.Name())
	assert.Contains(t, transfer.Description(), "Mathematician")

	tc := newTestContext()
	result, _, err := runTool(t, transfer, tc, map[string]any{"agent_name": "Mathematician"})
	assert.NoError(t, err)
	assert.NotNil(t, result)
	assert.Equal(t, core.ToolResultSuccess, result.Status)

	requested := tc.Actions().TransferTo
	assert.NotNil(t, requested)
	assert.Equal(t, "Mathematician", *requested)
}

func TestTransferToolInvalidTarget(t *testing.T) {
	transfer := NewTransferTool(func() map[string]string {
		return map[string]string{"Mathematician": "Solves math problems"}
	})

	tc := newTestContext()
	result, _, err := runTool(t, transfer, tc, map[string]any{"agent_name": "Nonexistent"})
	assert.Nil(t, result)

	var toolErr *ToolError
	assert.True(t, errors.As(err, &toolErr))
	assert.Equal(t, "INVALID_TARGET", toolErr.Code)
	assert.Nil(t, tc.Actions().TransferTo)
}

func TestTransferToolMissingArgument(t *testing.T) {
	transfer := NewTransferTool(func() map[string]string { return nil })

	_, _, err := runTool(t, transfer, newTestContext(), map[string]any{})
	var toolErr *ToolError
	assert.True(t, errors.As(err, &toolErr))
	assert.Equal(t, "VALIDATION_ERROR", toolErr.Code)
}

type memState struct{ values map[string]any }

func (s *memState) Get(key string) (any, bool) {
	v, ok := s.values[key]
	return v, ok
}
func (s *memState) Set(key string, value any) { s.values[key] = value }

func TestContextStateAccess(t *testing.T) {
	state := &memState{values: map[string]any{"seed": 1}}
	tc := NewContext(context.Background(), "tu-2", "TestAgent", state, nil)

	v, ok := tc.GetState("seed")
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	tc.SetState("written", "yes")
	assert.Equal(t, "yes", state.values["written"])
}

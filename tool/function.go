package tool

import (
	"fmt"
	"time"

	"github.com/relayagents/relay/core"
	"github.com/relayagents/relay/internal/util"
)

// FunctionTool adapts a plain Go function into a Tool.
//
// It validates model-supplied arguments against a minimal JSON-Schema-like
// specification before execution and normalizes failures into *ToolError with
// consistent codes: VALIDATION_ERROR for schema mismatches, EXECUTION_ERROR
// for other errors (custom codes are preserved when the function returns a
// *ToolError directly). A FunctionTool has no mutable state after
// construction and is safe for concurrent use.
type FunctionTool struct {
	name        string
	description string
	schema      map[string]any
	fn          func(tc *Context, args map[string]any) (string, error)
}

// NewFunctionTool constructs a FunctionTool from an explicit schema and
// function. The function returns the model-visible result text.
//
// Example:
//
//	sum := tool.NewFunctionTool(
//	  "calculate_sum",
//	  "Calculate the sum of two numbers",
//	  map[string]any{
//	    "type": "object",
//	    "properties": map[string]any{
//	      "a": map[string]any{"type": "number"},
//	      "b": map[string]any{"type": "number"},
//	    },
//	    "required": []string{"a", "b"},
//	  },
//	  func(tc *tool.Context, args map[string]any) (string, error) {
//	    return fmt.Sprintf("%v", args["a"].(float64)+args["b"].(float64)), nil
//	  },
//	)
func NewFunctionTool(
	name, description string,
	schema map[string]any,
	fn func(tc *Context, args map[string]any) (string, error),
) *FunctionTool {
	return &FunctionTool{name: name, description: description, schema: schema, fn: fn}
}

// NewFunctionToolFromStruct derives the parameter schema from a struct via
// reflection, equivalent to util.SchemaFromStruct.
func NewFunctionToolFromStruct(
	name, description string,
	structType any,
	fn func(tc *Context, args map[string]any) (string, error),
) *FunctionTool {
	return NewFunctionTool(name, description, util.SchemaFromStruct(structType), fn)
}

// Name returns the unique tool name.
func (t *FunctionTool) Name() string { return t.name }

// Description returns the description exposed to models.
func (t *FunctionTool) Description() string { return t.description }

// InputSchema returns the JSON schema describing expected arguments.
func (t *FunctionTool) InputSchema() map[string]any { return t.schema }

// Stream validates args against the declared schema, invokes the wrapped
// function and emits a single terminal ResultEvent.
func (t *FunctionTool) Stream(tc *Context, input map[string]any) (<-chan Event, <-chan error) {
	out := make(chan Event, 1)
	errCh := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errCh)

		logger := tc.Logger()
		start := time.Now()

		logger.Debug("tool.call.start", "tool", t.name, "tool_use_id", tc.ToolUseID())

		if err := util.ValidateParameters(input, t.schema); err != nil {
			logger.Warn("tool.call.validation_failed", "tool", t.name, "error", err.Error())
			errCh <- &ToolError{
				Tool:    t.name,
				Message: fmt.Sprintf("parameter validation failed: %v", err),
				Code:    "VALIDATION_ERROR",
			}
			return
		}

		result, err := t.fn(tc, input)
		if err != nil {
			if toolErr, ok := err.(*ToolError); ok {
				logger.Error("tool.call.error", "tool", t.name, "error", toolErr.Message)
				errCh <- toolErr
				return
			}
			logger.Error("tool.call.error", "tool", t.name, "error", err.Error())
			errCh <- &ToolError{Tool: t.name, Message: err.Error(), Code: "EXECUTION_ERROR"}
			return
		}

		logger.Info("tool.call.success", "tool", t.name, "duration_ms", time.Since(start).Milliseconds())

		out <- ResultEvent{Result: core.ToolResultBlock{
			ToolUseID: tc.ToolUseID(),
			Status:    core.ToolResultSuccess,
			Content:   result,
		}}
	}()

	return out, errCh
}

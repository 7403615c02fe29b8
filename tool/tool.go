// Package tool implements the tool-calling subsystem: the streaming Tool
// interface, a name-keyed registry, a schema-validated function adapter and
// the synthetic transfer tool used in multi-agent trees.
package tool

import (
	"fmt"

	"github.com/relayagents/relay/core"
	"github.com/relayagents/relay/internal/util"
)

// Tool is an invocable capability exposed to the model.
//
// Stream returns an event channel and an error channel. A successful
// invocation emits zero or more ProgressEvents followed by exactly one
// terminal ResultEvent; a failed invocation delivers an error instead. The
// control loop converts failures into error-status tool results, so tools
// never abort a turn.
type Tool interface {
	// Name returns the unique tool identifier (snake_case recommended).
	Name() string

	// Description returns the natural-language description shown to models.
	Description() string

	// InputSchema returns a minimal JSON schema describing the accepted
	// arguments.
	InputSchema() map[string]any

	// Stream executes the tool with validated-by-convention arguments and a
	// per-call Context.
	Stream(tc *Context, input map[string]any) (<-chan Event, <-chan error)
}

// Event is a discriminated event produced by a running tool.
type Event interface{ isToolEvent() }

// ProgressEvent is an intermediate status update forwarded to the caller's
// event stream.
type ProgressEvent struct {
	Message string `json:"message"`
}

func (ProgressEvent) isToolEvent() {}

// ResultEvent terminates a successful tool stream with the result block that
// will answer the originating tool-use.
type ResultEvent struct {
	Result core.ToolResultBlock `json:"result"`
}

func (ResultEvent) isToolEvent() {}

// ValidationError re-exports the parameter validation error type.
type ValidationError = util.ValidationError

// ToolError represents a failure during tool execution with a code usable for
// categorization.
type ToolError struct {
	Tool    string `json:"tool"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

func (e *ToolError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("tool error [%s] in %s: %s", e.Code, e.Tool, e.Message)
	}
	return fmt.Sprintf("tool error in %s: %s", e.Tool, e.Message)
}

// NewToolError creates a ToolError.
func NewToolError(tool, message, code string) *ToolError {
	return &ToolError{Tool: tool, Message: message, Code: code}
}

package hooks

import (
	"github.com/relayagents/relay/core"
	"github.com/relayagents/relay/model"
)

// AgentHandle is the narrow agent surface exposed to hook callbacks. The
// conversation manager uses it to read and rewrite the shared history.
type AgentHandle interface {
	// Name returns the agent's name.
	Name() string
	// Messages returns a copy of the current conversation history.
	Messages() []core.Message
	// SetMessages replaces the conversation history.
	SetMessages(msgs []core.Message)
}

// BeforeInvocationEvent fires once per caller-level invocation, before the
// first model call.
type BeforeInvocationEvent struct {
	Agent AgentHandle
}

// Kind implements Event.
func (*BeforeInvocationEvent) Kind() Kind { return KindBeforeInvocation }

// AfterInvocationEvent fires unconditionally when the invocation ends. Error
// is the terminal error on the failure path, nil otherwise.
type AfterInvocationEvent struct {
	Agent AgentHandle
	Error error
}

// Kind implements Event.
func (*AfterInvocationEvent) Kind() Kind { return KindAfterInvocation }

// BeforeModelCallEvent fires immediately before the model stream is opened.
type BeforeModelCallEvent struct {
	Agent AgentHandle
}

// Kind implements Event.
func (*BeforeModelCallEvent) Kind() Kind { return KindBeforeModelCall }

// AfterModelCallEvent fires once the model stream completed or failed.
// Exactly one of (Message, StopReason) and Error is meaningful. Callbacks may
// set Retry to make the loop re-issue the model call instead of surfacing
// Error; the loop reads Retry only after all callbacks ran.
type AfterModelCallEvent struct {
	Agent      AgentHandle
	Message    *core.Message
	StopReason core.StopReason
	Error      error
	Retry      bool
}

// Kind implements Event.
func (*AfterModelCallEvent) Kind() Kind { return KindAfterModelCall }

// ModelStreamEvent fires for each event forwarded verbatim from the model
// stream.
type ModelStreamEvent struct {
	Agent AgentHandle
	Event model.Event
}

// Kind implements Event.
func (*ModelStreamEvent) Kind() Kind { return KindModelStream }

// BeforeToolCallEvent fires before one tool execution.
type BeforeToolCallEvent struct {
	Agent   AgentHandle
	ToolUse core.ToolUseBlock
}

// Kind implements Event.
func (*BeforeToolCallEvent) Kind() Kind { return KindBeforeToolCall }

// AfterToolCallEvent fires after one tool execution produced a result
// (success or synthesized error). Setting Retry re-runs the same tool call
// from the top, allowing external correction of transient failures.
type AfterToolCallEvent struct {
	Agent   AgentHandle
	ToolUse core.ToolUseBlock
	Result  *core.ToolResultBlock
	Error   error
	Retry   bool
}

// Kind implements Event.
func (*AfterToolCallEvent) Kind() Kind { return KindAfterToolCall }

// BeforeToolsEvent fires before a batch of tool executions for one assistant
// turn.
type BeforeToolsEvent struct {
	Agent    AgentHandle
	ToolUses []core.ToolUseBlock
}

// Kind implements Event.
func (*BeforeToolsEvent) Kind() Kind { return KindBeforeTools }

// AfterToolsEvent fires once all tool executions of the turn completed, with
// results in the same order as the requesting tool-use blocks.
type AfterToolsEvent struct {
	Agent   AgentHandle
	Results []core.ToolResultBlock
}

// Kind implements Event.
func (*AfterToolsEvent) Kind() Kind { return KindAfterTools }

// MessageAddedEvent fires after a message was appended to the shared history.
type MessageAddedEvent struct {
	Agent   AgentHandle
	Message core.Message
}

// Kind implements Event.
func (*MessageAddedEvent) Kind() Kind { return KindMessageAdded }

// BeforeTransferEvent fires before the active agent switches.
type BeforeTransferEvent struct {
	Agent AgentHandle
	From  string
	To    string
}

// Kind implements Event.
func (*BeforeTransferEvent) Kind() Kind { return KindBeforeTransfer }

// AfterTransferEvent fires after the active agent switched.
type AfterTransferEvent struct {
	Agent AgentHandle
	From  string
	To    string
}

// Kind implements Event.
func (*AfterTransferEvent) Kind() Kind { return KindAfterTransfer }

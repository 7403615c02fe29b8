package agent

import (
	"github.com/relayagents/relay/core"
	"github.com/relayagents/relay/model"
	"github.com/relayagents/relay/tool"
)

// Event is a lifecycle event produced on an invocation's stream. Concrete
// event types implement the unexported marker enabling a closed union. Every
// successful stream terminates with a ResultEvent.
type Event interface{ isAgentEvent() }

// ModelStreamEvent forwards one provider stream event verbatim, tagged with
// the emitting agent.
type ModelStreamEvent struct {
	Agent string      `json:"agent"`
	Event model.Event `json:"event"`
}

func (ModelStreamEvent) isAgentEvent() {}

// ToolStreamEvent forwards one intermediate event from a running tool.
type ToolStreamEvent struct {
	Agent     string     `json:"agent"`
	ToolName  string     `json:"tool_name"`
	ToolUseID string     `json:"tool_use_id"`
	Event     tool.Event `json:"event"`
}

func (ToolStreamEvent) isAgentEvent() {}

// MessageEvent reports a message committed to the shared history.
type MessageEvent struct {
	Agent   string       `json:"agent"`
	Message core.Message `json:"message"`
}

func (MessageEvent) isAgentEvent() {}

// TransferEvent reports control moving from one agent to another.
type TransferEvent struct {
	From string `json:"from"`
	To   string `json:"to"`
}

func (TransferEvent) isAgentEvent() {}

// ResultEvent terminates a successful stream with the final result.
type ResultEvent struct {
	Result Result `json:"result"`
}

func (ResultEvent) isAgentEvent() {}

// Result is the outcome of one invocation: the final assistant message, why
// generation stopped, and which agent produced it.
type Result struct {
	StopReason core.StopReason `json:"stop_reason"`
	Message    core.Message    `json:"message"`
	Agent      string          `json:"agent"`
}

// Text returns the concatenated text of the final message.
func (r Result) Text() string { return r.Message.Text() }

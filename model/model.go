// Package model defines the provider abstraction the control loop drives: a
// normalized request, a closed union of streaming events and the Provider
// interface implemented by vendor adapters.
package model

import (
	"context"

	"github.com/relayagents/relay/core"
)

// ToolSpec declaratively exposes a callable tool to the model. InputSchema is
// a minimal JSON Schema object.
type ToolSpec struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"input_schema"`
}

// Request captures the normalized model input produced by the control loop.
type Request struct {
	System   string         `json:"system,omitempty"`
	Messages []core.Message `json:"messages"`
	Tools    []ToolSpec     `json:"tools,omitempty"`
}

// Usage captures token accounting for a model turn.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

// Event is a discriminated streaming event emitted by a Provider. Concrete
// event types implement the unexported marker enabling a closed union. A well
// behaved provider terminates every successful stream with a ResultEvent.
type Event interface{ isModelEvent() }

// MessageStartEvent opens an assistant message.
type MessageStartEvent struct {
	Role core.Role `json:"role"`
}

func (MessageStartEvent) isModelEvent() {}

// ContentBlockStartEvent opens a content block at the given index.
type ContentBlockStartEvent struct {
	Index int               `json:"index"`
	Block core.ContentBlock `json:"block,omitempty"`
}

func (ContentBlockStartEvent) isModelEvent() {}

// ContentBlockDeltaEvent carries an incremental fragment of the block at
// Index: text for text blocks, a JSON fragment of the input for tool-use
// blocks.
type ContentBlockDeltaEvent struct {
	Index      int    `json:"index"`
	Text       string `json:"text,omitempty"`
	InputDelta string `json:"input_delta,omitempty"`
}

func (ContentBlockDeltaEvent) isModelEvent() {}

// ContentBlockStopEvent closes the content block at Index.
type ContentBlockStopEvent struct {
	Index int `json:"index"`
}

func (ContentBlockStopEvent) isModelEvent() {}

// MessageStopEvent closes the assistant message with a stop reason.
type MessageStopEvent struct {
	StopReason core.StopReason `json:"stop_reason"`
}

func (MessageStopEvent) isModelEvent() {}

// MetadataEvent carries usage accounting, typically once per turn.
type MetadataEvent struct {
	Usage Usage `json:"usage"`
}

func (MetadataEvent) isModelEvent() {}

// ResultEvent is the terminal event of a successful stream: the aggregated
// assistant message plus the stop reason.
type ResultEvent struct {
	Message    core.Message    `json:"message"`
	StopReason core.StopReason `json:"stop_reason"`
}

func (ResultEvent) isModelEvent() {}

// Provider is the minimal interface the control loop needs to drive
// generation. Converse returns an event channel and an error channel; exactly
// one of "stream ends after ResultEvent" or "error delivered" happens per
// call. Context-window overflow must be reported as an error matching
// core.IsContextOverflow so the conversation manager can recover.
type Provider interface {
	Converse(ctx context.Context, req Request) (<-chan Event, <-chan error)
}

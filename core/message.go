package core

// Role identifies the conversational author of a message.
type Role string

const (
	// RoleUser marks caller input and tool-result messages.
	RoleUser Role = "user"
	// RoleAssistant marks model output messages.
	RoleAssistant Role = "assistant"
)

// StopReason reports why a model turn ended.
type StopReason string

const (
	// StopEndTurn means the model finished its response normally.
	StopEndTurn StopReason = "end_turn"
	// StopToolUse means the model requested one or more tool invocations.
	StopToolUse StopReason = "tool_use"
	// StopMaxTokens means generation was cut off by the output token budget.
	StopMaxTokens StopReason = "max_tokens"
	// StopSequence means a configured stop sequence was produced.
	StopSequence StopReason = "stop_sequence"
)

// ToolResultStatus reports the outcome of a tool invocation.
type ToolResultStatus string

const (
	// ToolResultSuccess marks a normally completed tool call.
	ToolResultSuccess ToolResultStatus = "success"
	// ToolResultError marks a failed tool call. The content carries the
	// error text for the model to react to.
	ToolResultError ToolResultStatus = "error"
)

// Message is one entry of a conversation. Treat a Message as immutable once
// constructed; history mutation replaces whole entries, never edits one in
// place. Author carries the producing agent's name in multi-agent transcripts
// and is empty for single-agent use.
type Message struct {
	Role    Role           `json:"role"`
	Content []ContentBlock `json:"content"`
	Author  string         `json:"author,omitempty"`
}

// NewUserMessage builds a user-role message from content blocks.
func NewUserMessage(blocks ...ContentBlock) Message {
	return Message{Role: RoleUser, Content: blocks}
}

// NewUserTextMessage builds a user-role message from plain text.
func NewUserTextMessage(text string) Message {
	return NewUserMessage(TextBlock{Text: text})
}

// HasToolUse reports whether the message contains at least one tool-use block.
func (m Message) HasToolUse() bool { return len(m.ToolUses()) > 0 }

// HasToolResult reports whether the message contains at least one tool-result
// block.
func (m Message) HasToolResult() bool {
	for _, b := range m.Content {
		if _, ok := b.(ToolResultBlock); ok {
			return true
		}
	}
	return false
}

// ToolUses returns the tool-use blocks of the message preserving their
// original order.
func (m Message) ToolUses() []ToolUseBlock {
	var uses []ToolUseBlock
	for _, b := range m.Content {
		if tu, ok := b.(ToolUseBlock); ok {
			uses = append(uses, tu)
		}
	}
	return uses
}

// ToolResults returns the tool-result blocks of the message preserving their
// original order.
func (m Message) ToolResults() []ToolResultBlock {
	var results []ToolResultBlock
	for _, b := range m.Content {
		if tr, ok := b.(ToolResultBlock); ok {
			results = append(results, tr)
		}
	}
	return results
}

// Text concatenates the text blocks of the message.
func (m Message) Text() string {
	var s string
	for _, b := range m.Content {
		if tb, ok := b.(TextBlock); ok {
			s += tb.Text
		}
	}
	return s
}

// ContentBlock is a polymorphic segment of message content. Concrete block
// types implement the unexported marker enabling a closed union; consumers
// switch exhaustively over the variants.
type ContentBlock interface{ isContentBlock() }

// TextBlock is a plain text segment.
type TextBlock struct {
	Text string `json:"text"`
}

func (TextBlock) isContentBlock() {}

// ToolUseBlock is a model-issued request to invoke a named tool. ToolUseID
// correlates the request with its eventual ToolResultBlock.
type ToolUseBlock struct {
	ToolUseID string         `json:"tool_use_id"`
	Name      string         `json:"name"`
	Input     map[string]any `json:"input,omitempty"`
}

func (ToolUseBlock) isContentBlock() {}

// ToolResultBlock carries the outcome of a tool invocation back to the model.
type ToolResultBlock struct {
	ToolUseID string           `json:"tool_use_id"`
	Status    ToolResultStatus `json:"status"`
	Content   string           `json:"content,omitempty"`
	Error     string           `json:"error,omitempty"`
}

func (ToolResultBlock) isContentBlock() {}

// NewToolResultError builds an error-status result for a tool-use id. Tool
// failures are model-visible content, not loop-fatal conditions.
func NewToolResultError(toolUseID, text string) ToolResultBlock {
	return ToolResultBlock{
		ToolUseID: toolUseID,
		Status:    ToolResultError,
		Content:   text,
		Error:     text,
	}
}

// ReasoningBlock holds provider-surfaced reasoning text.
type ReasoningBlock struct {
	Text      string `json:"text"`
	Signature string `json:"signature,omitempty"`
}

func (ReasoningBlock) isContentBlock() {}

// CachePointBlock marks a prompt-cache boundary for providers that support
// caching.
type CachePointBlock struct{}

func (CachePointBlock) isContentBlock() {}

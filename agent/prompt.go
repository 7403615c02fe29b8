package agent

import "github.com/relayagents/relay/core"

// Prompt is the caller input union accepted by Invoke and Stream: raw text,
// content blocks, or full messages. A nil Prompt appends nothing and resumes
// the conversation as it stands.
type Prompt interface {
	promptMessages() []core.Message
}

type textPrompt string

func (p textPrompt) promptMessages() []core.Message {
	if p == "" {
		return nil
	}
	return []core.Message{core.NewUserTextMessage(string(p))}
}

// Text wraps plain text as a single user message.
func Text(s string) Prompt { return textPrompt(s) }

type blocksPrompt []core.ContentBlock

func (p blocksPrompt) promptMessages() []core.Message {
	if len(p) == 0 {
		return nil
	}
	return []core.Message{core.NewUserMessage(p...)}
}

// Blocks wraps content blocks as a single user message.
func Blocks(blocks ...core.ContentBlock) Prompt { return blocksPrompt(blocks) }

type messagesPrompt []core.Message

func (p messagesPrompt) promptMessages() []core.Message { return p }

// Messages passes fully formed messages through unchanged.
func Messages(msgs ...core.Message) Prompt { return messagesPrompt(msgs) }

// normalizePrompt converts a possibly nil Prompt into zero or more messages
// to append.
func normalizePrompt(p Prompt) []core.Message {
	if p == nil {
		return nil
	}
	return p.promptMessages()
}

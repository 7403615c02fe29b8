// Package openai adapts the OpenAI Chat Completions API (streaming, with
// tool calling) to the model.Provider interface. It translates the
// normalized request into SDK messages and reassembles streamed deltas into
// the terminal result message.
package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/relayagents/relay/core"
	"github.com/relayagents/relay/model"
)

// aggCall aggregates partial tool call streaming deltas (id, name,
// arguments) so complete tool-use blocks can be reconstructed at finish.
type aggCall struct{ id, name, args string }

// Options configures the OpenAI provider. Fields mirror a minimal subset of
// Chat Completion parameters; extend via functional options without breaking
// callers.
type Options struct {
	Model               string
	Temperature         float64
	MaxCompletionTokens int64
}

// Provider wraps the OpenAI Chat Completions API behind the generic
// model.Provider interface.
type Provider struct {
	client *openai.Client
	opts   Options
}

// New creates an OpenAI provider using the official client.
func New(optFns ...func(o *Options)) *Provider {
	client := openai.NewClient()
	return NewFromClient(&client, optFns...)
}

// NewFromClient creates an OpenAI provider from an existing client.
func NewFromClient(client *openai.Client, optFns ...func(o *Options)) *Provider {
	opts := Options{
		Model:               openai.ChatModelGPT4oMini,
		Temperature:         0.7,
		MaxCompletionTokens: 4096,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Provider{client: client, opts: opts}
}

// Converse streams one chat completion, forwarding text and tool-call deltas
// as they arrive and terminating with a ResultEvent carrying the assembled
// assistant message.
func (p *Provider) Converse(ctx context.Context, req model.Request) (<-chan model.Event, <-chan error) {
	out := make(chan model.Event, 32)
	errCh := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errCh)

		params := p.buildParams(req)
		stream := p.client.Chat.Completions.NewStreaming(ctx, params)

		// Sends respect cancellation so an abandoned consumer cannot strand
		// this goroutine.
		emit := func(ev model.Event) bool {
			select {
			case out <- ev:
				return true
			case <-ctx.Done():
				errCh <- ctx.Err()
				return false
			}
		}

		if !emit(model.MessageStartEvent{Role: core.RoleAssistant}) {
			return
		}

		var (
			textBuilder strings.Builder
			textOpened  bool
			toolAgg     = map[int64]*aggCall{}
			toolOrder   []int64
			finish      string
		)

		for stream.Next() {
			ck := stream.Current()
			for _, ch := range ck.Choices {
				if ch.Delta.Content != "" {
					if !textOpened {
						textOpened = true
						if !emit(model.ContentBlockStartEvent{Index: 0}) {
							return
						}
					}
					textBuilder.WriteString(ch.Delta.Content)
					if !emit(model.ContentBlockDeltaEvent{Index: 0, Text: ch.Delta.Content}) {
						return
					}
				}
				for _, tc := range ch.Delta.ToolCalls {
					ac, ok := toolAgg[tc.Index]
					if !ok {
						ac = &aggCall{}
						toolAgg[tc.Index] = ac
						toolOrder = append(toolOrder, tc.Index)
						if !emit(model.ContentBlockStartEvent{Index: int(tc.Index) + 1}) {
							return
						}
					}
					if tc.ID != "" {
						ac.id = tc.ID
					}
					if tc.Function.Name != "" {
						ac.name = tc.Function.Name
					}
					if tc.Function.Arguments != "" {
						ac.args += tc.Function.Arguments
						if !emit(model.ContentBlockDeltaEvent{
							Index:      int(tc.Index) + 1,
							InputDelta: tc.Function.Arguments,
						}) {
							return
						}
					}
				}
				if ch.FinishReason != "" {
					finish = ch.FinishReason
				}
			}
		}
		if err := stream.Err(); err != nil {
			errCh <- classifyError(err)
			return
		}

		msg := assembleMessage(textBuilder.String(), toolAgg, toolOrder)
		stop := convertFinishReason(finish, len(toolOrder) > 0)

		if textOpened {
			if !emit(model.ContentBlockStopEvent{Index: 0}) {
				return
			}
		}
		for _, idx := range toolOrder {
			if !emit(model.ContentBlockStopEvent{Index: int(idx) + 1}) {
				return
			}
		}
		if !emit(model.MessageStopEvent{StopReason: stop}) {
			return
		}
		emit(model.ResultEvent{Message: msg, StopReason: stop})
	}()

	return out, errCh
}

// classifyError maps an SDK error to the normalized error taxonomy. The API
// reports an over-long prompt as a 400 with code context_length_exceeded.
func classifyError(err error) error {
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "context_length_exceeded") || strings.Contains(msg, "maximum context length") {
		return &core.ContextWindowOverflowError{Cause: err}
	}
	return fmt.Errorf("openai streaming error: %w", err)
}

// assembleMessage builds the final assistant message from accumulated text
// and tool-call fragments, in stream order.
func assembleMessage(text string, toolAgg map[int64]*aggCall, order []int64) core.Message {
	var blocks []core.ContentBlock
	if text != "" {
		blocks = append(blocks, core.TextBlock{Text: text})
	}
	for _, idx := range order {
		ac := toolAgg[idx]
		input := map[string]any{}
		if ac.args != "" {
			_ = json.Unmarshal([]byte(ac.args), &input)
		}
		blocks = append(blocks, core.ToolUseBlock{
			ToolUseID: ac.id,
			Name:      ac.name,
			Input:     input,
		})
	}
	return core.Message{Role: core.RoleAssistant, Content: blocks}
}

func convertFinishReason(reason string, hasToolCalls bool) core.StopReason {
	switch reason {
	case "tool_calls":
		return core.StopToolUse
	case "length":
		return core.StopMaxTokens
	case "stop":
		if hasToolCalls {
			return core.StopToolUse
		}
		return core.StopEndTurn
	default:
		if hasToolCalls {
			return core.StopToolUse
		}
		return core.StopEndTurn
	}
}

// buildParams assembles the request parameters including tool definitions.
func (p *Provider) buildParams(req model.Request) openai.ChatCompletionNewParams {
	params := openai.ChatCompletionNewParams{
		Messages:            buildMessages(req),
		Model:               p.opts.Model,
		Temperature:         openai.Float(p.opts.Temperature),
		MaxCompletionTokens: openai.Int(p.opts.MaxCompletionTokens),
	}
	if len(req.Tools) == 0 {
		return params
	}
	tools := make([]openai.ChatCompletionToolParam, len(req.Tools))
	for i, spec := range req.Tools {
		tools[i] = openai.ChatCompletionToolParam{
			Type: "function",
			Function: openai.FunctionDefinitionParam{
				Name:        spec.Name,
				Description: openai.String(spec.Description),
				Parameters:  spec.InputSchema,
			},
		}
	}
	params.Tools = tools
	return params
}

// buildMessages converts normalized messages into chat messages. Tool
// results live inside user messages in the normalized form; the Chat
// Completions API wants them as dedicated tool-role messages, so they are
// split out in place.
func buildMessages(req model.Request) []openai.ChatCompletionMessageParamUnion {
	var messages []openai.ChatCompletionMessageParamUnion

	if req.System != "" {
		messages = append(messages, openai.SystemMessage(req.System))
	}

	for _, m := range req.Messages {
		switch m.Role {
		case core.RoleAssistant:
			toolCalls := convertToolCalls(m.ToolUses())
			text := m.Text()
			if len(toolCalls) == 0 {
				messages = append(messages, openai.AssistantMessage(text))
				continue
			}
			assistant := &openai.ChatCompletionAssistantMessageParam{
				Role:      "assistant",
				ToolCalls: toolCalls,
			}
			if text != "" {
				assistant.Content.OfString = openai.String(text)
			}
			messages = append(messages, openai.ChatCompletionMessageParamUnion{OfAssistant: assistant})
		default:
			for _, tr := range m.ToolResults() {
				messages = append(messages, openai.ToolMessage(tr.Content, tr.ToolUseID))
			}
			if text := m.Text(); text != "" {
				messages = append(messages, openai.UserMessage(text))
			}
		}
	}

	return messages
}

func convertToolCalls(uses []core.ToolUseBlock) []openai.ChatCompletionMessageToolCallParam {
	var calls []openai.ChatCompletionMessageToolCallParam
	for _, use := range uses {
		args := "{}"
		if use.Input != nil {
			if raw, err := json.Marshal(use.Input); err == nil {
				args = string(raw)
			}
		}
		calls = append(calls, openai.ChatCompletionMessageToolCallParam{
			ID:   use.ToolUseID,
			Type: "function",
			Function: openai.ChatCompletionMessageToolCallFunctionParam{
				Name:      use.Name,
				Arguments: args,
			},
		})
	}
	return calls
}

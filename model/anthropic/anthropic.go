// Package anthropic adapts the Anthropic Messages API to the model.Provider
// interface.
package anthropic

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/shared/constant"
	"github.com/relayagents/relay/core"
	"github.com/relayagents/relay/model"
)

// Options configures the Anthropic provider (model id, temperature, max
// tokens, API key). Extend via functional options to preserve stability.
type Options struct {
	Model       anthropic.Model
	Temperature float64
	MaxTokens   int64
	APIKey      string
}

// Provider wraps the Anthropic Messages API behind the generic
// model.Provider interface.
type Provider struct {
	client *anthropic.Client
	opts   Options
}

// New creates an Anthropic provider using the official client.
func New(optFns ...func(o *Options)) *Provider {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}
	client := anthropic.NewClient(clientOpts...)

	return &Provider{client: &client, opts: opts}
}

// NewFromClient creates an Anthropic provider from an existing client.
func NewFromClient(client *anthropic.Client, optFns ...func(o *Options)) *Provider {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Provider{client: client, opts: opts}
}

func defaultOptions() Options {
	return Options{
		Model:       anthropic.ModelClaude3_5Sonnet20241022,
		Temperature: 0.7,
		MaxTokens:   4096,
	}
}

// Converse issues one Messages API call and replays the response as the
// normalized event sequence, terminated by a ResultEvent. Context-window
// overflow is reported as core.ContextWindowOverflowError so the
// conversation manager can recover.
func (p *Provider) Converse(ctx context.Context, req model.Request) (<-chan model.Event, <-chan error) {
	out := make(chan model.Event, 32)
	errCh := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errCh)

		params := anthropic.MessageNewParams{
			Model:       p.opts.Model,
			Messages:    buildMessages(req.Messages),
			MaxTokens:   p.opts.MaxTokens,
			Temperature: anthropic.Float(p.opts.Temperature),
		}
		if req.System != "" {
			params.System = []anthropic.TextBlockParam{{Text: req.System}}
		}
		if len(req.Tools) > 0 {
			params.Tools = buildTools(req.Tools)
		}

		resp, err := p.client.Messages.New(ctx, params)
		if err != nil {
			errCh <- classifyError(err)
			return
		}

		msg, stop := convertResponse(resp)

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
		for i, block := range msg.Content {
			if !emit(model.ContentBlockStartEvent{Index: i, Block: block}) {
				return
			}
			if tb, ok := block.(core.TextBlock); ok {
				if !emit(model.ContentBlockDeltaEvent{Index: i, Text: tb.Text}) {
					return
				}
			}
			if !emit(model.ContentBlockStopEvent{Index: i}) {
				return
			}
		}
		if !emit(model.MetadataEvent{Usage: model.Usage{
			InputTokens:  int(resp.Usage.InputTokens),
			OutputTokens: int(resp.Usage.OutputTokens),
			TotalTokens:  int(resp.Usage.InputTokens + resp.Usage.OutputTokens),
		}}) {
			return
		}
		if !emit(model.MessageStopEvent{StopReason: stop}) {
			return
		}
		emit(model.ResultEvent{Message: msg, StopReason: stop})
	}()

	return out, errCh
}

// classifyError maps an SDK error to the normalized error taxonomy. The
// Messages API reports an over-long prompt as a 400 with a recognizable
// message rather than a dedicated error type.
func classifyError(err error) error {
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "prompt is too long") || strings.Contains(msg, "context window") {
		return &core.ContextWindowOverflowError{Cause: err}
	}
	return fmt.Errorf("anthropic api error: %w", err)
}

// buildMessages converts normalized messages to Anthropic message params.
// Tool results already live inside user messages in API order, so the
// mapping is positional.
func buildMessages(msgs []core.Message) []anthropic.MessageParam {
	var messages []anthropic.MessageParam

	for _, m := range msgs {
		var content []anthropic.ContentBlockParamUnion
		for _, block := range m.Content {
			switch b := block.(type) {
			case core.TextBlock:
				if b.Text != "" {
					content = append(content, anthropic.NewTextBlock(b.Text))
				}
			case core.ToolUseBlock:
				content = append(content, anthropic.NewToolUseBlock(b.ToolUseID, b.Input, b.Name))
			case core.ToolResultBlock:
				content = append(content, anthropic.NewToolResultBlock(
					b.ToolUseID,
					b.Content,
					b.Status == core.ToolResultError,
				))
			}
		}
		if len(content) == 0 {
			continue
		}
		switch m.Role {
		case core.RoleAssistant:
			messages = append(messages, anthropic.NewAssistantMessage(content...))
		default:
			messages = append(messages, anthropic.NewUserMessage(content...))
		}
	}

	return messages
}

// buildTools converts normalized tool specs to Anthropic tool params.
func buildTools(specs []model.ToolSpec) []anthropic.ToolUnionParam {
	tools := make([]anthropic.ToolUnionParam, len(specs))

	for i, spec := range specs {
		inputSchema := anthropic.ToolInputSchemaParam{
			Type: constant.Object("object"),
		}
		if spec.InputSchema != nil {
			if properties, exists := spec.InputSchema["properties"]; exists {
				inputSchema.Properties = properties
			}
			if required, exists := spec.InputSchema["required"]; exists {
				inputSchema.Required = requiredNames(required)
			}
		}
		tools[i] = anthropic.ToolUnionParamOfTool(inputSchema, spec.Name)
		if t := tools[i].OfTool; t != nil {
			t.Description = anthropic.String(spec.Description)
		}
	}

	return tools
}

func requiredNames(required any) []string {
	switch req := required.(type) {
	case []string:
		return req
	case []any:
		var names []string
		for _, r := range req {
			if s, ok := r.(string); ok {
				names = append(names, s)
			}
		}
		return names
	}
	return nil
}

// convertResponse maps an API response to the normalized message and stop
// reason.
func convertResponse(resp *anthropic.Message) (core.Message, core.StopReason) {
	var blocks []core.ContentBlock

	for _, block := range resp.Content {
		switch block.Type {
		case "text":
			tb := block.AsText()
			if tb.Text != "" {
				blocks = append(blocks, core.TextBlock{Text: tb.Text})
			}
		case "tool_use":
			tu := block.AsToolUse()
			input := map[string]any{}
			if tu.Input != nil {
				if raw, err := json.Marshal(tu.Input); err == nil {
					_ = json.Unmarshal(raw, &input)
				}
			}
			blocks = append(blocks, core.ToolUseBlock{
				ToolUseID: tu.ID,
				Name:      tu.Name,
				Input:     input,
			})
		}
	}

	msg := core.Message{Role: core.RoleAssistant, Content: blocks}
	return msg, convertStopReason(string(resp.StopReason))
}

func convertStopReason(reason string) core.StopReason {
	switch reason {
	case "tool_use":
		return core.StopToolUse
	case "max_tokens":
		return core.StopMaxTokens
	case "stop_sequence":
		return core.StopSequence
	default:
		return core.StopEndTurn
	}
}

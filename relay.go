// Package relay provides a high-level façade over the agent control loop for
// building tool-using, multi-agent conversational systems. Most applications
// interact with relay by:
//  1. Creating agents via agent.New with a model provider (anthropic, openai
//     or a mock)
//  2. Optionally wiring a tree with SetSubAgents and registering tools
//  3. Invoking synchronously (Invoke) or consuming the event stream (Stream)
//
// The façade re-exports the handful of types most programs touch so simple
// callers import a single package. Everything here delegates to the agent,
// core, tool and conversation packages.
package relay

import (
	"context"

	"github.com/relayagents/relay/agent"
	"github.com/relayagents/relay/core"
	"github.com/relayagents/relay/model"
	"github.com/relayagents/relay/tool"
)

// Version is the library version.
const Version = "0.1.0"

// Agent is the central orchestration type.
type Agent = agent.Agent

// Result is the outcome of one invocation.
type Result = agent.Result

// New creates an agent with sensible defaults.
func New(name string, provider model.Provider, optFns ...func(o *agent.Options)) *Agent {
	return agent.New(name, provider, optFns...)
}

// Text wraps plain text as a prompt.
func Text(s string) agent.Prompt { return agent.Text(s) }

// NewFunctionTool wraps a Go function as an invocable tool.
func NewFunctionTool(
	name, description string,
	schema map[string]any,
	fn func(tc *tool.Context, args map[string]any) (string, error),
) *tool.FunctionTool {
	return tool.NewFunctionTool(name, description, schema, fn)
}

// Collect drains an invocation's event stream, accumulating every event, and
// returns them together with the final result. It is the synchronous
// companion to Agent.Stream for callers that also want the event trace.
func Collect(ctx context.Context, a *Agent, prompt agent.Prompt) ([]agent.Event, *Result, error) {
	events, errCh := a.Stream(ctx, prompt)

	var (
		collected []agent.Event
		result    *Result
	)
	for ev := range events {
		collected = append(collected, ev)
		if re, ok := ev.(agent.ResultEvent); ok {
			r := re.Result
			result = &r
		}
	}
	if err := <-errCh; err != nil {
		return collected, nil, err
	}
	return collected, result, nil
}

// NewUserTextMessage builds a user message from plain text.
func NewUserTextMessage(text string) core.Message { return core.NewUserTextMessage(text) }

// Package agent implements the relay control loop: an Agent owns its
// conversation history, state, tools, hook registry and conversation manager,
// and drives model invocation, tool execution and sub-agent transfer as one
// cancellable event stream per caller invocation.
package agent

import (
	"context"
	"fmt"
	"sync"

	"github.com/relayagents/relay/conversation"
	"github.com/relayagents/relay/core"
	"github.com/relayagents/relay/hooks"
	"github.com/relayagents/relay/logging"
	"github.com/relayagents/relay/model"
	"github.com/relayagents/relay/tool"
)

// Options configures an Agent. Use functional options with New to override
// defaults.
type Options struct {
	// Description is shown to sibling agents as a transfer-target summary.
	Description string
	// Instruction is the system prompt (static or provider-backed).
	Instruction Instruction
	// Tools are registered into the agent's tool registry.
	Tools []tool.Tool
	// ConversationManager keeps history within budget. Defaults to a
	// sliding window manager with its own defaults.
	ConversationManager conversation.Manager
	// Hooks are additional hook providers registered after the
	// conversation manager.
	Hooks []hooks.Provider
	// State seeds the agent's key/value state store.
	State map[string]any
	// Logger receives structured diagnostics. Defaults to a no-op logger.
	Logger logging.Logger
	// MaxModelCalls bounds model calls per invocation. 0 means unlimited.
	MaxModelCalls int
	// MaxConsecutiveTransfers is the anti-thrash ceiling on back-to-back
	// transfers before a requested transfer is suppressed. Defaults to 8.
	MaxConsecutiveTransfers int
	// AllowPeerTransfer permits transfers to the parent and siblings in
	// addition to children. Defaults to true.
	AllowPeerTransfer bool
}

// Agent is one node of a (possibly single-node) agent tree. Construct with
// New, optionally wire sub-agents with SetSubAgents, then call Invoke or
// Stream. Tree wiring is immutable once the agent has been invoked.
type Agent struct {
	name        string
	description string
	instruction Instruction

	provider model.Provider
	tools    *tool.Registry
	hooks    *hooks.Registry
	manager  conversation.Manager
	state    *State
	logger   logging.Logger

	maxModelCalls           int
	maxConsecutiveTransfers int
	allowPeerTransfer       bool

	// history is owned by the root of the tree and aliased by every
	// descendant: one unified transcript.
	history *core.History

	mu       sync.Mutex
	parent   *Agent
	children []*Agent

	// transfer state, meaningful on the root only.
	transfer transferState

	// runMu serializes invocations per tree; held on the root only.
	runMu sync.Mutex
}

// transferState is the per-root scalar transfer bookkeeping: the remembered
// active sub-agent and the consecutive-transfer counter.
type transferState struct {
	mu          sync.Mutex
	activeName  string
	consecutive int
}

// New creates an Agent with sensible defaults: a sliding window conversation
// manager, an empty state store, peer transfer allowed and a transfer ceiling
// of 8.
func New(name string, provider model.Provider, optFns ...func(o *Options)) *Agent {
	opts := Options{
		Description:             fmt.Sprintf("Agent %s", name),
		Instruction:             NewInstructionFromText(fmt.Sprintf("You are %s, a helpful AI assistant.", name)),
		ConversationManager:     conversation.NewSlidingWindowManager(),
		Logger:                  logging.NoOpLogger{},
		MaxConsecutiveTransfers: 8,
		AllowPeerTransfer:       true,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	a := &Agent{
		name:                    name,
		description:             opts.Description,
		instruction:             opts.Instruction,
		provider:                provider,
		tools:                   tool.NewRegistry(opts.Tools...),
		hooks:                   hooks.NewRegistry(),
		manager:                 opts.ConversationManager,
		state:                   NewState(opts.State),
		logger:                  opts.Logger,
		maxModelCalls:           opts.MaxModelCalls,
		maxConsecutiveTransfers: opts.MaxConsecutiveTransfers,
		allowPeerTransfer:       opts.AllowPeerTransfer,
		history:                 core.NewHistory(),
	}

	a.hooks.AddHook(a.manager)
	for _, p := range opts.Hooks {
		a.hooks.AddHook(p)
	}

	return a
}

// Name returns the agent's name.
func (a *Agent) Name() string { return a.name }

// Description returns the agent's transfer-target summary.
func (a *Agent) Description() string { return a.description }

// State returns the agent's key/value store.
func (a *Agent) State() *State { return a.state }

// History returns the shared conversation buffer.
func (a *Agent) History() *core.History { return a.history }

// Messages returns a copy of the conversation history. Part of the
// hooks.AgentHandle surface.
func (a *Agent) Messages() []core.Message { return a.history.Messages() }

// SetMessages replaces the conversation history. Part of the
// hooks.AgentHandle surface.
func (a *Agent) SetMessages(msgs []core.Message) { a.history.Replace(msgs) }

// RegisterTool adds a tool to the agent's registry, rejecting duplicates.
func (a *Agent) RegisterTool(t tool.Tool) error { return a.tools.Register(t) }

// Tools returns the agent's own tool registry (without the synthetic
// transfer tool).
func (a *Agent) Tools() *tool.Registry { return a.tools }

// Invoke runs one logical turn to completion and returns the final result.
// It drains the underlying stream, so the exclusivity lock is always
// released.
func (a *Agent) Invoke(ctx context.Context, prompt Prompt) (*Result, error) {
	events, errCh := a.Stream(ctx, prompt)

	var result *Result
	for ev := range events {
		if re, ok := ev.(ResultEvent); ok {
			r := re.Result
			result = &r
		}
	}
	if err := <-errCh; err != nil {
		return nil, err
	}
	if result == nil {
		return nil, fmt.Errorf("stream ended without a result")
	}
	return result, nil
}

// Stream runs one logical turn, producing lifecycle events as they happen.
// The event channel closes when the turn ends; the error channel then yields
// the terminal error, if any.
//
// At most one invocation may be in flight per agent tree: a concurrent call
// fails immediately with core.ErrConcurrentInvocation instead of queuing.
// Callers must drain the event channel (or use Invoke) so the lock is
// released.
func (a *Agent) Stream(ctx context.Context, prompt Prompt) (<-chan Event, <-chan error) {
	out := make(chan Event, 32)
	errCh := make(chan error, 1)

	root := a.Root()
	if !root.runMu.TryLock() {
		a.logger.Warn("agent.invoke.concurrent", "agent", a.name)
		close(out)
		errCh <- core.ErrConcurrentInvocation
		close(errCh)
		return out, errCh
	}

	go func() {
		defer close(errCh)
		defer close(out)
		defer root.runMu.Unlock()

		l := &loop{root: root, entry: a, out: out}
		result, err := l.run(ctx, normalizePrompt(prompt))
		if err != nil {
			errCh <- err
			return
		}

		select {
		case out <- ResultEvent{Result: *result}:
		case <-ctx.Done():
			errCh <- ctx.Err()
		}
	}()

	return out, errCh
}

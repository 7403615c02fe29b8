// Package hooks implements the lifecycle event registry that decouples the
// control loop from cross-cutting extensions such as conversation management,
// telemetry or custom retry policies.
//
// Dispatch is synchronous and sequential in registration order: later
// callbacks observe mutations made by earlier ones, and the loop inspects
// mutable event fields (retry flags) only after every callback has run. A
// callback returning an error aborts the remaining callbacks for that
// dispatch and surfaces at the dispatch call site.
package hooks

import "context"

// Kind names a lifecycle event.
type Kind string

const (
	// KindBeforeInvocation fires once when a caller-level invocation starts.
	KindBeforeInvocation Kind = "before_invocation"
	// KindAfterInvocation fires unconditionally when an invocation ends,
	// even on the error path.
	KindAfterInvocation Kind = "after_invocation"
	// KindBeforeModelCall fires before each model call.
	KindBeforeModelCall Kind = "before_model_call"
	// KindAfterModelCall fires after each model call, with either the
	// aggregated message or the normalized error.
	KindAfterModelCall Kind = "after_model_call"
	// KindModelStream fires for every event forwarded from the model stream.
	KindModelStream Kind = "model_stream"
	// KindBeforeToolCall fires before an individual tool execution.
	KindBeforeToolCall Kind = "before_tool_call"
	// KindAfterToolCall fires after an individual tool execution.
	KindAfterToolCall Kind = "after_tool_call"
	// KindBeforeTools fires before a batch of tool executions.
	KindBeforeTools Kind = "before_tools"
	// KindAfterTools fires after a batch of tool executions.
	KindAfterTools Kind = "after_tools"
	// KindMessageAdded fires after a message is appended to history.
	KindMessageAdded Kind = "message_added"
	// KindBeforeTransfer fires before control moves to another agent.
	KindBeforeTransfer Kind = "before_transfer"
	// KindAfterTransfer fires after control moved to another agent.
	KindAfterTransfer Kind = "after_transfer"
)

// Event is a typed hook payload. Events are created per dispatch, passed by
// pointer so callbacks can mutate response fields, and discarded after the
// dispatcher returns.
type Event interface {
	Kind() Kind
}

// Callback handles one dispatched event. Callbacks may block; dispatch awaits
// each in turn.
type Callback func(ctx context.Context, ev Event) error

// Provider registers callbacks against a Registry at agent construction time.
// The conversation manager is the canonical in-tree provider.
type Provider interface {
	RegisterHooks(reg *Registry)
}

// Registry maps event kinds to ordered callback lists for one agent.
//
// Registration is expected to complete before the agent is first invoked;
// Registry is not synchronized for concurrent registration.
type Registry struct {
	callbacks map[Kind][]Callback
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{callbacks: map[Kind][]Callback{}}
}

// AddCallback subscribes cb to events of the given kind, after any previously
// registered callbacks.
func (r *Registry) AddCallback(kind Kind, cb Callback) {
	r.callbacks[kind] = append(r.callbacks[kind], cb)
}

// AddHook lets a provider register its callbacks.
func (r *Registry) AddHook(p Provider) { p.RegisterHooks(r) }

// InvokeCallbacks runs every callback registered for ev's kind in
// registration order, awaiting each. The first error aborts the dispatch and
// is returned to the caller.
func (r *Registry) InvokeCallbacks(ctx context.Context, ev Event) error {
	for _, cb := range r.callbacks[ev.Kind()] {
		if err := cb(ctx, ev); err != nil {
			return err
		}
	}
	return nil
}

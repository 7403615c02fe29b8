package tool

import (
	"context"

	"github.com/relayagents/relay/logging"
)

// StateAccessor is the key/value state surface a tool may read and write. The
// store is JSON-valued and never sent to the model.
type StateAccessor interface {
	Get(key string) (any, bool)
	Set(key string, value any)
}

// Actions accumulates orchestration signals a tool raised during execution.
// The control loop consumes them at the turn boundary rather than reacting
// mid-call.
type Actions struct {
	// TransferTo names the agent a transfer tool queued control for. Nil
	// when no transfer was requested.
	TransferTo *string
}

// Context is the constrained execution surface handed to a tool invocation.
// It carries the ambient cancellation context, the correlation id of the
// originating tool-use block, the active agent's identity and state, and the
// action buffer the loop inspects afterwards.
type Context struct {
	ctx       context.Context
	toolUseID string
	agentName string
	state     StateAccessor
	logger    logging.Logger
	actions   Actions
}

// NewContext constructs a tool context bound to one tool-use.
func NewContext(ctx context.Context, toolUseID, agentName string, state StateAccessor, logger logging.Logger) *Context {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &Context{
		ctx:       ctx,
		toolUseID: toolUseID,
		agentName: agentName,
		state:     state,
		logger:    logger,
	}
}

// Context returns the ambient cancellation context.
func (tc *Context) Context() context.Context { return tc.ctx }

// ToolUseID returns the correlation id of the originating tool-use block.
func (tc *Context) ToolUseID() string { return tc.toolUseID }

// AgentName returns the name of the agent executing the tool.
func (tc *Context) AgentName() string { return tc.agentName }

// Logger returns the structured logger for the invocation.
func (tc *Context) Logger() logging.Logger { return tc.logger }

// GetState reads a key from the agent's state store.
func (tc *Context) GetState(key string) (any, bool) {
	if tc.state == nil {
		return nil, false
	}
	return tc.state.Get(key)
}

// SetState writes a key to the agent's state store.
func (tc *Context) SetState(key string, value any) {
	if tc.state != nil {
		tc.state.Set(key, value)
	}
}

// TransferToAgent queues a transfer of control to the named agent. The loop
// consumes the request at the end of the current turn.
func (tc *Context) TransferToAgent(name string) {
	tc.actions.TransferTo = &name
	tc.logger.Info("tool.transfer.request",
		"from_agent", tc.agentName,
		"to_agent", name,
		"tool_use_id", tc.toolUseID,
	)
}

// Actions returns the accumulated orchestration signals.
func (tc *Context) Actions() Actions { return tc.actions }

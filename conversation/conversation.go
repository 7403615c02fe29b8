// Package conversation implements context reduction for conversation
// histories. Managers plug into the control loop as hook providers: they trim
// history after each turn and recover from model-reported context-window
// overflow by reducing and requesting a model-call retry.
package conversation

import (
	"github.com/relayagents/relay/core"
	"github.com/relayagents/relay/hooks"
)

// Manager keeps a conversation history within budget. Implementations are
// stateless across calls; everything they need lives in the message sequence
// itself.
type Manager interface {
	hooks.Provider

	// ReduceContext returns a reduced copy of msgs that never violates
	// tool-use/tool-result pairing, or a context-overflow error when no
	// valid reduction exists.
	ReduceContext(msgs []core.Message) ([]core.Message, error)
}

// NullManager performs no reduction. Histories grow without bound and
// overflow errors propagate to the caller.
type NullManager struct{}

// NewNullManager creates a manager that never reduces.
func NewNullManager() *NullManager { return &NullManager{} }

// RegisterHooks implements hooks.Provider as a no-op.
func (*NullManager) RegisterHooks(*hooks.Registry) {}

// ReduceContext returns msgs unchanged.
func (*NullManager) ReduceContext(msgs []core.Message) ([]core.Message, error) {
	return msgs, nil
}

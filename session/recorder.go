package session

import (
	"context"

	"github.com/relayagents/relay/hooks"
)

// Recorder is a hook provider that saves the conversation history to a Store
// after every invocation. Register it via the agent's Hooks option to make
// conversations resumable with Restore.
type Recorder struct {
	store     Store
	sessionID string
}

// NewRecorder creates a recorder bound to one session id.
func NewRecorder(store Store, sessionID string) *Recorder {
	return &Recorder{store: store, sessionID: sessionID}
}

// RegisterHooks implements hooks.Provider.
func (r *Recorder) RegisterHooks(reg *hooks.Registry) {
	reg.AddCallback(hooks.KindAfterInvocation, func(ctx context.Context, ev hooks.Event) error {
		e := ev.(*hooks.AfterInvocationEvent)
		return r.store.Save(r.sessionID, e.Agent.Messages())
	})
}

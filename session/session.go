// Package session provides conversation persistence across process restarts
// and across agents that do not share a tree. The Store interface abstracts
// the backend; add additional backends (Redis, Postgres, etc.) in
// sub-packages without changing calling code.
package session

import (
	"fmt"

	"github.com/relayagents/relay/core"
)

// Store persists conversation histories keyed by session id.
type Store interface {
	// Load returns the saved history for a session, or an empty slice for
	// an unknown id.
	Load(sessionID string) ([]core.Message, error)

	// Save replaces the saved history for a session.
	Save(sessionID string, msgs []core.Message) error

	// Delete removes a session. Deleting an unknown id is a no-op.
	Delete(sessionID string) error
}

// Restore loads a session's history into an agent-shaped handle. Call it
// before the first invocation of a resumed conversation.
func Restore(store Store, sessionID string, h interface{ SetMessages([]core.Message) }) error {
	msgs, err := store.Load(sessionID)
	if err != nil {
		return fmt.Errorf("load session %q: %w", sessionID, err)
	}
	h.SetMessages(msgs)
	return nil
}

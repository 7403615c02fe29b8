package model

import (
	"context"
	"fmt"

	"github.com/relayagents/relay/core"
)

// MockTurn scripts one Converse call of a MockProvider. When Err is non-nil
// the call fails with it instead of producing events.
type MockTurn struct {
	Message    core.Message
	StopReason core.StopReason
	Err        error
}

// MockProvider is a lightweight in-memory Provider useful for tests and
// examples. Each Converse call consumes the next scripted turn, emitting a
// plausible event sequence (message start, per-block deltas, stop, result).
// It is not safe for concurrent Converse calls.
type MockProvider struct {
	turns []MockTurn
	calls int

	// Requests records every request received, for assertions.
	Requests []Request
}

// NewMockProvider creates a provider that plays back the given turns in
// order. Calls past the scripted turns fail.
func NewMockProvider(turns ...MockTurn) *MockProvider {
	return &MockProvider{turns: turns}
}

// AddTurn appends a scripted turn.
func (m *MockProvider) AddTurn(t MockTurn) { m.turns = append(m.turns, t) }

// Calls reports how many Converse calls were made.
func (m *MockProvider) Calls() int { return m.calls }

// Converse implements Provider.
func (m *MockProvider) Converse(ctx context.Context, req Request) (<-chan Event, <-chan error) {
	out := make(chan Event, 32)
	errCh := make(chan error, 1)

	m.calls++
	m.Requests = append(m.Requests, req)

	if m.calls > len(m.turns) {
		close(out)
		errCh <- fmt.Errorf("mock provider: no scripted turn for call %d", m.calls)
		close(errCh)
		return out, errCh
	}
	turn := m.turns[m.calls-1]

	go func() {
		defer close(out)
		defer close(errCh)

		if turn.Err != nil {
			errCh <- turn.Err
			return
		}

		emit := func(ev Event) bool {
			select {
			case <-ctx.Done():
				errCh <- ctx.Err()
				return false
			case out <- ev:
				return true
			}
		}

		if !emit(MessageStartEvent{Role: core.RoleAssistant}) {
			return
		}
		for i, block := range turn.Message.Content {
			if !emit(ContentBlockStartEvent{Index: i, Block: block}) {
				return
			}
			if tb, ok := block.(core.TextBlock); ok {
				if !emit(ContentBlockDeltaEvent{Index: i, Text: tb.Text}) {
					return
				}
			}
			if !emit(ContentBlockStopEvent{Index: i}) {
				return
			}
		}
		if !emit(MessageStopEvent{StopReason: turn.StopReason}) {
			return
		}
		emit(ResultEvent{Message: turn.Message, StopReason: turn.StopReason})
	}()

	return out, errCh
}

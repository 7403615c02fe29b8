package core

import "sync"

// History is the mutable conversation buffer. It is owned by the root of an
// agent tree and aliased by every descendant, so mutations by any agent are
// immediately visible everywhere. Only the control loop of the currently
// active invocation writes to it.
//
// Contract:
//   - Messages returns a defensive copy for safe iteration
//   - Replace swaps the whole sequence (used by context reduction)
//   - entries are replaced, never mutated in place
type History struct {
	mu       sync.RWMutex
	messages []Message
}

// NewHistory creates an empty history buffer.
func NewHistory() *History { return &History{} }

// Append adds messages to the end of the buffer.
func (h *History) Append(msgs ...Message) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = append(h.messages, msgs...)
}

// Messages returns a copy of the current message sequence.
func (h *History) Messages() []Message {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]Message, len(h.messages))
	copy(out, h.messages)
	return out
}

// Replace swaps the full message sequence.
func (h *History) Replace(msgs []Message) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = msgs
}

// Len returns the number of messages in the buffer.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.messages)
}

// Last returns the final message and true, or a zero Message and false when
// the buffer is empty.
func (h *History) Last() (Message, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if len(h.messages) == 0 {
		return Message{}, false
	}
	return h.messages[len(h.messages)-1], true
}

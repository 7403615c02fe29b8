package conversation

import (
	"context"

	"github.com/relayagents/relay/core"
	"github.com/relayagents/relay/hooks"
	"github.com/relayagents/relay/logging"
)

// ToolResultTooLargeText is the placeholder substituted for oversized tool
// results during phase-1 reduction. Re-running truncation on a message that
// already carries this text is a no-op, which is what guarantees progress.
const ToolResultTooLargeText = "The tool result was too large!"

// defaultCutIndex is the trim start used when the history is within the
// window but reduction was still requested (overflow recovery).
const defaultCutIndex = 2

// SlidingWindowManagerOptions configures a SlidingWindowManager.
type SlidingWindowManagerOptions struct {
	// WindowSize is the soft ceiling on history length. Defaults to 40.
	WindowSize int
	// ShouldTruncateResults enables replacing the latest oversized tool
	// result with a placeholder before whole messages are dropped.
	// Defaults to true.
	ShouldTruncateResults bool
	// Logger receives reduction diagnostics. Defaults to a no-op logger.
	Logger logging.Logger
}

// SlidingWindowManager keeps history within a message-count budget using a
// deterministic two-phase algorithm: first truncate the most recent oversized
// tool result (cheap, preserves context), then trim whole messages from the
// front at the first index that forms a self-contained boundary.
type SlidingWindowManager struct {
	windowSize            int
	shouldTruncateResults bool
	logger                logging.Logger
}

// NewSlidingWindowManager creates a manager with the given options.
func NewSlidingWindowManager(optFns ...func(o *SlidingWindowManagerOptions)) *SlidingWindowManager {
	opts := SlidingWindowManagerOptions{
		WindowSize:            40,
		ShouldTruncateResults: true,
		Logger:                logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &SlidingWindowManager{
		windowSize:            opts.WindowSize,
		shouldTruncateResults: opts.ShouldTruncateResults,
		logger:                opts.Logger,
	}
}

// WindowSize returns the configured message-count ceiling.
func (m *SlidingWindowManager) WindowSize() int { return m.windowSize }

// RegisterHooks wires the manager into the loop: post-turn trimming via
// message-added events and overflow recovery via after-model-call events.
func (m *SlidingWindowManager) RegisterHooks(reg *hooks.Registry) {
	reg.AddCallback(hooks.KindMessageAdded, m.onMessageAdded)
	reg.AddCallback(hooks.KindAfterModelCall, m.onAfterModelCall)
}

// onMessageAdded trims history once it exceeds the window.
func (m *SlidingWindowManager) onMessageAdded(_ context.Context, ev hooks.Event) error {
	added, ok := ev.(*hooks.MessageAddedEvent)
	if !ok {
		return nil
	}

	msgs := added.Agent.Messages()
	if len(msgs) <= m.windowSize {
		return nil
	}

	reduced, err := m.ReduceContext(msgs)
	if err != nil {
		return err
	}

	m.logger.Debug("conversation.window.trimmed",
		"agent", added.Agent.Name(),
		"before", len(msgs),
		"after", len(reduced),
	)
	added.Agent.SetMessages(reduced)

	return nil
}

// onAfterModelCall reduces history and requests a model-call retry when the
// provider reported a context-window overflow. A failed reduction keeps the
// overflow error terminal.
func (m *SlidingWindowManager) onAfterModelCall(_ context.Context, ev hooks.Event) error {
	after, ok := ev.(*hooks.AfterModelCallEvent)
	if !ok || after.Error == nil || !core.IsContextOverflow(after.Error) {
		return nil
	}

	msgs := after.Agent.Messages()
	reduced, err := m.ReduceContext(msgs)
	if err != nil {
		m.logger.Warn("conversation.overflow.unrecoverable", "agent", after.Agent.Name(), "error", err.Error())
		return err
	}

	m.logger.Info("conversation.overflow.reduced",
		"agent", after.Agent.Name(),
		"before", len(msgs),
		"after", len(reduced),
	)
	after.Agent.SetMessages(reduced)
	after.Retry = true

	return nil
}

// ReduceContext applies the two-phase reduction. Phase 1 replaces the most
// recent not-yet-truncated tool result with the placeholder; if that made a
// change no messages are dropped. Phase 2 trims messages from the front,
// advancing the cut index past any position that would orphan a tool result
// or strand a tool use from its paired result.
func (m *SlidingWindowManager) ReduceContext(msgs []core.Message) ([]core.Message, error) {
	if m.shouldTruncateResults {
		if truncated, changed := truncateLatestToolResult(msgs); changed {
			return truncated, nil
		}
	}

	cut := defaultCutIndex
	if len(msgs) > m.windowSize {
		cut = len(msgs) - m.windowSize
	}

	for ; cut < len(msgs); cut++ {
		if validCutIndex(msgs, cut) {
			out := make([]core.Message, len(msgs)-cut)
			copy(out, msgs[cut:])
			return out, nil
		}
	}

	return nil, &core.ContextWindowOverflowError{}
}

// truncateLatestToolResult implements phase 1. It scans backward for the most
// recent message carrying a tool result paired with a preceding tool-use
// message and, unless that result already is
// the placeholder, replaces the whole message with one whose tool results all
// carry an error-status placeholder. Reports whether a change was made.
func truncateLatestToolResult(msgs []core.Message) ([]core.Message, bool) {
	for i := len(msgs) - 1; i >= 0; i-- {
		if !msgs[i].HasToolResult() {
			continue
		}
		// A result with no preceding tool-use cannot anchor a valid history;
		// truncating it would mask the overflow instead of recovering.
		if i == 0 || !msgs[i-1].HasToolUse() {
			continue
		}
		if toolResultsTruncated(msgs[i]) {
			return msgs, false
		}

		replaced := core.Message{Role: msgs[i].Role, Author: msgs[i].Author}
		for _, block := range msgs[i].Content {
			if tr, ok := block.(core.ToolResultBlock); ok {
				replaced.Content = append(replaced.Content,
					core.NewToolResultError(tr.ToolUseID, ToolResultTooLargeText))
				continue
			}
			replaced.Content = append(replaced.Content, block)
		}

		out := make([]core.Message, len(msgs))
		copy(out, msgs)
		out[i] = replaced
		return out, true
	}
	return msgs, false
}

// toolResultsTruncated reports whether every tool result of the message
// already carries the placeholder text.
func toolResultsTruncated(msg core.Message) bool {
	for _, tr := range msg.ToolResults() {
		if tr.Content != ToolResultTooLargeText {
			return false
		}
	}
	return true
}

// validCutIndex reports whether msgs[idx:] forms a self-contained history:
// the first message must not carry a tool result (its tool use would be cut
// away) and any tool use it carries must be answered by the very next
// message.
func validCutIndex(msgs []core.Message, idx int) bool {
	if msgs[idx].HasToolResult() {
		return false
	}
	if msgs[idx].HasToolUse() {
		if idx+1 >= len(msgs) || !msgs[idx+1].HasToolResult() {
			return false
		}
	}
	return true
}

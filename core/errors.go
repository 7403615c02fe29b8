package core

import (
	"errors"
	"fmt"
)

// ErrConcurrentInvocation is returned when a second invoke or stream call is
// issued on an agent tree whose previous call has not completed. Calls fail
// fast; they do not queue.
var ErrConcurrentInvocation = errors.New("agent is already being invoked")

// ContextWindowOverflowError signals that the model input exceeded the
// provider's context window. The conversation manager treats it as
// recoverable: it reduces history and requests a model-call retry. If
// reduction itself cannot make progress the same error kind propagates to the
// caller as terminal.
type ContextWindowOverflowError struct {
	Cause error
}

func (e *ContextWindowOverflowError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("context window overflow: %v", e.Cause)
	}
	return "context window overflow"
}

func (e *ContextWindowOverflowError) Unwrap() error { return e.Cause }

// IsContextOverflow reports whether err is (or wraps) a context-window
// overflow.
func IsContextOverflow(err error) bool {
	var overflow *ContextWindowOverflowError
	return errors.As(err, &overflow)
}

// MaxTokensError signals that the model stopped mid-generation because the
// output token budget ran out. Unlike overflow this is not recoverable by
// shrinking the input; the caller must intervene.
type MaxTokensError struct {
	Message Message
}

func (e *MaxTokensError) Error() string {
	return "model reached max output tokens before completing its response"
}

// TransferTargetError signals that a queued transfer named an agent that is
// not resolvable in the tree. It is terminal to the turn.
type TransferTargetError struct {
	Target string
}

func (e *TransferTargetError) Error() string {
	return fmt.Sprintf("transfer target agent %q not found", e.Target)
}

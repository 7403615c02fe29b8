// Package core defines the shared data model of the relay SDK: conversation
// messages, the closed content-block union, stop reasons, the shared history
// buffer and the error kinds the control loop distinguishes.
package core

import "github.com/google/uuid"

// NewID generates a unique identifier used for tool-use correlation and
// invocation tracking.
func NewID() string { return uuid.NewString() }

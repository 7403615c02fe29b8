package agent

// InstructionProvider supplies dynamic system prompt text at runtime.
// Implementations can derive instructions from agent state, environment, etc.
type InstructionProvider interface {
	Instruction(state *State) (string, error)
}

// InstructionFunc adapts an ordinary function to an InstructionProvider.
type InstructionFunc func(state *State) (string, error)

// Instruction implements InstructionProvider.
func (f InstructionFunc) Instruction(state *State) (string, error) { return f(state) }

// Instruction represents either a static system prompt string or a dynamic
// provider, mirroring a string-or-provider union in a Go-idiomatic way.
type Instruction struct {
	text     string
	provider InstructionProvider
}

// NewInstructionFromText creates an Instruction from a static string.
func NewInstructionFromText(text string) Instruction { return Instruction{text: text} }

// NewInstructionFromProvider creates an Instruction from a dynamic provider.
func NewInstructionFromProvider(p InstructionProvider) Instruction {
	return Instruction{provider: p}
}

// NewInstructionFromFunc creates an Instruction from a function.
func NewInstructionFromFunc(f func(state *State) (string, error)) Instruction {
	return Instruction{provider: InstructionFunc(f)}
}

// IsStatic reports whether the instruction is backed by a static string.
func (i Instruction) IsStatic() bool { return i.provider == nil }

// Resolve returns the instruction text, invoking the provider if needed.
func (i Instruction) Resolve(state *State) (string, error) {
	if i.provider != nil {
		return i.provider.Instruction(state)
	}
	return i.text, nil
}

package tool

import (
	"fmt"
	"sort"
	"strings"

	"github.com/relayagents/relay/core"
)

// TransferToolName is the name under which the synthetic transfer tool is
// exposed to models of multi-agent trees.
const TransferToolName = "transfer_to_agent"

// transferTool requests a handoff of control to another agent in the tree.
// The valid target set is resolved at call time through the injected targets
// function, so the tool always reflects the tree as currently wired.
type transferTool struct {
	targets func() map[string]string // name -> description
}

// NewTransferTool constructs the synthetic transfer tool. targets returns the
// currently resolvable agents keyed by name, with their descriptions used in
// the tool description shown to the model.
func NewTransferTool(targets func() map[string]string) Tool {
	return &transferTool{targets: targets}
}

func (t *transferTool) Name() string { return TransferToolName }

func (t *transferTool) Description() string {
	var b strings.Builder
	b.WriteString("Transfer control of the conversation to another agent by name. ")
	b.WriteString("Use when another agent is better suited to continue. Available agents:")
	targets := t.targets()
	names := make([]string, 0, len(targets))
	for name := range targets {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(&b, "\n- %s: %s", name, targets[name])
	}
	return b.String()
}

func (t *transferTool) InputSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"agent_name": map[string]any{
				"type":        "string",
				"description": "Name of the agent to hand control to",
			},
		},
		"required": []string{"agent_name"},
	}
}

// Stream validates the target against the currently resolvable set and
// records the pending transfer. An invalid target fails the call, which the
// loop surfaces as an ordinary error tool-result rather than aborting the
// turn.
func (t *transferTool) Stream(tc *Context, input map[string]any) (<-chan Event, <-chan error) {
	out := make(chan Event, 1)
	errCh := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errCh)

		raw, ok := input["agent_name"]
		if !ok {
			errCh <- NewToolError(TransferToolName, "missing required field 'agent_name'", "VALIDATION_ERROR")
			return
		}
		name, ok := raw.(string)
		if !ok || name == "" {
			errCh <- NewToolError(TransferToolName, "field 'agent_name' must be a non-empty string", "VALIDATION_ERROR")
			return
		}
		if _, valid := t.targets()[name]; !valid {
			errCh <- NewToolError(
				TransferToolName,
				fmt.Sprintf("agent %q is not a valid transfer target", name),
				"INVALID_TARGET",
			)
			return
		}

		tc.TransferToAgent(name)

		out <- ResultEvent{Result: core.ToolResultBlock{
			ToolUseID: tc.ToolUseID(),
			Status:    core.ToolResultSuccess,
			Content:   fmt.Sprintf("Transferring to agent %q.", name),
		}}
	}()

	return out, errCh
}

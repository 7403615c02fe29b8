package agent

import (
	"fmt"

	"github.com/relayagents/relay/core"
)

// SetSubAgents wires the given agents as children of a. Each child must not
// already have a parent, and agent names must be unique across the resulting
// tree. Children share the root's conversation history.
func (a *Agent) SetSubAgents(subAgents ...*Agent) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	for _, child := range subAgents {
		if child == nil {
			return fmt.Errorf("sub-agent must not be nil")
		}
		if child.parent != nil {
			return fmt.Errorf("agent %q already has parent %q", child.name, child.parent.name)
		}
		if child == a {
			return fmt.Errorf("agent %q cannot be its own sub-agent", a.name)
		}
	}

	root := a.rootLocked()
	seen := map[string]bool{}
	collectNames(root, seen)
	for _, child := range subAgents {
		if err := checkNames(child, seen); err != nil {
			return err
		}
	}

	for _, child := range subAgents {
		child.parent = a
		a.children = append(a.children, child)
		adoptHistory(child, root.history)
	}
	return nil
}

// SubAgents returns the agent's direct children.
func (a *Agent) SubAgents() []*Agent {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]*Agent, len(a.children))
	copy(out, a.children)
	return out
}

// Parent returns the agent's parent, or nil for a root.
func (a *Agent) Parent() *Agent {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.parent
}

// Root walks up to the top of the tree.
func (a *Agent) Root() *Agent {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.rootLocked()
}

func (a *Agent) rootLocked() *Agent {
	node := a
	for node.parent != nil {
		node = node.parent
	}
	return node
}

// FindAgent searches the subtree rooted at a for an agent by name.
func (a *Agent) FindAgent(name string) *Agent {
	if a.name == name {
		return a
	}
	for _, child := range a.SubAgents() {
		if found := child.FindAgent(name); found != nil {
			return found
		}
	}
	return nil
}

func collectNames(a *Agent, seen map[string]bool) {
	seen[a.name] = true
	for _, child := range a.children {
		collectNames(child, seen)
	}
}

func checkNames(a *Agent, seen map[string]bool) error {
	if seen[a.name] {
		return fmt.Errorf("duplicate agent name %q in tree", a.name)
	}
	seen[a.name] = true
	for _, child := range a.children {
		if err := checkNames(child, seen); err != nil {
			return err
		}
	}
	return nil
}

func adoptHistory(a *Agent, h *core.History) {
	a.history = h
	for _, child := range a.children {
		adoptHistory(child, h)
	}
}

// isMultiAgent reports whether the agent participates in a tree, which is
// what makes the transfer tool available.
func (a *Agent) isMultiAgent() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.parent != nil || len(a.children) > 0
}

// transferTargets returns the name to description map of agents this agent
// may transfer to: its children, plus its parent and siblings when peer
// transfer is allowed.
func (a *Agent) transferTargets() map[string]string {
	targets := map[string]string{}
	for _, child := range a.SubAgents() {
		targets[child.name] = child.description
	}
	if a.allowPeerTransfer {
		if parent := a.Parent(); parent != nil {
			targets[parent.name] = parent.description
			for _, sibling := range parent.SubAgents() {
				if sibling != a {
					targets[sibling.name] = sibling.description
				}
			}
		}
	}
	return targets
}

// resolveTransferTarget maps a requested target name to an agent reachable
// from a, or nil when the name is not a valid target.
func (a *Agent) resolveTransferTarget(name string) *Agent {
	for _, child := range a.SubAgents() {
		if child.name == name {
			return child
		}
	}
	if a.allowPeerTransfer {
		if parent := a.Parent(); parent != nil {
			if parent.name == name {
				return parent
			}
			for _, sibling := range parent.SubAgents() {
				if sibling != a && sibling.name == name {
					return sibling
				}
			}
		}
	}
	return nil
}

package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/relayagents/relay/core"
	"github.com/relayagents/relay/hooks"
	"github.com/relayagents/relay/model"
	"github.com/relayagents/relay/tool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func transferTurn(target string) model.MockTurn {
	return toolUseTurn("tu-transfer", tool.TransferToolName, map[string]any{"agent_name": target})
}

func TestSetSubAgentsWiring(t *testing.T) {
	provider := model.NewMockProvider()
	root := New("Root", provider)
	child := New("Child", provider)
	grandchild := New("Grandchild", provider)

	require.NoError(t, child.SetSubAgents(grandchild))
	require.NoError(t, root.SetSubAgents(child))

	assert.Equal(t, root, child.Parent())
	assert.Equal(t, root, grandchild.Root())
	assert.Equal(t, grandchild, root.FindAgent("Grandchild"))
	assert.Nil(t, root.FindAgent("Stranger"))

	// The whole tree shares one history buffer.
	root.History().Append(core.NewUserTextMessage("shared"))
	assert.Equal(t, 1, grandchild.History().Len())
}

func TestSetSubAgentsRejectsDuplicateNames(t *testing.T) {
	provider := model.NewMockProvider()
	root := New("Root", provider)
	a := New("Twin", provider)
	b := New("Twin", provider)

	err := root.SetSubAgents(a, b)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate agent name")
}

func TestSetSubAgentsRejectsSecondParent(t *testing.T) {
	provider := model.NewMockProvider()
	first := New("First", provider)
	second := New("Second", provider)
	child := New("Child", provider)

	require.NoError(t, first.SetSubAgents(child))
	err := second.SetSubAgents(child)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "already has parent")
}

func TestTransferTargets(t *testing.T) {
	provider := model.NewMockProvider()
	root := New("Root", provider)
	left := New("Left", provider, func(o *Options) { o.Description = "left side" })
	right := New("Right", provider)
	require.NoError(t, root.SetSubAgents(left, right))

	// Root sees its children.
	targets := root.transferTargets()
	assert.Len(t, targets, 2)
	assert.Equal(t, "left side", targets["Left"])

	// A child sees its parent and sibling.
	targets = left.transferTargets()
	assert.Len(t, targets, 2)
	assert.Contains(t, targets, "Root")
	assert.Contains(t, targets, "Right")
	assert.NotContains(t, targets, "Left")
}

func TestTransferTargetsWithoutPeerTransfer(t *testing.T) {
	provider := model.NewMockProvider()
	root := New("Root", provider)
	left := New("Left", provider, func(o *Options) { o.AllowPeerTransfer = false })
	right := New("Right", provider)
	require.NoError(t, root.SetSubAgents(left, right))

	assert.Empty(t, left.transferTargets())
	assert.Nil(t, left.resolveTransferTarget("Right"))
}

func TestTransferToSubAgent(t *testing.T) {
	provider := model.NewMockProvider(
		transferTurn("Mathematician"),
		textTurn("The answer is 4."),
	)

	root := New("Router", provider)
	mathematician := New("Mathematician", provider, func(o *Options) {
		o.Description = "Solves math problems"
	})
	require.NoError(t, root.SetSubAgents(mathematician))

	events, errCh := root.Stream(context.Background(), Text("What is 2+2?"))

	var (
		transfers []TransferEvent
		result    *Result
	)
	for ev := range events {
		switch e := ev.(type) {
		case TransferEvent:
			transfers = append(transfers, e)
		case ResultEvent:
			r := e.Result
			result = &r
		}
	}
	require.NoError(t, <-errCh)

	require.Len(t, transfers, 1)
	assert.Equal(t, "Router", transfers[0].From)
	assert.Equal(t, "Mathematician", transfers[0].To)

	require.NotNil(t, result)
	assert.Equal(t, "Mathematician", result.Agent)
	assert.Equal(t, "The answer is 4.", result.Text())

	// Multi-agent transcripts carry author tags on assistant messages.
	msgs := root.Messages()
	require.Len(t, msgs, 4)
	assert.Equal(t, "Router", msgs[1].Author)
	assert.Equal(t, "Mathematician", msgs[3].Author)

	// The router's first call exposed the transfer tool.
	var sawTransferTool bool
	for _, spec := range provider.Requests[0].Tools {
		if spec.Name == tool.TransferToolName {
			sawTransferTool = true
		}
	}
	assert.True(t, sawTransferTool)
}

func TestRootInvocationResumesActiveAgent(t *testing.T) {
	provider := model.NewMockProvider(
		transferTurn("Specialist"),
		textTurn("First answer"),
		textTurn("Follow-up answer"),
	)

	root := New("Router", provider)
	specialist := New("Specialist", provider)
	require.NoError(t, root.SetSubAgents(specialist))

	first, err := root.Invoke(context.Background(), Text("question"))
	require.NoError(t, err)
	assert.Equal(t, "Specialist", first.Agent)

	// The follow-up goes straight to the specialist, no re-routing.
	second, err := root.Invoke(context.Background(), Text("follow-up"))
	require.NoError(t, err)
	assert.Equal(t, "Specialist", second.Agent)
	assert.Equal(t, 3, provider.Calls())
}

func TestConsecutiveTransferCeiling(t *testing.T) {
	provider := model.NewMockProvider(
		transferTurn("Worker"), // Router -> Worker
		transferTurn("Router"), // Worker -> Router, suppressed by ceiling
		textTurn("Worker answers after suppression"),
	)

	root := New("Router", provider, func(o *Options) {
		o.MaxConsecutiveTransfers = 1
	})
	worker := New("Worker", provider)
	require.NoError(t, root.SetSubAgents(worker))

	events, errCh := root.Stream(context.Background(), Text("go"))

	var transfers int
	var result *Result
	for ev := range events {
		switch e := ev.(type) {
		case TransferEvent:
			transfers++
		case ResultEvent:
			r := e.Result
			result = &r
		}
	}
	require.NoError(t, <-errCh)

	assert.Equal(t, 1, transfers)
	require.NotNil(t, result)
	assert.Equal(t, "Worker", result.Agent)
	assert.Equal(t, 3, provider.Calls())
}

func TestInvalidTransferTargetBecomesToolError(t *testing.T) {
	provider := model.NewMockProvider(
		transferTurn("Nonexistent"),
		textTurn("I could not hand this off."),
	)

	root := New("Router", provider)
	worker := New("Worker", provider)
	require.NoError(t, root.SetSubAgents(worker))

	result, err := root.Invoke(context.Background(), Text("go"))
	require.NoError(t, err)
	assert.Equal(t, "Router", result.Agent)

	// The transfer tool rejected the target and the model saw the error.
	res := root.Messages()[2].ToolResults()[0]
	assert.Equal(t, core.ToolResultError, res.Status)
	assert.Contains(t, res.Content, "not a valid transfer target")
}

func TestDirectSubAgentInvocation(t *testing.T) {
	provider := model.NewMockProvider(textTurn("Specialist speaking"))

	root := New("Router", provider)
	specialist := New("Specialist", provider)
	require.NoError(t, root.SetSubAgents(specialist))

	result, err := specialist.Invoke(context.Background(), Text("direct question"))
	require.NoError(t, err)
	assert.Equal(t, "Specialist", result.Agent)

	// The shared history received the exchange.
	assert.Equal(t, 2, root.History().Len())
}

func TestConcurrencyGuardCoversWholeTree(t *testing.T) {
	provider := &blockingProvider{release: make(chan struct{}), turn: textTurn("ok")}

	root := New("Router", provider)
	specialist := New("Specialist", provider)
	require.NoError(t, root.SetSubAgents(specialist))

	events, errCh := root.Stream(context.Background(), Text("first"))

	assertEventually(t, func() bool {
		_, err := specialist.Invoke(context.Background(), Text("second"))
		return errors.Is(err, core.ErrConcurrentInvocation)
	})

	close(provider.release)
	for range events {
	}
	require.NoError(t, <-errCh)
}

// invocationCounter tallies invocation-level hook dispatches.
type invocationCounter struct {
	before, after int
}

func (c *invocationCounter) RegisterHooks(reg *hooks.Registry) {
	reg.AddCallback(hooks.KindBeforeInvocation, func(ctx context.Context, ev hooks.Event) error {
		c.before++
		return nil
	})
	reg.AddCallback(hooks.KindAfterInvocation, func(ctx context.Context, ev hooks.Event) error {
		c.after++
		return nil
	})
}

func TestInvocationHooksFireOnEntryAgent(t *testing.T) {
	provider := model.NewMockProvider(
		transferTurn("Specialist"),
		textTurn("Specialist answer"),
		textTurn("Specialist follow-up"),
	)

	counter := &invocationCounter{}
	root := New("Router", provider, func(o *Options) {
		o.Hooks = []hooks.Provider{counter}
	})
	specialist := New("Specialist", provider)
	require.NoError(t, root.SetSubAgents(specialist))

	result, err := root.Invoke(context.Background(), Text("ask the expert"))
	require.NoError(t, err)
	assert.Equal(t, "Specialist", result.Agent)
	assert.Equal(t, 1, counter.before)
	assert.Equal(t, 1, counter.after)

	// The root stays the entry point even while the specialist is the
	// active agent, so its registry keeps seeing every invocation.
	result, err = root.Invoke(context.Background(), Text("one more"))
	require.NoError(t, err)
	assert.Equal(t, "Specialist", result.Agent)
	assert.Equal(t, 2, counter.before)
	assert.Equal(t, 2, counter.after)
}

func assertEventually(t *testing.T, cond func() bool) {
	t.Helper()
	for i := 0; i < 100; i++ {
		if cond() {
			return
		}
	}
	t.Fatal("condition never met")
}

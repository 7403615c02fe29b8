package agent

import (
	"context"
	"errors"
	"fmt"

	"github.com/relayagents/relay/core"
	"github.com/relayagents/relay/hooks"
	"github.com/relayagents/relay/model"
	"github.com/relayagents/relay/tool"
)

// loop drives one caller-level invocation of an agent tree. entry is the
// agent the caller addressed; the active agent may change through transfers.
type loop struct {
	root  *Agent
	entry *Agent
	out   chan<- Event

	modelCalls  int
	transferred bool
}

// run executes the invocation to completion: append the prompt, then repeat
// model call, decision, tool execution and transfer check until the model
// ends its turn.
func (l *loop) run(ctx context.Context, prompt []core.Message) (result *Result, err error) {
	active := l.selectActive()

	active.logger.Info("agent.invoke.start",
		"agent", active.name,
		"prompt_messages", len(prompt),
	)

	// Invocation-level hooks belong to the agent the caller addressed, not to
	// whichever agent a transfer leaves active. Providers registered on the
	// entry (session recorders, telemetry) see every turn of the tree.
	if hookErr := l.entry.hooks.InvokeCallbacks(ctx, &hooks.BeforeInvocationEvent{Agent: l.entry}); hookErr != nil {
		return nil, hookErr
	}
	defer func() {
		// Fires on every exit path, including errors.
		if hookErr := l.entry.hooks.InvokeCallbacks(ctx, &hooks.AfterInvocationEvent{Agent: l.entry, Error: err}); hookErr != nil && err == nil {
			err = hookErr
			result = nil
		}
		l.entry.logger.Info("agent.invoke.end", "agent", l.entry.name, "error", err != nil)
	}()

	for _, msg := range prompt {
		if err := l.commit(ctx, active, msg); err != nil {
			return nil, err
		}
	}

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		l.modelCalls++
		if active.maxModelCalls > 0 && l.modelCalls > active.maxModelCalls {
			return nil, fmt.Errorf("model call limit of %d exceeded", active.maxModelCalls)
		}

		msg, stop, err := l.modelCall(ctx, active)
		if err != nil {
			return nil, err
		}

		if stop == core.StopMaxTokens {
			return nil, &core.MaxTokensError{Message: *msg}
		}

		if stop != core.StopToolUse || !msg.HasToolUse() {
			final := *msg
			if l.multiAgent() {
				final.Author = active.name
			}
			if err := l.commit(ctx, active, final); err != nil {
				return nil, err
			}
			l.finishTurn(active)
			return &Result{StopReason: stop, Message: final, Agent: active.name}, nil
		}

		assistant := *msg
		if l.multiAgent() {
			assistant.Author = active.name
		}

		// Tools run before anything is committed: an aborted execution must
		// not leave history ending with an unanswered tool-use.
		results, transferTo, err := l.executeTools(ctx, active, assistant.ToolUses())
		if err != nil {
			return nil, err
		}

		if err := l.commit(ctx, active, assistant); err != nil {
			return nil, err
		}

		blocks := make([]core.ContentBlock, 0, len(results))
		for _, r := range results {
			blocks = append(blocks, r)
		}
		if err := l.commit(ctx, active, core.NewUserMessage(blocks...)); err != nil {
			return nil, err
		}

		if transferTo != nil {
			next, err := l.handleTransfer(ctx, active, *transferTo)
			if err != nil {
				return nil, err
			}
			active = next
		}
	}
}

// selectActive resolves the agent that takes the first model call. Addressing
// a sub-agent targets it directly; addressing the root resumes the agent a
// previous invocation transferred to, if any.
func (l *loop) selectActive() *Agent {
	if l.entry != l.root {
		return l.entry
	}
	l.root.transfer.mu.Lock()
	name := l.root.transfer.activeName
	l.root.transfer.mu.Unlock()
	if name != "" && name != l.root.name {
		if a := l.root.FindAgent(name); a != nil {
			return a
		}
	}
	return l.root
}

func (l *loop) multiAgent() bool { return len(l.root.children) > 0 }

// finishTurn records the agent that answered so the next root invocation
// resumes there, and resets the consecutive-transfer counter when this
// invocation involved no transfer.
func (l *loop) finishTurn(active *Agent) {
	l.root.transfer.mu.Lock()
	defer l.root.transfer.mu.Unlock()
	l.root.transfer.activeName = active.name
	if !l.transferred {
		l.root.transfer.consecutive = 0
	}
}

// modelCall issues one model call against the current history and aggregates
// the streamed response. A hook setting Retry on the after event re-issues
// the call, which is how the conversation manager recovers from context
// overflow.
func (l *loop) modelCall(ctx context.Context, a *Agent) (*core.Message, core.StopReason, error) {
	for {
		if err := a.hooks.InvokeCallbacks(ctx, &hooks.BeforeModelCallEvent{Agent: a}); err != nil {
			return nil, "", err
		}

		system, err := a.instruction.Resolve(a.state)
		if err != nil {
			return nil, "", fmt.Errorf("resolve instruction: %w", err)
		}

		reg := a.effectiveTools()
		req := model.Request{
			System:   system,
			Messages: a.history.Messages(),
			Tools:    toolSpecs(reg),
		}

		a.logger.Debug("agent.model.call",
			"agent", a.name,
			"messages", len(req.Messages),
			"tools", len(req.Tools),
		)

		events, errCh := a.provider.Converse(ctx, req)

		// An emit or hook failure keeps consuming the stream so the provider
		// goroutine can finish before the error is surfaced.
		var (
			resultEv *model.ResultEvent
			loopErr  error
		)
		for ev := range events {
			if loopErr != nil {
				continue
			}
			if err := l.emit(ctx, ModelStreamEvent{Agent: a.name, Event: ev}); err != nil {
				loopErr = err
				continue
			}
			if err := a.hooks.InvokeCallbacks(ctx, &hooks.ModelStreamEvent{Agent: a, Event: ev}); err != nil {
				loopErr = err
				continue
			}
			if re, ok := ev.(model.ResultEvent); ok {
				resultEv = &re
			}
		}
		streamErr := <-errCh
		if loopErr != nil {
			return nil, "", loopErr
		}

		after := &hooks.AfterModelCallEvent{Agent: a}
		switch {
		case streamErr != nil:
			after.Error = streamErr
		case resultEv == nil:
			after.Error = errors.New("model stream ended without a result")
		default:
			after.Message = &resultEv.Message
			after.StopReason = resultEv.StopReason
		}

		if err := a.hooks.InvokeCallbacks(ctx, after); err != nil {
			return nil, "", err
		}

		if after.Retry {
			a.logger.Info("agent.model.retry", "agent", a.name, "cause", fmt.Sprint(after.Error))
			continue
		}
		if after.Error != nil {
			return nil, "", after.Error
		}
		return after.Message, after.StopReason, nil
	}
}

// executeTools runs the turn's tool calls sequentially in request order and
// returns one result per tool-use, plus any transfer target a tool queued.
func (l *loop) executeTools(ctx context.Context, a *Agent, uses []core.ToolUseBlock) ([]core.ToolResultBlock, *string, error) {
	if err := a.hooks.InvokeCallbacks(ctx, &hooks.BeforeToolsEvent{Agent: a, ToolUses: uses}); err != nil {
		return nil, nil, err
	}

	reg := a.effectiveTools()
	results := make([]core.ToolResultBlock, 0, len(uses))
	var transferTo *string

	for _, use := range uses {
		res, requested, err := l.executeTool(ctx, a, reg, use)
		if err != nil {
			return nil, nil, err
		}
		results = append(results, res)
		if requested != nil {
			transferTo = requested
		}
	}

	if err := a.hooks.InvokeCallbacks(ctx, &hooks.AfterToolsEvent{Agent: a, Results: results}); err != nil {
		return nil, nil, err
	}
	return results, transferTo, nil
}

// executeTool runs one tool call. Tool failures become error-status results
// visible to the model; only hook errors and context cancellation abort the
// turn. A hook setting Retry re-runs the same call.
func (l *loop) executeTool(ctx context.Context, a *Agent, reg *tool.Registry, use core.ToolUseBlock) (core.ToolResultBlock, *string, error) {
	for {
		if err := a.hooks.InvokeCallbacks(ctx, &hooks.BeforeToolCallEvent{Agent: a, ToolUse: use}); err != nil {
			return core.ToolResultBlock{}, nil, err
		}

		var (
			res        core.ToolResultBlock
			execErr    error
			transferTo *string
		)

		t, ok := reg.Get(use.Name)
		if !ok {
			a.logger.Warn("agent.tool.unknown", "agent", a.name, "tool", use.Name)
			res = core.NewToolResultError(use.ToolUseID, fmt.Sprintf("Unknown tool: %s", use.Name))
		} else {
			a.logger.Debug("agent.tool.start", "agent", a.name, "tool", use.Name, "tool_use_id", use.ToolUseID)

			tc := tool.NewContext(ctx, use.ToolUseID, a.name, a.state, a.logger)
			events, errCh := t.Stream(tc, use.Input)

			var (
				resultEv   *tool.ResultEvent
				forwardErr error
			)
			for ev := range events {
				if forwardErr != nil {
					continue
				}
				if re, isResult := ev.(tool.ResultEvent); isResult {
					resultEv = &re
					continue
				}
				if err := l.emit(ctx, ToolStreamEvent{Agent: a.name, ToolName: use.Name, ToolUseID: use.ToolUseID, Event: ev}); err != nil {
					forwardErr = err
				}
			}
			streamErr := <-errCh
			if forwardErr != nil {
				return core.ToolResultBlock{}, nil, forwardErr
			}

			switch {
			case streamErr != nil:
				a.logger.Warn("agent.tool.error", "agent", a.name, "tool", use.Name, "error", streamErr)
				res = core.NewToolResultError(use.ToolUseID, streamErr.Error())
				execErr = streamErr
			case resultEv == nil:
				res = core.NewToolResultError(use.ToolUseID, fmt.Sprintf("Tool %s did not return a result.", use.Name))
			default:
				res = resultEv.Result
			}
			transferTo = tc.Actions().TransferTo
		}

		after := &hooks.AfterToolCallEvent{Agent: a, ToolUse: use, Result: &res, Error: execErr}
		if err := a.hooks.InvokeCallbacks(ctx, after); err != nil {
			return core.ToolResultBlock{}, nil, err
		}
		if after.Retry {
			a.logger.Info("agent.tool.retry", "agent", a.name, "tool", use.Name)
			continue
		}
		if after.Result != nil {
			res = *after.Result
		}
		return res, transferTo, nil
	}
}

// handleTransfer resolves and applies a queued transfer. An unresolvable
// target is terminal; hitting the consecutive-transfer ceiling suppresses the
// transfer and lets the current agent continue.
func (l *loop) handleTransfer(ctx context.Context, active *Agent, targetName string) (*Agent, error) {
	target := active.resolveTransferTarget(targetName)
	if target == nil {
		return nil, &core.TransferTargetError{Target: targetName}
	}

	l.root.transfer.mu.Lock()
	consecutive := l.root.transfer.consecutive
	l.root.transfer.mu.Unlock()

	if consecutive >= l.root.maxConsecutiveTransfers {
		active.logger.Warn("agent.transfer.suppressed",
			"agent", active.name,
			"target", targetName,
			"consecutive", consecutive,
		)
		l.root.transfer.mu.Lock()
		l.root.transfer.consecutive = 0
		l.root.transfer.mu.Unlock()
		return active, nil
	}

	if err := active.hooks.InvokeCallbacks(ctx, &hooks.BeforeTransferEvent{Agent: active, From: active.name, To: target.name}); err != nil {
		return nil, err
	}

	if err := l.emit(ctx, TransferEvent{From: active.name, To: target.name}); err != nil {
		return nil, err
	}

	l.root.transfer.mu.Lock()
	l.root.transfer.activeName = target.name
	l.root.transfer.consecutive++
	l.root.transfer.mu.Unlock()
	l.transferred = true

	active.logger.Info("agent.transfer", "from", active.name, "to", target.name)

	if err := active.hooks.InvokeCallbacks(ctx, &hooks.AfterTransferEvent{Agent: active, From: active.name, To: target.name}); err != nil {
		return nil, err
	}
	return target, nil
}

// commit appends a message to the shared history, notifies hooks and mirrors
// the message onto the caller's stream.
func (l *loop) commit(ctx context.Context, a *Agent, msg core.Message) error {
	a.history.Append(msg)
	if err := a.hooks.InvokeCallbacks(ctx, &hooks.MessageAddedEvent{Agent: a, Message: msg}); err != nil {
		return err
	}
	return l.emit(ctx, MessageEvent{Agent: a.name, Message: msg})
}

func (l *loop) emit(ctx context.Context, ev Event) error {
	select {
	case l.out <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// effectiveTools returns the registry exposed to the model for one call: the
// agent's own tools, plus the synthetic transfer tool when the agent is part
// of a tree.
func (a *Agent) effectiveTools() *tool.Registry {
	if !a.isMultiAgent() {
		return a.tools
	}
	reg := tool.NewRegistry(a.tools.All()...)
	_ = reg.Register(tool.NewTransferTool(a.transferTargets))
	return reg
}

func toolSpecs(reg *tool.Registry) []model.ToolSpec {
	tools := reg.All()
	if len(tools) == 0 {
		return nil
	}
	specs := make([]model.ToolSpec, 0, len(tools))
	for _, t := range tools {
		specs = append(specs, model.ToolSpec{
			Name:        t.Name(),
			Description: t.Description(),
			InputSchema: t.InputSchema(),
		})
	}
	return specs
}

package agent

import (
	"context"
	"fmt"
	"sync"
	"time"

	"google.golang.org/genai"

	"gitchat/internal/client"
	"gitchat/internal/config"
	"gitchat/internal/logging"
	"gitchat/internal/tools"
)

// maxParallelTools caps concurrent tool executions within one round.
const maxParallelTools = 5

// depthExceededMessage is appended to the conversation when a turn hits
// the round ceiling.
const depthExceededMessage = "Stopped: this request used the maximum number of tool rounds without finishing. Partial progress is staged. Break the task into smaller steps and try again."

// Events receives turn activity for rendering and persistence. All
// methods are called from the turn's goroutine, never concurrently.
type Events interface {
	// Text delivers streamed model text.
	Text(chunk string)
	// ToolCall fires before a tool executes (or is blocked).
	ToolCall(name string, args map[string]any)
	// ToolResult fires with the text fed back to the model.
	ToolResult(name, content string, success bool)
	// ModelSwitched fires when the turn escalates to a stronger model.
	ModelSwitched(from, to string)
}

// Controller drives the tool-calling rounds for one conversation. One
// instance per conversation; turns are serialized by the caller.
type Controller struct {
	base     client.Client
	registry *tools.Registry
	loop     config.LoopConfig
	models   config.ModelConfig
	events   Events

	mu      sync.Mutex
	history []*genai.Content
}

// NewController creates a controller bound to a client and tool registry.
// history may carry a reloaded conversation; nil starts fresh.
func NewController(base client.Client, registry *tools.Registry, loop config.LoopConfig, models config.ModelConfig, history []*genai.Content, events Events) *Controller {
	c := &Controller{
		base:     base,
		registry: registry,
		loop:     loop,
		models:   models,
		events:   events,
		history:  history,
	}
	base.SetTools(registry.GeminiTools())
	return c
}

// History returns a copy of the conversation contents the model has seen.
func (c *Controller) History() []*genai.Content {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*genai.Content, len(c.history))
	copy(out, c.history)
	return out
}

// RunTurn executes one conversational turn to a terminal outcome. The
// turn starts on the planning model and escalates to the execution model
// on the first edit or past the escalation round.
func (c *Controller) RunTurn(ctx context.Context, parts []*genai.Part) (*TurnResult, error) {
	state := NewTurnState()
	active := c.base.WithModel(c.models.Planning)
	active.SetTools(c.registry.GeminiTools())
	escalated := false
	started := time.Now()

	var lastText string
	for {
		if ctx.Err() != nil {
			c.sealHistory("cancelled")
			return &TurnResult{Outcome: OutcomeAborted, Rounds: state.Round, Edited: state.Edited}, nil
		}

		state.Round++
		if state.Round > c.loop.MaxRounds {
			c.sealHistory("stopped: round limit reached")
			c.appendHistory(&genai.Content{Role: genai.RoleUser, Parts: []*genai.Part{{Text: depthExceededMessage}}})
			logging.Warn("turn hit round ceiling", "rounds", c.loop.MaxRounds)
			return &TurnResult{
				Outcome: OutcomeDepthExceeded,
				Answer:  depthExceededMessage,
				Rounds:  state.Round - 1,
				Edited:  state.Edited,
			}, nil
		}

		if !escalated && (state.Edited || state.Round >= c.loop.EscalationRound) {
			from := active.Model()
			active = active.WithModel(c.models.Execution)
			escalated = true
			logging.Info("escalating model tier", "from", from, "to", c.models.Execution, "round", state.Round, "edited", state.Edited)
			if c.events != nil {
				c.events.ModelSwitched(from, c.models.Execution)
			}
		}

		resp, err := active.SendTurnStream(ctx, c.History(), parts, c.emitText)
		if err != nil {
			if ctx.Err() != nil {
				c.sealHistory("cancelled")
				return &TurnResult{Outcome: OutcomeAborted, Rounds: state.Round, Edited: state.Edited}, nil
			}
			c.sealHistory("request failed")
			return &TurnResult{Outcome: OutcomeFailed, Rounds: state.Round, Edited: state.Edited}, err
		}

		c.appendHistory(&genai.Content{Role: genai.RoleUser, Parts: parts})
		c.appendHistory(modelContent(resp))
		lastText = resp.Text

		if len(resp.FunctionCalls) == 0 {
			logging.Debug("turn complete", "rounds", state.Round, "edited", state.Edited, "took", time.Since(started))
			return &TurnResult{Outcome: OutcomeDone, Answer: lastText, Rounds: state.Round, Edited: state.Edited}, nil
		}

		advice, hasAdvice := Advise(state, c.loop)
		results := c.executeRound(ctx, state, resp.FunctionCalls)
		if ctx.Err() != nil {
			// In-flight tools were allowed to finish; their results are
			// discarded and nothing more reaches the model.
			c.sealHistory("cancelled")
			return &TurnResult{Outcome: OutcomeAborted, Rounds: state.Round, Edited: state.Edited}, nil
		}

		if hasAdvice && len(results) > 0 {
			attachAdvice(&results[0].Result, advice)
		}

		parts = make([]*genai.Part, 0, len(results))
		for _, res := range results {
			if c.events != nil {
				c.events.ToolResult(res.Name, res.Result.Text(), res.Result.Success)
			}
			parts = append(parts, &genai.Part{FunctionResponse: &genai.FunctionResponse{
				ID:       res.ID,
				Name:     res.Name,
				Response: res.Result.ToMap(),
			}})
		}
	}
}

func (c *Controller) emitText(chunk string) {
	if c.events != nil {
		c.events.Text(chunk)
	}
}

func (c *Controller) appendHistory(content *genai.Content) {
	c.mu.Lock()
	c.history = append(c.history, content)
	c.mu.Unlock()
}

// sealHistory answers any function calls left dangling at the history
// tail when a turn ends early. The API rejects a history whose last
// model content carries a functionCall with no functionResponse, so an
// unsealed tail would poison every later turn on this conversation.
func (c *Controller) sealHistory(reason string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.history) == 0 {
		return
	}
	last := c.history[len(c.history)-1]
	if last.Role != genai.RoleModel {
		return
	}
	var parts []*genai.Part
	for _, part := range last.Parts {
		if part.FunctionCall == nil {
			continue
		}
		parts = append(parts, &genai.Part{FunctionResponse: &genai.FunctionResponse{
			ID:       part.FunctionCall.ID,
			Name:     part.FunctionCall.Name,
			Response: tools.NewErrorResult(reason).ToMap(),
		}})
	}
	if len(parts) == 0 {
		return
	}
	c.history = append(c.history, &genai.Content{Role: genai.RoleUser, Parts: parts})
}

// attachAdvice appends this round's guidance to a result so it travels
// back to the model inside the function response.
func attachAdvice(r *tools.ToolResult, advice string) {
	if r.Success {
		r.Content += "\n\n[guidance] " + advice
	} else {
		r.Error += "\n\n[guidance] " + advice
	}
}

// roundResult pairs a function call with its outcome, in request order.
type roundResult struct {
	ID     string
	Name   string
	Result tools.ToolResult
	// executed is false for duplicates and blocked calls, which never
	// count toward the round's edit/search classification.
	executed bool
	kind     tools.Kind
}

// executeRound runs one round's tool calls: a sequential admission pass
// decides duplicates and hard blocks, then admitted calls run
// concurrently under a semaphore. Results come back in request order.
func (c *Controller) executeRound(ctx context.Context, state *TurnState, calls []*genai.FunctionCall) []*roundResult {
	results := make([]*roundResult, len(calls))
	blocked := ReadsBlocked(state, c.loop)

	type admitted struct {
		index int
		call  *genai.FunctionCall
		sig   string
	}
	var toRun []admitted

	for i, call := range calls {
		kind := tools.KindOf(call.Name)
		res := &roundResult{ID: call.ID, Name: call.Name, kind: kind}
		results[i] = res
		if c.events != nil {
			c.events.ToolCall(call.Name, call.Args)
		}

		sig := Signature(call.Name, call.Args)
		switch {
		case kind != tools.KindProbe && !state.Reserve(sig):
			logging.Info("duplicate tool call blocked", "tool", call.Name, "count", state.Seen(sig))
			res.Result = tools.NewErrorResult(DuplicateBlockMessage)
		case blocked && kind != tools.KindEdit:
			if kind != tools.KindProbe {
				state.Release(sig)
			}
			res.Result = tools.NewErrorResult(hardBlockMessage)
		default:
			toRun = append(toRun, admitted{index: i, call: call, sig: sig})
		}
	}

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, maxParallelTools)

	for _, a := range toRun {
		if ctx.Err() != nil {
			results[a.index].Result = tools.NewErrorResult("cancelled")
			continue
		}

		wg.Add(1)
		go func(a admitted) {
			defer wg.Done()

			select {
			case semaphore <- struct{}{}:
				defer func() { <-semaphore }()
			case <-ctx.Done():
				results[a.index].Result = tools.NewErrorResult("cancelled")
				return
			}

			res := c.executeTool(ctx, a.call)
			if !res.Success && tools.KindOf(a.call.Name) != tools.KindProbe {
				state.Release(a.sig)
			}
			results[a.index].Result = res
			results[a.index].executed = true
		}(a)
	}
	wg.Wait()

	editInRound := false
	readInRound := false
	for _, res := range results {
		if !res.executed {
			continue
		}
		switch res.kind {
		case tools.KindEdit:
			editInRound = true
		case tools.KindRead:
			readInRound = true
		}
	}
	if editInRound {
		state.Edited = true
		state.SearchStreak = 0
	} else if readInRound {
		state.SearchStreak++
	}

	return results
}

// executeTool validates and runs one call. Tool failures never surface as
// Go errors: every path yields a result string for the model.
func (c *Controller) executeTool(ctx context.Context, call *genai.FunctionCall) tools.ToolResult {
	tool, ok := c.registry.Get(call.Name)
	if !ok {
		return tools.NewErrorResult(fmt.Sprintf("unknown tool: %s", call.Name))
	}
	if err := tool.Validate(call.Args); err != nil {
		return tools.NewErrorResult(fmt.Sprintf("invalid arguments: %s", err))
	}

	started := time.Now()
	result, err := tool.Execute(ctx, call.Args)
	if err != nil {
		result = tools.NewErrorResult(err.Error())
	}
	logging.Debug("tool executed", "tool", call.Name, "success", result.Success, "took", time.Since(started))
	return result
}

// modelContent rebuilds the model-role content for the history from a
// response.
func modelContent(resp *client.Response) *genai.Content {
	var parts []*genai.Part
	if resp.Text != "" {
		parts = append(parts, &genai.Part{Text: resp.Text})
	}
	for _, fc := range resp.FunctionCalls {
		parts = append(parts, &genai.Part{FunctionCall: fc})
	}
	if len(parts) == 0 {
		parts = append(parts, &genai.Part{Text: " "})
	}
	return &genai.Content{Role: genai.RoleModel, Parts: parts}
}

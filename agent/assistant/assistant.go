// Package assistant runs the per-query state machine: Start appends the
// user turn, Decide asks the reasoning engine for the next action, Invoke
// executes requested tools and feeds results back, Done commits the history
// and returns the final answer.
package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	contractx "github.com/thanarat/shopagent/agent/contract"
	threadx "github.com/thanarat/shopagent/agent/thread"
)

var (
	ErrInvalidMessage = errors.New("message is empty")
)

const (
	defaultMaxToolRounds = 6
	defaultContextTurns  = 10
	defaultFallbackReply = "Sorry, I could not finish that request. Please try again or rephrase."

	OutcomeOK          = "ok"
	OutcomeLoopLimit   = "loop_limit"
	OutcomeUnknownTool = "unknown_tool"
	OutcomeBadToolCall = "bad_tool_call"
)

type Config struct {
	// MaxToolRounds bounds Decide/Invoke round trips per query so a
	// misbehaving engine cannot loop forever.
	MaxToolRounds int `envconfig:"MAX_TOOL_ROUNDS" split_words:"true" default:"6"`
	// ContextTurns is how many recent turns each Decide call sees
	// (extended back to a user-turn boundary).
	ContextTurns int `envconfig:"CONTEXT_TURNS" split_words:"true" default:"10"`

	FallbackReply string `envconfig:"FALLBACK_REPLY" split_words:"true"`
}

type Assistant struct {
	engine  contractx.Engine
	tools   contractx.ToolExecutor
	threads *threadx.Store

	maxRounds    int
	contextTurns int
	fallback     string

	now func() time.Time
}

type Result struct {
	ThreadID  string                 `json:"thread_id"`
	Reply     string                 `json:"answer"`
	Outcome   string                 `json:"outcome"`
	ToolTrace []contractx.TraceEntry `json:"tool_trace,omitempty"`
}

func New(engine contractx.Engine, tools contractx.ToolExecutor, threads *threadx.Store, cfg Config) (*Assistant, error) {
	if engine == nil {
		return nil, errors.New("reasoning engine is required")
	}
	if tools == nil {
		return nil, errors.New("tool executor is required")
	}
	if threads == nil {
		return nil, errors.New("thread store is required")
	}

	maxRounds := cfg.MaxToolRounds
	if maxRounds <= 0 {
		maxRounds = defaultMaxToolRounds
	}
	contextTurns := cfg.ContextTurns
	if contextTurns <= 0 {
		contextTurns = defaultContextTurns
	}
	fallback := strings.TrimSpace(cfg.FallbackReply)
	if fallback == "" {
		fallback = defaultFallbackReply
	}

	return &Assistant{
		engine:       engine,
		tools:        tools,
		threads:      threads,
		maxRounds:    maxRounds,
		contextTurns: contextTurns,
		fallback:     fallback,
		now:          time.Now,
	}, nil
}

// Answer runs one query against a thread. On loop-limit exhaustion the
// returned Result carries the fallback reply together with
// ErrLoopLimitExceeded; upstream failures return an error with the thread
// history untouched. Retrying after a checkout executed can double-decrement
// stock, so callers must dedupe retries.
func (a *Assistant) Answer(ctx context.Context, threadID, text string) (Result, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Result{}, ErrInvalidMessage
	}

	handle, err := a.threads.Acquire(threadID)
	if err != nil {
		return Result{}, err
	}
	defer handle.Release()

	turns := handle.Turns()
	turns = append(turns, contractx.Turn{
		Role:    contractx.RoleUser,
		Content: text,
		At:      a.now().UTC(),
	})

	var trace []contractx.TraceEntry

	for round := 0; round < a.maxRounds; round++ {
		decision, err := a.engine.Decide(ctx, threadx.TrimToUserBoundary(turns, a.contextTurns))
		if err != nil {
			if outcome, failed := failedTurnOutcome(err); failed {
				// Failed turn: terminate with an error answer instead of
				// executing anything.
				turns = append(turns, contractx.Turn{
					Role:    contractx.RoleAssistant,
					Content: a.fallback,
					At:      a.now().UTC(),
				})
				handle.Commit(turns)
				return Result{
					ThreadID:  threadID,
					Reply:     a.fallback,
					Outcome:   outcome,
					ToolTrace: trace,
				}, err
			}
			// Upstream timeout or failure: commit nothing so no partial
			// turn corrupts the history, and let the caller retry.
			return Result{}, err
		}

		if len(decision.ToolCalls) == 0 {
			turns = append(turns, contractx.Turn{
				Role:    contractx.RoleAssistant,
				Content: decision.Reply,
				At:      a.now().UTC(),
			})
			handle.Commit(turns)
			return Result{
				ThreadID:  threadID,
				Reply:     decision.Reply,
				Outcome:   OutcomeOK,
				ToolTrace: trace,
			}, nil
		}

		turns = append(turns, contractx.Turn{
			Role:      contractx.RoleAssistant,
			ToolCalls: decision.ToolCalls,
			At:        a.now().UTC(),
		})

		for _, call := range decision.ToolCalls {
			result := a.tools.Execute(ctx, call)
			trace = append(trace, contractx.TraceEntry{
				Tool:  call.Kind,
				Args:  call.RawArgs,
				Error: result.Error,
			})
			if result.Error != "" {
				log.Debug().
					Str("thread_id", threadID).
					Str("tool", string(call.Kind)).
					Str("error", result.Error).
					Msg("tool returned failure result")
			}
			turns = append(turns, contractx.Turn{
				Role:       contractx.RoleTool,
				Content:    encodeToolResult(result),
				ToolCallID: call.ID,
				ToolName:   string(call.Kind),
				At:         a.now().UTC(),
			})
		}
	}

	// Round-trip cap hit: commit the trace so far and return the defined
	// fallback answer as a failure outcome, never hang.
	turns = append(turns, contractx.Turn{
		Role:    contractx.RoleAssistant,
		Content: a.fallback,
		At:      a.now().UTC(),
	})
	handle.Commit(turns)

	return Result{
		ThreadID:  threadID,
		Reply:     a.fallback,
		Outcome:   OutcomeLoopLimit,
		ToolTrace: trace,
	}, fmt.Errorf("%w: %d rounds", contractx.ErrLoopLimitExceeded, a.maxRounds)
}

// failedTurnOutcome classifies Decide errors that terminate the query with
// an error answer rather than being retryable upstream failures.
func failedTurnOutcome(err error) (string, bool) {
	switch {
	case errors.Is(err, contractx.ErrUnknownTool):
		return OutcomeUnknownTool, true
	case errors.Is(err, contractx.ErrInvalidCriteria), errors.Is(err, contractx.ErrValidation):
		return OutcomeBadToolCall, true
	default:
		return "", false
	}
}

func encodeToolResult(result contractx.ToolResult) string {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Sprintf(`{"tool":%q,"error":"encode tool result failed"}`, result.Tool)
	}
	return string(payload)
}

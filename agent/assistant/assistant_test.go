package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	contractx "github.com/thanarat/shopagent/agent/contract"
	threadx "github.com/thanarat/shopagent/agent/thread"
)

type fakeEngine struct {
	decisions []contractx.Decision
	err       error
	calls     int
	seen      [][]contractx.Turn
}

func (f *fakeEngine) Decide(ctx context.Context, turns []contractx.Turn) (contractx.Decision, error) {
	f.calls++
	f.seen = append(f.seen, append([]contractx.Turn(nil), turns...))
	if f.err != nil {
		return contractx.Decision{}, f.err
	}
	idx := f.calls - 1
	if idx >= len(f.decisions) {
		// Repeat the last decision; lets a single tool-call decision model
		// an engine that never stops calling tools.
		idx = len(f.decisions) - 1
	}
	return f.decisions[idx], nil
}

type fakeExecutor struct {
	results map[contractx.ToolKind]contractx.ToolResult
	calls   []contractx.ToolCall
}

func (f *fakeExecutor) Execute(ctx context.Context, call contractx.ToolCall) contractx.ToolResult {
	f.calls = append(f.calls, call)
	if res, ok := f.results[call.Kind]; ok {
		return res
	}
	return contractx.ToolResult{Tool: call.Kind, Result: map[string]any{"ok": true}}
}

func newAssistant(t *testing.T, eng contractx.Engine, exec contractx.ToolExecutor, cfg Config) (*Assistant, *threadx.Store) {
	t.Helper()

	threads := threadx.NewStore(0)
	a, err := New(eng, exec, threads, cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return a, threads
}

func threadTurns(t *testing.T, threads *threadx.Store, id string) []contractx.Turn {
	t.Helper()

	h, err := threads.Acquire(id)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	defer h.Release()
	return h.Turns()
}

func searchCall(id string) contractx.ToolCall {
	return contractx.ToolCall{
		ID:      id,
		Kind:    contractx.ToolSearchByName,
		RawArgs: `{"query":"redmi"}`,
		Search:  &contractx.SearchByNameArgs{Query: "redmi"},
	}
}

func TestAnswerDirectReply(t *testing.T) {
	t.Parallel()

	eng := &fakeEngine{decisions: []contractx.Decision{{Reply: "Hello! How can I help?"}}}
	exec := &fakeExecutor{}
	a, threads := newAssistant(t, eng, exec, Config{})

	res, err := a.Answer(context.Background(), "t1", "hi")
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if res.Reply != "Hello! How can I help?" || res.Outcome != OutcomeOK {
		t.Fatalf("unexpected result: %+v", res)
	}
	if len(exec.calls) != 0 {
		t.Fatalf("no tools should run, got %d calls", len(exec.calls))
	}

	turns := threadTurns(t, threads, "t1")
	if len(turns) != 2 {
		t.Fatalf("expected user+assistant turns, got %d", len(turns))
	}
	if turns[0].Role != contractx.RoleUser || turns[1].Role != contractx.RoleAssistant {
		t.Fatalf("unexpected roles: %+v", turns)
	}
}

func TestAnswerToolThenReply(t *testing.T) {
	t.Parallel()

	eng := &fakeEngine{decisions: []contractx.Decision{
		{ToolCalls: []contractx.ToolCall{searchCall("call-1")}},
		{Reply: "Found 2 Redmi phones."},
	}}
	exec := &fakeExecutor{}
	a, threads := newAssistant(t, eng, exec, Config{})

	res, err := a.Answer(context.Background(), "t1", "show me redmi")
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if res.Reply != "Found 2 Redmi phones." {
		t.Fatalf("unexpected reply: %q", res.Reply)
	}
	if len(res.ToolTrace) != 1 || res.ToolTrace[0].Tool != contractx.ToolSearchByName {
		t.Fatalf("unexpected trace: %+v", res.ToolTrace)
	}
	if len(exec.calls) != 1 {
		t.Fatalf("expected 1 tool execution, got %d", len(exec.calls))
	}

	turns := threadTurns(t, threads, "t1")
	// user, assistant(tool call), tool, assistant(final)
	if len(turns) != 4 {
		t.Fatalf("expected 4 turns, got %d: %+v", len(turns), turns)
	}
	if turns[2].Role != contractx.RoleTool || turns[2].ToolCallID != "call-1" {
		t.Fatalf("unexpected tool turn: %+v", turns[2])
	}
	var recorded contractx.ToolResult
	if err := json.Unmarshal([]byte(turns[2].Content), &recorded); err != nil {
		t.Fatalf("tool turn content must be structured json: %v", err)
	}
}

func TestAnswerLoopLimit(t *testing.T) {
	t.Parallel()

	// An engine that always requests a tool call must be cut off at the
	// configured round cap and produce the fallback answer.
	eng := &fakeEngine{decisions: []contractx.Decision{
		{ToolCalls: []contractx.ToolCall{searchCall("call-x")}},
	}}
	exec := &fakeExecutor{}
	a, _ := newAssistant(t, eng, exec, Config{MaxToolRounds: 3, FallbackReply: "I could not complete that."})

	res, err := a.Answer(context.Background(), "t1", "loop forever")
	if !errors.Is(err, contractx.ErrLoopLimitExceeded) {
		t.Fatalf("expected ErrLoopLimitExceeded, got %v", err)
	}
	if res.Reply != "I could not complete that." || res.Outcome != OutcomeLoopLimit {
		t.Fatalf("unexpected result: %+v", res)
	}
	if len(exec.calls) != 3 {
		t.Fatalf("expected exactly 3 invocations, got %d", len(exec.calls))
	}
	if eng.calls != 3 {
		t.Fatalf("expected exactly 3 decide calls, got %d", eng.calls)
	}
}

func TestAnswerUpstreamErrorLeavesHistoryUntouched(t *testing.T) {
	t.Parallel()

	eng := &fakeEngine{err: fmt.Errorf("%w: boom", contractx.ErrUpstreamError)}
	exec := &fakeExecutor{}
	a, threads := newAssistant(t, eng, exec, Config{})

	if _, err := a.Answer(context.Background(), "t1", "hi"); !errors.Is(err, contractx.ErrUpstreamError) {
		t.Fatalf("expected ErrUpstreamError, got %v", err)
	}
	if turns := threadTurns(t, threads, "t1"); len(turns) != 0 {
		t.Fatalf("history must stay empty after upstream failure, got %+v", turns)
	}
}

func TestAnswerUnknownToolTerminatesAsFailedTurn(t *testing.T) {
	t.Parallel()

	eng := &fakeEngine{err: fmt.Errorf("%w: %q", contractx.ErrUnknownTool, "drop_tables")}
	exec := &fakeExecutor{}
	a, threads := newAssistant(t, eng, exec, Config{})

	res, err := a.Answer(context.Background(), "t1", "hi")
	if !errors.Is(err, contractx.ErrUnknownTool) {
		t.Fatalf("expected ErrUnknownTool, got %v", err)
	}
	if res.Outcome != OutcomeUnknownTool || res.Reply == "" {
		t.Fatalf("expected error answer, got %+v", res)
	}
	// The failed turn is recorded with an error answer.
	turns := threadTurns(t, threads, "t1")
	if len(turns) != 2 || turns[1].Role != contractx.RoleAssistant {
		t.Fatalf("unexpected turns: %+v", turns)
	}
}

func TestAnswerRejectsEmptyMessage(t *testing.T) {
	t.Parallel()

	eng := &fakeEngine{decisions: []contractx.Decision{{Reply: "x"}}}
	a, _ := newAssistant(t, eng, &fakeExecutor{}, Config{})

	if _, err := a.Answer(context.Background(), "t1", "   "); !errors.Is(err, ErrInvalidMessage) {
		t.Fatalf("expected ErrInvalidMessage, got %v", err)
	}
}

func TestAnswerContextWindowStartsAtUserTurn(t *testing.T) {
	t.Parallel()

	eng := &fakeEngine{decisions: []contractx.Decision{{Reply: "ok"}}}
	exec := &fakeExecutor{}
	a, threads := newAssistant(t, eng, exec, Config{ContextTurns: 2})

	h, err := threads.Acquire("t1")
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	h.Commit([]contractx.Turn{
		{Role: contractx.RoleUser, Content: "old question"},
		{Role: contractx.RoleAssistant, ToolCalls: []contractx.ToolCall{searchCall("c1")}},
		{Role: contractx.RoleTool, Content: "{}", ToolCallID: "c1"},
		{Role: contractx.RoleAssistant, Content: "old answer"},
	})
	h.Release()

	if _, err := a.Answer(context.Background(), "t1", "new question"); err != nil {
		t.Fatalf("Answer: %v", err)
	}

	if len(eng.seen) != 1 {
		t.Fatalf("expected 1 decide call, got %d", len(eng.seen))
	}
	window := eng.seen[0]
	if window[0].Role != contractx.RoleUser {
		t.Fatalf("window must start at a user turn, got %+v", window[0])
	}
	for _, turn := range window {
		if turn.Role == contractx.RoleTool && !strings.Contains(turn.Content, "{") {
			t.Fatalf("orphaned tool turn in window: %+v", turn)
		}
	}
}

package contract

import "context"

// Engine is the reasoning boundary: given the recent thread history it
// produces the next action. Implementations are expected to be timeout
// bounded; tests substitute a deterministic stub.
type Engine interface {
	Decide(ctx context.Context, turns []Turn) (Decision, error)
}

// ToolExecutor runs one parsed tool call against the catalog.
type ToolExecutor interface {
	Execute(ctx context.Context, call ToolCall) ToolResult
}

package contract

import (
	"time"

	catalogx "github.com/thanarat/shopagent/agent/catalog"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Turn is one entry in a thread's ordered history. Assistant turns may carry
// tool calls; tool turns carry the result for exactly one call.
type Turn struct {
	Role      Role       `json:"role"`
	Content   string     `json:"content,omitempty"`
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`

	// Set on RoleTool turns only.
	ToolCallID string `json:"tool_call_id,omitempty"`
	ToolName   string `json:"tool_name,omitempty"`

	At time.Time `json:"at"`
}

// ToolKind enumerates the closed set of tools the engine may request.
type ToolKind string

const (
	ToolSearchByName    ToolKind = "search_by_name"
	ToolFilterProducts  ToolKind = "filter_products"
	ToolCheckInventory  ToolKind = "check_inventory"
	ToolCheckoutProduct ToolKind = "checkout_product"
)

type SearchByNameArgs struct {
	Query string `json:"query"`
}

type FilterProductsArgs struct {
	Criteria catalogx.Criteria `json:"criteria"`
	Limit    int               `json:"limit,omitempty"`
}

type CheckInventoryArgs struct {
	ProductID string `json:"product_id"`
}

type CheckoutProductArgs struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// ToolCall is a tagged variant: Kind selects which args pointer is set.
// Instances are only built by tool.ParseCall, so an unknown tool name never
// reaches dispatch.
type ToolCall struct {
	ID      string   `json:"id"`
	Kind    ToolKind `json:"kind"`
	RawArgs string   `json:"raw_args,omitempty"`

	Search    *SearchByNameArgs    `json:"search,omitempty"`
	Filter    *FilterProductsArgs  `json:"filter,omitempty"`
	Inventory *CheckInventoryArgs  `json:"inventory,omitempty"`
	Checkout  *CheckoutProductArgs `json:"checkout,omitempty"`
}

// ToolResult is the structured outcome fed back into the Decide step.
// Tool-level failures travel in Error and are never raised to the caller.
type ToolResult struct {
	Tool   ToolKind `json:"tool"`
	Result any      `json:"result,omitempty"`
	Error  string   `json:"error,omitempty"`
}

// Decision is the engine's output for one Decide step: either a final reply
// or one or more tool calls, never both.
type Decision struct {
	Reply     string
	ToolCalls []ToolCall
}

// TraceEntry records one executed tool invocation for the caller.
type TraceEntry struct {
	Tool  ToolKind `json:"tool"`
	Args  string   `json:"args,omitempty"`
	Error string   `json:"error,omitempty"`
}

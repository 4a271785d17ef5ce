package tool

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	catalogx "github.com/thanarat/shopagent/agent/catalog"
	contractx "github.com/thanarat/shopagent/agent/contract"
)

type SearchOutput struct {
	Count   int                `json:"count"`
	Matches []catalogx.Product `json:"matches"`
}

type FilterOutput struct {
	Count   int                `json:"count"`
	Matches []catalogx.Product `json:"matches"`
}

type InventoryOutput struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	Units     int     `json:"units"`
	InStock   bool    `json:"in_stock"`
	Price     float64 `json:"price,omitempty"`
}

type CheckoutOutput struct {
	OrderID    string  `json:"order_id"`
	ProductID  string  `json:"product_id"`
	Name       string  `json:"name"`
	Quantity   int     `json:"quantity"`
	UnitPrice  float64 `json:"unit_price,omitempty"`
	TotalPrice float64 `json:"total_price,omitempty"`
	Remaining  int     `json:"remaining_units"`
}

// Executor runs parsed tool calls against the catalog store. Dispatch is an
// exhaustive switch over the Kind variant; tool failures are structured
// results, never errors, so the engine can explain them to the user.
type Executor struct {
	store      *catalogx.Store
	newOrderID func() string
}

var _ contractx.ToolExecutor = (*Executor)(nil)

func NewExecutor(store *catalogx.Store) (*Executor, error) {
	if store == nil {
		return nil, fmt.Errorf("catalog store is required")
	}
	return &Executor{
		store:      store,
		newOrderID: func() string { return "ORD-" + uuid.NewString() },
	}, nil
}

func (e *Executor) Execute(ctx context.Context, call contractx.ToolCall) contractx.ToolResult {
	switch call.Kind {
	case contractx.ToolSearchByName:
		return e.searchByName(call.Search)
	case contractx.ToolFilterProducts:
		return e.filterProducts(call.Filter)
	case contractx.ToolCheckInventory:
		return e.checkInventory(call.Inventory)
	case contractx.ToolCheckoutProduct:
		return e.checkoutProduct(call.Checkout)
	default:
		// Unreachable for calls built by ParseCall.
		return contractx.ToolResult{
			Tool:  call.Kind,
			Error: fmt.Sprintf("tool=%s is not executable", call.Kind),
		}
	}
}

func (e *Executor) searchByName(args *contractx.SearchByNameArgs) contractx.ToolResult {
	if args == nil || strings.TrimSpace(args.Query) == "" {
		return contractx.ToolResult{Tool: contractx.ToolSearchByName, Error: "query is required"}
	}

	query := strings.ToLower(strings.TrimSpace(args.Query))

	type ranked struct {
		product catalogx.Product
		exact   bool
		pos     int
	}

	var matches []ranked
	for _, p := range e.store.GetAll() {
		name := strings.ToLower(p.Name)
		pos := strings.Index(name, query)
		if pos < 0 {
			continue
		}
		matches = append(matches, ranked{product: p, exact: name == query, pos: pos})
	}

	// Exact matches first, then earliest substring position; catalog order
	// breaks ties because the sort is stable.
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].exact != matches[j].exact {
			return matches[i].exact
		}
		return matches[i].pos < matches[j].pos
	})

	out := SearchOutput{Matches: make([]catalogx.Product, 0, len(matches))}
	for _, m := range matches {
		out.Matches = append(out.Matches, m.product)
	}
	out.Count = len(out.Matches)
	return contractx.ToolResult{Tool: contractx.ToolSearchByName, Result: out}
}

func (e *Executor) filterProducts(args *contractx.FilterProductsArgs) contractx.ToolResult {
	if args == nil {
		args = &contractx.FilterProductsArgs{}
	}
	if args.Limit < 0 {
		return contractx.ToolResult{Tool: contractx.ToolFilterProducts, Error: "limit must be >= 0"}
	}
	if err := e.store.ValidateCriteria(args.Criteria); err != nil {
		return contractx.ToolResult{
			Tool:  contractx.ToolFilterProducts,
			Error: fmt.Sprintf("invalid criteria: %v", err),
		}
	}

	matched := make([]catalogx.Product, 0)
	for _, p := range e.store.GetAll() {
		if args.Criteria.Match(p) {
			matched = append(matched, p)
		}
	}

	// Catalog order by default. With a limit the result is a recommendation
	// list: rank by rating desc then price asc before capping.
	if args.Limit > 0 {
		sort.SliceStable(matched, func(i, j int) bool {
			ri, _ := matched[i].Attr("rating")
			rj, _ := matched[j].Attr("rating")
			if ri != rj {
				return ri > rj
			}
			pi, _ := matched[i].Attr("price")
			pj, _ := matched[j].Attr("price")
			return pi < pj
		})
		if len(matched) > args.Limit {
			matched = matched[:args.Limit]
		}
	}

	return contractx.ToolResult{
		Tool:   contractx.ToolFilterProducts,
		Result: FilterOutput{Count: len(matched), Matches: matched},
	}
}

func (e *Executor) checkInventory(args *contractx.CheckInventoryArgs) contractx.ToolResult {
	if args == nil || strings.TrimSpace(args.ProductID) == "" {
		return contractx.ToolResult{Tool: contractx.ToolCheckInventory, Error: "product_id is required"}
	}

	p, err := e.store.GetByID(args.ProductID)
	if err != nil {
		return contractx.ToolResult{Tool: contractx.ToolCheckInventory, Error: err.Error()}
	}

	price, _ := p.Attr("price")
	return contractx.ToolResult{
		Tool: contractx.ToolCheckInventory,
		Result: InventoryOutput{
			ProductID: p.ID,
			Name:      p.Name,
			Units:     p.Units,
			InStock:   p.Units > 0,
			Price:     price,
		},
	}
}

func (e *Executor) checkoutProduct(args *contractx.CheckoutProductArgs) contractx.ToolResult {
	if args == nil || strings.TrimSpace(args.ProductID) == "" {
		return contractx.ToolResult{Tool: contractx.ToolCheckoutProduct, Error: "product_id is required"}
	}

	p, err := e.store.DecrementStock(args.ProductID, args.Quantity)
	if err != nil {
		return contractx.ToolResult{Tool: contractx.ToolCheckoutProduct, Error: err.Error()}
	}

	price, _ := p.Attr("price")
	return contractx.ToolResult{
		Tool: contractx.ToolCheckoutProduct,
		Result: CheckoutOutput{
			OrderID:    e.newOrderID(),
			ProductID:  p.ID,
			Name:       p.Name,
			Quantity:   args.Quantity,
			UnitPrice:  price,
			TotalPrice: price * float64(args.Quantity),
			Remaining:  p.Units,
		},
	}
}

package tool

import (
	"context"
	"testing"

	catalogx "github.com/thanarat/shopagent/agent/catalog"
	contractx "github.com/thanarat/shopagent/agent/contract"
)

func testExecutor(t *testing.T) *Executor {
	t.Helper()

	store, err := catalogx.NewStore([]catalogx.Product{
		{ID: "1", Name: "Galaxy A54", Brand: "Samsung", Category: "smartphone", Attrs: map[string]float64{"price": 16500, "rating": 4.3, "ram": 8}, Units: 12},
		{ID: "2", Name: "Galaxy S23", Brand: "Samsung", Category: "smartphone", Attrs: map[string]float64{"price": 31900, "rating": 4.7, "ram": 8}, Units: 5},
		{ID: "4", Name: "Redmi Note", Brand: "Redmi", Category: "smartphone", Attrs: map[string]float64{"price": 12000, "rating": 4.2, "ram": 8, "storage": 128}, Units: 3},
		{ID: "9", Name: "Redmi Pad SE", Brand: "Redmi", Category: "tablet", Attrs: map[string]float64{"price": 6990, "rating": 4.1, "ram": 6}, Units: 15},
	})
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	exec, err := NewExecutor(store)
	if err != nil {
		t.Fatalf("NewExecutor: %v", err)
	}
	return exec
}

func searchIDs(t *testing.T, exec *Executor, query string) []string {
	t.Helper()

	out := exec.Execute(context.Background(), contractx.ToolCall{
		Kind:   contractx.ToolSearchByName,
		Search: &contractx.SearchByNameArgs{Query: query},
	})
	if out.Error != "" {
		t.Fatalf("unexpected tool error: %s", out.Error)
	}
	result, ok := out.Result.(SearchOutput)
	if !ok {
		t.Fatalf("unexpected result type: %T", out.Result)
	}

	ids := make([]string, 0, len(result.Matches))
	for _, p := range result.Matches {
		ids = append(ids, p.ID)
	}
	return ids
}

func TestSearchByNameCaseInsensitive(t *testing.T) {
	t.Parallel()

	exec := testExecutor(t)
	lower := searchIDs(t, exec, "redmi")
	upper := searchIDs(t, exec, "REDMI")

	if len(lower) != 2 {
		t.Fatalf("expected 2 matches, got %v", lower)
	}
	for i := range lower {
		if lower[i] != upper[i] {
			t.Fatalf("case-sensitive results: %v vs %v", lower, upper)
		}
	}
}

func TestSearchByNameOrdering(t *testing.T) {
	t.Parallel()

	exec := testExecutor(t)

	// Exact match ranks before substring matches.
	ids := searchIDs(t, exec, "redmi note")
	if len(ids) == 0 || ids[0] != "4" {
		t.Fatalf("expected exact match first, got %v", ids)
	}

	// Same substring position: catalog order breaks the tie.
	ids = searchIDs(t, exec, "galaxy")
	if len(ids) != 2 || ids[0] != "1" || ids[1] != "2" {
		t.Fatalf("expected catalog-order tie break, got %v", ids)
	}
}

func TestSearchByNameNoMatchIsEmptyNotError(t *testing.T) {
	t.Parallel()

	exec := testExecutor(t)
	ids := searchIDs(t, exec, "nokia")
	if len(ids) != 0 {
		t.Fatalf("expected no matches, got %v", ids)
	}
}

func TestFilterProductsEmptyCriteriaReturnsFullCatalog(t *testing.T) {
	t.Parallel()

	exec := testExecutor(t)
	out := exec.Execute(context.Background(), contractx.ToolCall{
		Kind:   contractx.ToolFilterProducts,
		Filter: &contractx.FilterProductsArgs{},
	})
	if out.Error != "" {
		t.Fatalf("unexpected tool error: %s", out.Error)
	}

	result := out.Result.(FilterOutput)
	if result.Count != 4 {
		t.Fatalf("expected full catalog, got %d", result.Count)
	}
	for i, want := range []string{"1", "2", "4", "9"} {
		if result.Matches[i].ID != want {
			t.Fatalf("catalog order not preserved: %v", result.Matches)
		}
	}
}

func TestFilterProductsBrandAndPriceThreshold(t *testing.T) {
	t.Parallel()

	exec := testExecutor(t)
	lt := 15000.0
	out := exec.Execute(context.Background(), contractx.ToolCall{
		Kind: contractx.ToolFilterProducts,
		Filter: &contractx.FilterProductsArgs{
			Criteria: catalogx.Criteria{
				"brand": {Eq: "Redmi"},
				"price": {Lt: &lt},
			},
		},
	})
	if out.Error != "" {
		t.Fatalf("unexpected tool error: %s", out.Error)
	}

	result := out.Result.(FilterOutput)
	found := false
	for _, p := range result.Matches {
		if p.ID == "4" {
			found = true
		}
		if p.Brand != "Redmi" {
			t.Fatalf("non-Redmi product in result: %+v", p)
		}
	}
	if !found {
		t.Fatalf("expected product 4 in result, got %+v", result.Matches)
	}
}

func TestFilterProductsLimitRanksByRatingThenPrice(t *testing.T) {
	t.Parallel()

	exec := testExecutor(t)
	out := exec.Execute(context.Background(), contractx.ToolCall{
		Kind:   contractx.ToolFilterProducts,
		Filter: &contractx.FilterProductsArgs{Limit: 2},
	})
	result := out.Result.(FilterOutput)
	if result.Count != 2 {
		t.Fatalf("expected 2 matches, got %d", result.Count)
	}
	// Highest rating first: S23 (4.7) then A54 (4.3).
	if result.Matches[0].ID != "2" || result.Matches[1].ID != "1" {
		t.Fatalf("unexpected ranking: %v", result.Matches)
	}
}

func TestFilterProductsUnknownAttributeIsInvalidCriteria(t *testing.T) {
	t.Parallel()

	exec := testExecutor(t)
	out := exec.Execute(context.Background(), contractx.ToolCall{
		Kind: contractx.ToolFilterProducts,
		Filter: &contractx.FilterProductsArgs{
			Criteria: catalogx.Criteria{"weight": {Eq: 1.0}},
		},
	})
	if out.Error == "" {
		t.Fatal("expected invalid criteria error")
	}
}

func TestCheckInventory(t *testing.T) {
	t.Parallel()

	exec := testExecutor(t)
	out := exec.Execute(context.Background(), contractx.ToolCall{
		Kind:      contractx.ToolCheckInventory,
		Inventory: &contractx.CheckInventoryArgs{ProductID: "4"},
	})
	if out.Error != "" {
		t.Fatalf("unexpected tool error: %s", out.Error)
	}

	result := out.Result.(InventoryOutput)
	if result.ProductID != "4" || result.Units != 3 || !result.InStock {
		t.Fatalf("unexpected inventory: %+v", result)
	}
}

func TestCheckInventoryNotFound(t *testing.T) {
	t.Parallel()

	exec := testExecutor(t)
	out := exec.Execute(context.Background(), contractx.ToolCall{
		Kind:      contractx.ToolCheckInventory,
		Inventory: &contractx.CheckInventoryArgs{ProductID: "999"},
	})
	if out.Error == "" {
		t.Fatal("expected not found error in result")
	}
}

func TestCheckoutProductScenario(t *testing.T) {
	t.Parallel()

	exec := testExecutor(t)
	ctx := context.Background()

	out := exec.Execute(ctx, contractx.ToolCall{
		Kind:     contractx.ToolCheckoutProduct,
		Checkout: &contractx.CheckoutProductArgs{ProductID: "4", Quantity: 3},
	})
	if out.Error != "" {
		t.Fatalf("unexpected tool error: %s", out.Error)
	}
	result := out.Result.(CheckoutOutput)
	if result.Remaining != 0 {
		t.Fatalf("expected 0 remaining, got %d", result.Remaining)
	}
	if result.OrderID == "" {
		t.Fatal("expected an order id")
	}
	if result.TotalPrice != 36000 {
		t.Fatalf("unexpected total price: %v", result.TotalPrice)
	}

	// Stock is exhausted now.
	out = exec.Execute(ctx, contractx.ToolCall{
		Kind:     contractx.ToolCheckoutProduct,
		Checkout: &contractx.CheckoutProductArgs{ProductID: "4", Quantity: 1},
	})
	if out.Error == "" {
		t.Fatal("expected insufficient stock error in result")
	}
}

func TestCheckoutProductNotFound(t *testing.T) {
	t.Parallel()

	exec := testExecutor(t)
	out := exec.Execute(context.Background(), contractx.ToolCall{
		Kind:     contractx.ToolCheckoutProduct,
		Checkout: &contractx.CheckoutProductArgs{ProductID: "999", Quantity: 1},
	})
	if out.Error == "" {
		t.Fatal("expected not found error in result")
	}
}

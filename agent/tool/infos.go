package tool

import (
	"github.com/cloudwego/eino/schema"
	contractx "github.com/thanarat/shopagent/agent/contract"
)

// Infos describes the four catalog tools to the reasoning engine.
func Infos() []*schema.ToolInfo {
	return []*schema.ToolInfo{
		{
			Name: string(contractx.ToolSearchByName),
			Desc: "Search products by name. Case-insensitive substring match, best matches first.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"query": {Type: schema.String, Desc: "Product name or part of it", Required: true},
			}),
		},
		{
			Name: string(contractx.ToolFilterProducts),
			Desc: "Filter products by attribute constraints (logical AND). Keys: name, brand, category " +
				"(exact string) or any numeric attribute such as price, rating, ram, storage. " +
				"Numeric constraints: a bare number, or an object with lt/lte/gt/gte/min/max. " +
				"Empty criteria returns the full catalog.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"criteria": {
					Type:     schema.Object,
					Desc:     `Attribute constraints, e.g. {"brand": "Redmi", "price": {"lt": 15000}}`,
					Required: true,
				},
				"limit": {
					Type: schema.Integer,
					Desc: "Optional top-N cap; ranked by rating desc then price asc when set",
				},
			}),
		},
		{
			Name: string(contractx.ToolCheckInventory),
			Desc: "Check available units for one product id.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"product_id": {Type: schema.String, Desc: "Product id", Required: true},
			}),
		},
		{
			Name: string(contractx.ToolCheckoutProduct),
			Desc: "Checkout simulation: decrements stock and returns an order receipt. " +
				"Only call after the user explicitly confirmed the purchase.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"product_id": {Type: schema.String, Desc: "Product id", Required: true},
				"quantity":   {Type: schema.Integer, Desc: "Units to buy, default 1"},
			}),
		},
	}
}

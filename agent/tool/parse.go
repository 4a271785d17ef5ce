package tool

import (
	"encoding/json"
	"fmt"
	"strings"

	contractx "github.com/thanarat/shopagent/agent/contract"
)

// ParseCall turns a raw (name, arguments) pair from the engine into a typed
// tool call. This is the only place tool names are interpreted: everything
// past this boundary dispatches on the closed Kind variant, so an unknown
// name is impossible downstream.
func ParseCall(id, name, rawArgs string) (contractx.ToolCall, error) {
	call := contractx.ToolCall{
		ID:      strings.TrimSpace(id),
		RawArgs: strings.TrimSpace(rawArgs),
	}

	switch contractx.ToolKind(strings.TrimSpace(name)) {
	case contractx.ToolSearchByName:
		args := &contractx.SearchByNameArgs{}
		if err := decodeArgs(call.RawArgs, args); err != nil {
			return contractx.ToolCall{}, fmt.Errorf("%w: %s: %v", contractx.ErrValidation, name, err)
		}
		call.Kind = contractx.ToolSearchByName
		call.Search = args
	case contractx.ToolFilterProducts:
		args := &contractx.FilterProductsArgs{}
		if err := decodeArgs(call.RawArgs, args); err != nil {
			return contractx.ToolCall{}, fmt.Errorf("%w: %s: %v", contractx.ErrInvalidCriteria, name, err)
		}
		call.Kind = contractx.ToolFilterProducts
		call.Filter = args
	case contractx.ToolCheckInventory:
		args := &contractx.CheckInventoryArgs{}
		if err := decodeArgs(call.RawArgs, args); err != nil {
			return contractx.ToolCall{}, fmt.Errorf("%w: %s: %v", contractx.ErrValidation, name, err)
		}
		call.Kind = contractx.ToolCheckInventory
		call.Inventory = args
	case contractx.ToolCheckoutProduct:
		args := &contractx.CheckoutProductArgs{}
		if err := decodeArgs(call.RawArgs, args); err != nil {
			return contractx.ToolCall{}, fmt.Errorf("%w: %s: %v", contractx.ErrValidation, name, err)
		}
		if args.Quantity == 0 {
			args.Quantity = 1
		}
		call.Kind = contractx.ToolCheckoutProduct
		call.Checkout = args
	default:
		return contractx.ToolCall{}, fmt.Errorf("%w: %q", contractx.ErrUnknownTool, name)
	}

	return call, nil
}

func decodeArgs(raw string, into any) error {
	if raw == "" {
		return nil
	}
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(into); err != nil {
		return fmt.Errorf("invalid arguments %s: %w", raw, err)
	}
	return nil
}

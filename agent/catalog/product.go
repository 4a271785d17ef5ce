package catalog

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Product is one catalog record. Numeric attributes (price, rating, ram,
// storage, ...) live in Attrs so the attribute set stays open: columns added
// to the source CSV become filterable without code changes.
type Product struct {
	ID          string             `json:"product_id"`
	Name        string             `json:"name"`
	Brand       string             `json:"brand,omitempty"`
	Category    string             `json:"category,omitempty"`
	Description string             `json:"description,omitempty"`
	Attrs       map[string]float64 `json:"attrs,omitempty"`
	Units       int                `json:"units"`
}

// Attr returns the named numeric attribute and whether it is present.
func (p Product) Attr(name string) (float64, bool) {
	v, ok := p.Attrs[name]
	return v, ok
}

func (p Product) clone() Product {
	out := p
	if p.Attrs != nil {
		out.Attrs = make(map[string]float64, len(p.Attrs))
		for k, v := range p.Attrs {
			out.Attrs[k] = v
		}
	}
	return out
}

// Criteria maps attribute names to constraints. All constraints must hold
// for a product to match (logical AND).
type Criteria map[string]Constraint

// Constraint is one attribute constraint: exact match, threshold, or range.
// String attributes only support Eq; numeric attributes support all fields.
type Constraint struct {
	Eq  any      `json:"eq,omitempty"`
	Lt  *float64 `json:"lt,omitempty"`
	Lte *float64 `json:"lte,omitempty"`
	Gt  *float64 `json:"gt,omitempty"`
	Gte *float64 `json:"gte,omitempty"`
	Min *float64 `json:"min,omitempty"`
	Max *float64 `json:"max,omitempty"`
}

// UnmarshalJSON accepts the three shapes the engine supplies:
// a bare string ("Redmi"), a bare number (8), or an operator object
// ({"lt": 15000} / {"min": 4, "max": 8}).
func (c *Constraint) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "{") {
		type alias Constraint
		var a alias
		if err := json.Unmarshal(data, &a); err != nil {
			return err
		}
		*c = Constraint(a)
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*c = Constraint{Eq: s}
		return nil
	}

	var n float64
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("constraint must be a string, number, or operator object: %s", trimmed)
	}
	*c = Constraint{Eq: n}
	return nil
}

func (c Constraint) isEmpty() bool {
	return c.Eq == nil && c.Lt == nil && c.Lte == nil && c.Gt == nil && c.Gte == nil && c.Min == nil && c.Max == nil
}

func (c Constraint) matchString(value string) bool {
	want, ok := c.Eq.(string)
	if !ok {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(want), strings.TrimSpace(value))
}

func (c Constraint) matchNumber(value float64) bool {
	if c.Eq != nil {
		want, ok := toFloat(c.Eq)
		if !ok || value != want {
			return false
		}
	}
	if c.Lt != nil && !(value < *c.Lt) {
		return false
	}
	if c.Lte != nil && !(value <= *c.Lte) {
		return false
	}
	if c.Gt != nil && !(value > *c.Gt) {
		return false
	}
	if c.Gte != nil && !(value >= *c.Gte) {
		return false
	}
	if c.Min != nil && value < *c.Min {
		return false
	}
	if c.Max != nil && value > *c.Max {
		return false
	}
	return true
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

// Match reports whether the product satisfies every constraint.
// Unknown keys are rejected before matching (see Store.ValidateCriteria),
// so a key that is neither a string field nor a present numeric attribute
// simply fails the match.
func (cr Criteria) Match(p Product) bool {
	for key, c := range cr {
		switch strings.ToLower(strings.TrimSpace(key)) {
		case "name":
			if !c.matchString(p.Name) {
				return false
			}
		case "brand":
			if !c.matchString(p.Brand) {
				return false
			}
		case "category":
			if !c.matchString(p.Category) {
				return false
			}
		default:
			v, ok := p.Attr(strings.ToLower(strings.TrimSpace(key)))
			if !ok || !c.matchNumber(v) {
				return false
			}
		}
	}
	return true
}

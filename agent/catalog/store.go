package catalog

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

var (
	ErrNotFound          = errors.New("product not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidQuantity   = errors.New("quantity must be >= 1")
)

// Store holds the ordered product catalog in memory. Reads hand out copies;
// the only mutation is DecrementStock, which is atomic under the write lock
// so concurrent checkouts cannot oversell.
type Store struct {
	mu       sync.RWMutex
	products []Product
	byID     map[string]int
	attrKeys map[string]struct{}
}

func NewStore(products []Product) (*Store, error) {
	s := &Store{
		products: make([]Product, 0, len(products)),
		byID:     make(map[string]int, len(products)),
		attrKeys: make(map[string]struct{}, 8),
	}

	for _, p := range products {
		id := strings.TrimSpace(p.ID)
		if id == "" {
			return nil, fmt.Errorf("product %q has empty id", p.Name)
		}
		if _, dup := s.byID[id]; dup {
			return nil, fmt.Errorf("duplicate product id %q", id)
		}
		if p.Units < 0 {
			return nil, fmt.Errorf("product %q has negative units", id)
		}
		p.ID = id
		if len(p.Attrs) > 0 {
			attrs := make(map[string]float64, len(p.Attrs))
			for k, v := range p.Attrs {
				key := strings.ToLower(strings.TrimSpace(k))
				attrs[key] = v
				s.attrKeys[key] = struct{}{}
			}
			p.Attrs = attrs
		}
		s.byID[id] = len(s.products)
		s.products = append(s.products, p.clone())
	}

	return s, nil
}

// GetAll returns every product in catalog order.
func (s *Store) GetAll() []Product {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Product, 0, len(s.products))
	for _, p := range s.products {
		out = append(out, p.clone())
	}
	return out
}

func (s *Store) GetByID(id string) (Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx, ok := s.byID[strings.TrimSpace(id)]
	if !ok {
		return Product{}, fmt.Errorf("%w: id=%s", ErrNotFound, id)
	}
	return s.products[idx].clone(), nil
}

// DecrementStock atomically checks availability and decrements. Units never
// go below zero: an overdraw returns ErrInsufficientStock and leaves the
// record untouched.
func (s *Store) DecrementStock(id string, qty int) (Product, error) {
	if qty < 1 {
		return Product{}, fmt.Errorf("%w: got %d", ErrInvalidQuantity, qty)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx, ok := s.byID[strings.TrimSpace(id)]
	if !ok {
		return Product{}, fmt.Errorf("%w: id=%s", ErrNotFound, id)
	}
	p := &s.products[idx]
	if p.Units < qty {
		return Product{}, fmt.Errorf("%w: id=%s available=%d requested=%d", ErrInsufficientStock, id, p.Units, qty)
	}
	p.Units -= qty
	return p.clone(), nil
}

// ValidateCriteria rejects criteria referring to attributes the catalog does
// not carry. Unknown keys are a hard validation failure rather than being
// silently ignored, so the engine gets an explanation it can surface.
func (s *Store) ValidateCriteria(cr Criteria) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for key, c := range cr {
		k := strings.ToLower(strings.TrimSpace(key))
		if k == "" {
			return errors.New("criteria key is empty")
		}
		if c.isEmpty() {
			return fmt.Errorf("criteria key %q has no constraint", key)
		}
		switch k {
		case "name", "brand", "category":
			if _, ok := c.Eq.(string); !ok || c.Lt != nil || c.Lte != nil || c.Gt != nil || c.Gte != nil || c.Min != nil || c.Max != nil {
				return fmt.Errorf("attribute %q only supports exact string match", key)
			}
		default:
			if _, ok := s.attrKeys[k]; !ok {
				return fmt.Errorf("unknown attribute %q", key)
			}
			if _, isString := c.Eq.(string); isString {
				return fmt.Errorf("attribute %q is numeric", key)
			}
		}
	}
	return nil
}

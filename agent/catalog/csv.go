package catalog

import (
	_ "embed"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

//go:embed data/products.csv
var seedCSV string

// Header columns holding string fields; every remaining column except the
// units column is parsed as a numeric attribute.
var stringColumns = map[string]struct{}{
	"product_id":  {},
	"name":        {},
	"brand":       {},
	"category":    {},
	"description": {},
}

const unitsColumn = "units"

// NewSeededStore builds a Store from the embedded sample catalog.
func NewSeededStore() (*Store, error) {
	products, err := ReadCSV(strings.NewReader(seedCSV))
	if err != nil {
		return nil, fmt.Errorf("parse embedded catalog: %w", err)
	}
	return NewStore(products)
}

// NewStoreFromFile builds a Store from an external CSV with the same layout
// as the embedded seed.
func NewStoreFromFile(path string) (*Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog file: %w", err)
	}
	defer f.Close()

	products, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("parse catalog file %s: %w", path, err)
	}
	return NewStore(products)
}

// ReadCSV parses catalog rows. Required columns: product_id, name, units.
// Unrecognized columns become numeric attributes keyed by header name.
func ReadCSV(r io.Reader) ([]Product, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	for i := range header {
		header[i] = strings.ToLower(strings.TrimSpace(header[i]))
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		if name == "" {
			return nil, fmt.Errorf("empty column name at index %d", i)
		}
		if _, dup := cols[name]; dup {
			return nil, fmt.Errorf("duplicate column %q", name)
		}
		cols[name] = i
	}
	for _, required := range []string{"product_id", "name", unitsColumn} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("missing required column %q", required)
		}
	}

	var products []Product
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv line %d: %w", line, err)
		}

		p := Product{Attrs: make(map[string]float64, len(header))}
		for name, idx := range cols {
			if idx >= len(record) {
				continue
			}
			value := strings.TrimSpace(record[idx])
			switch name {
			case "product_id":
				p.ID = value
			case "name":
				p.Name = value
			case "brand":
				p.Brand = value
			case "category":
				p.Category = value
			case "description":
				p.Description = value
			case unitsColumn:
				units, err := strconv.Atoi(value)
				if err != nil {
					return nil, fmt.Errorf("line %d: invalid units %q", line, value)
				}
				p.Units = units
			default:
				if value == "" {
					continue
				}
				n, err := strconv.ParseFloat(value, 64)
				if err != nil {
					return nil, fmt.Errorf("line %d: column %q: invalid number %q", line, name, value)
				}
				p.Attrs[name] = n
			}
		}
		products = append(products, p)
	}

	return products, nil
}

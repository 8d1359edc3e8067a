package csv

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/vsinha/stockmrp/pkg/domain/entities"
)

// File names expected inside a scenario directory
const (
	ComponentsFile = "components.csv"
	ProductsFile   = "products.csv"
	OrdersFile     = "orders.csv"
)

// ComponentRow is one component definition with its opening stock
type ComponentRow struct {
	Name     string
	Spillage decimal.Decimal
	InStock  entities.Quantity
}

// NamedLine is a BOM line that refers to its child by name
type NamedLine struct {
	Name     string
	Quantity entities.Quantity
}

// ProductRow is one product with its BOM lines grouped from products.csv
type ProductRow struct {
	Name       string
	Components []NamedLine
	Products   []NamedLine
}

// OrderRow is one production order to place after the catalog is loaded
type OrderRow struct {
	Product  string
	Quantity entities.Quantity
}

// Scenario is a catalog described by names rather than ids
type Scenario struct {
	Components []ComponentRow
	Products   []ProductRow
	Orders     []OrderRow
}

// Loader handles loading scenario data from CSV files
type Loader struct{}

// NewLoader creates a new CSV loader
func NewLoader() *Loader {
	return &Loader{}
}

// LoadScenario reads components.csv, products.csv and the optional orders.csv from dir
func (l *Loader) LoadScenario(dir string) (*Scenario, error) {
	components, err := l.LoadComponents(filepath.Join(dir, ComponentsFile))
	if err != nil {
		return nil, err
	}
	products, err := l.LoadProducts(filepath.Join(dir, ProductsFile))
	if err != nil {
		return nil, err
	}

	orders, err := l.LoadOrders(filepath.Join(dir, OrdersFile))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	return &Scenario{Components: components, Products: products, Orders: orders}, nil
}

// LoadComponents loads component definitions from a CSV file
func (l *Loader) LoadComponents(filename string) ([]ComponentRow, error) {
	expectedHeader := []string{"name", "spillage_coefficient", "in_stock"}
	records, err := readRecords(filename, "components", expectedHeader)
	if err != nil {
		return nil, err
	}

	rows := make([]ComponentRow, 0, len(records))
	for i, record := range records {
		spillage, err := entities.ParseSpillage(record[1])
		if err != nil {
			return nil, fmt.Errorf("components CSV row %d: %w", i+2, err)
		}
		stock, err := parseQuantity("in_stock", record[2], 0)
		if err != nil {
			return nil, fmt.Errorf("components CSV row %d: %w", i+2, err)
		}
		rows = append(rows, ComponentRow{
			Name:     strings.TrimSpace(record[0]),
			Spillage: spillage,
			InStock:  stock,
		})
	}
	return rows, nil
}

// LoadProducts loads BOM lines from a CSV file and groups them by product, keeping first-seen order
func (l *Loader) LoadProducts(filename string) ([]ProductRow, error) {
	expectedHeader := []string{"product", "kind", "child", "quantity"}
	records, err := readRecords(filename, "products", expectedHeader)
	if err != nil {
		return nil, err
	}

	var rows []ProductRow
	index := make(map[string]int)
	for i, record := range records {
		name := strings.TrimSpace(record[0])
		if name == "" {
			return nil, fmt.Errorf("products CSV row %d: product name cannot be empty", i+2)
		}
		qty, err := parseQuantity("quantity", record[3], 1)
		if err != nil {
			return nil, fmt.Errorf("products CSV row %d: %w", i+2, err)
		}
		line := NamedLine{Name: strings.TrimSpace(record[2]), Quantity: qty}

		pos, seen := index[name]
		if !seen {
			pos = len(rows)
			index[name] = pos
			rows = append(rows, ProductRow{Name: name})
		}

		switch strings.ToLower(strings.TrimSpace(record[1])) {
		case "component":
			rows[pos].Components = append(rows[pos].Components, line)
		case "product":
			rows[pos].Products = append(rows[pos].Products, line)
		default:
			return nil, fmt.Errorf("products CSV row %d: invalid kind %q (expected 'component' or 'product')", i+2, record[1])
		}
	}
	return rows, nil
}

// LoadOrders loads orders from a CSV file
func (l *Loader) LoadOrders(filename string) ([]OrderRow, error) {
	expectedHeader := []string{"product", "quantity"}
	records, err := readRecords(filename, "orders", expectedHeader)
	if err != nil {
		return nil, err
	}

	rows := make([]OrderRow, 0, len(records))
	for i, record := range records {
		qty, err := parseQuantity("quantity", record[1], 1)
		if err != nil {
			return nil, fmt.Errorf("orders CSV row %d: %w", i+2, err)
		}
		rows = append(rows, OrderRow{Product: strings.TrimSpace(record[0]), Quantity: qty})
	}
	return rows, nil
}

// readRecords opens a CSV file, checks its header and returns the data rows
func readRecords(filename, kind string, expectedHeader []string) ([][]string, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s file %s: %w", kind, filename, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s CSV: %w", kind, err)
	}

	if len(records) < 1 {
		return nil, fmt.Errorf("%s CSV must have a header row", kind)
	}

	header := records[0]
	if !validateHeader(header, expectedHeader) {
		return nil, fmt.Errorf("%s CSV header mismatch. Expected: %v, Got: %v", kind, expectedHeader, header)
	}

	data := records[1:]
	for i, record := range data {
		if len(record) != len(expectedHeader) {
			return nil, fmt.Errorf("%s CSV row %d: expected %d columns, got %d", kind, i+2, len(expectedHeader), len(record))
		}
	}
	return data, nil
}

func validateHeader(actual, expected []string) bool {
	if len(actual) != len(expected) {
		return false
	}

	for i, col := range expected {
		if strings.ToLower(strings.TrimSpace(strings.TrimPrefix(actual[i], "\ufeff"))) != col {
			return false
		}
	}

	return true
}

func parseQuantity(field, s string, minimum int64) (entities.Quantity, error) {
	v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %s", field, s)
	}
	if v < minimum {
		return 0, fmt.Errorf("invalid %s: %d (must be at least %d)", field, v, minimum)
	}
	return entities.Quantity(v), nil
}

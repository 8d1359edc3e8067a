package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/vsinha/stockmrp/pkg/domain/entities"
	"github.com/vsinha/stockmrp/pkg/domain/repositories"
)

//go:embed schema.sql
var schemaSQL string

const timeLayout = time.RFC3339Nano

// SnapshotStore persists whole-catalog snapshots in SQLite.
// Decimals are stored as TEXT so spillage coefficients round-trip exactly.
type SnapshotStore struct {
	db *sql.DB
}

// Verify interface compliance
var _ repositories.SnapshotStore = (*SnapshotStore)(nil)

// Open creates or opens a SQLite database at the given path and applies the schema.
//
// The database is configured with:
//   - WAL mode for concurrent reads during writes
//   - 5-second busy timeout for lock contention
//   - Foreign key enforcement
func Open(path string) (*SnapshotStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite only supports one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &SnapshotStore{db: db}, nil
}

// Close closes the database connection.
func (s *SnapshotStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return nil
}

// Save replaces the stored snapshot in a single transaction
func (s *SnapshotStore) Save(ctx context.Context, snap repositories.StateSnapshot) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, table := range []string{"order_allocations", "orders", "product_children", "product_components", "products", "components", "snapshot_meta"} {
		if _, err = tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("save snapshot: clear %s: %w", table, err)
		}
	}

	if _, err = tx.ExecContext(ctx, `INSERT INTO snapshot_meta (id, taken_at) VALUES (1, ?)`,
		snap.TakenAt.UTC().Format(timeLayout)); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}

	for _, c := range snap.Components {
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO components (id, name, spillage_coefficient, in_stock, in_progress, shipped, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`,
			c.ID, c.Name, c.SpillageCoefficient.String(), c.InStock, c.InProgress, c.Shipped,
			formatTime(c.CreatedAt), formatTime(c.UpdatedAt),
		); err != nil {
			return fmt.Errorf("save snapshot: component %d: %w", c.ID, err)
		}
	}

	// products first, BOM lines after, so child references resolve
	for _, p := range snap.Products {
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO products (id, name, in_progress, shipped, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`,
			p.ID, p.Name, p.InProgress, p.Shipped, formatTime(p.CreatedAt), formatTime(p.UpdatedAt),
		); err != nil {
			return fmt.Errorf("save snapshot: product %d: %w", p.ID, err)
		}
	}
	for _, p := range snap.Products {
		for i, line := range p.BOM.Components {
			if _, err = tx.ExecContext(ctx, `
				INSERT INTO product_components (product_id, position, component_id, quantity_required)
				VALUES (?, ?, ?, ?)
			`, p.ID, i, line.ComponentID, line.Quantity); err != nil {
				return fmt.Errorf("save snapshot: product %d component line: %w", p.ID, err)
			}
		}
		for i, line := range p.BOM.Products {
			if _, err = tx.ExecContext(ctx, `
				INSERT INTO product_children (product_id, position, child_product_id, quantity_required)
				VALUES (?, ?, ?, ?)
			`, p.ID, i, line.ChildProductID, line.Quantity); err != nil {
				return fmt.Errorf("save snapshot: product %d child line: %w", p.ID, err)
			}
		}
	}

	for _, o := range snap.Orders {
		var completedAt sql.NullString
		if o.CompletedAt != nil {
			completedAt = sql.NullString{String: formatTime(*o.CompletedAt), Valid: true}
		}
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO orders (id, product_id, quantity, status, created_at, completed_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`, o.ID, o.ProductID, o.Quantity, o.Status.String(), formatTime(o.CreatedAt), completedAt); err != nil {
			return fmt.Errorf("save snapshot: order %d: %w", o.ID, err)
		}
		for _, a := range o.Allocations {
			if _, err = tx.ExecContext(ctx, `
				INSERT INTO order_allocations (order_id, component_id, quantity_allocated)
				VALUES (?, ?, ?)
			`, o.ID, a.ComponentID, a.Quantity); err != nil {
				return fmt.Errorf("save snapshot: order %d allocation: %w", o.ID, err)
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("save snapshot: commit: %w", err)
	}
	return nil
}

// Load reads the stored snapshot. ok is false when nothing was saved yet.
func (s *SnapshotStore) Load(ctx context.Context) (snap repositories.StateSnapshot, ok bool, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return snap, false, fmt.Errorf("load snapshot: %w", err)
	}
	defer tx.Rollback()

	var takenAt string
	err = tx.QueryRowContext(ctx, `SELECT taken_at FROM snapshot_meta WHERE id = 1`).Scan(&takenAt)
	if err == sql.ErrNoRows {
		return snap, false, nil
	}
	if err != nil {
		return snap, false, fmt.Errorf("load snapshot: %w", err)
	}
	if snap.TakenAt, err = parseTime(takenAt); err != nil {
		return snap, false, fmt.Errorf("load snapshot: %w", err)
	}

	if snap.Components, err = loadComponents(ctx, tx); err != nil {
		return snap, false, err
	}
	if snap.Products, err = loadProducts(ctx, tx); err != nil {
		return snap, false, err
	}
	if snap.Orders, err = loadOrders(ctx, tx); err != nil {
		return snap, false, err
	}
	return snap, true, nil
}

func loadComponents(ctx context.Context, tx *sql.Tx) ([]entities.Component, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT id, name, spillage_coefficient, in_stock, in_progress, shipped, created_at, updated_at
		FROM components ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("load components: %w", err)
	}
	defer rows.Close()

	var out []entities.Component
	for rows.Next() {
		var c entities.Component
		var spillage, created, updated string
		if err := rows.Scan(&c.ID, &c.Name, &spillage, &c.InStock, &c.InProgress, &c.Shipped, &created, &updated); err != nil {
			return nil, fmt.Errorf("load components: %w", err)
		}
		if c.SpillageCoefficient, err = decimal.NewFromString(spillage); err != nil {
			return nil, fmt.Errorf("load components: component %d spillage: %w", c.ID, err)
		}
		if c.CreatedAt, err = parseTime(created); err != nil {
			return nil, err
		}
		if c.UpdatedAt, err = parseTime(updated); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func loadProducts(ctx context.Context, tx *sql.Tx) ([]entities.Product, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT id, name, in_progress, shipped, created_at, updated_at FROM products ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}

	var out []entities.Product
	index := make(map[entities.ProductID]int)
	for rows.Next() {
		var p entities.Product
		var created, updated string
		if err := rows.Scan(&p.ID, &p.Name, &p.InProgress, &p.Shipped, &created, &updated); err != nil {
			rows.Close()
			return nil, fmt.Errorf("load products: %w", err)
		}
		if p.CreatedAt, err = parseTime(created); err != nil {
			rows.Close()
			return nil, err
		}
		if p.UpdatedAt, err = parseTime(updated); err != nil {
			rows.Close()
			return nil, err
		}
		index[p.ID] = len(out)
		out = append(out, p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}

	lines, err := tx.QueryContext(ctx, `
		SELECT product_id, component_id, quantity_required FROM product_components ORDER BY product_id, position
	`)
	if err != nil {
		return nil, fmt.Errorf("load product components: %w", err)
	}
	for lines.Next() {
		var pid entities.ProductID
		var line entities.ComponentLine
		if err := lines.Scan(&pid, &line.ComponentID, &line.Quantity); err != nil {
			lines.Close()
			return nil, fmt.Errorf("load product components: %w", err)
		}
		p := &out[index[pid]]
		p.BOM.Components = append(p.BOM.Components, line)
	}
	lines.Close()

	children, err := tx.QueryContext(ctx, `
		SELECT product_id, child_product_id, quantity_required FROM product_children ORDER BY product_id, position
	`)
	if err != nil {
		return nil, fmt.Errorf("load product children: %w", err)
	}
	defer children.Close()
	for children.Next() {
		var pid entities.ProductID
		var line entities.ProductLine
		if err := children.Scan(&pid, &line.ChildProductID, &line.Quantity); err != nil {
			return nil, fmt.Errorf("load product children: %w", err)
		}
		p := &out[index[pid]]
		p.BOM.Products = append(p.BOM.Products, line)
	}
	return out, children.Err()
}

func loadOrders(ctx context.Context, tx *sql.Tx) ([]entities.Order, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT id, product_id, quantity, status, created_at, completed_at FROM orders ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("load orders: %w", err)
	}

	var out []entities.Order
	index := make(map[entities.OrderID]int)
	for rows.Next() {
		var o entities.Order
		var status, created string
		var completed sql.NullString
		if err := rows.Scan(&o.ID, &o.ProductID, &o.Quantity, &status, &created, &completed); err != nil {
			rows.Close()
			return nil, fmt.Errorf("load orders: %w", err)
		}
		if o.Status, err = entities.ParseOrderStatus(status); err != nil {
			rows.Close()
			return nil, fmt.Errorf("load orders: order %d: %w", o.ID, err)
		}
		if o.CreatedAt, err = parseTime(created); err != nil {
			rows.Close()
			return nil, err
		}
		if completed.Valid {
			at, err := parseTime(completed.String)
			if err != nil {
				rows.Close()
				return nil, err
			}
			o.CompletedAt = &at
		}
		index[o.ID] = len(out)
		out = append(out, o)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load orders: %w", err)
	}

	allocs, err := tx.QueryContext(ctx, `
		SELECT order_id, component_id, quantity_allocated FROM order_allocations ORDER BY order_id, component_id
	`)
	if err != nil {
		return nil, fmt.Errorf("load allocations: %w", err)
	}
	defer allocs.Close()
	for allocs.Next() {
		var oid entities.OrderID
		var a entities.Allocation
		if err := allocs.Scan(&oid, &a.ComponentID, &a.Quantity); err != nil {
			return nil, fmt.Errorf("load allocations: %w", err)
		}
		o := &out[index[oid]]
		o.Allocations = append(o.Allocations, a)
	}
	return out, allocs.Err()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", s, err)
	}
	return t, nil
}

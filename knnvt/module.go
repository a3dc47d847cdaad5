package knnvt

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"

	"modernc.org/sqlite/vtab"

	"github.com/viant/hotelsearch/catalog"
	"github.com/viant/hotelsearch/geo"
)

// ModuleName is the name used in CREATE VIRTUAL TABLE ... USING.
const ModuleName = "hotel_knn"

const (
	idxScan = iota
	idxMatch
)

// ErrSingleConnection reports a handle that cannot serve hotel_knn: the
// cursor reads the catalogue through a second pooled connection.
var ErrSingleConnection = errors.New("knnvt: db is limited to one connection")

// Module implements vtab.Module for hotel_knn. The driver keeps one module
// per process, so a later Register rebinds it to the new handle.
type Module struct {
	mu     sync.Mutex
	db     *sql.DB
	opts   []catalog.FinderOption
	store  *catalog.SQLiteStore
	finder *catalog.Finder
}

var (
	registerMu sync.Mutex
	registered *Module
)

// Table is a single hotel_knn virtual table instance.
type Table struct {
	module *Module
	name   string
}

type row struct {
	id       int64
	distance *float64
}

// Cursor scans hotel_knn results.
type Cursor struct {
	table *Table
	rows  []row
	pos   int
}

// Register registers the hotel_knn module with db. Call it before running
// any SQL on db. The catalogue store and finder are attached on first use.
// Handles pinned to a single connection, such as ":memory:" ones opened by
// engine.Open, are rejected with ErrSingleConnection.
func Register(db *sql.DB, opts ...catalog.FinderOption) error {
	if db == nil {
		return fmt.Errorf("knnvt: db is nil")
	}
	if err := checkPool(db); err != nil {
		return err
	}
	registerMu.Lock()
	defer registerMu.Unlock()
	if registered != nil {
		registered.bind(db, opts)
		return nil
	}
	mod := &Module{}
	mod.bind(db, opts)
	if err := vtab.RegisterModule(db, ModuleName, mod); err != nil {
		if !strings.Contains(err.Error(), "already registered") {
			return err
		}
	}
	registered = mod
	return nil
}

func checkPool(db *sql.DB) error {
	if db.Stats().MaxOpenConnections == 1 {
		return ErrSingleConnection
	}
	return nil
}

func (m *Module) bind(db *sql.DB, opts []catalog.FinderOption) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.db, m.opts = db, opts
	m.store, m.finder = nil, nil
}

func (m *Module) attach(ctx context.Context) (*catalog.SQLiteStore, *catalog.Finder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.db == nil {
		return nil, nil, fmt.Errorf("knnvt: module is not bound to a db")
	}
	if err := checkPool(m.db); err != nil {
		return nil, nil, err
	}
	if m.finder != nil {
		return m.store, m.finder, nil
	}
	store, err := catalog.NewSQLiteStore(ctx, m.db)
	if err != nil {
		return nil, nil, err
	}
	finder, err := catalog.NewFinder(store, m.opts...)
	if err != nil {
		return nil, nil, err
	}
	m.store, m.finder = store, finder
	return store, finder, nil
}

// Create declares a new hotel_knn table.
func (m *Module) Create(ctx vtab.Context, args []string) (vtab.Table, error) {
	return m.connect(ctx, args)
}

// Connect attaches to an existing hotel_knn table.
func (m *Module) Connect(ctx vtab.Context, args []string) (vtab.Table, error) {
	return m.connect(ctx, args)
}

func (m *Module) connect(ctx vtab.Context, args []string) (vtab.Table, error) {
	if len(args) < 3 {
		return nil, fmt.Errorf("knnvt: expects at least 3 args, got %d", len(args))
	}
	if err := ctx.EnableConstraintSupport(); err != nil {
		return nil, fmt.Errorf("knnvt: EnableConstraintSupport failed: %w", err)
	}
	col := "hotel_id"
	if len(args) > 3 {
		if a := strings.TrimSpace(args[3]); a != "" {
			col = a
		}
	}
	if err := ctx.Declare(fmt.Sprintf("CREATE TABLE %s(%s INTEGER, distance REAL HIDDEN)", args[2], col)); err != nil {
		return nil, err
	}
	return &Table{module: m, name: args[2]}, nil
}

// BestIndex pushes MATCH on the id column down to the catalogue index.
func (t *Table) BestIndex(info *vtab.IndexInfo) error {
	info.IdxNum = idxScan
	for i := range info.Constraints {
		c := &info.Constraints[i]
		if !c.Usable {
			continue
		}
		if c.Column == 0 && c.Op == vtab.OpMATCH {
			c.ArgIndex = 0
			c.Omit = true
			info.IdxNum = idxMatch
			break
		}
	}
	return nil
}

// Open allocates a new cursor.
func (t *Table) Open() (vtab.Cursor, error) { return &Cursor{table: t}, nil }

// Disconnect releases nothing.
func (t *Table) Disconnect() error { return nil }

// Destroy releases nothing; the catalogue tables are not owned by the
// virtual table.
func (t *Table) Destroy() error { return nil }

// Filter computes the result set.
func (c *Cursor) Filter(idxNum int, _ string, vals []vtab.Value) error {
	c.rows = nil
	c.pos = 0
	ctx := context.Background()
	store, finder, err := c.table.module.attach(ctx)
	if err != nil {
		return err
	}

	switch idxNum {
	case idxScan:
		hotels, err := store.Hotels(ctx)
		if err != nil {
			return err
		}
		c.rows = make([]row, len(hotels))
		for i, h := range hotels {
			c.rows[i] = row{id: h.ID}
		}
		return nil
	case idxMatch:
		if len(vals) == 0 || vals[0] == nil {
			return fmt.Errorf("knnvt: MATCH argument is required")
		}
		p, err := decodeMatchArg(vals[0])
		if err != nil {
			return err
		}
		matches, err := finder.FindNear(ctx, p, 0)
		if err != nil {
			return err
		}
		c.rows = make([]row, len(matches))
		for i, m := range matches {
			d := m.Distance
			c.rows[i] = row{id: m.ID, distance: &d}
		}
		return nil
	default:
		return fmt.Errorf("knnvt: unsupported query plan %d", idxNum)
	}
}

func decodeMatchArg(v vtab.Value) (geo.Point, error) {
	switch val := v.(type) {
	case []byte:
		return geo.DecodePoint(val)
	case string:
		p, err := geo.ParsePoint(val)
		if err != nil {
			return geo.Point{}, fmt.Errorf("knnvt: invalid MATCH point: %w", err)
		}
		return p, nil
	default:
		return geo.Point{}, fmt.Errorf("knnvt: expected MATCH arg as BLOB or string, got %T", v)
	}
}

// Next advances the cursor.
func (c *Cursor) Next() error {
	if c.pos < len(c.rows) {
		c.pos++
	}
	return nil
}

// Eof reports end-of-rows.
func (c *Cursor) Eof() bool { return c.pos >= len(c.rows) }

// Column returns the value of a column in the current row.
func (c *Cursor) Column(col int) (vtab.Value, error) {
	if c.pos < 0 || c.pos >= len(c.rows) {
		return nil, fmt.Errorf("knnvt: Column out of range (pos=%d,len=%d)", c.pos, len(c.rows))
	}
	r := c.rows[c.pos]
	switch col {
	case 0:
		return r.id, nil
	case 1:
		if r.distance == nil {
			return nil, nil
		}
		return *r.distance, nil
	}
	return nil, fmt.Errorf("knnvt: unsupported column %d", col)
}

// Rowid returns the hotel id of the current row.
func (c *Cursor) Rowid() (int64, error) {
	if c.pos < 0 || c.pos >= len(c.rows) {
		return 0, fmt.Errorf("knnvt: Rowid out of range (pos=%d,len=%d)", c.pos, len(c.rows))
	}
	return c.rows[c.pos].id, nil
}

// Close releases resources.
func (c *Cursor) Close() error { c.rows = nil; c.pos = 0; return nil }

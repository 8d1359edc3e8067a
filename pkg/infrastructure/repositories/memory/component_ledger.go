package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/vsinha/stockmrp/pkg/domain/entities"
	"github.com/vsinha/stockmrp/pkg/domain/repositories"
)

type componentRecord struct {
	mu        sync.Mutex
	component entities.Component
	deleted   bool
}

// ComponentLedger is an in-memory arena of component records addressed by id.
// Each record has its own lock so unrelated allocations never contend.
//
// Lock order: record locks are taken in ascending id order; the index lock is
// only ever taken after record locks (or alone) and never held while waiting
// on a record.
type ComponentLedger struct {
	mu      sync.RWMutex
	records map[entities.ComponentID]*componentRecord
	names   map[string]entities.ComponentID
	nextID  entities.ComponentID
	clock   entities.Clock
}

// NewComponentLedger creates an empty ledger
func NewComponentLedger(clock entities.Clock) *ComponentLedger {
	if clock == nil {
		clock = entities.SystemClock
	}
	return &ComponentLedger{
		records: make(map[entities.ComponentID]*componentRecord),
		names:   make(map[string]entities.ComponentID),
		clock:   clock,
	}
}

// Verify interface compliance
var _ repositories.ComponentLedger = (*ComponentLedger)(nil)

// Create stores a new component and assigns its id
func (l *ComponentLedger) Create(ctx context.Context, component *entities.Component) (*entities.Component, error) {
	if err := component.Validate(); err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, taken := l.names[component.Name]; taken {
		return nil, entities.NewValidationError("component", 0, "component name %q already exists", component.Name)
	}

	l.nextID++
	now := l.clock()
	stored := *component
	stored.ID = l.nextID
	stored.CreatedAt = now
	stored.UpdatedAt = now

	l.records[stored.ID] = &componentRecord{component: stored}
	l.names[stored.Name] = stored.ID

	out := stored
	return &out, nil
}

// Get returns a copy of one component
func (l *ComponentLedger) Get(ctx context.Context, id entities.ComponentID) (*entities.Component, error) {
	rec, err := l.lookup(id)
	if err != nil {
		return nil, err
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if rec.deleted {
		return nil, entities.NewNotFoundError("component", int64(id))
	}
	out := rec.component
	return &out, nil
}

// List returns every component ordered by id.
// All records are locked together so the listing is a single point in time.
func (l *ComponentLedger) List(ctx context.Context) ([]*entities.Component, error) {
	ids, recs := l.all()

	unlock := lockAll(recs)
	defer unlock()

	out := make([]*entities.Component, 0, len(ids))
	for _, rec := range recs {
		if rec.deleted {
			continue
		}
		c := rec.component
		out = append(out, &c)
	}
	return out, nil
}

// Snapshot returns a consistent copy of the named components
func (l *ComponentLedger) Snapshot(ctx context.Context, ids []entities.ComponentID) (map[entities.ComponentID]entities.Component, error) {
	recs, err := l.lookupSorted(ids)
	if err != nil {
		return nil, err
	}

	unlock := lockAll(recs)
	defer unlock()

	out := make(map[entities.ComponentID]entities.Component, len(recs))
	for _, rec := range recs {
		if rec.deleted {
			return nil, entities.NewNotFoundError("component", int64(rec.component.ID))
		}
		out[rec.component.ID] = rec.component
	}
	return out, nil
}

// Update applies fn to a copy of the component under its record lock
func (l *ComponentLedger) Update(ctx context.Context, id entities.ComponentID, fn func(*entities.Component) error) (*entities.Component, error) {
	rec, err := l.lookup(id)
	if err != nil {
		return nil, err
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if rec.deleted {
		return nil, entities.NewNotFoundError("component", int64(id))
	}

	working := rec.component
	if err := fn(&working); err != nil {
		return nil, err
	}
	working.ID = id
	if err := working.Validate(); err != nil {
		return nil, err
	}

	if working.Name != rec.component.Name {
		l.mu.Lock()
		if owner, taken := l.names[working.Name]; taken && owner != id {
			l.mu.Unlock()
			return nil, entities.NewValidationError("component", int64(id), "component name %q already exists", working.Name)
		}
		delete(l.names, rec.component.Name)
		l.names[working.Name] = id
		l.mu.Unlock()
	}

	working.UpdatedAt = l.clock()
	rec.component = working
	out := working
	return &out, nil
}

// Delete removes a component with nothing in progress or shipped
func (l *ComponentLedger) Delete(ctx context.Context, id entities.ComponentID) error {
	rec, err := l.lookup(id)
	if err != nil {
		return err
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if rec.deleted {
		return entities.NewNotFoundError("component", int64(id))
	}
	if rec.component.InProgress > 0 || rec.component.Shipped > 0 {
		return entities.NewConflictError("component", int64(id),
			"component has %d units in progress and %d shipped", rec.component.InProgress, rec.component.Shipped)
	}

	rec.deleted = true
	l.mu.Lock()
	delete(l.records, id)
	delete(l.names, rec.component.Name)
	l.mu.Unlock()
	return nil
}

// Transact runs fn with exclusive access to the named components
func (l *ComponentLedger) Transact(ctx context.Context, ids []entities.ComponentID, fn func(tx repositories.LedgerTx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	recs, err := l.lookupSorted(ids)
	if err != nil {
		return err
	}

	unlock := lockAll(recs)
	defer unlock()

	tx := &ledgerTx{
		records: make(map[entities.ComponentID]*componentRecord, len(recs)),
		before:  make(map[entities.ComponentID]entities.Component, len(recs)),
	}
	for _, rec := range recs {
		if rec.deleted {
			return entities.NewNotFoundError("component", int64(rec.component.ID))
		}
		tx.records[rec.component.ID] = rec
		tx.before[rec.component.ID] = rec.component
	}

	if err := fn(tx); err != nil {
		tx.rollback()
		return err
	}

	now := l.clock()
	for id := range tx.touched {
		tx.records[id].component.UpdatedAt = now
	}
	return nil
}

// Restore replaces the ledger contents
func (l *ComponentLedger) Restore(components []entities.Component) error {
	records := make(map[entities.ComponentID]*componentRecord, len(components))
	names := make(map[string]entities.ComponentID, len(components))
	var maxID entities.ComponentID

	for _, c := range components {
		if err := c.Validate(); err != nil {
			return err
		}
		if _, dup := records[c.ID]; dup || c.ID <= 0 {
			return entities.NewIntegrityError("component", int64(c.ID), "invalid or duplicate component id in snapshot")
		}
		if _, dup := names[c.Name]; dup {
			return entities.NewIntegrityError("component", int64(c.ID), "duplicate component name %q in snapshot", c.Name)
		}
		records[c.ID] = &componentRecord{component: c}
		names[c.Name] = c.ID
		maxID = max(maxID, c.ID)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = records
	l.names = names
	l.nextID = maxID
	return nil
}

// Len reports the number of live components
func (l *ComponentLedger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.records)
}

func (l *ComponentLedger) lookup(id entities.ComponentID) (*componentRecord, error) {
	l.mu.RLock()
	rec, ok := l.records[id]
	l.mu.RUnlock()
	if !ok {
		return nil, entities.NewNotFoundError("component", int64(id))
	}
	return rec, nil
}

// lookupSorted resolves ids to records in ascending id order, dropping duplicates
func (l *ComponentLedger) lookupSorted(ids []entities.ComponentID) ([]*componentRecord, error) {
	sorted := slices.Clone(ids)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)

	l.mu.RLock()
	defer l.mu.RUnlock()

	recs := make([]*componentRecord, 0, len(sorted))
	for _, id := range sorted {
		rec, ok := l.records[id]
		if !ok {
			return nil, entities.NewNotFoundError("component", int64(id))
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

func (l *ComponentLedger) all() ([]entities.ComponentID, []*componentRecord) {
	l.mu.RLock()
	ids := make([]entities.ComponentID, 0, len(l.records))
	for id := range l.records {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	recs := make([]*componentRecord, 0, len(ids))
	for _, id := range ids {
		recs = append(recs, l.records[id])
	}
	l.mu.RUnlock()
	return ids, recs
}

func lockAll(recs []*componentRecord) func() {
	for _, rec := range recs {
		rec.mu.Lock()
	}
	return func() {
		for i := len(recs) - 1; i >= 0; i-- {
			recs[i].mu.Unlock()
		}
	}
}

type ledgerTx struct {
	records map[entities.ComponentID]*componentRecord
	before  map[entities.ComponentID]entities.Component
	touched map[entities.ComponentID]bool
}

func (tx *ledgerTx) record(id entities.ComponentID) (*componentRecord, error) {
	rec, ok := tx.records[id]
	if !ok {
		return nil, entities.NewIntegrityError("component", int64(id), "component is not part of this transaction")
	}
	return rec, nil
}

func (tx *ledgerTx) touch(id entities.ComponentID) {
	if tx.touched == nil {
		tx.touched = make(map[entities.ComponentID]bool)
	}
	tx.touched[id] = true
}

func (tx *ledgerTx) Get(id entities.ComponentID) (entities.Component, error) {
	rec, err := tx.record(id)
	if err != nil {
		return entities.Component{}, err
	}
	return rec.component, nil
}

func (tx *ledgerTx) Reserve(id entities.ComponentID, qty entities.Quantity) error {
	rec, err := tx.record(id)
	if err != nil {
		return err
	}
	if err := rec.component.Reserve(qty); err != nil {
		return err
	}
	tx.touch(id)
	return nil
}

func (tx *ledgerTx) Release(id entities.ComponentID, qty entities.Quantity) error {
	rec, err := tx.record(id)
	if err != nil {
		return err
	}
	if err := rec.component.Release(qty); err != nil {
		return err
	}
	tx.touch(id)
	return nil
}

func (tx *ledgerTx) rollback() {
	for id := range tx.touched {
		tx.records[id].component = tx.before[id]
	}
}

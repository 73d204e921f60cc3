// Package ledger holds the editable state for one day of the labor-cost
// board: sales, food-cost lines and the full-time headcount.
//
// The backend owns every derived number. The ledger therefore never computes
// wages or ratios; it tracks local edits, pushes them with one save, and
// immediately refetches so the view always shows server-derived values. The
// one exception is the live food-cost total, recomputed locally while
// editing so the operator sees the sum move line by line.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"flboard/internal/api"
	"flboard/internal/core"
)

// Backend is the slice of the api surface the ledger needs.
type Backend interface {
	api.DailyReader
	api.FoodCostStore
	api.SalesWriter
	api.FixedCostsWriter
}

// State describes what the ledger is doing, for rendering.
type State string

const (
	StateIdle    State = "idle"
	StateLoading State = "loading"
	StateReady   State = "ready"
	StateSaving  State = "saving"
	StateError   State = "error"
)

var (
	// ErrNotLoaded is returned by edit and save operations before the first
	// successful load.
	ErrNotLoaded = errors.New("no day loaded")

	// ErrStale marks a load whose response was discarded because a newer
	// load started while it was in flight.
	ErrStale = errors.New("superseded by a newer load")

	ErrIndexOutOfRange = errors.New("food-cost line index out of range")
)

type DailyLedger struct {
	backend Backend

	mu     sync.Mutex
	state  State
	gen    uint64 // bumped by every Open; in-flight responses check it
	date   core.Date
	hasDay bool // a load of date succeeded; edits and saves require it
	dirty  bool

	// Server-derived snapshot, replaced wholesale on every load.
	summary core.DailySummary

	// Editable fields, seeded from the snapshot on load.
	salesAmount   *int64
	salesNote     string
	employeeCount int
	items         []core.FoodCostItem
}

func New(backend Backend) *DailyLedger {
	return &DailyLedger{backend: backend, state: StateIdle}
}

// Open loads the given date, replacing any current day. The summary and the
// food-cost lines are fetched concurrently. If another Open starts before
// this one's responses arrive, the late responses are dropped and ErrStale
// is returned; local edits to the abandoned day are lost by design, since
// switching days is an explicit user action.
func (l *DailyLedger) Open(ctx context.Context, date core.Date) error {
	if err := date.Validate(); err != nil {
		return err
	}

	l.mu.Lock()
	l.gen++
	gen := l.gen
	l.state = StateLoading
	l.date = date
	l.mu.Unlock()

	summary, items, err := l.fetch(ctx, date)

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.gen != gen {
		return ErrStale
	}
	if err != nil {
		// The requested day could not be loaded, so there is no day: the
		// previous day's fields must not survive under the new date, or an
		// edit plus save would copy them onto it. Edits and saves stay
		// blocked until a load of this date succeeds.
		l.clear()
		l.state = StateError
		return fmt.Errorf("load %s: %w", date, err)
	}
	l.apply(summary, items)
	return nil
}

// clear resets the ledger to an absent state for the current date. Callers
// hold the lock.
func (l *DailyLedger) clear() {
	l.summary = core.DailySummary{}
	l.items = nil
	l.salesAmount = nil
	l.salesNote = ""
	l.employeeCount = 0
	l.hasDay = false
	l.dirty = false
}

// Refresh reloads the current day, discarding local edits.
func (l *DailyLedger) Refresh(ctx context.Context) error {
	l.mu.Lock()
	if l.state == StateIdle {
		l.mu.Unlock()
		return ErrNotLoaded
	}
	date := l.date
	l.mu.Unlock()
	return l.Open(ctx, date)
}

func (l *DailyLedger) fetch(ctx context.Context, date core.Date) (core.DailySummary, []core.FoodCostItem, error) {
	var (
		summary core.DailySummary
		items   []core.FoodCostItem
	)
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		summary, err = l.backend.DailySummary(ctx, date)
		return err
	})
	g.Go(func() error {
		var err error
		items, err = l.backend.FoodCosts(ctx, date)
		return err
	})
	if err := g.Wait(); err != nil {
		return core.DailySummary{}, nil, err
	}
	return summary, items, nil
}

// apply installs a fresh server snapshot and reseeds the editable fields.
// Callers hold the lock.
func (l *DailyLedger) apply(summary core.DailySummary, items []core.FoodCostItem) {
	l.summary = summary
	l.items = items
	l.salesAmount = summary.Sales
	l.salesNote = summary.SalesNote
	if summary.FullTimeEmployeeCount != nil {
		l.employeeCount = *summary.FullTimeEmployeeCount
	} else {
		// Days never saved before default to one full-time employee.
		l.employeeCount = 1
	}
	l.hasDay = true
	l.dirty = false
	l.state = StateReady
}

// Save pushes the three writable resources concurrently, then refetches the
// day so the view picks up server-recomputed wages and ratios. All three
// writes must succeed before the reload starts; on any failure the ledger
// stays dirty and the caller re-triggers the save explicitly. There are no
// retries.
func (l *DailyLedger) Save(ctx context.Context) error {
	l.mu.Lock()
	if !l.hasDay {
		l.mu.Unlock()
		return ErrNotLoaded
	}
	gen := l.gen
	date := l.date
	amount := copyInt64(l.salesAmount)
	note := l.salesNote
	count := l.employeeCount
	items := append([]core.FoodCostItem(nil), l.items...)
	l.state = StateSaving
	l.mu.Unlock()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return l.backend.PutSales(gctx, date, amount, note) })
	g.Go(func() error { return l.backend.ReplaceFoodCosts(gctx, date, items) })
	g.Go(func() error { return l.backend.PutFixedCosts(gctx, date, count) })
	if err := g.Wait(); err != nil {
		l.mu.Lock()
		if l.gen == gen {
			l.state = StateError
		}
		l.mu.Unlock()
		return fmt.Errorf("save %s: %w", date, err)
	}

	// The reload runs strictly after every write has landed; a concurrent
	// refetch could otherwise observe a half-saved day.
	summary, fetched, err := l.fetch(ctx, date)

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.gen != gen {
		return ErrStale
	}
	if err != nil {
		// The writes landed but the view could not be refreshed. Keeping
		// the ledger dirty makes the operator save again, which is safe:
		// every write is a full replace.
		l.state = StateError
		return fmt.Errorf("reload after save %s: %w", date, err)
	}
	l.apply(summary, fetched)
	return nil
}

// edits

// SetSales normalizes raw text into the sales amount. Unparseable input
// clears the amount rather than erroring.
func (l *DailyLedger) SetSales(raw string) error {
	return l.edit(func() { l.salesAmount = core.NormalizeAmount(raw) })
}

func (l *DailyLedger) SetSalesNote(note string) error {
	return l.edit(func() { l.salesNote = note })
}

func (l *DailyLedger) SetEmployeeCount(n int) error {
	if n < 0 {
		return core.ErrNegativeCount
	}
	return l.edit(func() { l.employeeCount = n })
}

// AddItem appends an empty food-cost line of the given category.
func (l *DailyLedger) AddItem(category core.FoodCategory) error {
	if !category.IsValid() {
		return fmt.Errorf("%w: %q", core.ErrInvalidCategory, category)
	}
	return l.edit(func() {
		l.items = append(l.items, core.FoodCostItem{Category: category})
	})
}

// RemoveItem deletes the line at index i; following lines shift down.
func (l *DailyLedger) RemoveItem(i int) error {
	return l.editLine(i, func() {
		l.items = append(l.items[:i], l.items[i+1:]...)
	})
}

func (l *DailyLedger) SetItemCategory(i int, category core.FoodCategory) error {
	if !category.IsValid() {
		return fmt.Errorf("%w: %q", core.ErrInvalidCategory, category)
	}
	return l.editLine(i, func() { l.items[i].Category = category })
}

// SetItemAmount normalizes raw text into the line amount. For line amounts
// an empty or unparseable field means zero yen, not unset.
func (l *DailyLedger) SetItemAmount(i int, raw string) error {
	return l.editLine(i, func() { l.items[i].AmountYen = core.NormalizeAmountOrZero(raw) })
}

func (l *DailyLedger) SetItemNote(i int, note string) error {
	return l.editLine(i, func() { l.items[i].Note = note })
}

// edit runs fn under the lock and marks the day dirty. Every mutation goes
// through here so the dirty flag cannot be missed.
func (l *DailyLedger) edit(fn func()) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.hasDay {
		return ErrNotLoaded
	}
	fn()
	l.dirty = true
	return nil
}

func (l *DailyLedger) editLine(i int, fn func()) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.hasDay {
		return ErrNotLoaded
	}
	if i < 0 || i >= len(l.items) {
		return fmt.Errorf("%w: %d", ErrIndexOutOfRange, i)
	}
	fn()
	l.dirty = true
	return nil
}

// views

func (l *DailyLedger) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

func (l *DailyLedger) Date() core.Date {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.date
}

// Dirty reports whether local edits have not been persisted yet.
func (l *DailyLedger) Dirty() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.dirty
}

// Summary returns the last server snapshot. Its wage and ratio fields are
// only current as of the last load; after local edits they lag until the
// next save reloads them.
func (l *DailyLedger) Summary() core.DailySummary {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.summary
}

// Sales returns the editable sales amount and note.
func (l *DailyLedger) Sales() (*int64, string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return copyInt64(l.salesAmount), l.salesNote
}

func (l *DailyLedger) EmployeeCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.employeeCount
}

// Items returns a copy of the editable food-cost lines.
func (l *DailyLedger) Items() []core.FoodCostItem {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]core.FoodCostItem(nil), l.items...)
}

// LiveFoodTotal sums the current lines, including unsaved edits.
func (l *DailyLedger) LiveFoodTotal() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return core.TotalFoodCosts(l.items)
}

func copyInt64(v *int64) *int64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

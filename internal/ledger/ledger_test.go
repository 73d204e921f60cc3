package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"flboard/internal/api/memory"
	"flboard/internal/core"
)

func int64p(v int64) *int64 { return &v }

func newLoaded(t *testing.T, date core.Date) (*DailyLedger, *memory.Store) {
	t.Helper()
	store := memory.New()
	l := New(store)
	if err := l.Open(context.Background(), date); err != nil {
		t.Fatalf("Open: %v", err)
	}
	return l, store
}

func TestOpenDefaultsEmployeeCount(t *testing.T) {
	l, _ := newLoaded(t, core.NewDate(2025, 3, 1))
	// A never-saved day defaults to one full-time employee.
	if got := l.EmployeeCount(); got != 1 {
		t.Errorf("employee count = %d, want 1", got)
	}
	if l.Dirty() {
		t.Error("fresh load must not be dirty")
	}
	if l.State() != StateReady {
		t.Errorf("state = %s", l.State())
	}
}

func TestEditsBeforeLoadRejected(t *testing.T) {
	l := New(memory.New())
	if err := l.SetSales("100"); !errors.Is(err, ErrNotLoaded) {
		t.Fatalf("expected ErrNotLoaded, got %v", err)
	}
	if err := l.Save(context.Background()); !errors.Is(err, ErrNotLoaded) {
		t.Fatalf("expected ErrNotLoaded, got %v", err)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	date := core.NewDate(2025, 3, 1)
	l, store := newLoaded(t, date)
	store.SeedWageRows(date, []core.WageRow{{UserID: 1, UserName: "Sato", DailyWage: 8000}})
	ctx := context.Background()

	// Sales typed with full-width digits, the way a Japanese IME leaves them.
	if err := l.SetSales("１５０，０００"); err != nil {
		t.Fatal(err)
	}
	if err := l.SetSalesNote("festival day"); err != nil {
		t.Fatal(err)
	}
	if err := l.SetEmployeeCount(2); err != nil {
		t.Fatal(err)
	}
	if err := l.AddItem(core.CategoryMeat); err != nil {
		t.Fatal(err)
	}
	if err := l.SetItemAmount(0, "20000"); err != nil {
		t.Fatal(err)
	}
	if err := l.SetItemNote(0, "beef"); err != nil {
		t.Fatal(err)
	}
	if !l.Dirty() {
		t.Fatal("edits must mark the day dirty")
	}
	if got := l.LiveFoodTotal(); got != 20000 {
		t.Fatalf("live food total = %d", got)
	}

	if err := l.Save(ctx); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if l.Dirty() {
		t.Error("save plus reload must clear dirty")
	}

	// The reload must carry server-derived values.
	sum := l.Summary()
	if sum.Sales == nil || *sum.Sales != 150000 {
		t.Errorf("sales = %v", sum.Sales)
	}
	if sum.FixedWage != 2*memory.FixedDailyWagePerEmployee {
		t.Errorf("fixed wage = %d", sum.FixedWage)
	}
	if sum.TotalWage != 8000+2*memory.FixedDailyWagePerEmployee {
		t.Errorf("total wage = %d", sum.TotalWage)
	}
	if sum.FoodCostsTotal != 20000 {
		t.Errorf("food costs total = %d", sum.FoodCostsTotal)
	}
	if sum.FLRatio == nil {
		t.Error("fl ratio must be derived once sales exist")
	}
	items := l.Items()
	if len(items) != 1 || items[0].ID == 0 {
		t.Errorf("reload must pick up the server-assigned ID: %+v", items)
	}
}

func TestSetSalesClearsOnGarbage(t *testing.T) {
	l, _ := newLoaded(t, core.NewDate(2025, 3, 1))
	_ = l.SetSales("100")
	_ = l.SetSales("abc")
	if amount, _ := l.Sales(); amount != nil {
		t.Errorf("garbage input must clear sales, got %v", *amount)
	}
}

func TestRemoveItemReindexes(t *testing.T) {
	l, _ := newLoaded(t, core.NewDate(2025, 3, 1))
	for i, cat := range []core.FoodCategory{core.CategoryMeat, core.CategoryDrink, core.CategoryOther} {
		if err := l.AddItem(cat); err != nil {
			t.Fatal(err)
		}
		if err := l.SetItemAmount(i, "100"); err != nil {
			t.Fatal(err)
		}
	}
	if err := l.RemoveItem(1); err != nil {
		t.Fatal(err)
	}
	items := l.Items()
	if len(items) != 2 || items[0].Category != core.CategoryMeat || items[1].Category != core.CategoryOther {
		t.Fatalf("items after removal = %+v", items)
	}
	// Index 1 now addresses the line that shifted down; removing it again
	// must leave only the original first line.
	if err := l.RemoveItem(1); err != nil {
		t.Fatal(err)
	}
	items = l.Items()
	if len(items) != 1 || items[0].Category != core.CategoryMeat {
		t.Fatalf("items after second removal = %+v", items)
	}
	if err := l.RemoveItem(5); !errors.Is(err, ErrIndexOutOfRange) {
		t.Fatalf("expected ErrIndexOutOfRange, got %v", err)
	}
}

// failOnce fails a chosen write exactly once, then behaves normally.
type failOnce struct {
	*memory.Store
	failFixedCosts bool
}

func (f *failOnce) PutFixedCosts(ctx context.Context, date core.Date, count int) error {
	if f.failFixedCosts {
		f.failFixedCosts = false
		return errors.New("backend unavailable")
	}
	return f.Store.PutFixedCosts(ctx, date, count)
}

func TestPartialSaveFailureKeepsDirty(t *testing.T) {
	store := &failOnce{Store: memory.New(), failFixedCosts: true}
	l := New(store)
	ctx := context.Background()
	if err := l.Open(ctx, core.NewDate(2025, 3, 1)); err != nil {
		t.Fatal(err)
	}
	_ = l.SetSales("90000")
	_ = l.SetEmployeeCount(3)

	if err := l.Save(ctx); err == nil {
		t.Fatal("expected save failure")
	}
	if !l.Dirty() {
		t.Error("failed save must keep the day dirty")
	}
	if l.State() != StateError {
		t.Errorf("state = %s", l.State())
	}

	// The operator retries explicitly; the full replace makes this safe
	// even though some of the first attempt's writes landed.
	if err := l.Save(ctx); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if l.Dirty() {
		t.Error("successful retry must clear dirty")
	}
	sum := l.Summary()
	if sum.FullTimeEmployeeCount == nil || *sum.FullTimeEmployeeCount != 3 {
		t.Errorf("employee count = %v", sum.FullTimeEmployeeCount)
	}
}

// failDay fails DailySummary while fail is set, then behaves normally.
type failDay struct {
	*memory.Store
	fail bool
}

func (f *failDay) DailySummary(ctx context.Context, date core.Date) (core.DailySummary, error) {
	if f.fail {
		return core.DailySummary{}, errors.New("backend unavailable")
	}
	return f.Store.DailySummary(ctx, date)
}

func TestFailedOpenClearsPreviousDay(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	dayA := core.NewDate(2025, 3, 1)
	dayB := core.NewDate(2025, 3, 2)
	_ = store.PutSales(ctx, dayA, int64p(111), "good day")
	_ = store.ReplaceFoodCosts(ctx, dayA, []core.FoodCostItem{{Category: core.CategoryMeat, AmountYen: 5000}})

	backend := &failDay{Store: store}
	l := New(backend)
	if err := l.Open(ctx, dayA); err != nil {
		t.Fatal(err)
	}

	backend.fail = true
	if err := l.Open(ctx, dayB); err == nil {
		t.Fatal("expected load failure")
	}
	if l.State() != StateError {
		t.Errorf("state = %s", l.State())
	}

	// Day A's fields must not survive under day B's date.
	if amount, note := l.Sales(); amount != nil || note != "" {
		t.Errorf("editable sales after failed open: %v %q", amount, note)
	}
	if items := l.Items(); len(items) != 0 {
		t.Errorf("items after failed open: %+v", items)
	}
	if sum := l.Summary(); sum.Sales != nil {
		t.Errorf("summary after failed open: %+v", sum)
	}

	// Without a loaded day there is nothing to edit or save.
	if err := l.SetSalesNote("innocuous"); !errors.Is(err, ErrNotLoaded) {
		t.Fatalf("expected ErrNotLoaded, got %v", err)
	}
	if err := l.Save(ctx); !errors.Is(err, ErrNotLoaded) {
		t.Fatalf("expected ErrNotLoaded, got %v", err)
	}
	if sum, _ := store.DailySummary(ctx, dayB); sum.Sales != nil {
		t.Errorf("day B must stay untouched, got sales %v", *sum.Sales)
	}

	// Once the backend recovers, a refresh of the same date loads normally.
	backend.fail = false
	if err := l.Refresh(ctx); err != nil {
		t.Fatal(err)
	}
	if err := l.SetSales("200"); err != nil {
		t.Fatalf("edit after recovery: %v", err)
	}
}

// gated delays DailySummary responses until released, to race two loads.
type gated struct {
	*memory.Store
	gate chan struct{}
}

func (g *gated) DailySummary(ctx context.Context, date core.Date) (core.DailySummary, error) {
	<-g.gate
	return g.Store.DailySummary(ctx, date)
}

func TestStaleLoadDiscarded(t *testing.T) {
	store := memory.New()
	slow := &gated{Store: store, gate: make(chan struct{})}
	l := New(slow)
	ctx := context.Background()

	first := core.NewDate(2025, 3, 1)
	second := core.NewDate(2025, 3, 2)
	_ = store.PutSales(ctx, first, int64p(111), "")
	_ = store.PutSales(ctx, second, int64p(222), "")

	firstDone := make(chan error, 1)
	go func() { firstDone <- l.Open(ctx, first) }()

	// Let the first load get in flight, then supersede it.
	time.Sleep(10 * time.Millisecond)
	secondDone := make(chan error, 1)
	go func() { secondDone <- l.Open(ctx, second) }()
	time.Sleep(10 * time.Millisecond)
	close(slow.gate)

	if err := <-firstDone; !errors.Is(err, ErrStale) {
		t.Fatalf("first load: expected ErrStale, got %v", err)
	}
	if err := <-secondDone; err != nil {
		t.Fatalf("second load: %v", err)
	}
	if got := l.Date(); got.String() != second.String() {
		t.Errorf("date = %s, want %s", got, second)
	}
	if amount, _ := l.Sales(); amount == nil || *amount != 222 {
		t.Errorf("sales = %v, want the second day's", amount)
	}
}

func TestRefreshDiscardsEdits(t *testing.T) {
	l, _ := newLoaded(t, core.NewDate(2025, 3, 1))
	_ = l.SetSales("5000")
	if !l.Dirty() {
		t.Fatal("expected dirty")
	}
	if err := l.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}
	if l.Dirty() {
		t.Error("refresh must clear dirty")
	}
	if amount, _ := l.Sales(); amount != nil {
		t.Errorf("unsaved sales must be gone, got %v", *amount)
	}
}

// Package monthly holds the read-only month view: one row per calendar day
// plus server-derived totals.
package monthly

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"flboard/internal/api"
	"flboard/internal/core"
)

var (
	ErrNotLoaded = errors.New("no month loaded")

	// ErrStale marks a load superseded by a newer one.
	ErrStale = errors.New("superseded by a newer load")
)

// Aggregator fetches and anchors one month of data. Anchoring means the view
// always carries exactly DaysInMonth rows, in calendar order, with days the
// backend has no data for rendered empty rather than omitted. The backend
// may already send the full calendar; the join here makes the client
// independent of that.
type Aggregator struct {
	backend api.MonthlyReader

	mu     sync.Mutex
	gen    uint64
	loaded bool
	report core.MonthlyReport
}

func New(backend api.MonthlyReader) *Aggregator {
	return &Aggregator{backend: backend}
}

// Load fetches the given month. Late responses from superseded loads are
// dropped and reported as ErrStale.
func (a *Aggregator) Load(ctx context.Context, year, month int) error {
	if !core.ValidMonth(month) {
		return fmt.Errorf("%w: %d", core.ErrInvalidMonth, month)
	}

	a.mu.Lock()
	a.gen++
	gen := a.gen
	a.mu.Unlock()

	report, err := a.backend.MonthlySummary(ctx, year, month)

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.gen != gen {
		return ErrStale
	}
	if err != nil {
		return fmt.Errorf("load %d-%02d: %w", year, month, err)
	}
	report.Days = anchorToCalendar(year, month, report.Days)
	a.report = report
	a.loaded = true
	return nil
}

// LoadPrev loads the month before the current one, wrapping January into
// December of the previous year.
func (a *Aggregator) LoadPrev(ctx context.Context) error {
	year, month, err := a.current()
	if err != nil {
		return err
	}
	month--
	if month < 1 {
		month = 12
		year--
	}
	return a.Load(ctx, year, month)
}

// LoadNext loads the month after the current one, wrapping December into
// January of the next year.
func (a *Aggregator) LoadNext(ctx context.Context) error {
	year, month, err := a.current()
	if err != nil {
		return err
	}
	month++
	if month > 12 {
		month = 1
		year++
	}
	return a.Load(ctx, year, month)
}

// LoadPrevYear loads the same month one year earlier.
func (a *Aggregator) LoadPrevYear(ctx context.Context) error {
	year, month, err := a.current()
	if err != nil {
		return err
	}
	return a.Load(ctx, year-1, month)
}

// LoadNextYear loads the same month one year later.
func (a *Aggregator) LoadNextYear(ctx context.Context) error {
	year, month, err := a.current()
	if err != nil {
		return err
	}
	return a.Load(ctx, year+1, month)
}

func (a *Aggregator) current() (year, month int, err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.loaded {
		return 0, 0, ErrNotLoaded
	}
	return a.report.Year, a.report.Month, nil
}

// Report returns the last loaded month.
func (a *Aggregator) Report() (core.MonthlyReport, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.loaded {
		return core.MonthlyReport{}, ErrNotLoaded
	}
	return a.report, nil
}

// anchorToCalendar joins the backend's rows onto the full day list of the
// month. Rows for other months are dropped; missing days become empty rows.
func anchorToCalendar(year, month int, days []core.MonthlyDay) []core.MonthlyDay {
	byDay := make(map[int]core.MonthlyDay, len(days))
	for _, d := range days {
		if d.Date.Year() == year && d.Date.Month() == month {
			byDay[d.Date.Day()] = d
		}
	}
	out := make([]core.MonthlyDay, 0, core.DaysInMonth(year, month))
	for day := 1; day <= core.DaysInMonth(year, month); day++ {
		if row, ok := byDay[day]; ok {
			out = append(out, row)
			continue
		}
		out = append(out, core.MonthlyDay{Date: core.NewDate(year, month, day)})
	}
	return out
}

package core

import (
	"errors"
	"fmt"
	"time"
)

const (
	CategoryMeat       FoodCategory = "meat"
	CategoryIngredient FoodCategory = "ingredient"
	CategoryDrink      FoodCategory = "drink"
	CategoryOther      FoodCategory = "other"
)

const (
	RoleEmployee Role = "employee"
	RoleAdmin    Role = "admin"
)

type (
	FoodCategory string

	Role string

	Date struct {
		time.Time
	}

	// FoodCostItem is one editable food-cost line. ID is zero until the
	// backend has persisted the row; unsaved rows are created server-side
	// on the next bulk replace.
	FoodCostItem struct {
		ID        int64
		Category  FoodCategory
		AmountYen int64
		Note      string
	}

	// WageRow is one employee's server-computed wage breakdown for a day.
	WageRow struct {
		UserID         int64
		UserName       string
		BaseHourlyWage int64
		WorkMinutes    int
		BreakMinutes   int
		NightMinutes   int
		DailyWage      int64
	}

	// DailySummary is the server-computed aggregate for one calendar day.
	// The client renders it as-is; ratios are never recomputed locally.
	DailySummary struct {
		Date                  Date
		Sales                 *int64
		SalesNote             string
		TotalWage             int64
		PartTimeWage          int64
		FixedWage             int64
		WageRows              []WageRow
		FoodCostsTotal        int64
		FullTimeEmployeeCount *int
		LRatio                *float64
		FRatio                *float64
		FLRatio               *float64
	}

	// MonthlyDay is one row of a monthly report. Nullable fields stay nil
	// for days the backend has no data for; such days are still rendered.
	MonthlyDay struct {
		Date              Date
		Sales             *int64
		Wage              int64
		FoodCosts         *int64
		LRatio            *float64
		FRatio            *float64
		FLRatio           *float64
		CumulativeFLRatio *float64
	}

	// MonthlyReport holds one calendar month of per-day rows plus totals.
	// Totals are sums of the per-day non-ratio fields; monthly ratios are
	// recomputed server-side from those totals, not averaged.
	MonthlyReport struct {
		Year      int
		Month     int // 1-12
		Days      []MonthlyDay
		Sales     *int64
		Wage      int64
		FoodCosts *int64
		LRatio    *float64
		FRatio    *float64
		FLRatio   *float64
	}

	User struct {
		ID             int64
		Email          string
		Name           string
		Role           Role
		BaseHourlyWage int64
		CreatedAt      time.Time
	}

	// AdminLog is one entry of the backend's admin action audit trail.
	AdminLog struct {
		ID            int64
		AdminUserName string
		Action        string
		Details       string
		CreatedAt     time.Time
	}

	AdminLogPage struct {
		Logs       []AdminLog
		Page       int
		PerPage    int
		TotalCount int
	}
)

var (
	ErrInvalidDate     = errors.New("invalid date")
	ErrInvalidMonth    = errors.New("invalid month")
	ErrInvalidCategory = errors.New("invalid food category")
	ErrNegativeAmount  = errors.New("negative amount")
	ErrNegativeCount   = errors.New("negative employee count")
)

// NewDate creates a Date from year, month, day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string, the wire format for all dates.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Date{Time: t}, nil
}

// Today returns the current calendar date.
func Today() Date {
	now := time.Now()
	return NewDate(now.Year(), int(now.Month()), now.Day())
}

// String returns the wire format YYYY-MM-DD.
func (d Date) String() string {
	return d.Format("2006-01-02")
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// AddDays returns the date shifted by n calendar days.
func (d Date) AddDays(n int) Date {
	return Date{Time: d.AddDate(0, 0, n)}
}

// Day returns the day of the month.
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month as 1-12.
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year.
func (d Date) Year() int {
	return d.Time.Year()
}

// DaysInMonth returns the number of calendar days in the given month.
func DaysInMonth(year, month int) int {
	// Day zero of the next month is the last day of this one.
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// ValidMonth reports whether month is in 1-12.
func ValidMonth(month int) bool {
	return month >= 1 && month <= 12
}

// ParseRole maps a wire role to the explicit sum type. Older accounts may
// lack the field entirely; absent or unknown values default to employee so
// the defaulting rule lives at this boundary and nowhere else.
func ParseRole(s string) Role {
	if s == string(RoleAdmin) {
		return RoleAdmin
	}
	return RoleEmployee
}

func (r Role) IsAdmin() bool {
	return r == RoleAdmin
}

func (c FoodCategory) IsValid() bool {
	switch c {
	case CategoryMeat, CategoryIngredient, CategoryDrink, CategoryOther:
		return true
	default:
		return false
	}
}

func (it FoodCostItem) Validate() error {
	if !it.Category.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidCategory, it.Category)
	}
	if it.AmountYen < 0 {
		return ErrNegativeAmount
	}
	return nil
}

// TotalFoodCosts sums the line amounts. This is the one aggregate the client
// computes itself, shown live while editing; after a successful save and
// reload it must match the server's FoodCostsTotal.
func TotalFoodCosts(items []FoodCostItem) int64 {
	var total int64
	for _, it := range items {
		total += it.AmountYen
	}
	return total
}

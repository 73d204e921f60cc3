// Package memory implements the api ports in process, with the same derived
// values a real backend would compute. It backs tests and the offline demo
// mode, so the aggregation rules here mirror the server contract: ratios are
// nil whenever sales are absent or zero, and the fixed daily wage is the
// full-time headcount times a flat day rate.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"flboard/internal/api"
	"flboard/internal/core"
)

// FixedDailyWagePerEmployee is the flat cost booked per full-time employee
// per day, in yen.
const FixedDailyWagePerEmployee int64 = 10800

type (
	dayRecord struct {
		sales         *int64
		salesNote     string
		employeeCount *int
		foodCosts     []core.FoodCostItem
	}

	account struct {
		user     core.User
		password string
		pending  bool
	}

	Store struct {
		mu       sync.Mutex
		days     map[string]*dayRecord // keyed by YYYY-MM-DD
		wageRows map[string][]core.WageRow
		accounts map[int64]*account
		logs     []core.AdminLog
		current  *core.User
		nextItem int64
		nextUser int64
		nextLog  int64
	}
)

var _ api.Backend = (*Store)(nil)

func New() *Store {
	return &Store{
		days:     map[string]*dayRecord{},
		wageRows: map[string][]core.WageRow{},
		accounts: map[int64]*account{},
		nextItem: 1,
		nextUser: 1,
		nextLog:  1,
	}
}

// SeedUser registers an account and returns its ID. Pending users have no
// role or wage yet; they appear only in PendingUsers until approved.
func (s *Store) SeedUser(email, password, name string, role core.Role, hourlyWage int64, pending bool) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextUser
	s.nextUser++
	s.accounts[id] = &account{
		user: core.User{
			ID:             id,
			Email:          email,
			Name:           name,
			Role:           role,
			BaseHourlyWage: hourlyWage,
			CreatedAt:      time.Now(),
		},
		password: password,
		pending:  pending,
	}
	return id
}

// SeedWageRows installs precomputed wage rows for a date, standing in for
// the attendance data a real backend derives them from.
func (s *Store) SeedWageRows(date core.Date, rows []core.WageRow) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.wageRows[date.String()] = append([]core.WageRow(nil), rows...)
}

func (s *Store) Login(_ context.Context, email, password string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, acc := range s.accounts {
		if acc.user.Email == email && acc.password == password && !acc.pending {
			u := acc.user
			s.current = &u
			return fmt.Sprintf("mem:%d", u.ID), nil
		}
	}
	return "", fmt.Errorf("login failed: %w", api.ErrUnauthorized)
}

func (s *Store) WhoAmI(_ context.Context) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return core.User{}, api.ErrUnauthorized
	}
	// The role is re-read from the roster, not from the login snapshot, so
	// a demotion takes effect on the next check.
	if acc, ok := s.accounts[s.current.ID]; ok {
		return acc.user, nil
	}
	return core.User{}, api.ErrUnauthorized
}

func (s *Store) DailySummary(_ context.Context, date core.Date) (core.DailySummary, error) {
	if err := date.Validate(); err != nil {
		return core.DailySummary{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := s.days[date.String()]
	if rec == nil {
		rec = &dayRecord{}
	}
	rows := append([]core.WageRow(nil), s.wageRows[date.String()]...)
	var partTime int64
	for _, r := range rows {
		partTime += r.DailyWage
	}
	var fixed int64
	if rec.employeeCount != nil {
		fixed = int64(*rec.employeeCount) * FixedDailyWagePerEmployee
	}
	totalWage := partTime + fixed
	foodTotal := core.TotalFoodCosts(rec.foodCosts)

	return core.DailySummary{
		Date:                  date,
		Sales:                 copyInt64(rec.sales),
		SalesNote:             rec.salesNote,
		TotalWage:             totalWage,
		PartTimeWage:          partTime,
		FixedWage:             fixed,
		WageRows:              rows,
		FoodCostsTotal:        foodTotal,
		FullTimeEmployeeCount: copyInt(rec.employeeCount),
		LRatio:                ratio(totalWage, rec.sales),
		FRatio:                ratio(foodTotal, rec.sales),
		FLRatio:               ratio(totalWage+foodTotal, rec.sales),
	}, nil
}

func (s *Store) FoodCosts(_ context.Context, date core.Date) ([]core.FoodCostItem, error) {
	if err := date.Validate(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec := s.days[date.String()]; rec != nil {
		return append([]core.FoodCostItem(nil), rec.foodCosts...), nil
	}
	return nil, nil
}

func (s *Store) ReplaceFoodCosts(_ context.Context, date core.Date, items []core.FoodCostItem) error {
	if err := date.Validate(); err != nil {
		return err
	}
	stored := make([]core.FoodCostItem, 0, len(items))
	for _, it := range items {
		if err := it.Validate(); err != nil {
			return err
		}
		stored = append(stored, it)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range stored {
		if stored[i].ID == 0 {
			stored[i].ID = s.nextItem
			s.nextItem++
		}
	}
	s.day(date).foodCosts = stored
	return nil
}

func (s *Store) PutSales(_ context.Context, date core.Date, amount *int64, note string) error {
	if err := date.Validate(); err != nil {
		return err
	}
	if amount != nil && *amount < 0 {
		return core.ErrNegativeAmount
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := s.day(date)
	rec.sales = copyInt64(amount)
	rec.salesNote = note
	return nil
}

func (s *Store) PutFixedCosts(_ context.Context, date core.Date, employeeCount int) error {
	if err := date.Validate(); err != nil {
		return err
	}
	if employeeCount < 0 {
		return core.ErrNegativeCount
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	n := employeeCount
	s.day(date).employeeCount = &n
	return nil
}

func (s *Store) MonthlySummary(_ context.Context, year, month int) (core.MonthlyReport, error) {
	if !core.ValidMonth(month) {
		return core.MonthlyReport{}, fmt.Errorf("%w: %d", core.ErrInvalidMonth, month)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	rep := core.MonthlyReport{Year: year, Month: month}
	var totalSales, totalWage, totalFood int64
	var haveSales, haveFood bool
	var cumWageFood, cumSales int64

	for day := 1; day <= core.DaysInMonth(year, month); day++ {
		date := core.NewDate(year, month, day)
		rec := s.days[date.String()]
		row := core.MonthlyDay{Date: date}
		if rec != nil || len(s.wageRows[date.String()]) > 0 {
			if rec == nil {
				rec = &dayRecord{}
			}
			var partTime int64
			for _, r := range s.wageRows[date.String()] {
				partTime += r.DailyWage
			}
			var fixed int64
			if rec.employeeCount != nil {
				fixed = int64(*rec.employeeCount) * FixedDailyWagePerEmployee
			}
			wage := partTime + fixed
			food := core.TotalFoodCosts(rec.foodCosts)

			row.Sales = copyInt64(rec.sales)
			row.Wage = wage
			if len(rec.foodCosts) > 0 {
				f := food
				row.FoodCosts = &f
				haveFood = true
				totalFood += food
			}
			row.LRatio = ratio(wage, rec.sales)
			row.FRatio = ratio(food, rec.sales)
			row.FLRatio = ratio(wage+food, rec.sales)

			totalWage += wage
			if rec.sales != nil {
				haveSales = true
				totalSales += *rec.sales
				cumSales += *rec.sales
				cumWageFood += wage + food
				if cumSales > 0 {
					c := float64(cumWageFood) / float64(cumSales)
					row.CumulativeFLRatio = &c
				}
			}
		}
		rep.Days = append(rep.Days, row)
	}

	rep.Wage = totalWage
	if haveSales {
		ts := totalSales
		rep.Sales = &ts
		rep.LRatio = ratio(totalWage, &ts)
		rep.FRatio = ratio(totalFood, &ts)
		rep.FLRatio = ratio(totalWage+totalFood, &ts)
	}
	if haveFood {
		tf := totalFood
		rep.FoodCosts = &tf
	}
	return rep, nil
}

func (s *Store) Users(_ context.Context) ([]core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.User
	for _, acc := range s.accounts {
		if !acc.pending {
			out = append(out, acc.user)
		}
	}
	sortUsers(out)
	return out, nil
}

func (s *Store) PendingUsers(_ context.Context) ([]core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.User
	for _, acc := range s.accounts {
		if acc.pending {
			out = append(out, acc.user)
		}
	}
	sortUsers(out)
	return out, nil
}

func (s *Store) ApproveUser(_ context.Context, id int64, role core.Role, hourlyWage int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accounts[id]
	if !ok {
		return fmt.Errorf("user %d not found", id)
	}
	if !acc.pending {
		return fmt.Errorf("user %d is not pending", id)
	}
	acc.pending = false
	acc.user.Role = role
	acc.user.BaseHourlyWage = hourlyWage
	s.appendLog("approve_user", fmt.Sprintf("approved %s as %s at %d yen/h", acc.user.Email, role, hourlyWage))
	return nil
}

func (s *Store) UpdateUser(_ context.Context, id int64, role core.Role, hourlyWage int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accounts[id]
	if !ok || acc.pending {
		return fmt.Errorf("user %d not found", id)
	}
	acc.user.Role = role
	acc.user.BaseHourlyWage = hourlyWage
	s.appendLog("update_user", fmt.Sprintf("updated %s: role=%s wage=%d", acc.user.Email, role, hourlyWage))
	return nil
}

func (s *Store) DeleteUser(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accounts[id]
	if !ok {
		return fmt.Errorf("user %d not found", id)
	}
	delete(s.accounts, id)
	s.appendLog("delete_user", fmt.Sprintf("deleted %s", acc.user.Email))
	return nil
}

func (s *Store) AdminLogs(_ context.Context, page, perPage int) (core.AdminLogPage, error) {
	if page < 1 || perPage < 1 {
		return core.AdminLogPage{}, fmt.Errorf("invalid paging: page=%d per_page=%d", page, perPage)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	// Newest first.
	total := len(s.logs)
	start := (page - 1) * perPage
	out := core.AdminLogPage{Page: page, PerPage: perPage, TotalCount: total}
	for i := total - 1 - start; i >= 0 && len(out.Logs) < perPage; i-- {
		out.Logs = append(out.Logs, s.logs[i])
	}
	return out, nil
}

// day returns the record for a date, creating it if needed. Callers hold the
// lock.
func (s *Store) day(date core.Date) *dayRecord {
	key := date.String()
	rec := s.days[key]
	if rec == nil {
		rec = &dayRecord{}
		s.days[key] = rec
	}
	return rec
}

// appendLog records an admin action. Callers hold the lock.
func (s *Store) appendLog(action, details string) {
	name := "system"
	if s.current != nil {
		name = s.current.Name
	}
	s.logs = append(s.logs, core.AdminLog{
		ID:            s.nextLog,
		AdminUserName: name,
		Action:        action,
		Details:       details,
		CreatedAt:     time.Now(),
	})
	s.nextLog++
}

func ratio(numerator int64, sales *int64) *float64 {
	if sales == nil || *sales <= 0 {
		return nil
	}
	r := float64(numerator) / float64(*sales)
	return &r
}

func copyInt64(v *int64) *int64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func copyInt(v *int) *int {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func sortUsers(users []core.User) {
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
}

// Package api defines the ports through which the client reaches the
// labor-cost backend. The backend owns all computation (wage rows, ratios,
// monthly totals); these interfaces only shape the calls and responses.
package api

import (
	"context"
	"errors"

	"flboard/internal/core"
)

// ErrUnauthorized marks a 401 from the backend: the token is invalid or
// expired. Callers must invalidate the session and otherwise treat it like
// any other request failure.
var ErrUnauthorized = errors.New("unauthorized")

type (
	// Authenticator covers the auth boundary. WhoAmI must be called fresh
	// on every gate check; roles are never cached across checks.
	Authenticator interface {
		Login(ctx context.Context, email, password string) (token string, err error)
		WhoAmI(ctx context.Context) (core.User, error)
	}

	// DailyReader fetches the server-computed summary for one day.
	DailyReader interface {
		DailySummary(ctx context.Context, date core.Date) (core.DailySummary, error)
	}

	// FoodCostStore reads and bulk-replaces one day's food-cost lines.
	// On replace, items carrying an ID are updates and items without one
	// are inserts; resulting IDs are the server's to assign.
	FoodCostStore interface {
		FoodCosts(ctx context.Context, date core.Date) ([]core.FoodCostItem, error)
		ReplaceFoodCosts(ctx context.Context, date core.Date, items []core.FoodCostItem) error
	}

	// SalesWriter persists one day's sales amount and note. A nil amount
	// clears the day's sales.
	SalesWriter interface {
		PutSales(ctx context.Context, date core.Date, amount *int64, note string) error
	}

	// FixedCostsWriter persists one day's full-time employee count.
	FixedCostsWriter interface {
		PutFixedCosts(ctx context.Context, date core.Date, employeeCount int) error
	}

	// MonthlyReader fetches one month of per-day rows plus monthly totals.
	MonthlyReader interface {
		MonthlySummary(ctx context.Context, year, month int) (core.MonthlyReport, error)
	}

	// UserDirectory covers the employee roster management surface.
	UserDirectory interface {
		Users(ctx context.Context) ([]core.User, error)
		PendingUsers(ctx context.Context) ([]core.User, error)
		ApproveUser(ctx context.Context, id int64, role core.Role, hourlyWage int64) error
		UpdateUser(ctx context.Context, id int64, role core.Role, hourlyWage int64) error
		DeleteUser(ctx context.Context, id int64) error
	}

	// AdminLogReader pages through the backend's admin action log.
	AdminLogReader interface {
		AdminLogs(ctx context.Context, page, perPage int) (core.AdminLogPage, error)
	}
)

// Backend bundles every port a fully wired client needs.
type Backend interface {
	Authenticator
	DailyReader
	FoodCostStore
	SalesWriter
	FixedCostsWriter
	MonthlyReader
	UserDirectory
	AdminLogReader
}

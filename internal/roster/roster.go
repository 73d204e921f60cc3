// Package roster manages the employee list: active users, signup approvals
// and role or wage changes. Mutations follow the same model as the daily
// ledger: write, then refetch, so the view always shows what the backend
// holds.
package roster

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"flboard/internal/api"
	"flboard/internal/core"
)

// DefaultHourlyWage is the yen-per-hour wage preselected when approving a
// signup, the regional minimum wage.
const DefaultHourlyWage int64 = 1004

var ErrNotLoaded = errors.New("roster not loaded")

type Manager struct {
	backend api.UserDirectory

	mu      sync.Mutex
	loaded  bool
	users   []core.User
	pending []core.User
}

func New(backend api.UserDirectory) *Manager {
	return &Manager{backend: backend}
}

// Load fetches active and pending users concurrently.
func (m *Manager) Load(ctx context.Context) error {
	var users, pending []core.User
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		users, err = m.backend.Users(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		pending, err = m.backend.PendingUsers(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("load roster: %w", err)
	}
	m.mu.Lock()
	m.users = users
	m.pending = pending
	m.loaded = true
	m.mu.Unlock()
	return nil
}

func (m *Manager) Users() ([]core.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.loaded {
		return nil, ErrNotLoaded
	}
	return append([]core.User(nil), m.users...), nil
}

func (m *Manager) Pending() ([]core.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.loaded {
		return nil, ErrNotLoaded
	}
	return append([]core.User(nil), m.pending...), nil
}

// Approve activates a pending signup. A non-positive wage falls back to
// DefaultHourlyWage; an empty role falls back to employee.
func (m *Manager) Approve(ctx context.Context, id int64, role core.Role, hourlyWage int64) error {
	if hourlyWage <= 0 {
		hourlyWage = DefaultHourlyWage
	}
	if role != core.RoleAdmin {
		role = core.RoleEmployee
	}
	if err := m.backend.ApproveUser(ctx, id, role, hourlyWage); err != nil {
		return fmt.Errorf("approve user %d: %w", id, err)
	}
	return m.Load(ctx)
}

// Update changes an active user's role and hourly wage.
func (m *Manager) Update(ctx context.Context, id int64, role core.Role, hourlyWage int64) error {
	if hourlyWage <= 0 {
		return fmt.Errorf("hourly wage must be positive, got %d", hourlyWage)
	}
	if err := m.backend.UpdateUser(ctx, id, role, hourlyWage); err != nil {
		return fmt.Errorf("update user %d: %w", id, err)
	}
	return m.Load(ctx)
}

// Delete removes a user entirely.
func (m *Manager) Delete(ctx context.Context, id int64) error {
	if err := m.backend.DeleteUser(ctx, id); err != nil {
		return fmt.Errorf("delete user %d: %w", id, err)
	}
	return m.Load(ctx)
}

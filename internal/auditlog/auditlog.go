// Package auditlog pages through the backend's admin action trail. The log
// is read-only on the client; entries are written server-side whenever an
// admin mutates the roster.
package auditlog

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"flboard/internal/api"
	"flboard/internal/core"
)

// DefaultPerPage matches the page size the admin screen renders.
const DefaultPerPage = 20

var ErrNotLoaded = errors.New("admin log not loaded")

type Pager struct {
	backend api.AdminLogReader
	perPage int

	mu     sync.Mutex
	loaded bool
	page   core.AdminLogPage
}

// New creates a pager; a non-positive perPage falls back to DefaultPerPage.
func New(backend api.AdminLogReader, perPage int) *Pager {
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	return &Pager{backend: backend, perPage: perPage}
}

// Load fetches the given 1-based page.
func (p *Pager) Load(ctx context.Context, page int) error {
	if page < 1 {
		return fmt.Errorf("page must be >= 1, got %d", page)
	}
	got, err := p.backend.AdminLogs(ctx, page, p.perPage)
	if err != nil {
		return fmt.Errorf("load admin logs page %d: %w", page, err)
	}
	p.mu.Lock()
	p.page = got
	p.loaded = true
	p.mu.Unlock()
	return nil
}

// LoadNext fetches the page after the current one; at the end it reloads the
// last page instead of running past it.
func (p *Pager) LoadNext(ctx context.Context) error {
	p.mu.Lock()
	if !p.loaded {
		p.mu.Unlock()
		return ErrNotLoaded
	}
	next := p.page.Page + 1
	if next > p.totalPages() {
		next = p.totalPages()
	}
	p.mu.Unlock()
	return p.Load(ctx, next)
}

// LoadPrev fetches the page before the current one, stopping at page 1.
func (p *Pager) LoadPrev(ctx context.Context) error {
	p.mu.Lock()
	if !p.loaded {
		p.mu.Unlock()
		return ErrNotLoaded
	}
	prev := p.page.Page - 1
	if prev < 1 {
		prev = 1
	}
	p.mu.Unlock()
	return p.Load(ctx, prev)
}

// Page returns the last loaded page.
func (p *Pager) Page() (core.AdminLogPage, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.loaded {
		return core.AdminLogPage{}, ErrNotLoaded
	}
	return p.page, nil
}

// TotalPages derives the page count from the total and the page size.
func (p *Pager) TotalPages() (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.loaded {
		return 0, ErrNotLoaded
	}
	return p.totalPages(), nil
}

// totalPages assumes the lock is held.
func (p *Pager) totalPages() int {
	if p.page.TotalCount == 0 {
		return 1
	}
	return (p.page.TotalCount + p.perPage - 1) / p.perPage
}

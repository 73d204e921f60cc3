// Package session holds the auth token and gates access by role.
//
// The token is the only shared mutable resource in the client: every request
// reads it through the Session at issue time, and any failed auth check may
// clear it. An epoch counter lets callers detect that the token changed
// while a request was in flight so the response is discarded instead of
// being applied to a logged-out (or re-logged-in) view.
package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"flboard/internal/api"
	"flboard/internal/core"
)

// ErrLoggedOut is returned when an operation requires a token and none is
// held.
var ErrLoggedOut = errors.New("not logged in")

// Store persists the token across runs, standing in for browser storage.
type Store interface {
	Load() (string, error)
	Save(token string) error
	Clear() error
}

// FileStore keeps the token in a plain file under the user's config dir.
type FileStore struct {
	Path string
}

func (s FileStore) Load() (string, error) {
	b, err := os.ReadFile(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("read token file: %w", err)
	}
	return strings.TrimSpace(string(b)), nil
}

func (s FileStore) Save(token string) error {
	if err := os.MkdirAll(filepath.Dir(s.Path), 0o700); err != nil {
		return fmt.Errorf("create token dir: %w", err)
	}
	if err := os.WriteFile(s.Path, []byte(token+"\n"), 0o600); err != nil {
		return fmt.Errorf("write token file: %w", err)
	}
	return nil
}

func (s FileStore) Clear() error {
	if err := os.Remove(s.Path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove token file: %w", err)
	}
	return nil
}

// Session is the injected holder of the current token. It is safe for
// concurrent use.
type Session struct {
	mu    sync.Mutex
	token string
	epoch uint64
	store Store
}

// Open creates a Session seeded from the store's persisted token, if any.
func Open(store Store) (*Session, error) {
	tok, err := store.Load()
	if err != nil {
		return nil, err
	}
	return &Session{token: tok, store: store}, nil
}

// NewEphemeral creates a Session with no persistence, for tests and the
// memory backend.
func NewEphemeral() *Session {
	return &Session{store: nopStore{}}
}

type nopStore struct{}

func (nopStore) Load() (string, error) { return "", nil }
func (nopStore) Save(string) error     { return nil }
func (nopStore) Clear() error          { return nil }

// Snapshot returns the current token together with the epoch it belongs to.
func (s *Session) Snapshot() (token string, epoch uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token, s.epoch
}

// Token returns the current token, empty when logged out.
func (s *Session) Token() string {
	tok, _ := s.Snapshot()
	return tok
}

// LoggedIn reports whether a token is held.
func (s *Session) LoggedIn() bool {
	return s.Token() != ""
}

// Valid reports whether the given epoch still matches the session, i.e. the
// token has not been cleared or replaced since the epoch was snapshotted.
func (s *Session) Valid(epoch uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.epoch == epoch
}

// SetToken installs a freshly issued token and persists it. Any in-flight
// request snapshotted under the previous epoch becomes stale.
func (s *Session) SetToken(token string) error {
	s.mu.Lock()
	s.token = token
	s.epoch++
	s.mu.Unlock()
	return s.store.Save(token)
}

// Invalidate clears the token, reverting to logged out. Responses for
// requests issued before the call must not be applied.
func (s *Session) Invalidate() error {
	s.mu.Lock()
	s.token = ""
	s.epoch++
	s.mu.Unlock()
	return s.store.Clear()
}

// Gate resolves the current role through the backend and reacts to auth
// failures by discarding the token. The backend validates the token; the
// gate only reacts to success or failure.
type Gate struct {
	auth    api.Authenticator
	session *Session
}

func NewGate(auth api.Authenticator, sess *Session) *Gate {
	return &Gate{auth: auth, session: sess}
}

// Login exchanges credentials for a token and installs it in the session.
func (g *Gate) Login(ctx context.Context, email, password string) error {
	token, err := g.auth.Login(ctx, email, password)
	if err != nil {
		return err
	}
	return g.session.SetToken(token)
}

// Logout discards the token.
func (g *Gate) Logout() error {
	return g.session.Invalidate()
}

// Verify resolves the current user and role. The role is re-checked on
// every call so a revoked admin loses access without a client change. On
// auth failure the token is cleared and the caller sees a logged-out state.
func (g *Gate) Verify(ctx context.Context) (core.User, error) {
	if !g.session.LoggedIn() {
		return core.User{}, ErrLoggedOut
	}
	_, epoch := g.session.Snapshot()

	user, err := g.auth.WhoAmI(ctx)

	if !g.session.Valid(epoch) {
		// Token was cleared or replaced while the check was in flight;
		// whatever came back belongs to a dead session.
		return core.User{}, ErrLoggedOut
	}
	if err != nil {
		if errors.Is(err, api.ErrUnauthorized) {
			_ = g.session.Invalidate()
		}
		return core.User{}, err
	}
	return user, nil
}

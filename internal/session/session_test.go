package session

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"flboard/internal/api"
	"flboard/internal/core"
)

type fakeAuth struct {
	token    string
	loginErr error
	user     core.User
	whoErr   error
	// called before WhoAmI returns, to race the session from tests
	beforeReturn func()
}

func (f *fakeAuth) Login(ctx context.Context, email, password string) (string, error) {
	return f.token, f.loginErr
}

func (f *fakeAuth) WhoAmI(ctx context.Context) (core.User, error) {
	if f.beforeReturn != nil {
		f.beforeReturn()
	}
	return f.user, f.whoErr
}

func TestFileStoreRoundTrip(t *testing.T) {
	store := FileStore{Path: filepath.Join(t.TempDir(), "cfg", "token")}

	if tok, err := store.Load(); err != nil || tok != "" {
		t.Fatalf("fresh store: tok=%q err=%v", tok, err)
	}
	if err := store.Save("abc123"); err != nil {
		t.Fatalf("save: %v", err)
	}
	if tok, err := store.Load(); err != nil || tok != "abc123" {
		t.Fatalf("load after save: tok=%q err=%v", tok, err)
	}
	if err := store.Clear(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if tok, _ := store.Load(); tok != "" {
		t.Fatalf("expected empty after clear, got %q", tok)
	}
	// Clearing twice is fine.
	if err := store.Clear(); err != nil {
		t.Fatalf("second clear: %v", err)
	}
}

func TestSessionEpochInvalidation(t *testing.T) {
	sess := NewEphemeral()
	if err := sess.SetToken("t1"); err != nil {
		t.Fatal(err)
	}
	_, epoch := sess.Snapshot()
	if !sess.Valid(epoch) {
		t.Fatal("snapshot epoch should be valid")
	}
	if err := sess.Invalidate(); err != nil {
		t.Fatal(err)
	}
	if sess.Valid(epoch) {
		t.Error("epoch must become stale after invalidation")
	}
	if sess.LoggedIn() {
		t.Error("expected logged out")
	}
}

func TestGateLoginStoresToken(t *testing.T) {
	sess := NewEphemeral()
	gate := NewGate(&fakeAuth{token: "issued"}, sess)
	if err := gate.Login(context.Background(), "a@example.com", "pw"); err != nil {
		t.Fatal(err)
	}
	if sess.Token() != "issued" {
		t.Errorf("token = %q, want issued", sess.Token())
	}
}

func TestGateVerifyClearsTokenOnAuthFailure(t *testing.T) {
	sess := NewEphemeral()
	_ = sess.SetToken("expired")
	gate := NewGate(&fakeAuth{whoErr: api.ErrUnauthorized}, sess)

	_, err := gate.Verify(context.Background())
	if !errors.Is(err, api.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if sess.LoggedIn() {
		t.Error("token must be cleared after auth failure")
	}
}

func TestGateVerifyKeepsTokenOnNetworkFailure(t *testing.T) {
	sess := NewEphemeral()
	_ = sess.SetToken("fine")
	gate := NewGate(&fakeAuth{whoErr: errors.New("connection refused")}, sess)

	if _, err := gate.Verify(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if !sess.LoggedIn() {
		t.Error("plain network failure must not clear the token")
	}
}

func TestGateVerifyDiscardsResponseAfterLogout(t *testing.T) {
	sess := NewEphemeral()
	_ = sess.SetToken("t1")
	auth := &fakeAuth{user: core.User{ID: 1, Role: core.RoleAdmin}}
	// Simulate the user logging out while the whoAmI call is in flight.
	auth.beforeReturn = func() { _ = sess.Invalidate() }
	gate := NewGate(auth, sess)

	_, err := gate.Verify(context.Background())
	if !errors.Is(err, ErrLoggedOut) {
		t.Fatalf("expected ErrLoggedOut, got %v", err)
	}
}

func TestGateVerifyLoggedOut(t *testing.T) {
	gate := NewGate(&fakeAuth{}, NewEphemeral())
	if _, err := gate.Verify(context.Background()); !errors.Is(err, ErrLoggedOut) {
		t.Fatalf("expected ErrLoggedOut, got %v", err)
	}
}

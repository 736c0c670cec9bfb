package session

import (
	"context"
	"errors"
	"testing"

	"github.com/MrSnakeDoc/gitmark/internal/credential"
	"github.com/MrSnakeDoc/gitmark/internal/domain"
	"github.com/MrSnakeDoc/gitmark/internal/logger"
	"github.com/MrSnakeDoc/gitmark/internal/storage"
	"github.com/MrSnakeDoc/gitmark/internal/storage/memory"
)

func newHolder(t *testing.T, b *memory.Backend) *Holder {
	t.Helper()
	log := logger.NewNop()
	h := NewHolder(b, credential.NewStore(b, log), log)
	if err := h.Restore(context.Background()); err != nil {
		t.Fatalf("Restore() error = %v", err)
	}
	return h
}

// seed stores {email: "a@x.com", password: obscure("pw")}
func seed(t *testing.T) *memory.Backend {
	t.Helper()
	b := memory.New()
	users := `[["a@x.com",{"name":"Alice","password":"` + credential.Obscure("pw") + `"}]]`
	if err := b.Set(context.Background(), storage.KeyUsers, []byte(users)); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return b
}

func TestStateBeforeRestore(t *testing.T) {
	b := memory.New()
	log := logger.NewNop()
	h := NewHolder(b, credential.NewStore(b, log), log)

	if h.State() != StateUninitialized {
		t.Errorf("State() = %v, want uninitialized", h.State())
	}
	if _, err := h.Login(context.Background(), "a@x.com", "pw"); !errors.Is(err, ErrNotRestored) {
		t.Errorf("Login() before Restore error = %v, want ErrNotRestored", err)
	}
	if err := h.Logout(context.Background()); !errors.Is(err, ErrNotRestored) {
		t.Errorf("Logout() before Restore error = %v, want ErrNotRestored", err)
	}
}

func TestRestoreAnonymous(t *testing.T) {
	h := newHolder(t, memory.New())

	if h.State() != StateAnonymous {
		t.Errorf("State() = %v, want anonymous", h.State())
	}
	snap := h.Snapshot()
	if snap.Authenticated || snap.Identity != nil || snap.Authenticating {
		t.Errorf("Snapshot() = %+v, want anonymous", snap)
	}
}

func TestRestorePersistedIdentity(t *testing.T) {
	b := seed(t)
	_ = b.Set(context.Background(), storage.KeyUser, []byte(`{"name":"Alice","email":"a@x.com"}`))

	h := newHolder(t, b)

	id, ok := h.Current()
	if !ok || id.Email != "a@x.com" || id.Name != "Alice" {
		t.Errorf("Current() = %+v, %v", id, ok)
	}
	if h.State() != StateAuthenticated {
		t.Errorf("State() = %v, want authenticated", h.State())
	}
}

func TestRestoreCorruptIdentityResolvesAnonymous(t *testing.T) {
	b := memory.New()
	_ = b.Set(context.Background(), storage.KeyUser, []byte(`not json`))
	log := logger.NewNop()
	h := NewHolder(b, credential.NewStore(b, log), log)

	if err := h.Restore(context.Background()); err == nil {
		t.Fatal("Restore() should report corrupt identity")
	}
	if h.State() != StateAnonymous {
		t.Errorf("State() = %v, want anonymous", h.State())
	}
}

func TestLoginScenario(t *testing.T) {
	ctx := context.Background()
	b := seed(t)
	h := newHolder(t, b)

	if _, err := h.Login(ctx, "a@x.com", "wrong"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("Login(wrong) error = %v, want ErrInvalidCredentials", err)
	}
	if _, ok := h.Current(); ok {
		t.Fatal("session should remain unset after a failed login")
	}
	if _, ok, _ := b.Get(ctx, storage.KeyUser); ok {
		t.Fatal("failed login must not persist an identity")
	}

	id, err := h.Login(ctx, "a@x.com", "pw")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if id.Email != "a@x.com" || id.Name != "Alice" {
		t.Errorf("Login() = %+v", id)
	}
	snap := h.Snapshot()
	if !snap.Authenticated || snap.Authenticating || snap.Identity.Email != "a@x.com" {
		t.Errorf("Snapshot() = %+v", snap)
	}

	raw, ok, _ := b.Get(ctx, storage.KeyUser)
	if !ok || string(raw) != `{"name":"Alice","email":"a@x.com"}` {
		t.Errorf("persisted identity = %s, %v", raw, ok)
	}
}

func TestLoginUnknownAccount(t *testing.T) {
	h := newHolder(t, memory.New())
	_, err := h.Login(context.Background(), "ghost@x.com", "pw")
	if !errors.Is(err, domain.ErrAccountNotFound) {
		t.Errorf("Login() error = %v, want ErrAccountNotFound", err)
	}
}

func TestFailedLoginKeepsPreviousIdentity(t *testing.T) {
	ctx := context.Background()
	h := newHolder(t, seed(t))

	if _, err := h.Login(ctx, "a@x.com", "pw"); err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if _, err := h.Login(ctx, "a@x.com", "nope"); err == nil {
		t.Fatal("Login(wrong) should fail")
	}
	if id, ok := h.Current(); !ok || id.Email != "a@x.com" {
		t.Errorf("Current() = %+v, %v; previous identity should survive", id, ok)
	}
}

func TestSignupThenLogout(t *testing.T) {
	ctx := context.Background()
	b := memory.New()
	h := newHolder(t, b)

	var events []Event
	unsubscribe := h.Subscribe(func(ev Event) { events = append(events, ev) })
	defer unsubscribe()

	id, err := h.Signup(ctx, "Bob", "b@x.com", "secret")
	if err != nil {
		t.Fatalf("Signup() error = %v", err)
	}
	if id.Name != "Bob" {
		t.Errorf("Signup() = %+v", id)
	}

	if _, err := h.Signup(ctx, "Bobby", "b@x.com", "x"); !errors.Is(err, domain.ErrAccountExists) {
		t.Errorf("Signup(duplicate) error = %v, want ErrAccountExists", err)
	}

	if err := h.Logout(ctx); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}
	if _, ok := h.Current(); ok {
		t.Error("Current() should be empty after Logout()")
	}
	if _, ok, _ := b.Get(ctx, storage.KeyUser); ok {
		t.Error("persisted identity should be removed on logout")
	}

	if len(events) != 2 {
		t.Fatalf("got %d events, want 2: %+v", len(events), events)
	}
	if events[0].Kind != EventSignup || events[0].Identity == nil || events[0].Identity.Email != "b@x.com" {
		t.Errorf("events[0] = %+v", events[0])
	}
	if events[1].Kind != EventLogout || events[1].Identity != nil {
		t.Errorf("events[1] = %+v", events[1])
	}
}

func TestUnsubscribe(t *testing.T) {
	ctx := context.Background()
	h := newHolder(t, seed(t))

	calls := 0
	unsubscribe := h.Subscribe(func(Event) { calls++ })
	if _, err := h.Login(ctx, "a@x.com", "pw"); err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	unsubscribe()
	_ = h.Logout(ctx)

	if calls != 1 {
		t.Errorf("subscriber called %d times, want 1", calls)
	}
}

type blockingCreds struct {
	Credentials
	verify chan struct{}
}

func (c blockingCreds) Verify(ctx context.Context, email, password string) (domain.Identity, error) {
	<-c.verify
	return c.Credentials.Verify(ctx, email, password)
}

func TestAuthenticatingFlag(t *testing.T) {
	ctx := context.Background()
	b := seed(t)
	log := logger.NewNop()
	creds := blockingCreds{Credentials: credential.NewStore(b, log), verify: make(chan struct{})}
	h := NewHolder(b, creds, log)
	if err := h.Restore(ctx); err != nil {
		t.Fatalf("Restore() error = %v", err)
	}

	done := make(chan error, 1)
	go func() {
		_, err := h.Login(ctx, "a@x.com", "wrong")
		done <- err
	}()

	// Wait until the login is in flight.
	for !h.Snapshot().Authenticating {
	}
	close(creds.verify)

	if err := <-done; err == nil {
		t.Fatal("Login(wrong) should fail")
	}
	if h.Snapshot().Authenticating {
		t.Error("Authenticating should be cleared after a failed login")
	}
}

func TestStateString(t *testing.T) {
	tests := map[State]string{
		StateUninitialized: "uninitialized",
		StateRestoring:     "restoring",
		StateAnonymous:     "anonymous",
		StateAuthenticated: "authenticated",
		State(99):          "unknown",
	}
	for s, want := range tests {
		if got := s.String(); got != want {
			t.Errorf("State(%d).String() = %q, want %q", int(s), got, want)
		}
	}
}

package credential

import (
	"context"
	"errors"
	"testing"

	"github.com/MrSnakeDoc/gitmark/internal/domain"
	"github.com/MrSnakeDoc/gitmark/internal/logger"
	"github.com/MrSnakeDoc/gitmark/internal/storage"
	"github.com/MrSnakeDoc/gitmark/internal/storage/memory"
)

func newStore(t *testing.T) (*Store, *memory.Backend) {
	t.Helper()
	b := memory.New()
	s := NewStore(b, logger.NewNop())
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	return s, b
}

func TestRegisterThenVerify(t *testing.T) {
	ctx := context.Background()
	accounts := []struct {
		name, email, password string
	}{
		{"Alice", "a@x.com", "pw"},
		{"Bob", "b@x.com", "correct horse battery staple"},
		{"", "empty@x.com", ""},
	}

	s, _ := newStore(t)
	for _, a := range accounts {
		id, err := s.Register(ctx, a.name, a.email, a.password)
		if err != nil {
			t.Fatalf("Register(%s) error = %v", a.email, err)
		}
		if id.Name != a.name || id.Email != a.email {
			t.Errorf("Register(%s) = %+v", a.email, id)
		}
	}

	for _, a := range accounts {
		id, err := s.Verify(ctx, a.email, a.password)
		if err != nil {
			t.Errorf("Verify(%s) error = %v", a.email, err)
			continue
		}
		if id.Name != a.name || id.Email != a.email {
			t.Errorf("Verify(%s) = %+v", a.email, id)
		}
	}
}

func TestVerifyErrors(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t)
	if _, err := s.Register(ctx, "Alice", "a@x.com", "pw"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	tests := []struct {
		name     string
		email    string
		password string
		want     error
	}{
		{name: "unknown email", email: "nobody@x.com", password: "pw", want: domain.ErrAccountNotFound},
		{name: "wrong password", email: "a@x.com", password: "wrong", want: domain.ErrInvalidCredentials},
		{name: "empty password", email: "a@x.com", password: "", want: domain.ErrInvalidCredentials},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Verify(ctx, tt.email, tt.password)
			if !errors.Is(err, tt.want) {
				t.Errorf("Verify() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestRegisterDuplicateKeepsOriginal(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t)

	if _, err := s.Register(ctx, "Alice", "a@x.com", "pw"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	_, err := s.Register(ctx, "Mallory", "a@x.com", "other")
	if !errors.Is(err, domain.ErrAccountExists) {
		t.Fatalf("Register(duplicate) error = %v, want ErrAccountExists", err)
	}

	acc, ok := s.account("a@x.com")
	if !ok {
		t.Fatal("original account disappeared")
	}
	if acc.Name != "Alice" || acc.ObscuredPassword != Obscure("pw") {
		t.Errorf("original account changed: %+v", acc)
	}
	if _, err := s.Verify(ctx, "a@x.com", "pw"); err != nil {
		t.Errorf("Verify(original password) error = %v", err)
	}
}

func TestPersistedFormat(t *testing.T) {
	ctx := context.Background()
	s, b := newStore(t)

	if _, err := s.Register(ctx, "Alice", "a@x.com", "pw"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	raw, ok, _ := b.Get(ctx, storage.KeyUsers)
	if !ok {
		t.Fatal("account map was not persisted")
	}
	want := `[["a@x.com",{"name":"Alice","password":"cHc="}]]`
	if string(raw) != want {
		t.Errorf("persisted users = %s, want %s", raw, want)
	}
}

func TestLoadRestoresAccounts(t *testing.T) {
	ctx := context.Background()
	b := memory.New()
	_ = b.Set(ctx, storage.KeyUsers, []byte(`[["a@x.com",{"name":"Alice","password":"cHc="}]]`))

	s := NewStore(b, logger.NewNop())
	if err := s.Load(ctx); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if s.Count() != 1 {
		t.Fatalf("Count() = %v, want 1", s.Count())
	}
	id, err := s.Verify(ctx, "a@x.com", "pw")
	if err != nil || id.Name != "Alice" {
		t.Errorf("Verify() = %+v, %v", id, err)
	}
}

func TestVerifyUndecodablePassword(t *testing.T) {
	ctx := context.Background()
	b := memory.New()
	_ = b.Set(ctx, storage.KeyUsers, []byte(`[["a@x.com",{"name":"Alice","password":"%%%"}]]`))

	s := NewStore(b, logger.NewNop())
	if err := s.Load(ctx); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	for _, pw := range []string{"%%%", ""} {
		if _, err := s.Verify(ctx, "a@x.com", pw); !errors.Is(err, domain.ErrInvalidCredentials) {
			t.Errorf("Verify(%q) error = %v, want ErrInvalidCredentials", pw, err)
		}
	}
}

func TestLoadCorruptMap(t *testing.T) {
	ctx := context.Background()
	b := memory.New()
	_ = b.Set(ctx, storage.KeyUsers, []byte(`{"a@x.com":"oops"}`))

	if err := NewStore(b, logger.NewNop()).Load(ctx); err == nil {
		t.Error("Load() should fail on a corrupt account map")
	}
}

type failingBackend struct{ *memory.Backend }

func (failingBackend) Set(context.Context, string, []byte) error { return errors.New("disk full") }

func TestRegisterWriteFailureLeavesNoAccount(t *testing.T) {
	ctx := context.Background()
	s := NewStore(failingBackend{memory.New()}, logger.NewNop())

	if _, err := s.Register(ctx, "Alice", "a@x.com", "pw"); err == nil {
		t.Fatal("Register() should surface the write error")
	}
	if s.Count() != 0 {
		t.Errorf("Count() = %v after failed write, want 0", s.Count())
	}
}

func TestObscureReveal(t *testing.T) {
	tests := []struct {
		plain, obscured string
	}{
		{"pw", "cHc="},
		{"", ""},
		{"hunter2", "aHVudGVyMg=="},
	}

	for _, tt := range tests {
		if got := Obscure(tt.plain); got != tt.obscured {
			t.Errorf("Obscure(%q) = %q, want %q", tt.plain, got, tt.obscured)
		}
		back, err := Reveal(tt.obscured)
		if err != nil || back != tt.plain {
			t.Errorf("Reveal(%q) = %q, %v", tt.obscured, back, err)
		}
	}

	if _, err := Reveal("%%%"); err == nil {
		t.Error("Reveal() should fail on invalid base64")
	}
}

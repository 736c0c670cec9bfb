package bookmark

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/MrSnakeDoc/gitmark/internal/credential"
	"github.com/MrSnakeDoc/gitmark/internal/domain"
	"github.com/MrSnakeDoc/gitmark/internal/logger"
	"github.com/MrSnakeDoc/gitmark/internal/session"
	"github.com/MrSnakeDoc/gitmark/internal/storage"
	"github.com/MrSnakeDoc/gitmark/internal/storage/memory"
)

var fixedNow = time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC)

func repo(id int64, fullName string) *domain.Repository {
	return &domain.Repository{
		ID:       id,
		Name:     fullName,
		FullName: fullName,
		Owner:    domain.Owner{Login: "owner"},
		HTMLURL:  "https://github.com/" + fullName,
	}
}

func newLoadedStore(t *testing.T, b storage.Backend, email string) *Store {
	t.Helper()
	s := NewStore(b, logger.NewNop(), WithClock(func() time.Time { return fixedNow }))
	if err := s.Load(context.Background(), &domain.Identity{Name: "A", Email: email}); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	return s
}

func persisted(t *testing.T, b storage.Backend) *storage.Pairs[[]domain.BookmarkEntry] {
	t.Helper()
	all := &storage.Pairs[[]domain.BookmarkEntry]{}
	if _, err := storage.LoadJSON(context.Background(), b, storage.KeyBookmarks, all); err != nil {
		t.Fatalf("LoadJSON() error = %v", err)
	}
	return all
}

func TestLoadingFlag(t *testing.T) {
	s := NewStore(memory.New(), logger.NewNop())
	if !s.Loading() {
		t.Error("Loading() should be true before Load()")
	}
	if err := s.Load(context.Background(), nil); err != nil {
		t.Fatalf("Load(nil) error = %v", err)
	}
	if s.Loading() {
		t.Error("Loading() should be false once Load() determined there is no account")
	}
	if len(s.List()) != 0 {
		t.Errorf("List() = %v, want empty", s.List())
	}
}

func TestBookmarkRoundTrip(t *testing.T) {
	ctx := context.Background()
	b := memory.New()
	s := newLoadedStore(t, b, "a@x.com")

	entry, err := s.Add(ctx, repo(1, "o/one"))
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if !entry.BookmarkedAt.Equal(fixedNow) {
		t.Errorf("BookmarkedAt = %v, want %v", entry.BookmarkedAt, fixedNow)
	}
	if !s.IsBookmarked(1) {
		t.Error("IsBookmarked(1) should be true after Add()")
	}

	list, ok := persisted(t, b).Get("a@x.com")
	if !ok || len(list) != 1 || list[0].ID != 1 {
		t.Fatalf("persisted list = %+v, %v", list, ok)
	}

	if err := s.Remove(ctx, 1); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if s.IsBookmarked(1) {
		t.Error("IsBookmarked(1) should be false after Remove()")
	}

	raw, _, _ := b.Get(ctx, storage.KeyBookmarks)
	if string(raw) != `[["a@x.com",[]]]` {
		t.Errorf("persisted map after Remove() = %s", raw)
	}
}

func TestAddRejectsDuplicate(t *testing.T) {
	ctx := context.Background()
	s := newLoadedStore(t, memory.New(), "a@x.com")

	if _, err := s.Add(ctx, repo(7, "o/seven")); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	_, err := s.Add(ctx, repo(7, "o/seven"))
	if !errors.Is(err, domain.ErrAlreadyBookmarked) {
		t.Fatalf("Add(duplicate) error = %v, want ErrAlreadyBookmarked", err)
	}
	if n := len(s.List()); n != 1 {
		t.Errorf("List() has %d entries, want 1", n)
	}
}

func TestAddMultiplePreservesOrder(t *testing.T) {
	ctx := context.Background()
	s := newLoadedStore(t, memory.New(), "a@x.com")

	if _, err := s.Add(ctx, repo(1, "o/one")); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	batch := []domain.BookmarkEntry{
		domain.NewBookmarkEntry(repo(2, "o/two"), fixedNow),
		domain.NewBookmarkEntry(repo(3, "o/three"), fixedNow),
	}
	n, err := s.AddMultiple(ctx, batch)
	if err != nil {
		t.Fatalf("AddMultiple() error = %v", err)
	}
	if n != 2 {
		t.Errorf("AddMultiple() added %d, want 2", n)
	}

	list := s.List()
	want := []int64{1, 2, 3}
	if len(list) != len(want) {
		t.Fatalf("List() = %+v", list)
	}
	for i, id := range want {
		if list[i].ID != id {
			t.Errorf("List()[%d].ID = %d, want %d", i, list[i].ID, id)
		}
	}
}

func TestAddMultipleDropsDuplicates(t *testing.T) {
	ctx := context.Background()
	s := newLoadedStore(t, memory.New(), "a@x.com")
	_, _ = s.Add(ctx, repo(1, "o/one"))

	batch := []domain.BookmarkEntry{
		domain.NewBookmarkEntry(repo(1, "o/one"), fixedNow),
		domain.NewBookmarkEntry(repo(2, "o/two"), fixedNow),
		domain.NewBookmarkEntry(repo(2, "o/two"), fixedNow),
	}
	n, err := s.AddMultiple(ctx, batch)
	if err != nil {
		t.Fatalf("AddMultiple() error = %v", err)
	}
	if n != 1 {
		t.Errorf("AddMultiple() added %d, want 1", n)
	}
	seen := map[int64]int{}
	for _, e := range s.List() {
		seen[e.ID]++
		if seen[e.ID] > 1 {
			t.Errorf("id %d appears more than once", e.ID)
		}
	}
}

func TestAddMultipleEmptyBatchStillWrites(t *testing.T) {
	ctx := context.Background()
	b := memory.New()
	s := newLoadedStore(t, b, "a@x.com")

	n, err := s.AddMultiple(ctx, nil)
	if err != nil || n != 0 {
		t.Fatalf("AddMultiple(nil) = %d, %v", n, err)
	}
	raw, ok, _ := b.Get(ctx, storage.KeyBookmarks)
	if !ok || string(raw) != `[["a@x.com",[]]]` {
		t.Errorf("persisted map = %s, %v", raw, ok)
	}
}

func TestMutationsWithoutAccount(t *testing.T) {
	ctx := context.Background()
	s := NewStore(memory.New(), logger.NewNop())
	_ = s.Load(ctx, nil)

	if _, err := s.Add(ctx, repo(1, "o/one")); !errors.Is(err, domain.ErrNoActiveAccount) {
		t.Errorf("Add() error = %v, want ErrNoActiveAccount", err)
	}
	if err := s.Remove(ctx, 1); !errors.Is(err, domain.ErrNoActiveAccount) {
		t.Errorf("Remove() error = %v, want ErrNoActiveAccount", err)
	}
	if _, err := s.AddMultiple(ctx, nil); !errors.Is(err, domain.ErrNoActiveAccount) {
		t.Errorf("AddMultiple() error = %v, want ErrNoActiveAccount", err)
	}
}

func TestAddMultipleForRefusesOtherAccount(t *testing.T) {
	ctx := context.Background()
	b := memory.New()
	s := newLoadedStore(t, b, "a@x.com")
	entries := []domain.BookmarkEntry{domain.NewBookmarkEntry(repo(1, "o/one"), fixedNow)}

	if _, err := s.AddMultipleFor(ctx, "b@x.com", entries); !errors.Is(err, domain.ErrAccountChanged) {
		t.Fatalf("AddMultipleFor(b) error = %v, want ErrAccountChanged", err)
	}
	if _, ok := persisted(t, b).Get("b@x.com"); ok {
		t.Error("b@x.com should not have been written")
	}
	if got := s.List(); len(got) != 0 {
		t.Errorf("List() = %+v, want empty", got)
	}

	n, err := s.AddMultipleFor(ctx, "a@x.com", entries)
	if err != nil || n != 1 {
		t.Fatalf("AddMultipleFor(a) = %d, %v", n, err)
	}
	if got := s.List(); len(got) != 1 || got[0].ID != 1 {
		t.Errorf("List() = %+v", got)
	}
	if _, err := s.AddMultipleFor(ctx, "", entries); !errors.Is(err, domain.ErrNoActiveAccount) {
		t.Errorf("AddMultipleFor(\"\") error = %v, want ErrNoActiveAccount", err)
	}
}

func TestAccountsAreIsolated(t *testing.T) {
	ctx := context.Background()
	b := memory.New()

	alice := newLoadedStore(t, b, "a@x.com")
	if _, err := alice.Add(ctx, repo(1, "o/one")); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	bob := newLoadedStore(t, b, "b@x.com")
	if bob.IsBookmarked(1) {
		t.Error("bob should not see alice's bookmark")
	}
	if _, err := bob.Add(ctx, repo(1, "o/one")); err != nil {
		t.Fatalf("bob Add() error = %v", err)
	}

	all := persisted(t, b)
	if all.Len() != 2 {
		t.Errorf("persisted map has %d accounts, want 2", all.Len())
	}
	keys := all.Keys()
	if keys[0] != "a@x.com" || keys[1] != "b@x.com" {
		t.Errorf("persisted keys = %v", keys)
	}
}

func TestLoadReadsPersistedFormat(t *testing.T) {
	ctx := context.Background()
	b := memory.New()
	raw := `[["a@x.com",[{"id":5,"name":"five","full_name":"o/five","description":"","html_url":"https://github.com/o/five",` +
		`"owner":{"login":"o","avatar_url":"","html_url":""},"stargazers_count":3,"forks_count":1,"language":"Go",` +
		`"bookmarked_at":"2024-01-02T03:04:05.000Z"}]]]`
	_ = b.Set(ctx, storage.KeyBookmarks, []byte(raw))

	s := newLoadedStore(t, b, "a@x.com")
	list := s.List()
	if len(list) != 1 || list[0].ID != 5 || list[0].StarCount != 3 {
		t.Fatalf("List() = %+v", list)
	}
	if list[0].BookmarkedAt.Format("2006-01-02") != "2024-01-02" {
		t.Errorf("BookmarkedAt = %v", list[0].BookmarkedAt)
	}
}

type failingBackend struct{ *memory.Backend }

func (failingBackend) Set(context.Context, string, []byte) error { return errors.New("quota exceeded") }

func TestFailedWriteLeavesViewUnchanged(t *testing.T) {
	ctx := context.Background()
	s := newLoadedStore(t, failingBackend{memory.New()}, "a@x.com")

	if _, err := s.Add(ctx, repo(1, "o/one")); err == nil {
		t.Fatal("Add() should surface the write error")
	}
	if s.IsBookmarked(1) {
		t.Error("IsBookmarked(1) should stay false when the write failed")
	}
}

func TestStats(t *testing.T) {
	ctx := context.Background()
	s := newLoadedStore(t, memory.New(), "a@x.com")

	batch := []domain.BookmarkEntry{
		domain.NewBookmarkEntry(repo(1, "o/one"), time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)),
		domain.NewBookmarkEntry(repo(2, "o/two"), time.Date(2024, 1, 2, 18, 0, 0, 0, time.UTC)),
		domain.NewBookmarkEntry(repo(3, "o/three"), time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC)),
	}
	if _, err := s.AddMultiple(ctx, batch); err != nil {
		t.Fatalf("AddMultiple() error = %v", err)
	}

	got, _ := json.Marshal(s.Stats())
	want := `[{"date":"2023-12-31","count":1},{"date":"2024-01-02","count":2}]`
	if string(got) != want {
		t.Errorf("Stats() = %s, want %s", got, want)
	}
}

func TestBindFollowsSession(t *testing.T) {
	ctx := context.Background()
	b := memory.New()
	log := logger.NewNop()

	holder := session.NewHolder(b, credential.NewStore(b, log), log)
	s := NewStore(b, log)
	unbind := s.Bind(holder)
	defer unbind()

	if err := holder.Restore(ctx); err != nil {
		t.Fatalf("Restore() error = %v", err)
	}
	if s.Loading() {
		t.Error("store should finish loading once the session is restored")
	}

	if _, err := holder.Signup(ctx, "A", "a@x.com", "pw"); err != nil {
		t.Fatalf("Signup() error = %v", err)
	}
	if email, ok := s.Active(); !ok || email != "a@x.com" {
		t.Fatalf("Active() = %q, %v", email, ok)
	}
	if _, err := s.Add(ctx, repo(9, "o/nine")); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	if err := holder.Logout(ctx); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}
	if _, ok := s.Active(); ok {
		t.Error("store should have no active account after logout")
	}
	if s.IsBookmarked(9) {
		t.Error("bookmarks should be hidden after logout")
	}

	if _, err := holder.Login(ctx, "a@x.com", "pw"); err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if !s.IsBookmarked(9) {
		t.Error("bookmarks should come back after login")
	}
}

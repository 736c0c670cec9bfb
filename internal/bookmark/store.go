// Package bookmark keeps each account's ordered list of bookmarked repositories.
package bookmark

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/MrSnakeDoc/gitmark/internal/domain"
	"github.com/MrSnakeDoc/gitmark/internal/logger"
	"github.com/MrSnakeDoc/gitmark/internal/session"
	"github.com/MrSnakeDoc/gitmark/internal/storage"
)

// bookmarkMap is the persisted account email -> bookmarks mapping.
type bookmarkMap = storage.Pairs[[]domain.BookmarkEntry]

// Store exposes the active account's bookmarks and owns the whole
// cross-account mapping behind it.
//
// Each mutation re-reads the persisted mapping, changes the active account's
// slice and writes the mapping back as a whole. Mutations are serialized
// within the process; writers in other processes still race on the whole
// mapping and the last one wins.
type Store struct {
	backend storage.Backend
	logger  logger.Logger
	now     func() time.Time

	mu      sync.RWMutex
	email   string // active account, empty when nobody is signed in
	entries []domain.BookmarkEntry
	ids     map[int64]struct{}
	loading bool
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the clock used to stamp new bookmarks.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// NewStore creates a store that stays in the loading state until Load runs.
func NewStore(backend storage.Backend, log logger.Logger, opts ...Option) *Store {
	s := &Store{
		backend: backend,
		logger:  log,
		now:     time.Now,
		ids:     make(map[int64]struct{}),
		loading: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load selects the bookmarks of identity. A nil identity empties the view.
func (s *Store) Load(ctx context.Context, identity *domain.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.loading = true
	defer func() { s.loading = false }()

	if identity == nil || identity.Email == "" {
		s.email = ""
		s.setEntries(nil)
		return nil
	}

	all, err := s.read(ctx)
	if err != nil {
		s.email = ""
		s.setEntries(nil)
		return err
	}

	list, _ := all.Get(identity.Email)
	s.email = identity.Email
	s.setEntries(list)

	s.logger.Debug("bookmarks loaded",
		logger.String("email", identity.Email),
		logger.Int("count", len(list)))
	return nil
}

// Bind reloads the store on every session change and returns the unsubscribe func.
func (s *Store) Bind(holder interface {
	Subscribe(func(session.Event)) func()
}) func() {
	return holder.Subscribe(func(ev session.Event) {
		if err := s.Load(context.Background(), ev.Identity); err != nil {
			s.logger.Error("failed to reload bookmarks after session change",
				logger.String("event", string(ev.Kind)),
				logger.Error(err))
		}
	})
}

// Add bookmarks repo, stamped now, at the end of the active list.
// It fails with domain.ErrAlreadyBookmarked if repo is already in the list.
func (s *Store) Add(ctx context.Context, repo *domain.Repository) (domain.BookmarkEntry, error) {
	entry := domain.NewBookmarkEntry(repo, s.now())

	var added bool
	err := s.mutate(ctx, "", func(list []domain.BookmarkEntry) []domain.BookmarkEntry {
		if containsID(list, entry.ID) {
			return list
		}
		added = true
		return append(list, entry)
	})
	if err != nil {
		return domain.BookmarkEntry{}, err
	}
	if !added {
		return domain.BookmarkEntry{}, fmt.Errorf("bookmark %s: %w", repo.FullName, domain.ErrAlreadyBookmarked)
	}

	s.logger.Info("bookmark added",
		logger.Int64("id", entry.ID),
		logger.String("full_name", entry.FullName))
	return entry, nil
}

// Remove drops the entry with id from the active list. Removing an id that is
// not bookmarked still rewrites the mapping and is not an error.
func (s *Store) Remove(ctx context.Context, id int64) error {
	err := s.mutate(ctx, "", func(list []domain.BookmarkEntry) []domain.BookmarkEntry {
		out := make([]domain.BookmarkEntry, 0, len(list))
		for _, e := range list {
			if e.ID != id {
				out = append(out, e)
			}
		}
		return out
	})
	if err != nil {
		return err
	}

	s.logger.Info("bookmark removed", logger.Int64("id", id))
	return nil
}

// AddMultiple appends entries in one write and returns how many were added.
// Entries whose id is already bookmarked, or repeated in the batch, are dropped.
func (s *Store) AddMultiple(ctx context.Context, entries []domain.BookmarkEntry) (int, error) {
	return s.addMultiple(ctx, "", entries)
}

// AddMultipleFor is AddMultiple pinned to email. It fails with
// domain.ErrAccountChanged unless email is still the active account.
func (s *Store) AddMultipleFor(ctx context.Context, email string, entries []domain.BookmarkEntry) (int, error) {
	if email == "" {
		return 0, domain.ErrNoActiveAccount
	}
	return s.addMultiple(ctx, email, entries)
}

func (s *Store) addMultiple(ctx context.Context, email string, entries []domain.BookmarkEntry) (int, error) {
	added := 0
	err := s.mutate(ctx, email, func(list []domain.BookmarkEntry) []domain.BookmarkEntry {
		seen := make(map[int64]struct{}, len(list)+len(entries))
		for _, e := range list {
			seen[e.ID] = struct{}{}
		}
		for _, e := range entries {
			if _, dup := seen[e.ID]; dup {
				continue
			}
			seen[e.ID] = struct{}{}
			list = append(list, e)
			added++
		}
		return list
	})
	if err != nil {
		return 0, err
	}

	s.logger.Info("bookmarks added",
		logger.Int("requested", len(entries)),
		logger.Int("added", added))
	return added, nil
}

// IsBookmarked reports whether id is in the active list.
func (s *Store) IsBookmarked(id int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.ids[id]
	return ok
}

// List returns a copy of the active list in insertion order.
func (s *Store) List() []domain.BookmarkEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.BookmarkEntry, len(s.entries))
	copy(out, s.entries)
	return out
}

// IDs returns a copy of the active list's id set.
func (s *Store) IDs() map[int64]struct{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[int64]struct{}, len(s.ids))
	for id := range s.ids {
		out[id] = struct{}{}
	}
	return out
}

// Loading is true until the active account's list has been read.
func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.loading
}

// Active returns the email whose list is exposed.
func (s *Store) Active() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.email, s.email != ""
}

// Stats counts the active list per day.
func (s *Store) Stats() []domain.DayCount {
	return domain.GroupByDate(s.List())
}

// mutate applies fn to the active account's persisted list and writes the
// whole mapping back. The in-memory view only changes once the write succeeded.
// A non-empty want must match the active account.
func (s *Store) mutate(ctx context.Context, want string, fn func([]domain.BookmarkEntry) []domain.BookmarkEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.email == "" {
		return domain.ErrNoActiveAccount
	}
	if want != "" && want != s.email {
		return domain.ErrAccountChanged
	}

	all, err := s.read(ctx)
	if err != nil {
		return err
	}

	current, _ := all.Get(s.email)
	base := make([]domain.BookmarkEntry, len(current))
	copy(base, current)
	updated := fn(base)
	if updated == nil {
		updated = []domain.BookmarkEntry{}
	}

	all.Set(s.email, updated)
	if err := storage.SaveJSON(ctx, s.backend, storage.KeyBookmarks, all); err != nil {
		return err
	}

	s.setEntries(updated)
	return nil
}

func (s *Store) read(ctx context.Context) (*bookmarkMap, error) {
	all := &bookmarkMap{}
	if _, err := storage.LoadJSON(ctx, s.backend, storage.KeyBookmarks, all); err != nil {
		return nil, fmt.Errorf("failed to load bookmarks: %w", err)
	}
	return all, nil
}

// setEntries replaces the view and recomputes the id set. Callers hold mu.
func (s *Store) setEntries(list []domain.BookmarkEntry) {
	s.entries = make([]domain.BookmarkEntry, len(list))
	copy(s.entries, list)

	s.ids = make(map[int64]struct{}, len(list))
	for _, e := range list {
		s.ids[e.ID] = struct{}{}
	}
}

func containsID(list []domain.BookmarkEntry, id int64) bool {
	for _, e := range list {
		if e.ID == id {
			return true
		}
	}
	return false
}

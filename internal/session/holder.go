// Package session tracks who is signed in and tells dependents when that changes.
package session

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/MrSnakeDoc/gitmark/internal/domain"
	"github.com/MrSnakeDoc/gitmark/internal/logger"
	"github.com/MrSnakeDoc/gitmark/internal/storage"
)

// ErrNotRestored is returned by transitions attempted before Restore.
var ErrNotRestored = errors.New("session not restored")

// Credentials is the part of the credential store the holder drives.
type Credentials interface {
	Load(ctx context.Context) error
	Register(ctx context.Context, name, email, password string) (domain.Identity, error)
	Verify(ctx context.Context, email, password string) (domain.Identity, error)
}

// Holder owns the active identity.
//
// Uninitialized -> Restoring -> {Anonymous, Authenticated}; afterwards
// Login/Signup/Logout move between Anonymous and Authenticated.
type Holder struct {
	backend storage.Backend
	creds   Credentials
	logger  logger.Logger

	mu       sync.RWMutex
	state    State
	identity *domain.Identity
	pending  int // in-flight Login/Signup calls

	subMu       sync.Mutex
	subscribers map[int]func(Event)
	nextSub     int
}

// NewHolder creates an uninitialized holder. Call Restore before anything else.
func NewHolder(backend storage.Backend, creds Credentials, log logger.Logger) *Holder {
	return &Holder{
		backend:     backend,
		creds:       creds,
		logger:      log,
		state:       StateUninitialized,
		subscribers: make(map[int]func(Event)),
	}
}

// Restore loads the account map and the persisted identity. It always leaves
// the holder Anonymous or Authenticated, even when it returns an error.
func (h *Holder) Restore(ctx context.Context) error {
	h.mu.Lock()
	h.state = StateRestoring
	h.mu.Unlock()

	id, err := h.restore(ctx)

	h.mu.Lock()
	h.identity = id
	if id != nil {
		h.state = StateAuthenticated
	} else {
		h.state = StateAnonymous
	}
	h.mu.Unlock()

	if err != nil {
		h.logger.Error("session restore failed", logger.Error(err))
		return err
	}

	if id != nil {
		h.logger.Info("session restored", logger.String("email", id.Email))
	} else {
		h.logger.Debug("no persisted session")
	}
	h.emit(Event{Kind: EventRestored, Identity: copyIdentity(id)})
	return nil
}

func (h *Holder) restore(ctx context.Context) (*domain.Identity, error) {
	if err := h.creds.Load(ctx); err != nil {
		return nil, err
	}

	var id domain.Identity
	found, err := storage.LoadJSON(ctx, h.backend, storage.KeyUser, &id)
	if err != nil {
		return nil, fmt.Errorf("failed to restore identity: %w", err)
	}
	if !found || id.Email == "" {
		return nil, nil
	}
	return &id, nil
}

// Login verifies the credentials and makes the account active.
// On failure the current identity is left as it was.
func (h *Holder) Login(ctx context.Context, email, password string) (domain.Identity, error) {
	if err := h.begin(); err != nil {
		return domain.Identity{}, err
	}
	defer h.end()

	id, err := h.creds.Verify(ctx, email, password)
	if err != nil {
		h.logger.Warn("login failed", logger.String("email", email), logger.Error(err))
		return domain.Identity{}, err
	}
	if err := h.activate(ctx, id); err != nil {
		return domain.Identity{}, err
	}

	h.logger.Info("logged in", logger.String("email", id.Email))
	h.emit(Event{Kind: EventLogin, Identity: copyIdentity(&id)})
	return id, nil
}

// Signup registers an account and makes it active.
func (h *Holder) Signup(ctx context.Context, name, email, password string) (domain.Identity, error) {
	if err := h.begin(); err != nil {
		return domain.Identity{}, err
	}
	defer h.end()

	id, err := h.creds.Register(ctx, name, email, password)
	if err != nil {
		h.logger.Warn("signup failed", logger.String("email", email), logger.Error(err))
		return domain.Identity{}, err
	}
	if err := h.activate(ctx, id); err != nil {
		return domain.Identity{}, err
	}

	h.logger.Info("signed up", logger.String("email", id.Email))
	h.emit(Event{Kind: EventSignup, Identity: copyIdentity(&id)})
	return id, nil
}

// Logout forgets the active identity, both persisted and in memory.
func (h *Holder) Logout(ctx context.Context) error {
	if h.State() == StateUninitialized {
		return ErrNotRestored
	}

	if err := h.backend.Remove(ctx, storage.KeyUser); err != nil {
		return fmt.Errorf("failed to clear identity: %w", err)
	}

	h.mu.Lock()
	prev := h.identity
	h.identity = nil
	h.state = StateAnonymous
	h.mu.Unlock()

	if prev != nil {
		h.logger.Info("logged out", logger.String("email", prev.Email))
	}
	h.emit(Event{Kind: EventLogout})
	return nil
}

// Current returns the active identity.
func (h *Holder) Current() (domain.Identity, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.identity == nil {
		return domain.Identity{}, false
	}
	return *h.identity, true
}

// State returns the current lifecycle state.
func (h *Holder) State() State {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return h.state
}

// Snapshot returns the externally visible session view.
func (h *Holder) Snapshot() Snapshot {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return Snapshot{
		Identity:       copyIdentity(h.identity),
		Authenticating: h.pending > 0,
		Authenticated:  h.identity != nil,
		State:          h.state.String(),
	}
}

// Subscribe registers fn for every session change. fn runs synchronously on
// the goroutine that caused the change. The returned func unsubscribes.
func (h *Holder) Subscribe(fn func(Event)) (unsubscribe func()) {
	h.subMu.Lock()
	id := h.nextSub
	h.nextSub++
	h.subscribers[id] = fn
	h.subMu.Unlock()

	return func() {
		h.subMu.Lock()
		delete(h.subscribers, id)
		h.subMu.Unlock()
	}
}

func (h *Holder) begin() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.state == StateUninitialized || h.state == StateRestoring {
		return ErrNotRestored
	}
	h.pending++
	return nil
}

func (h *Holder) end() {
	h.mu.Lock()
	h.pending--
	h.mu.Unlock()
}

// activate persists id and makes it the active identity.
func (h *Holder) activate(ctx context.Context, id domain.Identity) error {
	if err := storage.SaveJSON(ctx, h.backend, storage.KeyUser, id); err != nil {
		return err
	}

	h.mu.Lock()
	h.identity = &id
	h.state = StateAuthenticated
	h.mu.Unlock()
	return nil
}

func (h *Holder) emit(ev Event) {
	h.subMu.Lock()
	ids := make([]int, 0, len(h.subscribers))
	for id := range h.subscribers {
		ids = append(ids, id)
	}
	fns := make([]func(Event), 0, len(ids))
	sort.Ints(ids)
	for _, id := range ids {
		fns = append(fns, h.subscribers[id])
	}
	h.subMu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}

func copyIdentity(id *domain.Identity) *domain.Identity {
	if id == nil {
		return nil
	}
	c := *id
	return &c
}

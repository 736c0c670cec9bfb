// Package importer folds a CSV of repository names into the active
// account's bookmarks, validating every row against GitHub first.
package importer

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/MrSnakeDoc/gitmark/internal/domain"
	"github.com/MrSnakeDoc/gitmark/internal/logger"
	"github.com/google/uuid"
)

// DefaultLookupTimeout bounds a single repository lookup.
const DefaultLookupTimeout = 15 * time.Second

// Lookup resolves "owner/repo" to a repository. A nil repository with a nil
// error means not found.
type Lookup interface {
	GetRepository(ctx context.Context, fullName string) (*domain.Repository, error)
}

// Target receives the validated batch. AddMultipleFor must refuse the batch
// once email is no longer the active account.
type Target interface {
	Active() (string, bool)
	IDs() map[int64]struct{}
	AddMultipleFor(ctx context.Context, email string, entries []domain.BookmarkEntry) (int, error)
}

// Importer runs one CSV import at a time. A run is pinned to the account that
// was active when it began and fails if the session moves to another one.
type Importer struct {
	lookup        Lookup
	target        Target
	logger        logger.Logger
	now           func() time.Time
	lookupTimeout time.Duration

	mu     sync.Mutex
	status Status
	done   chan struct{}
}

// Option configures an Importer.
type Option func(*Importer)

// WithClock overrides the clock used for rows without a usable date.
func WithClock(now func() time.Time) Option {
	return func(i *Importer) { i.now = now }
}

// WithLookupTimeout sets the per-row lookup timeout. Zero disables it.
func WithLookupTimeout(d time.Duration) Option {
	return func(i *Importer) { i.lookupTimeout = d }
}

// New returns an Importer that resolves rows through lookup and commits them
// into target.
func New(lookup Lookup, target Target, log logger.Logger, opts ...Option) *Importer {
	i := &Importer{
		lookup:        lookup,
		target:        target,
		logger:        log,
		now:           time.Now,
		lookupTimeout: DefaultLookupTimeout,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Run imports src synchronously and closes it. It returns the number of
// bookmarks added.
func (i *Importer) Run(ctx context.Context, src io.ReadCloser) (int, error) {
	runID, email, done, err := i.begin(src)
	if err != nil {
		return 0, err
	}
	defer close(done)
	return i.run(ctx, runID, email, src)
}

// Start launches the import in the background and returns its run id.
// The caller owns ctx; cancelling it aborts the run.
func (i *Importer) Start(ctx context.Context, src io.ReadCloser) (string, error) {
	runID, email, done, err := i.begin(src)
	if err != nil {
		return "", err
	}
	go func() {
		defer close(done)
		_, _ = i.run(ctx, runID, email, src)
	}()
	return runID, nil
}

// Wait blocks until the current run, if any, has finished.
func (i *Importer) Wait() {
	i.mu.Lock()
	done := i.done
	i.mu.Unlock()
	if done != nil {
		<-done
	}
}

// Status returns the current or last run's status.
func (i *Importer) Status() Status {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.status
}

func (i *Importer) begin(src io.ReadCloser) (string, string, chan struct{}, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.status.Phase == PhaseLoading {
		_ = src.Close()
		return "", "", nil, domain.ErrImportInProgress
	}
	email, ok := i.target.Active()
	if !ok {
		_ = src.Close()
		return "", "", nil, domain.ErrNoActiveAccount
	}

	runID := uuid.NewString()
	i.status = Status{RunID: runID, Phase: PhaseLoading, StartedAt: i.now()}
	i.done = make(chan struct{})
	return runID, email, i.done, nil
}

func (i *Importer) run(ctx context.Context, runID, email string, src io.ReadCloser) (int, error) {
	defer src.Close()

	log := i.logger.With(logger.String("run_id", runID))
	log.Info("import started")

	count, err := i.process(ctx, log, email, src)
	i.finish(runID, count, err)

	if err != nil {
		log.Warn("import failed", logger.Error(err))
		return 0, err
	}
	log.Info("import finished", logger.Int("added", count))
	return count, nil
}

func (i *Importer) process(ctx context.Context, log logger.Logger, email string, src io.Reader) (int, error) {
	rows, err := parseRows(src)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", domain.ErrCSVParse, err)
	}

	seen := i.target.IDs()
	if err := i.checkAccount(email); err != nil {
		return 0, err
	}
	batch := make([]domain.BookmarkEntry, 0, len(rows))
	skipped := 0

	for _, rw := range rows {
		if err := ctx.Err(); err != nil {
			return 0, fmt.Errorf("%w: %w", domain.ErrImport, err)
		}
		if err := i.checkAccount(email); err != nil {
			return 0, err
		}
		if rw.fullName == "" {
			skipped++
			continue
		}

		repo, err := i.resolve(ctx, rw.fullName)
		if err != nil || repo == nil {
			log.Debug("import row skipped",
				logger.Int("line", rw.line),
				logger.String("full_name", rw.fullName),
				logger.Error(err))
			skipped++
			continue
		}
		if _, dup := seen[repo.ID]; dup {
			skipped++
			continue
		}
		seen[repo.ID] = struct{}{}

		at, ok := parseDate(rw.date)
		if !ok {
			at = i.now()
		}
		batch = append(batch, domain.NewBookmarkEntry(repo, at))
	}

	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("%w: %w", domain.ErrImport, err)
	}
	added, err := i.target.AddMultipleFor(ctx, email, batch)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", domain.ErrImport, err)
	}

	log.Debug("import batch committed",
		logger.Int("rows", len(rows)),
		logger.Int("skipped", skipped),
		logger.Int("added", added))
	return added, nil
}

func (i *Importer) checkAccount(email string) error {
	if active, ok := i.target.Active(); !ok || active != email {
		return fmt.Errorf("%w: %w", domain.ErrImport, domain.ErrAccountChanged)
	}
	return nil
}

func (i *Importer) resolve(ctx context.Context, fullName string) (*domain.Repository, error) {
	if i.lookupTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, i.lookupTimeout)
		defer cancel()
	}
	return i.lookup.GetRepository(ctx, fullName)
}

func (i *Importer) finish(runID string, count int, err error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.status.RunID != runID {
		return
	}
	i.status.FinishedAt = i.now()
	if err != nil {
		i.status.Phase = PhaseError
		i.status.Message = err.Error()
		return
	}
	i.status.Phase = PhaseSuccess
	i.status.Count = count
}

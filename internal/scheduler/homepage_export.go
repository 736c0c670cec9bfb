package scheduler

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/MrSnakeDoc/gitmark/internal/domain"
	"github.com/MrSnakeDoc/gitmark/internal/homepage"
	"github.com/MrSnakeDoc/gitmark/internal/logger"
	"github.com/MrSnakeDoc/gitmark/internal/session"
)

// DefaultExportInterval is used when no interval is configured
const DefaultExportInterval = time.Minute

// BookmarkSource is the read side of the bookmark store.
type BookmarkSource interface {
	List() []domain.BookmarkEntry
}

// SessionSource delivers session changes.
type SessionSource interface {
	Subscribe(fn func(session.Event)) (unsubscribe func())
}

// HomepageExporter keeps a Homepage bookmarks.yaml in sync with the active
// account's bookmarks. The file is rewritten only when its content changes.
type HomepageExporter struct {
	source   BookmarkSource
	sessions SessionSource
	path     string
	logger   logger.Logger
	interval time.Duration

	trigger chan struct{}
	stopCh  chan struct{}
	done    chan struct{}
	stop    sync.Once

	mu   sync.Mutex
	last []byte
}

// NewHomepageExporter creates an exporter writing to path.
// sessions may be nil, in which case only the ticker drives exports.
func NewHomepageExporter(
	source BookmarkSource,
	sessions SessionSource,
	path string,
	log logger.Logger,
	interval time.Duration,
) *HomepageExporter {
	if interval <= 0 {
		interval = DefaultExportInterval
	}
	return &HomepageExporter{
		source:   source,
		sessions: sessions,
		path:     path,
		logger:   log,
		interval: interval,
		trigger:  make(chan struct{}, 1),
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start writes the file once, then keeps it current until Stop or ctx ends.
func (he *HomepageExporter) Start(ctx context.Context) error {
	if _, err := he.Export(); err != nil {
		close(he.done)
		return fmt.Errorf("initial homepage export failed: %w", err)
	}

	unsubscribe := func() {}
	if he.sessions != nil {
		unsubscribe = he.sessions.Subscribe(func(session.Event) { he.Trigger() })
	}

	ticker := time.NewTicker(he.interval)
	go func() {
		defer close(he.done)
		defer ticker.Stop()
		defer unsubscribe()
		for {
			select {
			case <-ticker.C:
				he.exportLogged()
			case <-he.trigger:
				he.logger.Debug("homepage export triggered")
				he.exportLogged()
			case <-he.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Trigger asks for an export without waiting for the next tick.
func (he *HomepageExporter) Trigger() {
	select {
	case he.trigger <- struct{}{}:
	default:
	}
}

// Stop ends the loop and waits for it to exit.
func (he *HomepageExporter) Stop() {
	he.stop.Do(func() { close(he.stopCh) })
	<-he.done
}

// Export renders the bookmarks and writes the file if it changed.
// It reports whether the file was written.
func (he *HomepageExporter) Export() (bool, error) {
	entries := he.source.List()
	data, err := homepage.Marshal(entries)
	if err != nil {
		return false, err
	}

	he.mu.Lock()
	defer he.mu.Unlock()
	if he.last != nil && bytes.Equal(he.last, data) {
		return false, nil
	}
	if err := writeFileAtomic(he.path, data); err != nil {
		return false, err
	}
	he.last = data

	he.logger.Info("homepage bookmarks exported",
		logger.String("path", he.path),
		logger.Int("count", len(entries)))
	return true, nil
}

func (he *HomepageExporter) exportLogged() {
	if _, err := he.Export(); err != nil {
		he.logger.Error("failed to export homepage bookmarks",
			logger.String("path", he.path),
			logger.Error(err))
	}
}

// writeFileAtomic replaces path so readers never see a partial file.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".bookmarks-*.yaml")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", tmp.Name(), err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("failed to chmod %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}

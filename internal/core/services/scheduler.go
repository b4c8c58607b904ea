package services

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/sync/errgroup"

	"github.com/meridian-labs/briefing/internal/core/domain"
	"github.com/meridian-labs/briefing/internal/core/ports/driving"
	"github.com/meridian-labs/briefing/internal/logger"
)

// DefaultScanInterval is how often the watched directory is re-scanned
// when no file events arrive.
const DefaultScanInterval = 15 * time.Minute

// ingestConcurrency bounds parallel source ingestion during a scan.
const ingestConcurrency = 4

// Scheduler re-ingests a directory of extracted text files in the
// background. It has its own lifecycle (Start blocks, Stop drains) and
// talks to the rest of the system only through the Ingestor port; the
// request path never waits on it.
type Scheduler struct {
	ingestor driving.Ingestor
	dir      string
	interval time.Duration

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// NewScheduler creates a scheduler over the given directory. A
// non-positive interval falls back to DefaultScanInterval.
func NewScheduler(ingestor driving.Ingestor, dir string, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = DefaultScanInterval
	}
	return &Scheduler{
		ingestor: ingestor,
		dir:      dir,
		interval: interval,
	}
}

// Start begins the watch loop. It blocks until Stop is called or the
// context is cancelled. Calling Start on a running scheduler is a no-op.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.mu.Unlock()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Warn("file watcher unavailable, falling back to interval scans: %v", err)
	} else {
		defer watcher.Close()
		if err := watcher.Add(s.dir); err != nil {
			logger.Warn("cannot watch %s: %v", s.dir, err)
		}
	}

	// Initial scan so a fresh directory is searchable without waiting
	// for the first tick.
	s.scan(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	var events chan fsnotify.Event
	if watcher != nil {
		events = watcher.Events
	}

	for {
		select {
		case <-ctx.Done():
			s.finish()
			return ctx.Err()
		case <-s.stopCh:
			return nil
		case <-ticker.C:
			s.scan(ctx)
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if ev.Op.Has(fsnotify.Create) || ev.Op.Has(fsnotify.Write) {
				logger.Debug("file event %s, re-scanning", ev.Name)
				s.scan(ctx)
			}
		}
	}
}

// Stop shuts the scheduler down and waits for in-flight ingestion to
// finish. Stopping a stopped scheduler is a no-op.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.stopCh)
	s.mu.Unlock()

	s.wg.Wait()
}

func (s *Scheduler) finish() {
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
	s.wg.Wait()
}

// scan ingests every eligible file in the directory. Individual file
// failures are logged and do not abort the scan.
func (s *Scheduler) scan(ctx context.Context) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		logger.Warn("scan of %s failed: %v", s.dir, err)
		return
	}

	s.wg.Add(1)
	defer s.wg.Done()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ingestConcurrency)

	for _, entry := range entries {
		if entry.IsDir() || !eligible(entry.Name()) {
			continue
		}
		name := entry.Name()
		g.Go(func() error {
			path := filepath.Join(s.dir, name)
			data, err := os.ReadFile(path)
			if err != nil {
				logger.Warn("reading %s failed: %v", path, err)
				return nil
			}
			meta := domain.SourceMeta{Title: titleFrom(name), Category: "file"}
			if _, err := s.ingestor.Ingest(gctx, sourceIDFrom(name), string(data), meta); err != nil {
				logger.Warn("ingesting %s failed: %v", path, err)
			}
			return nil
		})
	}
	// Workers swallow their own errors; Wait only observes ctx cancellation.
	_ = g.Wait()
}

func eligible(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".txt", ".md":
		return true
	}
	return false
}

func sourceIDFrom(name string) string {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	return strings.ReplaceAll(strings.ToLower(base), " ", "-")
}

func titleFrom(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name))
}

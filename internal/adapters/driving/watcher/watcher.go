// Package watcher indexes documents as they land in a space folder.
//
// The spaces root holds one folder per space. Files placed directly inside
// a space folder are indexed into that space once writes have settled.
// Sub-folders of a space folder hold rendered page images and are ignored.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/spaces/internal/core/domain"
	"github.com/custodia-labs/spaces/internal/core/ports/driving"
	"github.com/custodia-labs/spaces/internal/logger"
)

// DefaultDebounce is how long a file must be quiet before it is indexed.
const DefaultDebounce = 2 * time.Second

// Config holds configuration for a Watcher.
type Config struct {
	// Root is the spaces root folder.
	Root string

	// Spaces limits watching to these spaces. Empty watches every space,
	// including ones created while running.
	Spaces []string

	// Debounce delays indexing until a file stops changing (default: 2s).
	Debounce time.Duration

	// Force reprocesses pages that are already indexed.
	Force bool

	// OnIndexed is called after every indexing attempt. Optional.
	OnIndexed func(req domain.IngestRequest, summary *domain.IngestionSummary, err error)
}

// Watcher feeds file events to an ingestion service.
type Watcher struct {
	ingestion driving.IngestionService
	root      string
	spaces    map[string]bool
	debounce  time.Duration
	force     bool
	onIndexed func(domain.IngestRequest, *domain.IngestionSummary, error)

	mu     sync.Mutex
	timers map[string]*time.Timer
}

// New creates a watcher over cfg.Root.
func New(ingestion driving.IngestionService, cfg Config) *Watcher {
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	var spaces map[string]bool
	if len(cfg.Spaces) > 0 {
		spaces = make(map[string]bool, len(cfg.Spaces))
		for _, s := range cfg.Spaces {
			spaces[s] = true
		}
	}
	root, err := filepath.Abs(cfg.Root)
	if err != nil {
		root = filepath.Clean(cfg.Root)
	}
	return &Watcher{
		ingestion: ingestion,
		root:      root,
		spaces:    spaces,
		debounce:  cfg.Debounce,
		force:     cfg.Force,
		onIndexed: cfg.OnIndexed,
		timers:    make(map[string]*time.Timer),
	}
}

// Run watches until ctx is cancelled. Indexing runs one document at a time
// on a single worker so a burst of files does not flood the providers.
func (w *Watcher) Run(ctx context.Context) error {
	if w.ingestion == nil {
		return errors.New("watcher: ingestion service is required")
	}
	if err := os.MkdirAll(w.root, 0o755); err != nil {
		return fmt.Errorf("create spaces root: %w", err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(w.root); err != nil {
		return fmt.Errorf("watch %s: %w", w.root, err)
	}
	if err := w.addSpaces(fsw); err != nil {
		return err
	}
	logger.Info("Watching %s", w.root)

	ready := make(chan domain.IngestRequest)
	jobs := make(chan domain.IngestRequest, 64)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		w.work(ctx, jobs)
	}()
	defer func() {
		w.stopTimers()
		close(jobs)
		wg.Wait()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case req := <-ready:
			select {
			case jobs <- req:
			case <-ctx.Done():
				return nil
			}

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if space, ok := w.newSpace(event); ok {
				if err := fsw.Add(event.Name); err != nil {
					logger.Warn("Cannot watch space %q: %v", space, err)
					continue
				}
				logger.Info("Watching new space %q", space)
				continue
			}
			if req, ok := w.handleEvent(event); ok {
				w.schedule(ctx, req, ready)
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watcher error: %v", err)
		}
	}
}

// addSpaces watches every existing space folder in scope.
func (w *Watcher) addSpaces(fsw *fsnotify.Watcher) error {
	entries, err := os.ReadDir(w.root)
	if err != nil {
		return fmt.Errorf("read spaces root: %w", err)
	}
	for _, e := range entries {
		if !e.IsDir() || isHidden(e.Name()) || !w.inScope(e.Name()) {
			continue
		}
		dir := filepath.Join(w.root, e.Name())
		if err := fsw.Add(dir); err != nil {
			return fmt.Errorf("watch space %q: %w", e.Name(), err)
		}
		logger.Debug("Watching space %q", e.Name())
	}
	return nil
}

// newSpace reports whether event created a space folder to start watching.
func (w *Watcher) newSpace(event fsnotify.Event) (string, bool) {
	if !event.Has(fsnotify.Create) || filepath.Dir(event.Name) != w.root {
		return "", false
	}
	name := filepath.Base(event.Name)
	if isHidden(name) || !w.inScope(name) {
		return "", false
	}
	info, err := os.Stat(event.Name)
	if err != nil || !info.IsDir() {
		return "", false
	}
	return name, true
}

// handleEvent maps a file event to an ingest request. Only creates and
// writes of visible regular files directly inside a space folder count.
func (w *Watcher) handleEvent(event fsnotify.Event) (domain.IngestRequest, bool) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return domain.IngestRequest{}, false
	}

	dir := filepath.Dir(event.Name)
	if filepath.Dir(dir) != w.root {
		return domain.IngestRequest{}, false
	}
	space := filepath.Base(dir)
	if isHidden(space) || isHidden(filepath.Base(event.Name)) || !w.inScope(space) {
		return domain.IngestRequest{}, false
	}

	info, err := os.Stat(event.Name)
	if err != nil || !info.Mode().IsRegular() {
		return domain.IngestRequest{}, false
	}
	return domain.IngestRequest{Space: space, Path: event.Name, Force: w.force}, true
}

// schedule (re)starts the quiet timer for req.Path.
func (w *Watcher) schedule(ctx context.Context, req domain.IngestRequest, ready chan<- domain.IngestRequest) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.timers[req.Path]; ok {
		t.Stop()
	}
	w.timers[req.Path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.timers, req.Path)
		w.mu.Unlock()

		select {
		case ready <- req:
		case <-ctx.Done():
		}
	})
}

func (w *Watcher) stopTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, t := range w.timers {
		t.Stop()
		delete(w.timers, path)
	}
}

func (w *Watcher) work(ctx context.Context, jobs <-chan domain.IngestRequest) {
	for req := range jobs {
		if ctx.Err() != nil {
			continue
		}
		summary, err := w.ingestion.Ingest(ctx, req)
		switch {
		case errors.Is(err, domain.ErrUnsupportedType):
			logger.Debug("Skipping %s: unsupported type", filepath.Base(req.Path))
		case err != nil:
			logger.Warn("Indexing %s failed: %v", filepath.Base(req.Path), err)
		default:
			logger.Info("Indexed %s into %q: %d pages indexed, %d skipped, %d failed",
				summary.Source, req.Space, summary.PagesIndexed, summary.PagesSkipped, summary.PagesFailed)
		}
		if w.onIndexed != nil {
			w.onIndexed(req, summary, err)
		}
	}
}

func (w *Watcher) inScope(space string) bool {
	return w.spaces == nil || w.spaces[space]
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}

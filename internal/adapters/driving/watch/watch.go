// Package watch re-ingests documents as they change inside a directory.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/documind/internal/core/domain"
	"github.com/custodia-labs/documind/internal/core/ports/driving"
	"github.com/custodia-labs/documind/internal/logger"
)

// DefaultDebounce is how long the watcher waits for a burst of writes to
// settle before ingesting.
const DefaultDebounce = 500 * time.Millisecond

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet period before pending files are ingested.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithReportHandler is called with the report of every ingestion run.
func WithReportHandler(fn func(driving.IngestReport)) Option {
	return func(w *Watcher) {
		w.onReport = fn
	}
}

// Watcher watches a directory tree and re-ingests supported documents,
// replacing their previous entries, when they are created or written.
type Watcher struct {
	root     string
	ingest   driving.IngestService
	debounce time.Duration
	onReport func(driving.IngestReport)

	readyOnce sync.Once
	ready     chan struct{}
}

// New creates a watcher for root. Nothing is watched until Run.
func New(root string, ingest driving.IngestService, opts ...Option) *Watcher {
	w := &Watcher{
		root:     root,
		ingest:   ingest,
		debounce: DefaultDebounce,
		ready:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Ready is closed once the directory tree is being watched.
func (w *Watcher) Ready() <-chan struct{} {
	return w.ready
}

// Run watches until ctx is cancelled. Pending files are ingested before
// it returns only if their debounce period has elapsed.
func (w *Watcher) Run(ctx context.Context) error {
	if w.ingest == nil {
		return fmt.Errorf("%w: no ingest service", domain.ErrInvalidInput)
	}
	info, err := os.Stat(w.root)
	if err != nil {
		return fmt.Errorf("root path error: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("root path error: %s is not a directory", w.root)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fsw.Close()

	if err := w.addTree(fsw, w.root); err != nil {
		return err
	}
	logger.Info("watching %s for document changes", w.root)
	w.readyOnce.Do(func() { close(w.ready) })

	pending := make(map[string]struct{})
	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if w.isNewDir(event) {
				if err := w.addTree(fsw, event.Name); err != nil {
					logger.Warn("watch %s: %v", event.Name, err)
				}
				continue
			}
			path, ok := w.handleEvent(event)
			if !ok {
				continue
			}
			pending[path] = struct{}{}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch %s: %v", w.root, err)

		case <-fire:
			fire = nil
			w.flush(ctx, pending)
			pending = make(map[string]struct{})
		}
	}
}

// handleEvent returns the file to re-ingest for event, if any.
func (w *Watcher) handleEvent(event fsnotify.Event) (string, bool) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return "", false
	}
	rel, err := filepath.Rel(w.root, event.Name)
	if err != nil || isHidden(rel) {
		return "", false
	}
	if !Supported(event.Name) {
		return "", false
	}
	info, err := os.Stat(event.Name)
	if err != nil || !info.Mode().IsRegular() {
		return "", false
	}
	return event.Name, true
}

func (w *Watcher) isNewDir(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Create) {
		return false
	}
	info, err := os.Stat(event.Name)
	return err == nil && info.IsDir()
}

// addTree watches dir and every non-hidden directory below it.
func (w *Watcher) addTree(fsw *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if rel, _ := filepath.Rel(w.root, path); isHidden(rel) {
			return filepath.SkipDir
		}
		if err := fsw.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}

func (w *Watcher) flush(ctx context.Context, pending map[string]struct{}) {
	if len(pending) == 0 {
		return
	}
	paths := make([]string, 0, len(pending))
	for p := range pending {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	logger.Debug("re-ingesting %d changed file(s)", len(paths))
	report, err := w.ingest.IngestFiles(ctx, paths, driving.IngestOptions{Replace: true})
	if err != nil {
		logger.Error("re-ingest failed: %v", err)
		return
	}
	for _, f := range report.Failures() {
		logger.Warn("skipped %s: %v", f.Path, f.Err)
	}
	if w.onReport != nil {
		w.onReport(report)
	}
}

// Supported reports whether path has an extension the ingester can read.
func Supported(path string) bool {
	st, _ := domain.SourceTypeFromFilename(path)
	return st.IsValid()
}

// isHidden reports whether any element of path starts with a dot.
// "." and ".." are not hidden.
func isHidden(path string) bool {
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part == "" || part == "." || part == ".." {
			continue
		}
		if strings.HasPrefix(part, ".") {
			return true
		}
	}
	return false
}

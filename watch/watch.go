// Package watch runs the versioning pipeline whenever a tracked document
// changes on disk, for setups without an editing host that emits hook
// events.
//
// Events are debounced and then handled one at a time, in the order the
// files were first touched, so the pipeline still sees a single event at a
// time. Writing "Last Updated" back to the document triggers one more
// event; the watcher remembers the content it last handled and skips that
// echo.
package watch

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/deepnoodle-ai/skillver"
	"github.com/deepnoodle-ai/skillver/slogger"
	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period before pending changes are handled.
const DefaultDebounce = 500 * time.Millisecond

// Handler runs the pipeline for one file. *skillver.Dispatcher implements it.
type Handler interface {
	HandleFile(ctx context.Context, path string) skillver.Result
}

// Options configures a Watcher.
type Options struct {
	// Roots are directories watched recursively.
	Roots []string

	// Filename is the tracked document name. Defaults to SKILL.md.
	Filename string

	// SkipDirs are directory names never descended into.
	// Defaults to releases and .git.
	SkipDirs []string

	// Debounce defaults to DefaultDebounce.
	Debounce time.Duration

	// Logger defaults to slogger.DefaultLogger.
	Logger slogger.Logger

	// OnResult, if set, is called after each handled file.
	OnResult func(path string, r skillver.Result)
}

// Watcher watches skill directories.
type Watcher struct {
	handler Handler
	opts    Options
	fsw     *fsnotify.Watcher
	skip    map[string]bool
	handled map[string][32]byte
	pending []string
	queued  map[string]bool
}

// New creates a Watcher. Call Run to start watching.
func New(handler Handler, opts Options) (*Watcher, error) {
	if handler == nil {
		return nil, errors.New("watch: handler is required")
	}
	if len(opts.Roots) == 0 {
		return nil, errors.New("watch: at least one root is required")
	}
	if opts.Filename == "" {
		opts.Filename = "SKILL.md"
	}
	if len(opts.SkipDirs) == 0 {
		opts.SkipDirs = []string{"releases", ".git"}
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Logger == nil {
		opts.Logger = slogger.DefaultLogger
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	skip := make(map[string]bool, len(opts.SkipDirs))
	for _, d := range opts.SkipDirs {
		skip[d] = true
	}
	return &Watcher{
		handler: handler,
		opts:    opts,
		fsw:     fsw,
		skip:    skip,
		handled: make(map[string][32]byte),
		queued:  make(map[string]bool),
	}, nil
}

// Close releases the underlying watcher.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

// Run watches until ctx is cancelled or the watcher is closed.
func (w *Watcher) Run(ctx context.Context) error {
	for _, root := range w.opts.Roots {
		if _, err := w.addTree(root); err != nil {
			return err
		}
	}
	w.opts.Logger.Info("watching for skill changes", "roots", w.opts.Roots)

	timer := time.NewTimer(w.opts.Debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if w.observe(event) {
				timer.Reset(w.opts.Debounce)
			}

		case <-timer.C:
			w.flush(ctx)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.opts.Logger.Warn("watcher error", "error", err)
		}
	}
}

// observe records event and reports whether a document is now pending.
func (w *Watcher) observe(event fsnotify.Event) bool {
	if event.Op.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			// Documents written before the directory was watched
			docs, err := w.addTree(event.Name)
			if err != nil {
				w.opts.Logger.Warn("failed to watch new directory", "path", event.Name, "error", err)
			}
			for _, doc := range docs {
				w.enqueue(doc)
			}
			return len(docs) > 0
		}
	}
	if !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) {
		return false
	}
	if filepath.Base(event.Name) != w.opts.Filename {
		return false
	}
	w.enqueue(event.Name)
	return true
}

func (w *Watcher) enqueue(path string) {
	if w.queued[path] {
		return
	}
	w.queued[path] = true
	w.pending = append(w.pending, path)
}

// flush handles every pending document in arrival order.
func (w *Watcher) flush(ctx context.Context) {
	pending := w.pending
	w.pending = nil
	w.queued = make(map[string]bool)

	for _, path := range pending {
		if ctx.Err() != nil {
			return
		}
		w.handle(ctx, path)
	}
}

func (w *Watcher) handle(ctx context.Context, path string) {
	sum, err := checksum(path)
	if err != nil {
		w.opts.Logger.Debug("skipping unreadable document", "path", path, "error", err)
		return
	}
	if prev, ok := w.handled[path]; ok && prev == sum {
		w.opts.Logger.Debug("document unchanged since last run", "path", path)
		return
	}

	result := w.handler.HandleFile(ctx, path)

	// Remember the content as it is after the pipeline patched it.
	if after, err := checksum(path); err == nil {
		w.handled[path] = after
	}
	if w.opts.OnResult != nil {
		w.opts.OnResult(path, result)
	}
}

// addTree watches root and every directory below it, except skipped ones.
// It returns the tracked documents already present in the tree.
func (w *Watcher) addTree(root string) ([]string, error) {
	var docs []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return fmt.Errorf("watching %s: %w", root, err)
			}
			return nil
		}
		if !d.IsDir() {
			if d.Name() == w.opts.Filename {
				docs = append(docs, path)
			}
			return nil
		}
		if path != root && w.skip[d.Name()] {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			return fmt.Errorf("watching %s: %w", path, err)
		}
		return nil
	})
	return docs, err
}

func checksum(path string) ([32]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return [32]byte{}, err
	}
	return sha256.Sum256(data), nil
}

package watch

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/deepnoodle-ai/skillver"
	"github.com/deepnoodle-ai/wonton/assert"
	"github.com/fsnotify/fsnotify"
)

type recordingHandler struct {
	mu    sync.Mutex
	paths []string
	// patch, if set, is written to the file on each call to mimic the
	// pipeline updating Last Updated.
	patch string
	calls chan string
}

func (h *recordingHandler) HandleFile(ctx context.Context, path string) skillver.Result {
	h.mu.Lock()
	h.paths = append(h.paths, path)
	h.mu.Unlock()
	if h.patch != "" {
		os.WriteFile(path, []byte(h.patch), 0o644)
	}
	if h.calls != nil {
		h.calls <- path
	}
	return skillver.Result{Action: skillver.Processed}
}

func (h *recordingHandler) seen() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.paths...)
}

func newTestWatcher(t *testing.T, h Handler, root string) *Watcher {
	t.Helper()
	w, err := New(h, Options{Roots: []string{root}, Debounce: 20 * time.Millisecond})
	assert.NoError(t, err)
	t.Cleanup(func() { w.Close() })
	return w
}

func TestNewValidation(t *testing.T) {
	_, err := New(nil, Options{Roots: []string{"."}})
	assert.Error(t, err)
	_, err = New(&recordingHandler{}, Options{})
	assert.Error(t, err)
}

func TestObserveAndFlush(t *testing.T) {
	root := t.TempDir()
	a := filepath.Join(root, "skills", "a", "SKILL.md")
	b := filepath.Join(root, "skills", "b", "SKILL.md")
	for _, p := range []string{a, b} {
		assert.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		assert.NoError(t, os.WriteFile(p, []byte("Version: 1.0.0"), 0o644))
	}

	h := &recordingHandler{}
	w := newTestWatcher(t, h, root)

	assert.True(t, w.observe(fsnotify.Event{Name: b, Op: fsnotify.Write}))
	assert.True(t, w.observe(fsnotify.Event{Name: a, Op: fsnotify.Write}))
	assert.True(t, w.observe(fsnotify.Event{Name: b, Op: fsnotify.Write}))
	assert.False(t, w.observe(fsnotify.Event{Name: filepath.Join(root, "skills", "a", "notes.md"), Op: fsnotify.Write}))
	assert.False(t, w.observe(fsnotify.Event{Name: a, Op: fsnotify.Remove}))

	w.flush(context.Background())
	assert.Equal(t, []string{b, a}, h.seen())

	// Unchanged content is not handled again
	assert.True(t, w.observe(fsnotify.Event{Name: a, Op: fsnotify.Write}))
	w.flush(context.Background())
	assert.Equal(t, []string{b, a}, h.seen())

	// Changed content is
	assert.NoError(t, os.WriteFile(a, []byte("Version: 1.1.0"), 0o644))
	w.observe(fsnotify.Event{Name: a, Op: fsnotify.Write})
	w.flush(context.Background())
	assert.Equal(t, []string{b, a, a}, h.seen())
}

func TestEchoOfPatchIsSkipped(t *testing.T) {
	root := t.TempDir()
	doc := filepath.Join(root, "skills", "demo", "SKILL.md")
	assert.NoError(t, os.MkdirAll(filepath.Dir(doc), 0o755))
	assert.NoError(t, os.WriteFile(doc, []byte("Last Updated: 2020-01-01"), 0o644))

	h := &recordingHandler{patch: "Last Updated: 2026-10-14"}
	w := newTestWatcher(t, h, root)

	w.observe(fsnotify.Event{Name: doc, Op: fsnotify.Write})
	w.flush(context.Background())
	// The write made by the handler arrives as a new event
	w.observe(fsnotify.Event{Name: doc, Op: fsnotify.Write})
	w.flush(context.Background())

	assert.Equal(t, []string{doc}, h.seen())
}

func TestAddTreeSkipsArchives(t *testing.T) {
	root := t.TempDir()
	doc := filepath.Join(root, "skills", "demo", "SKILL.md")
	snapshot := filepath.Join(root, "skills", "demo", "releases", "SKILL.md")
	for _, p := range []string{doc, snapshot} {
		assert.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		assert.NoError(t, os.WriteFile(p, []byte("x"), 0o644))
	}

	w := newTestWatcher(t, &recordingHandler{}, root)
	docs, err := w.addTree(root)
	assert.NoError(t, err)
	assert.Equal(t, []string{doc}, docs)
	watched := w.fsw.WatchList()
	assert.False(t, slices.Contains(watched, filepath.Join(root, "skills", "demo", "releases")))
	assert.True(t, slices.Contains(watched, filepath.Join(root, "skills", "demo")))
}

func TestRun(t *testing.T) {
	root := t.TempDir()
	skillDir := filepath.Join(root, "skills", "demo")
	assert.NoError(t, os.MkdirAll(skillDir, 0o755))

	h := &recordingHandler{calls: make(chan string, 4)}
	w := newTestWatcher(t, h, root)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// Give the watcher a moment to register the tree
	time.Sleep(100 * time.Millisecond)
	doc := filepath.Join(skillDir, "SKILL.md")
	assert.NoError(t, os.WriteFile(doc, []byte("**Version**: 1.0.0"), 0o644))

	select {
	case got := <-h.calls:
		assert.Equal(t, doc, got)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for the watcher")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestRunMissingRoot(t *testing.T) {
	w := newTestWatcher(t, &recordingHandler{}, filepath.Join(t.TempDir(), "missing"))
	err := w.Run(context.Background())
	assert.Error(t, err)
}

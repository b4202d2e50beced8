package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder captures change batches for testing (thread-safe).
type recorder struct {
	mu      sync.Mutex
	batches [][]string
	signal  chan struct{}
}

func newRecorder() *recorder {
	return &recorder{signal: make(chan struct{}, 16)}
}

func (r *recorder) onChange(paths []string) {
	r.mu.Lock()
	r.batches = append(r.batches, paths)
	r.mu.Unlock()
	r.signal <- struct{}{}
}

func (r *recorder) wait(t *testing.T) []string {
	t.Helper()
	select {
	case <-r.signal:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for change batch")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.batches[len(r.batches)-1]
}

func (r *recorder) expectNone(t *testing.T, d time.Duration) {
	t.Helper()
	select {
	case <-r.signal:
		r.mu.Lock()
		defer r.mu.Unlock()
		t.Fatalf("unexpected change batch: %v", r.batches[len(r.batches)-1])
	case <-time.After(d):
	}
}

type fixture struct {
	root       string
	skills     string
	categories string
	rec        *recorder
}

func startWatcher(t *testing.T) *fixture {
	t.Helper()

	root := t.TempDir()
	f := &fixture{
		root:       root,
		skills:     filepath.Join(root, "skills"),
		categories: filepath.Join(root, "skill_categories.json"),
		rec:        newRecorder(),
	}
	require.NoError(t, os.MkdirAll(filepath.Join(f.skills, "combat"), 0755))
	require.NoError(t, os.WriteFile(f.categories, []byte(`{"attributes": {}}`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(f.skills, "combat", "sword.json"), []byte(`{"name": "sword"}`), 0644))

	w, err := New(&Config{
		SkillsDir:      f.skills,
		CategoriesPath: f.categories,
		DebounceMs:     50,
		OnChange:       f.rec.onChange,
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- w.Start(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-errCh
	})

	select {
	case <-w.Ready():
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not start")
	}
	return f
}

func write(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestNew_RequiresCallback(t *testing.T) {
	_, err := New(&Config{SkillsDir: t.TempDir()})
	assert.Error(t, err)

	_, err = New(nil)
	assert.Error(t, err)
}

func TestWatcher_SkillWrite(t *testing.T) {
	f := startWatcher(t)
	path := filepath.Join(f.skills, "combat", "axe.json")

	write(t, path, `{"name": "axe"}`)

	assert.Equal(t, []string{path}, f.rec.wait(t))
}

func TestWatcher_CategoriesWrite(t *testing.T) {
	f := startWatcher(t)

	write(t, f.categories, `{"attributes": {"combat": {}}}`)

	assert.Equal(t, []string{f.categories}, f.rec.wait(t))
}

func TestWatcher_IgnoresUnchangedContent(t *testing.T) {
	f := startWatcher(t)

	write(t, filepath.Join(f.skills, "combat", "sword.json"), `{"name": "sword"}`)

	f.rec.expectNone(t, 300*time.Millisecond)
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	f := startWatcher(t)

	write(t, filepath.Join(f.skills, "combat", "notes.txt"), "todo")
	write(t, filepath.Join(f.root, "README.md"), "readme")

	f.rec.expectNone(t, 300*time.Millisecond)
}

func TestWatcher_Remove(t *testing.T) {
	f := startWatcher(t)
	path := filepath.Join(f.skills, "combat", "sword.json")

	require.NoError(t, os.Remove(path))

	assert.Equal(t, []string{path}, f.rec.wait(t))
}

func TestWatcher_NewDirectory(t *testing.T) {
	f := startWatcher(t)
	dir := filepath.Join(f.skills, "magic")
	require.NoError(t, os.Mkdir(dir, 0755))
	assert.Contains(t, f.rec.wait(t), dir)

	path := filepath.Join(dir, "fire.json")
	write(t, path, `{"name": "fire"}`)

	assert.Equal(t, []string{path}, f.rec.wait(t))
}

func TestDebouncer_Coalesces(t *testing.T) {
	var mu sync.Mutex
	var got [][]string
	fired := make(chan struct{}, 4)

	d := NewDebouncer(50, func(paths []string) {
		mu.Lock()
		got = append(got, paths)
		mu.Unlock()
		fired <- struct{}{}
	})
	defer d.Stop()

	d.Trigger("b.json")
	d.Trigger("a.json")
	d.Trigger("b.json")
	assert.Equal(t, 2, d.PendingCount())

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("debouncer did not fire")
	}

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, got, 1)
	assert.Equal(t, []string{"a.json", "b.json"}, got[0])
	assert.Equal(t, 0, d.PendingCount())
}

func TestDebouncer_Stop(t *testing.T) {
	fired := make(chan struct{}, 1)
	d := NewDebouncer(20, func([]string) { fired <- struct{}{} })

	d.Trigger("a.json")
	d.Stop()
	d.Trigger("b.json")

	select {
	case <-fired:
		t.Fatal("debouncer fired after Stop")
	case <-time.After(150 * time.Millisecond):
	}
	assert.Equal(t, 0, d.PendingCount())
}

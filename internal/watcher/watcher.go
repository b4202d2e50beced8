// Package watcher watches a skill catalog (the categories document and every
// JSON file under the skills root) and reports debounced batches of changed
// files.
package watcher

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Config configures the file watcher.
type Config struct {
	SkillsDir      string
	CategoriesPath string
	Logger         *slog.Logger
	DebounceMs     int // Debounce interval in milliseconds (default: 300)
	// OnChange is called on the goroutine running Start with the sorted
	// paths whose content changed during the quiet period.
	OnChange func(paths []string)
}

// Watcher monitors a skill catalog for file changes.
type Watcher struct {
	skillsDir      string
	categoriesPath string
	logger         *slog.Logger
	onChange       func(paths []string)

	fsWatcher *fsnotify.Watcher
	debouncer *Debouncer
	changes   chan []string

	// Content hashing to detect meaningful changes
	hashes   map[string]string
	hashesMu sync.Mutex

	// Lifecycle
	ready    chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// New creates a new file watcher.
func New(cfg *Config) (*Watcher, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if cfg.OnChange == nil {
		return nil, fmt.Errorf("change callback is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	debounceMs := cfg.DebounceMs
	if debounceMs <= 0 {
		debounceMs = 300
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}

	w := &Watcher{
		skillsDir:      filepath.Clean(cfg.SkillsDir),
		categoriesPath: filepath.Clean(cfg.CategoriesPath),
		logger:         logger,
		onChange:       cfg.OnChange,
		fsWatcher:      fsWatcher,
		changes:        make(chan []string, 1),
		hashes:         make(map[string]string),
		ready:          make(chan struct{}),
		done:           make(chan struct{}),
	}
	w.debouncer = NewDebouncer(debounceMs, w.deliver)
	return w, nil
}

// Start begins watching and blocks until the context is cancelled or the
// watcher is stopped. Change callbacks run on the calling goroutine.
func (w *Watcher) Start(ctx context.Context) error {
	// The categories document is watched through its directory so that
	// editors replacing the file on save are still seen.
	if err := w.fsWatcher.Add(filepath.Dir(w.categoriesPath)); err != nil {
		w.logger.Warn("failed to watch categories directory", "error", err)
	}
	w.seedHash(w.categoriesPath)

	if _, err := os.Stat(w.skillsDir); os.IsNotExist(err) {
		w.logger.Debug("skills directory does not exist, will watch when created", "path", w.skillsDir)
		if err := w.fsWatcher.Add(filepath.Dir(w.skillsDir)); err != nil {
			w.logger.Warn("failed to watch skills parent directory", "error", err)
		}
	} else {
		w.addWatchRecursive(w.skillsDir)
	}

	w.logger.Debug("file watcher started", "skills_dir", w.skillsDir, "categories", w.categoriesPath)
	close(w.ready)

	for {
		select {
		case <-ctx.Done():
			_ = w.Stop()
			return ctx.Err()

		case <-w.done:
			return nil

		case paths := <-w.changes:
			if changed := w.filterChanged(paths); len(changed) > 0 {
				w.onChange(changed)
			}

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return nil
			}
			w.handleFSEvent(event)

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("fsnotify error", "error", err)
		}
	}
}

// Ready returns a channel that's closed once the initial watches are in place.
func (w *Watcher) Ready() <-chan struct{} {
	return w.ready
}

// Stop shuts down the watcher. It is safe to call more than once.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.done)
		w.debouncer.Stop()
		if cerr := w.fsWatcher.Close(); cerr != nil {
			err = fmt.Errorf("close fsnotify watcher: %w", cerr)
		}
	})
	return err
}

// deliver hands a debounced batch to the Start loop.
func (w *Watcher) deliver(paths []string) {
	select {
	case w.changes <- paths:
	case <-w.done:
	}
}

// addWatchRecursive watches dir and every subdirectory, and records the
// current content hash of each skill document found.
func (w *Watcher) addWatchRecursive(dir string) {
	_ = filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil // Skip paths with errors
		}
		if d.IsDir() {
			if err := w.fsWatcher.Add(path); err != nil {
				w.logger.Debug("failed to watch directory", "path", path, "error", err)
			}
			return nil
		}
		if w.isSkillFile(path) {
			w.seedHash(path)
		}
		return nil
	})
}

// handleFSEvent processes a raw fsnotify event.
func (w *Watcher) handleFSEvent(event fsnotify.Event) {
	path := filepath.Clean(event.Name)

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if path == w.skillsDir || w.underSkills(path) {
				w.logger.Debug("new directory detected, adding watch", "path", path)
				w.addWatchRecursive(path)
				w.debouncer.Trigger(path)
			}
			return
		}
	}

	if path != w.categoriesPath && !w.isSkillFile(path) {
		return
	}

	w.logger.Debug("catalog fs event", "op", event.Op.String(), "path", path)
	w.debouncer.Trigger(path)
}

// filterChanged keeps the paths whose content differs from the last seen
// version. Content is compared after the quiet period, so a truncate and
// rewrite with identical bytes is not a change.
func (w *Watcher) filterChanged(paths []string) []string {
	var changed []string
	for _, p := range paths {
		if w.contentChanged(p) {
			changed = append(changed, p)
		} else {
			w.logger.Debug("content unchanged, skipping event", "path", p)
		}
	}
	return changed
}

func (w *Watcher) underSkills(path string) bool {
	return strings.HasPrefix(path, w.skillsDir+string(filepath.Separator))
}

func (w *Watcher) isSkillFile(path string) bool {
	return w.underSkills(path) && strings.HasSuffix(path, ".json")
}

// seedHash records the current hash of path, if it is readable.
func (w *Watcher) seedHash(path string) {
	if h, err := hashFile(path); err == nil {
		w.hashesMu.Lock()
		w.hashes[path] = h
		w.hashesMu.Unlock()
	}
}

// contentChanged reports whether path changed since the last check and
// updates the stored hash. Directories always count as changed; a file that
// is gone counts as changed if it was seen before.
func (w *Watcher) contentChanged(path string) bool {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return true
	}

	newHash, err := hashFile(path)

	w.hashesMu.Lock()
	defer w.hashesMu.Unlock()

	oldHash, exists := w.hashes[path]
	if err != nil {
		delete(w.hashes, path)
		return exists
	}
	if exists && oldHash == newHash {
		return false
	}

	w.hashes[path] = newHash
	return true
}

// hashFile computes the SHA256 hash of a file's contents.
func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// Package watch monitors Python sources for changes so the converter
// can re-run on save. Directories are watched recursively; only .py
// and .pyw files surface as events.
package watch

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Event is one source file that changed on disk.
type Event struct {
	Path string
}

// Watcher debounces filesystem notifications into per-file events.
type Watcher struct {
	w        *fsnotify.Watcher
	evC      chan Event
	erC      chan error
	done     chan struct{}
	debounce time.Duration
}

// New starts watching the given files and directories. Directories
// added later under a watched tree are picked up automatically.
func New(roots []string) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		w:        fw,
		evC:      make(chan Event, 128),
		erC:      make(chan error, 1),
		done:     make(chan struct{}),
		debounce: 100 * time.Millisecond,
	}
	for _, root := range roots {
		if err := w.add(root); err != nil {
			fw.Close()
			return nil, err
		}
	}
	go w.loop()
	return w, nil
}

func (w *Watcher) add(root string) error {
	info, err := os.Stat(root)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return w.w.Add(root)
	}
	return filepath.Walk(root, func(path string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if fi.IsDir() {
			return w.w.Add(path)
		}
		return nil
	})
}

func (w *Watcher) loop() {
	// Editors fire several notifications per save; collapse bursts
	// before reporting.
	pending := make(map[string]time.Time)
	tick := time.NewTicker(w.debounce)
	defer tick.Stop()
	for {
		select {
		case ev, ok := <-w.w.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
				if ev.Op&fsnotify.Create != 0 {
					w.w.Add(ev.Name)
				}
				continue
			}
			if !IsSource(ev.Name) {
				continue
			}
			pending[ev.Name] = time.Now()
		case err, ok := <-w.w.Errors:
			if !ok {
				return
			}
			select {
			case w.erC <- err:
			default:
			}
		case now := <-tick.C:
			for path, stamp := range pending {
				if now.Sub(stamp) < w.debounce {
					continue
				}
				delete(pending, path)
				select {
				case w.evC <- Event{Path: path}:
				case <-w.done:
					return
				}
			}
		case <-w.done:
			return
		}
	}
}

// Events delivers changed source files.
func (w *Watcher) Events() <-chan Event { return w.evC }

// Errors delivers watcher failures.
func (w *Watcher) Errors() <-chan error { return w.erC }

// Close stops the watcher.
func (w *Watcher) Close() error {
	close(w.done)
	return w.w.Close()
}

// IsSource reports whether path names a Python source file.
func IsSource(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".py", ".pyw":
		return true
	}
	return false
}

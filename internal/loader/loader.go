// Package loader reads document content from files and watches them for
// external changes so a host can reload.
package loader

import (
	"errors"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Errors returned by loader operations.
var (
	ErrWatcherClosed = errors.New("watcher is closed")
	ErrNotWatching   = errors.New("path is not watched")
)

// Load reads the whole file into a string.
func Load(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Watcher reports writes to watched files. Callbacks run on the watcher's
// goroutine and must not block.
type Watcher struct {
	mu sync.Mutex

	watcher *fsnotify.Watcher
	paths   map[string]func(path string)

	closed  bool
	closeCh chan struct{}
	doneWg  sync.WaitGroup
}

// NewWatcher creates a file watcher.
func NewWatcher() (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		watcher: fsw,
		paths:   make(map[string]func(string)),
		closeCh: make(chan struct{}),
	}
	w.doneWg.Add(1)
	go w.processLoop()
	return w, nil
}

// Watch registers a callback for writes to path.
func (w *Watcher) Watch(path string, onWrite func(path string)) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrWatcherClosed
	}
	if err := w.watcher.Add(absPath); err != nil {
		return err
	}
	w.paths[absPath] = onWrite
	return nil
}

// Unwatch removes a path.
func (w *Watcher) Unwatch(path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrWatcherClosed
	}
	if _, ok := w.paths[absPath]; !ok {
		return ErrNotWatching
	}
	if err := w.watcher.Remove(absPath); err != nil {
		return err
	}
	delete(w.paths, absPath)
	return nil
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	close(w.closeCh)
	w.mu.Unlock()

	err := w.watcher.Close()
	w.doneWg.Wait()
	return err
}

func (w *Watcher) processLoop() {
	defer w.doneWg.Done()

	for {
		select {
		case <-w.closeCh:
			return

		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			w.mu.Lock()
			onWrite := w.paths[ev.Name]
			w.mu.Unlock()
			if onWrite != nil {
				onWrite(ev.Name)
			}

		case _, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
		}
	}
}

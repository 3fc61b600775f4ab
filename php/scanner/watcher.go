package scanner

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Watcher rescans source files of the scanner's roots as they change on
// disk.
type Watcher struct {
	scanner *Scanner
	fs      *fsnotify.Watcher
	filter  Filter

	mu   sync.Mutex
	dirs map[string]bool

	done chan struct{}
	wg   sync.WaitGroup
}

func NewWatcher(s *Scanner) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	w := &Watcher{
		scanner: s,
		fs:      fsWatcher,
		filter:  s.filter,
		dirs:    make(map[string]bool),
		done:    make(chan struct{}),
	}
	for _, root := range s.intel.Roots() {
		if err := w.addTree(root, root); err != nil {
			fsWatcher.Close()
			return nil, err
		}
	}

	w.wg.Add(1)
	go w.run()
	return w, nil
}

// Dirs returns the number of watched directories.
func (w *Watcher) Dirs() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.dirs)
}

func (w *Watcher) Close() error {
	close(w.done)
	err := w.fs.Close()
	w.wg.Wait()
	return err
}

// addTree watches dir and every directory below it that a scan would
// enter.
func (w *Watcher) addTree(root, dir string) error {
	ignored := newWalker(root, w.filter)

	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return fmt.Errorf("watch %s: %w", dir, err)
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && ignored.skipDir(d.Name(), path) {
			return filepath.SkipDir
		}

		w.mu.Lock()
		defer w.mu.Unlock()
		if w.dirs[path] {
			return nil
		}
		if err := w.fs.Add(path); err != nil {
			log.Warningf("watch %s: %v", path, err)
			return nil
		}
		w.dirs[path] = true
		return nil
	})
}

func (w *Watcher) run() {
	defer w.wg.Done()
	for {
		select {
		case <-w.done:
			return

		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			w.handle(event)

		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			log.Errorf("watch: %v", err)
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}
	path := event.Name

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			w.createdDir(path)
			return
		}
	}
	if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
		w.mu.Lock()
		removed := w.dirs[path]
		delete(w.dirs, path)
		w.mu.Unlock()
		if removed {
			return
		}
	}

	if !w.filter.HasExtension(path) {
		return
	}
	log.Debugf("%s %s", event.Op, path)
	w.scanner.Enqueue(path)
}

// createdDir starts watching a new directory and scans files that were
// written into it before the watch was in place.
func (w *Watcher) createdDir(dir string) {
	store, ok := w.scanner.intel.StoreFor(dir)
	if !ok {
		return
	}
	root := store.Root()
	if err := w.addTree(root, dir); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Warningf("%v", err)
		return
	}
	ignored := newWalker(root, w.filter)
	filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		switch {
		case err != nil:
			return nil
		case d.IsDir():
			if ignored.skipDir(d.Name(), path) {
				return filepath.SkipDir
			}
		case ignored.accepts(path):
			w.scanner.Enqueue(path)
		}
		return nil
	})
}

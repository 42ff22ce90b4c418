// internal/source/fswatch.go
package source

import (
	"fmt"
	"log"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Kinds the filesystem watcher can produce.
const (
	KindSave = "save" // a watched file was written
	KindFile = "file" // a watched file was created, removed, or renamed
)

// FSWatcher turns filesystem activity in the watched paths into
// editing events. It implements Registrar for the kinds above;
// registering any other kind is a startup error.
type FSWatcher struct {
	watcher *fsnotify.Watcher

	mu    sync.Mutex
	hooks map[string][]*hook

	closeOnce sync.Once
	done      chan struct{}
}

type hook struct {
	fn func()
}

// NewFSWatcher starts watching the given paths.
func NewFSWatcher(paths []string) (*FSWatcher, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("fswatch: at least one path required")
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("fswatch: %w", err)
	}

	for _, p := range paths {
		if err := w.Add(p); err != nil {
			_ = w.Close()
			return nil, fmt.Errorf("fswatch: watch %s: %w", p, err)
		}
	}

	fw := &FSWatcher{
		watcher: w,
		hooks:   make(map[string][]*hook),
		done:    make(chan struct{}),
	}
	go fw.run()
	return fw, nil
}

// Register implements Registrar.
func (fw *FSWatcher) Register(kind string, fn func()) (func(), error) {
	if kind != KindSave && kind != KindFile {
		return nil, fmt.Errorf("fswatch: unknown event kind %q", kind)
	}

	h := &hook{fn: fn}

	fw.mu.Lock()
	fw.hooks[kind] = append(fw.hooks[kind], h)
	fw.mu.Unlock()

	cancel := func() {
		fw.mu.Lock()
		defer fw.mu.Unlock()
		list := fw.hooks[kind]
		for i, cur := range list {
			if cur == h {
				fw.hooks[kind] = append(list[:i], list[i+1:]...)
				return
			}
		}
	}
	return cancel, nil
}

// Close stops the watcher. Idempotent.
func (fw *FSWatcher) Close() error {
	var err error
	fw.closeOnce.Do(func() {
		close(fw.done)
		err = fw.watcher.Close()
	})
	return err
}

func (fw *FSWatcher) run() {
	for {
		select {
		case <-fw.done:
			return

		case ev, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			switch {
			case ev.Op.Has(fsnotify.Write):
				fw.fire(KindSave)
			case ev.Op.Has(fsnotify.Create) || ev.Op.Has(fsnotify.Remove) || ev.Op.Has(fsnotify.Rename):
				fw.fire(KindFile)
			}

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("fswatch: %v", err)
		}
	}
}

func (fw *FSWatcher) fire(kind string) {
	fw.mu.Lock()
	list := make([]*hook, len(fw.hooks[kind]))
	copy(list, fw.hooks[kind])
	fw.mu.Unlock()

	for _, h := range list {
		h.fn()
	}
}

package content

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// debounce drops repeated events for the same file inside this window.
const debounce = 100 * time.Millisecond

// Watcher reports changed content files. Events carries the path of every
// YAML or Lua file written, created, renamed or removed in the watched
// directories.
type Watcher struct {
	watcher *fsnotify.Watcher
	events  chan string
	closeCh chan struct{}
	done    chan struct{}
	once    sync.Once
	logger  *zap.Logger
}

// NewWatcher starts watching dirs.
//
// Precondition: logger must not be nil; every dir must exist.
func NewWatcher(logger *zap.Logger, dirs ...string) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	for _, dir := range dirs {
		if err := fw.Add(dir); err != nil {
			_ = fw.Close()
			return nil, err
		}
	}
	w := &Watcher{
		watcher: fw,
		events:  make(chan string, 16),
		closeCh: make(chan struct{}),
		done:    make(chan struct{}),
		logger:  logger.Named("watch"),
	}
	go w.run()
	return w, nil
}

// Events returns the channel of changed paths. It is closed by Close.
func (w *Watcher) Events() <-chan string { return w.events }

// Close stops watching. It is safe to call more than once.
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.closeCh)
		err = w.watcher.Close()
		<-w.done
	})
	return err
}

func (w *Watcher) run() {
	defer close(w.done)
	defer close(w.events)
	last := make(map[string]time.Time)
	for {
		select {
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			if !isYAML(ev.Name) && filepath.Ext(ev.Name) != ".lua" {
				continue
			}
			now := time.Now()
			if t, ok := last[ev.Name]; ok && now.Sub(t) < debounce {
				continue
			}
			last[ev.Name] = now
			select {
			case w.events <- ev.Name:
			case <-w.closeCh:
				return
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", zap.Error(err))
		case <-w.closeCh:
			return
		}
	}
}

package filesource

import (
	"context"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/teranos/kgviz/errors"
	"github.com/teranos/kgviz/graph"
	"github.com/teranos/kgviz/logger"
)

// DefaultDebounce groups bursts of file events into one rescan
const DefaultDebounce = 300 * time.Millisecond

// Watcher rescans a Source when documents in its directory change
type Watcher struct {
	source   *Source
	watcher  *fsnotify.Watcher
	debounce time.Duration
	onReload func()

	mu    sync.Mutex
	timer *time.Timer
	done  chan struct{}
}

// Watch starts watching the source's directory. onReload, if set, runs after
// each rescan on the watcher's goroutine.
func (s *Source) Watch(debounce time.Duration, onReload func()) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create fsnotify watcher")
	}
	if err := fw.Add(s.dir); err != nil {
		fw.Close()
		return nil, errors.Wrapf(err, "failed to watch graph directory %s", s.dir)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	w := &Watcher{
		source:   s,
		watcher:  fw,
		debounce: debounce,
		onReload: onReload,
		done:     make(chan struct{}),
	}
	go w.loop()
	return w, nil
}

// Run blocks until ctx is done, then stops the watcher
func (w *Watcher) Run(ctx context.Context) error {
	select {
	case <-ctx.Done():
	case <-w.done:
	}
	return w.Stop()
}

// Stop ends watching. Pending rescans are cancelled.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()
	return w.watcher.Close()
}

func (w *Watcher) loop() {
	defer close(w.done)
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if _, isGraph := graph.FormatFromPath(event.Name); !isGraph {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			w.source.logger.Debugw("Graph document changed",
				logger.FieldFile, event.Name,
				"op", event.Op.String())
			w.schedule()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.source.logger.Warnw("Graph directory watcher error", logger.FieldError, err)
		}
	}
}

func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		if err := w.source.Reload(); err != nil {
			w.source.logger.Errorw("Graph directory rescan failed", logger.FieldError, err)
			return
		}
		if w.onReload != nil {
			w.onReload()
		}
	})
}

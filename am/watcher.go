package am

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/teranos/kgviz/errors"
	"github.com/teranos/kgviz/logger"
)

// DefaultReloadDebounce collapses the burst of events an editor save produces
const DefaultReloadDebounce = 500 * time.Millisecond

// ReloadCallback is called when config is reloaded
// Receives the new config and returns any error
type ReloadCallback func(*Config) error

// ConfigWatcher watches config files for changes and triggers reload callbacks.
// Only configurations that pass Validate reach the callbacks.
type ConfigWatcher struct {
	paths          map[string]bool
	watcher        *fsnotify.Watcher
	load           func() (*Config, error)
	callbacks      []ReloadCallback
	mu             sync.RWMutex
	debounceTimer  *time.Timer
	debouncePeriod time.Duration
	logger         *zap.SugaredLogger
	done           chan struct{}
	stopOnce       sync.Once
}

// NewConfigWatcher watches the merged config files and reloads the global
// configuration (Reset, then Load) on change
func NewConfigWatcher(paths ...string) (*ConfigWatcher, error) {
	return newConfigWatcher(paths, func() (*Config, error) {
		Reset()
		return Load()
	})
}

// WatchFile watches one explicit config file and reloads it with LoadFromFile
func WatchFile(path string) (*ConfigWatcher, error) {
	return newConfigWatcher([]string{path}, func() (*Config, error) {
		return LoadFromFile(path)
	})
}

func newConfigWatcher(paths []string, load func() (*Config, error)) (*ConfigWatcher, error) {
	if len(paths) == 0 {
		return nil, errors.New("no config files to watch")
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create fsnotify watcher")
	}

	cw := &ConfigWatcher{
		paths:          make(map[string]bool),
		watcher:        watcher,
		load:           load,
		debouncePeriod: DefaultReloadDebounce,
		logger:         logger.Logger.Named("am.watch"),
		done:           make(chan struct{}),
	}

	// Watch directories so editors that save by rename are still seen
	dirs := make(map[string]bool)
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			abs = p
		}
		cw.paths[abs] = true
		dirs[filepath.Dir(abs)] = true
	}
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			watcher.Close()
			return nil, errors.Wrapf(err, "failed to watch config directory %s", dir)
		}
	}
	return cw, nil
}

// SetDebounce overrides the debounce period; call before Start
func (cw *ConfigWatcher) SetDebounce(d time.Duration) {
	cw.mu.Lock()
	defer cw.mu.Unlock()
	cw.debouncePeriod = d
}

// OnReload registers a callback to be called when config is reloaded
func (cw *ConfigWatcher) OnReload(callback ReloadCallback) {
	cw.mu.Lock()
	defer cw.mu.Unlock()
	cw.callbacks = append(cw.callbacks, callback)
}

// Start begins watching for config file changes
func (cw *ConfigWatcher) Start() {
	go cw.watchLoop()
}

func (cw *ConfigWatcher) watchLoop() {
	for {
		select {
		case event, ok := <-cw.watcher.Events:
			if !ok {
				return
			}
			if !cw.paths[filepath.Clean(event.Name)] {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			cw.logger.Infow("Config watcher detected change",
				logger.FieldFile, event.Name,
				"op", event.Op.String())
			cw.scheduleReload()

		case err, ok := <-cw.watcher.Errors:
			if !ok {
				return
			}
			cw.logger.Warnw("Config watcher error", logger.FieldError, err)

		case <-cw.done:
			return
		}
	}
}

// scheduleReload debounces rapid file changes and triggers reload
func (cw *ConfigWatcher) scheduleReload() {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	if cw.debounceTimer != nil {
		cw.debounceTimer.Stop()
	}
	cw.debounceTimer = time.AfterFunc(cw.debouncePeriod, func() {
		if err := cw.reload(); err != nil {
			cw.logger.Errorw("Config reload failed", logger.FieldError, err)
		}
	})
}

// reload loads and validates the configuration and calls all callbacks
func (cw *ConfigWatcher) reload() error {
	select {
	case <-cw.done:
		return nil
	default:
	}

	newConfig, err := cw.load()
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}
	if err := newConfig.Validate(); err != nil {
		return errors.WithHint(errors.Wrap(err, "reloaded config is invalid"),
			"the previous configuration stays active until the file is fixed")
	}

	cw.logger.Infow("Config reloaded successfully", "files", len(cw.paths))

	cw.mu.RLock()
	callbacks := make([]ReloadCallback, len(cw.callbacks))
	copy(callbacks, cw.callbacks)
	cw.mu.RUnlock()

	for _, callback := range callbacks {
		if err := callback(newConfig); err != nil {
			// Continue calling other callbacks even if one fails
			cw.logger.Warnw("Config reload callback error", logger.FieldError, err)
		}
	}
	return nil
}

// Stop stops watching for config changes
func (cw *ConfigWatcher) Stop() error {
	var err error
	cw.stopOnce.Do(func() {
		close(cw.done)
		cw.mu.Lock()
		if cw.debounceTimer != nil {
			cw.debounceTimer.Stop()
		}
		cw.mu.Unlock()
		err = cw.watcher.Close()
	})
	return err
}

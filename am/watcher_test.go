package am

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatchFileReloadsValidChanges(t *testing.T) {
	path := writeFile(t, filepath.Join(t.TempDir(), "am.toml"), "[server]\nport = 9001\n")

	w, err := WatchFile(path)
	require.NoError(t, err)
	defer w.Stop()
	w.SetDebounce(20 * time.Millisecond)

	reloaded := make(chan *Config, 4)
	w.OnReload(func(cfg *Config) error {
		reloaded <- cfg
		return nil
	})
	w.Start()

	writeFile(t, path, "[server]\nport = 9002\n")
	deadline := time.After(5 * time.Second)
	for port := 0; port != 9002; {
		select {
		case cfg := <-reloaded:
			port = cfg.ServerPort()
		case <-deadline:
			t.Fatal("no reload after a valid change")
		}
	}
	drain(reloaded, 200*time.Millisecond)

	// An invalid file keeps the previous configuration
	writeFile(t, path, "[interaction]\nwidth = -5\n")
	select {
	case cfg := <-reloaded:
		t.Fatalf("invalid config was applied: %v", cfg.Interaction)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestConfigWatcherNeedsFiles(t *testing.T) {
	_, err := NewConfigWatcher()
	assert.Error(t, err)
}

func TestConfigWatcherStopIsIdempotent(t *testing.T) {
	path := writeFile(t, filepath.Join(t.TempDir(), "am.toml"), "")
	w, err := WatchFile(path)
	require.NoError(t, err)
	w.Start()

	assert.NoError(t, w.Stop())
	assert.NoError(t, w.Stop())
}

// drain discards reloads until none arrives for quiet
func drain(ch <-chan *Config, quiet time.Duration) {
	for {
		select {
		case <-ch:
		case <-time.After(quiet):
			return
		}
	}
}

// Package source picks the graph data-access collaborator from configuration
package source

import (
	"strings"

	"go.uber.org/zap"

	"github.com/teranos/kgviz/errors"
	"github.com/teranos/kgviz/source/filesource"
	"github.com/teranos/kgviz/source/remote"
	"github.com/teranos/kgviz/viz/control"
)

const (
	KindFile   = "file"
	KindRemote = "remote"
)

// Config is the [source] section
type Config struct {
	Kind   string        `mapstructure:"kind" validate:"omitempty,oneof=file remote"`
	Dir    string        `mapstructure:"dir"`
	Watch  bool          `mapstructure:"watch"`
	Remote remote.Config `mapstructure:"remote" validate:"-"`
}

// DefaultConfig reads graphs from ./graphs
func DefaultConfig() Config {
	return Config{
		Kind:   KindFile,
		Dir:    "graphs",
		Remote: remote.DefaultConfig(""),
	}
}

// Opened is an open source plus what it needs to shut down
type Opened struct {
	control.Source
	Kind    string
	watcher *filesource.Watcher
}

// Close stops any directory watcher
func (o *Opened) Close() error {
	if o.watcher != nil {
		return o.watcher.Stop()
	}
	return nil
}

// Open builds the source named by cfg.Kind. onReload runs after a watched
// directory is rescanned.
func Open(cfg Config, log *zap.SugaredLogger, onReload func()) (*Opened, error) {
	kind := strings.ToLower(strings.TrimSpace(cfg.Kind))
	if kind == "" {
		kind = KindFile
	}

	switch kind {
	case KindFile:
		if cfg.Dir == "" {
			return nil, errors.NewInvalidRequestError("source.dir is required for the file source")
		}
		fs, err := filesource.Open(cfg.Dir, log)
		if err != nil {
			return nil, err
		}
		opened := &Opened{Source: fs, Kind: kind}
		if cfg.Watch {
			w, err := fs.Watch(filesource.DefaultDebounce, onReload)
			if err != nil {
				return nil, err
			}
			opened.watcher = w
		}
		return opened, nil

	case KindRemote:
		client, err := remote.New(cfg.Remote, nil, log)
		if err != nil {
			return nil, err
		}
		return &Opened{Source: client, Kind: kind}, nil

	default:
		return nil, errors.NewInvalidRequestError("unknown source kind %q (want file or remote)", cfg.Kind)
	}
}

// Package commands holds the kgviz subcommands
package commands

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/teranos/kgviz/am"
	"github.com/teranos/kgviz/errors"
	"github.com/teranos/kgviz/logger"
	"github.com/teranos/kgviz/source"
)

// configPath returns the --config flag, empty when the cascade applies
func configPath(cmd *cobra.Command) string {
	path, _ := cmd.Flags().GetString("config")
	return path
}

func verbosity(cmd *cobra.Command) int {
	v, _ := cmd.Flags().GetCount("verbose")
	return v
}

// loadConfig loads and validates the configuration for cmd
func loadConfig(cmd *cobra.Command) (*am.Config, error) {
	var (
		cfg *am.Config
		err error
	)
	if path := configPath(cmd); path != "" {
		cfg, err = am.LoadFromFile(path)
	} else {
		cfg, err = am.Load()
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.WithHint(
			errors.Wrap(err, "invalid configuration"),
			"run 'kgviz am check <file>' to locate the bad setting")
	}
	return cfg, nil
}

// openSource opens the configured graph source. dir, when set, overrides
// source.dir and forces the file source.
func openSource(cfg *am.Config, dir string, log *zap.SugaredLogger, onReload func()) (*source.Opened, error) {
	sc := cfg.Source
	if dir != "" {
		sc.Kind = source.KindFile
		sc.Dir = dir
	}
	if onReload == nil {
		sc.Watch = false
	}
	src, err := source.Open(sc, log, onReload)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open graph source")
	}
	return src, nil
}

func cliLogger(name string) *zap.SugaredLogger {
	return logger.ComponentLogger(name)
}

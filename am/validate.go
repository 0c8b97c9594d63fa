package am

import (
	"strings"

	"github.com/teranos/kgviz/errors"
	"github.com/teranos/kgviz/graph"
	"github.com/teranos/kgviz/source"
	"github.com/teranos/kgviz/viz/layout"
	"github.com/teranos/kgviz/viz/render"
)

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	// Server port: 0 is invalid (omit for default), negative is invalid
	if c.Server.Port != nil && *c.Server.Port == 0 {
		return errors.Newf("server.port cannot be 0 (omit for default port %d)", DefaultServerPort)
	}
	if c.Server.Port != nil && (*c.Server.Port < 0 || *c.Server.Port > 65535) {
		return errors.Newf("server.port must be between 1 and 65535, got %d", *c.Server.Port)
	}

	if err := graph.ValidateStruct(c.Server); err != nil {
		return errors.Wrap(err, "server")
	}
	if err := graph.ValidateStruct(c.Source); err != nil {
		return errors.Wrap(err, "source")
	}
	if strings.EqualFold(strings.TrimSpace(c.Source.Kind), source.KindRemote) {
		if err := graph.ValidateStruct(c.Source.Remote); err != nil {
			return errors.Wrap(err, "source.remote")
		}
	} else if c.Source.Dir == "" {
		return errors.New("source.dir cannot be empty for the file source")
	}

	if err := graph.ValidateStruct(c.Layout); err != nil {
		return errors.Wrap(err, "layout")
	}
	if err := graph.ValidateStruct(c.Render); err != nil {
		return errors.Wrap(err, "render")
	}
	// Colors only fail when parsed
	if _, err := render.NewRenderer(c.Render); err != nil {
		return errors.Wrap(err, "render")
	}

	if err := graph.ValidateStruct(c.Interaction); err != nil {
		return errors.Wrap(err, "interaction")
	}
	if _, err := layout.ParseMode(c.Interaction.DefaultMode); err != nil {
		return errors.Wrap(err, "interaction.default_mode")
	}
	return nil
}

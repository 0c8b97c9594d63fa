// Package am loads the kgviz configuration: built-in defaults, TOML files
// (system, user, project) and KGVIZ_* environment variables, merged by viper.
package am

import (
	"time"

	"github.com/teranos/kgviz/source"
	"github.com/teranos/kgviz/viz/control"
	"github.com/teranos/kgviz/viz/layout"
	"github.com/teranos/kgviz/viz/render"
)

// Config represents the complete kgviz configuration
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Source      source.Config     `mapstructure:"source"`
	Layout      layout.Config     `mapstructure:"layout"`
	Render      render.Style      `mapstructure:"render"`
	Interaction InteractionConfig `mapstructure:"interaction"`
}

// ServerConfig configures the HTTP and websocket surface
type ServerConfig struct {
	Port           *int     `mapstructure:"port"` // nil = DefaultServerPort, 0 is invalid (omit for default)
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	MaxClients     int      `mapstructure:"max_clients" validate:"gte=0"` // 0 = unlimited

	// Frames per second pushed to one websocket client; bursts of control
	// messages beyond FrameBurst collapse into the latest frame
	FrameRate  float64 `mapstructure:"frame_rate" validate:"gt=0"`
	FrameBurst int     `mapstructure:"frame_burst" validate:"gte=1"`

	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gte=0"`
}

// Server port constants
const (
	DefaultServerPort  = 8787
	FallbackServerPort = 8788
)

// InteractionConfig holds the per-session viewport and input settings
type InteractionConfig struct {
	Width             int           `mapstructure:"width" validate:"gt=0"`
	Height            int           `mapstructure:"height" validate:"gt=0"`
	DefaultMode       string        `mapstructure:"default_mode"`
	ZoomStep          float64       `mapstructure:"zoom_step" validate:"gt=1"`
	ZoomMin           float64       `mapstructure:"zoom_min" validate:"gt=0"`
	ZoomMax           float64       `mapstructure:"zoom_max" validate:"gtefield=ZoomMin"`
	HitThreshold      float64       `mapstructure:"hit_threshold" validate:"gte=0"` // pixels
	AnimationInterval time.Duration `mapstructure:"animation_interval" validate:"gte=0"`
}

// ControlConfig assembles the controller settings from the layout, render
// and interaction sections. An unknown default mode falls back to circular;
// Validate reports it.
func (c *Config) ControlConfig() control.Config {
	mode, err := layout.ParseMode(c.Interaction.DefaultMode)
	if err != nil {
		mode = layout.ModeCircular
	}
	return control.Config{
		Width:             c.Interaction.Width,
		Height:            c.Interaction.Height,
		DefaultMode:       mode,
		ZoomStep:          c.Interaction.ZoomStep,
		ZoomMin:           c.Interaction.ZoomMin,
		ZoomMax:           c.Interaction.ZoomMax,
		HitThreshold:      c.Interaction.HitThreshold,
		AnimationInterval: c.Interaction.AnimationInterval,
		Layout:            c.Layout,
		Style:             c.Render,
	}
}

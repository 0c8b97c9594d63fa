package control

import (
	"time"

	"github.com/teranos/kgviz/graph"
	"github.com/teranos/kgviz/viz/layout"
	"github.com/teranos/kgviz/viz/render"
)

// Config tunes one controller
type Config struct {
	Width  int `validate:"gt=0"`
	Height int `validate:"gt=0"`

	DefaultMode layout.Mode

	ZoomStep float64 `validate:"gt=1"`
	ZoomMin  float64 `validate:"gt=0"`
	ZoomMax  float64 `validate:"gtefield=ZoomMin"`

	// HitThreshold is the edge pick distance in surface pixels
	HitThreshold float64 `validate:"gte=0"`

	AnimationInterval time.Duration `validate:"gte=0"`

	Layout layout.Config
	Style  render.Style
}

// DefaultConfig returns the settings used when nothing is configured
func DefaultConfig() Config {
	return Config{
		Width:             1200,
		Height:            800,
		DefaultMode:       layout.ModeCircular,
		ZoomStep:          1.2,
		ZoomMin:           0.1,
		ZoomMax:           10,
		HitThreshold:      5,
		AnimationInterval: DefaultAnimationInterval,
		Layout:            layout.DefaultConfig(),
		Style:             render.DefaultStyle(),
	}
}

// Validate checks ranges on the config, nested layout and style included
func (c Config) Validate() error {
	return graph.ValidateStruct(c)
}

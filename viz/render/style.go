package render

import (
	"image/color"
	"strings"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/teranos/kgviz/errors"
	"github.com/teranos/kgviz/graph"
)

// Style holds every visual constant of a frame. Colors are hex strings so the
// struct can be loaded straight from configuration.
type Style struct {
	BaseRadius      float64 `mapstructure:"base_radius" validate:"gt=0"`
	ImportanceScale float64 `mapstructure:"importance_scale" validate:"gte=0"`
	LabelMinRadius  float64 `mapstructure:"label_min_radius" validate:"gte=0"`
	LabelGap        float64 `mapstructure:"label_gap" validate:"gte=0"`
	EdgeWidth       float64 `mapstructure:"edge_width" validate:"gt=0"`
	OutlineWidth    float64 `mapstructure:"outline_width" validate:"gt=0"`

	Background     string            `mapstructure:"background"`
	EdgeColor      string            `mapstructure:"edge_color"`
	OutlineColor   string            `mapstructure:"outline_color"`
	LabelColor     string            `mapstructure:"label_color"`
	SelectionColor string            `mapstructure:"selection_color"`
	DefaultColor   string            `mapstructure:"default_color"`
	Palette        map[string]string `mapstructure:"palette"` // node type → hex, merged over the built-in table
}

// DefaultStyle returns the built-in dark theme
func DefaultStyle() Style {
	return Style{
		BaseRadius:      6,
		ImportanceScale: 14,
		LabelMinRadius:  10,
		LabelGap:        4,
		EdgeWidth:       1.5,
		OutlineWidth:    1,
		Background:      "#1d2021",
		EdgeColor:       "#a89984",
		OutlineColor:    "#fbf1c7",
		LabelColor:      "#ebdbb2",
		SelectionColor:  "#fabd2f",
	}
}

// NodeRadius is BaseRadius + Importance × ImportanceScale, in layout units
func (s Style) NodeRadius(n graph.Node) float64 {
	return s.BaseRadius + n.Importance*s.ImportanceScale
}

// resolved holds parsed colors, ready to draw
type resolved struct {
	background color.NRGBA
	edge       color.NRGBA
	outline    color.NRGBA
	label      color.NRGBA
	selection  color.NRGBA
	palette    graph.Palette
	nodeColors map[string]color.NRGBA
	fallback   color.NRGBA
}

func (s Style) resolve() (resolved, error) {
	var r resolved
	var err error

	palette, err := graph.NewPalette(s.Palette, s.DefaultColor)
	if err != nil {
		return r, err
	}
	r.palette = palette

	for _, c := range []struct {
		dst  *color.NRGBA
		name string
		hex  string
	}{
		{&r.background, "background", s.Background},
		{&r.edge, "edge_color", s.EdgeColor},
		{&r.outline, "outline_color", s.OutlineColor},
		{&r.label, "label_color", s.LabelColor},
		{&r.selection, "selection_color", s.SelectionColor},
	} {
		if *c.dst, err = ParseColor(c.hex); err != nil {
			return r, errors.Wrapf(err, "style %s", c.name)
		}
	}

	r.nodeColors = make(map[string]color.NRGBA, len(palette.Colors))
	for typ, hex := range palette.Colors {
		if r.nodeColors[typ], err = ParseColor(hex); err != nil {
			return r, err
		}
	}
	if r.fallback, err = ParseColor(palette.Color("")); err != nil {
		return r, err
	}
	return r, nil
}

func (r resolved) nodeColor(nodeType string) color.NRGBA {
	if !r.palette.Known(nodeType) {
		return r.fallback
	}
	return r.nodeColors[strings.ToLower(nodeType)]
}

// ParseColor parses #rrggbb or #rgb into an opaque color
func ParseColor(hex string) (color.NRGBA, error) {
	c, err := colorful.Hex(hex)
	if err != nil {
		return color.NRGBA{}, errors.Wrapf(errors.ErrInvalidRequest, "invalid color %q", hex)
	}
	r, g, b := c.RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: 0xff}, nil
}

// withAlpha scales c's opacity by a ∈ [0,1]
func withAlpha(c color.NRGBA, a float64) color.NRGBA {
	if a < 0 {
		a = 0
	}
	if a > 1 {
		a = 1
	}
	c.A = uint8(a*255 + 0.5)
	return c
}

package render

import (
	"github.com/teranos/kgviz/viz/layout"
)

// Viewport maps layout coordinates to surface pixels. Zoom scales about the
// surface center; 1 is identity.
type Viewport struct {
	Width, Height float64
	Zoom          float64
}

func (v Viewport) zoom() float64 {
	if v.Zoom <= 0 {
		return 1
	}
	return v.Zoom
}

// Project converts a layout position to surface pixels
func (v Viewport) Project(p layout.Position) (float64, float64) {
	z := v.zoom()
	cx, cy := v.Width/2, v.Height/2
	return cx + (p.X-cx)*z, cy + (p.Y-cy)*z
}

// Unproject converts surface pixels back to layout coordinates
func (v Viewport) Unproject(x, y float64) layout.Position {
	z := v.zoom()
	cx, cy := v.Width/2, v.Height/2
	return layout.Position{X: cx + (x-cx)/z, Y: cy + (y-cy)/z}
}

// Scale converts a layout length to surface pixels
func (v Viewport) Scale(length float64) float64 {
	return length * v.zoom()
}

package render

import "image/color"

// Surface is anything the renderer can draw on. Coordinates are surface
// pixels with the origin top-left.
type Surface interface {
	Size() (width, height int)
	Clear(c color.Color)
	Line(x1, y1, x2, y2, width float64, c color.Color)
	FillCircle(cx, cy, r float64, c color.Color)
	StrokeCircle(cx, cy, r, width float64, c color.Color)
	// Text draws s horizontally centered on x with its baseline at y
	Text(x, y float64, s string, c color.Color)
}

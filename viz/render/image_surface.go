package render

import (
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"math"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"
)

// kappa places cubic control points for a quarter circle
const kappa = 0.5522847498

// ImageSurface is an anti-aliased RGBA raster surface
type ImageSurface struct {
	img  *image.RGBA
	z    *vector.Rasterizer
	face font.Face
}

// NewImageSurface allocates a width×height surface
func NewImageSurface(width, height int) *ImageSurface {
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	return &ImageSurface{
		img:  image.NewRGBA(image.Rect(0, 0, width, height)),
		z:    vector.NewRasterizer(width, height),
		face: basicfont.Face7x13,
	}
}

// Image exposes the backing image
func (s *ImageSurface) Image() *image.RGBA {
	return s.img
}

func (s *ImageSurface) Size() (int, int) {
	b := s.img.Bounds()
	return b.Dx(), b.Dy()
}

func (s *ImageSurface) Clear(c color.Color) {
	draw.Draw(s.img, s.img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
}

func (s *ImageSurface) Line(x1, y1, x2, y2, width float64, c color.Color) {
	length := math.Hypot(x2-x1, y2-y1)
	if length == 0 || width <= 0 {
		return
	}
	nx := -(y2 - y1) / length * width / 2
	ny := (x2 - x1) / length * width / 2

	s.reset()
	s.z.MoveTo(float32(x1+nx), float32(y1+ny))
	s.z.LineTo(float32(x2+nx), float32(y2+ny))
	s.z.LineTo(float32(x2-nx), float32(y2-ny))
	s.z.LineTo(float32(x1-nx), float32(y1-ny))
	s.z.ClosePath()
	s.fill(c)
}

func (s *ImageSurface) FillCircle(cx, cy, r float64, c color.Color) {
	if r <= 0 {
		return
	}
	s.reset()
	s.circle(cx, cy, r, false)
	s.fill(c)
}

func (s *ImageSurface) StrokeCircle(cx, cy, r, width float64, c color.Color) {
	if r <= 0 || width <= 0 {
		return
	}
	s.reset()
	s.circle(cx, cy, r+width/2, false)
	if inner := r - width/2; inner > 0 {
		// Opposite winding cancels coverage inside the ring
		s.circle(cx, cy, inner, true)
	}
	s.fill(c)
}

func (s *ImageSurface) Text(x, y float64, text string, c color.Color) {
	d := font.Drawer{
		Dst:  s.img,
		Src:  image.NewUniform(c),
		Face: s.face,
	}
	advance := d.MeasureString(text)
	d.Dot = fixed.Point26_6{
		X: fixed.Int26_6(x*64) - advance/2,
		Y: fixed.Int26_6(y * 64),
	}
	d.DrawString(text)
}

// EncodePNG writes the surface as a PNG image
func (s *ImageSurface) EncodePNG(w io.Writer) error {
	return png.Encode(w, s.img)
}

func (s *ImageSurface) reset() {
	w, h := s.Size()
	s.z.Reset(w, h)
}

func (s *ImageSurface) fill(c color.Color) {
	s.z.Draw(s.img, s.img.Bounds(), image.NewUniform(c), image.Point{})
}

// circle appends a closed four-arc circle path
func (s *ImageSurface) circle(cx, cy, r float64, reverse bool) {
	k := r * kappa
	f := func(v float64) float32 { return float32(v) }

	s.z.MoveTo(f(cx+r), f(cy))
	if !reverse {
		s.z.CubeTo(f(cx+r), f(cy+k), f(cx+k), f(cy+r), f(cx), f(cy+r))
		s.z.CubeTo(f(cx-k), f(cy+r), f(cx-r), f(cy+k), f(cx-r), f(cy))
		s.z.CubeTo(f(cx-r), f(cy-k), f(cx-k), f(cy-r), f(cx), f(cy-r))
		s.z.CubeTo(f(cx+k), f(cy-r), f(cx+r), f(cy-k), f(cx+r), f(cy))
	} else {
		s.z.CubeTo(f(cx+r), f(cy-k), f(cx+k), f(cy-r), f(cx), f(cy-r))
		s.z.CubeTo(f(cx-k), f(cy-r), f(cx-r), f(cy-k), f(cx-r), f(cy))
		s.z.CubeTo(f(cx-r), f(cy+k), f(cx-k), f(cy+r), f(cx), f(cy+r))
		s.z.CubeTo(f(cx+k), f(cy+r), f(cx+r), f(cy+k), f(cx+r), f(cy))
	}
	s.z.ClosePath()
}

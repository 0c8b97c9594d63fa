package render

import "image/color"

// OpKind names a recorded draw call
type OpKind string

const (
	OpClear        OpKind = "clear"
	OpLine         OpKind = "line"
	OpFillCircle   OpKind = "fill_circle"
	OpStrokeCircle OpKind = "stroke_circle"
	OpText         OpKind = "text"
)

// Op is one recorded draw call. Unused fields stay zero.
type Op struct {
	Kind   OpKind
	X1, Y1 float64 // line start, circle center, text anchor
	X2, Y2 float64 // line end
	R      float64
	Width  float64
	Text   string
	Color  color.NRGBA
}

// Recorder is a Surface that records draw calls instead of rasterizing them
type Recorder struct {
	Width, Height int
	Ops           []Op
}

// NewRecorder returns an empty recorder of the given size
func NewRecorder(width, height int) *Recorder {
	return &Recorder{Width: width, Height: height}
}

func (r *Recorder) Size() (int, int) { return r.Width, r.Height }

func (r *Recorder) Clear(c color.Color) {
	r.Ops = append(r.Ops, Op{Kind: OpClear, Color: nrgba(c)})
}

func (r *Recorder) Line(x1, y1, x2, y2, width float64, c color.Color) {
	r.Ops = append(r.Ops, Op{Kind: OpLine, X1: x1, Y1: y1, X2: x2, Y2: y2, Width: width, Color: nrgba(c)})
}

func (r *Recorder) FillCircle(cx, cy, radius float64, c color.Color) {
	r.Ops = append(r.Ops, Op{Kind: OpFillCircle, X1: cx, Y1: cy, R: radius, Color: nrgba(c)})
}

func (r *Recorder) StrokeCircle(cx, cy, radius, width float64, c color.Color) {
	r.Ops = append(r.Ops, Op{Kind: OpStrokeCircle, X1: cx, Y1: cy, R: radius, Width: width, Color: nrgba(c)})
}

func (r *Recorder) Text(x, y float64, s string, c color.Color) {
	r.Ops = append(r.Ops, Op{Kind: OpText, X1: x, Y1: y, Text: s, Color: nrgba(c)})
}

// Kinds returns the sequence of op kinds
func (r *Recorder) Kinds() []OpKind {
	kinds := make([]OpKind, len(r.Ops))
	for i, op := range r.Ops {
		kinds[i] = op.Kind
	}
	return kinds
}

// Count returns how many ops of the given kind were recorded
func (r *Recorder) Count(kind OpKind) int {
	n := 0
	for _, op := range r.Ops {
		if op.Kind == kind {
			n++
		}
	}
	return n
}

// Reset forgets every recorded op
func (r *Recorder) Reset() {
	r.Ops = r.Ops[:0]
}

func nrgba(c color.Color) color.NRGBA {
	return color.NRGBAModel.Convert(c).(color.NRGBA)
}

package render

import (
	"bytes"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/kgviz/graph"
	kgtest "github.com/teranos/kgviz/internal/testing"
	"github.com/teranos/kgviz/viz/layout"
)

func newTestRenderer(t *testing.T) *Renderer {
	t.Helper()
	r, err := NewRenderer(DefaultStyle())
	require.NoError(t, err)
	return r
}

func pairScene() Scene {
	g := kgtest.ConceptPair()
	return Scene{
		Nodes: g.Nodes,
		Edges: g.Edges,
		Positions: map[string]layout.Position{
			"A": {X: 100, Y: 100},
			"B": {X: 300, Y: 100},
		},
		Zoom: 1,
	}
}

func TestRenderDrawOrder(t *testing.T) {
	r := newTestRenderer(t)
	rec := NewRecorder(400, 200)

	stats := r.Render(rec, pairScene())

	assert.Equal(t, []OpKind{
		OpClear,
		OpLine,
		OpFillCircle, OpStrokeCircle, // A
		OpFillCircle, OpStrokeCircle, // B
		OpText, // only A is large enough for a label
	}, rec.Kinds())
	assert.Equal(t, 2, stats.NodesDrawn)
	assert.Equal(t, 1, stats.EdgesDrawn)
	assert.Equal(t, 1, stats.LabelsDrawn)
	assert.Equal(t, "Alpha", rec.Ops[6].Text)
}

func TestRenderEdgeAlphaFollowsConfidence(t *testing.T) {
	r := newTestRenderer(t)
	rec := NewRecorder(400, 200)
	scene := pairScene()

	for _, tc := range []struct {
		confidence float64
		alpha      uint8
	}{
		{0, 0},
		{0.5, 128},
		{1, 255},
	} {
		scene.Edges[0].Confidence = tc.confidence
		rec.Reset()
		r.Render(rec, scene)
		require.Equal(t, OpLine, rec.Ops[1].Kind)
		assert.Equal(t, tc.alpha, rec.Ops[1].Color.A, "confidence %v", tc.confidence)
	}
}

func TestRenderNodeRadiusAndColor(t *testing.T) {
	r := newTestRenderer(t)
	rec := NewRecorder(400, 200)
	style := DefaultStyle()

	r.Render(rec, pairScene())

	fillA := rec.Ops[2]
	assert.InDelta(t, style.BaseRadius+0.9*style.ImportanceScale, fillA.R, 1e-9)
	assert.Equal(t, r.NodeColor(graph.NodeTypeEntity), fillA.Color)

	fillB := rec.Ops[4]
	assert.InDelta(t, style.BaseRadius+0.2*style.ImportanceScale, fillB.R, 1e-9)
	assert.Equal(t, r.NodeColor(graph.NodeTypeConcept), fillB.Color)
}

func TestRenderUnknownTypeUsesNeutralColor(t *testing.T) {
	r := newTestRenderer(t)
	rec := NewRecorder(200, 200)

	r.Render(rec, Scene{
		Nodes:     []graph.Node{{ID: "x", Type: "gizmo", Importance: 0.5}},
		Positions: map[string]layout.Position{"x": {X: 100, Y: 100}},
	})

	neutral, err := ParseColor(graph.DefaultPalette().Default)
	require.NoError(t, err)
	assert.Equal(t, neutral, rec.Ops[1].Color)
}

func TestRenderLargestNodeFirst(t *testing.T) {
	r := newTestRenderer(t)
	rec := NewRecorder(200, 200)

	r.Render(rec, Scene{
		Nodes: []graph.Node{
			{ID: "small", Importance: 0.1},
			{ID: "big", Importance: 1},
			{ID: "mid", Importance: 0.5},
		},
		Positions: map[string]layout.Position{
			"small": {X: 100, Y: 100},
			"big":   {X: 100, Y: 100},
			"mid":   {X: 100, Y: 100},
		},
	})

	var radii []float64
	for _, op := range rec.Ops {
		if op.Kind == OpFillCircle {
			radii = append(radii, op.R)
		}
	}
	require.Len(t, radii, 3)
	assert.Greater(t, radii[0], radii[1])
	assert.Greater(t, radii[1], radii[2])
}

func TestRenderLabelThresholdUsesScreenRadius(t *testing.T) {
	r := newTestRenderer(t)
	rec := NewRecorder(400, 200)
	scene := pairScene()

	scene.Zoom = 2
	stats := r.Render(rec, scene)

	// B's radius doubles past the threshold
	assert.Equal(t, 2, stats.LabelsDrawn)
	assert.Equal(t, 2, rec.Count(OpText))
}

func TestRenderSelectionHighlight(t *testing.T) {
	r := newTestRenderer(t)
	rec := NewRecorder(400, 200)
	style := DefaultStyle()
	selection, err := ParseColor(style.SelectionColor)
	require.NoError(t, err)

	scene := pairScene()
	scene.SelectedNodeID = "B"
	scene.SelectedEdgeID = "A-B"
	r.Render(rec, scene)

	line := rec.Ops[1]
	assert.Equal(t, selection, line.Color)
	assert.InDelta(t, style.EdgeWidth*2, line.Width, 1e-9)

	outlineA, outlineB := rec.Ops[3], rec.Ops[5]
	assert.NotEqual(t, selection, outlineA.Color)
	assert.Equal(t, selection, outlineB.Color)
	assert.InDelta(t, style.OutlineWidth*2, outlineB.Width, 1e-9)
}

func TestRenderEmptySceneOnlyClears(t *testing.T) {
	r := newTestRenderer(t)
	rec := NewRecorder(100, 100)

	stats := r.Render(rec, Scene{})

	assert.Equal(t, []OpKind{OpClear}, rec.Kinds())
	assert.Zero(t, stats.NodesDrawn)
}

func TestRenderSkipsUnpositioned(t *testing.T) {
	r := newTestRenderer(t)
	rec := NewRecorder(400, 200)
	scene := pairScene()
	delete(scene.Positions, "B")

	stats := r.Render(rec, scene)

	assert.Equal(t, 1, stats.NodesDrawn)
	assert.Zero(t, stats.EdgesDrawn)
}

func TestRenderRepeatedCallsDoNotAccumulate(t *testing.T) {
	r := newTestRenderer(t)
	s := NewImageSurface(120, 120)
	node := graph.Node{ID: "n", Type: graph.NodeTypeEntity, Importance: 1}

	r.Render(s, Scene{Nodes: []graph.Node{node}, Positions: map[string]layout.Position{"n": {X: 30, Y: 60}}})
	r.Render(s, Scene{Nodes: []graph.Node{node}, Positions: map[string]layout.Position{"n": {X: 90, Y: 60}}})

	bg, err := ParseColor(DefaultStyle().Background)
	require.NoError(t, err)
	assert.Equal(t, rgba(bg), s.Image().RGBAAt(30, 60), "old frame must be cleared")
	assert.Equal(t, rgba(r.NodeColor(graph.NodeTypeEntity)), s.Image().RGBAAt(90, 60))
}

func TestNewRendererRejectsBadColor(t *testing.T) {
	style := DefaultStyle()
	style.EdgeColor = "not-a-color"
	_, err := NewRenderer(style)
	assert.Error(t, err)

	style = DefaultStyle()
	style.Palette = map[string]string{"entity": "#zzzzzz"}
	_, err = NewRenderer(style)
	assert.Error(t, err)
}

func TestPaletteOverride(t *testing.T) {
	style := DefaultStyle()
	style.Palette = map[string]string{"Entity": "#ff0000"}
	r, err := NewRenderer(style)
	require.NoError(t, err)

	assert.Equal(t, color.NRGBA{R: 0xff, A: 0xff}, r.NodeColor("entity"))
	assert.Equal(t, color.NRGBA{R: 0xff, A: 0xff}, r.NodeColor("ENTITY"))
}

func TestImageSurfacePNG(t *testing.T) {
	r := newTestRenderer(t)
	s := NewImageSurface(400, 200)
	r.Render(s, pairScene())

	var buf bytes.Buffer
	require.NoError(t, s.EncodePNG(&buf))

	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, 400, img.Bounds().Dx())
	assert.Equal(t, 200, img.Bounds().Dy())
}

func TestImageSurfaceStrokeLeavesInterior(t *testing.T) {
	s := NewImageSurface(100, 100)
	s.Clear(color.Black)
	s.StrokeCircle(50, 50, 30, 4, color.White)

	assert.Equal(t, color.RGBA{A: 0xff}, s.Image().RGBAAt(50, 50))
	assert.Equal(t, color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}, s.Image().RGBAAt(80, 50))
}

func TestViewportRoundTrip(t *testing.T) {
	vp := Viewport{Width: 800, Height: 600, Zoom: 2.5}
	p := layout.Position{X: 123, Y: 456}

	x, y := vp.Project(p)
	back := vp.Unproject(x, y)
	assert.InDelta(t, p.X, back.X, 1e-9)
	assert.InDelta(t, p.Y, back.Y, 1e-9)

	cx, cy := vp.Project(layout.Position{X: 400, Y: 300})
	assert.Equal(t, 400.0, cx, "center is fixed under zoom")
	assert.Equal(t, 300.0, cy)

	assert.Equal(t, 1.0, Viewport{Zoom: 0}.Scale(1))
}

func rgba(c color.NRGBA) color.RGBA {
	return color.RGBAModel.Convert(c).(color.RGBA)
}

package render

import (
	"image/color"
	"sort"
	"time"

	"github.com/teranos/kgviz/graph"
	"github.com/teranos/kgviz/viz/layout"
)

// Scene is everything one frame is drawn from. The renderer never keeps it.
type Scene struct {
	Nodes     []graph.Node
	Edges     []graph.Edge
	Positions map[string]layout.Position
	Zoom      float64

	SelectedNodeID string
	SelectedEdgeID string
}

// Stats describes what a Render call drew
type Stats struct {
	NodesDrawn  int           `json:"nodes_drawn"`
	EdgesDrawn  int           `json:"edges_drawn"`
	LabelsDrawn int           `json:"labels_drawn"`
	Duration    time.Duration `json:"duration"`
}

// Renderer projects scenes onto surfaces with a fixed style
type Renderer struct {
	style  Style
	colors resolved
}

// NewRenderer parses the style's colors once up front
func NewRenderer(style Style) (*Renderer, error) {
	colors, err := style.resolve()
	if err != nil {
		return nil, err
	}
	return &Renderer{style: style, colors: colors}, nil
}

// Style returns the style the renderer was built with
func (r *Renderer) Style() Style {
	return r.style
}

// Palette returns the resolved node type palette
func (r *Renderer) Palette() graph.Palette {
	return r.colors.palette
}

// ViewportFor returns the projection used for a surface at the given zoom
func ViewportFor(s Surface, zoom float64) Viewport {
	w, h := s.Size()
	return Viewport{Width: float64(w), Height: float64(h), Zoom: zoom}
}

// Render draws one complete frame. The surface is cleared first, so calling it
// repeatedly never accumulates artifacts.
func (r *Renderer) Render(s Surface, scene Scene) Stats {
	start := time.Now()
	var stats Stats

	s.Clear(r.colors.background)

	vp := ViewportFor(s, scene.Zoom)

	for _, e := range scene.Edges {
		from, ok := scene.Positions[e.Source]
		if !ok {
			continue
		}
		to, ok := scene.Positions[e.Target]
		if !ok {
			continue
		}
		x1, y1 := vp.Project(from)
		x2, y2 := vp.Project(to)

		c := withAlpha(r.colors.edge, e.Confidence)
		width := r.style.EdgeWidth
		if e.ID != "" && e.ID == scene.SelectedEdgeID {
			c = r.colors.selection
			width *= 2
		}
		s.Line(x1, y1, x2, y2, width, c)
		stats.EdgesDrawn++
	}

	order := r.drawOrder(scene)

	for _, n := range order {
		x, y := vp.Project(scene.Positions[n.ID])
		radius := vp.Scale(r.style.NodeRadius(n))

		s.FillCircle(x, y, radius, r.colors.nodeColor(n.Type))

		outline, width := r.colors.outline, r.style.OutlineWidth
		if n.ID == scene.SelectedNodeID {
			outline, width = r.colors.selection, width*2
		}
		s.StrokeCircle(x, y, radius, width, outline)
		stats.NodesDrawn++
	}

	for _, n := range order {
		radius := vp.Scale(r.style.NodeRadius(n))
		if radius <= r.style.LabelMinRadius {
			continue
		}
		x, y := vp.Project(scene.Positions[n.ID])
		s.Text(x, y-radius-r.style.LabelGap, nodeLabel(n), r.colors.label)
		stats.LabelsDrawn++
	}

	stats.Duration = time.Since(start)
	return stats
}

// drawOrder returns positioned nodes, largest radius first. Equal radii keep
// input order.
func (r *Renderer) drawOrder(scene Scene) []graph.Node {
	order := make([]graph.Node, 0, len(scene.Nodes))
	for _, n := range scene.Nodes {
		if _, ok := scene.Positions[n.ID]; ok {
			order = append(order, n)
		}
	}
	sort.SliceStable(order, func(i, j int) bool {
		return r.style.NodeRadius(order[i]) > r.style.NodeRadius(order[j])
	})
	return order
}

// NodeColor returns the fill color for a node type
func (r *Renderer) NodeColor(nodeType string) color.NRGBA {
	return r.colors.nodeColor(nodeType)
}

func nodeLabel(n graph.Node) string {
	if n.Label != "" {
		return n.Label
	}
	return n.ID
}

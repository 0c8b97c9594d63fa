package control

import (
	"math"

	"github.com/teranos/kgviz/graph"
	"github.com/teranos/kgviz/viz/layout"
	"github.com/teranos/kgviz/viz/render"
)

// Hit is the outcome of a click. At most one of NodeID and EdgeID is set.
type Hit struct {
	NodeID string `json:"node_id,omitempty"`
	EdgeID string `json:"edge_id,omitempty"`
}

// Miss reports whether the click landed on nothing
func (h Hit) Miss() bool {
	return h.NodeID == "" && h.EdgeID == ""
}

// HitTest resolves a click at surface pixel (x, y).
//
// Nodes are tested first: among circles containing the point the smallest
// radius wins, then the nearest center. Only when no node contains the point
// are edges tested, picking the nearest segment within threshold surface
// pixels.
func HitTest(scene render.Scene, style render.Style, vp render.Viewport, x, y, threshold float64) Hit {
	p := vp.Unproject(x, y)

	bestNode := ""
	bestRadius, bestDist := math.Inf(1), math.Inf(1)
	for _, n := range scene.Nodes {
		pos, ok := scene.Positions[n.ID]
		if !ok {
			continue
		}
		r := style.NodeRadius(n)
		d := p.DistanceTo(pos)
		if d > r {
			continue
		}
		if r < bestRadius || (r == bestRadius && d < bestDist) {
			bestNode, bestRadius, bestDist = n.ID, r, d
		}
	}
	if bestNode != "" {
		return Hit{NodeID: bestNode}
	}

	// Threshold is in pixels; compare in layout units
	limit := threshold / vp.Scale(1)
	bestEdge := ""
	bestDist = math.Inf(1)
	for _, e := range scene.Edges {
		a, ok := scene.Positions[e.Source]
		if !ok {
			continue
		}
		b, ok := scene.Positions[e.Target]
		if !ok {
			continue
		}
		d := segmentDistance(p, a, b)
		if d <= limit && d < bestDist {
			bestEdge, bestDist = e.ID, d
		}
	}
	if bestEdge != "" {
		return Hit{EdgeID: bestEdge}
	}
	return Hit{}
}

// segmentDistance is the distance from p to the segment ab
func segmentDistance(p, a, b layout.Position) float64 {
	dx, dy := b.X-a.X, b.Y-a.Y
	lenSq := dx*dx + dy*dy
	if lenSq == 0 {
		return p.DistanceTo(a)
	}
	t := ((p.X-a.X)*dx + (p.Y-a.Y)*dy) / lenSq
	t = math.Max(0, math.Min(1, t))
	return p.DistanceTo(layout.Position{X: a.X + t*dx, Y: a.Y + t*dy})
}

// nodeVisible reports whether id is among nodes
func nodeVisible(nodes []graph.Node, id string) bool {
	for _, n := range nodes {
		if n.ID == id {
			return true
		}
	}
	return false
}

func edgeVisible(edges []graph.Edge, id string) bool {
	for _, e := range edges {
		if e.ID == id {
			return true
		}
	}
	return false
}

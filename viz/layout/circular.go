package layout

import (
	"math"

	"github.com/teranos/kgviz/graph"
)

// Circular places nodes evenly on a circle of radius min(w,h)/4 around the
// surface center, in input order, starting at angle 0.
func Circular(nodes []graph.Node, width, height float64) map[string]Position {
	positions := make(map[string]Position, len(nodes))
	for i, p := range ring(len(nodes), width/2, height/2, math.Min(width, height)/4) {
		positions[nodes[i].ID] = p
	}
	return positions
}

// ring returns n points evenly spaced on a circle, angle = i/n·2π
func ring(n int, cx, cy, radius float64) []Position {
	points := make([]Position, n)
	for i := 0; i < n; i++ {
		angle := float64(i) / float64(n) * 2 * math.Pi
		points[i] = Position{
			X: cx + radius*math.Cos(angle),
			Y: cy + radius*math.Sin(angle),
		}
	}
	return points
}

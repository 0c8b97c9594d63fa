// Package layout assigns 2-D positions to the nodes of a visible subgraph.
//
// Every mode is a pure function of (nodes, edges, surface size, config):
// identical inputs give identical positions, and zero nodes give an empty map.
package layout

import (
	"math"
	"strings"

	"github.com/teranos/kgviz/errors"
	"github.com/teranos/kgviz/graph"
	"github.com/teranos/kgviz/internal/util"
)

// Mode selects the layout algorithm
type Mode string

const (
	ModeCircular     Mode = "circular"
	ModeForce        Mode = "force"
	ModeHierarchical Mode = "hierarchical"
	ModeTemporal     Mode = "temporal"
)

// Modes lists every supported mode, default first
var Modes = []Mode{ModeCircular, ModeForce, ModeHierarchical, ModeTemporal}

// ParseMode accepts a mode name, case-insensitively. "force-directed" is
// accepted as an alias for force.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(ModeCircular):
		return ModeCircular, nil
	case string(ModeForce), "force-directed":
		return ModeForce, nil
	case string(ModeHierarchical):
		return ModeHierarchical, nil
	case string(ModeTemporal):
		return ModeTemporal, nil
	default:
		return "", errors.NewInvalidRequestError("unknown layout mode %q (want circular, force, hierarchical or temporal)", s)
	}
}

// Position is a point on the drawing surface, in surface pixels
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// DistanceTo returns the Euclidean distance between two positions
func (p Position) DistanceTo(other Position) float64 {
	return math.Hypot(p.X-other.X, p.Y-other.Y)
}

// Config holds the tunable layout parameters
type Config struct {
	Iterations    int     `mapstructure:"iterations" validate:"gte=1"`      // force relaxation steps
	Repulsion     float64 `mapstructure:"repulsion" validate:"gt=0"`        // inverse-square constant between all pairs
	Attraction    float64 `mapstructure:"attraction" validate:"gt=0"`       // spring constant along edges, scaled by confidence
	Padding       float64 `mapstructure:"padding" validate:"gte=0"`         // inset from the surface border
	MinSeparation float64 `mapstructure:"min_separation" validate:"gte=0"`  // force mode never places two nodes closer than this
	MaxForceNodes int     `mapstructure:"max_force_nodes" validate:"gte=0"` // above this, force falls back to circular (0 = no limit)
}

// DefaultConfig returns the layout defaults
func DefaultConfig() Config {
	return Config{
		Iterations:    300,
		Repulsion:     20000,
		Attraction:    0.05,
		Padding:       30,
		MinSeparation: 10,
		MaxForceNodes: 500,
	}
}

// Compute lays out nodes on a width×height surface. Edges whose endpoints are
// not among nodes are ignored.
func Compute(nodes []graph.Node, edges []graph.Edge, mode Mode, width, height float64, cfg Config) map[string]Position {
	if len(nodes) == 0 {
		return map[string]Position{}
	}
	width = math.Max(width, 1)
	height = math.Max(height, 1)

	switch mode {
	case ModeForce:
		if cfg.MaxForceNodes > 0 && len(nodes) > cfg.MaxForceNodes {
			return Circular(nodes, width, height)
		}
		return ForceDirected(nodes, edges, width, height, cfg)
	case ModeHierarchical:
		return Hierarchical(nodes, edges, width, height, cfg)
	case ModeTemporal:
		return Temporal(nodes, width, height)
	default:
		return Circular(nodes, width, height)
	}
}

// bounds is the rectangle positions are clamped into
type bounds struct {
	minX, minY, maxX, maxY float64
}

// insetBounds insets the surface by padding, but never by more than a
// quarter of a side, so the rectangle keeps a nonzero area
func insetBounds(width, height, padding float64) bounds {
	px := math.Min(padding, width/4)
	py := math.Min(padding, height/4)
	return bounds{minX: px, minY: py, maxX: width - px, maxY: height - py}
}

func (b bounds) clamp(p Position) Position {
	return Position{
		X: util.Clamp(p.X, b.minX, b.maxX),
		Y: util.Clamp(p.Y, b.minY, b.maxY),
	}
}

// indexEdges maps edges onto node indices, dropping edges that leave the node
// set and self-loops.
func indexEdges(nodes []graph.Node, edges []graph.Edge) (map[string]int, [][2]int, []float64) {
	index := make(map[string]int, len(nodes))
	for i, n := range nodes {
		index[n.ID] = i
	}

	pairs := make([][2]int, 0, len(edges))
	weights := make([]float64, 0, len(edges))
	for _, e := range edges {
		s, okS := index[e.Source]
		t, okT := index[e.Target]
		if !okS || !okT || s == t {
			continue
		}
		pairs = append(pairs, [2]int{s, t})
		weights = append(weights, e.Confidence)
	}
	return index, pairs, weights
}

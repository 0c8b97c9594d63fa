package graph

import (
	"math"
)

// SanitizeReport lists what Sanitize repaired
type SanitizeReport struct {
	DuplicateNodes []string `json:"duplicate_nodes,omitempty"` // node ids seen more than once
	DanglingEdges  []string `json:"dangling_edges,omitempty"`  // edge ids referencing a missing node
	ClampedScores  int      `json:"clamped_scores,omitempty"`  // importance/confidence values pulled into [0,1]
	LayersExtended bool     `json:"layers_extended,omitempty"` // TemporalLayers raised to cover node layers
}

// Clean reports whether nothing had to be repaired
func (r SanitizeReport) Clean() bool {
	return len(r.DuplicateNodes) == 0 && len(r.DanglingEdges) == 0 && r.ClampedScores == 0 && !r.LayersExtended
}

// Sanitize returns a repaired copy of g. The first node with a given id wins,
// edges whose source or target is not a node are dropped, importance and
// confidence are clamped into [0,1] (NaN becomes 0), and TemporalLayers is
// raised to the highest layer any node claims. g is not modified.
func Sanitize(g *KnowledgeGraph) (*KnowledgeGraph, SanitizeReport) {
	var report SanitizeReport
	if g == nil {
		return &KnowledgeGraph{}, report
	}

	out := *g
	out.Nodes = make([]Node, 0, len(g.Nodes))
	out.Edges = make([]Edge, 0, len(g.Edges))

	seen := make(map[string]struct{}, len(g.Nodes))
	maxLayer := 0
	for _, n := range g.Nodes {
		if _, dup := seen[n.ID]; dup {
			report.DuplicateNodes = append(report.DuplicateNodes, n.ID)
			continue
		}
		seen[n.ID] = struct{}{}

		var clamped bool
		n.Importance, clamped = clampUnit(n.Importance)
		if clamped {
			report.ClampedScores++
		}
		if n.TemporalLayer != nil {
			layer := *n.TemporalLayer
			n.TemporalLayer = &layer
			if layer > maxLayer {
				maxLayer = layer
			}
		}
		out.Nodes = append(out.Nodes, n)
	}

	for _, e := range g.Edges {
		_, okSource := seen[e.Source]
		_, okTarget := seen[e.Target]
		if !okSource || !okTarget {
			report.DanglingEdges = append(report.DanglingEdges, e.ID)
			continue
		}

		var clamped bool
		e.Confidence, clamped = clampUnit(e.Confidence)
		if clamped {
			report.ClampedScores++
		}
		if math.IsNaN(e.Weight) || math.IsInf(e.Weight, 0) {
			e.Weight = 0
		}
		out.Edges = append(out.Edges, e)
	}

	if maxLayer > out.TemporalLayers {
		out.TemporalLayers = maxLayer
		report.LayersExtended = true
	}

	out.Metadata.TotalNodes = len(out.Nodes)
	out.Metadata.TotalEdges = len(out.Edges)

	return &out, report
}

func clampUnit(v float64) (float64, bool) {
	switch {
	case math.IsNaN(v):
		return 0, true
	case v < 0:
		return 0, true
	case v > 1:
		return 1, true
	default:
		return v, false
	}
}

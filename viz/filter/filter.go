// Package filter reduces a knowledge graph to its visible subgraph.
//
// Nodes are filtered first (type, search, temporal layer), then edges are kept
// only when their own type passes and both endpoints survived. Apply is pure
// and cheap enough to run on every keystroke.
package filter

import (
	"strings"

	"github.com/teranos/kgviz/graph"
	"github.com/teranos/kgviz/internal/util"
)

// All disables a type filter. The empty string means the same.
const All = "all"

// Criteria is the set of user-controlled reductions applied to a graph
type Criteria struct {
	NodeType      string `json:"node_type"`
	EdgeType      string `json:"edge_type"`
	Search        string `json:"search"`
	TemporalLayer int    `json:"temporal_layer"` // 0 = all layers
}

// Result is the visible subgraph. Order follows the input graph.
type Result struct {
	Nodes []graph.Node
	Edges []graph.Edge
}

// Apply computes the visible subgraph of g under c
func Apply(g *graph.KnowledgeGraph, c Criteria) Result {
	res := Result{Nodes: []graph.Node{}, Edges: []graph.Edge{}}
	if g == nil {
		return res
	}

	layer := EffectiveLayer(g, c.TemporalLayer)
	term := strings.TrimSpace(c.Search)

	visibleNodes := make(map[string]bool, len(g.Nodes))
	for _, node := range g.Nodes {
		if !typeMatches(c.NodeType, node.Type) {
			continue
		}
		if !util.ContainsFold(node.Label, term) && !util.ContainsFold(node.Type, term) {
			continue
		}
		if !node.InLayer(layer) {
			continue
		}
		visibleNodes[node.ID] = true
		res.Nodes = append(res.Nodes, node)
	}

	// Edges after nodes: an edge is only visible if both endpoints are visible
	for _, edge := range g.Edges {
		if !typeMatches(c.EdgeType, edge.Type) {
			continue
		}
		if !visibleNodes[edge.Source] || !visibleNodes[edge.Target] {
			continue
		}
		res.Edges = append(res.Edges, edge)
	}

	return res
}

// EffectiveLayer is the layer Apply actually filters on. Graphs without
// temporal structure ignore a nonzero request.
func EffectiveLayer(g *graph.KnowledgeGraph, requested int) int {
	if !g.HasTemporalStructure() || requested < 0 {
		return 0
	}
	return requested
}

func typeMatches(filter, value string) bool {
	return filter == "" || filter == All || filter == value
}

// Empty reports whether no node survived
func (r Result) Empty() bool {
	return len(r.Nodes) == 0
}

// NodeIDs returns the visible node ids as a set
func (r Result) NodeIDs() map[string]struct{} {
	ids := make(map[string]struct{}, len(r.Nodes))
	for _, n := range r.Nodes {
		ids[n.ID] = struct{}{}
	}
	return ids
}

// EdgeIDs returns the visible edge ids as a set
func (r Result) EdgeIDs() map[string]struct{} {
	ids := make(map[string]struct{}, len(r.Edges))
	for _, e := range r.Edges {
		ids[e.ID] = struct{}{}
	}
	return ids
}

// Graph rewraps the result as a graph carrying base's identity and layer
// count, so it can be filtered again or exported.
func (r Result) Graph(base *graph.KnowledgeGraph) *graph.KnowledgeGraph {
	out := &graph.KnowledgeGraph{Nodes: r.Nodes, Edges: r.Edges}
	if base != nil {
		out.ID = base.ID
		out.Name = base.Name
		out.Type = base.Type
		out.TemporalLayers = base.TemporalLayers
		out.Metadata = base.Metadata
	}
	out.Metadata.TotalNodes = len(r.Nodes)
	out.Metadata.TotalEdges = len(r.Edges)
	return out
}

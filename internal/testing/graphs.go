// Package testing holds graph fixtures shared by package tests.
package testing

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/teranos/kgviz/graph"
	"github.com/teranos/kgviz/internal/util"
)

// ConceptPair is A(entity, 0.9) → B(concept, 0.2) with confidence 0.5.
func ConceptPair() *graph.KnowledgeGraph {
	return &graph.KnowledgeGraph{
		ID:   "pair",
		Name: "Concept pair",
		Type: graph.GraphTypeSemantic,
		Nodes: []graph.Node{
			{ID: "A", Label: "Alpha", Type: graph.NodeTypeEntity, Importance: 0.9},
			{ID: "B", Label: "Beta", Type: graph.NodeTypeConcept, Importance: 0.2},
		},
		Edges: []graph.Edge{
			{ID: "A-B", Source: "A", Target: "B", Type: "related_to", Confidence: 0.5},
		},
	}
}

// TemporalTriple has three layers. C lives only in layer 2, D in layer 1,
// E in layer 3 and F in every layer.
func TemporalTriple() *graph.KnowledgeGraph {
	return &graph.KnowledgeGraph{
		ID:             "timeline",
		Name:           "Timeline",
		Type:           graph.GraphTypeTemporal,
		TemporalLayers: 3,
		Nodes: []graph.Node{
			{ID: "C", Label: "Cause", Type: graph.NodeTypeCausal, Importance: 0.5, TemporalLayer: util.Ptr(2)},
			{ID: "D", Label: "Dawn", Type: graph.NodeTypeTemporal, Importance: 0.3, TemporalLayer: util.Ptr(1)},
			{ID: "E", Label: "Effect", Type: graph.NodeTypeCausal, Importance: 0.7, TemporalLayer: util.Ptr(3)},
			{ID: "F", Label: "Field", Type: graph.NodeTypeConcept, Importance: 0.4},
		},
		Edges: []graph.Edge{
			{ID: "D-C", Source: "D", Target: "C", Type: "precedes", Confidence: 0.8},
			{ID: "C-E", Source: "C", Target: "E", Type: "causes", Confidence: 0.9},
			{ID: "F-C", Source: "F", Target: "C", Type: "related_to", Confidence: 0.4},
		},
	}
}

// Cyclic is a→b→c→a with a tail c→d and a self-loop on d.
func Cyclic() *graph.KnowledgeGraph {
	return &graph.KnowledgeGraph{
		ID:   "cycle",
		Name: "Cycle",
		Type: graph.GraphTypeHierarchical,
		Nodes: []graph.Node{
			{ID: "a", Label: "a", Type: graph.NodeTypeEntity, Importance: 0.5},
			{ID: "b", Label: "b", Type: graph.NodeTypeEntity, Importance: 0.5},
			{ID: "c", Label: "c", Type: graph.NodeTypeEntity, Importance: 0.5},
			{ID: "d", Label: "d", Type: graph.NodeTypeConcept, Importance: 0.5},
		},
		Edges: []graph.Edge{
			{ID: "ab", Source: "a", Target: "b", Type: "is_a", Confidence: 1},
			{ID: "bc", Source: "b", Target: "c", Type: "is_a", Confidence: 1},
			{ID: "ca", Source: "c", Target: "a", Type: "is_a", Confidence: 1},
			{ID: "cd", Source: "c", Target: "d", Type: "part_of", Confidence: 1},
			{ID: "dd", Source: "d", Target: "d", Type: "part_of", Confidence: 1},
		},
	}
}

var ringTypes = []string{
	graph.NodeTypeEntity,
	graph.NodeTypeConcept,
	graph.NodeTypeRelation,
	graph.NodeTypeTemporal,
	graph.NodeTypeCausal,
}

// Ring builds n nodes joined in a ring with chords every third node.
// Types, importance and confidence vary deterministically.
func Ring(n int) *graph.KnowledgeGraph {
	g := &graph.KnowledgeGraph{ID: fmt.Sprintf("ring-%d", n), Name: "Ring", Type: graph.GraphTypeSemantic}
	for i := 0; i < n; i++ {
		g.Nodes = append(g.Nodes, graph.Node{
			ID:         fmt.Sprintf("n%d", i),
			Label:      fmt.Sprintf("Node %d", i),
			Type:       ringTypes[i%len(ringTypes)],
			Importance: float64(i%10) / 10,
		})
	}
	for i := 0; i < n && n > 1; i++ {
		j := (i + 1) % n
		g.Edges = append(g.Edges, graph.Edge{
			ID:         fmt.Sprintf("r%d", i),
			Source:     g.Nodes[i].ID,
			Target:     g.Nodes[j].ID,
			Type:       "related_to",
			Confidence: 0.3 + float64(i%7)/10,
		})
		if i%3 == 0 && n > 3 {
			k := (i + n/2) % n
			g.Edges = append(g.Edges, graph.Edge{
				ID:         fmt.Sprintf("c%d", i),
				Source:     g.Nodes[i].ID,
				Target:     g.Nodes[k].ID,
				Type:       "causes",
				Confidence: 0.6,
			})
		}
	}
	return g
}

// Dense has n nodes, each linked to the next fan nodes (wrapping around).
// Its springs pull large graphs into a tight knot.
func Dense(n, fan int) *graph.KnowledgeGraph {
	g := &graph.KnowledgeGraph{ID: fmt.Sprintf("dense-%d", n), Name: "Dense", Type: graph.GraphTypeSemantic}
	for i := 0; i < n; i++ {
		g.Nodes = append(g.Nodes, graph.Node{
			ID:         fmt.Sprintf("n%d", i),
			Label:      fmt.Sprintf("Node %d", i),
			Type:       ringTypes[i%len(ringTypes)],
			Importance: 0.5,
		})
	}
	for i := 0; i < n; i++ {
		for k := 1; k <= fan && k < n; k++ {
			g.Edges = append(g.Edges, graph.Edge{
				ID:         fmt.Sprintf("d%d-%d", i, k),
				Source:     g.Nodes[i].ID,
				Target:     g.Nodes[(i+k)%n].ID,
				Type:       "related_to",
				Confidence: 1,
			})
		}
	}
	return g
}

// WriteGraphFile writes g into dir as name and returns the full path.
func WriteGraphFile(t *testing.T, dir, name string, g *graph.KnowledgeGraph) string {
	t.Helper()

	format, ok := graph.FormatFromPath(name)
	if !ok {
		t.Fatalf("unsupported fixture file name %q", name)
	}

	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create fixture file: %v", err)
	}
	defer f.Close()

	if err := graph.Encode(f, g, format); err != nil {
		t.Fatalf("Failed to encode fixture graph: %v", err)
	}
	return path
}

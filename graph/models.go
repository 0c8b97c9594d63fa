package graph

import (
	"time"
)

// Node type vocabulary. Any non-empty tag is accepted; these are the ones the
// default palette knows about.
const (
	NodeTypeEntity   = "entity"
	NodeTypeConcept  = "concept"
	NodeTypeRelation = "relation"
	NodeTypeTemporal = "temporal"
	NodeTypeCausal   = "causal"
)

// GraphType classifies a whole knowledge graph
type GraphType string

const (
	GraphTypeTemporal     GraphType = "temporal"
	GraphTypeCausal       GraphType = "causal"
	GraphTypeSemantic     GraphType = "semantic"
	GraphTypeHierarchical GraphType = "hierarchical"
)

// KnowledgeGraph is the complete graph snapshot handed to the visualization engine.
// The engine treats it as read-only.
type KnowledgeGraph struct {
	ID             string    `json:"id" yaml:"id" validate:"required"`
	Name           string    `json:"name" yaml:"name"`
	Type           GraphType `json:"type" yaml:"type" validate:"omitempty,oneof=temporal causal semantic hierarchical"`
	Nodes          []Node    `json:"nodes" yaml:"nodes" validate:"dive"`
	Edges          []Edge    `json:"edges" yaml:"edges" validate:"dive"`
	TemporalLayers int       `json:"temporal_layers" yaml:"temporal_layers" validate:"gte=0"`
	Metadata       Metadata  `json:"metadata" yaml:"metadata"`
}

// Node represents an entity in the graph
type Node struct {
	ID            string                 `json:"id" yaml:"id" validate:"required"`
	Label         string                 `json:"label" yaml:"label"`
	Type          string                 `json:"type" yaml:"type"` // entity, concept, relation, temporal, causal, or any custom tag
	Category      string                 `json:"category,omitempty" yaml:"category,omitempty"`
	Importance    float64                `json:"importance" yaml:"importance"`
	TemporalLayer *int                   `json:"temporal_layer,omitempty" yaml:"temporal_layer,omitempty" validate:"omitempty,gte=1"` // nil: present in every layer
	Properties    map[string]interface{} `json:"properties,omitempty" yaml:"properties,omitempty"`
}

// Edge represents a directed relationship between two nodes
type Edge struct {
	ID               string                 `json:"id" yaml:"id" validate:"required"`
	Source           string                 `json:"source" yaml:"source" validate:"required"` // Node ID
	Target           string                 `json:"target" yaml:"target" validate:"required"` // Node ID
	Type             string                 `json:"type" yaml:"type"`
	Weight           float64                `json:"weight" yaml:"weight"` // Reserved for layout tuning
	TemporalRelation string                 `json:"temporal_relation,omitempty" yaml:"temporal_relation,omitempty"`
	Confidence       float64                `json:"confidence" yaml:"confidence"`
	Properties       map[string]interface{} `json:"properties,omitempty" yaml:"properties,omitempty"`
}

// Metadata carries descriptive data about a graph. Provenance is opaque
// display data (model names, derivation notes).
type Metadata struct {
	CreatedAt  time.Time         `json:"created_at" yaml:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at" yaml:"updated_at"`
	TotalNodes int               `json:"total_nodes" yaml:"total_nodes"`
	TotalEdges int               `json:"total_edges" yaml:"total_edges"`
	Domains    []string          `json:"domains,omitempty" yaml:"domains,omitempty"`
	Provenance map[string]string `json:"provenance,omitempty" yaml:"provenance,omitempty"`
}

// Summary is a listing entry returned by a graph source
type Summary struct {
	ID             string    `json:"id" yaml:"id"`
	Name           string    `json:"name" yaml:"name"`
	Type           GraphType `json:"type" yaml:"type"`
	TotalNodes     int       `json:"total_nodes" yaml:"total_nodes"`
	TotalEdges     int       `json:"total_edges" yaml:"total_edges"`
	TemporalLayers int       `json:"temporal_layers" yaml:"temporal_layers"`
	UpdatedAt      time.Time `json:"updated_at" yaml:"updated_at"`
}

// Metrics are per-graph figures reported by the metrics endpoint.
// Architecture and Performance are display-only.
type Metrics struct {
	GraphID        string            `json:"graph_id" yaml:"graph_id"`
	TotalNodes     int               `json:"total_nodes" yaml:"total_nodes"`
	TotalEdges     int               `json:"total_edges" yaml:"total_edges"`
	TemporalLayers int               `json:"temporal_layers" yaml:"temporal_layers"`
	Architecture   map[string]string `json:"architecture,omitempty" yaml:"architecture,omitempty"`
	Performance    map[string]string `json:"performance,omitempty" yaml:"performance,omitempty"`
}

// NodeTypeInfo describes a node type and its visual configuration (legend entry)
type NodeTypeInfo struct {
	Type  string `json:"type"`
	Label string `json:"label"`
	Color string `json:"color,omitempty"`
	Count int    `json:"count,omitempty"`
}

// EdgeTypeInfo describes an edge type present in a graph
type EdgeTypeInfo struct {
	Type  string `json:"type"`
	Label string `json:"label"`
	Count int    `json:"count,omitempty"`
}

// Summarize builds the listing entry for a graph
func (g *KnowledgeGraph) Summarize() Summary {
	return Summary{
		ID:             g.ID,
		Name:           g.Name,
		Type:           g.Type,
		TotalNodes:     len(g.Nodes),
		TotalEdges:     len(g.Edges),
		TemporalLayers: g.TemporalLayers,
		UpdatedAt:      g.Metadata.UpdatedAt,
	}
}

// HasTemporalStructure reports whether the graph has more than one temporal layer.
// Zero and one both mean no temporal structure.
func (g *KnowledgeGraph) HasTemporalStructure() bool {
	return g != nil && g.TemporalLayers > 1
}

// NodeByID returns the node with the given id
func (g *KnowledgeGraph) NodeByID(id string) (Node, bool) {
	for _, n := range g.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// InLayer reports whether the node exists in the given temporal layer.
// Layer 0 means every layer.
func (n Node) InLayer(layer int) bool {
	return layer == 0 || n.TemporalLayer == nil || *n.TemporalLayer == layer
}

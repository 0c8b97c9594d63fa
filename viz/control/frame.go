package control

import (
	"time"

	"github.com/google/uuid"

	"github.com/teranos/kgviz/graph"
	"github.com/teranos/kgviz/viz/layout"
)

// NoMatchingNodes is the frame message for an empty visible set
const NoMatchingNodes = "no matching nodes"

// Frame is the renderable state of the view: everything a caller needs to
// draw, describe or export what the user currently sees.
type Frame struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`

	GraphID        string          `json:"graph_id,omitempty"`
	GraphName      string          `json:"graph_name,omitempty"`
	GraphType      graph.GraphType `json:"graph_type,omitempty"`
	TemporalLayers int             `json:"temporal_layers"`

	State State `json:"state"`

	Nodes     []graph.Node               `json:"nodes"`
	Edges     []graph.Edge               `json:"edges"`
	Positions map[string]layout.Position `json:"positions"`

	// Legend and filter menus describe the whole graph, not the visible part
	NodeLegend []graph.NodeTypeInfo `json:"node_legend"`
	EdgeLegend []graph.EdgeTypeInfo `json:"edge_legend"`
	NodeTypes  []string             `json:"node_types"`
	EdgeTypes  []string             `json:"edge_types"`

	Metrics *graph.Metrics `json:"metrics,omitempty"`

	Empty   bool              `json:"empty"`
	Message string            `json:"message,omitempty"`
	Error   map[string]string `json:"error,omitempty"`
}

// Frame returns the current renderable state. It is the export hook: callers
// serialize it or feed it to a renderer, the controller does no file I/O.
func (c *Controller) Frame() Frame {
	c.ensureLayout()

	f := Frame{
		ID:         uuid.NewString(),
		CreatedAt:  time.Now(),
		State:      c.state,
		Nodes:      c.visible.Nodes,
		Edges:      c.visible.Edges,
		Positions:  c.positions,
		NodeLegend: []graph.NodeTypeInfo{},
		EdgeLegend: []graph.EdgeTypeInfo{},
		NodeTypes:  []string{},
		EdgeTypes:  []string{},
		Metrics:    c.metrics,
		Empty:      c.visible.Empty(),
	}

	if c.graph != nil {
		f.GraphID = c.graph.ID
		f.GraphName = c.graph.Name
		f.GraphType = c.graph.Type
		f.TemporalLayers = c.graph.TemporalLayers
		f.NodeLegend = graph.CollectNodeTypeInfo(c.graph.Nodes, c.renderer.Palette())
		f.EdgeLegend = graph.CollectEdgeTypeInfo(c.graph.Edges)
		f.NodeTypes = graph.NodeTypes(c.graph)
		f.EdgeTypes = graph.EdgeTypes(c.graph)
	}

	if f.Empty {
		f.Message = NoMatchingNodes
	}
	if c.lastErr != nil {
		f.Error = c.lastErr.ToFrameMeta()
	}
	return f
}

// Subgraph returns the visible part of the loaded graph as a document. With
// full set it returns the whole loaded graph instead.
func (c *Controller) Subgraph(full bool) *graph.KnowledgeGraph {
	if c.graph == nil {
		return nil
	}
	if full {
		return c.graph
	}
	return c.visible.Graph(c.graph)
}

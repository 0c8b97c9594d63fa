package control

import (
	"github.com/teranos/kgviz/viz/filter"
	"github.com/teranos/kgviz/viz/layout"
)

// State is the controller's complete interaction state. It is the only
// mutable state in the engine.
type State struct {
	SelectedGraphID  string      `json:"selected_graph_id"`
	LayoutMode       layout.Mode `json:"layout_mode"`
	NodeTypeFilter   string      `json:"node_type_filter"`
	EdgeTypeFilter   string      `json:"edge_type_filter"`
	SearchTerm       string      `json:"search_term"`
	TemporalLayer    int         `json:"temporal_layer"` // 0 = all layers
	AnimationEnabled bool        `json:"animation_enabled"`
	ZoomLevel        float64     `json:"zoom_level"`
	SelectedNodeID   string      `json:"selected_node_id,omitempty"`
	SelectedEdgeID   string      `json:"selected_edge_id,omitempty"`
	Width            int         `json:"width"`
	Height           int         `json:"height"`
}

// DefaultState is the state before any graph is selected
func DefaultState(cfg Config) State {
	mode := cfg.DefaultMode
	if mode == "" {
		mode = layout.ModeCircular
	}
	return State{
		LayoutMode:     mode,
		NodeTypeFilter: filter.All,
		EdgeTypeFilter: filter.All,
		ZoomLevel:      clampZoom(1, cfg),
		Width:          cfg.Width,
		Height:         cfg.Height,
	}
}

// Criteria is the filter input derived from the state
func (s State) Criteria() filter.Criteria {
	return filter.Criteria{
		NodeType:      s.NodeTypeFilter,
		EdgeType:      s.EdgeTypeFilter,
		Search:        s.SearchTerm,
		TemporalLayer: s.TemporalLayer,
	}
}

func (s *State) clearSelection() {
	s.SelectedNodeID = ""
	s.SelectedEdgeID = ""
}

func clampZoom(z float64, cfg Config) float64 {
	if cfg.ZoomMin > 0 && z < cfg.ZoomMin {
		z = cfg.ZoomMin
	}
	if cfg.ZoomMax > 0 && z > cfg.ZoomMax {
		z = cfg.ZoomMax
	}
	return z
}

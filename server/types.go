package server

import (
	"time"

	"github.com/teranos/kgviz/graph"
	"github.com/teranos/kgviz/viz/control"
	"github.com/teranos/kgviz/viz/layout"
	"github.com/teranos/kgviz/viz/render"
)

const (
	// MaxClientMessageQueueSize is the size of per-client outbound and inbound queues
	MaxClientMessageQueueSize = 64

	// DefaultShutdownTimeout bounds graceful shutdown when none is configured
	DefaultShutdownTimeout = 5 * time.Second

	// loadTimeout bounds one graph fetch started by a client
	loadTimeout = 30 * time.Second
)

// ServerState represents the server lifecycle state
type ServerState int

const (
	ServerStateRunning  ServerState = iota // Normal operation
	ServerStateDraining                    // Graceful shutdown in progress
	ServerStateStopped                     // Shutdown complete
)

func (s ServerState) String() string {
	switch s {
	case ServerStateRunning:
		return "running"
	case ServerStateDraining:
		return "draining"
	case ServerStateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Control message types sent by websocket clients
const (
	MsgListGraphs      = "list_graphs"
	MsgSelectGraph     = "select_graph"
	MsgSetLayout       = "set_layout"
	MsgSetNodeType     = "set_node_type"
	MsgSetEdgeType     = "set_edge_type"
	MsgSearch          = "search"
	MsgSetLayer        = "set_layer"
	MsgToggleAnimation = "toggle_animation"
	MsgZoomIn          = "zoom_in"
	MsgZoomOut         = "zoom_out"
	MsgSetZoom         = "set_zoom"
	MsgResetView       = "reset_view"
	MsgClick           = "click"
	MsgResize          = "resize"
	MsgExport          = "export"
	MsgPing            = "ping"
)

// Reply types sent to websocket clients
const (
	ReplyFrame  = "frame"
	ReplyGraphs = "graphs"
	ReplyExport = "export"
	ReplyError  = "error"
	ReplyPong   = "pong"
)

// ControlMessage is one client request. Only the fields of its type are read.
type ControlMessage struct {
	Type     string  `json:"type"`
	GraphID  string  `json:"graph_id,omitempty"`  // select_graph
	Mode     string  `json:"mode,omitempty"`      // set_layout
	NodeType string  `json:"node_type,omitempty"` // set_node_type ("" or "all" clears)
	EdgeType string  `json:"edge_type,omitempty"` // set_edge_type
	Term     string  `json:"term,omitempty"`      // search
	Layer    int     `json:"layer,omitempty"`     // set_layer
	Zoom     float64 `json:"zoom,omitempty"`      // set_zoom
	X        float64 `json:"x,omitempty"`         // click
	Y        float64 `json:"y,omitempty"`         // click
	Width    int     `json:"width,omitempty"`     // resize
	Height   int     `json:"height,omitempty"`    // resize
	Full     bool    `json:"full,omitempty"`      // export: whole graph instead of the visible part
}

// FrameMessage carries the rendered frame and the state behind it
type FrameMessage struct {
	Type  string        `json:"type"`
	Frame control.Frame `json:"frame"`
	Stats render.Stats  `json:"stats"`
	PNG   string        `json:"png"` // base64
	Hit   *control.Hit  `json:"hit,omitempty"`
}

// GraphsMessage lists the available graphs
type GraphsMessage struct {
	Type   string          `json:"type"`
	Graphs []graph.Summary `json:"graphs"`
}

// ExportMessage is the reply to export
type ExportMessage struct {
	Type      string                     `json:"type"`
	Graph     *graph.KnowledgeGraph      `json:"graph"`
	Positions map[string]layout.Position `json:"positions"`
}

// ErrorMessage reports a rejected request. The session state is unchanged.
type ErrorMessage struct {
	Type    string   `json:"type"`
	Request string   `json:"request,omitempty"`
	Error   string   `json:"error"`
	Hints   []string `json:"hints,omitempty"`
}

// PongMessage answers ping
type PongMessage struct {
	Type string    `json:"type"`
	Time time.Time `json:"time"`
}

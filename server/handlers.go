package server

import (
	"bytes"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/teranos/kgviz/errors"
	"github.com/teranos/kgviz/logger"
	"github.com/teranos/kgviz/version"
	"github.com/teranos/kgviz/viz/control"
	"github.com/teranos/kgviz/viz/layout"
	"github.com/teranos/kgviz/viz/render"
)

// Response headers on rendered frames
const (
	HeaderNodes = "X-Kgviz-Nodes"
	HeaderEdges = "X-Kgviz-Edges"
)

// maxRenderSide caps width and height of the render endpoint
const maxRenderSide = 8192

// HandleHealth reports liveness, version and session count
func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	if s.State() != ServerStateRunning {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]interface{}{
		"status":  s.State().String(),
		"version": version.Get(),
		"clients": s.ClientCount(),
	})
}

// HandleListGraphs lists the graphs the source offers
func (s *Server) HandleListGraphs(w http.ResponseWriter, r *http.Request) {
	graphs, err := s.source.ListGraphs(r.Context())
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, graphs)
}

// HandleGetGraph returns one graph document
func (s *Server) HandleGetGraph(w http.ResponseWriter, r *http.Request) {
	g, err := s.source.GetGraph(r.Context(), chi.URLParam(r, "graphID"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

// HandleGraphMetrics returns the metrics descriptor of one graph
func (s *Server) HandleGraphMetrics(w http.ResponseWriter, r *http.Request) {
	m, err := s.source.GetMetrics(r.Context(), chi.URLParam(r, "graphID"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// HandleRender draws one frame as PNG. Query parameters mirror the
// websocket controls: mode, node_type, edge_type, search, layer, zoom,
// width, height.
func (s *Server) HandleRender(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctrl, err := s.sessionFromQuery(r)
	if err != nil {
		writeErr(w, err)
		return
	}
	defer ctrl.Close()

	state := ctrl.State()
	surface := render.NewImageSurface(state.Width, state.Height)
	stats := ctrl.Render(surface)

	var buf bytes.Buffer
	if err := surface.EncodePNG(&buf); err != nil {
		writeErr(w, errors.Wrap(err, "failed to encode frame"))
		return
	}
	s.metrics.ObserveFrame(time.Since(start))

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set(HeaderNodes, strconv.Itoa(stats.NodesDrawn))
	w.Header().Set(HeaderEdges, strconv.Itoa(stats.EdgesDrawn))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// HandleExport returns the visible subgraph with its layout as JSON; full=true
// returns the whole graph
func (s *Server) HandleExport(w http.ResponseWriter, r *http.Request) {
	ctrl, err := s.sessionFromQuery(r)
	if err != nil {
		writeErr(w, err)
		return
	}
	defer ctrl.Close()

	full, _ := strconv.ParseBool(r.URL.Query().Get("full"))
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"graph":     ctrl.Subgraph(full),
		"positions": ctrl.Positions(),
		"state":     ctrl.State(),
	})
}

// sessionFromQuery builds a one-shot controller for the graph in the path,
// with the view described by the query string applied
func (s *Server) sessionFromQuery(r *http.Request) (*control.Controller, error) {
	q := r.URL.Query()
	cfg := s.controlConfig()

	for _, dim := range []struct {
		name string
		dst  *int
	}{{"width", &cfg.Width}, {"height", &cfg.Height}} {
		raw := q.Get(dim.name)
		if raw == "" {
			continue
		}
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 || v > maxRenderSide {
			return nil, errors.NewInvalidRequestError("%s must be an integer in 1..%d, got %q", dim.name, maxRenderSide, raw)
		}
		*dim.dst = v
	}

	ctrl, err := control.New(cfg, s.source, s.logger.With(logger.FieldsFromContext(r.Context())...))
	if err != nil {
		return nil, err
	}

	if raw := q.Get("mode"); raw != "" {
		mode, err := layout.ParseMode(raw)
		if err == nil {
			err = ctrl.SetLayoutMode(mode)
		}
		if err != nil {
			ctrl.Close()
			return nil, err
		}
	}

	if err := ctrl.SelectGraph(r.Context(), chi.URLParam(r, "graphID")); err != nil {
		ctrl.Close()
		return nil, err
	}

	// Filters go after the load, a new graph resets the layer
	ctrl.SetNodeTypeFilter(q.Get("node_type"))
	ctrl.SetEdgeTypeFilter(q.Get("edge_type"))
	ctrl.SetSearch(q.Get("search"))

	if raw := q.Get("layer"); raw != "" {
		layer, err := strconv.Atoi(raw)
		if err != nil {
			ctrl.Close()
			return nil, errors.NewInvalidRequestError("layer must be an integer, got %q", raw)
		}
		ctrl.SetTemporalLayer(layer)
	}

	if raw := q.Get("zoom"); raw != "" {
		zoom, err := strconv.ParseFloat(raw, 64)
		if err == nil {
			_, err = ctrl.SetZoom(zoom)
		}
		if err != nil {
			ctrl.Close()
			return nil, errors.NewInvalidRequestError("zoom must be a positive number, got %q", raw)
		}
	}
	return ctrl, nil
}

// HandleWebSocket upgrades the connection and starts a session
func (s *Server) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	if s.State() != ServerStateRunning {
		writeError(w, http.StatusServiceUnavailable, "server is shutting down")
		return
	}
	if max := s.Config().Server.MaxClients; max > 0 && s.ClientCount() >= max {
		s.logger.Warnw("Max clients reached, rejecting connection", "max_clients", max)
		writeError(w, http.StatusServiceUnavailable, "max clients reached",
			"raise server.max_clients or close another session")
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// The upgrader has already written the HTTP error
		s.logger.Warnw("WebSocket upgrade failed", logger.FieldError, err)
		return
	}

	client, err := newClient(s, conn)
	if err != nil {
		s.logger.Errorw("Failed to create session", logger.FieldError, err)
		conn.Close()
		return
	}
	if err := s.register(client); err != nil {
		client.queueError("connect", err)
		conn.Close()
		client.cancel()
		return
	}

	s.logger.Infow("Client connected",
		logger.FieldClientID, client.id,
		"total_clients", s.ClientCount(),
		"remote", r.RemoteAddr)
	client.start()
}

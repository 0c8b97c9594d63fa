// Package server exposes the visualization over HTTP and websocket. Every
// websocket client gets its own interaction controller, driven by one
// goroutine; the HTTP endpoints build a throwaway controller per request.
package server

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/teranos/kgviz/am"
	"github.com/teranos/kgviz/errors"
	"github.com/teranos/kgviz/logger"
	"github.com/teranos/kgviz/viz/control"
)

// Server serves graph frames to HTTP and websocket clients
type Server struct {
	source   control.Source
	logger   *zap.SugaredLogger
	metrics  *Metrics
	cfg      atomic.Pointer[am.Config]
	upgrader websocket.Upgrader

	clients map[*Client]bool
	mu      sync.RWMutex

	httpServer    *http.Server
	configWatcher *am.ConfigWatcher

	// Lifecycle
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	state  atomic.Int32
}

// New creates a server for src. cfg must pass Validate.
func New(cfg *am.Config, src control.Source, log *zap.SugaredLogger) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("server config is required")
	}
	if src == nil {
		return nil, errors.New("graph source is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	if log == nil {
		log = logger.Logger
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		source:  src,
		logger:  log.Named("server"),
		metrics: NewMetrics("kgviz"),
		clients: make(map[*Client]bool),
		ctx:     ctx,
		cancel:  cancel,
	}
	s.cfg.Store(cfg)
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  2048,
		WriteBufferSize: 8192,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			// Direct websocket clients send no origin
			return origin == "" || s.originAllowed(origin)
		},
	}
	s.state.Store(int32(ServerStateRunning))
	return s, nil
}

// Config returns the active configuration
func (s *Server) Config() *am.Config {
	return s.cfg.Load()
}

// Metrics returns the server's collectors
func (s *Server) Metrics() *Metrics {
	return s.metrics
}

func (s *Server) controlConfig() control.Config {
	return s.Config().ControlConfig()
}

// State returns the lifecycle state
func (s *Server) State() ServerState {
	return ServerState(s.state.Load())
}

func (s *Server) setState(newState ServerState) {
	s.state.Store(int32(newState))
	s.logger.Infow("Server state changed", logger.FieldState, newState.String())
}

// ApplyConfig swaps in a reloaded configuration. Connected clients pick up
// the layout, render and interaction settings; the port and source need a
// restart.
func (s *Server) ApplyConfig(cfg *am.Config) error {
	if err := cfg.Validate(); err != nil {
		return errors.Wrap(err, "rejected configuration")
	}
	old := s.cfg.Swap(cfg)
	if old != nil && old.ServerPort() != cfg.ServerPort() {
		s.logger.Warnw("server.port changed, restart to apply",
			"old_port", old.ServerPort(),
			"new_port", cfg.ServerPort())
	}

	cc := cfg.ControlConfig()
	for _, c := range s.snapshotClients() {
		c.reconfigure(cc)
	}
	s.metrics.ConfigReloads.Inc()
	s.logger.Infow("Configuration applied", "clients", s.ClientCount())
	return nil
}

// WatchConfig applies every valid reload from w until the server stops
func (s *Server) WatchConfig(w *am.ConfigWatcher) {
	s.configWatcher = w
	w.OnReload(s.ApplyConfig)
	w.Start()
}

// SourceChanged asks every client to refetch its selected graph
func (s *Server) SourceChanged() {
	clients := s.snapshotClients()
	for _, c := range clients {
		c.notifyReload()
	}
	s.logger.Debugw("Graph source changed", "clients", len(clients))
}

// ClientCount returns the number of connected websocket clients
func (s *Server) ClientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

func (s *Server) snapshotClients() []*Client {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Client, 0, len(s.clients))
	for c := range s.clients {
		out = append(out, c)
	}
	return out
}

// register adds c unless the server is full or shutting down
func (s *Server) register(c *Client) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.State() != ServerStateRunning {
		return errors.Wrap(errors.ErrServiceUnavailable, "server is shutting down")
	}
	if max := s.Config().Server.MaxClients; max > 0 && len(s.clients) >= max {
		return errors.WithHint(
			errors.Wrapf(errors.ErrServiceUnavailable, "max clients reached (%d)", max),
			"raise server.max_clients or close another session")
	}
	s.clients[c] = true
	s.metrics.Clients.Set(float64(len(s.clients)))
	return nil
}

func (s *Server) unregister(c *Client) {
	s.mu.Lock()
	_, ok := s.clients[c]
	delete(s.clients, c)
	total := len(s.clients)
	s.mu.Unlock()

	if ok {
		s.metrics.Clients.Set(float64(total))
		s.logger.Infow("Client disconnected",
			logger.FieldClientID, c.id,
			"total_clients", total)
	}
}

// originAllowed matches origin against server.allowed_origins. An entry
// matches exactly, with any port, or everything when it is "*".
func (s *Server) originAllowed(origin string) bool {
	for _, allowed := range s.Config().GetServerAllowedOrigins() {
		allowed = strings.TrimRight(allowed, "/")
		if allowed == "*" || origin == allowed || strings.HasPrefix(origin, allowed+":") {
			return true
		}
	}
	return false
}

package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/teranos/kgviz/am"
	"github.com/teranos/kgviz/errors"
	"github.com/teranos/kgviz/logger"
)

// Start listens on port, or the first free fallback, and serves until Stop.
// onReady receives the base URL once the listener is bound.
func (s *Server) Start(port int, onReady func(url string)) error {
	ln, actualPort, err := listenAvailable(port)
	if err != nil {
		return errors.Wrap(err, "failed to find available port")
	}
	if port != 0 && actualPort != port {
		s.logger.Infow("Port in use, using alternative",
			"requested_port", port,
			"actual_port", actualPort)
	}

	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	url := fmt.Sprintf("http://localhost:%d", actualPort)
	s.logger.Infow("Server ready", "url", url, logger.FieldPort, actualPort)
	if onReady != nil {
		onReady(url)
	}

	if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "http server failed")
	}
	return nil
}

// Stop gracefully shuts down the server and cleans up resources
func (s *Server) Stop() error {
	if s.State() == ServerStateStopped {
		return nil
	}
	s.logger.Infow("Initiating server shutdown")
	s.setState(ServerStateDraining)

	timeout := s.Config().Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = DefaultShutdownTimeout
	}

	var shutdownErr error
	if s.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		shutdownErr = s.httpServer.Shutdown(ctx)
		cancel()
	}

	// Hijacked websocket connections are not closed by Shutdown
	clients := s.snapshotClients()
	if len(clients) > 0 {
		s.logger.Infow("Closing client connections", "count", len(clients))
		for _, c := range clients {
			c.close()
		}
	}

	s.cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		s.logger.Infow("All goroutines stopped cleanly")
	case <-time.After(timeout):
		s.logger.Warnw("Goroutine shutdown timed out, forcing exit", "timeout", timeout)
	}

	if s.configWatcher != nil {
		if err := s.configWatcher.Stop(); err != nil {
			s.logger.Warnw("Failed to stop config watcher", logger.FieldError, err)
		}
	}

	s.setState(ServerStateStopped)
	s.logger.Infow("Server shutdown complete")
	return shutdownErr
}

// listenAvailable binds the requested port, then the configured fallbacks,
// then a small high range
func listenAvailable(requested int) (net.Listener, int, error) {
	candidates := []int{requested}
	for _, p := range []int{am.DefaultServerPort, am.FallbackServerPort} {
		if p != requested {
			candidates = append(candidates, p)
		}
	}
	for p := 58787; p < 58797; p++ {
		candidates = append(candidates, p)
	}

	for _, port := range candidates {
		ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
		if err == nil {
			// Port 0 asks the kernel for any free port
			return ln, ln.Addr().(*net.TCPAddr).Port, nil
		}
	}
	return nil, 0, errors.Newf("no available ports found (tried %d, %d, %d and 58787-58796)",
		requested, am.DefaultServerPort, am.FallbackServerPort)
}

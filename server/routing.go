package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/teranos/kgviz/logger"
)

// Handler returns the HTTP handler with every route mounted
func (s *Server) Handler() http.Handler {
	router := chi.NewRouter()

	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(s.requestLogger)
	router.Use(s.metrics.Middleware)

	// Origins are read per request so a config reload applies at once
	router.Use(cors.Handler(cors.Options{
		AllowOriginFunc: func(r *http.Request, origin string) bool {
			return s.originAllowed(origin)
		},
		AllowedMethods:   []string{"GET", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", HeaderNodes, HeaderEdges},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.Get("/health", s.HandleHealth)
	router.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	router.Get("/ws", s.HandleWebSocket)

	router.Route("/api/graphs", func(r chi.Router) {
		r.Get("/", s.HandleListGraphs)
		r.Get("/{graphID}", s.HandleGetGraph)
		r.Get("/{graphID}/metrics", s.HandleGraphMetrics)
		r.Get("/{graphID}/render.png", s.HandleRender)
		r.Get("/{graphID}/export", s.HandleExport)
	})

	return router
}

// requestLogger logs each request at debug level
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		r = r.WithContext(logger.WithRequestID(r.Context(), chimiddleware.GetReqID(r.Context())))
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.logger.Debugw("HTTP request",
			logger.FieldRequestID, chimiddleware.GetReqID(r.Context()),
			logger.FieldMethod, r.Method,
			logger.FieldPath, r.URL.Path,
			logger.FieldStatus, ww.Status(),
			logger.FieldSize, ww.BytesWritten(),
			logger.FieldDurationMS, time.Since(start).Milliseconds())
	})
}

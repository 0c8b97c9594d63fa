package logger

import (
	"context"

	"go.uber.org/zap"
)

// Standard field names for consistent structured logging across kgviz.
const (
	// Identity and context
	FieldRequestID = "request_id"
	FieldClientID  = "client_id"

	// Components
	FieldComponent = "component"
	FieldSource    = "source"

	// Operations
	FieldOperation = "operation"
	FieldMethod    = "method"
	FieldPath      = "path"

	// Timing
	FieldDurationMS = "duration_ms"

	// Errors
	FieldError     = "error"
	FieldErrorType = "error_type"

	// Counts and sizes
	FieldCount = "count"
	FieldSize  = "size"

	// Status
	FieldStatus = "status"
	FieldState  = "state"

	// Files and network
	FieldFile    = "file"
	FieldAddress = "address"
	FieldPort    = "port"

	// Visualization
	FieldGraphID = "graph_id"
	FieldMode    = "mode"
	FieldLayer   = "layer"
	FieldNodes   = "nodes"
	FieldEdges   = "edges"
	FieldZoom    = "zoom"
)

type contextKey string

const (
	requestIDKey contextKey = "logger_request_id"
	clientIDKey  contextKey = "logger_client_id"
)

// WithRequestID adds a request ID to the context for logging
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// WithClientID adds a websocket client ID to the context for logging
func WithClientID(ctx context.Context, clientID string) context.Context {
	return context.WithValue(ctx, clientIDKey, clientID)
}

// FieldsFromContext extracts logging fields from context.
// Returns key-value pairs suitable for use with Infow/Errorw/etc.
func FieldsFromContext(ctx context.Context) []interface{} {
	var fields []interface{}

	if requestID, ok := ctx.Value(requestIDKey).(string); ok && requestID != "" {
		fields = append(fields, FieldRequestID, requestID)
	}
	if clientID, ok := ctx.Value(clientIDKey).(string); ok && clientID != "" {
		fields = append(fields, FieldClientID, clientID)
	}

	return fields
}

// ComponentLogger returns a named logger for a specific component.
// This is the preferred way to get a logger for dependency injection.
//
//	ctrl := control.New(src, cfg, logger.ComponentLogger("viz.control"))
func ComponentLogger(name string) *zap.SugaredLogger {
	return Logger.Named(name)
}

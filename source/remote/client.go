// Package remote fetches knowledge graphs from an HTTP/JSON graph service.
//
// Endpoints, relative to the base URL:
//
//	GET /graphs              → []graph.Summary
//	GET /graphs/{id}         → graph.KnowledgeGraph
//	GET /graphs/{id}/metrics → graph.Metrics
//
// Server errors and transport failures count against a circuit breaker; while
// it is open, calls fail fast with errors.ErrServiceUnavailable.
package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/teranos/kgviz/errors"
	"github.com/teranos/kgviz/graph"
	"github.com/teranos/kgviz/internal/httpclient"
	"github.com/teranos/kgviz/logger"
)

// maxErrorBody bounds how much of an error response is kept for messages
const maxErrorBody = 512

// Config configures a Client
type Config struct {
	BaseURL        string        `mapstructure:"url" validate:"required,url"`
	Token          string        `mapstructure:"token"`
	Timeout        time.Duration `mapstructure:"timeout"`
	BlockPrivateIP bool          `mapstructure:"block_private_ip"`

	// Circuit breaker
	MaxRequests      uint32        `mapstructure:"breaker_max_requests"`
	Interval         time.Duration `mapstructure:"breaker_interval"`
	OpenTimeout      time.Duration `mapstructure:"breaker_timeout"`
	FailureThreshold float64       `mapstructure:"breaker_failure_threshold" validate:"gte=0,lte=1"`
	MinRequests      uint32        `mapstructure:"breaker_min_requests"`
}

// DefaultConfig returns the client defaults for baseURL
func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL:          baseURL,
		Timeout:          10 * time.Second,
		MaxRequests:      5,
		Interval:         30 * time.Second,
		OpenTimeout:      60 * time.Second,
		FailureThreshold: 0.8,
		MinRequests:      5,
	}
}

// Client is a graph source backed by a remote service. Safe for concurrent use.
type Client struct {
	base    *url.URL
	token   string
	http    *httpclient.Client
	breaker *gobreaker.CircuitBreaker
	logger  *zap.SugaredLogger
}

// New creates a client. httpClient may be nil to build one from cfg.
func New(cfg Config, httpClient *httpclient.Client, log *zap.SugaredLogger) (*Client, error) {
	if err := graph.ValidateStruct(cfg); err != nil {
		return nil, errors.Wrap(err, "invalid remote source config")
	}
	if log == nil {
		log = logger.Logger
	}
	log = log.Named("source.remote")

	if httpClient == nil {
		httpClient = httpclient.New(httpclient.Options{
			Timeout:        cfg.Timeout,
			BlockPrivateIP: cfg.BlockPrivateIP,
			UserAgent:      "kgviz",
		})
	}

	base, err := httpClient.ValidateURL(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, errors.Wrap(err, "invalid graph service URL")
	}

	c := &Client{
		base:   base,
		token:  cfg.Token,
		http:   httpClient,
		logger: log,
	}
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "graph-service",
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warnw("Circuit breaker state changed",
				"breaker", name,
				"from", from.String(),
				"to", to.String())
		},
		// Client-side problems say nothing about the service's health
		IsSuccessful: func(err error) bool {
			return err == nil || errors.IsNotFoundError(err) || errors.IsInvalidRequestError(err) ||
				errors.Is(err, context.Canceled)
		},
	})
	return c, nil
}

// State reports the breaker state: closed, half-open or open
func (c *Client) State() string {
	return c.breaker.State().String()
}

// ListGraphs returns the summaries the service advertises
func (c *Client) ListGraphs(ctx context.Context) ([]graph.Summary, error) {
	var out []graph.Summary
	if err := c.getJSON(ctx, "graphs", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetGraph fetches, validates and sanitizes one graph
func (c *Client) GetGraph(ctx context.Context, id string) (*graph.KnowledgeGraph, error) {
	var g *graph.KnowledgeGraph
	err := c.do(ctx, "graphs/"+url.PathEscape(id), func(body io.Reader) error {
		loaded, report, err := graph.Load(body, graph.FormatJSON)
		if err != nil {
			return err
		}
		if !report.Clean() {
			c.logger.Infow("Repaired graph from service",
				logger.FieldGraphID, loaded.ID,
				"duplicate_nodes", len(report.DuplicateNodes),
				"dangling_edges", len(report.DanglingEdges),
				"clamped_scores", report.ClampedScores)
		}
		g = loaded
		return nil
	})
	if err != nil {
		return nil, err
	}
	return g, nil
}

// GetMetrics fetches the metrics descriptor for one graph
func (c *Client) GetMetrics(ctx context.Context, id string) (*graph.Metrics, error) {
	var m graph.Metrics
	if err := c.getJSON(ctx, "graphs/"+url.PathEscape(id)+"/metrics", &m); err != nil {
		return nil, err
	}
	if m.GraphID == "" {
		m.GraphID = id
	}
	return &m, nil
}

func (c *Client) getJSON(ctx context.Context, path string, v interface{}) error {
	return c.do(ctx, path, func(body io.Reader) error {
		if err := json.NewDecoder(body).Decode(v); err != nil {
			return errors.Wrap(errors.ErrServiceUnavailable, "malformed response: "+err.Error())
		}
		return nil
	})
}

// do performs GET base/path through the breaker and hands a 200 body to decode
func (c *Client) do(ctx context.Context, path string, decode func(io.Reader) error) error {
	endpoint := c.base.JoinPath(path)
	start := time.Now()

	_, err := c.breaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		if c.token != "" {
			req.Header.Set("Authorization", "Bearer "+c.token)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, errors.Wrap(errors.ErrServiceUnavailable, err.Error())
		}
		defer resp.Body.Close()

		if err := statusError(resp); err != nil {
			return nil, err
		}
		return nil, decode(resp.Body)
	})

	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		err = errors.WithHint(
			errors.Wrapf(errors.ErrServiceUnavailable, "graph service circuit %s", c.State()),
			"the graph service failed repeatedly; requests resume after the breaker timeout")
	case err != nil && errors.Is(err, context.DeadlineExceeded):
		err = errors.Wrap(errors.ErrTimeout, err.Error())
	}

	c.logger.Debugw("Graph service request",
		logger.FieldPath, endpoint.Path,
		logger.FieldDurationMS, time.Since(start).Milliseconds(),
		logger.FieldError, err)
	return err
}

func statusError(resp *http.Response) error {
	if resp.StatusCode == http.StatusOK {
		return nil
	}
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	msg := fmt.Sprintf("%s %s: %s", resp.Request.Method, resp.Request.URL.Path, resp.Status)
	if s := strings.TrimSpace(string(snippet)); s != "" {
		msg += ": " + s
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return errors.Wrap(errors.ErrNotFound, msg)
	case resp.StatusCode == http.StatusGatewayTimeout || resp.StatusCode == http.StatusRequestTimeout:
		return errors.Wrap(errors.ErrTimeout, msg)
	case resp.StatusCode >= 500:
		return errors.Wrap(errors.ErrServiceUnavailable, msg)
	default:
		return errors.Wrap(errors.ErrInvalidRequest, msg)
	}
}

package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/teranos/kgviz/errors"
	"github.com/teranos/kgviz/graph"
	"github.com/teranos/kgviz/internal/httpclient"
	kgtest "github.com/teranos/kgviz/internal/testing"
)

// graphService mimics the upstream service; failing makes every call a 500
type graphService struct {
	graphs  map[string]*graph.KnowledgeGraph
	failing atomic.Bool
	calls   atomic.Int32
	auth    atomic.Value // last Authorization header
}

func (s *graphService) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.calls.Add(1)
	s.auth.Store(r.Header.Get("Authorization"))
	if s.failing.Load() {
		http.Error(w, "boom", http.StatusInternalServerError)
		return
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/graphs", func(w http.ResponseWriter, r *http.Request) {
		var out []graph.Summary
		for _, g := range s.graphs {
			out = append(out, g.Summarize())
		}
		json.NewEncoder(w).Encode(out)
	})
	mux.HandleFunc("GET /api/graphs/{id}", func(w http.ResponseWriter, r *http.Request) {
		g, ok := s.graphs[r.PathValue("id")]
		if !ok {
			http.Error(w, "no such graph", http.StatusNotFound)
			return
		}
		json.NewEncoder(w).Encode(g)
	})
	mux.HandleFunc("GET /api/graphs/{id}/metrics", func(w http.ResponseWriter, r *http.Request) {
		g, ok := s.graphs[r.PathValue("id")]
		if !ok {
			http.Error(w, "no such graph", http.StatusNotFound)
			return
		}
		json.NewEncoder(w).Encode(graph.Metrics{
			TotalNodes:  len(g.Nodes),
			TotalEdges:  len(g.Edges),
			Performance: map[string]string{"auc": "0.91"},
		})
	})
	mux.ServeHTTP(w, r)
}

func newTestClient(t *testing.T, cfgFn func(*Config)) (*Client, *graphService) {
	t.Helper()
	svc := &graphService{graphs: map[string]*graph.KnowledgeGraph{
		"pair":     kgtest.ConceptPair(),
		"timeline": kgtest.TemporalTriple(),
	}}
	srv := httptest.NewServer(svc)
	t.Cleanup(srv.Close)

	cfg := DefaultConfig(srv.URL + "/api/")
	cfg.MinRequests = 2
	cfg.FailureThreshold = 1
	if cfgFn != nil {
		cfgFn(&cfg)
	}
	c, err := New(cfg, httpclient.Wrap(srv.Client()), zaptest.NewLogger(t).Sugar())
	require.NoError(t, err)
	return c, svc
}

func TestListAndGet(t *testing.T) {
	c, _ := newTestClient(t, nil)
	ctx := context.Background()

	list, err := c.ListGraphs(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	g, err := c.GetGraph(ctx, "timeline")
	require.NoError(t, err)
	assert.Equal(t, 3, g.TemporalLayers)
	assert.Len(t, g.Nodes, 4)

	m, err := c.GetMetrics(ctx, "pair")
	require.NoError(t, err)
	assert.Equal(t, "pair", m.GraphID, "defaults to the requested id")
	assert.Equal(t, "0.91", m.Performance["auc"])
}

func TestGraphsAreSanitized(t *testing.T) {
	c, svc := newTestClient(t, nil)
	g := kgtest.ConceptPair()
	g.ID = "dirty"
	g.Edges = append(g.Edges, graph.Edge{ID: "x", Source: "A", Target: "ghost"})
	svc.graphs["dirty"] = g

	loaded, err := c.GetGraph(context.Background(), "dirty")
	require.NoError(t, err)
	assert.Len(t, loaded.Edges, 1)
}

func TestNotFoundDoesNotTripBreaker(t *testing.T) {
	c, _ := newTestClient(t, nil)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := c.GetGraph(ctx, "ghost")
		require.Error(t, err)
		assert.True(t, errors.IsNotFoundError(err))
	}
	assert.Equal(t, "closed", c.State())
}

func TestServerErrorsOpenBreaker(t *testing.T) {
	c, svc := newTestClient(t, nil)
	ctx := context.Background()
	svc.failing.Store(true)

	for i := 0; i < 2; i++ {
		_, err := c.GetGraph(ctx, "pair")
		require.Error(t, err)
		assert.True(t, errors.IsServiceUnavailableError(err))
	}
	assert.Equal(t, "open", c.State())

	calls := svc.calls.Load()
	_, err := c.GetGraph(ctx, "pair")
	require.Error(t, err)
	assert.True(t, errors.IsServiceUnavailableError(err))
	assert.NotEmpty(t, errors.GetAllHints(err))
	assert.Equal(t, calls, svc.calls.Load(), "open breaker fails fast")
}

func TestBreakerRecovers(t *testing.T) {
	c, svc := newTestClient(t, func(cfg *Config) {
		cfg.OpenTimeout = 20 * time.Millisecond
		cfg.MaxRequests = 1
	})
	ctx := context.Background()

	svc.failing.Store(true)
	for i := 0; i < 2; i++ {
		_, _ = c.ListGraphs(ctx)
	}
	require.Equal(t, "open", c.State())

	svc.failing.Store(false)
	require.Eventually(t, func() bool {
		_, err := c.ListGraphs(ctx)
		return err == nil
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, "closed", c.State())
}

func TestBearerToken(t *testing.T) {
	c, svc := newTestClient(t, func(cfg *Config) { cfg.Token = "s3cret" })
	_, err := c.ListGraphs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer s3cret", svc.auth.Load())
}

func TestTimeoutMapsToErrTimeout(t *testing.T) {
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer slow.Close()

	c, err := New(DefaultConfig(slow.URL), httpclient.Wrap(slow.Client()), zaptest.NewLogger(t).Sugar())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = c.ListGraphs(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrTimeout))
}

func TestMalformedResponseCountsAgainstBreaker(t *testing.T) {
	var calls atomic.Int32
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte("not json"))
	}))
	defer bad.Close()

	cfg := DefaultConfig(bad.URL)
	cfg.MinRequests = 2
	cfg.FailureThreshold = 1
	c, err := New(cfg, httpclient.Wrap(bad.Client()), zaptest.NewLogger(t).Sugar())
	require.NoError(t, err)

	_, err = c.ListGraphs(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsServiceUnavailableError(err))
	assert.False(t, errors.IsInvalidRequestError(err))
	assert.Contains(t, err.Error(), "malformed response")

	_, err = c.GetGraph(context.Background(), "x")
	assert.True(t, errors.IsServiceUnavailableError(err))
	assert.Equal(t, "open", c.State())

	before := calls.Load()
	_, err = c.GetGraph(context.Background(), "x")
	assert.True(t, errors.IsServiceUnavailableError(err))
	assert.Equal(t, before, calls.Load(), "open breaker fails fast")
}

func TestNewRejectsBadConfig(t *testing.T) {
	_, err := New(Config{}, nil, nil)
	assert.Error(t, err)

	cfg := DefaultConfig("ftp://graphs.example.com")
	_, err = New(cfg, nil, nil)
	assert.Error(t, err)
}

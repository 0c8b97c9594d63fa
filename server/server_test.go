package server

import (
	"encoding/json"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/teranos/kgviz/am"
	"github.com/teranos/kgviz/errors"
	"github.com/teranos/kgviz/graph"
	kgtest "github.com/teranos/kgviz/internal/testing"
	"github.com/teranos/kgviz/source/filesource"
)

// testConfig returns the built-in defaults with a small surface and a frame
// rate high enough that no test waits on the limiter
func testConfig(t *testing.T) *am.Config {
	t.Helper()
	v := viper.New()
	am.SetDefaults(v)
	cfg, err := am.LoadWithViper(v)
	require.NoError(t, err)

	cfg.Interaction.Width = 200
	cfg.Interaction.Height = 150
	cfg.Server.FrameRate = 1000
	cfg.Server.FrameBurst = 100
	return cfg
}

type testEnv struct {
	server *Server
	source *filesource.Source
	dir    string
	http   *httptest.Server
}

func newTestEnv(t *testing.T, cfg *am.Config) *testEnv {
	t.Helper()
	log := zaptest.NewLogger(t).Sugar()

	dir := t.TempDir()
	kgtest.WriteGraphFile(t, dir, "pair.json", kgtest.ConceptPair())
	kgtest.WriteGraphFile(t, dir, "timeline.yaml", kgtest.TemporalTriple())
	src, err := filesource.Open(dir, log)
	require.NoError(t, err)

	s, err := New(cfg, src, log)
	require.NoError(t, err)

	ts := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		s.Stop()
		ts.Close()
	})
	return &testEnv{server: s, source: src, dir: dir, http: ts}
}

func (e *testEnv) get(t *testing.T, path string) *http.Response {
	t.Helper()
	resp, err := http.Get(e.http.URL + path)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, dst interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dst))
}

func TestNew(t *testing.T) {
	log := zaptest.NewLogger(t).Sugar()
	src, err := filesource.Open(t.TempDir(), log)
	require.NoError(t, err)

	_, err = New(nil, src, log)
	assert.Error(t, err)

	_, err = New(testConfig(t), nil, log)
	assert.Error(t, err)

	bad := testConfig(t)
	bad.Interaction.Width = 0
	_, err = New(bad, src, log)
	assert.Error(t, err)

	s, err := New(testConfig(t), src, log)
	require.NoError(t, err)
	assert.Equal(t, ServerStateRunning, s.State())
	assert.Equal(t, 0, s.ClientCount())
}

func TestHandleHealth(t *testing.T) {
	env := newTestEnv(t, testConfig(t))

	resp := env.get(t, "/health")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]interface{}
	decodeBody(t, resp, &body)
	assert.Equal(t, "running", body["status"])
	assert.EqualValues(t, 0, body["clients"])
	assert.NotEmpty(t, body["version"])
}

func TestHandleListGraphs(t *testing.T) {
	env := newTestEnv(t, testConfig(t))

	resp := env.get(t, "/api/graphs/")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var list []graph.Summary
	decodeBody(t, resp, &list)
	require.Len(t, list, 2)
	assert.Equal(t, "pair", list[0].ID)
	assert.Equal(t, "timeline", list[1].ID)
	assert.Equal(t, 3, list[1].TemporalLayers)
}

func TestHandleGetGraph(t *testing.T) {
	env := newTestEnv(t, testConfig(t))

	resp := env.get(t, "/api/graphs/pair")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var g graph.KnowledgeGraph
	decodeBody(t, resp, &g)
	assert.Equal(t, "Concept pair", g.Name)
	assert.Len(t, g.Nodes, 2)

	resp = env.get(t, "/api/graphs/ghost")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	var body map[string]interface{}
	decodeBody(t, resp, &body)
	assert.Contains(t, body["error"], "ghost")

	resp = env.get(t, "/api/graphs/timeline/metrics")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var m graph.Metrics
	decodeBody(t, resp, &m)
}

func TestHandleRender(t *testing.T) {
	env := newTestEnv(t, testConfig(t))

	resp := env.get(t, "/api/graphs/pair/render.png?width=300&height=120&mode=force")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	assert.Equal(t, "2", resp.Header.Get(HeaderNodes))
	assert.Equal(t, "1", resp.Header.Get(HeaderEdges))

	img, err := png.DecodeConfig(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, 300, img.Width)
	assert.Equal(t, 120, img.Height)

	// Search narrows what is drawn
	resp = env.get(t, "/api/graphs/pair/render.png?search=alph")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "1", resp.Header.Get(HeaderNodes))
	assert.Equal(t, "0", resp.Header.Get(HeaderEdges))
}

func TestHandleRenderRejectsBadQuery(t *testing.T) {
	env := newTestEnv(t, testConfig(t))

	tests := []struct {
		name   string
		query  string
		status int
	}{
		{"unknown mode", "mode=spiral", http.StatusBadRequest},
		{"layer not a number", "layer=two", http.StatusBadRequest},
		{"negative zoom", "zoom=-1", http.StatusBadRequest},
		{"zero width", "width=0", http.StatusBadRequest},
		{"oversized height", "height=100000", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := env.get(t, "/api/graphs/pair/render.png?"+tt.query)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}

	resp := env.get(t, "/api/graphs/ghost/render.png")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHandleExport(t *testing.T) {
	env := newTestEnv(t, testConfig(t))

	var body struct {
		Graph     graph.KnowledgeGraph           `json:"graph"`
		Positions map[string]map[string]float64 `json:"positions"`
	}

	resp := env.get(t, "/api/graphs/timeline/export?layer=2")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeBody(t, resp, &body)

	ids := []string{}
	for _, n := range body.Graph.Nodes {
		ids = append(ids, n.ID)
	}
	assert.ElementsMatch(t, []string{"C", "F"}, ids)
	assert.Contains(t, body.Positions, "C")

	resp = env.get(t, "/api/graphs/timeline/export?layer=2&full=true")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeBody(t, resp, &body)
	assert.Len(t, body.Graph.Nodes, 4)
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t, testConfig(t))

	env.get(t, "/api/graphs/")
	env.get(t, "/api/graphs/pair/render.png")

	resp := env.get(t, "/metrics")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	text := string(raw)
	assert.Contains(t, text, "kgviz_http_requests_total")
	assert.Contains(t, text, `route="/api/graphs/{graphID}/render.png"`)
	assert.Contains(t, text, "kgviz_frames_rendered_total")
}

func TestCORS(t *testing.T) {
	env := newTestEnv(t, testConfig(t))

	tests := []struct {
		origin  string
		allowed bool
	}{
		{"http://localhost", true},
		{"http://localhost:5173", true},
		{"https://127.0.0.1:8443", true},
		{"http://evil.example", false},
		{"http://localhost.evil.example", false},
	}

	for _, tt := range tests {
		t.Run(tt.origin, func(t *testing.T) {
			req, err := http.NewRequest(http.MethodGet, env.http.URL+"/health", nil)
			require.NoError(t, err)
			req.Header.Set("Origin", tt.origin)

			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			defer resp.Body.Close()

			got := resp.Header.Get("Access-Control-Allow-Origin")
			if tt.allowed {
				assert.Equal(t, tt.origin, got)
			} else {
				assert.Empty(t, got)
			}
		})
	}
}

func TestOriginAllowedWildcard(t *testing.T) {
	cfg := testConfig(t)
	cfg.Server.AllowedOrigins = []string{"*"}
	env := newTestEnv(t, cfg)

	assert.True(t, env.server.originAllowed("https://anything.example"))
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{errors.NewNotFoundError("graph %q", "x"), http.StatusNotFound},
		{errors.NewInvalidRequestError("bad"), http.StatusBadRequest},
		{errors.Wrap(errors.ErrTimeout, "fetch"), http.StatusGatewayTimeout},
		{errors.Wrap(errors.ErrServiceUnavailable, "graph service"), http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.status, statusFor(tt.err), tt.err.Error())
	}
}

func TestApplyConfig(t *testing.T) {
	env := newTestEnv(t, testConfig(t))
	reloads := testutil.ToFloat64(env.server.Metrics().ConfigReloads)

	bad := testConfig(t)
	bad.Interaction.ZoomMin = 0
	assert.Error(t, env.server.ApplyConfig(bad))
	assert.NotSame(t, bad, env.server.Config())

	good := testConfig(t)
	good.Server.AllowedOrigins = []string{"https://viz.example"}
	require.NoError(t, env.server.ApplyConfig(good))
	assert.Same(t, good, env.server.Config())
	assert.Equal(t, reloads+1, testutil.ToFloat64(env.server.Metrics().ConfigReloads))

	// Origins apply without a restart
	assert.True(t, env.server.originAllowed("https://viz.example"))
	assert.False(t, env.server.originAllowed("http://localhost"))
}

func TestStartAndStop(t *testing.T) {
	log := zaptest.NewLogger(t).Sugar()
	dir := t.TempDir()
	kgtest.WriteGraphFile(t, dir, "pair.json", kgtest.ConceptPair())
	src, err := filesource.Open(dir, log)
	require.NoError(t, err)

	s, err := New(testConfig(t), src, log)
	require.NoError(t, err)

	ready := make(chan string, 1)
	done := make(chan error, 1)
	go func() {
		done <- s.Start(0, func(url string) { ready <- url })
	}()

	var url string
	select {
	case url = <-ready:
	case <-time.After(5 * time.Second):
		t.Fatal("server did not become ready")
	}
	assert.True(t, strings.HasPrefix(url, "http://localhost:"))

	resp, err := http.Get(url + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, s.Stop())
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Start did not return after Stop")
	}
	assert.Equal(t, ServerStateStopped, s.State())

	// Stopping twice is harmless
	assert.NoError(t, s.Stop())
}

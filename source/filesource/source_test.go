package filesource

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/teranos/kgviz/errors"
	"github.com/teranos/kgviz/graph"
	kgtest "github.com/teranos/kgviz/internal/testing"
)

func TestOpenLoadsDocuments(t *testing.T) {
	dir := t.TempDir()
	kgtest.WriteGraphFile(t, dir, "pair.json", kgtest.ConceptPair())
	kgtest.WriteGraphFile(t, dir, "timeline.yaml", kgtest.TemporalTriple())
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("# graphs"), 0o644))

	s, err := Open(dir, zaptest.NewLogger(t).Sugar())
	require.NoError(t, err)

	list, err := s.ListGraphs(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "pair", list[0].ID)
	assert.Equal(t, "timeline", list[1].ID)
	assert.Equal(t, 3, list[1].TemporalLayers)
	assert.False(t, list[0].UpdatedAt.IsZero(), "falls back to file mtime")

	g, err := s.GetGraph(context.Background(), "timeline")
	require.NoError(t, err)
	assert.Len(t, g.Nodes, 4)
}

func TestBrokenDocumentsAreSkipped(t *testing.T) {
	dir := t.TempDir()
	kgtest.WriteGraphFile(t, dir, "pair.json", kgtest.ConceptPair())
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.json"), []byte("{nodes: ["), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "noid.yaml"), []byte("name: nameless\n"), 0o644))

	s, err := Open(dir, zaptest.NewLogger(t).Sugar())
	require.NoError(t, err)

	list, err := s.ListGraphs(context.Background())
	require.NoError(t, err)
	assert.Len(t, list, 1)

	failures := s.Failures()
	assert.Len(t, failures, 2)
	assert.Contains(t, failures, filepath.Join(dir, "broken.json"))
}

func TestDuplicateGraphIDFirstWins(t *testing.T) {
	dir := t.TempDir()
	kgtest.WriteGraphFile(t, dir, "a.json", kgtest.ConceptPair())
	other := kgtest.TemporalTriple()
	other.ID = "pair"
	kgtest.WriteGraphFile(t, dir, "b.json", other)

	s, err := Open(dir, zaptest.NewLogger(t).Sugar())
	require.NoError(t, err)

	g, err := s.GetGraph(context.Background(), "pair")
	require.NoError(t, err)
	assert.Len(t, g.Nodes, 2, "a.json is read first")
	assert.Len(t, s.Failures(), 1)
}

func TestDocumentsAreSanitized(t *testing.T) {
	dir := t.TempDir()
	g := kgtest.ConceptPair()
	g.Edges = append(g.Edges, graph.Edge{ID: "dangling", Source: "A", Target: "nowhere", Confidence: 1})
	g.Nodes[0].Importance = 7
	kgtest.WriteGraphFile(t, dir, "pair.json", g)

	s, err := Open(dir, zaptest.NewLogger(t).Sugar())
	require.NoError(t, err)

	loaded, err := s.GetGraph(context.Background(), "pair")
	require.NoError(t, err)
	assert.Len(t, loaded.Edges, 1)
	assert.Equal(t, 1.0, loaded.Nodes[0].Importance)

	m, err := s.GetMetrics(context.Background(), "pair")
	require.NoError(t, err)
	assert.Equal(t, "1", m.Performance["dangling_edges"])
	assert.Equal(t, "1", m.Performance["clamped_scores"])
	assert.Equal(t, 2, m.TotalNodes)
}

func TestMetricsCarryProvenance(t *testing.T) {
	dir := t.TempDir()
	g := kgtest.ConceptPair()
	g.Metadata.Provenance = map[string]string{"encoder": "gnn-v2"}
	kgtest.WriteGraphFile(t, dir, "pair.yaml", g)

	s, err := Open(dir, zaptest.NewLogger(t).Sugar())
	require.NoError(t, err)

	m, err := s.GetMetrics(context.Background(), "pair")
	require.NoError(t, err)
	assert.Equal(t, "gnn-v2", m.Architecture["encoder"])
}

func TestNotFound(t *testing.T) {
	s, err := Open(t.TempDir(), zaptest.NewLogger(t).Sugar())
	require.NoError(t, err)

	_, err = s.GetGraph(context.Background(), "ghost")
	assert.True(t, errors.IsNotFoundError(err))
	_, err = s.GetMetrics(context.Background(), "ghost")
	assert.True(t, errors.IsNotFoundError(err))
}

func TestOpenRejectsMissingDir(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "nope"), nil)
	assert.Error(t, err)

	file := kgtest.WriteGraphFile(t, t.TempDir(), "pair.json", kgtest.ConceptPair())
	_, err = Open(file, nil)
	assert.Error(t, err)
}

func TestCancelledContext(t *testing.T) {
	dir := t.TempDir()
	kgtest.WriteGraphFile(t, dir, "pair.json", kgtest.ConceptPair())
	s, err := Open(dir, zaptest.NewLogger(t).Sugar())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.GetGraph(ctx, "pair")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWatchPicksUpNewDocuments(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir, zaptest.NewLogger(t).Sugar())
	require.NoError(t, err)

	reloaded := make(chan struct{}, 4)
	w, err := s.Watch(20*time.Millisecond, func() { reloaded <- struct{}{} })
	require.NoError(t, err)
	defer w.Stop()

	kgtest.WriteGraphFile(t, dir, "pair.json", kgtest.ConceptPair())

	require.Eventually(t, func() bool {
		_, err := s.GetGraph(context.Background(), "pair")
		return err == nil
	}, 5*time.Second, 20*time.Millisecond)

	select {
	case <-reloaded:
	case <-time.After(5 * time.Second):
		t.Fatal("reload callback not called")
	}
}

package layout

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/kgviz/graph"
	kgtest "github.com/teranos/kgviz/internal/testing"
	"github.com/teranos/kgviz/viz/filter"
)

const (
	surfaceW = 800.0
	surfaceH = 600.0
)

func assertInside(t *testing.T, positions map[string]Position, w, h float64) {
	t.Helper()
	for id, p := range positions {
		assert.False(t, math.IsNaN(p.X) || math.IsNaN(p.Y), "node %s has NaN position", id)
		assert.GreaterOrEqual(t, p.X, 0.0, "node %s", id)
		assert.LessOrEqual(t, p.X, w, "node %s", id)
		assert.GreaterOrEqual(t, p.Y, 0.0, "node %s", id)
		assert.LessOrEqual(t, p.Y, h, "node %s", id)
	}
}

func TestParseMode(t *testing.T) {
	for _, m := range Modes {
		got, err := ParseMode(string(m))
		require.NoError(t, err)
		assert.Equal(t, m, got)
	}

	got, err := ParseMode(" Force-Directed ")
	require.NoError(t, err)
	assert.Equal(t, ModeForce, got)

	got, err = ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, ModeCircular, got)

	_, err = ParseMode("radial")
	assert.Error(t, err)
}

func TestEmptyInputGivesEmptyMap(t *testing.T) {
	for _, m := range Modes {
		positions := Compute(nil, nil, m, surfaceW, surfaceH, DefaultConfig())
		assert.NotNil(t, positions, "mode %s", m)
		assert.Empty(t, positions, "mode %s", m)
	}
}

func TestCircularDeterministic(t *testing.T) {
	g := kgtest.Ring(25)
	first := Compute(g.Nodes, g.Edges, ModeCircular, surfaceW, surfaceH, DefaultConfig())
	second := Compute(g.Nodes, g.Edges, ModeCircular, surfaceW, surfaceH, DefaultConfig())
	assert.Equal(t, first, second)
	assert.Len(t, first, 25)

	radius := math.Min(surfaceW, surfaceH) / 4
	for id, p := range first {
		assert.InDelta(t, radius, p.DistanceTo(Position{X: surfaceW / 2, Y: surfaceH / 2}), 1e-9, id)
	}
}

func TestSingleConceptNodeAfterFilter(t *testing.T) {
	g := kgtest.ConceptPair()
	visible := filter.Apply(g, filter.Criteria{NodeType: graph.NodeTypeConcept})

	positions := Compute(visible.Nodes, visible.Edges, ModeCircular, surfaceW, surfaceH, DefaultConfig())

	require.Len(t, positions, 1)
	b := positions["B"]
	assert.InDelta(t, surfaceW/2+surfaceH/4, b.X, 1e-9)
	assert.InDelta(t, surfaceH/2, b.Y, 1e-9)
}

// closestPair returns the smallest distance between any two positions
func closestPair(positions map[string]Position) (float64, string, string) {
	ids := make([]string, 0, len(positions))
	for id := range positions {
		ids = append(ids, id)
	}
	best, a, b := math.Inf(1), "", ""
	for i := 0; i < len(ids); i++ {
		for j := i + 1; j < len(ids); j++ {
			if d := positions[ids[i]].DistanceTo(positions[ids[j]]); d < best {
				best, a, b = d, ids[i], ids[j]
			}
		}
	}
	return best, a, b
}

func TestForceBoundsAndSeparation(t *testing.T) {
	cfg := DefaultConfig()

	cases := []struct {
		g    *graph.KnowledgeGraph
		w, h float64
	}{
		{kgtest.ConceptPair(), surfaceW, surfaceH},
		{kgtest.ConceptPair(), 300, 200},
		{kgtest.TemporalTriple(), 300, 200},
		{kgtest.Cyclic(), surfaceW, surfaceH},
		{kgtest.Ring(12), 300, 200},
		{kgtest.Ring(12), 1024, 1024},
		{kgtest.Ring(60), surfaceW, surfaceH},
		{kgtest.Ring(60), 1024, 1024},
		// Tight knots: the springs outweigh repulsion
		{kgtest.Dense(50, 19), 200, 150},
		{kgtest.Dense(300, 19), surfaceW, surfaceH},
		{kgtest.Dense(cfg.MaxForceNodes, 19), surfaceW, surfaceH},
		{kgtest.Dense(cfg.MaxForceNodes, 19), 1200, 800},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(fmt.Sprintf("%s/%vx%v", tc.g.ID, tc.w, tc.h), func(t *testing.T) {
			positions := Compute(tc.g.Nodes, tc.g.Edges, ModeForce, tc.w, tc.h, cfg)
			require.Len(t, positions, len(tc.g.Nodes))
			assertInside(t, positions, tc.w, tc.h)

			d, a, b := closestPair(positions)
			assert.GreaterOrEqual(t, d, cfg.MinSeparation, "%s and %s too close", a, b)
		})
	}
}

func TestForceOnSurfaceTooSmallKeepsNodesDistinct(t *testing.T) {
	g := kgtest.Ring(12)
	for _, size := range []float64{1, 5} {
		positions := Compute(g.Nodes, g.Edges, ModeForce, size, size, DefaultConfig())
		require.Len(t, positions, 12)
		assertInside(t, positions, size, size)

		d, a, b := closestPair(positions)
		assert.Greater(t, d, 0.0, "%s and %s share a point on a %vx%v surface", a, b, size, size)
	}
}

func TestInsetBoundsKeepArea(t *testing.T) {
	b := insetBounds(1, 1, 30)
	assert.Less(t, b.minX, b.maxX)
	assert.Less(t, b.minY, b.maxY)

	b = insetBounds(800, 600, 30)
	assert.Equal(t, bounds{minX: 30, minY: 30, maxX: 770, maxY: 570}, b)
}

func TestSnapToLatticeSpacing(t *testing.T) {
	// Every node starts on the same point
	pos := make([]Position, 40)
	for i := range pos {
		pos[i] = Position{X: 50, Y: 50}
	}
	b := bounds{minX: 0, minY: 0, maxX: 100, maxY: 60}
	require.GreaterOrEqual(t, latticeCapacity(b, 10), len(pos))

	snapToLattice(pos, 10, b)

	positions := make(map[string]Position, len(pos))
	for i, p := range pos {
		positions[fmt.Sprint(i)] = p
	}
	assertInside(t, positions, 100, 60)
	d, _, _ := closestPair(positions)
	assert.GreaterOrEqual(t, d, 10.0)
	// Lattice spacing here is 100/9 by 12, so the first node moves at most half a cell diagonal
	assert.LessOrEqual(t, pos[0].DistanceTo(Position{X: 50, Y: 50}), math.Hypot(100.0/9, 12)/2)
}

func TestForceDeterministic(t *testing.T) {
	g := kgtest.Ring(30)
	a := Compute(g.Nodes, g.Edges, ModeForce, surfaceW, surfaceH, DefaultConfig())
	b := Compute(g.Nodes, g.Edges, ModeForce, surfaceW, surfaceH, DefaultConfig())
	assert.Equal(t, a, b)
}

func TestForceFallsBackToCircularForLargeGraphs(t *testing.T) {
	g := kgtest.Ring(20)
	cfg := DefaultConfig()
	cfg.MaxForceNodes = 10

	assert.Equal(t,
		Circular(g.Nodes, surfaceW, surfaceH),
		Compute(g.Nodes, g.Edges, ModeForce, surfaceW, surfaceH, cfg))
}

func TestForceSeparatesCoincidentStart(t *testing.T) {
	// On a 10x10 surface the starting circle puts neighbours ~4.3px apart
	nodes := []graph.Node{{ID: "x"}, {ID: "y"}, {ID: "z"}}
	cfg := DefaultConfig()
	cfg.Padding = 0
	cfg.Iterations = 1
	cfg.MinSeparation = 5

	positions := ForceDirected(nodes, nil, 10, 10, cfg)
	assertInside(t, positions, 10, 10)
	assert.GreaterOrEqual(t, positions["x"].DistanceTo(positions["y"]), 5.0)
	assert.GreaterOrEqual(t, positions["y"].DistanceTo(positions["z"]), 5.0)
	assert.GreaterOrEqual(t, positions["x"].DistanceTo(positions["z"]), 5.0)
}

func TestHierarchicalTerminatesOnCycle(t *testing.T) {
	g := kgtest.Cyclic()

	depths := Depths(g.Nodes, g.Edges)
	assert.Equal(t, map[string]int{"a": 0, "b": 1, "c": 2, "d": 3}, depths)

	positions := Compute(g.Nodes, g.Edges, ModeHierarchical, surfaceW, surfaceH, DefaultConfig())
	require.Len(t, positions, 4)
	assertInside(t, positions, surfaceW, surfaceH)
	assert.Less(t, positions["a"].Y, positions["b"].Y)
	assert.Less(t, positions["b"].Y, positions["c"].Y)
	assert.Less(t, positions["c"].Y, positions["d"].Y)
}

func TestHierarchicalEveryNodeFinite(t *testing.T) {
	// Ring plus chords gives several overlapping cycles; one edge leaves the node set
	g := kgtest.Ring(15)
	g.Edges = append(g.Edges, graph.Edge{ID: "out", Source: "n1", Target: "missing"})

	depths := Depths(g.Nodes, g.Edges)
	require.Len(t, depths, 15)
	for id, d := range depths {
		assert.GreaterOrEqual(t, d, 0, id)
		assert.Less(t, d, 15, id)
	}
	assertInside(t, Compute(g.Nodes, g.Edges, ModeHierarchical, surfaceW, surfaceH, DefaultConfig()), surfaceW, surfaceH)
}

func TestHierarchicalSpacesBandMembers(t *testing.T) {
	nodes := []graph.Node{{ID: "root"}, {ID: "l"}, {ID: "r"}}
	edges := []graph.Edge{{ID: "1", Source: "root", Target: "l"}, {ID: "2", Source: "root", Target: "r"}}

	positions := Hierarchical(nodes, edges, 400, 400, Config{Padding: 0})
	assert.InDelta(t, 200, positions["root"].X, 1e-9)
	assert.InDelta(t, 100, positions["root"].Y, 1e-9)
	assert.InDelta(t, 400.0/3, positions["l"].X, 1e-9)
	assert.InDelta(t, 800.0/3, positions["r"].X, 1e-9)
	assert.InDelta(t, 300, positions["l"].Y, 1e-9)
}

func TestTemporalBands(t *testing.T) {
	g := kgtest.TemporalTriple()

	bands := Bands(g.Nodes)
	require.Len(t, bands, 4)
	assert.Equal(t, SharedBand, bands[0].Layer)
	assert.Equal(t, []string{"F"}, bands[0].NodeIDs)
	assert.Equal(t, 2, bands[2].Layer)

	positions := Compute(g.Nodes, g.Edges, ModeTemporal, surfaceW, surfaceH, DefaultConfig())
	assertInside(t, positions, surfaceW, surfaceH)
	assert.Less(t, positions["F"].X, positions["D"].X)
	assert.Less(t, positions["D"].X, positions["C"].X)
	assert.Less(t, positions["C"].X, positions["E"].X)

	// F has no layer: one position, in the leftmost column
	assert.Less(t, positions["F"].X, surfaceW/4)
}

func TestAllModesCoverEveryNode(t *testing.T) {
	g := kgtest.Ring(33)
	for _, m := range Modes {
		positions := Compute(g.Nodes, g.Edges, m, surfaceW, surfaceH, DefaultConfig())
		assert.Len(t, positions, 33, "mode %s", m)
		assertInside(t, positions, surfaceW, surfaceH)
	}
}

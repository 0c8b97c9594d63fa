package layout

import (
	"github.com/teranos/kgviz/graph"
)

// Hierarchical places nodes in horizontal bands by depth along edge
// direction. Cycles are broken by ignoring DFS back-edges, so every node gets
// a finite band. Within a band nodes are spaced evenly in input order.
func Hierarchical(nodes []graph.Node, edges []graph.Edge, width, height float64, cfg Config) map[string]Position {
	depths := Depths(nodes, edges)

	maxDepth := 0
	for _, d := range depths {
		if d > maxDepth {
			maxDepth = d
		}
	}

	bands := make([][]int, maxDepth+1)
	for i, n := range nodes {
		d := depths[n.ID]
		bands[d] = append(bands[d], i)
	}

	b := insetBounds(width, height, cfg.Padding)
	bandHeight := (b.maxY - b.minY) / float64(len(bands))
	innerWidth := b.maxX - b.minX

	positions := make(map[string]Position, len(nodes))
	for depth, members := range bands {
		y := b.minY + bandHeight*(float64(depth)+0.5)
		step := innerWidth / float64(len(members)+1)
		for k, i := range members {
			positions[nodes[i].ID] = Position{X: b.minX + step*float64(k+1), Y: y}
		}
	}
	return positions
}

// backEdge is an edge that closes a cycle
type backEdge struct {
	from, to int
}

// Depths returns the band index of every node: 0 for roots, otherwise one more
// than the deepest predecessor once back-edges are removed.
func Depths(nodes []graph.Node, edges []graph.Edge) map[string]int {
	_, pairs, _ := indexEdges(nodes, edges)

	outgoing := make([][]int, len(nodes))
	for _, p := range pairs {
		outgoing[p[0]] = append(outgoing[p[0]], p[1])
	}

	back := make(map[backEdge]bool)
	for _, e := range findBackEdges(len(nodes), outgoing) {
		back[e] = true
	}

	// Longest path over the remaining DAG, Kahn order
	inDegree := make([]int, len(nodes))
	dag := make([][]int, len(nodes))
	for from, targets := range outgoing {
		for _, to := range targets {
			if back[backEdge{from: from, to: to}] {
				continue
			}
			dag[from] = append(dag[from], to)
			inDegree[to]++
		}
	}

	queue := make([]int, 0, len(nodes))
	for i := range nodes {
		if inDegree[i] == 0 {
			queue = append(queue, i)
		}
	}

	depth := make([]int, len(nodes))
	for head := 0; head < len(queue); head++ {
		u := queue[head]
		for _, v := range dag[u] {
			if depth[u]+1 > depth[v] {
				depth[v] = depth[u] + 1
			}
			inDegree[v]--
			if inDegree[v] == 0 {
				queue = append(queue, v)
			}
		}
	}

	result := make(map[string]int, len(nodes))
	for i, n := range nodes {
		result[n.ID] = depth[i]
	}
	return result
}

// findBackEdges identifies edges that create cycles using DFS.
// Roots are visited in node order so the result is deterministic.
func findBackEdges(n int, outgoing [][]int) []backEdge {
	backEdges := make([]backEdge, 0)
	visited := make([]int, n) // 0=unvisited, 1=visiting, 2=visited

	var dfs func(u int)
	dfs = func(u int) {
		visited[u] = 1
		for _, v := range outgoing[u] {
			if visited[v] == 1 {
				backEdges = append(backEdges, backEdge{from: u, to: v})
			} else if visited[v] == 0 {
				dfs(v)
			}
		}
		visited[u] = 2
	}

	for u := 0; u < n; u++ {
		if visited[u] == 0 {
			dfs(u)
		}
	}
	return backEdges
}

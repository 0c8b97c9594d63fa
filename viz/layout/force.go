package layout

import (
	"math"

	"github.com/teranos/kgviz/graph"
	"github.com/teranos/kgviz/internal/util"
)

const (
	// goldenAngle spreads coincident points apart deterministically
	goldenAngle = 2.399963229728653
	// minSeparationRounds and separationRoundsPerNode budget the push phase
	// of the final overlap-removal pass
	minSeparationRounds     = 200
	separationRoundsPerNode = 4
	epsilon                 = 1e-6
)

type vec struct{ x, y float64 }

// ForceDirected relaxes a circular starting layout: inverse-square repulsion
// between every pair, spring attraction along edges scaled by confidence.
// Per-step displacement is capped by a linearly cooling temperature, positions
// are clamped to the padded surface, and a final pass separates any nodes
// closer than cfg.MinSeparation.
//
// The separation holds whenever a lattice with MinSeparation spacing over the
// padded surface has a point per node. Smaller surfaces get the densest
// lattice that fits every node: positions stay distinct but closer than
// MinSeparation.
func ForceDirected(nodes []graph.Node, edges []graph.Edge, width, height float64, cfg Config) map[string]Position {
	n := len(nodes)
	b := insetBounds(width, height, cfg.Padding)
	_, pairs, confidence := indexEdges(nodes, edges)

	pos := ring(n, width/2, height/2, math.Min(width, height)/4)
	for i := range pos {
		pos[i] = b.clamp(pos[i])
	}

	iterations := cfg.Iterations
	if iterations < 1 {
		iterations = 1
	}
	temperature := math.Min(width, height) / 10
	cooling := temperature / float64(iterations+1)

	disp := make([]vec, n)
	for it := 0; it < iterations; it++ {
		for i := range disp {
			disp[i] = vec{}
		}

		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				dx, dy := pos[i].X-pos[j].X, pos[i].Y-pos[j].Y
				d2 := dx*dx + dy*dy
				if d2 < epsilon {
					dx, dy = spread(i, j)
					d2 = dx*dx + dy*dy
				}
				d := math.Sqrt(d2)
				f := cfg.Repulsion / d2
				fx, fy := dx/d*f, dy/d*f
				disp[i].x += fx
				disp[i].y += fy
				disp[j].x -= fx
				disp[j].y -= fy
			}
		}

		for k, p := range pairs {
			s, t := p[0], p[1]
			dx, dy := pos[t].X-pos[s].X, pos[t].Y-pos[s].Y
			d := math.Hypot(dx, dy)
			if d < epsilon {
				continue
			}
			f := cfg.Attraction * confidence[k] * d
			fx, fy := dx/d*f, dy/d*f
			disp[s].x += fx
			disp[s].y += fy
			disp[t].x -= fx
			disp[t].y -= fy
		}

		for i := range pos {
			length := math.Hypot(disp[i].x, disp[i].y)
			if length < epsilon {
				continue
			}
			step := math.Min(length, temperature)
			pos[i] = b.clamp(Position{
				X: pos[i].X + disp[i].x/length*step,
				Y: pos[i].Y + disp[i].y/length*step,
			})
		}

		temperature = math.Max(temperature-cooling, cooling)
	}

	separate(pos, cfg.MinSeparation, b)

	positions := make(map[string]Position, n)
	for i, node := range nodes {
		positions[node.ID] = pos[i]
	}
	return positions
}

// separate enforces minSep between every pair. Offending pairs are first
// pushed apart symmetrically; clamped nodes that cannot move let the partner
// take the full distance. If that does not settle within the round budget,
// every node moves to the nearest free point of a lattice spaced minSep apart.
func separate(pos []Position, minSep float64, b bounds) {
	if minSep <= 0 || len(pos) < 2 {
		return
	}
	rounds := max(minSeparationRounds, separationRoundsPerNode*len(pos))
	for round := 0; round < rounds; round++ {
		if !pushApart(pos, minSep, b) {
			return
		}
	}
	if !crowded(pos, minSep) {
		return
	}

	step := minSep
	for latticeCapacity(b, step) < len(pos) {
		step *= 0.9
	}
	snapToLattice(pos, step, b)
}

// pushApart runs one round over every pair closer than minSep and reports
// whether anything moved
func pushApart(pos []Position, minSep float64, b bounds) bool {
	moved := false
	forNearPairs(pos, minSep, func(i, j int) {
		dx, dy := pos[j].X-pos[i].X, pos[j].Y-pos[i].Y
		d := math.Hypot(dx, dy)
		if d >= minSep {
			return
		}
		if d < epsilon {
			dx, dy = spread(i, j)
			d = math.Hypot(dx, dy)
		}
		ux, uy := dx/d, dy/d
		push := (minSep - d) / 2 * 1.01

		oldI, oldJ := pos[i], pos[j]
		pos[i] = b.clamp(Position{X: pos[i].X - ux*push, Y: pos[i].Y - uy*push})
		pos[j] = b.clamp(Position{X: pos[j].X + ux*push, Y: pos[j].Y + uy*push})

		// Whatever one side lost to clamping goes to the other
		if short := push - pos[i].DistanceTo(oldI); short > epsilon {
			pos[j] = b.clamp(Position{X: pos[j].X + ux*short, Y: pos[j].Y + uy*short})
		}
		if short := push - pos[j].DistanceTo(oldJ); short > epsilon {
			pos[i] = b.clamp(Position{X: pos[i].X - ux*short, Y: pos[i].Y - uy*short})
		}
		moved = true
	})
	return moved
}

func crowded(pos []Position, minSep float64) bool {
	found := false
	forNearPairs(pos, minSep, func(i, j int) {
		if !found && pos[i].DistanceTo(pos[j]) < minSep {
			found = true
		}
	})
	return found
}

type cellKey struct{ cx, cy int }

// forNearPairs calls visit(i, j), i < j, for every pair in the same or an
// adjacent cell of a cell×cell bucket grid. Buckets are built from the
// positions on entry; every pair closer than cell is visited as long as visit
// moves nothing.
func forNearPairs(pos []Position, cell float64, visit func(i, j int)) {
	key := func(p Position) cellKey {
		return cellKey{int(math.Floor(p.X / cell)), int(math.Floor(p.Y / cell))}
	}
	buckets := make(map[cellKey][]int, len(pos))
	for i, p := range pos {
		k := key(p)
		buckets[k] = append(buckets[k], i)
	}

	for i := range pos {
		k := key(pos[i])
		for dx := -1; dx <= 1; dx++ {
			for dy := -1; dy <= 1; dy++ {
				for _, j := range buckets[cellKey{k.cx + dx, k.cy + dy}] {
					if j > i {
						visit(i, j)
					}
				}
			}
		}
	}
}

// axis is one dimension of a lattice: count points from start, spacing apart
type axis struct {
	start, spacing float64
	count          int
}

// latticeAxis fits as many points at least step apart into [lo, hi] as
// possible, spread over the whole interval
func latticeAxis(lo, hi, step float64) axis {
	span := hi - lo
	// The slack keeps the spacing strictly above step despite rounding
	count := int(span/(step*(1+1e-9))) + 1
	if count == 1 {
		return axis{start: (lo + hi) / 2, count: 1}
	}
	return axis{start: lo, spacing: span / float64(count-1), count: count}
}

func (a axis) at(i int) float64 {
	return a.start + float64(i)*a.spacing
}

// nearest returns the index of the lattice point closest to v
func (a axis) nearest(v float64) int {
	if a.count == 1 {
		return 0
	}
	return util.ClampInt(int(math.Round((v-a.start)/a.spacing)), 0, a.count-1)
}

func latticeCapacity(b bounds, step float64) int {
	return latticeAxis(b.minX, b.maxX, step).count * latticeAxis(b.minY, b.maxY, step).count
}

// snapToLattice moves each node, in input order, to the nearest lattice point
// no earlier node took. The lattice must have a point per node.
func snapToLattice(pos []Position, step float64, b bounds) {
	xs := latticeAxis(b.minX, b.maxX, step)
	ys := latticeAxis(b.minY, b.maxY, step)
	taken := make([]bool, xs.count*ys.count)

	// Any point on square ring k around the nearest point is at least
	// (k-0.5)·minSpacing from the node
	minSpacing := math.Inf(1)
	for _, a := range []axis{xs, ys} {
		if a.count > 1 {
			minSpacing = math.Min(minSpacing, a.spacing)
		}
	}
	rings := max(xs.count, ys.count)

	for i, p := range pos {
		c0, r0 := xs.nearest(p.X), ys.nearest(p.Y)
		best, bestD := -1, math.Inf(1)
		try := func(c, r int) {
			if c < 0 || r < 0 || c >= xs.count || r >= ys.count || taken[r*xs.count+c] {
				return
			}
			if d := math.Hypot(xs.at(c)-p.X, ys.at(r)-p.Y); d < bestD {
				best, bestD = r*xs.count+c, d
			}
		}

		for level := 0; level < rings; level++ {
			if best >= 0 && bestD <= (float64(level)-0.5)*minSpacing {
				break
			}
			if level == 0 {
				try(c0, r0)
				continue
			}
			for d := -level; d <= level; d++ {
				try(c0+d, r0-level)
				try(c0+d, r0+level)
			}
			for d := -level + 1; d < level; d++ {
				try(c0-level, r0+d)
				try(c0+level, r0+d)
			}
		}

		taken[best] = true
		pos[i] = Position{X: xs.at(best % xs.count), Y: ys.at(best / xs.count)}
	}
}

// spread returns a unit direction unique to the pair (i, j)
func spread(i, j int) (float64, float64) {
	angle := goldenAngle * float64(i*31+j+1)
	return math.Cos(angle), math.Sin(angle)
}

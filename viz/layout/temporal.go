package layout

import (
	"math"
	"sort"

	"github.com/teranos/kgviz/graph"
)

// SharedBand is the band key for nodes that belong to every layer
const SharedBand = 0

// Band is one vertical slice of the temporal layout
type Band struct {
	Layer   int      // temporal layer, or SharedBand
	NodeIDs []string // input order
}

// Bands groups nodes by temporal layer: the shared band (layer-less nodes)
// first when present, then layers ascending.
func Bands(nodes []graph.Node) []Band {
	byLayer := make(map[int][]string)
	for _, n := range nodes {
		key := SharedBand
		if n.TemporalLayer != nil {
			key = *n.TemporalLayer
		}
		byLayer[key] = append(byLayer[key], n.ID)
	}

	keys := make([]int, 0, len(byLayer))
	for k := range byLayer {
		keys = append(keys, k)
	}
	sort.Ints(keys)

	bands := make([]Band, 0, len(keys))
	for _, k := range keys {
		bands = append(bands, Band{Layer: k, NodeIDs: byLayer[k]})
	}
	return bands
}

// Temporal splits the surface into equal-width columns, one per band, and
// arranges each band's nodes on a circle inside its column. A node without a
// temporal layer belongs to every layer but still gets a single position: the
// shared band, leftmost, rather than a copy in each layer's column.
func Temporal(nodes []graph.Node, width, height float64) map[string]Position {
	bands := Bands(nodes)
	bandWidth := width / float64(len(bands))
	radius := math.Min(bandWidth, height) / 4

	positions := make(map[string]Position, len(nodes))
	for b, band := range bands {
		cx := bandWidth * (float64(b) + 0.5)
		for i, p := range ring(len(band.NodeIDs), cx, height/2, radius) {
			positions[band.NodeIDs[i]] = p
		}
	}
	return positions
}

package graph

import (
	"sort"
	"strings"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/teranos/kgviz/errors"
)

// Palette maps node type tags to hex display colors.
// Types missing from the table fall back to Default.
type Palette struct {
	Colors  map[string]string
	Default string
}

// DefaultPalette returns the built-in type→color table
func DefaultPalette() Palette {
	colors := make(map[string]string, len(defaultNodeColors))
	for k, v := range defaultNodeColors {
		colors[k] = v
	}
	return Palette{Colors: colors, Default: defaultUntypedColor}
}

// NewPalette merges overrides into the default table. Every color must parse
// as #rrggbb or #rgb.
func NewPalette(overrides map[string]string, defaultColor string) (Palette, error) {
	p := DefaultPalette()
	for typ, hex := range overrides {
		if _, err := colorful.Hex(hex); err != nil {
			return Palette{}, errors.Wrapf(err, "invalid color %q for node type %q", hex, typ)
		}
		p.Colors[strings.ToLower(typ)] = hex
	}
	if defaultColor != "" {
		if _, err := colorful.Hex(defaultColor); err != nil {
			return Palette{}, errors.Wrapf(err, "invalid default color %q", defaultColor)
		}
		p.Default = defaultColor
	}
	return p, nil
}

// Color returns the hex color for a node type
func (p Palette) Color(nodeType string) string {
	if c, ok := p.Colors[strings.ToLower(nodeType)]; ok {
		return c
	}
	if p.Default != "" {
		return p.Default
	}
	return defaultUntypedColor
}

// Known reports whether the palette has an explicit entry for the type
func (p Palette) Known(nodeType string) bool {
	_, ok := p.Colors[strings.ToLower(nodeType)]
	return ok
}

// CollectNodeTypeInfo collects information about node types present in nodes.
// Returns one legend entry per type with count and color, most common first.
func CollectNodeTypeInfo(nodes []Node, palette Palette) []NodeTypeInfo {
	typeCounts := make(map[string]int)
	for _, node := range nodes {
		typeCounts[node.Type]++
	}

	nodeTypes := make([]NodeTypeInfo, 0, len(typeCounts))
	for nodeType, count := range typeCounts {
		nodeTypes = append(nodeTypes, NodeTypeInfo{
			Type:  nodeType,
			Label: typeLabel(nodeType),
			Color: palette.Color(nodeType),
			Count: count,
		})
	}

	// Most common types first in the legend, names break ties
	sort.Slice(nodeTypes, func(i, j int) bool {
		if nodeTypes[i].Count != nodeTypes[j].Count {
			return nodeTypes[i].Count > nodeTypes[j].Count
		}
		return nodeTypes[i].Type < nodeTypes[j].Type
	})

	return nodeTypes
}

// CollectEdgeTypeInfo collects the edge types present in edges, most common first
func CollectEdgeTypeInfo(edges []Edge) []EdgeTypeInfo {
	typeCounts := make(map[string]int)
	for _, edge := range edges {
		typeCounts[edge.Type]++
	}

	edgeTypes := make([]EdgeTypeInfo, 0, len(typeCounts))
	for edgeType, count := range typeCounts {
		edgeTypes = append(edgeTypes, EdgeTypeInfo{
			Type:  edgeType,
			Label: typeLabel(edgeType),
			Count: count,
		})
	}

	sort.Slice(edgeTypes, func(i, j int) bool {
		if edgeTypes[i].Count != edgeTypes[j].Count {
			return edgeTypes[i].Count > edgeTypes[j].Count
		}
		return edgeTypes[i].Type < edgeTypes[j].Type
	})

	return edgeTypes
}

// NodeTypes returns the distinct node type tags of g in sorted order
func NodeTypes(g *KnowledgeGraph) []string {
	seen := make(map[string]struct{})
	for _, n := range g.Nodes {
		seen[n.Type] = struct{}{}
	}
	return sortedKeys(seen)
}

// EdgeTypes returns the distinct edge type tags of g in sorted order
func EdgeTypes(g *KnowledgeGraph) []string {
	seen := make(map[string]struct{})
	for _, e := range g.Edges {
		seen[e.Type] = struct{}{}
	}
	return sortedKeys(seen)
}

func sortedKeys(m map[string]struct{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// typeLabel turns "related_to" into "Related To"
func typeLabel(t string) string {
	if t == "" {
		return defaultUntypedLabel
	}
	words := strings.Fields(strings.ReplaceAll(t, "_", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

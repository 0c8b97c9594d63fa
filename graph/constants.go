package graph

const (
	// Default color/label for node types missing from the palette
	defaultUntypedColor = "#95a5a6" // Neutral gray
	defaultUntypedLabel = "Untyped"
)

// defaultNodeColors is the fixed type→color table
var defaultNodeColors = map[string]string{
	NodeTypeEntity:   "#3498db",
	NodeTypeConcept:  "#9b59b6",
	NodeTypeRelation: "#e67e22",
	NodeTypeTemporal: "#1abc9c",
	NodeTypeCausal:   "#e74c3c",
}

package graph

import (
	"encoding/json"
	"io"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/teranos/kgviz/errors"
)

// Format is a graph document encoding
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks the document format from a file extension
func FormatFromPath(path string) (Format, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, true
	case ".yaml", ".yml":
		return FormatYAML, true
	default:
		return "", false
	}
}

// Decode reads a graph document. It does not validate or sanitize.
func Decode(r io.Reader, format Format) (*KnowledgeGraph, error) {
	var g KnowledgeGraph
	switch format {
	case FormatJSON:
		if err := json.NewDecoder(r).Decode(&g); err != nil {
			return nil, errors.Wrap(errors.ErrInvalidRequest, "decode json graph: "+err.Error())
		}
	case FormatYAML:
		if err := yaml.NewDecoder(r).Decode(&g); err != nil {
			return nil, errors.Wrap(errors.ErrInvalidRequest, "decode yaml graph: "+err.Error())
		}
	default:
		return nil, errors.NewInvalidRequestError("unsupported graph format %q", format)
	}
	return &g, nil
}

// Encode writes a graph document
func Encode(w io.Writer, g *KnowledgeGraph, format Format) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(g)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(g); err != nil {
			return err
		}
		return enc.Close()
	default:
		return errors.NewInvalidRequestError("unsupported graph format %q", format)
	}
}

// Load decodes, validates and sanitizes a document in one step
func Load(r io.Reader, format Format) (*KnowledgeGraph, SanitizeReport, error) {
	g, err := Decode(r, format)
	if err != nil {
		return nil, SanitizeReport{}, err
	}
	if err := Validate(g); err != nil {
		return nil, SanitizeReport{}, errors.Wrapf(err, "graph %q", g.ID)
	}
	clean, report := Sanitize(g)
	return clean, report, nil
}

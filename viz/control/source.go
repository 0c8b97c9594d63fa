package control

import (
	"context"

	"github.com/teranos/kgviz/graph"
)

// Source is the data-access collaborator: it lists graphs, fetches one by id
// and supplies per-graph metrics. Implementations report a missing graph with
// errors.ErrNotFound and an unreachable service with errors.ErrServiceUnavailable.
type Source interface {
	ListGraphs(ctx context.Context) ([]graph.Summary, error)
	GetGraph(ctx context.Context, id string) (*graph.KnowledgeGraph, error)
	GetMetrics(ctx context.Context, id string) (*graph.Metrics, error)
}

// Package control owns the interaction state of one graph view and drives the
// filter → layout → render pipeline from it.
//
// A Controller belongs to a single goroutine (the UI or connection loop). It
// has no locks. Graph loads are the only blocking work: Fetch may run on any
// goroutine, and its Load is handed back to the owner through ApplyLoad.
package control

import (
	"context"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/teranos/kgviz/errors"
	"github.com/teranos/kgviz/graph"
	grapherror "github.com/teranos/kgviz/graph/error"
	"github.com/teranos/kgviz/internal/util"
	"github.com/teranos/kgviz/logger"
	"github.com/teranos/kgviz/viz/filter"
	"github.com/teranos/kgviz/viz/layout"
	"github.com/teranos/kgviz/viz/render"
)

// Controller holds one view's state and the pipeline results derived from it
type Controller struct {
	cfg      Config
	source   Source
	renderer *render.Renderer
	animator *Animator
	logger   *zap.SugaredLogger

	state   State
	graph   *graph.KnowledgeGraph
	metrics *graph.Metrics
	lastErr *grapherror.GraphError

	// Derived; visible is recomputed on every state change, positions lazily
	visible   filter.Result
	positions map[string]layout.Position

	seq uint64
}

// New creates a controller with no graph selected
func New(cfg Config, source Source, log *zap.SugaredLogger) (*Controller, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid controller config")
	}
	renderer, err := render.NewRenderer(cfg.Style)
	if err != nil {
		return nil, errors.Wrap(err, "invalid render style")
	}
	if log == nil {
		log = logger.Logger
	}
	log = log.Named("viz.control")

	return &Controller{
		cfg:      cfg,
		source:   source,
		renderer: renderer,
		animator: NewAnimator(cfg.AnimationInterval, log),
		logger:   log,
		state:    DefaultState(cfg),
		visible:  filter.Apply(nil, filter.Criteria{}),
	}, nil
}

// State returns a copy of the interaction state
func (c *Controller) State() State {
	return c.state
}

// Graph returns the loaded graph, or nil before the first successful load
func (c *Controller) Graph() *graph.KnowledgeGraph {
	return c.graph
}

// Metrics returns the loaded graph's metrics, if the source supplied them
func (c *Controller) Metrics() *graph.Metrics {
	return c.metrics
}

// Err returns the most recent load failure, cleared by the next successful load
func (c *Controller) Err() *grapherror.GraphError {
	return c.lastErr
}

// Visible returns the current visible subgraph
func (c *Controller) Visible() filter.Result {
	return c.visible
}

// Config returns the active configuration
func (c *Controller) Config() Config {
	return c.cfg
}

// SetConfig swaps configuration at runtime. Size and interaction state are
// kept; the layout is recomputed with the new parameters.
func (c *Controller) SetConfig(cfg Config) error {
	cfg.Width, cfg.Height = c.state.Width, c.state.Height
	if err := cfg.Validate(); err != nil {
		return errors.Wrap(err, "invalid controller config")
	}
	renderer, err := render.NewRenderer(cfg.Style)
	if err != nil {
		return errors.Wrap(err, "invalid render style")
	}

	running := c.animator.Running()
	c.animator.Stop()
	c.animator = NewAnimator(cfg.AnimationInterval, c.logger)
	if running {
		c.animator.Start()
	}

	c.cfg = cfg
	c.renderer = renderer
	c.state.ZoomLevel = clampZoom(c.state.ZoomLevel, cfg)
	c.invalidateLayout()
	return nil
}

// Request identifies one graph load. Results of superseded requests are
// discarded by ApplyLoad.
type Request struct {
	Seq     uint64
	GraphID string
}

// Load is the outcome of Fetch
type Load struct {
	Request
	Graph    *graph.KnowledgeGraph
	Metrics  *graph.Metrics
	Err      error
	Duration time.Duration
}

// NewRequest starts a load of graph id. Call it on the owner goroutine.
func (c *Controller) NewRequest(id string) Request {
	c.seq++
	return Request{Seq: c.seq, GraphID: strings.TrimSpace(id)}
}

// Fetch retrieves the graph and its metrics from the source. It only reads
// the source, so it may run on any goroutine. A metrics failure is logged and
// does not fail the load.
func (c *Controller) Fetch(ctx context.Context, req Request) Load {
	start := time.Now()
	load := Load{Request: req}

	if req.GraphID == "" {
		load.Err = errors.NewInvalidRequestError("graph id is required")
		return load
	}

	g, err := c.source.GetGraph(ctx, req.GraphID)
	if err != nil {
		load.Err = err
		load.Duration = time.Since(start)
		return load
	}
	if g == nil {
		load.Err = errors.NewNotFoundError("graph %q", req.GraphID)
		load.Duration = time.Since(start)
		return load
	}
	load.Graph = g

	metrics, err := c.source.GetMetrics(ctx, req.GraphID)
	if err != nil {
		c.logger.Warnw("Metrics unavailable",
			logger.FieldGraphID, req.GraphID,
			logger.FieldError, err)
	} else {
		load.Metrics = metrics
	}

	load.Duration = time.Since(start)
	return load
}

// ApplyLoad installs a fetched graph. It returns false when the load was
// superseded by a newer request. A failed load keeps the current graph and
// records the error for the next frame.
func (c *Controller) ApplyLoad(load Load) bool {
	if load.Seq != c.seq {
		c.logger.Debugw("Discarding stale graph load",
			logger.FieldGraphID, load.GraphID,
			"seq", load.Seq,
			"current_seq", c.seq)
		return false
	}

	if load.Err != nil {
		c.lastErr = grapherror.FromSourceError(load.Err, load.GraphID)
		c.logger.Warnw("Graph load failed, keeping last graph", c.lastErr.ToLogFields()...)
		return true
	}

	changed := c.graph == nil || c.graph.ID != load.Graph.ID
	c.graph = load.Graph
	c.metrics = load.Metrics
	c.lastErr = nil
	c.state.SelectedGraphID = load.Graph.ID

	if changed {
		c.animator.Stop()
		c.state.AnimationEnabled = false
		c.state.TemporalLayer = 0
		c.state.clearSelection()
	} else {
		c.state.TemporalLayer = c.clampLayer(c.state.TemporalLayer)
		if c.state.AnimationEnabled && !c.graph.HasTemporalStructure() {
			c.SetAnimation(false)
		}
	}

	c.logger.Infow("Graph loaded",
		logger.FieldGraphID, c.graph.ID,
		logger.FieldNodes, len(c.graph.Nodes),
		logger.FieldEdges, len(c.graph.Edges),
		logger.FieldDurationMS, load.Duration.Milliseconds())

	c.refilter()
	return true
}

// SelectGraph loads graph id synchronously
func (c *Controller) SelectGraph(ctx context.Context, id string) error {
	load := c.Fetch(ctx, c.NewRequest(id))
	c.ApplyLoad(load)
	if load.Err != nil {
		return c.lastErr
	}
	return nil
}

// SetLayoutMode switches the layout algorithm
func (c *Controller) SetLayoutMode(mode layout.Mode) error {
	parsed, err := layout.ParseMode(string(mode))
	if err != nil {
		return err
	}
	if parsed == c.state.LayoutMode {
		return nil
	}
	c.state.LayoutMode = parsed
	c.invalidateLayout()
	return nil
}

// SetNodeTypeFilter restricts visible nodes to one type; "" or "all" clears it
func (c *Controller) SetNodeTypeFilter(nodeType string) {
	c.state.NodeTypeFilter = normalizeFilter(nodeType)
	c.refilter()
}

// SetEdgeTypeFilter restricts visible edges to one type; "" or "all" clears it
func (c *Controller) SetEdgeTypeFilter(edgeType string) {
	c.state.EdgeTypeFilter = normalizeFilter(edgeType)
	c.refilter()
}

// SetSearch sets the search term
func (c *Controller) SetSearch(term string) {
	c.state.SearchTerm = term
	c.refilter()
}

// SetTemporalLayer selects one layer, or all layers with 0. The request is
// clamped to the graph's layer count and ignored for graphs with one layer or
// fewer. It returns the layer actually applied.
func (c *Controller) SetTemporalLayer(layer int) int {
	c.state.TemporalLayer = c.clampLayer(layer)
	c.refilter()
	return c.state.TemporalLayer
}

// SetAnimation starts or stops temporal playback. Playback only starts for
// graphs with more than one temporal layer. It returns whether playback is on.
func (c *Controller) SetAnimation(on bool) bool {
	if on && (c.graph == nil || !c.graph.HasTemporalStructure()) {
		return c.state.AnimationEnabled
	}
	if on == c.state.AnimationEnabled {
		return on
	}

	c.state.AnimationEnabled = on
	if on {
		c.animator.Start()
	} else {
		c.animator.Stop()
	}
	c.logger.Debugw("Animation toggled",
		logger.FieldGraphID, c.state.SelectedGraphID,
		"enabled", on)
	return on
}

// ToggleAnimation flips playback
func (c *Controller) ToggleAnimation() bool {
	return c.SetAnimation(!c.state.AnimationEnabled)
}

// AdvanceLayer moves playback to the next layer, wrapping from the last layer
// back to 1. Layer 0 is never part of the cycle. It returns false when
// playback is off.
func (c *Controller) AdvanceLayer() bool {
	if !c.state.AnimationEnabled || c.graph == nil || !c.graph.HasTemporalStructure() {
		return false
	}
	c.state.TemporalLayer = c.state.TemporalLayer%c.graph.TemporalLayers + 1
	c.refilter()
	return true
}

// Ticks delivers animation ticks while playback is on, and is nil otherwise
func (c *Controller) Ticks() <-chan time.Time {
	return c.animator.Ticks()
}

// ZoomIn multiplies the zoom by the configured step
func (c *Controller) ZoomIn() float64 {
	return c.setZoom(c.state.ZoomLevel * c.cfg.ZoomStep)
}

// ZoomOut divides the zoom by the configured step
func (c *Controller) ZoomOut() float64 {
	return c.setZoom(c.state.ZoomLevel / c.cfg.ZoomStep)
}

// SetZoom sets an absolute zoom, clamped to the configured range
func (c *Controller) SetZoom(z float64) (float64, error) {
	if z <= 0 || math.IsNaN(z) || math.IsInf(z, 0) {
		return c.state.ZoomLevel, errors.NewInvalidRequestError("zoom must be a positive number, got %v", z)
	}
	return c.setZoom(z), nil
}

func (c *Controller) setZoom(z float64) float64 {
	c.state.ZoomLevel = clampZoom(z, c.cfg)
	return c.state.ZoomLevel
}

// ResetView restores zoom 1 and clears the selection. Filters and mode stay.
func (c *Controller) ResetView() {
	c.setZoom(1)
	c.state.clearSelection()
}

// Resize changes the surface the layout is computed for
func (c *Controller) Resize(width, height int) error {
	if width <= 0 || height <= 0 {
		return errors.NewInvalidRequestError("surface size must be positive, got %dx%d", width, height)
	}
	if width == c.state.Width && height == c.state.Height {
		return nil
	}
	c.state.Width, c.state.Height = width, height
	c.invalidateLayout()
	return nil
}

// Click selects whatever is under surface pixel (x, y), or clears the
// selection when nothing is
func (c *Controller) Click(x, y float64) Hit {
	scene := c.scene()
	hit := HitTest(scene, c.cfg.Style, c.viewport(), x, y, c.cfg.HitThreshold)
	c.state.SelectedNodeID = hit.NodeID
	c.state.SelectedEdgeID = hit.EdgeID
	return hit
}

// Render draws the current frame onto s. The layout is brought up to date
// first, so a frame never mixes old positions with new filters.
func (c *Controller) Render(s render.Surface) render.Stats {
	stats := c.renderer.Render(s, c.scene())
	c.logger.Debugw("Frame rendered",
		logger.FieldGraphID, c.state.SelectedGraphID,
		logger.FieldMode, c.state.LayoutMode,
		logger.FieldNodes, stats.NodesDrawn,
		logger.FieldEdges, stats.EdgesDrawn,
		logger.FieldDurationMS, stats.Duration.Milliseconds())
	return stats
}

// Positions returns the up-to-date layout of the visible nodes
func (c *Controller) Positions() map[string]layout.Position {
	c.ensureLayout()
	return c.positions
}

// Close stops playback. The controller must not be used afterwards.
func (c *Controller) Close() {
	c.animator.Stop()
	c.state.AnimationEnabled = false
}

func (c *Controller) scene() render.Scene {
	c.ensureLayout()
	return render.Scene{
		Nodes:          c.visible.Nodes,
		Edges:          c.visible.Edges,
		Positions:      c.positions,
		Zoom:           c.state.ZoomLevel,
		SelectedNodeID: c.state.SelectedNodeID,
		SelectedEdgeID: c.state.SelectedEdgeID,
	}
}

func (c *Controller) viewport() render.Viewport {
	return render.Viewport{
		Width:  float64(c.state.Width),
		Height: float64(c.state.Height),
		Zoom:   c.state.ZoomLevel,
	}
}

// refilter recomputes the visible subgraph and drops a selection that is no
// longer visible
func (c *Controller) refilter() {
	c.visible = filter.Apply(c.graph, c.state.Criteria())
	if c.state.SelectedNodeID != "" && !nodeVisible(c.visible.Nodes, c.state.SelectedNodeID) {
		c.state.SelectedNodeID = ""
	}
	if c.state.SelectedEdgeID != "" && !edgeVisible(c.visible.Edges, c.state.SelectedEdgeID) {
		c.state.SelectedEdgeID = ""
	}
	c.invalidateLayout()
}

func (c *Controller) invalidateLayout() {
	c.positions = nil
}

func (c *Controller) ensureLayout() {
	if c.positions != nil {
		return
	}
	start := time.Now()
	c.positions = layout.Compute(c.visible.Nodes, c.visible.Edges, c.state.LayoutMode,
		float64(c.state.Width), float64(c.state.Height), c.cfg.Layout)
	c.logger.Debugw("Layout computed",
		logger.FieldGraphID, c.state.SelectedGraphID,
		logger.FieldMode, c.state.LayoutMode,
		logger.FieldNodes, len(c.visible.Nodes),
		logger.FieldDurationMS, time.Since(start).Milliseconds())
}

func (c *Controller) clampLayer(layer int) int {
	if c.graph == nil || !c.graph.HasTemporalStructure() {
		return 0
	}
	return util.ClampInt(layer, 0, c.graph.TemporalLayers)
}

func normalizeFilter(v string) string {
	v = strings.TrimSpace(v)
	if v == "" || strings.EqualFold(v, filter.All) {
		return filter.All
	}
	return v
}

package commands

import (
	"strconv"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/kgviz/errors"
	"github.com/teranos/kgviz/viz/control"
)

// RenderCmd draws one view of a graph to a PNG file
var RenderCmd = &cobra.Command{
	Use:   "render <graph-id>",
	Short: "Render a graph view to a PNG file",
	Long: `Load one graph, apply the given view settings and write the frame as PNG.

Examples:
  kgviz render pair                              # Writes pair.png
  kgviz render timeline --layer 2 -o t2.png      # One temporal layer
  kgviz render kg --mode force --search alpha    # Force layout, filtered
  kgviz render kg --export kg.json               # Also write graph and positions
  kgviz render pair --select 300,400             # Highlight what is under a pixel`,
	Args: cobra.ExactArgs(1),
	RunE: runRender,
}

var renderOpts struct {
	output   string
	export   string
	dir      string
	mode     string
	nodeType string
	edgeType string
	search   string
	layer    int
	zoom     float64
	width    int
	height   int
	click    string
}

func init() {
	f := RenderCmd.Flags()
	f.StringVarP(&renderOpts.output, "output", "o", "", "PNG file to write (default <graph-id>.png)")
	f.StringVar(&renderOpts.export, "export", "", "Also write the visible graph with positions as JSON")
	f.StringVar(&renderOpts.dir, "dir", "", "Read graphs from this directory (overrides source config)")
	f.StringVarP(&renderOpts.mode, "mode", "m", "", "Layout mode: circular, force, hierarchical, temporal")
	f.StringVar(&renderOpts.nodeType, "node-type", "", "Only show nodes of this type")
	f.StringVar(&renderOpts.edgeType, "edge-type", "", "Only show edges of this type")
	f.StringVarP(&renderOpts.search, "search", "s", "", "Only show nodes whose label or type contains this")
	f.IntVarP(&renderOpts.layer, "layer", "l", 0, "Temporal layer to show (0 = all)")
	f.Float64VarP(&renderOpts.zoom, "zoom", "z", 1, "Zoom factor")
	f.IntVar(&renderOpts.width, "width", 0, "Surface width in pixels (default from config)")
	f.IntVar(&renderOpts.height, "height", 0, "Surface height in pixels (default from config)")
	f.StringVar(&renderOpts.click, "select", "", "Select whatever is under pixel x,y before rendering")
}

// renderSteps turns the flags into the script commands that produce the view
func renderSteps(graphID string, cmd *cobra.Command) [][]string {
	steps := [][]string{}
	if renderOpts.width > 0 || renderOpts.height > 0 {
		steps = append(steps, []string{"resize", strconv.Itoa(renderOpts.width), strconv.Itoa(renderOpts.height)})
	}
	if renderOpts.mode != "" {
		steps = append(steps, []string{"mode", renderOpts.mode})
	}
	steps = append(steps, []string{"select", graphID})
	if renderOpts.nodeType != "" {
		steps = append(steps, []string{"node-type", renderOpts.nodeType})
	}
	if renderOpts.edgeType != "" {
		steps = append(steps, []string{"edge-type", renderOpts.edgeType})
	}
	if renderOpts.search != "" {
		steps = append(steps, []string{"search", renderOpts.search})
	}
	if cmd.Flags().Changed("layer") {
		steps = append(steps, []string{"layer", strconv.Itoa(renderOpts.layer)})
	}
	if cmd.Flags().Changed("zoom") {
		steps = append(steps, []string{"zoom", strconv.FormatFloat(renderOpts.zoom, 'g', -1, 64)})
	}

	if renderOpts.click != "" {
		x, y, _ := strings.Cut(renderOpts.click, ",")
		steps = append(steps, []string{"click", strings.TrimSpace(x), strings.TrimSpace(y)})
	}

	output := renderOpts.output
	if output == "" {
		output = graphID + ".png"
	}
	steps = append(steps, []string{"render", output})
	if renderOpts.export != "" {
		steps = append(steps, []string{"export", renderOpts.export})
	}
	return steps
}

func runRender(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log := cliLogger("render")
	src, err := openSource(cfg, renderOpts.dir, log, nil)
	if err != nil {
		return err
	}
	defer src.Close()

	cc := cfg.ControlConfig()
	// A resize step only carries both sides, so fill the missing one from config
	if renderOpts.width <= 0 {
		renderOpts.width = cc.Width
	}
	if renderOpts.height <= 0 {
		renderOpts.height = cc.Height
	}

	ctrl, err := control.New(cc, src, log)
	if err != nil {
		return err
	}
	defer ctrl.Close()

	runner := newScriptRunner(cmd.Context(), ctrl, cmd.OutOrStdout(), verbosity(cmd))
	for _, step := range renderSteps(args[0], cmd) {
		result, err := runner.Exec(step)
		if err != nil {
			return errors.Wrap(err, step[0])
		}
		if result == "" || step[0] == "select" {
			continue
		}
		if step[0] == "render" || step[0] == "export" {
			pterm.Success.Println(result)
		} else {
			pterm.Info.Println(result)
		}
	}
	return nil
}

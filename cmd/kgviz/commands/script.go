package commands

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/kballard/go-shellquote"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/kgviz/display"
	"github.com/teranos/kgviz/errors"
	"github.com/teranos/kgviz/logger"
	"github.com/teranos/kgviz/viz/control"
	"github.com/teranos/kgviz/viz/layout"
	"github.com/teranos/kgviz/viz/render"
)

// ScriptCmd replays a session from a command file
var ScriptCmd = &cobra.Command{
	Use:   "script <file>",
	Short: "Drive a visualization session from a command file",
	Long: `Run the controls of an interactive session from a file, one command per
line. Arguments are split like a shell would; lines starting with # are
comments. The script stops at the first failing line.

Commands:
  select <graph-id>              Load a graph
  mode <circular|force|hierarchical|temporal>
  node-type <type|all>           Filter nodes by type
  edge-type <type|all>           Filter edges by type
  search [term...]               Filter by label or type; no term clears
  layer <n>                      Show temporal layer n, 0 for all
  animate on|off|step [n]        Control temporal playback
  zoom in|out|<factor>
  reset                          Zoom 1, clear selection
  click <x> <y>                  Select what is under a pixel
  resize <width> <height>
  render <file.png>              Write the current frame
  export <file.json> [full]      Write the visible (or whole) graph with positions
  frame <file.json>              Write the full frame description
  state                          Print the session state

Use "-" as the file to read commands from stdin.`,
	Args: cobra.ExactArgs(1),
	RunE: runScript,
}

var scriptDir string

func init() {
	ScriptCmd.Flags().StringVar(&scriptDir, "dir", "", "Read graphs from this directory (overrides source config)")
}

func runScript(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log := cliLogger("script")
	src, err := openSource(cfg, scriptDir, log, nil)
	if err != nil {
		return err
	}
	defer src.Close()

	ctrl, err := control.New(cfg.ControlConfig(), src, log)
	if err != nil {
		return err
	}
	defer ctrl.Close()

	name := args[0]
	var in io.Reader = cmd.InOrStdin()
	if name != "-" {
		f, err := os.Open(name)
		if err != nil {
			return errors.Wrapf(err, "failed to open script %s", name)
		}
		defer f.Close()
		in = f
	}

	runner := newScriptRunner(cmd.Context(), ctrl, cmd.OutOrStdout(), verbosity(cmd))
	runner.json = display.ShouldOutputJSON(cmd)
	return runner.Run(filepath.Base(name), in)
}

// scriptRunner applies script commands to one controller
type scriptRunner struct {
	ctx       context.Context
	ctrl      *control.Controller
	out       io.Writer
	verbosity int
	json      bool
}

func newScriptRunner(ctx context.Context, ctrl *control.Controller, out io.Writer, verbosity int) *scriptRunner {
	if ctx == nil {
		ctx = context.Background()
	}
	return &scriptRunner{ctx: ctx, ctrl: ctrl, out: out, verbosity: verbosity}
}

// Run executes every line of r. Errors carry the script name and line.
func (r *scriptRunner) Run(name string, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		args, err := shellquote.Split(line)
		if err != nil {
			return errors.Wrapf(err, "%s:%d: cannot split %q", name, lineNo, line)
		}
		if len(args) == 0 {
			continue
		}
		if logger.ShouldOutput(r.verbosity, logger.OutputProgress) {
			pterm.Info.Printf("%s:%d %s\n", name, lineNo, line)
		}

		result, err := r.Exec(args)
		if err != nil {
			return errors.Wrapf(err, "%s:%d", name, lineNo)
		}
		if result != "" {
			r.report(result)
		}
	}
	return errors.Wrapf(scanner.Err(), "failed to read %s", name)
}

func (r *scriptRunner) report(result string) {
	if r.json {
		data, err := display.MarshalJSON(map[string]string{"result": result})
		if err == nil {
			fmt.Fprintln(r.out, string(data))
		}
		return
	}
	fmt.Fprintln(r.out, result)
}

// Exec applies one command and returns a line worth reporting, if any
func (r *scriptRunner) Exec(args []string) (string, error) {
	verb, rest := strings.ToLower(args[0]), args[1:]

	switch verb {
	case "select":
		if err := wantArgs(verb, rest, 1); err != nil {
			return "", err
		}
		if err := r.ctrl.SelectGraph(r.ctx, rest[0]); err != nil {
			return "", err
		}
		g := r.ctrl.Graph()
		return fmt.Sprintf("selected %s (%d nodes, %d edges)", g.ID, len(g.Nodes), len(g.Edges)), nil

	case "mode":
		if err := wantArgs(verb, rest, 1); err != nil {
			return "", err
		}
		mode, err := layout.ParseMode(rest[0])
		if err != nil {
			return "", err
		}
		return "", r.ctrl.SetLayoutMode(mode)

	case "node-type":
		if err := wantArgs(verb, rest, 1); err != nil {
			return "", err
		}
		r.ctrl.SetNodeTypeFilter(rest[0])
		return "", nil

	case "edge-type":
		if err := wantArgs(verb, rest, 1); err != nil {
			return "", err
		}
		r.ctrl.SetEdgeTypeFilter(rest[0])
		return "", nil

	case "search":
		r.ctrl.SetSearch(strings.Join(rest, " "))
		return "", nil

	case "layer":
		if err := wantArgs(verb, rest, 1); err != nil {
			return "", err
		}
		n, err := strconv.Atoi(rest[0])
		if err != nil {
			return "", errors.NewInvalidRequestError("layer must be an integer, got %q", rest[0])
		}
		applied := r.ctrl.SetTemporalLayer(n)
		if applied != n {
			return fmt.Sprintf("layer %d (clamped from %d)", applied, n), nil
		}
		return "", nil

	case "animate":
		return r.animate(rest)

	case "zoom":
		if err := wantArgs(verb, rest, 1); err != nil {
			return "", err
		}
		switch strings.ToLower(rest[0]) {
		case "in":
			r.ctrl.ZoomIn()
		case "out":
			r.ctrl.ZoomOut()
		default:
			z, err := strconv.ParseFloat(rest[0], 64)
			if err != nil {
				return "", errors.NewInvalidRequestError("zoom wants in, out or a number, got %q", rest[0])
			}
			if _, err := r.ctrl.SetZoom(z); err != nil {
				return "", err
			}
		}
		return "", nil

	case "reset":
		r.ctrl.ResetView()
		return "", nil

	case "click":
		if err := wantArgs(verb, rest, 2); err != nil {
			return "", err
		}
		x, errX := strconv.ParseFloat(rest[0], 64)
		y, errY := strconv.ParseFloat(rest[1], 64)
		if errX != nil || errY != nil {
			return "", errors.NewInvalidRequestError("click wants two numbers, got %q %q", rest[0], rest[1])
		}
		hit := r.ctrl.Click(x, y)
		switch {
		case hit.NodeID != "":
			return "hit node " + hit.NodeID, nil
		case hit.EdgeID != "":
			return "hit edge " + hit.EdgeID, nil
		default:
			return "hit nothing", nil
		}

	case "resize":
		if err := wantArgs(verb, rest, 2); err != nil {
			return "", err
		}
		w, errW := strconv.Atoi(rest[0])
		h, errH := strconv.Atoi(rest[1])
		if errW != nil || errH != nil {
			return "", errors.NewInvalidRequestError("resize wants two integers, got %q %q", rest[0], rest[1])
		}
		return "", r.ctrl.Resize(w, h)

	case "render":
		if err := wantArgs(verb, rest, 1); err != nil {
			return "", err
		}
		return r.render(rest[0])

	case "export":
		if len(rest) == 0 || len(rest) > 2 {
			return "", errors.NewInvalidRequestError("export wants <file> [full]")
		}
		full := len(rest) == 2 && strings.EqualFold(rest[1], "full")
		g := r.ctrl.Subgraph(full)
		if g == nil {
			return "", errors.NewInvalidRequestError("no graph selected")
		}
		if err := writeJSONFile(rest[0], map[string]interface{}{
			"graph":     g,
			"positions": r.ctrl.Positions(),
			"state":     r.ctrl.State(),
		}); err != nil {
			return "", err
		}
		return fmt.Sprintf("exported %d nodes to %s", len(g.Nodes), rest[0]), nil

	case "frame":
		if err := wantArgs(verb, rest, 1); err != nil {
			return "", err
		}
		if err := writeJSONFile(rest[0], r.ctrl.Frame()); err != nil {
			return "", err
		}
		return "wrote frame to " + rest[0], nil

	case "state":
		data, err := display.MarshalJSON(r.ctrl.State())
		if err != nil {
			return "", err
		}
		return string(data), nil

	default:
		return "", errors.NewInvalidRequestError("unknown command %q", verb)
	}
}

func (r *scriptRunner) animate(rest []string) (string, error) {
	if len(rest) == 0 {
		return "", errors.NewInvalidRequestError("animate wants on, off or step")
	}
	switch strings.ToLower(rest[0]) {
	case "on":
		if !r.ctrl.SetAnimation(true) {
			return "animation unavailable: graph has no temporal layers", nil
		}
		return "", nil
	case "off":
		r.ctrl.SetAnimation(false)
		return "", nil
	case "step":
		steps := 1
		if len(rest) > 1 {
			n, err := strconv.Atoi(rest[1])
			if err != nil || n < 1 {
				return "", errors.NewInvalidRequestError("step count must be a positive integer, got %q", rest[1])
			}
			steps = n
		}
		for i := 0; i < steps; i++ {
			if !r.ctrl.AdvanceLayer() {
				return "", errors.NewInvalidRequestError("animation is off")
			}
		}
		return fmt.Sprintf("layer %d", r.ctrl.State().TemporalLayer), nil
	default:
		return "", errors.NewInvalidRequestError("animate wants on, off or step, got %q", rest[0])
	}
}

func (r *scriptRunner) render(path string) (string, error) {
	state := r.ctrl.State()
	surface := render.NewImageSurface(state.Width, state.Height)
	stats := r.ctrl.Render(surface)

	f, err := os.Create(path)
	if err != nil {
		return "", errors.Wrapf(err, "failed to create %s", path)
	}
	if err := surface.EncodePNG(f); err != nil {
		f.Close()
		return "", errors.Wrapf(err, "failed to encode %s", path)
	}
	if err := f.Close(); err != nil {
		return "", errors.Wrapf(err, "failed to write %s", path)
	}

	result := fmt.Sprintf("rendered %s (%dx%d, %d nodes, %d edges)",
		path, state.Width, state.Height, stats.NodesDrawn, stats.EdgesDrawn)
	if logger.ShouldOutput(r.verbosity, logger.OutputTiming) {
		result += fmt.Sprintf(" in %dms", stats.Duration.Milliseconds())
	}
	return result, nil
}

func wantArgs(verb string, args []string, n int) error {
	if len(args) != n {
		return errors.NewInvalidRequestError("%s wants %d argument(s), got %d", verb, n, len(args))
	}
	return nil
}

func writeJSONFile(path string, v interface{}) error {
	data, err := display.MarshalJSON(v)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return errors.Wrapf(err, "failed to write %s", path)
	}
	return nil
}

package commands

import (
	"context"
	"sort"
	"strconv"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/kgviz/display"
)

// GraphsCmd lists the graphs the configured source offers
var GraphsCmd = &cobra.Command{
	Use:     "graphs",
	Aliases: []string{"ls"},
	Short:   "List available graphs",
	Long: `List the graphs offered by the configured source.

Examples:
  kgviz graphs                  # Table of graphs
  kgviz graphs --dir ./fixtures # Read another directory
  kgviz graphs metrics timeline # Metrics of one graph`,
	Args: cobra.NoArgs,
	RunE: runGraphs,
}

var graphsMetricsCmd = &cobra.Command{
	Use:   "metrics <graph-id>",
	Short: "Show the metrics descriptor of one graph",
	Args:  cobra.ExactArgs(1),
	RunE:  runGraphsMetrics,
}

var graphsDir string

func init() {
	GraphsCmd.PersistentFlags().StringVar(&graphsDir, "dir", "", "Read graphs from this directory (overrides source config)")
	GraphsCmd.AddCommand(graphsMetricsCmd)
}

func runGraphs(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	src, err := openSource(cfg, graphsDir, cliLogger("graphs"), nil)
	if err != nil {
		return err
	}
	defer src.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()
	graphs, err := src.ListGraphs(ctx)
	if err != nil {
		return err
	}

	if display.ShouldOutputJSON(cmd) {
		return display.OutputJSON(graphs)
	}
	if len(graphs) == 0 {
		pterm.Warning.Println("No graphs found")
		return nil
	}

	data := pterm.TableData{{"ID", "Name", "Type", "Nodes", "Edges", "Layers", "Updated"}}
	for _, g := range graphs {
		updated := "-"
		if !g.UpdatedAt.IsZero() {
			updated = g.UpdatedAt.Format(time.DateTime)
		}
		data = append(data, []string{
			g.ID, g.Name, string(g.Type),
			strconv.Itoa(g.TotalNodes), strconv.Itoa(g.TotalEdges), strconv.Itoa(g.TemporalLayers),
			updated,
		})
	}
	return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}

func runGraphsMetrics(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	src, err := openSource(cfg, graphsDir, cliLogger("graphs"), nil)
	if err != nil {
		return err
	}
	defer src.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()
	m, err := src.GetMetrics(ctx, args[0])
	if err != nil {
		return err
	}

	if display.ShouldOutputJSON(cmd) {
		return display.OutputJSON(m)
	}
	pterm.Info.Printf("%s: %d nodes, %d edges, %d temporal layers\n",
		m.GraphID, m.TotalNodes, m.TotalEdges, m.TemporalLayers)
	data := pterm.TableData{{"Section", "Key", "Value"}}
	for _, section := range []struct {
		name   string
		values map[string]string
	}{{"architecture", m.Architecture}, {"performance", m.Performance}} {
		keys := make([]string, 0, len(section.values))
		for k := range section.values {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			data = append(data, []string{section.name, k, section.values[k]})
		}
	}
	if len(data) == 1 {
		return nil
	}
	return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}

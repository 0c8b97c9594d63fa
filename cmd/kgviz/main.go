package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/teranos/kgviz/cmd/kgviz/commands"
	"github.com/teranos/kgviz/logger"
)

var rootCmd = &cobra.Command{
	Use:   "kgviz",
	Short: "kgviz - Knowledge graph visualization engine",
	Long: `kgviz - Filter, lay out and render knowledge graphs.

kgviz reads knowledge graph documents from a directory or a remote graph
service, filters them by type, search term and temporal layer, lays them out
(circular, force, hierarchical, temporal) and renders frames as PNG. The
server streams frames to websocket clients that drive the same controls.

Available commands:
  server  - Serve graphs over HTTP and websocket
  render  - Render one graph view to a PNG file
  script  - Drive a session from a command file
  graphs  - List graphs and their metrics
  am      - Manage kgviz configuration ("I am")

Examples:
  kgviz graphs                          # List available graphs
  kgviz render pair -o pair.png         # Render a graph
  kgviz render timeline --layer 2 -o t2.png
  kgviz script walkthrough.kgv          # Replay a session
  kgviz server -v                       # Start the server`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		verbosity, _ := cmd.Flags().GetCount("verbose")
		if cmd.Name() == "server" && verbosity == 0 {
			// The server reports startup and connections by default
			verbosity = logger.VerbosityInfo
		}
		jsonLogs, _ := cmd.Flags().GetBool("json")
		if err := logger.InitializeWithLevel(jsonLogs, logger.VerbosityToLevel(verbosity)); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Cleanup()
	},
}

func init() {
	rootCmd.PersistentFlags().CountP("verbose", "v", "Increase output verbosity (repeat for more detail: -v, -vv, -vvv)")
	rootCmd.PersistentFlags().Bool("json", false, "Output results and logs as JSON")
	rootCmd.PersistentFlags().StringP("config", "c", "", "Read configuration from this file only (skips the config cascade)")

	rootCmd.AddCommand(commands.AmCmd)
	rootCmd.AddCommand(commands.GraphsCmd)
	rootCmd.AddCommand(commands.RenderCmd)
	rootCmd.AddCommand(commands.ScriptCmd)
	rootCmd.AddCommand(commands.ServerCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

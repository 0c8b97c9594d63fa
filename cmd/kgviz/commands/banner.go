package commands

import (
	"fmt"

	"github.com/pterm/pterm"

	"github.com/teranos/kgviz/am"
	"github.com/teranos/kgviz/logger"
	"github.com/teranos/kgviz/source"
	"github.com/teranos/kgviz/version"
)

// printStartupBanner prints the user-friendly startup message
func printStartupBanner(verbosity int, cfg *am.Config, sourceKind string) {
	if !logger.ShouldOutput(verbosity, logger.OutputStartup) {
		return
	}
	versionInfo := version.Get()

	pterm.DefaultHeader.WithFullWidth().Println("kgviz - knowledge graph visualization")

	pterm.Printf("%s %s (commit %s)\n", pterm.LightCyan("Version:  "), versionInfo.Version, versionInfo.Short())
	pterm.Printf("%s %s\n", pterm.LightCyan("Built:    "), versionInfo.BuildTime)
	pterm.Printf("%s %s\n", pterm.LightCyan("Verbosity:"), logger.LevelName(verbosity))

	switch sourceKind {
	case source.KindRemote:
		pterm.Printf("%s remote %s\n", pterm.LightCyan("Graphs:   "), cfg.Source.Remote.BaseURL)
	default:
		pterm.Printf("%s %s\n", pterm.LightCyan("Graphs:   "), cfg.Source.Dir)
	}
	pterm.Printf("%s %s, %dx%d\n", pterm.LightCyan("Session:  "),
		cfg.Interaction.DefaultMode, cfg.Interaction.Width, cfg.Interaction.Height)

	if logger.ShouldOutput(verbosity, logger.OutputConfig) {
		for _, f := range am.ConfigFiles() {
			pterm.Printf("%s %s\n", pterm.LightCyan("Config:   "), f)
		}
		limit := "unlimited"
		if cfg.Server.MaxClients > 0 {
			limit = fmt.Sprintf("%d", cfg.Server.MaxClients)
		}
		pterm.Printf("%s %s clients, %.0f fps\n", pterm.LightCyan("Limits:   "), limit, cfg.Server.FrameRate)
	}

	pterm.Println()
	pterm.Println(pterm.Gray("Press Ctrl+C to stop"))
}

package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/kgviz/am"
	"github.com/teranos/kgviz/display"
	"github.com/teranos/kgviz/errors"
)

// AmCmd represents the am (configuration) command
var AmCmd = &cobra.Command{
	Use:   "am",
	Short: "Manage kgviz configuration",
	Long: `am - Manage kgviz configuration ("I am")

Display and check kgviz configuration settings.

Configuration sources (in order of precedence):
1. Command line flags
2. Environment variables (KGVIZ_* prefix)
3. Project config (./am.toml, searched upward)
4. User config (~/.kgviz/am.toml)
5. System config (/etc/kgviz/config.toml)
6. Default values

Examples:
  kgviz am show                    # Show current configuration
  kgviz am show --format json      # Show configuration in JSON format
  kgviz am get server.port         # Get specific config value
  kgviz am validate                # Validate current configuration
  kgviz am check ./am.toml         # Check one file for typos and errors`,
}

var amShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  "Display the merged kgviz configuration from all sources",
	RunE:  runAmShow,
}

var amGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a specific configuration value",
	Long:  "Get a specific configuration value using dot notation (e.g., server.port, layout.force_iterations)",
	Args:  cobra.ExactArgs(1),
	RunE:  runAmGet,
}

var amValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate current configuration",
	Long:  "Validate that the merged kgviz configuration is valid",
	RunE:  runAmValidate,
}

var amWhereCmd = &cobra.Command{
	Use:   "where",
	Short: "Show where configuration is loaded from",
	Long: `Show the configuration cascade and which files were checked.

Lists every configuration source in order of precedence, showing
which files exist and which settings each one contributes.`,
	RunE: runAmWhere,
}

var amCheckCmd = &cobra.Command{
	Use:   "check <file>...",
	Short: "Check config files for syntax errors, unknown keys and invalid values",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAmCheck,
}

var configFormat string

func init() {
	amShowCmd.Flags().StringVar(&configFormat, "format", "toml", "Output format: toml, json, yaml")

	AmCmd.AddCommand(amShowCmd)
	AmCmd.AddCommand(amGetCmd)
	AmCmd.AddCommand(amValidateCmd)
	AmCmd.AddCommand(amWhereCmd)
	AmCmd.AddCommand(amCheckCmd)
}

func runAmShow(cmd *cobra.Command, args []string) error {
	if _, err := am.Load(); err != nil {
		return errors.Wrap(err, "failed to load config")
	}

	format := configFormat
	if display.ShouldOutputJSON(cmd) {
		format = "json"
	}
	data, err := am.Marshal(am.EffectiveSettings(), format)
	if err != nil {
		return err
	}
	if format != "json" {
		fmt.Println("# kgviz configuration")
	}
	fmt.Print(string(data))
	return nil
}

func runAmGet(cmd *cobra.Command, args []string) error {
	key := strings.ToLower(args[0])

	v := am.GetViper()
	if !v.IsSet(key) {
		return errors.WithHint(
			errors.NewNotFoundError("configuration key %q not found", key),
			"run 'kgviz am show' to list every key")
	}

	value := am.Get(key)
	if display.ShouldOutputJSON(cmd) {
		return display.OutputJSON(map[string]interface{}{"key": key, "value": value})
	}
	fmt.Println(value)
	return nil
}

func runAmValidate(cmd *cobra.Command, args []string) error {
	if _, err := loadConfig(cmd); err != nil {
		return errors.Wrap(err, "configuration validation failed")
	}
	pterm.Success.Println("Configuration is valid")
	return nil
}

func runAmWhere(cmd *cobra.Command, args []string) error {
	intro := am.GetConfigIntrospection()

	if display.ShouldOutputJSON(cmd) {
		return display.OutputJSON(intro)
	}

	fmt.Println("Configuration cascade (later overrides earlier):")
	fmt.Println("  1. [DEFAULT]  Built-in defaults")
	for i, candidate := range am.CandidateFiles() {
		status := pterm.Gray("missing")
		if _, err := os.Stat(candidate.Path); err == nil {
			status = pterm.Green("found")
		}
		fmt.Printf("  %d. [%s] %s (%s)\n", i+2, strings.ToUpper(string(candidate.Source)), candidate.Path, status)
	}
	fmt.Println("  -  [ENVIRONMENT] KGVIZ_* environment variables")
	fmt.Println()

	type group struct {
		source   am.ConfigSource
		path     string
		settings []am.SettingInfo
	}
	var order []string
	groups := map[string]*group{}
	for _, setting := range intro.Settings {
		key := setting.SourcePath
		if key == "" || setting.Source == am.SourceEnvironment {
			key = string(setting.Source)
		}
		g, ok := groups[key]
		if !ok {
			g = &group{source: setting.Source, path: setting.SourcePath}
			if setting.Source == am.SourceEnvironment {
				g.path = ""
			}
			groups[key] = g
			order = append(order, key)
		}
		g.settings = append(g.settings, setting)
	}

	sourceOrder := []am.ConfigSource{
		am.SourceDefault,
		am.SourceSystem,
		am.SourceUser,
		am.SourceProject,
		am.SourceEnvironment,
	}

	fmt.Println("Active configuration:")
	for _, source := range sourceOrder {
		for _, key := range order {
			g := groups[key]
			if g.source != source {
				continue
			}
			switch {
			case g.path != "":
				fmt.Printf("\n%s: %d settings from %s\n", source, len(g.settings), g.path)
			case source == am.SourceEnvironment:
				fmt.Printf("\n%s: %d settings from environment variables\n", source, len(g.settings))
			default:
				fmt.Printf("\n%s: %d settings\n", source, len(g.settings))
			}

			for _, setting := range g.settings {
				valueStr := fmt.Sprintf("%v", setting.Value)
				if setting.Source == am.SourceEnvironment {
					valueStr += pterm.Gray(" (" + setting.SourcePath + ")")
				}
				if len(valueStr) > 50 && setting.Source != am.SourceEnvironment {
					valueStr = valueStr[:47] + "..."
				}
				fmt.Printf("  %s = %s\n", setting.Key, valueStr)
			}
		}
	}
	return nil
}

func runAmCheck(cmd *cobra.Command, args []string) error {
	results := make([]*am.CheckResult, 0, len(args))
	failed := 0
	for _, path := range args {
		r := am.CheckFile(path)
		results = append(results, r)
		if !r.OK() {
			failed++
		}
	}

	if display.ShouldOutputJSON(cmd) {
		type jsonResult struct {
			*am.CheckResult
			Error string `json:"error,omitempty"`
		}
		out := make([]jsonResult, 0, len(results))
		for _, r := range results {
			jr := jsonResult{CheckResult: r}
			if r.Err != nil {
				jr.Error = r.Err.Error()
			}
			out = append(out, jr)
		}
		if err := display.OutputJSON(out); err != nil {
			return err
		}
	} else {
		for _, r := range results {
			if r.OK() {
				pterm.Success.Printf("%s\n", r.Path)
				continue
			}
			if r.Err != nil {
				pterm.Error.Printf("%s: %v\n", r.Path, r.Err)
			}
			for _, key := range r.Unknown {
				pterm.Warning.Printf("%s: unknown key %s\n", r.Path, key)
			}
		}
	}

	if failed > 0 {
		return errors.Newf("%d of %d config files have problems", failed, len(results))
	}
	return nil
}

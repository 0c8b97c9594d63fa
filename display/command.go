package display

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// OutputEnv forces JSON output when set to "json", for scripts driving kgviz
const OutputEnv = "KGVIZ_OUTPUT"

// ShouldOutputJSON determines if a command should output JSON based on flags and KGVIZ_OUTPUT
func ShouldOutputJSON(cmd *cobra.Command) bool {
	if cmd == nil {
		return machineOutput()
	}

	// An explicit --json on the command wins either way
	if cmd.Flags().Changed("json") {
		jsonFlag, _ := cmd.Flags().GetBool("json")
		return jsonFlag
	}

	if globalFlag, _ := cmd.Root().PersistentFlags().GetBool("json"); globalFlag {
		return true
	}

	return machineOutput()
}

func machineOutput() bool {
	return strings.EqualFold(os.Getenv(OutputEnv), "json")
}

// OutputJSON marshals and prints JSON using display.MarshalJSON
func OutputJSON(v interface{}) error {
	data, err := MarshalJSON(v)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

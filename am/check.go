package am

import (
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/viper"

	"github.com/teranos/kgviz/errors"
)

// freeformPrefixes hold user-chosen keys, such as node types under render.palette
var freeformPrefixes = []string{"render.palette."}

// CheckResult is the outcome of CheckFile
type CheckResult struct {
	Path    string   `json:"path"`
	Unknown []string `json:"unknown_keys,omitempty"` // keys kgviz never reads, usually typos
	Err     error    `json:"-"`                       // parse, decode or validation failure
}

// OK reports a file that parses, validates and has no unknown keys
func (r *CheckResult) OK() bool {
	return r.Err == nil && len(r.Unknown) == 0
}

// CheckFile decodes a config file strictly: TOML syntax errors carry their
// position, keys outside the known settings are reported, and the merged
// result must pass Validate.
func CheckFile(path string) *CheckResult {
	result := &CheckResult{Path: path}

	var raw map[string]interface{}
	if _, err := toml.DecodeFile(path, &raw); err != nil {
		var perr toml.ParseError
		if errors.As(err, &perr) {
			result.Err = errors.Newf("%s: %s", path, perr.ErrorWithPosition())
		} else {
			result.Err = errors.Wrapf(err, "failed to read %s", path)
		}
		return result
	}

	known := knownKeys()
	for _, key := range flattenKeys(raw, "") {
		if !known[key] && !freeform(key) {
			result.Unknown = append(result.Unknown, key)
		}
	}
	sort.Strings(result.Unknown)

	cfg, err := LoadFromFile(path)
	if err != nil {
		result.Err = err
		return result
	}
	if err := cfg.Validate(); err != nil {
		result.Err = err
	}
	return result
}

func knownKeys() map[string]bool {
	v := viper.New()
	SetDefaults(v)
	known := make(map[string]bool)
	for _, k := range v.AllKeys() {
		known[k] = true
	}
	return known
}

func freeform(key string) bool {
	for _, p := range freeformPrefixes {
		if strings.HasPrefix(key, p) {
			return true
		}
	}
	return false
}

func flattenKeys(m map[string]interface{}, prefix string) []string {
	var keys []string
	for k, val := range m {
		full := strings.ToLower(k)
		if prefix != "" {
			full = prefix + "." + full
		}
		if nested, ok := val.(map[string]interface{}); ok {
			keys = append(keys, flattenKeys(nested, full)...)
			continue
		}
		keys = append(keys, full)
	}
	return keys
}

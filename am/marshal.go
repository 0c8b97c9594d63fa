package am

import (
	"encoding/json"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/teranos/kgviz/errors"
)

// Formats accepted by Marshal
const (
	FormatTOML = "toml"
	FormatYAML = "yaml"
	FormatJSON = "json"
)

// Marshal renders nested settings (as from viper's AllSettings) in format
func Marshal(settings map[string]interface{}, format string) ([]byte, error) {
	switch strings.ToLower(format) {
	case "", FormatTOML:
		data, err := toml.Marshal(settings)
		if err != nil {
			return nil, errors.Wrap(err, "failed to marshal config as TOML")
		}
		return data, nil
	case FormatYAML, "yml":
		data, err := yaml.Marshal(settings)
		if err != nil {
			return nil, errors.Wrap(err, "failed to marshal config as YAML")
		}
		return data, nil
	case FormatJSON:
		data, err := json.MarshalIndent(settings, "", "  ")
		if err != nil {
			return nil, errors.Wrap(err, "failed to marshal config as JSON")
		}
		return append(data, '\n'), nil
	default:
		return nil, errors.NewInvalidRequestError("unknown format %q (want toml, yaml or json)", format)
	}
}

// EffectiveSettings returns the merged settings of the active configuration
func EffectiveSettings() map[string]interface{} {
	return GetViper().AllSettings()
}

package am

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/viper"

	"github.com/teranos/kgviz/errors"
)

// EnvPrefix prefixes every environment override (server.port → KGVIZ_SERVER_PORT)
const EnvPrefix = "KGVIZ"

// SystemConfigPath is the lowest-precedence config file
const SystemConfigPath = "/etc/kgviz/config.toml"

var (
	mu            sync.Mutex
	globalConfig  *Config
	viperInstance *viper.Viper

	// ConfigSources records which file last set each key during loading.
	// Keys absent here come from defaults or the environment.
	ConfigSources = map[string]SourceInfo{}

	// configFilesUsed lists the merged files, lowest precedence first
	configFilesUsed []string
)

// Load reads the kgviz configuration using Viper. The result is cached
// until Reset.
func Load() (*Config, error) {
	mu.Lock()
	defer mu.Unlock()
	if globalConfig != nil {
		return globalConfig, nil
	}

	config, err := LoadWithViper(initViper())
	if err != nil {
		return nil, err
	}
	globalConfig = config
	return globalConfig, nil
}

// GetViper returns the Viper instance for advanced configuration access
func GetViper() *viper.Viper {
	mu.Lock()
	defer mu.Unlock()
	return initViper()
}

// LoadWithViper loads configuration using a provided Viper instance
func LoadWithViper(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}
	return &config, nil
}

// LoadFromFile loads configuration from a specific file path over the
// defaults. The environment is not consulted.
func LoadFromFile(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("toml")
	SetDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrapf(err, "failed to read config file %s", configPath)
	}

	config, err := LoadWithViper(v)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load config from %s", configPath)
	}
	return config, nil
}

// Reset clears the cached configuration (useful for testing)
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	globalConfig = nil
	viperInstance = nil
	ConfigSources = map[string]SourceInfo{}
	configFilesUsed = nil
}

// ConfigFiles returns the files merged into the active configuration,
// lowest precedence first
func ConfigFiles() []string {
	mu.Lock()
	defer mu.Unlock()
	initViper()
	return append([]string(nil), configFilesUsed...)
}

// CandidateFiles returns every path that would be merged if it existed,
// lowest precedence first, tagged with its source
func CandidateFiles() []SourceInfo {
	candidates := []SourceInfo{{Source: SourceSystem, Path: SystemConfigPath}}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, SourceInfo{Source: SourceUser, Path: filepath.Join(home, ".kgviz", "am.toml")})
	}
	if project := findProjectConfig(); project != "" {
		candidates = append(candidates, SourceInfo{Source: SourceProject, Path: project})
	}
	return candidates
}

// initViper initializes Viper with configuration sources and defaults.
// Callers hold mu.
func initViper() *viper.Viper {
	if viperInstance != nil {
		return viperInstance
	}

	v := viper.New()

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	BindSensitiveEnvVars(v)

	SetDefaults(v)

	// system -> user -> project; env vars still win over all of them
	mergeConfigFiles(v)

	viperInstance = v
	return v
}

// findProjectConfig searches for am.toml by walking up from the working directory
func findProjectConfig() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		amPath := filepath.Join(dir, "am.toml")
		if _, err := os.Stat(amPath); err == nil {
			return amPath
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

// mergeConfigFiles merges each existing candidate file key by key, so a
// later file overrides single settings without dropping the rest of a section
func mergeConfigFiles(v *viper.Viper) {
	ConfigSources = map[string]SourceInfo{}
	configFilesUsed = nil

	for _, candidate := range CandidateFiles() {
		if _, err := os.Stat(candidate.Path); err != nil {
			continue
		}

		tempViper := viper.New()
		tempViper.SetConfigFile(candidate.Path)
		tempViper.SetConfigType("toml")
		if err := tempViper.ReadInConfig(); err != nil {
			continue
		}

		for _, key := range tempViper.AllKeys() {
			v.Set(key, tempViper.Get(key))
			ConfigSources[key] = candidate
		}
		configFilesUsed = append(configFilesUsed, candidate.Path)
	}
}

// Get returns a configuration value using dot notation
func Get(key string) interface{} {
	return GetViper().Get(key)
}

// GetString returns a configuration value as string using dot notation
func GetString(key string) string {
	return GetViper().GetString(key)
}

// GetBool returns a configuration value as bool using dot notation
func GetBool(key string) bool {
	return GetViper().GetBool(key)
}

// GetInt returns a configuration value as int using dot notation
func GetInt(key string) int {
	return GetViper().GetInt(key)
}

// GetFloat64 returns a configuration value as float64 using dot notation
func GetFloat64(key string) float64 {
	return GetViper().GetFloat64(key)
}

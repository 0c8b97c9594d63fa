package am

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/teranos/kgviz/source"
	"github.com/teranos/kgviz/source/remote"
	"github.com/teranos/kgviz/viz/control"
	"github.com/teranos/kgviz/viz/layout"
	"github.com/teranos/kgviz/viz/render"
)

// DefaultAllowedOrigins are the CORS origins accepted when none are configured
var DefaultAllowedOrigins = []string{
	"http://localhost",
	"https://localhost",
	"http://127.0.0.1",
	"https://127.0.0.1",
}

// SetDefaults configures default values for all configuration options.
// Durations are set as strings so every default survives a TOML round trip.
func SetDefaults(v *viper.Viper) {
	// Server
	v.SetDefault("server.port", DefaultServerPort)
	v.SetDefault("server.allowed_origins", DefaultAllowedOrigins)
	v.SetDefault("server.max_clients", 32)
	v.SetDefault("server.frame_rate", 30.0)
	v.SetDefault("server.frame_burst", 2)
	v.SetDefault("server.shutdown_timeout", "5s")

	// Source
	src := source.DefaultConfig()
	rc := remote.DefaultConfig("")
	v.SetDefault("source.kind", src.Kind)
	v.SetDefault("source.dir", src.Dir)
	v.SetDefault("source.watch", true)
	v.SetDefault("source.remote.url", "")
	v.SetDefault("source.remote.token", "")
	v.SetDefault("source.remote.timeout", rc.Timeout.String())
	v.SetDefault("source.remote.block_private_ip", false)
	v.SetDefault("source.remote.breaker_max_requests", rc.MaxRequests)
	v.SetDefault("source.remote.breaker_interval", rc.Interval.String())
	v.SetDefault("source.remote.breaker_timeout", rc.OpenTimeout.String())
	v.SetDefault("source.remote.breaker_failure_threshold", rc.FailureThreshold)
	v.SetDefault("source.remote.breaker_min_requests", rc.MinRequests)

	// Layout
	lc := layout.DefaultConfig()
	v.SetDefault("layout.iterations", lc.Iterations)
	v.SetDefault("layout.repulsion", lc.Repulsion)
	v.SetDefault("layout.attraction", lc.Attraction)
	v.SetDefault("layout.padding", lc.Padding)
	v.SetDefault("layout.min_separation", lc.MinSeparation)
	v.SetDefault("layout.max_force_nodes", lc.MaxForceNodes)

	// Render
	st := render.DefaultStyle()
	v.SetDefault("render.base_radius", st.BaseRadius)
	v.SetDefault("render.importance_scale", st.ImportanceScale)
	v.SetDefault("render.label_min_radius", st.LabelMinRadius)
	v.SetDefault("render.label_gap", st.LabelGap)
	v.SetDefault("render.edge_width", st.EdgeWidth)
	v.SetDefault("render.outline_width", st.OutlineWidth)
	v.SetDefault("render.background", st.Background)
	v.SetDefault("render.edge_color", st.EdgeColor)
	v.SetDefault("render.outline_color", st.OutlineColor)
	v.SetDefault("render.label_color", st.LabelColor)
	v.SetDefault("render.selection_color", st.SelectionColor)
	v.SetDefault("render.default_color", st.DefaultColor)

	// Interaction
	cc := control.DefaultConfig()
	v.SetDefault("interaction.width", cc.Width)
	v.SetDefault("interaction.height", cc.Height)
	v.SetDefault("interaction.default_mode", string(cc.DefaultMode))
	v.SetDefault("interaction.zoom_step", cc.ZoomStep)
	v.SetDefault("interaction.zoom_min", cc.ZoomMin)
	v.SetDefault("interaction.zoom_max", cc.ZoomMax)
	v.SetDefault("interaction.hit_threshold", cc.HitThreshold)
	v.SetDefault("interaction.animation_interval", cc.AnimationInterval.String())
}

// BindSensitiveEnvVars explicitly binds sensitive configuration to environment variables
func BindSensitiveEnvVars(v *viper.Viper) {
	v.BindEnv("source.remote.token", "KGVIZ_SOURCE_REMOTE_TOKEN", "KGVIZ_GRAPH_TOKEN")
	v.BindEnv("source.remote.url", "KGVIZ_SOURCE_REMOTE_URL", "KGVIZ_GRAPH_SERVICE")
	v.BindEnv("source.dir", "KGVIZ_SOURCE_DIR", "KGVIZ_GRAPHS")
}

// GetServerPort returns the configured server port, or DefaultServerPort
func GetServerPort() int {
	cfg, err := Load()
	if err != nil {
		return DefaultServerPort
	}
	return cfg.ServerPort()
}

// ServerPort returns server.port or DefaultServerPort when unset
func (c *Config) ServerPort() int {
	if c.Server.Port == nil || *c.Server.Port == 0 {
		return DefaultServerPort
	}
	return *c.Server.Port
}

// GetServerAllowedOrigins returns the allowed CORS origins
func (c *Config) GetServerAllowedOrigins() []string {
	if len(c.Server.AllowedOrigins) == 0 {
		return DefaultAllowedOrigins
	}
	return c.Server.AllowedOrigins
}

// String returns a string representation of the config
func (c *Config) String() string {
	return fmt.Sprintf("Config{Server: {Port: %d}, Source: {Kind: %s}, Interaction: {Mode: %s, %dx%d}}",
		c.ServerPort(), c.Source.Kind, c.Interaction.DefaultMode, c.Interaction.Width, c.Interaction.Height)
}

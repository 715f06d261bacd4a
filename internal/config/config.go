// Package config handles loading and validating hale configuration.
//
// Settings come from, in increasing precedence: built-in defaults, an
// optional TOML or YAML file, environment overrides and command-line flags.
// Only the first three live here; flags are merged by the command.
package config

// Config is the complete hale configuration.
type Config struct {
	SingleChild      bool     `toml:"single_child" yaml:"single_child"`
	SurviveBereaving bool     `toml:"survive_bereaving" yaml:"survive_bereaving"`
	Verbose          bool     `toml:"verbose" yaml:"verbose"`
	Shell            string   `toml:"shell" yaml:"shell"`
	LogFormat        string   `toml:"log_format" yaml:"log_format"`
	MetricsListen    string   `toml:"metrics_listen" yaml:"metrics_listen"`
	Rewrite          []string `toml:"rewrite" yaml:"rewrite"` // "from:to" directives
	Action           []string `toml:"action" yaml:"action"`   // "signal:command" directives
}

// GroupMode reports whether signals target the child's whole process group.
func (c *Config) GroupMode() bool { return !c.SingleChild }

// Default returns a config with every default applied.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

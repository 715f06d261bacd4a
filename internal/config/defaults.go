package config

// Default values.
const (
	DefaultShell     = "/bin/sh"
	DefaultLogFormat = "text"
)

// ApplyDefaults fills in zero-value fields with their default values.
// Boolean settings default to false and need no handling.
func ApplyDefaults(cfg *Config) {
	if cfg.Shell == "" {
		cfg.Shell = DefaultShell
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = DefaultLogFormat
	}
}

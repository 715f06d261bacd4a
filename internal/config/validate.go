package config

import (
	"fmt"
	"net"
	"strings"
)

// validLogFormats lists the accepted log_format values.
var validLogFormats = map[string]bool{
	"text": true, "json": true,
}

// Validate checks the config for semantic errors and returns all of them.
func Validate(cfg *Config) []error {
	var errs []error

	if !validLogFormats[cfg.LogFormat] {
		errs = append(errs, fmt.Errorf("log_format must be text or json, got %q", cfg.LogFormat))
	}

	if strings.TrimSpace(cfg.Shell) == "" {
		errs = append(errs, fmt.Errorf("shell must not be empty"))
	}

	if cfg.MetricsListen != "" {
		if _, _, err := net.SplitHostPort(cfg.MetricsListen); err != nil {
			errs = append(errs, fmt.Errorf("metrics_listen: %w", err))
		}
	}

	for i, s := range cfg.Rewrite {
		if _, err := ParseRewrite(s); err != nil {
			errs = append(errs, fmt.Errorf("rewrite[%d]: %w", i, err))
		}
	}
	for i, s := range cfg.Action {
		if _, err := ParseAction(s); err != nil {
			errs = append(errs, fmt.Errorf("action[%d]: %w", i, err))
		}
	}

	return errs
}

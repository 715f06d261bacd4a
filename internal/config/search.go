package config

import (
	"fmt"
	"os"
)

// EnvConfig names the environment variable holding a config file path.
const EnvConfig = "HALE_CONFIG"

// DefaultSearchPaths is the ordered list of config file paths to try.
var DefaultSearchPaths = []string{
	"/etc/hale/hale.toml",
	"/etc/hale.toml",
}

// Resolve finds the config file path by checking, in order:
//  1. Explicit path from --config (if non-empty)
//  2. HALE_CONFIG environment variable
//  3. DefaultSearchPaths
//
// A config file is optional: when none is named and none of the search
// paths exist, Resolve returns "" and no error. A named file that cannot
// be found is an error.
func Resolve(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("cannot read config: %s: %w", explicit, err)
		}
		return explicit, nil
	}

	if env := os.Getenv(EnvConfig); env != "" {
		if _, err := os.Stat(env); err != nil {
			return "", fmt.Errorf("cannot read config: %s: %w", env, err)
		}
		return env, nil
	}

	for _, p := range DefaultSearchPaths {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", nil
}

// LoadOptional resolves and loads the config file, or returns the defaults
// when there is none.
func LoadOptional(explicit string) (*Config, string, []string, error) {
	path, err := Resolve(explicit)
	if err != nil {
		return nil, "", nil, err
	}
	if path == "" {
		return Default(), "", nil, nil
	}
	cfg, warnings, err := Load(path)
	if err != nil {
		return nil, path, warnings, err
	}
	return cfg, path, warnings, nil
}

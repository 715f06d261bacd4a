package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Load reads a config file, applies defaults, validates, and returns the
// config along with any warnings (e.g. unknown fields).
func Load(path string) (*Config, []string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("cannot read config: %s: %w", path, err)
	}

	return LoadBytes(data, path)
}

// LoadBytes parses raw bytes. Files ending in .yaml or .yml are YAML,
// anything else is TOML. The path is otherwise used only for messages.
func LoadBytes(data []byte, path string) (*Config, []string, error) {
	var (
		cfg      Config
		warnings []string
		err      error
	)
	if isYAML(path) {
		warnings, err = decodeYAML(data, &cfg)
	} else {
		warnings, err = decodeTOML(data, &cfg)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("config parse error in %s: %w", path, err)
	}

	ApplyDefaults(&cfg)

	if errs := Validate(&cfg); len(errs) > 0 {
		msgs := make([]string, len(errs))
		for i, e := range errs {
			msgs[i] = e.Error()
		}
		return nil, warnings, fmt.Errorf("config validation failed in %s:\n  %s",
			path, strings.Join(msgs, "\n  "))
	}

	return &cfg, warnings, nil
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

func decodeTOML(data []byte, cfg *Config) ([]string, error) {
	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		return nil, err
	}
	var warnings []string
	for _, key := range md.Undecoded() {
		warnings = append(warnings, fmt.Sprintf("unknown config key: %s", strings.Join(key, ".")))
	}
	return warnings, nil
}

func decodeYAML(data []byte, cfg *Config) ([]string, error) {
	if err := yaml.NewDecoder(bytes.NewReader(data)).Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}

	// yaml.v3 can only reject unknown keys outright; collect them as
	// warnings instead so both formats behave the same.
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	known := yamlKeys()
	var warnings []string
	for key := range raw {
		if !known[key] {
			warnings = append(warnings, fmt.Sprintf("unknown config key: %s", key))
		}
	}
	sort.Strings(warnings)
	return warnings, nil
}

func yamlKeys() map[string]bool {
	t := reflect.TypeFor[Config]()
	keys := make(map[string]bool, t.NumField())
	for i := range t.NumField() {
		name, _, _ := strings.Cut(t.Field(i).Tag.Get("yaml"), ",")
		if name != "" {
			keys[name] = true
		}
	}
	return keys
}

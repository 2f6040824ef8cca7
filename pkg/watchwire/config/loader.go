package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// FromFile loads a watchwire config file, picking the parser from the
// file extension. YAML (.yaml, .yml) and JSON (.json) are supported.
func FromFile(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("load config %s: %w", path, err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		return FromYAML(raw)
	case ".json":
		return FromJSON(raw)
	default:
		return Config{}, fmt.Errorf("load config %s: unsupported extension %q", path, ext)
	}
}

// FromYAML parses YAML data into a Config.
func FromYAML(data []byte) (Config, error) {
	return parse(data, yaml.Unmarshal, "yaml")
}

// FromJSON parses JSON data into a Config.
func FromJSON(data []byte) (Config, error) {
	return parse(data, json.Unmarshal, "json")
}

func parse(data []byte, unmarshal func([]byte, any) error, format string) (Config, error) {
	var m map[string]any
	if err := unmarshal(data, &m); err != nil {
		return Config{}, fmt.Errorf("parse %s config: %w", format, err)
	}
	return New(m), nil
}

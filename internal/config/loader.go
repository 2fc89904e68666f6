package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// envVars maps LIFELINE_* environment variables to setting paths.
var envVars = map[string]string{
	"LIFELINE_ENABLED":         KeyEnabled,
	"LIFELINE_ENDPOINT":        KeyEndpoint,
	"LIFELINE_DEBOUNCE_MS":     KeyDebounceMs,
	"LIFELINE_COLOR_INTENSITY": KeyColorIntensity,
	"LIFELINE_COLOR_STYLE":     KeyColorStyle,
	"LIFELINE_POLICY_SCRIPT":   KeyPolicyScript,
	"LIFELINE_LOG_LEVEL":       KeyLogLevel,
}

// loadFile reads a TOML config file into flattened dotted paths.
// A missing file is not an error.
func loadFile(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}
	return parseTOML(path, data)
}

// parseTOML decodes TOML data and flattens nested tables.
func parseTOML(path string, data []byte) (map[string]any, error) {
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	flat := make(map[string]any)
	flatten("", raw, flat)
	return flat, nil
}

// flatten converts nested tables into dotted paths
// ([editor.lineSurvival] enabled=true -> "editor.lineSurvival.enabled").
func flatten(prefix string, in map[string]any, out map[string]any) {
	for key, value := range in {
		path := key
		if prefix != "" {
			path = prefix + "." + key
		}
		if nested, ok := value.(map[string]any); ok {
			flatten(path, nested, out)
			continue
		}
		out[path] = value
	}
}

// loadEnv reads the LIFELINE_* variables. Values stay strings; the
// snapshot read coerces and clamps them like any other layer.
func loadEnv() map[string]any {
	out := make(map[string]any)
	for name, path := range envVars {
		if v, ok := os.LookupEnv(name); ok && v != "" {
			out[path] = v
		}
	}
	return out
}

// Package config manages settings for the line-survival feature.
//
// Values live in a layered in-memory store (defaults, config file,
// environment, runtime overrides, per-language overrides). Read
// produces an immutable Settings snapshot; any missing or invalid value
// falls back to its default, so a snapshot read never fails.
package config

import (
	"strconv"
	"time"
)

// Namespace is the dotted prefix for every feature setting.
const Namespace = "editor.lineSurvival"

// Setting paths.
const (
	KeyEnabled        = Namespace + ".enabled"
	KeyEndpoint       = Namespace + ".endpoint"
	KeyDebounceMs     = Namespace + ".debounceMs"
	KeyColorIntensity = Namespace + ".colorIntensity"
	KeyColorStyle     = Namespace + ".colorStyle"
	KeyPolicyScript   = Namespace + ".policyScript"
	KeyLogLevel       = Namespace + ".logLevel"
)

// Numeric bounds. Out-of-range values are clamped, not rejected.
const (
	MinDebounceMs = 100
	MaxDebounceMs = 10000

	MinColorIntensity = 0.05
	MaxColorIntensity = 0.5
)

// ColorStyle selects the probability-to-color mapping.
type ColorStyle string

const (
	// StyleSubtle maps bands to muted green/amber/red.
	StyleSubtle ColorStyle = "subtle"

	// StyleVibrant maps bands to pure green/yellow/red.
	StyleVibrant ColorStyle = "vibrant"

	// StyleMonochrome maps bands to three gray levels.
	StyleMonochrome ColorStyle = "monochrome"
)

// ParseColorStyle returns the style named by s, or false if unknown.
func ParseColorStyle(s string) (ColorStyle, bool) {
	switch ColorStyle(s) {
	case StyleSubtle, StyleVibrant, StyleMonochrome:
		return ColorStyle(s), true
	default:
		return "", false
	}
}

// Settings is an immutable snapshot of the feature configuration.
type Settings struct {
	// Enabled turns the feature on or off.
	Enabled bool

	// Endpoint is the scoring service URL.
	Endpoint string

	// DebounceMs is the edit-coalescing window in milliseconds.
	DebounceMs int

	// ColorIntensity scales decoration opacity.
	ColorIntensity float64

	// ColorStyle selects the color palette.
	ColorStyle ColorStyle

	// PolicyScript is the path of an optional Lua color policy.
	// Empty means the built-in styles are used.
	PolicyScript string

	// LogLevel is the diagnostic log level.
	LogLevel string
}

// DefaultSettings returns the documented defaults.
func DefaultSettings() Settings {
	return Settings{
		Enabled:        true,
		Endpoint:       "http://localhost:8080/predict",
		DebounceMs:     1000,
		ColorIntensity: 0.15,
		ColorStyle:     StyleSubtle,
		PolicyScript:   "",
		LogLevel:       "info",
	}
}

// Debounce returns the debounce window as a duration.
func (s Settings) Debounce() time.Duration {
	return time.Duration(s.DebounceMs) * time.Millisecond
}

// ColorEquivalent reports whether two snapshots produce identical
// decorations for the same prediction data. Used to decide whether a
// configuration change needs a redraw.
func (s Settings) ColorEquivalent(other Settings) bool {
	return s.ColorIntensity == other.ColorIntensity &&
		s.ColorStyle == other.ColorStyle &&
		s.PolicyScript == other.PolicyScript
}

// asBool coerces a raw layer value to bool.
func asBool(v any) (bool, bool) {
	switch b := v.(type) {
	case bool:
		return b, true
	case string:
		parsed, err := strconv.ParseBool(b)
		return parsed, err == nil
	default:
		return false, false
	}
}

// asInt coerces a raw layer value to int. TOML decodes integers as
// int64 and the env layer carries strings.
func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	case string:
		parsed, err := strconv.Atoi(n)
		return parsed, err == nil
	default:
		return 0, false
	}
}

// asFloat coerces a raw layer value to float64.
func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		parsed, err := strconv.ParseFloat(n, 64)
		return parsed, err == nil
	default:
		return 0, false
	}
}

// asString coerces a raw layer value to string.
func asString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

// clampInt bounds n to [lo, hi].
func clampInt(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}

// clampFloat bounds f to [lo, hi].
func clampFloat(f, lo, hi float64) float64 {
	if f < lo {
		return lo
	}
	if f > hi {
		return hi
	}
	return f
}

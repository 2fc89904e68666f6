package config

import (
	"testing"
	"time"
)

func TestDefaultSettings(t *testing.T) {
	s := DefaultSettings()

	if !s.Enabled {
		t.Error("Enabled = false, want true")
	}
	if s.Endpoint != "http://localhost:8080/predict" {
		t.Errorf("Endpoint = %q", s.Endpoint)
	}
	if s.DebounceMs != 1000 {
		t.Errorf("DebounceMs = %d, want 1000", s.DebounceMs)
	}
	if s.ColorIntensity != 0.15 {
		t.Errorf("ColorIntensity = %v, want 0.15", s.ColorIntensity)
	}
	if s.ColorStyle != StyleSubtle {
		t.Errorf("ColorStyle = %q, want subtle", s.ColorStyle)
	}
	if s.Debounce() != time.Second {
		t.Errorf("Debounce() = %v, want 1s", s.Debounce())
	}
}

func TestParseColorStyle(t *testing.T) {
	tests := []struct {
		in    string
		want  ColorStyle
		valid bool
	}{
		{"subtle", StyleSubtle, true},
		{"vibrant", StyleVibrant, true},
		{"monochrome", StyleMonochrome, true},
		{"neon", "", false},
		{"", "", false},
		{"Subtle", "", false},
	}

	for _, tt := range tests {
		got, ok := ParseColorStyle(tt.in)
		if ok != tt.valid || got != tt.want {
			t.Errorf("ParseColorStyle(%q) = (%q, %v), want (%q, %v)",
				tt.in, got, ok, tt.want, tt.valid)
		}
	}
}

func TestSettings_ColorEquivalent(t *testing.T) {
	base := DefaultSettings()

	same := base
	same.Enabled = false
	same.DebounceMs = 500
	if !base.ColorEquivalent(same) {
		t.Error("non-color changes should be color-equivalent")
	}

	styled := base
	styled.ColorStyle = StyleVibrant
	if base.ColorEquivalent(styled) {
		t.Error("colorStyle change should not be color-equivalent")
	}

	intense := base
	intense.ColorIntensity = 0.3
	if base.ColorEquivalent(intense) {
		t.Error("colorIntensity change should not be color-equivalent")
	}
}

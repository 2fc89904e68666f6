// Package render turns line probabilities into whole-line background
// decorations. Probabilities are banded into low/mid/high ranges, each
// band maps to a color family from the active style, and style handles
// are cached per exact color so repeated renders reuse host resources.
package render

import (
	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/Recurse-ML/lifeline-ide/internal/config"
	"github.com/Recurse-ML/lifeline-ide/internal/host"
)

// LineProbability is one line's survival score for a single render
// pass. It is produced fresh on every refresh and discarded after the
// decoration set is committed.
type LineProbability struct {
	// Line is the 1-based line number.
	Line int

	// Probability is the raw score. Not trusted; clamped before use.
	Probability float64
}

// Band is one of three probability ranges.
type Band int

const (
	// BandLow covers [0, 0.4).
	BandLow Band = iota

	// BandMid covers [0.4, 0.7).
	BandMid

	// BandHigh covers [0.7, 1].
	BandHigh
)

// String returns the band name.
func (b Band) String() string {
	switch b {
	case BandLow:
		return "low"
	case BandMid:
		return "mid"
	case BandHigh:
		return "high"
	default:
		return "unknown"
	}
}

// Classify returns the band for p and the normalized position within
// that band (0 at the weak edge, 1 at the strong edge). Banding is
// lower-inclusive: exactly 0.7 is high, exactly 0.4 is mid.
func Classify(p float64) (Band, float64) {
	switch {
	case p >= 0.7:
		return BandHigh, (p - 0.7) / 0.3
	case p >= 0.4:
		return BandMid, (p - 0.4) / 0.3
	default:
		return BandLow, p / 0.4
	}
}

// Clamp01 bounds p to [0,1].
func Clamp01(p float64) float64 {
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}

// band base colors per style.
var (
	subtleColors = [3]host.ColorSpec{
		{R: 198, G: 40, B: 40},  // low: muted red
		{R: 255, G: 143, B: 0},  // mid: amber
		{R: 46, G: 125, B: 50},  // high: muted green
	}
	vibrantColors = [3]host.ColorSpec{
		{R: 255, G: 0, B: 0},   // low: pure red
		{R: 255, G: 255, B: 0}, // mid: pure yellow
		{R: 0, G: 255, B: 0},   // high: pure green
	}
	monochromeColors = [3]host.ColorSpec{
		{R: 100, G: 100, B: 100}, // low: dark gray
		{R: 150, G: 150, B: 150}, // mid: mid gray
		{R: 200, G: 200, B: 200}, // high: light gray
	}
)

// TintFor computes the decoration color for a clamped probability
// under the given style and intensity.
//
// Subtle and vibrant share the alpha ramp intensity*(0.5 + 0.5*frac);
// monochrome uses the 0.3/0.4 base/scale instead. The asymmetry is
// deliberate and load-bearing for the monochrome look.
func TintFor(style config.ColorStyle, p, intensity float64) host.ColorSpec {
	band, frac := Classify(p)

	var spec host.ColorSpec
	var alpha float64
	switch style {
	case config.StyleVibrant:
		spec = vibrantColors[band]
		alpha = intensity * (0.5 + frac*0.5)
	case config.StyleMonochrome:
		spec = monochromeColors[band]
		alpha = intensity * (0.3 + frac*0.4)
	default:
		spec = subtleColors[band]
		alpha = intensity * (0.5 + frac*0.5)
	}

	spec.Alpha = alpha
	return spec
}

// Composite flattens a translucent tint onto an opaque base color and
// returns the resulting opaque color. Used by hosts whose display has
// no alpha channel (terminal cells).
func Composite(base host.ColorSpec, tint host.ColorSpec) host.ColorSpec {
	b := colorful.Color{R: float64(base.R) / 255, G: float64(base.G) / 255, B: float64(base.B) / 255}
	t := colorful.Color{R: float64(tint.R) / 255, G: float64(tint.G) / 255, B: float64(tint.B) / 255}

	out := b.BlendRgb(t, Clamp01(tint.Alpha)).Clamped()
	return host.ColorSpec{
		R:     uint8(out.R*255 + 0.5),
		G:     uint8(out.G*255 + 0.5),
		B:     uint8(out.B*255 + 0.5),
		Alpha: 1,
	}
}

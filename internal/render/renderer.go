package render

import (
	"sync"

	"github.com/Recurse-ML/lifeline-ide/internal/config"
	"github.com/Recurse-ML/lifeline-ide/internal/host"
)

// Policy computes a decoration color, replacing the built-in styles.
// Implementations come from user scripts; an error falls back to the
// configured built-in style for that prediction.
type Policy interface {
	TintFor(probability, intensity float64) (host.ColorSpec, error)
}

// Logger receives diagnostic output from the renderer.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

// nopLogger discards everything.
type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Warn(string, ...any)  {}

// Renderer owns the decoration set and the style-handle cache for one
// document view. Each Render replaces the full set; stale style
// handles are released before new ones are acquired so handle growth
// stays bounded by the number of distinct colors on screen.
type Renderer struct {
	mu     sync.Mutex
	view   host.View
	styles host.StyleSource
	policy Policy
	logger Logger
	cache  map[host.ColorSpec]host.StyleHandle
}

// RendererOption configures a Renderer.
type RendererOption func(*Renderer)

// WithLogger sets the diagnostic logger.
func WithLogger(l Logger) RendererOption {
	return func(r *Renderer) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewRenderer creates a renderer bound to a view and style source.
func NewRenderer(view host.View, styles host.StyleSource, opts ...RendererOption) *Renderer {
	r := &Renderer{
		view:   view,
		styles: styles,
		logger: nopLogger{},
		cache:  make(map[host.ColorSpec]host.StyleHandle),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// SetPolicy installs or removes (nil) a custom color policy. The next
// Render uses it; existing decorations are untouched.
func (r *Renderer) SetPolicy(p Policy) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.policy = p
}

// Render maps predictions to decorations and atomically replaces the
// view's decoration set.
func (r *Renderer) Render(preds []LineProbability, st config.Settings) {
	r.mu.Lock()
	defer r.mu.Unlock()

	type entry struct {
		line int
		spec host.ColorSpec
	}
	entries := make([]entry, 0, len(preds))
	wanted := make(map[host.ColorSpec]bool, len(preds))

	policyFailed := false
	for _, p := range preds {
		prob := Clamp01(p.Probability)

		var spec host.ColorSpec
		if r.policy != nil {
			s, err := r.policy.TintFor(prob, st.ColorIntensity)
			if err != nil {
				if !policyFailed {
					policyFailed = true
					r.logger.Warn("color policy failed, using %s style: %v", st.ColorStyle, err)
				}
				spec = TintFor(st.ColorStyle, prob, st.ColorIntensity)
			} else {
				spec = s
			}
		} else {
			spec = TintFor(st.ColorStyle, prob, st.ColorIntensity)
		}

		entries = append(entries, entry{line: p.Line, spec: spec})
		wanted[spec] = true
	}

	// Release handles for colors that left the screen before
	// allocating anything new.
	for spec, h := range r.cache {
		if !wanted[spec] {
			r.styles.Release(h)
			delete(r.cache, spec)
		}
	}

	decs := make([]host.LineDecoration, 0, len(entries))
	for _, e := range entries {
		h, ok := r.cache[e.spec]
		if !ok {
			h = r.styles.Acquire(e.spec)
			r.cache[e.spec] = h
		}
		decs = append(decs, host.LineDecoration{Line: e.line, Style: h})
	}

	r.view.ReplaceDecorations(decs)
}

// Clear removes all decorations and releases every cached handle.
func (r *Renderer) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for spec, h := range r.cache {
		r.styles.Release(h)
		delete(r.cache, spec)
	}
	r.view.ClearDecorations()
}

// CachedStyleCount returns the number of live cached handles.
func (r *Renderer) CachedStyleCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.cache)
}

package survival

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/Recurse-ML/lifeline-ide/internal/config"
	"github.com/Recurse-ML/lifeline-ide/internal/render"
)

// Predictor scores document lines. *predict.Client satisfies this.
type Predictor interface {
	Predict(ctx context.Context, endpoint string, lines []string) ([]float64, error)
}

// Renderer applies a prediction set to the view. *render.Renderer
// satisfies this.
type Renderer interface {
	Render(preds []render.LineProbability, settings config.Settings)
	Clear()
}

// Logger is the subset of the application logger the package needs.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Warn(string, ...any)  {}

// unit is one cancellable refresh in flight. Cancel is idempotent.
type unit struct {
	ctx       context.Context
	cancel    context.CancelFunc
	cancelled atomic.Bool
}

func (u *unit) Cancel() {
	if !u.cancelled.Swap(true) {
		u.cancel()
	}
}

// Coordinator runs refreshes one at a time. Starting a refresh cancels
// the previous one, and a cancelled refresh never commits: its result
// is discarded even if the network call happened to finish cleanly.
type Coordinator struct {
	mu         sync.Mutex
	doc        Document
	client     Predictor
	renderer   Renderer
	settingsFn func() config.Settings
	logger     Logger

	current *unit
	gen     uint64
	closed  bool
	last    []render.LineProbability
}

// Document is the portion of the host document surface the
// coordinator reads. Line numbering is 1-based.
type Document interface {
	LineCount() int
	Line(n int) (string, bool)
}

// CoordinatorOption configures a Coordinator.
type CoordinatorOption func(*Coordinator)

// WithCoordinatorLogger attaches a logger.
func WithCoordinatorLogger(l Logger) CoordinatorOption {
	return func(c *Coordinator) {
		c.logger = l
	}
}

// NewCoordinator creates a coordinator. settingsFn is consulted once
// per refresh so endpoint and color changes take effect without a
// rebuild.
func NewCoordinator(doc Document, client Predictor, renderer Renderer, settingsFn func() config.Settings, opts ...CoordinatorOption) *Coordinator {
	c := &Coordinator{
		doc:        doc,
		client:     client,
		renderer:   renderer,
		settingsFn: settingsFn,
		logger:     nopLogger{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Refresh cancels any refresh in flight and starts a new one with the
// current document contents. No-op without a document or after Close.
func (c *Coordinator) Refresh() {
	c.mu.Lock()

	if c.closed || c.doc == nil {
		c.mu.Unlock()
		return
	}

	if c.current != nil {
		c.current.Cancel()
		c.current = nil
	}

	lines := snapshotLines(c.doc)
	settings := c.settingsFn()

	ctx, cancel := context.WithCancel(context.Background())
	u := &unit{ctx: ctx, cancel: cancel}
	c.current = u
	c.gen++
	gen := c.gen
	c.mu.Unlock()

	go c.run(u, gen, settings, lines)
}

// run performs the network call and, if still current, commits the
// result. Failures commit an empty prediction set so stale tints never
// outlive the data behind them.
func (c *Coordinator) run(u *unit, gen uint64, settings config.Settings, lines []string) {
	probs, err := c.client.Predict(u.ctx, settings.Endpoint, lines)
	if err != nil {
		probs = nil
		if u.cancelled.Load() {
			c.logger.Debug("refresh superseded: %v", err)
		} else {
			c.logger.Warn("prediction failed: %v", err)
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if u.cancelled.Load() || gen != c.gen || c.closed {
		return
	}
	c.current = nil

	// The service may return fewer probabilities than lines sent;
	// extras beyond the document are ignored.
	n := len(probs)
	if n > len(lines) {
		n = len(lines)
	}
	preds := make([]render.LineProbability, n)
	for i := 0; i < n; i++ {
		preds[i] = render.LineProbability{Line: i + 1, Probability: probs[i]}
	}

	c.last = preds
	// Rendering under the lock serialises commits: a refresh that lost
	// the generation race can never paint over a newer one.
	c.renderer.Render(preds, settings)
}

// Stop cancels any refresh in flight without closing the coordinator.
func (c *Coordinator) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.gen++
	if c.current != nil {
		c.current.Cancel()
		c.current = nil
	}
}

// Close stops the coordinator permanently. Refresh becomes a no-op.
func (c *Coordinator) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	c.gen++
	if c.current != nil {
		c.current.Cancel()
		c.current = nil
	}
}

// Last returns a copy of the most recently committed prediction set.
func (c *Coordinator) Last() []render.LineProbability {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]render.LineProbability, len(c.last))
	copy(out, c.last)
	return out
}

func snapshotLines(doc Document) []string {
	count := doc.LineCount()
	lines := make([]string, 0, count)
	for i := 1; i <= count; i++ {
		text, ok := doc.Line(i)
		if !ok {
			break
		}
		lines = append(lines, text)
	}
	return lines
}

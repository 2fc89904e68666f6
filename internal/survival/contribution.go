// Package survival wires document changes to the scoring service and
// the decoration renderer: edits are debounced, each refresh cancels
// the one before it, and the contribution's lifecycle follows the
// enabled setting.
package survival

import (
	"errors"
	"sync"

	"github.com/Recurse-ML/lifeline-ide/internal/config"
	"github.com/Recurse-ML/lifeline-ide/internal/event"
	"github.com/Recurse-ML/lifeline-ide/internal/host"
)

var (
	// ErrAlreadyAttached is returned by Attach after the first call.
	ErrAlreadyAttached = errors.New("survival: contribution already attached")

	// ErrDisposed is returned by Attach on a disposed contribution.
	ErrDisposed = errors.New("survival: contribution disposed")
)

// State is the contribution lifecycle state.
type State int

const (
	// StateUninitialized is the state before Attach.
	StateUninitialized State = iota
	// StateActive means listening for edits and refreshing.
	StateActive
	// StateIdle means attached but disabled by configuration.
	StateIdle
	// StateDisposed is terminal.
	StateDisposed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateActive:
		return "active"
	case StateIdle:
		return "idle"
	case StateDisposed:
		return "disposed"
	default:
		return "unknown"
	}
}

// Contribution owns the debounce scheduler and the compute coordinator
// for one document, reacting to configuration and document events on
// the bus.
type Contribution struct {
	mu       sync.Mutex
	state    State
	bus      *event.Bus
	store    *config.Store
	doc      host.Document
	renderer Renderer
	logger   Logger

	deb      *Debouncer
	coord    *Coordinator
	settings config.Settings

	// outer lives from Attach to Dispose, inner only while active.
	outer event.Group
	inner *event.Group
}

// ContributionOption configures a Contribution.
type ContributionOption func(*Contribution)

// WithLogger attaches a logger to the contribution and its
// coordinator.
func WithLogger(l Logger) ContributionOption {
	return func(c *Contribution) {
		c.logger = l
	}
}

// NewContribution creates an unattached contribution.
func NewContribution(bus *event.Bus, store *config.Store, doc host.Document, client Predictor, renderer Renderer, opts ...ContributionOption) *Contribution {
	c := &Contribution{
		bus:      bus,
		store:    store,
		doc:      doc,
		renderer: renderer,
		logger:   nopLogger{},
	}
	for _, opt := range opts {
		opt(c)
	}

	c.coord = NewCoordinator(doc, client, renderer, func() config.Settings {
		return store.Read(doc.Language())
	}, WithCoordinatorLogger(c.logger))
	c.deb = NewDebouncer(config.DefaultSettings().Debounce(), c.coord.Refresh)
	return c
}

// Attach reads configuration, subscribes to the bus, and activates if
// enabled. Activation triggers an immediate refresh.
func (c *Contribution) Attach() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case StateDisposed:
		return ErrDisposed
	case StateActive, StateIdle:
		return ErrAlreadyAttached
	}

	c.settings = c.store.Read(c.doc.Language())

	c.outer.Add(c.bus.Subscribe(event.TopicConfigChanged, c.onConfigChanged))
	c.outer.Add(c.bus.Subscribe(event.TopicDocumentOpened, c.onDocumentReplaced))
	c.outer.Add(c.bus.Subscribe(event.TopicDocumentLanguage, c.onDocumentReplaced))

	if c.settings.Enabled {
		c.activateLocked()
	} else {
		c.state = StateIdle
	}
	return nil
}

// State returns the current lifecycle state.
func (c *Contribution) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Dispose tears everything down: subscriptions, pending debounce,
// refresh in flight, and decorations. Terminal and idempotent; safe
// to call while a refresh is running.
func (c *Contribution) Dispose() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateDisposed {
		return
	}
	c.state = StateDisposed

	c.outer.Close()
	if c.inner != nil {
		c.inner.Close()
		c.inner = nil
	}
	c.deb.Cancel()
	c.coord.Close()
	c.renderer.Clear()
}

// activateLocked enters the active state and kicks off an immediate
// refresh. Caller holds c.mu.
func (c *Contribution) activateLocked() {
	c.state = StateActive
	c.deb.SetDelay(c.settings.Debounce())

	c.inner = &event.Group{}
	c.inner.Add(c.bus.Subscribe(event.TopicDocumentChanged, func(any) {
		c.deb.Notify()
	}))

	c.coord.Refresh()
}

// deactivateLocked leaves the active state. Caller holds c.mu.
func (c *Contribution) deactivateLocked(clear bool) {
	if c.inner != nil {
		c.inner.Close()
		c.inner = nil
	}
	c.deb.Cancel()
	c.coord.Stop()
	if clear {
		c.renderer.Clear()
	}
	c.state = StateIdle
}

// onConfigChanged re-reads settings and reconciles. An enable flip
// activates or deactivates; with the feature staying on, a debounce
// change applies to the next timer and a color-only change redraws
// from the last predictions without touching the network.
func (c *Contribution) onConfigChanged(any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateDisposed || c.state == StateUninitialized {
		return
	}

	old := c.settings
	c.settings = c.store.Read(c.doc.Language())

	switch {
	case old.Enabled && !c.settings.Enabled:
		c.logger.Debug("line survival disabled")
		c.deactivateLocked(true)
	case !old.Enabled && c.settings.Enabled:
		c.logger.Debug("line survival enabled")
		c.activateLocked()
	case c.settings.Enabled:
		if old.DebounceMs != c.settings.DebounceMs {
			c.deb.SetDelay(c.settings.Debounce())
		}
		if !old.ColorEquivalent(c.settings) {
			c.renderer.Render(c.coord.Last(), c.settings)
		}
	}
}

// onDocumentReplaced restarts the pipeline for the document's new
// content or language: the refresh in flight is dropped, settings are
// re-read under the new language scope, and the contribution
// re-enters active or idle accordingly.
func (c *Contribution) onDocumentReplaced(any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateDisposed || c.state == StateUninitialized {
		return
	}

	wasActive := c.state == StateActive
	c.settings = c.store.Read(c.doc.Language())

	if c.settings.Enabled {
		if wasActive {
			c.deactivateLocked(false)
		}
		c.activateLocked()
	} else if wasActive {
		c.deactivateLocked(true)
	}
}

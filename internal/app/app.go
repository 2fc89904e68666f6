// Package app wires the survival pipeline into a runnable terminal
// host: a file-backed document, a tcell view, the layered settings
// store, and the event loop that holds them together.
package app

import (
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/gdamore/tcell/v2"

	"github.com/Recurse-ML/lifeline-ide/internal/config"
	"github.com/Recurse-ML/lifeline-ide/internal/event"
	"github.com/Recurse-ML/lifeline-ide/internal/predict"
	"github.com/Recurse-ML/lifeline-ide/internal/render"
	"github.com/Recurse-ML/lifeline-ide/internal/script"
	"github.com/Recurse-ML/lifeline-ide/internal/survival"
)

// Options configures the application.
type Options struct {
	// File is the document to open.
	File string

	// ConfigPath is the path to the TOML configuration file. Empty
	// disables the file layer.
	ConfigPath string

	// Endpoint overrides the scoring service endpoint.
	Endpoint string

	// LogLevel sets the logging verbosity.
	LogLevel string

	// Screen overrides the tcell screen, used by tests. Nil means
	// allocate a real terminal screen.
	Screen tcell.Screen
}

// Application owns every component and runs the event loop.
type Application struct {
	opts   Options
	logger *Logger

	bus   *event.Bus
	store *config.Store
	doc   *FileDocument

	screen tcell.Screen
	view   *TermView

	renderer     *render.Renderer
	contribution *survival.Contribution

	configWatcher *config.Watcher
	docWatcher    *fsnotify.Watcher

	policyMu   sync.Mutex
	policy     *script.Policy
	policyPath string

	storeObserver *config.ObserverHandle

	running  atomic.Bool
	done     chan struct{}
	shutdown sync.Once
}

// New creates the application and bootstraps all components.
func New(opts Options) (*Application, error) {
	app := &Application{
		opts: opts,
		done: make(chan struct{}),
	}

	if err := app.bootstrap(); err != nil {
		app.teardown()
		return nil, err
	}
	return app, nil
}

// bootstrap initializes components in dependency order.
func (app *Application) bootstrap() error {
	app.bus = event.NewBus()

	storeOpts := []config.StoreOption{config.WithEnvironment()}
	if app.opts.ConfigPath != "" {
		storeOpts = append(storeOpts, config.WithFile(app.opts.ConfigPath))
	}
	app.store = config.NewStore(storeOpts...)
	if app.opts.Endpoint != "" {
		app.store.Set(config.KeyEndpoint, app.opts.Endpoint)
	}
	if app.opts.LogLevel != "" {
		app.store.Set(config.KeyLogLevel, app.opts.LogLevel)
	}

	settings := app.store.Read("")
	app.logger = NewLogger(LoggerConfig{Level: ParseLogLevel(settings.LogLevel)})

	doc, err := OpenDocument(app.opts.File)
	if err != nil {
		return &InitError{Component: "document", Err: err}
	}
	app.doc = doc

	screen := app.opts.Screen
	if screen == nil {
		screen, err = tcell.NewScreen()
		if err != nil {
			return &InitError{Component: "screen", Err: err}
		}
	}
	if err := screen.Init(); err != nil {
		return &InitError{Component: "screen", Err: err}
	}
	app.screen = screen
	app.view = NewTermView(screen, doc)

	app.renderer = render.NewRenderer(app.view, app.view,
		render.WithLogger(app.logger.WithComponent("render")))
	app.reloadPolicy(app.store.Read(doc.Language()).PolicyScript)

	client := predict.NewClient()
	app.contribution = survival.NewContribution(app.bus, app.store, doc, client, app.renderer,
		survival.WithLogger(app.logger.WithComponent("survival")))

	// The policy must be swapped before subscribers see the config
	// change, so the bridge lives on the store rather than the bus.
	app.storeObserver = app.store.Subscribe(func(change config.Change) {
		app.reloadPolicy(app.store.Read(app.doc.Language()).PolicyScript)
		app.bus.Publish(event.TopicConfigChanged, event.ConfigEvent{Source: change.Source})
	})

	if app.store.FilePath() != "" {
		watcher, err := config.NewWatcher(app.store)
		if err != nil {
			app.logger.Warn("config watcher unavailable: %v", err)
		} else {
			app.configWatcher = watcher
		}
	}

	if err := app.watchDocument(); err != nil {
		app.logger.Warn("document watcher unavailable: %v", err)
	}

	if err := app.contribution.Attach(); err != nil {
		return &InitError{Component: "survival contribution", Err: err}
	}

	app.view.SetStatus(fmt.Sprintf("%s  [%s]  q quit  j/k scroll", doc.Path(), doc.Language()))
	return nil
}

// reloadPolicy swaps the Lua color policy to match the configured
// script path. An empty path restores the built-in palettes; a broken
// script keeps them as fallback.
func (app *Application) reloadPolicy(path string) {
	app.policyMu.Lock()
	defer app.policyMu.Unlock()

	if path == app.policyPath {
		return
	}

	old := app.policy
	app.policy = nil
	app.policyPath = path

	if path != "" {
		policy, err := script.LoadFile(path)
		if err != nil {
			app.logger.Warn("color policy %s: %v", path, err)
		} else {
			app.policy = policy
			app.logger.Info("color policy loaded from %s", path)
		}
	}

	if app.policy != nil {
		app.renderer.SetPolicy(app.policy)
	} else {
		app.renderer.SetPolicy(nil)
	}
	if old != nil {
		old.Close()
	}
}

// watchDocument reloads the document and publishes a change event when
// the file is written externally.
func (app *Application) watchDocument() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	// Watch the directory: editors that save via rename replace the
	// inode, which silently detaches a watch on the file itself.
	if err := watcher.Add(filepath.Dir(app.doc.Path())); err != nil {
		watcher.Close()
		return err
	}
	app.docWatcher = watcher

	target := filepath.Clean(app.doc.Path())
	go func() {
		for {
			select {
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != target {
					continue
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				if err := app.doc.Reload(); err != nil {
					app.logger.Warn("reload: %v", err)
					continue
				}
				app.bus.Publish(event.TopicDocumentChanged, event.DocumentEvent{
					Path:     app.doc.Path(),
					Language: app.doc.Language(),
				})
				app.view.wake()
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				app.logger.Warn("document watcher: %v", err)
			}
		}
	}()
	return nil
}

// Run executes the event loop until quit or Shutdown.
func (app *Application) Run() error {
	app.running.Store(true)
	defer app.running.Store(false)
	defer app.Shutdown()

	app.view.Draw()

	for {
		select {
		case <-app.done:
			return nil
		default:
		}

		ev := app.screen.PollEvent()
		if ev == nil {
			return nil
		}

		switch ev := ev.(type) {
		case *tcell.EventKey:
			switch {
			case ev.Key() == tcell.KeyEscape, ev.Key() == tcell.KeyCtrlC:
				return nil
			case ev.Rune() == 'q':
				return nil
			case ev.Rune() == 'j', ev.Key() == tcell.KeyDown:
				app.view.Scroll(1)
				app.view.Draw()
			case ev.Rune() == 'k', ev.Key() == tcell.KeyUp:
				app.view.Scroll(-1)
				app.view.Draw()
			case ev.Rune() == 'r':
				app.bus.Publish(event.TopicDocumentChanged, event.DocumentEvent{
					Path:     app.doc.Path(),
					Language: app.doc.Language(),
				})
			}
		case *tcell.EventResize:
			app.screen.Sync()
			app.view.Draw()
		case *tcell.EventInterrupt:
			app.view.Draw()
		}
	}
}

// Shutdown stops the application. Safe to call more than once and
// from any goroutine.
func (app *Application) Shutdown() {
	app.shutdown.Do(func() {
		close(app.done)
		app.teardown()
	})
}

// teardown releases components in reverse bootstrap order. Tolerates
// partially constructed state so New can call it on bootstrap failure.
func (app *Application) teardown() {
	if app.contribution != nil {
		app.contribution.Dispose()
	}
	if app.storeObserver != nil {
		app.storeObserver.Unsubscribe()
	}
	if app.docWatcher != nil {
		app.docWatcher.Close()
	}
	if app.configWatcher != nil {
		app.configWatcher.Close()
	}

	app.policyMu.Lock()
	if app.policy != nil {
		app.policy.Close()
		app.policy = nil
	}
	app.policyMu.Unlock()

	if app.screen != nil {
		app.screen.Fini()
	}
}

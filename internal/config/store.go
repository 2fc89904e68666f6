package config

import "sync"

// ChangeType distinguishes single-value updates from full reloads.
type ChangeType int

const (
	// ChangeSet indicates one value was set.
	ChangeSet ChangeType = iota

	// ChangeReload indicates a layer was replaced wholesale.
	ChangeReload
)

// Change describes a configuration mutation.
type Change struct {
	// Path is the dotted setting path; empty for reloads.
	Path string

	// Type is the kind of change.
	Type ChangeType

	// Source identifies the originating layer ("file", "env",
	// "runtime", "scope").
	Source string
}

// Observer is called after the store mutated.
type Observer func(change Change)

// ObserverHandle detaches an observer.
type ObserverHandle struct {
	id    uint64
	store *Store
}

// Unsubscribe removes the observer. Safe to call more than once.
func (h *ObserverHandle) Unsubscribe() {
	if h.store != nil {
		h.store.unsubscribe(h.id)
	}
}

// Store is the layered settings store. Resolution order, most specific
// first: per-language scope, runtime overrides, environment, config
// file, defaults.
type Store struct {
	mu sync.RWMutex

	filePath string
	file     map[string]any
	env      map[string]any
	runtime  map[string]any
	scoped   map[string]map[string]any

	observers map[uint64]Observer
	nextID    uint64
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithFile attaches a TOML config file. A missing file contributes
// nothing; a malformed file is ignored with the error surfaced by
// ReloadFile callers.
func WithFile(path string) StoreOption {
	return func(s *Store) {
		s.filePath = path
	}
}

// WithEnvironment loads LIFELINE_* variables into the env layer.
func WithEnvironment() StoreOption {
	return func(s *Store) {
		s.env = loadEnv()
	}
}

// NewStore creates a store and performs the initial file load if one
// was configured. Load errors at construction degrade to defaults; a
// broken config file must not prevent startup.
func NewStore(opts ...StoreOption) *Store {
	s := &Store{
		file:      make(map[string]any),
		env:       make(map[string]any),
		runtime:   make(map[string]any),
		scoped:    make(map[string]map[string]any),
		observers: make(map[uint64]Observer),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.filePath != "" {
		_ = s.ReloadFile()
	}
	return s
}

// Read returns the settings snapshot for a document scope (the
// language identifier, "" for none). It is cheap and never fails.
func (s *Store) Read(scope string) Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()

	def := DefaultSettings()
	out := def

	if v, ok := s.lookup(scope, KeyEnabled); ok {
		if b, ok := asBool(v); ok {
			out.Enabled = b
		}
	}
	if v, ok := s.lookup(scope, KeyEndpoint); ok {
		if str, ok := asString(v); ok && str != "" {
			out.Endpoint = str
		}
	}
	if v, ok := s.lookup(scope, KeyDebounceMs); ok {
		if n, ok := asInt(v); ok {
			out.DebounceMs = clampInt(n, MinDebounceMs, MaxDebounceMs)
		}
	}
	if v, ok := s.lookup(scope, KeyColorIntensity); ok {
		if f, ok := asFloat(v); ok {
			out.ColorIntensity = clampFloat(f, MinColorIntensity, MaxColorIntensity)
		}
	}
	if v, ok := s.lookup(scope, KeyColorStyle); ok {
		if str, ok := asString(v); ok {
			if style, ok := ParseColorStyle(str); ok {
				out.ColorStyle = style
			}
		}
	}
	if v, ok := s.lookup(scope, KeyPolicyScript); ok {
		if str, ok := asString(v); ok {
			out.PolicyScript = str
		}
	}
	if v, ok := s.lookup(scope, KeyLogLevel); ok {
		if str, ok := asString(v); ok && str != "" {
			out.LogLevel = str
		}
	}

	return out
}

// lookup resolves a path through the layers. Caller holds at least a
// read lock.
func (s *Store) lookup(scope, path string) (any, bool) {
	if scope != "" {
		if m := s.scoped[scope]; m != nil {
			if v, ok := m[path]; ok {
				return v, true
			}
		}
	}
	if v, ok := s.runtime[path]; ok {
		return v, true
	}
	if v, ok := s.env[path]; ok {
		return v, true
	}
	if v, ok := s.file[path]; ok {
		return v, true
	}
	return nil, false
}

// Set writes a runtime override and notifies observers.
func (s *Store) Set(path string, value any) {
	s.mu.Lock()
	s.runtime[path] = value
	s.mu.Unlock()

	s.notify(Change{Path: path, Type: ChangeSet, Source: "runtime"})
}

// SetScoped writes a per-language override and notifies observers.
func (s *Store) SetScoped(scope, path string, value any) {
	s.mu.Lock()
	if s.scoped[scope] == nil {
		s.scoped[scope] = make(map[string]any)
	}
	s.scoped[scope][path] = value
	s.mu.Unlock()

	s.notify(Change{Path: path, Type: ChangeSet, Source: "scope"})
}

// Delete removes a runtime override if present.
func (s *Store) Delete(path string) {
	s.mu.Lock()
	_, ok := s.runtime[path]
	delete(s.runtime, path)
	s.mu.Unlock()

	if ok {
		s.notify(Change{Path: path, Type: ChangeSet, Source: "runtime"})
	}
}

// ReloadFile re-reads the attached config file and replaces the file
// layer. Observers are notified even when the parse fails, since an
// emptied layer is itself a change.
func (s *Store) ReloadFile() error {
	if s.filePath == "" {
		return nil
	}

	values, err := loadFile(s.filePath)

	s.mu.Lock()
	if values == nil {
		values = make(map[string]any)
	}
	s.file = values
	s.mu.Unlock()

	s.notify(Change{Type: ChangeReload, Source: "file"})
	return err
}

// FilePath returns the attached config file path, if any.
func (s *Store) FilePath() string {
	return s.filePath
}

// Subscribe registers an observer for all changes.
func (s *Store) Subscribe(obs Observer) *ObserverHandle {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	s.observers[id] = obs
	return &ObserverHandle{id: id, store: s}
}

// unsubscribe removes an observer by ID.
func (s *Store) unsubscribe(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.observers, id)
}

// notify calls observers outside the lock.
func (s *Store) notify(change Change) {
	s.mu.RLock()
	targets := make([]Observer, 0, len(s.observers))
	for _, obs := range s.observers {
		targets = append(targets, obs)
	}
	s.mu.RUnlock()

	for _, obs := range targets {
		obs(change)
	}
}

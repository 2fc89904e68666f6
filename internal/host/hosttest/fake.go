// Package hosttest provides in-memory fakes of the host interfaces for
// exercising the survival pipeline without a terminal.
package hosttest

import (
	"sync"

	"github.com/Recurse-ML/lifeline-ide/internal/host"
)

// Document is a scripted in-memory document.
type Document struct {
	mu       sync.RWMutex
	path     string
	language string
	lines    []string
}

// NewDocument creates a fake document with the given lines.
func NewDocument(path, language string, lines ...string) *Document {
	return &Document{path: path, language: language, lines: lines}
}

// Path returns the document path.
func (d *Document) Path() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.path
}

// Language returns the language identifier.
func (d *Document) Language() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.language
}

// LineCount returns the number of lines.
func (d *Document) LineCount() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.lines)
}

// Line returns line n (1-based).
func (d *Document) Line(n int) (string, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if n < 1 || n > len(d.lines) {
		return "", false
	}
	return d.lines[n-1], true
}

// SetLines replaces the document content.
func (d *Document) SetLines(lines ...string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.lines = lines
}

// SetLanguage changes the language identifier.
func (d *Document) SetLanguage(language string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.language = language
}

// Handle is the fake style handle returned by Styles.
type Handle struct {
	spec host.ColorSpec
}

// StyleColor returns the color the handle was allocated for.
func (h *Handle) StyleColor() host.ColorSpec { return h.spec }

// styleOp records one Acquire or Release call in order.
type styleOp struct {
	release bool
	spec    host.ColorSpec
}

// Styles is a fake StyleSource that records allocation traffic.
type Styles struct {
	mu   sync.Mutex
	live map[*Handle]int
	ops  []styleOp
}

// NewStyles creates an empty fake style source.
func NewStyles() *Styles {
	return &Styles{live: make(map[*Handle]int)}
}

// Acquire allocates a new handle for spec.
func (s *Styles) Acquire(spec host.ColorSpec) host.StyleHandle {
	s.mu.Lock()
	defer s.mu.Unlock()
	h := &Handle{spec: spec}
	s.live[h] = 1
	s.ops = append(s.ops, styleOp{spec: spec})
	return h
}

// Release frees a handle. A release of an unknown handle panics so
// tests catch double-release bugs immediately.
func (s *Styles) Release(h host.StyleHandle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fh, ok := h.(*Handle)
	if !ok || s.live[fh] == 0 {
		panic("hosttest: release of handle that was not acquired")
	}
	delete(s.live, fh)
	s.ops = append(s.ops, styleOp{release: true, spec: fh.spec})
}

// LiveCount returns the number of outstanding handles.
func (s *Styles) LiveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.live)
}

// Acquired returns the colors acquired so far, in order.
func (s *Styles) Acquired() []host.ColorSpec {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []host.ColorSpec
	for _, op := range s.ops {
		if !op.release {
			out = append(out, op.spec)
		}
	}
	return out
}

// ReleasedBeforeAcquiredSince reports whether, starting at op index
// mark, every release precedes the first acquire. Used to verify the
// renderer frees stale handles before allocating new ones.
func (s *Styles) ReleasedBeforeAcquiredSince(mark int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	seenAcquire := false
	for _, op := range s.ops[mark:] {
		if !op.release {
			seenAcquire = true
		} else if seenAcquire {
			return false
		}
	}
	return true
}

// OpCount returns the number of recorded style operations.
func (s *Styles) OpCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ops)
}

// View is a fake View recording every decoration replacement.
type View struct {
	mu       sync.Mutex
	current  []host.LineDecoration
	replaces [][]host.LineDecoration
	clears   int
}

// NewView creates an empty fake view.
func NewView() *View {
	return &View{}
}

// ReplaceDecorations records and applies a full decoration set.
func (v *View) ReplaceDecorations(decs []host.LineDecoration) {
	v.mu.Lock()
	defer v.mu.Unlock()
	cp := make([]host.LineDecoration, len(decs))
	copy(cp, decs)
	v.current = cp
	v.replaces = append(v.replaces, cp)
}

// ClearDecorations removes all decorations.
func (v *View) ClearDecorations() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.current = nil
	v.clears++
}

// Current returns the decoration set now applied.
func (v *View) Current() []host.LineDecoration {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.current
}

// ReplaceCount returns how many times the set was replaced.
func (v *View) ReplaceCount() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.replaces)
}

// Replaces returns every decoration set applied, oldest first.
func (v *View) Replaces() [][]host.LineDecoration {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.replaces
}

// ClearCount returns how many times ClearDecorations was called.
func (v *View) ClearCount() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.clears
}

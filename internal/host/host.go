// Package host declares the narrow surface the survival feature consumes
// from its hosting editor: document access, decoration application, and
// style-handle allocation. The feature never reaches past these
// interfaces; the editor's rendering and storage internals stay opaque.
package host

import "fmt"

// Document provides read access to the active document.
// Line numbers are 1-based throughout.
type Document interface {
	// Path returns the document's file path, or "" for scratch documents.
	Path() string

	// Language returns the document's language identifier (e.g. "go").
	Language() string

	// LineCount returns the number of lines in the document.
	LineCount() int

	// Line returns the text of line n (1-based, without line ending).
	// The second return is false if n is out of range.
	Line(n int) (string, bool)
}

// ColorSpec describes a translucent background tint to be composited
// over the editor's base background.
type ColorSpec struct {
	R, G, B uint8

	// Alpha is the opacity in [0,1].
	Alpha float64
}

// String returns the CSS-style rgba form, which doubles as the
// canonical cache key for style rules.
func (c ColorSpec) String() string {
	return fmt.Sprintf("rgba(%d,%d,%d,%.3f)", c.R, c.G, c.B, c.Alpha)
}

// StyleHandle is an opaque reference to a reusable style rule the host
// allocated for one exact color. Handles must be released back to their
// StyleSource when no longer referenced by any decoration.
type StyleHandle interface {
	// StyleColor returns the color the handle was allocated for.
	StyleColor() ColorSpec
}

// StyleSource allocates reusable style handles.
type StyleSource interface {
	// Acquire returns a handle for the given color, creating the
	// underlying style rule if needed.
	Acquire(spec ColorSpec) StyleHandle

	// Release returns a handle obtained from Acquire. Releasing a
	// handle more times than it was acquired is a caller bug.
	Release(h StyleHandle)
}

// LineDecoration is a whole-line background decoration.
type LineDecoration struct {
	// Line is the 1-based line number.
	Line int

	// Style is the background style for the full line width.
	Style StyleHandle
}

// View applies decoration sets to the visible document.
type View interface {
	// ReplaceDecorations atomically swaps the current decoration set
	// for decs. There is no intermediate state in which both old and
	// new decorations are visible.
	ReplaceDecorations(decs []LineDecoration)

	// ClearDecorations removes all decorations.
	ClearDecorations()
}

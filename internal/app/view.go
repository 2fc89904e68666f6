package app

import (
	"sync"

	"github.com/gdamore/tcell/v2"

	"github.com/Recurse-ML/lifeline-ide/internal/host"
	"github.com/Recurse-ML/lifeline-ide/internal/render"
)

// editorBackground is the base color decorations are flattened onto.
// Terminal cells have no alpha channel, so translucent tints are
// composited here instead of by the compositor an IDE would have.
var editorBackground = host.ColorSpec{R: 0x1E, G: 0x1E, B: 0x1E, Alpha: 1}

// termStyle is a refcounted terminal style slot.
type termStyle struct {
	spec  host.ColorSpec
	style tcell.Style
	refs  int
}

// StyleColor returns the color the style was allocated for.
func (s *termStyle) StyleColor() host.ColorSpec { return s.spec }

// TermView draws the document into a tcell screen and carries the
// line decorations. It doubles as the style source: Acquire hands out
// refcounted style slots keyed by color, so two decorations with the
// same tint share one slot.
type TermView struct {
	mu      sync.Mutex
	screen  tcell.Screen
	doc     *FileDocument
	status  string
	topLine int

	styles map[host.ColorSpec]*termStyle
	decs   map[int]*termStyle
}

// NewTermView creates a view on an initialised screen.
func NewTermView(screen tcell.Screen, doc *FileDocument) *TermView {
	return &TermView{
		screen:  screen,
		doc:     doc,
		topLine: 1,
		styles:  make(map[host.ColorSpec]*termStyle),
		decs:    make(map[int]*termStyle),
	}
}

// Acquire returns a style handle for spec, creating the terminal
// style on first use.
func (v *TermView) Acquire(spec host.ColorSpec) host.StyleHandle {
	v.mu.Lock()
	defer v.mu.Unlock()

	if s, ok := v.styles[spec]; ok {
		s.refs++
		return s
	}

	flat := render.Composite(editorBackground, spec)
	s := &termStyle{
		spec: spec,
		style: tcell.StyleDefault.
			Background(tcell.NewRGBColor(int32(flat.R), int32(flat.G), int32(flat.B))).
			Foreground(tcell.ColorWhite),
		refs: 1,
	}
	v.styles[spec] = s
	return s
}

// Release drops one reference to a handle, freeing the slot when the
// count reaches zero.
func (v *TermView) Release(h host.StyleHandle) {
	v.mu.Lock()
	defer v.mu.Unlock()

	s, ok := h.(*termStyle)
	if !ok {
		return
	}
	s.refs--
	if s.refs <= 0 {
		delete(v.styles, s.spec)
	}
}

// StyleCount returns the number of live style slots.
func (v *TermView) StyleCount() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.styles)
}

// ReplaceDecorations swaps in a full decoration set and wakes the
// event loop to redraw.
func (v *TermView) ReplaceDecorations(decs []host.LineDecoration) {
	v.mu.Lock()
	next := make(map[int]*termStyle, len(decs))
	for _, d := range decs {
		if s, ok := d.Style.(*termStyle); ok {
			next[d.Line] = s
		}
	}
	v.decs = next
	v.mu.Unlock()

	v.wake()
}

// ClearDecorations removes all decorations and redraws.
func (v *TermView) ClearDecorations() {
	v.mu.Lock()
	v.decs = make(map[int]*termStyle)
	v.mu.Unlock()

	v.wake()
}

// DecorationCount returns the number of decorated lines.
func (v *TermView) DecorationCount() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.decs)
}

// SetStatus sets the status line text shown at the bottom.
func (v *TermView) SetStatus(status string) {
	v.mu.Lock()
	v.status = status
	v.mu.Unlock()

	v.wake()
}

// Scroll moves the viewport by delta lines, clamped to the document.
func (v *TermView) Scroll(delta int) {
	v.mu.Lock()
	v.topLine += delta
	max := v.doc.LineCount()
	if v.topLine > max {
		v.topLine = max
	}
	if v.topLine < 1 {
		v.topLine = 1
	}
	v.mu.Unlock()
}

// wake posts an interrupt so the poll loop redraws. Errors mean the
// screen is shutting down, which makes the redraw moot.
func (v *TermView) wake() {
	_ = v.screen.PostEvent(tcell.NewEventInterrupt(nil))
}

// Draw renders the visible document slice with line tints applied.
func (v *TermView) Draw() {
	v.mu.Lock()
	defer v.mu.Unlock()

	width, height := v.screen.Size()
	if height < 1 || width < 1 {
		return
	}

	base := tcell.StyleDefault.
		Background(tcell.NewRGBColor(int32(editorBackground.R), int32(editorBackground.G), int32(editorBackground.B))).
		Foreground(tcell.ColorWhite)

	v.screen.Fill(' ', base)

	textRows := height - 1
	for row := 0; row < textRows; row++ {
		lineNo := v.topLine + row
		text, ok := v.doc.Line(lineNo)
		if !ok {
			break
		}

		style := base
		if s, deco := v.decs[lineNo]; deco {
			style = s.style
		}

		col := 0
		for _, r := range text {
			if col >= width {
				break
			}
			v.screen.SetContent(col, row, r, nil, style)
			col++
		}
		for ; col < width; col++ {
			v.screen.SetContent(col, row, ' ', nil, style)
		}
	}

	statusStyle := tcell.StyleDefault.Reverse(true)
	col := 0
	for _, r := range v.status {
		if col >= width {
			break
		}
		v.screen.SetContent(col, height-1, r, nil, statusStyle)
		col++
	}
	for ; col < width; col++ {
		v.screen.SetContent(col, height-1, ' ', nil, statusStyle)
	}

	v.screen.Show()
}

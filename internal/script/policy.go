// Package script loads user-provided Lua color policies.
//
// A policy script defines a global function
//
//	function tint(probability, intensity)
//	  return r, g, b, alpha
//	end
//
// which replaces the built-in color styles. The Lua state is opened
// without io, os, debug, or package, so a policy can compute colors
// and nothing else.
package script

import (
	"errors"
	"fmt"
	"os"
	"sync"

	lua "github.com/yuin/gopher-lua"

	"github.com/Recurse-ML/lifeline-ide/internal/host"
)

// TintFunction is the global the script must define.
const TintFunction = "tint"

var (
	// ErrNoTintFunction indicates the script defines no tint function.
	ErrNoTintFunction = errors.New("script: no tint function defined")

	// ErrBadReturn indicates the tint function returned something
	// other than four numbers.
	ErrBadReturn = errors.New("script: tint must return r, g, b, alpha numbers")

	// ErrClosed indicates the policy was already closed.
	ErrClosed = errors.New("script: policy closed")
)

// Policy is a loaded Lua color policy. Safe for concurrent use; calls
// into the interpreter are serialized.
type Policy struct {
	mu     sync.Mutex
	state  *lua.LState
	fn     *lua.LFunction
	closed bool
}

// LoadFile reads and loads a policy script from disk.
func LoadFile(path string) (*Policy, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("script: reading %s: %w", path, err)
	}
	return Load(string(source))
}

// Load compiles and runs a policy script, capturing its tint function.
func Load(source string) (*Policy, error) {
	state := lua.NewState(lua.Options{SkipOpenLibs: true})
	openSafeLibraries(state)

	if err := state.DoString(source); err != nil {
		state.Close()
		return nil, fmt.Errorf("script: %w", err)
	}

	fn, ok := state.GetGlobal(TintFunction).(*lua.LFunction)
	if !ok {
		state.Close()
		return nil, ErrNoTintFunction
	}

	return &Policy{state: state, fn: fn}, nil
}

// openSafeLibraries opens only libraries a color function could need.
// io, os, debug, and package stay closed.
func openSafeLibraries(L *lua.LState) {
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)
}

// TintFor calls the script's tint function. Out-of-range components
// are clamped rather than rejected.
func (p *Policy) TintFor(probability, intensity float64) (host.ColorSpec, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return host.ColorSpec{}, ErrClosed
	}

	err := p.state.CallByParam(lua.P{
		Fn:      p.fn,
		NRet:    4,
		Protect: true,
	}, lua.LNumber(probability), lua.LNumber(intensity))
	if err != nil {
		return host.ColorSpec{}, fmt.Errorf("script: %w", err)
	}

	defer p.state.Pop(4)

	r, okR := p.state.Get(-4).(lua.LNumber)
	g, okG := p.state.Get(-3).(lua.LNumber)
	b, okB := p.state.Get(-2).(lua.LNumber)
	a, okA := p.state.Get(-1).(lua.LNumber)
	if !okR || !okG || !okB || !okA {
		return host.ColorSpec{}, ErrBadReturn
	}

	return host.ColorSpec{
		R:     clampByte(float64(r)),
		G:     clampByte(float64(g)),
		B:     clampByte(float64(b)),
		Alpha: clampUnit(float64(a)),
	}, nil
}

// Close releases the Lua state. Safe to call more than once.
func (p *Policy) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}
	p.closed = true
	p.state.Close()
}

// clampByte bounds a color component to [0,255].
func clampByte(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

// clampUnit bounds an alpha value to [0,1].
func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

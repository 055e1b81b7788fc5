// Package scripting provides a sandboxed GopherLua execution environment
// for user-supplied command cleaning scripts.
package scripting

import (
	"context"
	"sync/atomic"

	lua "github.com/yuin/gopher-lua"
)

// DefaultInstructionLimit is the maximum number of Lua opcodes allowed per
// script call when no override is configured.
const DefaultInstructionLimit = 100_000

// removedGlobals are base library functions a cleaning script never needs:
// file and chunk loading, environment access, and console output.
var removedGlobals = []string{
	"dofile", "loadfile", "load", "loadstring", "require", "module",
	"collectgarbage", "getfenv", "setfenv", "newproxy", "print",
}

// opBudget is a context that cancels itself once Done has been called
// limit times. GopherLua polls Done once per opcode, so the budget is an
// exact instruction count.
type opBudget struct {
	context.Context
	cancel    context.CancelFunc
	remaining atomic.Int64
}

// Done spends one opcode of the budget.
func (b *opBudget) Done() <-chan struct{} {
	if b.remaining.Add(-1) <= 0 {
		b.cancel()
	}
	return b.Context.Done()
}

// newOpBudget returns a budget of limit opcodes.
//
// Precondition: limit > 0.
func newOpBudget(limit int) *opBudget {
	ctx, cancel := context.WithCancel(context.Background())
	b := &opBudget{Context: ctx, cancel: cancel}
	b.remaining.Store(int64(limit))
	return b
}

// effectiveLimit maps a configured limit to the one enforced.
func effectiveLimit(instLimit int) int {
	if instLimit <= 0 {
		return DefaultInstructionLimit
	}
	return instLimit
}

// withBudget installs a fresh budget of limit opcodes on L. The returned
// func removes it and must be called once the script call returns.
//
// Precondition: limit > 0.
func withBudget(L *lua.LState, limit int) func() {
	b := newOpBudget(limit)
	L.SetContext(b)
	return func() {
		L.RemoveContext()
		b.cancel()
	}
}

// NewSandboxedState creates a GopherLua state with only the base, table,
// string, and math libraries, minus removedGlobals. The state starts with a
// budget of instLimit opcodes, which covers loading the script; every later
// call installs its own budget with withBudget.
//
// Precondition: instLimit >= 0; 0 uses DefaultInstructionLimit.
// Postcondition: Returns a non-nil LState ready for RegisterModules and DoFile.
// The caller owns the LState and must call L.Close() when done.
func NewSandboxedState(instLimit int) *lua.LState {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})

	for _, open := range []lua.LGFunction{lua.OpenBase, lua.OpenTable, lua.OpenString, lua.OpenMath} {
		open(L)
	}
	for _, name := range removedGlobals {
		L.SetGlobal(name, lua.LNil)
	}

	L.SetContext(newOpBudget(effectiveLimit(instLimit)))
	return L
}

package scripting

import (
	"fmt"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/jobswitch/internal/game/gearset"
)

// CleanHook is the Lua global a cleaning script must define.
const CleanHook = "clean"

// LuaCleaner is a gearset.Cleaner backed by a user script defining
// clean(command). A script error, a blown instruction budget, or a
// non-string result falls back to gearset.MarkerCleaner and is logged at
// Warn level.
//
// LuaCleaner is safe for concurrent use; calls into the VM are serialized.
type LuaCleaner struct {
	mu       sync.Mutex
	L        *lua.LState
	limit    int
	path     string
	fallback gearset.Cleaner
	logger   *zap.Logger
}

// NewLuaCleaner loads the script at path into a sandboxed VM.
//
// Precondition: logger must be non-nil; instLimit >= 0 (0 uses DefaultInstructionLimit).
// Postcondition: Returns a cleaner whose script defines a clean function, or
// a non-nil error if the file fails to load or the function is missing.
func NewLuaCleaner(path string, instLimit int, logger *zap.Logger) (*LuaCleaner, error) {
	if logger == nil {
		panic("scripting.NewLuaCleaner: precondition violated: logger must be non-nil")
	}
	limit := effectiveLimit(instLimit)
	L := NewSandboxedState(limit)
	RegisterModules(L)

	if err := L.DoFile(path); err != nil {
		L.Close()
		return nil, fmt.Errorf("scripting: loading %q: %w", path, err)
	}
	if fn, ok := L.GetGlobal(CleanHook).(*lua.LFunction); !ok || fn == nil {
		L.Close()
		return nil, fmt.Errorf("scripting: %q does not define function %s", path, CleanHook)
	}

	return &LuaCleaner{
		L:        L,
		limit:    limit,
		path:     path,
		fallback: gearset.MarkerCleaner{},
		logger:   logger,
	}, nil
}

// Clean calls the script's clean(command).
//
// Postcondition: Returns the script's string result, or the marker-stripped
// command if the call fails.
func (c *LuaCleaner) Clean(command string) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	release := withBudget(c.L, c.limit)
	defer release()

	if err := c.L.CallByParam(lua.P{
		Fn:      c.L.GetGlobal(CleanHook),
		NRet:    1,
		Protect: true,
	}, lua.LString(command)); err != nil {
		c.logger.Warn("scripting: Lua runtime error",
			zap.String("script", c.path),
			zap.String("hook", CleanHook),
			zap.Error(err),
		)
		return c.fallback.Clean(command)
	}

	ret := c.L.Get(-1)
	c.L.Pop(1)
	s, ok := ret.(lua.LString)
	if !ok {
		c.logger.Warn("scripting: clean returned a non-string",
			zap.String("script", c.path),
			zap.String("type", ret.Type().String()),
		)
		return c.fallback.Clean(command)
	}
	return string(s)
}

// Close releases the VM.
func (c *LuaCleaner) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.L.Close()
}

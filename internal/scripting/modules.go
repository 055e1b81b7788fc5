package scripting

import (
	"strings"

	lua "github.com/yuin/gopher-lua"

	"github.com/cory-johannsen/jobswitch/internal/game/classjob"
	"github.com/cory-johannsen/jobswitch/internal/game/gearset"
)

// RegisterModules registers the jobswitch helper table into L:
//
//	jobswitch.marker          the command marker, "/"
//	jobswitch.acronym_length  length of a class/job acronym
//	jobswitch.strip_marker(s) s without its leading marker
//	jobswitch.fold(s)         s lowercased
//
// Precondition: L must be from NewSandboxedState.
// Postcondition: jobswitch global is defined in L.
func RegisterModules(L *lua.LState) {
	mod := L.NewTable()
	L.SetField(mod, "marker", lua.LString(gearset.CommandMarker))
	L.SetField(mod, "acronym_length", lua.LNumber(classjob.AcronymLength))
	L.SetField(mod, "strip_marker", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LString(gearset.MarkerCleaner{}.Clean(L.CheckString(1))))
		return 1
	}))
	L.SetField(mod, "fold", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LString(strings.ToLower(L.CheckString(1))))
		return 1
	}))
	L.SetGlobal("jobswitch", mod)
}

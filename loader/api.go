package loader

import (
	lua "github.com/yuin/gopher-lua"
)

// registerAPI registers the Lua story constructors as globals.
func registerAPI(L *lua.LState, coll *collector) {
	// Story { title = "...", entry = "...", ... }
	L.SetGlobal("Story", L.NewFunction(func(L *lua.LState) int {
		tbl := L.CheckTable(1)
		coll.story = tbl
		return 0
	}))

	// Location "id" { ... } — curried: Location("id") returns a
	// function that takes a table.
	L.SetGlobal("Location", L.NewFunction(func(L *lua.LState) int {
		id := L.CheckString(1)
		L.Push(L.NewFunction(func(L *lua.LState) int {
			tbl := L.CheckTable(1)
			coll.locations = append(coll.locations, rawLocation{id: id, table: tbl})
			return 0
		}))
		return 1
	}))
}

package loader

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"

	"github.com/nathoo/emberlight/types"
	"github.com/nathoo/emberlight/world"
)

// rawLocation holds a location table before compilation.
type rawLocation struct {
	id    string
	table *lua.LTable
}

// getString returns a string field from a Lua table, or "" if missing.
func getString(tbl *lua.LTable, key string) string {
	v := tbl.RawGetString(key)
	if s, ok := v.(lua.LString); ok {
		return string(s)
	}
	return ""
}

// getNumber returns a numeric field from a Lua table, or 0 if missing.
func getNumber(tbl *lua.LTable, key string) float64 {
	v := tbl.RawGetString(key)
	if n, ok := v.(lua.LNumber); ok {
		return float64(n)
	}
	return 0
}

// getInt returns an int field from a Lua table, or 0 if missing.
func getInt(tbl *lua.LTable, key string) int {
	return int(getNumber(tbl, key))
}

// getStringList returns an array-style table field as a string slice,
// preserving declaration order.
func getStringList(tbl *lua.LTable, key string) []string {
	v := tbl.RawGetString(key)
	arr, ok := v.(*lua.LTable)
	if !ok {
		return nil
	}
	var out []string
	for i := 1; i <= arr.MaxN(); i++ {
		if s, ok := arr.RawGetInt(i).(lua.LString); ok {
			out = append(out, string(s))
		}
	}
	return out
}

// compile converts all collected Lua data into a Defs struct.
func compile(coll *collector) (*world.Defs, error) {
	defs := &world.Defs{
		Locations: map[string]types.Location{},
	}

	if coll.story == nil {
		return nil, fmt.Errorf("no Story{} definition found")
	}
	defs.Story = compileStory(coll.story)

	for _, raw := range coll.locations {
		if _, dup := defs.Locations[raw.id]; dup {
			return nil, fmt.Errorf("duplicate location %q", raw.id)
		}
		defs.Locations[raw.id] = compileLocation(raw)
	}

	return defs, nil
}

func compileStory(tbl *lua.LTable) types.StoryDef {
	return types.StoryDef{
		Title:      getString(tbl, "title"),
		Author:     getString(tbl, "author"),
		Version:    getString(tbl, "version"),
		Intro:      getString(tbl, "intro"),
		Entry:      getString(tbl, "entry"),
		MenuTrack:  getString(tbl, "menu_track"),
		Persona:    getString(tbl, "persona"),
		Empathy:    getStringList(tbl, "empathy"),
		TrustBonus: getInt(tbl, "trust_bonus"),
	}
}

func compileLocation(raw rawLocation) types.Location {
	tbl := raw.table
	return types.Location{
		ID:          raw.id,
		Name:        getString(tbl, "name"),
		Description: getString(tbl, "description"),
		Neighbors:   getStringList(tbl, "neighbors"),
		Track:       getString(tbl, "track"),
		Art:         getString(tbl, "art"),
	}
}

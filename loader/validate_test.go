package loader

import (
	"strings"
	"testing"

	"github.com/nathoo/emberlight/types"
	"github.com/nathoo/emberlight/world"
)

func validDefs() *world.Defs {
	return &world.Defs{
		Story: types.StoryDef{
			Title:     "T",
			Entry:     "a",
			MenuTrack: "menu.mp3",
		},
		Locations: map[string]types.Location{
			"a": {ID: "a", Name: "A", Track: "a.mp3", Neighbors: []string{"b"}},
			"b": {ID: "b", Name: "B", Track: "b.mp3", Neighbors: []string{"a"}},
		},
	}
}

func TestValidate_Valid(t *testing.T) {
	if err := validate(validDefs()); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidate_MissingTitle(t *testing.T) {
	defs := validDefs()
	defs.Story.Title = ""

	err := validate(defs)
	if err == nil || !strings.Contains(err.Error(), "title is required") {
		t.Errorf("expected title error, got %v", err)
	}
}

func TestValidate_EntryNotDefined(t *testing.T) {
	defs := validDefs()
	defs.Story.Entry = "attic"

	err := validate(defs)
	if err == nil || !strings.Contains(err.Error(), "entry location") {
		t.Errorf("expected entry error, got %v", err)
	}
}

func TestValidate_MissingMenuTrack(t *testing.T) {
	defs := validDefs()
	defs.Story.MenuTrack = ""

	err := validate(defs)
	if err == nil || !strings.Contains(err.Error(), "menu_track") {
		t.Errorf("expected menu_track error, got %v", err)
	}
}

func TestValidate_DanglingNeighbor(t *testing.T) {
	defs := validDefs()
	loc := defs.Locations["a"]
	loc.Neighbors = []string{"b", "cellar"}
	defs.Locations["a"] = loc

	err := validate(defs)
	if err == nil || !strings.Contains(err.Error(), `neighbor "cellar"`) {
		t.Errorf("expected dangling neighbor error, got %v", err)
	}
}

func TestValidate_MissingTrack(t *testing.T) {
	defs := validDefs()
	loc := defs.Locations["b"]
	loc.Track = ""
	defs.Locations["b"] = loc

	err := validate(defs)
	if err == nil || !strings.Contains(err.Error(), "no ambient track") {
		t.Errorf("expected track error, got %v", err)
	}
}

func TestValidate_AsymmetryIsWarningOnly(t *testing.T) {
	defs := validDefs()
	loc := defs.Locations["b"]
	loc.Neighbors = nil // a → b with no way back
	defs.Locations["b"] = loc

	if err := validate(defs); err != nil {
		t.Errorf("asymmetric graph must validate, got %v", err)
	}
}

package loader

import (
	"fmt"
	"strings"

	"github.com/nathoo/emberlight/world"
)

// ValidationError collects all validation errors and warnings.
type ValidationError struct {
	Errors   []string
	Warnings []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed with %d error(s):\n  %s",
		len(e.Errors), strings.Join(e.Errors, "\n  "))
}

// validate checks the compiled defs for referential integrity.
func validate(defs *world.Defs) error {
	ve := &ValidationError{}

	if defs.Story.Title == "" {
		ve.Errors = append(ve.Errors, "Story.title is required")
	}

	// Entry location exists.
	if defs.Story.Entry == "" {
		ve.Errors = append(ve.Errors, "Story.entry is required")
	} else if _, ok := defs.Locations[defs.Story.Entry]; !ok {
		ve.Errors = append(ve.Errors, fmt.Sprintf(
			"entry location %q not found in defined locations", defs.Story.Entry))
	}

	if defs.Story.MenuTrack == "" {
		ve.Errors = append(ve.Errors, "Story.menu_track is required")
	}

	// Every neighbor resolves to a defined location.
	for id, loc := range defs.Locations {
		for _, nid := range loc.Neighbors {
			if _, ok := defs.Locations[nid]; !ok {
				ve.Errors = append(ve.Errors, fmt.Sprintf(
					"location %q neighbor %q is not a defined location", id, nid))
			}
		}
		if loc.Name == "" {
			ve.Errors = append(ve.Errors, fmt.Sprintf("location %q has no name", id))
		}
		if loc.Track == "" {
			ve.Errors = append(ve.Errors, fmt.Sprintf("location %q has no ambient track", id))
		}
	}

	// Warnings: asymmetric connections. The graph is undirected in
	// practice, though the engine does not require it.
	for id, loc := range defs.Locations {
		for _, nid := range loc.Neighbors {
			back, ok := defs.Locations[nid]
			if !ok {
				continue
			}
			if !containsString(back.Neighbors, id) {
				ve.Warnings = append(ve.Warnings, fmt.Sprintf(
					"location %q lists neighbor %q, but not the reverse", id, nid))
			}
		}
	}

	if len(ve.Errors) > 0 {
		return ve
	}
	return nil
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

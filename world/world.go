// Package world holds the immutable location graph loaded from a story
// and answers lookup and adjacency queries against it. Pure, no side
// effects after load.
package world

import (
	"fmt"

	"github.com/nathoo/emberlight/types"
)

// ErrUnknownLocation is returned when a location ID does not resolve.
var ErrUnknownLocation = fmt.Errorf("unknown location")

// Defs holds the immutable story definitions loaded from Lua.
type Defs struct {
	Story     types.StoryDef
	Locations map[string]types.Location
}

// Lookup returns the location for the given ID.
func (d *Defs) Lookup(id string) (types.Location, error) {
	loc, ok := d.Locations[id]
	if !ok {
		return types.Location{}, fmt.Errorf("%w: %q", ErrUnknownLocation, id)
	}
	return loc, nil
}

// Neighbors returns the locations adjacent to the given ID, in declared
// connection order. The order is user-visible and must stay stable.
func (d *Defs) Neighbors(id string) ([]types.Location, error) {
	loc, err := d.Lookup(id)
	if err != nil {
		return nil, err
	}
	out := make([]types.Location, 0, len(loc.Neighbors))
	for _, nid := range loc.Neighbors {
		n, err := d.Lookup(nid)
		if err != nil {
			return nil, fmt.Errorf("location %q: %w", id, err)
		}
		out = append(out, n)
	}
	return out, nil
}

// IsNeighbor reports whether to is directly connected to from.
func (d *Defs) IsNeighbor(from, to string) bool {
	loc, ok := d.Locations[from]
	if !ok {
		return false
	}
	for _, nid := range loc.Neighbors {
		if nid == to {
			return true
		}
	}
	return false
}

// Entry returns the story's starting location.
func (d *Defs) Entry() types.Location {
	return d.Locations[d.Story.Entry]
}

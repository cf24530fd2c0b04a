// Package session manages the mutable per-play session: current
// location, trust score, conversation transcript, authentication state,
// and audio preferences. All mutations happen on the single logical UI
// thread; observers are notified synchronously after each one with the
// current snapshot.
package session

import (
	"fmt"

	"github.com/nathoo/emberlight/types"
	"github.com/nathoo/emberlight/world"
)

// ErrInvalidMove is returned when the target is not a neighbor of the
// current location. The UI only offers valid neighbors, but the store
// still rejects anything else.
var ErrInvalidMove = fmt.Errorf("invalid move")

// Observer receives the session snapshot after every mutation.
type Observer func(types.Snapshot)

// Session is the single mutable play session. Create one with New at
// process start; a restart replaces it wholesale rather than mutating
// in place.
type Session struct {
	defs *world.Defs

	location   string
	trust      int
	transcript []types.TranscriptEntry
	auth       types.AuthState
	prefs      types.AudioPrefs
	pending    bool

	observer Observer
}

// New creates a fresh session at the story's entry location with
// defaults: Locked, trust 0, empty transcript.
func New(defs *world.Defs) *Session {
	return &Session{
		defs:     defs,
		location: defs.Story.Entry,
		prefs:    types.AudioPrefs{Volume: 1},
	}
}

// SetObserver registers the observer notified after every mutation.
// Passing nil removes it.
func (s *Session) SetObserver(obs Observer) {
	s.observer = obs
}

// Snapshot returns the tuple observers key on.
func (s *Session) Snapshot() types.Snapshot {
	return types.Snapshot{
		Auth:     s.auth,
		Location: s.location,
		Muted:    s.prefs.Muted,
		Volume:   s.prefs.Volume,
	}
}

func (s *Session) notify() {
	if s.observer != nil {
		s.observer(s.Snapshot())
	}
}

// Location returns the current location ID.
func (s *Session) Location() string { return s.location }

// Trust returns the current trust score in [0,100].
func (s *Session) Trust() int { return s.trust }

// Auth returns the current authentication state.
func (s *Session) Auth() types.AuthState { return s.auth }

// Prefs returns the current audio preferences.
func (s *Session) Prefs() types.AudioPrefs { return s.prefs }

// Pending reports whether a conversation turn is awaiting a reply.
func (s *Session) Pending() bool { return s.pending }

// Transcript returns the conversation log. Callers must not mutate the
// returned slice; entries are append-only.
func (s *Session) Transcript() []types.TranscriptEntry { return s.transcript }

// MoveTo moves the player to a neighboring location and appends a
// system entry announcing the move. Fails with ErrInvalidMove for
// anything that is not a neighbor of the current location; on failure
// no state changes. No trust side effect.
func (s *Session) MoveTo(id string) error {
	if !s.defs.IsNeighbor(s.location, id) {
		return fmt.Errorf("%w: %q is not adjacent to %q", ErrInvalidMove, id, s.location)
	}
	dest, err := s.defs.Lookup(id)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidMove, err)
	}
	s.location = id
	s.transcript = append(s.transcript, types.TranscriptEntry{
		Speaker: types.SpeakerSystem,
		Text:    fmt.Sprintf("You moved to the %s.", dest.Name),
	})
	s.notify()
	return nil
}

// Append adds an entry to the transcript. Never fails; entries are
// never reordered or deleted.
func (s *Session) Append(speaker types.Speaker, text string) {
	s.transcript = append(s.transcript, types.TranscriptEntry{Speaker: speaker, Text: text})
	s.notify()
}

// AdjustTrust adds delta to the trust score, clamping to [0,100].
func (s *Session) AdjustTrust(delta int) {
	s.trust += delta
	if s.trust < 0 {
		s.trust = 0
	}
	if s.trust > 100 {
		s.trust = 100
	}
	s.notify()
}

// Unlock transitions the session to Unlocked. One-way: calling it when
// already Unlocked is a no-op, not an error.
func (s *Session) Unlock() {
	if s.auth == types.Unlocked {
		return
	}
	s.auth = types.Unlocked
	s.notify()
}

// SetMuted updates the mute preference.
func (s *Session) SetMuted(muted bool) {
	s.prefs.Muted = muted
	s.notify()
}

// SetVolume updates the volume preference. Out-of-range input is
// clamped to [0,1], not rejected.
func (s *Session) SetVolume(v float64) {
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	s.prefs.Volume = v
	s.notify()
}

// BeginRequest marks a conversation turn as in flight. Returns false
// if one already is — the caller must not start another.
func (s *Session) BeginRequest() bool {
	if s.pending {
		return false
	}
	s.pending = true
	return true
}

// EndRequest clears the in-flight flag.
func (s *Session) EndRequest() {
	s.pending = false
}

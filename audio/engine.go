// Package audio owns the ambient audio layer: zero or one menu handle,
// zero or one room handle, and the crossfade ramps between them. The
// engine reacts to session snapshots (the current auth/location/mute/
// volume tuple), never to UI events, and is driven by the main loop's
// tick — it spawns no goroutines and holds no timers of its own, which
// keeps every ramp cancellable by handle identity.
package audio

import (
	"log/slog"
	"time"

	"github.com/nathoo/emberlight/types"
	"github.com/nathoo/emberlight/world"
)

// Fade schedule policy constants: gain moves FadeStep per Step call,
// and the main loop calls Step every TickInterval while Active.
const (
	FadeStep     = 0.05
	TickInterval = 50 * time.Millisecond
)

// State is the engine's externally visible mode.
type State int

const (
	// Idle: nothing playing; before the player's first explicit
	// gesture (autoplay policies require one).
	Idle State = iota
	// MenuPlaying: the looping menu track, pre-authentication.
	MenuPlaying
	// Crossfading: a fade-out and/or fade-in ramp is in progress.
	Crossfading
	// RoomPlaying: the current location's looping ambient track.
	RoomPlaying
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case MenuPlaying:
		return "menu"
	case Crossfading:
		return "crossfading"
	case RoomPlaying:
		return "room"
	default:
		return "unknown"
	}
}

// handle pairs a device handle with its ramp bookkeeping.
type handle struct {
	track   string
	h       Handle
	gain    float64
	target  float64
	ramping bool
}

func (h *handle) set(g float64) {
	if g < 0 {
		g = 0
	}
	if g > 1 {
		g = 1
	}
	h.gain = g
	h.h.SetGain(g)
}

// step advances the ramp one tick. Remaining distance smaller than one
// step snaps exactly to target. Returns true when the target is reached.
func (h *handle) step() bool {
	if !h.ramping {
		return true
	}
	diff := h.target - h.gain
	switch {
	case diff > FadeStep:
		h.set(h.gain + FadeStep)
	case diff < -FadeStep:
		h.set(h.gain - FadeStep)
	default:
		h.set(h.target)
		h.ramping = false
	}
	return !h.ramping
}

// Engine is the audio transition state machine.
type Engine struct {
	dev  Device
	defs *world.Defs
	log  *slog.Logger

	started bool
	state   State

	menu    *handle
	room    *handle
	fadeOut *handle // previous room handle ramping to 0 before teardown
	pending string  // room track waiting for the fade-out to finish

	last types.Snapshot
}

// New creates an engine over the given device. A nil logger discards.
func New(dev Device, defs *world.Defs, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Engine{dev: dev, defs: defs, log: log}
}

// State returns the engine's current mode.
func (e *Engine) State() State { return e.state }

// Start records the player's first explicit gesture and applies the
// given snapshot. Until Start, Observe keeps the engine Idle.
func (e *Engine) Start(snap types.Snapshot) {
	if e.started {
		return
	}
	e.started = true
	e.Observe(snap)
}

// Observe reacts to the current session tuple. Called synchronously
// after every session mutation.
func (e *Engine) Observe(snap types.Snapshot) {
	e.last = snap
	if !e.started {
		return
	}

	if snap.Auth == types.Locked {
		e.observeLocked(snap)
	} else {
		e.observeUnlocked(snap)
	}
	e.recompute()
}

func (e *Engine) observeLocked(snap types.Snapshot) {
	target := effectiveGain(snap)
	if e.menu == nil {
		e.menu = e.play(e.defs.Story.MenuTrack, target)
		return
	}
	// Mute/volume change: direct gain set, no ramp.
	e.menu.target = target
	e.menu.set(target)
}

func (e *Engine) observeUnlocked(snap types.Snapshot) {
	// The menu handle is torn down immediately on unlock, not crossfaded.
	if e.menu != nil {
		e.menu.h.Stop()
		e.menu = nil
	}

	want := e.trackFor(snap.Location)
	target := effectiveGain(snap)

	switch {
	case e.room == nil && e.fadeOut == nil:
		// Fresh room handle fades in from 0.
		e.room = e.playRamp(want, target)

	case e.room != nil && e.room.track == want:
		// Same track: retarget. A running fade-in keeps ramping toward
		// the new target; a settled handle gets a direct gain set.
		e.room.target = target
		if !e.room.ramping {
			e.room.set(target)
		}

	case e.room != nil:
		// Location changed. Sequential fade: the old handle ramps fully
		// to 0 and is torn down before the new one exists. Converting
		// the live handle into the fade-out cancels any fade-in ramp it
		// still had — at most one ramp per handle.
		e.fadeOut = e.room
		e.fadeOut.target = 0
		e.fadeOut.ramping = true
		e.room = nil
		e.pending = want

	default:
		// Mid sequential fade: retarget what plays next; the running
		// fade-out is left to finish.
		e.pending = want
	}
}

// Step advances every live ramp one tick. The main loop calls it every
// TickInterval while Active reports true.
func (e *Engine) Step() {
	if e.fadeOut != nil {
		if e.fadeOut.step() {
			e.fadeOut.h.Stop()
			e.fadeOut = nil
			if e.pending != "" {
				e.room = e.playRamp(e.pending, effectiveGain(e.last))
				e.pending = ""
			}
		}
	}

	if e.room != nil {
		e.room.step()
	}

	e.recompute()
}

// Active reports whether any ramp still needs ticks.
func (e *Engine) Active() bool {
	if e.fadeOut != nil || e.pending != "" {
		return true
	}
	return e.room != nil && e.room.ramping
}

// Close stops and releases every live handle. No playback survives the
// engine's lifetime.
func (e *Engine) Close() {
	for _, h := range []*handle{e.menu, e.room, e.fadeOut} {
		if h != nil {
			h.h.Stop()
		}
	}
	e.menu, e.room, e.fadeOut = nil, nil, nil
	e.pending = ""
	e.state = Idle
	e.started = false
}

// play starts a looping track directly at the given gain.
func (e *Engine) play(track string, gain float64) *handle {
	h := e.open(track)
	if h == nil {
		return nil
	}
	h.target = gain
	h.set(gain)
	return h
}

// playRamp starts a looping track at gain 0, ramping toward target.
func (e *Engine) playRamp(track string, target float64) *handle {
	h := e.open(track)
	if h == nil {
		return nil
	}
	h.set(0)
	h.target = target
	h.ramping = true
	return h
}

// open creates a device handle. Playback failure (blocked autoplay,
// missing asset) is logged and non-fatal: the engine continues with no
// handle, the muted-equivalent state.
func (e *Engine) open(track string) *handle {
	dh, err := e.dev.Play(track, true)
	if err != nil {
		e.log.Warn("audio playback unavailable", "track", track, "error", err)
		return nil
	}
	return &handle{track: track, h: dh}
}

func (e *Engine) trackFor(locationID string) string {
	loc, err := e.defs.Lookup(locationID)
	if err != nil {
		e.log.Warn("no track for location", "location", locationID)
		return ""
	}
	return loc.Track
}

// recompute derives the visible state from what is live.
func (e *Engine) recompute() {
	switch {
	case !e.started:
		e.state = Idle
	case e.fadeOut != nil || e.pending != "" || (e.room != nil && e.room.ramping):
		e.state = Crossfading
	case e.last.Auth == types.Unlocked:
		e.state = RoomPlaying
	case e.menu != nil:
		e.state = MenuPlaying
	default:
		e.state = Idle
	}
}

// effectiveGain is the target gain for the current preferences.
func effectiveGain(snap types.Snapshot) float64 {
	if snap.Muted {
		return 0
	}
	v := snap.Volume
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	return v
}

package audio

import (
	"fmt"
	"testing"

	"github.com/nathoo/emberlight/types"
	"github.com/nathoo/emberlight/world"
)

// fakeHandle records every gain sample so tests can assert on the whole
// ramp, not just the end state.
type fakeHandle struct {
	track   string
	loop    bool
	gains   []float64
	stopped bool
}

func (h *fakeHandle) SetGain(g float64) { h.gains = append(h.gains, g) }
func (h *fakeHandle) Stop()             { h.stopped = true }

func (h *fakeHandle) lastGain() float64 {
	if len(h.gains) == 0 {
		return 0
	}
	return h.gains[len(h.gains)-1]
}

type fakeDevice struct {
	handles []*fakeHandle
	fail    bool
}

func (d *fakeDevice) Play(track string, loop bool) (Handle, error) {
	if d.fail {
		return nil, fmt.Errorf("playback blocked")
	}
	h := &fakeHandle{track: track, loop: loop}
	d.handles = append(d.handles, h)
	return h, nil
}

// byTrack returns all handles ever created for a track.
func (d *fakeDevice) byTrack(track string) []*fakeHandle {
	var out []*fakeHandle
	for _, h := range d.handles {
		if h.track == track {
			out = append(out, h)
		}
	}
	return out
}

func testDefs() *world.Defs {
	return &world.Defs{
		Story: types.StoryDef{
			Entry:     "entrance",
			MenuTrack: "audio/menu.mp3",
		},
		Locations: map[string]types.Location{
			"entrance": {
				ID: "entrance", Name: "Entrance Hall",
				Neighbors: []string{"library"},
				Track:     "audio/entrance.mp3",
			},
			"library": {
				ID: "library", Name: "Library",
				Neighbors: []string{"entrance"},
				Track:     "audio/library.mp3",
			},
		},
	}
}

func lockedSnap() types.Snapshot {
	return types.Snapshot{Auth: types.Locked, Location: "entrance", Volume: 1}
}

func unlockedSnap(loc string) types.Snapshot {
	return types.Snapshot{Auth: types.Unlocked, Location: loc, Volume: 1}
}

// drain runs ticks until the engine settles.
func drain(t *testing.T, e *Engine) {
	t.Helper()
	for i := 0; e.Active(); i++ {
		if i > 1000 {
			t.Fatal("engine never settled")
		}
		e.Step()
	}
}

func TestIdle_UntilFirstGesture(t *testing.T) {
	dev := &fakeDevice{}
	e := New(dev, testDefs(), nil)

	e.Observe(lockedSnap())
	e.Observe(lockedSnap())

	if e.State() != Idle {
		t.Errorf("expected Idle before gesture, got %v", e.State())
	}
	if len(dev.handles) != 0 {
		t.Errorf("no handle may exist before the first gesture, got %d", len(dev.handles))
	}
}

func TestStart_BeginsMenuAtTargetGain(t *testing.T) {
	dev := &fakeDevice{}
	e := New(dev, testDefs(), nil)

	snap := lockedSnap()
	snap.Volume = 0.8
	e.Start(snap)

	if e.State() != MenuPlaying {
		t.Fatalf("expected MenuPlaying, got %v", e.State())
	}
	menus := dev.byTrack("audio/menu.mp3")
	if len(menus) != 1 {
		t.Fatalf("expected one menu handle, got %d", len(menus))
	}
	if !menus[0].loop {
		t.Error("menu track must loop")
	}
	if got := menus[0].lastGain(); got != 0.8 {
		t.Errorf("expected gain 0.8, got %v", got)
	}
}

func TestMenu_MuteIsDirectSet(t *testing.T) {
	dev := &fakeDevice{}
	e := New(dev, testDefs(), nil)
	e.Start(lockedSnap())

	snap := lockedSnap()
	snap.Muted = true
	e.Observe(snap)

	menu := dev.byTrack("audio/menu.mp3")[0]
	if got := menu.lastGain(); got != 0 {
		t.Errorf("expected gain 0 after mute, got %v", got)
	}
	if e.Active() {
		t.Error("mute must not start a ramp")
	}
	if e.State() != MenuPlaying {
		t.Errorf("mute must not change state, got %v", e.State())
	}
}

func TestUnlock_TearsDownMenuAndFadesRoomIn(t *testing.T) {
	dev := &fakeDevice{}
	e := New(dev, testDefs(), nil)
	e.Start(lockedSnap())

	e.Observe(unlockedSnap("entrance"))

	menu := dev.byTrack("audio/menu.mp3")[0]
	if !menu.stopped {
		t.Error("menu handle must be torn down immediately on unlock")
	}

	rooms := dev.byTrack("audio/entrance.mp3")
	if len(rooms) != 1 {
		t.Fatalf("expected one room handle, got %d", len(rooms))
	}
	if got := rooms[0].gains[0]; got != 0 {
		t.Errorf("room handle must fade in from 0, first gain %v", got)
	}
	if e.State() != Crossfading {
		t.Errorf("expected Crossfading during fade-in, got %v", e.State())
	}

	drain(t, e)

	if e.State() != RoomPlaying {
		t.Errorf("expected RoomPlaying after fade-in, got %v", e.State())
	}
	if got := rooms[0].lastGain(); got != 1 {
		t.Errorf("expected gain to reach 1, got %v", got)
	}
}

func TestRoomChange_SequentialFade(t *testing.T) {
	dev := &fakeDevice{}
	e := New(dev, testDefs(), nil)
	e.Start(lockedSnap())
	e.Observe(unlockedSnap("entrance"))
	drain(t, e)

	e.Observe(unlockedSnap("library"))
	if e.State() != Crossfading {
		t.Fatalf("expected Crossfading, got %v", e.State())
	}

	old := dev.byTrack("audio/entrance.mp3")[0]

	// Walk the whole transition tick by tick, asserting the sequential
	// fade invariant at every sampled instant: the new track's handle
	// may not even exist until the old one has reached 0 and stopped.
	for i := 0; e.Active(); i++ {
		if i > 1000 {
			t.Fatal("transition never settled")
		}
		e.Step()
		next := dev.byTrack("audio/library.mp3")
		if len(next) > 0 && !old.stopped {
			t.Fatal("both room handles live at once")
		}
		if len(next) > 0 && next[0].lastGain() > 0 && old.lastGain() > 0 {
			t.Fatal("both room tracks audibly non-zero")
		}
	}

	if !old.stopped {
		t.Error("old room handle must be stopped")
	}
	if got := old.lastGain(); got != 0 {
		t.Errorf("old handle must ramp fully to 0, got %v", got)
	}

	next := dev.byTrack("audio/library.mp3")
	if len(next) != 1 {
		t.Fatalf("expected one library handle, got %d", len(next))
	}
	if got := next[0].lastGain(); got != 1 {
		t.Errorf("new handle must reach target, got %v", got)
	}
	if e.State() != RoomPlaying {
		t.Errorf("expected RoomPlaying, got %v", e.State())
	}
}

func TestRoomChange_MidFadeRetargets(t *testing.T) {
	dev := &fakeDevice{}
	e := New(dev, testDefs(), nil)
	e.Start(lockedSnap())
	e.Observe(unlockedSnap("entrance"))
	drain(t, e)

	// Start entrance→library, then bounce back to entrance mid-fade.
	e.Observe(unlockedSnap("library"))
	e.Step()
	e.Step()
	e.Observe(unlockedSnap("entrance"))
	drain(t, e)

	if got := len(dev.byTrack("audio/library.mp3")); got != 0 {
		t.Errorf("superseded pending track must never start, got %d handles", got)
	}
	entrances := dev.byTrack("audio/entrance.mp3")
	if len(entrances) != 2 {
		t.Fatalf("expected a fresh entrance handle, got %d", len(entrances))
	}
	if got := entrances[1].lastGain(); got != 1 {
		t.Errorf("expected fresh handle at full gain, got %v", got)
	}
}

func TestVolumeChange_RetargetsRunningFadeIn(t *testing.T) {
	dev := &fakeDevice{}
	e := New(dev, testDefs(), nil)
	e.Start(lockedSnap())
	e.Observe(unlockedSnap("entrance"))
	e.Step()

	snap := unlockedSnap("entrance")
	snap.Volume = 0.5
	e.Observe(snap)
	drain(t, e)

	room := dev.byTrack("audio/entrance.mp3")[0]
	if got := room.lastGain(); got != 0.5 {
		t.Errorf("expected ramp to settle at 0.5, got %v", got)
	}
}

func TestGains_StayInRange(t *testing.T) {
	dev := &fakeDevice{}
	e := New(dev, testDefs(), nil)
	e.Start(lockedSnap())
	e.Observe(unlockedSnap("entrance"))
	drain(t, e)
	e.Observe(unlockedSnap("library"))
	drain(t, e)

	for _, h := range dev.handles {
		for _, g := range h.gains {
			if g < 0 || g > 1 {
				t.Fatalf("gain %v out of range on track %s", g, h.track)
			}
		}
	}
}

func TestPlaybackFailure_NonFatal(t *testing.T) {
	dev := &fakeDevice{fail: true}
	e := New(dev, testDefs(), nil)

	e.Start(lockedSnap())
	e.Observe(unlockedSnap("entrance"))
	e.Step()

	// The engine keeps going with no handle; nothing panics and the
	// state machine still settles.
	drain(t, e)
	if e.State() != RoomPlaying {
		t.Errorf("expected RoomPlaying resting state, got %v", e.State())
	}
}

func TestClose_StopsEverything(t *testing.T) {
	dev := &fakeDevice{}
	e := New(dev, testDefs(), nil)
	e.Start(lockedSnap())
	e.Observe(unlockedSnap("entrance"))
	e.Observe(unlockedSnap("library")) // mid-transition

	e.Close()

	for _, h := range dev.handles {
		if !h.stopped {
			t.Errorf("handle for %s not stopped on Close", h.track)
		}
	}
	if e.Active() {
		t.Error("expected no live ramps after Close")
	}
	if e.State() != Idle {
		t.Errorf("expected Idle after Close, got %v", e.State())
	}
}

func TestWrongPassword_NoAudioTransition(t *testing.T) {
	dev := &fakeDevice{}
	e := New(dev, testDefs(), nil)
	e.Start(lockedSnap())

	// A rejected password mutates nothing, so the engine just keeps
	// observing the same locked tuple.
	e.Observe(lockedSnap())
	e.Observe(lockedSnap())

	if e.State() != MenuPlaying {
		t.Errorf("expected MenuPlaying, got %v", e.State())
	}
	if got := len(dev.handles); got != 1 {
		t.Errorf("expected only the menu handle, got %d", got)
	}
}

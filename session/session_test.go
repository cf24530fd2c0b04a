package session

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/nathoo/emberlight/types"
	"github.com/nathoo/emberlight/world"
)

func testDefs() *world.Defs {
	return &world.Defs{
		Story: types.StoryDef{
			Title: "Test Story",
			Entry: "entrance",
		},
		Locations: map[string]types.Location{
			"entrance": {
				ID:        "entrance",
				Name:      "Entrance Hall",
				Neighbors: []string{"library", "parlor"},
			},
			"library": {
				ID:        "library",
				Name:      "Library",
				Neighbors: []string{"entrance"},
			},
			"parlor": {
				ID:        "parlor",
				Name:      "Parlor",
				Neighbors: []string{"entrance"},
			},
		},
	}
}

func TestNew_Defaults(t *testing.T) {
	s := New(testDefs())

	if s.Location() != "entrance" {
		t.Errorf("expected entrance, got %q", s.Location())
	}
	if s.Trust() != 0 {
		t.Errorf("expected trust 0, got %d", s.Trust())
	}
	if s.Auth() != types.Locked {
		t.Error("expected new session to be Locked")
	}
	if len(s.Transcript()) != 0 {
		t.Errorf("expected empty transcript, got %v", s.Transcript())
	}
	if s.Pending() {
		t.Error("expected no pending request")
	}
}

func TestMoveTo_Neighbor(t *testing.T) {
	s := New(testDefs())

	if err := s.MoveTo("library"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Location() != "library" {
		t.Errorf("expected library, got %q", s.Location())
	}

	tr := s.Transcript()
	if len(tr) != 1 {
		t.Fatalf("expected one transcript entry, got %d", len(tr))
	}
	want := types.TranscriptEntry{Speaker: types.SpeakerSystem, Text: "You moved to the Library."}
	if diff := cmp.Diff(want, tr[0]); diff != "" {
		t.Errorf("move announcement mismatch (-want +got):\n%s", diff)
	}
}

func TestMoveTo_AllAdjacentPairs(t *testing.T) {
	defs := testDefs()
	for from, loc := range defs.Locations {
		for _, to := range loc.Neighbors {
			s := New(defs)
			s.location = from
			if err := s.MoveTo(to); err != nil {
				t.Errorf("MoveTo(%q→%q): unexpected error %v", from, to, err)
			}
			if s.Location() != to {
				t.Errorf("MoveTo(%q→%q): location is %q", from, to, s.Location())
			}
		}
	}
}

func TestMoveTo_NonNeighbor(t *testing.T) {
	s := New(testDefs())

	// parlor is in the graph but not adjacent to library.
	if err := s.MoveTo("library"); err != nil {
		t.Fatal(err)
	}
	err := s.MoveTo("parlor")
	if !errors.Is(err, ErrInvalidMove) {
		t.Fatalf("expected ErrInvalidMove, got %v", err)
	}
	if s.Location() != "library" {
		t.Errorf("failed move must not change location, got %q", s.Location())
	}
}

func TestMoveTo_UnknownID(t *testing.T) {
	s := New(testDefs())

	err := s.MoveTo("attic")
	if !errors.Is(err, ErrInvalidMove) {
		t.Fatalf("expected ErrInvalidMove, got %v", err)
	}
	if len(s.Transcript()) != 0 {
		t.Error("failed move must not append to transcript")
	}
}

func TestAdjustTrust_ClampsLow(t *testing.T) {
	s := New(testDefs())
	s.AdjustTrust(30)

	s.AdjustTrust(-1000)
	if s.Trust() != 0 {
		t.Errorf("expected trust 0, got %d", s.Trust())
	}
}

func TestAdjustTrust_ClampsHigh(t *testing.T) {
	s := New(testDefs())

	s.AdjustTrust(1000)
	if s.Trust() != 100 {
		t.Errorf("expected trust 100, got %d", s.Trust())
	}
}

func TestAdjustTrust_Accumulates(t *testing.T) {
	s := New(testDefs())

	s.AdjustTrust(5)
	s.AdjustTrust(5)
	if s.Trust() != 10 {
		t.Errorf("expected trust 10, got %d", s.Trust())
	}
}

func TestUnlock_OneWay(t *testing.T) {
	s := New(testDefs())

	s.Unlock()
	if s.Auth() != types.Unlocked {
		t.Fatal("expected Unlocked")
	}

	// Second call is a no-op, not an error, and must not re-notify.
	var notified int
	s.SetObserver(func(types.Snapshot) { notified++ })
	s.Unlock()
	if notified != 0 {
		t.Error("repeat Unlock must not notify observers")
	}
	if s.Auth() != types.Unlocked {
		t.Error("expected session to stay Unlocked")
	}
}

func TestSetVolume_Clamps(t *testing.T) {
	s := New(testDefs())

	s.SetVolume(1.8)
	if got := s.Prefs().Volume; got != 1 {
		t.Errorf("expected 1, got %v", got)
	}
	s.SetVolume(-0.3)
	if got := s.Prefs().Volume; got != 0 {
		t.Errorf("expected 0, got %v", got)
	}
	s.SetVolume(0.25)
	if got := s.Prefs().Volume; got != 0.25 {
		t.Errorf("expected 0.25, got %v", got)
	}
}

func TestBeginRequest_Guards(t *testing.T) {
	s := New(testDefs())

	if !s.BeginRequest() {
		t.Fatal("first BeginRequest should succeed")
	}
	if s.BeginRequest() {
		t.Error("second BeginRequest should fail while pending")
	}
	s.EndRequest()
	if !s.BeginRequest() {
		t.Error("BeginRequest should succeed after EndRequest")
	}
}

func TestTranscript_AppendOnly(t *testing.T) {
	s := New(testDefs())

	s.Append(types.SpeakerUser, "hello")
	prev := len(s.Transcript())
	first := s.Transcript()[0]

	s.Append(types.SpeakerPersona, "hi there")
	s.MoveTo("library")
	s.AdjustTrust(5)

	if len(s.Transcript()) < prev {
		t.Error("transcript length decreased")
	}
	if diff := cmp.Diff(first, s.Transcript()[0]); diff != "" {
		t.Errorf("prior entry mutated (-want +got):\n%s", diff)
	}
}

func TestObserver_SeesEveryMutation(t *testing.T) {
	s := New(testDefs())

	var snaps []types.Snapshot
	s.SetObserver(func(sn types.Snapshot) { snaps = append(snaps, sn) })

	s.MoveTo("library")
	s.SetMuted(true)
	s.SetVolume(0.5)
	s.Unlock()

	if len(snaps) != 4 {
		t.Fatalf("expected 4 notifications, got %d", len(snaps))
	}
	last := snaps[len(snaps)-1]
	want := types.Snapshot{Auth: types.Unlocked, Location: "library", Muted: true, Volume: 0.5}
	if diff := cmp.Diff(want, last); diff != "" {
		t.Errorf("final snapshot mismatch (-want +got):\n%s", diff)
	}
}

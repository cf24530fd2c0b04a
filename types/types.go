// Package types defines the shared data structures for the Emberlight
// session runtime. This package contains only type definitions — no logic,
// no methods.
package types

// Speaker identifies who produced a transcript entry.
type Speaker string

const (
	SpeakerUser    Speaker = "user"
	SpeakerPersona Speaker = "persona"
	SpeakerSystem  Speaker = "system"
)

// TranscriptEntry is one line of the running conversation log.
type TranscriptEntry struct {
	Speaker Speaker
	Text    string
}

// AuthState gates gameplay behind password verification.
type AuthState int

const (
	Locked AuthState = iota
	Unlocked
)

// AudioPrefs holds the player's audio preferences.
type AudioPrefs struct {
	Muted  bool
	Volume float64 // fraction in [0,1]
}

// Snapshot is the observable session tuple handed to observers after
// every mutation. The audio engine reacts to the current tuple, not to
// the event that produced it.
type Snapshot struct {
	Auth     AuthState
	Location string // current location ID
	Muted    bool
	Volume   float64
}

// Location is the immutable definition of one room in the story.
type Location struct {
	ID          string
	Name        string
	Description string
	Neighbors   []string // declared connection order; user-visible
	Track       string   // ambient audio track reference
	Art         string   // background art reference
}

// StoryDef holds story metadata from Lua.
type StoryDef struct {
	Title      string
	Author     string
	Version    string
	Intro      string
	Entry      string // starting location ID
	MenuTrack  string // pre-game menu audio track reference
	Persona    string // system prompt for the chat persona
	Empathy    []string
	TrustBonus int
}

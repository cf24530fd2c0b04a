// Package convo drives the conversation with the remote persona: it
// validates and appends turns, assembles the bounded context window,
// applies empathy trust deltas, and maps collaborator failures to
// user-facing system messages. The turn is split into Begin (before the
// network call) and Succeed/Fail (after), so all session mutation stays
// on the UI loop.
package convo

import (
	"errors"
	"fmt"
	"strings"

	"github.com/nathoo/emberlight/client"
	"github.com/nathoo/emberlight/session"
	"github.com/nathoo/emberlight/types"
	"github.com/nathoo/emberlight/world"
)

// Policy constants; the story file can override both.
var (
	// DefaultEmpathy is the set of empathy-signaling substrings that
	// earn a trust bonus. A tunable policy constant, not a hidden
	// heuristic.
	DefaultEmpathy = []string{"sorry", "help", "comfort", "understand"}

	// DefaultTrustBonus is the trust delta applied when the user's
	// accepted text matches an empathy keyword.
	DefaultTrustBonus = 5
)

// windowSize is the maximum number of non-system transcript entries
// included before the new user turn.
const windowSize = 10

var (
	ErrEmptyInput     = fmt.Errorf("empty input")
	ErrAlreadyPending = fmt.Errorf("a reply is already pending")
)

// Controller runs conversation turns against one session.
type Controller struct {
	sess *session.Session
	defs *world.Defs

	empathy    []string
	trustBonus int

	// text of the turn currently awaiting a reply, kept so Succeed can
	// score it after the round trip.
	inFlight string
}

// New creates a controller. Empathy keywords and the trust bonus come
// from the story definition, falling back to the package defaults.
func New(sess *session.Session, defs *world.Defs) *Controller {
	empathy := defs.Story.Empathy
	if len(empathy) == 0 {
		empathy = DefaultEmpathy
	}
	bonus := defs.Story.TrustBonus
	if bonus == 0 {
		bonus = DefaultTrustBonus
	}
	return &Controller{sess: sess, defs: defs, empathy: empathy, trustBonus: bonus}
}

// Begin validates and accepts a user turn. On acceptance it appends the
// turn, marks the request pending, and returns the context window to
// forward to the chat collaborator. Rejections mutate nothing.
func (c *Controller) Begin(text string) ([]client.Message, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, ErrEmptyInput
	}
	if !c.sess.BeginRequest() {
		return nil, ErrAlreadyPending
	}

	window := c.window(trimmed)
	c.sess.Append(types.SpeakerUser, trimmed)
	c.inFlight = trimmed
	return window, nil
}

// Succeed records the persona's reply, clears the pending flag, and
// applies the empathy trust bonus when the accepted user text matched.
func (c *Controller) Succeed(reply string) {
	c.sess.EndRequest()
	c.sess.Append(types.SpeakerPersona, reply)
	if c.matchesEmpathy(c.inFlight) {
		c.sess.AdjustTrust(c.trustBonus)
	}
	c.inFlight = ""
}

// Fail clears the pending flag and appends a system entry describing
// the failure. The already-appended user turn stands; partial failure
// never rolls the transcript back.
func (c *Controller) Fail(err error) {
	c.sess.EndRequest()
	c.sess.Append(types.SpeakerSystem, FailureMessage(err))
	c.inFlight = ""
}

// window assembles persona prompt + at most the last windowSize
// non-system entries + the new user turn.
func (c *Controller) window(userText string) []client.Message {
	msgs := []client.Message{{Role: client.RoleSystem, Content: c.personaPrompt()}}

	transcript := c.sess.Transcript()
	var recent []client.Message
	for i := len(transcript) - 1; i >= 0 && len(recent) < windowSize; i-- {
		entry := transcript[i]
		if entry.Speaker == types.SpeakerSystem {
			continue
		}
		role := client.RoleUser
		if entry.Speaker == types.SpeakerPersona {
			role = client.RoleAssistant
		}
		recent = append(recent, client.Message{Role: role, Content: entry.Text})
	}
	// recent was collected newest-first; restore chronological order.
	for i := len(recent) - 1; i >= 0; i-- {
		msgs = append(msgs, recent[i])
	}

	return append(msgs, client.Message{Role: client.RoleUser, Content: userText})
}

// personaPrompt interpolates the live session facts the persona reacts
// to: where the player is and how much trust they have earned.
func (c *Controller) personaPrompt() string {
	locName := c.sess.Location()
	if loc, err := c.defs.Lookup(c.sess.Location()); err == nil {
		locName = loc.Name
	}
	return fmt.Sprintf("%s\n\nThe player is in the %s. Trust level: %d/100.",
		c.defs.Story.Persona, locName, c.sess.Trust())
}

func (c *Controller) matchesEmpathy(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range c.empathy {
		if strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// FailureMessage maps a collaborator error to the system transcript
// entry shown to the player. Each error kind gets a distinct message.
func FailureMessage(err error) string {
	var ce *client.ChatError
	if errors.As(err, &ce) {
		switch ce.Kind {
		case client.KindAuthExpired:
			return "Your session has expired. Please restart and sign in again."
		case client.KindDailyLimit:
			return "The daily conversation limit has been reached. Come back tomorrow."
		case client.KindRateLimited:
			return "You're sending messages too quickly. Give it a moment."
		case client.KindDemoExpired:
			return "This demo has ended. Thank you for playing."
		}
	}
	return "Something went wrong reaching the storyteller. Your message was kept; try again."
}

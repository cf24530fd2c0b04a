// Package cli provides a plain line-based frontend for terminals that
// cannot host the TUI, and for script playback. Network calls run
// synchronously; audio is not wired in plain mode.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/nathoo/emberlight/auth"
	"github.com/nathoo/emberlight/client"
	"github.com/nathoo/emberlight/convo"
	"github.com/nathoo/emberlight/session"
	"github.com/nathoo/emberlight/types"
	"github.com/nathoo/emberlight/world"
)

// CLI handles line-based interaction with the player.
type CLI struct {
	Sess   *session.Session
	Defs   *world.Defs
	Gate   *auth.Gate
	Convo  *convo.Controller
	Verify *client.Verifier
	Chat   *client.Chat

	In  io.Reader
	Out io.Writer

	Timeout   time.Duration
	EchoInput bool // echo each input line after the prompt (for script playback)
}

// New creates a CLI over the given collaborators, reading stdin and
// writing stdout.
func New(sess *session.Session, defs *world.Defs, gate *auth.Gate, ctrl *convo.Controller, verify *client.Verifier, chat *client.Chat) *CLI {
	return &CLI{
		Sess:    sess,
		Defs:    defs,
		Gate:    gate,
		Convo:   ctrl,
		Verify:  verify,
		Chat:    chat,
		In:      os.Stdin,
		Out:     os.Stdout,
		Timeout: client.DefaultTimeout,
	}
}

// Run starts the loop: intro, password gate, then prompt → input →
// dispatch → output until EOF or /quit.
func (c *CLI) Run() {
	c.printLine(c.Defs.Story.Title)
	c.printLine("")
	if c.Defs.Story.Intro != "" {
		c.printLine(c.Defs.Story.Intro)
		c.printLine("")
	}
	c.printSystem("The door is locked. Speak the password to enter.")

	scanner := bufio.NewScanner(c.In)
	for {
		if c.Sess.Auth() == types.Locked {
			c.print("password> ")
		} else {
			c.print("> ")
		}
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		// Skip comment lines (for script files).
		if strings.HasPrefix(input, "#") {
			continue
		}
		if c.EchoInput {
			c.printLine(input)
		}

		if input == "/quit" || input == "/exit" {
			c.printSystem("You let the house keep its secrets.")
			return
		}

		if c.Sess.Auth() == types.Locked {
			c.submitPassword(input)
			continue
		}

		// Meta-commands start with '/'.
		if strings.HasPrefix(input, "/") {
			c.handleMeta(input)
			continue
		}

		c.converse(input)
	}
}

// submitPassword runs the verification round trip and commits the
// outcome. A rejection and an unreachable verifier read differently:
// only the latter is worth retrying unchanged.
func (c *CLI) submitPassword(password string) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout())
	defer cancel()

	cred, err := c.Verify.Verify(ctx, password)
	switch {
	case errors.Is(err, client.ErrInvalidCredential):
		c.printSystem("That is not the word. The door stays shut.")
		return
	case err != nil:
		c.printSystem("No answer from beyond the door. Try again in a moment.")
		return
	}

	c.Gate.Complete(cred)
	c.printSystem("The door opens.")
	c.printLine("")
	c.describeRoom()
}

// converse runs one synchronous conversation turn.
func (c *CLI) converse(input string) {
	window, err := c.Convo.Begin(input)
	if err != nil {
		// Begin only rejects empty input here; pending cannot happen in
		// a synchronous loop.
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.timeout())
	defer cancel()

	reply, err := c.Chat.Send(ctx, c.Gate.Credential(), window)
	if err != nil {
		c.Convo.Fail(err)
		c.printSystem(convo.FailureMessage(err))
		return
	}
	c.Convo.Succeed(reply)
	c.printLine(reply)
}

// handleMeta dispatches meta-commands. /quit is handled by the caller.
func (c *CLI) handleMeta(input string) {
	parts := strings.Fields(input)
	cmd := parts[0]
	arg := strings.TrimSpace(strings.TrimPrefix(input, cmd))

	switch cmd {
	case "/go":
		c.cmdGo(arg)

	case "/look":
		c.describeRoom()

	case "/mute":
		muted := !c.Sess.Prefs().Muted
		c.Sess.SetMuted(muted)
		if muted {
			c.printSystem("Audio muted.")
		} else {
			c.printSystem("Audio unmuted.")
		}

	case "/volume":
		c.cmdVolume(arg)

	case "/trust":
		c.printSystem(fmt.Sprintf("Trust: %d/100.", c.Sess.Trust()))

	case "/restart":
		c.cmdRestart()

	case "/help":
		c.cmdHelp()

	default:
		c.printSystem(fmt.Sprintf("Unknown command: %s. Type /help for available commands.", cmd))
	}
}

func (c *CLI) cmdGo(arg string) {
	if arg == "" {
		c.printSystem("Go where? Try /go <room>.")
		return
	}

	id := c.resolveNeighbor(arg)
	if err := c.Sess.MoveTo(id); err != nil {
		c.printSystem(fmt.Sprintf("You can't get to %q from here.", arg))
		return
	}

	dest, _ := c.Defs.Lookup(c.Sess.Location())
	c.printSystem("You move to the " + dest.Name + ".")
	c.describeRoom()
}

// cmdRestart replaces the session wholesale: fresh locked session at
// the entry location, empty transcript, zero trust. Audio preferences
// carry over.
func (c *CLI) cmdRestart() {
	prefs := c.Sess.Prefs()

	sess := session.New(c.Defs)
	sess.SetVolume(prefs.Volume)
	sess.SetMuted(prefs.Muted)

	c.Sess = sess
	c.Gate = auth.New(sess)
	c.Convo = convo.New(sess, c.Defs)

	c.printSystem("The house forgets you. The door is locked again.")
}

func (c *CLI) cmdVolume(arg string) {
	v, err := strconv.Atoi(arg)
	if err != nil || v < 0 || v > 100 {
		c.printSystem("Volume takes a number from 0 to 100.")
		return
	}
	c.Sess.SetVolume(float64(v) / 100)
	c.printSystem(fmt.Sprintf("Volume set to %d%%.", v))
}

func (c *CLI) cmdHelp() {
	help := []string{
		"Commands:",
		"  /go <room>      — Walk to an adjacent room",
		"  /look           — Describe the room again",
		"  /mute           — Toggle audio",
		"  /volume <0-100> — Set audio volume",
		"  /trust          — Show how much she trusts you",
		"  /restart        — Start over at the locked door",
		"  /help           — Show this help",
		"  /quit           — Leave the house",
		"",
		"Anything else you type, you say aloud.",
	}
	for _, line := range help {
		c.printLine(line)
	}
}

// resolveNeighbor matches arg against the current room's neighbors by
// ID or case-insensitive name.
func (c *CLI) resolveNeighbor(arg string) string {
	neighbors, err := c.Defs.Neighbors(c.Sess.Location())
	if err != nil {
		return arg
	}
	lower := strings.ToLower(arg)
	for _, n := range neighbors {
		if n.ID == arg || strings.ToLower(n.Name) == lower {
			return n.ID
		}
	}
	return arg
}

func (c *CLI) describeRoom() {
	loc, err := c.Defs.Lookup(c.Sess.Location())
	if err != nil {
		c.printSystem("You are nowhere at all.")
		return
	}
	c.printLine(loc.Name)
	c.printLine(loc.Description)

	if neighbors, err := c.Defs.Neighbors(loc.ID); err == nil && len(neighbors) > 0 {
		names := make([]string, 0, len(neighbors))
		for _, n := range neighbors {
			names = append(names, n.Name)
		}
		c.printLine("You can go: " + strings.Join(names, ", "))
	}
}

func (c *CLI) timeout() time.Duration {
	if c.Timeout > 0 {
		return c.Timeout
	}
	return client.DefaultTimeout
}

func (c *CLI) printLine(text string) {
	fmt.Fprintln(c.Out, text)
}

func (c *CLI) print(text string) {
	fmt.Fprint(c.Out, text)
}

func (c *CLI) printSystem(text string) {
	fmt.Fprintf(c.Out, "[%s]\n", text)
}

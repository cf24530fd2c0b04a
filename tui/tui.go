package tui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nathoo/emberlight/audio"
	"github.com/nathoo/emberlight/auth"
	"github.com/nathoo/emberlight/client"
	"github.com/nathoo/emberlight/convo"
	"github.com/nathoo/emberlight/session"
	"github.com/nathoo/emberlight/types"
	"github.com/nathoo/emberlight/world"
)

// rawLine stores an unstyled output line with its classification,
// so we can re-wrap and re-style when the terminal is resized.
type rawLine struct {
	text    string
	kind    lineKind
	isInput bool // true for echoed player input
}

// Deps collects everything the model is wired to. All network round
// trips run as tea.Cmd goroutines; every mutation of Session happens
// inside Update.
type Deps struct {
	Session *session.Session
	Defs    *world.Defs
	Gate    *auth.Gate
	Convo   *convo.Controller
	Audio   *audio.Engine
	Verify  *client.Verifier
	Chat    *client.Chat
	Health  *client.Health
	Timeout time.Duration
}

// Model is the Bubble Tea model for the Emberlight TUI.
type Model struct {
	sess   *session.Session
	defs   *world.Defs
	gate   *auth.Gate
	ctrl   *convo.Controller
	eng    *audio.Engine
	verify *client.Verifier
	chat   *client.Chat
	probe  *client.Health

	timeout time.Duration

	viewport viewport.Model
	input    textinput.Model
	history  *History

	rawLines []rawLine // accumulated narrative lines (unstyled, for re-wrapping)

	width    int
	height   int
	ready    bool
	quitting bool

	started   bool // first keystroke delivered to the audio engine
	ticking   bool // an audio tick is scheduled
	verifying bool // password round trip in flight
	online    bool
	checked   bool // health probe completed
}

// verifyMsg carries the password verification outcome into Update.
type verifyMsg struct {
	cred client.Credential
	err  error
}

// chatMsg carries the persona reply (or failure) into Update.
type chatMsg struct {
	reply string
	err   error
}

// healthMsg carries the startup connectivity probe result.
type healthMsg struct {
	online bool
}

// audioTickMsg drives the engine's fade ramps.
type audioTickMsg time.Time

// New creates a TUI model over the given dependencies.
func New(deps Deps) Model {
	ti := textinput.New()
	ti.Prompt = "password> "
	ti.EchoMode = textinput.EchoPassword
	ti.Focus()
	ti.CharLimit = 256
	ti.PromptStyle = styleInputPrompt

	timeout := deps.Timeout
	if timeout <= 0 {
		timeout = client.DefaultTimeout
	}

	return Model{
		sess:    deps.Session,
		defs:    deps.Defs,
		gate:    deps.Gate,
		ctrl:    deps.Convo,
		eng:     deps.Audio,
		verify:  deps.Verify,
		chat:    deps.Chat,
		probe:   deps.Health,
		timeout: timeout,
		input:   ti,
		history: NewHistory(100),
	}
}

// Run starts the Bubble Tea program.
func Run(deps Deps) error {
	m := New(deps)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, err := p.Run()
	return err
}

// Init produces the intro text and fires the startup health probe.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.healthCmd())
}

// Update handles messages (key presses, resize, network results, ticks).
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		vpHeight := m.height - 2 // 1 status bar + 1 input line
		if vpHeight < 1 {
			vpHeight = 1
		}

		if !m.ready {
			m.viewport = viewport.New(m.width, vpHeight)
			m.viewport.KeyMap = viewportKeyMap()
			m.ready = true
			m = m.appendLines(m.introLines()...)
		} else {
			m.viewport.Width = m.width
			m.viewport.Height = vpHeight
		}

		m.refreshViewport()

	case tea.KeyMsg:
		// Any keystroke counts as the player's first explicit gesture;
		// audio may not start before one.
		if !m.started {
			m.started = true
			m.eng.Start(m.sess.Snapshot())
		}

		switch msg.String() {
		case "ctrl+c":
			return m.quit()

		case "enter":
			return m.handleEnter()

		case "up":
			if prev, ok := m.history.Prev(); ok {
				m.input.SetValue(prev)
				m.input.CursorEnd()
			}
			return m.withTick()

		case "down":
			if next, ok := m.history.Next(); ok {
				m.input.SetValue(next)
				m.input.CursorEnd()
			} else {
				m.input.SetValue("")
				m.history.ResetCursor()
			}
			return m.withTick()

		case "pgup", "pgdown":
			var vpCmd tea.Cmd
			m.viewport, vpCmd = m.viewport.Update(msg)
			return m.withTick(vpCmd)
		}

	case verifyMsg:
		return m.handleVerify(msg)

	case chatMsg:
		return m.handleChat(msg)

	case healthMsg:
		m.checked = true
		m.online = msg.online
		if !m.online {
			m = m.appendSystem("The house is quiet tonight. (companion service offline)")
		}
		return m.withTick()

	case audioTickMsg:
		m.eng.Step()
		if m.eng.Active() {
			return m, audioTick()
		}
		m.ticking = false
		return m, nil
	}

	var inputCmd tea.Cmd
	m.input, inputCmd = m.input.Update(msg)
	cmds = append(cmds, inputCmd)

	return m.withTick(cmds...)
}

// withTick schedules an audio tick when ramps are live and none is
// scheduled. Called on every Update exit path that may have mutated
// the session.
func (m Model) withTick(cmds ...tea.Cmd) (tea.Model, tea.Cmd) {
	if m.started && !m.ticking && m.eng.Active() {
		m.ticking = true
		cmds = append(cmds, audioTick())
	}
	return m, tea.Batch(cmds...)
}

func audioTick() tea.Cmd {
	return tea.Tick(audio.TickInterval, func(t time.Time) tea.Msg {
		return audioTickMsg(t)
	})
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	m.eng.Close()
	m.quitting = true
	return m, tea.Quit
}

// handleEnter processes the submitted input line.
func (m Model) handleEnter() (tea.Model, tea.Cmd) {
	input := strings.TrimSpace(m.input.Value())
	m.input.SetValue("")

	if input == "" {
		return m.withTick()
	}

	if m.sess.Auth() == types.Locked {
		return m.handlePassword(input)
	}

	m.history.Push(input)
	m.history.ResetCursor()

	// Meta-commands.
	if strings.HasPrefix(input, "/") {
		return m.handleMeta(input)
	}

	// Conversation turn.
	window, err := m.ctrl.Begin(input)
	switch {
	case errors.Is(err, convo.ErrAlreadyPending):
		m = m.appendSystem("One moment — she is still speaking.")
		return m.withTick()
	case errors.Is(err, convo.ErrEmptyInput):
		return m.withTick()
	}

	m = m.appendInput(input)
	return m.withTick(m.chatCmd(window))
}

// handlePassword submits the password to the verifier. Input stays
// disabled for further submissions while a round trip is in flight.
func (m Model) handlePassword(password string) (tea.Model, tea.Cmd) {
	if m.verifying {
		return m.withTick()
	}
	m.verifying = true
	m = m.appendSystem("The house considers your word...")
	return m.withTick(m.verifyCmd(password))
}

func (m Model) handleVerify(msg verifyMsg) (tea.Model, tea.Cmd) {
	m.verifying = false

	switch {
	case errors.Is(msg.err, client.ErrInvalidCredential):
		m = m.appendSystem("That is not the word. The door stays shut.")
		return m.withTick()
	case msg.err != nil:
		m = m.appendSystem("No answer from beyond the door. Try again in a moment.")
		return m.withTick()
	}

	// Unlock notifies the session observer, which hands the new tuple
	// to the audio engine: menu down, room fading in.
	m.gate.Complete(msg.cred)

	m.input.EchoMode = textinput.EchoNormal
	m.input.Prompt = "> "

	m = m.appendLines(rawLine{text: "The door opens.", kind: kindSystem})
	m = m.appendLines(rawLine{})
	m = m.appendRoom()
	return m.withTick()
}

func (m Model) handleChat(msg chatMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.ctrl.Fail(msg.err)
		m = m.appendSystem(convo.FailureMessage(msg.err))
		return m.withTick()
	}
	m.ctrl.Succeed(msg.reply)
	m = m.appendLines(rawLine{text: msg.reply, kind: kindPersona}, rawLine{})
	return m.withTick()
}

// handleMeta dispatches meta-commands.
func (m Model) handleMeta(input string) (tea.Model, tea.Cmd) {
	parts := strings.Fields(input)
	cmd := parts[0]
	arg := strings.TrimSpace(strings.TrimPrefix(input, cmd))

	switch cmd {
	case "/quit", "/exit":
		m = m.appendSystem("You let the house keep its secrets.")
		return m.quit()

	case "/go":
		return m.cmdGo(arg)

	case "/look":
		m = m.appendRoom()
		return m.withTick()

	case "/mute":
		muted := !m.sess.Prefs().Muted
		m.sess.SetMuted(muted)
		if muted {
			m = m.appendSystem("Audio muted.")
		} else {
			m = m.appendSystem("Audio unmuted.")
		}
		return m.withTick()

	case "/volume":
		return m.cmdVolume(arg)

	case "/trust":
		m = m.appendSystem(fmt.Sprintf("Trust: %d/100.", m.sess.Trust()))
		return m.withTick()

	case "/restart":
		return m.cmdRestart()

	case "/help":
		m = m.appendLines(helpLines()...)
		return m.withTick()

	default:
		m = m.appendSystem(fmt.Sprintf("Unknown command: %s. Type /help for available commands.", cmd))
		return m.withTick()
	}
}

// cmdGo resolves the argument against the current room's neighbors by
// ID or name and moves there.
func (m Model) cmdGo(arg string) (tea.Model, tea.Cmd) {
	if arg == "" {
		m = m.appendSystem("Go where? Try /go <room>.")
		return m.withTick()
	}

	id := m.resolveNeighbor(arg)
	if err := m.sess.MoveTo(id); err != nil {
		m = m.appendSystem(fmt.Sprintf("You can't get to %q from here.", arg))
		return m.withTick()
	}

	// MoveTo already notified the audio engine; narrate the arrival.
	dest, _ := m.defs.Lookup(m.sess.Location())
	m = m.appendLines(rawLine{text: "You move to the " + dest.Name + ".", kind: kindSystem})
	m = m.appendRoom()
	return m.withTick()
}

// cmdRestart replaces the session wholesale: fresh locked session at
// the entry location, empty transcript, zero trust. Audio preferences
// carry over; the audio engine restarts on the menu track.
func (m Model) cmdRestart() (tea.Model, tea.Cmd) {
	prefs := m.sess.Prefs()

	sess := session.New(m.defs)
	sess.SetVolume(prefs.Volume)
	sess.SetMuted(prefs.Muted)

	m.eng.Close()
	sess.SetObserver(m.eng.Observe)

	m.sess = sess
	m.gate = auth.New(sess)
	m.ctrl = convo.New(sess, m.defs)

	// /restart itself is an explicit gesture, so audio may start.
	m.eng.Start(sess.Snapshot())

	m.input.EchoMode = textinput.EchoPassword
	m.input.Prompt = "password> "

	m = m.appendSystem("The house forgets you. The door is locked again.")
	return m.withTick()
}

func (m Model) cmdVolume(arg string) (tea.Model, tea.Cmd) {
	v, err := strconv.Atoi(arg)
	if err != nil || v < 0 || v > 100 {
		m = m.appendSystem("Volume takes a number from 0 to 100.")
		return m.withTick()
	}
	m.sess.SetVolume(float64(v) / 100)
	m = m.appendSystem(fmt.Sprintf("Volume set to %d%%.", v))
	return m.withTick()
}

// resolveNeighbor matches arg against the current room's neighbors by
// ID or case-insensitive name. Unresolvable input passes through so
// MoveTo reports the rejection.
func (m Model) resolveNeighbor(arg string) string {
	neighbors, err := m.defs.Neighbors(m.sess.Location())
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

// Network commands. Each runs off the Update loop and reports back
// through a message; the session is never touched from here.

func (m Model) verifyCmd(password string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
		defer cancel()
		cred, err := m.verify.Verify(ctx, password)
		return verifyMsg{cred: cred, err: err}
	}
}

func (m Model) chatCmd(window []client.Message) tea.Cmd {
	cred := m.gate.Credential()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
		defer cancel()
		reply, err := m.chat.Send(ctx, cred, window)
		return chatMsg{reply: reply, err: err}
	}
}

func (m Model) healthCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
		defer cancel()
		return healthMsg{online: m.probe.Check(ctx)}
	}
}

// Output assembly.

func (m Model) introLines() []rawLine {
	lines := []rawLine{
		{text: m.defs.Story.Title, kind: kindTitle},
		{},
	}
	if m.defs.Story.Intro != "" {
		lines = append(lines, rawLine{text: m.defs.Story.Intro, kind: kindIntro}, rawLine{})
	}
	lines = append(lines, rawLine{text: "The door is locked. Speak the password to enter.", kind: kindSystem}, rawLine{})
	return lines
}

// appendRoom narrates the current room: name, description, neighbors.
func (m Model) appendRoom() Model {
	loc, err := m.defs.Lookup(m.sess.Location())
	if err != nil {
		return m.appendSystem("You are nowhere at all.")
	}

	lines := []rawLine{
		{text: loc.Name, kind: kindTitle},
		{text: loc.Description, kind: kindRoomDesc},
	}

	if neighbors, err := m.defs.Neighbors(loc.ID); err == nil && len(neighbors) > 0 {
		names := make([]string, 0, len(neighbors))
		for _, n := range neighbors {
			names = append(names, n.Name)
		}
		lines = append(lines, rawLine{
			text: "You can go: " + strings.Join(names, ", "),
			kind: kindNeighbors,
		})
	}
	lines = append(lines, rawLine{})

	return m.appendLines(lines...)
}

func (m Model) appendSystem(text string) Model {
	return m.appendLines(rawLine{text: text, kind: kindSystem}, rawLine{})
}

func (m Model) appendInput(text string) Model {
	return m.appendLines(rawLine{text: "> " + text, isInput: true})
}

func (m Model) appendLines(lines ...rawLine) Model {
	m.rawLines = append(m.rawLines, lines...)
	m.refreshViewport()
	return m
}

func helpLines() []rawLine {
	texts := []string{
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
		"Navigation: PgUp/PgDn to scroll, Up/Down for input history",
	}
	lines := make([]rawLine, 0, len(texts)+1)
	for _, t := range texts {
		lines = append(lines, rawLine{text: t, kind: kindSystem})
	}
	return append(lines, rawLine{})
}

// refreshViewport re-wraps and re-styles all raw lines at the current
// width and updates the viewport content.
func (m *Model) refreshViewport() {
	if !m.ready {
		return
	}

	width := m.width
	if width < 10 {
		width = 10
	}

	var styled []string
	for _, rl := range m.rawLines {
		if rl.text == "" {
			styled = append(styled, "")
			continue
		}

		wrapped := wordWrap(rl.text, width)
		if rl.isInput {
			styled = append(styled, stylePlayerInput.Render(wrapped))
		} else {
			styled = append(styled, renderLineKind(wrapped, rl.kind))
		}
	}

	m.viewport.SetContent(strings.Join(styled, "\n"))
	m.viewport.GotoBottom()
}

// wordWrap wraps text to fit within the given width, breaking at word
// boundaries.
func wordWrap(text string, width int) string {
	if width <= 0 || len(text) <= width {
		return text
	}

	var result strings.Builder
	words := strings.Fields(text)
	lineLen := 0

	for i, word := range words {
		wLen := len(word)

		if i == 0 {
			result.WriteString(word)
			lineLen = wLen
			continue
		}

		if lineLen+1+wLen > width {
			result.WriteString("\n")
			result.WriteString(word)
			lineLen = wLen
		} else {
			result.WriteString(" ")
			result.WriteString(word)
			lineLen += 1 + wLen
		}
	}

	return result.String()
}

// View renders the full TUI layout: viewport + status bar + input.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "Loading..."
	}

	return m.viewport.View() + "\n" + m.renderStatusBar() + "\n" + m.input.View()
}

// viewportKeyMap returns a viewport keymap with Up/Down disabled
// (we use those for input history).
func viewportKeyMap() viewport.KeyMap {
	return viewport.KeyMap{
		PageDown:     key.NewBinding(key.WithKeys("pgdown")),
		PageUp:       key.NewBinding(key.WithKeys("pgup")),
		HalfPageDown: key.NewBinding(key.WithKeys("ctrl+d")),
		HalfPageUp:   key.NewBinding(key.WithKeys("ctrl+u")),
		Up:           key.NewBinding(key.WithDisabled()),
		Down:         key.NewBinding(key.WithDisabled()),
	}
}

package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/nathoo/emberlight/types"
)

// renderStatusBar produces a full-width inverted status line showing the
// current room, trust level, and audio state, with an offline marker when
// the companion service could not be reached.
func (m Model) renderStatusBar() string {
	var left string
	if m.sess.Auth() == types.Locked {
		left = fmt.Sprintf(" %s | Locked", m.defs.Story.Title)
	} else {
		loc, _ := m.defs.Lookup(m.sess.Location())
		left = fmt.Sprintf(" %s | Trust: %d/100", loc.Name, m.sess.Trust())
	}

	if m.checked && !m.online {
		left += " | " + styleOffline.Render("OFFLINE")
	}

	right := m.audioIndicator() + " "

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}

	bar := left + strings.Repeat(" ", gap) + right
	return styleStatusBar.Width(m.width).Render(bar)
}

// audioIndicator summarizes the audio engine for the status bar.
func (m Model) audioIndicator() string {
	prefs := m.sess.Prefs()
	if prefs.Muted {
		return "♪ muted"
	}
	return fmt.Sprintf("♪ %s %d%%", m.eng.State(), int(prefs.Volume*100+0.5))
}

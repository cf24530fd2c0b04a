package tui

import (
	"github.com/charmbracelet/lipgloss"
)

// Styles used throughout the TUI.
var (
	styleStatusBar = lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("252")).
			Bold(true)

	styleTitle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("215")).
			Bold(true)

	styleIntro = lipgloss.NewStyle().
			Foreground(lipgloss.Color("250")).
			Italic(true)

	styleInputPrompt = lipgloss.NewStyle().
				Foreground(lipgloss.Color("34"))

	styleRoomDesc = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))

	stylePersona = lipgloss.NewStyle().
			Foreground(lipgloss.Color("228"))

	styleSystem = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	styleError = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	stylePlayerInput = lipgloss.NewStyle().
				Foreground(lipgloss.Color("34"))

	styleNeighbors = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	styleOffline = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)
)

// lineKind identifies the type of an output line for styling.
type lineKind int

const (
	kindRoomDesc lineKind = iota
	kindPersona
	kindSystem
	kindError
	kindNeighbors
	kindIntro
	kindTitle
)

// renderLineKind applies the style for a given lineKind.
func renderLineKind(line string, kind lineKind) string {
	switch kind {
	case kindPersona:
		return stylePersona.Render(line)
	case kindSystem:
		return styleSystem.Render("[" + line + "]")
	case kindError:
		return styleError.Render(line)
	case kindNeighbors:
		return styleNeighbors.Render(line)
	case kindIntro:
		return styleIntro.Render(line)
	case kindTitle:
		return styleTitle.Render(line)
	default:
		return styleRoomDesc.Render(line)
	}
}

package tui

import (
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"examshelf/internal/model"
)

// Theme/palette helpers.
//
// The TUI must remain readable on both light and dark terminal backgrounds.
// We use lipgloss.AdaptiveColor where possible and only apply "faint" styling
// on dark backgrounds (faint text on light terminals often becomes illegible).

func ac(light, dark string) lipgloss.AdaptiveColor {
	return lipgloss.AdaptiveColor{Light: light, Dark: dark}
}

func faintIfDark(st lipgloss.Style) lipgloss.Style {
	if lipgloss.HasDarkBackground() {
		return st.Faint(true)
	}
	return st
}

var (
	colorMuted      lipgloss.TerminalColor = ac("240", "243")
	colorSelectedBg                        = ac("#e9e9e9", "#262626")
	colorSelectedFg                        = ac("235", "255")
	colorSurfaceFg  lipgloss.TerminalColor = ac("235", "252")
	colorControlBg  lipgloss.TerminalColor = ac("252", "235")
	colorAccent     lipgloss.TerminalColor = ac("27", "62") // blue
	colorDone       lipgloss.TerminalColor = ac("28", "40") // green
	colorWarn       lipgloss.TerminalColor = ac("130", "214")
)

// shelfTagColor maps the fixed shelf palette to terminal colors.
func shelfTagColor(tag model.ColorTag) lipgloss.TerminalColor {
	switch tag {
	case model.ColorSlate:
		return ac("240", "245")
	case model.ColorRed:
		return ac("124", "167")
	case model.ColorAmber:
		return ac("130", "214")
	case model.ColorGreen:
		return ac("28", "40")
	case model.ColorViolet:
		return ac("91", "135")
	default: // blue
		return ac("27", "75")
	}
}

func styleMuted() lipgloss.Style {
	return faintIfDark(lipgloss.NewStyle().Foreground(colorMuted))
}

// applyColorProfilePreference sets Lip Gloss's color profile for the
// interactive TUI. We only honor NO_COLOR and otherwise follow the
// terminal's capabilities; CLICOLOR is for the non-interactive CLI.
func applyColorProfilePreference() {
	if strings.TrimSpace(os.Getenv("NO_COLOR")) != "" {
		lipgloss.SetColorProfile(termenv.Ascii)
		return
	}
	lipgloss.SetColorProfile(termenv.ColorProfile())
}

package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

type confirmModalFocus int

const (
	confirmFocusConfirm confirmModalFocus = iota
	confirmFocusCancel
)

type confirmState struct {
	title   string
	body    string
	focus   confirmModalFocus
	confirm func() // runs on enter when the confirm button has focus
}

func renderConfirmModal(width int, c confirmState) string {
	// Avoid borders inside the box: some terminals show background artifacts
	// when nesting bordered components inside a modal with a background color.
	btnBase := lipgloss.NewStyle().
		Padding(0, 1).
		Foreground(colorSurfaceFg).
		Background(colorControlBg)
	btnActive := btnBase.
		Foreground(colorSelectedFg).
		Background(colorSelectedBg).
		Bold(true)

	confirm := btnBase.Render("Delete")
	cancel := btnBase.Render("Cancel")
	if c.focus == confirmFocusConfirm {
		confirm = btnActive.Render("Delete")
	} else {
		cancel = btnActive.Render("Cancel")
	}

	controls := lipgloss.JoinHorizontal(lipgloss.Top, confirm, " ", cancel)
	help := styleMuted().Render("tab: focus   enter: select   esc: cancel")

	content := strings.Join([]string{c.body, "", controls, "", help}, "\n")

	boxW := width - 8
	if boxW > 60 {
		boxW = 60
	}
	if boxW < 24 {
		boxW = 24
	}
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		Padding(1, 2).
		Width(boxW)

	title := lipgloss.NewStyle().Bold(true).Render(c.title)
	return box.Render(title + "\n\n" + content)
}

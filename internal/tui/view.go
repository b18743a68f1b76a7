package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"examshelf/internal/filter"
)

const helpMarkdown = `# Keys

## Everywhere
- ` + "`/`" + ` search file and topic names (esc clears)
- ` + "`t`" + ` cycle topic filter: all / completed / incomplete
- ` + "`c`" + ` cycle row filter: all / completed / incomplete
- ` + "`a`" + ` cycle answer filter: all / has / no
- ` + "`esc`" + ` back, ` + "`q`" + ` quit

## Shelves
- ` + "`enter`" + ` open shelf, ` + "`n`" + ` new shelf, ` + "`C`" + ` cycle color, ` + "`d`" + ` delete

## Topics
- ` + "`enter`" + ` open topic, ` + "`n`" + ` add topic, ` + "`z`" + ` collapse
- ` + "`K`" + `/` + "`J`" + ` move up/down, ` + "`o`" + ` sort rows by question name, ` + "`d`" + ` delete

## Rows
- ` + "`x`" + ` toggle completed, ` + "`n`" + ` add empty row, ` + "`d`" + ` delete
- ` + "`p`" + ` paste clipboard text as a row
- ` + "`i`" + ` ingest files whose paths are on the clipboard (one per line)
`

func (m *appModel) View() string {
	if m.width == 0 {
		return ""
	}
	if m.showHelp {
		return renderMarkdown(helpMarkdown, m.width-4)
	}
	if m.confirm != nil {
		modal := renderConfirmModal(m.width, *m.confirm)
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal)
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderFilterBar())
	b.WriteString("\n")
	b.WriteString(m.activeList().View())
	b.WriteString("\n")
	b.WriteString(m.renderFooter())
	return b.String()
}

func (m *appModel) renderHeader() string {
	crumbs := []string{m.workspace}
	if m.view >= viewTopics {
		if sh := m.currentShelf(); sh != nil {
			name := lipgloss.NewStyle().Foreground(shelfTagColor(sh.ColorTag)).Render(sh.Name)
			crumbs = append(crumbs, name)
		}
	}
	if m.view == viewRows {
		if t := m.currentTopic(); t != nil {
			crumbs = append(crumbs, t.Name)
		}
	}
	header := strings.Join(crumbs, " › ")
	return lipgloss.NewStyle().Bold(true).Padding(0, 1).Render(header)
}

func (m *appModel) renderFilterBar() string {
	c := m.criteriaNow().Normalize()

	var parts []string
	if m.searching {
		parts = append(parts, m.search.View())
	} else if c.Search != "" {
		parts = append(parts, "/"+c.Search)
	}
	if c.TopicStatus != filter.TopicAll {
		parts = append(parts, "topics:"+string(c.TopicStatus))
	}
	if c.RowStatus != filter.RowAll {
		parts = append(parts, "rows:"+string(c.RowStatus))
	}
	if c.Answer != filter.AnswerAll {
		parts = append(parts, "answer:"+string(c.Answer))
	}
	if len(parts) == 0 {
		return styleMuted().Padding(0, 1).Render("no filters")
	}
	return lipgloss.NewStyle().Foreground(colorWarn).Padding(0, 1).Render(strings.Join(parts, "  "))
}

func (m *appModel) renderFooter() string {
	if m.status != "" {
		return lipgloss.NewStyle().Foreground(colorWarn).Padding(0, 1).Render(m.status)
	}
	var hint string
	switch m.view {
	case viewShelves:
		hint = "enter: open  n: new  C: color  d: delete  ?: help"
	case viewTopics:
		hint = "enter: open  n: add  K/J: move  o: sort  z: collapse  d: delete  ?: help"
	default:
		hint = "x: done  n: add  p: paste  i: ingest  d: delete  ?: help"
	}
	count := fmt.Sprintf("%d items", len(m.activeList().Items()))
	return styleMuted().Padding(0, 1).Render(hint + "   " + count)
}

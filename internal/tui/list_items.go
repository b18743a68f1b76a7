package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"examshelf/internal/model"
)

type shelfItem struct {
	shelf   model.Shelf
	current bool
}

func (i shelfItem) FilterValue() string { return i.shelf.Name }
func (i shelfItem) Title() string {
	dot := lipgloss.NewStyle().Foreground(shelfTagColor(i.shelf.ColorTag)).Render("●")
	name := i.shelf.Name
	if i.current {
		name += " •"
	}
	return fmt.Sprintf("%s %s  %s", dot, name, styleMuted().Render(fmt.Sprintf("%d topics", len(i.shelf.Topics))))
}

type topicItem struct {
	topic       model.Topic
	visibleRows int
}

func (i topicItem) FilterValue() string { return i.topic.Name }
func (i topicItem) Title() string {
	marker := "▸"
	if !i.topic.IsCollapsed {
		marker = "▾"
	}
	name := i.topic.Name
	if i.topic.Completed() {
		name = lipgloss.NewStyle().Foreground(colorDone).Render(name + " ✓")
	}
	return fmt.Sprintf("%s %s  %s", marker, name, styleMuted().Render(fmt.Sprintf("%d/%d rows", i.visibleRows, len(i.topic.Files))))
}

type rowItem struct {
	row model.FileRow
}

func (i rowItem) FilterValue() string {
	if i.row.QuestionFile != nil {
		return i.row.QuestionFile.Name
	}
	return ""
}

func (i rowItem) Title() string {
	check := "[ ]"
	if i.row.IsCompleted {
		check = lipgloss.NewStyle().Foreground(colorDone).Render("[x]")
	}
	q := styleMuted().Render("(no question file)")
	if i.row.QuestionFile != nil {
		q = i.row.QuestionFile.Name
		if i.row.QuestionFile.Size != "" {
			q += " " + styleMuted().Render(i.row.QuestionFile.Size)
		}
	}
	a := styleMuted().Render("· no answer")
	if i.row.AnswerFile != nil {
		a = lipgloss.NewStyle().Foreground(colorAccent).Render("· " + i.row.AnswerFile.Name)
	}
	return fmt.Sprintf("%s %s %s", check, q, a)
}

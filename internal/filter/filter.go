// Package filter derives the visible subset of topics and rows from the
// full document and the active criteria. It holds no state of its own;
// callers recompute on every document or criteria change.
package filter

import (
	"fmt"
	"strings"

	"examshelf/internal/model"
)

type TopicStatus string

const (
	TopicAll        TopicStatus = "all"
	TopicCompleted  TopicStatus = "completed"
	TopicIncomplete TopicStatus = "incomplete"
)

type RowStatus string

const (
	RowAll        RowStatus = "all"
	RowCompleted  RowStatus = "completed"
	RowIncomplete RowStatus = "incomplete"
)

type AnswerStatus string

const (
	AnswerAll AnswerStatus = "all"
	AnswerHas AnswerStatus = "has"
	AnswerNo  AnswerStatus = "no"
)

// Criteria is one snapshot of the filter controls. The zero value must be
// normalized with Normalize before use; empty fields mean "all".
type Criteria struct {
	Search      string
	TopicStatus TopicStatus
	RowStatus   RowStatus
	Answer      AnswerStatus
}

func (c Criteria) Normalize() Criteria {
	c.Search = strings.TrimSpace(c.Search)
	if c.TopicStatus == "" {
		c.TopicStatus = TopicAll
	}
	if c.RowStatus == "" {
		c.RowStatus = RowAll
	}
	if c.Answer == "" {
		c.Answer = AnswerAll
	}
	return c
}

// Validate rejects values outside the known enum sets. Empty fields are
// fine; Normalize maps them to "all".
func (c Criteria) Validate() error {
	switch c.TopicStatus {
	case "", TopicAll, TopicCompleted, TopicIncomplete:
	default:
		return fmt.Errorf("invalid topic status %q (all|completed|incomplete)", c.TopicStatus)
	}
	switch c.RowStatus {
	case "", RowAll, RowCompleted, RowIncomplete:
	default:
		return fmt.Errorf("invalid row status %q (all|completed|incomplete)", c.RowStatus)
	}
	switch c.Answer {
	case "", AnswerAll, AnswerHas, AnswerNo:
	default:
		return fmt.Errorf("invalid answer filter %q (all|has|no)", c.Answer)
	}
	return nil
}

// Active reports whether any control is narrowing the view.
func (c Criteria) Active() bool {
	c = c.Normalize()
	return c.Search != "" || c.TopicStatus != TopicAll || c.RowStatus != RowAll || c.Answer != AnswerAll
}

// VisibleTopic pairs a topic with the subset of its rows that survive the
// criteria. Rows are copies; mutating them does not touch the document.
type VisibleTopic struct {
	Topic model.Topic
	Rows  []model.FileRow
}

// VisibleTopics applies the criteria to every topic of the shelf.
//
// Row visibility is a conjunction of the row-completion filter, the
// answer-presence filter, and (when a search is set) a case-insensitive
// substring match on either file name. A topic whose NAME matches the
// search pulls in all of its status-eligible rows, bypassing the text
// match but never the status filters.
//
// Topic visibility checks the topic-completion filter against completion
// computed over the FULL row set, then requires either a name match or a
// non-empty visible row set. Without a search, a topic stays visible when
// the row-level filters are inactive, even if it has no rows.
func VisibleTopics(topics []model.Topic, c Criteria) []VisibleTopic {
	c = c.Normalize()
	needle := strings.ToLower(c.Search)
	rowFiltersActive := c.RowStatus != RowAll || c.Answer != AnswerAll

	var out []VisibleTopic
	for _, t := range topics {
		nameMatches := needle != "" && strings.Contains(strings.ToLower(t.Name), needle)

		var rows []model.FileRow
		for _, r := range t.Files {
			if !rowMatchesFilters(r, c) {
				continue
			}
			if needle != "" && !nameMatches && !rowTextMatches(r, needle) {
				continue
			}
			rows = append(rows, r)
		}

		if !topicStatusMatches(t, c.TopicStatus) {
			continue
		}
		if needle == "" {
			if rowFiltersActive && len(rows) == 0 {
				continue
			}
		} else if !nameMatches && len(rows) == 0 {
			continue
		}

		out = append(out, VisibleTopic{Topic: t, Rows: rows})
	}
	return out
}

func rowMatchesFilters(r model.FileRow, c Criteria) bool {
	switch c.RowStatus {
	case RowCompleted:
		if !r.IsCompleted {
			return false
		}
	case RowIncomplete:
		if r.IsCompleted {
			return false
		}
	}
	switch c.Answer {
	case AnswerHas:
		if r.AnswerFile == nil {
			return false
		}
	case AnswerNo:
		if r.AnswerFile != nil {
			return false
		}
	}
	return true
}

func rowTextMatches(r model.FileRow, needle string) bool {
	if r.QuestionFile != nil && strings.Contains(strings.ToLower(r.QuestionFile.Name), needle) {
		return true
	}
	if r.AnswerFile != nil && strings.Contains(strings.ToLower(r.AnswerFile.Name), needle) {
		return true
	}
	return false
}

func topicStatusMatches(t model.Topic, want TopicStatus) bool {
	switch want {
	case TopicCompleted:
		return t.Completed()
	case TopicIncomplete:
		return !t.Completed()
	default:
		return true
	}
}

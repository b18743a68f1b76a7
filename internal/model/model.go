package model

import (
	"strings"
	"time"
)

type ColorTag string

const (
	ColorSlate  ColorTag = "slate"
	ColorRed    ColorTag = "red"
	ColorAmber  ColorTag = "amber"
	ColorGreen  ColorTag = "green"
	ColorBlue   ColorTag = "blue"
	ColorViolet ColorTag = "violet"
)

// ColorTags is the fixed shelf palette, in display order.
func ColorTags() []ColorTag {
	return []ColorTag{ColorSlate, ColorRed, ColorAmber, ColorGreen, ColorBlue, ColorViolet}
}

func ValidColorTag(c ColorTag) bool {
	for _, t := range ColorTags() {
		if t == c {
			return true
		}
	}
	return false
}

type FileKind string

const (
	FileKindQuestion FileKind = "question"
	FileKindAnswer   FileKind = "answer"
)

// FileMeta describes one uploaded/pasted file. Binary payloads are never
// stored inline; when present they live in the blob store keyed by ID.
type FileMeta struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Size      string    `json:"size,omitempty"` // human-readable, e.g. "1.2 MB"
	Kind      FileKind  `json:"kind"`
	CreatedAt time.Time `json:"createdAt"`
	HasBlob   bool      `json:"hasBlob,omitempty"`
}

// FileRow pairs an optional question file with an optional answer file.
// A row with both slots empty is a valid placeholder awaiting upload.
type FileRow struct {
	ID           string    `json:"id"`
	QuestionFile *FileMeta `json:"questionFile,omitempty"`
	AnswerFile   *FileMeta `json:"answerFile,omitempty"`
	IsCompleted  bool      `json:"isCompleted"`
	Order        int       `json:"order"`
}

type Topic struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Order       int       `json:"order"`
	IsCollapsed bool      `json:"isCollapsed"`
	Files       []FileRow `json:"files"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Completed reports whether the topic is complete: at least one row and
// every row marked completed. Completion is derived, never stored.
func (t Topic) Completed() bool {
	if len(t.Files) == 0 {
		return false
	}
	for _, r := range t.Files {
		if !r.IsCompleted {
			return false
		}
	}
	return true
}

type Shelf struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	ColorTag  ColorTag  `json:"colorTag"`
	CreatedAt time.Time `json:"createdAt"`
	Topics    []Topic   `json:"topics"`
}

// FileIDs returns the ids of every FileMeta reachable under the shelf.
// Delete cascades use this to release blob content.
func (s Shelf) FileIDs() []string {
	var out []string
	for _, t := range s.Topics {
		out = append(out, TopicFileIDs(t)...)
	}
	return out
}

func TopicFileIDs(t Topic) []string {
	var out []string
	for _, r := range t.Files {
		out = append(out, RowFileIDs(r)...)
	}
	return out
}

func RowFileIDs(r FileRow) []string {
	var out []string
	if r.QuestionFile != nil && strings.TrimSpace(r.QuestionFile.ID) != "" {
		out = append(out, r.QuestionFile.ID)
	}
	if r.AnswerFile != nil && strings.TrimSpace(r.AnswerFile.ID) != "" {
		out = append(out, r.AnswerFile.ID)
	}
	return out
}

type Event struct {
	ID       string    `json:"id"`
	TS       time.Time `json:"ts"`
	Type     string    `json:"type"`
	EntityID string    `json:"entityId"`
	Payload  any       `json:"payload"`
}

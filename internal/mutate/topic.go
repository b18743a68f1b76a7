package mutate

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"examshelf/internal/model"
	"examshelf/internal/store"
)

type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
)

type TopicResult struct {
	Topic        *model.Topic
	Changed      bool
	EventPayload map[string]any
}

// TopicPatch shallow-merges fields into a topic. Nil fields are left alone.
type TopicPatch struct {
	Name        *string
	IsCollapsed *bool
	Files       *[]model.FileRow
}

// AddTopic prepends a new topic to the shelf (most-recent-first ordering)
// with an auto-generated name derived from the current topic count.
func AddTopic(db *store.DB, shelfID string) (TopicResult, error) {
	shelfID = strings.TrimSpace(shelfID)
	if db == nil || shelfID == "" {
		return TopicResult{}, errors.New("missing shelf id")
	}
	sh, ok := db.FindShelf(shelfID)
	if !ok {
		return TopicResult{}, NotFoundError{Kind: "shelf", ID: shelfID}
	}

	t := model.Topic{
		ID:        (store.Store{}).NextID(db, "top"),
		Name:      fmt.Sprintf("Topic %d", len(sh.Topics)+1),
		Files:     []model.FileRow{},
		CreatedAt: time.Now().UTC(),
	}
	sh.Topics = append([]model.Topic{t}, sh.Topics...)
	renumberTopics(sh)

	created := &sh.Topics[0]
	return TopicResult{
		Topic:        created,
		Changed:      true,
		EventPayload: map[string]any{"name": created.Name, "shelfId": sh.ID},
	}, nil
}

func UpdateTopic(db *store.DB, shelfID, topicID string, patch TopicPatch) (TopicResult, error) {
	shelfID = strings.TrimSpace(shelfID)
	topicID = strings.TrimSpace(topicID)
	if db == nil || topicID == "" {
		return TopicResult{}, errors.New("missing topic id")
	}
	sh, t, ok := db.FindTopic(topicID)
	if !ok || (shelfID != "" && sh.ID != shelfID) {
		return TopicResult{}, NotFoundError{Kind: "topic", ID: topicID}
	}

	changed := false
	payload := map[string]any{}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name != "" && name != t.Name {
			payload["name"] = map[string]any{"from": t.Name, "to": name}
			t.Name = name
			changed = true
		}
	}
	if patch.IsCollapsed != nil && *patch.IsCollapsed != t.IsCollapsed {
		t.IsCollapsed = *patch.IsCollapsed
		payload["isCollapsed"] = t.IsCollapsed
		changed = true
	}
	if patch.Files != nil {
		t.Files = *patch.Files
		if t.Files == nil {
			t.Files = []model.FileRow{}
		}
		renumberRows(t)
		payload["files"] = len(t.Files)
		changed = true
	}

	return TopicResult{Topic: t, Changed: changed, EventPayload: payload}, nil
}

// DeleteTopic removes the topic and reports the blob ids held by its rows.
func DeleteTopic(db *store.DB, shelfID, topicID string) (DeleteResult, error) {
	shelfID = strings.TrimSpace(shelfID)
	topicID = strings.TrimSpace(topicID)
	if db == nil || topicID == "" {
		return DeleteResult{}, errors.New("missing topic id")
	}
	sh, t, ok := db.FindTopic(topicID)
	if !ok || (shelfID != "" && sh.ID != shelfID) {
		return DeleteResult{}, NotFoundError{Kind: "topic", ID: topicID}
	}

	released := model.TopicFileIDs(*t)
	name := t.Name
	for i := range sh.Topics {
		if sh.Topics[i].ID == topicID {
			sh.Topics = append(sh.Topics[:i], sh.Topics[i+1:]...)
			break
		}
	}
	renumberTopics(sh)

	return DeleteResult{
		ReleasedFileIDs: released,
		EventPayload: map[string]any{
			"name":          name,
			"shelfId":       sh.ID,
			"releasedBlobs": len(released),
		},
	}, nil
}

// MoveTopic swaps the topic at index with its immediate neighbor in the
// requested direction. Moves past either boundary are no-ops.
func MoveTopic(db *store.DB, shelfID string, index int, dir Direction) (TopicResult, error) {
	shelfID = strings.TrimSpace(shelfID)
	if db == nil || shelfID == "" {
		return TopicResult{}, errors.New("missing shelf id")
	}
	sh, ok := db.FindShelf(shelfID)
	if !ok {
		return TopicResult{}, NotFoundError{Kind: "shelf", ID: shelfID}
	}
	if index < 0 || index >= len(sh.Topics) {
		return TopicResult{}, fmt.Errorf("topic index out of range: %d", index)
	}

	target := index - 1
	if dir == DirectionDown {
		target = index + 1
	}
	if target < 0 || target >= len(sh.Topics) {
		// Boundary: nothing to swap with.
		return TopicResult{Topic: &sh.Topics[index], Changed: false}, nil
	}

	sh.Topics[index], sh.Topics[target] = sh.Topics[target], sh.Topics[index]
	renumberTopics(sh)

	return TopicResult{
		Topic:        &sh.Topics[target],
		Changed:      true,
		EventPayload: map[string]any{"from": index, "to": target, "shelfId": sh.ID},
	}, nil
}

// SortRowsByQuestionName sorts the topic's rows by question file name,
// stable, case-sensitive lexicographic. Rows without a question file sort
// first (absent name compares as the empty string).
func SortRowsByQuestionName(db *store.DB, topicID string) (TopicResult, error) {
	topicID = strings.TrimSpace(topicID)
	if db == nil || topicID == "" {
		return TopicResult{}, errors.New("missing topic id")
	}
	_, t, ok := db.FindTopic(topicID)
	if !ok {
		return TopicResult{}, NotFoundError{Kind: "topic", ID: topicID}
	}

	name := func(r model.FileRow) string {
		if r.QuestionFile == nil {
			return ""
		}
		return r.QuestionFile.Name
	}
	// Insertion sort keeps equal names in their original order.
	for i := 1; i < len(t.Files); i++ {
		for j := i; j > 0 && name(t.Files[j]) < name(t.Files[j-1]); j-- {
			t.Files[j], t.Files[j-1] = t.Files[j-1], t.Files[j]
		}
	}
	renumberRows(t)

	return TopicResult{Topic: t, Changed: true, EventPayload: map[string]any{"rows": len(t.Files)}}, nil
}

func renumberTopics(sh *model.Shelf) {
	for i := range sh.Topics {
		sh.Topics[i].Order = i
	}
}

func renumberRows(t *model.Topic) {
	for i := range t.Files {
		t.Files[i].Order = i
	}
}

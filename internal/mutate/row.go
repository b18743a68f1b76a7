package mutate

import (
	"errors"
	"strings"

	"examshelf/internal/model"
	"examshelf/internal/store"
)

type RowResult struct {
	Row          *model.FileRow
	Changed      bool
	EventPayload map[string]any
}

// AddRow appends an empty placeholder row to the topic. Both file slots
// start empty; files arrive later via attach, paste or ingest.
func AddRow(db *store.DB, topicID string) (RowResult, error) {
	topicID = strings.TrimSpace(topicID)
	if db == nil || topicID == "" {
		return RowResult{}, errors.New("missing topic id")
	}
	_, t, ok := db.FindTopic(topicID)
	if !ok {
		return RowResult{}, NotFoundError{Kind: "topic", ID: topicID}
	}

	r := model.FileRow{
		ID:    (store.Store{}).NextID(db, "row"),
		Order: len(t.Files),
	}
	t.Files = append(t.Files, r)
	renumberRows(t)

	created := &t.Files[len(t.Files)-1]
	return RowResult{
		Row:          created,
		Changed:      true,
		EventPayload: map[string]any{"topicId": t.ID},
	}, nil
}

// SetRowCompleted marks or unmarks the row. Setting the current value is a
// no-op.
func SetRowCompleted(db *store.DB, topicID, rowID string, completed bool) (RowResult, error) {
	topicID = strings.TrimSpace(topicID)
	rowID = strings.TrimSpace(rowID)
	if db == nil || topicID == "" || rowID == "" {
		return RowResult{}, errors.New("missing topic or row id")
	}
	t, r, ok := db.FindRow(topicID, rowID)
	if !ok || r == nil {
		return RowResult{}, NotFoundError{Kind: "row", ID: rowID}
	}
	if r.IsCompleted == completed {
		return RowResult{Row: r, Changed: false}, nil
	}
	r.IsCompleted = completed
	return RowResult{
		Row:          r,
		Changed:      true,
		EventPayload: map[string]any{"topicId": t.ID, "completed": completed},
	}, nil
}

// DeleteRow removes the row and reports the blob ids its file slots held.
func DeleteRow(db *store.DB, topicID, rowID string) (DeleteResult, error) {
	topicID = strings.TrimSpace(topicID)
	rowID = strings.TrimSpace(rowID)
	if db == nil || topicID == "" || rowID == "" {
		return DeleteResult{}, errors.New("missing topic or row id")
	}
	t, r, ok := db.FindRow(topicID, rowID)
	if !ok || r == nil {
		return DeleteResult{}, NotFoundError{Kind: "row", ID: rowID}
	}

	released := model.RowFileIDs(*r)
	for i := range t.Files {
		if t.Files[i].ID == rowID {
			t.Files = append(t.Files[:i], t.Files[i+1:]...)
			break
		}
	}
	renumberRows(t)

	return DeleteResult{
		ReleasedFileIDs: released,
		EventPayload: map[string]any{
			"topicId":       t.ID,
			"releasedBlobs": len(released),
		},
	}, nil
}

// ClearRowFile empties one slot of the row and returns the released blob id
// (empty when the slot was already vacant). The row itself stays in place.
func ClearRowFile(db *store.DB, topicID, rowID string, kind model.FileKind) (RowResult, string, error) {
	topicID = strings.TrimSpace(topicID)
	rowID = strings.TrimSpace(rowID)
	if db == nil || topicID == "" || rowID == "" {
		return RowResult{}, "", errors.New("missing topic or row id")
	}
	t, r, ok := db.FindRow(topicID, rowID)
	if !ok || r == nil {
		return RowResult{}, "", NotFoundError{Kind: "row", ID: rowID}
	}

	var released string
	switch kind {
	case model.FileKindQuestion:
		if r.QuestionFile != nil {
			released = r.QuestionFile.ID
			r.QuestionFile = nil
		}
	case model.FileKindAnswer:
		if r.AnswerFile != nil {
			released = r.AnswerFile.ID
			r.AnswerFile = nil
		}
	default:
		return RowResult{}, "", errors.New("unknown file kind: " + string(kind))
	}

	if released == "" {
		return RowResult{Row: r, Changed: false}, "", nil
	}
	return RowResult{
		Row:          r,
		Changed:      true,
		EventPayload: map[string]any{"topicId": t.ID, "slot": string(kind)},
	}, released, nil
}

package mutate

import (
	"errors"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"examshelf/internal/model"
	"examshelf/internal/store"
)

// pasteNameLimit caps the question name derived from pasted text.
const pasteNameLimit = 50

type AttachResult struct {
	Row *model.FileRow
	// File is the freshly created metadata; its ID keys the blob store.
	File *model.FileMeta
	// ReplacedFileID is the blob id that previously occupied the slot, if
	// any. The caller releases it before uploading the new payload.
	ReplacedFileID string
	EventPayload   map[string]any
}

// AttachFile fills one slot of the row with new file metadata. An occupied
// slot is overwritten; the displaced blob id is returned so the caller can
// delete it first and then upload the new payload under File.ID.
func AttachFile(db *store.DB, topicID, rowID string, kind model.FileKind, name string, sizeBytes uint64, hasBlob bool) (AttachResult, error) {
	topicID = strings.TrimSpace(topicID)
	rowID = strings.TrimSpace(rowID)
	name = strings.TrimSpace(name)
	if db == nil || topicID == "" || rowID == "" {
		return AttachResult{}, errors.New("missing topic or row id")
	}
	if name == "" {
		return AttachResult{}, errors.New("missing file name")
	}
	if kind != model.FileKindQuestion && kind != model.FileKindAnswer {
		return AttachResult{}, errors.New("unknown file kind: " + string(kind))
	}
	t, r, ok := db.FindRow(topicID, rowID)
	if !ok || r == nil {
		return AttachResult{}, NotFoundError{Kind: "row", ID: rowID}
	}

	meta := newFileMeta(name, kind, sizeBytes, hasBlob)
	var replaced string
	switch kind {
	case model.FileKindQuestion:
		if r.QuestionFile != nil {
			replaced = r.QuestionFile.ID
		}
		r.QuestionFile = meta
	case model.FileKindAnswer:
		if r.AnswerFile != nil {
			replaced = r.AnswerFile.ID
		}
		r.AnswerFile = meta
	}

	return AttachResult{
		Row:            r,
		File:           meta,
		ReplacedFileID: replaced,
		EventPayload: map[string]any{
			"topicId": t.ID,
			"slot":    string(kind),
			"name":    meta.Name,
		},
	}, nil
}

type IngestResult struct {
	Topic *model.Topic
	// Files are the created metadata entries, one per new row, in the same
	// order as the input names.
	Files        []*model.FileMeta
	EventPayload map[string]any
}

// IngestedFile names one incoming payload for IngestFiles.
type IngestedFile struct {
	Name      string
	SizeBytes uint64
	HasBlob   bool
}

// IngestFiles appends one new row per incoming file, question slot filled,
// preserving the input order. The append happens against the document as it
// stands now, so rows added since the ingest began are kept.
func IngestFiles(db *store.DB, topicID string, incoming []IngestedFile) (IngestResult, error) {
	topicID = strings.TrimSpace(topicID)
	if db == nil || topicID == "" {
		return IngestResult{}, errors.New("missing topic id")
	}
	_, t, ok := db.FindTopic(topicID)
	if !ok {
		return IngestResult{}, NotFoundError{Kind: "topic", ID: topicID}
	}

	var created []*model.FileMeta
	for _, in := range incoming {
		name := strings.TrimSpace(in.Name)
		if name == "" {
			continue
		}
		meta := newFileMeta(name, model.FileKindQuestion, in.SizeBytes, in.HasBlob)
		t.Files = append(t.Files, model.FileRow{
			ID:           (store.Store{}).NextID(db, "row"),
			QuestionFile: meta,
		})
		created = append(created, meta)
	}
	renumberRows(t)

	return IngestResult{
		Topic:        t,
		Files:        created,
		EventPayload: map[string]any{"topicId": t.ID, "count": len(created)},
	}, nil
}

// PasteTextRow appends a new row whose question name is derived from pasted
// text: first line, truncated to 50 runes with a "…" suffix when cut. The
// text itself is not stored as a blob.
func PasteTextRow(db *store.DB, topicID, text string) (RowResult, error) {
	topicID = strings.TrimSpace(topicID)
	if db == nil || topicID == "" {
		return RowResult{}, errors.New("missing topic id")
	}
	name := pasteName(text)
	if name == "" {
		return RowResult{}, errors.New("nothing to paste")
	}
	_, t, ok := db.FindTopic(topicID)
	if !ok {
		return RowResult{}, NotFoundError{Kind: "topic", ID: topicID}
	}

	meta := newFileMeta(name, model.FileKindQuestion, 0, false)
	t.Files = append(t.Files, model.FileRow{
		ID:           (store.Store{}).NextID(db, "row"),
		QuestionFile: meta,
	})
	renumberRows(t)

	created := &t.Files[len(t.Files)-1]
	return RowResult{
		Row:          created,
		Changed:      true,
		EventPayload: map[string]any{"topicId": t.ID, "name": name},
	}, nil
}

func newFileMeta(name string, kind model.FileKind, sizeBytes uint64, hasBlob bool) *model.FileMeta {
	meta := &model.FileMeta{
		ID:        uuid.NewString(),
		Name:      name,
		Kind:      kind,
		CreatedAt: time.Now().UTC(),
		HasBlob:   hasBlob,
	}
	if sizeBytes > 0 {
		meta.Size = humanize.Bytes(sizeBytes)
	}
	return meta
}

func pasteName(text string) string {
	line := text
	if i := strings.IndexAny(line, "\r\n"); i >= 0 {
		line = line[:i]
	}
	line = strings.TrimSpace(line)
	runes := []rune(line)
	if len(runes) > pasteNameLimit {
		return string(runes[:pasteNameLimit]) + "…"
	}
	return line
}

package mutate

import (
	"errors"
	"strings"
	"testing"

	"examshelf/internal/model"
	"examshelf/internal/store"
)

func testDB(t *testing.T) *store.DB {
	t.Helper()
	return store.Seed()
}

func mustShelf(t *testing.T, db *store.DB) *model.Shelf {
	t.Helper()
	sh, ok := db.CurrentShelf()
	if !ok {
		t.Fatalf("no current shelf")
	}
	return sh
}

func TestAddShelfBecomesCurrent(t *testing.T) {
	db := testDB(t)
	res, err := AddShelf(db, "2026 Spring", model.ColorGreen)
	if err != nil {
		t.Fatalf("AddShelf: %v", err)
	}
	if !res.Changed {
		t.Fatalf("expected Changed")
	}
	if db.CurrentShelfID != res.Shelf.ID {
		t.Fatalf("current shelf = %q, want %q", db.CurrentShelfID, res.Shelf.ID)
	}
	if len(db.Shelves) != 2 {
		t.Fatalf("shelves = %d, want 2", len(db.Shelves))
	}
}

func TestAddShelfRejectsBadInput(t *testing.T) {
	db := testDB(t)
	if _, err := AddShelf(db, "   ", model.ColorBlue); err == nil {
		t.Fatalf("expected error for blank name")
	}
	if _, err := AddShelf(db, "X", model.ColorTag("magenta")); !errors.Is(err, ErrInvalidColorTag) {
		t.Fatalf("err = %v, want ErrInvalidColorTag", err)
	}
}

func TestRenameShelfNoOpWhenUnchanged(t *testing.T) {
	db := testDB(t)
	sh := mustShelf(t, db)
	res, err := RenameShelf(db, sh.ID, sh.Name)
	if err != nil {
		t.Fatalf("RenameShelf: %v", err)
	}
	if res.Changed {
		t.Fatalf("rename to same name should not report a change")
	}
}

func TestDeleteShelfCascadesAndRepairsCurrent(t *testing.T) {
	db := testDB(t)
	keep := mustShelf(t, db)
	res, err := AddShelf(db, "Doomed", model.ColorRed)
	if err != nil {
		t.Fatalf("AddShelf: %v", err)
	}
	doomed := res.Shelf.ID

	tr, err := AddTopic(db, doomed)
	if err != nil {
		t.Fatalf("AddTopic: %v", err)
	}
	rr, err := AddRow(db, tr.Topic.ID)
	if err != nil {
		t.Fatalf("AddRow: %v", err)
	}
	ar, err := AttachFile(db, tr.Topic.ID, rr.Row.ID, model.FileKindQuestion, "q1.pdf", 1024, true)
	if err != nil {
		t.Fatalf("AttachFile: %v", err)
	}

	del, err := DeleteShelf(db, doomed)
	if err != nil {
		t.Fatalf("DeleteShelf: %v", err)
	}
	if len(del.ReleasedFileIDs) != 1 || del.ReleasedFileIDs[0] != ar.File.ID {
		t.Fatalf("released = %v, want [%s]", del.ReleasedFileIDs, ar.File.ID)
	}
	if db.CurrentShelfID != keep.ID {
		t.Fatalf("current shelf = %q, want %q", db.CurrentShelfID, keep.ID)
	}
	if _, ok := db.FindShelf(doomed); ok {
		t.Fatalf("deleted shelf still present")
	}
}

func TestAddTopicPrependsWithAutoName(t *testing.T) {
	db := testDB(t)
	sh := mustShelf(t, db)

	first, err := AddTopic(db, sh.ID)
	if err != nil {
		t.Fatalf("AddTopic: %v", err)
	}
	if first.Topic.Name != "Topic 1" {
		t.Fatalf("name = %q, want Topic 1", first.Topic.Name)
	}

	second, err := AddTopic(db, sh.ID)
	if err != nil {
		t.Fatalf("AddTopic: %v", err)
	}
	if second.Topic.Name != "Topic 2" {
		t.Fatalf("name = %q, want Topic 2", second.Topic.Name)
	}
	// Newest first.
	if sh.Topics[0].ID != second.Topic.ID || sh.Topics[1].ID != first.Topic.ID {
		t.Fatalf("topic order = [%s %s], want newest first", sh.Topics[0].ID, sh.Topics[1].ID)
	}
	for i, tp := range sh.Topics {
		if tp.Order != i {
			t.Fatalf("topic %d order = %d", i, tp.Order)
		}
	}
}

func TestMoveTopicBoundaryIsNoOp(t *testing.T) {
	db := testDB(t)
	sh := mustShelf(t, db)
	for i := 0; i < 3; i++ {
		if _, err := AddTopic(db, sh.ID); err != nil {
			t.Fatalf("AddTopic: %v", err)
		}
	}
	before := topicIDs(sh)

	res, err := MoveTopic(db, sh.ID, 0, DirectionUp)
	if err != nil {
		t.Fatalf("MoveTopic: %v", err)
	}
	if res.Changed {
		t.Fatalf("move up from index 0 should be a no-op")
	}
	res, err = MoveTopic(db, sh.ID, 2, DirectionDown)
	if err != nil {
		t.Fatalf("MoveTopic: %v", err)
	}
	if res.Changed {
		t.Fatalf("move down from last index should be a no-op")
	}
	if got := topicIDs(sh); !equalStrings(got, before) {
		t.Fatalf("order changed on boundary move: %v -> %v", before, got)
	}
}

func TestMoveTopicSwapsNeighbors(t *testing.T) {
	db := testDB(t)
	sh := mustShelf(t, db)
	for i := 0; i < 3; i++ {
		if _, err := AddTopic(db, sh.ID); err != nil {
			t.Fatalf("AddTopic: %v", err)
		}
	}
	before := topicIDs(sh)

	res, err := MoveTopic(db, sh.ID, 1, DirectionUp)
	if err != nil {
		t.Fatalf("MoveTopic: %v", err)
	}
	if !res.Changed {
		t.Fatalf("expected a swap")
	}
	got := topicIDs(sh)
	want := []string{before[1], before[0], before[2]}
	if !equalStrings(got, want) {
		t.Fatalf("order = %v, want %v", got, want)
	}
	for i, tp := range sh.Topics {
		if tp.Order != i {
			t.Fatalf("topic %d order = %d after move", i, tp.Order)
		}
	}
}

func TestDeleteTopicReleasesRowFiles(t *testing.T) {
	db := testDB(t)
	sh := mustShelf(t, db)
	tr, err := AddTopic(db, sh.ID)
	if err != nil {
		t.Fatalf("AddTopic: %v", err)
	}
	r1, _ := AddRow(db, tr.Topic.ID)
	r2, _ := AddRow(db, tr.Topic.ID)
	a1, _ := AttachFile(db, tr.Topic.ID, r1.Row.ID, model.FileKindQuestion, "q.pdf", 10, true)
	a2, _ := AttachFile(db, tr.Topic.ID, r2.Row.ID, model.FileKindAnswer, "a.pdf", 10, true)

	del, err := DeleteTopic(db, sh.ID, tr.Topic.ID)
	if err != nil {
		t.Fatalf("DeleteTopic: %v", err)
	}
	want := map[string]bool{a1.File.ID: true, a2.File.ID: true}
	if len(del.ReleasedFileIDs) != 2 {
		t.Fatalf("released %d ids, want 2", len(del.ReleasedFileIDs))
	}
	for _, id := range del.ReleasedFileIDs {
		if !want[id] {
			t.Fatalf("unexpected released id %q", id)
		}
	}
	if len(sh.Topics) != 0 {
		t.Fatalf("topic not removed")
	}
}

func TestSortRowsByQuestionNameStableAbsentFirst(t *testing.T) {
	db := testDB(t)
	sh := mustShelf(t, db)
	tr, _ := AddTopic(db, sh.ID)

	// Rows: "b", empty, "a", "b" (second), empty (second).
	names := []string{"b.pdf", "", "a.pdf", "b.pdf", ""}
	var ids []string
	for _, n := range names {
		rr, err := AddRow(db, tr.Topic.ID)
		if err != nil {
			t.Fatalf("AddRow: %v", err)
		}
		ids = append(ids, rr.Row.ID)
		if n != "" {
			if _, err := AttachFile(db, tr.Topic.ID, rr.Row.ID, model.FileKindQuestion, n, 1, false); err != nil {
				t.Fatalf("AttachFile: %v", err)
			}
		}
	}

	res, err := SortRowsByQuestionName(db, tr.Topic.ID)
	if err != nil {
		t.Fatalf("SortRowsByQuestionName: %v", err)
	}
	got := rowIDs(res.Topic)
	// Nameless rows first in original order, then a, then the two b rows in
	// original order.
	want := []string{ids[1], ids[4], ids[2], ids[0], ids[3]}
	if !equalStrings(got, want) {
		t.Fatalf("sorted order = %v, want %v", got, want)
	}
	for i, r := range res.Topic.Files {
		if r.Order != i {
			t.Fatalf("row %d order = %d after sort", i, r.Order)
		}
	}
}

func TestAttachFileReplacesSlot(t *testing.T) {
	db := testDB(t)
	sh := mustShelf(t, db)
	tr, _ := AddTopic(db, sh.ID)
	rr, _ := AddRow(db, tr.Topic.ID)

	first, err := AttachFile(db, tr.Topic.ID, rr.Row.ID, model.FileKindQuestion, "v1.pdf", 2048, true)
	if err != nil {
		t.Fatalf("AttachFile: %v", err)
	}
	if first.ReplacedFileID != "" {
		t.Fatalf("fresh slot reported replacement %q", first.ReplacedFileID)
	}
	if first.File.Size == "" {
		t.Fatalf("size not rendered")
	}

	second, err := AttachFile(db, tr.Topic.ID, rr.Row.ID, model.FileKindQuestion, "v2.pdf", 4096, true)
	if err != nil {
		t.Fatalf("AttachFile: %v", err)
	}
	if second.ReplacedFileID != first.File.ID {
		t.Fatalf("replaced = %q, want %q", second.ReplacedFileID, first.File.ID)
	}
	if rr.Row.QuestionFile.Name != "v2.pdf" {
		t.Fatalf("slot name = %q, want v2.pdf", rr.Row.QuestionFile.Name)
	}
	if rr.Row.AnswerFile != nil {
		t.Fatalf("answer slot touched by question attach")
	}
}

func TestClearRowFile(t *testing.T) {
	db := testDB(t)
	sh := mustShelf(t, db)
	tr, _ := AddTopic(db, sh.ID)
	rr, _ := AddRow(db, tr.Topic.ID)
	ar, _ := AttachFile(db, tr.Topic.ID, rr.Row.ID, model.FileKindAnswer, "a.pdf", 1, true)

	res, released, err := ClearRowFile(db, tr.Topic.ID, rr.Row.ID, model.FileKindAnswer)
	if err != nil {
		t.Fatalf("ClearRowFile: %v", err)
	}
	if released != ar.File.ID {
		t.Fatalf("released = %q, want %q", released, ar.File.ID)
	}
	if res.Row.AnswerFile != nil {
		t.Fatalf("answer slot not cleared")
	}

	// Clearing an already empty slot is a quiet no-op.
	res, released, err = ClearRowFile(db, tr.Topic.ID, rr.Row.ID, model.FileKindAnswer)
	if err != nil {
		t.Fatalf("ClearRowFile (empty): %v", err)
	}
	if res.Changed || released != "" {
		t.Fatalf("empty slot clear reported a change")
	}
}

func TestIngestFilesAppendsInOrder(t *testing.T) {
	db := testDB(t)
	sh := mustShelf(t, db)
	tr, _ := AddTopic(db, sh.ID)
	existing, _ := AddRow(db, tr.Topic.ID)

	res, err := IngestFiles(db, tr.Topic.ID, []IngestedFile{
		{Name: "2019.pdf", SizeBytes: 100, HasBlob: true},
		{Name: "2020.pdf", SizeBytes: 200, HasBlob: true},
		{Name: "   "},
		{Name: "2021.pdf", SizeBytes: 300, HasBlob: true},
	})
	if err != nil {
		t.Fatalf("IngestFiles: %v", err)
	}
	if len(res.Files) != 3 {
		t.Fatalf("created %d files, want 3 (blank name skipped)", len(res.Files))
	}
	if len(res.Topic.Files) != 4 {
		t.Fatalf("topic has %d rows, want 4", len(res.Topic.Files))
	}
	if res.Topic.Files[0].ID != existing.Row.ID {
		t.Fatalf("existing row displaced from front")
	}
	wantNames := []string{"2019.pdf", "2020.pdf", "2021.pdf"}
	for i, r := range res.Topic.Files[1:] {
		if r.QuestionFile == nil || r.QuestionFile.Name != wantNames[i] {
			t.Fatalf("row %d question = %v, want %q", i+1, r.QuestionFile, wantNames[i])
		}
		if r.AnswerFile != nil {
			t.Fatalf("ingest filled an answer slot")
		}
	}
}

func TestPasteTextRowTruncates(t *testing.T) {
	db := testDB(t)
	sh := mustShelf(t, db)
	tr, _ := AddTopic(db, sh.ID)

	long := strings.Repeat("ä", 60) + "\nsecond line"
	res, err := PasteTextRow(db, tr.Topic.ID, long)
	if err != nil {
		t.Fatalf("PasteTextRow: %v", err)
	}
	name := res.Row.QuestionFile.Name
	runes := []rune(name)
	if len(runes) != 51 || runes[50] != '…' {
		t.Fatalf("name = %q (%d runes), want 50 runes plus ellipsis", name, len(runes))
	}
	if strings.Contains(name, "second") {
		t.Fatalf("paste name leaked past the first line: %q", name)
	}
	if res.Row.QuestionFile.HasBlob {
		t.Fatalf("pasted row should carry no blob")
	}

	short, err := PasteTextRow(db, tr.Topic.ID, "  What is a monad?  ")
	if err != nil {
		t.Fatalf("PasteTextRow: %v", err)
	}
	if short.Row.QuestionFile.Name != "What is a monad?" {
		t.Fatalf("short paste name = %q", short.Row.QuestionFile.Name)
	}

	if _, err := PasteTextRow(db, tr.Topic.ID, "   \n  "); err == nil {
		t.Fatalf("expected error for blank paste")
	}
}

func TestTopicCompletionDerived(t *testing.T) {
	db := testDB(t)
	sh := mustShelf(t, db)
	tr, _ := AddTopic(db, sh.ID)
	if tr.Topic.Completed() {
		t.Fatalf("empty topic must not count as complete")
	}
	r1, _ := AddRow(db, tr.Topic.ID)
	r2, _ := AddRow(db, tr.Topic.ID)
	if tr.Topic.Completed() {
		t.Fatalf("incomplete rows must not count as complete")
	}
	if _, err := SetRowCompleted(db, tr.Topic.ID, r1.Row.ID, true); err != nil {
		t.Fatalf("SetRowCompleted: %v", err)
	}
	if _, err := SetRowCompleted(db, tr.Topic.ID, r2.Row.ID, true); err != nil {
		t.Fatalf("SetRowCompleted: %v", err)
	}
	if !tr.Topic.Completed() {
		t.Fatalf("all rows complete, topic should be complete")
	}
	res, err := SetRowCompleted(db, tr.Topic.ID, r2.Row.ID, true)
	if err != nil {
		t.Fatalf("SetRowCompleted: %v", err)
	}
	if res.Changed {
		t.Fatalf("setting the current value should not report a change")
	}
}

func TestNotFoundErrors(t *testing.T) {
	db := testDB(t)
	var nf NotFoundError
	if _, err := AddTopic(db, "nope"); !errors.As(err, &nf) || nf.Kind != "shelf" {
		t.Fatalf("AddTopic err = %v", err)
	}
	if _, err := AddRow(db, "nope"); !errors.As(err, &nf) || nf.Kind != "topic" {
		t.Fatalf("AddRow err = %v", err)
	}
	sh := mustShelf(t, db)
	tr, _ := AddTopic(db, sh.ID)
	if _, err := DeleteRow(db, tr.Topic.ID, "nope"); !errors.As(err, &nf) || nf.Kind != "row" {
		t.Fatalf("DeleteRow err = %v", err)
	}
}

func topicIDs(sh *model.Shelf) []string {
	out := make([]string, len(sh.Topics))
	for i, t := range sh.Topics {
		out[i] = t.ID
	}
	return out
}

func rowIDs(t *model.Topic) []string {
	out := make([]string, len(t.Files))
	for i, r := range t.Files {
		out[i] = r.ID
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"examshelf/internal/store"
)

func runCLI(t *testing.T, args []string) (stdout []byte, stderr []byte, err error) {
	t.Helper()

	cmd := NewRootCmd()

	var outBuf bytes.Buffer
	var errBuf bytes.Buffer
	cmd.SetOut(&outBuf)
	cmd.SetErr(&errBuf)
	cmd.SetArgs(args)

	e := cmd.Execute()
	return outBuf.Bytes(), errBuf.Bytes(), e
}

func mustRun(t *testing.T, args ...string) map[string]any {
	t.Helper()
	stdout, stderr, err := runCLI(t, args)
	if err != nil {
		t.Fatalf("command failed: examshelf %v\nerr: %v\nstderr:\n%s\nstdout:\n%s", args, err, string(stderr), string(stdout))
	}
	var env map[string]any
	if err := json.Unmarshal(stdout, &env); err != nil {
		t.Fatalf("unmarshal stdout as json envelope: %v\nstdout:\n%s\nargs: %v", err, string(stdout), args)
	}
	if _, ok := env["data"]; !ok {
		t.Fatalf("expected JSON envelope to contain data key; got: %v\nstdout:\n%s", env, string(stdout))
	}
	return env
}

func dataMap(t *testing.T, env map[string]any) map[string]any {
	t.Helper()
	m, ok := env["data"].(map[string]any)
	if !ok {
		t.Fatalf("expected data to be an object; got: %#v", env["data"])
	}
	return m
}

func TestCLISmoke(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("EXAMSHELF_CONFIG_DIR", t.TempDir())

	// Init isolated store (no ~/.examshelf config should be touched when using --dir).
	mustRun(t, "--dir", dir, "init")

	// Seeded default shelf exists.
	shelves := mustRun(t, "--dir", dir, "shelves", "list")
	xs, ok := shelves["data"].([]any)
	if !ok || len(xs) != 1 {
		t.Fatalf("expected one seeded shelf; got: %#v", shelves["data"])
	}

	// Create a second shelf; it becomes current.
	created := dataMap(t, mustRun(t, "--dir", dir, "shelves", "create", "--name", "2026 Spring", "--color", "green"))
	shelfID, _ := created["id"].(string)
	if shelfID == "" {
		t.Fatalf("expected shelves create to return an id; got: %#v", created)
	}
	if cur, _ := created["current"].(bool); !cur {
		t.Fatalf("created shelf should be current; got: %#v", created)
	}

	// Topics prepend with auto names.
	t1 := dataMap(t, mustRun(t, "--dir", dir, "topics", "add", "--name", "Algebra"))
	topicID, _ := t1["id"].(string)
	if topicID == "" {
		t.Fatalf("expected topics add to return an id; got: %#v", t1)
	}
	mustRun(t, "--dir", dir, "topics", "add", "--name", "Geometry")
	topics := mustRun(t, "--dir", dir, "topics", "list")
	ts, _ := topics["data"].([]any)
	if len(ts) != 2 {
		t.Fatalf("expected 2 topics; got: %#v", topics["data"])
	}
	if name, _ := ts[0].(map[string]any)["name"].(string); name != "Geometry" {
		t.Fatalf("newest topic should be first; got: %#v", ts[0])
	}

	// Rows + attach from disk.
	row := dataMap(t, mustRun(t, "--dir", dir, "rows", "add", topicID))
	rowID, _ := row["id"].(string)
	if rowID == "" {
		t.Fatalf("expected rows add to return an id; got: %#v", row)
	}

	src := filepath.Join(t.TempDir(), "midterm-2019.pdf")
	if err := os.WriteFile(src, []byte("%PDF-1.4 fake"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	attached := dataMap(t, mustRun(t, "--dir", dir, "files", "attach", topicID, rowID, src))
	q, _ := attached["question"].(map[string]any)
	if q == nil || q["name"] != "midterm-2019.pdf" {
		t.Fatalf("expected question slot filled; got: %#v", attached)
	}
	fileID, _ := q["id"].(string)
	if fileID == "" {
		t.Fatalf("expected file id; got: %#v", q)
	}
	// The payload lands in the filesystem blob store, not the document.
	if _, err := os.Stat(filepath.Join(dir, "resources", "blobs", fileID)); err != nil {
		t.Fatalf("blob not stored: %v", err)
	}

	// Direct row lookup.
	shown := dataMap(t, mustRun(t, "--dir", dir, "rows", "show", rowID))
	if shown["topicId"] != topicID {
		t.Fatalf("rows show topicId = %v, want %v", shown["topicId"], topicID)
	}

	// Complete + search.
	mustRun(t, "--dir", dir, "rows", "complete", topicID, rowID)
	found := dataMap(t, mustRun(t, "--dir", dir, "search", "midterm", "--row-status", "completed"))
	hits, _ := found["topics"].([]any)
	if len(hits) != 1 {
		t.Fatalf("expected one matching topic; got: %#v", found["topics"])
	}

	// Export round-trips the payload.
	dest := filepath.Join(t.TempDir(), "out.pdf")
	mustRun(t, "--dir", dir, "files", "export", topicID, rowID, "--out", dest)
	b, err := os.ReadFile(dest)
	if err != nil || string(b) != "%PDF-1.4 fake" {
		t.Fatalf("export mismatch: %q, err=%v", b, err)
	}

	// Detach clears the slot and releases the blob.
	mustRun(t, "--dir", dir, "files", "detach", topicID, rowID)
	if _, err := os.Stat(filepath.Join(dir, "resources", "blobs", fileID)); !os.IsNotExist(err) {
		t.Fatalf("blob not released on detach: %v", err)
	}

	// Deletes refuse without --yes.
	if _, _, err := runCLI(t, []string{"--dir", dir, "topics", "delete", topicID}); err == nil {
		t.Fatalf("expected delete without --yes to fail")
	}
	mustRun(t, "--dir", dir, "topics", "delete", topicID, "--yes")

	// Event log recorded the session.
	events := mustRun(t, "--dir", dir, "events", "list", "--limit", "0")
	evs, _ := events["data"].([]any)
	if len(evs) == 0 {
		t.Fatalf("expected events; got: %#v", events["data"])
	}
}

func TestCLIIngestOrderAndPaste(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("EXAMSHELF_CONFIG_DIR", t.TempDir())
	mustRun(t, "--dir", dir, "init")

	topic := dataMap(t, mustRun(t, "--dir", dir, "topics", "add", "--name", "Past papers"))
	topicID, _ := topic["id"].(string)

	fixtures := t.TempDir()
	var paths []string
	for _, name := range []string{"2019.pdf", "2020.pdf", "2021.pdf"} {
		p := filepath.Join(fixtures, name)
		if err := os.WriteFile(p, []byte(name), 0o644); err != nil {
			t.Fatalf("write fixture: %v", err)
		}
		paths = append(paths, p)
	}
	args := append([]string{"--dir", dir, "files", "ingest", topicID}, paths...)
	ing := dataMap(t, mustRun(t, args...))
	if added, _ := ing["added"].(float64); added != 3 {
		t.Fatalf("ingest added = %v, want 3", ing["added"])
	}

	rows := mustRun(t, "--dir", dir, "rows", "list", topicID)
	rs, _ := rows["data"].([]any)
	if len(rs) != 3 {
		t.Fatalf("expected 3 rows; got: %#v", rows["data"])
	}
	for i, want := range []string{"2019.pdf", "2020.pdf", "2021.pdf"} {
		q, _ := rs[i].(map[string]any)["question"].(map[string]any)
		if q == nil || q["name"] != want {
			t.Fatalf("row %d question = %#v, want %q", i, q, want)
		}
	}

	long := strings.Repeat("x", 60)
	pasted := dataMap(t, mustRun(t, "--dir", dir, "files", "paste", topicID, "--text", long))
	q, _ := pasted["question"].(map[string]any)
	name, _ := q["name"].(string)
	if runes := []rune(name); len(runes) != 51 || runes[50] != '…' {
		t.Fatalf("paste name = %q, want 50 runes plus ellipsis", name)
	}
}

func TestTopicAddEventRecordsFinalName(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("EXAMSHELF_CONFIG_DIR", t.TempDir())
	mustRun(t, "--dir", dir, "init")

	topic := dataMap(t, mustRun(t, "--dir", dir, "topics", "add", "--name", "Linear Algebra"))
	topicID, _ := topic["id"].(string)

	events := mustRun(t, "--dir", dir, "events", "list", "--limit", "0")
	evs, _ := events["data"].([]any)
	var payload map[string]any
	for _, e := range evs {
		ev, _ := e.(map[string]any)
		if ev["type"] == "topic.add" && ev["entityId"] == topicID {
			payload, _ = ev["payload"].(map[string]any)
		}
	}
	if payload == nil {
		t.Fatalf("no topic.add event for %s in %#v", topicID, events["data"])
	}
	if payload["name"] != "Linear Algebra" {
		t.Fatalf("event name = %v, want the name given at creation", payload["name"])
	}
}

func TestSearchRejectsUnknownFilterValues(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("EXAMSHELF_CONFIG_DIR", t.TempDir())
	mustRun(t, "--dir", dir, "init")

	_, stderr, err := runCLI(t, []string{"--dir", dir, "search", "--row-status", "bogus"})
	if err == nil {
		t.Fatalf("expected unknown --row-status to fail")
	}
	if !strings.Contains(string(stderr), "invalid row status") {
		t.Fatalf("stderr = %q, want invalid row status error", string(stderr))
	}

	if _, _, err := runCLI(t, []string{"--dir", dir, "search", "--topic-status", "done"}); err == nil {
		t.Fatalf("expected unknown --topic-status to fail")
	}
	if _, _, err := runCLI(t, []string{"--dir", dir, "search", "--answer", "maybe"}); err == nil {
		t.Fatalf("expected unknown --answer to fail")
	}
}

func TestSaveFailureDowngradedToWarning(t *testing.T) {
	// A regular file where the store dir should be makes every write fail.
	blocker := filepath.Join(t.TempDir(), "occupied")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatalf("write blocker: %v", err)
	}
	s := store.Store{Dir: filepath.Join(blocker, "ws")}

	cmd := NewRootCmd()
	var outBuf, errBuf bytes.Buffer
	cmd.SetOut(&outBuf)
	cmd.SetErr(&errBuf)

	db := store.Seed()
	db.Shelves[0].Name = "Renamed before save"

	saveDB(cmd, s, db)

	if !strings.Contains(errBuf.String(), "warning: save failed") {
		t.Fatalf("stderr = %q, want save-failed warning", errBuf.String())
	}
	if db.Shelves[0].Name != "Renamed before save" {
		t.Fatalf("in-memory document altered by failed save: %+v", db.Shelves[0])
	}

	// The invocation carries on: output after the failed save still lands.
	if err := writeOut(cmd, &App{}, map[string]any{"name": db.Shelves[0].Name}); err != nil {
		t.Fatalf("writeOut after failed save: %v", err)
	}
	if !strings.Contains(outBuf.String(), "Renamed before save") {
		t.Fatalf("stdout = %q, want mutated document emitted", outBuf.String())
	}
}

func TestCLIExportMissingContent(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("EXAMSHELF_CONFIG_DIR", t.TempDir())
	mustRun(t, "--dir", dir, "init")

	topic := dataMap(t, mustRun(t, "--dir", dir, "topics", "add"))
	topicID, _ := topic["id"].(string)
	row := dataMap(t, mustRun(t, "--dir", dir, "rows", "add", topicID))
	rowID, _ := row["id"].(string)

	// Paste creates metadata with no stored content.
	mustRun(t, "--dir", dir, "files", "paste", topicID, "--text", "orphan")

	// Exporting the empty row's question slot fails on the metadata check;
	// exporting a pasted row fails on the blob lookup with a clear message.
	if _, stderr, err := runCLI(t, []string{"--dir", dir, "files", "export", topicID, rowID}); err == nil {
		t.Fatalf("expected export of empty slot to fail")
	} else if !strings.Contains(string(stderr), "no question file") {
		t.Fatalf("stderr = %q, want slot error", string(stderr))
	}

	rows := mustRun(t, "--dir", dir, "rows", "list", topicID)
	rs, _ := rows["data"].([]any)
	pastedID, _ := rs[len(rs)-1].(map[string]any)["id"].(string)
	if _, stderr, err := runCLI(t, []string{"--dir", dir, "files", "export", topicID, pastedID}); err == nil {
		t.Fatalf("expected export of pasted row to fail")
	} else if !strings.Contains(string(stderr), "content not found") {
		t.Fatalf("stderr = %q, want content not found", string(stderr))
	}
}

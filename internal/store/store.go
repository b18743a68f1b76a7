package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"examshelf/internal/model"
)

const dbFileName = "db.json"

// DB is the whole in-memory document: every shelf, plus the current
// selection. Mutations happen on this struct and are persisted with
// Store.Save as one unit.
type DB struct {
	Version        int            `json:"version"`
	CurrentShelfID string         `json:"currentShelfId,omitempty"`
	NextIDs        map[string]int `json:"nextIds,omitempty"`
	Shelves        []model.Shelf  `json:"shelves"`
}

type Store struct {
	Dir string
}

func DiscoverDir(start string) (string, bool) {
	dir := start
	for {
		candidate := filepath.Join(dir, ".examshelf")
		if st, err := os.Stat(candidate); err == nil && st.IsDir() {
			return candidate, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

func DefaultDir() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	if found, ok := DiscoverDir(cwd); ok {
		return found, nil
	}
	return filepath.Join(cwd, ".examshelf"), nil
}

func WorkspaceDir(name string) (string, error) {
	name, err := NormalizeWorkspaceName(name)
	if err != nil {
		return "", err
	}
	// Registered workspaces (explicit paths) win over the managed layout.
	if cfg, err := LoadConfig(); err == nil {
		if ref, ok := cfg.Workspaces[name]; ok && strings.TrimSpace(ref.Path) != "" {
			return filepath.Clean(ref.Path), nil
		}
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "workspaces", name), nil
}

func (s Store) Ensure() error {
	return os.MkdirAll(s.Dir, 0o755)
}

func (s Store) dbPath() string {
	return filepath.Join(s.Dir, dbFileName)
}

// Load reads the workspace state. SQLite is the source of truth; a legacy
// db.json (the old single-document export) is imported once when the SQLite
// state is empty. If nothing is persisted, or the legacy document cannot be
// parsed, the result is a freshly seeded default document.
func (s Store) Load() (*DB, error) {
	if err := s.Ensure(); err != nil {
		return nil, err
	}
	return s.LoadSQLite(context.Background())
}

// Save writes the whole document through to SQLite. Callers treat a failure
// here as non-fatal for the running session: the in-memory document stays
// authoritative and the error is surfaced as a warning.
func (s Store) Save(db *DB) error {
	if err := s.Ensure(); err != nil {
		return err
	}
	return s.SaveSQLite(context.Background(), db)
}

// Seed returns a fresh document holding the one default shelf created on
// first run.
func Seed() *DB {
	db := &DB{Version: 1, NextIDs: map[string]int{}}
	shelf := model.Shelf{
		Name:      "General",
		ColorTag:  model.ColorBlue,
		CreatedAt: time.Now().UTC(),
		Topics:    []model.Topic{},
	}
	shelf.ID = (Store{}).NextID(db, "shelf")
	db.Shelves = []model.Shelf{shelf}
	db.CurrentShelfID = shelf.ID
	return db
}

func (s Store) NextID(db *DB, prefix string) string {
	for i := 0; i < 10; i++ {
		id, err := newRandomID(prefix)
		if err != nil {
			break
		}
		if !idExists(db, id) {
			return id
		}
	}
	// Fallback: sequential ids if crypto/rand fails or we keep colliding.
	if db.NextIDs == nil {
		db.NextIDs = map[string]int{}
	}
	db.NextIDs[prefix]++
	return fmt.Sprintf("%s-%d", prefix, db.NextIDs[prefix])
}

func (s Store) AppendEvent(typ, entityID string, payload any) error {
	return s.appendEventSQLite(context.Background(), typ, entityID, payload)
}

func (db *DB) FindShelf(id string) (*model.Shelf, bool) {
	for i := range db.Shelves {
		if db.Shelves[i].ID == id {
			return &db.Shelves[i], true
		}
	}
	return nil, false
}

// FindTopic locates a topic by id across all shelves, returning the owning
// shelf as well. Topic ids are unique document-wide, so no shelf id is
// needed to address one.
func (db *DB) FindTopic(topicID string) (*model.Shelf, *model.Topic, bool) {
	for i := range db.Shelves {
		for j := range db.Shelves[i].Topics {
			if db.Shelves[i].Topics[j].ID == topicID {
				return &db.Shelves[i], &db.Shelves[i].Topics[j], true
			}
		}
	}
	return nil, nil, false
}

func (db *DB) FindRow(topicID, rowID string) (*model.Topic, *model.FileRow, bool) {
	_, topic, ok := db.FindTopic(topicID)
	if !ok {
		return nil, nil, false
	}
	for i := range topic.Files {
		if topic.Files[i].ID == rowID {
			return topic, &topic.Files[i], true
		}
	}
	return topic, nil, false
}

// CurrentShelf resolves the current selection, falling back to the first
// shelf when the stored id is stale.
func (db *DB) CurrentShelf() (*model.Shelf, bool) {
	if id := strings.TrimSpace(db.CurrentShelfID); id != "" {
		if sh, ok := db.FindShelf(id); ok {
			return sh, true
		}
	}
	if len(db.Shelves) > 0 {
		return &db.Shelves[0], true
	}
	return nil, false
}

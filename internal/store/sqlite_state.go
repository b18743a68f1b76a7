package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"examshelf/internal/model"

	_ "modernc.org/sqlite"
)

func (s Store) sqlitePath() string {
	return filepath.Join(filepath.Clean(s.Dir), "index.sqlite")
}

func (s Store) openSQLite(ctx context.Context) (*sql.DB, error) {
	if err := s.Ensure(); err != nil {
		return nil, err
	}
	// modernc.org/sqlite driver name is "sqlite".
	db, err := sql.Open("sqlite", s.sqlitePath())
	if err != nil {
		return nil, err
	}
	// WAL enables one writer + many readers; busy_timeout avoids
	// "database is locked" flakiness when CLI and TUI run side by side.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	if err := migrateSQLiteState(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func migrateSQLiteState(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS state_meta (
			k TEXT PRIMARY KEY,
			v TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS shelves (
			id TEXT PRIMARY KEY,
			position INTEGER NOT NULL,
			name TEXT NOT NULL,
			color_tag TEXT NOT NULL,
			json TEXT NOT NULL,
			updated_at_unixms INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_shelves_position ON shelves(position);`,
		`CREATE TABLE IF NOT EXISTS events (
			id TEXT PRIMARY KEY,
			ts_unixms INTEGER NOT NULL,
			type TEXT NOT NULL,
			entity_id TEXT NOT NULL,
			payload_json TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_events_ts ON events(ts_unixms);`,
		`CREATE INDEX IF NOT EXISTS idx_events_entity ON events(entity_id, ts_unixms);`,
	}
	for _, st := range stmts {
		if _, err := db.ExecContext(ctx, st); err != nil {
			return err
		}
	}
	return nil
}

// LoadSQLite loads the document from the workspace SQLite db. If no document
// was ever persisted, a legacy db.json is imported once when present; a missing
// or unparseable legacy document falls back to a seeded default shelf.
func (s Store) LoadSQLite(ctx context.Context) (*DB, error) {
	db, err := s.openSQLite(ctx)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	initialized, err := sqliteStateInitialized(ctx, db)
	if err != nil {
		return nil, err
	}
	if !initialized {
		seeded := s.loadLegacyOrSeed()
		if err := s.saveSQLiteConn(ctx, db, seeded); err != nil {
			return nil, err
		}
	}

	return loadStateFromSQLite(ctx, db)
}

// loadLegacyOrSeed reads the legacy db.json export if one exists. Malformed
// content is discarded (the seeded default wins) rather than aborting boot.
func (s Store) loadLegacyOrSeed() *DB {
	b, err := os.ReadFile(s.dbPath())
	if err != nil || len(b) == 0 {
		return Seed()
	}

	var legacy DB
	if err := json.Unmarshal(b, &legacy); err == nil && len(legacy.Shelves) > 0 {
		if legacy.Version == 0 {
			legacy.Version = 1
		}
		if legacy.NextIDs == nil {
			legacy.NextIDs = map[string]int{}
		}
		normalizeOrders(&legacy)
		return &legacy
	}

	// Oldest exports were a bare JSON array of shelves.
	var shelves []model.Shelf
	if err := json.Unmarshal(b, &shelves); err == nil && len(shelves) > 0 {
		legacy := &DB{Version: 1, NextIDs: map[string]int{}, Shelves: shelves}
		legacy.CurrentShelfID = shelves[0].ID
		normalizeOrders(legacy)
		return legacy
	}

	return Seed()
}

// normalizeOrders re-derives the numeric order fields from array position so
// imported documents always satisfy the position/order consistency rule.
func normalizeOrders(db *DB) {
	for i := range db.Shelves {
		sh := &db.Shelves[i]
		for j := range sh.Topics {
			sh.Topics[j].Order = j
			for k := range sh.Topics[j].Files {
				sh.Topics[j].Files[k].Order = k
			}
			if sh.Topics[j].Files == nil {
				sh.Topics[j].Files = []model.FileRow{}
			}
		}
		if sh.Topics == nil {
			sh.Topics = []model.Topic{}
		}
	}
}

func (s Store) SaveSQLite(ctx context.Context, st *DB) error {
	if st == nil {
		return errors.New("nil db")
	}
	db, err := s.openSQLite(ctx)
	if err != nil {
		return err
	}
	defer db.Close()
	return s.saveSQLiteConn(ctx, db, st)
}

func (s Store) saveSQLiteConn(ctx context.Context, db *sql.DB, st *DB) error {
	tx, err := db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `INSERT OR REPLACE INTO state_meta(k, v) VALUES(?, ?)`, "version", fmt.Sprintf("%d", st.Version)); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `INSERT OR REPLACE INTO state_meta(k, v) VALUES(?, ?)`, "current_shelf_id", strings.TrimSpace(st.CurrentShelfID)); err != nil {
		return err
	}

	// Replace-all strategy: the document is small (one user's shelves), so a
	// full rewrite per save is simpler than incremental diffs.
	if _, err := tx.ExecContext(ctx, `DELETE FROM shelves`); err != nil {
		return err
	}

	nowMs := time.Now().UTC().UnixMilli()
	for i, sh := range st.Shelves {
		raw, err := json.Marshal(sh)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO shelves(id, position, name, color_tag, json, updated_at_unixms) VALUES(?, ?, ?, ?, ?, ?)`,
			sh.ID, i, sh.Name, string(sh.ColorTag), string(raw), nowMs); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// sqliteStateInitialized reports whether a document was ever persisted.
// The marker is the state_meta version key, not the shelves row count: a
// saved document may legitimately hold zero shelves (the user deleted the
// last one), and that must not trigger a re-seed on the next load.
func sqliteStateInitialized(ctx context.Context, db *sql.DB) (bool, error) {
	var n int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(1) FROM state_meta WHERE k = 'version'`).Scan(&n); err != nil {
		// Missing table means empty state.
		return false, nil
	}
	return n > 0, nil
}

func loadStateFromSQLite(ctx context.Context, db *sql.DB) (*DB, error) {
	out := &DB{Version: 1, NextIDs: map[string]int{}}

	readMeta := func(k string) string {
		var v string
		_ = db.QueryRowContext(ctx, `SELECT v FROM state_meta WHERE k = ?`, k).Scan(&v)
		return strings.TrimSpace(v)
	}
	if v := readMeta("version"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			out.Version = n
		}
	}
	out.CurrentShelfID = readMeta("current_shelf_id")

	shelves, err := readJSONRows[model.Shelf](ctx, db, `SELECT json FROM shelves ORDER BY position`)
	if err != nil {
		return nil, err
	}
	if shelves == nil {
		shelves = []model.Shelf{}
	}
	out.Shelves = shelves
	normalizeOrders(out)

	return out, nil
}

func readJSONRows[T any](ctx context.Context, db *sql.DB, query string) ([]T, error) {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		var js string
		if err := rows.Scan(&js); err != nil {
			return nil, err
		}
		var v T
		if err := json.Unmarshal([]byte(js), &v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

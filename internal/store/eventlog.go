package store

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"examshelf/internal/model"

	"github.com/google/uuid"
)

// The event log is an append-only audit trail of document mutations. It is
// informational: replaying it is not required to reconstruct state.

func (s Store) appendEventSQLite(ctx context.Context, typ, entityID string, payload any) error {
	typ = strings.TrimSpace(typ)
	entityID = strings.TrimSpace(entityID)

	db, err := s.openSQLite(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	pb, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `INSERT INTO events(id, ts_unixms, type, entity_id, payload_json) VALUES(?, ?, ?, ?, ?)`,
		uuid.NewString(), time.Now().UTC().UnixMilli(), typ, entityID, string(pb))
	return err
}

// ReadEvents returns the most recent events, oldest-first. limit <= 0 returns
// everything.
func ReadEvents(dir string, limit int) ([]model.Event, error) {
	s := Store{Dir: dir}
	ctx := context.Background()
	db, err := s.openSQLite(ctx)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	q := `SELECT id, ts_unixms, type, entity_id, payload_json FROM events ORDER BY ts_unixms DESC`
	args := []any{}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Event
	for rows.Next() {
		var (
			ev      model.Event
			tsMs    int64
			payload string
		)
		if err := rows.Scan(&ev.ID, &tsMs, &ev.Type, &ev.EntityID, &payload); err != nil {
			return nil, err
		}
		ev.TS = time.UnixMilli(tsMs).UTC()
		var p any
		if err := json.Unmarshal([]byte(payload), &p); err == nil {
			ev.Payload = p
		}
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Flip to chronological order.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	if out == nil {
		out = []model.Event{}
	}
	return out, nil
}

package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// dialect holds what differs between the sqlite and postgres backends.
// Queries are written with ? placeholders and rebound per dialect.
type dialect struct {
	name     string
	numbered bool
	schema   []string
	// Deletes every record of a table past the newest N: (table_id, table_id, N).
	trimSQL string
}

func (d dialect) rebind(query string) string {
	if !d.numbered {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

type sqlService struct {
	db          *sql.DB
	dialect     dialect
	recentLimit int
}

func ensureSchema(ctx context.Context, db *sql.DB, d dialect) error {
	for _, stmt := range d.schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("audit: %s schema: %w", d.name, err)
		}
	}
	return nil
}

func (s *sqlService) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *sqlService) RecordHand(ctx context.Context, rec HandRecord) error {
	deltas, err := json.Marshal(rec.Deltas)
	if err != nil {
		return fmt.Errorf("audit: marshal deltas: %w", err)
	}
	history, err := json.Marshal(rec.History)
	if err != nil {
		return fmt.Errorf("audit: marshal history: %w", err)
	}
	if rec.EndedAt.IsZero() {
		rec.EndedAt = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("audit: begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, s.dialect.rebind(`
INSERT INTO audit_hand_history (
    id, table_id, hand_id, winner_seat, winner_name, pot, note, deltas_json, history_json, ended_at_ms, created_at_ms
)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`), rec.ID, rec.TableID, rec.HandID, rec.WinnerSeat, rec.WinnerName, rec.Pot, rec.Note,
		string(deltas), string(history), rec.EndedAt.UnixMilli(), time.Now().UTC().UnixMilli())
	if err != nil {
		return fmt.Errorf("audit: insert hand %s/%d: %w", rec.TableID, rec.HandID, err)
	}

	if s.recentLimit > 0 {
		if _, err := tx.ExecContext(ctx, s.dialect.rebind(s.dialect.trimSQL), rec.TableID, rec.TableID, s.recentLimit); err != nil {
			return fmt.Errorf("audit: trim %s: %w", rec.TableID, err)
		}
	}
	return tx.Commit()
}

func (s *sqlService) ListRecent(ctx context.Context, tableID string, limit int) ([]HandRecord, error) {
	limit = clampLimit(limit)
	rows, err := s.db.QueryContext(ctx, s.dialect.rebind(`
SELECT id, table_id, hand_id, winner_seat, winner_name, pot, note, deltas_json, history_json, ended_at_ms
FROM audit_hand_history
WHERE table_id = ?
ORDER BY ended_at_ms DESC, hand_id DESC
LIMIT ?
`), tableID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]HandRecord, 0, limit)
	for rows.Next() {
		var (
			rec        HandRecord
			deltasRaw  string
			historyRaw string
			endedAtMs  int64
		)
		if err := rows.Scan(&rec.ID, &rec.TableID, &rec.HandID, &rec.WinnerSeat, &rec.WinnerName,
			&rec.Pot, &rec.Note, &deltasRaw, &historyRaw, &endedAtMs); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(deltasRaw), &rec.Deltas); err != nil {
			return nil, fmt.Errorf("audit: decode deltas of %s: %w", rec.ID, err)
		}
		if err := json.Unmarshal([]byte(historyRaw), &rec.History); err != nil {
			return nil, fmt.Errorf("audit: decode history of %s: %w", rec.ID, err)
		}
		rec.EndedAt = time.UnixMilli(endedAtMs).UTC()
		items = append(items, rec)
	}
	return items, rows.Err()
}

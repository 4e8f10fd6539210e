package audit

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"
)

var postgresDialect = dialect{
	name:     ModePostgres,
	numbered: true,
	schema: []string{
		`
CREATE TABLE IF NOT EXISTS audit_hand_history (
    id TEXT PRIMARY KEY,
    table_id TEXT NOT NULL,
    hand_id BIGINT NOT NULL,
    winner_seat INTEGER NOT NULL,
    winner_name TEXT NOT NULL,
    pot BIGINT NOT NULL,
    note TEXT NOT NULL DEFAULT '',
    deltas_json TEXT NOT NULL DEFAULT '[]',
    history_json TEXT NOT NULL DEFAULT '[]',
    ended_at_ms BIGINT NOT NULL,
    created_at_ms BIGINT NOT NULL
)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_hand_history_recent ON audit_hand_history(table_id, ended_at_ms DESC, hand_id DESC)`,
	},
	trimSQL: `
DELETE FROM audit_hand_history
WHERE table_id = ?
  AND id IN (
      SELECT id
      FROM audit_hand_history
      WHERE table_id = ?
      ORDER BY ended_at_ms DESC, hand_id DESC
      OFFSET ?
  )`,
}

func NewPostgresService(dsn string, recentLimit int) (Service, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, fmt.Errorf("audit: AUDIT_DATABASE_URL is required in postgres mode")
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := ensureSchema(ctx, db, postgresDialect); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &sqlService{db: db, dialect: postgresDialect, recentLimit: recentLimit}, nil
}

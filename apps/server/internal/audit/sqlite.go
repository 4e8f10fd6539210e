package audit

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

var sqliteDialect = dialect{
	name: ModeSQLite,
	schema: []string{
		`
CREATE TABLE IF NOT EXISTS audit_hand_history (
    id TEXT PRIMARY KEY,
    table_id TEXT NOT NULL,
    hand_id INTEGER NOT NULL,
    winner_seat INTEGER NOT NULL,
    winner_name TEXT NOT NULL,
    pot INTEGER NOT NULL,
    note TEXT NOT NULL DEFAULT '',
    deltas_json TEXT NOT NULL DEFAULT '[]',
    history_json TEXT NOT NULL DEFAULT '[]',
    ended_at_ms INTEGER NOT NULL,
    created_at_ms INTEGER NOT NULL
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
      LIMIT -1 OFFSET ?
  )`,
}

// NewSQLiteService opens (and creates if needed) a sqlite archive. ":memory:"
// gives a private in-process database.
func NewSQLiteService(dbPath string, recentLimit int) (Service, error) {
	dbPath = strings.TrimSpace(dbPath)
	if dbPath == "" {
		return nil, fmt.Errorf("audit: empty sqlite database path")
	}
	if dbPath != ":memory:" {
		parent := filepath.Dir(dbPath)
		if parent != "" && parent != "." {
			if err := os.MkdirAll(parent, 0o755); err != nil {
				return nil, err
			}
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	// One connection keeps ":memory:" a single database and serializes writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	pragmas := []string{`PRAGMA busy_timeout = 5000;`, `PRAGMA journal_mode = WAL;`}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := ensureSchema(ctx, db, sqliteDialect); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &sqlService{db: db, dialect: sqliteDialect, recentLimit: recentLimit}, nil
}

// Package audit archives resolved hands. It is write-only from the tables'
// point of view: nothing here is ever read back into table state.
package audit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"homegame/table"
)

const (
	ModeMemory   = "memory"
	ModeSQLite   = "sqlite"
	ModePostgres = "postgres"

	defaultRecentLimit = 200
	defaultListLimit   = 20
	maxListLimit       = 100
)

type Service interface {
	Close() error
	RecordHand(ctx context.Context, rec HandRecord) error
	// ListRecent returns the newest records of a table first.
	ListRecent(ctx context.Context, tableID string, limit int) ([]HandRecord, error)
}

// HandRecord is the archived form of one resolved hand.
type HandRecord struct {
	ID         string        `json:"id"`
	TableID    string        `json:"tableId"`
	HandID     int64         `json:"handId"`
	WinnerSeat int           `json:"winnerSeat"`
	WinnerName string        `json:"winnerName"`
	Pot        int64         `json:"pot"`
	Note       string        `json:"note"`
	Deltas     []table.Delta `json:"deltas"`
	History    []table.Event `json:"history"`
	EndedAt    time.Time     `json:"endedAt"`
}

// NewRecord builds the archive record of a resolved hand.
func NewRecord(tableID string, h *table.Hand, endedAt time.Time) (HandRecord, error) {
	if h == nil || h.Result == nil {
		return HandRecord{}, fmt.Errorf("audit: hand %q is not resolved", tableID)
	}
	r := h.Result
	return HandRecord{
		ID:         uuid.NewString(),
		TableID:    tableID,
		HandID:     h.ID,
		WinnerSeat: r.WinnerSeat,
		WinnerName: r.WinnerName,
		Pot:        r.Pot,
		Note:       r.Note,
		Deltas:     append([]table.Delta(nil), r.Deltas...),
		History:    append([]table.Event(nil), h.History...),
		EndedAt:    endedAt.UTC(),
	}, nil
}

// Options selects and tunes a backend.
type Options struct {
	Mode        string
	SQLitePath  string
	DatabaseURL string
	// Records kept per table; older ones are trimmed on insert.
	RecentLimit int
}

// NewService builds the backend named by opts.Mode and reports which one.
func NewService(opts Options) (Service, string, error) {
	if opts.RecentLimit <= 0 {
		opts.RecentLimit = defaultRecentLimit
	}
	switch mode := strings.ToLower(strings.TrimSpace(opts.Mode)); mode {
	case "", ModeMemory:
		svc, err := NewMemoryService(opts.RecentLimit)
		if err != nil {
			return nil, "", err
		}
		return svc, ModeMemory, nil
	case ModeSQLite:
		svc, err := NewSQLiteService(opts.SQLitePath, opts.RecentLimit)
		if err != nil {
			return nil, "", err
		}
		return svc, ModeSQLite, nil
	case ModePostgres:
		svc, err := NewPostgresService(opts.DatabaseURL, opts.RecentLimit)
		if err != nil {
			return nil, "", err
		}
		return svc, ModePostgres, nil
	default:
		return nil, "", fmt.Errorf("audit: unknown mode %q", opts.Mode)
	}
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}

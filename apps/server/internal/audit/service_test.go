package audit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"homegame/table"
)

func resolvedHand(id int64, pot int64) *table.Hand {
	return &table.Hand{
		ID:  id,
		Pot: pot,
		History: []table.Event{
			{Type: table.EventStart, Note: "Hand started. Base=200"},
			{Type: table.EventWin, By: "Alice", Pot: pot},
		},
		Result: &table.HandResult{
			WinnerSeat: 0,
			WinnerName: "Alice",
			Pot:        pot,
			Note:       table.NoteAutoResolve,
			Deltas: []table.Delta{
				{Seat: 0, PlayerID: "p1", Name: "Alice", Amount: pot / 2},
				{Seat: 1, PlayerID: "p2", Name: "Bob", Amount: -pot / 2},
			},
		},
	}
}

func backends(t *testing.T, recentLimit int) map[string]Service {
	t.Helper()
	mem, err := NewMemoryService(recentLimit)
	require.NoError(t, err)
	lite, err := NewSQLiteService(":memory:", recentLimit)
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mem.Close())
		assert.NoError(t, lite.Close())
	})
	return map[string]Service{ModeMemory: mem, ModeSQLite: lite}
}

func TestNewRecordRequiresResult(t *testing.T) {
	_, err := NewRecord("T1", &table.Hand{ID: 1}, time.Now())
	assert.Error(t, err)
	_, err = NewRecord("T1", nil, time.Now())
	assert.Error(t, err)

	rec, err := NewRecord("T1", resolvedHand(3, 400), time.Unix(1700000000, 0))
	require.NoError(t, err)
	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, int64(3), rec.HandID)
	assert.Equal(t, "Alice", rec.WinnerName)
	assert.Len(t, rec.Deltas, 2)
	assert.Len(t, rec.History, 2)
}

func TestRecordAndListNewestFirst(t *testing.T) {
	base := time.Unix(1700000000, 0).UTC()
	for name, svc := range backends(t, 0) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			for i := int64(1); i <= 3; i++ {
				rec, err := NewRecord("T1", resolvedHand(i, 100*i), base.Add(time.Duration(i)*time.Second))
				require.NoError(t, err)
				require.NoError(t, svc.RecordHand(ctx, rec))
			}
			other, err := NewRecord("T2", resolvedHand(1, 50), base)
			require.NoError(t, err)
			require.NoError(t, svc.RecordHand(ctx, other))

			items, err := svc.ListRecent(ctx, "T1", 2)
			require.NoError(t, err)
			require.Len(t, items, 2)
			assert.Equal(t, int64(3), items[0].HandID)
			assert.Equal(t, int64(2), items[1].HandID)
			assert.Equal(t, int64(300), items[0].Pot)
			assert.Equal(t, table.NoteAutoResolve, items[0].Note)
			assert.Equal(t, base.Add(3*time.Second), items[0].EndedAt)
			assert.Equal(t, int64(-150), items[0].Deltas[1].Amount)
			assert.Equal(t, table.EventWin, items[0].History[1].Type)

			items, err = svc.ListRecent(ctx, "missing", 10)
			require.NoError(t, err)
			assert.Empty(t, items)
		})
	}
}

func TestRecentLimitTrimsOldest(t *testing.T) {
	base := time.Unix(1700000000, 0).UTC()
	for name, svc := range backends(t, 2) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			for i := int64(1); i <= 4; i++ {
				rec, err := NewRecord("T1", resolvedHand(i, 100), base.Add(time.Duration(i)*time.Second))
				require.NoError(t, err)
				require.NoError(t, svc.RecordHand(ctx, rec))
			}
			items, err := svc.ListRecent(ctx, "T1", 0)
			require.NoError(t, err)
			require.Len(t, items, 2)
			assert.Equal(t, int64(4), items[0].HandID)
			assert.Equal(t, int64(3), items[1].HandID)
		})
	}
}

func TestNewServiceModes(t *testing.T) {
	svc, mode, err := NewService(Options{})
	require.NoError(t, err)
	assert.Equal(t, ModeMemory, mode)
	require.NoError(t, svc.Close())

	svc, mode, err = NewService(Options{Mode: "SQLite", SQLitePath: ":memory:"})
	require.NoError(t, err)
	assert.Equal(t, ModeSQLite, mode)
	require.NoError(t, svc.Close())

	_, _, err = NewService(Options{Mode: ModePostgres})
	assert.Error(t, err)
	_, _, err = NewService(Options{Mode: "redis"})
	assert.Error(t, err)
}

func TestPostgresRebind(t *testing.T) {
	got := postgresDialect.rebind(`SELECT 1 FROM t WHERE a = ? AND b = ? LIMIT ?`)
	assert.Equal(t, `SELECT 1 FROM t WHERE a = $1 AND b = $2 LIMIT $3`, got)
	assert.Equal(t, `a = ?`, sqliteDialect.rebind(`a = ?`))
}

func TestRecorderArchives(t *testing.T) {
	svc, err := NewMemoryService(10)
	require.NoError(t, err)
	rec := NewRecorder(svc, nil)

	rec.Record("T1", resolvedHand(1, 200), time.Now())
	rec.Record("T1", &table.Hand{ID: 2}, time.Now())

	items, err := svc.ListRecent(context.Background(), "T1", 10)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, int64(1), items[0].HandID)
}

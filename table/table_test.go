package table

import (
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedSource hands out p1, p2, ... and always picks index pick%n.
type fixedSource struct {
	next int
	pick int
	now  time.Time
}

func (s *fixedSource) PlayerID() string {
	s.next++
	return fmt.Sprintf("p%d", s.next)
}

func (s *fixedSource) Intn(n int) int { return s.pick % n }

func (s *fixedSource) Now() time.Time { return s.now }

func newTestRegistry(t *testing.T, mutate func(*Config)) *Registry {
	t.Helper()
	cfg := DefaultConfig()
	if mutate != nil {
		mutate(&cfg)
	}
	reg, err := NewRegistry(cfg, &fixedSource{now: time.Unix(1700000000, 0).UTC()})
	require.NoError(t, err)
	return reg
}

// seatPlayers creates "T1" hosted by the first name and joins the rest.
func seatPlayers(t *testing.T, reg *Registry, names ...string) {
	t.Helper()
	for i, name := range names {
		var err error
		if i == 0 {
			_, err = reg.Create(conn(i), "T1", name)
		} else {
			_, err = reg.Join(conn(i), "T1", name)
		}
		require.NoError(t, err)
	}
}

func readyAll(t *testing.T, reg *Registry, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		_, err := reg.ToggleReady("T1", i, conn(i))
		require.NoError(t, err)
	}
}

func conn(i int) ConnID { return ConnID(fmt.Sprintf("c%d", i)) }

func TestCreateSeatsHostAtZero(t *testing.T) {
	reg := newTestRegistry(t, nil)

	out, err := reg.Create("c0", " T1 ", " Alice ")
	require.NoError(t, err)
	require.NotNil(t, out.Seating)
	assert.Equal(t, "T1", out.Seating.TableID)
	assert.Equal(t, 0, out.Seating.SeatIndex)
	assert.Equal(t, "p1", out.Seating.PlayerID)
	assert.True(t, out.Seating.IsHost)

	snap := out.Snapshot
	require.NotNil(t, snap)
	assert.Equal(t, 0, snap.HostSeatIndex)
	assert.Equal(t, MaxSeats, len(snap.Seats))
	assert.Equal(t, "Alice", snap.Seats[0].Name)
	assert.Nil(t, snap.Hand)
	assert.Equal(t, []ConnID{"c0"}, out.Recipients)
}

func TestCreateRejectsMissingIdentityAndDuplicates(t *testing.T) {
	reg := newTestRegistry(t, nil)

	_, err := reg.Create("c0", "", "Alice")
	assert.ErrorIs(t, err, ErrValidation)
	_, err = reg.Create("c0", "T1", "   ")
	assert.ErrorIs(t, err, ErrMissingIdentity)

	_, err = reg.Create("c0", "T1", "Alice")
	require.NoError(t, err)
	_, err = reg.Create("c1", "T1", "Bob")
	assert.ErrorIs(t, err, ErrTableExists)
	assert.ErrorIs(t, err, ErrPrecondition)
	assert.Equal(t, 1, reg.Len())
}

func TestJoinFillsLowestEmptySeat(t *testing.T) {
	reg := newTestRegistry(t, nil)
	seatPlayers(t, reg, "Alice", "Bob", "Carol")

	_, err := reg.Leave("T1", 1, "c1", LeaveExplicit)
	require.NoError(t, err)

	out, err := reg.Join("c9", "T1", "Dave")
	require.NoError(t, err)
	assert.Equal(t, 1, out.Seating.SeatIndex)
	assert.False(t, out.Seating.IsHost)

	_, err = reg.Join("c10", "nope", "Eve")
	assert.ErrorIs(t, err, ErrTableNotFound)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestJoinFullTable(t *testing.T) {
	reg := newTestRegistry(t, nil)
	names := make([]string, MaxSeats)
	for i := range names {
		names[i] = fmt.Sprintf("P%d", i)
	}
	seatPlayers(t, reg, names...)

	_, err := reg.Join("c99", "T1", "Late")
	assert.ErrorIs(t, err, ErrTableFull)
	assert.Equal(t, "Table is full (10).", err.Error())
}

func TestToggleReadyChecks(t *testing.T) {
	reg := newTestRegistry(t, nil)
	seatPlayers(t, reg, "Alice", "Bob")

	_, err := reg.ToggleReady("T1", 5, "c0")
	assert.ErrorIs(t, err, ErrSeatMissing)
	_, err = reg.ToggleReady("T1", 1, "c0")
	assert.ErrorIs(t, err, ErrSeatOwnership)
	_, err = reg.ToggleReady("T2", 0, "c0")
	assert.ErrorIs(t, err, ErrNotInTable)

	out, err := reg.ToggleReady("T1", 0, "c0")
	require.NoError(t, err)
	assert.True(t, out.Snapshot.Seats[0].Ready)
	out, err = reg.ToggleReady("T1", 0, "c0")
	require.NoError(t, err)
	assert.False(t, out.Snapshot.Seats[0].Ready)

	readyAll(t, reg, 2)
	_, err = reg.StartHand("T1", "c0", 0)
	require.NoError(t, err)
	_, err = reg.ToggleReady("T1", 1, "c1")
	assert.ErrorIs(t, err, ErrHandActive)
}

func TestLeaveReassignsHostAndDestroysEmptyTable(t *testing.T) {
	reg := newTestRegistry(t, nil)
	seatPlayers(t, reg, "Alice", "Bob", "Carol")

	out, err := reg.Leave("T1", 0, "c0", LeaveExplicit)
	require.NoError(t, err)
	assert.False(t, out.Destroyed)
	assert.Equal(t, 1, out.Snapshot.HostSeatIndex)
	assert.Equal(t, []ConnID{"c1", "c2"}, out.Recipients)

	_, err = reg.StartHand("T1", "c0", 0)
	assert.ErrorIs(t, err, ErrNotHostStart)

	_, err = reg.Leave("T1", 1, "c1", LeaveDisconnect)
	require.NoError(t, err)
	out, err = reg.Leave("T1", 2, "c2", LeaveExplicit)
	require.NoError(t, err)
	assert.True(t, out.Destroyed)
	assert.Nil(t, out.Snapshot)
	assert.Equal(t, 0, reg.Len())

	_, ok := reg.Table("T1")
	assert.False(t, ok)
}

func TestLeaveWithStaleBindingIgnoresSeat(t *testing.T) {
	reg := newTestRegistry(t, nil)
	seatPlayers(t, reg, "Alice", "Bob")

	out, err := reg.Leave("T1", 1, "c0", LeaveExplicit)
	require.NoError(t, err)
	assert.True(t, out.Snapshot.Seats[1].Occupied)
	// Host is re-picked from the seated players and lands on c0 again.
	assert.Equal(t, 0, out.Snapshot.HostSeatIndex)
}

func TestErrorKinds(t *testing.T) {
	assert.True(t, errors.Is(ErrTableNotFound, ErrNotFound))
	assert.True(t, errors.Is(ErrRaiseTooSmall, ErrPrecondition))
	assert.True(t, errors.Is(ErrInvalidWinner, ErrValidation))
	assert.False(t, errors.Is(ErrRaiseTooSmall, ErrNotYourTurn))
	assert.False(t, errors.Is(ErrTableNotFound, ErrPrecondition))

	wrapped := fmt.Errorf("lobby: %w", ErrNotYourTurn)
	var te *Error
	require.True(t, errors.As(wrapped, &te))
	assert.Equal(t, KindPrecondition, te.Kind)
}

func TestScanWrapsAndSkips(t *testing.T) {
	occupied := map[int]bool{0: true, 3: true, 9: true}
	match := func(i int) bool { return occupied[i] }

	assert.Equal(t, 3, scan(0, match))
	assert.Equal(t, 9, scan(3, match))
	assert.Equal(t, 0, scan(9, match))
	assert.Equal(t, 0, scan(NoSeat, match))
	assert.Equal(t, NoSeat, scan(0, func(int) bool { return false }))

	only := func(i int) bool { return i == 4 }
	assert.Equal(t, 4, scan(4, only))
}

func TestConfigValidation(t *testing.T) {
	_, err := NewRegistry(Config{DefaultBaseBet: 0, TurnPolicy: TurnPolicyTrustBinding}, nil)
	assert.Error(t, err)
	_, err = NewRegistry(Config{DefaultBaseBet: 10, MaxBet: 100, TurnPolicy: "maybe"}, nil)
	assert.Error(t, err)
	_, err = NewRegistry(Config{DefaultBaseBet: 10, TurnPolicy: TurnPolicyTrustBinding}, nil)
	assert.Error(t, err, "MaxBet is required")
	_, err = NewRegistry(Config{DefaultBaseBet: 500, MaxBet: 100, TurnPolicy: TurnPolicyTrustBinding}, nil)
	assert.Error(t, err)
	_, err = NewRegistry(Config{DefaultBaseBet: 10, MaxBet: math.MaxInt64, TurnPolicy: TurnPolicyTrustBinding}, nil)
	assert.Error(t, err)
	_, err = NewRegistry(Config{DefaultBaseBet: 10, MaxBet: 100, TurnPolicy: TurnPolicyTrustBinding}, nil)
	assert.NoError(t, err)

	p, err := ParseTurnPolicy("")
	require.NoError(t, err)
	assert.Equal(t, TurnPolicyTrustBinding, p)
	p, err = ParseTurnPolicy("verify")
	require.NoError(t, err)
	assert.Equal(t, TurnPolicyVerifyOwner, p)
	_, err = ParseTurnPolicy("strict")
	assert.Error(t, err)
}

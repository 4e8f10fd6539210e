package table

import (
	"fmt"
	"strings"
	"time"

	"homegame/ledger"
)

// Table is a ten-seat betting context. It is not safe for concurrent use:
// callers serialize every action on a table.
type Table struct {
	ID        string
	CreatedAt time.Time

	cfg Config
	src Source

	seats    [MaxSeats]*Seat
	hostConn ConnID
	hand     *Hand
	ledger   *ledger.Ledger

	// Dealer of the previous hand, NoSeat before the first one.
	lastDealer int
	handSeq    int64
}

// Seating is the result of a successful create or join.
type Seating struct {
	TableID   string
	SeatIndex int
	PlayerID  string
	IsHost    bool
}

func newTable(id string, host ConnID, cfg Config, src Source) *Table {
	return &Table{
		ID:         id,
		CreatedAt:  src.Now(),
		cfg:        cfg,
		src:        src,
		hostConn:   host,
		ledger:     ledger.New(),
		lastDealer: NoSeat,
	}
}

// scan returns the first seat index strictly after from, walking the seats
// cyclically, for which match holds. NoSeat when no seat matches.
func scan(from int, match func(i int) bool) int {
	for step := 1; step <= MaxSeats; step++ {
		i := ((from+step)%MaxSeats + MaxSeats) % MaxSeats
		if match(i) {
			return i
		}
	}
	return NoSeat
}

func validSeat(i int) bool { return i >= 0 && i < MaxSeats }

func (t *Table) seatAt(i int) *Seat {
	if !validSeat(i) {
		return nil
	}
	return t.seats[i]
}

func (t *Table) occupied(i int) bool { return t.seatAt(i) != nil }

func (t *Table) inHand(i int) bool {
	return t.hand != nil && t.occupied(i) && t.hand.InHand[i]
}

func (t *Table) occupiedSeats() []int {
	out := make([]int, 0, MaxSeats)
	for i := 0; i < MaxSeats; i++ {
		if t.seats[i] != nil {
			out = append(out, i)
		}
	}
	return out
}

func (t *Table) firstEmptySeat() int {
	for i := 0; i < MaxSeats; i++ {
		if t.seats[i] == nil {
			return i
		}
	}
	return NoSeat
}

func (t *Table) empty() bool { return len(t.occupiedSeats()) == 0 }

// HostSeat is the seat whose connection is the recorded host connection,
// or NoSeat if none matches.
func (t *Table) HostSeat() int {
	if t.hostConn == "" {
		return NoSeat
	}
	for i, s := range t.seats {
		if s != nil && s.Conn == t.hostConn {
			return i
		}
	}
	return NoSeat
}

func (t *Table) isHost(conn ConnID) bool { return conn != "" && t.hostConn == conn }

// ActiveHand returns a copy of the hand in progress, or nil.
func (t *Table) ActiveHand() *Hand {
	if t.hand == nil {
		return nil
	}
	return t.hand.clone()
}

// Net returns a player's cumulative balance.
func (t *Table) Net(playerID string) int64 { return t.ledger.Net(playerID) }

// LedgerSum is the sum over every ledger entry, including players who have
// since left the table.
func (t *Table) LedgerSum() int64 { return t.ledger.Sum() }

// Connections lists the connections currently seated, in seat order.
func (t *Table) Connections() []ConnID {
	out := make([]ConnID, 0, MaxSeats)
	for _, s := range t.seats {
		if s != nil && s.Conn != "" {
			out = append(out, s.Conn)
		}
	}
	return out
}

func (t *Table) seatPlayer(conn ConnID, name string, idx int) Seating {
	playerID := t.src.PlayerID()
	t.seats[idx] = &Seat{
		PlayerID: playerID,
		Name:     name,
		Conn:     conn,
	}
	t.ledger.Open(playerID)
	return Seating{
		TableID:   t.ID,
		SeatIndex: idx,
		PlayerID:  playerID,
		IsHost:    t.isHost(conn),
	}
}

// join seats a new player at the lowest empty index.
func (t *Table) join(conn ConnID, name string) (Seating, error) {
	idx := t.firstEmptySeat()
	if idx == NoSeat {
		return Seating{}, ErrTableFull
	}
	return t.seatPlayer(conn, name, idx), nil
}

// ToggleReady flips the ready flag of a seat owned by conn.
func (t *Table) ToggleReady(seat int, conn ConnID) error {
	s := t.seatAt(seat)
	if s == nil {
		return ErrSeatMissing
	}
	if s.Conn != conn {
		return ErrSeatOwnership
	}
	if t.hand != nil {
		return ErrHandActive
	}
	s.Ready = !s.Ready
	return nil
}

// leave removes conn's seat. An in-hand seat is force-folded first; the
// returned hand is non-nil when that fold resolved the hand.
func (t *Table) leave(seat int, conn ConnID, reason LeaveReason) *Hand {
	var finished *Hand
	if s := t.seatAt(seat); s != nil && s.Conn == conn {
		finished = t.forceFold(seat, reason)
		t.seats[seat] = nil
	}
	t.reassignHost(conn)
	return finished
}

func (t *Table) reassignHost(leaving ConnID) {
	if t.hostConn != leaving {
		return
	}
	t.hostConn = ""
	for _, s := range t.seats {
		if s != nil {
			t.hostConn = s.Conn
			return
		}
	}
}

func (t *Table) clearReady() {
	for _, s := range t.seats {
		if s != nil {
			s.Ready = false
		}
	}
}

func seatNote(seat int, what string) string {
	return fmt.Sprintf("Seat %d %s", seat+1, what)
}

func normalizeName(raw string) string { return strings.TrimSpace(raw) }

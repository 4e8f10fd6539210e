package table

import (
	"sort"
	"time"

	"homegame/ledger"
)

type SeatView struct {
	Seat     int    `json:"seat"`
	Occupied bool   `json:"occupied"`
	Name     string `json:"name,omitempty"`
	Ready    bool   `json:"ready"`
}

type HandView struct {
	ID          int64           `json:"id"`
	DealerSeat  int             `json:"dealerSeat"`
	TurnSeat    int             `json:"turnSeat"`
	BaseBet     int64           `json:"baseBet"`
	CurrentBet  int64           `json:"currentBet"`
	Pot         int64           `json:"pot"`
	InHand      [MaxSeats]bool  `json:"inHand"`
	Contributed [MaxSeats]int64 `json:"contributed"`
	History     []Event         `json:"history"`
	Result      *HandResultView `json:"result,omitempty"`
}

type HandResultView struct {
	WinnerSeat int     `json:"winnerSeat"`
	WinnerName string  `json:"winnerName"`
	Pot        int64   `json:"pot"`
	Note       string  `json:"note"`
	Deltas     []Delta `json:"deltas"`
}

type LedgerRow struct {
	Name     string `json:"name"`
	Net      int64  `json:"net"`
	PlayerID string `json:"playerId"`
}

// Snapshot is the broadcast view of a table. Connection ids never appear in it.
type Snapshot struct {
	TableID       string      `json:"tableId"`
	MaxSeats      int         `json:"maxSeats"`
	CreatedAt     time.Time   `json:"createdAt"`
	HostSeatIndex int         `json:"hostSeatIndex"`
	Seats         []SeatView  `json:"seats"`
	Hand          *HandView   `json:"hand"`
	Ledger        []LedgerRow `json:"ledger"`
}

// Snapshot projects the table. The hand log is cut to the configured window.
func (t *Table) Snapshot() Snapshot {
	s := Snapshot{
		TableID:       t.ID,
		MaxSeats:      MaxSeats,
		CreatedAt:     t.CreatedAt,
		HostSeatIndex: t.HostSeat(),
		Seats:         make([]SeatView, MaxSeats),
		Ledger:        t.ledgerRows(),
	}
	for i, seat := range t.seats {
		s.Seats[i] = SeatView{Seat: i}
		if seat == nil {
			continue
		}
		s.Seats[i].Occupied = true
		s.Seats[i].Name = seat.Name
		s.Seats[i].Ready = seat.Ready
	}
	if t.hand != nil {
		s.Hand = ProjectHand(t.hand, t.cfg.HistoryWindow)
	}
	return s
}

// ProjectHand builds the wire view of a hand keeping the last window log
// entries; window <= 0 keeps all of them.
func ProjectHand(h *Hand, window int) *HandView {
	if h == nil {
		return nil
	}
	history := h.History
	if window > 0 && len(history) > window {
		history = history[len(history)-window:]
	}
	v := &HandView{
		ID:          h.ID,
		DealerSeat:  h.DealerSeat,
		TurnSeat:    h.TurnSeat,
		BaseBet:     h.BaseBet,
		CurrentBet:  h.CurrentBet,
		Pot:         h.Pot,
		InHand:      h.InHand,
		Contributed: h.Contributed,
		History:     append([]Event(nil), history...),
	}
	if r := h.Result; r != nil {
		v.Result = &HandResultView{
			WinnerSeat: r.WinnerSeat,
			WinnerName: r.WinnerName,
			Pot:        r.Pot,
			Note:       r.Note,
			Deltas:     append([]Delta(nil), r.Deltas...),
		}
	}
	return v
}

// ledgerRows lists current seat-holders by descending net, seat order
// breaking ties.
func (t *Table) ledgerRows() []LedgerRow {
	rows := make([]LedgerRow, 0, MaxSeats)
	for _, seat := range t.seats {
		if seat == nil {
			continue
		}
		rows = append(rows, LedgerRow{
			Name:     seat.Name,
			Net:      t.ledger.Net(seat.PlayerID),
			PlayerID: seat.PlayerID,
		})
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Net > rows[j].Net })
	return rows
}

// Settlement runs the greedy settlement over current seat-holders in seat order.
func (t *Table) Settlement() ledger.Settlement {
	entries := make([]ledger.Entry, 0, MaxSeats)
	for _, seat := range t.seats {
		if seat == nil {
			continue
		}
		entries = append(entries, ledger.Entry{
			PlayerID: seat.PlayerID,
			Name:     seat.Name,
			Net:      t.ledger.Net(seat.PlayerID),
		})
	}
	return ledger.Settle(entries)
}

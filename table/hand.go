package table

import (
	"fmt"

	"github.com/dustin/go-humanize"
)

const (
	NoteAutoResolve = "auto (only player left)"
	NoteDeclared    = "declared by HOST"
)

// StartHand opens a betting round. Only the host may start, every occupied
// seat must be ready, and at least two seats must be occupied. A
// non-positive baseBet falls back to the configured default.
func (t *Table) StartHand(conn ConnID, baseBet int64) error {
	if !t.isHost(conn) {
		return ErrNotHostStart
	}
	if t.hand != nil {
		return ErrHandAlready
	}
	occupied := t.occupiedSeats()
	if len(occupied) < 2 {
		return ErrTooFewPlayers
	}
	for _, i := range occupied {
		if !t.seats[i].Ready {
			return ErrNotAllReady
		}
	}
	if baseBet <= 0 {
		baseBet = t.cfg.DefaultBaseBet
	}
	if baseBet > t.cfg.MaxBet {
		return ErrBetTooLarge
	}

	var dealer int
	if t.lastDealer != NoSeat {
		dealer = scan(t.lastDealer, t.occupied)
	} else {
		dealer = occupied[t.src.Intn(len(occupied))]
	}
	turn := scan(dealer, t.occupied)

	t.handSeq++
	h := &Hand{
		ID:         t.handSeq,
		DealerSeat: dealer,
		TurnSeat:   turn,
		BaseBet:    baseBet,
		CurrentBet: baseBet,
	}
	for _, i := range occupied {
		s := t.seats[i]
		h.InHand[i] = true
		h.Participants[i] = Participant{PlayerID: s.PlayerID, Name: s.Name}
	}
	t.hand = h
	t.record(Event{
		Type: EventStart,
		Note: fmt.Sprintf("Hand started. Base=%s", humanize.Comma(baseBet)),
	})
	return nil
}

// checkTurn validates that seat may act now.
func (t *Table) checkTurn(seat int, conn ConnID, folded *Error) error {
	h := t.hand
	if h == nil {
		return ErrNoActiveHand
	}
	if t.cfg.TurnPolicy == TurnPolicyVerifyOwner {
		if s := t.seatAt(seat); s == nil || s.Conn != conn {
			return ErrSeatOwnership
		}
	}
	if h.TurnSeat != seat {
		return ErrNotYourTurn
	}
	if !t.inHand(seat) {
		return folded
	}
	return nil
}

// Call matches the current bet. The returned hand is non-nil when the
// action resolved it.
func (t *Table) Call(seat int, conn ConnID) (*Hand, error) {
	if err := t.checkTurn(seat, conn, ErrFolded); err != nil {
		return nil, err
	}
	h := t.hand
	pay := h.CurrentBet - h.Contributed[seat]
	if pay < 0 {
		pay = 0
	}
	h.Contributed[seat] += pay
	h.Pot += pay
	t.record(Event{
		Type:       EventCall,
		By:         t.seats[seat].Name,
		Amount:     pay,
		CurrentBet: h.CurrentBet,
	})
	return t.advanceTurn(), nil
}

// Raise lifts the current bet to newBet and pays up to it.
func (t *Table) Raise(seat int, conn ConnID, newBet int64) (*Hand, error) {
	if err := t.checkTurn(seat, conn, ErrFolded); err != nil {
		return nil, err
	}
	h := t.hand
	if newBet <= h.CurrentBet {
		return nil, ErrRaiseTooSmall
	}
	if newBet > t.cfg.MaxBet {
		return nil, ErrBetTooLarge
	}
	need := newBet - h.Contributed[seat]
	if need < 0 {
		return nil, ErrInvalidRaise
	}
	h.CurrentBet = newBet
	h.Contributed[seat] += need
	h.Pot += need
	t.record(Event{
		Type:   EventRaise,
		By:     t.seats[seat].Name,
		Amount: need,
		NewBet: newBet,
	})
	return t.advanceTurn(), nil
}

// Fold drops seat from the hand.
func (t *Table) Fold(seat int, conn ConnID) (*Hand, error) {
	if err := t.checkTurn(seat, conn, ErrAlreadyFolded); err != nil {
		return nil, err
	}
	t.hand.InHand[seat] = false
	t.record(Event{Type: EventFold, By: t.seats[seat].Name})
	return t.advanceTurn(), nil
}

// DeclareWinner lets the host resolve the hand in favour of an in-hand seat.
func (t *Table) DeclareWinner(conn ConnID, winner int) (*Hand, error) {
	if t.hand == nil {
		return nil, ErrNoActiveHand
	}
	if !t.isHost(conn) {
		return nil, ErrNotHostWinner
	}
	if !validSeat(winner) {
		return nil, ErrInvalidWinner
	}
	if !t.occupied(winner) {
		return nil, ErrWinnerEmpty
	}
	if !t.inHand(winner) {
		return nil, ErrWinnerFolded
	}
	return t.finishHand(winner, NoteDeclared), nil
}

// advanceTurn resolves the hand when a single seat remains, otherwise moves
// the turn to the next in-hand seat after the current one.
func (t *Table) advanceTurn() *Hand {
	h := t.hand
	if h == nil {
		return nil
	}
	switch h.Alive() {
	case 0:
		return nil
	case 1:
		return t.finishHand(scan(h.TurnSeat, t.inHand), NoteAutoResolve)
	}
	h.TurnSeat = scan(h.TurnSeat, t.inHand)
	return nil
}

// forceFold folds a departing seat on behalf of the system.
func (t *Table) forceFold(seat int, reason LeaveReason) *Hand {
	h := t.hand
	if h == nil || !t.inHand(seat) {
		return nil
	}
	h.InHand[seat] = false
	typ, note := reason.foldEvent(seat)
	t.record(Event{Type: typ, By: SystemActor, Note: note})

	if h.TurnSeat == seat {
		return t.advanceTurn()
	}
	if h.Alive() == 1 {
		return t.finishHand(scan(seat, t.inHand), NoteAutoResolve)
	}
	return nil
}

// finishHand settles the pot into the ledger and closes the hand.
func (t *Table) finishHand(winner int, note string) *Hand {
	h := t.hand
	w := t.seatAt(winner)
	if h == nil || w == nil {
		return nil
	}

	result := &HandResult{
		WinnerSeat:     winner,
		WinnerName:     w.Name,
		WinnerPlayerID: w.PlayerID,
		Pot:            h.Pot,
		Note:           note,
	}
	for i := 0; i < MaxSeats; i++ {
		p := h.Participants[i]
		if p.PlayerID == "" {
			continue
		}
		amount := -h.Contributed[i]
		if i == winner {
			amount += h.Pot
		}
		t.ledger.Add(p.PlayerID, amount)
		result.Deltas = append(result.Deltas, Delta{
			Seat:     i,
			PlayerID: p.PlayerID,
			Name:     p.Name,
			Amount:   amount,
		})
	}

	t.record(Event{Type: EventWin, By: w.Name, Pot: h.Pot, Note: note})
	h.Result = result

	t.clearReady()
	t.lastDealer = h.DealerSeat
	t.hand = nil
	return h
}

func (t *Table) record(e Event) {
	if e.TS.IsZero() {
		e.TS = t.src.Now()
	}
	t.hand.History = append(t.hand.History, e)
}

func (h *Hand) clone() *Hand {
	c := *h
	c.History = append([]Event(nil), h.History...)
	if h.Result != nil {
		r := *h.Result
		r.Deltas = append([]Delta(nil), h.Result.Deltas...)
		c.Result = &r
	}
	return &c
}

// Alive counts the seats still in the hand. Seats are always vacated after
// their forced fold, so InHand never marks an empty seat.
func (h *Hand) Alive() int {
	n := 0
	for _, in := range h.InHand {
		if in {
			n++
		}
	}
	return n
}

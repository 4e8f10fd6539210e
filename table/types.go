package table

import "time"

// ConnID identifies a transport connection. The registry never looks
// inside it; it is only compared for equality.
type ConnID string

// NoSeat marks the absence of a seat index.
const NoSeat = -1

// SystemActor is the actor recorded for forced folds.
const SystemActor = "system"

// EventType names an entry of the hand log.
type EventType string

const (
	EventStart          EventType = "start"
	EventCall           EventType = "call"
	EventRaise          EventType = "raise"
	EventFold           EventType = "fold"
	EventWin            EventType = "win"
	EventLeaveFold      EventType = "leave-fold"
	EventDisconnectFold EventType = "disconnect-fold"
)

// Event is one entry of a hand's append-only log.
type Event struct {
	TS         time.Time `json:"ts"`
	Type       EventType `json:"type"`
	By         string    `json:"by,omitempty"`
	Amount     int64     `json:"amount"`
	CurrentBet int64     `json:"currentBet,omitempty"`
	NewBet     int64     `json:"newBet,omitempty"`
	Pot        int64     `json:"pot,omitempty"`
	Note       string    `json:"note,omitempty"`
}

// Seat is an occupied slot. Empty slots are nil.
type Seat struct {
	PlayerID string
	Name     string
	Conn     ConnID
	Ready    bool
}

// Hand is one betting round.
type Hand struct {
	ID         int64
	DealerSeat int
	TurnSeat   int
	BaseBet    int64
	CurrentBet int64
	Pot        int64

	InHand      [MaxSeats]bool
	Contributed [MaxSeats]int64
	// Participants records who sat at each index when the hand started.
	// Contributions are charged to these identities even if the seat is
	// vacated before resolution.
	Participants [MaxSeats]Participant

	History []Event

	// Result is set once the hand resolves.
	Result *HandResult
}

type Participant struct {
	PlayerID string
	Name     string
}

// HandResult describes how a hand was resolved.
type HandResult struct {
	WinnerSeat     int
	WinnerName     string
	WinnerPlayerID string
	Pot            int64
	Note           string
	Deltas         []Delta
}

// Delta is one ledger movement applied at resolution.
type Delta struct {
	Seat     int    `json:"seat"`
	PlayerID string `json:"playerId"`
	Name     string `json:"name"`
	Amount   int64  `json:"amount"`
}

// LeaveReason distinguishes an explicit leave from a lost connection.
type LeaveReason int

const (
	LeaveExplicit LeaveReason = iota
	LeaveDisconnect
)

func (r LeaveReason) foldEvent(seat int) (EventType, string) {
	if r == LeaveDisconnect {
		return EventDisconnectFold, seatNote(seat, "dc")
	}
	return EventLeaveFold, seatNote(seat, "left")
}

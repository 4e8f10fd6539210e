package codec

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"homegame/ledger"
	"homegame/table"
)

// Inbound action types.
const (
	TypeCreateTable   = "createTable"
	TypeJoinTable     = "joinTable"
	TypeToggleReady   = "toggleReady"
	TypeStartHand     = "startHand"
	TypeCall          = "call"
	TypeRaise         = "raise"
	TypeFold          = "fold"
	TypeDeclareWinner = "declareWinner"
	TypeSettlement    = "settlement"
	TypeLeave         = "leave"
)

// Outbound notification types.
const (
	TypeMe               = "me"
	TypeState            = "state"
	TypeHandFinished     = "handFinished"
	TypeSettlementResult = "settlementResult"
	TypeErrorMsg         = "errorMsg"
)

// Number is an integer field that also accepts a numeric string, the way
// browser clients tend to send form values.
type Number int64

func (n *Number) UnmarshalJSON(data []byte) error {
	raw := bytes.TrimSpace(data)
	if len(raw) > 0 && raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return table.ErrMalformedNumber
		}
		raw = []byte(strings.TrimSpace(s))
		if len(raw) == 0 {
			*n = 0
			return nil
		}
	}
	if v, err := strconv.ParseInt(string(raw), 10, 64); err == nil {
		*n = Number(v)
		return nil
	}
	f, err := strconv.ParseFloat(string(raw), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return table.ErrMalformedNumber
	}
	// 2^63 is exactly representable as a float64 but not as an int64.
	if f >= 1<<63 || f < -(1<<63) {
		return table.ErrMalformedNumber
	}
	*n = Number(int64(f))
	return nil
}

// Int64Or returns the value, or def when the field was absent.
func (n *Number) Int64Or(def int64) int64 {
	if n == nil {
		return def
	}
	return int64(*n)
}

// IntOr returns the value as an int, or def when the field was absent.
func (n *Number) IntOr(def int) int {
	if n == nil {
		return def
	}
	v := int64(*n)
	if v > math.MaxInt32 || v < math.MinInt32 {
		return def
	}
	return int(v)
}

// ClientMessage is one inbound action frame.
type ClientMessage struct {
	Type       string  `json:"type"`
	TableID    string  `json:"tableId,omitempty"`
	Name       string  `json:"name,omitempty"`
	HostName   string  `json:"hostName,omitempty"`
	BaseBet    *Number `json:"baseBet,omitempty"`
	NewBet     *Number `json:"newBet,omitempty"`
	WinnerSeat *Number `json:"winnerSeat,omitempty"`
}

// DisplayName is the player name carried by create/join; createTable
// clients may send it as hostName.
func (m ClientMessage) DisplayName() string {
	if strings.TrimSpace(m.Name) != "" {
		return m.Name
	}
	return m.HostName
}

// ServerMessage is one outbound notification frame.
type ServerMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type Me struct {
	TableID   string `json:"tableId"`
	SeatIndex int    `json:"seatIndex"`
	PlayerID  string `json:"playerId"`
	IsHost    bool   `json:"isHost"`
}

type ErrorMsg struct {
	Message string `json:"message"`
}

type HandFinished struct {
	LastHand *table.HandView `json:"lastHand"`
}

func MeMessage(s table.Seating) ServerMessage {
	return ServerMessage{Type: TypeMe, Payload: Me{
		TableID:   s.TableID,
		SeatIndex: s.SeatIndex,
		PlayerID:  s.PlayerID,
		IsHost:    s.IsHost,
	}}
}

func StateMessage(s table.Snapshot) ServerMessage {
	return ServerMessage{Type: TypeState, Payload: s}
}

// HandFinishedMessage carries the full hand log of a resolved hand.
func HandFinishedMessage(h *table.Hand) ServerMessage {
	return ServerMessage{Type: TypeHandFinished, Payload: HandFinished{LastHand: table.ProjectHand(h, 0)}}
}

func SettlementMessage(s ledger.Settlement) ServerMessage {
	return ServerMessage{Type: TypeSettlementResult, Payload: s}
}

func ErrorMessage(msg string) ServerMessage {
	return ServerMessage{Type: TypeErrorMsg, Payload: ErrorMsg{Message: msg}}
}

package table

import (
	"fmt"
	"math"
)

const (
	// MaxSeats is the fixed seat capacity of every table.
	MaxSeats = 10

	DefaultBaseBet       int64 = 200
	DefaultMaxBet        int64 = 1_000_000_000
	DefaultHistoryWindow       = 200

	// maxBetCeiling keeps a full pot plus any single balance inside int64.
	maxBetCeiling int64 = math.MaxInt64 / (2 * MaxSeats)
)

// TurnPolicy decides how betting actions authenticate the acting seat.
type TurnPolicy string

const (
	// TurnPolicyTrustBinding accepts the seat index bound to the connection
	// when it sat down, without re-checking current ownership.
	TurnPolicyTrustBinding TurnPolicy = "trust"
	// TurnPolicyVerifyOwner additionally requires the seat's current
	// connection to be the acting connection, as toggleReady does.
	TurnPolicyVerifyOwner TurnPolicy = "verify"
)

type Config struct {
	// Base bet used when startHand carries no positive amount.
	DefaultBaseBet int64
	// Largest base bet or raise target a hand accepts. It bounds every
	// contribution, so a pot never exceeds MaxSeats*MaxBet.
	MaxBet int64
	// Number of most recent hand events included in a snapshot.
	HistoryWindow int
	TurnPolicy    TurnPolicy
}

// DefaultConfig matches the reference table behaviour.
func DefaultConfig() Config {
	return Config{
		DefaultBaseBet: DefaultBaseBet,
		MaxBet:         DefaultMaxBet,
		HistoryWindow:  DefaultHistoryWindow,
		TurnPolicy:     TurnPolicyTrustBinding,
	}
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if c.DefaultBaseBet <= 0 {
		return fmt.Errorf("DefaultBaseBet must be > 0")
	}
	if c.MaxBet <= 0 || c.MaxBet > maxBetCeiling {
		return fmt.Errorf("MaxBet must be in 1..%d", maxBetCeiling)
	}
	if c.DefaultBaseBet > c.MaxBet {
		return fmt.Errorf("DefaultBaseBet must not exceed MaxBet")
	}
	if c.HistoryWindow < 0 {
		return fmt.Errorf("HistoryWindow must be >= 0")
	}
	switch c.TurnPolicy {
	case TurnPolicyTrustBinding, TurnPolicyVerifyOwner:
	default:
		return fmt.Errorf("invalid TurnPolicy %q", c.TurnPolicy)
	}
	return nil
}

// ParseTurnPolicy maps a config string onto a TurnPolicy.
func ParseTurnPolicy(raw string) (TurnPolicy, error) {
	switch TurnPolicy(raw) {
	case "", TurnPolicyTrustBinding:
		return TurnPolicyTrustBinding, nil
	case TurnPolicyVerifyOwner:
		return TurnPolicyVerifyOwner, nil
	default:
		return "", fmt.Errorf("invalid turn policy %q (supported: %s, %s)", raw, TurnPolicyTrustBinding, TurnPolicyVerifyOwner)
	}
}

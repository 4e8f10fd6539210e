// Package ledger keeps per-player running balances for a table and computes
// the transfers that settle them.
package ledger

// Ledger maps a player identity to a signed net balance. Entries are never
// removed; a ledger lives exactly as long as its table.
type Ledger struct {
	nets map[string]int64
}

func New() *Ledger {
	return &Ledger{nets: make(map[string]int64)}
}

// Open creates a zero entry for playerID if none exists.
func (l *Ledger) Open(playerID string) {
	if _, ok := l.nets[playerID]; ok {
		return
	}
	l.nets[playerID] = 0
}

// Add moves playerID's balance by delta. A zero delta is a no-op.
func (l *Ledger) Add(playerID string, delta int64) {
	if delta == 0 {
		return
	}
	l.Open(playerID)
	l.nets[playerID] += delta
}

func (l *Ledger) Net(playerID string) int64 { return l.nets[playerID] }

// Sum is the total over every entry ever opened.
func (l *Ledger) Sum() int64 {
	var sum int64
	for _, v := range l.nets {
		sum += v
	}
	return sum
}

func (l *Ledger) Len() int { return len(l.nets) }

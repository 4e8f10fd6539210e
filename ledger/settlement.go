package ledger

// Entry is one seat-holder's balance as seen by settlement.
type Entry struct {
	PlayerID string
	Name     string
	Net      int64
}

type Transfer struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Amount int64  `json:"amount"`

	FromPlayerID string `json:"-"`
	ToPlayerID   string `json:"-"`
}

type Settlement struct {
	Sum       int64      `json:"sum"`
	Transfers []Transfer `json:"transfers"`
}

type position struct {
	entry  Entry
	amount int64
}

// Settle pairs debtors with creditors greedily, both walked in the order
// the entries are given (seat order at the call site). Each step moves
// min(owed, credit) from the head debtor to the head creditor and advances
// whichever side reached zero. The pairing is deterministic for a given
// order; it does not minimise the number of transfers.
//
// Sum is the total of all entries and is zero for a balanced ledger. When
// it is not, the unmatched remainder stays unsettled.
func Settle(entries []Entry) Settlement {
	var (
		sum       int64
		creditors []position
		debtors   []position
	)
	for _, e := range entries {
		sum += e.Net
		switch {
		case e.Net > 0:
			creditors = append(creditors, position{entry: e, amount: e.Net})
		case e.Net < 0:
			debtors = append(debtors, position{entry: e, amount: -e.Net})
		}
	}

	transfers := make([]Transfer, 0, len(debtors)+len(creditors))
	i, j := 0, 0
	for i < len(debtors) && j < len(creditors) {
		d, c := &debtors[i], &creditors[j]
		amt := min(d.amount, c.amount)
		transfers = append(transfers, Transfer{
			From:         d.entry.Name,
			To:           c.entry.Name,
			Amount:       amt,
			FromPlayerID: d.entry.PlayerID,
			ToPlayerID:   c.entry.PlayerID,
		})
		d.amount -= amt
		c.amount -= amt
		if d.amount == 0 {
			i++
		}
		if c.amount == 0 {
			j++
		}
	}
	return Settlement{Sum: sum, Transfers: transfers}
}

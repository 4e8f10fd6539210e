package table

import (
	"strings"

	"homegame/ledger"
)

// Registry owns every active table. It is constructed once at startup and
// tables leave it only when their last seat is vacated. Like Table it is not
// safe for concurrent use; the lobby feeds it one action at a time.
type Registry struct {
	cfg    Config
	src    Source
	tables map[string]*Table
}

// Outcome is what a successful action produced.
type Outcome struct {
	TableID string

	// Snapshot is the post-action projection, nil when the table was destroyed.
	Snapshot *Snapshot

	// Recipients are the connections seated after the action.
	Recipients []ConnID

	Seating *Seating

	// Finished is the hand this action resolved, if any.
	Finished *Hand

	Settlement *ledger.Settlement
	Destroyed  bool
}

func NewRegistry(cfg Config, src Source) (*Registry, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if src == nil {
		src = NewSource(0)
	}
	return &Registry{
		cfg:    cfg,
		src:    src,
		tables: make(map[string]*Table),
	}, nil
}

// Table returns the table with the given id.
func (r *Registry) Table(id string) (*Table, bool) {
	t, ok := r.tables[id]
	return t, ok
}

// Len is the number of active tables.
func (r *Registry) Len() int { return len(r.tables) }

func (r *Registry) outcome(t *Table) Outcome {
	snap := t.Snapshot()
	return Outcome{
		TableID:    t.ID,
		Snapshot:   &snap,
		Recipients: t.Connections(),
	}
}

// Create opens a table and seats its creator at seat 0 as host.
func (r *Registry) Create(conn ConnID, tableID, hostName string) (Outcome, error) {
	tableID = strings.TrimSpace(tableID)
	hostName = normalizeName(hostName)
	if tableID == "" || hostName == "" {
		return Outcome{}, ErrMissingIdentity
	}
	if _, exists := r.tables[tableID]; exists {
		return Outcome{}, ErrTableExists
	}

	t := newTable(tableID, conn, r.cfg, r.src)
	seating := t.seatPlayer(conn, hostName, 0)
	r.tables[tableID] = t

	out := r.outcome(t)
	out.Seating = &seating
	return out, nil
}

// Join seats a player at the lowest empty seat of an existing table.
func (r *Registry) Join(conn ConnID, tableID, name string) (Outcome, error) {
	tableID = strings.TrimSpace(tableID)
	name = normalizeName(name)
	if tableID == "" || name == "" {
		return Outcome{}, ErrMissingIdentity
	}
	t, ok := r.tables[tableID]
	if !ok {
		return Outcome{}, ErrTableNotFound
	}
	seating, err := t.join(conn, name)
	if err != nil {
		return Outcome{}, err
	}
	out := r.outcome(t)
	out.Seating = &seating
	return out, nil
}

func (r *Registry) lookup(tableID string) (*Table, error) {
	t, ok := r.tables[tableID]
	if !ok {
		return nil, ErrNotInTable
	}
	return t, nil
}

func (r *Registry) ToggleReady(tableID string, seat int, conn ConnID) (Outcome, error) {
	t, err := r.lookup(tableID)
	if err != nil {
		return Outcome{}, err
	}
	if err := t.ToggleReady(seat, conn); err != nil {
		return Outcome{}, err
	}
	return r.outcome(t), nil
}

func (r *Registry) StartHand(tableID string, conn ConnID, baseBet int64) (Outcome, error) {
	t, err := r.lookup(tableID)
	if err != nil {
		return Outcome{}, err
	}
	if err := t.StartHand(conn, baseBet); err != nil {
		return Outcome{}, err
	}
	return r.outcome(t), nil
}

func (r *Registry) Call(tableID string, seat int, conn ConnID) (Outcome, error) {
	return r.bet(tableID, func(t *Table) (*Hand, error) { return t.Call(seat, conn) })
}

func (r *Registry) Raise(tableID string, seat int, conn ConnID, newBet int64) (Outcome, error) {
	return r.bet(tableID, func(t *Table) (*Hand, error) { return t.Raise(seat, conn, newBet) })
}

func (r *Registry) Fold(tableID string, seat int, conn ConnID) (Outcome, error) {
	return r.bet(tableID, func(t *Table) (*Hand, error) { return t.Fold(seat, conn) })
}

func (r *Registry) DeclareWinner(tableID string, conn ConnID, winner int) (Outcome, error) {
	return r.bet(tableID, func(t *Table) (*Hand, error) { return t.DeclareWinner(conn, winner) })
}

func (r *Registry) bet(tableID string, act func(*Table) (*Hand, error)) (Outcome, error) {
	t, err := r.lookup(tableID)
	if err != nil {
		return Outcome{}, err
	}
	finished, err := act(t)
	if err != nil {
		return Outcome{}, err
	}
	out := r.outcome(t)
	out.Finished = finished
	return out, nil
}

// Settlement computes transfers over the current seat-holders. It does not
// mutate the table.
func (r *Registry) Settlement(tableID string) (Outcome, error) {
	t, err := r.lookup(tableID)
	if err != nil {
		return Outcome{}, err
	}
	s := t.Settlement()
	out := r.outcome(t)
	out.Settlement = &s
	return out, nil
}

// Leave vacates conn's seat, reassigns host and destroys the table once it
// is empty. It is also the connection-loss path (reason LeaveDisconnect).
func (r *Registry) Leave(tableID string, seat int, conn ConnID, reason LeaveReason) (Outcome, error) {
	t, err := r.lookup(tableID)
	if err != nil {
		return Outcome{}, err
	}
	finished := t.leave(seat, conn, reason)
	if t.empty() {
		delete(r.tables, tableID)
		return Outcome{TableID: tableID, Finished: finished, Destroyed: true}, nil
	}
	out := r.outcome(t)
	out.Finished = finished
	return out, nil
}

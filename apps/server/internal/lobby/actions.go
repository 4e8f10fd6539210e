package lobby

import (
	"go.uber.org/zap"

	"homegame/apps/server/internal/codec"
	"homegame/table"
)

func (l *Lobby) dispatch(conn table.ConnID, msg codec.ClientMessage) error {
	switch msg.Type {
	case codec.TypeCreateTable:
		return l.seat(conn, func() (table.Outcome, error) {
			return l.reg.Create(conn, msg.TableID, msg.DisplayName())
		})
	case codec.TypeJoinTable:
		return l.seat(conn, func() (table.Outcome, error) {
			return l.reg.Join(conn, msg.TableID, msg.DisplayName())
		})
	case codec.TypeLeave:
		l.leave(conn, table.LeaveExplicit)
		return nil
	}

	b, ok := l.bindings[conn]
	if !ok {
		return table.ErrNotInTable
	}

	var (
		out table.Outcome
		err error
	)
	switch msg.Type {
	case codec.TypeToggleReady:
		out, err = l.reg.ToggleReady(b.tableID, b.seat, conn)
	case codec.TypeStartHand:
		out, err = l.reg.StartHand(b.tableID, conn, msg.BaseBet.Int64Or(0))
	case codec.TypeCall:
		out, err = l.reg.Call(b.tableID, b.seat, conn)
	case codec.TypeRaise:
		out, err = l.reg.Raise(b.tableID, b.seat, conn, msg.NewBet.Int64Or(0))
	case codec.TypeFold:
		out, err = l.reg.Fold(b.tableID, b.seat, conn)
	case codec.TypeDeclareWinner:
		out, err = l.reg.DeclareWinner(b.tableID, conn, msg.WinnerSeat.IntOr(table.NoSeat))
	case codec.TypeSettlement:
		out, err = l.reg.Settlement(b.tableID)
	default:
		return table.ErrUnknownAction
	}
	if err != nil {
		return err
	}
	l.publish(out)
	return nil
}

// seat runs a create or join for an unbound connection, binds it and sends
// the me notification ahead of the state broadcast.
func (l *Lobby) seat(conn table.ConnID, act func() (table.Outcome, error)) error {
	if _, bound := l.bindings[conn]; bound {
		return table.ErrAlreadySeated
	}
	out, err := act()
	if err != nil {
		return err
	}
	s := out.Seating
	l.bindings[conn] = binding{tableID: s.TableID, seat: s.SeatIndex}
	l.log.Info("player seated",
		zap.String("table", s.TableID),
		zap.String("conn", string(conn)),
		zap.Int("seat", s.SeatIndex),
		zap.Bool("host", s.IsHost),
	)
	l.sink.Deliver(conn, codec.MeMessage(*s))
	l.publish(out)
	return nil
}

// leave unbinds conn and vacates its seat. Unbound connections are a no-op.
func (l *Lobby) leave(conn table.ConnID, reason table.LeaveReason) {
	b, ok := l.bindings[conn]
	if !ok {
		return
	}
	delete(l.bindings, conn)

	out, err := l.reg.Leave(b.tableID, b.seat, conn, reason)
	if err != nil {
		l.log.Debug("leave on missing table", zap.String("table", b.tableID), zap.Error(err))
		return
	}
	l.log.Info("player left",
		zap.String("table", b.tableID),
		zap.String("conn", string(conn)),
		zap.Int("seat", b.seat),
		zap.Bool("disconnect", reason == table.LeaveDisconnect),
	)
	if out.Destroyed {
		l.log.Info("table destroyed", zap.String("table", b.tableID))
		l.dispatchHandEndHooks(out.TableID, out.Finished)
		return
	}
	l.publish(out)
}

// publish fans an outcome out to the table: handFinished before state, and
// settlement results instead of state.
func (l *Lobby) publish(out table.Outcome) {
	if out.Settlement != nil {
		l.broadcast(out.Recipients, codec.SettlementMessage(*out.Settlement))
		return
	}
	if h := out.Finished; h != nil {
		if r := h.Result; r != nil {
			l.log.Info("hand finished",
				zap.String("table", out.TableID),
				zap.Int64("hand", h.ID),
				zap.Int("seat", r.WinnerSeat),
				zap.Int64("pot", r.Pot),
				zap.String("note", r.Note),
			)
		}
		l.broadcast(out.Recipients, codec.HandFinishedMessage(h))
		l.dispatchHandEndHooks(out.TableID, h)
	}
	if out.Snapshot != nil {
		l.broadcast(out.Recipients, codec.StateMessage(*out.Snapshot))
	}
}

func (l *Lobby) broadcast(conns []table.ConnID, msg codec.ServerMessage) {
	for _, c := range conns {
		l.sink.Deliver(c, msg)
	}
}

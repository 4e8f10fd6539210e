package lobby

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"homegame/apps/server/internal/codec"
	"homegame/table"
)

// Sink delivers a notification to one connection. Delivery must not block
// the caller; a slow connection may drop frames.
type Sink interface {
	Deliver(conn table.ConnID, msg codec.ServerMessage)
}

// Lobby serializes every action against the table registry through a single
// actor goroutine and fans the results out to the seated connections.
type Lobby struct {
	reg  *table.Registry
	sink Sink
	log  *zap.Logger

	// Connection -> seat binding established by create/join.
	bindings map[table.ConnID]binding

	events   chan event
	done     chan struct{}
	stopOnce sync.Once

	hooksMu      sync.RWMutex
	handEndHooks []HandEndHook
}

type binding struct {
	tableID string
	seat    int
}

type eventKind int

const (
	eventAction eventKind = iota
	eventDisconnect
)

type event struct {
	kind     eventKind
	conn     table.ConnID
	msg      codec.ClientMessage
	response chan error
}

// HandEndInfo is emitted after a hand resolves and its pot has been
// applied to the ledger.
type HandEndInfo struct {
	TableID string
	Hand    *table.Hand
	EndedAt time.Time
}

// HandEndHook is a post-resolution callback. Hooks run on their own
// goroutine and never block the actor.
type HandEndHook func(info HandEndInfo)

var (
	ErrLobbyClosed = errors.New("lobby closed")

	errInternal = errors.New("Internal error.")
)

// New starts the actor. Stop must be called to release it.
func New(reg *table.Registry, sink Sink, log *zap.Logger) *Lobby {
	if log == nil {
		log = zap.NewNop()
	}
	l := &Lobby{
		reg:      reg,
		sink:     sink,
		log:      log,
		bindings: make(map[table.ConnID]binding),
		events:   make(chan event, 256),
		done:     make(chan struct{}),
	}
	go l.run()
	return l
}

func (l *Lobby) run() {
	for {
		select {
		case e := <-l.events:
			err := l.handleEvent(e)
			if e.response != nil {
				e.response <- err
			}
		case <-l.done:
			l.log.Info("actor stopped")
			return
		}
	}
}

// handleEvent processes one event. Rejections are reported to the
// originating connection before they are returned.
func (l *Lobby) handleEvent(e event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			l.log.Error("action panicked",
				zap.String("conn", string(e.conn)),
				zap.String("type", e.msg.Type),
				zap.Any("panic", r),
			)
			err = errInternal
			l.sendError(e.conn, err)
		}
	}()

	switch e.kind {
	case eventDisconnect:
		l.leave(e.conn, table.LeaveDisconnect)
		return nil
	case eventAction:
		if err := l.dispatch(e.conn, e.msg); err != nil {
			l.log.Debug("action rejected",
				zap.String("conn", string(e.conn)),
				zap.String("type", e.msg.Type),
				zap.Error(err),
			)
			l.sendError(e.conn, err)
			return err
		}
		return nil
	default:
		return fmt.Errorf("unknown event kind: %d", e.kind)
	}
}

// Submit runs one action for conn and waits for it to be applied. The
// returned error has already been delivered to conn as an errorMsg.
func (l *Lobby) Submit(conn table.ConnID, msg codec.ClientMessage) error {
	return l.submit(event{kind: eventAction, conn: conn, msg: msg})
}

// Disconnect force-folds and unseats conn after its transport went away.
func (l *Lobby) Disconnect(conn table.ConnID) error {
	return l.submit(event{kind: eventDisconnect, conn: conn})
}

func (l *Lobby) submit(e event) error {
	e.response = make(chan error, 1)

	select {
	case l.events <- e:
	case <-l.done:
		return ErrLobbyClosed
	}

	select {
	case err := <-e.response:
		return err
	case <-l.done:
		return ErrLobbyClosed
	}
}

// Stop shuts the actor down. Pending submitters get ErrLobbyClosed.
func (l *Lobby) Stop() {
	l.stopOnce.Do(func() {
		close(l.done)
	})
}

// AddHandEndHook registers a post-resolution callback.
func (l *Lobby) AddHandEndHook(hook HandEndHook) {
	if hook == nil {
		return
	}
	l.hooksMu.Lock()
	l.handEndHooks = append(l.handEndHooks, hook)
	l.hooksMu.Unlock()
}

func (l *Lobby) dispatchHandEndHooks(tableID string, h *table.Hand) {
	l.hooksMu.RLock()
	hooks := append([]HandEndHook(nil), l.handEndHooks...)
	l.hooksMu.RUnlock()
	if len(hooks) == 0 || h == nil {
		return
	}

	info := HandEndInfo{TableID: tableID, Hand: h, EndedAt: time.Now().UTC()}
	for _, hook := range hooks {
		go func(cb HandEndHook) {
			defer func() {
				if r := recover(); r != nil {
					l.log.Error("hand end hook panicked", zap.String("table", tableID), zap.Any("panic", r))
				}
			}()
			cb(info)
		}(hook)
	}
}

func (l *Lobby) sendError(conn table.ConnID, err error) {
	msg := errInternal.Error()
	var te *table.Error
	if errors.As(err, &te) {
		msg = te.Message
	}
	l.sink.Deliver(conn, codec.ErrorMessage(msg))
}

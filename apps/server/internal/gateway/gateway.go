package gateway

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"homegame/apps/server/internal/codec"
	"homegame/table"
)

const (
	readLimit    = 65536
	pongWait     = 60 * time.Second
	pingInterval = 30 * time.Second
	writeWait    = 10 * time.Second
	sendBuffer   = 256
)

// Dispatcher receives decoded actions. The lobby implements it.
type Dispatcher interface {
	Submit(conn table.ConnID, msg codec.ClientMessage) error
	Disconnect(conn table.ConnID) error
}

// Connection represents a WebSocket client connection
type Connection struct {
	ID    table.ConnID
	Conn  *websocket.Conn
	Send  chan []byte
	codec codec.Codec

	gateway   *Gateway
	done      chan struct{}
	closeOnce sync.Once
}

// Gateway manages WebSocket connections
type Gateway struct {
	mu          sync.RWMutex
	connections map[table.ConnID]*Connection
	nextConnID  uint64
	dispatcher  Dispatcher
	upgrader    websocket.Upgrader
	log         *zap.Logger
}

// New creates a gateway. allowedOrigin is "*" or a single origin.
func New(allowedOrigin string, log *zap.Logger) *Gateway {
	if log == nil {
		log = zap.NewNop()
	}
	g := &Gateway{
		connections: make(map[table.ConnID]*Connection),
		log:         log,
	}
	g.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     originChecker(allowedOrigin),
	}
	return g
}

// SetDispatcher wires the action consumer. It must be called before the
// gateway serves its first request.
func (g *Gateway) SetDispatcher(d Dispatcher) {
	g.dispatcher = d
}

func originChecker(allowed string) func(r *http.Request) bool {
	allowed = strings.TrimRight(strings.TrimSpace(allowed), "/")
	return func(r *http.Request) bool {
		if allowed == "" || allowed == "*" {
			return true
		}
		origin := r.Header.Get("Origin")
		return origin == "" || strings.EqualFold(origin, allowed)
	}
}

// HandleWebSocket handles WebSocket upgrade and connection
func (g *Gateway) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	cd, err := codec.ByName(r.URL.Query().Get("codec"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.log.Warn("upgrade failed", zap.Error(err))
		return
	}

	g.mu.Lock()
	g.nextConnID++
	c := &Connection{
		ID:      table.ConnID(fmt.Sprintf("conn_%d", g.nextConnID)),
		Conn:    conn,
		Send:    make(chan []byte, sendBuffer),
		codec:   cd,
		gateway: g,
		done:    make(chan struct{}),
	}
	g.connections[c.ID] = c
	total := len(g.connections)
	g.mu.Unlock()

	g.log.Info("client connected", zap.String("conn", string(c.ID)), zap.String("codec", cd.Name()), zap.Int("total", total))

	go c.readPump()
	go c.writePump()
}

func (c *Connection) readPump() {
	defer func() {
		c.gateway.removeConnection(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(readLimit)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.gateway.log.Warn("read error", zap.String("conn", string(c.ID)), zap.Error(err))
			}
			return
		}
		c.handleMessage(message)
	}
}

func (c *Connection) handleMessage(data []byte) {
	msg, err := c.codec.Decode(data)
	if err != nil {
		c.gateway.log.Debug("undecodable frame", zap.String("conn", string(c.ID)), zap.Error(err))
		c.sendError(err)
		return
	}
	if c.gateway.dispatcher == nil {
		c.sendError(errors.New("Server not ready."))
		return
	}
	// Rejections reach the client through the lobby as errorMsg.
	_ = c.gateway.dispatcher.Submit(c.ID, msg)
}

func (c *Connection) sendError(err error) {
	text := err.Error()
	var te *table.Error
	if errors.As(err, &te) {
		text = te.Message
	}
	c.deliver(codec.ErrorMessage(text))
}

// deliver encodes msg with the connection's codec and queues it, dropping it
// if the send buffer is full.
func (c *Connection) deliver(msg codec.ServerMessage) {
	data, err := c.codec.Encode(msg)
	if err != nil {
		c.gateway.log.Error("encode failed", zap.String("conn", string(c.ID)), zap.String("type", msg.Type), zap.Error(err))
		return
	}
	select {
	case <-c.done:
	case c.Send <- data:
	default:
		c.gateway.log.Warn("send buffer full, dropping frame", zap.String("conn", string(c.ID)), zap.String("type", msg.Type))
	}
}

func (c *Connection) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	frameType := websocket.TextMessage
	if c.codec.Binary() {
		frameType = websocket.BinaryMessage
	}

	for {
		select {
		case message := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(frameType, message); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.done:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.Conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
			return
		}
	}
}

func (c *Connection) close() {
	c.closeOnce.Do(func() { close(c.done) })
}

func (g *Gateway) removeConnection(c *Connection) {
	g.mu.Lock()
	delete(g.connections, c.ID)
	total := len(g.connections)
	g.mu.Unlock()
	c.close()

	if g.dispatcher != nil {
		if err := g.dispatcher.Disconnect(c.ID); err != nil {
			g.log.Debug("disconnect not applied", zap.String("conn", string(c.ID)), zap.Error(err))
		}
	}
	g.log.Info("client disconnected", zap.String("conn", string(c.ID)), zap.Int("total", total))
}

// Deliver sends a message to one connection. Unknown connections are
// ignored; they have already gone away.
func (g *Gateway) Deliver(conn table.ConnID, msg codec.ServerMessage) {
	g.mu.RLock()
	c := g.connections[conn]
	g.mu.RUnlock()

	if c != nil {
		c.deliver(msg)
	}
}

// Len is the number of open connections.
func (g *Gateway) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.connections)
}

// CloseAll sends a close frame to every connection. Used on shutdown, since
// hijacked connections outlive http.Server.Shutdown.
func (g *Gateway) CloseAll() {
	g.mu.RLock()
	conns := make([]*Connection, 0, len(g.connections))
	for _, c := range g.connections {
		conns = append(conns, c)
	}
	g.mu.RUnlock()

	for _, c := range conns {
		c.close()
	}
}

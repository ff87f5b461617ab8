package websocket

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"carbon-scribe/impact-ledger/internal/notifications"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
	sendBuffer = 256
)

// Manager streams ledger events to websocket clients. It implements
// notifications.Publisher.
type Manager struct {
	hub      *Hub
	upgrader websocket.Upgrader
	logger   *zap.Logger
	stopOnce sync.Once
}

// Connection represents a WebSocket client connection
type Connection struct {
	ID          string
	CallerID    string
	Conn        *websocket.Conn
	Send        chan notifications.Event
	ConnectedAt time.Time
	IPAddress   string
}

// Hub owns the connection set. Only the run goroutine touches connections
// and closes Send channels.
type Hub struct {
	connections map[*Connection]bool
	broadcast   chan notifications.Event
	register    chan *Connection
	unregister  chan *Connection
	stop        chan struct{}
	done        chan struct{}
	count       atomic.Int64
	logger      *zap.Logger
}

// NewManager creates a new WebSocket manager and starts its hub
func NewManager(logger *zap.Logger) *Manager {
	hub := &Hub{
		connections: make(map[*Connection]bool),
		broadcast:   make(chan notifications.Event, sendBuffer),
		register:    make(chan *Connection),
		unregister:  make(chan *Connection),
		stop:        make(chan struct{}),
		done:        make(chan struct{}),
		logger:      logger,
	}

	go hub.run()

	return &Manager{
		hub:    hub,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// ServeWS is the gin handler for GET /ws/events
func (m *Manager) ServeWS(c *gin.Context) {
	if _, err := m.HandleConnection(c.Writer, c.Request); err != nil {
		m.logger.Warn("Websocket connection rejected", zap.Error(err))
	}
}

// HandleConnection upgrades the request and registers the client
func (m *Manager) HandleConnection(w http.ResponseWriter, r *http.Request) (*Connection, error) {
	conn, err := m.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to upgrade connection: %w", err)
	}

	connection := &Connection{
		ID:          uuid.NewString(),
		CallerID:    r.Header.Get("X-Caller-ID"),
		Conn:        conn,
		Send:        make(chan notifications.Event, sendBuffer),
		ConnectedAt: time.Now(),
		IPAddress:   r.RemoteAddr,
	}

	select {
	case m.hub.register <- connection:
	case <-m.hub.stop:
		conn.Close()
		return nil, fmt.Errorf("websocket manager stopped")
	}

	go m.readPump(connection)
	go m.writePump(connection)

	return connection, nil
}

// Publish broadcasts the event to every connected client. Events are dropped
// when the broadcast buffer is full.
func (m *Manager) Publish(_ context.Context, event notifications.Event) {
	select {
	case <-m.hub.stop:
		return
	default:
	}

	select {
	case m.hub.broadcast <- event:
	default:
		m.logger.Warn("Broadcast channel full, dropping event",
			zap.String("event_type", event.Type),
			zap.String("event_id", event.ID))
	}
}

// GetConnectionCount returns the number of active connections
func (m *Manager) GetConnectionCount() int {
	return int(m.hub.count.Load())
}

// Close disconnects all clients and stops the hub
func (m *Manager) Close() {
	m.stopOnce.Do(func() {
		close(m.hub.stop)
		<-m.hub.done
	})
}

// readPump only watches for the client going away; inbound messages are ignored
func (m *Manager) readPump(conn *Connection) {
	defer func() {
		select {
		case m.hub.unregister <- conn:
		case <-m.hub.done:
		}
		conn.Conn.Close()
	}()

	conn.Conn.SetReadLimit(512)
	conn.Conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.Conn.SetPongHandler(func(string) error {
		conn.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := conn.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				m.logger.Debug("Websocket read error", zap.String("connection_id", conn.ID), zap.Error(err))
			}
			return
		}
	}
}

// writePump pumps messages from the hub to the WebSocket connection
func (m *Manager) writePump(conn *Connection) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Conn.Close()
	}()

	for {
		select {
		case event, ok := <-conn.Send:
			conn.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := conn.Conn.WriteJSON(event); err != nil {
				return
			}

		case <-ticker.C:
			conn.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// run runs the hub in its own goroutine
func (h *Hub) run() {
	defer close(h.done)
	for {
		select {
		case conn := <-h.register:
			h.connections[conn] = true
			h.count.Add(1)
			h.logger.Debug("Connection registered",
				zap.String("connection_id", conn.ID),
				zap.String("caller", conn.CallerID))

		case conn := <-h.unregister:
			h.remove(conn)

		case event := <-h.broadcast:
			for conn := range h.connections {
				select {
				case conn.Send <- event:
				default:
					// slow consumer
					h.remove(conn)
				}
			}

		case <-h.stop:
			for conn := range h.connections {
				h.remove(conn)
			}
			return
		}
	}
}

func (h *Hub) remove(conn *Connection) {
	if _, ok := h.connections[conn]; !ok {
		return
	}
	delete(h.connections, conn)
	close(conn.Send)
	h.count.Add(-1)
	h.logger.Debug("Connection unregistered", zap.String("connection_id", conn.ID))
}

package api

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/danjglick/scorefirst-sub000/internal/game"

	"github.com/gorilla/websocket"
)

const (
	// MaxWSConnectionsTotal is the maximum number of WebSocket connections allowed
	MaxWSConnectionsTotal = 500

	// MaxWSConnectionsPerIP is the maximum WebSocket connections per IP
	MaxWSConnectionsPerIP = 10

	// BroadcastInterval paces game:state frames (10 Hz)
	BroadcastInterval = 100 * time.Millisecond

	wsWriteWait      = 2 * time.Second
	wsMaxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if IsAllowedOrigin(origin) {
			return true
		}
		log.Printf("⚠️ WebSocket connection rejected from origin: %s", origin)
		RecordConnectionRejected("origin")
		return false
	},
}

// wsClient is one viewer/controller attached to a session
type wsClient struct {
	conn      *websocket.Conn
	ip        string
	sessionID string
}

// sessionFrame is a message for every client of one session. closeAfter
// detaches those clients once the frame is written.
type sessionFrame struct {
	sessionID  string
	payload    []byte
	closeAfter bool
}

// wsCommand is a pointer event sent by the client
type wsCommand struct {
	Type string  `json:"type"` // "press", "drag" or "release"
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

// WebSocketHub fans session snapshots out to the clients attached to them
// and feeds their pointer input back into the engines. All writes happen on
// the Run goroutine.
type WebSocketHub struct {
	sessions SessionAPI

	clients    map[*websocket.Conn]*wsClient
	broadcast  chan sessionFrame
	register   chan *wsClient
	unregister chan *websocket.Conn
	mu         sync.RWMutex

	stopChan chan struct{}
	stopOnce sync.Once

	wsLimiter *WebSocketRateLimiter
}

// NewWebSocketHub creates a hub bound to the given sessions
func NewWebSocketHub(sessions SessionAPI) *WebSocketHub {
	return &WebSocketHub{
		sessions:   sessions,
		clients:    make(map[*websocket.Conn]*wsClient),
		broadcast:  make(chan sessionFrame, 256),
		register:   make(chan *wsClient),
		unregister: make(chan *websocket.Conn),
		stopChan:   make(chan struct{}),
		wsLimiter:  NewWebSocketRateLimiter(MaxWSConnectionsPerIP),
	}
}

// Run serves register/unregister/broadcast until Stop is called
func (h *WebSocketHub) Run() {
	for {
		select {
		case <-h.stopChan:
			h.mu.Lock()
			for conn, client := range h.clients {
				h.wsLimiter.Release(client.ip)
				conn.Close()
				delete(h.clients, conn)
			}
			h.mu.Unlock()
			UpdateWSConnections(0)
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.conn] = client
			count := len(h.clients)
			h.mu.Unlock()

			log.Printf("📱 Client %s attached to %s (%d total)", client.ip, client.sessionID, count)
			UpdateWSConnections(count)

		case conn := <-h.unregister:
			h.drop(conn)

		case frame := <-h.broadcast:
			h.deliver(frame)
		}
	}
}

func (h *WebSocketHub) deliver(frame sessionFrame) {
	var dead []*websocket.Conn

	h.mu.RLock()
	for conn, client := range h.clients {
		if client.sessionID != frame.sessionID {
			continue
		}
		conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		if err := conn.WriteMessage(websocket.TextMessage, frame.payload); err != nil || frame.closeAfter {
			dead = append(dead, conn)
			continue
		}
		IncrementWSMessages()
	}
	h.mu.RUnlock()

	for _, conn := range dead {
		h.drop(conn)
	}
}

func (h *WebSocketHub) drop(conn *websocket.Conn) {
	h.mu.Lock()
	client, ok := h.clients[conn]
	if ok {
		h.wsLimiter.Release(client.ip)
		delete(h.clients, conn)
		conn.Close()
	}
	count := len(h.clients)
	h.mu.Unlock()

	if ok {
		log.Printf("📱 Client detached from %s (%d remaining)", client.sessionID, count)
		UpdateWSConnections(count)
	}
}

// Stop closes every connection and ends Run and the broadcast loop
func (h *WebSocketHub) Stop() {
	h.stopOnce.Do(func() {
		close(h.stopChan)
	})
}

// Broadcast queues an event for every client of sessionID
func (h *WebSocketHub) Broadcast(sessionID, event string, data interface{}) {
	h.queue(sessionID, event, data, false)
}

func (h *WebSocketHub) queue(sessionID, event string, data interface{}, closeAfter bool) {
	jsonBytes, err := json.Marshal(map[string]interface{}{
		"event": event,
		"data":  data,
	})
	if err != nil {
		return
	}

	select {
	case h.broadcast <- sessionFrame{sessionID: sessionID, payload: jsonBytes, closeAfter: closeAfter}:
	default:
		// Channel full, skip (backpressure)
	}
}

// ClientCount returns the number of connected clients
func (h *WebSocketHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// watchedSessions lists the distinct sessions with at least one client
func (h *WebSocketHub) watchedSessions() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	seen := make(map[string]struct{}, len(h.clients))
	ids := make([]string, 0, len(h.clients))
	for _, c := range h.clients {
		if _, ok := seen[c.sessionID]; ok {
			continue
		}
		seen[c.sessionID] = struct{}{}
		ids = append(ids, c.sessionID)
	}
	return ids
}

// broadcastSnapshots queues one game:state frame per watched session.
// Clients of a session that no longer exists get session:closed and are
// detached.
func (h *WebSocketHub) broadcastSnapshots() {
	for _, id := range h.watchedSessions() {
		e, err := h.sessions.Get(id)
		if err != nil {
			h.queue(id, "session:closed", map[string]string{"id": id}, true)
			continue
		}
		h.Broadcast(id, "game:state", e.Snapshot())
	}
}

// StartBroadcastLoop starts broadcasting session snapshots periodically
func (h *WebSocketHub) StartBroadcastLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-h.stopChan:
				return
			case <-ticker.C:
				h.broadcastSnapshots()
			}
		}
	}()
}

// HandleWebSocket attaches a client to ?session=<id> with DoS protection
func (h *WebSocketHub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session")
	if _, err := h.sessions.Get(sessionID); err != nil {
		writeSessionError(w, err)
		return
	}

	ip := GetClientIP(r)

	if total := h.ClientCount(); total >= MaxWSConnectionsTotal {
		log.Printf("⚠️ WebSocket connection rejected: total limit reached (%d)", total)
		RecordConnectionRejected("ws_total_limit")
		writeError(w, "too many connections", http.StatusServiceUnavailable)
		return
	}

	if !h.wsLimiter.Allow(ip) {
		log.Printf("⚠️ WebSocket connection rejected from %s: per-IP limit reached", ip)
		RecordConnectionRejected("ws_ip_limit")
		writeError(w, "too many connections from your IP", http.StatusTooManyRequests)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		h.wsLimiter.Release(ip)
		return
	}
	conn.SetReadLimit(wsMaxMessageSize)

	select {
	case h.register <- &wsClient{conn: conn, ip: ip, sessionID: sessionID}:
	case <-h.stopChan:
		h.wsLimiter.Release(ip)
		conn.Close()
		return
	}

	go h.readLoop(conn, sessionID)
}

func (h *WebSocketHub) readLoop(conn *websocket.Conn, sessionID string) {
	defer func() {
		select {
		case h.unregister <- conn:
		case <-h.stopChan:
		}
	}()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var cmd wsCommand
		if err := json.Unmarshal(message, &cmd); err != nil {
			continue
		}

		e, err := h.sessions.Get(sessionID)
		if err != nil {
			return
		}
		applyCommand(e, cmd)
	}
}

func applyCommand(e *game.Engine, cmd wsCommand) {
	switch cmd.Type {
	case "press":
		e.PressStart(game.NewVec2(cmd.X, cmd.Y))
	case "drag":
		e.DragMove(game.NewVec2(cmd.X, cmd.Y))
	case "release":
		e.PressEnd()
	}
}

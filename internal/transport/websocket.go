package transport

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"lightcycle/internal/arena"
	"lightcycle/internal/config"
	"lightcycle/internal/observability"
)

const (
	// MaxConnectionsTotal is the maximum number of simultaneous WebSocket
	// connections the process will accept.
	MaxConnectionsTotal = 500

	// MaxConnectionsPerIP bounds how many of those one IP may hold, to blunt
	// a single attacker opening unbounded sockets.
	MaxConnectionsPerIP = 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if IsAllowedOrigin(origin) {
			return true
		}
		log.Printf("websocket connection rejected from origin: %s", origin)
		observability.RecordConnectionRejected("origin")
		return false
	},
}

// AllowedOrigins is the set of origins permitted to open a WebSocket
// connection, beyond localhost (always allowed for local development).
var AllowedOrigins []string

// IsAllowedOrigin reports whether origin may open a WebSocket connection.
func IsAllowedOrigin(origin string) bool {
	if origin == "" {
		return false
	}
	if strings.HasPrefix(origin, "http://localhost") || strings.HasPrefix(origin, "http://127.0.0.1") {
		return true
	}
	for _, allowed := range AllowedOrigins {
		if origin == allowed {
			return true
		}
	}
	return false
}

// inboundMessage is the wire envelope for every inbound event.
type inboundMessage struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

// outboundMessage is the wire envelope for every outbound event.
type outboundMessage struct {
	Event   string `json:"event"`
	Payload any    `json:"payload"`
}

// wsConn is one connected socket, bound to a userID and the identity it
// announced at connect time (spec.md §6 "Authentication").
type wsConn struct {
	conn   *websocket.Conn
	ip     string
	mu     sync.Mutex // serializes concurrent writes from Send and the read loop's error paths
	userID string
	name   string
	color  arena.Color
}

// Send implements arena.ClientPort by writing one JSON-encoded frame. A
// write error is returned to the caller (so a delta watermark isn't advanced
// past segments that were never actually delivered); the dead socket itself
// is cleaned up by its own read loop.
func (c *wsConn) Send(event string, payload any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.conn.WriteJSON(outboundMessage{Event: event, Payload: payload}); err != nil {
		return err
	}
	observability.IncrementWSMessages()
	return nil
}

// Hub owns every live WebSocket connection and routes inbound events into
// the engine, and is itself the thing the engine calls back into via
// arena.ClientPort (one *wsConn per player).
type Hub struct {
	engine  *arena.Engine
	session *SessionStore
	timing  config.TimingConfig

	connLimiter *ConnLimiter

	mu    sync.RWMutex
	conns map[string]*wsConn // userID -> connection
}

// NewHub constructs a Hub bound to engine.
func NewHub(engine *arena.Engine, timing config.TimingConfig) *Hub {
	return &Hub{
		engine:      engine,
		session:     NewSessionStore(),
		timing:      timing,
		connLimiter: NewConnLimiter(MaxConnectionsPerIP),
		conns:       make(map[string]*wsConn),
	}
}

// ConnectionCount returns the number of currently open sockets.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// ServeHTTP upgrades the request to a WebSocket, runs the connect-time
// handshake (spec.md §6 "Authentication" and "Connection lifecycle"), and
// services the connection until the client disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ip := GetClientIP(r)

	if h.ConnectionCount() >= MaxConnectionsTotal {
		observability.RecordConnectionRejected("ws_total_limit")
		http.Error(w, "too many connections", http.StatusServiceUnavailable)
		return
	}
	if !h.connLimiter.Allow(ip) {
		observability.RecordConnectionRejected("ws_ip_limit")
		http.Error(w, "too many connections from your IP", http.StatusTooManyRequests)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.connLimiter.Release(ip)
		return
	}

	c := &wsConn{conn: conn, ip: ip}

	userID, token, ok := h.resolveIdentity(r)
	if !ok {
		c.conn.WriteJSON(outboundMessage{Event: "error", Payload: "invalid handshake"})
		c.conn.Close()
		h.connLimiter.Release(ip)
		return
	}
	c.userID = userID
	c.name = r.URL.Query().Get("username")
	if c.name == "" {
		c.name = "player-" + userID[:6]
	}
	c.color = parseColor(r.URL.Query().Get("color"))

	h.mu.Lock()
	h.conns[userID] = c
	h.mu.Unlock()
	h.session.ClearPendingDeletion(userID)

	c.Send(arena.EventSession, token)
	h.readLoop(c)
}

// resolveIdentity implements the reconnect-or-new-session handshake: an
// existing, valid session token reconnects the same player; anything else
// mints a fresh one. Rejects only a token that is present but forged.
func (h *Hub) resolveIdentity(r *http.Request) (userID, token string, ok bool) {
	if existing := r.URL.Query().Get("session"); existing != "" {
		if id, valid := h.session.Verify(existing); valid {
			return id, existing, true
		}
		return "", "", false
	}
	userID, token = h.session.Mint()
	return userID, token, true
}

func parseColor(csv string) arena.Color {
	var r, g, b float64
	if csv == "" {
		return arena.Color{R: 0.5, G: 0.5, B: 0.5}
	}
	fmt.Sscanf(csv, "%g,%g,%g", &r, &g, &b)
	return arena.Color{R: r, G: g, B: b}
}

func (h *Hub) readLoop(c *wsConn) {
	defer h.onClose(c)

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var msg inboundMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		h.handle(c, msg)
	}
}

func (h *Hub) handle(c *wsConn, msg inboundMessage) {
	switch msg.Event {
	case "join":
		h.engine.Join(c.userID, c.name, c.color, c)
	case "start":
		h.engine.StartRound()
	case "input":
		var dir arena.Direction
		if err := json.Unmarshal(msg.Payload, &dir); err != nil {
			return
		}
		h.engine.Input(c.userID, dir, time.Now().UnixMilli())
	case "redraw":
		h.engine.Redraw(c.userID)
	case "heartbeat":
		h.session.ClearPendingDeletion(c.userID)
	case "disconnect":
		h.scheduleRemoval(c.userID)
	}
}

func (h *Hub) onClose(c *wsConn) {
	h.connLimiter.Release(c.ip)
	if c.userID == "" {
		return
	}

	h.mu.Lock()
	if h.conns[c.userID] == c {
		delete(h.conns, c.userID)
	}
	h.mu.Unlock()

	h.engine.Disconnect(c.userID)
	h.scheduleRemoval(c.userID)
}

// scheduleRemoval marks userID pendingDeletion (spec.md §5): unless a
// reconnect or heartbeat clears it first, the player is removed from the
// engine after SESSION_TIMEOUT.
func (h *Hub) scheduleRemoval(userID string) {
	timeout := time.Duration(h.timing.SessionTimeoutMs) * time.Millisecond
	h.session.MarkPendingDeletion(userID, timeout, func(id string) {
		h.engine.RemovePlayer(id)
	})
}

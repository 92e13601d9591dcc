package api

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/ericogr/encounters/internal/constants"
	"github.com/ericogr/encounters/internal/game"
	"github.com/ericogr/encounters/internal/logging"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Stream event types.
const (
	EventSessionStarted = "session_started"
	EventTurnResolved   = "turn_resolved"
	EventSessionEnded   = "session_ended"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 25 * time.Second
)

// Event is one message on the lifecycle stream.
type Event struct {
	Type     string         `json:"type"`
	Snapshot *game.Snapshot `json:"snapshot"`
	Outcome  *game.Outcome  `json:"outcome,omitempty"`
	At       time.Time      `json:"at"`
}

var upgrader = websocket.Upgrader{
	// Spectator stream; any origin may read it.
	CheckOrigin: func(r *http.Request) bool { return true },
}

type subscriber struct {
	id   string
	send chan []byte
}

// Hub fans session lifecycle events out to WebSocket subscribers. A
// subscriber whose buffer is full is dropped instead of blocking the
// session that produced the event.
type Hub struct {
	mu     sync.Mutex
	subs   map[string]*subscriber
	buffer int
}

func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = 64
	}
	return &Hub{subs: make(map[string]*subscriber), buffer: buffer}
}

func (h *Hub) OnSessionStarted(snap *game.Snapshot) {
	h.publish(Event{Type: EventSessionStarted, Snapshot: snap})
}

func (h *Hub) OnTurnResolved(snap *game.Snapshot) {
	h.publish(Event{Type: EventTurnResolved, Snapshot: snap})
}

func (h *Hub) OnSessionEnded(snap *game.Snapshot, outcome *game.Outcome) {
	h.publish(Event{Type: EventSessionEnded, Snapshot: snap, Outcome: outcome})
}

// Subscribers returns the number of connected subscribers.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

func (h *Hub) subscribe() *subscriber {
	sub := &subscriber{id: uuid.NewString(), send: make(chan []byte, h.buffer)}
	h.mu.Lock()
	h.subs[sub.id] = sub
	h.mu.Unlock()
	return sub
}

// unsubscribe closes the subscriber's channel once, whoever gets there first.
func (h *Hub) unsubscribe(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if sub, ok := h.subs[id]; ok {
		delete(h.subs, id)
		close(sub.send)
	}
}

func (h *Hub) publish(ev Event) {
	if ev.At.IsZero() {
		ev.At = time.Now()
	}
	msg, err := json.Marshal(ev)
	if err != nil {
		logging.Error("failed to encode stream event", err, logging.Fields{constants.LogFieldState: ev.Type})
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, sub := range h.subs {
		select {
		case sub.send <- msg:
		default:
			delete(h.subs, id)
			close(sub.send)
			logging.Warn("dropping slow stream subscriber", logging.Fields{constants.LogFieldSubscriber: id})
		}
	}
}

// Close disconnects every subscriber.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, sub := range h.subs {
		delete(h.subs, id)
		close(sub.send)
	}
}

// Serve upgrades the request and streams events until the client goes away
// or is dropped.
func (h *Hub) Serve(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logging.Warn(constants.ErrStreamUpgradeFailed, logging.Fields{"error": err.Error()})
		return
	}
	sub := h.subscribe()
	logging.Debug("stream subscriber connected", logging.Fields{constants.LogFieldSubscriber: sub.id})

	// Reads only detect the close; clients have nothing to send.
	go func() {
		defer h.unsubscribe(sub.id)
		conn.SetReadLimit(1 << 10)
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	h.writeLoop(conn, sub)
}

func (h *Hub) writeLoop(conn *websocket.Conn, sub *subscriber) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
		logging.Debug("stream subscriber disconnected", logging.Fields{constants.LogFieldSubscriber: sub.id})
	}()
	for {
		select {
		case msg, ok := <-sub.send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				h.unsubscribe(sub.id)
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.unsubscribe(sub.id)
				return
			}
		}
	}
}

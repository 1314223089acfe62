package notify

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"AfriPulse/internal/domain/models"
	domrepo "AfriPulse/internal/domain/repository"
	applogger "AfriPulse/pkg/logger"
)

// RefreshEvent is pushed to every connected client when a refresh cycle
// publishes a new snapshot.
type RefreshEvent struct {
	GeneratedAt time.Time `json:"generated_at"`
	FromYear    int       `json:"from_year"`
	ToYear      int       `json:"to_year"`
	Records     int       `json:"records"`
	ClusterK    int       `json:"cluster_k"`
	TookMS      int64     `json:"took_ms"`
}

// Hub fans refresh events out to websocket subscribers. Slow clients are
// dropped rather than allowed to stall the broadcast.
type Hub struct {
	l        *applogger.Logger
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}
}

type client struct {
	conn *websocket.Conn
	send chan RefreshEvent
}

const clientSendBuffer = 8

func NewHub(l *applogger.Logger) *Hub {
	return &Hub{
		l: l,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		clients: make(map[*client]struct{}),
	}
}

// ServeWS upgrades the request and subscribes the connection.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	c := &client{conn: conn, send: make(chan RefreshEvent, clientSendBuffer)}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	count := len(h.clients)
	h.mu.Unlock()
	h.l.Info("refresh subscriber connected", applogger.Int("subscribers", count))

	go h.writeLoop(c)
	go h.readLoop(c)
	return nil
}

// NotifyRefresh implements domain.repository.RefreshNotifier.
func (h *Hub) NotifyRefresh(snap *models.Snapshot, took time.Duration) {
	ev := RefreshEvent{
		GeneratedAt: snap.GeneratedAt,
		FromYear:    snap.FromYear,
		ToYear:      snap.ToYear,
		Records:     len(snap.Records),
		TookMS:      took.Milliseconds(),
	}
	if snap.Clusters != nil {
		ev.ClusterK = snap.Clusters.K
	}

	h.mu.Lock()
	for c := range h.clients {
		select {
		case c.send <- ev:
		default:
			// backed-up client, disconnect it
			delete(h.clients, c)
			close(c.send)
		}
	}
	h.mu.Unlock()
}

// Close disconnects all subscribers.
func (h *Hub) Close() {
	h.mu.Lock()
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

func (h *Hub) writeLoop(c *client) {
	defer c.conn.Close()
	for ev := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		if err := c.conn.WriteJSON(ev); err != nil {
			h.drop(c)
			return
		}
	}
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseGoingAway, ""),
		time.Now().Add(time.Second))
}

// readLoop discards inbound frames; its job is detecting disconnects.
func (h *Hub) readLoop(c *client) {
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			h.drop(c)
			return
		}
	}
}

func (h *Hub) drop(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

var _ domrepo.RefreshNotifier = (*Hub)(nil)

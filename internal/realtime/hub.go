package realtime

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// Hub keeps the live sessions of every user and pushes task events to them.
type Hub struct {
	mu    sync.RWMutex
	users map[int64]map[*Client]struct{}
	log   logrus.FieldLogger
}

func NewHub(log logrus.FieldLogger) *Hub {
	return &Hub{
		users: make(map[int64]map[*Client]struct{}),
		log:   log,
	}
}

// Serve registers conn as a session of userID and runs its pumps until the
// connection goes away.
func (h *Hub) Serve(conn *websocket.Conn, userID int64) *Client {
	c := newClient(h, userID, conn)
	h.Register(c)
	go c.writePump()
	go c.readPump()
	return c
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.users[c.UserID] == nil {
		h.users[c.UserID] = make(map[*Client]struct{})
	}
	h.users[c.UserID][c] = struct{}{}
}

func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.remove(c)
}

// remove needs h.mu held for writing.
func (h *Hub) remove(c *Client) {
	conns, ok := h.users[c.UserID]
	if !ok {
		return
	}
	if _, ok := conns[c]; !ok {
		return
	}
	delete(conns, c)
	close(c.send)
	if len(conns) == 0 {
		delete(h.users, c.UserID)
	}
}

// SendToUsers delivers payload as JSON to every session of the given users.
// A session whose buffer is full is dropped.
func (h *Hub) SendToUsers(userIDs []int64, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		h.log.WithError(err).Error("[ws][send][err] marshal payload")
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, id := range userIDs {
		for c := range h.users[id] {
			select {
			case c.send <- data:
			default:
				h.log.Warnf("[ws][send][drop] user=%d client=%s", id, c.ID)
				h.remove(c)
			}
		}
	}
}

// Sessions counts the live sessions of userID.
func (h *Hub) Sessions(userID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.users[userID])
}

package session

import (
	"sync"

	"github.com/gorilla/websocket"

	"studyroom/internal/models"
)

// Client wraps one websocket connection. A client belongs to at most one room.
type Client struct {
	ID   string
	Conn *websocket.Conn
	mu   sync.Mutex
	user *models.User
	hook func(models.WSFrame)
}

func NewClient(id string, conn *websocket.Conn) *Client {
	return &Client{ID: id, Conn: conn}
}

// SetUser records the identity supplied at join time.
func (c *Client) SetUser(u models.User) {
	c.mu.Lock()
	c.user = &u
	c.mu.Unlock()
}

// User returns the join identity, or false before any join.
func (c *Client) User() (models.User, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.user == nil {
		return models.User{}, false
	}
	return *c.user, true
}

// SetSendHook replaces the default WebSocket sender (used in tests).
func (c *Client) SetSendHook(fn func(models.WSFrame)) {
	c.mu.Lock()
	c.hook = fn
	c.mu.Unlock()
}

func (c *Client) Send(frame models.WSFrame) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.hook != nil {
		c.hook(frame)
		return
	}
	if c.Conn == nil {
		return
	}
	_ = c.Conn.WriteJSON(frame)
}

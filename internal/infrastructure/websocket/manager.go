package websocket

import (
	"context"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/DanielDss030225/mindfulness-sub001/pkg/logger"
)

// Client is one WebSocket connection for a user. A user may hold several
// clients (tabs, devices); fan-out goes to all of them.
type Client struct {
	UserID string
	Conn   *websocket.Conn
	Send   chan []byte

	// OnMessage handles inbound frames (focus changes, read receipts). May
	// be nil for push-only clients.
	OnMessage func(data []byte)
}

// Manager tracks every active connection and fans messages out per user.
type Manager struct {
	clients    map[string]map[*Client]struct{}
	Register   chan *Client
	Unregister chan *Client
	mutex      sync.RWMutex
}

func NewManager() *Manager {
	return &Manager{
		clients:    make(map[string]map[*Client]struct{}),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
	}
}

// Start runs the manager's main loop in a goroutine until ctx is cancelled.
func (m *Manager) Start(ctx context.Context) {
	go func() {
		for {
			select {
			case client := <-m.Register:
				m.mutex.Lock()
				if m.clients[client.UserID] == nil {
					m.clients[client.UserID] = make(map[*Client]struct{})
				}
				m.clients[client.UserID][client] = struct{}{}
				m.mutex.Unlock()
				logger.Debug("Client registered: %s", client.UserID)

			case client := <-m.Unregister:
				m.mutex.Lock()
				if conns, ok := m.clients[client.UserID]; ok {
					if _, ok := conns[client]; ok {
						delete(conns, client)
						close(client.Send)
						if len(conns) == 0 {
							delete(m.clients, client.UserID)
						}
					}
				}
				m.mutex.Unlock()
				logger.Debug("Client unregistered: %s", client.UserID)

			case <-ctx.Done():
				return
			}
		}
	}()
}

// SendToUser delivers a message to every connection of the user. Slow
// consumers are skipped rather than blocking the caller.
func (m *Manager) SendToUser(userID string, message []byte) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	for client := range m.clients[userID] {
		select {
		case client.Send <- message:
		default:
			logger.Warn("Dropping message for slow client of user %s", userID)
		}
	}
}

// IsConnected reports whether the user has at least one open connection.
func (m *Manager) IsConnected(userID string) bool {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.clients[userID]) > 0
}

// ReadPump reads inbound frames until the connection drops.
func (c *Client) ReadPump(m *Manager) {
	defer func() {
		m.Unregister <- c
		c.Conn.Close()
	}()

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Warn("WebSocket read error for user %s: %v", c.UserID, err)
			}
			break
		}
		if c.OnMessage != nil {
			c.OnMessage(message)
		}
	}
}

// WritePump drains the send channel into the connection.
func (c *Client) WritePump() {
	defer c.Conn.Close()

	for {
		message, ok := <-c.Send
		if !ok {
			c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}

		if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
			logger.Warn("WebSocket write error for user %s: %v", c.UserID, err)
			return
		}
	}
}

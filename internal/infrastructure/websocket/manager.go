package websocket

import (
	"context"
	"log"
	"sync"

	"github.com/gorilla/websocket"
)

// Client represents a connected presentation-layer instance.
type Client struct {
	UserID         string
	Conn           *websocket.Conn
	Send           chan []byte
	ActiveChatRoom string

	mu           sync.Mutex
	cancelStream func()
}

// SwapStreamCancel stores the cancel handle for the client's live message
// subscription and returns the previous one, if any. Call sites cancel the
// old subscription before starting a new one.
func (c *Client) SwapStreamCancel(cancel func()) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	prev := c.cancelStream
	c.cancelStream = cancel
	return prev
}

// CancelStream cancels the client's live subscription, if one is active.
func (c *Client) CancelStream() {
	c.mu.Lock()
	cancel := c.cancelStream
	c.cancelStream = nil
	c.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Manager tracks all active connections and per-room membership.
type Manager struct {
	clients         map[string]*Client
	chatRoomClients map[string]map[string]bool
	Register        chan *Client
	Unregister      chan *Client
	mutex           sync.RWMutex
}

func NewManager() *Manager {
	return &Manager{
		clients:         make(map[string]*Client),
		chatRoomClients: make(map[string]map[string]bool),
		Register:        make(chan *Client),
		Unregister:      make(chan *Client),
	}
}

// Start runs the manager's main loop in a goroutine.
func (m *Manager) Start(ctx context.Context) {
	go func() {
		for {
			select {
			case client := <-m.Register:
				m.mutex.Lock()
				m.clients[client.UserID] = client
				m.mutex.Unlock()
				log.Printf("Client registered: %s", client.UserID)

			case client := <-m.Unregister:
				m.removeClient(client)
				log.Printf("Client unregistered: %s", client.UserID)

			case <-ctx.Done():
				return
			}
		}
	}()
}

func (m *Manager) removeClient(client *Client) {
	client.CancelStream()

	m.mutex.Lock()
	defer m.mutex.Unlock()

	if existing, ok := m.clients[client.UserID]; ok && existing == client {
		delete(m.clients, client.UserID)
		close(client.Send)
	}
	for chatID, members := range m.chatRoomClients {
		delete(members, client.UserID)
		if len(members) == 0 {
			delete(m.chatRoomClients, chatID)
		}
	}
}

// RemoveClient drops the connection for a user id, e.g. when its send
// buffer is full.
func (m *Manager) RemoveClient(userID string) {
	m.mutex.RLock()
	client, ok := m.clients[userID]
	m.mutex.RUnlock()
	if ok {
		m.removeClient(client)
	}
}

// AddClientToChatRoom marks a user as viewing a chat room.
func (m *Manager) AddClientToChatRoom(chatID, userID string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.chatRoomClients[chatID] == nil {
		m.chatRoomClients[chatID] = make(map[string]bool)
	}
	m.chatRoomClients[chatID][userID] = true
}

// RemoveClientFromChatRoom marks a user as no longer viewing a chat room.
func (m *Manager) RemoveClientFromChatRoom(chatID, userID string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if members, ok := m.chatRoomClients[chatID]; ok {
		delete(members, userID)
		if len(members) == 0 {
			delete(m.chatRoomClients, chatID)
		}
	}
}

// SendToUser sends a message to a specific connected user.
func (m *Manager) SendToUser(userID string, message []byte) {
	m.mutex.RLock()
	client, ok := m.clients[userID]
	m.mutex.RUnlock()

	if !ok {
		return
	}

	select {
	case client.Send <- message:
	default:
		log.Printf("WebSocket: Client %s send channel full, dropping connection", userID)
		m.removeClient(client)
	}
}

// SendToChatRoom sends a message to every user viewing the chat room,
// optionally excluding one user id.
func (m *Manager) SendToChatRoom(chatID string, message []byte, excludeUserID string) {
	m.mutex.RLock()
	var targets []*Client
	for userID := range m.chatRoomClients[chatID] {
		if userID == excludeUserID {
			continue
		}
		if client, ok := m.clients[userID]; ok {
			targets = append(targets, client)
		}
	}
	m.mutex.RUnlock()

	for _, client := range targets {
		select {
		case client.Send <- message:
		default:
			m.removeClient(client)
		}
	}
}

// ReadPump reads messages from the connection and hands them to onMessage.
// It unregisters the client when the connection drops.
func (c *Client) ReadPump(m *Manager, onMessage func(*Client, []byte)) {
	defer func() {
		m.Unregister <- c
		c.Conn.Close()
	}()

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("error: %v", err)
			}
			break
		}

		if onMessage != nil {
			onMessage(c, message)
		}
	}
}

// WritePump sends queued messages to the connection.
func (c *Client) WritePump() {
	defer c.Conn.Close()

	for {
		message, ok := <-c.Send
		if !ok {
			c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}

		err := c.Conn.WriteMessage(websocket.TextMessage, message)
		if err != nil {
			log.Printf("error: %v", err)
			return
		}
	}
}

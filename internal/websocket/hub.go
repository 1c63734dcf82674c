package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// EventsChannel is the redis channel every instance relays to its local clients.
const EventsChannel = "goodfit:events"

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Event is pushed to connected users. Payload is forwarded untouched.
type Event struct {
	Type           string          `json:"type"` // match, message, typing, live_update
	UserIDs        []uint          `json:"user_ids,omitempty"`
	ConversationID uint            `json:"conversation_id,omitempty"`
	Payload        json.RawMessage `json:"payload,omitempty"`
}

// JoinCheck reports whether userID may listen to a conversation.
type JoinCheck func(ctx context.Context, userID, conversationID uint) bool

type Hub struct {
	mu         sync.RWMutex
	clients    map[uint]map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	canJoin    JoinCheck
}

type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	userID uint

	mu             sync.Mutex
	conversationID uint
}

type clientMessage struct {
	Type           string `json:"type"`
	ConversationID uint   `json:"conversation_id"`
}

type typingMessage struct {
	Type           string `json:"type"`
	ConversationID uint   `json:"conversation_id"`
	UserID         uint   `json:"user_id"`
	IsTyping       bool   `json:"is_typing"`
}

// NewHub creates a hub. Clients may only join conversations canJoin accepts.
func NewHub(canJoin JoinCheck) *Hub {
	return &Hub{
		clients:    make(map[uint]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		canJoin:    canJoin,
	}
}

// Run serves registrations until ctx is cancelled, then closes every
// connection. A hub cannot be restarted.
func (h *Hub) Run(ctx context.Context) {
	defer h.shutdown()
	for {
		select {
		case <-ctx.Done():
			return
		case client := <-h.register:
			h.mu.Lock()
			if h.clients[client.userID] == nil {
				h.clients[client.userID] = make(map[*Client]struct{})
			}
			h.clients[client.userID][client] = struct{}{}
			h.mu.Unlock()
			logrus.WithField("user_id", client.userID).Debug("websocket client connected")

		case client := <-h.unregister:
			h.mu.Lock()
			h.remove(client)
			h.mu.Unlock()
			logrus.WithField("user_id", client.userID).Debug("websocket client disconnected")
		}
	}
}

// shutdown closes all clients and unblocks anyone waiting to register or
// unregister.
func (h *Hub) shutdown() {
	close(h.done)
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, conns := range h.clients {
		for client := range conns {
			h.remove(client)
		}
	}
}

// remove must be called with h.mu held.
func (h *Hub) remove(client *Client) {
	conns, ok := h.clients[client.userID]
	if !ok {
		return
	}
	if _, ok := conns[client]; !ok {
		return
	}
	delete(conns, client)
	close(client.send)
	if len(conns) == 0 {
		delete(h.clients, client.userID)
	}
}

// PublishEvent delivers event to the local connections of its users.
func (h *Hub) PublishEvent(_ context.Context, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	for _, userID := range event.UserIDs {
		h.BroadcastToUser(userID, data)
	}
	return nil
}

func (h *Hub) BroadcastToUser(userID uint, message []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients[userID] {
		select {
		case client.send <- message:
		default:
			h.remove(client)
		}
	}
}

func (h *Hub) BroadcastToConversation(conversationID uint, message []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, conns := range h.clients {
		for client := range conns {
			if client.currentConversation() != conversationID {
				continue
			}
			select {
			case client.send <- message:
			default:
				h.remove(client)
			}
		}
	}
}

// Connected reports whether userID has at least one open connection here.
func (h *Hub) Connected(userID uint) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID]) > 0
}

// Relay forwards events published on redis by any instance to local clients
// until ctx is cancelled.
func (h *Hub) Relay(ctx context.Context, sub *redis.PubSub) {
	defer sub.Close()
	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var event Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				logrus.WithError(err).Warn("dropping malformed event")
				continue
			}
			if err := h.PublishEvent(ctx, event); err != nil {
				logrus.WithError(err).Warn("failed to deliver event")
			}
		}
	}
}

func HandleWebSocket(hub *Hub, c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logrus.WithError(err).Warn("websocket upgrade failed")
		return
	}

	client := &Client{
		hub:    hub,
		conn:   conn,
		send:   make(chan []byte, 256),
		userID: userID.(uint),
	}

	select {
	case hub.register <- client:
	case <-hub.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

func (c *Client) currentConversation() uint {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conversationID
}

func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(4096)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logrus.WithError(err).WithField("user_id", c.userID).Warn("websocket read error")
			}
			return
		}

		var msg clientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}

		switch msg.Type {
		case "join_conversation":
			if !c.hub.canJoin(context.Background(), c.userID, msg.ConversationID) {
				logrus.WithFields(logrus.Fields{
					"user_id":         c.userID,
					"conversation_id": msg.ConversationID,
				}).Warn("rejected conversation join")
				continue
			}
			c.mu.Lock()
			c.conversationID = msg.ConversationID
			c.mu.Unlock()
		case "typing", "stop_typing":
			if msg.ConversationID != c.currentConversation() {
				continue
			}
			out, err := json.Marshal(typingMessage{
				Type:           "typing",
				ConversationID: msg.ConversationID,
				UserID:         c.userID,
				IsTyping:       msg.Type == "typing",
			})
			if err == nil {
				c.hub.BroadcastToConversation(msg.ConversationID, out)
			}
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				logrus.WithError(err).WithField("user_id", c.userID).Warn("websocket write error")
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

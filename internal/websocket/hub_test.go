package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func allowAll(context.Context, uint, uint) bool { return true }

func attach(h *Hub, userID, conversationID uint, buffer int) *Client {
	c := &Client{hub: h, send: make(chan []byte, buffer), userID: userID, conversationID: conversationID}
	if h.clients[userID] == nil {
		h.clients[userID] = make(map[*Client]struct{})
	}
	h.clients[userID][c] = struct{}{}
	return c
}

func TestPublishEvent_DeliversToListedUsers(t *testing.T) {
	hub := NewHub(allowAll)
	alice := attach(hub, 1, 0, 1)
	bobPhone := attach(hub, 2, 0, 1)
	bobLaptop := attach(hub, 2, 0, 1)
	carol := attach(hub, 3, 0, 1)

	err := hub.PublishEvent(context.Background(), Event{Type: "match", UserIDs: []uint{1, 2}, Payload: json.RawMessage(`{"match_id":5}`)})
	require.NoError(t, err)

	for _, c := range []*Client{alice, bobPhone, bobLaptop} {
		require.Len(t, c.send, 1)
		var got Event
		require.NoError(t, json.Unmarshal(<-c.send, &got))
		assert.Equal(t, "match", got.Type)
		assert.JSONEq(t, `{"match_id":5}`, string(got.Payload))
	}
	assert.Empty(t, carol.send)
}

func TestBroadcastToUser_DropsSlowClient(t *testing.T) {
	hub := NewHub(allowAll)
	slow := attach(hub, 1, 0, 0)

	hub.BroadcastToUser(1, []byte("hello"))

	assert.False(t, hub.Connected(1))
	_, open := <-slow.send
	assert.False(t, open)
}

func TestBroadcastToConversation(t *testing.T) {
	hub := NewHub(allowAll)
	inside := attach(hub, 1, 10, 1)
	outside := attach(hub, 2, 11, 1)

	hub.BroadcastToConversation(10, []byte("typing"))

	assert.Len(t, inside.send, 1)
	assert.Empty(t, outside.send)
}

func TestRunRegistersAndUnregisters(t *testing.T) {
	hub := NewHub(allowAll)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	client := &Client{hub: hub, send: make(chan []byte, 1), userID: 4}
	hub.register <- client
	hub.unregister <- client
	// A second unregister is ignored.
	hub.unregister <- client

	_, open := <-client.send
	assert.False(t, open)
	assert.False(t, hub.Connected(4))
}

// joined lists the conversations userID's connections are listening to.
func joined(h *Hub, userID uint) []uint {
	h.mu.RLock()
	defer h.mu.RUnlock()
	var ids []uint
	for c := range h.clients[userID] {
		ids = append(ids, c.currentConversation())
	}
	return ids
}

func TestHandleWebSocket_JoinIsChecked(t *testing.T) {
	gin.SetMode(gin.TestMode)
	hub := NewHub(func(_ context.Context, userID, conversationID uint) bool {
		return conversationID == 10
	})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	router := gin.New()
	router.GET("/ws", func(c *gin.Context) {
		c.Set("user_id", uint(7))
		HandleWebSocket(hub, c)
	})
	server := httptest.NewServer(router)
	defer server.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.Connected(7) }, time.Second, 10*time.Millisecond)

	require.NoError(t, conn.WriteJSON(map[string]interface{}{"type": "join_conversation", "conversation_id": 11}))
	require.NoError(t, conn.WriteJSON(map[string]interface{}{"type": "join_conversation", "conversation_id": 10}))
	require.Eventually(t, func() bool {
		ids := joined(hub, 7)
		return len(ids) == 1 && ids[0] == 10
	}, time.Second, 10*time.Millisecond)

	hub.BroadcastToConversation(10, []byte(`{"type":"message"}`))
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"message"}`, string(data))
}

func TestRun_ShutdownClosesClients(t *testing.T) {
	hub := NewHub(allowAll)
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()

	client := &Client{hub: hub, send: make(chan []byte, 1), userID: 4}
	hub.register <- client
	require.True(t, hub.Connected(4))

	cancel()
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("Run did not return")
	}

	_, open := <-client.send
	assert.False(t, open)
	assert.False(t, hub.Connected(4))

	// Late unregisters return instead of blocking on the stopped loop.
	unregistered := make(chan struct{})
	go func() {
		select {
		case hub.unregister <- client:
		case <-hub.done:
		}
		close(unregistered)
	}()
	select {
	case <-unregistered:
	case <-time.After(time.Second):
		t.Fatal("unregister blocked after shutdown")
	}
}

func TestHandleWebSocket_AfterShutdown(t *testing.T) {
	gin.SetMode(gin.TestMode)
	hub := NewHub(allowAll)
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()
	cancel()
	<-stopped

	router := gin.New()
	router.GET("/ws", func(c *gin.Context) {
		c.Set("user_id", uint(7))
		HandleWebSocket(hub, c)
	})
	server := httptest.NewServer(router)
	defer server.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err = conn.ReadMessage()
	require.Error(t, err)
	var netErr net.Error
	assert.False(t, errors.As(err, &netErr) && netErr.Timeout(), "connection should be closed, not left hanging")
	assert.False(t, hub.Connected(7))
}

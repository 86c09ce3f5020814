package websocket

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(hub *Hub) *Client {
	return &Client{
		ID:   "test-client",
		Hub:  hub,
		Send: make(chan []byte, 16),
	}
}

func TestHub_BroadcastReachesRegisteredClient(t *testing.T) {
	hub := NewHub(zap.NewNop())
	client := newTestClient(hub)

	hub.registerClient(client)
	// 注册即收到connected消息
	require.Len(t, client.Send, 1)
	<-client.Send

	hub.broadcastMessage(&Message{
		Type:      MessageTypeItemLog,
		Data:      json.RawMessage(`{"text":"hello"}`),
		Timestamp: time.Now().Unix(),
	})

	require.Len(t, client.Send, 1)
	var msg Message
	require.NoError(t, json.Unmarshal(<-client.Send, &msg))
	assert.Equal(t, MessageTypeItemLog, msg.Type)
	assert.JSONEq(t, `{"text":"hello"}`, string(msg.Data))
}

func TestHub_UnregisterClosesSendChannel(t *testing.T) {
	hub := NewHub(zap.NewNop())
	client := newTestClient(hub)

	hub.registerClient(client)
	assert.Equal(t, 1, hub.ClientCount())

	hub.unregisterClient(client)
	assert.Equal(t, 0, hub.ClientCount())

	_, open := <-client.Send
	for open {
		_, open = <-client.Send
	}
	assert.False(t, open)
}

func TestHub_FullBufferDropsInsteadOfBlocking(t *testing.T) {
	hub := NewHub(zap.NewNop())
	client := &Client{ID: "slow", Hub: hub, Send: make(chan []byte)}

	hub.clientsMu.Lock()
	hub.clients[client.ID] = client
	hub.clientsMu.Unlock()

	done := make(chan struct{})
	go func() {
		hub.broadcastMessage(&Message{Type: MessageTypeItemLog, Data: json.RawMessage(`{}`)})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("broadcast blocked on slow client")
	}
}

func TestClient_PingGetsPong(t *testing.T) {
	hub := NewHub(zap.NewNop())
	client := newTestClient(hub)

	ping, _ := json.Marshal(&Message{Type: MessageTypePing})
	client.handleMessage(ping)

	require.Len(t, client.Send, 1)
	var msg Message
	require.NoError(t, json.Unmarshal(<-client.Send, &msg))
	assert.Equal(t, MessageTypePong, msg.Type)
}

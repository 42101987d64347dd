package websocket

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newDetachedClient создает клиента без сетевого соединения: годится для хаба и менеджера
func newDetachedClient(hub *Hub, sessionID string) *Client {
	return NewClient(hub, nil, sessionID)
}

func readEvent(t *testing.T, c *Client) inboundEvent {
	t.Helper()
	select {
	case payload := <-c.send:
		var event inboundEvent
		require.NoError(t, json.Unmarshal(payload, &event))
		return event
	default:
		t.Fatal("no event queued")
		return inboundEvent{}
	}
}

// ============================================================================
// Hub
// ============================================================================

func TestHub_SendJSONToSession(t *testing.T) {
	hub := NewHub()
	a := newDetachedClient(hub, "s1")
	b := newDetachedClient(hub, "s1")
	other := newDetachedClient(hub, "s2")
	hub.Register(a)
	hub.Register(b)
	hub.Register(other)

	assert.Equal(t, 3, hub.ClientCount())
	assert.Equal(t, 2, hub.SendJSONToSession("s1", Event{Type: PROMPT_STATE}))

	assert.Equal(t, PROMPT_STATE, readEvent(t, a).Type)
	assert.Equal(t, PROMPT_STATE, readEvent(t, b).Type)
	assert.Len(t, other.send, 0)
}

func TestHub_UnregisterClosesSend(t *testing.T) {
	hub := NewHub()
	c := newDetachedClient(hub, "s1")
	hub.Register(c)

	hub.Unregister(c)
	assert.True(t, c.IsSendClosed())
	assert.Equal(t, 0, hub.SessionClientCount("s1"))
	assert.Error(t, c.SendJSON(Event{Type: PROMPT_STATE}))

	// Повторная отписка безопасна
	hub.Unregister(c)
}

func TestHub_CloseSession(t *testing.T) {
	hub := NewHub()
	a := newDetachedClient(hub, "s1")
	b := newDetachedClient(hub, "s1")
	hub.Register(a)
	hub.Register(b)

	hub.CloseSession("s1")
	assert.Equal(t, 0, hub.ClientCount())
	assert.True(t, a.IsSendClosed())
	assert.True(t, b.IsSendClosed())
}

// ============================================================================
// Client
// ============================================================================

func TestClient_SlowConsumerIsDropped(t *testing.T) {
	c := newDetachedClient(NewHub(), "s1")
	for i := 0; i < defaultClientBufferSize; i++ {
		require.NoError(t, c.SendJSON(Event{Type: PROMPT_STATE}))
	}

	for i := 0; i < maxBufferWarnings; i++ {
		assert.Error(t, c.SendJSON(Event{Type: PROMPT_STATE}))
	}
	assert.True(t, c.IsSendClosed())
}

// ============================================================================
// Manager
// ============================================================================

func TestManager_HandleMessage(t *testing.T) {
	hub := NewHub()
	m := NewManager(hub)
	c := newDetachedClient(hub, "s1")

	var got json.RawMessage
	m.RegisterHandler(PROMPT_LOAD, func(data json.RawMessage, _ *Client) error {
		got = data
		return nil
	})

	require.NoError(t, m.HandleMessage([]byte(`{"type":"prompt:load","data":{"count":3}}`), c))
	assert.JSONEq(t, `{"count":3}`, string(got))
}

func TestManager_HandleMessage_UnknownType(t *testing.T) {
	hub := NewHub()
	m := NewManager(hub)
	c := newDetachedClient(hub, "s1")

	require.NoError(t, m.HandleMessage([]byte(`{"type":"quiz:start"}`), c))
	assert.Equal(t, SERVER_ERROR, readEvent(t, c).Type)
}

func TestManager_HandleMessage_InvalidJSON(t *testing.T) {
	hub := NewHub()
	m := NewManager(hub)
	c := newDetachedClient(hub, "s1")

	assert.Error(t, m.HandleMessage([]byte(`not json`), c))
	assert.Equal(t, SERVER_ERROR, readEvent(t, c).Type)
}

func TestManager_HandlerErrorIsReturned(t *testing.T) {
	hub := NewHub()
	m := NewManager(hub)
	c := newDetachedClient(hub, "s1")
	m.RegisterHandler(PROMPT_NEXT, func(json.RawMessage, *Client) error {
		return errors.New("boom")
	})

	assert.Error(t, m.HandleMessage([]byte(`{"type":"prompt:next"}`), c))
}

func TestSafeHandleMessage_RecoversPanic(t *testing.T) {
	c := newDetachedClient(NewHub(), "s1")
	err := safeHandleMessage([]byte("x"), c, func([]byte, *Client) error {
		panic("handler bug")
	})
	assert.Error(t, err)
}

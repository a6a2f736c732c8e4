package live

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestHub_PublishDeliversOnlyToSubscribedSession(t *testing.T) {
	h := NewHub()
	go h.Run()

	clientA := &Client{hub: h, send: make(chan []byte, clientSendBuf), sessionID: "session-a"}
	clientB := &Client{hub: h, send: make(chan []byte, clientSendBuf), sessionID: "session-b"}
	h.register <- clientA
	h.register <- clientB

	h.Publish("session-a", "message_added", map[string]interface{}{"message_id": 1})

	select {
	case msg := <-clientA.send:
		assert.Contains(t, string(msg), "message_added")
	case <-time.After(time.Second):
		t.Fatal("expected clientA to receive the event")
	}

	select {
	case <-clientB.send:
		t.Fatal("clientB should not receive session-a's event")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHub_SubscriberCount(t *testing.T) {
	h := NewHub()
	go h.Run()

	clientA := &Client{hub: h, send: make(chan []byte, clientSendBuf), sessionID: "session-a"}
	clientB := &Client{hub: h, send: make(chan []byte, clientSendBuf), sessionID: "session-a"}
	h.register <- clientA
	h.register <- clientB

	assert.Eventually(t, func() bool {
		return h.SubscriberCount("session-a") == 2
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, 2, h.TotalSubscribers())

	h.unregister <- clientA
	assert.Eventually(t, func() bool {
		return h.SubscriberCount("session-a") == 1
	}, time.Second, 10*time.Millisecond)
}

package live

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewRedisBridge_DisabledConfigIsNoOp(t *testing.T) {
	hub := NewHub()
	bridge := NewRedisBridge(RedisConfig{Enabled: false}, hub)

	assert.False(t, bridge.Enabled())
	assert.NoError(t, bridge.Close())

	notifier := bridge.Notifier()
	go hub.Run()
	notifier.Publish("session-a", "message_added", nil)
}

func TestNewRedisBridge_UnreachableAddrDisablesBridge(t *testing.T) {
	hub := NewHub()
	bridge := NewRedisBridge(RedisConfig{Enabled: true, Addr: "127.0.0.1:1"}, hub)

	assert.False(t, bridge.Enabled())
}

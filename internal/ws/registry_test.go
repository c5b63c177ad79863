package ws

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"course-chat-service/internal/models"
)

func TestRegistryRegisterAndUnregister(t *testing.T) {
	reg := NewRegistry()
	c := NewClient(nil, ConnInfo{ConnID: "a", UserID: 1})

	assert.Nil(t, reg.Register(1, c))
	got, ok := reg.Get(1)
	assert.True(t, ok)
	assert.Same(t, c, got)

	assert.True(t, reg.Unregister(1, c))
	_, ok = reg.Get(1)
	assert.False(t, ok)
}

func TestRegistryLastConnectWins(t *testing.T) {
	reg := NewRegistry()
	first := NewClient(nil, ConnInfo{ConnID: "first", UserID: 1})
	second := NewClient(nil, ConnInfo{ConnID: "second", UserID: 1})

	assert.Nil(t, reg.Register(1, first))
	displaced := reg.Register(1, second)
	assert.Same(t, first, displaced)

	got, ok := reg.Get(1)
	assert.True(t, ok)
	assert.Same(t, second, got)
}

// Closing a displaced connection must not evict the newer one.
func TestRegistryStaleCloseDoesNotEvict(t *testing.T) {
	reg := NewRegistry()
	first := NewClient(nil, ConnInfo{ConnID: "first", UserID: 1})
	second := NewClient(nil, ConnInfo{ConnID: "second", UserID: 1})

	reg.Register(1, first)
	reg.Register(1, second)

	assert.False(t, reg.Unregister(1, first))
	got, ok := reg.Get(1)
	assert.True(t, ok)
	assert.Same(t, second, got)

	assert.True(t, reg.Unregister(1, second))
	_, ok = reg.Get(1)
	assert.False(t, ok)
}

func TestRegistryOnlineIDsSorted(t *testing.T) {
	reg := NewRegistry()
	reg.Register(3, NewClient(nil, ConnInfo{UserID: 3}))
	reg.Register(1, NewClient(nil, ConnInfo{UserID: 1}))
	reg.Register(2, NewClient(nil, ConnInfo{UserID: 2}))

	assert.Equal(t, []int{1, 2, 3}, reg.OnlineIDs())
}

func TestRegistryPushOffline(t *testing.T) {
	reg := NewRegistry()
	delivered := reg.Push(42, models.Event{Type: models.EventNewMessage})
	assert.False(t, delivered)
}

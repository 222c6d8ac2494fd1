package realtime

import (
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"artisan-chat/domain"
)

func newTestConnection(userID string) *Connection {
	return newConnection(userID, nil, slog.Default(), 16)
}

func TestRegistry_FanOut_ReachesEveryConnectionOfTheUser(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(slog.Default())

	// Given a client with three devices and an artisan with two
	clientConns := []*Connection{newTestConnection("client-1"), newTestConnection("client-1"), newTestConnection("client-1")}
	artisanConns := []*Connection{newTestConnection("artisan-1"), newTestConnection("artisan-1")}
	for _, c := range clientConns {
		registry.Add(c)
	}
	for _, c := range artisanConns {
		registry.Add(c)
	}

	// When fanning a frame out to the client
	delivered := registry.FanOut("client-1", domain.NewTypingFrame("artisan-1", true))

	// Then every client device got it and no artisan device did
	req.Equal(len(clientConns), delivered)
	for _, c := range clientConns {
		req.Len(c.send, 1)
	}
	for _, c := range artisanConns {
		req.Empty(c.send)
	}
}

func TestRegistry_FanOut_SerializesTheFrameOnce(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(slog.Default())
	first := newTestConnection("client-1")
	second := newTestConnection("client-1")
	registry.Add(first)
	registry.Add(second)

	registry.FanOut("client-1", domain.NewMessageReadFrame("m-1", "client-1"))

	var a, b domain.MessageReadFrame
	req.NoError(json.Unmarshal(<-first.send, &a))
	req.NoError(json.Unmarshal(<-second.send, &b))
	req.Equal(a, b)
	req.Equal(domain.FrameMessageRead, a.Type)
}

func TestRegistry_FanOut_UnknownUserDeliversNothing(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(slog.Default())

	delivered := registry.FanOut("ghost", domain.NewErrorFrame("nope"))

	req.Zero(delivered)
}

func TestRegistry_Remove_DropsTheUserKeyWhenLastConnectionGoes(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(slog.Default())
	first := newTestConnection("client-1")
	second := newTestConnection("client-1")
	registry.Add(first)
	registry.Add(second)

	registry.Remove(first)
	req.True(registry.HasUser("client-1"))

	registry.Remove(second)
	req.False(registry.HasUser("client-1"))

	users, conns := registry.Counts()
	req.Zero(users)
	req.Zero(conns)
}

func TestRegistry_Remove_UnknownConnectionIsANoOp(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(slog.Default())
	known := newTestConnection("client-1")
	registry.Add(known)

	registry.Remove(newTestConnection("client-1"))

	users, conns := registry.Counts()
	req.Equal(1, users)
	req.Equal(1, conns)
}

func TestRegistry_FanOut_SkipsClosedConnections(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(slog.Default())
	open := newTestConnection("client-1")
	closed := newTestConnection("client-1")
	closed.Close()
	registry.Add(open)
	registry.Add(closed)

	delivered := registry.FanOut("client-1", domain.NewConnectedFrame("client-1"))

	req.Equal(1, delivered)
	req.Len(open.send, 1)
}

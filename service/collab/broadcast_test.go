package collab

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestBroadcaster(t *testing.T) (*Registry, *Broadcaster) {
	t.Helper()
	reg := NewRegistry()
	f := NewFanout(2, 64)
	t.Cleanup(f.Close)
	return reg, NewBroadcaster(reg, f)
}

func TestBroadcastRoomExceptSkipsOriginator(t *testing.T) {
	reg, bc := newTestBroadcaster(t)
	a := newTestClient("ca", "u1", "Alice")
	b := newTestClient("cb", "u2", "Bob")
	reg.Register(a)
	reg.Register(b)
	reg.Join(a, "sheet:doc-1")
	reg.Join(b, "sheet:doc-1")

	bc.RoomExcept("sheet:doc-1", a.ConnID, EvCellUpdate, CellChange{Row: 2, Col: 3, Value: "10"})

	env := recvFrame(t, b)
	require.Equal(t, EvCellUpdate, env.Event)
	require.Equal(t, "sheet:doc-1", env.Room)

	var change CellChange
	require.NoError(t, json.Unmarshal(env.Data, &change))
	require.Equal(t, 2, change.Row)
	require.Equal(t, 3, change.Col)
	require.Equal(t, "10", change.Value)

	expectNoFrame(t, a)
	expectNoFrame(t, b) // exactly one frame
}

func TestBroadcastRoomIncludesEveryone(t *testing.T) {
	reg, bc := newTestBroadcaster(t)
	a := newTestClient("ca", "u1", "Alice")
	b := newTestClient("cb", "u2", "Bob")
	reg.Register(a)
	reg.Register(b)
	reg.Join(a, "sheet:doc-1")
	reg.Join(b, "sheet:doc-1")

	bc.Room("sheet:doc-1", EvPresenceRemove, map[string]string{"userId": "u3"})

	require.Equal(t, EvPresenceRemove, recvFrame(t, a).Event)
	require.Equal(t, EvPresenceRemove, recvFrame(t, b).Event)
}

func TestBroadcastToUserHitsAllTabs(t *testing.T) {
	reg, bc := newTestBroadcaster(t)
	tab1 := newTestClient("c1", "u1", "Alice")
	tab2 := newTestClient("c2", "u1", "Alice")
	other := newTestClient("c3", "u2", "Bob")
	reg.Register(tab1)
	reg.Register(tab2)
	reg.Register(other)

	bc.ToUser("u1", EvUnreadCount, map[string]int{"count": 4})

	require.Equal(t, EvUnreadCount, recvFrame(t, tab1).Event)
	require.Equal(t, EvUnreadCount, recvFrame(t, tab2).Event)
	expectNoFrame(t, other)
}

func TestBroadcastAfterDisconnectNotDelivered(t *testing.T) {
	reg, bc := newTestBroadcaster(t)
	a := newTestClient("ca", "u1", "Alice")
	b := newTestClient("cb", "u2", "Bob")
	reg.Register(a)
	reg.Register(b)
	reg.Join(a, "sheet:doc-1")
	reg.Join(b, "sheet:doc-1")

	reg.Disconnect(b)
	bc.Room("sheet:doc-1", EvCellUpdate, CellChange{Value: "x"})

	require.Equal(t, EvCellUpdate, recvFrame(t, a).Event)
	expectNoFrame(t, b)
}

type captureBridge struct {
	rooms chan string
	users chan string
}

func (c *captureBridge) PublishRoom(room string, _ []byte) { c.rooms <- room }
func (c *captureBridge) PublishUser(user string, _ []byte) { c.users <- user }

func TestBroadcastMirrorsToBridge(t *testing.T) {
	reg, bc := newTestBroadcaster(t)
	br := &captureBridge{rooms: make(chan string, 4), users: make(chan string, 4)}
	bc.SetBridge(br)

	a := newTestClient("ca", "u1", "Alice")
	reg.Register(a)
	reg.Join(a, "sheet:doc-1")

	bc.Room("sheet:doc-1", EvChatMessage, map[string]string{"content": "hi"})
	require.Equal(t, "sheet:doc-1", <-br.rooms)

	bc.ToUser("u1", EvNotification, map[string]string{})
	require.Equal(t, "u1", <-br.users)
}

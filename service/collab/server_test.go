package collab

import (
	"context"
	"encoding/json"
	"testing"

	"GridSync/global"

	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	conf := global.Default()
	conf.WS.FanoutWorkers = 1 // deterministic delivery order
	s := NewServer(conf, &stubCells{}, nil)
	t.Cleanup(s.Close)
	return s
}

// connect registers a client and joins its private user room, the
// same way HandleWS does after the upgrade.
func connect(s *Server, c *Client) {
	s.reg.Register(c)
	s.reg.Join(c, UserRoom(c.UserID))
}

func subscribe(t *testing.T, s *Server, c *Client, room string) {
	t.Helper()
	err := s.handleSubscribe(context.Background(), c, &Envelope{
		Event: EvSubscribe,
		Data:  map[string]any{"roomId": room},
	})
	require.NoError(t, err)
	drainUntil(t, c, EvSubscribed)
}

func TestCellUpdateScenario(t *testing.T) {
	s := newTestServer(t)
	u1 := newTestClient("c1", "u1", "Alice")
	u2 := newTestClient("c2", "u2", "Bob")
	connect(s, u1)
	connect(s, u2)
	subscribe(t, s, u1, "sheet:doc-1")
	subscribe(t, s, u2, "sheet:doc-1")
	drainUntil(t, u1, EvPresenceUpdate) // u2's entry reaches u1 on join

	err := s.handleCellUpdate(context.Background(), u1, &Envelope{
		Event: EvCellUpdate,
		Room:  "sheet:doc-1",
		Data:  map[string]any{"row": 2, "col": 3, "value": "10"},
	})
	require.NoError(t, err)

	env := drainUntil(t, u2, EvCellUpdate)
	var change CellChange
	require.NoError(t, json.Unmarshal(env.Data, &change))
	require.Equal(t, 2, change.Row)
	require.Equal(t, 3, change.Col)
	require.Equal(t, "10", change.Value)

	expectNoFrame(t, u1) // originator never hears its own update
	expectNoFrame(t, u2) // and the peer hears it exactly once
}

func TestCellUpdateRequiresMembership(t *testing.T) {
	s := newTestServer(t)
	u1 := newTestClient("c1", "u1", "Alice")
	connect(s, u1)

	err := s.handleCellUpdate(context.Background(), u1, &Envelope{
		Event: EvCellUpdate,
		Room:  "sheet:doc-1",
		Data:  map[string]any{"row": 0, "col": 0, "value": "x"},
	})
	require.Error(t, err)
}

func TestCellUpdateRejectsMalformedPayload(t *testing.T) {
	s := newTestServer(t)
	u1 := newTestClient("c1", "u1", "Alice")
	connect(s, u1)
	subscribe(t, s, u1, "sheet:doc-1")

	err := s.handleCellUpdate(context.Background(), u1, &Envelope{
		Event: EvCellUpdate,
		Room:  "sheet:doc-1",
		Data:  map[string]any{"row": 0, "col": 0, "value": "x", "bogus": true},
	})
	require.Error(t, err)
}

func TestSubscribeSendsSnapshot(t *testing.T) {
	s := newTestServer(t)
	u1 := newTestClient("c1", "u1", "Alice")
	u2 := newTestClient("c2", "u2", "Bob")
	connect(s, u1)
	connect(s, u2)
	subscribe(t, s, u1, "sheet:doc-1")

	err := s.handleSubscribe(context.Background(), u2, &Envelope{
		Event: EvSubscribe,
		Data:  map[string]any{"roomId": "sheet:doc-1"},
	})
	require.NoError(t, err)

	env := drainUntil(t, u2, EvPresenceSnapshot)
	var snap struct {
		Room    string          `json:"room"`
		Entries []PresenceEntry `json:"entries"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &snap))
	require.Equal(t, "sheet:doc-1", snap.Room)
	require.Len(t, snap.Entries, 2) // u1's entry plus u2's own

	// u1 is told about the newcomer
	env = drainUntil(t, u1, EvPresenceUpdate)
	var entry PresenceEntry
	require.NoError(t, json.Unmarshal(env.Data, &entry))
	require.Equal(t, "u2", entry.UserID)
}

func TestDisconnectEmitsOnePresenceRemove(t *testing.T) {
	s := newTestServer(t)
	tab1 := newTestClient("c1", "u1", "Alice")
	tab2 := newTestClient("c2", "u1", "Alice")
	watcher := newTestClient("c3", "u2", "Bob")
	connect(s, tab1)
	connect(s, tab2)
	connect(s, watcher)
	subscribe(t, s, tab1, "sheet:doc-1")
	subscribe(t, s, tab2, "sheet:doc-1")
	subscribe(t, s, watcher, "sheet:doc-1")

	// first tab goes away: the user is still present via tab2
	s.Disconnect(tab1)
	expectNoFrame(t, watcher)

	s.Disconnect(tab2)
	env := drainUntil(t, watcher, EvPresenceRemove)
	var p struct {
		UserID string `json:"userId"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &p))
	require.Equal(t, "u1", p.UserID)
	expectNoFrame(t, watcher) // exactly one presence:remove

	// double disconnect is safe
	s.Disconnect(tab2)
	expectNoFrame(t, watcher)
}

func TestChatHandlerEndToEnd(t *testing.T) {
	s := newTestServer(t)
	u1 := newTestClient("c1", "u1", "Alice")
	u2 := newTestClient("c2", "u2", "Bob")
	connect(s, u1)
	connect(s, u2)
	subscribe(t, s, u1, "sheet:doc-1")
	subscribe(t, s, u2, "sheet:doc-1")
	drainUntil(t, u1, EvPresenceUpdate)

	err := s.handleChatSend(context.Background(), u1, &Envelope{
		Event: EvChatSend,
		Room:  "sheet:doc-1",
		Data:  map[string]any{"content": "ship it"},
	})
	require.NoError(t, err)

	for _, c := range []*Client{u1, u2} {
		env := drainUntil(t, c, EvChatMessage)
		var msg ChatMessage
		require.NoError(t, json.Unmarshal(env.Data, &msg))
		require.Equal(t, "ship it", msg.Content)
	}
}

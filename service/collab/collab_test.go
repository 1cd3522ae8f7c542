package collab

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestClient(id, user, name string) *Client {
	return NewClient(id, user, name, "#336699", nil, 64)
}

type recvEnvelope struct {
	Event string          `json:"event"`
	Room  string          `json:"room"`
	Data  json.RawMessage `json:"data"`
}

// recvFrame pulls one frame off the client's queue; fan-out is
// asynchronous, so reads wait briefly.
func recvFrame(t *testing.T, c *Client) recvEnvelope {
	t.Helper()
	select {
	case raw := <-c.Send:
		var env recvEnvelope
		require.NoError(t, json.Unmarshal(raw, &env))
		return env
	case <-time.After(time.Second):
		t.Fatalf("no frame received for conn %s", c.ConnID)
		return recvEnvelope{}
	}
}

// expectNoFrame asserts the client's queue stays empty long enough for
// the fan-out workers to have drained pending jobs.
func expectNoFrame(t *testing.T, c *Client) {
	t.Helper()
	select {
	case raw := <-c.Send:
		t.Fatalf("unexpected frame for conn %s: %s", c.ConnID, raw)
	case <-time.After(100 * time.Millisecond):
	}
}

// drainUntil reads frames until one matches the event, failing on
// timeout. Returns the matching envelope.
func drainUntil(t *testing.T, c *Client, event string) recvEnvelope {
	t.Helper()
	deadline := time.After(time.Second)
	for {
		select {
		case raw := <-c.Send:
			var env recvEnvelope
			require.NoError(t, json.Unmarshal(raw, &env))
			if env.Event == event {
				return env
			}
		case <-deadline:
			t.Fatalf("no %s frame for conn %s", event, c.ConnID)
		}
	}
}

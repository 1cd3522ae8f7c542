package bridge

import (
	"encoding/json"
	"errors"
	"time"

	"GridSync/logger"

	"github.com/nats-io/nats.go"
)

// Bridge mirrors room and user frames across nodes over NATS core
// subjects. In-memory room membership stays per-node; the bridge only
// re-delivers frames to local members, so ordering guarantees remain
// per-room per-node (see the broadcaster).
const (
	subjectRooms = "collab.rooms"
	subjectUsers = "collab.users"
)

type Config struct {
	Servers       []string
	Name          string
	NodeID        string
	ReconnectWait time.Duration
	Timeout       time.Duration
}

// frame is the cross-node envelope; Payload is the already-encoded
// client frame, passed through untouched.
type frame struct {
	Node    string          `json:"node"`
	Scope   string          `json:"scope"` // room id or user id
	Payload json.RawMessage `json:"payload"`
}

// LocalDeliverer is implemented by the collab broadcaster.
type LocalDeliverer interface {
	DeliverLocalRoom(room string, payload []byte)
	DeliverLocalUser(user string, payload []byte)
}

type Bridge struct {
	nc     *nats.Conn
	nodeID string
	subs   []*nats.Subscription
}

func New(cfg Config) (*Bridge, error) {
	if len(cfg.Servers) == 0 {
		return nil, errors.New("nats servers missing")
	}
	if cfg.ReconnectWait == 0 {
		cfg.ReconnectWait = 500 * time.Millisecond
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 3 * time.Second
	}
	opts := []nats.Option{
		nats.Name(cfg.Name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.ReconnectJitter(100*time.Millisecond, 500*time.Millisecond),
		nats.Timeout(cfg.Timeout),
	}
	nc, err := nats.Connect(joinServers(cfg.Servers), opts...)
	if err != nil {
		return nil, err
	}
	return &Bridge{nc: nc, nodeID: cfg.NodeID}, nil
}

func joinServers(servers []string) string {
	out := ""
	for i, s := range servers {
		if i > 0 {
			out += ","
		}
		out += s
	}
	return out
}

// PublishRoom mirrors a room frame to the other nodes. Best-effort:
// a publish failure is logged and the local broadcast stands.
func (b *Bridge) PublishRoom(room string, payload []byte) {
	b.publish(subjectRooms, room, payload)
}

// PublishUser mirrors a user frame (notifications, unread counts).
func (b *Bridge) PublishUser(user string, payload []byte) {
	b.publish(subjectUsers, user, payload)
}

func (b *Bridge) publish(subject, scope string, payload []byte) {
	f := frame{Node: b.nodeID, Scope: scope, Payload: payload}
	data, err := json.Marshal(f)
	if err != nil {
		logger.Errorf("[bridge] marshal frame scope=%s err=%v", scope, err)
		return
	}
	if err := b.nc.Publish(subject, data); err != nil {
		logger.Warnf("[bridge] publish scope=%s err=%v", scope, err)
	}
}

// Run subscribes to the mirror subjects and re-delivers remote frames
// locally. Frames originating from this node are skipped.
func (b *Bridge) Run(local LocalDeliverer) error {
	roomSub, err := b.nc.Subscribe(subjectRooms, func(msg *nats.Msg) {
		var f frame
		if err := json.Unmarshal(msg.Data, &f); err != nil {
			logger.Warnf("[bridge] bad room frame: %v", err)
			return
		}
		if f.Node == b.nodeID {
			return
		}
		local.DeliverLocalRoom(f.Scope, f.Payload)
	})
	if err != nil {
		return err
	}
	userSub, err := b.nc.Subscribe(subjectUsers, func(msg *nats.Msg) {
		var f frame
		if err := json.Unmarshal(msg.Data, &f); err != nil {
			logger.Warnf("[bridge] bad user frame: %v", err)
			return
		}
		if f.Node == b.nodeID {
			return
		}
		local.DeliverLocalUser(f.Scope, f.Payload)
	})
	if err != nil {
		_ = roomSub.Unsubscribe()
		return err
	}
	b.subs = append(b.subs, roomSub, userSub)
	return nil
}

func (b *Bridge) Close() {
	for _, s := range b.subs {
		_ = s.Unsubscribe()
	}
	if b.nc != nil {
		b.nc.Close()
	}
}

package collab

// BridgePublisher is the optional cross-process hook: every local room
// broadcast is mirrored to it so members on other nodes see the same
// frames (single-process deployments leave it nil).
type BridgePublisher interface {
	PublishRoom(room string, payload []byte)
	PublishUser(user string, payload []byte)
}

// Broadcaster encodes envelopes and fans them out to rooms, users, or
// single connections.
type Broadcaster struct {
	reg    *Registry
	fanout *Fanout
	bridge BridgePublisher
}

func NewBroadcaster(reg *Registry, fanout *Fanout) *Broadcaster {
	return &Broadcaster{reg: reg, fanout: fanout}
}

// SetBridge wires the cross-process mirror; call once during boot.
func (b *Broadcaster) SetBridge(p BridgePublisher) { b.bridge = p }

// Room sends to every member of the room, originator included.
func (b *Broadcaster) Room(room, event string, payload any) {
	frame := EncodeFrame(event, room, payload)
	b.fanout.Broadcast(b.reg.Members(room), frame)
	if b.bridge != nil {
		b.bridge.PublishRoom(room, frame)
	}
}

// RoomExcept sends to every member of the room except one connection.
func (b *Broadcaster) RoomExcept(room, exceptConn, event string, payload any) {
	frame := EncodeFrame(event, room, payload)
	b.fanout.Broadcast(b.reg.MembersExcept(room, exceptConn), frame)
	if b.bridge != nil {
		b.bridge.PublishRoom(room, frame)
	}
}

// ToUser sends to every live connection of a user on this node.
// Best-effort: an offline user simply receives nothing.
func (b *Broadcaster) ToUser(user, event string, payload any) {
	frame := EncodeFrame(event, UserRoom(user), payload)
	b.fanout.Broadcast(b.reg.UserClients(user), frame)
	if b.bridge != nil {
		b.bridge.PublishUser(user, frame)
	}
}

// ToConn sends to a single connection.
func (b *Broadcaster) ToConn(c *Client, event string, payload any) {
	b.fanout.Broadcast([]*Client{c}, EncodeFrame(event, "", payload))
}

// DeliverLocalRoom applies a frame that arrived from another node; it
// must not be re-published to the bridge.
func (b *Broadcaster) DeliverLocalRoom(room string, frame []byte) {
	b.fanout.Broadcast(b.reg.Members(room), frame)
}

// DeliverLocalUser applies a user frame from another node.
func (b *Broadcaster) DeliverLocalUser(user string, frame []byte) {
	b.fanout.Broadcast(b.reg.UserClients(user), frame)
}

// Room name conventions: one logical document spans three scopes.
func SheetRoom(docID string) string   { return "sheet:" + docID }
func CommentRoom(docID string) string { return "comments:" + docID }
func UserRoom(user string) string     { return "user:" + user }

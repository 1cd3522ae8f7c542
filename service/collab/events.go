package collab

import (
	"encoding/json"
	"fmt"
)

// Event names. Every frame on the wire is a tagged envelope; unknown
// tags are rejected at parse time.
const (
	// client -> server
	EvSubscribe       = "subscribe"
	EvUnsubscribe     = "unsubscribe"
	EvCellUpdate      = "cell:update" // also server -> client
	EvCursorMove      = "cursor:move"
	EvSelectionChange = "selection:change"
	EvChatSend        = "chat:send"
	EvCommentCreate   = "comment:create"
	EvCommentReply    = "comment:reply"
	EvCommentResolve  = "comment:resolve"
	EvCommentDelete   = "comment:delete"

	// server -> client
	EvSubscribed       = "subscribed"
	EvPresenceSnapshot = "presence:snapshot"
	EvPresenceUpdate   = "presence:update"
	EvPresenceRemove   = "presence:remove"
	EvChatMessage      = "chat:message"
	EvCommentCreated   = "comment:created"
	EvCommentUpdated   = "comment:updated"
	EvCommentDeleted   = "comment:deleted"
	EvNotification     = "notification"
	EvUnreadCount      = "unread-count"
	EvError            = "error"
)

// Envelope is the wire frame. Data is kept dynamic on the inbound path
// and decoded per event tag (tools/decode); outbound it is whatever
// payload the producer marshals.
type Envelope struct {
	Event string         `json:"event"`
	Room  string         `json:"room,omitempty"`
	Data  map[string]any `json:"data,omitempty"`
}

var inboundEvents = map[string]struct{}{
	EvSubscribe:       {},
	EvUnsubscribe:     {},
	EvCellUpdate:      {},
	EvCursorMove:      {},
	EvSelectionChange: {},
	EvChatSend:        {},
	EvCommentCreate:   {},
	EvCommentReply:    {},
	EvCommentResolve:  {},
	EvCommentDelete:   {},
}

// ParseEnvelope validates an inbound frame: well-formed JSON, a known
// inbound event tag, and a room for room-scoped events.
func ParseEnvelope(raw []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("unmarshal frame: %w", err)
	}
	if env.Event == "" {
		return nil, fmt.Errorf("frame missing event tag")
	}
	if _, ok := inboundEvents[env.Event]; !ok {
		return nil, fmt.Errorf("unknown event %q", env.Event)
	}
	return &env, nil
}

// Inbound payload shapes, decoded strictly from Envelope.Data.

type SubscribePayload struct {
	Room string `json:"roomId"`
}

type CellUpdatePayload struct {
	Row     int    `json:"row"`
	Col     int    `json:"col"`
	Value   string `json:"value"`
	Formula string `json:"formula,omitempty"`
}

type CursorMovePayload struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

type SelectionChangePayload struct {
	StartRow int `json:"startRow"`
	StartCol int `json:"startCol"`
	EndRow   int `json:"endRow"`
	EndCol   int `json:"endCol"`
}

type ChatSendPayload struct {
	Content string `json:"content"`
}

// EncodeFrame builds an outbound frame. Payload must marshal cleanly;
// producers own their payload types so a failure here is a bug.
func EncodeFrame(event, room string, payload any) []byte {
	out := struct {
		Event string `json:"event"`
		Room  string `json:"room,omitempty"`
		Data  any    `json:"data,omitempty"`
	}{Event: event, Room: room, Data: payload}
	b, err := json.Marshal(out)
	if err != nil {
		return []byte(`{"event":"error","data":{"msg":"encode failure"}}`)
	}
	return b
}

package collab

import (
	"strings"
	"time"
	"unicode/utf8"

	"GridSync/tools/errs"
	"GridSync/tools/ids"
)

// ChatMessage lives only as long as the broadcast; chat history is
// never persisted.
type ChatMessage struct {
	ID         string `json:"id"`
	RoomID     string `json:"roomId"`
	SenderID   string `json:"senderId"`
	SenderName string `json:"senderName"`
	Content    string `json:"content"`
	Ts         int64  `json:"ts"`
}

// ChatRelay broadcasts ephemeral messages within a room, sender
// included so every client sees the authoritative ordering.
type ChatRelay struct {
	bc     *Broadcaster
	maxLen int
}

func NewChatRelay(bc *Broadcaster, maxLen int) *ChatRelay {
	if maxLen <= 0 {
		maxLen = 500
	}
	return &ChatRelay{bc: bc, maxLen: maxLen}
}

func (r *ChatRelay) Send(roomID, senderID, senderName, content string) (*ChatMessage, error) {
	if strings.TrimSpace(content) == "" {
		return nil, errs.ErrValidation.WithDetail("empty chat message")
	}
	// Limit is in characters, not bytes.
	if utf8.RuneCountInString(content) > r.maxLen {
		return nil, errs.ErrValidation.WithDetail("chat message too long")
	}
	msg := &ChatMessage{
		ID:         ids.GenerateString(),
		RoomID:     roomID,
		SenderID:   senderID,
		SenderName: senderName,
		Content:    content,
		Ts:         time.Now().UnixMilli(),
	}
	r.bc.Room(roomID, EvChatMessage, msg)
	return msg, nil
}

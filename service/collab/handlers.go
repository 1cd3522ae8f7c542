package collab

import (
	"context"
	"strings"

	"GridSync/tools/decode"
	"GridSync/tools/errs"

	"github.com/gin-gonic/gin"
)

func (s *Server) registerBuiltin() {
	s.Register(EvSubscribe, s.handleSubscribe)
	s.Register(EvUnsubscribe, s.handleUnsubscribe)
	s.Register(EvCursorMove, s.handleCursorMove)
	s.Register(EvSelectionChange, s.handleSelectionChange)
	s.Register(EvCellUpdate, s.handleCellUpdate)
	s.Register(EvChatSend, s.handleChatSend)
}

func roomFromEnvelope(env *Envelope) (string, error) {
	if env.Room != "" {
		return env.Room, nil
	}
	if env.Data != nil {
		if p, err := decode.DecodeMap[SubscribePayload](env.Data); err == nil && p.Room != "" {
			return p.Room, nil
		}
	}
	return "", errs.ErrValidation.WithDetail("missing roomId")
}

// requireMember rejects room-scoped events from connections that never
// subscribed to the room.
func (s *Server) requireMember(c *Client, room string) error {
	if !s.reg.InRoom(c, room) {
		return errs.ErrForbidden.WithDetail("not subscribed to " + room)
	}
	return nil
}

func (s *Server) handleSubscribe(_ context.Context, c *Client, env *Envelope) error {
	room, err := roomFromEnvelope(env)
	if err != nil {
		return err
	}
	count := s.reg.Join(c, room)

	// Presence only lives on sheet rooms; comment/user rooms are plain
	// broadcast scopes.
	if strings.HasPrefix(room, "sheet:") {
		entry := s.presence.Touch(room, c.UserID, c.Name, c.Color)
		s.bc.RoomExcept(room, c.ConnID, EvPresenceUpdate, entry)
		s.bc.ToConn(c, EvPresenceSnapshot, gin.H{"room": room, "entries": s.presence.Snapshot(room)})
	}
	s.bc.ToConn(c, EvSubscribed, gin.H{"room": room, "members": count})
	return nil
}

func (s *Server) handleUnsubscribe(_ context.Context, c *Client, env *Envelope) error {
	room, err := roomFromEnvelope(env)
	if err != nil {
		return err
	}
	left, lastOfUser := s.reg.Leave(c, room)
	if left && lastOfUser && s.presence.Remove(room, c.UserID) {
		s.bc.Room(room, EvPresenceRemove, gin.H{"userId": c.UserID})
	}
	return nil
}

func (s *Server) handleCursorMove(_ context.Context, c *Client, env *Envelope) error {
	room, err := roomFromEnvelope(env)
	if err != nil {
		return err
	}
	if err := s.requireMember(c, room); err != nil {
		return err
	}
	p, err := decode.DecodeMap[CursorMovePayload](env.Data, decode.StrictOptions())
	if err != nil {
		return errs.ErrValidation.WithDetail(err.Error())
	}
	entry := s.presence.SetCursor(room, c.UserID, c.Name, c.Color, CellPos{Row: p.Row, Col: p.Col})
	s.bc.RoomExcept(room, c.ConnID, EvPresenceUpdate, entry)
	return nil
}

func (s *Server) handleSelectionChange(_ context.Context, c *Client, env *Envelope) error {
	room, err := roomFromEnvelope(env)
	if err != nil {
		return err
	}
	if err := s.requireMember(c, room); err != nil {
		return err
	}
	p, err := decode.DecodeMap[SelectionChangePayload](env.Data, decode.StrictOptions())
	if err != nil {
		return errs.ErrValidation.WithDetail(err.Error())
	}
	sel := CellRange{StartRow: p.StartRow, StartCol: p.StartCol, EndRow: p.EndRow, EndCol: p.EndCol}
	entry := s.presence.SetSelection(room, c.UserID, c.Name, c.Color, sel)
	s.bc.RoomExcept(room, c.ConnID, EvPresenceUpdate, entry)
	return nil
}

func (s *Server) handleCellUpdate(ctx context.Context, c *Client, env *Envelope) error {
	room, err := roomFromEnvelope(env)
	if err != nil {
		return err
	}
	if err := s.requireMember(c, room); err != nil {
		return err
	}
	docID := strings.TrimPrefix(room, "sheet:")
	if docID == room {
		return errs.ErrValidation.WithDetail("cell:update outside a sheet room")
	}
	p, err := decode.DecodeMap[CellUpdatePayload](env.Data, decode.StrictOptions())
	if err != nil {
		return errs.ErrValidation.WithDetail(err.Error())
	}
	change := CellChange{Row: p.Row, Col: p.Col, Value: p.Value, Formula: p.Formula}
	return s.mutator.PublishCellChange(ctx, docID, change, c)
}

func (s *Server) handleChatSend(_ context.Context, c *Client, env *Envelope) error {
	room, err := roomFromEnvelope(env)
	if err != nil {
		return err
	}
	if err := s.requireMember(c, room); err != nil {
		return err
	}
	p, err := decode.DecodeMap[ChatSendPayload](env.Data, decode.StrictOptions())
	if err != nil {
		return errs.ErrValidation.WithDetail(err.Error())
	}
	_, err = s.chat.Send(room, c.UserID, c.Name, p.Content)
	return err
}

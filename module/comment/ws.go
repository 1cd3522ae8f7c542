package comment

import (
	"context"
	"strings"

	"GridSync/service/collab"
	"GridSync/tools/decode"
	"GridSync/tools/errs"
)

// Inbound websocket payloads for the comments namespace.

type createPayload struct {
	Row     int    `json:"row"`
	Col     int    `json:"col"`
	Content string `json:"content"`
}

type replyPayload struct {
	CommentID string `json:"commentId"`
	Content   string `json:"content"`
}

type resolvePayload struct {
	CommentID string `json:"commentId"`
	Resolved  bool   `json:"resolved"`
}

type deletePayload struct {
	CommentID string `json:"commentId"`
}

// RegisterWS wires the comment events onto the collab dispatcher so
// clients can mutate threads over the live connection as well as REST.
func RegisterWS(srv *collab.Server, svc *Service) {
	srv.Register(collab.EvCommentCreate, func(ctx context.Context, c *collab.Client, env *collab.Envelope) error {
		docID, err := docFromRoom(env.Room)
		if err != nil {
			return err
		}
		if !srv.Registry().InRoom(c, env.Room) {
			return errs.ErrForbidden.WithDetail("not subscribed to " + env.Room)
		}
		p, err := decode.DecodeMap[createPayload](env.Data, decode.StrictOptions())
		if err != nil {
			return errs.ErrValidation.WithDetail(err.Error())
		}
		_, err = svc.Create(ctx, docID, p.Row, p.Col, p.Content, Author{ID: c.UserID, Name: c.Name})
		return err
	})

	srv.Register(collab.EvCommentReply, func(ctx context.Context, c *collab.Client, env *collab.Envelope) error {
		p, err := decode.DecodeMap[replyPayload](env.Data, decode.StrictOptions())
		if err != nil {
			return errs.ErrValidation.WithDetail(err.Error())
		}
		_, err = svc.Reply(ctx, p.CommentID, p.Content, Author{ID: c.UserID, Name: c.Name})
		return err
	})

	srv.Register(collab.EvCommentResolve, func(ctx context.Context, c *collab.Client, env *collab.Envelope) error {
		p, err := decode.DecodeMap[resolvePayload](env.Data, decode.StrictOptions())
		if err != nil {
			return errs.ErrValidation.WithDetail(err.Error())
		}
		_, err = svc.Resolve(ctx, p.CommentID, p.Resolved)
		return err
	})

	srv.Register(collab.EvCommentDelete, func(ctx context.Context, c *collab.Client, env *collab.Envelope) error {
		p, err := decode.DecodeMap[deletePayload](env.Data, decode.StrictOptions())
		if err != nil {
			return errs.ErrValidation.WithDetail(err.Error())
		}
		return svc.Delete(ctx, p.CommentID, c.UserID)
	})
}

func docFromRoom(room string) (string, error) {
	doc := strings.TrimPrefix(room, "comments:")
	if doc == "" || doc == room {
		return "", errs.ErrValidation.WithDetail("comment:create outside a comments room")
	}
	return doc, nil
}

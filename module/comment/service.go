package comment

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"GridSync/module/notify"
	"GridSync/module/sheet"
	"GridSync/service/collab"
	"GridSync/tools/errs"
	"GridSync/tools/ids"
)

// RoomBroadcaster is the slice of the collab broadcaster this module
// needs.
type RoomBroadcaster interface {
	Room(room, event string, payload any)
}

// MentionResolver maps an @display-name token to a user id; the user
// directory lives with the external identity service.
type MentionResolver interface {
	Resolve(name string) (userID string, ok bool)
}

// OwnerLookup resolves the owner of a document for comment
// notifications; document metadata is external storage's concern.
type OwnerLookup interface {
	Owner(ctx context.Context, docID string) (userID string, ok bool)
}

type Author struct {
	ID   string
	Name string
}

// Service implements comment CRUD: write through storage first, then
// fan the resulting event out to the document's comment room. A failed
// write suppresses the broadcast; unsaved data never fans out.
type Service struct {
	store    Store
	bc       RoomBroadcaster
	notifier *notify.Service
	mentions MentionResolver
	owners   OwnerLookup
	maxLen   int
}

func NewService(store Store, bc RoomBroadcaster, notifier *notify.Service, maxLen int) *Service {
	if maxLen <= 0 {
		maxLen = 2000
	}
	return &Service{store: store, bc: bc, notifier: notifier, maxLen: maxLen}
}

func (s *Service) SetMentionResolver(r MentionResolver) { s.mentions = r }
func (s *Service) SetOwnerLookup(o OwnerLookup)         { s.owners = o }

func (s *Service) validateContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return errs.ErrValidation.WithDetail("empty comment content")
	}
	// Limit is in characters, not bytes.
	if utf8.RuneCountInString(content) > s.maxLen {
		return errs.ErrValidation.WithDetail("comment content too long")
	}
	return nil
}

// Create stores a new thread anchored at (row, col) and broadcasts
// comment:created. Mention and owner notifications ride the same event
// but never block it.
func (s *Service) Create(ctx context.Context, docID string, row, col int, content string, author Author) (*Comment, error) {
	if err := s.validateContent(content); err != nil {
		return nil, err
	}
	c := &Comment{
		ID:         ids.GenerateString(),
		DocID:      docID,
		Row:        row,
		Col:        col,
		Content:    content,
		AuthorID:   author.ID,
		AuthorName: author.Name,
		CreatedAt:  time.Now().UnixMilli(),
		Replies:    []Reply{},
	}
	if err := s.store.Insert(ctx, c); err != nil {
		return nil, errs.Upstream(err, "comment insert")
	}
	s.bc.Room(collab.CommentRoom(docID), collab.EvCommentCreated, c)
	s.notifyForComment(ctx, c)
	return c, nil
}

func (s *Service) notifyForComment(ctx context.Context, c *Comment) {
	if s.notifier == nil {
		return
	}
	if s.owners != nil {
		if owner, ok := s.owners.Owner(ctx, c.DocID); ok && owner != c.AuthorID {
			s.notifier.NotifyComment(owner, c.AuthorName, c.DocID, sheet.A1(c.Row, c.Col))
		}
	}
	for _, user := range s.resolveMentions(c.Content) {
		if user != c.AuthorID {
			s.notifier.NotifyMention(user, c.AuthorName, c.DocID)
		}
	}
}

var mentionPattern = regexp.MustCompile(`@([\p{L}\p{N}_.-]+)`)

func (s *Service) resolveMentions(content string) []string {
	if s.mentions == nil {
		return nil
	}
	seen := make(map[string]bool)
	var out []string
	for _, m := range mentionPattern.FindAllStringSubmatch(content, -1) {
		if user, ok := s.mentions.Resolve(m[1]); ok && !seen[user] {
			seen[user] = true
			out = append(out, user)
		}
	}
	return out
}

// Reply appends to a thread; any authenticated user may reply.
func (s *Service) Reply(ctx context.Context, commentID, content string, author Author) (*Comment, error) {
	if err := s.validateContent(content); err != nil {
		return nil, err
	}
	// Find, then act: the thread may be gone by the time we write.
	if _, err := s.store.Get(ctx, commentID); err != nil {
		return nil, s.storeErr(err, "comment lookup")
	}
	r := Reply{
		ID:         ids.GenerateString(),
		Content:    content,
		AuthorID:   author.ID,
		AuthorName: author.Name,
		CreatedAt:  time.Now().UnixMilli(),
	}
	if err := s.store.AddReply(ctx, commentID, r); err != nil {
		return nil, s.storeErr(err, "reply insert")
	}
	c, err := s.store.Get(ctx, commentID)
	if err != nil {
		return nil, s.storeErr(err, "comment reload")
	}
	s.bc.Room(collab.CommentRoom(c.DocID), collab.EvCommentUpdated, c)
	return c, nil
}

// Resolve flips the resolved flag; no authorship restriction.
func (s *Service) Resolve(ctx context.Context, commentID string, resolved bool) (*Comment, error) {
	if err := s.store.SetResolved(ctx, commentID, resolved); err != nil {
		return nil, s.storeErr(err, "comment resolve")
	}
	c, err := s.store.Get(ctx, commentID)
	if err != nil {
		return nil, s.storeErr(err, "comment reload")
	}
	s.bc.Room(collab.CommentRoom(c.DocID), collab.EvCommentUpdated, c)
	return c, nil
}

// Delete removes a thread. Only the author may delete it.
func (s *Service) Delete(ctx context.Context, commentID, requesterID string) error {
	c, err := s.store.Get(ctx, commentID)
	if err != nil {
		return s.storeErr(err, "comment lookup")
	}
	if c.AuthorID != requesterID {
		return errs.ErrForbidden.WithDetail("only the author may delete a comment")
	}
	if err := s.store.Delete(ctx, commentID); err != nil {
		return s.storeErr(err, "comment delete")
	}
	s.bc.Room(collab.CommentRoom(c.DocID), collab.EvCommentDeleted, map[string]string{
		"id":    c.ID,
		"docId": c.DocID,
	})
	return nil
}

// List is a read-through to storage, not cached.
func (s *Service) List(ctx context.Context, docID string) ([]Comment, error) {
	out, err := s.store.ListByDoc(ctx, docID)
	if err != nil {
		return nil, errs.Upstream(err, "comment list")
	}
	if out == nil {
		out = []Comment{}
	}
	return out, nil
}

// storeErr passes taxonomy errors through and wraps everything else as
// an upstream failure.
func (s *Service) storeErr(err error, op string) error {
	var ce *errs.CodeError
	if errors.As(err, &ce) {
		return err
	}
	return errs.Upstream(err, op)
}

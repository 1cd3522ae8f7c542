package notify

import (
	"fmt"
	"time"

	"GridSync/service/collab"
	"GridSync/tools/ids"
)

// UserSender is the slice of the broadcaster this module needs.
type UserSender interface {
	ToUser(user, event string, payload any)
}

// Service creates notifications and pushes them to any live connection
// of the target user. Delivery is best-effort: failures on this path
// are logged and never surface to the primary operation.
type Service struct {
	store  *Store
	sender UserSender
}

func NewService(store *Store, sender UserSender) *Service {
	return &Service{store: store, sender: sender}
}

func (s *Service) Store() *Store { return s.store }

// Create appends to the user's log and delivers live. Returns the
// created notification.
func (s *Service) Create(user string, typ Type, title, message string, data map[string]any) *Notification {
	n := &Notification{
		ID:        ids.GenerateString(),
		UserID:    user,
		Type:      typ,
		Title:     title,
		Message:   message,
		Data:      data,
		CreatedAt: time.Now().UnixMilli(),
	}
	s.store.Add(n)
	s.deliver(user, n)
	return n
}

func (s *Service) deliver(user string, n *Notification) {
	if s.sender == nil {
		return
	}
	s.sender.ToUser(user, collab.EvNotification, n)
	s.pushUnread(user)
}

func (s *Service) pushUnread(user string) {
	if s.sender == nil {
		return
	}
	s.sender.ToUser(user, collab.EvUnreadCount, map[string]int{"count": s.store.UnreadCount(user)})
}

// Domain-event producers. Titles and messages are fixed templates.

func (s *Service) NotifyComment(target, actorName, docID string, ref string) *Notification {
	return s.Create(target, TypeComment, titleComment,
		fmt.Sprintf(msgComment, actorName, ref),
		map[string]any{"docId": docID, "cell": ref})
}

func (s *Service) NotifyMention(target, actorName, docID string) *Notification {
	return s.Create(target, TypeMention, titleMention,
		fmt.Sprintf(msgMention, actorName),
		map[string]any{"docId": docID})
}

func (s *Service) NotifyShare(target, actorName, docID string) *Notification {
	return s.Create(target, TypeShare, titleShare,
		fmt.Sprintf(msgShare, actorName),
		map[string]any{"docId": docID})
}

// MarkRead / MarkAllRead / Delete mutate the log and re-push the
// unread counter so open clients converge.

func (s *Service) MarkRead(user, id string) error {
	if err := s.store.MarkRead(user, id); err != nil {
		return err
	}
	s.pushUnread(user)
	return nil
}

func (s *Service) MarkAllRead(user string) {
	s.store.MarkAllRead(user)
	s.pushUnread(user)
}

func (s *Service) Delete(user, id string) error {
	if err := s.store.Delete(user, id); err != nil {
		return err
	}
	s.pushUnread(user)
	return nil
}

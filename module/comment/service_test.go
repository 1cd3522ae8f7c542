package comment

import (
	"context"
	"strings"
	"testing"

	"GridSync/module/notify"
	"GridSync/service/collab"
	"GridSync/tools/errs"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

type roomEvent struct {
	Room    string
	Event   string
	Payload any
}

type captureRooms struct {
	events []roomEvent
}

func (c *captureRooms) Room(room, event string, payload any) {
	c.events = append(c.events, roomEvent{Room: room, Event: event, Payload: payload})
}

func (c *captureRooms) byEvent(event string) []roomEvent {
	var out []roomEvent
	for _, e := range c.events {
		if e.Event == event {
			out = append(out, e)
		}
	}
	return out
}

type staticMentions map[string]string

func (m staticMentions) Resolve(name string) (string, bool) {
	id, ok := m[name]
	return id, ok
}

type staticOwner string

func (o staticOwner) Owner(context.Context, string) (string, bool) { return string(o), o != "" }

var ada = Author{ID: "u1", Name: "Ada"}

func newTestService(t *testing.T) (*Service, *MemStore, *captureRooms) {
	t.Helper()
	store := NewMemStore()
	bc := &captureRooms{}
	return NewService(store, bc, nil, 0), store, bc
}

func TestCreateBroadcasts(t *testing.T) {
	svc, store, bc := newTestService(t)

	c, err := svc.Create(context.Background(), "doc-1", 1, 2, "looks off", ada)
	require.NoError(t, err)
	require.NotEmpty(t, c.ID)
	require.False(t, c.Resolved)
	require.Empty(t, c.Replies)

	got := bc.byEvent(collab.EvCommentCreated)
	require.Len(t, got, 1)
	require.Equal(t, collab.CommentRoom("doc-1"), got[0].Room)
	require.Same(t, c, got[0].Payload)

	stored, err := store.Get(context.Background(), c.ID)
	require.NoError(t, err)
	require.Equal(t, "looks off", stored.Content)
	require.Equal(t, "Ada", stored.AuthorName)
}

func TestCreateValidation(t *testing.T) {
	svc, _, bc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, "doc-1", 0, 0, "   ", ada)
	require.ErrorIs(t, err, errs.ErrValidation)

	_, err = svc.Create(ctx, "doc-1", 0, 0, strings.Repeat("x", 2001), ada)
	require.ErrorIs(t, err, errs.ErrValidation)

	require.Empty(t, bc.events)

	// limit counts characters, not bytes
	_, err = svc.Create(ctx, "doc-1", 0, 0, strings.Repeat("é", 2000), ada)
	require.NoError(t, err)

	_, err = svc.Create(ctx, "doc-1", 0, 0, strings.Repeat("é", 2001), ada)
	require.ErrorIs(t, err, errs.ErrValidation)
}

func TestCreateStoreFailureSuppressesBroadcast(t *testing.T) {
	svc, store, bc := newTestService(t)
	store.FailNext(errors.New("mongo down"))

	_, err := svc.Create(context.Background(), "doc-1", 0, 0, "hello", ada)
	require.ErrorIs(t, err, errs.ErrUpstream)
	require.Empty(t, bc.events) // unsaved data never fans out
}

func TestReplyAppendsInOrder(t *testing.T) {
	svc, _, bc := newTestService(t)
	ctx := context.Background()

	c, err := svc.Create(ctx, "doc-1", 0, 0, "thread", ada)
	require.NoError(t, err)

	bob := Author{ID: "u2", Name: "Bob"}
	_, err = svc.Reply(ctx, c.ID, "first", bob)
	require.NoError(t, err)
	updated, err := svc.Reply(ctx, c.ID, "second", ada)
	require.NoError(t, err)

	require.Len(t, updated.Replies, 2)
	require.Equal(t, "first", updated.Replies[0].Content)
	require.Equal(t, "u2", updated.Replies[0].AuthorID)
	require.Equal(t, "second", updated.Replies[1].Content)

	got := bc.byEvent(collab.EvCommentUpdated)
	require.Len(t, got, 2)
	require.Equal(t, collab.CommentRoom("doc-1"), got[0].Room)
}

func TestReplyUnknownThread(t *testing.T) {
	svc, _, bc := newTestService(t)

	_, err := svc.Reply(context.Background(), "missing", "hi", ada)
	require.ErrorIs(t, err, errs.ErrNotFound)
	require.Empty(t, bc.events)
}

func TestResolveBroadcastsUpdatedState(t *testing.T) {
	svc, _, bc := newTestService(t)
	ctx := context.Background()

	c, err := svc.Create(ctx, "doc-1", 0, 0, "thread", ada)
	require.NoError(t, err)

	updated, err := svc.Resolve(ctx, c.ID, true)
	require.NoError(t, err)
	require.True(t, updated.Resolved)

	got := bc.byEvent(collab.EvCommentUpdated)
	require.Len(t, got, 1)
	require.Same(t, updated, got[0].Payload)
}

func TestDeleteRequiresAuthor(t *testing.T) {
	svc, store, bc := newTestService(t)
	ctx := context.Background()

	c, err := svc.Create(ctx, "doc-1", 0, 0, "mine", ada)
	require.NoError(t, err)
	_, err = svc.Reply(ctx, c.ID, "noted", Author{ID: "u2", Name: "Bob"})
	require.NoError(t, err)
	before := len(bc.events)

	err = svc.Delete(ctx, c.ID, "u2")
	require.ErrorIs(t, err, errs.ErrForbidden)
	require.Len(t, bc.events, before)

	// thread and replies untouched
	kept, err := store.Get(ctx, c.ID)
	require.NoError(t, err)
	require.Equal(t, "mine", kept.Content)
	require.Len(t, kept.Replies, 1)

	require.NoError(t, svc.Delete(ctx, c.ID, "u1"))
	deleted := bc.byEvent(collab.EvCommentDeleted)
	require.Len(t, deleted, 1)
	require.Equal(t, map[string]string{"id": c.ID, "docId": "doc-1"}, deleted[0].Payload)

	_, err = store.Get(ctx, c.ID)
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestListReturnsEmptySlice(t *testing.T) {
	svc, _, _ := newTestService(t)

	out, err := svc.List(context.Background(), "empty-doc")
	require.NoError(t, err)
	require.NotNil(t, out)
	require.Empty(t, out)
}

func TestMentionNotifications(t *testing.T) {
	store := NewMemStore()
	bc := &captureRooms{}
	notifier := notify.NewService(notify.NewStore(100), nil)
	svc := NewService(store, bc, notifier, 0)
	svc.SetMentionResolver(staticMentions{"bob": "u2", "ada": "u1"})
	svc.SetOwnerLookup(staticOwner("owner-1"))

	_, err := svc.Create(context.Background(), "doc-1", 0, 1, "@bob @ada please check, @bob", ada)
	require.NoError(t, err)

	// owner gets a comment notification with the A1 reference
	owner := notifier.Store().List("owner-1", 20)
	require.Len(t, owner, 1)
	require.Equal(t, notify.TypeComment, owner[0].Type)
	require.Equal(t, "Ada commented on cell B1", owner[0].Message)

	// @bob mentioned once despite repeats; author's self-mention skipped
	bob := notifier.Store().List("u2", 20)
	require.Len(t, bob, 1)
	require.Equal(t, notify.TypeMention, bob[0].Type)
	require.Empty(t, notifier.Store().List("u1", 20))
}

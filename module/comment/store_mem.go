package comment

import (
	"context"
	"sort"
	"sync"

	"GridSync/tools/errs"
)

// MemStore backs tests and single-node runs without mongo.
type MemStore struct {
	mu       sync.RWMutex
	byID     map[string]*Comment
	failNext error // injected fault for upstream-failure tests
}

func NewMemStore() *MemStore {
	return &MemStore{byID: make(map[string]*Comment)}
}

// FailNext makes the next mutating call return err once.
func (s *MemStore) FailNext(err error) {
	s.mu.Lock()
	s.failNext = err
	s.mu.Unlock()
}

func (s *MemStore) takeFault() error {
	err := s.failNext
	s.failNext = nil
	return err
}

func clone(c *Comment) *Comment {
	cp := *c
	cp.Replies = append([]Reply(nil), c.Replies...)
	return &cp
}

func (s *MemStore) Insert(_ context.Context, c *Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFault(); err != nil {
		return err
	}
	s.byID[c.ID] = clone(c)
	return nil
}

func (s *MemStore) Get(_ context.Context, id string) (*Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.byID[id]
	if !ok {
		return nil, errs.ErrNotFound.WithDetail("comment " + id)
	}
	return clone(c), nil
}

func (s *MemStore) AddReply(_ context.Context, commentID string, r Reply) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFault(); err != nil {
		return err
	}
	c, ok := s.byID[commentID]
	if !ok {
		return errs.ErrNotFound.WithDetail("comment " + commentID)
	}
	c.Replies = append(c.Replies, r)
	return nil
}

func (s *MemStore) SetResolved(_ context.Context, id string, resolved bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFault(); err != nil {
		return err
	}
	c, ok := s.byID[id]
	if !ok {
		return errs.ErrNotFound.WithDetail("comment " + id)
	}
	c.Resolved = resolved
	return nil
}

func (s *MemStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFault(); err != nil {
		return err
	}
	if _, ok := s.byID[id]; !ok {
		return errs.ErrNotFound.WithDetail("comment " + id)
	}
	delete(s.byID, id)
	return nil
}

func (s *MemStore) ListByDoc(_ context.Context, docID string) ([]Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Comment
	for _, c := range s.byID {
		if c.DocID == docID {
			out = append(out, *clone(c))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt < out[j].CreatedAt })
	return out, nil
}

package notify

import (
	"sync"

	"GridSync/tools/errs"
)

// Store keeps each user's notification log in memory, newest first,
// bounded at limit entries (oldest evicted on overflow). This log is
// the only durability notifications get.
type Store struct {
	mu    sync.RWMutex
	logs  map[string][]*Notification // user -> newest-first log
	limit int
}

func NewStore(limit int) *Store {
	if limit <= 0 {
		limit = 100
	}
	return &Store{logs: make(map[string][]*Notification), limit: limit}
}

// Add prepends and truncates to the cap.
func (s *Store) Add(n *Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()
	log := append([]*Notification{n}, s.logs[n.UserID]...)
	if len(log) > s.limit {
		log = log[:s.limit]
	}
	s.logs[n.UserID] = log
}

// List returns up to limit entries, newest first. Copies, Data
// included, so callers cannot mutate the log.
func (s *Store) List(user string, limit int) []Notification {
	if limit <= 0 {
		limit = 20
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	log := s.logs[user]
	if limit > len(log) {
		limit = len(log)
	}
	out := make([]Notification, 0, limit)
	for _, n := range log[:limit] {
		cp := *n
		if n.Data != nil {
			cp.Data = make(map[string]any, len(n.Data))
			for k, v := range n.Data {
				cp.Data[k] = v
			}
		}
		out = append(out, cp)
	}
	return out
}

func (s *Store) MarkRead(user, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range s.logs[user] {
		if n.ID == id {
			n.Read = true
			return nil
		}
	}
	return errs.ErrNotFound.WithDetail("notification " + id)
}

func (s *Store) MarkAllRead(user string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, n := range s.logs[user] {
		if !n.Read {
			n.Read = true
			count++
		}
	}
	return count
}

func (s *Store) Delete(user, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	log := s.logs[user]
	for i, n := range log {
		if n.ID == id {
			s.logs[user] = append(log[:i:i], log[i+1:]...)
			return nil
		}
	}
	return errs.ErrNotFound.WithDetail("notification " + id)
}

func (s *Store) UnreadCount(user string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, n := range s.logs[user] {
		if !n.Read {
			count++
		}
	}
	return count
}

func (s *Store) Len(user string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.logs[user])
}

// Clear drops all logs; shutdown hook.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs = make(map[string][]*Notification)
}

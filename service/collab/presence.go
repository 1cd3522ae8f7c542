package collab

import (
	"sync"
	"time"
)

type CellPos struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

type CellRange struct {
	StartRow int `json:"startRow"`
	StartCol int `json:"startCol"`
	EndRow   int `json:"endRow"`
	EndCol   int `json:"endCol"`
}

// PresenceEntry is the full per-user live state within a room. Updates
// always broadcast the whole entry, not a delta.
type PresenceEntry struct {
	UserID      string     `json:"userId"`
	DisplayName string     `json:"displayName"`
	Color       string     `json:"color"`
	Cursor      *CellPos   `json:"cursor,omitempty"`
	Selection   *CellRange `json:"selection,omitempty"`
	LastActive  int64      `json:"lastActive"` // unix millis
}

type TrackerConf struct {
	SweepEvery time.Duration    // reaper interval
	Clock      func() time.Time // injectable for tests; nil => time.Now
}

func (c *TrackerConf) norm() {
	if c.Clock == nil {
		c.Clock = time.Now
	}
	if c.SweepEvery <= 0 {
		c.SweepEvery = 10 * time.Second
	}
}

// Tracker owns presence state: room -> user -> entry. A user's own
// later update supersedes an earlier one (arrival order under the
// lock); different users never conflict.
type Tracker struct {
	mu    sync.RWMutex
	rooms map[string]map[string]*PresenceEntry

	conf     TrackerConf
	stopOnce sync.Once
	stopCh   chan struct{}
}

func NewTracker(conf TrackerConf) *Tracker {
	conf.norm()
	return &Tracker{
		rooms:  make(map[string]map[string]*PresenceEntry),
		conf:   conf,
		stopCh: make(chan struct{}),
	}
}

func (t *Tracker) Close() {
	t.stopOnce.Do(func() { close(t.stopCh) })
}

func (t *Tracker) entryLocked(room, user, name, color string) *PresenceEntry {
	m := t.rooms[room]
	if m == nil {
		m = make(map[string]*PresenceEntry)
		t.rooms[room] = m
	}
	e := m[user]
	if e == nil {
		e = &PresenceEntry{UserID: user, DisplayName: name, Color: color}
		m[user] = e
	}
	return e
}

// Touch ensures an entry exists (called on join) and returns a copy.
func (t *Tracker) Touch(room, user, name, color string) PresenceEntry {
	t.mu.Lock()
	defer t.mu.Unlock()
	e := t.entryLocked(room, user, name, color)
	e.LastActive = t.conf.Clock().UnixMilli()
	return *e
}

// SetCursor updates the user's cursor and returns the whole entry.
func (t *Tracker) SetCursor(room, user, name, color string, pos CellPos) PresenceEntry {
	t.mu.Lock()
	defer t.mu.Unlock()
	e := t.entryLocked(room, user, name, color)
	e.Cursor = &pos
	e.LastActive = t.conf.Clock().UnixMilli()
	return *e
}

// SetSelection updates the user's selection and returns the whole entry.
func (t *Tracker) SetSelection(room, user, name, color string, sel CellRange) PresenceEntry {
	t.mu.Lock()
	defer t.mu.Unlock()
	e := t.entryLocked(room, user, name, color)
	e.Selection = &sel
	e.LastActive = t.conf.Clock().UnixMilli()
	return *e
}

// Snapshot returns copies of all entries in the room; a newly joined
// client bootstraps its view from this.
func (t *Tracker) Snapshot(room string) []PresenceEntry {
	t.mu.RLock()
	defer t.mu.RUnlock()
	m := t.rooms[room]
	out := make([]PresenceEntry, 0, len(m))
	for _, e := range m {
		out = append(out, *e)
	}
	return out
}

// Remove drops the user's entry from the room; reports whether one
// existed (callers broadcast presence:remove exactly once).
func (t *Tracker) Remove(room, user string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	m := t.rooms[room]
	if m == nil {
		return false
	}
	if _, ok := m[user]; !ok {
		return false
	}
	delete(m, user)
	if len(m) == 0 {
		delete(t.rooms, room)
	}
	return true
}

type staleEntry struct {
	Room string
	User string
}

// SweepOnce prunes entries whose owning session no longer holds a
// connection in the room, per the alive callback.
func (t *Tracker) SweepOnce(alive func(room, user string) bool) []staleEntry {
	t.mu.Lock()
	var stale []staleEntry
	for room, m := range t.rooms {
		for user := range m {
			if !alive(room, user) {
				stale = append(stale, staleEntry{Room: room, User: user})
				delete(m, user)
			}
		}
		if len(m) == 0 {
			delete(t.rooms, room)
		}
	}
	t.mu.Unlock()
	return stale
}

// RunReaper sweeps on a ticker until Close; each pruned entry is
// reported through onRemoved so the caller can broadcast the removal.
func (t *Tracker) RunReaper(alive func(room, user string) bool, onRemoved func(room, user string)) {
	tick := time.NewTicker(t.conf.SweepEvery)
	defer tick.Stop()
	for {
		select {
		case <-t.stopCh:
			return
		case <-tick.C:
			for _, s := range t.SweepOnce(alive) {
				onRemoved(s.Room, s.User)
			}
		}
	}
}

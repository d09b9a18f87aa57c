package sync

import (
	gosync "sync"

	"github.com/nhle/citas-notify/internal/model"
)

// State holds the local notification list and unread counter. Every
// mutation updates both under one lock.
type State struct {
	mu     gosync.RWMutex
	items  []model.Notification
	unread int

	// live is set once the list reflects the server: a snapshot, a push
	// or a confirmed command. A cached seed is refused from then on.
	live bool
}

// NewState returns an empty state.
func NewState() *State {
	return &State{items: []model.Notification{}}
}

// Items returns a copy of the list in display order.
func (s *State) Items() []model.Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Notification, len(s.items))
	copy(out, s.items)
	return out
}

// Unread returns the unread counter.
func (s *State) Unread() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.unread
}

// Len returns the number of notifications held.
func (s *State) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Replace swaps in a full snapshot, keeping server order, and recomputes
// the counter.
func (s *State) Replace(items []model.Notification) {
	next := dedupe(items)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = next
	s.unread = model.CountUnread(next)
	s.live = true
}

// Seed fills the list from a cached snapshot unless live data has already
// arrived. An empty live list counts as live data.
func (s *State) Seed(items []model.Notification) bool {
	next := dedupe(items)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.live {
		return false
	}
	s.items = next
	s.unread = model.CountUnread(s.items)
	return true
}

// Reset drops the list and forgets that it was ever live.
func (s *State) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = []model.Notification{}
	s.unread = 0
	s.live = false
}

// Live reports whether the list reflects the server.
func (s *State) Live() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.live
}

// View returns the list and counter read under a single lock.
func (s *State) View() ([]model.Notification, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Notification, len(s.items))
	copy(out, s.items)
	return out, s.unread
}

// Apply reconciles one push event and reports whether anything changed.
func (s *State) Apply(ev Event) bool {
	switch ev.Type {
	case EventUnreadCount:
		return s.setUnread(ev.Count)
	case EventNotificationNew:
		s.prepend(ev.Notification)
		return true
	case EventNotificationRead:
		return s.MarkRead(ev.ID)
	case EventNotificationDeleted:
		return s.Remove(ev.ID)
	case EventNotificationsCleared:
		return s.Clear()
	}
	return false
}

// setUnread replaces the counter with the server's value.
func (s *State) setUnread(count int) bool {
	if count < 0 {
		count = 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.live = true
	if s.unread == count {
		return false
	}
	s.unread = count
	return true
}

// prepend inserts n at the head. A row with the same id is replaced so
// the list never holds duplicates.
func (s *State) prepend(n model.Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.live = true

	if idx := s.indexLocked(n.ID); idx >= 0 {
		if !s.items[idx].Read {
			s.decrementLocked()
		}
		s.items = append(s.items[:idx:idx], s.items[idx+1:]...)
	}

	next := make([]model.Notification, 0, len(s.items)+1)
	next = append(next, n)
	next = append(next, s.items...)
	s.items = next

	if !n.Read {
		s.unread++
	}
}

// MarkRead flips an unread row to read and decrements the counter.
// Unknown ids and rows already read are left alone.
func (s *State) MarkRead(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.live = true

	idx := s.indexLocked(id)
	if idx < 0 || s.items[idx].Read {
		return false
	}

	next := make([]model.Notification, len(s.items))
	copy(next, s.items)
	next[idx].Read = true
	s.items = next
	s.decrementLocked()
	return true
}

// Remove deletes the row with id and recomputes the counter from what
// remains. Unknown ids are a no-op.
func (s *State) Remove(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.live = true

	idx := s.indexLocked(id)
	if idx < 0 {
		return false
	}

	next := make([]model.Notification, 0, len(s.items)-1)
	next = append(next, s.items[:idx]...)
	next = append(next, s.items[idx+1:]...)
	s.items = next
	s.unread = model.CountUnread(next)
	return true
}

// Clear empties the list and zeroes the counter.
func (s *State) Clear() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.live = true

	changed := len(s.items) > 0 || s.unread != 0
	s.items = []model.Notification{}
	s.unread = 0
	return changed
}

func (s *State) indexLocked(id int64) int {
	for i := range s.items {
		if s.items[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *State) decrementLocked() {
	if s.unread > 0 {
		s.unread--
	}
}

// dedupe copies items keeping the first row of each id.
func dedupe(items []model.Notification) []model.Notification {
	next := make([]model.Notification, 0, len(items))
	seen := make(map[int64]bool, len(items))
	for _, it := range items {
		if seen[it.ID] {
			continue
		}
		seen[it.ID] = true
		next = append(next, it)
	}
	return next
}

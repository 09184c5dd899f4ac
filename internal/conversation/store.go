// ABOUTME: In-memory conversation registry with a single active conversation
// ABOUTME: Every mutation of the active flag happens inside one critical section

package conversation

import (
	"sync"

	"github.com/2389/coven-chat/internal/model"
)

// Store is the in-memory registry of conversations in insertion order.
// At most one conversation is active at any time, and switching the active
// conversation is never observable half done. Store performs no I/O.
type Store struct {
	mu    sync.RWMutex
	convs []model.Conversation
}

// NewStore creates an empty registry.
func NewStore() *Store {
	return &Store{}
}

// List returns a copy of the registry in insertion order.
func (s *Store) List() []model.Conversation {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Conversation, len(s.convs))
	copy(out, s.convs)
	return out
}

// Len returns the number of conversations.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.convs)
}

// Replace installs a freshly fetched list, activating activeID if it is part
// of the list. An empty activeID leaves every conversation inactive.
func (s *Store) Replace(convs []model.Conversation, activeID string) {
	next := make([]model.Conversation, 0, len(convs))
	seen := make(map[string]bool, len(convs))
	for _, c := range convs {
		if seen[c.ID] {
			continue
		}
		seen[c.ID] = true
		c.Active = activeID != "" && c.ID == activeID
		next = append(next, c)
	}

	s.mu.Lock()
	s.convs = next
	s.mu.Unlock()
}

// UpsertAndActivate inserts conv (or updates the title of an existing entry
// with the same id) and makes it the only active conversation.
func (s *Store) UpsertAndActivate(conv model.Conversation) {
	s.mu.Lock()
	defer s.mu.Unlock()

	found := false
	for i := range s.convs {
		if s.convs[i].ID == conv.ID {
			s.convs[i].Title = conv.Title
			found = true
		}
		s.convs[i].Active = s.convs[i].ID == conv.ID
	}
	if !found {
		conv.Active = true
		s.convs = append(s.convs, conv)
	}
}

// SetActive makes id the only active conversation. It returns false and
// changes nothing when id is not in the registry.
func (s *Store) SetActive(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexLocked(id) < 0 {
		return false
	}
	for i := range s.convs {
		s.convs[i].Active = s.convs[i].ID == id
	}
	return true
}

// Remove deletes id from the registry and reports whether it was the active
// conversation. The registry never selects a replacement on its own.
func (s *Store) Remove(id string) (wasActive bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		return false
	}
	wasActive = s.convs[i].Active
	s.convs = append(s.convs[:i:i], s.convs[i+1:]...)
	return wasActive
}

// Active returns the active conversation, if any.
func (s *Store) Active() (model.Conversation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, c := range s.convs {
		if c.Active {
			return c, true
		}
	}
	return model.Conversation{}, false
}

// ActiveID returns the id of the active conversation or "".
func (s *Store) ActiveID() string {
	c, _ := s.Active()
	return c.ID
}

// Contains reports whether id is in the registry.
func (s *Store) Contains(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.indexLocked(id) >= 0
}

func (s *Store) indexLocked(id string) int {
	for i, c := range s.convs {
		if c.ID == id {
			return i
		}
	}
	return -1
}

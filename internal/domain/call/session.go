package call

import (
	"sync"
	"time"
)

// Snapshot is a consistent read of a Session.
type Snapshot struct {
	ContactID string
	StartedAt time.Time
	Epoch     uint64
}

// Tracking reports whether a call was being tracked at snapshot time.
func (s Snapshot) Tracking() bool {
	return s.ContactID != ""
}

// Session tracks the single call placed on behalf of a contact. The contact
// id and start time are always set or cleared together. Epoch advances on
// every change so callers can clear only the session they observed.
type Session struct {
	mu        sync.Mutex
	contactID string
	startedAt time.Time
	epoch     uint64
}

// NewSession returns an idle session.
func NewSession() *Session {
	return &Session{}
}

// Begin starts tracking contactID, replacing any previous call.
func (s *Session) Begin(contactID string, startedAt time.Time) (current, previous Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	previous = s.snapshotLocked()
	s.contactID = contactID
	s.startedAt = startedAt
	s.epoch++
	return s.snapshotLocked(), previous
}

// Snapshot returns the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// ClearIf returns to idle only if the session is still the one observed at
// epoch. It returns the cleared state.
func (s *Session) ClearIf(epoch uint64) (Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.epoch != epoch || s.contactID == "" {
		return Snapshot{}, false
	}
	return s.clearLocked(), true
}

func (s *Session) clearLocked() Snapshot {
	cleared := s.snapshotLocked()
	s.contactID = ""
	s.startedAt = time.Time{}
	s.epoch++
	return cleared
}

func (s *Session) snapshotLocked() Snapshot {
	return Snapshot{ContactID: s.contactID, StartedAt: s.startedAt, Epoch: s.epoch}
}

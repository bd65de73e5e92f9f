package core

import "sync"

// MembershipStore is the authoritative mapping of (identity, room) pairs.
// It enforces per-room uniqueness through the derived membership id; the
// system-wide single-room rule is the Service's job, not the store's.
type MembershipStore struct {
	mu         sync.RWMutex
	byID       map[string]*Membership
	byIdentity map[string]map[string]*Membership
}

// NewMembershipStore constructs an empty membership store.
func NewMembershipStore() *MembershipStore {
	return &MembershipStore{
		byID:       make(map[string]*Membership),
		byIdentity: make(map[string]map[string]*Membership),
	}
}

// Create inserts a membership. Returns ErrAlreadyMember if one already
// exists for the same identity and room.
func (s *MembershipStore) Create(identity, roomID string) (*Membership, error) {
	id := MembershipID(identity, roomID)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byID[id]; exists {
		return nil, ErrAlreadyMember
	}
	m := &Membership{ID: id, Identity: identity, RoomID: roomID}
	s.byID[id] = m
	if s.byIdentity[identity] == nil {
		s.byIdentity[identity] = make(map[string]*Membership)
	}
	s.byIdentity[identity][id] = m
	return m, nil
}

// Remove deletes the membership for the identity and room. Returns
// ErrNotMember if none exists.
func (s *MembershipStore) Remove(identity, roomID string) error {
	id := MembershipID(identity, roomID)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byID[id]; !exists {
		return ErrNotMember
	}
	delete(s.byID, id)
	if byID := s.byIdentity[identity]; byID != nil {
		delete(byID, id)
		if len(byID) == 0 {
			delete(s.byIdentity, identity)
		}
	}
	return nil
}

// FindByIdentity returns a membership held by the identity, or nil if it
// holds none.
func (s *MembershipStore) FindByIdentity(identity string) *Membership {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, m := range s.byIdentity[identity] {
		return m
	}
	return nil
}

// RemoveAllByIdentity deletes every membership held by the identity and
// returns the removed records. Used for connection-teardown cleanup.
func (s *MembershipStore) RemoveAllByIdentity(identity string) []*Membership {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed []*Membership
	for id, m := range s.byIdentity[identity] {
		removed = append(removed, m)
		delete(s.byID, id)
	}
	delete(s.byIdentity, identity)
	return removed
}

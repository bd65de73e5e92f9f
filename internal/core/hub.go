package core

import "sync"

// Hub tracks connected sessions and per-room broadcast groups. Group state
// must stay synchronized with the membership store, so Subscribe and
// Unsubscribe are only called by the Service in lockstep with store
// mutations.
type Hub struct {
	mu       sync.RWMutex
	sessions map[*Session]struct{}
	groups   map[string]map[*Session]struct{}
}

// NewHub constructs a hub with no sessions.
func NewHub() *Hub {
	return &Hub{
		sessions: make(map[*Session]struct{}),
		groups:   make(map[string]map[*Session]struct{}),
	}
}

// Register adds a session to the hub.
func (h *Hub) Register(s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sessions[s] = struct{}{}
}

// Unregister removes a session from the hub and from every broadcast group
// it was subscribed to.
func (h *Hub) Unregister(s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(h.sessions, s)
	for roomID, group := range h.groups {
		delete(group, s)
		if len(group) == 0 {
			delete(h.groups, roomID)
		}
	}
}

// Subscribe adds the session to the room's broadcast group.
func (h *Hub) Subscribe(s *Session, roomID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	group := h.groups[roomID]
	if group == nil {
		group = make(map[*Session]struct{})
		h.groups[roomID] = group
	}
	group[s] = struct{}{}
}

// Unsubscribe removes the session from the room's broadcast group.
func (h *Hub) Unsubscribe(s *Session, roomID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	group := h.groups[roomID]
	if group == nil {
		return
	}
	delete(group, s)
	if len(group) == 0 {
		delete(h.groups, roomID)
	}
}

// Subscriptions returns the room ids whose broadcast groups contain the
// session, in no particular order.
func (h *Hub) Subscriptions(s *Session) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var rooms []string
	for roomID, group := range h.groups {
		if _, ok := group[s]; ok {
			rooms = append(rooms, roomID)
		}
	}
	return rooms
}

// BroadcastAll sends an event to every registered session.
func (h *Hub) BroadcastAll(ev *Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for s := range h.sessions {
		s.Push(ev)
	}
}

// BroadcastRoom sends an event to every session in the room's group.
func (h *Hub) BroadcastRoom(roomID string, ev *Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for s := range h.groups[roomID] {
		s.Push(ev)
	}
}

package core

import (
	"sync"
	"time"
)

// RoomRegistry is the authoritative set of rooms, keyed by derived id.
type RoomRegistry struct {
	mu    sync.RWMutex
	rooms map[string]*Room
}

// NewRoomRegistry constructs an empty registry.
func NewRoomRegistry() *RoomRegistry {
	return &RoomRegistry{rooms: make(map[string]*Room)}
}

// Create registers a room owned by the given identity. Returns ErrRoomExists
// if a room with the same owner and name is already registered.
func (r *RoomRegistry) Create(owner, name string) (*Room, error) {
	id := RoomID(owner, name)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.rooms[id]; exists {
		return nil, ErrRoomExists
	}
	room := &Room{ID: id, Owner: owner, Name: name, CreatedAt: time.Now()}
	r.rooms[id] = room
	return room, nil
}

// Find returns the room with the given id, or ErrRoomNotFound.
func (r *RoomRegistry) Find(id string) (*Room, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	room, exists := r.rooms[id]
	if !exists {
		return nil, ErrRoomNotFound
	}
	return room, nil
}

// ListByOwner returns all rooms owned by the identity, in no particular order.
func (r *RoomRegistry) ListByOwner(owner string) []*Room {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var rooms []*Room
	for _, room := range r.rooms {
		if room.Owner == owner {
			rooms = append(rooms, room)
		}
	}
	return rooms
}

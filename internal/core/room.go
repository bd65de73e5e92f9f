package core

import "time"

// Room is a named group owned by one identity and joinable by others.
// Rooms are never mutated after creation and live until process restart.
type Room struct {
	ID        string
	Owner     string
	Name      string
	CreatedAt time.Time
}

// RoomID derives the room identifier from its owner and name. Identical
// (owner, name) pairs always collide to the same id, so duplicate creation
// is detected by a single lookup instead of a scan.
func RoomID(owner, name string) string {
	return owner + "_" + name
}

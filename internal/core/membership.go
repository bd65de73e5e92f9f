package core

// Membership records that an identity belongs to a room.
type Membership struct {
	ID       string
	Identity string
	RoomID   string
}

// MembershipID derives the membership identifier from the identity and the
// room, so a duplicate join for the same pair collides on insert.
func MembershipID(identity, roomID string) string {
	return identity + ":" + roomID
}

package core

// EventKind is a notification the core emits to sessions.
type EventKind int

const (
	// EventWelcome greets a session right after registration.
	EventWelcome EventKind = iota
	// EventJoinSuccess confirms a join request.
	EventJoinSuccess
	// EventJoinError rejects a join request.
	EventJoinError
	// EventLeaveSuccess confirms a leave request.
	EventLeaveSuccess
	// EventLeaveError rejects a leave request.
	EventLeaveError
	// EventCurrentRoom answers a get request with the current room id,
	// empty when the identity holds no membership.
	EventCurrentRoom
	// EventGetError rejects a get request.
	EventGetError
	// EventRoomList acknowledges a list request with the owned rooms.
	EventRoomList
	// EventCreateAck acknowledges a create request.
	EventCreateAck
	// EventRoomCreated announces a new room to all connections.
	EventRoomCreated
	// EventRoomMessage delivers a message to a room's broadcast group.
	EventRoomMessage
	// EventNotification carries a server-wide notification.
	EventNotification
	// EventError reports a protocol-level error outside the room surface.
	EventError
)

// Event is sent to sessions to describe a request outcome or a broadcast.
type Event struct {
	Kind    EventKind
	Seq     uint64
	RoomID  string
	Room    *Room
	Rooms   []*Room
	From    string
	NoteID  string
	Value   string
	Err     *Error
}

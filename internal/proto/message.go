package proto

import "encoding/json"

// Event names for the room membership surface. Requests answer either with
// their named success/error events or with an ack frame echoing the request
// event name; every reply echoes the request seq.
const (
	EventRoomJoin    = "room:join"
	EventRoomLeave   = "room:leave"
	EventRoomGet     = "room:get"
	EventRoomList    = "room:list"
	EventRoomCreate  = "room:create"
	EventRoomMessage = "room:message"

	EventRoomJoinSuccess   = "room:join:success"
	EventRoomJoinError     = "room:join:error"
	EventRoomLeaveSuccess  = "room:leave:success"
	EventRoomLeaveError    = "room:leave:error"
	EventRoomGetSuccess    = "room:get:success"
	EventRoomGetError      = "room:get:error"
	EventRoomCreateSuccess = "room:create:success"

	EventWelcome      = "welcome"
	EventNotification = "notification"
	EventError        = "error"
)

// Inbound is the envelope for frames coming from the client.
type Inbound struct {
	Event string          `json:"event"`
	Seq   uint64          `json:"seq,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Outbound is the envelope for frames sent to the client.
type Outbound struct {
	Event string `json:"event"`
	Seq   uint64 `json:"seq,omitempty"`
	Data  any    `json:"data,omitempty"`
	Error *Error `json:"error,omitempty"`
}

// Error describes a protocol-level error.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// JoinData requests joining or leaving a specific room.
type JoinData struct {
	RoomID string `json:"roomId"`
}

// CreateData requests creation of a named room.
type CreateData struct {
	RoomName string `json:"roomName"`
}

// MessageData carries text for the sender's current room.
type MessageData struct {
	Text string `json:"text"`
}

// RoomData confirms a join or leave for a room.
type RoomData struct {
	RoomID string `json:"roomId"`
}

// ErrorData carries the failure message of a rejected request.
type ErrorData struct {
	Message string `json:"message"`
}

// CurrentRoomData answers room:get; RoomID is null when the identity holds
// no membership.
type CurrentRoomData struct {
	RoomID *string `json:"roomId"`
}

// RoomInfo describes a room in list responses and creation broadcasts.
type RoomInfo struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Owner     string `json:"owner"`
	CreatedAt int64  `json:"createdAt"`
}

// ListAck acknowledges room:list.
type ListAck struct {
	Success bool                `json:"success"`
	Rooms   map[string]RoomInfo `json:"rooms"`
}

// CreateAck acknowledges room:create.
type CreateAck struct {
	Success bool `json:"success"`
}

// CreatedData announces a newly created room to all connections.
type CreatedData struct {
	ID       string `json:"id"`
	RoomName string `json:"roomName"`
}

// RoomMessageData delivers a message to a room's broadcast group.
type RoomMessageData struct {
	RoomID string `json:"roomId"`
	From   string `json:"from"`
	Text   string `json:"text"`
}

// NotificationData carries a server-wide notification.
type NotificationData struct {
	ID    string `json:"id"`
	Value string `json:"value"`
}

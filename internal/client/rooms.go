package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mkravets/roomwire-server/internal/proto"
)

// ErrCreateRejected is returned when the server refuses to create a room.
var ErrCreateRejected = errors.New("room creation rejected")

// Requester is the connection surface the rooms mirror needs.
type Requester interface {
	Request(ctx context.Context, event string, data any) (Frame, error)
	On(event string, fn func(Frame)) func()
}

// RoomManager is a cached, possibly stale projection of the server's room
// set: it lists rooms, creates them, and watches creation broadcasts.
type RoomManager struct {
	conn Requester
}

// NewRoomManager constructs a room manager over the connection.
func NewRoomManager(conn Requester) *RoomManager {
	return &RoomManager{conn: conn}
}

// List fetches the rooms owned by this identity, keyed by room id.
func (m *RoomManager) List(ctx context.Context) (map[string]proto.RoomInfo, error) {
	frame, err := m.conn.Request(ctx, proto.EventRoomList, nil)
	if err != nil {
		return nil, fmt.Errorf("room list: %w", err)
	}

	var ack proto.ListAck
	if err := json.Unmarshal(frame.Data, &ack); err != nil {
		return nil, fmt.Errorf("decode room list ack: %w", err)
	}
	if !ack.Success {
		if frame.Error != nil {
			return nil, fmt.Errorf("room list: %s", frame.Error.Message)
		}
		return nil, errors.New("room list failed")
	}
	return ack.Rooms, nil
}

// Create asks the server to create a named room owned by this identity.
func (m *RoomManager) Create(ctx context.Context, name string) error {
	frame, err := m.conn.Request(ctx, proto.EventRoomCreate, proto.CreateData{RoomName: name})
	if err != nil {
		return fmt.Errorf("room create: %w", err)
	}

	var ack proto.CreateAck
	if err := json.Unmarshal(frame.Data, &ack); err != nil {
		return fmt.Errorf("decode room create ack: %w", err)
	}
	if !ack.Success {
		if frame.Error != nil {
			return fmt.Errorf("%w: %s", ErrCreateRejected, frame.Error.Message)
		}
		return ErrCreateRejected
	}
	return nil
}

// OnCreated subscribes to room creation broadcasts and returns a function
// that removes the subscription.
func (m *RoomManager) OnCreated(fn func(proto.CreatedData)) func() {
	return m.conn.On(proto.EventRoomCreateSuccess, func(frame Frame) {
		var data proto.CreatedData
		if err := json.Unmarshal(frame.Data, &data); err != nil {
			return
		}
		fn(data)
	})
}

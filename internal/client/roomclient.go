package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/mkravets/roomwire-server/internal/proto"
)

// State identifies the room client's position in its lifecycle.
type State int

const (
	// StateInitial means no known room.
	StateInitial State = iota
	// StateLoading means the startup get query is in flight.
	StateLoading
	// StateJoining means a join request is in flight.
	StateJoining
	// StateJoined means the server confirmed membership.
	StateJoined
	// StateJoinError means the last join was rejected.
	StateJoinError
	// StateLeaving means a leave request is in flight.
	StateLeaving
	// StateLeaveError means the last leave was rejected.
	StateLeaveError
	// StateDisconnected means a previously joined room was left.
	StateDisconnected
)

func (s State) String() string {
	switch s {
	case StateInitial:
		return "initial"
	case StateLoading:
		return "loading"
	case StateJoining:
		return "joining"
	case StateJoined:
		return "joined"
	case StateJoinError:
		return "join_error"
	case StateLeaving:
		return "leaving"
	case StateLeaveError:
		return "leave_error"
	case StateDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// ErrInvalidTransition is returned when join or leave is invoked from a
// state that does not declare that transition. Failing fast here is what
// prevents a double-click from firing two join requests while the first is
// still pending.
var ErrInvalidTransition = errors.New("invalid operation for current state")

// Emitter is the connection surface the state machine needs.
type Emitter interface {
	Emit(ctx context.Context, event string, data any) error
	On(event string, fn func(Frame)) func()
}

// RoomClient mirrors the server's view of room membership and enforces
// legal join/leave transitions. Each transient state registers one pair of
// one-shot success/error listeners tagged with a generation counter;
// entering any new state supersedes the previous pair, and a superseded
// listener is inert even if it still fires, because its generation no
// longer matches. Removal by event name alone is not enough once rapid
// transitions register listeners for the same event.
type RoomClient struct {
	conn Emitter

	mu      sync.Mutex
	state   State
	roomID  string
	lastErr string
	gen     uint64
	removes []func()
}

// NewRoomClient constructs a client in the Initial state.
func NewRoomClient(conn Emitter) *RoomClient {
	return &RoomClient{conn: conn, state: StateInitial}
}

// State returns the current state.
func (c *RoomClient) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// RoomID returns the room the client is joined to, joining, or last tried.
func (c *RoomClient) RoomID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.roomID
}

// Err returns the message of the last terminal error, if any.
func (c *RoomClient) Err() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// StatusMessage describes the current state for display.
func (c *RoomClient) StatusMessage() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case StateInitial:
		if c.lastErr != "" {
			return "Failed to load current room: " + c.lastErr
		}
		return "Not connected"
	case StateLoading:
		return "Loading current room"
	case StateJoining:
		return fmt.Sprintf("Attempting to join the %s", c.roomID)
	case StateJoined:
		return fmt.Sprintf("Successfully joined the %s", c.roomID)
	case StateJoinError:
		return fmt.Sprintf("Failed to join the %s: %s", c.roomID, c.lastErr)
	case StateLeaving:
		return fmt.Sprintf("Attempting to leave the %s", c.roomID)
	case StateLeaveError:
		return fmt.Sprintf("Failed to leave the %s: %s", c.roomID, c.lastErr)
	case StateDisconnected:
		return fmt.Sprintf("Not connected to %s", c.roomID)
	default:
		return ""
	}
}

// Load issues the startup get query. A result naming a room transitions to
// Joined, a null result to Initial, a failure to Initial with the error
// attached.
func (c *RoomClient) Load(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateInitial {
		state := c.state
		c.mu.Unlock()
		return fmt.Errorf("%w: load from %s", ErrInvalidTransition, state)
	}
	gen := c.enterLocked(StateLoading, "", "")
	c.listenLocked(proto.EventRoomGetSuccess, proto.EventRoomGetError,
		func(frame Frame) {
			var data proto.CurrentRoomData
			if err := json.Unmarshal(frame.Data, &data); err != nil || data.RoomID == nil {
				c.settle(gen, StateInitial, "", "")
				return
			}
			c.settle(gen, StateJoined, *data.RoomID, "")
		},
		func(frame Frame) {
			c.settle(gen, StateInitial, "", frameMessage(frame))
		})
	c.mu.Unlock()

	if err := c.conn.Emit(ctx, proto.EventRoomGet, nil); err != nil {
		c.settle(gen, StateInitial, "", err.Error())
		return err
	}
	return nil
}

// Join requests membership in the room. Legal from Initial, JoinError and
// Disconnected; any other state fails fast without emitting anything.
func (c *RoomClient) Join(ctx context.Context, roomID string) error {
	c.mu.Lock()
	switch c.state {
	case StateInitial, StateJoinError, StateDisconnected:
	default:
		state := c.state
		c.mu.Unlock()
		return fmt.Errorf("%w: join from %s", ErrInvalidTransition, state)
	}
	gen := c.enterLocked(StateJoining, roomID, "")
	c.listenLocked(proto.EventRoomJoinSuccess, proto.EventRoomJoinError,
		func(frame Frame) {
			c.settle(gen, StateJoined, roomID, "")
		},
		func(frame Frame) {
			c.settle(gen, StateJoinError, roomID, frameMessage(frame))
		})
	c.mu.Unlock()

	if err := c.conn.Emit(ctx, proto.EventRoomJoin, proto.JoinData{RoomID: roomID}); err != nil {
		c.settle(gen, StateJoinError, roomID, err.Error())
		return err
	}
	return nil
}

// Leave requests leaving the current room. Legal from Joined and
// LeaveError; any other state fails fast without emitting anything.
func (c *RoomClient) Leave(ctx context.Context) error {
	c.mu.Lock()
	switch c.state {
	case StateJoined, StateLeaveError:
	default:
		state := c.state
		c.mu.Unlock()
		return fmt.Errorf("%w: leave from %s", ErrInvalidTransition, state)
	}
	roomID := c.roomID
	gen := c.enterLocked(StateLeaving, roomID, "")
	c.listenLocked(proto.EventRoomLeaveSuccess, proto.EventRoomLeaveError,
		func(frame Frame) {
			c.settle(gen, StateDisconnected, roomID, "")
		},
		func(frame Frame) {
			c.settle(gen, StateLeaveError, roomID, frameMessage(frame))
		})
	c.mu.Unlock()

	if err := c.conn.Emit(ctx, proto.EventRoomLeave, proto.JoinData{RoomID: roomID}); err != nil {
		c.settle(gen, StateLeaveError, roomID, err.Error())
		return err
	}
	return nil
}

// enterLocked moves to a new state, supersedes any listeners registered by
// the previous state, and returns the new generation.
func (c *RoomClient) enterLocked(state State, roomID, errMsg string) uint64 {
	for _, remove := range c.removes {
		remove()
	}
	c.removes = nil

	c.gen++
	c.state = state
	c.roomID = roomID
	c.lastErr = errMsg
	return c.gen
}

// listenLocked registers the one-shot success/error pair for the current
// transient state.
func (c *RoomClient) listenLocked(successEvent, errorEvent string, onSuccess, onError func(Frame)) {
	c.removes = []func(){
		c.conn.On(successEvent, onSuccess),
		c.conn.On(errorEvent, onError),
	}
}

// settle applies a response for the given generation. A response for a
// superseded generation is ignored.
func (c *RoomClient) settle(gen uint64, state State, roomID, errMsg string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.gen != gen {
		return
	}
	c.enterLocked(state, roomID, errMsg)
}

func frameMessage(frame Frame) string {
	var data proto.ErrorData
	if err := json.Unmarshal(frame.Data, &data); err == nil && data.Message != "" {
		return data.Message
	}
	if frame.Error != nil {
		return frame.Error.Message
	}
	return "unknown error"
}

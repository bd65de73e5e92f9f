package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/mkravets/roomwire-server/internal/proto"
)

// IdentityHeader carries the client's anonymous identity on dial.
const IdentityHeader = "X-User-Id"

// Frame is a server frame as seen by the client.
type Frame struct {
	Event string          `json:"event"`
	Seq   uint64          `json:"seq,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
	Error *proto.Error    `json:"error,omitempty"`
}

// Conn is a client-side connection to the room server. It multiplexes
// seq-correlated acks and named event subscriptions over one websocket.
type Conn struct {
	ws *websocket.Conn

	seq atomic.Uint64

	mu       sync.Mutex
	pending  map[uint64]chan Frame
	handlers map[string]map[uint64]func(Frame)
	nextTok  uint64
	closed   bool
	readErr  error
}

// Dial connects to the server's websocket endpoint, binding the given
// identity, and starts the read loop.
func Dial(ctx context.Context, url, identityID string) (*Conn, error) {
	header := http.Header{}
	header.Set(IdentityHeader, identityID)

	ws, _, err := websocket.Dial(ctx, url, &websocket.DialOptions{HTTPHeader: header})
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}

	c := &Conn{
		ws:       ws,
		pending:  make(map[uint64]chan Frame),
		handlers: make(map[string]map[uint64]func(Frame)),
	}
	go c.readLoop(ctx)
	return c, nil
}

// Close closes the websocket connection.
func (c *Conn) Close() error {
	return c.ws.Close(websocket.StatusNormalClosure, "bye")
}

// Emit sends a fire-and-forget request frame.
func (c *Conn) Emit(ctx context.Context, event string, data any) error {
	_, err := c.write(ctx, event, data)
	return err
}

// Request sends a frame and waits for the ack correlated by seq.
func (c *Conn) Request(ctx context.Context, event string, data any) (Frame, error) {
	seq, ch, err := c.writePending(ctx, event, data)
	if err != nil {
		return Frame{}, err
	}

	select {
	case frame, ok := <-ch:
		if !ok {
			return Frame{}, errClosed
		}
		return frame, nil
	case <-ctx.Done():
		c.mu.Lock()
		delete(c.pending, seq)
		c.mu.Unlock()
		return Frame{}, ctx.Err()
	}
}

// On registers a handler for a named server event and returns a function
// that removes exactly this registration.
func (c *Conn) On(event string, fn func(Frame)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextTok++
	tok := c.nextTok
	if c.handlers[event] == nil {
		c.handlers[event] = make(map[uint64]func(Frame))
	}
	c.handlers[event][tok] = fn

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.handlers[event], tok)
	}
}

func (c *Conn) write(ctx context.Context, event string, data any) (uint64, error) {
	seq := c.seq.Add(1)
	inbound := proto.Inbound{Event: event, Seq: seq}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return 0, fmt.Errorf("marshal %s: %w", event, err)
		}
		inbound.Data = raw
	}
	if err := wsjson.Write(ctx, c.ws, inbound); err != nil {
		return 0, fmt.Errorf("write %s: %w", event, err)
	}
	return seq, nil
}

func (c *Conn) writePending(ctx context.Context, event string, data any) (uint64, chan Frame, error) {
	seq := c.seq.Add(1)
	inbound := proto.Inbound{Event: event, Seq: seq}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return 0, nil, fmt.Errorf("marshal %s: %w", event, err)
		}
		inbound.Data = raw
	}

	ch := make(chan Frame, 1)
	c.mu.Lock()
	if c.closed {
		readErr := c.readErr
		c.mu.Unlock()
		if readErr != nil {
			return 0, nil, fmt.Errorf("%w: %w", errClosed, readErr)
		}
		return 0, nil, errClosed
	}
	c.pending[seq] = ch
	c.mu.Unlock()

	if err := wsjson.Write(ctx, c.ws, inbound); err != nil {
		c.mu.Lock()
		delete(c.pending, seq)
		c.mu.Unlock()
		return 0, nil, fmt.Errorf("write %s: %w", event, err)
	}
	return seq, ch, nil
}

func (c *Conn) readLoop(ctx context.Context) {
	for {
		var frame Frame
		if err := wsjson.Read(ctx, c.ws, &frame); err != nil {
			c.mu.Lock()
			c.closed = true
			if c.readErr == nil {
				c.readErr = err
			}
			for seq, ch := range c.pending {
				close(ch)
				delete(c.pending, seq)
			}
			c.mu.Unlock()
			return
		}
		c.dispatch(frame)
	}
}

func (c *Conn) dispatch(frame Frame) {
	c.mu.Lock()
	if frame.Seq != 0 {
		if ch, ok := c.pending[frame.Seq]; ok {
			delete(c.pending, frame.Seq)
			c.mu.Unlock()
			ch <- frame
			return
		}
	}
	fns := make([]func(Frame), 0, len(c.handlers[frame.Event]))
	for _, fn := range c.handlers[frame.Event] {
		fns = append(fns, fn)
	}
	c.mu.Unlock()

	for _, fn := range fns {
		fn(frame)
	}
}

var errClosed = errors.New("connection closed")

package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	stdhttp "net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/mkravets/roomwire-server/internal/config"
	"github.com/mkravets/roomwire-server/internal/core"
	"github.com/mkravets/roomwire-server/internal/identity"
	"github.com/mkravets/roomwire-server/internal/proto"
	"github.com/mkravets/roomwire-server/internal/utils"
)

// IdentityHeader carries the client's anonymous identity, bound at
// connection establishment.
const IdentityHeader = "X-User-Id"

// Handler upgrades HTTP connections and bridges them to core.Session.
type Handler struct {
	svc *core.Service
	hub *core.Hub
	ids *identity.Service
	cfg *config.Config
	log *zerolog.Logger
}

// NewHandler builds a new WebSocket handler.
func NewHandler(svc *core.Service, hub *core.Hub, ids *identity.Service, cfg *config.Config, logger *zerolog.Logger) stdhttp.Handler {
	return &Handler{svc: svc, hub: hub, ids: ids, cfg: cfg, log: logger}
}

func (h *Handler) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	ctx := r.Context()

	id := r.Header.Get(IdentityHeader)
	if id == "" {
		stdhttp.Error(w, "missing identity header", stdhttp.StatusUnauthorized)
		return
	}
	if err := h.ids.Validate(ctx, id); err != nil {
		if errors.Is(err, identity.ErrInvalid) {
			stdhttp.Error(w, "invalid identity", stdhttp.StatusForbidden)
			return
		}
		h.log.Error().Err(err).Msg("identity validation error")
		stdhttp.Error(w, "internal error", stdhttp.StatusInternalServerError)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "internal error")

	if h.cfg.MaxMessageBytes > 0 {
		conn.SetReadLimit(h.cfg.MaxMessageBytes)
	}

	sess := core.NewSession(utils.NewID(), id)
	h.hub.Register(sess)
	defer h.svc.Teardown(sess)

	h.log.Info().Str("identity", id).Str("session_id", sess.ID).Msg("session connected")
	sess.Push(&core.Event{Kind: core.EventWelcome, Value: "Hello from server!"})

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 3)
	go func() {
		errCh <- h.readLoop(ctx, conn, sess)
	}()
	go func() {
		errCh <- h.writeLoop(ctx, conn, sess)
	}()
	go func() {
		errCh <- h.watchIdentity(ctx, sess)
	}()

	err = <-errCh
	cancel() // stop the other goroutines
	<-errCh
	<-errCh

	status := websocket.StatusNormalClosure
	reason := "closing"
	if err != nil && !errors.Is(err, context.Canceled) {
		if errors.Is(err, io.EOF) {
			err = nil
		}
		if s := websocket.CloseStatus(err); s != 0 {
			status = s
		}
		if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
			err = nil
		}
		if err != nil {
			if status == websocket.StatusNormalClosure {
				status = websocket.StatusInternalError
			}
			reason = err.Error()
			h.log.Warn().Err(err).Str("identity", id).Msg("ws connection closed with error")
		}
	}

	conn.Close(status, reason)
}

func (h *Handler) readLoop(ctx context.Context, conn *websocket.Conn, sess *core.Session) error {
	for {
		_, raw, err := conn.Read(ctx)
		if err != nil {
			return err
		}

		// Decode the envelope ourselves: a frame that is not valid JSON is
		// answered like any other bad request, it must not kill the socket.
		var inbound proto.Inbound
		if err := json.Unmarshal(raw, &inbound); err != nil {
			if err := sess.Send(ctx, &core.Event{Kind: core.EventError, Err: badRequest("malformed frame")}); err != nil {
				return err
			}
			continue
		}

		ev := h.dispatch(ctx, sess, inbound)
		if ev == nil {
			continue
		}
		if err := sess.Send(ctx, ev); err != nil {
			return err
		}
		if ev.Err != nil && ev.Err.Fatal() {
			return fmt.Errorf("fatal request error: %s", ev.Err.Code)
		}
	}
}

func (h *Handler) writeLoop(ctx context.Context, conn *websocket.Conn, sess *core.Session) error {
	for {
		select {
		case event, ok := <-sess.Events:
			if !ok {
				return nil
			}
			if err := wsjson.Write(ctx, conn, outboundFromEvent(event)); err != nil {
				h.log.Error().Err(err).Str("session_id", sess.ID).Msg("write ws event")
				return err
			}
		case <-ctx.Done():
			return h.flush(conn, sess, ctx.Err())
		}
	}
}

// flush writes replies that were queued before shutdown, so the error that
// caused a fatal disconnect still reaches the client ahead of the close
// frame.
func (h *Handler) flush(conn *websocket.Conn, sess *core.Session, cause error) error {
	for {
		select {
		case event := <-sess.Events:
			writeCtx, cancel := context.WithTimeout(context.Background(), time.Second)
			err := wsjson.Write(writeCtx, conn, outboundFromEvent(event))
			cancel()
			if err != nil {
				return cause
			}
		default:
			return cause
		}
	}
}

// watchIdentity re-validates the session identity on an interval and forces
// disconnect once the identity goes stale. The ticker is tied to the
// connection context, so it cannot outlive any disconnect path.
func (h *Handler) watchIdentity(ctx context.Context, sess *core.Session) error {
	if h.cfg.IdentityCheckInterval <= 0 {
		<-ctx.Done()
		return ctx.Err()
	}

	ticker := time.NewTicker(h.cfg.IdentityCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := h.ids.Validate(ctx, sess.Identity); err != nil {
				h.log.Warn().Err(err).Str("identity", sess.Identity).Msg("identity went stale, disconnecting")
				return fmt.Errorf("identity no longer valid: %w", err)
			}
		}
	}
}

// dispatch validates an inbound frame, applies it through the service and
// returns the event to answer with, or nil for fire-and-forget requests.
func (h *Handler) dispatch(ctx context.Context, sess *core.Session, in proto.Inbound) *core.Event {
	switch in.Event {
	case proto.EventRoomJoin:
		var data proto.JoinData
		if err := json.Unmarshal(in.Data, &data); err != nil || data.RoomID == "" {
			return &core.Event{Kind: core.EventJoinError, Seq: in.Seq, Err: badRequest("roomId is required")}
		}
		if cerr := h.svc.Join(ctx, sess, data.RoomID); cerr != nil {
			return &core.Event{Kind: core.EventJoinError, Seq: in.Seq, Err: cerr}
		}
		return &core.Event{Kind: core.EventJoinSuccess, Seq: in.Seq, RoomID: data.RoomID}

	case proto.EventRoomLeave:
		var data proto.JoinData
		if err := json.Unmarshal(in.Data, &data); err != nil || data.RoomID == "" {
			return &core.Event{Kind: core.EventLeaveError, Seq: in.Seq, Err: badRequest("roomId is required")}
		}
		if cerr := h.svc.Leave(ctx, sess, data.RoomID); cerr != nil {
			return &core.Event{Kind: core.EventLeaveError, Seq: in.Seq, Err: cerr}
		}
		return &core.Event{Kind: core.EventLeaveSuccess, Seq: in.Seq, RoomID: data.RoomID}

	case proto.EventRoomGet:
		roomID, cerr := h.svc.Current(ctx, sess)
		if cerr != nil {
			return &core.Event{Kind: core.EventGetError, Seq: in.Seq, Err: cerr}
		}
		return &core.Event{Kind: core.EventCurrentRoom, Seq: in.Seq, RoomID: roomID}

	case proto.EventRoomList:
		rooms, cerr := h.svc.OwnedRooms(ctx, sess)
		if cerr != nil {
			return &core.Event{Kind: core.EventRoomList, Seq: in.Seq, Err: cerr}
		}
		return &core.Event{Kind: core.EventRoomList, Seq: in.Seq, Rooms: rooms}

	case proto.EventRoomCreate:
		var data proto.CreateData
		if err := json.Unmarshal(in.Data, &data); err != nil || data.RoomName == "" {
			return &core.Event{Kind: core.EventCreateAck, Seq: in.Seq, Err: badRequest("roomName is required")}
		}
		room, cerr := h.svc.Create(ctx, sess, data.RoomName)
		if cerr != nil {
			return &core.Event{Kind: core.EventCreateAck, Seq: in.Seq, Err: cerr}
		}
		return &core.Event{Kind: core.EventCreateAck, Seq: in.Seq, Room: room}

	case proto.EventRoomMessage:
		var data proto.MessageData
		if err := json.Unmarshal(in.Data, &data); err != nil || data.Text == "" {
			return &core.Event{Kind: core.EventError, Seq: in.Seq, Err: badRequest("text is required")}
		}
		if cerr := h.svc.Message(ctx, sess, data.Text); cerr != nil {
			return &core.Event{Kind: core.EventError, Seq: in.Seq, Err: cerr}
		}
		return nil

	default:
		return &core.Event{Kind: core.EventError, Seq: in.Seq, Err: badRequest("unknown event " + in.Event)}
	}
}

func badRequest(msg string) *core.Error {
	return &core.Error{Code: core.ErrCodeBadRequest, Message: msg}
}

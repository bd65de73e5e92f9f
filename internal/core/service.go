package core

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"
)

// IdentityChecker re-validates an identity before an operation is honored.
// Validation may round-trip to an external store and is the only step in a
// request that is allowed to suspend.
type IdentityChecker interface {
	Validate(ctx context.Context, identity string) error
}

// Service orchestrates join, leave, get, list and create against the room
// registry, the membership store and the hub's broadcast groups. Mutations
// are serialized by a single lock; contention is bounded by the number of
// concurrent human users.
type Service struct {
	mu      sync.Mutex
	rooms   *RoomRegistry
	members *MembershipStore
	hub     *Hub
	ids     IdentityChecker
	log     *zerolog.Logger
}

// NewService constructs a service. ids may be nil, in which case identity
// re-validation is skipped.
func NewService(rooms *RoomRegistry, members *MembershipStore, hub *Hub, ids IdentityChecker, logger *zerolog.Logger) *Service {
	return &Service{
		rooms:   rooms,
		members: members,
		hub:     hub,
		ids:     ids,
		log:     logger,
	}
}

// Join makes the session's identity a member of the room and subscribes the
// session to the room's broadcast group. An identity may hold at most one
// membership system-wide; a second join fails with already_member and
// performs no mutation.
func (s *Service) Join(ctx context.Context, sess *Session, roomID string) *Error {
	if err := s.checkIdentity(ctx, sess); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.rooms.Find(roomID); err != nil {
		return newError(ErrCodeRoomNotFound, "Room not found")
	}
	if m := s.members.FindByIdentity(sess.Identity); m != nil {
		return newError(ErrCodeAlreadyMember, "Already a member of room "+m.RoomID)
	}
	if _, err := s.members.Create(sess.Identity, roomID); err != nil {
		s.log.Error().Err(err).Str("identity", sess.Identity).Str("room_id", roomID).Msg("membership insert failed")
		return newError(ErrCodeInternal, "Internal server error")
	}
	s.hub.Subscribe(sess, roomID)

	s.log.Info().Str("identity", sess.Identity).Str("room_id", roomID).Msg("joined room")
	return nil
}

// Leave removes the session's membership in the room and unsubscribes the
// session from the room's broadcast group.
func (s *Service) Leave(ctx context.Context, sess *Session, roomID string) *Error {
	if err := s.checkIdentity(ctx, sess); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.members.Remove(sess.Identity, roomID); err != nil {
		if errors.Is(err, ErrNotMember) {
			return newError(ErrCodeNotMember, "Not a member of this room")
		}
		s.log.Error().Err(err).Str("identity", sess.Identity).Str("room_id", roomID).Msg("membership remove failed")
		return newError(ErrCodeInternal, "Internal server error")
	}
	s.hub.Unsubscribe(sess, roomID)

	s.log.Info().Str("identity", sess.Identity).Str("room_id", roomID).Msg("left room")
	return nil
}

// Current returns the room id of the identity's active membership, or the
// empty string if it holds none.
func (s *Service) Current(ctx context.Context, sess *Session) (string, *Error) {
	if err := s.checkIdentity(ctx, sess); err != nil {
		return "", err
	}

	if m := s.members.FindByIdentity(sess.Identity); m != nil {
		return m.RoomID, nil
	}
	return "", nil
}

// OwnedRooms returns the rooms owned by the session's identity.
func (s *Service) OwnedRooms(ctx context.Context, sess *Session) ([]*Room, *Error) {
	if err := s.checkIdentity(ctx, sess); err != nil {
		return nil, err
	}
	return s.rooms.ListByOwner(sess.Identity), nil
}

// Create registers a room owned by the session's identity and announces it
// to all connections.
func (s *Service) Create(ctx context.Context, sess *Session, name string) (*Room, *Error) {
	if err := s.checkIdentity(ctx, sess); err != nil {
		return nil, err
	}

	s.mu.Lock()
	room, err := s.rooms.Create(sess.Identity, name)
	s.mu.Unlock()
	if err != nil {
		if errors.Is(err, ErrRoomExists) {
			return nil, newError(ErrCodeRoomExists, "Room already exists")
		}
		s.log.Error().Err(err).Str("identity", sess.Identity).Str("room_name", name).Msg("room create failed")
		return nil, newError(ErrCodeInternal, "Internal server error")
	}

	s.hub.BroadcastAll(&Event{Kind: EventRoomCreated, Room: room})

	s.log.Info().Str("identity", sess.Identity).Str("room_id", room.ID).Msg("room created")
	return room, nil
}

// Message delivers text to the broadcast group of the sender's current room.
func (s *Service) Message(ctx context.Context, sess *Session, text string) *Error {
	if err := s.checkIdentity(ctx, sess); err != nil {
		return err
	}

	m := s.members.FindByIdentity(sess.Identity)
	if m == nil {
		return newError(ErrCodeNotMember, "Not a member of any room")
	}
	s.hub.BroadcastRoom(m.RoomID, &Event{
		Kind:   EventRoomMessage,
		RoomID: m.RoomID,
		From:   sess.Identity,
		Value:  text,
	})
	return nil
}

// Teardown removes every membership held by the session's identity and
// detaches the session from all broadcast groups. It must run on every
// disconnect path; a dangling membership with no live transport would keep
// accumulating dead group subscriptions.
func (s *Service) Teardown(sess *Session) {
	s.mu.Lock()
	removed := s.members.RemoveAllByIdentity(sess.Identity)
	s.mu.Unlock()

	s.hub.Unregister(sess)

	if len(removed) > 0 {
		s.log.Info().Str("identity", sess.Identity).Int("memberships", len(removed)).Msg("cleaned up memberships on disconnect")
	}
}

func (s *Service) checkIdentity(ctx context.Context, sess *Session) *Error {
	if s.ids == nil {
		return nil
	}
	if err := s.ids.Validate(ctx, sess.Identity); err != nil {
		s.log.Warn().Err(err).Str("identity", sess.Identity).Msg("identity validation failed")
		return newError(ErrCodeIdentityInvalid, "Identity is no longer valid")
	}
	return nil
}

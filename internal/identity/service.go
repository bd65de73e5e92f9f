package identity

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/mkravets/roomwire-server/internal/store"
)

// ErrInvalid is returned when an identity is unknown or has expired.
var ErrInvalid = errors.New("invalid identity")

// DefaultTTL is how long an issued identity stays valid.
const DefaultTTL = 7 * 24 * time.Hour

// Service issues and validates opaque per-client identities. Identities are
// created once per session, immutable, and never reused.
type Service struct {
	store store.IdentityStore
	ttl   time.Duration
	log   *zerolog.Logger
}

// NewService creates an identity service. A ttl of zero disables expiry.
func NewService(st store.IdentityStore, ttl time.Duration, logger *zerolog.Logger) *Service {
	return &Service{
		store: st,
		ttl:   ttl,
		log:   logger,
	}
}

// Issue creates a new opaque identity, persists it and returns it.
func (s *Service) Issue(ctx context.Context) (string, error) {
	id, err := generateID()
	if err != nil {
		return "", fmt.Errorf("generate identity: %w", err)
	}
	if err := s.store.CreateIdentity(ctx, id); err != nil {
		return "", fmt.Errorf("persist identity: %w", err)
	}

	s.log.Debug().Str("identity", id).Msg("identity issued")
	return id, nil
}

// Validate checks that the identity exists and has not expired.
func (s *Service) Validate(ctx context.Context, id string) error {
	rec, err := s.store.GetIdentity(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return ErrInvalid
	}
	if err != nil {
		return fmt.Errorf("lookup identity: %w", err)
	}
	if s.ttl > 0 && time.Since(rec.CreatedAt) > s.ttl {
		return fmt.Errorf("%w: expired", ErrInvalid)
	}
	return nil
}

// PurgeExpired deletes identities older than the TTL and returns how many
// were removed.
func (s *Service) PurgeExpired(ctx context.Context) (int64, error) {
	if s.ttl <= 0 {
		return 0, nil
	}
	return s.store.DeleteIdentitiesBefore(ctx, time.Now().Add(-s.ttl))
}

// RunCleanup purges expired identities on the given interval until the
// context is cancelled.
func (s *Service) RunCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.PurgeExpired(ctx)
			if err != nil {
				s.log.Warn().Err(err).Msg("identity cleanup failed")
				continue
			}
			if n > 0 {
				s.log.Info().Int64("purged", n).Msg("expired identities removed")
			}
		}
	}
}

// generateID returns 32 random bytes in hex.
func generateID() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

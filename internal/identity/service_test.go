package identity

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/mkravets/roomwire-server/internal/store"
)

// memStore is an in-memory IdentityStore so tests can control issue times.
type memStore struct {
	mu    sync.Mutex
	items map[string]time.Time
}

func newMemStore() *memStore {
	return &memStore{items: make(map[string]time.Time)}
}

func (m *memStore) CreateIdentity(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[id] = time.Now()
	return nil
}

func (m *memStore) GetIdentity(ctx context.Context, id string) (*store.Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	created, ok := m.items[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &store.Identity{ID: id, CreatedAt: created}, nil
}

func (m *memStore) DeleteIdentitiesBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, created := range m.items {
		if created.Before(cutoff) {
			delete(m.items, id)
			n++
		}
	}
	return n, nil
}

func (m *memStore) backdate(id string, d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[id] = m.items[id].Add(-d)
}

func newTestService(t *testing.T, ttl time.Duration) (*Service, *memStore) {
	t.Helper()
	logger := zerolog.New(nil)
	st := newMemStore()
	return NewService(st, ttl, &logger), st
}

func TestIssueAndValidate(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, DefaultTTL)

	id, err := svc.Issue(ctx)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if len(id) != 64 {
		t.Fatalf("expected 64 hex chars, got %d (%q)", len(id), id)
	}
	if err := svc.Validate(ctx, id); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestValidateUnknown(t *testing.T) {
	svc, _ := newTestService(t, DefaultTTL)

	err := svc.Validate(context.Background(), "nobody")
	if !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
}

func TestValidateExpired(t *testing.T) {
	ctx := context.Background()
	svc, st := newTestService(t, time.Hour)

	id, err := svc.Issue(ctx)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	st.backdate(id, 2*time.Hour)

	err = svc.Validate(ctx, id)
	if !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid for expired identity, got %v", err)
	}
}

func TestZeroTTLDisablesExpiry(t *testing.T) {
	ctx := context.Background()
	svc, st := newTestService(t, 0)

	id, err := svc.Issue(ctx)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	st.backdate(id, 1000*time.Hour)

	if err := svc.Validate(ctx, id); err != nil {
		t.Fatalf("expected ancient identity to stay valid, got %v", err)
	}
	if n, err := svc.PurgeExpired(ctx); err != nil || n != 0 {
		t.Fatalf("purge with zero ttl should be a no-op, got %d (%v)", n, err)
	}
}

func TestPurgeExpired(t *testing.T) {
	ctx := context.Background()
	svc, st := newTestService(t, time.Hour)

	old, err := svc.Issue(ctx)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	fresh, err := svc.Issue(ctx)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	st.backdate(old, 2*time.Hour)

	n, err := svc.PurgeExpired(ctx)
	if err != nil {
		t.Fatalf("purge: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 purged, got %d", n)
	}
	if err := svc.Validate(ctx, fresh); err != nil {
		t.Fatalf("fresh identity should survive purge: %v", err)
	}
	if err := svc.Validate(ctx, old); !errors.Is(err, ErrInvalid) {
		t.Fatalf("purged identity should be invalid, got %v", err)
	}
}

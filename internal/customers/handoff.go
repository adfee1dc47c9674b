package customers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	pkgredis "github.com/medibill/pos-backend/pkg/redis"
)

// Handoff carries the customer picked on the directory screen to the next
// checkout opened on the same terminal. A value is consumed at most once and a
// newer offer replaces an unconsumed one.
type Handoff interface {
	Offer(ctx context.Context, terminalID string, customerID uuid.UUID) error
	Consume(ctx context.Context, terminalID string) (uuid.UUID, bool, error)
}

type offer struct {
	customerID uuid.UUID
	expiresAt  time.Time
}

// MemoryHandoff keeps at most one pending offer per terminal. Slots exist only
// between an Offer and the Consume that drains it.
type MemoryHandoff struct {
	ttl   time.Duration
	clock clockwork.Clock

	mu    sync.Mutex
	slots map[string]offer
}

// NewMemoryHandoff builds an in-process handoff. ttl <= 0 keeps offers until consumed.
func NewMemoryHandoff(ttl time.Duration, clock clockwork.Clock) *MemoryHandoff {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &MemoryHandoff{ttl: ttl, clock: clock, slots: map[string]offer{}}
}

func (h *MemoryHandoff) Offer(_ context.Context, terminalID string, customerID uuid.UUID) error {
	terminalID = strings.TrimSpace(terminalID)
	if terminalID == "" {
		return fmt.Errorf("terminal id required")
	}
	o := offer{customerID: customerID}
	if h.ttl > 0 {
		o.expiresAt = h.clock.Now().Add(h.ttl)
	}

	h.mu.Lock()
	h.slots[terminalID] = o
	h.mu.Unlock()
	return nil
}

func (h *MemoryHandoff) Consume(_ context.Context, terminalID string) (uuid.UUID, bool, error) {
	terminalID = strings.TrimSpace(terminalID)

	h.mu.Lock()
	o, ok := h.slots[terminalID]
	if ok {
		delete(h.slots, terminalID)
	}
	h.mu.Unlock()

	if !ok {
		return uuid.Nil, false, nil
	}
	if !o.expiresAt.IsZero() && !h.clock.Now().Before(o.expiresAt) {
		return uuid.Nil, false, nil
	}
	return o.customerID, true, nil
}

type handoffStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	GetDel(ctx context.Context, key string) (string, error)
	HandoffKey(terminalID string) string
}

// RedisHandoff shares the slot between API replicas: SET with a TTL to offer,
// GETDEL to consume.
type RedisHandoff struct {
	store handoffStore
	ttl   time.Duration
}

func NewRedisHandoff(store handoffStore, ttl time.Duration) (*RedisHandoff, error) {
	if store == nil {
		return nil, fmt.Errorf("redis store required")
	}
	return &RedisHandoff{store: store, ttl: ttl}, nil
}

func (h *RedisHandoff) Offer(ctx context.Context, terminalID string, customerID uuid.UUID) error {
	terminalID = strings.TrimSpace(terminalID)
	if terminalID == "" {
		return fmt.Errorf("terminal id required")
	}
	if err := h.store.Set(ctx, h.store.HandoffKey(terminalID), customerID.String(), h.ttl); err != nil {
		return fmt.Errorf("offer customer: %w", err)
	}
	return nil
}

func (h *RedisHandoff) Consume(ctx context.Context, terminalID string) (uuid.UUID, bool, error) {
	raw, err := h.store.GetDel(ctx, h.store.HandoffKey(strings.TrimSpace(terminalID)))
	if errors.Is(err, pkgredis.Nil) {
		return uuid.Nil, false, nil
	}
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("consume customer: %w", err)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("corrupt handoff value %q: %w", raw, err)
	}
	return id, true, nil
}

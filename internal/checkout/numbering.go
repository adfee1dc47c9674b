package checkout

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

const (
	defaultReceiptPrefix = "RCP"
	receiptDayLayout     = "20060102"
	counterTTL           = 48 * time.Hour
)

// ReceiptNumberer hands out receipt numbers of the form PREFIX-YYYYMMDD-NNN,
// where NNN restarts every day.
type ReceiptNumberer interface {
	Next(ctx context.Context, issuedAt time.Time) (string, error)
}

func formatReceiptNumber(prefix string, day time.Time, seq int64) string {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = defaultReceiptPrefix
	}
	return fmt.Sprintf("%s-%s-%03d", prefix, day.Format(receiptDayLayout), seq)
}

// MemoryNumberer keeps the daily sequence in process.
type MemoryNumberer struct {
	prefix string

	mu   sync.Mutex
	day  string
	next int64
}

func NewMemoryNumberer(prefix string) *MemoryNumberer {
	return &MemoryNumberer{prefix: prefix}
}

func (n *MemoryNumberer) Next(_ context.Context, issuedAt time.Time) (string, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	day := issuedAt.Format(receiptDayLayout)
	if day != n.day {
		n.day = day
		n.next = 0
	}
	n.next++
	return formatReceiptNumber(n.prefix, issuedAt, n.next), nil
}

type counterStore interface {
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
	CounterKey(name string) string
}

// RedisNumberer shares the daily sequence between API replicas.
type RedisNumberer struct {
	prefix string
	store  counterStore
}

func NewRedisNumberer(prefix string, store counterStore) (*RedisNumberer, error) {
	if store == nil {
		return nil, fmt.Errorf("counter store required")
	}
	return &RedisNumberer{prefix: prefix, store: store}, nil
}

func (n *RedisNumberer) Next(ctx context.Context, issuedAt time.Time) (string, error) {
	key := n.store.CounterKey("receipts:" + issuedAt.Format(receiptDayLayout))
	seq, err := n.store.IncrWithTTL(ctx, key, counterTTL)
	if err != nil {
		return "", fmt.Errorf("next receipt sequence: %w", err)
	}
	return formatReceiptNumber(n.prefix, issuedAt, seq), nil
}

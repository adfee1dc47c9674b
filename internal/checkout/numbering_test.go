package checkout

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryNumbererRestartsEachDay(t *testing.T) {
	n := NewMemoryNumberer("RCP")
	day1 := time.Date(2025, time.March, 3, 9, 0, 0, 0, time.UTC)

	first, err := n.Next(context.Background(), day1)
	require.NoError(t, err)
	second, err := n.Next(context.Background(), day1.Add(time.Hour))
	require.NoError(t, err)
	nextDay, err := n.Next(context.Background(), day1.AddDate(0, 0, 1))
	require.NoError(t, err)

	assert.Equal(t, "RCP-20250303-001", first)
	assert.Equal(t, "RCP-20250303-002", second)
	assert.Equal(t, "RCP-20250304-001", nextDay)
}

func TestMemoryNumbererDefaultsPrefix(t *testing.T) {
	n := NewMemoryNumberer("  ")
	number, err := n.Next(context.Background(), time.Date(2025, time.March, 3, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "RCP-20250303-001", number)
}

type stubCounter struct {
	keys []string
	ttl  time.Duration
	next int64
	err  error
}

func (s *stubCounter) IncrWithTTL(_ context.Context, key string, ttl time.Duration) (int64, error) {
	if s.err != nil {
		return 0, s.err
	}
	s.keys = append(s.keys, key)
	s.ttl = ttl
	s.next++
	return s.next, nil
}

func (s *stubCounter) CounterKey(name string) string {
	return "medibill:counter:" + name
}

func TestRedisNumbererUsesDailyKey(t *testing.T) {
	store := &stubCounter{next: 41}
	n, err := NewRedisNumberer("RCP", store)
	require.NoError(t, err)

	number, err := n.Next(context.Background(), time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "RCP-20250601-042", number)
	assert.Equal(t, []string{"medibill:counter:receipts:20250601"}, store.keys)
	assert.Equal(t, counterTTL, store.ttl)
}

func TestRedisNumbererPropagatesErrors(t *testing.T) {
	n, err := NewRedisNumberer("RCP", &stubCounter{err: errors.New("conn refused")})
	require.NoError(t, err)
	_, err = n.Next(context.Background(), time.Now())
	require.Error(t, err)

	_, err = NewRedisNumberer("RCP", nil)
	require.Error(t, err)
}

package cache

import (
	"testing"
	"time"

	"github.com/kyuwon/tradewind/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_GetSet(t *testing.T) {
	m := NewMemory(time.Minute)
	key := Key{Ticker: "AAPL", Period: "1y", Interval: "1d"}

	_, ok := m.Get(key)
	assert.False(t, ok, "empty cache should miss")

	bars := []core.PriceBar{{Close: 100}, {Close: 101}}
	m.Set(key, bars)

	got, ok := m.Get(key)
	require.True(t, ok)
	assert.Equal(t, bars, got)
	assert.Equal(t, 1, m.Len())
}

func TestMemory_TTLExpiry(t *testing.T) {
	m := NewMemory(time.Minute)
	now := time.Now()
	m.now = func() time.Time { return now }

	key := Key{Ticker: "AAPL", Period: "1y", Interval: "1d"}
	m.Set(key, []core.PriceBar{{Close: 100}})

	now = now.Add(59 * time.Second)
	_, ok := m.Get(key)
	assert.True(t, ok, "entry should be fresh before TTL")

	now = now.Add(2 * time.Second)
	_, ok = m.Get(key)
	assert.False(t, ok, "entry should expire at TTL")
}

func TestMemory_KeysAreDistinct(t *testing.T) {
	m := NewMemory(time.Minute)
	m.Set(Key{Ticker: "AAPL", Period: "1y", Interval: "1d"}, []core.PriceBar{{Close: 1}})
	m.Set(Key{Ticker: "AAPL", Period: "3mo", Interval: "1d"}, []core.PriceBar{{Close: 2}})

	a, ok := m.Get(Key{Ticker: "AAPL", Period: "1y", Interval: "1d"})
	require.True(t, ok)
	b, ok := m.Get(Key{Ticker: "AAPL", Period: "3mo", Interval: "1d"})
	require.True(t, ok)
	assert.NotEqual(t, a[0].Close, b[0].Close)
}

package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*CacheService, *time.Time) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	cs := NewCacheService(ctx)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	cs.now = func() time.Time { return now }
	return cs, &now
}

func TestCacheService_SetGetExpire(t *testing.T) {
	cs, now := newTestCache(t)

	cs.Set("a", 1, time.Minute)
	v, ok := cs.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)

	*now = now.Add(2 * time.Minute)
	_, ok = cs.Get("a")
	assert.False(t, ok)

	cs.evictExpired()
	assert.Equal(t, 0, cs.Len())
}

func TestCacheService_Delete(t *testing.T) {
	cs, _ := newTestCache(t)
	cs.Set(PublicVersionCacheKey("t1"), 1, time.Minute)
	cs.Set(PublicVersionCacheKey("t2"), 2, time.Minute)

	cs.Delete(PublicVersionCacheKey("t1"))

	assert.Equal(t, 1, cs.Len())
	_, ok := cs.Get(PublicVersionCacheKey("t1"))
	assert.False(t, ok)
	_, ok = cs.Get(PublicVersionCacheKey("t2"))
	assert.True(t, ok)
}

func TestCacheService_GetOrSet(t *testing.T) {
	cs, _ := newTestCache(t)
	calls := 0
	fn := func(context.Context) (interface{}, error) {
		calls++
		return "value", nil
	}

	for i := 0; i < 3; i++ {
		v, err := cs.GetOrSet(context.Background(), "k", time.Minute, fn)
		require.NoError(t, err)
		assert.Equal(t, "value", v)
	}
	assert.Equal(t, 1, calls)

	_, err := cs.GetOrSet(context.Background(), "fail", time.Minute, func(context.Context) (interface{}, error) {
		return nil, errors.New("boom")
	})
	assert.Error(t, err)
	_, ok := cs.Get("fail")
	assert.False(t, ok)
}

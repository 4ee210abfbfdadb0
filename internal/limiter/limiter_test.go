package limiter

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func TestMemoryAllowsUpToMaxPerWindow(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	l := NewMemory(3, time.Minute)
	l.now = clock.Now

	for i := 0; i < 3; i++ {
		ok, err := l.Allow(ctx, "1.2.3.4")
		require.NoError(t, err)
		require.True(t, ok, "attempt %d", i+1)
	}

	ok, _ := l.Allow(ctx, "1.2.3.4")
	require.False(t, ok)

	ok, _ = l.Allow(ctx, "5.6.7.8")
	require.True(t, ok, "other keys are independent")

	clock.Advance(time.Minute + time.Second)
	ok, _ = l.Allow(ctx, "1.2.3.4")
	require.True(t, ok, "window slid past old hits")
}

func TestMemorySweepDropsIdleKeys(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	l := NewMemory(1, time.Minute)
	l.now = clock.Now

	_, _ = l.Allow(ctx, "a")
	clock.Advance(2 * time.Minute)
	_, _ = l.Allow(ctx, "b")

	l.mu.Lock()
	defer l.mu.Unlock()
	_, exists := l.attempts["a"]
	require.False(t, exists)
}

func TestMemoryConcurrent(t *testing.T) {
	ctx := context.Background()
	l := NewMemory(10, time.Hour)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := l.Allow(ctx, "k"); ok {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	require.Equal(t, 10, allowed)
}

type fakeCounter struct {
	counts map[string]int64
	ttls   map[string]time.Duration
}

func (f *fakeCounter) incr(_ context.Context, key string, ttl time.Duration) (int64, error) {
	f.counts[key]++
	f.ttls[key] = ttl
	return f.counts[key], nil
}

func TestRedisFixedWindow(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	counter := &fakeCounter{counts: map[string]int64{}, ttls: map[string]time.Duration{}}
	l := &Redis{counter: counter, prefix: "lumina:guest", max: 2, window: time.Hour, now: clock.Now}

	for i := 0; i < 2; i++ {
		ok, err := l.Allow(ctx, "ip")
		require.NoError(t, err)
		require.True(t, ok)
	}
	ok, err := l.Allow(ctx, "ip")
	require.NoError(t, err)
	require.False(t, ok)

	clock.Advance(time.Hour)
	ok, err = l.Allow(ctx, "ip")
	require.NoError(t, err)
	require.True(t, ok)

	require.Len(t, counter.counts, 2)
	for key, ttl := range counter.ttls {
		require.Contains(t, key, "lumina:guest:ip:")
		require.Equal(t, time.Hour, ttl)
	}
}

func TestDisabledLimiters(t *testing.T) {
	ok, err := NewMemory(0, time.Minute).Allow(context.Background(), "x")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = Unlimited{}.Allow(context.Background(), "x")
	require.NoError(t, err)
	require.True(t, ok)
}

package ratelimit

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type dropCounter struct {
	mu    sync.Mutex
	drops map[string]int
}

func (d *dropCounter) RecordRateLimiterDrop(limiter string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.drops == nil {
		d.drops = map[string]int{}
	}
	d.drops[limiter]++
}

func TestKeyed_PerKeyBuckets(t *testing.T) {
	t.Parallel()
	rec := &dropCounter{}
	k := newKeyedAt(Config{Name: "api", Burst: 1, RefillRate: 1, CleanupPeriod: time.Hour, Recorder: rec}, newFakeClock().Now)
	defer k.Stop()

	assert.True(t, k.Allow("10.0.0.1"))
	assert.False(t, k.Allow("10.0.0.1"))
	assert.True(t, k.Allow("10.0.0.2"))
	assert.True(t, k.Allow(""), "empty key is never limited")
	assert.Equal(t, 1, rec.drops["api"])
	assert.Equal(t, 2, k.Active())
}

func TestKeyed_WindowQuota(t *testing.T) {
	t.Parallel()
	clock := newFakeClock()
	k := newKeyedAt(Config{Name: "feedback", Burst: 10, RefillRate: 10, WindowLimit: 2, CleanupPeriod: time.Hour}, clock.Now)
	defer k.Stop()

	assert.Equal(t, 2, k.Remaining("u1"))
	assert.True(t, k.Allow("u1"))
	assert.True(t, k.Allow("u1"))
	assert.False(t, k.Allow("u1"), "window quota exhausted")
	assert.Equal(t, 0, k.Remaining("u1"))

	clock.Advance(72 * time.Hour)
	assert.True(t, k.Allow("u1"))
}

func TestKeyed_RemainingWithoutWindow(t *testing.T) {
	t.Parallel()
	k := NewKeyed(Config{Name: "api", Burst: 5, RefillRate: 1})
	defer k.Stop()
	assert.Equal(t, -1, k.Remaining("anyone"))
}

func TestKeyed_Sweep(t *testing.T) {
	t.Parallel()
	clock := newFakeClock()
	k := newKeyedAt(Config{Name: "api", Burst: 2, RefillRate: 1, WindowLimit: 5, WindowSize: time.Hour, CleanupPeriod: time.Hour}, clock.Now)
	defer k.Stop()

	k.Allow("a")
	clock.Advance(10 * time.Second)
	k.sweep()
	assert.Equal(t, 1, k.Active(), "window usage keeps the key")

	clock.Advance(3 * time.Hour)
	k.sweep()
	assert.Equal(t, 0, k.Active())
}

func TestKeyed_Concurrent(t *testing.T) {
	t.Parallel()
	k := NewKeyed(Config{Name: "api", Burst: 1000, RefillRate: 1, CleanupPeriod: time.Hour})
	defer k.Stop()

	var wg sync.WaitGroup
	for i := range 100 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			key := fmt.Sprintf("client%d", i%10)
			k.Allow(key)
			k.Remaining(key)
		}()
	}
	wg.Wait()
	assert.Equal(t, 10, k.Active())
	k.Stop()
}

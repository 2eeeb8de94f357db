package admission

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testID = Identity{ChatID: -100123, UserID: 42}

func testGate(opts Options) *Gate {
	if opts.Window == 0 {
		opts.Window = time.Minute
	}
	return NewGate(opts)
}

func TestGateSingleFlight(t *testing.T) {
	g := testGate(Options{UserLimit: 5, GlobalLimit: 30, Cooldown: 5 * time.Second})
	now := time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)

	first := g.Admit(testID, now)
	require.Equal(t, Allowed, first.Decision)

	second := g.Admit(testID, now.Add(10*time.Second))
	assert.Equal(t, DeniedBusy, second.Decision)

	// A different identity is not affected by the held lock.
	other := g.Admit(Identity{ChatID: testID.ChatID, UserID: 43}, now)
	assert.Equal(t, Allowed, other.Decision)

	g.Release(testID)
	third := g.Admit(testID, now.Add(10*time.Second))
	assert.Equal(t, Allowed, third.Decision)
}

func TestGateUserRateLimit(t *testing.T) {
	g := testGate(Options{UserLimit: 5, GlobalLimit: 30, Cooldown: 5 * time.Second})
	now := time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		res := g.Admit(testID, now.Add(time.Duration(i)*6*time.Second))
		require.Equal(t, Allowed, res.Decision, "request %d", i)
		g.Release(testID)
	}

	res := g.Admit(testID, now.Add(30*time.Second))
	assert.Equal(t, DeniedUserRateLimited, res.Decision)

	// The lock is released on denial.
	res = g.Admit(testID, now.Add(31*time.Second))
	assert.Equal(t, DeniedUserRateLimited, res.Decision)

	// Once the window slides past the first requests, admission resumes.
	res = g.Admit(testID, now.Add(70*time.Second))
	assert.Equal(t, Allowed, res.Decision)
}

func TestGateGlobalRateLimit(t *testing.T) {
	g := testGate(Options{UserLimit: 100, GlobalLimit: 2, Cooldown: time.Nanosecond, MinGap: time.Nanosecond})
	now := time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 2; i++ {
		id := Identity{ChatID: 1, UserID: int64(i)}
		res := g.Admit(id, now.Add(time.Duration(i)*time.Second))
		require.Equal(t, Allowed, res.Decision)
		g.Release(id)
	}

	res := g.Admit(Identity{ChatID: 1, UserID: 99}, now.Add(3*time.Second))
	assert.Equal(t, DeniedGlobalRateLimited, res.Decision)
}

func TestGateCooldown(t *testing.T) {
	g := testGate(Options{UserLimit: 5, GlobalLimit: 30, Cooldown: 5 * time.Second})
	now := time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)

	res := g.Admit(testID, now)
	require.Equal(t, Allowed, res.Decision)
	g.Release(testID)

	res = g.Admit(testID, now.Add(2*time.Second))
	require.Equal(t, DeniedCooldown, res.Decision)
	assert.InDelta(t, 3.0, res.RetryAfter.Seconds(), 0.01)

	// The lock was released on denial, and once the cooldown elapses
	// the identity is admitted again.
	res = g.Admit(testID, now.Add(6*time.Second))
	assert.Equal(t, Allowed, res.Decision)
}

func TestGateDeniedRequestStillCountsAgainstWindow(t *testing.T) {
	g := testGate(Options{UserLimit: 3, GlobalLimit: 30, Cooldown: time.Hour})
	now := time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)

	res := g.Admit(testID, now)
	require.Equal(t, Allowed, res.Decision)
	g.Release(testID)

	// Both cooldown denials appended a window entry before being
	// turned away, so the user ceiling of 3 is reached early.
	for i := 1; i <= 2; i++ {
		res = g.Admit(testID, now.Add(time.Duration(i)*time.Second))
		require.Equal(t, DeniedCooldown, res.Decision)
	}

	res = g.Admit(testID, now.Add(3*time.Second))
	assert.Equal(t, DeniedUserRateLimited, res.Decision)
}

func TestGateConcurrentAdmitSingleWinner(t *testing.T) {
	g := testGate(Options{UserLimit: 100, GlobalLimit: 100, Cooldown: time.Hour})
	now := time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)

	var allowed atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if g.Admit(testID, now).Allowed() {
				allowed.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), allowed.Load())
}

func TestIdentityKey(t *testing.T) {
	assert.Equal(t, "-100123_42", testID.Key())
}

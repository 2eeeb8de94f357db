// Package admission gates meme requests before any external call is made.
// It combines a single-flight-per-identity lock, sliding-window rate limits
// (per user and global) and a fixed cooldown into one decision.
package admission

import (
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"
)

// Identity keys all admission bookkeeping: one chat member in one chat.
type Identity struct {
	ChatID int64
	UserID int64
}

func (id Identity) Key() string {
	return fmt.Sprintf("%d_%d", id.ChatID, id.UserID)
}

type Decision int

const (
	Allowed Decision = iota
	DeniedBusy
	DeniedUserRateLimited
	DeniedGlobalRateLimited
	DeniedCooldown
)

func (d Decision) String() string {
	switch d {
	case Allowed:
		return "allowed"
	case DeniedBusy:
		return "busy"
	case DeniedUserRateLimited:
		return "user_rate_limited"
	case DeniedGlobalRateLimited:
		return "global_rate_limited"
	case DeniedCooldown:
		return "cooldown"
	default:
		return "unknown"
	}
}

// Result carries the decision plus, for cooldown denials, how long the
// caller has to wait before retrying.
type Result struct {
	Decision   Decision
	RetryAfter time.Duration
}

func (r Result) Allowed() bool {
	return r.Decision == Allowed
}

type Options struct {
	Window      time.Duration
	UserLimit   int
	GlobalLimit int
	Cooldown    time.Duration
	MinGap      time.Duration
	Logger      *slog.Logger
}

// Gate owns all admission state. The state lives for the lifetime of the
// process; nothing is persisted across restarts and nothing is shared
// across instances.
type Gate struct {
	mu sync.Mutex

	window      time.Duration
	userLimit   int
	globalLimit int
	cooldown    time.Duration
	minGap      time.Duration
	logger      *slog.Logger

	active       map[Identity]bool
	userWindows  map[Identity][]time.Time
	globalWindow []time.Time
	lastAccepted map[Identity]time.Time
}

func NewGate(opts Options) *Gate {
	window := opts.Window
	if window <= 0 {
		window = time.Minute
	}
	userLimit := opts.UserLimit
	if userLimit < 1 {
		userLimit = 5
	}
	globalLimit := opts.GlobalLimit
	if globalLimit < 1 {
		globalLimit = 30
	}
	cooldown := opts.Cooldown
	if cooldown <= 0 {
		cooldown = 5 * time.Second
	}
	minGap := opts.MinGap
	if minGap <= 0 {
		minGap = 100 * time.Millisecond
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Gate{
		window:       window,
		userLimit:    userLimit,
		globalLimit:  globalLimit,
		cooldown:     cooldown,
		minGap:       minGap,
		logger:       logger,
		active:       make(map[Identity]bool),
		userWindows:  make(map[Identity][]time.Time),
		lastAccepted: make(map[Identity]time.Time),
	}
}

// Admit runs the admission checks in a fixed order, first failing check
// wins: in-flight lock, per-user window, global window, cooldown. An
// in-flight request never consumes a rate-limit slot. On Allowed the
// in-flight lock is held and the caller must call Release once the
// request finishes, whatever the outcome.
//
// A request denied by a later check keeps the window entries appended by
// the earlier checks, so hammering the bot while limited only pushes the
// next allowed slot further out.
func (g *Gate) Admit(id Identity, now time.Time) Result {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.active[id] {
		g.logger.Info("request already in flight", "key", id.Key())
		return Result{Decision: DeniedBusy}
	}
	g.active[id] = true

	userWindow := pruneWindow(g.userWindows[id], now, g.window)
	if len(userWindow) >= g.userLimit {
		g.userWindows[id] = userWindow
		g.active[id] = false
		g.logger.Warn("user rate limit exceeded", "key", id.Key(), "count", len(userWindow))
		return Result{Decision: DeniedUserRateLimited}
	}
	g.userWindows[id] = append(userWindow, now)

	g.globalWindow = pruneWindow(g.globalWindow, now, g.window)
	if len(g.globalWindow) >= g.globalLimit {
		g.active[id] = false
		g.logger.Warn("global rate limit exceeded", "count", len(g.globalWindow))
		return Result{Decision: DeniedGlobalRateLimited}
	}
	g.globalWindow = append(g.globalWindow, now)

	elapsed := now.Sub(g.lastAccepted[id])
	if elapsed < g.cooldown || elapsed < g.minGap {
		g.active[id] = false
		remaining := g.cooldown - elapsed
		if gap := g.minGap - elapsed; gap > remaining {
			remaining = gap
		}
		g.logger.Info("request on cooldown", "key", id.Key(), "remaining", remaining)
		return Result{Decision: DeniedCooldown, RetryAfter: remaining}
	}
	g.lastAccepted[id] = now

	return Result{Decision: Allowed}
}

// Release drops the in-flight lock for id. Paired with every Allowed
// result from Admit.
func (g *Gate) Release(id Identity) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.active[id] = false
}

func pruneWindow(window []time.Time, now time.Time, span time.Duration) []time.Time {
	kept := window[:0]
	for _, ts := range window {
		if now.Sub(ts) < span {
			kept = append(kept, ts)
		}
	}
	return kept
}

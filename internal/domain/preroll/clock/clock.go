// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package clock drives ad playback time. It turns periodic ticks into elapsed
// watch time and emits each threshold crossing exactly once.
package clock

import (
	"sort"
	"sync"
	"time"
)

// DefaultInterval is the tick cadence (10 ticks per second).
const DefaultInterval = 100 * time.Millisecond

// Threshold is a one-shot crossing derived from elapsed time.
type Threshold int

const (
	SkipBecameEligible Threshold = iota
	CTABecameVisible
	DurationReached
	thresholdCount
)

func (t Threshold) String() string {
	switch t {
	case SkipBecameEligible:
		return "skip_became_eligible"
	case CTABecameVisible:
		return "cta_became_visible"
	case DurationReached:
		return "duration_reached"
	default:
		return "unknown"
	}
}

// Tick is one clock emission. Crossed is ordered by threshold time.
type Tick struct {
	Elapsed time.Duration
	Crossed []Threshold
}

// Has reports whether th was crossed on this tick.
func (t Tick) Has(th Threshold) bool {
	for _, c := range t.Crossed {
		if c == th {
			return true
		}
	}
	return false
}

// Config describes one ad's timing.
type Config struct {
	Duration          time.Duration
	SkipEligibleAfter time.Duration
	CTAVisibleAfter   time.Duration

	Interval  time.Duration
	NewTicker TickerFactory
	Now       func() time.Time
}

// Clock is the only live timer of a playback session.
type Clock struct {
	mu     sync.Mutex
	cfg    Config
	onTick func(Tick)

	at    [thresholdCount]time.Duration
	order []Threshold
	fired [thresholdCount]bool

	elapsed   time.Duration
	started   bool
	paused    bool
	cancelled bool
	pausedAt  time.Time
	pausedFor time.Duration

	stop chan struct{}
	done chan struct{}
}

// New creates a stopped clock. onTick receives every emission produced by the
// ticker, Step or Sync; it is called without the clock's lock held.
func New(cfg Config, onTick func(Tick)) *Clock {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.NewTicker == nil {
		cfg.NewTicker = NewTimeTicker
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if onTick == nil {
		onTick = func(Tick) {}
	}

	c := &Clock{
		cfg:    cfg,
		onTick: onTick,
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	c.at[SkipBecameEligible] = cfg.SkipEligibleAfter
	c.at[CTABecameVisible] = cfg.CTAVisibleAfter
	c.at[DurationReached] = cfg.Duration

	c.order = []Threshold{SkipBecameEligible, CTABecameVisible, DurationReached}
	sort.SliceStable(c.order, func(i, j int) bool {
		return c.at[c.order[i]] < c.at[c.order[j]]
	})
	return c
}

// Start launches the ticker and returns the crossings already satisfied at
// elapsed zero. Calling Start again is a no-op.
func (c *Clock) Start() Tick {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started || c.cancelled {
		return Tick{Elapsed: c.elapsed}
	}
	c.started = true
	tick := c.advanceLocked(0)
	go c.run(c.cfg.NewTicker(c.cfg.Interval))
	return tick
}

func (c *Clock) run(t Ticker) {
	defer close(c.done)
	defer t.Stop()
	for {
		select {
		case <-c.stop:
			return
		case <-t.C():
			c.Step()
		}
	}
}

// Step advances elapsed time by one interval and delivers the tick.
// It reports false when the clock is not running (unstarted, paused,
// cancelled or already at duration).
func (c *Clock) Step() (Tick, bool) {
	return c.advance(func(time.Duration) time.Duration { return c.cfg.Interval })
}

// Sync pulls elapsed time forward to the media element's position.
// Positions behind the current elapsed time are ignored.
func (c *Clock) Sync(position time.Duration) (Tick, bool) {
	return c.advance(func(elapsed time.Duration) time.Duration {
		if position <= elapsed {
			return 0
		}
		return position - elapsed
	})
}

func (c *Clock) advance(delta func(elapsed time.Duration) time.Duration) (Tick, bool) {
	c.mu.Lock()
	if !c.started || c.paused || c.cancelled || c.fired[DurationReached] {
		c.mu.Unlock()
		return Tick{}, false
	}
	d := delta(c.elapsed)
	if d <= 0 {
		c.mu.Unlock()
		return Tick{}, false
	}
	tick := c.advanceLocked(d)
	c.mu.Unlock()

	c.onTick(tick)
	return tick, true
}

func (c *Clock) advanceLocked(d time.Duration) Tick {
	c.elapsed += d
	if c.elapsed > c.cfg.Duration {
		c.elapsed = c.cfg.Duration
	}
	tick := Tick{Elapsed: c.elapsed}
	for _, th := range c.order {
		if c.fired[th] || c.elapsed < c.at[th] {
			continue
		}
		c.fired[th] = true
		tick.Crossed = append(tick.Crossed, th)
	}
	return tick
}

// Pause suspends progress. It reports false if the clock was not running or
// already paused.
func (c *Clock) Pause() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.started || c.cancelled || c.paused {
		return false
	}
	c.paused = true
	c.pausedAt = c.cfg.Now()
	return true
}

// Resume continues from the elapsed time at which the clock was paused.
func (c *Clock) Resume() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.paused || c.cancelled {
		return false
	}
	c.pausedFor += c.cfg.Now().Sub(c.pausedAt)
	c.paused = false
	return true
}

// Cancel stops emission and releases the ticker. It reports false when the
// clock was already cancelled.
func (c *Clock) Cancel() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancelled {
		return false
	}
	c.cancelled = true
	if c.paused {
		c.pausedFor += c.cfg.Now().Sub(c.pausedAt)
		c.paused = false
	}
	if c.started {
		close(c.stop)
	} else {
		close(c.done)
	}
	return true
}

// Done is closed once the ticker goroutine has exited.
func (c *Clock) Done() <-chan struct{} {
	return c.done
}

// Elapsed returns the watch time counted so far.
func (c *Clock) Elapsed() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.elapsed
}

// PausedFor returns accumulated paused wall time, including a pause in progress.
func (c *Clock) PausedFor() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.paused {
		return c.pausedFor + c.cfg.Now().Sub(c.pausedAt)
	}
	return c.pausedFor
}

// Paused reports whether the clock is paused.
func (c *Clock) Paused() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.paused
}

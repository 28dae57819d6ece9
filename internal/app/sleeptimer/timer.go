// Package sleeptimer provides a cancellable single-shot countdown that stops
// playback after a set duration.
package sleeptimer

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
)

// Callback is the action invoked on expiry. Synchronous callbacks simply
// return; asynchronous work completes inside before returning. The context is
// cancelled if the timer is stopped while the callback runs. The callback
// must not call Start, Stop or Reset on its own timer.
type Callback func(ctx context.Context) error

// State represents the timer state.
type State int

const (
	StateIdle  State = iota // No countdown pending
	StateArmed              // Countdown pending
	StateFired              // Countdown expired, callback running
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateArmed:
		return "armed"
	case StateFired:
		return "fired"
	default:
		return "idle"
	}
}

// Timer is a single-shot countdown that invokes its callback exactly once on
// expiry. Created once per player session and re-armed repeatedly. The
// countdown uses the monotonic clock, so wall-clock adjustments do not affect
// it.
type Timer struct {
	mu       sync.Mutex
	callback Callback

	state    State
	duration time.Duration
	armedAt  time.Time

	cancel context.CancelFunc
	done   chan struct{}
}

// New creates an idle timer with an optional callback.
func New(cb Callback) *Timer {
	return &Timer{callback: cb}
}

// SetCallback replaces the expiry action.
func (t *Timer) SetCallback(cb Callback) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.callback = cb
}

// Start arms the timer for the given number of minutes. Any pending countdown
// is cancelled and awaited first, so two countdowns never run at once.
// Returns an error if minutes is not positive.
func (t *Timer) Start(minutes float64) error {
	if minutes <= 0 {
		return errors.Newf("timer duration must be positive, got %v", minutes)
	}
	t.Stop()

	t.mu.Lock()
	defer t.mu.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	t.duration = time.Duration(minutes * float64(time.Minute))
	t.armedAt = time.Now()
	t.state = StateArmed
	t.cancel = cancel
	t.done = make(chan struct{})

	go t.countdown(ctx, t.duration, t.done)

	zlog.Info().Msgf("sleep timer started for %.1f minute(s)", minutes)
	return nil
}

// Stop cancels any pending countdown without firing the callback. It does not
// return until the countdown goroutine has observed the cancellation (and any
// in-flight callback has returned), so the callback is guaranteed not to run
// after Stop returns and resources it uses can be released immediately.
// Idempotent from any state.
func (t *Timer) Stop() {
	t.mu.Lock()
	cancel, done := t.cancel, t.done
	t.cancel = nil
	t.done = nil
	t.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}

	t.mu.Lock()
	t.state = StateIdle
	t.armedAt = time.Time{}
	t.mu.Unlock()
}

// Reset stops the timer and re-arms it. With no argument the previous
// duration is reused; a previous duration of zero leaves the timer stopped.
func (t *Timer) Reset(minutes ...float64) error {
	t.mu.Lock()
	m := t.duration.Minutes()
	t.mu.Unlock()

	if len(minutes) > 0 {
		m = minutes[0]
	}
	if m <= 0 {
		t.Stop()
		return nil
	}
	return t.Start(m)
}

// Active returns true while a countdown is pending.
func (t *Timer) Active() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state == StateArmed
}

// CurrentState returns the timer state.
func (t *Timer) CurrentState() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Remaining returns the time left on the countdown, or 0 when not armed.
func (t *Timer) Remaining() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != StateArmed {
		return 0
	}
	left := t.duration - time.Since(t.armedAt)
	if left < 0 {
		return 0
	}
	return left
}

// countdown waits out the duration or the cancellation, whichever comes
// first, then closes done.
func (t *Timer) countdown(ctx context.Context, d time.Duration, done chan struct{}) {
	defer close(done)

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return
	case <-timer.C:
	}

	t.mu.Lock()
	// Stop may have won the race between expiry and cancellation.
	if t.done != done {
		t.mu.Unlock()
		return
	}
	t.state = StateFired
	cb := t.callback
	t.mu.Unlock()

	zlog.Info().Msg("sleep timer expired")
	t.fire(ctx, cb)

	t.mu.Lock()
	if t.done == done {
		t.state = StateIdle
		t.armedAt = time.Time{}
		t.cancel = nil
		t.done = nil
	}
	t.mu.Unlock()
}

// fire invokes the callback at most once, isolating its failures: an error or
// panic is logged and never propagated, and the timer is not re-fired.
func (t *Timer) fire(ctx context.Context, cb Callback) {
	if cb == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			zlog.Error().Msgf("sleep timer callback panicked: %v", r)
		}
	}()
	if err := cb(ctx); err != nil {
		zlog.Error().Msgf("sleep timer callback failed: %v", err)
	}
}

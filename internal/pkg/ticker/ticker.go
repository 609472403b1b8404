package ticker

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Ticker is a display timer that derives elapsed time from a start timestamp.
// It owns at most one goroutine; every Start, Freeze and Reset cancels and
// joins the previous one before changing state.
type Ticker struct {
	now      func() time.Time
	interval time.Duration

	ctl sync.Mutex // serializes Start/Freeze/Reset

	mu          sync.RWMutex
	start       time.Time
	running     bool
	frozen      time.Duration
	subscribers map[chan time.Duration]struct{}

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a stopped ticker. A nil now defaults to time.Now and a
// non-positive interval to one second.
func New(now func() time.Time, interval time.Duration) *Ticker {
	if now == nil {
		now = time.Now
	}
	if interval <= 0 {
		interval = time.Second
	}
	return &Ticker{
		now:         now,
		interval:    interval,
		subscribers: make(map[chan time.Duration]struct{}),
	}
}

// Start discards any running timer and begins counting from the given instant.
func (t *Ticker) Start(from time.Time) {
	t.ctl.Lock()
	defer t.ctl.Unlock()

	t.stop()

	t.mu.Lock()
	t.start = from
	t.running = true
	t.frozen = 0
	t.mu.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	t.cancel = cancel
	t.wg.Add(1)
	go t.run(ctx)

	t.publish(t.Elapsed())
}

// Freeze stops advancing and holds the current elapsed value.
func (t *Ticker) Freeze() {
	t.ctl.Lock()
	defer t.ctl.Unlock()

	elapsed := t.Elapsed()
	t.stop()

	t.mu.Lock()
	t.running = false
	t.frozen = elapsed
	t.mu.Unlock()
}

// Hold stops the ticker and displays d until the next Start or Reset.
func (t *Ticker) Hold(d time.Duration) {
	t.ctl.Lock()
	defer t.ctl.Unlock()

	t.stop()

	if d < 0 {
		d = 0
	}
	t.mu.Lock()
	t.running = false
	t.frozen = d.Truncate(time.Second)
	t.mu.Unlock()

	t.publish(t.Elapsed())
}

// Reset stops the ticker and clears it back to zero.
func (t *Ticker) Reset() {
	t.ctl.Lock()
	defer t.ctl.Unlock()

	t.stop()

	t.mu.Lock()
	t.start = time.Time{}
	t.running = false
	t.frozen = 0
	t.mu.Unlock()

	t.publish(0)
}

// Elapsed returns the displayed duration, truncated to whole seconds.
func (t *Ticker) Elapsed() time.Duration {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if !t.running {
		return t.frozen
	}
	d := t.now().Sub(t.start)
	if d < 0 {
		return 0
	}
	return d.Truncate(time.Second)
}

// Running reports whether the ticker is advancing.
func (t *Ticker) Running() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.running
}

// StartedAt returns the instant the running ticker counts from.
func (t *Ticker) StartedAt() (time.Time, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.start, t.running
}

// Subscribe registers a listener for tick updates and returns the channel and
// a cleanup function. Slow listeners miss ticks rather than block the ticker.
func (t *Ticker) Subscribe() (<-chan time.Duration, func()) {
	t.mu.Lock()
	defer t.mu.Unlock()

	ch := make(chan time.Duration, 1)
	t.subscribers[ch] = struct{}{}

	var once sync.Once
	cleanup := func() {
		once.Do(func() {
			t.mu.Lock()
			defer t.mu.Unlock()
			delete(t.subscribers, ch)
			close(ch)
		})
	}
	return ch, cleanup
}

// stop cancels the current goroutine and waits for it. Callers hold ctl.
func (t *Ticker) stop() {
	if t.cancel == nil {
		return
	}
	t.cancel()
	t.wg.Wait()
	t.cancel = nil
}

func (t *Ticker) run(ctx context.Context) {
	defer t.wg.Done()

	tk := time.NewTicker(t.interval)
	defer tk.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-tk.C:
			t.publish(t.Elapsed())
		}
	}
}

func (t *Ticker) publish(d time.Duration) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	for ch := range t.subscribers {
		select {
		case ch <- d:
		default:
		}
	}
}

// Format renders a duration as HH:MM:SS.
func Format(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int64(d / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", secs/3600, (secs%3600)/60, secs%60)
}

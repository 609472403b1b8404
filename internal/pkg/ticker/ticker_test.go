package ticker

import (
	"runtime"
	"testing"
	"time"

	"github.com/hireconnect/hireconnect-backend-go/internal/testfixtures"
	"github.com/stretchr/testify/assert"
)

func TestTicker_ElapsedFollowsClock(t *testing.T) {
	clock := testfixtures.NewClock(time.Time{})
	tk := New(clock.Now, time.Hour)
	defer tk.Reset()

	tk.Start(clock.Now())
	assert.True(t, tk.Running())
	assert.Equal(t, time.Duration(0), tk.Elapsed())

	clock.Advance(5*time.Second + 400*time.Millisecond)
	assert.Equal(t, 5*time.Second, tk.Elapsed())
	assert.Equal(t, "00:00:05", Format(tk.Elapsed()))
}

func TestTicker_FreezeHoldsValue(t *testing.T) {
	clock := testfixtures.NewClock(time.Time{})
	tk := New(clock.Now, time.Hour)

	tk.Start(clock.Now())
	clock.Advance(3 * time.Second)
	tk.Freeze()

	clock.Advance(10 * time.Second)
	assert.False(t, tk.Running())
	assert.Equal(t, 3*time.Second, tk.Elapsed())
}

func TestTicker_RestartFromSameBaseline(t *testing.T) {
	clock := testfixtures.NewClock(time.Time{})
	tk := New(clock.Now, time.Hour)
	defer tk.Reset()

	base := clock.Now()
	tk.Start(base)
	clock.Advance(3 * time.Second)
	tk.Freeze()
	clock.Advance(2 * time.Second)
	tk.Start(base)

	started, running := tk.StartedAt()
	assert.True(t, running)
	assert.Equal(t, base, started)
	assert.Equal(t, 5*time.Second, tk.Elapsed())
}

func TestTicker_ResetClears(t *testing.T) {
	clock := testfixtures.NewClock(time.Time{})
	tk := New(clock.Now, time.Hour)

	tk.Start(clock.Now())
	clock.Advance(time.Minute)
	tk.Reset()

	assert.False(t, tk.Running())
	assert.Equal(t, time.Duration(0), tk.Elapsed())
	_, running := tk.StartedAt()
	assert.False(t, running)
}

func TestTicker_FutureStartClampsToZero(t *testing.T) {
	clock := testfixtures.NewClock(time.Time{})
	tk := New(clock.Now, time.Hour)
	defer tk.Reset()

	tk.Start(clock.Now().Add(time.Minute))
	assert.Equal(t, time.Duration(0), tk.Elapsed())
}

func TestTicker_PublishesTicks(t *testing.T) {
	tk := New(nil, 10*time.Millisecond)
	defer tk.Reset()

	ch, cleanup := tk.Subscribe()
	defer cleanup()

	tk.Start(time.Now().Add(-2 * time.Second))

	select {
	case d := <-ch:
		assert.GreaterOrEqual(t, d, 2*time.Second)
	case <-time.After(time.Second):
		t.Fatal("no tick received")
	}
}

func TestTicker_RapidRestartsDoNotLeak(t *testing.T) {
	tk := New(nil, time.Millisecond)
	before := runtime.NumGoroutine()

	for i := 0; i < 100; i++ {
		tk.Start(time.Now())
	}
	tk.Reset()

	after := runtime.NumGoroutine()
	for deadline := time.Now().Add(time.Second); after > before && time.Now().Before(deadline); {
		time.Sleep(10 * time.Millisecond)
		after = runtime.NumGoroutine()
	}
	assert.LessOrEqual(t, after, before)
}

func TestTicker_CleanupIsIdempotent(t *testing.T) {
	tk := New(nil, time.Hour)
	_, cleanup := tk.Subscribe()
	cleanup()
	assert.NotPanics(t, cleanup)
}

func TestFormat(t *testing.T) {
	cases := map[time.Duration]string{
		0:                                 "00:00:00",
		3 * time.Second:                   "00:00:03",
		59*time.Minute + 59*time.Second:   "00:59:59",
		26*time.Hour + 5*time.Second:      "26:00:05",
		-time.Second:                      "00:00:00",
		1500 * time.Millisecond:           "00:00:01",
	}
	for d, want := range cases {
		assert.Equal(t, want, Format(d), d.String())
	}
}

func TestTicker_Hold(t *testing.T) {
	tk := New(nil, time.Hour)
	tk.Hold(90*time.Second + 500*time.Millisecond)
	assert.False(t, tk.Running())
	assert.Equal(t, 90*time.Second, tk.Elapsed())

	tk.Hold(-time.Second)
	assert.Equal(t, time.Duration(0), tk.Elapsed())
}

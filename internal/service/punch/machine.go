package punch

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/hireconnect/hireconnect-backend-go/internal/domain/punch"
	"github.com/hireconnect/hireconnect-backend-go/internal/pkg/ticker"
)

// ShakeDuration is how long the punch-out-before-punch-in cue stays visible.
const ShakeDuration = 600 * time.Millisecond

// Machine is the punch-in/break/punch-out client state machine. State changes
// only after a successful Attendance Service response and only to the values
// in that response. One action may be in flight at a time.
type Machine struct {
	client punch.AttendanceClient
	now    func() time.Time
	logger *slog.Logger

	mu         sync.Mutex
	session    punch.Session
	lastErr    string
	shakeUntil time.Time
	busy       bool

	working *ticker.Ticker
	onBreak *ticker.Ticker
}

type Option func(*Machine)

// WithClock overrides the time source used by the machine and its tickers.
func WithClock(now func() time.Time) Option {
	return func(m *Machine) { m.now = now }
}

func WithLogger(l *slog.Logger) Option {
	return func(m *Machine) { m.logger = l }
}

func NewMachine(client punch.AttendanceClient, opts ...Option) *Machine {
	m := &Machine{
		client: client,
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.working = ticker.New(m.now, time.Second)
	m.onBreak = ticker.New(m.now, time.Second)
	return m
}

// PunchIn moves NOT_PUNCHED_IN to WORKING.
func (m *Machine) PunchIn(ctx context.Context) error {
	if err := m.begin(punch.ActionPunchIn); err != nil {
		return err
	}
	resp, err := m.client.PunchIn(ctx)
	if err == nil && resp.PunchInTime == nil {
		err = punch.ErrMissingTimestamp
	}
	return m.finish(punch.ActionPunchIn, err, func(s *punch.Session) {
		*s = punch.Session{PunchInTime: resp.PunchInTime}
	})
}

// PunchOut moves WORKING to the terminal PUNCHED_OUT state. Without a prior
// punch in it fails locally, never reaching the service, and raises the
// shake cue.
func (m *Machine) PunchOut(ctx context.Context) error {
	if err := m.begin(punch.ActionPunchOut); err != nil {
		return err
	}
	resp, err := m.client.PunchOut(ctx)
	if err == nil && resp.PunchOutTime == nil {
		err = punch.ErrMissingTimestamp
	}
	return m.finish(punch.ActionPunchOut, err, func(s *punch.Session) {
		s.PunchOutTime = resp.PunchOutTime
	})
}

// StartBreak moves WORKING to ON_BREAK; reason may be empty.
func (m *Machine) StartBreak(ctx context.Context, reason string) error {
	if err := m.begin(punch.ActionStartBreak); err != nil {
		return err
	}
	resp, err := m.client.StartBreak(ctx, punch.StartBreakRequest{Reason: reason})
	if err == nil && resp.BreakStartTime == nil {
		err = punch.ErrMissingTimestamp
	}
	return m.finish(punch.ActionStartBreak, err, func(s *punch.Session) {
		s.BreakStartTime = resp.BreakStartTime
		s.BreakReason = reason
	})
}

// EndBreak moves ON_BREAK back to WORKING.
func (m *Machine) EndBreak(ctx context.Context) error {
	if err := m.begin(punch.ActionEndBreak); err != nil {
		return err
	}
	err := m.client.EndBreak(ctx)
	return m.finish(punch.ActionEndBreak, err, func(s *punch.Session) {
		s.BreakStartTime = nil
		s.BreakReason = ""
	})
}

// Resume adopts the service's view of today, for use when the client starts
// without local state. A closed session is final and is never replaced.
func (m *Machine) Resume(ctx context.Context) error {
	m.mu.Lock()
	if m.busy {
		m.mu.Unlock()
		return punch.ErrBusy
	}
	m.lastErr = ""
	if m.session.State() == punch.StatePunchedOut {
		m.lastErr = punch.UserMessage(punch.ActionResume, punch.ErrSessionClosed)
		m.mu.Unlock()
		return punch.ErrSessionClosed
	}
	m.busy = true
	m.mu.Unlock()

	var next punch.Session
	resp, err := m.client.Today(ctx)
	if err == nil {
		next, err = resp.Session()
	}
	return m.finish(punch.ActionResume, err, func(s *punch.Session) {
		*s = next
	})
}

// Toggle performs the single main-button action for the current state:
// punch in, start break, or resume work. It does nothing once punched out.
func (m *Machine) Toggle(ctx context.Context, reason string) error {
	switch m.State() {
	case punch.StateNotPunchedIn:
		return m.PunchIn(ctx)
	case punch.StateWorking:
		return m.StartBreak(ctx, reason)
	case punch.StateOnBreak:
		return m.EndBreak(ctx)
	default:
		return nil
	}
}

// MainLabel is the label of the main button for the current state.
func (m *Machine) MainLabel() string {
	switch m.State() {
	case punch.StateNotPunchedIn:
		return "Punch In"
	case punch.StateWorking:
		return "Start Break"
	case punch.StateOnBreak:
		return "Resume Work"
	default:
		return "Punched Out"
	}
}

func (m *Machine) State() punch.State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session.State()
}

// Snapshot returns a copy of the current session.
func (m *Machine) Snapshot() punch.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session
}

// LastError is the inline error text of the most recent failed action.
func (m *Machine) LastError() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastErr
}

// ClearError dismisses the inline error.
func (m *Machine) ClearError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastErr = ""
}

// Shaking reports whether the punch-out guard cue is active.
func (m *Machine) Shaking() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now().Before(m.shakeUntil)
}

// Busy reports whether an action is in flight.
func (m *Machine) Busy() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.busy
}

// Working is the display timer counting from punch in.
func (m *Machine) Working() *ticker.Ticker { return m.working }

// Break is the display timer counting from break start.
func (m *Machine) Break() *ticker.Ticker { return m.onBreak }

// Close stops both tickers.
func (m *Machine) Close() {
	m.working.Reset()
	m.onBreak.Reset()
}

func (m *Machine) begin(a punch.Action) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.busy {
		return punch.ErrBusy
	}
	m.lastErr = ""

	from := m.session.State()
	if _, ok := punch.Next(from, a); !ok {
		err := guardError(from, a)
		m.lastErr = punch.UserMessage(a, err)
		if errors.Is(err, punch.ErrNotPunchedIn) {
			m.shakeUntil = m.now().Add(ShakeDuration)
		}
		m.logger.Debug("Attendance action rejected locally", "action", a, "state", from, "error", err)
		return err
	}

	m.busy = true
	return nil
}

func (m *Machine) finish(a punch.Action, err error, apply func(*punch.Session)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.busy = false
	if err != nil {
		m.lastErr = punch.UserMessage(a, err)
		m.logger.Error("Attendance action failed", "action", a, "error", err)
		return err
	}

	apply(&m.session)
	m.syncTickers()
	m.logger.Info("Attendance action succeeded", "action", a, "state", m.session.State())
	return nil
}

// syncTickers aligns both display timers with the session. A ticker is only
// restarted when its baseline timestamp differs from the one it counts from.
// Callers hold mu.
func (m *Machine) syncTickers() {
	s := m.session
	switch s.State() {
	case punch.StateWorking:
		restartIfMoved(m.working, *s.PunchInTime)
		m.onBreak.Reset()
	case punch.StateOnBreak:
		if m.working.Running() {
			m.working.Freeze()
		} else {
			m.working.Hold(s.BreakStartTime.Sub(*s.PunchInTime))
		}
		restartIfMoved(m.onBreak, *s.BreakStartTime)
	default:
		m.working.Reset()
		m.onBreak.Reset()
	}
}

func restartIfMoved(t *ticker.Ticker, from time.Time) {
	if started, running := t.StartedAt(); running && started.Equal(from) {
		return
	}
	t.Start(from)
}

func guardError(from punch.State, a punch.Action) error {
	switch {
	case a == punch.ActionPunchOut && from == punch.StateNotPunchedIn:
		return punch.ErrNotPunchedIn
	case from == punch.StatePunchedOut:
		return punch.ErrSessionClosed
	default:
		return punch.ErrInvalidTransition
	}
}

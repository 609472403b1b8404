package punch

import "time"

type State string

const (
	StateNotPunchedIn State = "NOT_PUNCHED_IN"
	StateWorking      State = "WORKING"
	StateOnBreak      State = "ON_BREAK"
	StatePunchedOut   State = "PUNCHED_OUT"
)

type Action string

const (
	ActionPunchIn    Action = "punch_in"
	ActionPunchOut   Action = "punch_out"
	ActionStartBreak Action = "start_break"
	ActionEndBreak   Action = "end_break"
	ActionResume     Action = "resume"
)

// Session is the client-side projection of today's punch session. Every
// timestamp comes from an Attendance Service response.
type Session struct {
	PunchInTime    *time.Time
	PunchOutTime   *time.Time
	BreakStartTime *time.Time
	BreakReason    string
}

func (s Session) IsOnBreak() bool {
	return s.BreakStartTime != nil && s.PunchOutTime == nil
}

func (s Session) State() State {
	switch {
	case s.PunchInTime == nil:
		return StateNotPunchedIn
	case s.PunchOutTime != nil:
		return StatePunchedOut
	case s.BreakStartTime != nil:
		return StateOnBreak
	default:
		return StateWorking
	}
}

var transitions = map[State]map[Action]State{
	StateNotPunchedIn: {ActionPunchIn: StateWorking},
	StateWorking: {
		ActionStartBreak: StateOnBreak,
		ActionPunchOut:   StatePunchedOut,
	},
	StateOnBreak: {ActionEndBreak: StateWorking},
}

// Next returns the state reached by applying a to from, and false when the
// action is not permitted there.
func Next(from State, a Action) (State, bool) {
	to, ok := transitions[from][a]
	return to, ok
}

// FallbackMessage is shown when a failed call carries no server message.
func (a Action) FallbackMessage() string {
	switch a {
	case ActionPunchIn:
		return "Error punching in"
	case ActionPunchOut:
		return "Error punching out"
	case ActionStartBreak:
		return "Error starting break"
	case ActionEndBreak:
		return "Error ending break"
	case ActionResume:
		return "Error fetching attendance data"
	default:
		return "Unexpected error"
	}
}

// LiveStatus is an employee's position in the day as reported to admins.
type LiveStatus string

const (
	LiveWorking    LiveStatus = "working"
	LiveOnBreak    LiveStatus = "on_break"
	LiveAbsent     LiveStatus = "absent"
	LiveNotPunched LiveStatus = "not_punched"
)

type LiveEmployee struct {
	ID             int        `json:"id"`
	Name           string     `json:"name"`
	Status         LiveStatus `json:"status"`
	PunchInTime    *time.Time `json:"punchInTime,omitempty"`
	BreakStartTime *time.Time `json:"breakStartTime,omitempty"`
	TotalHours     *float64   `json:"totalHours,omitempty"`
	Department     *string    `json:"department,omitempty"`
}

package punch

import "time"

type PunchInResponse struct {
	PunchInTime *time.Time `json:"punchInTime"`
}

type PunchOutResponse struct {
	PunchOutTime *time.Time `json:"punchOutTime"`
}

type StartBreakRequest struct {
	Reason string `json:"reason"`
}

type StartBreakResponse struct {
	BreakStartTime *time.Time `json:"breakStartTime"`
}

// TodayResponse is the Attendance Service's view of the caller's current day.
type TodayResponse struct {
	PunchInTime        *time.Time `json:"punchInTime"`
	PunchOutTime       *time.Time `json:"punchOutTime"`
	BreakStartTime     *time.Time `json:"breakStartTime,omitempty"`
	BreakReason        string     `json:"breakReason,omitempty"`
	TotalHours         float64    `json:"totalHours"`
	BreakCount         int        `json:"breakCount"`
	TotalBreakDuration float64    `json:"totalBreakDuration"`
	ProductionHours    float64    `json:"productionHours"`
	Status             string     `json:"status"`
	Progress           float64    `json:"progress"`
}

// Session projects the status payload onto a punch session, adopting only
// the timestamps the service reported.
func (r TodayResponse) Session() (Session, error) {
	if r.PunchOutTime != nil && r.PunchInTime == nil {
		return Session{}, ErrInconsistentStatus
	}
	s := Session{
		PunchInTime:  r.PunchInTime,
		PunchOutTime: r.PunchOutTime,
	}
	if r.PunchInTime != nil && r.PunchOutTime == nil && r.BreakStartTime != nil {
		s.BreakStartTime = r.BreakStartTime
		s.BreakReason = r.BreakReason
	}
	return s, nil
}

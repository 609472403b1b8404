package punch

import "context"

// AttendanceClient is the Attendance Service as seen by the punch client.
// Non-success responses are returned as *ServiceError.
type AttendanceClient interface {
	PunchIn(ctx context.Context) (PunchInResponse, error)
	PunchOut(ctx context.Context) (PunchOutResponse, error)
	StartBreak(ctx context.Context, req StartBreakRequest) (StartBreakResponse, error)
	EndBreak(ctx context.Context) error

	// Today reports the caller's current punch and break status
	Today(ctx context.Context) (TodayResponse, error)

	// Live lists every employee's current status for admins
	Live(ctx context.Context) ([]LiveEmployee, error)
}

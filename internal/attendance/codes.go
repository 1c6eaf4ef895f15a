package attendance

import "fmt"

// Code identifies a validation or transition failure. Codes are stable and
// machine-matchable; Details is the human-readable part.
type Code string

const (
	CodeEmployeeNotFound             Code = "EMPLOYEE_NOT_FOUND"
	CodeNoAssignment                 Code = "NO_ASSIGNMENT"
	CodeInvalidCoordinates           Code = "INVALID_COORDINATES"
	CodeMissingCoordinates           Code = "MISSING_COORDINATES"
	CodeAssignedCoordsMissing        Code = "ASSIGNED_COORDS_MISSING"
	CodeAssignedLocationGeneric      Code = "ASSIGNED_LOCATION_GENERIC"
	CodeTimeWindowViolation          Code = "TIME_WINDOW_VIOLATION"
	CodeLocationMismatch             Code = "LOCATION_MISMATCH"
	CodeCityLevelMatch               Code = "CITY_LEVEL_MATCH"
	CodeAttendanceLocked             Code = "ATTENDANCE_LOCKED"
	CodeMaxAttemptsExceeded          Code = "MAX_ATTEMPTS_EXCEEDED"
	CodeCannotCheckoutWithoutCheckin Code = "CANNOT_CHECKOUT_WITHOUT_CHECKIN"
	CodeLocationServiceError         Code = "LOCATION_SERVICE_ERROR"
	CodeNotPending                   Code = "NOT_PENDING"
	CodeNotApproved                  Code = "NOT_APPROVED"
	CodeAttendanceRejected           Code = "ATTENDANCE_REJECTED"
	CodeAttendanceNotFound           Code = "ATTENDANCE_NOT_FOUND"
)

// Error is the structured failure the engine hands back to callers. Remaining
// is set on attempt-bounded rejections so the client can decide whether to
// retry or escalate.
type Error struct {
	Code      Code
	Details   string
	Remaining *int
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Details)
}

func newError(code Code, details string) *Error {
	return &Error{Code: code, Details: details}
}

func newAttemptError(code Code, details string, remaining int) *Error {
	return &Error{Code: code, Details: details, Remaining: &remaining}
}

// countsAgainstAttempts reports whether a rejection burns one of the bounded
// retries. Lookup failures and malformed input do not; policy rejections and
// geocoding outages do.
func countsAgainstAttempts(code Code) bool {
	switch code {
	case CodeAssignedCoordsMissing, CodeAssignedLocationGeneric,
		CodeTimeWindowViolation, CodeLocationMismatch,
		CodeCityLevelMatch, CodeLocationServiceError:
		return true
	}
	return false
}

package attendance

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Policy times of day, evaluated in the service location.
const (
	standardStartHour = 9
	graceEndMinute    = 5 // 09:05:00 inclusive
	earlyLogoutHour   = 18
)

// Service runs the daily clock-in/clock-out machine on top of a Store.
type Service struct {
	store Store
	loc   *time.Location
}

// NewService creates a service whose days and policy times are taken in loc.
func NewService(store Store, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{store: store, loc: loc}
}

// Location is the zone calendar days are cut in.
func (s *Service) Location() *time.Location { return s.loc }

// Day returns the calendar day that instant at falls on.
func (s *Service) Day(at time.Time) time.Time { return Civil(at.In(s.loc)) }

// DeriveStatus classifies a login: PRESENT up to and including 09:05:00,
// LATE after it.
func DeriveStatus(login time.Time, loc *time.Location) Status {
	lt := login.In(loc)
	y, m, d := lt.Date()
	graceEnd := time.Date(y, m, d, standardStartHour, graceEndMinute, 0, 0, loc)
	if lt.After(graceEnd) {
		return StatusLate
	}
	return StatusPresent
}

// IsEarlyLogout reports whether at is before 18:00 in loc. The service does not
// act on it; callers may use it to annotate remarks.
func IsEarlyLogout(at time.Time, loc *time.Location) bool {
	lt := at.In(loc)
	y, m, d := lt.Date()
	return lt.Before(time.Date(y, m, d, earlyLogoutHour, 0, 0, 0, loc))
}

// ClockIn records the first login of the day. Status is derived once here and
// never revised. On ErrAlreadyClockedIn the stored record is returned as is.
func (s *Service) ClockIn(ctx context.Context, employeeID string, at time.Time) (Record, error) {
	if err := ValidateEmployeeID(employeeID); err != nil {
		return Record{}, err
	}
	if at.IsZero() {
		return Record{}, &ValidationError{Field: "timestamp", Reason: "required"}
	}
	at = normalize(at)
	rec := Record{
		ID:         uuid.NewString(),
		EmployeeID: employeeID,
		Date:       s.Day(at),
		LoginTime:  &at,
		Status:     DeriveStatus(at, s.loc),
		Remarks:    "Login Recorded",
	}
	return s.store.ClockIn(ctx, rec)
}

// ClockOut closes the open day. remarks is an optional caller annotation
// written together with the logout; an empty value keeps existing remarks.
func (s *Service) ClockOut(ctx context.Context, employeeID string, at time.Time, remarks string) (Record, error) {
	if err := ValidateEmployeeID(employeeID); err != nil {
		return Record{}, err
	}
	if at.IsZero() {
		return Record{}, &ValidationError{Field: "timestamp", Reason: "required"}
	}
	at = normalize(at)
	return s.store.ClockOut(ctx, employeeID, s.Day(at), at, remarks)
}

// CurrentStatus returns the record for employeeID on day, or nil when the
// employee has not clocked in. day is read as a calendar date.
func (s *Service) CurrentStatus(ctx context.Context, employeeID string, day time.Time) (*Record, error) {
	if err := ValidateEmployeeID(employeeID); err != nil {
		return nil, err
	}
	return s.store.Get(ctx, employeeID, Civil(day))
}

// History returns the employee's records between from and to inclusive,
// ordered by day.
func (s *Service) History(ctx context.Context, employeeID string, from, to time.Time) ([]Record, error) {
	if err := ValidateEmployeeID(employeeID); err != nil {
		return nil, err
	}
	from, to = Civil(from), Civil(to)
	if to.Before(from) {
		return nil, &ValidationError{Field: "range", Reason: "to is before from"}
	}
	return s.store.Range(ctx, employeeID, from, to)
}

// List returns every employee's record on day, narrowed to employee ids
// containing search. Employees with no record that day are not listed.
func (s *Service) List(ctx context.Context, day time.Time, search string) ([]Record, error) {
	search = strings.TrimSpace(search)
	if len(search) > maxEmployeeIDLen {
		return nil, &ValidationError{Field: "search", Reason: "too long"}
	}
	return s.store.List(ctx, Civil(day), search)
}

// normalize stores instants in UTC at the microsecond precision Postgres keeps.
func normalize(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}

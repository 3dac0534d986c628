package attendance

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Status is the attendance classification of one employee-day.
type Status string

const (
	StatusPresent Status = "PRESENT"
	StatusLate    Status = "LATE"
	StatusAbsent  Status = "ABSENT"
	StatusHalfDay Status = "HALF_DAY"
	StatusLeave   Status = "LEAVE"
)

// DayState is the position of an employee-day in the clock state machine.
type DayState string

const (
	NotClockedIn DayState = "NOT_CLOCKED_IN"
	ClockedIn    DayState = "CLOCKED_IN"
	ClockedOut   DayState = "CLOCKED_OUT"
)

const dateLayout = "2006-01-02"

// Record is the single attendance entry for one employee on one calendar day.
type Record struct {
	ID         string     `json:"id"`
	EmployeeID string     `json:"employee_id"`
	Date       time.Time  `json:"-"`
	LoginTime  *time.Time `json:"login_time"`
	LogoutTime *time.Time `json:"logout_time"`
	Status     Status     `json:"status"`
	Remarks    string     `json:"remarks,omitempty"`
}

// DateString renders the record day as YYYY-MM-DD.
func (r Record) DateString() string { return r.Date.Format(dateLayout) }

// MarshalJSON renders Date as a plain YYYY-MM-DD day.
func (r Record) MarshalJSON() ([]byte, error) {
	type plain Record
	return json.Marshal(struct {
		plain
		Date string `json:"date"`
	}{plain(r), r.DateString()})
}

// State reports where rec sits in the NOT_CLOCKED_IN -> CLOCKED_IN -> CLOCKED_OUT
// machine. A nil record, or one created by a batch without a login, is not clocked in.
func State(rec *Record) DayState {
	switch {
	case rec == nil || rec.LoginTime == nil:
		return NotClockedIn
	case rec.LogoutTime == nil:
		return ClockedIn
	default:
		return ClockedOut
	}
}

// Civil strips the time of day from t, keeping the calendar date as seen in
// t's own location. The result is midnight UTC, which is how DATE columns scan.
func Civil(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD day.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(dateLayout, strings.TrimSpace(s))
}

// Employee is the read-only view of an employee this package needs.
type Employee struct {
	ID       string
	FullName string
	// BaseSalary is the monthly salary; unset salaries read as zero.
	BaseSalary decimal.Decimal
}

package attendance

import (
	"fmt"
	"time"
)

// WorkedTime is an elapsed duration in whole hours and remaining whole minutes.
type WorkedTime struct {
	Hours   int `json:"hours"`
	Minutes int `json:"minutes"`
}

func (w WorkedTime) String() string { return fmt.Sprintf("%dh %dm", w.Hours, w.Minutes) }

// Duration converts back to a time.Duration.
func (w WorkedTime) Duration() time.Duration {
	return time.Duration(w.Hours)*time.Hour + time.Duration(w.Minutes)*time.Minute
}

// WorkingHours measures rec's login to its logout, or to now while the day is
// still open. Negative spans, from skew or bad data, clamp to zero.
func WorkingHours(rec Record, now time.Time) WorkedTime {
	if rec.LoginTime == nil {
		return WorkedTime{}
	}
	end := now
	if rec.LogoutTime != nil {
		end = *rec.LogoutTime
	}
	d := end.Sub(*rec.LoginTime)
	if d <= 0 {
		return WorkedTime{}
	}
	return WorkedTime{
		Hours:   int(d / time.Hour),
		Minutes: int(d % time.Hour / time.Minute),
	}
}

package attendance

import "time"

// MonthlyStats are day counts over a record range. They are derived on every
// query and never stored.
type MonthlyStats struct {
	Present int `json:"present"`
	Absent  int `json:"absent"`
	HalfDay int `json:"half_day"`
	Leave   int `json:"leave"`
	// Late counts the LATE days already included in Present.
	Late int `json:"late"`
}

// Aggregate folds records into MonthlyStats. PRESENT and LATE both count as
// present; unknown statuses count nowhere.
func Aggregate(records []Record) MonthlyStats {
	var st MonthlyStats
	for _, r := range records {
		switch r.Status {
		case StatusPresent:
			st.Present++
		case StatusLate:
			st.Present++
			st.Late++
		case StatusAbsent:
			st.Absent++
		case StatusHalfDay:
			st.HalfDay++
		case StatusLeave:
			st.Leave++
		}
	}
	return st
}

// MonthRange returns the first and last day of a calendar month.
func MonthRange(year int, month time.Month) (time.Time, time.Time) {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return first, first.AddDate(0, 1, -1)
}

// InRange keeps the records whose day lies within [from, to].
func InRange(records []Record, from, to time.Time) []Record {
	from, to = Civil(from), Civil(to)
	var out []Record
	for _, r := range records {
		if r.Date.Before(from) || r.Date.After(to) {
			continue
		}
		out = append(out, r)
	}
	return out
}

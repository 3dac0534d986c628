package attendance

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Store persists attendance records keyed by (employee, day). Writes that move
// a day through the clock machine are compare-and-set: they only apply when
// the field they set is still unset, so concurrent requests for the same key
// cannot both succeed.
type Store interface {
	// ClockIn stores rec's login when no login exists yet for its key,
	// creating the row if needed. When a login is already present it returns
	// the stored record unchanged with ErrAlreadyClockedIn.
	ClockIn(ctx context.Context, rec Record) (Record, error)
	// ClockOut sets the logout time of an open day. Non-empty remarks replace
	// the stored ones in the same write. Returns ErrNotClockedIn or
	// ErrAlreadyClockedOut when the day is not open.
	ClockOut(ctx context.Context, employeeID string, day, at time.Time, remarks string) (Record, error)
	// Get returns nil, nil when no record exists.
	Get(ctx context.Context, employeeID string, day time.Time) (*Record, error)
	// Range returns the records with from <= day <= to ordered by day.
	Range(ctx context.Context, employeeID string, from, to time.Time) ([]Record, error)
	// List returns every record on day whose employee id contains search,
	// ignoring case, ordered by employee id. An empty search matches all.
	List(ctx context.Context, day time.Time, search string) ([]Record, error)
	// InsertIfMissing creates rec only when its key has no record at all.
	InsertIfMissing(ctx context.Context, rec Record) (bool, error)
}

// Directory is the read-only employee source.
type Directory interface {
	BaseSalary(ctx context.Context, employeeID string) (decimal.Decimal, error)
	EmployeeIDs(ctx context.Context) ([]string, error)
}

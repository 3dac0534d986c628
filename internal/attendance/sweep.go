package attendance

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const autoAbsentRemark = "Auto Absent: No Login"

// Sweeper is the batch that fills in ABSENT for employees who never clocked
// in on a weekday. It runs outside the clock machine and only creates rows
// for keys with no record at all, so it never overwrites a login.
type Sweeper struct {
	store Store
	dir   Directory
}

// NewSweeper wires a sweeper to its store and employee directory.
func NewSweeper(store Store, dir Directory) *Sweeper {
	return &Sweeper{store: store, dir: dir}
}

// MarkAbsent marks every employee without a record on day as ABSENT and
// returns how many rows it created. Weekends are left alone.
func (s *Sweeper) MarkAbsent(ctx context.Context, day time.Time) (int, error) {
	day = Civil(day)
	if wd := day.Weekday(); wd == time.Saturday || wd == time.Sunday {
		return 0, nil
	}
	ids, err := s.dir.EmployeeIDs(ctx)
	if err != nil {
		return 0, err
	}
	marked := 0
	for _, id := range ids {
		ok, err := s.store.InsertIfMissing(ctx, Record{
			ID:         uuid.NewString(),
			EmployeeID: id,
			Date:       day,
			Status:     StatusAbsent,
			Remarks:    autoAbsentRemark,
		})
		if err != nil {
			return marked, fmt.Errorf("mark %s absent: %w", id, err)
		}
		if ok {
			marked++
		}
	}
	return marked, nil
}

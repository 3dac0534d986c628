package attendance

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func at(h, m, s int) time.Time {
	return time.Date(2025, 3, 4, h, m, s, 0, time.UTC)
}

func newTestService() (*Service, *MemoryStore) {
	st := NewMemoryStore()
	return NewService(st, time.UTC), st
}

func TestClockInCreatesRecord(t *testing.T) {
	svc, st := newTestService()
	ctx := context.Background()

	rec, err := svc.ClockIn(ctx, "emp-1", at(9, 3, 0))
	if err != nil {
		t.Fatalf("ClockIn: %v", err)
	}
	if rec.LoginTime == nil || !rec.LoginTime.Equal(at(9, 3, 0)) {
		t.Errorf("login = %v, want 09:03:00", rec.LoginTime)
	}
	if rec.LogoutTime != nil {
		t.Errorf("logout = %v, want nil", rec.LogoutTime)
	}
	if rec.Status != StatusPresent {
		t.Errorf("status = %s, want PRESENT", rec.Status)
	}
	if got := rec.DateString(); got != "2025-03-04" {
		t.Errorf("date = %s", got)
	}
	if rec.ID == "" {
		t.Error("record id not set")
	}

	stored, err := st.Get(ctx, "emp-1", Civil(at(0, 0, 0)))
	if err != nil || stored == nil {
		t.Fatalf("stored record missing: %v", err)
	}
	if State(stored) != ClockedIn {
		t.Errorf("state = %s, want CLOCKED_IN", State(stored))
	}
}

func TestClockInTwiceKeepsFirstRecord(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	first, err := svc.ClockIn(ctx, "emp-1", at(9, 0, 0))
	if err != nil {
		t.Fatalf("first ClockIn: %v", err)
	}
	second, err := svc.ClockIn(ctx, "emp-1", at(10, 0, 0))
	if !errors.Is(err, ErrAlreadyClockedIn) {
		t.Fatalf("second ClockIn err = %v, want ErrAlreadyClockedIn", err)
	}
	if second.ID != first.ID || !second.LoginTime.Equal(*first.LoginTime) || second.Status != first.Status {
		t.Errorf("second call returned %+v, want unchanged %+v", second, first)
	}

	cur, _ := svc.CurrentStatus(ctx, "emp-1", at(0, 0, 0))
	if !cur.LoginTime.Equal(at(9, 0, 0)) {
		t.Errorf("stored login changed to %v", cur.LoginTime)
	}
}

func TestClockInAfterClockOutIsRejected(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.ClockIn(ctx, "emp-1", at(9, 0, 0)); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.ClockOut(ctx, "emp-1", at(17, 0, 0), ""); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.ClockIn(ctx, "emp-1", at(17, 30, 0)); !errors.Is(err, ErrAlreadyClockedIn) {
		t.Errorf("err = %v, want ErrAlreadyClockedIn", err)
	}
}

func TestClockOutBeforeClockIn(t *testing.T) {
	svc, _ := newTestService()
	_, err := svc.ClockOut(context.Background(), "emp-1", at(17, 0, 0), "")
	if !errors.Is(err, ErrNotClockedIn) {
		t.Errorf("err = %v, want ErrNotClockedIn", err)
	}
}

func TestClockOutTwice(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.ClockIn(ctx, "emp-1", at(9, 0, 0)); err != nil {
		t.Fatal(err)
	}
	first, err := svc.ClockOut(ctx, "emp-1", at(17, 0, 0), "")
	if err != nil {
		t.Fatalf("first ClockOut: %v", err)
	}
	second, err := svc.ClockOut(ctx, "emp-1", at(18, 0, 0), "")
	if !errors.Is(err, ErrAlreadyClockedOut) {
		t.Fatalf("err = %v, want ErrAlreadyClockedOut", err)
	}
	if !second.LogoutTime.Equal(*first.LogoutTime) {
		t.Errorf("logout changed from %v to %v", first.LogoutTime, second.LogoutTime)
	}
}

func TestClockOutKeepsStatusAndWritesRemarks(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.ClockIn(ctx, "emp-1", at(9, 30, 0)); err != nil {
		t.Fatal(err)
	}
	rec, err := svc.ClockOut(ctx, "emp-1", at(12, 0, 0), "Early Logout")
	if err != nil {
		t.Fatal(err)
	}
	if rec.Status != StatusLate {
		t.Errorf("status = %s, want LATE kept from clock-in", rec.Status)
	}
	if rec.Remarks != "Early Logout" {
		t.Errorf("remarks = %q", rec.Remarks)
	}
	if State(&rec) != ClockedOut {
		t.Errorf("state = %s", State(&rec))
	}
}

func TestClockOutWithoutRemarksKeepsExisting(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.ClockIn(ctx, "emp-1", at(9, 0, 0)); err != nil {
		t.Fatal(err)
	}
	rec, err := svc.ClockOut(ctx, "emp-1", at(18, 30, 0), "")
	if err != nil {
		t.Fatal(err)
	}
	if rec.Remarks != "Login Recorded" {
		t.Errorf("remarks = %q, want clock-in remark kept", rec.Remarks)
	}
}

func TestDeriveStatusGraceBoundary(t *testing.T) {
	tests := []struct {
		login time.Time
		want  Status
	}{
		{at(8, 45, 0), StatusPresent},
		{at(9, 0, 0), StatusPresent},
		{at(9, 5, 0), StatusPresent},
		{at(9, 5, 1), StatusLate},
		{at(9, 5, 0).Add(time.Millisecond), StatusLate},
		{at(13, 0, 0), StatusLate},
	}
	for _, tt := range tests {
		if got := DeriveStatus(tt.login, time.UTC); got != tt.want {
			t.Errorf("DeriveStatus(%s) = %s, want %s", tt.login.Format("15:04:05.000"), got, tt.want)
		}
	}
}

func TestDeriveStatusUsesServiceLocation(t *testing.T) {
	ist := time.FixedZone("IST", 5*3600+1800)
	// 03:40 UTC is 09:10 IST.
	login := time.Date(2025, 3, 4, 3, 40, 0, 0, time.UTC)
	if got := DeriveStatus(login, ist); got != StatusLate {
		t.Errorf("status = %s, want LATE in IST", got)
	}
	if got := DeriveStatus(login, time.UTC); got != StatusPresent {
		t.Errorf("status = %s, want PRESENT in UTC", got)
	}
}

func TestDayIsCutInServiceLocation(t *testing.T) {
	ist := time.FixedZone("IST", 5*3600+1800)
	svc := NewService(NewMemoryStore(), ist)
	// 20:00 UTC on the 3rd is already the 4th in IST.
	rec, err := svc.ClockIn(context.Background(), "emp-1", time.Date(2025, 3, 3, 20, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatal(err)
	}
	if rec.DateString() != "2025-03-04" {
		t.Errorf("date = %s, want 2025-03-04", rec.DateString())
	}
}

func TestClockInFillsBatchRecordWithoutLogin(t *testing.T) {
	svc, st := newTestService()
	ctx := context.Background()

	ok, err := st.InsertIfMissing(ctx, Record{ID: "batch", EmployeeID: "emp-1", Date: Civil(at(0, 0, 0)), Status: StatusAbsent})
	if err != nil || !ok {
		t.Fatalf("seed: %v %v", ok, err)
	}
	rec, err := svc.ClockIn(ctx, "emp-1", at(9, 2, 0))
	if err != nil {
		t.Fatalf("ClockIn: %v", err)
	}
	if rec.ID != "batch" || rec.Status != StatusPresent {
		t.Errorf("got %+v, want batch row updated to PRESENT", rec)
	}
}

func TestValidationRejectedBeforeStorage(t *testing.T) {
	svc := NewService(failingStore{}, time.UTC)
	ctx := context.Background()
	var verr *ValidationError

	if _, err := svc.ClockIn(ctx, "", at(9, 0, 0)); !errors.As(err, &verr) {
		t.Errorf("blank id: err = %v", err)
	}
	if _, err := svc.ClockIn(ctx, "emp-1", time.Time{}); !errors.As(err, &verr) {
		t.Errorf("zero time: err = %v", err)
	}
	if _, err := svc.ClockOut(ctx, "emp 1", at(17, 0, 0), ""); !errors.As(err, &verr) {
		t.Errorf("space in id: err = %v", err)
	}
	if _, err := svc.CurrentStatus(ctx, "  ", at(0, 0, 0)); !errors.As(err, &verr) {
		t.Errorf("CurrentStatus: err = %v", err)
	}
	if _, err := svc.History(ctx, "emp-1", at(0, 0, 0), at(0, 0, 0).AddDate(0, 0, -1)); !errors.As(err, &verr) {
		t.Errorf("reversed range: err = %v", err)
	}
}

func TestStorageFailureIsSurfaced(t *testing.T) {
	svc := NewService(failingStore{}, time.UTC)
	_, err := svc.ClockIn(context.Background(), "emp-1", at(9, 0, 0))
	var terr *TransientError
	if !errors.As(err, &terr) {
		t.Fatalf("err = %v, want TransientError", err)
	}
	if IsStateError(err) {
		t.Error("transient error classified as state error")
	}
}

func TestCurrentStatusWithoutRecordIsNotAnError(t *testing.T) {
	svc, _ := newTestService()
	rec, err := svc.CurrentStatus(context.Background(), "emp-1", at(0, 0, 0))
	if err != nil {
		t.Fatalf("err = %v", err)
	}
	if rec != nil || State(rec) != NotClockedIn {
		t.Errorf("rec = %+v, want nil / NOT_CLOCKED_IN", rec)
	}
}

func TestConcurrentClockInSingleWinner(t *testing.T) {
	svc, st := newTestService()
	ctx := context.Background()

	const n = 32
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		wins     int
		rejected int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.ClockIn(ctx, "emp-1", at(9, 0, i))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
			case errors.Is(err, ErrAlreadyClockedIn):
				rejected++
			default:
				t.Errorf("unexpected err: %v", err)
			}
		}(i)
	}
	wg.Wait()

	if wins != 1 || rejected != n-1 {
		t.Errorf("wins = %d rejected = %d, want 1 and %d", wins, rejected, n-1)
	}
	recs, _ := st.Range(ctx, "emp-1", Civil(at(0, 0, 0)), Civil(at(0, 0, 0)))
	if len(recs) != 1 {
		t.Errorf("%d records stored, want 1", len(recs))
	}
}

func TestHistoryOrderedByDay(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	for _, d := range []int{5, 3, 4} {
		if _, err := svc.ClockIn(ctx, "emp-1", time.Date(2025, 3, d, 9, 0, 0, 0, time.UTC)); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := svc.ClockIn(ctx, "emp-2", time.Date(2025, 3, 4, 9, 0, 0, 0, time.UTC)); err != nil {
		t.Fatal(err)
	}

	recs, err := svc.History(ctx, "emp-1", time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC), time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 2 || recs[0].DateString() != "2025-03-03" || recs[1].DateString() != "2025-03-04" {
		t.Errorf("history = %v", recs)
	}
}

func TestEndToEndDay(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	rec, err := svc.ClockIn(ctx, "emp-1", at(9, 3, 0))
	if err != nil {
		t.Fatal(err)
	}
	if rec.Status != StatusPresent {
		t.Fatalf("status = %s", rec.Status)
	}
	rec, err = svc.ClockOut(ctx, "emp-1", at(17, 45, 0), "")
	if err != nil {
		t.Fatal(err)
	}
	if got := WorkingHours(rec, at(23, 0, 0)).String(); got != "8h 42m" {
		t.Errorf("working hours = %s, want 8h 42m", got)
	}

	from, to := MonthRange(2025, time.March)
	recs, err := svc.History(ctx, "emp-1", from, to)
	if err != nil {
		t.Fatal(err)
	}
	stats := Aggregate(recs)
	if stats.Present != 1 {
		t.Errorf("present = %d", stats.Present)
	}
	if got := Earnings(decimal.NewFromInt(9000), stats.Present); !got.Equal(decimal.NewFromInt(300)) {
		t.Errorf("earnings = %s, want 300", got)
	}
}

type failingStore struct{}

var errDown = &TransientError{Op: "test", Err: errors.New("connection refused")}

func (failingStore) ClockIn(context.Context, Record) (Record, error) { return Record{}, errDown }
func (failingStore) ClockOut(context.Context, string, time.Time, time.Time, string) (Record, error) {
	return Record{}, errDown
}
func (failingStore) Get(context.Context, string, time.Time) (*Record, error) { return nil, errDown }
func (failingStore) Range(context.Context, string, time.Time, time.Time) ([]Record, error) {
	return nil, errDown
}
func (failingStore) List(context.Context, time.Time, string) ([]Record, error) {
	return nil, errDown
}
func (failingStore) InsertIfMissing(context.Context, Record) (bool, error) { return false, errDown }

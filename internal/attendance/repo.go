package attendance

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Repository persists attendance data in Postgres. It implements both Store
// and Directory.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const recordColumns = `id, employee_id, work_date, login_time, logout_time, status, remarks`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (Record, error) {
	var (
		rec    Record
		login  sql.NullTime
		logout sql.NullTime
		status string
	)
	if err := row.Scan(&rec.ID, &rec.EmployeeID, &rec.Date, &login, &logout, &status, &rec.Remarks); err != nil {
		return Record{}, err
	}
	rec.Date = Civil(rec.Date)
	rec.Status = Status(status)
	if login.Valid {
		t := login.Time.UTC()
		rec.LoginTime = &t
	}
	if logout.Valid {
		t := logout.Time.UTC()
		rec.LogoutTime = &t
	}
	return rec, nil
}

func transient(op string, err error) error {
	return &TransientError{Op: op, Err: err}
}

// ClockIn implements Store with one conditional upsert: the update branch only
// fires while login_time is still NULL, so a second login returns no row.
func (r *Repository) ClockIn(ctx context.Context, rec Record) (Record, error) {
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO attendance_records (id, employee_id, work_date, login_time, status, remarks)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (employee_id, work_date) DO UPDATE SET
			login_time = EXCLUDED.login_time,
			status = EXCLUDED.status,
			remarks = EXCLUDED.remarks,
			updated_at = NOW()
		WHERE attendance_records.login_time IS NULL
		RETURNING `+recordColumns,
		rec.ID, rec.EmployeeID, rec.DateString(), rec.LoginTime, string(rec.Status), rec.Remarks)
	stored, err := scanRecord(row)
	if err == nil {
		return stored, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return Record{}, transient("clock in", err)
	}
	cur, err := r.Get(ctx, rec.EmployeeID, rec.Date)
	if err != nil {
		return Record{}, err
	}
	if cur == nil {
		// Row vanished between the two statements; nothing here deletes rows.
		return Record{}, transient("clock in", errors.New("record disappeared"))
	}
	return *cur, ErrAlreadyClockedIn
}

// ClockOut implements Store with an UPDATE gated on logout_time IS NULL.
func (r *Repository) ClockOut(ctx context.Context, employeeID string, day, at time.Time, remarks string) (Record, error) {
	row := r.db.QueryRowContext(ctx, `
		UPDATE attendance_records
		SET logout_time = $3,
			remarks = COALESCE(NULLIF($4::text, ''), remarks),
			updated_at = NOW()
		WHERE employee_id = $1 AND work_date = $2
			AND login_time IS NOT NULL AND logout_time IS NULL
		RETURNING `+recordColumns,
		employeeID, day.Format(dateLayout), at, remarks)
	stored, err := scanRecord(row)
	if err == nil {
		return stored, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return Record{}, transient("clock out", err)
	}
	cur, err := r.Get(ctx, employeeID, day)
	if err != nil {
		return Record{}, err
	}
	if State(cur) == ClockedOut {
		return *cur, ErrAlreadyClockedOut
	}
	return Record{}, ErrNotClockedIn
}

// Get implements Store.
func (r *Repository) Get(ctx context.Context, employeeID string, day time.Time) (*Record, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+recordColumns+`
		FROM attendance_records
		WHERE employee_id = $1 AND work_date = $2
	`, employeeID, day.Format(dateLayout))
	rec, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, transient("get record", err)
	}
	return &rec, nil
}

// Range implements Store.
func (r *Repository) Range(ctx context.Context, employeeID string, from, to time.Time) ([]Record, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+recordColumns+`
		FROM attendance_records
		WHERE employee_id = $1 AND work_date BETWEEN $2 AND $3
		ORDER BY work_date ASC
	`, employeeID, from.Format(dateLayout), to.Format(dateLayout))
	if err != nil {
		return nil, transient("list records", err)
	}
	defer rows.Close()
	var res []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, transient("list records", err)
		}
		res = append(res, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, transient("list records", err)
	}
	return res, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// List implements Store. search is matched literally; LIKE wildcards in it
// are escaped.
func (r *Repository) List(ctx context.Context, day time.Time, search string) ([]Record, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+recordColumns+`
		FROM attendance_records
		WHERE work_date = $1 AND employee_id ILIKE '%' || $2::text || '%'
		ORDER BY employee_id ASC
	`, day.Format(dateLayout), likeEscaper.Replace(search))
	if err != nil {
		return nil, transient("list day", err)
	}
	defer rows.Close()
	var res []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, transient("list day", err)
		}
		res = append(res, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, transient("list day", err)
	}
	return res, nil
}

// InsertIfMissing implements Store.
func (r *Repository) InsertIfMissing(ctx context.Context, rec Record) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO attendance_records (id, employee_id, work_date, login_time, logout_time, status, remarks)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (employee_id, work_date) DO NOTHING
	`, rec.ID, rec.EmployeeID, rec.DateString(), rec.LoginTime, rec.LogoutTime, string(rec.Status), rec.Remarks)
	if err != nil {
		return false, transient("insert record", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, transient("insert record", err)
	}
	return n > 0, nil
}

// BaseSalary implements Directory. A NULL salary reads as zero.
func (r *Repository) BaseSalary(ctx context.Context, employeeID string) (decimal.Decimal, error) {
	var salary decimal.NullDecimal
	err := r.db.QueryRowContext(ctx, `
		SELECT base_salary FROM employees WHERE employee_id = $1
	`, employeeID).Scan(&salary)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return decimal.Zero, ErrEmployeeNotFound
		}
		return decimal.Zero, transient("get salary", err)
	}
	if !salary.Valid {
		return decimal.Zero, nil
	}
	return salary.Decimal, nil
}

// EmployeeIDs implements Directory.
func (r *Repository) EmployeeIDs(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT employee_id FROM employees ORDER BY employee_id`)
	if err != nil {
		return nil, transient("list employees", err)
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, transient("list employees", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, transient("list employees", err)
	}
	return ids, nil
}

// Ping reports whether the database answers.
func (r *Repository) Ping(ctx context.Context) error {
	if r == nil || r.db == nil {
		return errors.New("no database")
	}
	return r.db.PingContext(ctx)
}

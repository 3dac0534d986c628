package attendance

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// MemoryStore is a mutex-guarded Store for dev and tests.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]Record
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]Record)}
}

func memKey(employeeID string, day time.Time) string {
	return employeeID + "|" + day.Format(dateLayout)
}

// ClockIn implements Store.
func (m *MemoryStore) ClockIn(_ context.Context, rec Record) (Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := memKey(rec.EmployeeID, rec.Date)
	if cur, ok := m.records[key]; ok {
		if cur.LoginTime != nil {
			return copyRecord(cur), ErrAlreadyClockedIn
		}
		rec.ID = cur.ID
	}
	m.records[key] = copyRecord(rec)
	return copyRecord(rec), nil
}

// ClockOut implements Store.
func (m *MemoryStore) ClockOut(_ context.Context, employeeID string, day, at time.Time, remarks string) (Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := memKey(employeeID, day)
	cur, ok := m.records[key]
	if !ok || cur.LoginTime == nil {
		return Record{}, ErrNotClockedIn
	}
	if cur.LogoutTime != nil {
		return copyRecord(cur), ErrAlreadyClockedOut
	}
	cur.LogoutTime = &at
	if remarks != "" {
		cur.Remarks = remarks
	}
	m.records[key] = copyRecord(cur)
	return copyRecord(cur), nil
}

// Get implements Store.
func (m *MemoryStore) Get(_ context.Context, employeeID string, day time.Time) (*Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cur, ok := m.records[memKey(employeeID, day)]
	if !ok {
		return nil, nil
	}
	rec := copyRecord(cur)
	return &rec, nil
}

// Range implements Store.
func (m *MemoryStore) Range(_ context.Context, employeeID string, from, to time.Time) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var res []Record
	for _, rec := range m.records {
		if rec.EmployeeID != employeeID || rec.Date.Before(from) || rec.Date.After(to) {
			continue
		}
		res = append(res, copyRecord(rec))
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Date.Before(res[j].Date) })
	return res, nil
}

// List implements Store.
func (m *MemoryStore) List(_ context.Context, day time.Time, search string) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	search = strings.ToLower(search)
	var res []Record
	for _, rec := range m.records {
		if !rec.Date.Equal(day) || !strings.Contains(strings.ToLower(rec.EmployeeID), search) {
			continue
		}
		res = append(res, copyRecord(rec))
	}
	sort.Slice(res, func(i, j int) bool { return res[i].EmployeeID < res[j].EmployeeID })
	return res, nil
}

// InsertIfMissing implements Store.
func (m *MemoryStore) InsertIfMissing(_ context.Context, rec Record) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := memKey(rec.EmployeeID, rec.Date)
	if _, ok := m.records[key]; ok {
		return false, nil
	}
	m.records[key] = copyRecord(rec)
	return true, nil
}

// copyRecord detaches the time pointers so callers never share state with the map.
func copyRecord(r Record) Record {
	if r.LoginTime != nil {
		t := *r.LoginTime
		r.LoginTime = &t
	}
	if r.LogoutTime != nil {
		t := *r.LogoutTime
		r.LogoutTime = &t
	}
	return r
}

// MemoryDirectory is a fixed employee list.
type MemoryDirectory struct {
	employees map[string]Employee
}

// NewMemoryDirectory indexes the given employees by id.
func NewMemoryDirectory(employees ...Employee) *MemoryDirectory {
	d := &MemoryDirectory{employees: make(map[string]Employee, len(employees))}
	for _, e := range employees {
		d.employees[e.ID] = e
	}
	return d
}

// ParseEmployees reads a comma separated "id=salary" list, as used to seed a
// MemoryDirectory from the environment. The salary part is optional.
func ParseEmployees(list string) ([]Employee, error) {
	var out []Employee
	seen := make(map[string]bool)
	for _, item := range strings.Split(list, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		id, salary, hasSalary := strings.Cut(item, "=")
		id = strings.TrimSpace(id)
		if err := ValidateEmployeeID(id); err != nil {
			return nil, err
		}
		if seen[id] {
			return nil, &ValidationError{Field: "employees", Reason: "duplicate id " + id}
		}
		seen[id] = true
		e := Employee{ID: id}
		if hasSalary {
			d, err := decimal.NewFromString(strings.TrimSpace(salary))
			if err != nil || d.IsNegative() {
				return nil, &ValidationError{Field: "base_salary", Reason: "bad salary for " + id}
			}
			e.BaseSalary = d
		}
		out = append(out, e)
	}
	return out, nil
}

// BaseSalary implements Directory.
func (d *MemoryDirectory) BaseSalary(_ context.Context, employeeID string) (decimal.Decimal, error) {
	e, ok := d.employees[employeeID]
	if !ok {
		return decimal.Zero, ErrEmployeeNotFound
	}
	return e.BaseSalary, nil
}

// EmployeeIDs implements Directory.
func (d *MemoryDirectory) EmployeeIDs(_ context.Context) ([]string, error) {
	ids := make([]string, 0, len(d.employees))
	for id := range d.employees {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

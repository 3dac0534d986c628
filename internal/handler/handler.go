package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"hrattendance/internal/attendance"
	"hrattendance/internal/auth"
	"hrattendance/internal/metrics"
	"hrattendance/internal/queue"
)

const earlyLogoutRemark = "Early Logout"

type Handler struct {
	svc     *attendance.Service
	dir     attendance.Directory
	queue   queue.Queue // nil disables sweep requests
	now     func() time.Time
	timeout time.Duration
}

func New(svc *attendance.Service, dir attendance.Directory, q queue.Queue, timeout time.Duration) *Handler {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Handler{svc: svc, dir: dir, queue: q, now: time.Now, timeout: timeout}
}

// Register mounts the attendance routes on an authenticated group.
func (h *Handler) Register(rg *gin.RouterGroup) {
	att := rg.Group("/attendance/:employeeID")
	att.GET("/today", h.Today)
	att.POST("/clock-in", h.ClockIn)
	att.PUT("/clock-out", h.ClockOut)
	att.GET("/history", h.History)
	att.GET("/stats", h.Stats)

	rg.GET("/attendance", auth.RequireRole(), h.List)
	rg.GET("/employees/:employeeID/salary", h.Salary)

	rg.POST("/admin/sweeps", auth.RequireRole(), h.QueueSweep)
}

// ---------- Clock ----------

// Today returns the day's record, or a null record while not clocked in, with
// the working time measured against the request time.
func (h *Handler) Today(c *gin.Context) {
	id, ok := h.employee(c)
	if !ok {
		return
	}
	ctx, cancel := h.context(c)
	defer cancel()

	now := h.now()
	rec, err := h.svc.CurrentStatus(ctx, id, h.svc.Day(now))
	if err != nil {
		respondError(c, err)
		return
	}
	worked := attendance.WorkedTime{}
	if rec != nil {
		worked = attendance.WorkingHours(*rec, now)
	}
	c.JSON(http.StatusOK, gin.H{
		"record":        rec,
		"state":         attendance.State(rec),
		"working_hours": worked.String(),
	})
}

func (h *Handler) ClockIn(c *gin.Context) {
	id, ok := h.employee(c)
	if !ok {
		return
	}
	ctx, cancel := h.context(c)
	defer cancel()

	rec, err := h.svc.ClockIn(ctx, id, h.now())
	if err != nil {
		countClock("clock_in", err)
		if errors.Is(err, attendance.ErrAlreadyClockedIn) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "record": rec})
			return
		}
		respondError(c, err)
		return
	}
	countClock("clock_in", nil)
	metrics.LoginStatus.WithLabelValues(string(rec.Status)).Inc()
	c.JSON(http.StatusCreated, gin.H{"record": rec, "state": attendance.State(&rec)})
}

// ClockOut closes the day. Logouts before 18:00 are annotated in remarks; the
// status set at clock-in is kept.
func (h *Handler) ClockOut(c *gin.Context) {
	id, ok := h.employee(c)
	if !ok {
		return
	}
	ctx, cancel := h.context(c)
	defer cancel()

	now := h.now()
	remarks := ""
	if attendance.IsEarlyLogout(now, h.svc.Location()) {
		remarks = earlyLogoutRemark
	}
	rec, err := h.svc.ClockOut(ctx, id, now, remarks)
	if err != nil {
		countClock("clock_out", err)
		if errors.Is(err, attendance.ErrAlreadyClockedOut) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "record": rec})
			return
		}
		respondError(c, err)
		return
	}
	countClock("clock_out", nil)
	worked := attendance.WorkingHours(rec, now)
	metrics.WorkedHours.Observe(worked.Duration().Hours())
	c.JSON(http.StatusOK, gin.H{
		"record":        rec,
		"state":         attendance.State(&rec),
		"working_hours": worked.String(),
	})
}

// ---------- History & stats ----------

type listQuery struct {
	Date   string `form:"date"`
	Search string `form:"search"`
}

// List returns all records for one day (?date=YYYY-MM-DD, default today),
// optionally narrowed by an employee id fragment (?search=).
func (h *Handler) List(c *gin.Context) {
	var q listQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	day := h.svc.Day(h.now())
	if q.Date != "" {
		parsed, err := attendance.ParseDate(q.Date)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
			return
		}
		day = parsed
	}
	ctx, cancel := h.context(c)
	defer cancel()

	records, err := h.svc.List(ctx, day, q.Search)
	if err != nil {
		respondError(c, err)
		return
	}
	if records == nil {
		records = []attendance.Record{}
	}
	c.JSON(http.StatusOK, gin.H{"date": day.Format("2006-01-02"), "records": records})
}

type historyQuery struct {
	From time.Time `form:"from" binding:"required" time_format:"2006-01-02" time_utc:"1"`
	To   time.Time `form:"to" binding:"required" time_format:"2006-01-02" time_utc:"1"`
}

func (h *Handler) History(c *gin.Context) {
	id, ok := h.employee(c)
	if !ok {
		return
	}
	var q historyQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "from and to are required as YYYY-MM-DD"})
		return
	}
	ctx, cancel := h.context(c)
	defer cancel()

	records, err := h.svc.History(ctx, id, q.From, q.To)
	if err != nil {
		respondError(c, err)
		return
	}
	if records == nil {
		records = []attendance.Record{}
	}
	c.JSON(http.StatusOK, gin.H{"records": records})
}

// Stats aggregates one calendar month (?month=YYYY-MM, default the current
// month) and derives month-to-date earnings from the base salary.
func (h *Handler) Stats(c *gin.Context) {
	id, ok := h.employee(c)
	if !ok {
		return
	}
	month := h.now().In(h.svc.Location())
	if v := c.Query("month"); v != "" {
		parsed, err := time.Parse("2006-01", v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "month must be YYYY-MM"})
			return
		}
		month = parsed
	}
	ctx, cancel := h.context(c)
	defer cancel()

	from, to := attendance.MonthRange(month.Year(), month.Month())
	records, err := h.svc.History(ctx, id, from, to)
	if err != nil {
		respondError(c, err)
		return
	}
	salary, err := h.dir.BaseSalary(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}
	stats := attendance.Aggregate(records)
	c.JSON(http.StatusOK, gin.H{
		"employee_id":    id,
		"month":          from.Format("2006-01"),
		"stats":          stats,
		"base_salary":    salary,
		"daily_rate":     attendance.DailyRate(salary),
		"month_earnings": attendance.Earnings(salary, stats.Present),
	})
}

func (h *Handler) Salary(c *gin.Context) {
	id, ok := h.employee(c)
	if !ok {
		return
	}
	ctx, cancel := h.context(c)
	defer cancel()

	salary, err := h.dir.BaseSalary(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"employee_id": id, "base_salary": salary})
}

// ---------- Sweeps ----------

type sweepRequest struct {
	Date string `json:"date" binding:"required"`
}

// QueueSweep hands an absence sweep for one day to the worker.
func (h *Handler) QueueSweep(c *gin.Context) {
	if h.queue == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "sweep queue not configured"})
		return
	}
	var req sweepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	day, err := attendance.ParseDate(req.Date)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
		return
	}
	ctx, cancel := h.context(c)
	defer cancel()

	date := day.Format("2006-01-02")
	if err := h.queue.Publish(ctx, queue.Message{Type: queue.TypeSweep, Body: []byte(date)}); err != nil {
		log.Printf("queue publish failed: %v", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "service unavailable"})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"date": date})
}

// ---------- helpers ----------

// employee reads the path id and checks the caller may act on it.
func (h *Handler) employee(c *gin.Context) (string, bool) {
	id := c.Param("employeeID")
	if err := attendance.ValidateEmployeeID(id); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return "", false
	}
	claims, ok := auth.FromContext(c)
	if !ok || !claims.CanAccess(id) {
		c.JSON(http.StatusForbidden, gin.H{"error": "employee mismatch"})
		return "", false
	}
	return id, true
}

func (h *Handler) context(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), h.timeout)
}

func countClock(action string, err error) {
	result := metrics.ResultOK
	switch {
	case err == nil:
	case attendance.IsStateError(err):
		result = metrics.ResultRejected
	default:
		result = metrics.ResultError
	}
	metrics.ClockEvents.WithLabelValues(action, result).Inc()
}

// respondError maps the attendance error taxonomy to HTTP. Infrastructure
// failures are logged and answered with a generic message.
func respondError(c *gin.Context, err error) {
	var (
		verr *attendance.ValidationError
		terr *attendance.TransientError
	)
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Error()})
	case attendance.IsStateError(err):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, attendance.ErrEmployeeNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.As(err, &terr), errors.Is(err, context.DeadlineExceeded):
		log.Printf("%s %s: %v", c.Request.Method, c.FullPath(), err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "service unavailable"})
	default:
		log.Printf("%s %s: %v", c.Request.Method, c.FullPath(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

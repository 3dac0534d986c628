package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Result labels for ClockEvents.
const (
	ResultOK       = "ok"
	ResultRejected = "rejected"
	ResultError    = "error"
)

var (
	// ClockEvents counts clock requests by action (clock_in, clock_out) and result.
	ClockEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "attendance",
		Name:      "clock_events_total",
		Help:      "Clock-in and clock-out requests by outcome.",
	}, []string{"action", "result"})

	// LoginStatus counts clock-ins by derived status.
	LoginStatus = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "attendance",
		Name:      "login_status_total",
		Help:      "Successful clock-ins by derived day status.",
	}, []string{"status"})

	// WorkedHours observes the length of closed days.
	WorkedHours = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "attendance",
		Name:      "worked_hours",
		Help:      "Hours between clock-in and clock-out of closed days.",
		Buckets:   []float64{1, 2, 4, 5, 6, 7, 8, 9, 10, 12},
	})

	// SweepMarked counts records created by the absence sweep.
	SweepMarked = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "attendance",
		Name:      "sweep_marked_absent_total",
		Help:      "Records marked ABSENT by the absence sweep.",
	})

	// RateLimited counts requests refused by a rate limiter, by scope
	// (client for per-IP limits, caller for per-subject limits).
	RateLimited = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "attendance",
		Name:      "rate_limited_total",
		Help:      "Requests refused with 429.",
	}, []string{"scope"})
)

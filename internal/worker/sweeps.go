package worker

import (
	"context"
	"log"
	"time"

	"hrattendance/internal/attendance"
	"hrattendance/internal/metrics"
	"hrattendance/internal/queue"
)

// SweepRunner consumes sweep messages and marks absences for the requested day.
// A sweep that fails is published again after RetryDelay; sweeps only fill in
// missing rows, so running one twice is harmless.
type SweepRunner struct {
	queue      queue.Queue
	sweeper    *attendance.Sweeper
	timeout    time.Duration
	RetryDelay time.Duration
}

// NewSweepRunner builds a runner. timeout bounds a single sweep.
func NewSweepRunner(q queue.Queue, sweeper *attendance.Sweeper, timeout time.Duration) *SweepRunner {
	if timeout <= 0 {
		timeout = time.Minute
	}
	return &SweepRunner{queue: q, sweeper: sweeper, timeout: timeout, RetryDelay: 5 * time.Second}
}

// Run blocks until ctx ends or the queue closes.
func (r *SweepRunner) Run(ctx context.Context) error {
	messages, err := r.queue.Consume(ctx)
	if err != nil {
		return err
	}
	for msg := range messages {
		r.handle(ctx, msg)
	}
	return nil
}

func (r *SweepRunner) handle(ctx context.Context, msg queue.Message) {
	if msg.Type != queue.TypeSweep {
		log.Printf("ignoring message type %q", msg.Type)
		return
	}
	day, err := attendance.ParseDate(string(msg.Body))
	if err != nil {
		log.Printf("bad sweep date %q: %v", msg.Body, err)
		return
	}
	date := day.Format("2006-01-02")

	sweepCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	log.Printf("sweeping absences for %s", date)
	marked, err := r.sweeper.MarkAbsent(sweepCtx, day)
	metrics.SweepMarked.Add(float64(marked))
	if err != nil {
		log.Printf("sweep %s stopped after %d records: %v", date, marked, err)
		r.retry(ctx, msg)
		return
	}
	log.Printf("sweep %s marked %d employees absent", date, marked)
}

func (r *SweepRunner) retry(ctx context.Context, msg queue.Message) {
	select {
	case <-time.After(r.RetryDelay):
	case <-ctx.Done():
		log.Printf("sweep %s dropped on shutdown", msg.Body)
		return
	}
	pubCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	if err := r.queue.Publish(pubCtx, msg); err != nil {
		log.Printf("sweep %s dropped, requeue failed: %v", msg.Body, err)
	}
}

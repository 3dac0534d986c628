package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"hrattendance/internal/attendance"
	"hrattendance/internal/config"
	"hrattendance/internal/queue"
	"hrattendance/internal/store"
	"hrattendance/internal/worker"
)

// Worker consumes sweep requests from redis and marks absences for the requested day.
func main() {
	cfg := config.Load()
	if cfg.QueueBackend == "memory" {
		log.Fatalf("worker needs QUEUE_BACKEND=redis; with the memory queue the api process runs sweeps itself")
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("shutdown signal received")
		cancel()
	}()

	db, err := store.NewDB(ctx, cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer db.Close()

	redisClient := store.NewRedis(cfg.RedisAddr, cfg.RedisPassword)
	defer redisClient.Close()

	q := queue.NewRedisQueue(redisClient.Client, cfg.SweepQueueKey)

	go serveMetrics(cfg.WorkerMetricsPort)

	repo := attendance.NewRepository(db.Client)
	runner := worker.NewSweepRunner(q, attendance.NewSweeper(repo, repo), cfg.RequestTimeout*10)

	log.Println("worker started, waiting for messages...")
	if err := runner.Run(ctx); err != nil {
		log.Fatalf("queue consume init failed: %v", err)
	}

	log.Println("worker stopped")
}

func serveMetrics(port string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: ":" + port, Handler: mux, ReadTimeout: 5 * time.Second}
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Printf("metrics server: %v", err)
	}
}

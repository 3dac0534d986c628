package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"hrattendance/internal/attendance"
	"hrattendance/internal/auth"
	"hrattendance/internal/config"
	"hrattendance/internal/handler"
	"hrattendance/internal/httpmiddleware"
	"hrattendance/internal/queue"
	"hrattendance/internal/store"
	"hrattendance/internal/worker"
)

func main() {
	cfg := config.Load()

	// Set Gin mode based on environment
	if cfg.Production() {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := runHTTP(cfg); err != nil {
		log.Fatalf("http server failed: %v", err)
	}
}

// backends holds the storage wiring picked by STORE_BACKEND / QUEUE_BACKEND.
type backends struct {
	store   attendance.Store
	dir     attendance.Directory
	queue   queue.Queue
	redis   *store.Redis
	healthy func(ctx context.Context) gin.H
	close   func()
}

// openBackends connects storage. With QUEUE_BACKEND=memory nothing outside
// this process can see the queue, so sweeps are consumed here until ctx ends.
func openBackends(ctx context.Context, cfg config.App) (backends, error) {
	var b backends
	var closers []func()

	redisClient := store.NewRedis(cfg.RedisAddr, cfg.RedisPassword)
	closers = append(closers, func() { _ = redisClient.Close() })
	b.redis = redisClient

	var db *store.DB
	if cfg.StoreBackend == "memory" {
		employees, err := attendance.ParseEmployees(cfg.MemoryEmployees)
		if err != nil {
			return b, fmt.Errorf("MEMORY_EMPLOYEES: %w", err)
		}
		if len(employees) == 0 {
			log.Println("warning: MEMORY_EMPLOYEES is empty; salary and stats lookups will 404")
		}
		log.Printf("using in-memory attendance store with %d employees", len(employees))
		b.store = attendance.NewMemoryStore()
		b.dir = attendance.NewMemoryDirectory(employees...)
	} else {
		var err error
		db, err = store.NewDB(ctx, cfg.DatabaseURL, 5*time.Second)
		if db == nil {
			return b, err
		}
		closers = append(closers, func() { _ = db.Close() })
		if err != nil {
			log.Printf("warning: db not reachable: %v", err)
		} else if err := db.Migrate(ctx); err != nil {
			log.Printf("warning: %v", err)
		}
		repo := attendance.NewRepository(db.Client)
		b.store = repo
		b.dir = repo
	}

	if cfg.QueueBackend == "memory" {
		b.queue = queue.NewInMemory(64)
		runner := worker.NewSweepRunner(b.queue, attendance.NewSweeper(b.store, b.dir), cfg.RequestTimeout*10)
		go func() {
			if err := runner.Run(ctx); err != nil {
				log.Printf("in-process sweeps stopped: %v", err)
			}
		}()
	} else {
		b.queue = queue.NewRedisQueue(redisClient.Client, cfg.SweepQueueKey)
	}

	b.healthy = func(ctx context.Context) gin.H {
		h := gin.H{"db": true, "redis": true}
		if db != nil {
			h["db"] = db.Healthy(ctx)
		}
		if cfg.QueueBackend != "memory" || cfg.RateLimitBackend == "redis" {
			h["redis"] = redisClient.Healthy(ctx)
		}
		return h
	}
	b.close = func() {
		for _, c := range closers {
			c()
		}
	}
	return b, nil
}

// newLimiter returns the budget store for RATE_LIMIT_BACKEND.
func newLimiter(cfg config.App, rdb *store.Redis, prefix string) httpmiddleware.Limiter {
	if cfg.RateLimitBackend == "redis" {
		return httpmiddleware.NewRedisWindow(rdb.Client, prefix, cfg.RateLimitPerMin)
	}
	return httpmiddleware.NewMemoryBucket(cfg.RateLimitPerMin, cfg.RateLimitPerMin)
}

func runHTTP(cfg config.App) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	b, err := openBackends(ctx, cfg)
	if err != nil {
		return err
	}
	defer b.close()

	svc := attendance.NewService(b.store, cfg.Location)
	h := handler.New(svc, b.dir, b.queue, cfg.RequestTimeout)

	r := gin.New()

	// Recovery middleware
	r.Use(gin.Recovery())

	// Custom logger
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))

	// CORS middleware
	r.Use(corsMiddleware())

	// Security headers
	r.Use(securityHeaders())

	// Rate limiting per client address; /v1 adds a per-caller budget below
	r.Use(httpmiddleware.RateLimit(newLimiter(cfg, b.redis, "attendance:ratelimit:client"), "client", httpmiddleware.ByClientIP))

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/healthz", func(c *gin.Context) {
		deps := b.healthy(c.Request.Context())
		status := http.StatusOK
		if deps["db"] != true || deps["redis"] != true {
			status = http.StatusServiceUnavailable
		}
		deps["status"] = "ok"
		c.JSON(status, deps)
	})

	h.Register(r.Group("/v1",
		auth.Bearer(cfg.JWTSigningKey, cfg.JWTIssuer),
		httpmiddleware.RateLimit(newLimiter(cfg, b.redis, "attendance:ratelimit:caller"), "caller", httpmiddleware.ByCaller),
	))

	// Graceful shutdown
	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Starting server on :%s (attendance tz %s)", cfg.HTTPPort, cfg.Location)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Give outstanding requests 10 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced shutdown: %v", err)
	}

	log.Println("Server exited")
	return nil
}

// CORS middleware for browser requests
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin == "" {
			origin = "*"
		}

		c.Header("Access-Control-Allow-Origin", origin)
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// Security headers middleware
func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")

		// Only add HSTS in production
		if gin.Mode() == gin.ReleaseMode {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		c.Next()
	}
}

// Package main provides the grading server for the dynamic pricing
// assignment: policy validation, Monte Carlo simulation, submission
// persistence, and a live progress feed.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"sync"
	"syscall"
	"time"

	"pricing-lab/internal/observability"
	"pricing-lab/internal/sim"
	"pricing-lab/internal/storage"
	chstore "pricing-lab/internal/storage/clickhouse"
	"pricing-lab/internal/storage/memory"
	"pricing-lab/internal/storage/migrations"
	pgstore "pricing-lab/internal/storage/postgres"
)

const serviceVersion = "1.0.0"

// Server holds the HTTP surface and its collaborators.
type Server struct {
	assignmentVersion string
	runner            *sim.Runner
	workers           int
	stores            *allStores
	logger            *log.Logger

	// State
	mu              sync.Mutex
	started         time.Time
	simulationRuns  int
	submissionsSeen int
}

// allStores holds all storage implementations.
type allStores struct {
	submissionStore   storage.SubmissionStore
	runAggregateStore storage.RunAggregateStore
}

func main() {
	// Load .env file if exists
	loadEnvFile()

	// Parse flags (env vars as defaults)
	addr := flag.String("addr", envOr("LISTEN_ADDR", ":8080"), "HTTP listen address")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL/ClickHouse")
	assignmentVersion := flag.String("assignment-version", envOr("ASSIGNMENT_VERSION", "v1"), "Assignment version tag stored with submissions")
	workers := flag.Int("workers", runtime.NumCPU(), "Concurrent trial workers per simulation")

	flag.Parse()

	// Setup logger
	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lshortfile)

	if !*useMemory && (*postgresDSN == "" || *clickhouseDSN == "") {
		logger.Fatal("--postgres-dsn and --clickhouse-dsn are required (use --use-memory for in-memory storage)")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stores, cleanup, err := createStores(ctx, *postgresDSN, *clickhouseDSN, *useMemory)
	if err != nil {
		logger.Fatalf("Failed to create stores: %v", err)
	}
	defer cleanup()

	server := &Server{
		assignmentVersion: *assignmentVersion,
		runner: sim.NewRunner(sim.Options{
			Workers: *workers,
			Logger:  log.New(os.Stdout, "[sim] ", log.LstdFlags),
		}),
		workers: *workers,
		stores:  stores,
		logger:  logger,
		started: time.Now(),
	}

	httpServer := &http.Server{
		Addr:    *addr,
		Handler: server.routes(),
	}

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, initiating graceful shutdown...", sig)

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Printf("Shutdown error: %v", err)
		}
		cancel()
	}()

	logger.Printf("Serving assignment %s on %s (workers=%d)", *assignmentVersion, *addr, *workers)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatalf("HTTP server error: %v", err)
	}

	logger.Println("Shutdown complete")
}

// createStores creates all required stores, applying migrations for the
// database-backed pair.
func createStores(ctx context.Context, postgresDSN, clickhouseDSN string, useMemory bool) (*allStores, func(), error) {
	if useMemory {
		stores := &allStores{
			submissionStore:   memory.NewSubmissionStore(),
			runAggregateStore: memory.NewRunAggregateStore(),
		}
		return stores, func() {}, nil
	}

	// PostgreSQL (submissions)
	pool, err := pgstore.NewPool(ctx, postgresDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("migrate postgres: %w", err)
	}

	// ClickHouse (run analytics)
	chConn, err := migrations.RunClickhouseMigrations(ctx, clickhouseDSN)
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("migrate clickhouse: %w", err)
	}

	stores := &allStores{
		submissionStore:   pgstore.NewSubmissionStore(pool),
		runAggregateStore: chstore.NewRunAggregateStore(chConn),
	}

	cleanup := func() {
		chConn.Close()
		pool.Close()
	}

	return stores, cleanup, nil
}

// routes builds the HTTP mux.
func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("GET /api/config", s.handleConfig)
	mux.HandleFunc("GET /api/template", s.handleTemplate)
	mux.HandleFunc("POST /api/validate", s.handleValidate)
	mux.HandleFunc("POST /api/simulate", s.handleSimulate)
	mux.HandleFunc("POST /api/submit", s.handleSubmit)
	mux.HandleFunc("GET /api/submissions", s.handleListSubmissions)
	mux.HandleFunc("GET /api/submissions/{id}", s.handleGetSubmission)
	mux.HandleFunc("GET /ws/simulate", s.handleSimulateWS)

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("GET /metrics", observability.Handler())
	mux.HandleFunc("GET /status", s.handleStatus)

	return mux
}

// envOr returns the environment value or a fallback.
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// loadEnvFile loads environment variables from .env file if it exists.
func loadEnvFile() {
	data, err := os.ReadFile(".env")
	if err != nil {
		return // File doesn't exist, use system env vars
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		// Don't override existing env vars
		if os.Getenv(key) == "" {
			os.Setenv(key, value)
		}
	}
}

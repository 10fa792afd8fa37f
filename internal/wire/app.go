package wire

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"

	pgdb "github.com/brightdoor/leadrouter/internal/adapter/postgres"
	pgassign "github.com/brightdoor/leadrouter/internal/adapter/postgres/assignment"
	pgdirectory "github.com/brightdoor/leadrouter/internal/adapter/postgres/directory"
	pgeventbus "github.com/brightdoor/leadrouter/internal/adapter/postgres/eventbus"
	pgidem "github.com/brightdoor/leadrouter/internal/adapter/postgres/idempotency"
	pglocker "github.com/brightdoor/leadrouter/internal/adapter/postgres/locker"

	allocsvc "github.com/brightdoor/leadrouter/internal/service/allocator"
	metricssvc "github.com/brightdoor/leadrouter/internal/service/metrics"

	"github.com/brightdoor/leadrouter/internal/transport"
	mcptransport "github.com/brightdoor/leadrouter/internal/transport/mcp"
)

// App holds the top-level resources needed to run and gracefully stop the server.
type App struct {
	Pool      *pgxpool.Pool
	Server    *http.Server
	Allocator *allocsvc.Service
	Metrics   *metricssvc.Service
}

// Build is the composition root: the only place concrete types are wired to
// their interface dependencies.
func Build(ctx context.Context) (*App, error) {
	// ── Database ─────────────────────────────────────────────────────────────
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL not set")
	}
	pool, err := pgdb.Connect(ctx, dbURL)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	// ── Adapters ─────────────────────────────────────────────────────────────
	assignRepo := pgassign.New(pool)
	directory := pgdirectory.New(pool)
	locker := pglocker.New(pool)
	idemStore := pgidem.New(pool)
	eventBus := pgeventbus.New(pool)

	// ── Services ─────────────────────────────────────────────────────────────
	allocSvc := allocsvc.NewService(directory, assignRepo, locker, eventBus)
	metricsSvc := metricssvc.NewService(assignRepo, directory)

	mcpServer := mcptransport.New(allocSvc, metricsSvc)

	// ── Transport ────────────────────────────────────────────────────────────
	router := transport.NewRouter(
		ctx,
		allocSvc,
		metricsSvc,
		directory,
		idemStore,
		mcpServer,
		eventBus,
	)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	server := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	slog.Info("application wired", "port", port)

	return &App{
		Pool:      pool,
		Server:    server,
		Allocator: allocSvc,
		Metrics:   metricsSvc,
	}, nil
}

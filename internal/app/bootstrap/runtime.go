package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/findinggems/settlement-service/internal/adapters/cache"
	"github.com/findinggems/settlement-service/internal/adapters/events"
	grpcadapter "github.com/findinggems/settlement-service/internal/adapters/grpc"
	httpadapter "github.com/findinggems/settlement-service/internal/adapters/http"
	"github.com/findinggems/settlement-service/internal/adapters/postgres"
	"github.com/findinggems/settlement-service/internal/adapters/security"
	"github.com/findinggems/settlement-service/internal/application"
	"github.com/findinggems/settlement-service/internal/ports"
)

// Runtime owns process-level lifecycle: composition, serving, and shutdown.
type Runtime struct {
	cfg         Config
	logger      *slog.Logger
	httpServer  *http.Server
	grpcServer  *grpc.Server
	grpcLis     net.Listener
	outbox      *events.OutboxWorker
	maintenance *events.MaintenanceWorker
	cleanupFn   func()
}

// NewRuntime builds all adapters and the application service for one process.
// Keeping composition in one place makes dependency order explicit and testable.
func NewRuntime(ctx context.Context, configPath string) (*Runtime, error) {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	logger = logger.With("service", cfg.ServiceID)
	slog.SetDefault(logger)

	db, err := postgres.Connect(ctx, cfg.DatabaseURL, cfg.MaxDBConns)
	if err != nil {
		return nil, err
	}
	if err := postgres.RunMigrations(ctx, db); err != nil {
		return nil, err
	}

	redisClient, err := cache.Connect(ctx, cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	if err := redisClient.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	repos := postgres.NewRepositories(db)

	verifier, err := security.NewJWTVerifier(cfg.JWTSecret)
	if err != nil {
		return nil, fmt.Errorf("init token verifier: %w", err)
	}
	encryption := security.NewAESGCMEncryption(cfg.EncryptionSeed)

	service := application.NewService(application.Dependencies{
		Config: application.Config{
			PlatformFee:     cfg.PlatformFee,
			MinimumPayout:   cfg.MinimumPayout,
			OrderExpiry:     cfg.OrderExpiry,
			HoldingWindow:   cfg.HoldingWindow,
			InstructionTTL:  cfg.InstructionTTL,
			BalanceCacheTTL: cfg.BalanceCacheTTL,
			IdempotencyTTL:  cfg.IdempotencyTTL,
			MaturationBatch: cfg.MaturationBatch,
		},
		Orders:       repos.Orders,
		Balances:     repos.Balances,
		Refunds:      repos.Refunds,
		Payouts:      repos.Payouts,
		BankAccounts: repos.BankAccounts,
		Applications: repos.Applications,
		Websites:     repos.Websites,
		Reports:      repos.Reports,
		Idempotency:  repos.Idempotency,
		BalanceCache: cache.NewRedisBalanceCache(redisClient),
		Instructions: cache.NewRedisInstructionStore(redisClient),
		Encryption:   encryption,
	})

	handler := httpadapter.NewHandler(service, verifier, cfg.WebhookSecret)
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           httpadapter.NewRouter(handler),
		ReadHeaderTimeout: 5 * time.Second,
	}

	grpcServer := grpc.NewServer()
	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus(cfg.ServiceID, healthpb.HealthCheckResponse_SERVING)
	grpcadapter.Register(grpcServer, grpcadapter.NewSettlementInternalServer(service))

	grpcLis, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.GRPCPort))
	if err != nil {
		return nil, fmt.Errorf("listen grpc: %w", err)
	}

	var publisher ports.EventPublisher
	cleanup := func() {}
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPublisher, err := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, nil)
		if err != nil {
			return nil, fmt.Errorf("init kafka publisher: %w", err)
		}
		publisher = kafkaPublisher
		cleanup = func() { _ = kafkaPublisher.Close() }
	} else {
		publisher = events.NewLoggingPublisher(logger)
	}

	return &Runtime{
		cfg:         cfg,
		logger:      logger,
		httpServer:  httpServer,
		grpcServer:  grpcServer,
		grpcLis:     grpcLis,
		outbox:      events.NewOutboxWorker(logger, repos.Outbox, publisher, cfg.OutboxPollInterval, cfg.OutboxBatchSize),
		maintenance: events.NewMaintenanceWorker(logger, service, cfg.MaintenanceInterval),
		cleanupFn:   cleanup,
	}, nil
}

// RunAPI serves HTTP and gRPC until a signal or listener failure, then drains.
func (r *Runtime) RunAPI(ctx context.Context) error {
	defer r.cleanupFn()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 2)
	go func() {
		r.logger.InfoContext(ctx, "http server started",
			"module", "bootstrap",
			"layer", "app",
			"operation", "run_api",
			"outcome", "start",
			"addr", r.httpServer.Addr,
		)
		if err := r.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()
	go func() {
		r.logger.InfoContext(ctx, "grpc server started",
			"module", "bootstrap",
			"layer", "app",
			"operation", "run_api",
			"outcome", "start",
			"addr", r.grpcLis.Addr().String(),
		)
		if err := r.grpcServer.Serve(r.grpcLis); err != nil {
			errCh <- fmt.Errorf("grpc server: %w", err)
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := r.httpServer.Shutdown(shutdownCtx); err != nil && runErr == nil {
		runErr = fmt.Errorf("http shutdown: %w", err)
	}
	r.grpcServer.GracefulStop()

	r.logger.InfoContext(context.Background(), "api stopped",
		"module", "bootstrap",
		"layer", "app",
		"operation", "run_api",
		"outcome", "shutdown",
	)
	return runErr
}

// RunWorker runs the outbox drain and scheduled maintenance sweeps until a
// signal arrives. Deployed separately from the API so publishing latency is
// not tied to request load.
func (r *Runtime) RunWorker(ctx context.Context) error {
	defer r.cleanupFn()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 2)
	go func() { errCh <- r.outbox.Run(ctx) }()
	go func() { errCh <- r.maintenance.Run(ctx) }()

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errCh:
	}

	r.logger.InfoContext(context.Background(), "worker stopped",
		"module", "bootstrap",
		"layer", "app",
		"operation", "run_worker",
		"outcome", "shutdown",
	)
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}
	return nil
}

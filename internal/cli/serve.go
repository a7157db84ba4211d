package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"fieldops/api-gateway/config"
	"fieldops/api-gateway/handlers"
	"fieldops/api-gateway/internal/db"
	"fieldops/api-gateway/internal/health"
	"fieldops/api-gateway/internal/lifecycle"
	"fieldops/api-gateway/internal/metrics"
	"fieldops/api-gateway/internal/notify"
	"fieldops/api-gateway/internal/realtime"
	"fieldops/api-gateway/internal/session"
	"fieldops/api-gateway/internal/signature"
	"fieldops/api-gateway/internal/worker"
)

// server holds every long-lived component started by serve.
type server struct {
	cfg    *config.Config
	logger *logrus.Logger

	app             *fiber.App
	health          *health.Server
	pool            *worker.Dispatcher
	redis           *redis.Client
	shutdownTracing func(context.Context) error
}

func runServe(ctx context.Context, configFile string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}
	logger := config.NewLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv, err := newServer(ctx, cfg, logger)
	if err != nil {
		return err
	}
	return srv.run(ctx)
}

func newServer(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (*server, error) {
	sigs, err := signature.NewValidator(cfg.SignatureStorageURL, cfg.SignatureBucket)
	if err != nil {
		return nil, fmt.Errorf("invalid signature storage url: %w", err)
	}

	shutdownTracing, err := config.InitTracing(ctx, cfg, Version, logger)
	if err != nil {
		return nil, err
	}

	supaClient, err := config.NewSupabaseClient(cfg, logger)
	if err != nil {
		return nil, err
	}
	store := db.NewStore(supaClient, logger)

	redisOpts := realtime.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB}
	rdb, err := realtime.Connect(ctx, redisOpts)
	if err != nil {
		// Broadcasts are best effort; keep a lazy client that reconnects on its own.
		logger.WithError(err).Warn("Redis unreachable at startup, realtime broadcasts will fail until it recovers")
		rdb = realtime.NewClient(redisOpts)
	}

	collector := metrics.NewCollector()

	pool := worker.NewDispatcher(cfg.NotifyWorkers, cfg.NotifyQueueSize, logger)
	pool.Run()
	notifier := notify.NewDispatcher(store, realtime.NewBroadcaster(rdb, logger), pool, collector, logger)

	service := lifecycle.NewService(lifecycle.Deps{
		Jobs:       store,
		Engineers:  store,
		Payments:   store,
		History:    store,
		Notifier:   notifier,
		Signatures: sigs,
		Recorder:   collector,
		Logger:     logger,
	})

	healthSrv := health.NewServer(map[string]health.Check{
		"postgrest": store.Ping,
		"redis":     func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
	}, logger)

	h := handlers.NewApplicationHandler(service, healthSrv, logger)
	app := handlers.NewApp(h, handlers.AppOptions{
		Sessions:         session.NewJWTProvider(cfg.SupabaseJWTSecret, cfg.JWTAudience),
		Recorder:         collector,
		Metrics:          collector.Handler(),
		CORSAllowOrigins: cfg.CORSAllowOrigins,
	})

	return &server{
		cfg:             cfg,
		logger:          logger,
		app:             app,
		health:          healthSrv,
		pool:            pool,
		redis:           rdb,
		shutdownTracing: shutdownTracing,
	}, nil
}

// run serves until ctx is cancelled or a listener fails, then shuts down.
func (s *server) run(ctx context.Context) error {
	lis, err := net.Listen("tcp", ":"+s.cfg.GRPCHealthPort)
	if err != nil {
		s.shutdown()
		return fmt.Errorf("failed to listen for grpc health: %w", err)
	}

	watchCtx, cancelWatch := context.WithCancel(ctx)
	defer cancelWatch()
	go s.health.Watch(watchCtx, s.cfg.HealthCheckInterval)

	errCh := make(chan error, 2)
	go func() { errCh <- s.health.Serve(lis) }()
	go func() {
		s.logger.WithField("port", s.cfg.Port).Info("Starting API Gateway")
		errCh <- s.app.Listen(":" + s.cfg.Port)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		s.logger.Info("Shutting down API Gateway...")
	case err := <-errCh:
		if err != nil {
			runErr = fmt.Errorf("server stopped: %w", err)
		}
	}

	cancelWatch()
	s.shutdown()
	return runErr
}

// shutdown stops accepting requests, drains queued notifications and closes
// the clients, within the configured timeout.
func (s *server) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	if err := s.app.ShutdownWithContext(ctx); err != nil {
		s.logger.WithError(err).Warn("HTTP server did not shut down cleanly")
	}
	if err := s.pool.Stop(ctx); err != nil {
		s.logger.WithError(err).Warn("Notification workers did not drain before the deadline")
	}
	s.health.Stop()
	if err := s.redis.Close(); err != nil && !errors.Is(err, redis.ErrClosed) {
		s.logger.WithError(err).Warn("Failed to close redis client")
	}
	if err := s.shutdownTracing(ctx); err != nil {
		s.logger.WithError(err).Warn("Failed to flush traces")
	}
	s.logger.Info("API Gateway shut down gracefully.")
}

package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"communities/messages/pkg/config"
	"communities/messages/pkg/di"
	"communities/messages/pkg/health"
	"communities/messages/pkg/logger"
	"communities/messages/pkg/router"
	"communities/messages/pkg/secrets"
	"communities/messages/shared/observability"

	"google.golang.org/grpc"
)

func main() {
	// Load and validate configuration; .env is read by config.New
	cfg, err := config.Load()
	if err != nil {
		logger.GetGlobal().LogError(err, "Invalid configuration")
		os.Exit(1)
	}

	// Initialize structured logger
	logConfig := logger.DefaultConfig()
	logConfig.Level = cfg.Logging.Level
	logConfig.JSON = cfg.Logging.Format != "text"
	logConfig.Service = config.ServiceName

	log := logger.New(logConfig)
	logger.SetGlobal(log)

	log.Info("Starting application", "environment", cfg.Environment, "version", os.Getenv("APP_VERSION"))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.LogError(err, "Server stopped with error")
		os.Exit(1)
	}

	log.Info("Server exited gracefully")
}

func run(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	secretManager, err := secrets.NewVaultManager(secrets.VaultConfig{
		Enabled:     cfg.Vault.Enabled,
		Address:     cfg.Vault.Addr,
		Token:       cfg.Vault.Token,
		Namespace:   cfg.Vault.Namespace,
		SecretsPath: cfg.Vault.SecretsPath,
	}, log)
	if err != nil {
		return err
	}
	if err := cfg.ResolveSecrets(ctx, secretManager); err != nil {
		return err
	}

	shutdownTracing, err := observability.SetupTracing(config.ServiceName, cfg.Features.Tracing, os.Stdout)
	if err != nil {
		return err
	}
	shutdownMetrics, err := observability.SetupMetrics(config.ServiceName, cfg.Features.Metrics)
	if err != nil {
		return err
	}

	// Initialize dependency injection container
	container, err := di.New(ctx, cfg, log)
	if err != nil {
		return err
	}

	r := router.New(container)
	if err := r.SetupRoutes(); err != nil {
		return err
	}
	r.SetupHealthRoutes()

	go container.RateLimiter.Run(ctx)

	apiServer := &http.Server{
		Addr:         ":" + cfg.Server.APIPort,
		Handler:      r.Engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	healthServer := &http.Server{
		Addr:         ":" + cfg.Server.HealthPort,
		Handler:      r.HealthEngine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Bind every listener before serving so a taken port aborts startup
	apiListener, err := net.Listen("tcp", apiServer.Addr)
	if err != nil {
		return err
	}
	healthListener, err := net.Listen("tcp", healthServer.Addr)
	if err != nil {
		_ = apiListener.Close()
		return err
	}

	var grpcServer *grpc.Server
	var grpcListener net.Listener
	if cfg.Server.GRPCHealthPort != "" {
		grpcListener, err = net.Listen("tcp", ":"+cfg.Server.GRPCHealthPort)
		if err != nil {
			_ = apiListener.Close()
			_ = healthListener.Close()
			return err
		}
		grpcServer = grpc.NewServer()
		health.NewGRPCServer(config.ServiceName, container.HealthService, cfg.Database.Timeout, log).Register(grpcServer)
	}

	errCh := make(chan error, 3)
	serve := func(name string, fn func() error) {
		log.Info("Listener starting", "listener", name)
		if err := fn(); err != nil && !errors.Is(err, http.ErrServerClosed) && !errors.Is(err, grpc.ErrServerStopped) {
			errCh <- err
		}
	}

	go serve("api:"+cfg.Server.APIPort, func() error { return apiServer.Serve(apiListener) })
	go serve("health:"+cfg.Server.HealthPort, func() error { return healthServer.Serve(healthListener) })
	if grpcServer != nil {
		go serve("grpc-health:"+cfg.Server.GRPCHealthPort, func() error { return grpcServer.Serve(grpcListener) })
	}

	var serveErr error
	select {
	case <-ctx.Done():
		log.Info("Shutting down server...")
	case serveErr = <-errCh:
		log.LogError(serveErr, "Listener failed")
	}

	// Create a deadline to wait for
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		log.LogError(err, "API server forced to shutdown")
	}
	if err := healthServer.Shutdown(shutdownCtx); err != nil {
		log.LogError(err, "Health server forced to shutdown")
	}
	if grpcServer != nil {
		grpcServer.GracefulStop()
	}
	if err := container.Close(shutdownCtx); err != nil {
		log.LogError(err, "Failed to close connections")
	}
	if err := shutdownMetrics(shutdownCtx); err != nil {
		log.LogError(err, "Failed to flush metrics")
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.LogError(err, "Failed to flush traces")
	}

	return serveErr
}

package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"nodegate/internal/core/services"
	httphandlers "nodegate/internal/handlers/http"
	"nodegate/internal/infrastructure/monitoring"
	"nodegate/internal/infrastructure/proxy"
	"nodegate/internal/infrastructure/repositories"
	"nodegate/internal/infrastructure/ws"
	"nodegate/pkg/config"
	"nodegate/pkg/logger"
	"nodegate/pkg/tracing"

	"github.com/gin-gonic/gin"
)

func main() {
	// Try multiple config paths
	configPaths := []string{
		"configs/config.yaml",
		"./configs/config.yaml",
		"/etc/nodegate/config.yaml",
		"config.yaml",
	}

	var cfg *config.Config
	var err error

	for _, path := range configPaths {
		cfg, err = config.Load(path)
		if err == nil {
			break
		}
	}
	if err != nil {
		// Fallback to defaults if config cannot be loaded
		cfg = config.DefaultConfig()
	}

	// Initialize logger
	zapLogger := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLogger.Sync()

	log := zapLogger.Sugar()

	// Initialize tracing
	tracerProvider, err := tracing.Init(tracing.Config{
		Enabled:     cfg.Tracing.Enabled,
		ServiceName: "nodegate",
		JaegerURL:   cfg.Tracing.JaegerURL,
		Environment: cfg.Tracing.Environment,
		SampleRate:  cfg.Tracing.SampleRate,
	})
	if err != nil {
		log.Fatalw("failed to initialize tracing", "error", err)
	}

	// Initialize repository factory
	repoFactory, err := repositories.NewRepositoryFactory(cfg, log)
	if err != nil {
		log.Fatalw("failed to create repository factory", "error", err)
	}
	defer repoFactory.Close()

	// Initialize repositories
	nodeRepo := repoFactory.CreateNodeRepository()
	userRepo := repoFactory.CreateUserRepository()
	assignRepo := repoFactory.CreateAssignmentRepository()
	securityJournal := repoFactory.CreateSecurityAuditRepository()
	eventJournal := repoFactory.CreateEventAuditRepository()
	commandJournal := repoFactory.CreateCommandAuditRepository()

	// Initialize services
	auditService := services.NewAuditService(securityJournal, eventJournal, commandJournal, log)
	tokenService := services.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	authService := services.NewAuthService(userRepo, tokenService, auditService)
	accessService := services.NewAccessService(nodeRepo, assignRepo, auditService, cfg.Upstream.EnforceEnabled)
	nodeService := services.NewNodeService(nodeRepo, assignRepo, auditService)
	userService := services.NewUserService(userRepo, assignRepo, auditService)

	// A fresh deployment gets the default admin account.
	bootCtx, bootCancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := authService.EnsureDefaultAdmin(bootCtx); err != nil {
		bootCancel()
		log.Fatalw("failed to ensure default admin", "error", err)
	}
	bootCancel()

	// Initialize monitoring
	var collector *monitoring.PrometheusCollector
	if cfg.Monitoring.PrometheusEnabled {
		collector = monitoring.NewPrometheusCollector()
	}

	forwarder := proxy.NewForwarder(
		cfg.Upstream.SharedSecret,
		cfg.Upstream.RequestTimeout,
		cfg.Upstream.ResponseHeaderTimeout,
		collector,
		log,
	)
	statusServer := ws.NewStatusServer(log)

	// Configure Gin
	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := httphandlers.NewRouter(httphandlers.Deps{
		Config:    cfg,
		Logger:    log,
		Tokens:    tokenService,
		Auth:      authService,
		Nodes:     nodeService,
		Users:     userService,
		Access:    accessService,
		Audit:     auditService,
		Forwarder: forwarder,
		Metrics:   collector,
		Status:    statusServer,
		Ready:     repoFactory.HealthCheck,
	})

	// No write timeout: live event bridges hold responses open for as
	// long as the client listens.
	srv := &http.Server{
		Addr:        cfg.Server.Address,
		Handler:     router,
		ReadTimeout: cfg.Server.ReadTimeout,
	}

	// Start server in goroutine
	serverErr := make(chan error, 1)
	go func() {
		log.Infof("Starting NodeGate server on %s", cfg.Server.Address)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	// Wait for shutdown signals or server error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		log.Fatalw("Server failed", "error", err)
	case sig := <-sigChan:
		log.Infow("Received shutdown signal", "signal", sig)
	}

	log.Info("Shutting down NodeGate server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	// Shutdown HTTP server gracefully
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorw("Error during server shutdown", "error", err)
		if closeErr := srv.Close(); closeErr != nil {
			log.Errorw("Error force closing server", "error", closeErr)
		}
	} else {
		log.Info("Server shutdown gracefully")
	}

	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		log.Errorw("Error shutting down tracer provider", "error", err)
	}

	if err := repoFactory.Close(); err != nil {
		log.Errorw("Error closing repository factory", "error", err)
	}

	log.Info("NodeGate server stopped")
}

package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os/signal"
	"sync"
	"syscall"

	"github.com/gin-gonic/gin"

	"siwf/internal/auth/farcaster"
	"siwf/internal/auth/nonce"
	"siwf/internal/config"
	"siwf/internal/handler"
	"siwf/internal/logging"
	"siwf/internal/platform/ratelimiter"
	"siwf/internal/port"
	"siwf/internal/profile/neynar"
	"siwf/internal/profile/noop"
	"siwf/internal/router"
	"siwf/internal/service"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger := logging.New(cfg.Log)
	slog.SetDefault(logger)
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize repositories
	repos, err := openRepositories(&cfg.DB)
	if err != nil {
		return err
	}
	defer repos.Close()

	// Initialize external capabilities
	verifier := farcaster.NewVerifier(cfg.QuickAuth)
	profiles := newProfileResolver(cfg.Profile)

	// Initialize services
	sessionSvc := service.NewSessionService(repos.sessions, cfg.Session)
	siwfSvc := service.NewSIWFService(
		service.NewNonceStore(repos.verifications, nonce.NewGenerator(), cfg.SIWF.NonceTTL, nil),
		verifier,
		service.NewIdentityResolver(repos.farcaster, repos.users, cfg.SIWF.IdentityEmailDomain),
		service.NewWalletLinker(profiles, repos.wallets),
		sessionSvc,
		repos.users,
		repos.wallets,
		cfg.SIWF,
	)
	sweeper := service.NewExpirySweeper(repos.verifications, repos.sessions, cfg.Sweeper.Interval)

	// Initialize handlers
	var pinger handler.Pinger
	if repos.db != nil {
		pinger = repos.db
	}
	r := router.Setup(router.Deps{
		Logger:         logger,
		SessionService: sessionSvc,
		CookieName:     cfg.Session.CookieName,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		TrustedProxies: cfg.Server.TrustedProxies,
		Limiter:        ratelimiter.New(cfg.RateLimit.RPS, cfg.RateLimit.Burst, cfg.RateLimit.IdleTTL),
		SIWF:           handler.NewSIWFHandler(siwfSvc, sessionSvc, cfg.Session),
		Health:         handler.NewHealthHandler(pinger),
	})

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	var wg sync.WaitGroup
	if cfg.Sweeper.Interval > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sweeper.Start(ctx)
		}()
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", cfg.Server.Port, "storage", cfg.DB.Driver, "domain", cfg.SIWF.Domain)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		stop()
		wg.Wait()
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	wg.Wait()
	logger.Info("shutdown complete")
	return nil
}

func newProfileResolver(cfg config.ProfileConfig) port.FarcasterProfileResolver {
	if cfg.Provider == "neynar" {
		return neynar.NewClient(cfg)
	}
	return noop.NewNoopResolver()
}

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"kycflow/internal/admin"
	"kycflow/internal/admin/adapters"
	"kycflow/internal/attempts"
	"kycflow/internal/audit"
	identityHandler "kycflow/internal/identity/handler"
	identityMetrics "kycflow/internal/identity/metrics"
	identityModels "kycflow/internal/identity/models"
	identityService "kycflow/internal/identity/service"
	jwttoken "kycflow/internal/jwt_token"
	kycHandler "kycflow/internal/kyc/handler"
	kycMetrics "kycflow/internal/kyc/metrics"
	kycService "kycflow/internal/kyc/service"
	"kycflow/internal/platform/config"
	"kycflow/internal/platform/httpserver"
	"kycflow/internal/platform/logger"
	platformmetrics "kycflow/internal/platform/metrics"
	ratelimitMetrics "kycflow/internal/ratelimit/metrics"
	ratelimit "kycflow/internal/ratelimit/middleware"
	ratelimitModels "kycflow/internal/ratelimit/models"
	httptransport "kycflow/internal/transport/http"
	"kycflow/internal/verification"
	dErrors "kycflow/pkg/domain-errors"
)

const shutdownTimeout = 10 * time.Second

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogFormat, cfg.Environment)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Server, log *slog.Logger) error {
	b, err := openBackends(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer b.close()

	publisher := audit.NewPublisher(b.sink,
		audit.WithLogger(log),
		audit.WithMetrics(audit.NewMetrics(prometheus.DefaultRegisterer)),
	)

	jwtService := jwttoken.NewJWTService(cfg.JWTSigningKey, "kycflow", "kycflow-api")
	validator := jwttoken.NewJWTServiceAdapter(jwtService)

	identitySvc := identityService.New(b.users, b.apps, jwtService, b.trl,
		identityService.WithLogger(log),
		identityService.WithMetrics(identityMetrics.New()),
		identityService.WithAuditor(publisher),
		identityService.WithTx(b.tx),
		identityService.WithTokenTTL(cfg.TokenTTL),
	)
	if cfg.Admin.Enabled() {
		if _, err := identitySvc.CreateAdmin(ctx, cfg.Admin.Email, cfg.Admin.Mobile, cfg.Admin.Password); err != nil {
			if !dErrors.HasCode(err, dErrors.CodeConflict) {
				return fmt.Errorf("seed admin: %w", err)
			}
			log.InfoContext(ctx, "admin account already present", "email", cfg.Admin.Email)
		}
	}

	kycSvc := kycService.New(b.apps, b.docs, attempts.NewLedger(b.attempts), b.blobs, verification.NewRandomScorer(),
		kycService.WithLogger(log),
		kycService.WithMetrics(kycMetrics.New()),
		kycService.WithAuditor(publisher),
		kycService.WithTx(b.tx),
		kycService.WithMaxAttempts(cfg.Workflow.MaxAttempts),
		kycService.WithPhotoMatchThreshold(cfg.Workflow.PhotoMatchThreshold),
	)
	adminSvc := admin.NewService(kycSvc, adapters.NewUserStoreAdapter(b.users), log)

	limiter := ratelimit.New(b.buckets, log,
		ratelimit.WithPolicy(ratelimitModels.ClassAuth, ratelimitModels.Policy{
			Limit:  cfg.RateLimit.AuthRequests,
			Window: cfg.RateLimit.AuthWindow,
		}),
		ratelimit.WithMetrics(ratelimitMetrics.New()),
	)

	adminRole := identityModels.RoleAdmin.String()
	router := httptransport.NewRouter(httptransport.Config{
		Logger:   log,
		Metrics:  platformmetrics.New(),
		Gatherer: prometheus.DefaultGatherer,
		Health:   b.health,
		Handlers: []httptransport.RouteRegistrar{
			identityHandler.New(identitySvc, log, validator, identitySvc,
				identityHandler.WithThrottle(limiter.RateLimit(ratelimitModels.ClassAuth)),
			),
			kycHandler.New(kycSvc, b.blobs, log, validator, identitySvc,
				kycHandler.WithMaxUploadBytes(cfg.Workflow.MaxUploadBytes),
				kycHandler.WithAdminRole(adminRole),
			),
			admin.NewHandler(adminSvc, log, validator, identitySvc, adminRole),
		},
	})
	srv := httpserver.New(cfg.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return publisher.Run(context.WithoutCancel(gctx))
	})
	g.Go(func() error {
		log.InfoContext(gctx, "starting kycflow", "addr", cfg.Addr, "environment", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), shutdownTimeout)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		_ = publisher.Close()
		return err
	})
	return g.Wait()
}

// README: API entrypoint: wires config, infra, module services, and HTTP.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"fixnow/internal/config"
	fixhttp "fixnow/internal/http"
	"fixnow/internal/infra"
	"fixnow/internal/maps"
	"fixnow/internal/modules/booking"
	"fixnow/internal/modules/catalog"
	"fixnow/internal/modules/matching"
	"fixnow/internal/modules/notify"
	"fixnow/internal/modules/payment"
	"fixnow/internal/modules/pricing"
	"fixnow/internal/modules/technician"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	logger, err := infra.NewLogger(cfg.IsProduction())
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := infra.NewDB(ctx, cfg.DB.DSN)
	if err != nil {
		logger.Fatal("connect postgres", zap.Error(err))
	}
	defer pool.Close()

	redisClient := infra.NewRedis(cfg.Redis.Addr, cfg.Redis.Password)
	defer func() { _ = redisClient.Close() }()

	// Firebase is optional in development: without it auth degrades to the
	// insecure verifier and pushes go to the log.
	var verifier infra.TokenVerifier = infra.InsecureVerifier{}
	var notifier booking.Notifier = notify.NewLogNotifier(logger)
	tokens := notify.NewMemoryTokenStore()
	if cfg.Firebase.ProjectID != "" {
		fb, err := infra.NewFirebase(ctx, cfg.Firebase.ProjectID, cfg.Firebase.CredentialsFile)
		if err != nil {
			logger.Fatal("init firebase", zap.Error(err))
		}
		verifier = fb
		notifier = notify.NewFCMNotifier(fb.MessagingClient, tokens, logger)
	} else {
		logger.Warn("firebase not configured, using insecure dev auth")
	}

	catalogStore := catalog.NewPostgresStore(pool)
	technicianStore := technician.NewPostgresStore(pool)
	bookingStore := booking.NewPostgresStore(pool)
	paymentStore := payment.NewPostgresStore(pool)
	redisStore := matching.NewRedisStore(redisClient, cfg.Matching.CacheTTL)

	pricingEngine := pricing.NewEngine()
	technicianService := technician.NewService(technicianStore, redisStore)
	matchingService := matching.NewService(
		technicianStore, catalogStore, redisStore, redisStore,
		pricingEngine, cfg.Matching, logger,
	)

	bookingService := booking.NewService(bookingStore, catalogStore, pricingEngine, logger).
		WithRanker(matchingService).
		WithNotifier(notifier).
		WithTechnicianStats(technicianService)
	if cfg.Maps.APIKey != "" {
		geocoder, err := maps.NewGeocoder(cfg.Maps.APIKey)
		if err != nil {
			logger.Fatal("init maps client", zap.Error(err))
		}
		bookingService.WithGeocoder(geocoder)
	}

	var gateway payment.Gateway = payment.NopGateway{}
	if cfg.Stripe.Key != "" {
		gateway = payment.NewStripeGateway(cfg.Stripe.Key)
	} else {
		logger.Warn("stripe not configured, payments run against the nop gateway")
	}
	paymentService := payment.NewService(paymentStore, gateway, bookingService, logger)
	bookingService.WithEscrow(paymentService)

	go bookingService.RunExpirySweep(ctx, cfg.Sweep.Interval)

	router := fixhttp.NewRouter(fixhttp.RouterDeps{
		Bookings:    bookingService,
		Matching:    matchingService,
		Payments:    paymentService,
		Technicians: technicianService,
		Catalog:     catalogStore,
		Tokens:      tokens,
		Verifier:    verifier,
		Logger:      logger,
	})

	srv := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	go func() {
		logger.Info("listening", zap.String("addr", cfg.HTTP.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("http server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("shutdown", zap.Error(err))
	}
}

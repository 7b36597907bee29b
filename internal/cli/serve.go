package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/quickcourt/quickcourt-api/internal/config"
	"github.com/quickcourt/quickcourt-api/internal/database"
	"github.com/quickcourt/quickcourt-api/internal/handler"
	"github.com/quickcourt/quickcourt-api/internal/middleware"
	"github.com/quickcourt/quickcourt-api/internal/notify"
	"github.com/quickcourt/quickcourt-api/internal/payment"
	"github.com/quickcourt/quickcourt-api/internal/reports"
	"github.com/quickcourt/quickcourt-api/internal/repository"
	"github.com/quickcourt/quickcourt-api/internal/router"
	"github.com/quickcourt/quickcourt-api/internal/service"
	"github.com/quickcourt/quickcourt-api/internal/telemetry"
	"github.com/quickcourt/quickcourt-api/internal/utils"
)

func newServeCmd() *cobra.Command {
	var migrate bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := bootstrap()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()
			return serve(cmd.Context(), cfg, log, migrate)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", false, "apply pending migrations before serving")
	return cmd
}

// serve wires every collaborator and blocks until ctx is cancelled or the
// listener fails.
func serve(ctx context.Context, cfg config.Config, log *zap.Logger, migrate bool) error {
	if err := telemetry.Init(ctx, telemetry.Config{
		Enabled:        cfg.Otel.Enabled,
		ServiceName:    cfg.Otel.ServiceName,
		ServiceVersion: version,
		Environment:    cfg.Env,
		CollectorAddr:  cfg.Otel.Endpoint,
		SampleRatio:    cfg.Otel.SampleRatio,
	}); err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := telemetry.Shutdown(sctx); err != nil {
			log.Warn("tracer shutdown", zap.Error(err))
		}
	}()

	db, err := database.Open(ctx, cfg.DSN(), cfg.Pool)
	if err != nil {
		return err
	}
	defer db.Close()
	if migrate {
		applied, err := database.Migrate(ctx, db)
		if err != nil {
			return err
		}
		log.Info("migrations applied", zap.Int("count", len(applied)))
	}

	rdb := openRedis(ctx, cfg, log)
	if rdb != nil {
		defer rdb.Close()
	}

	pub := openPublisher(cfg, log)
	defer pub.Close()
	dispatcher := notify.NewDispatcher(pub, log.Named("notify"), cfg.Rabbit.QueueSize)

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	venues := repository.NewVenueRepo(db)
	courts := repository.NewCourtRepo(db)
	bookings := repository.NewBookingRepo(db)
	reportStore := repository.NewReportRepo(db)

	payments := payment.NewSimulator(payment.SimulatorConfig{
		SuccessRate: cfg.Payment.SuccessRate,
		MinDelay:    cfg.Payment.MinDelay,
		MaxDelay:    cfg.Payment.MaxDelay,
	}, nil)
	svc := service.NewBookingService(courts, bookings, payments, dispatcher, log.Named("booking"), service.Options{
		PaymentTimeout: cfg.Payment.Timeout,
		CancelLeadTime: cfg.CancelLeadTime,
		PendingTTL:     cfg.PendingTTL,
		Location:       cfg.Location,
	})
	rep := reports.New(cfg.ReportsEnabled, reportStore)
	issuer := utils.NewTokenIssuer(cfg.JWTSecret, cfg.AccessTTLMin, cfg.RefreshTTLDays)
	hlog := log.Named("http")

	e := router.New(hlog, router.Handlers{
		Health:   &handler.HealthHandler{DB: db},
		Auth:     handler.NewAuthHandler(users, tokens, issuer, cfg.BcryptCost, hlog),
		Public:   handler.NewPublicHandler(venues, courts, svc, hlog),
		Bookings: handler.NewBookingHandler(svc, bookings, hlog),
		Reports:  handler.NewReportHandler(rep, hlog),
		Owner:    handler.NewOwnerHandler(venues, courts, bookings, svc, hlog),
		Admin:    handler.NewAdminHandler(venues, users, tokens, bookings, rep, svc, hlog),
	}, router.Options{
		JWTSecret: cfg.JWTSecret,
		Limit:     middleware.NewTokenBucket(cfg.RateLimit, rdb, hlog),
		Cache:     middleware.NewRedisCache(cfg.Cache, rdb, hlog),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           e,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// The dispatcher outlives the listener so events from in-flight
	// requests are still flushed after Shutdown returns.
	dispatchCtx, stopDispatch := context.WithCancel(context.Background())
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return dispatcher.Run(dispatchCtx) })
	g.Go(func() error { return svc.RunSweeper(gctx, cfg.SweepInterval) })
	g.Go(func() error {
		log.Info("listening", zap.String("addr", srv.Addr), zap.String("env", cfg.Env), zap.String("version", version))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down", zap.Duration("grace", cfg.ShutdownGrace))
		sctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownGrace)
		defer cancel()
		err := srv.Shutdown(sctx)
		stopDispatch()
		return err
	})
	return g.Wait()
}

// openRedis connects only when a Redis-backed feature is on.  A failed
// ping disables those features instead of aborting start-up.
func openRedis(ctx context.Context, cfg config.Config, log *zap.Logger) *redis.Client {
	if !cfg.RateLimit.Enabled && !cfg.Cache.Enabled {
		return nil
	}
	rdb, err := config.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		log.Warn("redis unavailable; rate limiting and caching disabled",
			zap.String("addr", cfg.Redis.Address()), zap.Error(err))
		return nil
	}
	return rdb
}

// openPublisher falls back to NopPublisher when messaging is off or the
// broker cannot be reached; bookings never depend on it.
func openPublisher(cfg config.Config, log *zap.Logger) notify.Publisher {
	if !cfg.Rabbit.Enabled {
		return notify.NopPublisher{}
	}
	pub, err := notify.NewRabbitPublisher(cfg.Rabbit.URL)
	if err != nil {
		log.Warn("rabbitmq unavailable; notifications disabled", zap.Error(err))
		return notify.NopPublisher{}
	}
	return pub
}

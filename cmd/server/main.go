package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/iliyamo/activity-booking/internal/config"
	"github.com/iliyamo/activity-booking/internal/database"
	"github.com/iliyamo/activity-booking/internal/handler"
	"github.com/iliyamo/activity-booking/internal/logger"
	"github.com/iliyamo/activity-booking/internal/metrics"
	"github.com/iliyamo/activity-booking/internal/middleware"
	"github.com/iliyamo/activity-booking/internal/queue"
	"github.com/iliyamo/activity-booking/internal/repository"
	"github.com/iliyamo/activity-booking/internal/router"
	"github.com/iliyamo/activity-booking/internal/service"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.Env, cfg.LogLevel)

	dsn := database.DSN(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if cfg.MigrateOnStart {
		if err := database.RunMigrations(dsn); err != nil {
			log.Fatal().Err(err).Msg("migrations failed")
		}
	}
	db, err := database.Open(dsn)
	if err != nil {
		log.Fatal().Err(err).Msg("database unreachable")
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Warn().Msg("redis unavailable; rate limiting and response cache disabled")
	} else {
		defer rdb.Close()
	}
	cache := middleware.NewResponseCache(config.LoadCacheConfig(), rdb)

	var events queue.Publisher = queue.NopPublisher{}
	if cfg.AMQPURL != "" {
		pub := queue.NewAMQPPublisher(cfg.AMQPURL, log)
		defer pub.Close()
		events = pub
		consumer := &queue.Consumer{URL: cfg.AMQPURL, LogPath: cfg.EventLogPath, Log: log}
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error().Err(err).Msg("event consumer stopped")
			}
		}()
	} else {
		log.Warn().Msg("AMQP_URL not set; reservation events are dropped")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	rec := metrics.NewCollector(reg)

	users := repository.NewUserRepo(db)
	activities := repository.NewActivityRepo(db)
	timeslots := repository.NewTimeslotRepo(db)
	reservations := repository.NewReservationRepo(db)
	memberships := repository.NewMembershipRepo(db)
	apiKeys := repository.NewAPIKeyRepo(db)

	pricer := service.Pricer{Memberships: memberships}
	activitySvc := &service.ActivityService{Activities: activities, Pricer: pricer}
	timeslotSvc := &service.TimeslotService{Timeslots: timeslots, Activities: activities, Cache: cache}
	bookingSvc := &service.BookingService{
		Reservations: reservations,
		Payments:     repository.NewPaymentRepo(db),
		Timeslots:    timeslots,
		Activities:   activities,
		Pricer:       pricer,
		Events:       events,
		Metrics:      rec,
		Cache:        cache,
	}
	intakeSvc := &service.IntakeService{
		APIKeys:      apiKeys,
		Activities:   activities,
		Reservations: reservations,
		Events:       events,
		Metrics:      rec,
		Cache:        cache,
	}
	catalogSvc := &service.CatalogService{
		Categories:    repository.NewCategoryRepo(db),
		Reviews:       repository.NewReviewRepo(db),
		Profiles:      repository.NewProfileRepo(db),
		Memberships:   memberships,
		Cancellations: repository.NewCancellationRepo(db),
		Activities:    activitySvc,
		Pricer:        pricer,
	}
	sessions := &service.SessionService{
		Users:      users,
		Tokens:     repository.NewTokenRepo(db),
		Secret:     cfg.JWTSecret,
		AccessTTL:  time.Duration(cfg.AccessTTLMin) * time.Minute,
		RefreshTTL: time.Duration(cfg.RefreshTTLDays) * 24 * time.Hour,
	}
	accounts := &service.AccountService{Users: users, APIKeys: apiKeys, BcryptCost: cfg.BcryptCost, KeyTTL: cfg.APIKey.TTL}

	limiter := middleware.NewKeyLimiter(cfg.APIKey.RPS, cfg.APIKey.Burst, cfg.APIKey.IdleEvict)
	go limiter.Run(ctx)

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(middleware.RequestLogger(log))
	e.Use(echomw.Recover())
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

	activityH := &handler.ActivityHandler{Activities: activitySvc, Timeslots: timeslotSvc}
	reservationH := &handler.ReservationHandler{Booking: bookingSvc}
	catalogH := &handler.CatalogHandler{Catalog: catalogSvc}

	router.RegisterRoutes(e, db, metrics.Handler(reg))
	router.RegisterAuth(e, handler.NewAuthHandler(sessions), cfg.JWTSecret)
	router.RegisterPublic(e, activityH, cfg.JWTSecret, cache)
	router.RegisterBooking(e, activityH, reservationH, catalogH, cfg.JWTSecret)
	router.RegisterAdmin(e, &handler.AdminHandler{Accounts: accounts}, activityH, catalogH, cfg.JWTSecret)
	router.RegisterWebhook(e, &handler.WebhookHandler{Intake: intakeSvc}, intakeSvc.Authenticate, limiter)

	go func() {
		addr := ":" + cfg.Port
		log.Info().Str("addr", addr).Str("env", cfg.Env).Msg("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown")
	}
}

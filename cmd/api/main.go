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
	_ "time/tzdata"

	"github.com/geopoint/geopoint-backend-go/internal/config"
	appHTTP "github.com/geopoint/geopoint-backend-go/internal/handler/http"
	"github.com/geopoint/geopoint-backend-go/internal/pkg/cache"
	"github.com/geopoint/geopoint-backend-go/internal/pkg/cron"
	"github.com/geopoint/geopoint-backend-go/internal/pkg/database"
	"github.com/geopoint/geopoint-backend-go/internal/pkg/events"
	"github.com/geopoint/geopoint-backend-go/internal/pkg/jwt"
	"github.com/geopoint/geopoint-backend-go/internal/pkg/sse"
	"github.com/geopoint/geopoint-backend-go/internal/pkg/storage"
	"github.com/geopoint/geopoint-backend-go/internal/repository/postgresql"
	attendanceService "github.com/geopoint/geopoint-backend-go/internal/service/attendance"
	serviceAuth "github.com/geopoint/geopoint-backend-go/internal/service/auth"
	"github.com/geopoint/geopoint-backend-go/internal/service/file"
	locationService "github.com/geopoint/geopoint-backend-go/internal/service/location"
	notificationService "github.com/geopoint/geopoint-backend-go/internal/service/notification"
	reportService "github.com/geopoint/geopoint-backend-go/internal/service/report"
	requestService "github.com/geopoint/geopoint-backend-go/internal/service/request"
	scheduleService "github.com/geopoint/geopoint-backend-go/internal/service/schedule"
	userService "github.com/geopoint/geopoint-backend-go/internal/service/user"
	workspaceService "github.com/geopoint/geopoint-backend-go/internal/service/workspace"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

// version is overridden at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	if err := run(); err != nil {
		slog.Error("Server exited with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel(cfg.App.LogLevel)})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgreSQLDB(ctx, cfg.DatabaseURL(), database.PoolOptions{
		MaxConns: cfg.Database.MaxConns,
		MinConns: cfg.Database.MinConns,
	})
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := postgresql.Migrate(ctx, db); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		slog.Info("Database schema applied")
	}

	// Redis is optional; without it punches are not locked, replays are off and reports are not cached
	var (
		rdb    *redis.Client
		locker cache.Locker = cache.NoopLocker{}
	)
	if cfg.Redis.Addr != "" {
		rdb, err = cache.NewRedisClient(ctx, cache.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, 5)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer rdb.Close()
		locker = cache.NewRedisLocker(rdb)
	} else {
		slog.Warn("REDIS_ADDR not set, running without cache, punch locks or idempotency")
	}

	var publisher events.Publisher = events.LogPublisher{}
	if len(cfg.Kafka.Brokers) > 0 {
		publisher = events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		slog.Info("Publishing events to Kafka", "brokers", cfg.Kafka.Brokers, "topic", cfg.Kafka.Topic)
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			slog.Error("Failed to close event publisher", "error", err)
		}
	}()

	var fileStorage storage.FileStorage
	switch cfg.Storage.Type {
	case "local":
		fileStorage, err = storage.NewLocalStorage(cfg.Storage.BasePath, cfg.Storage.BaseURL)
		if err != nil {
			return fmt.Errorf("initialize local storage: %w", err)
		}
	default:
		return fmt.Errorf("unsupported storage type: %s", cfg.Storage.Type)
	}

	loc := cfg.Location()

	// Repositories
	transactor := postgresql.NewTransactor(db)
	workspaceRepo := postgresql.NewWorkspaceRepository(db)
	userRepo := postgresql.NewUserRepository(db)
	locationRepo := postgresql.NewLocationRepository(db)
	timeRecordRepo := postgresql.NewTimeRecordRepository(db, loc)
	shiftRepo := postgresql.NewWorkShiftRepository(db)
	scheduleRepo := postgresql.NewWorkScheduleRepository(db)
	requestRepo := postgresql.NewRequestRepository(db)
	notificationRepo := postgresql.NewNotificationRepository(db)

	// Services
	JWTService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)
	hub := sse.NewHub()
	notifSvc := notificationService.NewNotificationService(notificationRepo, hub, notificationService.Config{})
	defer notifSvc.Stop()

	fileSvc := file.NewFileService(fileStorage)
	reportInvalidator := reportService.NewCacheInvalidator(rdb)
	scheduleSvc := scheduleService.NewScheduleService(shiftRepo, scheduleRepo, reportInvalidator)
	reportSvc := reportService.NewReportService(timeRecordRepo, userRepo, workspaceRepo, scheduleSvc, rdb, reportService.Settings{
		Location:             loc,
		StandardDailyMinutes: cfg.Attendance.StandardDailyMinutes,
		CacheTTL:             cfg.Attendance.ReportCacheTTL,
	})
	authSvc := serviceAuth.NewAuthService(transactor, userRepo, workspaceRepo, JWTService)
	workspaceSvc := workspaceService.NewWorkspaceService(workspaceRepo, reportSvc, workspaceService.Defaults{
		GeofenceThresholdMeters: cfg.Attendance.GeofenceThresholdMeters,
		StandardDailyMinutes:    cfg.Attendance.StandardDailyMinutes,
	})
	userSvc := userService.NewUserService(userRepo, scheduleRepo, reportInvalidator)
	locationSvc := locationService.NewLocationService(locationRepo)
	attendanceSvc := attendanceService.NewAttendanceService(
		timeRecordRepo,
		locationRepo,
		userRepo,
		workspaceRepo,
		fileSvc,
		locker,
		reportSvc,
		publisher,
		notifSvc,
		attendanceService.Settings{
			GeofenceThresholdMeters: cfg.Attendance.GeofenceThresholdMeters,
			LockTTL:                 cfg.Attendance.PunchLockTTL,
			Location:                loc,
		},
	)
	requestSvc := requestService.NewRequestService(requestRepo, userRepo, fileSvc, notifSvc, publisher)

	// Background jobs
	scheduler := cron.NewScheduler(false)
	cron.NewReportJobs(timeRecordRepo, reportSvc, loc).RegisterJobs(scheduler)
	scheduler.Start()
	defer scheduler.Stop()

	router := appHTTP.NewRouter(
		appHTTP.RouterConfig{
			Env:            cfg.App.Env,
			Version:        version,
			AllowedOrigins: cfg.App.AllowedOrigins,
			RateLimit:      rate.Limit(cfg.RateLimit.RequestsPerSecond),
			RateBurst:      cfg.RateLimit.Burst,
			Redis:          rdb,
		},
		JWTService,
		appHTTP.Handlers{
			Auth:         appHTTP.NewAuthHandler(authSvc),
			Workspace:    appHTTP.NewWorkspaceHandler(workspaceSvc),
			User:         appHTTP.NewUserHandler(userSvc),
			Location:     appHTTP.NewLocationHandler(locationSvc),
			Attendance:   appHTTP.NewAttendanceHandler(attendanceSvc),
			Schedule:     appHTTP.NewScheduleHandler(scheduleSvc),
			Request:      appHTTP.NewRequestHandler(requestSvc),
			Report:       appHTTP.NewReportHandler(reportSvc),
			Notification: appHTTP.NewNotificationHandler(notifSvc, JWTService),
			File:         appHTTP.NewFileHandler(fileStorage),
		},
	)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	// open event streams would otherwise hold Shutdown until its deadline
	server.RegisterOnShutdown(hub.Close)

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("Server running", "addr", server.Addr, "env", cfg.App.Env, "version", version)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
	}

	slog.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func logLevel(level string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return slog.LevelInfo
	}
	return l
}

// @title School Planner API
// @version 1.0.0
// @description Alternating A/B week timetable with bag checklist, reminders and exports.
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	_ "github.com/noah-isme/school-planner-api/api/swagger"
	"github.com/noah-isme/school-planner-api/internal/handler"
	"github.com/noah-isme/school-planner-api/internal/repository"
	"github.com/noah-isme/school-planner-api/internal/router"
	"github.com/noah-isme/school-planner-api/internal/scheduler"
	"github.com/noah-isme/school-planner-api/internal/service"
	"github.com/noah-isme/school-planner-api/internal/weekcycle"
	"github.com/noah-isme/school-planner-api/pkg/cache"
	"github.com/noah-isme/school-planner-api/pkg/config"
	"github.com/noah-isme/school-planner-api/pkg/database"
	"github.com/noah-isme/school-planner-api/pkg/export"
	"github.com/noah-isme/school-planner-api/pkg/logger"
	"github.com/noah-isme/school-planner-api/pkg/storage"
	"github.com/noah-isme/school-planner-api/pkg/validation"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer db.Close()

	if cfg.RunMigrations {
		if err := database.RunMigrations(db.DB, logr); err != nil {
			logr.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Fatal("failed to connect redis", zap.Error(err))
	}
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	defer cacheRepo.Close() //nolint:errcheck

	loc := cfg.Planner.Location()
	validate := validation.New()
	metrics := service.NewMetricsService()

	userRepo := repository.NewUserRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	prefRepo := repository.NewPreferenceRepository(db)

	calendar := weekcycle.NewCalendar(cfg.Planner.WeekStart)
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Planner.CacheTTL, logr, true)

	authSvc := service.NewAuthService(userRepo, validate, logr, authConfig(cfg.JWT))
	prefSvc := service.NewPreferenceService(prefRepo, userRepo, cacheSvc, validate, logr, service.PreferenceServiceConfig{
		CacheTTL: cfg.Planner.PreferenceCacheTTL,
	})
	courseSvc := service.NewCourseService(courseRepo, userRepo, cacheSvc, validate, logr)
	weekSvc := service.NewWeekService(prefSvc, cacheSvc, metrics, logr, service.WeekServiceConfig{
		Calendar: calendar,
		Location: loc,
	})
	timetableSvc := service.NewTimetableService(service.TimetableServiceParams{
		Courses:   courseRepo,
		Overrides: prefSvc,
		Cache:     cacheSvc,
		Logger:    logr,
		Config: service.TimetableServiceConfig{
			FirstHour: cfg.Planner.FirstHour,
			LastHour:  cfg.Planner.LastHour,
			CacheTTL:  cfg.Planner.CacheTTL,
			Calendar:  calendar,
			Location:  loc,
		},
	})
	importSvc := service.NewImportService(courseSvc, prefSvc, logr, service.ImportServiceConfig{
		Calendar: calendar,
		Location: loc,
	})
	reminderSvc := service.NewReminderService(prefSvc, timetableSvc, cacheRepo, metrics, logr, service.ReminderServiceConfig{
		Workers:       cfg.Reminders.Workers,
		Retries:       cfg.Reminders.Retries,
		RetryDelay:    2 * time.Second,
		ChannelPrefix: cfg.Reminders.ChannelPrefix,
		Location:      loc,
	})

	exportStore, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
	if err != nil {
		logr.Fatal("failed to prepare export storage", zap.Error(err))
	}
	exportSvc := service.NewExportService(service.ExportServiceParams{
		Courses:     courseRepo,
		Overrides:   prefSvc,
		Preferences: prefSvc,
		Storage:     exportStore,
		Signer:      storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL),
		Audit:       userRepo,
		Metrics:     metrics,
		Logger:      logr,
		ICS:         export.NewICSExporter("-//school-planner-api//timetable//EN"),
		Config: service.ExportConfig{
			APIPrefix:    cfg.APIPrefix,
			ResultTTL:    cfg.Exports.SignedURLTTL,
			HorizonWeeks: cfg.Exports.ICSHorizonWeeks,
			FirstHour:    cfg.Planner.FirstHour,
			LastHour:     cfg.Planner.LastHour,
			Calendar:     calendar,
			Location:     loc,
		},
	})

	prefHandler := handler.NewPreferenceHandler(prefSvc, nil)
	if cfg.Backgrounds.Enabled {
		objects, err := storage.NewObjectStore(ctx, cfg.MinIO)
		if err != nil {
			logr.Warn("background uploads disabled: object store unavailable", zap.Error(err))
		} else {
			backgroundSvc := service.NewBackgroundService(objects, prefSvc, logr, service.BackgroundServiceConfig{
				Enabled:      true,
				MaxFileSize:  cfg.Backgrounds.MaxFileSizeBytes,
				AllowedMIMEs: cfg.Backgrounds.AllowedMIMEs,
				URLTTL:       cfg.Backgrounds.URLTTL,
			})
			prefHandler = handler.NewPreferenceHandler(prefSvc, backgroundSvc)
		}
	}

	checks := map[string]handler.ReadinessCheck{
		"postgres": db.PingContext,
		"redis":    func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
	}
	handlers := router.Handlers{
		Auth:        handler.NewAuthHandler(authSvc),
		Week:        handler.NewWeekHandler(weekSvc, loc),
		Courses:     handler.NewCourseHandler(courseSvc, importSvc, 0),
		Timetable:   handler.NewTimetableHandler(timetableSvc, loc),
		Preferences: prefHandler,
		Reminders:   handler.NewReminderHandler(reminderSvc),
		Exports:     handler.NewExportHandler(exportSvc, loc),
		Metrics:     handler.NewMetricsHandler(metrics, checks, reminderSvc.Stats),
	}
	engine := router.New(handlers, router.Dependencies{
		Tokens:   authSvc,
		Audit:    userRepo,
		Observer: metrics,
		Logger:   logr,
	}, router.Options{
		APIPrefix:          cfg.APIPrefix,
		AllowedOrigins:     cfg.CORS.AllowedOrigins,
		EnableDocs:         cfg.Env != config.EnvProduction,
		MaxMultipartMemory: cfg.Backgrounds.MaxFileSizeBytes + 1<<20,
	})

	jobs := scheduler.Jobs{Week: weekSvc, Exports: exportSvc}
	if cfg.Reminders.Enabled {
		reminderSvc.Start(ctx)
		jobs.Reminders = reminderSvc
	}
	sched, err := scheduler.New(jobs, scheduler.Config{
		Location:        loc,
		ReminderCron:    cfg.Reminders.Cron,
		WeekRefreshCron: cfg.Reminders.WeekRefreshCron,
		CleanupCron:     cfg.Exports.CleanupCron,
	}, logr)
	if err != nil {
		logr.Fatal("invalid schedule", zap.Error(err))
	}
	sched.Start(ctx)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "timezone", loc.String())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("http shutdown failed", zap.Error(err))
	}
	sched.Stop(shutdownCtx)
	if cfg.Reminders.Enabled {
		reminderSvc.Stop()
	}
}

func authConfig(jwt config.JWTConfig) service.AuthConfig {
	return service.AuthConfig{
		AccessTokenSecret:  jwt.Secret,
		AccessTokenExpiry:  jwt.Expiration,
		RefreshTokenExpiry: jwt.RefreshExpiration,
		Issuer:             "school-planner-api",
		Audience:           []string{"school-planner"},
	}
}

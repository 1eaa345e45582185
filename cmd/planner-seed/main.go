package main

import (
	"context"
	"flag"
	"log"
	"os"

	"go.uber.org/zap"

	"github.com/noah-isme/school-planner-api/internal/repository"
	"github.com/noah-isme/school-planner-api/internal/service"
	"github.com/noah-isme/school-planner-api/pkg/cache"
	"github.com/noah-isme/school-planner-api/pkg/config"
	"github.com/noah-isme/school-planner-api/pkg/database"
	"github.com/noah-isme/school-planner-api/pkg/logger"
	"github.com/noah-isme/school-planner-api/pkg/validation"
)

func main() {
	path := flag.String("file", "seed.yaml", "YAML file with users, courses and preferences")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	f, err := os.Open(*path)
	if err != nil {
		logr.Fatal("failed to open seed file", zap.String("file", *path), zap.Error(err))
	}
	defer f.Close()
	file, err := parseSeed(f)
	if err != nil {
		logr.Fatal("invalid seed file", zap.Error(err))
	}

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

	// Without Redis the seeded users may see cached timetables until the TTL passes.
	var timetables *service.CacheService
	if client, err := cache.NewRedis(cfg.Redis); err != nil {
		logr.Warn("redis unavailable, timetable caches are not flushed", zap.Error(err))
	} else {
		defer client.Close()
		timetables = service.NewCacheService(repository.NewCacheRepository(client, logr), nil, cfg.Planner.CacheTTL, logr, true)
	}

	validate := validation.New()
	users := repository.NewUserRepository(db)
	courses := service.NewCourseService(repository.NewCourseRepository(db), users, timetables, validate, logr)
	prefs := service.NewPreferenceService(repository.NewPreferenceRepository(db), users, timetables, validate, logr, service.PreferenceServiceConfig{})

	report, err := seeder{users: users, courses: courses, prefs: prefs}.apply(context.Background(), file)
	if err != nil {
		logr.Fatal("seed failed", zap.Error(err))
	}
	logr.Info("seed complete",
		zap.Int("users", report.Users),
		zap.Int("courses", report.Courses),
		zap.Int("removed", report.Removed),
		zap.Int("preferences", report.Preferences),
	)
}

package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	_ "github.com/noah-isme/sma-academic-core/api/swagger"
	"github.com/noah-isme/sma-academic-core/internal/academic"
	"github.com/noah-isme/sma-academic-core/internal/handler"
	"github.com/noah-isme/sma-academic-core/internal/repository"
	"github.com/noah-isme/sma-academic-core/internal/service"
	"github.com/noah-isme/sma-academic-core/pkg/cache"
	"github.com/noah-isme/sma-academic-core/pkg/config"
	"github.com/noah-isme/sma-academic-core/pkg/database"
	"github.com/noah-isme/sma-academic-core/pkg/jobs"
	"github.com/noah-isme/sma-academic-core/pkg/logger"
	"github.com/noah-isme/sma-academic-core/pkg/storage"
)

// @title SMA Academic Core API
// @version 1.0.0
// @description Scheduling, enrollment, grading and attendance for secondary school sections.
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, report cache disabled", zap.Error(err))
		redisClient = nil
	}

	metricsSvc := service.NewMetricsService()

	cacheSvc, invalidations := newReportCache(ctx, cfg, redisClient, metricsSvc, logr)
	if invalidations != nil {
		defer invalidations.Stop()
	}

	offeringRepo := repository.NewOfferingRepository(db)
	slotRepo := repository.NewTimeSlotRepository(db)
	sectionRepo := repository.NewSectionRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	periodRepo := repository.NewPeriodRepository(db)
	scoreRepo := repository.NewScoreRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)

	validate := service.NewValidator()
	scorePolicy := academic.ScorePolicy{
		CanonicalScale:   cfg.Grading.CanonicalScale,
		PassingThreshold: cfg.Grading.PassingThreshold,
	}

	scheduleSvc := service.NewScheduleService(offeringRepo, slotRepo, sectionRepo, periodRepo, db, metricsSvc, validate, logr.Named("schedule"))
	sectionSvc := service.NewSectionService(sectionRepo, periodRepo, db, metricsSvc, validate, logr.Named("sections"))
	enrollmentSvc := service.NewEnrollmentService(enrollmentRepo, sectionRepo, db, cacheSvc, metricsSvc, validate, logr.Named("enrollments"))
	periodSvc := service.NewPeriodService(periodRepo, db, metricsSvc, validate, logr.Named("periods"))
	scoreSvc := service.NewScoreService(scoreRepo, taskRepo, offeringRepo, periodRepo, cacheSvc, db, metricsSvc,
		service.ScoreServiceConfig{Policy: scorePolicy, ReportTTL: cfg.Cache.ReportTTL, ManualScoreWeight: &cfg.Grading.ManualScoreWeight}, validate, logr.Named("scores"))
	taskSvc := service.NewTaskService(taskRepo, scoreRepo, offeringRepo, periodRepo, db, metricsSvc, scorePolicy, validate, logr.Named("tasks"))
	attendanceSvc := service.NewAttendanceService(attendanceRepo, enrollmentRepo, sectionRepo, offeringRepo, cacheSvc, db, metricsSvc,
		service.AttendanceServiceConfig{
			Policy: academic.AttendancePolicy{
				ThresholdPercent: cfg.Attendance.ThresholdPercent,
				VacuousPass:      cfg.Attendance.VacuousPass,
			},
			ReportTTL: cfg.Cache.ReportTTL,
		}, validate, logr.Named("attendance"))

	exportStore, err := storage.NewLocalStorage(cfg.Export.Dir)
	if err != nil {
		logr.Fatal("failed to prepare export storage", zap.Error(err), zap.String("dir", cfg.Export.Dir))
	}
	signer := storage.NewSignedURLSigner(cfg.Export.SigningSecret, cfg.Export.ResultTTL)
	exportSvc := service.NewExportService(attendanceSvc, scoreSvc, exportStore, signer,
		service.ExportConfig{APIPrefix: cfg.APIPrefix, ResultTTL: cfg.Export.ResultTTL}, logr.Named("exports"))
	go runExportCleanup(ctx, exportSvc, cfg.Export.CleanupInterval, logr)

	authSvc := service.NewAuthService(logr.Named("auth"), service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})

	router := newRouter(routerDeps{
		cfg:     cfg,
		logger:  logr,
		metrics: metricsSvc,
		tokens:  authSvc,
		handlers: handlers{
			schedule:   handler.NewScheduleHandler(scheduleSvc),
			section:    handler.NewSectionHandler(sectionSvc),
			enrollment: handler.NewEnrollmentHandler(enrollmentSvc),
			period:     handler.NewPeriodHandler(periodSvc),
			score:      handler.NewScoreHandler(scoreSvc),
			task:       handler.NewTaskHandler(taskSvc),
			attendance: handler.NewAttendanceHandler(attendanceSvc),
			export:     handler.NewExportHandler(exportSvc),
			auth:       handler.NewAuthHandler(),
			probes:     handler.NewMetricsHandler(metricsSvc, readinessChecks(db, redisClient)),
		},
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Error("server failed", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}
}

// newReportCache builds the report cache and, when Redis is reachable, the
// worker queue that performs pattern invalidations off the request path.
func newReportCache(ctx context.Context, cfg *config.Config, client *redis.Client, metrics *service.MetricsService, logr *zap.Logger) (*service.CacheService, *jobs.Queue) {
	if client == nil {
		return service.NewCacheService(nil, metrics, cfg.Cache.ReportTTL, logr.Named("cache"), false), nil
	}
	cacheSvc := service.NewCacheService(repository.NewCacheRepository(client, logr.Named("redis")), metrics, cfg.Cache.ReportTTL, logr.Named("cache"), cfg.Cache.Enabled)
	if !cacheSvc.Enabled() {
		return cacheSvc, nil
	}
	queue := jobs.NewQueue("cache-invalidation", cacheSvc.InvalidationHandler(), jobs.QueueConfig{
		Workers:    cfg.Cache.InvalidateWorkers,
		BufferSize: 256,
		MaxRetries: cfg.Cache.InvalidateRetries,
		RetryDelay: 500 * time.Millisecond,
		Logger:     logr.Named("jobs"),
	})
	queue.Start(ctx)
	cacheSvc.UseQueue(queue)
	return cacheSvc, queue
}

func readinessChecks(db *sqlx.DB, client *redis.Client) map[string]handler.Pinger {
	checks := map[string]handler.Pinger{"postgres": db}
	if client == nil {
		checks["redis"] = nil
		return checks
	}
	checks["redis"] = handler.PingFunc(func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	})
	return checks
}

func runExportCleanup(ctx context.Context, exports *service.ExportService, interval time.Duration, logr *zap.Logger) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := exports.Cleanup(0)
			if err != nil {
				logr.Warn("export cleanup failed", zap.Error(err))
				continue
			}
			if len(removed) > 0 {
				logr.Info("expired exports removed", zap.Int("count", len(removed)))
			}
		}
	}
}

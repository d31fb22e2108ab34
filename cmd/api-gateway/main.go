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
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	_ "github.com/fundalink/fundalink-api/api/swagger"
	"github.com/fundalink/fundalink-api/internal/handler"
	internalmiddleware "github.com/fundalink/fundalink-api/internal/middleware"
	"github.com/fundalink/fundalink-api/internal/repository"
	"github.com/fundalink/fundalink-api/internal/service"
	"github.com/fundalink/fundalink-api/pkg/cache"
	"github.com/fundalink/fundalink-api/pkg/config"
	"github.com/fundalink/fundalink-api/pkg/database"
	"github.com/fundalink/fundalink-api/pkg/jobs"
	"github.com/fundalink/fundalink-api/pkg/logger"
	"github.com/fundalink/fundalink-api/pkg/mailer"
	corsmiddleware "github.com/fundalink/fundalink-api/pkg/middleware/cors"
	reqidmiddleware "github.com/fundalink/fundalink-api/pkg/middleware/requestid"
	"github.com/fundalink/fundalink-api/pkg/validation"
)

// version is stamped at build time with -ldflags "-X main.version=...".
var version = "dev"

// @title FUNDALink API
// @version 1.0.0
// @description REST backend for the FUNDALink public site and back office
// @BasePath /api
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

	reporter := logger.NewRollbarReporter(cfg.Rollbar, version)
	defer reporter.Close(5 * time.Second)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(ctx, db); err != nil {
			logr.Fatal("failed to run migrations", zap.Error(err))
		}
		logr.Info("database migrations applied")
	}

	mongoClient, mongoDB, err := database.NewMongo(ctx, cfg.Mongo)
	if err != nil {
		logr.Fatal("failed to connect mongo", zap.Error(err))
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = mongoClient.Disconnect(disconnectCtx)
	}()

	cacheEnabled := cfg.Cache.Enabled
	var cacheRepo *repository.CacheRepository
	if cacheEnabled {
		redisClient, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, caching disabled", zap.Error(err))
			cacheEnabled = false
			cacheRepo = repository.NewCacheRepository(nil, logr)
		} else {
			cacheRepo = repository.NewCacheRepository(redisClient, logr)
		}
	} else {
		cacheRepo = repository.NewCacheRepository(nil, logr)
	}
	defer cacheRepo.Close() //nolint:errcheck

	metrics := service.NewMetricsService()
	validate := validation.Default()

	mail, err := mailer.New(cfg.Mail, logr)
	if err != nil {
		logr.Fatal("failed to init mailer", zap.Error(err))
	}
	queue := jobs.New("notifications", jobs.Config{
		Workers:    cfg.Notifications.Workers,
		BufferSize: 256,
		MaxRetries: cfg.Notifications.Retries,
		RetryDelay: 2 * time.Second,
		Logger:     logr,
	})
	notifier := service.NewNotificationService(queue, mail, logr, cfg.Notifications.Enabled)
	notifier.Register(queue)
	queue.Start(context.Background())

	userRepo := repository.NewUserRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	programRepo := repository.NewProgramRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	admissionRepo := repository.NewAdmissionRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	faqRepo := repository.NewFAQRepository(db)
	testimonialRepo := repository.NewTestimonialRepository(db)
	eventRepo := repository.NewEventRepository(db)
	newsRepo := repository.NewNewsRepository(db)
	institutionRepo := repository.NewInstitutionRepository(mongoDB.Collection(repository.InstitutionCollection))

	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Cache.TTL, logr, cacheEnabled)
	authSvc := service.NewAuthService(userRepo, studentRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})
	userSvc := service.NewUserService(userRepo, validate, logr)
	programSvc := service.NewProgramService(programRepo, cacheSvc, validate, logr)
	enrollmentSvc := service.NewEnrollmentService(enrollmentRepo, programRepo, admissionRepo, programSvc, notifier, auditRepo, metrics, validate, logr)
	studentSvc := service.NewStudentService(studentRepo, programRepo, admissionRepo, programSvc, validate, logr)
	exportSvc := service.NewExportService(enrollmentRepo, studentRepo, logr)
	messageSvc := service.NewMessageService(messageRepo, notifier, validate, logr)
	faqSvc := service.NewFAQService(faqRepo, cacheSvc, validate, logr)
	testimonialSvc := service.NewTestimonialService(testimonialRepo, validate, logr)
	eventSvc := service.NewEventService(eventRepo, metrics, validate, logr)
	newsSvc := service.NewNewsService(newsRepo, validate, logr)
	institutionSvc := service.NewInstitutionService(institutionRepo, cacheSvc, logr)

	handlers := handler.Handlers{
		Auth:         handler.NewAuthHandler(authSvc),
		Users:        handler.NewUserHandler(userSvc),
		Programs:     handler.NewProgramHandler(programSvc),
		Enrollments:  handler.NewEnrollmentHandler(enrollmentSvc, exportSvc),
		Students:     handler.NewStudentHandler(studentSvc, exportSvc),
		Messages:     handler.NewMessageHandler(messageSvc),
		FAQs:         handler.NewFAQHandler(faqSvc),
		Testimonials: handler.NewTestimonialHandler(testimonialSvc),
		Events:       handler.NewEventHandler(eventSvc),
		News:         handler.NewNewsHandler(newsSvc),
		Institution:  handler.NewInstitutionHandler(institutionSvc),
	}
	health := handler.NewHealthHandler(metrics, map[string]handler.ReadinessCheck{
		"postgres": db.PingContext,
		"mongo": func(ctx context.Context) error {
			return mongoClient.Ping(ctx, readpref.Primary())
		},
		"redis": cacheRepo.Ping,
	})

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(internalmiddleware.Recovery(logr, reporter))
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS))
	r.Use(internalmiddleware.Metrics(metrics))

	health.Register(r)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	handler.Register(api, handlers.Routes(), authSvc, auditRepo, logr)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env), zap.String("version", version))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logr.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("server shutdown failed", zap.Error(err))
	}
	if err := queue.Stop(shutdownCtx); err != nil {
		logr.Warn("notification queue did not drain", zap.Error(err), zap.Int("pending", queue.Pending()))
	}
	logr.Info("server stopped")
}

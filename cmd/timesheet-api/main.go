package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/worklane/timesheet-api/api/swagger"
	"github.com/worklane/timesheet-api/internal/handler"
	"github.com/worklane/timesheet-api/internal/middleware"
	"github.com/worklane/timesheet-api/internal/models"
	"github.com/worklane/timesheet-api/internal/repository"
	"github.com/worklane/timesheet-api/internal/service"
	"github.com/worklane/timesheet-api/pkg/cache"
	"github.com/worklane/timesheet-api/pkg/config"
	"github.com/worklane/timesheet-api/pkg/database"
	"github.com/worklane/timesheet-api/pkg/jobs"
	"github.com/worklane/timesheet-api/pkg/logger"
	corsmiddleware "github.com/worklane/timesheet-api/pkg/middleware/cors"
	reqidmiddleware "github.com/worklane/timesheet-api/pkg/middleware/requestid"
	"github.com/worklane/timesheet-api/pkg/notify"
)

// @title Worklane Timesheet API
// @version 1.0.0
// @description Timesheet tracking with freeze windows, effort limits and manager approvals
// @BasePath /api/v1
// @schemes http

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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Repositories.
	userRepo := repository.NewUserRepository(db)
	timesheetRepo := repository.NewTimesheetRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	dashboardRepo := repository.NewDashboardRepository(db)
	conversationRepo := repository.NewConversationRepository(db)

	metricsSvc := service.NewMetricsService()

	var cacheSvc *service.CacheService
	if cfg.Dashboard.Enabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, dashboard cache disabled", "error", err)
		} else {
			defer redisClient.Close()
			cacheRepo := repository.NewCacheRepository(redisClient, logr)
			cacheSvc = service.NewCacheService(cacheRepo, metricsSvc, cfg.Dashboard.CacheTTL, logr, true)
		}
	}

	// Services.
	validate := validator.New()
	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "timesheet-api",
	})

	var notificationSvc *service.NotificationService
	if cfg.Notifications.Enabled {
		teamsClient := notify.NewTeamsClient(notify.TeamsClientConfig{
			AppID:      cfg.Notifications.BotAppID,
			AppSecret:  cfg.Notifications.BotAppSecret,
			TokenURL:   cfg.Notifications.TokenURL,
			TokenScope: cfg.Notifications.TokenScope,
		}, logr)
		notificationSvc = service.NewNotificationService(conversationRepo, teamsClient, metricsSvc, jobs.QueueConfig{
			Workers:    cfg.Notifications.WorkerConcurrency,
			MaxRetries: cfg.Notifications.WorkerRetries,
			RetryDelay: cfg.Notifications.RetryDelay,
			Logger:     logr,
		}, logr)
		notificationSvc.Start(ctx)
		defer notificationSvc.Stop()
	}

	timesheetSvc := service.NewTimesheetService(timesheetRepo, projectRepo, userRepo, metricsSvc, cfg.Timesheet, logr)
	var notifier service.ReviewNotifier
	if notificationSvc != nil {
		notifier = notificationSvc
	}
	approvalSvc := service.NewApprovalService(timesheetRepo, userRepo, userRepo, notifier, metricsSvc, logr)
	projectSvc := service.NewProjectService(projectRepo, userRepo, logr)
	dashboardSvc := service.NewDashboardService(dashboardRepo, cacheSvc, metricsSvc, logr)

	var exportSvc *service.ExportService
	if cfg.Exports.Enabled {
		exportSvc = service.NewExportService(timesheetRepo, logr)
	}

	// Handlers.
	authHandler := handler.NewAuthHandler(authSvc)
	timesheetHandler := handler.NewTimesheetHandler(timesheetSvc, approvalSvc, exportSvc)
	projectHandler := handler.NewProjectHandler(projectSvc)
	dashboardHandler := handler.NewDashboardHandler(dashboardSvc)
	notificationHandler := handler.NewNotificationHandler(conversationRepo)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	{
		auth := api.Group("/auth")
		{
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh", authHandler.Refresh)
			auth.POST("/logout", middleware.JWT(authSvc), authHandler.Logout)
			auth.PUT("/password", middleware.JWT(authSvc), authHandler.ChangePassword)
		}

		protected := api.Group("", middleware.JWT(authSvc))
		{
			timesheets := protected.Group("/timesheets")
			{
				timesheets.GET("", timesheetHandler.List)
				timesheets.POST("/save", timesheetHandler.Save)
				timesheets.POST("/submit", timesheetHandler.Submit)
				timesheets.POST("/duplicate", timesheetHandler.Duplicate)
				timesheets.GET("/export", timesheetHandler.Export)

				managers := timesheets.Group("", middleware.RequireRoles(models.RoleManager))
				{
					managers.GET("/pending", timesheetHandler.Pending)
					managers.POST("/review", timesheetHandler.Review)
				}
			}

			projects := protected.Group("/projects")
			{
				projects.GET("", projectHandler.List)
				projects.GET("/mine", projectHandler.Mine)
				projects.GET("/:id", projectHandler.Get)

				managers := projects.Group("", middleware.RequireRoles(models.RoleManager))
				{
					managers.POST("", projectHandler.Create)
					managers.PUT("/:id", projectHandler.Update)
					managers.POST("/:id/tasks", projectHandler.AddTask)
					managers.POST("/:id/members", projectHandler.AddMember)
					managers.DELETE("/:id/members/:userId", projectHandler.RemoveMember)
				}
			}

			protected.GET("/dashboard", middleware.RequireRoles(models.RoleManager), dashboardHandler.Summary)
			protected.GET("/metrics/snapshot", middleware.RequireRoles(models.RoleAdmin), metricsHandler.Snapshot)
			protected.POST("/notifications/conversation", notificationHandler.RegisterConversation)
		}
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logr.Warn("server shutdown failed", zap.Error(err))
	}
}

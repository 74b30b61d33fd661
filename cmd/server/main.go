// Package main runs the conference management HTTP server with graceful
// shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Hamayesh-Negar/Back-end/config"
	"github.com/Hamayesh-Negar/Back-end/internal/auth"
	"github.com/Hamayesh-Negar/Back-end/internal/categories"
	"github.com/Hamayesh-Negar/Back-end/internal/conferences"
	"github.com/Hamayesh-Negar/Back-end/internal/invitations"
	"github.com/Hamayesh-Negar/Back-end/internal/memberships"
	"github.com/Hamayesh-Negar/Back-end/internal/middleware"
	"github.com/Hamayesh-Negar/Back-end/internal/models"
	"github.com/Hamayesh-Negar/Back-end/internal/notifications"
	"github.com/Hamayesh-Negar/Back-end/internal/persons"
	"github.com/Hamayesh-Negar/Back-end/internal/reports"
	"github.com/Hamayesh-Negar/Back-end/internal/tasks"
	"github.com/Hamayesh-Negar/Back-end/pkg/database"
	"github.com/Hamayesh-Negar/Back-end/pkg/queue"
	"github.com/Hamayesh-Negar/Back-end/pkg/redis"
	"github.com/Hamayesh-Negar/Back-end/pkg/response"
	"github.com/Hamayesh-Negar/Back-end/pkg/storage"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	reportStore, err := storage.NewS3Storage(ctx, cfg.AWS)
	if err != nil {
		logger.Warn("s3 disabled", zap.Error(err))
		reportStore = nil
	}

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours)
	jobQueue := queue.NewQueue(rdb.Client, logger)

	// Auth
	authRepo := auth.NewRepository(pool)
	authHandler := auth.NewHandler(authRepo, jwtService, logger)

	// Notifications (queue-backed, consumed by cmd/worker)
	notifier := notifications.NewService(jobQueue, authRepo, logger)

	// Conferences and memberships reference each other through narrow
	// interfaces; build repositories first, then services.
	conferenceRepo := conferences.NewRepository(pool)
	membershipRepo := memberships.NewRepository(pool)
	membershipSvc := memberships.NewService(membershipRepo, conferenceRepo, notifier, logger)
	conferenceSvc := conferences.NewService(conferenceRepo, membershipSvc, logger)
	conferenceHandler := conferences.NewHandler(conferenceSvc, conferenceRepo, logger)
	membershipHandler := memberships.NewHandler(membershipSvc, membershipRepo, logger)

	// Invitations
	invitationRepo := invitations.NewRepository(pool)
	invitationSvc := invitations.NewService(invitationRepo, membershipRepo, membershipSvc, notifier,
		cfg.Invitation.DefaultExpiryDays, logger)
	invitationHandler := invitations.NewHandler(invitationSvc, logger)

	// Tasks and categories (auto-assignment flows through the tasks repo)
	taskRepo := tasks.NewRepository(pool)
	taskSvc := tasks.NewService(taskRepo, conferenceRepo, logger)
	taskHandler := tasks.NewHandler(taskSvc, taskRepo, logger)

	categoryRepo := categories.NewRepository(pool)
	categorySvc := categories.NewService(categoryRepo, conferenceRepo, taskRepo, logger)
	categoryHandler := categories.NewHandler(categorySvc, categoryRepo, logger)

	// Attendees
	personRepo := persons.NewRepository(pool)
	personSvc := persons.NewService(personRepo, conferenceRepo, categorySvc, logger)
	personHandler := persons.NewHandler(personSvc, personRepo, logger)

	// Reports (CSV export to S3)
	var reportHandler *reports.Handler
	if reportStore != nil {
		reportRepo := reports.NewRepository(pool)
		reportSvc := reports.NewService(reportRepo, reportStore, logger)
		reportHandler = reports.NewHandler(reportSvc, logger)
	} else {
		logger.Warn("report export disabled, no S3 configuration")
	}

	loader := membershipRepo

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })

	authGroup := router.Group("/auth")
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)
	}

	api := router.Group("/api/v1")
	api.Use(middleware.JWT(jwtService))
	{
		api.GET("/users", middleware.RequireSuperuser(), authHandler.List)
		api.POST("/devices", authHandler.RegisterDevice)
		api.GET("/permissions", conferenceHandler.ListPermissions)

		// Incoming invitations for the current user.
		api.GET("/invitations", invitationHandler.ListMine)
		api.GET("/invitations/:invitation_id", invitationHandler.Get)
		api.POST("/invitations/:invitation_id/accept", invitationHandler.Accept)
		api.POST("/invitations/:invitation_id/reject", invitationHandler.Reject)
		api.POST("/invitations/maintenance/expire", middleware.RequireSuperuser(), invitationHandler.ExpirePending)

		api.POST("/conferences", conferenceHandler.Create)
		api.GET("/conferences", conferenceHandler.List)
		api.GET("/conferences/slug/:slug", conferenceHandler.GetBySlug)
		api.POST("/conferences/maintenance/deactivate-ended", middleware.RequireSuperuser(), conferenceHandler.DeactivateEnded)

		// Conference-scoped routes; the access middleware resolves the
		// caller's membership and checks status before permissions.
		conf := api.Group("/conferences/:id")
		{
			conf.GET("", middleware.RequirePermission(loader, models.PermViewConference), conferenceHandler.Get)
			conf.PATCH("", middleware.RequirePermission(loader, models.PermEditConference), conferenceHandler.Update)
			conf.DELETE("", middleware.RequirePermission(loader, models.PermDeleteConference), conferenceHandler.Delete)
			conf.GET("/statistics", middleware.RequirePermission(loader, models.PermViewConference), conferenceHandler.Statistics)

			conf.GET("/roles", middleware.RequireMember(loader), conferenceHandler.ListRoles)
			conf.PUT("/roles/:role_id/permissions", middleware.RequirePermission(loader, models.PermManagePerms), conferenceHandler.SetRolePermissions)

			conf.GET("/members", middleware.RequireMember(loader), membershipHandler.List)
			conf.GET("/members/:member_id", middleware.RequireMember(loader), membershipHandler.Get)
			conf.POST("/members", middleware.RequirePermission(loader, models.PermInviteMembers), membershipHandler.Create)
			conf.DELETE("/members/:member_id", middleware.RequirePermission(loader, models.PermRemoveMembers), membershipHandler.Remove)
			conf.PATCH("/members/:member_id/status", middleware.RequirePermission(loader, models.PermRemoveMembers), membershipHandler.UpdateStatus)
			conf.PUT("/members/:member_id/permissions", middleware.RequirePermission(loader, models.PermManagePerms), membershipHandler.UpdatePermissions)

			conf.POST("/invitations", middleware.RequirePermission(loader, models.PermInviteMembers), invitationHandler.Create)
			conf.GET("/invitations", middleware.RequirePermission(loader, models.PermInviteMembers), invitationHandler.ListByConference)
			conf.POST("/invitations/expire", middleware.RequireExecutive(loader), invitationHandler.ExpireForConference)

			conf.GET("/persons", middleware.RequirePermission(loader, models.PermViewPeople), personHandler.List)
			conf.GET("/persons/:person_id", middleware.RequirePermission(loader, models.PermViewPeople), personHandler.Get)
			conf.GET("/persons/scan/:hashed_code", middleware.RequirePermission(loader, models.PermViewPeople), personHandler.Scan)
			conf.POST("/persons", middleware.RequirePermission(loader, models.PermAddPeople), personHandler.Create)
			conf.PATCH("/persons/:person_id", middleware.RequirePermission(loader, models.PermEditPeople), personHandler.Update)
			conf.DELETE("/persons/:person_id", middleware.RequirePermission(loader, models.PermDeletePeople), personHandler.Delete)

			conf.GET("/categories", middleware.RequirePermission(loader, models.PermViewConference), categoryHandler.List)
			conf.GET("/categories/:category_id", middleware.RequirePermission(loader, models.PermViewConference), categoryHandler.Get)
			conf.POST("/categories", middleware.RequirePermission(loader, models.PermManageCategories), categoryHandler.Create)
			conf.PATCH("/categories/:category_id", middleware.RequirePermission(loader, models.PermManageCategories), categoryHandler.Update)
			conf.DELETE("/categories/:category_id", middleware.RequirePermission(loader, models.PermManageCategories), categoryHandler.Delete)
			conf.PUT("/categories/:category_id/tasks", middleware.RequirePermission(loader, models.PermManageCategories), categoryHandler.SetTasks)

			conf.GET("/tasks", middleware.RequirePermission(loader, models.PermViewConference), taskHandler.List)
			conf.GET("/tasks/:task_id", middleware.RequirePermission(loader, models.PermViewConference), taskHandler.Get)
			conf.POST("/tasks", middleware.RequirePermission(loader, models.PermManageTasks), taskHandler.Create)
			conf.PATCH("/tasks/:task_id", middleware.RequirePermission(loader, models.PermManageTasks), taskHandler.Update)
			conf.DELETE("/tasks/:task_id", middleware.RequirePermission(loader, models.PermManageTasks), taskHandler.Delete)
			conf.PUT("/tasks/order", middleware.RequirePermission(loader, models.PermManageTasks), taskHandler.Reorder)
			conf.GET("/tasks/:task_id/stats", middleware.RequirePermission(loader, models.PermViewConference), taskHandler.CompletionStats)
			conf.GET("/tasks/:task_id/assignments", middleware.RequirePermission(loader, models.PermViewConference), taskHandler.ListAssignments)
			conf.POST("/tasks/:task_id/assign", middleware.RequirePermission(loader, models.PermAssignTasks), taskHandler.BulkAssign)
			conf.POST("/tasks/:task_id/unassign", middleware.RequirePermission(loader, models.PermAssignTasks), taskHandler.BulkUnassign)
			conf.PATCH("/assignments/:assignment_id", middleware.RequirePermission(loader, models.PermAssignTasks), taskHandler.UpdateAssignmentStatus)

			if reportHandler != nil {
				conf.POST("/reports/task-completion", middleware.RequirePermission(loader, models.PermViewReports), reportHandler.TaskCompletion)
			}
		}
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}

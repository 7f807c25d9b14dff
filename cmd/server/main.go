package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	agentapp "github.com/astralisone/platform/internal/application/agent"
	documentapp "github.com/astralisone/platform/internal/application/document"
	identityapp "github.com/astralisone/platform/internal/application/identity"
	pipelineapp "github.com/astralisone/platform/internal/application/pipeline"
	schedulingapp "github.com/astralisone/platform/internal/application/scheduling"
	"github.com/astralisone/platform/internal/domain/shared"
	"github.com/astralisone/platform/internal/infrastructure/auth"
	"github.com/astralisone/platform/internal/infrastructure/cache"
	"github.com/astralisone/platform/internal/infrastructure/config"
	"github.com/astralisone/platform/internal/infrastructure/event"
	"github.com/astralisone/platform/internal/infrastructure/llm"
	"github.com/astralisone/platform/internal/infrastructure/logger"
	"github.com/astralisone/platform/internal/infrastructure/persistence"
	"github.com/astralisone/platform/internal/infrastructure/scheduler"
	"github.com/astralisone/platform/internal/infrastructure/storage"
	"github.com/astralisone/platform/internal/infrastructure/telemetry"
	"github.com/astralisone/platform/internal/interfaces/http/handler"
	"github.com/astralisone/platform/internal/interfaces/http/middleware"
	"github.com/astralisone/platform/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting Astralis Platform",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Initialize tracing (no-op provider when disabled)
	tracerProvider, err := telemetry.NewTracerProvider(context.Background(), cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	// Initialize database connection
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLogLevel)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Initialize Redis
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer func() {
		if err := redisClient.Close(); err != nil {
			log.Error("Error closing redis client", zap.Error(err))
		}
	}()
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		log.Fatal("Failed to connect to redis", zap.Error(err))
	}
	log.Info("Redis connected successfully")

	// Initialize repositories
	orgRepo := persistence.NewGormOrganizationRepository(db.DB)
	userRepo := persistence.NewGormUserRepository(db.DB)
	pipelineRepo := persistence.NewGormPipelineRepository(db.DB)
	taskRepo := persistence.NewGormTaskRepository(db.DB)
	intakeRepo := persistence.NewGormIntakeRepository(db.DB)
	documentRepo := persistence.NewGormDocumentRepository(db.DB)
	eventRepo := persistence.NewGormEventRepository(db.DB)
	ruleRepo := persistence.NewGormAvailabilityRuleRepository(db.DB)
	reminderRepo := persistence.NewGormReminderRepository(db.DB)
	decisionRepo := persistence.NewGormDecisionRepository(db.DB)
	agentLogRepo := persistence.NewGormLogRepository(db.DB)

	// Initialize event bus. The outbox bus persists events and delivers
	// them asynchronously with retry; sync dispatch is in-process.
	var eventBus shared.EventBus
	if cfg.Event.Dispatch == "sync" {
		eventBus = event.NewInMemoryEventBus(log)
	} else {
		outboxRepo := persistence.NewGormOutboxRepository(db.DB)
		eventBus = event.NewOutboxEventBus(cfg.Event, outboxRepo, event.NewPlatformSerializer(), log)
	}

	// Object storage for documents
	objectStorage, err := storage.NewS3Storage(cfg.Storage, log)
	if err != nil {
		log.Fatal("Failed to initialize object storage", zap.Error(err))
	}

	// LLM client for the scheduling agent
	var llmClient llm.Client
	if cfg.LLM.Enabled {
		llmClient = llm.NewOpenAIClient(cfg.LLM, log)
	} else {
		llmClient = llm.DisabledClient{}
		log.Warn("LLM disabled, agent features fall back to heuristics")
	}

	// Identity services
	jwtService := auth.NewJWTService(cfg.JWT)
	blacklist := auth.NewRedisTokenBlacklist(redisClient)
	authService := identityapp.NewAuthService(userRepo, orgRepo, jwtService, blacklist, eventBus, log)
	orgService := identityapp.NewOrganizationService(orgRepo, userRepo, eventBus, log)
	userService := identityapp.NewUserService(userRepo, eventBus, log)

	// Pipeline services
	pipelineService := pipelineapp.NewPipelineService(pipelineRepo, taskRepo, eventBus, log)
	taskService := pipelineapp.NewTaskService(taskRepo, pipelineRepo, eventBus, log)
	intakeService := pipelineapp.NewIntakeService(intakeRepo, pipelineRepo, taskRepo, eventBus, log)

	// Document service
	documentService := documentapp.NewDocumentService(documentRepo, objectStorage, eventBus, log)

	// Scheduling services
	eventService := schedulingapp.NewEventService(eventRepo, ruleRepo, reminderRepo, eventBus, log)
	availabilityService := schedulingapp.NewAvailabilityService(ruleRepo, eventRepo, log)
	reminderService := schedulingapp.NewReminderService(reminderRepo, log)

	// Agent services
	agentLogService := agentapp.NewLogService(agentLogRepo, log)
	classifier := agentapp.NewIntakeClassifier(llmClient, intakeRepo, pipelineRepo, decisionRepo, agentLogService, eventBus, cfg.Agent, log)
	calendarChat := agentapp.NewCalendarChat(llmClient, eventService, availabilityService, decisionRepo, agentLogService, cfg.Agent, log)
	decisionService := agentapp.NewDecisionService(decisionRepo, intakeRepo, eventService, agentLogService, eventBus, log)

	// Register event handlers for cross-context integration
	// Event cancelled/rescheduled -> pending reminders follow
	reminderHandler := schedulingapp.NewReminderEventHandler(reminderRepo, log)
	eventBus.Subscribe(reminderHandler, reminderHandler.EventTypes()...)

	// Intake received -> automatic classification
	intakeClassificationHandler := agentapp.NewIntakeClassificationHandler(classifier, log)
	eventBus.Subscribe(intakeClassificationHandler, intakeClassificationHandler.EventTypes()...)

	log.Info("Event handlers registered",
		zap.Strings("reminder_events", reminderHandler.EventTypes()),
		zap.Strings("intake_classification_events", intakeClassificationHandler.EventTypes()),
	)

	// Start event bus
	if err := eventBus.Start(context.Background()); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	// Reminder dispatcher polls for due reminders and notifies
	if cfg.Reminder.Enabled {
		dedupStore := cache.NewRedisDedupStore(redisClient, "reminder_dispatch")
		dispatcher := scheduler.NewReminderDispatcher(
			cfg.Reminder, reminderRepo, eventRepo, dedupStore, scheduler.NewLogNotifier(log), log,
		)
		if err := dispatcher.Start(context.Background()); err != nil {
			log.Fatal("Failed to start reminder dispatcher", zap.Error(err))
		}
		defer func() {
			if err := dispatcher.Stop(context.Background()); err != nil {
				log.Error("Error stopping reminder dispatcher", zap.Error(err))
			}
		}()
		log.Info("Reminder dispatcher started",
			zap.Duration("poll_interval", cfg.Reminder.PollInterval),
			zap.Int("batch_size", cfg.Reminder.BatchSize),
		)
	}

	// Agent log pruner enforces the retention window
	logPruner := scheduler.NewLogPruner(agentLogRepo, cfg.Agent.LogRetention, log)
	if err := logPruner.Start(context.Background()); err != nil {
		log.Fatal("Failed to start log pruner", zap.Error(err))
	}
	defer func() {
		if err := logPruner.Stop(context.Background()); err != nil {
			log.Error("Error stopping log pruner", zap.Error(err))
		}
	}()

	// Initialize HTTP handlers
	authHandler := handler.NewAuthHandler(authService)
	orgHandler := handler.NewOrganizationHandler(orgService)
	userHandler := handler.NewUserHandler(userService)
	pipelineHandler := handler.NewPipelineHandler(pipelineService)
	taskHandler := handler.NewTaskHandler(taskService)
	intakeHandler := handler.NewIntakeHandler(intakeService)
	documentHandler := handler.NewDocumentHandler(documentService)
	eventHandler := handler.NewEventHandler(eventService, reminderService)
	availabilityHandler := handler.NewAvailabilityHandler(availabilityService)
	agentHandler := handler.NewAgentHandler(calendarChat, classifier, decisionService, agentLogService)
	systemHandler := handler.NewSystemHandler()

	// Set Gin mode based on environment
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()

	// Configure trusted proxies
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Apply middleware stack in order
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	if cfg.Telemetry.Enabled {
		engine.Use(otelgin.Middleware(cfg.Telemetry.ServiceName))
	}
	engine.Use(middleware.Secure())

	corsConfig := middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))

	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	if cfg.HTTP.RateLimitEnabled {
		rateLimiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		engine.Use(middleware.RateLimit(rateLimiter))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	// Health check endpoint (outside API versioning)
	engine.GET("/health", healthHandler(db, redisClient))

	// Setup API routes
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))

	jwtConfig := middleware.JWTConfig{
		JWTService:     jwtService,
		TokenBlacklist: blacklist,
		SkipPaths: []string{
			"/api/v1/auth/login",
			"/api/v1/auth/refresh",
			"/api/v1/organization/signup",
			"/api/v1/system/ping",
			"/api/v1/system/info",
		},
		SkipPathPrefixes: []string{
			"/api/v1/intake/public",
		},
		Logger: log,
	}
	r.Use(middleware.JWTAuth(jwtConfig))

	// Credential endpoints get their own tighter limiter
	var authLimit gin.HandlerFunc
	if cfg.HTTP.AuthRateLimitEnabled {
		authLimiter := middleware.NewRateLimiter(cfg.HTTP.AuthRateLimitRequests, cfg.HTTP.AuthRateLimitWindow)
		authLimit = middleware.RateLimit(authLimiter)
	} else {
		authLimit = func(c *gin.Context) { c.Next() }
	}

	// Identity domain (authentication, organization, users)
	authRoutes := router.NewDomainGroup("auth", "/auth")
	authRoutes.POST("/login", authLimit, authHandler.Login)
	authRoutes.POST("/refresh", authLimit, authHandler.Refresh)
	authRoutes.POST("/logout", authHandler.Logout)
	authRoutes.GET("/me", authHandler.Me)
	authRoutes.PUT("/password", authHandler.ChangePassword)

	orgRoutes := router.NewDomainGroup("organization", "/organization")
	orgRoutes.POST("/signup", authLimit, orgHandler.Signup)
	orgRoutes.GET("", orgHandler.Get)
	orgRoutes.PUT("", orgHandler.Update)
	orgRoutes.PUT("/plan", orgHandler.SetPlan)
	orgRoutes.POST("/suspend", middleware.RequireRole("owner"), orgHandler.Suspend)
	orgRoutes.POST("/activate", middleware.RequireRole("owner"), orgHandler.Activate)
	orgRoutes.POST("/deactivate", middleware.RequireRole("owner"), orgHandler.Deactivate)

	userRoutes := router.NewDomainGroup("users", "/users")
	userRoutes.POST("", userHandler.Create)
	userRoutes.GET("", userHandler.List)
	userRoutes.GET("/:id", userHandler.Get)
	userRoutes.PUT("/:id", userHandler.Update)
	userRoutes.PUT("/:id/role", middleware.RequireRole("owner", "admin"), userHandler.AssignRole)
	userRoutes.POST("/:id/activate", middleware.RequireRole("owner", "admin"), userHandler.Activate)
	userRoutes.POST("/:id/deactivate", middleware.RequireRole("owner", "admin"), userHandler.Deactivate)
	userRoutes.POST("/:id/unlock", middleware.RequireRole("owner", "admin"), userHandler.Unlock)
	userRoutes.POST("/:id/reset-password", middleware.RequireRole("owner", "admin"), userHandler.ResetPassword)

	// Pipeline domain (pipelines, tasks, intake)
	pipelineRoutes := router.NewDomainGroup("pipelines", "/pipelines")
	pipelineRoutes.POST("", pipelineHandler.Create)
	pipelineRoutes.GET("", pipelineHandler.List)
	pipelineRoutes.GET("/:id", pipelineHandler.Get)
	pipelineRoutes.PUT("/:id", pipelineHandler.Update)
	pipelineRoutes.POST("/:id/archive", pipelineHandler.Archive)
	pipelineRoutes.POST("/:id/stages", pipelineHandler.AddStage)
	pipelineRoutes.PUT("/:id/stages/:stageId", pipelineHandler.UpdateStage)
	pipelineRoutes.PUT("/:id/stages/:stageId/reorder", pipelineHandler.ReorderStage)
	pipelineRoutes.DELETE("/:id/stages/:stageId", pipelineHandler.RemoveStage)

	taskRoutes := router.NewDomainGroup("tasks", "/tasks")
	taskRoutes.POST("", taskHandler.Create)
	taskRoutes.GET("", taskHandler.List)
	taskRoutes.GET("/overdue", taskHandler.ListOverdue)
	taskRoutes.GET("/:id", taskHandler.Get)
	taskRoutes.PUT("/:id", taskHandler.Update)
	taskRoutes.POST("/:id/move", taskHandler.Move)
	taskRoutes.POST("/:id/assign", taskHandler.Assign)
	taskRoutes.POST("/:id/complete", taskHandler.Complete)
	taskRoutes.POST("/:id/reopen", taskHandler.Reopen)
	taskRoutes.POST("/:id/archive", taskHandler.Archive)

	intakeRoutes := router.NewDomainGroup("intake", "/intake")
	intakeRoutes.POST("/public/:orgId", intakeHandler.Submit)
	intakeRoutes.GET("", intakeHandler.List)
	intakeRoutes.GET("/:id", intakeHandler.Get)
	intakeRoutes.POST("/:id/triage", intakeHandler.Triage)
	intakeRoutes.POST("/:id/convert", intakeHandler.Convert)
	intakeRoutes.POST("/:id/reject", intakeHandler.Reject)

	// Document domain
	documentRoutes := router.NewDomainGroup("documents", "/documents")
	documentRoutes.POST("", documentHandler.Upload)
	documentRoutes.GET("", documentHandler.List)
	documentRoutes.GET("/usage", documentHandler.Usage)
	documentRoutes.GET("/:id", documentHandler.Get)
	documentRoutes.GET("/:id/download", documentHandler.Download)
	documentRoutes.POST("/:id/confirm", documentHandler.ConfirmUpload)
	documentRoutes.PUT("/:id", documentHandler.Update)
	documentRoutes.POST("/:id/versions", documentHandler.NewVersion)
	documentRoutes.POST("/:id/archive", documentHandler.Archive)
	documentRoutes.POST("/:id/restore", documentHandler.Restore)
	documentRoutes.DELETE("/:id", documentHandler.Delete)

	// Scheduling domain (events, reminders, availability)
	eventRoutes := router.NewDomainGroup("events", "/events")
	eventRoutes.POST("", eventHandler.Create)
	eventRoutes.GET("", eventHandler.List)
	eventRoutes.POST("/conflicts", eventHandler.CheckConflicts)
	eventRoutes.GET("/:id", eventHandler.Get)
	eventRoutes.PUT("/:id", eventHandler.Update)
	eventRoutes.POST("/:id/reschedule", eventHandler.Reschedule)
	eventRoutes.POST("/:id/confirm", eventHandler.Confirm)
	eventRoutes.POST("/:id/cancel", eventHandler.Cancel)
	eventRoutes.POST("/:id/complete", eventHandler.Complete)
	eventRoutes.GET("/:id/reminders", eventHandler.ListReminders)
	eventRoutes.DELETE("/:id/reminders/:reminderId", eventHandler.CancelReminder)

	availabilityRoutes := router.NewDomainGroup("availability", "/availability")
	availabilityRoutes.POST("/rules/weekly", availabilityHandler.CreateWeeklyRule)
	availabilityRoutes.POST("/rules/blackout", availabilityHandler.CreateBlackoutRule)
	availabilityRoutes.GET("/rules", availabilityHandler.ListRules)
	availabilityRoutes.GET("/rules/:id", availabilityHandler.GetRule)
	availabilityRoutes.PUT("/rules/:id", availabilityHandler.UpdateRule)
	availabilityRoutes.DELETE("/rules/:id", availabilityHandler.DeleteRule)
	availabilityRoutes.POST("/slots/suggest", availabilityHandler.SuggestSlots)
	availabilityRoutes.GET("/load/day", availabilityHandler.DayLoad)
	availabilityRoutes.GET("/load/range", availabilityHandler.RangeLoad)

	// Agent domain (chat, classification, decision review, logs)
	agentRoutes := router.NewDomainGroup("agent", "/agent")
	agentRoutes.POST("/chat", agentHandler.Chat)
	agentRoutes.POST("/classify", agentHandler.ClassifyIntake)
	agentRoutes.GET("/decisions", agentHandler.ListDecisions)
	agentRoutes.GET("/decisions/:id", agentHandler.GetDecision)
	agentRoutes.POST("/decisions/:id/approve", agentHandler.ApproveDecision)
	agentRoutes.POST("/decisions/:id/reject", agentHandler.RejectDecision)
	agentRoutes.GET("/logs", agentHandler.ListLogs)

	systemRoutes := router.NewDomainGroup("system", "/system")
	systemRoutes.GET("/info", systemHandler.GetSystemInfo)
	systemRoutes.GET("/ping", systemHandler.Ping)

	r.Register(authRoutes).
		Register(orgRoutes).
		Register(userRoutes).
		Register(pipelineRoutes).
		Register(taskRoutes).
		Register(intakeRoutes).
		Register(documentRoutes).
		Register(eventRoutes).
		Register(availabilityRoutes).
		Register(agentRoutes).
		Register(systemRoutes)

	r.Setup()

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// healthHandler reports database and redis connectivity
func healthHandler(db *persistence.Database, redisClient *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqLog := logger.GetGinLogger(c)

		dbStatus := "ok"
		redisStatus := "ok"
		healthy := true

		if err := db.Ping(); err != nil {
			reqLog.Warn("Health check: database unreachable", zap.Error(err))
			dbStatus = "error"
			healthy = false
		}
		if err := redisClient.Ping(c.Request.Context()).Err(); err != nil {
			reqLog.Warn("Health check: redis unreachable", zap.Error(err))
			redisStatus = "error"
			healthy = false
		}

		status := http.StatusOK
		state := "healthy"
		if !healthy {
			status = http.StatusServiceUnavailable
			state = "unhealthy"
		}
		c.JSON(status, gin.H{
			"status":   state,
			"time":     time.Now().Format(time.RFC3339),
			"database": dbStatus,
			"redis":    redisStatus,
		})
	}
}

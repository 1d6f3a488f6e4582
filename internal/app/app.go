package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	_ "taskflow/docs"
	"taskflow/internal/config"
	"taskflow/internal/database"
	"taskflow/internal/handlers"
	"taskflow/internal/middleware"
	"taskflow/internal/pdf"
	"taskflow/internal/realtime"
	"taskflow/internal/repositories"
	"taskflow/internal/routes"
	"taskflow/internal/services"
	"taskflow/internal/workflow"
)

const shutdownTimeout = 10 * time.Second

// App is the wired server.
type App struct {
	Config *config.Config
	Log    *logrus.Logger
	DB     *sql.DB
	Router *gin.Engine
	Hub    *realtime.Hub
	Users  services.UserService
	Auth   services.AuthService

	notifier *services.Notifier
}

// New connects to the database and wires the server.
func New(ctx context.Context, cfg *config.Config, log *logrus.Logger) (*App, error) {
	db, err := database.Open(ctx, cfg.Database.DSN)
	if err != nil {
		return nil, err
	}
	return Build(cfg, log, db), nil
}

// Build wires repositories, services and handlers on top of db.
func Build(cfg *config.Config, log *logrus.Logger, db *sql.DB) *App {
	now := time.Now

	// === Repos ===
	userRepo := repositories.NewUserRepository(db)
	taskRepo := repositories.NewTaskRepository(db)
	milestoneRepo := repositories.NewMilestoneRepository(db)
	typeRepo := repositories.NewTaskTypeRepository(db)
	quickRepo := repositories.NewQuickTaskRepository(db)
	settingsRepo := repositories.NewSettingsRepository(db)

	// === Notifications ===
	hub := realtime.NewHub(log.WithField("component", "ws"))
	var emails services.EmailService
	if cfg.Email.Enabled() {
		emails = services.NewEmailService(cfg.Email)
	} else {
		log.Info("[app] email notifications disabled: smtp not configured")
	}
	var telegram *services.TelegramService
	if cfg.Telegram.BotToken != "" {
		tg, err := services.NewTelegramService(cfg.Telegram.BotToken)
		if err != nil {
			log.Warnf("[app] telegram disabled: %v", err)
		} else {
			telegram = tg
		}
	}
	notifier := services.NewNotifier(userRepo, emails, telegram, hub, log.WithField("component", "notify"))

	// === Services ===
	engine := workflow.NewEngine(now)
	authService := services.NewAuthService(userRepo, cfg.Auth.JWTSecret, cfg.Auth.AccessTTL, now)
	userService := services.NewUserService(userRepo, authService, log)
	taskService := services.NewTaskService(taskRepo, typeRepo, userRepo, engine, notifier, log)
	milestoneService := services.NewMilestoneService(milestoneRepo, taskRepo, userRepo, engine, notifier, log)
	typeService := services.NewTaskTypeService(typeRepo)
	quickService := services.NewQuickTaskService(quickRepo, now)
	settingsService := services.NewSettingsService(settingsRepo, cfg.DefaultSettings())
	dashboardService := services.NewDashboardService(taskRepo, milestoneRepo, userRepo, engine, log)
	reportService := services.NewReportService(taskRepo, milestoneRepo, quickRepo, userRepo, settingsService, engine, cfg.Reports, log)

	pdfGen := pdf.NewReportGenerator(cfg.Files.FontPath, cfg.Files.LogoPath)

	// === Handlers ===
	h := routes.Handlers{
		Auth:       handlers.NewAuthHandler(authService, cfg.Auth, cfg.Server.Mode == gin.ReleaseMode, log),
		Users:      handlers.NewUserHandler(userService, log),
		TaskTypes:  handlers.NewTaskTypeHandler(typeService, log),
		Tasks:      handlers.NewTaskHandler(taskService, log),
		Milestones: handlers.NewMilestoneHandler(milestoneService, log),
		QuickTasks: handlers.NewQuickTaskHandler(quickService, log),
		Dashboard:  handlers.NewDashboardHandler(dashboardService, log),
		Reports:    handlers.NewReportHandler(reportService, pdfGen, log),
		Settings:   handlers.NewSettingsHandler(settingsService, log),
		WS:         handlers.NewWSHandler(hub, realtime.NewUpgrader(cfg.Server.AllowedOrigins), log),
	}

	// === Gin ===
	gin.SetMode(cfg.Server.Mode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger(log))
	router.Use(corsMiddleware())

	routes.SetupRoutes(router, h, routes.Guards{
		Auth:  middleware.AuthMiddleware(authService, userService, cfg.Auth.SessionCookie),
		Login: middleware.RateLimit(cfg.Auth.LoginRate, cfg.Auth.LoginBurst),
	})

	return &App{
		Config: cfg,
		Log:    log,
		DB:     db,
		Router: router,
		Hub:    hub,
		Users:  userService,
		Auth:   authService,

		notifier: notifier,
	}
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.Log.Infof("[app] listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.Log.Info("[app] shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// Close flushes pending notifications and closes the database.
func (a *App) Close() error {
	if a.notifier != nil {
		a.notifier.Close()
	}
	if a.DB == nil {
		return nil
	}
	return a.DB.Close()
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization, X-Request-ID")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

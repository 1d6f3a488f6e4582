package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"taskflow/internal/handlers"
	"taskflow/internal/metrics"
	"taskflow/internal/middleware"
	"taskflow/internal/models"
)

// Handlers groups everything SetupRoutes mounts.
type Handlers struct {
	Auth       *handlers.AuthHandler
	Users      *handlers.UserHandler
	TaskTypes  *handlers.TaskTypeHandler
	Tasks      *handlers.TaskHandler
	Milestones *handlers.MilestoneHandler
	QuickTasks *handlers.QuickTaskHandler
	Dashboard  *handlers.DashboardHandler
	Reports    *handlers.ReportHandler
	Settings   *handlers.SettingsHandler
	WS         *handlers.WSHandler
}

// Guards are the middlewares that protect the API.
type Guards struct {
	Auth  gin.HandlerFunc
	Login gin.HandlerFunc // rate limit on /login
}

func SetupRoutes(r *gin.Engine, h Handlers, g Guards) *gin.Engine {
	// ---- public
	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/metrics", gin.WrapH(metrics.Handler()))
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	r.POST("/login", g.Login, h.Auth.Login)

	// ---- protected
	api := r.Group("/", g.Auth)
	admin := middleware.RequireRoles(models.RoleAdmin)

	api.POST("/logout", h.Auth.Logout)
	api.GET("/me", h.Auth.Me)
	api.GET("/ws", h.WS.Serve)
	api.GET("/dashboard", h.Dashboard.Get)

	// USERS
	api.GET("/users/assignable", h.Users.Assignable)
	users := api.Group("/users", admin)
	{
		users.GET("", h.Users.List)
		users.POST("", h.Users.Create)
		users.PUT("/:id/manager", h.Users.SetManager)
		users.PUT("/:id/active", h.Users.SetActive)
		users.PUT("/:id/privileges", h.Users.SetPrivileges)
	}

	// TASK TYPES
	types := api.Group("/task-types")
	{
		types.GET("", h.TaskTypes.List)
		types.POST("", admin, h.TaskTypes.Create)
		types.POST("/:id/toggle", admin, h.TaskTypes.Toggle)
	}

	// TASKS
	tasks := api.Group("/tasks")
	{
		tasks.GET("", h.Tasks.List)
		tasks.POST("", h.Tasks.Create)
		tasks.GET("/:id", h.Tasks.Get)
		tasks.PUT("/:id", h.Tasks.Update)
		tasks.POST("/:id/archive", admin, h.Tasks.Archive)

		tasks.POST("/:id/submit", h.Tasks.Submit)
		tasks.POST("/:id/approve", h.Tasks.Approve)
		tasks.POST("/:id/return", h.Tasks.Return)
		tasks.POST("/:id/complete", h.Tasks.Complete)

		tasks.GET("/:id/milestones", h.Milestones.List)
		tasks.POST("/:id/milestones", h.Milestones.Add)
	}

	// MILESTONES
	milestones := api.Group("/milestones")
	{
		milestones.PUT("/:id", h.Milestones.Edit)
		milestones.DELETE("/:id", h.Milestones.Delete)
		milestones.POST("/:id/status", h.Milestones.SetStatus)
		milestones.POST("/:id/move", h.Milestones.Move)
	}

	// QUICK TASKS
	quick := api.Group("/quick-tasks")
	{
		quick.GET("", h.QuickTasks.List)
		quick.POST("", h.QuickTasks.Create)
	}

	// REPORTS
	reports := api.Group("/reports")
	{
		reports.GET("", h.Reports.Screen)
		reports.GET("/export/xlsx", middleware.RequirePrivilege(models.PrivilegeExportReports), h.Reports.ExportXLSX)
		reports.GET("/export/pdf", middleware.RequirePrivilege(models.PrivilegeExportReports), h.Reports.ExportPDF)
	}

	// SETTINGS
	settings := api.Group("/settings", admin)
	{
		settings.GET("", h.Settings.Get)
		settings.PUT("", h.Settings.Update)
	}

	return r
}

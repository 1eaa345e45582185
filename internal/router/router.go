package router

import (
	"strings"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/school-planner-api/internal/handler"
	"github.com/noah-isme/school-planner-api/internal/middleware"
	"github.com/noah-isme/school-planner-api/internal/models"
	"github.com/noah-isme/school-planner-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/school-planner-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/school-planner-api/pkg/middleware/requestid"
)

// Handlers groups the HTTP handlers mounted by New.
type Handlers struct {
	Auth        *handler.AuthHandler
	Week        *handler.WeekHandler
	Courses     *handler.CourseHandler
	Timetable   *handler.TimetableHandler
	Preferences *handler.PreferenceHandler
	Reminders   *handler.ReminderHandler
	Exports     *handler.ExportHandler
	Metrics     *handler.MetricsHandler
}

// Dependencies are the cross-cutting collaborators of the middleware chain.
type Dependencies struct {
	Tokens   middleware.TokenValidator
	Audit    middleware.AuditWriter
	Observer middleware.RequestObserver
	Logger   *zap.Logger
}

// Options tune the engine.
type Options struct {
	APIPrefix          string
	AllowedOrigins     []string
	EnableDocs         bool
	MaxMultipartMemory int64
}

// New builds the gin engine with every planner route under opts.APIPrefix.
func New(h Handlers, deps Dependencies, opts Options) *gin.Engine {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}

	r := gin.New()
	if opts.MaxMultipartMemory > 0 {
		r.MaxMultipartMemory = opts.MaxMultipartMemory
	}
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(log))
	r.Use(corsmiddleware.New(opts.AllowedOrigins))
	r.Use(middleware.Metrics(deps.Observer))

	r.GET("/health", h.Metrics.Health)
	r.GET("/ready", h.Metrics.Ready)
	r.GET("/metrics", h.Metrics.Prometheus)
	if opts.EnableDocs {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	prefix := "/" + strings.Trim(opts.APIPrefix, "/")
	if prefix == "/" {
		prefix = "/api/v1"
	}
	api := r.Group(prefix)
	api.Use(middleware.WithResponseMeta())

	auth := api.Group("/auth")
	auth.POST("/register", h.Auth.Register)
	auth.POST("/login", h.Auth.Login)
	auth.POST("/refresh", h.Auth.Refresh)

	// Downloads are authorised by the signed token itself.
	api.GET("/exports/:token", middleware.Audit(deps.Audit, log, models.AuditActionExportDownload, "export"), h.Exports.Download)

	secured := api.Group("")
	secured.Use(middleware.JWT(deps.Tokens))

	secured.POST("/auth/logout", h.Auth.Logout)
	secured.GET("/auth/me", h.Auth.Me)

	secured.GET("/week", h.Week.Current)

	courses := secured.Group("/courses")
	courses.GET("", h.Courses.List)
	courses.POST("", h.Courses.Create)
	courses.POST("/import", h.Courses.Import)
	courses.GET("/:id", h.Courses.Get)
	courses.DELETE("/:id", h.Courses.Delete)

	secured.GET("/timetable/week", h.Timetable.Week)
	secured.GET("/timetable/day", h.Timetable.Day)
	secured.GET("/bag", h.Timetable.Bag)

	prefs := secured.Group("/preferences")
	prefs.GET("", h.Preferences.List)
	prefs.PUT("", h.Preferences.BulkUpdate)
	prefs.GET("/background", h.Preferences.Background)
	prefs.POST("/background", middleware.Audit(deps.Audit, log, models.AuditActionBackgroundUpload, "preference"), h.Preferences.UploadBackground)
	prefs.GET("/:key", h.Preferences.Get)
	prefs.PATCH("/:key", h.Preferences.Update)

	secured.GET("/reminders/status", h.Reminders.Status)
	secured.POST("/exports", h.Exports.Generate)

	admin := secured.Group("/admin")
	admin.Use(middleware.RequireRoles(models.RoleAdmin))
	admin.GET("/metrics", h.Metrics.Summary)

	return r
}

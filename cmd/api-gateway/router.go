package main

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-reportcard-api/internal/handler"
	"github.com/noah-isme/sma-reportcard-api/internal/middleware"
	"github.com/noah-isme/sma-reportcard-api/internal/models"
	"github.com/noah-isme/sma-reportcard-api/internal/service"
	"github.com/noah-isme/sma-reportcard-api/pkg/config"
	"github.com/noah-isme/sma-reportcard-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/sma-reportcard-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/sma-reportcard-api/pkg/middleware/requestid"
)

type routes struct {
	tokens     *service.TokenService
	metrics    *service.MetricsService
	reportCard *handler.ReportCardHandler
	templates  *handler.TemplateHandler
	marks      *handler.MarksHandler
	batches    *handler.BatchHandler
	health     *handler.MetricsHandler
}

func newRouter(cfg *config.Config, logr *zap.Logger, h routes) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(h.metrics, "/metrics"))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", h.health.Health)
	r.GET("/ready", h.health.Ready)
	r.GET("/metrics", h.health.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	// Signed links carry their own authorisation.
	api.GET("/export/:token", h.batches.Download)

	secured := api.Group("")
	secured.Use(middleware.JWT(h.tokens))

	staff := []models.UserRole{models.RoleSuperAdmin, models.RoleAdmin, models.RoleTeacher}
	admins := []models.UserRole{models.RoleSuperAdmin, models.RoleAdmin}

	cards := secured.Group("/report-cards")
	cards.GET("/students/:studentId",
		middleware.RBAC(string(models.RoleSuperAdmin), string(models.RoleAdmin), string(models.RoleTeacher), "SELF"),
		h.reportCard.Student,
	)
	cards.POST("/preview", middleware.RequireRoles(staff...), h.reportCard.Preview)
	cards.POST("/batches",
		middleware.RequireRoles(admins...),
		middleware.Audit(logr, "create", "report_card_batch"),
		h.batches.Create,
	)
	cards.GET("/batches/:id", middleware.RequireRoles(admins...), h.batches.Status)

	schools := secured.Group("/schools/:schoolId", middleware.RequireRoles(admins...))
	schools.GET("/report-card-template", h.templates.Get)
	schools.PUT("/report-card-template", middleware.Audit(logr, "update", "report_card_template"), h.templates.Update)

	marks := secured.Group("/marks", middleware.RequireRoles(staff...))
	marks.GET("/dashboard", h.marks.Dashboard)
	marks.GET("/dashboard/export", h.marks.Export)
	marks.POST("/evaluate", h.marks.Evaluate)

	return r
}

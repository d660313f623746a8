package api

import (
	"net/http"

	"github.com/frosty888/eProtokoll/internal/api/handlers"
	"github.com/frosty888/eProtokoll/internal/api/middleware"
	"github.com/frosty888/eProtokoll/internal/config"
	"github.com/frosty888/eProtokoll/internal/services"
	"github.com/frosty888/eProtokoll/internal/storage"
	"github.com/frosty888/eProtokoll/pkg/metrics"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Router struct {
	engine             *gin.Engine
	logger             *zap.Logger
	metrics            *metrics.MetricsCollector
	authHandler        *handlers.AuthHandler
	docHandler         *handlers.DocumentHandler
	reportHandler      *handlers.ReportHandler
	userHandler        *handlers.UserHandler
	institutionHandler *handlers.InstitutionHandler
	authMiddleware     *middleware.AuthMiddleware
	reqMiddleware      *middleware.RequestMiddleware
}

func NewRouter(
	cfg *config.Configuration,
	logger *zap.Logger,
	metrics *metrics.MetricsCollector,
	authService *services.AuthService,
	docService *services.DocumentService,
	reportService *services.ReportService,
	userService *services.UserService,
	institutionService *services.InstitutionService,
	store *storage.Store,
	db *gorm.DB,
) *Router {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	reqMiddleware := middleware.NewRequestMiddleware(logger)
	authMiddleware := middleware.NewAuthMiddleware(authService, cfg.Session.CookieName, db)

	engine.Use(reqMiddleware.ProcessRequest())
	engine.Use(reqMiddleware.RecoverPanic())

	return &Router{
		engine:             engine,
		logger:             logger,
		metrics:            metrics,
		authHandler:        handlers.NewAuthHandler(authService, cfg.Session, logger),
		docHandler:         handlers.NewDocumentHandler(docService, store, logger),
		reportHandler:      handlers.NewReportHandler(reportService, logger),
		userHandler:        handlers.NewUserHandler(userService, logger),
		institutionHandler: handlers.NewInstitutionHandler(institutionService, logger),
		authMiddleware:     authMiddleware,
		reqMiddleware:      reqMiddleware,
	}
}

func (r *Router) SetupRoutes() {
	r.engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "up", "name": "eprotokoll"})
	})

	r.engine.GET("/metrics", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"counters":  r.metrics.GetCounters(),
			"latencies": r.metrics.GetLatencies(),
			"sizes":     r.metrics.GetSizes(),
		})
	})

	r.engine.POST("/login", r.authHandler.Login)
	r.engine.POST("/logout", r.authHandler.Logout)

	authorized := r.engine.Group("/")
	authorized.Use(r.authMiddleware.RequireAuth())
	{
		authorized.GET("/dashboard", r.reportHandler.Dashboard)

		authorized.POST("/documents", r.docHandler.Upload)
		authorized.GET("/documents", r.docHandler.List)
		authorized.GET("/documents/assigned/to-me", r.docHandler.AssignedToMe)
		authorized.GET("/documents/:id", r.docHandler.Get)
		authorized.GET("/documents/:id/download", r.docHandler.Download)
		authorized.GET("/documents/:id/trail", r.docHandler.Trail)
		authorized.POST("/documents/:id/status", r.docHandler.ChangeStatus)
		authorized.POST("/documents/:id/delegate", r.docHandler.Delegate)
		authorized.POST("/documents/:id/respond", r.docHandler.Respond)

		authorized.GET("/reports/statistics", r.reportHandler.Statistics)
		authorized.GET("/reports/protocol-book", r.reportHandler.ProtocolBook)
		authorized.GET("/reports/deadlines", r.reportHandler.Deadlines)

		authorized.GET("/directory/users", r.userHandler.ListActive)
		authorized.GET("/institutions", r.institutionHandler.List)

		admin := authorized.Group("/")
		admin.Use(r.authMiddleware.RequireAdmin())
		{
			admin.GET("/users", r.userHandler.List)
			admin.POST("/users", r.userHandler.Create)
			admin.POST("/users/:id", r.userHandler.Update)
			admin.DELETE("/users/:id", r.userHandler.Delete)

			admin.POST("/institutions", r.institutionHandler.Create)
			admin.POST("/institutions/:id", r.institutionHandler.Update)
			admin.DELETE("/institutions/:id", r.institutionHandler.Delete)
		}
	}
}

func (r *Router) GetEngine() *gin.Engine {
	return r.engine
}

func (r *Router) Run(addr string) error {
	r.logger.Info("Starting HTTP server", zap.String("address", addr))
	return r.engine.Run(addr)
}

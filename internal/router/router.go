package router

import (
	"time"

	"github.com/wmakeouthill/Mercearia-R-V-sub000/internal/config"
	"github.com/wmakeouthill/Mercearia-R-V-sub000/internal/handler"
	"github.com/wmakeouthill/Mercearia-R-V-sub000/internal/middleware"
	"github.com/wmakeouthill/Mercearia-R-V-sub000/internal/model"
	"github.com/wmakeouthill/Mercearia-R-V-sub000/internal/repository"
	"github.com/wmakeouthill/Mercearia-R-V-sub000/internal/service"
	"github.com/wmakeouthill/Mercearia-R-V-sub000/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Repositories ─────────────────────────────────────────────────────────
	userRepo := repository.NewUserRepository(db)
	productRepo := repository.NewProductRepository(db)
	saleRepo := repository.NewSaleRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	movementRepo := repository.NewMovementRepository(db)
	adjustmentRepo := repository.NewAdjustmentRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	// Worker dispatcher — injected into services that enqueue async jobs
	dispatcher := worker.NewDispatcher(rdb, cfg.ClosingReportEmail)

	// ── Services ─────────────────────────────────────────────────────────────
	authSvc := service.NewAuthService(userRepo, cfg)
	sessionSvc := service.NewSessionService(sessionRepo, movementRepo, saleRepo, auditRepo, dispatcher)
	reportSvc := service.NewReportService(sessionRepo, movementRepo, saleRepo)
	saleSvc := service.NewSaleService(saleRepo, productRepo, sessionRepo)
	adjustmentSvc := service.NewAdjustmentService(saleRepo, adjustmentRepo, productRepo, movementRepo, sessionRepo)

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc)
	sessionH := handler.NewSessionHandler(sessionSvc)
	reportH := handler.NewReportHandler(reportSvc)
	saleH := handler.NewSaleHandler(saleSvc)
	adjustmentH := handler.NewAdjustmentHandler(adjustmentSvc)
	productH := handler.NewProductHandler(productRepo)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb))

	auth := r.Group("/v1/auth")
	{
		auth.POST("/login", middleware.LoginRateLimiter(), authH.Login)
	}

	// Protected routes
	jwtMW := middleware.JWTAuth(cfg.JWTSecret)
	anyRole := middleware.RequireRole(model.RoleCashier, model.RoleManager, model.RoleAdmin)
	managerUp := middleware.RequireRole(model.RoleManager, model.RoleAdmin)
	adminOnly := middleware.RequireRole(model.RoleAdmin)

	v1 := r.Group("/v1", jwtMW)
	{
		caixa := v1.Group("/caixa")
		{
			caixa.POST("/open", anyRole, sessionH.Open)
			caixa.POST("/close", anyRole, sessionH.Close)
			caixa.GET("/status", anyRole, sessionH.Status)
			caixa.PUT("/schedule", adminOnly, sessionH.ConfigureSchedule)
			caixa.DELETE("/:id", adminOnly, sessionH.Delete)
			caixa.DELETE("/:id/force", adminOnly, sessionH.ForceDelete)

			caixa.POST("/movements", anyRole, sessionH.RecordMovement)
			caixa.DELETE("/movements/:id", adminOnly, sessionH.DeleteMovement)
			caixa.GET("/movements", anyRole, reportH.Ledger)

			caixa.GET("", managerUp, reportH.ListSessions)
			caixa.GET("/:id/reconciliation", managerUp, reportH.Reconciliation)
		}

		sales := v1.Group("/sales")
		{
			sales.POST("", anyRole, saleH.Checkout)
			sales.GET("/:id", anyRole, saleH.GetSale)
			sales.POST("/:id/adjustments", anyRole, adjustmentH.Create)
			sales.GET("/:id/adjustments", anyRole, adjustmentH.ListByOrder)
		}

		v1.GET("/products", anyRole, productH.List)
		v1.GET("/products/:id", anyRole, productH.Get)
	}

	// Swagger UI — only enabled outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}

package router

import (
	"time"

	"shoptill/internal/config"
	"shoptill/internal/handler"
	"shoptill/internal/infra"
	"shoptill/internal/middleware"
	"shoptill/internal/repository"
	"shoptill/internal/service"
	"shoptill/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client, smtpCB *infra.CircuitBreaker, dispatcher *worker.Dispatcher) *gin.Engine {
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
	registerRepo := repository.NewRegisterRepository(db)
	shiftRepo := repository.NewShiftRepository(db)
	receiptRepo := repository.NewReceiptRepository(db)
	returnRepo := repository.NewReturnRepository(db)
	closingRepo := repository.NewClosingRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	authSvc := service.NewAuthService(userRepo, cfg)
	shiftSvc := service.NewShiftService(shiftRepo, registerRepo, closingRepo, dispatcher)
	receiptSvc := service.NewReceiptService(receiptRepo, productRepo, shiftSvc)
	paymentSvc := service.NewPaymentService(receiptRepo, shiftRepo, registerRepo)
	returnSvc := service.NewReturnService(returnRepo, receiptRepo, productRepo, shiftRepo, registerRepo, shiftSvc)
	registrySvc := service.NewRegistryService(registerRepo, productRepo)

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc)
	usersH := handler.NewUsersHandler(authSvc)
	shiftsH := handler.NewShiftsHandler(shiftSvc)
	receiptsH := handler.NewReceiptsHandler(receiptSvc, paymentSvc)
	returnsH := handler.NewReturnsHandler(returnSvc)
	registryH := handler.NewRegistryHandler(registrySvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb, smtpCB))
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Auth (public)
	auth := r.Group("/v1/auth")
	{
		auth.POST("/login", middleware.LoginRateLimiter(), authH.Login)
		auth.POST("/refresh", authH.Refresh)
	}

	// Protected routes
	jwtMW := middleware.JWTAuth(cfg.JWTSecret)
	terminal := middleware.RequireRole("cashier", "supervisor", "admin")
	backOffice := middleware.RequireRole("supervisor", "admin")

	v1 := r.Group("/v1", jwtMW)
	{
		// Shifts
		v1.POST("/shifts", terminal, shiftsH.Open)
		v1.GET("/shifts", backOffice, shiftsH.History)
		v1.GET("/shifts/current", terminal, shiftsH.Current)
		v1.POST("/shifts/:id/close", terminal, shiftsH.Close)
		v1.GET("/shifts/:id/report", terminal, shiftsH.Report)

		// Receipts
		v1.POST("/receipts/items", terminal, receiptsH.AddItem)
		v1.GET("/receipts", terminal, receiptsH.FindByNumber)
		v1.GET("/receipts/current", terminal, receiptsH.Current)
		v1.GET("/receipts/:id", terminal, receiptsH.Get)
		v1.DELETE("/receipts/:id", terminal, receiptsH.Cancel)
		v1.PATCH("/receipts/:id/items/:itemId", terminal, receiptsH.UpdateQuantity)
		v1.PATCH("/receipts/:id/items/:itemId/discount", terminal, receiptsH.ApplyDiscount)
		v1.DELETE("/receipts/:id/items/:itemId", terminal, receiptsH.RemoveItem)
		v1.POST("/receipts/:id/pay", terminal, receiptsH.Pay)

		// Returns
		v1.POST("/returns", terminal, returnsH.Create)
		v1.GET("/returns/:id", terminal, returnsH.Get)
		v1.POST("/returns/:id/settle", terminal, returnsH.Settle)

		// Registry reads
		v1.GET("/payment-methods", terminal, registryH.Methods)
		v1.GET("/products", terminal, registryH.Products)
		v1.GET("/products/barcode/:barcode", terminal, registryH.ProductByBarcode)

		// User administration
		users := v1.Group("/users", middleware.RequireRole("admin"))
		{
			users.POST("", usersH.Create)
			users.GET("", usersH.List)
			users.PUT("/:id", usersH.Update)
			users.DELETE("/:id", usersH.Deactivate)
			users.PATCH("/:id/reactivate", usersH.Reactivate)
		}
	}

	return r
}

// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"onmuhasebe/internal/domain/auth"
	"onmuhasebe/internal/domain/catalogs/cashaccount"
	"onmuhasebe/internal/domain/catalogs/party"
	"onmuhasebe/internal/domain/catalogs/product"
	"onmuhasebe/internal/domain/finance"
	"onmuhasebe/internal/domain/invoice"
	"onmuhasebe/internal/domain/order"
	cashledger "onmuhasebe/internal/domain/registers/cash"
	partyledger "onmuhasebe/internal/domain/registers/party"
	stockledger "onmuhasebe/internal/domain/registers/stock"
	"onmuhasebe/internal/infrastructure/http/v1/handlers"
	"onmuhasebe/internal/infrastructure/http/v1/middleware"
	"onmuhasebe/internal/infrastructure/storage/postgres"
	"onmuhasebe/internal/infrastructure/storage/postgres/catalog_repo"
	"onmuhasebe/pkg/logger"
)

// RouterConfig holds everything the router needs.
type RouterConfig struct {
	Pool      *postgres.Pool
	TxManager *postgres.TxManager
	Logger    *logger.Logger

	AuthService *auth.Service

	PartyService       *party.Service
	PartyRepo          *catalog_repo.PartyRepo
	ProductService     *product.Service
	ProductRepo        *catalog_repo.ProductRepo
	CashAccountService *cashaccount.Service

	InvoiceService *invoice.Service
	OrderService   *order.Service
	FinanceService *finance.Service

	StockLedger *stockledger.Service
	PartyLedger *partyledger.Service
	CashLedger  *cashledger.Service
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	// Health endpoints (no auth)
	healthHandler := handlers.NewHealthHandler(cfg.Pool)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	base := handlers.NewBaseHandler()

	// API v1
	apiV1 := router.Group("/api/v1")
	{
		authHandler := handlers.NewAuthHandler(base, cfg.AuthService)
		apiV1.POST("/auth/login", authHandler.Login)

		protected := apiV1.Group("")
		protected.Use(middleware.Auth(cfg.AuthService))

		registerAuthRoutes(protected, authHandler)
		registerCatalogRoutes(protected, base, cfg)
		registerDocumentRoutes(protected, base, cfg)
		registerLedgerRoutes(protected, base, cfg)
	}

	return router
}

func registerAuthRoutes(rg *gin.RouterGroup, h *handlers.AuthHandler) {
	authGroup := rg.Group("/auth")
	{
		authGroup.GET("/me", h.Me)
		authGroup.POST("/change-password", h.ChangePassword)
		authGroup.POST("/users", middleware.RequireAdmin(), h.CreateUser)
	}
}

func registerCatalogRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	partyHandler := handlers.NewPartyHandler(base, cfg.PartyService, cfg.PartyRepo)
	parties := rg.Group("/parties")
	{
		parties.GET("", partyHandler.List)
		parties.POST("", partyHandler.Create)
		parties.GET("/by-kind/:kind", partyHandler.ListByKind)
		parties.GET("/:id", partyHandler.Get)
		parties.PUT("/:id", partyHandler.Update)
		parties.DELETE("/:id", partyHandler.Delete)
		parties.POST("/:id/deletion-mark", partyHandler.SetDeletionMark)
	}

	productHandler := handlers.NewProductHandler(base, cfg.ProductService, cfg.ProductRepo)
	products := rg.Group("/products")
	{
		products.GET("", productHandler.List)
		products.POST("", productHandler.Create)
		products.GET("/below-minimum", productHandler.ListBelowMinimum)
		products.GET("/:id", productHandler.Get)
		products.PUT("/:id", productHandler.Update)
		products.DELETE("/:id", productHandler.Delete)
		products.POST("/:id/deletion-mark", productHandler.SetDeletionMark)
	}

	accountHandler := handlers.NewCashAccountHandler(base, cfg.CashAccountService)
	accounts := rg.Group("/cash-accounts")
	{
		accounts.GET("", accountHandler.List)
		accounts.POST("", accountHandler.Create)
		accounts.GET("/:id", accountHandler.Get)
		accounts.PUT("/:id", accountHandler.Update)
		accounts.DELETE("/:id", accountHandler.Delete)
		accounts.POST("/:id/deletion-mark", accountHandler.SetDeletionMark)
	}
}

func registerDocumentRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	invoiceHandler := handlers.NewInvoiceHandler(base, cfg.InvoiceService)
	invoices := rg.Group("/invoices")
	{
		invoices.GET("", invoiceHandler.List)
		invoices.POST("", invoiceHandler.Create)
		invoices.GET("/:id", invoiceHandler.Get)
		invoices.PUT("/:id", invoiceHandler.Update)
		invoices.DELETE("/:id", invoiceHandler.Delete)
	}

	orderHandler := handlers.NewOrderHandler(base, cfg.OrderService)
	orders := rg.Group("/orders")
	{
		orders.GET("", orderHandler.List)
		orders.POST("", orderHandler.Create)
		orders.GET("/:id", orderHandler.Get)
		orders.PUT("/:id", orderHandler.Update)
		orders.DELETE("/:id", orderHandler.Delete)
		orders.POST("/:id/convert", invoiceHandler.ConvertOrder)
	}

	financeHandler := handlers.NewFinanceHandler(base, cfg.FinanceService)
	fin := rg.Group("/finance")
	{
		fin.POST("/collections", financeHandler.RecordCollection)
		fin.POST("/payments", financeHandler.RecordPayment)
		fin.POST("/debts", financeHandler.RecordDebtEntry)
		fin.POST("/cash-entries", financeHandler.RecordIncomeExpense)
		fin.DELETE("/:kind/:id", financeHandler.Delete)
	}
}

func registerLedgerRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	stockHandler := handlers.NewStockRegisterHandler(base, cfg.StockLedger, cfg.TxManager)
	rg.POST("/stock/movements", stockHandler.CreateMovement)
	rg.DELETE("/stock/movements/:id", stockHandler.DeleteMovement)
	rg.GET("/products/:id/movements", stockHandler.History)
	rg.GET("/products/:id/quantity", stockHandler.Quantity)
	rg.POST("/products/:id/reconcile", stockHandler.Reconcile)

	partyHandler := handlers.NewPartyLedgerHandler(base, cfg.PartyLedger, cfg.TxManager)
	rg.GET("/parties/:id/statement", partyHandler.Statement)
	rg.GET("/parties/:id/balance", partyHandler.Balance)
	rg.POST("/parties/:id/reconcile", partyHandler.Reconcile)
	rg.DELETE("/party-entries/:id", partyHandler.DeleteEntry)

	cashHandler := handlers.NewCashRegisterHandler(base, cfg.CashLedger, cfg.TxManager)
	rg.GET("/cash-accounts/:id/movements", cashHandler.History)
	rg.GET("/cash-accounts/:id/balance", cashHandler.Balance)
	rg.POST("/cash-accounts/:id/reconcile", cashHandler.Reconcile)
	rg.DELETE("/cash-movements/:id", cashHandler.DeleteMovement)
}

// Package main is the entry point for the onmuhasebe API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"onmuhasebe/internal/domain"
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
	v1 "onmuhasebe/internal/infrastructure/http/v1"
	"onmuhasebe/internal/infrastructure/numerator"
	"onmuhasebe/internal/infrastructure/storage/postgres"
	"onmuhasebe/internal/infrastructure/storage/postgres/auth_repo"
	"onmuhasebe/internal/infrastructure/storage/postgres/catalog_repo"
	"onmuhasebe/internal/infrastructure/storage/postgres/document_repo"
	"onmuhasebe/internal/infrastructure/storage/postgres/register_repo"
	"onmuhasebe/pkg/logger"
)

func main() {
	log, err := logger.New(logger.Config{
		Level:       getEnv("LOG_LEVEL", "info"),
		Development: getEnv("APP_ENV", "development") == "development",
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	log.Info("starting onmuhasebe server")

	// --- Database ---
	dsn := mustEnv("DATABASE_URL")
	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(dsn))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	log.Info("database connection established")

	txManager := postgres.NewTxManager(pool)

	// --- Repositories ---
	partyRepo := catalog_repo.NewPartyRepo(txManager)
	productRepo := catalog_repo.NewProductRepo(txManager)
	accountRepo := catalog_repo.NewCashAccountRepo(txManager)
	invoiceRepo := document_repo.NewInvoiceRepo(txManager)
	orderRepo := document_repo.NewOrderRepo(txManager)
	userRepo := auth_repo.NewUserRepo(txManager)

	stockRepo := register_repo.NewStockRepo(txManager)
	partyLedgerRepo := register_repo.NewPartyRepo(txManager)
	cashRepo := register_repo.NewCashRepo(txManager)

	// --- Ledger services ---
	stockLedger := stockledger.NewService(stockRepo)
	partyLedger := partyledger.NewService(partyLedgerRepo)
	cashLedger := cashledger.NewService(cashRepo)

	// --- Catalog services ---
	partyService := domain.NewCatalogService(domain.CatalogServiceConfig[*party.Party]{
		Repo:       partyRepo,
		TxManager:  txManager,
		EntityName: "party",
	})
	productService := domain.NewCatalogService(domain.CatalogServiceConfig[*product.Product]{
		Repo:       productRepo,
		TxManager:  txManager,
		EntityName: "product",
	})
	accountService := domain.NewCatalogService(domain.CatalogServiceConfig[*cashaccount.CashAccount]{
		Repo:       accountRepo,
		TxManager:  txManager,
		EntityName: "cash account",
	})

	// --- Numbering ---
	numbers := numerator.New(pool)

	// --- Document services ---
	orderService := order.NewService(txManager, orderRepo, numbers)

	auditService, err := postgres.NewAuditService(txManager)
	if err != nil {
		log.Fatalw("failed to initialize audit service", "error", err)
	}

	invoiceService := invoice.NewService(
		txManager,
		invoiceRepo,
		partyRepo,
		productRepo,
		accountRepo,
		stockLedger,
		partyLedger,
		cashLedger,
		numbers,
	).WithAuditor(auditService).WithOrderSource(orderService)

	financeService := finance.NewService(txManager, partyRepo, partyLedger, cashLedger)

	// --- Auth ---
	jwtSecret := getEnv("JWT_SECRET", "dev-secret-change-in-production")
	jwtTTL := getEnvDuration("JWT_TTL", 12*time.Hour)
	authService := auth.NewService(userRepo, auth.NewTokenManager(jwtSecret, jwtTTL))

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		Pool:      pool,
		TxManager: txManager,
		Logger:    log,

		AuthService: authService,

		PartyService:       partyService,
		PartyRepo:          partyRepo,
		ProductService:     productService,
		ProductRepo:        productRepo,
		CashAccountService: accountService,

		InvoiceService: invoiceService,
		OrderService:   orderService,
		FinanceService: financeService,

		StockLedger: stockLedger,
		PartyLedger: partyLedger,
		CashLedger:  cashLedger,
	})

	// --- HTTP server ---
	addr := getEnv("HTTP_ADDR", ":8080")
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "addr", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func mustEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		fmt.Printf("required environment variable %s not set\n", key)
		os.Exit(1)
	}
	return value
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// Package main provides a CLI tool for seeding the database with initial data.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"

	"onmuhasebe/internal/core/entity"
	"onmuhasebe/internal/core/id"
	"onmuhasebe/internal/core/types"
	"onmuhasebe/internal/domain/catalogs/cashaccount"
	"onmuhasebe/internal/domain/catalogs/party"
	"onmuhasebe/internal/domain/catalogs/product"
	"onmuhasebe/internal/infrastructure/storage/postgres"
	"onmuhasebe/internal/infrastructure/storage/postgres/catalog_repo"
	"onmuhasebe/pkg/logger"
)

func main() {
	log, err := logger.New(logger.Config{
		Level:       "info",
		Development: true,
	})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(dbURL))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	log.Info("connected to database")

	if err := seedAdminUser(ctx, pool, log); err != nil {
		log.Fatalw("failed to seed admin user", "error", err)
	}

	if os.Getenv("SEED_DEMO_DATA") == "true" {
		if err := seedDemoData(ctx, pool, log); err != nil {
			log.Fatalw("failed to seed demo data", "error", err)
		}
	}

	log.Info("seeding completed successfully")
}

func seedAdminUser(ctx context.Context, pool *postgres.Pool, log *logger.Logger) error {
	adminEmail := os.Getenv("ADMIN_EMAIL")
	if adminEmail == "" {
		adminEmail = "admin@onmuhasebe.local"
	}

	adminPassword := os.Getenv("ADMIN_PASSWORD")
	if adminPassword == "" {
		adminPassword = "Admin123!"
	}

	var existingID id.ID
	err := pool.QueryRow(ctx,
		`SELECT id FROM sys_users WHERE email = $1 AND NOT deletion_mark`,
		adminEmail,
	).Scan(&existingID)
	if err == nil {
		log.Infow("admin user already exists", "email", adminEmail, "user_id", existingID)
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("check admin exists: %w", err)
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	userID := id.New()
	_, err = pool.Exec(ctx, `
		INSERT INTO sys_users (id, deletion_mark, version, email, name, password_hash, is_admin, active)
		VALUES ($1, false, 1, $2, 'Administrator', $3, true, true)
	`, userID, adminEmail, string(passwordHash))
	if err != nil {
		return fmt.Errorf("insert admin user: %w", err)
	}

	log.Infow("admin user created", "email", adminEmail, "user_id", userID)
	return nil
}

func seedDemoData(ctx context.Context, pool *postgres.Pool, log *logger.Logger) error {
	txManager := postgres.NewTxManager(pool)

	partyRepo := catalog_repo.NewPartyRepo(txManager)
	productRepo := catalog_repo.NewProductRepo(txManager)
	accountRepo := catalog_repo.NewCashAccountRepo(txManager)

	parties := []*party.Party{
		party.New("CUS-001", "Yilmaz Market", entity.PartyCustomer),
		party.New("CUS-002", "Demir Insaat", entity.PartyCustomer),
		party.New("SUP-001", "Anadolu Toptan", entity.PartySupplier),
	}
	for _, p := range parties {
		if err := partyRepo.Create(ctx, p); err != nil {
			log.Warnw("party seed skipped", "code", p.Code, "error", err)
			continue
		}
		log.Infow("party created", "code", p.Code, "name", p.Name)
	}

	products := []*product.Product{
		newDemoProduct("PRD-001", "Cement 50kg", "bag", "180.00", "240.00", "20"),
		newDemoProduct("PRD-002", "Brick", "pcs", "4.50", "7.00", "20"),
		newDemoProduct("PRD-003", "Sand 1t", "ton", "350.00", "520.00", "20"),
	}
	for _, p := range products {
		if err := productRepo.Create(ctx, p); err != nil {
			log.Warnw("product seed skipped", "code", p.Code, "error", err)
			continue
		}
		log.Infow("product created", "code", p.Code, "name", p.Name)
	}

	accounts := []*cashaccount.CashAccount{
		cashaccount.New("KASA-01", "Main Cash Box", cashaccount.KindCash),
		cashaccount.New("BANK-01", "Business Account", cashaccount.KindBank),
	}
	for _, a := range accounts {
		if err := accountRepo.Create(ctx, a); err != nil {
			log.Warnw("cash account seed skipped", "code", a.Code, "error", err)
			continue
		}
		log.Infow("cash account created", "code", a.Code, "name", a.Name)
	}

	return nil
}

func newDemoProduct(code, name, unit, costPrice, salePrice, vatRate string) *product.Product {
	p := product.New(code, name)
	p.Unit = unit
	p.CostPrice = types.MustMoney(costPrice)
	p.SalePrice = types.MustMoney(salePrice)
	p.VATRate = types.MustMoney(vatRate)
	return p
}

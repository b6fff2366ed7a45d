package catalog_repo

import (
	"onmuhasebe/internal/domain"
	"onmuhasebe/internal/domain/catalogs/cashaccount"
	"onmuhasebe/internal/infrastructure/storage/postgres"
)

const cashAccountsTable = "cat_cash_accounts"

// CashAccountRepo implements domain.CatalogRepository for cash accounts.
type CashAccountRepo struct {
	*BaseCatalogRepo[*cashaccount.CashAccount]
}

var _ domain.CatalogRepository[*cashaccount.CashAccount] = (*CashAccountRepo)(nil)

// NewCashAccountRepo creates a new cash account catalog repository.
func NewCashAccountRepo(txm *postgres.TxManager) *CashAccountRepo {
	return &CashAccountRepo{
		BaseCatalogRepo: NewBaseCatalogRepo(
			txm,
			cashAccountsTable,
			postgres.ExtractDBColumns[cashaccount.CashAccount](),
			func() *cashaccount.CashAccount { return &cashaccount.CashAccount{} },
		),
	}
}

package catalog_repo

import (
	"context"
	"fmt"

	"github.com/georgysavva/scany/v2/pgxscan"

	"onmuhasebe/internal/domain"
	"onmuhasebe/internal/domain/catalogs/product"
	"onmuhasebe/internal/infrastructure/storage/postgres"
)

const productsTable = "cat_products"

// ProductRepo implements domain.CatalogRepository for products.
type ProductRepo struct {
	*BaseCatalogRepo[*product.Product]
}

var _ domain.CatalogRepository[*product.Product] = (*ProductRepo)(nil)

// NewProductRepo creates a new product catalog repository.
func NewProductRepo(txm *postgres.TxManager) *ProductRepo {
	return &ProductRepo{
		BaseCatalogRepo: NewBaseCatalogRepo(
			txm,
			productsTable,
			postgres.ExtractDBColumns[product.Product](),
			func() *product.Product { return &product.Product{} },
		),
	}
}

// ListBelowMinimum returns products whose on-hand quantity fell under the
// configured reorder level.
func (r *ProductRepo) ListBelowMinimum(ctx context.Context) ([]*product.Product, error) {
	q := r.baseSelect().
		Where("quantity < min_quantity").
		Where("deletion_mark = false").
		OrderBy("name ASC")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []*product.Product
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &items, sql, args...); err != nil {
		return nil, fmt.Errorf("list below minimum: %w", err)
	}

	return items, nil
}

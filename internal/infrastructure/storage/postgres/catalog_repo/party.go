package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"onmuhasebe/internal/core/entity"
	"onmuhasebe/internal/domain"
	"onmuhasebe/internal/domain/catalogs/party"
	"onmuhasebe/internal/infrastructure/storage/postgres"
)

const partiesTable = "cat_parties"

// PartyRepo implements domain.CatalogRepository for parties.
type PartyRepo struct {
	*BaseCatalogRepo[*party.Party]
}

var _ domain.CatalogRepository[*party.Party] = (*PartyRepo)(nil)

// NewPartyRepo creates a new party catalog repository.
func NewPartyRepo(txm *postgres.TxManager) *PartyRepo {
	return &PartyRepo{
		BaseCatalogRepo: NewBaseCatalogRepo(
			txm,
			partiesTable,
			postgres.ExtractDBColumns[party.Party](),
			func() *party.Party { return &party.Party{} },
		),
	}
}

// ListByKind returns non-deleted parties of one kind.
func (r *PartyRepo) ListByKind(ctx context.Context, kind entity.PartyKind, filter domain.ListFilter) (domain.ListResult[*party.Party], error) {
	result := domain.ListResult[*party.Party]{
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}

	q := r.baseSelect().
		Where(squirrel.Eq{"kind": kind}).
		Where(squirrel.Eq{"deletion_mark": false})

	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		q = q.Where(squirrel.Or{
			squirrel.ILike{"name": pattern},
			squirrel.ILike{"code": pattern},
		})
	}

	countQ := r.Builder().Select("COUNT(*)").FromSelect(q, "sub")
	countSQL, countArgs, err := countQ.ToSql()
	if err != nil {
		return result, fmt.Errorf("build count query: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
		return result, fmt.Errorf("count: %w", err)
	}

	q = q.OrderBy("name ASC")
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return result, fmt.Errorf("build query: %w", err)
	}

	if err := pgxscan.Select(ctx, querier, &result.Items, sql, args...); err != nil {
		return result, fmt.Errorf("list by kind: %w", err)
	}

	return result, nil
}

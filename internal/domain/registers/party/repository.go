// Package party provides the party ledger register: postings against a
// customer or supplier running balance.
package party

import (
	"context"
	"time"

	"onmuhasebe/internal/core/entity"
	"onmuhasebe/internal/core/id"
	"onmuhasebe/internal/core/types"
)

// Repository defines persistence operations for the party ledger.
// Writes are expected to run inside the caller's transaction.
type Repository interface {
	// Entry operations

	// CreateEntry inserts a single ledger entry
	CreateEntry(ctx context.Context, e entity.PartyEntry) error

	// GetEntry retrieves one entry by line id
	GetEntry(ctx context.Context, lineID id.ID) (entity.PartyEntry, error)

	// DeleteEntry removes one entry row
	DeleteEntry(ctx context.Context, lineID id.ID) error

	// GetEntriesBySource retrieves all entries created by a source tuple
	GetEntriesBySource(ctx context.Context, src entity.SourceRef) ([]entity.PartyEntry, error)

	// GetEntriesByParty returns the ledger for one party, date-ordered
	GetEntriesByParty(ctx context.Context, partyID id.ID, filter EntryFilter) ([]entity.PartyEntry, error)

	// Balance operations on the owning party row

	// SumNetBalance computes sum(credit) - sum(debit) over all entries
	SumNetBalance(ctx context.Context, partyID id.ID) (types.Money, error)

	// SetBalance overwrites the cached balance on the party record
	SetBalance(ctx context.Context, partyID id.ID, balance types.Money) error

	// GetBalance returns the cached balance
	GetBalance(ctx context.Context, partyID id.ID) (types.Money, error)
}

// EntryFilter for filtering ledger entries.
type EntryFilter struct {
	Direction  *entity.EntryDirection
	SourceKind *entity.SourceKind
	FromDate   *time.Time
	ToDate     *time.Time
	Limit      int
	Offset     int
}

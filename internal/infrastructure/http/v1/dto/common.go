// Package dto provides Data Transfer Objects for API requests/responses.
package dto

import (
	"onmuhasebe/internal/core/id"

	"github.com/shopspring/decimal"
)

// IDResponse for create operations.
type IDResponse struct {
	ID string `json:"id"`
}

// NewIDResponse creates ID response.
func NewIDResponse(i id.ID) IDResponse {
	return IDResponse{ID: i.String()}
}

// SuccessResponse for operations without data.
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// ErrorResponse for error details.
type ErrorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// ListResponse wraps list results with pagination.
type ListResponse struct {
	Items      any   `json:"items"`
	TotalCount int64 `json:"totalCount"`
	Limit      int   `json:"limit"`
	Offset     int   `json:"offset"`
}

// SetDeletionMarkRequest toggles the soft-delete mark.
type SetDeletionMarkRequest struct {
	Marked bool `json:"marked"`
}

// ReconcileResponse reports the drift found (and repaired) between a
// cached total and its ledger sum.
type ReconcileResponse struct {
	ID       string          `json:"id"`
	Drift    decimal.Decimal `json:"drift"`
	Repaired bool            `json:"repaired"`
}

package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"onmuhasebe/internal/core/apperror"
	"onmuhasebe/internal/core/entity"
	"onmuhasebe/internal/core/id"
	"onmuhasebe/internal/core/tx"
	cashledger "onmuhasebe/internal/domain/registers/cash"
	partyledger "onmuhasebe/internal/domain/registers/party"
	stockledger "onmuhasebe/internal/domain/registers/stock"
	"onmuhasebe/internal/infrastructure/http/v1/dto"
)

// Register services never open transactions themselves; the HTTP layer
// wraps every register mutation here.

// --- Stock register ---

// StockRegisterHandler exposes the stock movement ledger: history, manual
// movements, count adjustments and reconciliation.
type StockRegisterHandler struct {
	*BaseHandler
	service   *stockledger.Service
	txManager tx.Manager
}

// NewStockRegisterHandler creates a new stock register handler.
func NewStockRegisterHandler(base *BaseHandler, service *stockledger.Service, txManager tx.Manager) *StockRegisterHandler {
	return &StockRegisterHandler{
		BaseHandler: base,
		service:     service,
		txManager:   txManager,
	}
}

// ManualStockMovementRequest records a user-entered stock adjustment.
type ManualStockMovementRequest struct {
	ProductID id.ID                    `json:"productId" binding:"required"`
	Date      time.Time                `json:"date"`
	Kind      entity.StockMovementKind `json:"kind,omitempty"`
	Direction entity.StockDirection    `json:"direction" binding:"required"`
	Quantity  decimal.Decimal          `json:"quantity" binding:"required"`
	Note      string                   `json:"note,omitempty"`
}

// CreateMovement handles POST /stock/movements - manual in/out or count
// adjustment. The movement carries a manual source tuple so it stays
// directly deletable.
func (h *StockRegisterHandler) CreateMovement(c *gin.Context) {
	ctx := c.Request.Context()

	var req ManualStockMovementRequest
	if !h.BindJSON(c, &req) {
		return
	}

	kind := req.Kind
	if kind == "" {
		if req.Direction == entity.StockIn {
			kind = entity.StockKindManualIn
		} else {
			kind = entity.StockKindManualOut
		}
	}
	switch kind {
	case entity.StockKindManualIn, entity.StockKindManualOut,
		entity.StockKindCountSurplus, entity.StockKindCountShortage:
	default:
		h.Error(c, apperror.NewValidation("movement kind is not user-enterable").
			WithDetail("value", string(kind)))
		return
	}

	date := req.Date
	if date.IsZero() {
		date = time.Now().UTC()
	}

	var movement entity.StockMovement
	err := h.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		movement, err = h.service.Append(ctx, stockledger.AppendInput{
			ProductID: req.ProductID,
			Date:      date,
			Kind:      kind,
			Direction: req.Direction,
			Quantity:  req.Quantity,
			Source:    entity.SourceRef{SourceKind: entity.SourceManual, SourceID: id.New()},
			Note:      req.Note,
		})
		return err
	})
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, movement)
}

// DeleteMovement handles DELETE /stock/movements/:id - manual rows only.
func (h *StockRegisterHandler) DeleteMovement(c *gin.Context) {
	ctx := c.Request.Context()

	lineID, ok := h.ParseID(c)
	if !ok {
		return
	}

	err := h.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return h.service.DeleteManual(ctx, lineID)
	})
	if err != nil {
		h.Error(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// History handles GET /products/:id/movements
func (h *StockRegisterHandler) History(c *gin.Context) {
	ctx := c.Request.Context()

	productID, ok := h.ParseID(c)
	if !ok {
		return
	}

	filter := stockledger.MovementFilter{
		Limit:  h.ParseIntQuery(c, "limit", 100),
		Offset: h.ParseIntQuery(c, "offset", 0),
	}
	if kindStr := c.Query("kind"); kindStr != "" {
		kind := entity.StockMovementKind(kindStr)
		filter.Kind = &kind
	}
	if dirStr := c.Query("direction"); dirStr != "" {
		dir := entity.StockDirection(dirStr)
		filter.Direction = &dir
	}
	var err error
	if filter.FromDate, err = h.ParseDateQuery(c, "from"); err != nil {
		h.Error(c, err)
		return
	}
	if filter.ToDate, err = h.ParseDateQuery(c, "to"); err != nil {
		h.Error(c, err)
		return
	}

	movements, err := h.service.History(ctx, productID, filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": movements})
}

// Quantity handles GET /products/:id/quantity
func (h *StockRegisterHandler) Quantity(c *gin.Context) {
	ctx := c.Request.Context()

	productID, ok := h.ParseID(c)
	if !ok {
		return
	}

	qty, err := h.service.CurrentQuantity(ctx, productID)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"productId": productID, "quantity": qty})
}

// Reconcile handles POST /products/:id/reconcile - recompute the cached
// quantity from the ledger and repair drift.
func (h *StockRegisterHandler) Reconcile(c *gin.Context) {
	ctx := c.Request.Context()

	productID, ok := h.ParseID(c)
	if !ok {
		return
	}

	var drift decimal.Decimal
	err := h.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		drift, err = h.service.Reconcile(ctx, productID)
		return err
	})
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ReconcileResponse{
		ID:       productID.String(),
		Drift:    drift,
		Repaired: !drift.IsZero(),
	})
}

// --- Party ledger ---

// PartyLedgerHandler exposes the party (receivable/payable) ledger.
type PartyLedgerHandler struct {
	*BaseHandler
	service   *partyledger.Service
	txManager tx.Manager
}

// NewPartyLedgerHandler creates a new party ledger handler.
func NewPartyLedgerHandler(base *BaseHandler, service *partyledger.Service, txManager tx.Manager) *PartyLedgerHandler {
	return &PartyLedgerHandler{
		BaseHandler: base,
		service:     service,
		txManager:   txManager,
	}
}

// Statement handles GET /parties/:id/statement - entries with a running
// balance column.
func (h *PartyLedgerHandler) Statement(c *gin.Context) {
	ctx := c.Request.Context()

	partyID, ok := h.ParseID(c)
	if !ok {
		return
	}

	filter := partyledger.EntryFilter{
		Limit:  h.ParseIntQuery(c, "limit", 100),
		Offset: h.ParseIntQuery(c, "offset", 0),
	}
	if dirStr := c.Query("direction"); dirStr != "" {
		dir := entity.EntryDirection(dirStr)
		filter.Direction = &dir
	}
	if srcStr := c.Query("sourceKind"); srcStr != "" {
		src := entity.SourceKind(srcStr)
		filter.SourceKind = &src
	}
	var err error
	if filter.FromDate, err = h.ParseDateQuery(c, "from"); err != nil {
		h.Error(c, err)
		return
	}
	if filter.ToDate, err = h.ParseDateQuery(c, "to"); err != nil {
		h.Error(c, err)
		return
	}

	lines, err := h.service.Statement(ctx, partyID, filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": lines})
}

// Balance handles GET /parties/:id/balance - net balance from the ledger.
func (h *PartyLedgerHandler) Balance(c *gin.Context) {
	ctx := c.Request.Context()

	partyID, ok := h.ParseID(c)
	if !ok {
		return
	}

	balance, err := h.service.NetBalance(ctx, partyID)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"partyId": partyID, "balance": balance})
}

// DeleteEntry handles DELETE /party-entries/:id - manual entries only.
func (h *PartyLedgerHandler) DeleteEntry(c *gin.Context) {
	ctx := c.Request.Context()

	lineID, ok := h.ParseID(c)
	if !ok {
		return
	}

	err := h.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return h.service.DeleteEntry(ctx, lineID)
	})
	if err != nil {
		h.Error(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// Reconcile handles POST /parties/:id/reconcile
func (h *PartyLedgerHandler) Reconcile(c *gin.Context) {
	ctx := c.Request.Context()

	partyID, ok := h.ParseID(c)
	if !ok {
		return
	}

	var drift decimal.Decimal
	err := h.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		drift, err = h.service.Reconcile(ctx, partyID)
		return err
	})
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ReconcileResponse{
		ID:       partyID.String(),
		Drift:    drift,
		Repaired: !drift.IsZero(),
	})
}

// --- Cash register ---

// CashRegisterHandler exposes the cash movement ledger.
type CashRegisterHandler struct {
	*BaseHandler
	service   *cashledger.Service
	txManager tx.Manager
}

// NewCashRegisterHandler creates a new cash register handler.
func NewCashRegisterHandler(base *BaseHandler, service *cashledger.Service, txManager tx.Manager) *CashRegisterHandler {
	return &CashRegisterHandler{
		BaseHandler: base,
		service:     service,
		txManager:   txManager,
	}
}

// History handles GET /cash-accounts/:id/movements
func (h *CashRegisterHandler) History(c *gin.Context) {
	ctx := c.Request.Context()

	accountID, ok := h.ParseID(c)
	if !ok {
		return
	}

	filter := cashledger.MovementFilter{
		Direction:  entity.CashDirection(c.Query("direction")),
		Kind:       entity.CashMovementKind(c.Query("kind")),
		SourceKind: entity.SourceKind(c.Query("sourceKind")),
		Limit:      h.ParseIntQuery(c, "limit", 100),
		Offset:     h.ParseIntQuery(c, "offset", 0),
	}
	var err error
	if filter.FromDate, err = h.ParseDateQuery(c, "from"); err != nil {
		h.Error(c, err)
		return
	}
	if filter.ToDate, err = h.ParseDateQuery(c, "to"); err != nil {
		h.Error(c, err)
		return
	}

	movements, err := h.service.History(ctx, accountID, filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": movements})
}

// Balance handles GET /cash-accounts/:id/balance - opening plus signed
// movement sum, straight from the ledger.
func (h *CashRegisterHandler) Balance(c *gin.Context) {
	ctx := c.Request.Context()

	accountID, ok := h.ParseID(c)
	if !ok {
		return
	}

	balance, err := h.service.CurrentBalance(ctx, accountID)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"accountId": accountID, "balance": balance})
}

// DeleteMovement handles DELETE /cash-movements/:id - manual rows only.
func (h *CashRegisterHandler) DeleteMovement(c *gin.Context) {
	ctx := c.Request.Context()

	lineID, ok := h.ParseID(c)
	if !ok {
		return
	}

	err := h.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return h.service.DeleteManual(ctx, lineID)
	})
	if err != nil {
		h.Error(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// Reconcile handles POST /cash-accounts/:id/reconcile
func (h *CashRegisterHandler) Reconcile(c *gin.Context) {
	ctx := c.Request.Context()

	accountID, ok := h.ParseID(c)
	if !ok {
		return
	}

	var drift decimal.Decimal
	err := h.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		drift, err = h.service.Reconcile(ctx, accountID)
		return err
	})
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ReconcileResponse{
		ID:       accountID.String(),
		Drift:    drift,
		Repaired: !drift.IsZero(),
	})
}

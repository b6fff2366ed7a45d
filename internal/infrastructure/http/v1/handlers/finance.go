package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"onmuhasebe/internal/core/apperror"
	"onmuhasebe/internal/core/entity"
	"onmuhasebe/internal/domain/finance"
)

// FinanceHandler handles collections, payments, manual debt entries and
// standalone income/expense movements.
type FinanceHandler struct {
	*BaseHandler
	service *finance.Service
}

// NewFinanceHandler creates a new finance handler.
func NewFinanceHandler(base *BaseHandler, service *finance.Service) *FinanceHandler {
	return &FinanceHandler{
		BaseHandler: base,
		service:     service,
	}
}

// RecordCollection handles POST /finance/collections - money received
// from a customer. Posts a party credit and a cash inflow together.
func (h *FinanceHandler) RecordCollection(c *gin.Context) {
	ctx := c.Request.Context()

	var input finance.CollectionInput
	if !h.BindJSON(c, &input) {
		return
	}

	receipt, err := h.service.RecordCollection(ctx, input)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, receipt)
}

// RecordPayment handles POST /finance/payments - money paid to a supplier.
func (h *FinanceHandler) RecordPayment(c *gin.Context) {
	ctx := c.Request.Context()

	var input finance.PaymentInput
	if !h.BindJSON(c, &input) {
		return
	}

	receipt, err := h.service.RecordPayment(ctx, input)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, receipt)
}

// RecordDebtEntry handles POST /finance/debts - a manual party ledger
// adjustment with no cash counterpart.
func (h *FinanceHandler) RecordDebtEntry(c *gin.Context) {
	ctx := c.Request.Context()

	var input finance.DebtInput
	if !h.BindJSON(c, &input) {
		return
	}

	entry, err := h.service.RecordDebtEntry(ctx, input)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, entry)
}

// RecordIncomeExpense handles POST /finance/cash-entries - a standalone
// cash income or expense with no party counterpart.
func (h *FinanceHandler) RecordIncomeExpense(c *gin.Context) {
	ctx := c.Request.Context()

	var input finance.IncomeExpenseInput
	if !h.BindJSON(c, &input) {
		return
	}

	movement, err := h.service.RecordIncomeExpense(ctx, input)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, movement)
}

// Delete handles DELETE /finance/:kind/:id - reverses a finance document
// by its source tuple.
func (h *FinanceHandler) Delete(c *gin.Context) {
	ctx := c.Request.Context()

	kind := entity.SourceKind(c.Param("kind"))
	if !kind.UserDeletable() || kind == entity.SourceManual {
		h.Error(c, apperror.NewValidation("invalid finance document kind").
			WithDetail("value", string(kind)))
		return
	}

	documentID, ok := h.ParseID(c)
	if !ok {
		return
	}

	if err := h.service.Delete(ctx, kind, documentID); err != nil {
		h.Error(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

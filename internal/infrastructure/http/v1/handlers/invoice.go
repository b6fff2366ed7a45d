package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"onmuhasebe/internal/core/apperror"
	"onmuhasebe/internal/core/id"
	"onmuhasebe/internal/domain/invoice"
	"onmuhasebe/internal/infrastructure/http/v1/dto"
)

// InvoiceHandler handles invoice document endpoints. Every mutation posts
// to (or reverses from) the stock, party and cash ledgers atomically; the
// service owns the transaction.
type InvoiceHandler struct {
	*BaseHandler
	service *invoice.Service
}

// NewInvoiceHandler creates a new invoice handler.
func NewInvoiceHandler(base *BaseHandler, service *invoice.Service) *InvoiceHandler {
	return &InvoiceHandler{
		BaseHandler: base,
		service:     service,
	}
}

// Create handles POST /invoices
func (h *InvoiceHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	var intent invoice.Intent
	if !h.BindJSON(c, &intent) {
		return
	}

	inv, err := h.service.Create(ctx, intent)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, inv)
}

// Update handles PUT /invoices/:id - full reversal then repost.
func (h *InvoiceHandler) Update(c *gin.Context) {
	ctx := c.Request.Context()

	invoiceID, ok := h.ParseID(c)
	if !ok {
		return
	}

	var intent invoice.Intent
	if !h.BindJSON(c, &intent) {
		return
	}

	inv, err := h.service.Update(ctx, invoiceID, intent)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, inv)
}

// Delete handles DELETE /invoices/:id - reverses all ledger effects.
func (h *InvoiceHandler) Delete(c *gin.Context) {
	ctx := c.Request.Context()

	invoiceID, ok := h.ParseID(c)
	if !ok {
		return
	}

	if err := h.service.Delete(ctx, invoiceID); err != nil {
		h.Error(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// Get handles GET /invoices/:id
func (h *InvoiceHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()

	invoiceID, ok := h.ParseID(c)
	if !ok {
		return
	}

	inv, err := h.service.GetByID(ctx, invoiceID)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, inv)
}

// List handles GET /invoices
func (h *InvoiceHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	filter, ok := h.parseFilter(c)
	if !ok {
		return
	}

	items, total, err := h.service.List(ctx, filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ListResponse{
		Items:      items,
		TotalCount: total,
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	})
}

// ConvertOrderRequest carries the payment settings for turning an order
// into a posted invoice.
type ConvertOrderRequest struct {
	PaymentMethod invoice.PaymentMethod `json:"paymentMethod" binding:"required"`
	CashAccountID *id.ID                `json:"cashAccountId,omitempty"`
	DueDate       *time.Time            `json:"dueDate,omitempty"`
}

// ConvertOrder handles POST /orders/:id/convert
func (h *InvoiceHandler) ConvertOrder(c *gin.Context) {
	ctx := c.Request.Context()

	orderID, ok := h.ParseID(c)
	if !ok {
		return
	}

	var req ConvertOrderRequest
	if !h.BindJSON(c, &req) {
		return
	}

	inv, err := h.service.ConvertOrderToInvoice(ctx, orderID, req.PaymentMethod, req.CashAccountID, req.DueDate)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, inv)
}

func (h *InvoiceHandler) parseFilter(c *gin.Context) (invoice.Filter, bool) {
	filter := invoice.Filter{
		Search: c.Query("search"),
		Limit:  h.ParseIntQuery(c, "limit", 50),
		Offset: h.ParseIntQuery(c, "offset", 0),
	}

	if typeStr := c.Query("type"); typeStr != "" {
		t := invoice.Type(typeStr)
		if !t.Valid() {
			h.Error(c, apperror.NewValidation("invalid invoice type").WithDetail("value", typeStr))
			return filter, false
		}
		filter.Type = &t
	}

	if partyStr := c.Query("partyId"); partyStr != "" {
		partyID, err := id.Parse(partyStr)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid partyId format"))
			return filter, false
		}
		filter.PartyID = &partyID
	}

	from, err := h.ParseDateQuery(c, "from")
	if err != nil {
		h.Error(c, err)
		return filter, false
	}
	filter.FromDate = from

	to, err := h.ParseDateQuery(c, "to")
	if err != nil {
		h.Error(c, err)
		return filter, false
	}
	filter.ToDate = to

	return filter, true
}

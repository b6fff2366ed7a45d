package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"onmuhasebe/internal/core/apperror"
	"onmuhasebe/internal/core/id"
	"onmuhasebe/internal/domain/order"
	"onmuhasebe/internal/infrastructure/http/v1/dto"
)

// OrderHandler handles sales/purchase order endpoints. Orders never touch
// the ledgers; they only turn into invoices via conversion.
type OrderHandler struct {
	*BaseHandler
	service *order.Service
}

// NewOrderHandler creates a new order handler.
func NewOrderHandler(base *BaseHandler, service *order.Service) *OrderHandler {
	return &OrderHandler{
		BaseHandler: base,
		service:     service,
	}
}

// Create handles POST /orders
func (h *OrderHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	var intent order.Intent
	if !h.BindJSON(c, &intent) {
		return
	}

	ord, err := h.service.Create(ctx, intent)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, ord)
}

// Update handles PUT /orders/:id
func (h *OrderHandler) Update(c *gin.Context) {
	ctx := c.Request.Context()

	orderID, ok := h.ParseID(c)
	if !ok {
		return
	}

	var intent order.Intent
	if !h.BindJSON(c, &intent) {
		return
	}

	ord, err := h.service.Update(ctx, orderID, intent)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, ord)
}

// Delete handles DELETE /orders/:id
func (h *OrderHandler) Delete(c *gin.Context) {
	ctx := c.Request.Context()

	orderID, ok := h.ParseID(c)
	if !ok {
		return
	}

	if err := h.service.Delete(ctx, orderID); err != nil {
		h.Error(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// Get handles GET /orders/:id
func (h *OrderHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()

	orderID, ok := h.ParseID(c)
	if !ok {
		return
	}

	ord, err := h.service.GetByID(ctx, orderID)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, ord)
}

// List handles GET /orders
func (h *OrderHandler) List(c *gin.Context) {
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

func (h *OrderHandler) parseFilter(c *gin.Context) (order.Filter, bool) {
	filter := order.Filter{
		Limit:  h.ParseIntQuery(c, "limit", 50),
		Offset: h.ParseIntQuery(c, "offset", 0),
	}

	if kindStr := c.Query("kind"); kindStr != "" {
		k := order.Kind(kindStr)
		if !k.Valid() {
			h.Error(c, apperror.NewValidation("invalid order kind").WithDetail("value", kindStr))
			return filter, false
		}
		filter.Kind = &k
	}

	if partyStr := c.Query("partyId"); partyStr != "" {
		partyID, err := id.Parse(partyStr)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid partyId format"))
			return filter, false
		}
		filter.PartyID = &partyID
	}

	if invStr := c.Query("invoiced"); invStr != "" {
		val := invStr == "true"
		filter.Invoiced = &val
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

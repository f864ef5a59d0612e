package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"orderdesk_backend/internal/orders/domain"
	"orderdesk_backend/internal/orders/service"
	"orderdesk_backend/internal/orders/transport"
	"orderdesk_backend/platform/httpkit"
	"orderdesk_backend/platform/validator"
)

// Handler handles HTTP requests for orders.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidID        = "invalid order id"
)

// New creates a new orders handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// ListOrders retrieves all orders for the organization.
// GET /api/v1/orders
func (h *Handler) ListOrders(c *gin.Context) {
	orgID, ok := mustGetOrgID(c)
	if !ok {
		return
	}

	result, err := h.svc.List(c.Request.Context(), orgID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// GetOrder retrieves a single order.
// GET /api/v1/orders/:id
func (h *Handler) GetOrder(c *gin.Context) {
	id, orgID, ok := mustGetIDs(c)
	if !ok {
		return
	}

	result, err := h.svc.Get(c.Request.Context(), orgID, id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// CreateOrder ingests a new parsed order.
// POST /api/v1/orders
func (h *Handler) CreateOrder(c *gin.Context) {
	var req transport.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}
	orgID, ok := mustGetOrgID(c)
	if !ok {
		return
	}

	result, err := h.svc.Create(c.Request.Context(), orgID, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, result)
}

// SetLines replaces an order's line items.
// PUT /api/v1/orders/:id/lines
func (h *Handler) SetLines(c *gin.Context) {
	id, orgID, ok := mustGetIDs(c)
	if !ok {
		return
	}

	var req transport.SetLinesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.SetLines(c.Request.Context(), orgID, id, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// SetStatus transitions an order's lifecycle status.
// PUT /api/v1/orders/:id/status
func (h *Handler) SetStatus(c *gin.Context) {
	id, orgID, ok := mustGetIDs(c)
	if !ok {
		return
	}

	var req transport.SetStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.SetStatus(c.Request.Context(), orgID, id, domain.Status(req.Status))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// SetShippingAddress updates an order's delivery address.
// PATCH /api/v1/orders/:id/address
func (h *Handler) SetShippingAddress(c *gin.Context) {
	id, orgID, ok := mustGetIDs(c)
	if !ok {
		return
	}

	var req transport.ShippingAddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.SetShippingAddress(c.Request.Context(), orgID, id, req.Address)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// DeleteOrder removes an order.
// DELETE /api/v1/orders/:id
func (h *Handler) DeleteOrder(c *gin.Context) {
	id, orgID, ok := mustGetIDs(c)
	if !ok {
		return
	}

	if err := h.svc.Delete(c.Request.Context(), orgID, id); httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"deleted": true})
}

// GetSession returns the customer session view for a phone number.
// GET /api/v1/orders/session?phone=...&pinned=...
func (h *Handler) GetSession(c *gin.Context) {
	customerPhone := c.Query("phone")
	if customerPhone == "" {
		httpkit.Error(c, http.StatusBadRequest, "phone is required", nil)
		return
	}
	pinned := uuid.Nil
	if raw := c.Query("pinned"); raw != "" {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			httpkit.Error(c, http.StatusBadRequest, "invalid pinned order id", nil)
			return
		}
		pinned = parsed
	}
	orgID, ok := mustGetOrgID(c)
	if !ok {
		return
	}

	result, err := h.svc.Session(c.Request.Context(), orgID, customerPhone, pinned)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// MergePrevious merges an order into the customer's previous open order.
// POST /api/v1/orders/:id/merge-previous
func (h *Handler) MergePrevious(c *gin.Context) {
	id, orgID, ok := mustGetIDs(c)
	if !ok {
		return
	}

	result, err := h.svc.MergePrevious(c.Request.Context(), orgID, id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// MergeSession collapses a customer's pending orders into one.
// POST /api/v1/orders/session/merge?phone=...
func (h *Handler) MergeSession(c *gin.Context) {
	customerPhone := c.Query("phone")
	if customerPhone == "" {
		httpkit.Error(c, http.StatusBadRequest, "phone is required", nil)
		return
	}
	orgID, ok := mustGetOrgID(c)
	if !ok {
		return
	}

	result, err := h.svc.MergeSession(c.Request.Context(), orgID, customerPhone)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// SplitOrder moves selected lines into a new pending order.
// POST /api/v1/orders/:id/split
func (h *Handler) SplitOrder(c *gin.Context) {
	id, orgID, ok := mustGetIDs(c)
	if !ok {
		return
	}

	var req transport.SplitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.Split(c.Request.Context(), orgID, id, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// GetSummary renders the customer-facing bill text for an order.
// GET /api/v1/orders/:id/summary
func (h *Handler) GetSummary(c *gin.Context) {
	id, orgID, ok := mustGetIDs(c)
	if !ok {
		return
	}

	result, err := h.svc.Summary(c.Request.Context(), orgID, id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func mustGetIDs(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return uuid.UUID{}, uuid.UUID{}, false
	}
	orgID, ok := mustGetOrgID(c)
	if !ok {
		return uuid.UUID{}, uuid.UUID{}, false
	}
	return id, orgID, true
}

func mustGetOrgID(c *gin.Context) (uuid.UUID, bool) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return uuid.UUID{}, false
	}
	orgID := identity.OrgID()
	if orgID == uuid.Nil {
		httpkit.Error(c, http.StatusBadRequest, "organization ID is required", nil)
		return uuid.UUID{}, false
	}
	return orgID, true
}

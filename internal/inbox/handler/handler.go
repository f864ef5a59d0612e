package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"orderdesk_backend/internal/inbox/service"
	"orderdesk_backend/internal/inbox/transport"
	"orderdesk_backend/platform/httpkit"
	"orderdesk_backend/platform/validator"
)

// Handler handles HTTP requests for the inbox.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

// New creates a new inbox handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// ListConversations returns all customer threads with triage status.
// GET /api/v1/inbox/conversations
func (h *Handler) ListConversations(c *gin.Context) {
	orgID, ok := mustGetOrgID(c)
	if !ok {
		return
	}

	result, err := h.svc.ListConversations(c.Request.Context(), orgID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// ListMessages returns the messages on one customer thread.
// GET /api/v1/inbox/conversations/:phone/messages
func (h *Handler) ListMessages(c *gin.Context) {
	orgID, ok := mustGetOrgID(c)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.Query("limit"))

	result, err := h.svc.ListMessages(c.Request.Context(), orgID, c.Param("phone"), limit)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// SendMessage queues an operator reply for WhatsApp delivery.
// POST /api/v1/inbox/messages
func (h *Handler) SendMessage(c *gin.Context) {
	var req transport.SendMessageRequest
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

	result, err := h.svc.Send(c.Request.Context(), orgID, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, result)
}

// RecordInbound ingests an inbound customer message.
// POST /api/v1/inbox/messages/inbound
func (h *Handler) RecordInbound(c *gin.Context) {
	var req transport.InboundMessageRequest
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

	result, err := h.svc.RecordInbound(c.Request.Context(), orgID, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, result)
}

// GetCustomerAutoReply returns a customer's automation state.
// GET /api/v1/inbox/conversations/:phone/auto-reply
func (h *Handler) GetCustomerAutoReply(c *gin.Context) {
	orgID, ok := mustGetOrgID(c)
	if !ok {
		return
	}

	result, err := h.svc.CustomerAutoReply(c.Request.Context(), orgID, c.Param("phone"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// SetCustomerAutoReply toggles auto-reply for one customer.
// PUT /api/v1/inbox/conversations/:phone/auto-reply
func (h *Handler) SetCustomerAutoReply(c *gin.Context) {
	var req transport.SetAutoReplyRequest
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

	result, err := h.svc.SetCustomerAutoReply(c.Request.Context(), orgID, c.Param("phone"), *req.Enabled)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// ResolveInquiry closes a customer's open inquiry.
// POST /api/v1/inbox/conversations/:phone/resolve
func (h *Handler) ResolveInquiry(c *gin.Context) {
	orgID, ok := mustGetOrgID(c)
	if !ok {
		return
	}

	err := h.svc.MarkInquiryResolved(c.Request.Context(), orgID, c.Param("phone"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"resolved": true})
}

// GetOrgSettings returns organization-wide inbox settings.
// GET /api/v1/inbox/settings
func (h *Handler) GetOrgSettings(c *gin.Context) {
	orgID, ok := mustGetOrgID(c)
	if !ok {
		return
	}

	result, err := h.svc.OrgSettings(c.Request.Context(), orgID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// SetOrgAutoReply toggles the organization-wide auto-reply default.
// PUT /api/v1/inbox/settings/auto-reply
func (h *Handler) SetOrgAutoReply(c *gin.Context) {
	var req transport.SetAutoReplyRequest
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

	result, err := h.svc.SetOrgAutoReply(c.Request.Context(), orgID, *req.Enabled)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
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

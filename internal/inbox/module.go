// Package inbox provides the WhatsApp inbox bounded context module:
// customer threads, inquiry tracking and auto-reply state.
package inbox

import (
	"time"

	"orderdesk_backend/internal/events"
	apphttp "orderdesk_backend/internal/http"
	"orderdesk_backend/internal/inbox/handler"
	"orderdesk_backend/internal/inbox/ports"
	"orderdesk_backend/internal/inbox/repository"
	"orderdesk_backend/internal/inbox/service"
	"orderdesk_backend/platform/logger"
	"orderdesk_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the inbox bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    repository.Repository
}

// NewModule creates and initializes the inbox module. The task
// enqueuer may be nil when no scheduler is configured; background
// delivery and follow-ups are then skipped.
func NewModule(pool *pgxpool.Pool, catalog ports.CatalogSource, tasks ports.TaskEnqueuer, bus events.Bus, val *validator.Validator, log *logger.Logger, followUpDelay time.Duration) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, catalog, tasks, bus, log, followUpDelay)
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		service: svc,
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "inbox"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// Repository returns the persistence layer, used by the scheduler
// worker to load and update outbox rows.
func (m *Module) Repository() repository.Repository {
	return m.repo
}

// RegisterRoutes mounts inbox routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Protected.Group("/inbox")
	group.GET("/conversations", m.handler.ListConversations)
	group.GET("/conversations/:phone/messages", m.handler.ListMessages)
	group.GET("/conversations/:phone/auto-reply", m.handler.GetCustomerAutoReply)
	group.PUT("/conversations/:phone/auto-reply", m.handler.SetCustomerAutoReply)
	group.POST("/conversations/:phone/resolve", m.handler.ResolveInquiry)
	group.POST("/messages", m.handler.SendMessage)
	group.POST("/messages/inbound", m.handler.RecordInbound)
	group.GET("/settings", m.handler.GetOrgSettings)
	group.PUT("/settings/auto-reply", m.handler.SetOrgAutoReply)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)

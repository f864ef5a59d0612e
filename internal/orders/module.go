// Package orders provides the order management bounded context module.
package orders

import (
	"orderdesk_backend/internal/events"
	apphttp "orderdesk_backend/internal/http"
	"orderdesk_backend/internal/orders/handler"
	"orderdesk_backend/internal/orders/ports"
	"orderdesk_backend/internal/orders/repository"
	"orderdesk_backend/internal/orders/service"
	"orderdesk_backend/platform/logger"
	"orderdesk_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the orders bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    repository.Repository
}

// NewModule creates and initializes the orders module. The catalog
// source is satisfied by the catalog module's index in main.
func NewModule(pool *pgxpool.Pool, catalog ports.CatalogSource, bus events.Bus, val *validator.Validator, log *logger.Logger, currency string) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, catalog, bus, log, currency)
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		service: svc,
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "orders"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts order routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Protected.Group("/orders")
	group.GET("", m.handler.ListOrders)
	group.POST("", m.handler.CreateOrder)
	group.GET("/session", m.handler.GetSession)
	group.POST("/session/merge", m.handler.MergeSession)
	group.GET("/:id", m.handler.GetOrder)
	group.DELETE("/:id", m.handler.DeleteOrder)
	group.PUT("/:id/lines", m.handler.SetLines)
	group.PUT("/:id/status", m.handler.SetStatus)
	group.PATCH("/:id/address", m.handler.SetShippingAddress)
	group.POST("/:id/merge-previous", m.handler.MergePrevious)
	group.POST("/:id/split", m.handler.SplitOrder)
	group.GET("/:id/summary", m.handler.GetSummary)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)

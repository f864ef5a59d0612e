// Package catalog provides the merchant catalog bounded context module.
package catalog

import (
	"orderdesk_backend/internal/catalog/handler"
	"orderdesk_backend/internal/catalog/index"
	"orderdesk_backend/internal/catalog/repository"
	"orderdesk_backend/internal/catalog/service"
	apphttp "orderdesk_backend/internal/http"
	"orderdesk_backend/platform/logger"
	"orderdesk_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the catalog bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    repository.Repository
	idx     *index.Index
}

// NewModule creates and initializes the catalog module.
func NewModule(pool *pgxpool.Pool, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	idx := index.New(repo, log)
	svc := service.New(repo, idx, log)
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		service: svc,
		repo:    repo,
		idx:     idx,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "catalog"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// Index returns the in-memory product index for other modules' ports.
func (m *Module) Index() *index.Index {
	return m.idx
}

// RegisterRoutes mounts catalog routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Protected.Group("/catalog")
	group.GET("/products", m.handler.ListProducts)
	group.GET("/products/:id", m.handler.GetProductByID)
	group.POST("/products", m.handler.CreateProduct)
	group.PUT("/products/:id", m.handler.UpdateProduct)
	group.DELETE("/products/:id", m.handler.DeleteProduct)
	group.POST("/products/match", m.handler.MatchProduct)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)

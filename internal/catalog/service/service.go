package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"orderdesk_backend/internal/catalog/domain"
	"orderdesk_backend/internal/catalog/index"
	"orderdesk_backend/internal/catalog/match"
	"orderdesk_backend/internal/catalog/repository"
	"orderdesk_backend/internal/catalog/transport"
	"orderdesk_backend/platform/logger"
)

// Service provides business logic for the merchant catalog.
type Service struct {
	repo repository.Repository
	idx  *index.Index
	log  *logger.Logger
}

// New creates a new catalog service.
func New(repo repository.Repository, idx *index.Index, log *logger.Logger) *Service {
	return &Service{repo: repo, idx: idx, log: log}
}

// ActiveProducts returns the cached active product snapshot for an
// organization. Other modules consume this through their ports.
func (s *Service) ActiveProducts(ctx context.Context, organizationID uuid.UUID) ([]domain.Product, error) {
	return s.idx.Products(ctx, organizationID)
}

// CreateProduct creates a new catalog product.
func (s *Service) CreateProduct(ctx context.Context, organizationID uuid.UUID, req transport.CreateProductRequest) (transport.ProductResponse, error) {
	product, err := s.repo.Create(ctx, repository.CreateProductParams{
		OrganizationID: organizationID,
		Canonical:      strings.TrimSpace(req.Canonical),
		Variant:        strings.TrimSpace(req.Variant),
		Brand:          strings.TrimSpace(req.Brand),
		BaseUnit:       strings.TrimSpace(req.BaseUnit),
		PricePerUnit:   req.PricePerUnit,
	})
	if err != nil {
		return transport.ProductResponse{}, err
	}

	s.idx.Invalidate(organizationID)
	return toProductResponse(product), nil
}

// UpdateProduct patches a catalog product.
func (s *Service) UpdateProduct(ctx context.Context, organizationID, id uuid.UUID, req transport.UpdateProductRequest) (transport.ProductResponse, error) {
	product, err := s.repo.Update(ctx, repository.UpdateProductParams{
		ID:             id,
		OrganizationID: organizationID,
		Canonical:      trimmed(req.Canonical),
		Variant:        trimmed(req.Variant),
		Brand:          trimmed(req.Brand),
		BaseUnit:       trimmed(req.BaseUnit),
		PricePerUnit:   req.PricePerUnit,
		IsActive:       req.IsActive,
	})
	if err != nil {
		return transport.ProductResponse{}, err
	}

	s.idx.Invalidate(organizationID)
	return toProductResponse(product), nil
}

// DeleteProduct removes a catalog product.
func (s *Service) DeleteProduct(ctx context.Context, organizationID, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, organizationID, id); err != nil {
		return err
	}
	s.idx.Invalidate(organizationID)
	return nil
}

// GetProductByID retrieves a catalog product by ID.
func (s *Service) GetProductByID(ctx context.Context, organizationID, id uuid.UUID) (transport.ProductResponse, error) {
	product, err := s.repo.GetByID(ctx, organizationID, id)
	if err != nil {
		return transport.ProductResponse{}, err
	}
	return toProductResponse(product), nil
}

// ListProducts retrieves catalog products with search and pagination.
func (s *Service) ListProducts(ctx context.Context, organizationID uuid.UUID, req transport.ListProductsRequest) (transport.ProductListResponse, error) {
	page := req.Page
	pageSize := req.PageSize
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 50
	}
	if pageSize > 100 {
		pageSize = 100
	}

	items, total, err := s.repo.List(ctx, repository.ListProductsParams{
		OrganizationID: organizationID,
		Search:         strings.TrimSpace(req.Search),
		IncludeRetired: req.IncludeRetired,
		Offset:         (page - 1) * pageSize,
		Limit:          pageSize,
	})
	if err != nil {
		return transport.ProductListResponse{}, err
	}

	responses := make([]transport.ProductResponse, 0, len(items))
	for _, item := range items {
		responses = append(responses, toProductResponse(item))
	}

	totalPages := (total + pageSize - 1) / pageSize
	return transport.ProductListResponse{
		Items:      responses,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}, nil
}

// Match resolves a parsed line name against the active catalog snapshot.
func (s *Service) Match(ctx context.Context, organizationID uuid.UUID, req transport.MatchRequest) (transport.MatchResponse, error) {
	products, err := s.idx.Products(ctx, organizationID)
	if err != nil {
		return transport.MatchResponse{}, err
	}

	found := match.Find(req.Canonical, req.Variant, products)
	if found == nil {
		return transport.MatchResponse{Matched: false}, nil
	}

	resp := toProductResponse(*found)
	return transport.MatchResponse{Matched: true, Product: &resp}, nil
}

func toProductResponse(p domain.Product) transport.ProductResponse {
	return transport.ProductResponse{
		ID:           p.ID,
		Canonical:    p.Canonical,
		Variant:      p.Variant,
		Brand:        p.Brand,
		BaseUnit:     p.BaseUnit,
		PricePerUnit: p.PricePerUnit,
		IsActive:     p.IsActive,
		CreatedAt:    p.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    p.UpdatedAt.Format(time.RFC3339),
	}
}

func trimmed(value *string) *string {
	if value == nil {
		return nil
	}
	t := strings.TrimSpace(*value)
	return &t
}

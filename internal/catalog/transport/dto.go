package transport

import "github.com/google/uuid"

type CreateProductRequest struct {
	Canonical    string   `json:"canonical" validate:"required,min=1,max=200"`
	Variant      string   `json:"variant" validate:"max=100"`
	Brand        string   `json:"brand" validate:"max=100"`
	BaseUnit     string   `json:"baseUnit" validate:"max=50"`
	PricePerUnit *float64 `json:"pricePerUnit,omitempty" validate:"omitempty,min=0"`
}

type UpdateProductRequest struct {
	Canonical    *string  `json:"canonical,omitempty" validate:"omitempty,min=1,max=200"`
	Variant      *string  `json:"variant,omitempty" validate:"omitempty,max=100"`
	Brand        *string  `json:"brand,omitempty" validate:"omitempty,max=100"`
	BaseUnit     *string  `json:"baseUnit,omitempty" validate:"omitempty,max=50"`
	PricePerUnit *float64 `json:"pricePerUnit,omitempty" validate:"omitempty,min=0"`
	IsActive     *bool    `json:"isActive,omitempty"`
}

type ListProductsRequest struct {
	Search         string `form:"search" validate:"max=100"`
	IncludeRetired bool   `form:"includeRetired"`
	Page           int    `form:"page" validate:"omitempty,min=1"`
	PageSize       int    `form:"pageSize" validate:"omitempty,min=1,max=100"`
}

type MatchRequest struct {
	Canonical string `json:"canonical" validate:"required,max=200"`
	Variant   string `json:"variant" validate:"max=100"`
}

type ProductResponse struct {
	ID           uuid.UUID `json:"id"`
	Canonical    string    `json:"canonical"`
	Variant      string    `json:"variant,omitempty"`
	Brand        string    `json:"brand,omitempty"`
	BaseUnit     string    `json:"baseUnit,omitempty"`
	PricePerUnit *float64  `json:"pricePerUnit,omitempty"`
	IsActive     bool      `json:"isActive"`
	CreatedAt    string    `json:"createdAt"`
	UpdatedAt    string    `json:"updatedAt"`
}

type ProductListResponse struct {
	Items      []ProductResponse `json:"items"`
	Total      int               `json:"total"`
	Page       int               `json:"page"`
	PageSize   int               `json:"pageSize"`
	TotalPages int               `json:"totalPages"`
}

type MatchResponse struct {
	Matched bool             `json:"matched"`
	Product *ProductResponse `json:"product,omitempty"`
}

package products

// CreateProductRequest carries a new catalog item.
type CreateProductRequest struct {
	Code       string  `json:"code" validate:"required,max=50"`
	Name       string  `json:"name" validate:"required,max=200"`
	UnitID     int64   `json:"unit_id" validate:"required,gt=0"`
	BrandID    *int64  `json:"brand_id,omitempty" validate:"omitempty,gt=0"`
	CategoryID *int64  `json:"category_id,omitempty" validate:"omitempty,gt=0"`
	CostPrice  float64 `json:"cost_price" validate:"gte=0"`
	SalePrice  float64 `json:"sale_price" validate:"gte=0"`
}

// UpdateProductRequest carries partial catalog item updates.
type UpdateProductRequest struct {
	Name       *string  `json:"name,omitempty" validate:"omitempty,max=200"`
	UnitID     *int64   `json:"unit_id,omitempty" validate:"omitempty,gt=0"`
	BrandID    *int64   `json:"brand_id,omitempty" validate:"omitempty,gt=0"`
	CategoryID *int64   `json:"category_id,omitempty" validate:"omitempty,gt=0"`
	CostPrice  *float64 `json:"cost_price,omitempty" validate:"omitempty,gte=0"`
	SalePrice  *float64 `json:"sale_price,omitempty" validate:"omitempty,gte=0"`
	IsActive   *bool    `json:"is_active,omitempty"`
}

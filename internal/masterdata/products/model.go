package products

import "time"

// Product is a catalog item sold or purchased by the business.
type Product struct {
	ID         int64     `json:"id"`
	Code       string    `json:"code"`
	Name       string    `json:"name"`
	UnitID     int64     `json:"unit_id"`
	UnitCode   string    `json:"unit_code"`
	BrandID    *int64    `json:"brand_id,omitempty"`
	CategoryID *int64    `json:"category_id,omitempty"`
	CostPrice  float64   `json:"cost_price"`
	SalePrice  float64   `json:"sale_price"`
	IsActive   bool      `json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// LookupResult is the shape consumed by the note composer when staging a line.
type LookupResult struct {
	ID        int64   `json:"id"`
	Code      string  `json:"code"`
	Name      string  `json:"name"`
	UnitCode  string  `json:"unit_code"`
	SalePrice float64 `json:"sale_price"`
	CostPrice float64 `json:"cost_price"`
}

package mirror

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is a platform catalog product mirrored into the local store,
// keyed by (TenantID, ExternalID). Variants travel with the product as a
// single document; the sync never writes variants independently.
type Product struct {
	ID         uuid.UUID
	TenantID   uuid.UUID
	ExternalID string

	Title       string
	Handle      string
	ProductType string
	Vendor      string
	Status      string

	// Tags is the platform tag list flattened to a comma-joined string
	Tags string

	Variants []Variant

	PlatformCreatedAt *time.Time
	PlatformUpdatedAt *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Variant is one sellable variation of a mirrored product
type Variant struct {
	ExternalID string `json:"external_id"`
	Title      string `json:"title"`
	SKU        string `json:"sku"`
	// Price and CompareAtPrice are parsed from string amounts; missing or
	// unparseable values become zero
	Price             decimal.Decimal `json:"price"`
	CompareAtPrice    decimal.Decimal `json:"compare_at_price"`
	InventoryQuantity int             `json:"inventory_quantity"`
	Position          int             `json:"position"`
}

// ProductRepository persists mirrored products
type ProductRepository interface {
	// Upsert creates or updates by (tenant_id, external_id)
	Upsert(ctx context.Context, product *Product) error

	// UpsertBatch upserts a full page of products
	UpsertBatch(ctx context.Context, products []*Product) error

	// FindByExternalID returns the mirrored product, or shared.ErrNotFound
	FindByExternalID(ctx context.Context, tenantID uuid.UUID, externalID string) (*Product, error)

	// CountForTenant counts mirrored products for a tenant
	CountForTenant(ctx context.Context, tenantID uuid.UUID) (int64, error)
}

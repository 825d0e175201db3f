package mirror

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Order is a platform order mirrored into the local store, keyed by
// (TenantID, ExternalID).
//
// LocalCustomerID is a soft join resolved best-effort at upsert time: it may
// be nil when the referenced customer has not been mirrored yet, and callers
// must not assume referential integrity across entity types during a sync
// window.
type Order struct {
	ID         uuid.UUID
	TenantID   uuid.UUID
	ExternalID string

	OrderNumber        string
	ExternalCustomerID string
	LocalCustomerID    *uuid.UUID

	Email             string
	FinancialStatus   string
	FulfillmentStatus string

	// Monetary fields are parsed from string amounts; missing or
	// unparseable values become zero so aggregate sums never see nulls
	TotalPrice    decimal.Decimal
	SubtotalPrice decimal.Decimal
	TotalTax      decimal.Decimal
	TotalDiscount decimal.Decimal
	Currency      string

	LineItems []LineItem

	PlatformCreatedAt *time.Time
	PlatformUpdatedAt *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// LineItem is one purchased line on a mirrored order
type LineItem struct {
	ExternalID        string          `json:"external_id"`
	ExternalProductID string          `json:"external_product_id"`
	ExternalVariantID string          `json:"external_variant_id"`
	Title             string          `json:"title"`
	SKU               string          `json:"sku"`
	Quantity          int             `json:"quantity"`
	Price             decimal.Decimal `json:"price"`
}

// OrderRepository persists mirrored orders
type OrderRepository interface {
	// Upsert creates or updates by (tenant_id, external_id)
	Upsert(ctx context.Context, order *Order) error

	// UpsertBatch upserts a full page of orders
	UpsertBatch(ctx context.Context, orders []*Order) error

	// FindByExternalID returns the mirrored order, or shared.ErrNotFound
	FindByExternalID(ctx context.Context, tenantID uuid.UUID, externalID string) (*Order, error)

	// CountForTenant counts mirrored orders for a tenant
	CountForTenant(ctx context.Context, tenantID uuid.UUID) (int64, error)
}

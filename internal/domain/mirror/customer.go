package mirror

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Customer is a platform customer mirrored into the local store, keyed by
// (TenantID, ExternalID). Every write is an upsert; replaying the same page
// after a crash rewrites identical data.
type Customer struct {
	ID         uuid.UUID
	TenantID   uuid.UUID
	ExternalID string

	Email     string
	FirstName string
	LastName  string
	Phone     string

	OrdersCount int
	// TotalSpent is parsed from the platform's string amount; missing or
	// unparseable values become zero, never null
	TotalSpent decimal.Decimal

	// Tags is the platform tag list flattened to a comma-joined string
	Tags string

	AcceptsMarketing  bool
	PlatformCreatedAt *time.Time
	PlatformUpdatedAt *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// FullName returns the display name assembled from first and last name
func (c *Customer) FullName() string {
	switch {
	case c.FirstName == "":
		return c.LastName
	case c.LastName == "":
		return c.FirstName
	default:
		return c.FirstName + " " + c.LastName
	}
}

// CustomerRepository persists mirrored customers
type CustomerRepository interface {
	// Upsert creates or updates by (tenant_id, external_id)
	Upsert(ctx context.Context, customer *Customer) error

	// UpsertBatch upserts a full page of customers
	UpsertBatch(ctx context.Context, customers []*Customer) error

	// FindByExternalID returns the mirrored customer, or shared.ErrNotFound
	FindByExternalID(ctx context.Context, tenantID uuid.UUID, externalID string) (*Customer, error)

	// CountForTenant counts mirrored customers for a tenant
	CountForTenant(ctx context.Context, tenantID uuid.UUID) (int64, error)
}

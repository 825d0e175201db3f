package tenant

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Tenant is one onboarded merchant whose platform data is mirrored
// independently of all others
type Tenant struct {
	ID   uuid.UUID
	Name string

	// ShopDomain and AccessToken are the platform credentials used by the
	// sync workers for this tenant
	ShopDomain  string
	AccessToken string

	IsActive bool

	// LastSyncAt is a denormalized convenience timestamp for dashboards,
	// updated whenever any entity type completes a sync
	LastSyncAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Credentials returns the platform credentials for this tenant
func (t *Tenant) Credentials() Credentials {
	return Credentials{ShopDomain: t.ShopDomain, AccessToken: t.AccessToken}
}

// Credentials carries what the platform client needs to call the external
// API on behalf of one tenant
type Credentials struct {
	ShopDomain  string
	AccessToken string
}

// Repository persists tenants
type Repository interface {
	// FindByID returns the tenant, or shared.ErrNotFound
	FindByID(ctx context.Context, id uuid.UUID) (*Tenant, error)

	// FindActive returns all tenants with IsActive set
	FindActive(ctx context.Context) ([]Tenant, error)

	// Save creates or updates a tenant
	Save(ctx context.Context, t *Tenant) error

	// UpdateLastSyncAt sets the denormalized last-sync timestamp
	UpdateLastSyncAt(ctx context.Context, id uuid.UUID, at time.Time) error
}

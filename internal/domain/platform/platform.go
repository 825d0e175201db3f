package platform

import (
	"context"
	"errors"

	"github.com/shopmirror/backend/internal/domain/mirror"
	"github.com/shopmirror/backend/internal/domain/tenant"
)

// Errors surfaced by platform adapters. The sync layer treats all of them
// as run failures; persistent credential problems are indistinguishable
// from transient ones at this level and are handled by the quarantine
// threshold instead.
var (
	ErrAuthFailed      = errors.New("platform: authentication failed")
	ErrRateLimited     = errors.New("platform: rate limited")
	ErrUnavailable     = errors.New("platform: temporarily unavailable")
	ErrRequestFailed   = errors.New("platform: request failed")
	ErrInvalidResponse = errors.New("platform: invalid response")
)

// CustomerPage is one page of a cursor-paginated customer walk
type CustomerPage struct {
	Records    []*mirror.Customer
	NextCursor string
	HasMore    bool
}

// ProductPage is one page of a cursor-paginated product walk
type ProductPage struct {
	Records    []*mirror.Product
	NextCursor string
	HasMore    bool
}

// Client is the port to the external commerce platform. Concrete adapters
// live in the infrastructure layer; the sync workers only see this
// interface. The platform applies its own rate limiting; callers bound
// consumption per call through the limit parameter only.
type Client interface {
	// FetchCustomersPage fetches one page of customers. An empty afterCursor
	// starts from the beginning of the collection.
	FetchCustomersPage(ctx context.Context, creds tenant.Credentials, afterCursor string, limit int) (*CustomerPage, error)

	// FetchProductsPage fetches one page of products, variants included
	FetchProductsPage(ctx context.Context, creds tenant.Credentials, afterCursor string, limit int) (*ProductPage, error)

	// FetchOrdersSince fetches orders with IDs strictly greater than
	// sinceID, in increasing ID order. An empty sinceID starts from the
	// beginning.
	FetchOrdersSince(ctx context.Context, creds tenant.Credentials, sinceID string, limit int) ([]*mirror.Order, error)
}

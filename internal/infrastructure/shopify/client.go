package shopify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"time"

	"github.com/shopmirror/backend/internal/domain/mirror"
	"github.com/shopmirror/backend/internal/domain/platform"
	"github.com/shopmirror/backend/internal/domain/tenant"
)

const (
	// maxResponseSize limits the response body size to prevent memory exhaustion
	maxResponseSize = 10 * 1024 * 1024 // 10MB max response

	accessTokenHeader = "X-Shopify-Access-Token"
)

// linkNextPattern extracts the page_info token from the rel="next" entry of
// an RFC 5988 Link header
var linkNextPattern = regexp.MustCompile(`<[^>]*[?&]page_info=([^&>]+)[^>]*>;\s*rel="next"`)

// Client implements platform.Client against the Shopify Admin REST API.
// Cursor pagination rides on the Link response header; order pagination uses
// since_id with ascending IDs.
type Client struct {
	config     *Config
	httpClient *http.Client
}

// NewClient creates a new Shopify Admin API client
func NewClient(config *Config) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: time.Duration(config.TimeoutSeconds) * time.Second,
		},
	}, nil
}

// FetchCustomersPage fetches one page of customers. An empty afterCursor
// starts from the beginning of the collection.
func (c *Client) FetchCustomersPage(ctx context.Context, creds tenant.Credentials, afterCursor string, limit int) (*platform.CustomerPage, error) {
	query := url.Values{}
	query.Set("limit", strconv.Itoa(limit))
	if afterCursor != "" {
		query.Set("page_info", afterCursor)
	}

	body, nextCursor, err := c.doGet(ctx, creds, "customers.json", query)
	if err != nil {
		return nil, err
	}

	var resp customersResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", platform.ErrInvalidResponse, err)
	}

	records := make([]*mirror.Customer, len(resp.Customers))
	for i, wc := range resp.Customers {
		records[i] = mapCustomer(wc)
	}

	return &platform.CustomerPage{
		Records:    records,
		NextCursor: nextCursor,
		HasMore:    nextCursor != "",
	}, nil
}

// FetchProductsPage fetches one page of products, variants included
func (c *Client) FetchProductsPage(ctx context.Context, creds tenant.Credentials, afterCursor string, limit int) (*platform.ProductPage, error) {
	query := url.Values{}
	query.Set("limit", strconv.Itoa(limit))
	if afterCursor != "" {
		query.Set("page_info", afterCursor)
	}

	body, nextCursor, err := c.doGet(ctx, creds, "products.json", query)
	if err != nil {
		return nil, err
	}

	var resp productsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", platform.ErrInvalidResponse, err)
	}

	records := make([]*mirror.Product, len(resp.Products))
	for i, wp := range resp.Products {
		records[i] = mapProduct(wp)
	}

	return &platform.ProductPage{
		Records:    records,
		NextCursor: nextCursor,
		HasMore:    nextCursor != "",
	}, nil
}

// FetchOrdersSince fetches orders with IDs strictly greater than sinceID in
// increasing ID order. An empty sinceID starts from the beginning.
func (c *Client) FetchOrdersSince(ctx context.Context, creds tenant.Credentials, sinceID string, limit int) ([]*mirror.Order, error) {
	query := url.Values{}
	query.Set("limit", strconv.Itoa(limit))
	query.Set("status", "any")
	query.Set("order", "id asc")
	if sinceID != "" {
		query.Set("since_id", sinceID)
	}

	body, _, err := c.doGet(ctx, creds, "orders.json", query)
	if err != nil {
		return nil, err
	}

	var resp ordersResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", platform.ErrInvalidResponse, err)
	}

	orders := make([]*mirror.Order, len(resp.Orders))
	for i, wo := range resp.Orders {
		orders[i] = mapOrder(wo)
	}
	return orders, nil
}

// ---------------------------------------------------------------------------
// HTTP plumbing
// ---------------------------------------------------------------------------

// doGet performs one authenticated GET and returns the body and the
// page_info cursor extracted from the Link header, if any
func (c *Client) doGet(ctx context.Context, creds tenant.Credentials, resource string, query url.Values) ([]byte, string, error) {
	base := c.config.BaseURLOverride
	if base == "" {
		base = "https://" + creds.ShopDomain
	}
	requestURL := fmt.Sprintf("%s/admin/api/%s/%s?%s", base, c.config.APIVersion, resource, query.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("shopify: failed to create request: %w", err)
	}
	req.Header.Set(accessTokenHeader, creds.AccessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", platform.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, "", fmt.Errorf("shopify: failed to read response: %w", err)
	}

	if err := mapStatusError(resp.StatusCode); err != nil {
		return nil, "", err
	}

	return body, nextPageInfo(resp.Header.Get("Link")), nil
}

// mapStatusError maps HTTP status codes to platform errors
func mapStatusError(status int) error {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return fmt.Errorf("%w: HTTP %d", platform.ErrAuthFailed, status)
	case status == http.StatusTooManyRequests:
		return fmt.Errorf("%w: HTTP %d", platform.ErrRateLimited, status)
	case status >= 500:
		return fmt.Errorf("%w: HTTP %d", platform.ErrUnavailable, status)
	case status >= 400:
		return fmt.Errorf("%w: HTTP %d", platform.ErrRequestFailed, status)
	default:
		return nil
	}
}

// nextPageInfo extracts the rel="next" page_info token from a Link header.
// Returns empty when there is no next page.
func nextPageInfo(linkHeader string) string {
	if linkHeader == "" {
		return ""
	}
	matches := linkNextPattern.FindStringSubmatch(linkHeader)
	if len(matches) < 2 {
		return ""
	}
	return matches[1]
}

// ---------------------------------------------------------------------------
// Wire-to-domain mapping
// ---------------------------------------------------------------------------

func mapCustomer(wc wireCustomer) *mirror.Customer {
	return &mirror.Customer{
		ExternalID:        strconv.FormatInt(wc.ID, 10),
		Email:             wc.Email,
		FirstName:         wc.FirstName,
		LastName:          wc.LastName,
		Phone:             wc.Phone,
		OrdersCount:       wc.OrdersCount,
		TotalSpent:        parseMoney(wc.TotalSpent),
		Tags:              wc.Tags,
		AcceptsMarketing:  wc.AcceptsMarketing,
		PlatformCreatedAt: wc.CreatedAt,
		PlatformUpdatedAt: wc.UpdatedAt,
	}
}

func mapProduct(wp wireProduct) *mirror.Product {
	variants := make([]mirror.Variant, len(wp.Variants))
	for i, wv := range wp.Variants {
		variants[i] = mirror.Variant{
			ExternalID:        strconv.FormatInt(wv.ID, 10),
			Title:             wv.Title,
			SKU:               wv.SKU,
			Price:             parseMoney(wv.Price),
			CompareAtPrice:    parseMoney(wv.CompareAtPrice),
			InventoryQuantity: wv.InventoryQuantity,
			Position:          wv.Position,
		}
	}

	return &mirror.Product{
		ExternalID:        strconv.FormatInt(wp.ID, 10),
		Title:             wp.Title,
		Handle:            wp.Handle,
		ProductType:       wp.ProductType,
		Vendor:            wp.Vendor,
		Status:            wp.Status,
		Tags:              wp.Tags,
		Variants:          variants,
		PlatformCreatedAt: wp.CreatedAt,
		PlatformUpdatedAt: wp.UpdatedAt,
	}
}

func mapOrder(wo wireOrder) *mirror.Order {
	items := make([]mirror.LineItem, len(wo.LineItems))
	for i, wi := range wo.LineItems {
		items[i] = mirror.LineItem{
			ExternalID:        strconv.FormatInt(wi.ID, 10),
			ExternalProductID: formatOptionalID(wi.ProductID),
			ExternalVariantID: formatOptionalID(wi.VariantID),
			Title:             wi.Title,
			SKU:               wi.SKU,
			Quantity:          wi.Quantity,
			Price:             parseMoney(wi.Price),
		}
	}

	order := &mirror.Order{
		ExternalID:        strconv.FormatInt(wo.ID, 10),
		OrderNumber:       wo.Name,
		Email:             wo.Email,
		FinancialStatus:   wo.FinancialStatus,
		FulfillmentStatus: wo.FulfillmentStatus,
		TotalPrice:        parseMoney(wo.TotalPrice),
		SubtotalPrice:     parseMoney(wo.SubtotalPrice),
		TotalTax:          parseMoney(wo.TotalTax),
		TotalDiscount:     parseMoney(wo.TotalDiscounts),
		Currency:          wo.Currency,
		LineItems:         items,
		PlatformCreatedAt: wo.CreatedAt,
		PlatformUpdatedAt: wo.UpdatedAt,
	}

	if wo.Customer != nil && wo.Customer.ID != 0 {
		order.ExternalCustomerID = strconv.FormatInt(wo.Customer.ID, 10)
	}

	return order
}

func formatOptionalID(id int64) string {
	if id == 0 {
		return ""
	}
	return strconv.FormatInt(id, 10)
}

// Ensure Client implements platform.Client
var _ platform.Client = (*Client)(nil)

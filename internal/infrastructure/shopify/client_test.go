package shopify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopmirror/backend/internal/domain/platform"
	"github.com/shopmirror/backend/internal/domain/tenant"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, tenant.Credentials) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClient(&Config{
		APIVersion:      DefaultAPIVersion,
		TimeoutSeconds:  5,
		BaseURLOverride: srv.URL,
	})
	require.NoError(t, err)

	return client, tenant.Credentials{
		ShopDomain:  "acme.myshopify.com",
		AccessToken: "shpat_test",
	}
}

func TestClient_FetchCustomersPage(t *testing.T) {
	t.Run("maps records and extracts the next cursor", func(t *testing.T) {
		client, creds := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/admin/api/"+DefaultAPIVersion+"/customers.json", r.URL.Path)
			assert.Equal(t, "shpat_test", r.Header.Get("X-Shopify-Access-Token"))
			assert.Equal(t, "250", r.URL.Query().Get("limit"))
			assert.Empty(t, r.URL.Query().Get("page_info"))

			w.Header().Set("Link", `<https://acme.myshopify.com/admin/api/2024-01/customers.json?limit=250&page_info=abc123>; rel="next"`)
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"customers":[
				{"id":1001,"email":"jane@example.com","first_name":"Jane","last_name":"Doe",
				 "orders_count":7,"total_spent":"149.95","tags":"vip, wholesale","accepts_marketing":true}
			]}`))
		})

		page, err := client.FetchCustomersPage(context.Background(), creds, "", 250)
		require.NoError(t, err)

		assert.Equal(t, "abc123", page.NextCursor)
		assert.True(t, page.HasMore)
		require.Len(t, page.Records, 1)

		c := page.Records[0]
		assert.Equal(t, "1001", c.ExternalID)
		assert.Equal(t, "jane@example.com", c.Email)
		assert.Equal(t, 7, c.OrdersCount)
		assert.True(t, c.TotalSpent.Equal(decimal.RequireFromString("149.95")))
		assert.Equal(t, "vip, wholesale", c.Tags)
		assert.True(t, c.AcceptsMarketing)
	})

	t.Run("last page has no Link header and no cursor", func(t *testing.T) {
		client, creds := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "abc123", r.URL.Query().Get("page_info"))
			_, _ = w.Write([]byte(`{"customers":[]}`))
		})

		page, err := client.FetchCustomersPage(context.Background(), creds, "abc123", 250)
		require.NoError(t, err)
		assert.Empty(t, page.NextCursor)
		assert.False(t, page.HasMore)
		assert.Empty(t, page.Records)
	})

	t.Run("ignores a previous-only Link header", func(t *testing.T) {
		client, creds := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Link", `<https://acme.myshopify.com/admin/api/2024-01/customers.json?page_info=prev999>; rel="previous"`)
			_, _ = w.Write([]byte(`{"customers":[]}`))
		})

		page, err := client.FetchCustomersPage(context.Background(), creds, "x", 250)
		require.NoError(t, err)
		assert.Empty(t, page.NextCursor)
	})

	t.Run("malformed body is an invalid response", func(t *testing.T) {
		client, creds := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`not json`))
		})

		_, err := client.FetchCustomersPage(context.Background(), creds, "", 250)
		assert.ErrorIs(t, err, platform.ErrInvalidResponse)
	})
}

func TestClient_FetchProductsPage(t *testing.T) {
	client, creds := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/admin/api/"+DefaultAPIVersion+"/products.json", r.URL.Path)
		_, _ = w.Write([]byte(`{"products":[
			{"id":2001,"title":"Widget","handle":"widget","status":"active","vendor":"Acme",
			 "variants":[
				{"id":3001,"title":"Small","sku":"W-S","price":"9.99","compare_at_price":"","inventory_quantity":12,"position":1},
				{"id":3002,"title":"Large","sku":"W-L","price":"14.99","compare_at_price":"19.99","inventory_quantity":3,"position":2}
			]}
		]}`))
	})

	page, err := client.FetchProductsPage(context.Background(), creds, "", 250)
	require.NoError(t, err)
	require.Len(t, page.Records, 1)

	p := page.Records[0]
	assert.Equal(t, "2001", p.ExternalID)
	assert.Equal(t, "Widget", p.Title)
	require.Len(t, p.Variants, 2)
	assert.Equal(t, "3001", p.Variants[0].ExternalID)
	assert.True(t, p.Variants[0].Price.Equal(decimal.RequireFromString("9.99")))
	// Missing compare-at price parses to zero
	assert.True(t, p.Variants[0].CompareAtPrice.IsZero())
	assert.True(t, p.Variants[1].CompareAtPrice.Equal(decimal.RequireFromString("19.99")))
}

func TestClient_FetchOrdersSince(t *testing.T) {
	t.Run("requests ascending IDs past the mark and maps the batch", func(t *testing.T) {
		client, creds := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/admin/api/"+DefaultAPIVersion+"/orders.json", r.URL.Path)
			assert.Equal(t, "4000", r.URL.Query().Get("since_id"))
			assert.Equal(t, "any", r.URL.Query().Get("status"))
			assert.Equal(t, "id asc", r.URL.Query().Get("order"))

			_, _ = w.Write([]byte(`{"orders":[
				{"id":4001,"name":"#1001","email":"jane@example.com",
				 "customer":{"id":1001},
				 "financial_status":"paid","total_price":"59.98","subtotal_price":"49.98",
				 "total_tax":"10.00","total_discounts":"0.00","currency":"USD",
				 "line_items":[{"id":5001,"product_id":2001,"variant_id":3001,"title":"Widget","sku":"W-S","quantity":2,"price":"24.99"}]},
				{"id":4002,"name":"#1002","customer":null,"total_price":"0.00","line_items":[]}
			]}`))
		})

		orders, err := client.FetchOrdersSince(context.Background(), creds, "4000", 250)
		require.NoError(t, err)
		require.Len(t, orders, 2)

		o := orders[0]
		assert.Equal(t, "4001", o.ExternalID)
		assert.Equal(t, "#1001", o.OrderNumber)
		assert.Equal(t, "1001", o.ExternalCustomerID)
		assert.True(t, o.TotalPrice.Equal(decimal.RequireFromString("59.98")))
		require.Len(t, o.LineItems, 1)
		assert.Equal(t, "2001", o.LineItems[0].ExternalProductID)
		assert.Equal(t, 2, o.LineItems[0].Quantity)

		// Guest checkout has no customer reference
		assert.Empty(t, orders[1].ExternalCustomerID)
	})

	t.Run("omits since_id on the first walk", func(t *testing.T) {
		client, creds := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.False(t, r.URL.Query().Has("since_id"))
			_, _ = w.Write([]byte(`{"orders":[]}`))
		})

		orders, err := client.FetchOrdersSince(context.Background(), creds, "", 250)
		require.NoError(t, err)
		assert.Empty(t, orders)
	})
}

func TestClient_ErrorMapping(t *testing.T) {
	cases := []struct {
		name    string
		status  int
		wantErr error
	}{
		{"unauthorized", http.StatusUnauthorized, platform.ErrAuthFailed},
		{"forbidden", http.StatusForbidden, platform.ErrAuthFailed},
		{"rate limited", http.StatusTooManyRequests, platform.ErrRateLimited},
		{"server error", http.StatusInternalServerError, platform.ErrUnavailable},
		{"bad gateway", http.StatusBadGateway, platform.ErrUnavailable},
		{"not found", http.StatusNotFound, platform.ErrRequestFailed},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client, creds := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
			})

			_, err := client.FetchCustomersPage(context.Background(), creds, "", 250)
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestNextPageInfo(t *testing.T) {
	t.Run("both relations present", func(t *testing.T) {
		header := `<https://x.myshopify.com/admin/api/2024-01/customers.json?page_info=prev1&limit=250>; rel="previous", ` +
			`<https://x.myshopify.com/admin/api/2024-01/customers.json?page_info=next2&limit=250>; rel="next"`
		assert.Equal(t, "next2", nextPageInfo(header))
	})

	t.Run("empty header", func(t *testing.T) {
		assert.Empty(t, nextPageInfo(""))
	})
}

func TestParseMoney(t *testing.T) {
	assert.True(t, parseMoney("12.34").Equal(decimal.RequireFromString("12.34")))
	assert.True(t, parseMoney("").IsZero())
	assert.True(t, parseMoney("not-a-number").IsZero())
}

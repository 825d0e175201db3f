package shopify

import (
	"time"

	"github.com/shopspring/decimal"
)

// Wire types for the Shopify Admin REST API. Monetary amounts arrive as
// strings and tag lists arrive pre-joined with ", ".

type customersResponse struct {
	Customers []wireCustomer `json:"customers"`
}

type wireCustomer struct {
	ID               int64      `json:"id"`
	Email            string     `json:"email"`
	FirstName        string     `json:"first_name"`
	LastName         string     `json:"last_name"`
	Phone            string     `json:"phone"`
	OrdersCount      int        `json:"orders_count"`
	TotalSpent       string     `json:"total_spent"`
	Tags             string     `json:"tags"`
	AcceptsMarketing bool       `json:"accepts_marketing"`
	CreatedAt        *time.Time `json:"created_at"`
	UpdatedAt        *time.Time `json:"updated_at"`
}

type productsResponse struct {
	Products []wireProduct `json:"products"`
}

type wireProduct struct {
	ID          int64         `json:"id"`
	Title       string        `json:"title"`
	Handle      string        `json:"handle"`
	ProductType string        `json:"product_type"`
	Vendor      string        `json:"vendor"`
	Status      string        `json:"status"`
	Tags        string        `json:"tags"`
	Variants    []wireVariant `json:"variants"`
	CreatedAt   *time.Time    `json:"created_at"`
	UpdatedAt   *time.Time    `json:"updated_at"`
}

type wireVariant struct {
	ID                int64  `json:"id"`
	Title             string `json:"title"`
	SKU               string `json:"sku"`
	Price             string `json:"price"`
	CompareAtPrice    string `json:"compare_at_price"`
	InventoryQuantity int    `json:"inventory_quantity"`
	Position          int    `json:"position"`
}

type ordersResponse struct {
	Orders []wireOrder `json:"orders"`
}

type wireOrder struct {
	ID                int64          `json:"id"`
	Name              string         `json:"name"`
	Email             string         `json:"email"`
	Customer          *wireOrderCust `json:"customer"`
	FinancialStatus   string         `json:"financial_status"`
	FulfillmentStatus string         `json:"fulfillment_status"`
	TotalPrice        string         `json:"total_price"`
	SubtotalPrice     string         `json:"subtotal_price"`
	TotalTax          string         `json:"total_tax"`
	TotalDiscounts    string         `json:"total_discounts"`
	Currency          string         `json:"currency"`
	LineItems         []wireLineItem `json:"line_items"`
	CreatedAt         *time.Time     `json:"created_at"`
	UpdatedAt         *time.Time     `json:"updated_at"`
}

type wireOrderCust struct {
	ID int64 `json:"id"`
}

type wireLineItem struct {
	ID        int64  `json:"id"`
	ProductID int64  `json:"product_id"`
	VariantID int64  `json:"variant_id"`
	Title     string `json:"title"`
	SKU       string `json:"sku"`
	Quantity  int    `json:"quantity"`
	Price     string `json:"price"`
}

// parseMoney parses a string amount; missing or malformed values become zero
// so downstream aggregates never see nulls
func parseMoney(s string) decimal.Decimal {
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/shopmirror/backend/internal/domain/mirror"
)

// ---------------------------------------------------------------------------
// MirrorCustomerModel
// ---------------------------------------------------------------------------

// MirrorCustomerModel is the persistence model for mirrored platform customers
type MirrorCustomerModel struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key"`
	TenantID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_mirror_customers_tenant_external,priority:1"`
	ExternalID string    `gorm:"type:varchar(100);not null;uniqueIndex:idx_mirror_customers_tenant_external,priority:2"`

	Email     string `gorm:"type:varchar(255);index"`
	FirstName string `gorm:"type:varchar(100)"`
	LastName  string `gorm:"type:varchar(100)"`
	Phone     string `gorm:"type:varchar(50)"`

	OrdersCount int             `gorm:"not null;default:0"`
	TotalSpent  decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0"`

	Tags             string `gorm:"type:text"`
	AcceptsMarketing bool   `gorm:"not null;default:false"`

	PlatformCreatedAt *time.Time
	PlatformUpdatedAt *time.Time
	CreatedAt         time.Time `gorm:"not null"`
	UpdatedAt         time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (MirrorCustomerModel) TableName() string {
	return "mirror_customers"
}

// ToDomain converts the persistence model to a domain mirror.Customer
func (m *MirrorCustomerModel) ToDomain() *mirror.Customer {
	return &mirror.Customer{
		ID:                m.ID,
		TenantID:          m.TenantID,
		ExternalID:        m.ExternalID,
		Email:             m.Email,
		FirstName:         m.FirstName,
		LastName:          m.LastName,
		Phone:             m.Phone,
		OrdersCount:       m.OrdersCount,
		TotalSpent:        m.TotalSpent,
		Tags:              m.Tags,
		AcceptsMarketing:  m.AcceptsMarketing,
		PlatformCreatedAt: m.PlatformCreatedAt,
		PlatformUpdatedAt: m.PlatformUpdatedAt,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}
}

// MirrorCustomerModelFromDomain creates a persistence model from a domain customer
func MirrorCustomerModelFromDomain(c *mirror.Customer) *MirrorCustomerModel {
	return &MirrorCustomerModel{
		ID:                c.ID,
		TenantID:          c.TenantID,
		ExternalID:        c.ExternalID,
		Email:             c.Email,
		FirstName:         c.FirstName,
		LastName:          c.LastName,
		Phone:             c.Phone,
		OrdersCount:       c.OrdersCount,
		TotalSpent:        c.TotalSpent,
		Tags:              c.Tags,
		AcceptsMarketing:  c.AcceptsMarketing,
		PlatformCreatedAt: c.PlatformCreatedAt,
		PlatformUpdatedAt: c.PlatformUpdatedAt,
		CreatedAt:         c.CreatedAt,
		UpdatedAt:         c.UpdatedAt,
	}
}

// ---------------------------------------------------------------------------
// MirrorProductModel
// ---------------------------------------------------------------------------

// MirrorProductModel is the persistence model for mirrored catalog products.
// Variants are stored as a JSONB document; the sync always writes the whole
// product.
type MirrorProductModel struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key"`
	TenantID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_mirror_products_tenant_external,priority:1"`
	ExternalID string    `gorm:"type:varchar(100);not null;uniqueIndex:idx_mirror_products_tenant_external,priority:2"`

	Title       string `gorm:"type:varchar(255);not null"`
	Handle      string `gorm:"type:varchar(255);index"`
	ProductType string `gorm:"type:varchar(100)"`
	Vendor      string `gorm:"type:varchar(100)"`
	Status      string `gorm:"type:varchar(20)"`
	Tags        string `gorm:"type:text"`

	VariantsJSON string `gorm:"type:jsonb;column:variants"`

	PlatformCreatedAt *time.Time
	PlatformUpdatedAt *time.Time
	CreatedAt         time.Time `gorm:"not null"`
	UpdatedAt         time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (MirrorProductModel) TableName() string {
	return "mirror_products"
}

// ToDomain converts the persistence model to a domain mirror.Product
func (m *MirrorProductModel) ToDomain() *mirror.Product {
	product := &mirror.Product{
		ID:                m.ID,
		TenantID:          m.TenantID,
		ExternalID:        m.ExternalID,
		Title:             m.Title,
		Handle:            m.Handle,
		ProductType:       m.ProductType,
		Vendor:            m.Vendor,
		Status:            m.Status,
		Tags:              m.Tags,
		Variants:          make([]mirror.Variant, 0),
		PlatformCreatedAt: m.PlatformCreatedAt,
		PlatformUpdatedAt: m.PlatformUpdatedAt,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}

	if m.VariantsJSON != "" {
		var variants []mirror.Variant
		if err := json.Unmarshal([]byte(m.VariantsJSON), &variants); err == nil {
			product.Variants = variants
		}
	}

	return product
}

// MirrorProductModelFromDomain creates a persistence model from a domain product
func MirrorProductModelFromDomain(p *mirror.Product) *MirrorProductModel {
	m := &MirrorProductModel{
		ID:                p.ID,
		TenantID:          p.TenantID,
		ExternalID:        p.ExternalID,
		Title:             p.Title,
		Handle:            p.Handle,
		ProductType:       p.ProductType,
		Vendor:            p.Vendor,
		Status:            p.Status,
		Tags:              p.Tags,
		VariantsJSON:      "[]",
		PlatformCreatedAt: p.PlatformCreatedAt,
		PlatformUpdatedAt: p.PlatformUpdatedAt,
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
	}

	if len(p.Variants) > 0 {
		if jsonBytes, err := json.Marshal(p.Variants); err == nil {
			m.VariantsJSON = string(jsonBytes)
		}
	}

	return m
}

// ---------------------------------------------------------------------------
// MirrorOrderModel
// ---------------------------------------------------------------------------

// MirrorOrderModel is the persistence model for mirrored platform orders.
// LocalCustomerID is nullable: the soft join may not resolve while the
// customer collection is still catching up.
type MirrorOrderModel struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key"`
	TenantID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_mirror_orders_tenant_external,priority:1"`
	ExternalID string    `gorm:"type:varchar(100);not null;uniqueIndex:idx_mirror_orders_tenant_external,priority:2"`

	OrderNumber        string     `gorm:"type:varchar(50);index"`
	ExternalCustomerID string     `gorm:"type:varchar(100);index"`
	LocalCustomerID    *uuid.UUID `gorm:"type:uuid;index"`

	Email             string `gorm:"type:varchar(255)"`
	FinancialStatus   string `gorm:"type:varchar(30)"`
	FulfillmentStatus string `gorm:"type:varchar(30)"`

	TotalPrice    decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0"`
	SubtotalPrice decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0"`
	TotalTax      decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0"`
	TotalDiscount decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0"`
	Currency      string          `gorm:"type:varchar(10)"`

	LineItemsJSON string `gorm:"type:jsonb;column:line_items"`

	PlatformCreatedAt *time.Time
	PlatformUpdatedAt *time.Time
	CreatedAt         time.Time `gorm:"not null"`
	UpdatedAt         time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (MirrorOrderModel) TableName() string {
	return "mirror_orders"
}

// ToDomain converts the persistence model to a domain mirror.Order
func (m *MirrorOrderModel) ToDomain() *mirror.Order {
	order := &mirror.Order{
		ID:                 m.ID,
		TenantID:           m.TenantID,
		ExternalID:         m.ExternalID,
		OrderNumber:        m.OrderNumber,
		ExternalCustomerID: m.ExternalCustomerID,
		LocalCustomerID:    m.LocalCustomerID,
		Email:              m.Email,
		FinancialStatus:    m.FinancialStatus,
		FulfillmentStatus:  m.FulfillmentStatus,
		TotalPrice:         m.TotalPrice,
		SubtotalPrice:      m.SubtotalPrice,
		TotalTax:           m.TotalTax,
		TotalDiscount:      m.TotalDiscount,
		Currency:           m.Currency,
		LineItems:          make([]mirror.LineItem, 0),
		PlatformCreatedAt:  m.PlatformCreatedAt,
		PlatformUpdatedAt:  m.PlatformUpdatedAt,
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
	}

	if m.LineItemsJSON != "" {
		var items []mirror.LineItem
		if err := json.Unmarshal([]byte(m.LineItemsJSON), &items); err == nil {
			order.LineItems = items
		}
	}

	return order
}

// MirrorOrderModelFromDomain creates a persistence model from a domain order
func MirrorOrderModelFromDomain(o *mirror.Order) *MirrorOrderModel {
	m := &MirrorOrderModel{
		ID:                 o.ID,
		TenantID:           o.TenantID,
		ExternalID:         o.ExternalID,
		OrderNumber:        o.OrderNumber,
		ExternalCustomerID: o.ExternalCustomerID,
		LocalCustomerID:    o.LocalCustomerID,
		Email:              o.Email,
		FinancialStatus:    o.FinancialStatus,
		FulfillmentStatus:  o.FulfillmentStatus,
		TotalPrice:         o.TotalPrice,
		SubtotalPrice:      o.SubtotalPrice,
		TotalTax:           o.TotalTax,
		TotalDiscount:      o.TotalDiscount,
		Currency:           o.Currency,
		LineItemsJSON:      "[]",
		PlatformCreatedAt:  o.PlatformCreatedAt,
		PlatformUpdatedAt:  o.PlatformUpdatedAt,
		CreatedAt:          o.CreatedAt,
		UpdatedAt:          o.UpdatedAt,
	}

	if len(o.LineItems) > 0 {
		if jsonBytes, err := json.Marshal(o.LineItems); err == nil {
			m.LineItemsJSON = string(jsonBytes)
		}
	}

	return m
}

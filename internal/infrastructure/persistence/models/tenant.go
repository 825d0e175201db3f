package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopmirror/backend/internal/domain/tenant"
)

// TenantModel is the persistence model for the Tenant entity
type TenantModel struct {
	ID   uuid.UUID `gorm:"type:uuid;primary_key"`
	Name string    `gorm:"type:varchar(255);not null"`

	ShopDomain  string `gorm:"type:varchar(255);not null;uniqueIndex"`
	AccessToken string `gorm:"type:varchar(255);not null"`

	IsActive   bool `gorm:"not null;default:true;index"`
	LastSyncAt *time.Time

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (TenantModel) TableName() string {
	return "tenants"
}

// ToDomain converts the persistence model to a domain tenant.Tenant
func (m *TenantModel) ToDomain() *tenant.Tenant {
	return &tenant.Tenant{
		ID:          m.ID,
		Name:        m.Name,
		ShopDomain:  m.ShopDomain,
		AccessToken: m.AccessToken,
		IsActive:    m.IsActive,
		LastSyncAt:  m.LastSyncAt,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

// TenantModelFromDomain creates a persistence model from a domain tenant
func TenantModelFromDomain(t *tenant.Tenant) *TenantModel {
	return &TenantModel{
		ID:          t.ID,
		Name:        t.Name,
		ShopDomain:  t.ShopDomain,
		AccessToken: t.AccessToken,
		IsActive:    t.IsActive,
		LastSyncAt:  t.LastSyncAt,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

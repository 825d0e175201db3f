package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopmirror/backend/internal/domain/mirror"
	"github.com/shopmirror/backend/internal/domain/shared"
	"github.com/shopmirror/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// mirrorUpsertColumns are the columns rewritten when an upsert hits an
// existing (tenant_id, external_id) row. ID and CreatedAt are kept from the
// original insert.
func customerUpsertColumns() []string {
	return []string{
		"email", "first_name", "last_name", "phone",
		"orders_count", "total_spent", "tags", "accepts_marketing",
		"platform_created_at", "platform_updated_at", "updated_at",
	}
}

// GormMirrorCustomerRepository implements mirror.CustomerRepository using GORM
type GormMirrorCustomerRepository struct {
	db *gorm.DB
}

// NewGormMirrorCustomerRepository creates a new GormMirrorCustomerRepository
func NewGormMirrorCustomerRepository(db *gorm.DB) *GormMirrorCustomerRepository {
	return &GormMirrorCustomerRepository{db: db}
}

// Upsert creates or updates a mirrored customer by (tenant_id, external_id)
func (r *GormMirrorCustomerRepository) Upsert(ctx context.Context, customer *mirror.Customer) error {
	return r.UpsertBatch(ctx, []*mirror.Customer{customer})
}

// UpsertBatch upserts a full page of mirrored customers in one statement
func (r *GormMirrorCustomerRepository) UpsertBatch(ctx context.Context, customers []*mirror.Customer) error {
	if len(customers) == 0 {
		return nil
	}

	customerModels := make([]*models.MirrorCustomerModel, len(customers))
	for i, c := range customers {
		customerModels[i] = models.MirrorCustomerModelFromDomain(c)
	}

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "tenant_id"}, {Name: "external_id"}},
			DoUpdates: clause.AssignmentColumns(customerUpsertColumns()),
		}).
		Create(customerModels).Error
}

// FindByExternalID finds a mirrored customer by its platform ID within a tenant
func (r *GormMirrorCustomerRepository) FindByExternalID(ctx context.Context, tenantID uuid.UUID, externalID string) (*mirror.Customer, error) {
	var model models.MirrorCustomerModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND external_id = ?", tenantID, externalID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// CountForTenant counts mirrored customers for a tenant
func (r *GormMirrorCustomerRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.MirrorCustomerModel{}).
		Where("tenant_id = ?", tenantID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Ensure GormMirrorCustomerRepository implements mirror.CustomerRepository
var _ mirror.CustomerRepository = (*GormMirrorCustomerRepository)(nil)

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

func productUpsertColumns() []string {
	return []string{
		"title", "handle", "product_type", "vendor", "status", "tags",
		"variants", "platform_created_at", "platform_updated_at", "updated_at",
	}
}

// GormMirrorProductRepository implements mirror.ProductRepository using GORM
type GormMirrorProductRepository struct {
	db *gorm.DB
}

// NewGormMirrorProductRepository creates a new GormMirrorProductRepository
func NewGormMirrorProductRepository(db *gorm.DB) *GormMirrorProductRepository {
	return &GormMirrorProductRepository{db: db}
}

// Upsert creates or updates a mirrored product by (tenant_id, external_id)
func (r *GormMirrorProductRepository) Upsert(ctx context.Context, product *mirror.Product) error {
	return r.UpsertBatch(ctx, []*mirror.Product{product})
}

// UpsertBatch upserts a full page of mirrored products in one statement.
// Variants ride along inside the product document.
func (r *GormMirrorProductRepository) UpsertBatch(ctx context.Context, products []*mirror.Product) error {
	if len(products) == 0 {
		return nil
	}

	productModels := make([]*models.MirrorProductModel, len(products))
	for i, p := range products {
		productModels[i] = models.MirrorProductModelFromDomain(p)
	}

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "tenant_id"}, {Name: "external_id"}},
			DoUpdates: clause.AssignmentColumns(productUpsertColumns()),
		}).
		Create(productModels).Error
}

// FindByExternalID finds a mirrored product by its platform ID within a tenant
func (r *GormMirrorProductRepository) FindByExternalID(ctx context.Context, tenantID uuid.UUID, externalID string) (*mirror.Product, error) {
	var model models.MirrorProductModel
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

// CountForTenant counts mirrored products for a tenant
func (r *GormMirrorProductRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.MirrorProductModel{}).
		Where("tenant_id = ?", tenantID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Ensure GormMirrorProductRepository implements mirror.ProductRepository
var _ mirror.ProductRepository = (*GormMirrorProductRepository)(nil)

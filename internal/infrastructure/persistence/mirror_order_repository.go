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

func orderUpsertColumns() []string {
	return []string{
		"order_number", "external_customer_id", "local_customer_id",
		"email", "financial_status", "fulfillment_status",
		"total_price", "subtotal_price", "total_tax", "total_discount",
		"currency", "line_items",
		"platform_created_at", "platform_updated_at", "updated_at",
	}
}

// GormMirrorOrderRepository implements mirror.OrderRepository using GORM
type GormMirrorOrderRepository struct {
	db *gorm.DB
}

// NewGormMirrorOrderRepository creates a new GormMirrorOrderRepository
func NewGormMirrorOrderRepository(db *gorm.DB) *GormMirrorOrderRepository {
	return &GormMirrorOrderRepository{db: db}
}

// Upsert creates or updates a mirrored order by (tenant_id, external_id)
func (r *GormMirrorOrderRepository) Upsert(ctx context.Context, order *mirror.Order) error {
	return r.UpsertBatch(ctx, []*mirror.Order{order})
}

// UpsertBatch upserts a full page of mirrored orders in one statement
func (r *GormMirrorOrderRepository) UpsertBatch(ctx context.Context, orders []*mirror.Order) error {
	if len(orders) == 0 {
		return nil
	}

	orderModels := make([]*models.MirrorOrderModel, len(orders))
	for i, o := range orders {
		orderModels[i] = models.MirrorOrderModelFromDomain(o)
	}

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "tenant_id"}, {Name: "external_id"}},
			DoUpdates: clause.AssignmentColumns(orderUpsertColumns()),
		}).
		Create(orderModels).Error
}

// FindByExternalID finds a mirrored order by its platform ID within a tenant
func (r *GormMirrorOrderRepository) FindByExternalID(ctx context.Context, tenantID uuid.UUID, externalID string) (*mirror.Order, error) {
	var model models.MirrorOrderModel
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

// CountForTenant counts mirrored orders for a tenant
func (r *GormMirrorOrderRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.MirrorOrderModel{}).
		Where("tenant_id = ?", tenantID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Ensure GormMirrorOrderRepository implements mirror.OrderRepository
var _ mirror.OrderRepository = (*GormMirrorOrderRepository)(nil)

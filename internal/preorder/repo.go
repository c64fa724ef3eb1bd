package preorder

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/inkwellbooks/inkwell-backend/pkg/db/models"
)

// PreOrderRepository exposes persistence operations for pre-order records.
type PreOrderRepository interface {
	WithTx(tx *gorm.DB) PreOrderRepository
	Create(ctx context.Context, row *models.PreOrder) (*models.PreOrder, error)
	Update(ctx context.Context, row *models.PreOrder) (*models.PreOrder, error)
	UpdateAmounts(ctx context.Context, id uuid.UUID, quantity, totalCents int) error
	FindByIDAndCustomer(ctx context.Context, id, customerID uuid.UUID) (*models.PreOrder, error)
	ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]models.PreOrder, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ClearCartLinks(ctx context.Context, preOrderID uuid.UUID) error
}

// Repository persists pre-order records.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a pre-order repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) PreOrderRepository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// Create inserts a new pre-order row.
func (r *Repository) Create(ctx context.Context, row *models.PreOrder) (*models.PreOrder, error) {
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

// Update saves the provided pre-order.
func (r *Repository) Update(ctx context.Context, row *models.PreOrder) (*models.PreOrder, error) {
	if err := r.db.WithContext(ctx).Save(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

// UpdateAmounts syncs quantity and total when the linked cart line changes.
func (r *Repository) UpdateAmounts(ctx context.Context, id uuid.UUID, quantity, totalCents int) error {
	return r.db.WithContext(ctx).
		Model(&models.PreOrder{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"quantity":    quantity,
			"total_cents": totalCents,
		}).Error
}

// FindByIDAndCustomer returns a pre-order restricted to the owning customer.
func (r *Repository) FindByIDAndCustomer(ctx context.Context, id, customerID uuid.UUID) (*models.PreOrder, error) {
	var row models.PreOrder
	err := r.db.WithContext(ctx).
		Where("id = ? AND customer_id = ?", id, customerID).
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// ListByCustomer returns the customer's pre-orders, newest first.
func (r *Repository) ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]models.PreOrder, error) {
	var rows []models.PreOrder
	err := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("created_at DESC").
		Find(&rows).Error
	return rows, err
}

// Delete removes the pre-order record.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&models.PreOrder{}).Error
}

// ClearCartLinks deletes cart lines that reference the pre-order so a
// cancelled or fulfilled pre-order leaves no dangling cart entry.
func (r *Repository) ClearCartLinks(ctx context.Context, preOrderID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("pre_order_id = ?", preOrderID).
		Delete(&models.CartLine{}).Error
}

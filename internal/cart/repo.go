package cart

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/inkwellbooks/inkwell-backend/pkg/db/models"
)

// CartRepository exposes persistence operations for cart lines.
type CartRepository interface {
	WithTx(tx *gorm.DB) CartRepository
	Create(ctx context.Context, line *models.CartLine) (*models.CartLine, error)
	Update(ctx context.Context, line *models.CartLine) (*models.CartLine, error)
	FindByIDAndCustomer(ctx context.Context, id, customerID uuid.UUID) (*models.CartLine, error)
	FindByCustomerAndBook(ctx context.Context, customerID, bookID uuid.UUID) (*models.CartLine, error)
	ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]models.CartLine, error)
	ListActiveForCheckout(ctx context.Context, customerID uuid.UUID) ([]models.CartLine, error)
	DeleteByIDsAndCustomer(ctx context.Context, ids []uuid.UUID, customerID uuid.UUID) error
}

// Repository persists cart lines.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a cart repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) CartRepository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// Create inserts a new cart line.
func (r *Repository) Create(ctx context.Context, line *models.CartLine) (*models.CartLine, error) {
	if err := r.db.WithContext(ctx).Create(line).Error; err != nil {
		return nil, err
	}
	return line, nil
}

// Update saves the provided cart line.
func (r *Repository) Update(ctx context.Context, line *models.CartLine) (*models.CartLine, error) {
	if err := r.db.WithContext(ctx).Save(line).Error; err != nil {
		return nil, err
	}
	return line, nil
}

// FindByIDAndCustomer returns a cart line restricted to the owning customer.
func (r *Repository) FindByIDAndCustomer(ctx context.Context, id, customerID uuid.UUID) (*models.CartLine, error) {
	var line models.CartLine
	err := r.db.WithContext(ctx).
		Where("id = ? AND customer_id = ?", id, customerID).
		First(&line).Error
	if err != nil {
		return nil, err
	}
	return &line, nil
}

// FindByCustomerAndBook returns the customer's existing line for a book.
func (r *Repository) FindByCustomerAndBook(ctx context.Context, customerID, bookID uuid.UUID) (*models.CartLine, error) {
	var line models.CartLine
	err := r.db.WithContext(ctx).
		Where("customer_id = ? AND book_id = ?", customerID, bookID).
		First(&line).Error
	if err != nil {
		return nil, err
	}
	return &line, nil
}

// ListByCustomer returns every cart line owned by the customer.
func (r *Repository) ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]models.CartLine, error) {
	var rows []models.CartLine
	err := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}

// ListActiveForCheckout returns lines eligible for stock reservation:
// not saved-for-later and not deferred to a pre-order.
func (r *Repository) ListActiveForCheckout(ctx context.Context, customerID uuid.UUID) ([]models.CartLine, error) {
	var rows []models.CartLine
	err := r.db.WithContext(ctx).
		Where("customer_id = ? AND saved = ? AND pre_order_id IS NULL", customerID, false).
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}

// DeleteByIDsAndCustomer removes the given lines. The ownership predicate
// means ids belonging to other customers simply do not match.
func (r *Repository) DeleteByIDsAndCustomer(ctx context.Context, ids []uuid.UUID, customerID uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Where("id IN ? AND customer_id = ?", ids, customerID).
		Delete(&models.CartLine{}).Error
}

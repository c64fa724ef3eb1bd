package payments

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/inkwellbooks/inkwell-backend/pkg/db/models"
	"github.com/inkwellbooks/inkwell-backend/pkg/enums"
)

// PaymentRepository exposes persistence operations for payment records.
type PaymentRepository interface {
	WithTx(tx *gorm.DB) PaymentRepository
	Create(ctx context.Context, row *models.Payment) (*models.Payment, error)
	Update(ctx context.Context, row *models.Payment) (*models.Payment, error)
	FindByIDAndCustomer(ctx context.Context, id, customerID uuid.UUID) (*models.Payment, error)
	FindPendingByIDAndTransaction(ctx context.Context, id uuid.UUID, transactionID string) (*models.Payment, error)
	FindActiveByOrder(ctx context.Context, orderID uuid.UUID) (*models.Payment, error)
	SumRefundsFor(ctx context.Context, paymentID uuid.UUID) (int, error)
}

// Repository persists payment rows.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a payment repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) PaymentRepository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// Create inserts a new payment row.
func (r *Repository) Create(ctx context.Context, row *models.Payment) (*models.Payment, error) {
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

// Update saves the provided payment.
func (r *Repository) Update(ctx context.Context, row *models.Payment) (*models.Payment, error) {
	if err := r.db.WithContext(ctx).Save(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

// FindByIDAndCustomer returns a payment restricted to the owning customer.
func (r *Repository) FindByIDAndCustomer(ctx context.Context, id, customerID uuid.UUID) (*models.Payment, error) {
	var row models.Payment
	err := r.db.WithContext(ctx).
		Where("id = ? AND customer_id = ?", id, customerID).
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// FindPendingByIDAndTransaction matches the (id, transaction_id) pair against
// a pending row; completion requires both to line up.
func (r *Repository) FindPendingByIDAndTransaction(ctx context.Context, id uuid.UUID, transactionID string) (*models.Payment, error) {
	var row models.Payment
	err := r.db.WithContext(ctx).
		Where("id = ? AND transaction_id = ? AND status = ?", id, transactionID, enums.PaymentStatusPending).
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// FindActiveByOrder returns the order's authoritative payment: the non-refund
// row that has not itself been refunded.
func (r *Repository) FindActiveByOrder(ctx context.Context, orderID uuid.UUID) (*models.Payment, error) {
	var row models.Payment
	err := r.db.WithContext(ctx).
		Where("order_id = ? AND refund_of_id IS NULL AND status IN ?", orderID, []enums.PaymentStatus{
			enums.PaymentStatusPending,
			enums.PaymentStatusCompleted,
		}).
		Order("created_at DESC").
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// SumRefundsFor returns the absolute total already refunded against a payment.
func (r *Repository) SumRefundsFor(ctx context.Context, paymentID uuid.UUID) (int, error) {
	var total *int
	err := r.db.WithContext(ctx).
		Model(&models.Payment{}).
		Select("SUM(amount_cents)").
		Where("refund_of_id = ?", paymentID).
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	if total == nil {
		return 0, nil
	}
	return -*total, nil
}

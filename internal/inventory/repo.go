package inventory

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/inkwellbooks/inkwell-backend/pkg/db/models"
)

// StockRepository performs the guarded stock mutations.
type StockRepository interface {
	WithTx(tx *gorm.DB) StockRepository
	DecrementGuarded(ctx context.Context, bookID uuid.UUID, qty int) (bool, error)
	Increment(ctx context.Context, bookID uuid.UUID, qty int) error
	StockFor(ctx context.Context, bookID uuid.UUID) (int, error)
}

// Repository mutates book stock counts.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a stock repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) StockRepository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// DecrementGuarded decrements stock only when enough remains. The stock check
// lives in the WHERE clause so concurrent decrements serialize on the row;
// RowsAffected 0 means the guard failed.
func (r *Repository) DecrementGuarded(ctx context.Context, bookID uuid.UUID, qty int) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Book{}).
		Where("id = ? AND stock_qty >= ?", bookID, qty).
		Update("stock_qty", gorm.Expr("stock_qty - ?", qty))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// Increment adds stock back, used when a pre-ordered title arrives.
func (r *Repository) Increment(ctx context.Context, bookID uuid.UUID, qty int) error {
	return r.db.WithContext(ctx).
		Model(&models.Book{}).
		Where("id = ?", bookID).
		Update("stock_qty", gorm.Expr("stock_qty + ?", qty)).Error
}

// StockFor reads the current stock count for shortage reporting.
func (r *Repository) StockFor(ctx context.Context, bookID uuid.UUID) (int, error) {
	var book models.Book
	err := r.db.WithContext(ctx).
		Select("stock_qty").
		Where("id = ?", bookID).
		First(&book).Error
	if err != nil {
		return 0, err
	}
	return book.StockQty, nil
}

package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgerrors "github.com/inkwellbooks/inkwell-backend/pkg/errors"
)

// Request asks for qty units of a title. Title travels along so shortage
// messages can name the book without a second lookup.
type Request struct {
	BookID   uuid.UUID
	Title    string
	Quantity int
}

// Shortage describes one title that could not be reserved.
type Shortage struct {
	BookID    uuid.UUID `json:"book_id"`
	Title     string    `json:"title"`
	Requested int       `json:"requested"`
	Available int       `json:"available"`
}

// Service is the single authority for stock mutations.
type Service interface {
	Reserve(ctx context.Context, tx *gorm.DB, requests []Request) error
	Restock(ctx context.Context, tx *gorm.DB, requests []Request) error
}

type service struct {
	repo StockRepository
}

// NewService builds the inventory service.
func NewService(repo StockRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("stock repository required")
	}
	return &service{repo: repo}, nil
}

// Reserve decrements stock for every request as one atomic unit. It must run
// inside the caller's transaction: on any shortage the returned error carries
// every short title and the caller's rollback undoes the decrements that did
// land. Selling down to exactly zero is allowed.
func (s *service) Reserve(ctx context.Context, tx *gorm.DB, requests []Request) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "reserve requires a transaction")
	}
	if len(requests) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "nothing to reserve")
	}
	for _, req := range requests {
		if req.Quantity <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "reserve quantity must be positive")
		}
	}

	repo := s.repo.WithTx(tx)
	var shortages []Shortage
	for _, req := range requests {
		ok, err := repo.DecrementGuarded(ctx, req.BookID, req.Quantity)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeTransactionFailed, err, "reserving stock")
		}
		if ok {
			continue
		}
		available, err := repo.StockFor(ctx, req.BookID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeTransactionFailed, err, "reading stock")
		}
		shortages = append(shortages, Shortage{
			BookID:    req.BookID,
			Title:     req.Title,
			Requested: req.Quantity,
			Available: available,
		})
	}

	if len(shortages) > 0 {
		titles := make([]string, 0, len(shortages))
		for _, short := range shortages {
			titles = append(titles, short.Title)
		}
		return pkgerrors.New(
			pkgerrors.CodeInsufficientStock,
			fmt.Sprintf("insufficient stock for %s", strings.Join(titles, ", ")),
		).WithDetails(map[string]any{"shortages": shortages})
	}
	return nil
}

// Restock adds units back: pre-ordered titles arriving in the warehouse, or
// copies returned by a full refund. A nil tx runs against the base connection.
func (s *service) Restock(ctx context.Context, tx *gorm.DB, requests []Request) error {
	if len(requests) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "nothing to restock")
	}
	for _, req := range requests {
		if req.BookID == uuid.Nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "book id is required")
		}
		if req.Quantity <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "restock quantity must be positive")
		}
	}

	repo := s.repo.WithTx(tx)
	for _, req := range requests {
		if err := repo.Increment(ctx, req.BookID, req.Quantity); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeTransactionFailed, err, "restocking")
		}
	}
	return nil
}

package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/inkwellbooks/inkwell-backend/internal/preorder"
	"github.com/inkwellbooks/inkwell-backend/pkg/db/models"
	"github.com/inkwellbooks/inkwell-backend/pkg/enums"
	pkgerrors "github.com/inkwellbooks/inkwell-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type bookLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Book, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Book, error)
}

// Service exposes cart operations. Every query is scoped to the requesting
// customer; there is no global cart listing.
type Service interface {
	Add(ctx context.Context, customerID uuid.UUID, input AddInput) (*models.CartLine, error)
	SetQuantity(ctx context.Context, customerID, lineID uuid.UUID, quantity int) (*models.CartLine, error)
	Remove(ctx context.Context, customerID uuid.UUID, lineIDs []uuid.UUID) error
	ToggleSave(ctx context.Context, customerID, lineID uuid.UUID, saved bool) (*models.CartLine, error)
	List(ctx context.Context, customerID uuid.UUID) (*View, error)
}

type service struct {
	repo      CartRepository
	tx        txRunner
	books     bookLoader
	preOrders preorder.PreOrderRepository
}

// NewService builds a cart service backed by the provided stack.
func NewService(repo CartRepository, tx txRunner, books bookLoader, preOrders preorder.PreOrderRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if books == nil {
		return nil, fmt.Errorf("book loader required")
	}
	if preOrders == nil {
		return nil, fmt.Errorf("pre-order repository required")
	}
	return &service{repo: repo, tx: tx, books: books, preOrders: preOrders}, nil
}

// AddInput captures the payload for adding a book to the cart.
type AddInput struct {
	BookID   uuid.UUID
	Quantity int
}

// View splits the customer's cart into active and saved-for-later lines.
type View struct {
	Active []LineView `json:"cart"`
	Saved  []LineView `json:"saved"`
}

// LineView is one cart line enriched with catalog data.
type LineView struct {
	ID             uuid.UUID     `json:"id"`
	BookID         uuid.UUID     `json:"book_id"`
	Title          string        `json:"title"`
	UnitPriceCents int           `json:"unit_price_cents"`
	Quantity       int           `json:"quantity"`
	SubtotalCents  int           `json:"subtotal_cents"`
	Saved          bool          `json:"saved"`
	PreOrder       *PreOrderView `json:"pre_order,omitempty"`
}

// PreOrderView surfaces the deferred-purchase state linked to a line.
type PreOrderView struct {
	ID                   uuid.UUID            `json:"id"`
	Status               enums.PreOrderStatus `json:"status"`
	ExpectedDeliveryDate *time.Time           `json:"expected_delivery_date,omitempty"`
}

// Add puts a book in the cart. When the title is out of stock the line is
// deferred into a pending pre-order instead of competing for live stock;
// adding a book already in the cart increments the existing line.
func (s *service) Add(ctx context.Context, customerID uuid.UUID, input AddInput) (*models.CartLine, error) {
	if customerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id is required")
	}
	if input.BookID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "book id is required")
	}
	if input.Quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}

	book, err := s.loadBook(ctx, input.BookID)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.FindByCustomerAndBook(ctx, customerID, input.BookID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart line")
	}

	var saved *models.CartLine
	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		txPreOrders := s.preOrders.WithTx(tx)

		if existing != nil {
			existing.Quantity += input.Quantity
			if _, err := txRepo.Update(ctx, existing); err != nil {
				return err
			}
			if existing.PreOrderID != nil {
				total := existing.Quantity * book.PriceCents
				if err := txPreOrders.UpdateAmounts(ctx, *existing.PreOrderID, existing.Quantity, total); err != nil {
					return err
				}
			}
			saved = existing
			return nil
		}

		line := &models.CartLine{
			CustomerID: customerID,
			BookID:     input.BookID,
			Quantity:   input.Quantity,
		}
		if book.StockQty == 0 {
			row, err := txPreOrders.Create(ctx, &models.PreOrder{
				CustomerID: customerID,
				BookID:     input.BookID,
				Quantity:   input.Quantity,
				TotalCents: input.Quantity * book.PriceCents,
				Status:     enums.PreOrderStatusPending,
			})
			if err != nil {
				return err
			}
			line.PreOrderID = &row.ID
		}
		created, err := txRepo.Create(ctx, line)
		if err != nil {
			return err
		}
		saved = created
		return nil
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeTransactionFailed, err, "persist cart line")
	}
	return saved, nil
}

// SetQuantity changes a line's quantity. Zero or negative input is rejected,
// not coerced; removal is an explicit operation.
func (s *service) SetQuantity(ctx context.Context, customerID, lineID uuid.UUID, quantity int) (*models.CartLine, error) {
	if quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}
	line, err := s.ownedLine(ctx, customerID, lineID)
	if err != nil {
		return nil, err
	}

	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		line.Quantity = quantity
		if _, err := txRepo.Update(ctx, line); err != nil {
			return err
		}
		if line.PreOrderID != nil {
			book, err := s.loadBook(ctx, line.BookID)
			if err != nil {
				return err
			}
			return s.preOrders.WithTx(tx).UpdateAmounts(ctx, *line.PreOrderID, quantity, quantity*book.PriceCents)
		}
		return nil
	}); err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return nil, typed
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeTransactionFailed, err, "update cart line")
	}
	return line, nil
}

// Remove deletes the given lines. Ids not owned by the customer simply do not
// match the ownership predicate and are ignored.
func (s *service) Remove(ctx context.Context, customerID uuid.UUID, lineIDs []uuid.UUID) error {
	if customerID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "customer id is required")
	}
	if len(lineIDs) == 0 {
		return nil
	}
	if err := s.repo.DeleteByIDsAndCustomer(ctx, lineIDs, customerID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeTransactionFailed, err, "remove cart lines")
	}
	return nil
}

// ToggleSave flips a line between active and saved-for-later.
func (s *service) ToggleSave(ctx context.Context, customerID, lineID uuid.UUID, saved bool) (*models.CartLine, error) {
	line, err := s.ownedLine(ctx, customerID, lineID)
	if err != nil {
		return nil, err
	}
	line.Saved = saved
	updated, err := s.repo.Update(ctx, line)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeTransactionFailed, err, "update cart line")
	}
	return updated, nil
}

// List returns the customer's cart split into active and saved lines.
func (s *service) List(ctx context.Context, customerID uuid.UUID) (*View, error) {
	if customerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id is required")
	}
	lines, err := s.repo.ListByCustomer(ctx, customerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list cart lines")
	}

	bookIDs := make([]uuid.UUID, 0, len(lines))
	seen := map[uuid.UUID]struct{}{}
	for _, line := range lines {
		if _, ok := seen[line.BookID]; ok {
			continue
		}
		seen[line.BookID] = struct{}{}
		bookIDs = append(bookIDs, line.BookID)
	}
	books, err := s.books.FindByIDs(ctx, bookIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load books")
	}
	booksByID := make(map[uuid.UUID]models.Book, len(books))
	for _, book := range books {
		booksByID[book.ID] = book
	}

	preOrders, err := s.preOrders.ListByCustomer(ctx, customerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load pre-orders")
	}
	preOrdersByID := make(map[uuid.UUID]models.PreOrder, len(preOrders))
	for _, row := range preOrders {
		preOrdersByID[row.ID] = row
	}

	view := &View{Active: []LineView{}, Saved: []LineView{}}
	for _, line := range lines {
		book := booksByID[line.BookID]
		entry := LineView{
			ID:             line.ID,
			BookID:         line.BookID,
			Title:          book.Title,
			UnitPriceCents: book.PriceCents,
			Quantity:       line.Quantity,
			SubtotalCents:  line.Quantity * book.PriceCents,
			Saved:          line.Saved,
		}
		if line.PreOrderID != nil {
			if row, ok := preOrdersByID[*line.PreOrderID]; ok {
				entry.PreOrder = &PreOrderView{
					ID:                   row.ID,
					Status:               row.Status,
					ExpectedDeliveryDate: row.ExpectedDeliveryDate,
				}
			}
		}
		if line.Saved {
			view.Saved = append(view.Saved, entry)
		} else {
			view.Active = append(view.Active, entry)
		}
	}
	return view, nil
}

func (s *service) loadBook(ctx context.Context, id uuid.UUID) (*models.Book, error) {
	book, err := s.books.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "book not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load book")
	}
	return book, nil
}

func (s *service) ownedLine(ctx context.Context, customerID, lineID uuid.UUID) (*models.CartLine, error) {
	if customerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id is required")
	}
	if lineID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart line id is required")
	}
	line, err := s.repo.FindByIDAndCustomer(ctx, lineID, customerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart line")
	}
	return line, nil
}

package preorder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/inkwellbooks/inkwell-backend/internal/inventory"
	"github.com/inkwellbooks/inkwell-backend/internal/orders"
	"github.com/inkwellbooks/inkwell-backend/pkg/config"
	"github.com/inkwellbooks/inkwell-backend/pkg/db/models"
	"github.com/inkwellbooks/inkwell-backend/pkg/enums"
	pkgerrors "github.com/inkwellbooks/inkwell-backend/pkg/errors"
	"github.com/inkwellbooks/inkwell-backend/pkg/outbox"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type bookLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Book, error)
}

type paymentCreator interface {
	CreatePendingTx(ctx context.Context, tx *gorm.DB, order *models.Order, method enums.PaymentMethod) (*models.Payment, error)
}

type eventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service drives the pre-order state machine. A pre-order never holds live
// stock; it becomes a real order only through Fulfill, which re-checks stock
// at that moment.
type Service interface {
	Confirm(ctx context.Context, customerID, preOrderID uuid.UUID) (*models.PreOrder, error)
	Cancel(ctx context.Context, customerID, preOrderID uuid.UUID) (*models.PreOrder, error)
	MarkAvailable(ctx context.Context, customerID, preOrderID uuid.UUID) (*models.PreOrder, error)
	MarkShipped(ctx context.Context, customerID, preOrderID uuid.UUID) (*models.PreOrder, error)
	MarkDelivered(ctx context.Context, customerID, preOrderID uuid.UUID) (*models.PreOrder, error)
	FulfillToOrder(ctx context.Context, customerID, preOrderID uuid.UUID) (*models.Order, error)
	List(ctx context.Context, customerID uuid.UUID) ([]models.PreOrder, error)
}

type service struct {
	repo     PreOrderRepository
	books    bookLoader
	orders   orders.OrderRepository
	payments paymentCreator
	stock    inventory.Service
	tx       txRunner
	events   eventEmitter
	cfg      config.PreOrderConfig
}

// NewService builds a pre-order service backed by the provided stack.
func NewService(
	repo PreOrderRepository,
	books bookLoader,
	orderRepo orders.OrderRepository,
	payments paymentCreator,
	stock inventory.Service,
	tx txRunner,
	events eventEmitter,
	cfg config.PreOrderConfig,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("pre-order repository required")
	}
	if books == nil {
		return nil, fmt.Errorf("book loader required")
	}
	if orderRepo == nil {
		return nil, fmt.Errorf("order repository required")
	}
	if payments == nil {
		return nil, fmt.Errorf("payment creator required")
	}
	if stock == nil {
		return nil, fmt.Errorf("inventory service required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if events == nil {
		return nil, fmt.Errorf("event emitter required")
	}
	return &service{
		repo:     repo,
		books:    books,
		orders:   orderRepo,
		payments: payments,
		stock:    stock,
		tx:       tx,
		events:   events,
		cfg:      cfg,
	}, nil
}

// Confirm moves a pending pre-order to confirmed and stamps the expected
// delivery estimate.
func (s *service) Confirm(ctx context.Context, customerID, preOrderID uuid.UUID) (*models.PreOrder, error) {
	row, err := s.load(ctx, customerID, preOrderID)
	if err != nil {
		return nil, err
	}
	if !row.Status.CanTransitionTo(enums.PreOrderStatusConfirmed) {
		return nil, transitionConflict(row.Status, enums.PreOrderStatusConfirmed)
	}

	expected := time.Now().UTC().Add(s.cfg.DeliveryOffset())
	row.Status = enums.PreOrderStatusConfirmed
	row.ExpectedDeliveryDate = &expected
	return s.save(ctx, row)
}

// Cancel terminates the pre-order and detaches its cart line. Cancelling an
// already-cancelled pre-order is a no-op, not an error.
func (s *service) Cancel(ctx context.Context, customerID, preOrderID uuid.UUID) (*models.PreOrder, error) {
	row, err := s.load(ctx, customerID, preOrderID)
	if err != nil {
		return nil, err
	}
	if row.Status == enums.PreOrderStatusCancelled {
		return row, nil
	}
	if row.Status.IsTerminal() {
		return nil, transitionConflict(row.Status, enums.PreOrderStatusCancelled)
	}

	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		row.Status = enums.PreOrderStatusCancelled
		if _, err := txRepo.Update(ctx, row); err != nil {
			return err
		}
		return txRepo.ClearCartLinks(ctx, row.ID)
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeTransactionFailed, err, "cancel pre-order")
	}
	return row, nil
}

// MarkAvailable records that the pre-ordered title has arrived. The arriving
// copies are added to inventory in the same transaction, so the later Fulfill
// has stock to reserve.
func (s *service) MarkAvailable(ctx context.Context, customerID, preOrderID uuid.UUID) (*models.PreOrder, error) {
	row, err := s.load(ctx, customerID, preOrderID)
	if err != nil {
		return nil, err
	}
	if !row.Status.CanTransitionTo(enums.PreOrderStatusAvailable) {
		return nil, transitionConflict(row.Status, enums.PreOrderStatusAvailable)
	}

	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		row.Status = enums.PreOrderStatusAvailable
		if _, err := s.repo.WithTx(tx).Update(ctx, row); err != nil {
			return err
		}
		return s.stock.Restock(ctx, tx, []inventory.Request{{
			BookID:   row.BookID,
			Quantity: row.Quantity,
		}})
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeTransactionFailed, err, "mark pre-order available")
	}
	return row, nil
}

// MarkShipped records that the fulfilled copy left the warehouse.
func (s *service) MarkShipped(ctx context.Context, customerID, preOrderID uuid.UUID) (*models.PreOrder, error) {
	return s.advance(ctx, customerID, preOrderID, enums.PreOrderStatusShipped)
}

// MarkDelivered closes the pre-order lifecycle.
func (s *service) MarkDelivered(ctx context.Context, customerID, preOrderID uuid.UUID) (*models.PreOrder, error) {
	return s.advance(ctx, customerID, preOrderID, enums.PreOrderStatusDelivered)
}

// FulfillToOrder promotes an available pre-order into a real order at the
// quoted price. Stock is reserved inside the same transaction that creates the
// order; a shortage rolls everything back and leaves the pre-order untouched.
func (s *service) FulfillToOrder(ctx context.Context, customerID, preOrderID uuid.UUID) (*models.Order, error) {
	row, err := s.load(ctx, customerID, preOrderID)
	if err != nil {
		return nil, err
	}
	if row.Status != enums.PreOrderStatusAvailable {
		return nil, pkgerrors.New(
			pkgerrors.CodeStateConflict,
			fmt.Sprintf("pre-order is %s, only available pre-orders can be fulfilled", row.Status),
		)
	}

	book, err := s.books.FindByID(ctx, row.BookID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "book not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load book")
	}

	var order *models.Order
	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.stock.Reserve(ctx, tx, []inventory.Request{{
			BookID:   row.BookID,
			Title:    book.Title,
			Quantity: row.Quantity,
		}}); err != nil {
			return err
		}

		// The quoted total wins over the current catalog price.
		unit := row.TotalCents / row.Quantity
		created, err := s.orders.WithTx(tx).Create(ctx, &models.Order{
			CustomerID:     customerID,
			IdempotencyKey: "preorder_" + row.ID.String(),
			Status:         enums.OrderStatusPending,
			SubtotalCents:  row.TotalCents,
			TotalCents:     row.TotalCents,
			ShippingOption: enums.ShippingOptionStandard,
			Lines: []models.OrderLine{{
				BookID:         row.BookID,
				Title:          book.Title,
				Quantity:       row.Quantity,
				UnitPriceCents: unit,
				SubtotalCents:  row.TotalCents,
			}},
		})
		if err != nil {
			return err
		}
		order = created

		if _, err := s.payments.CreatePendingTx(ctx, tx, created, enums.PaymentMethodCard); err != nil {
			return err
		}

		txRepo := s.repo.WithTx(tx)
		if err := txRepo.ClearCartLinks(ctx, row.ID); err != nil {
			return err
		}
		if err := txRepo.Delete(ctx, row.ID); err != nil {
			return err
		}

		return s.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventPreOrderFulfilled,
			AggregateType: enums.AggregatePreOrder,
			AggregateID:   row.ID,
			Actor:         &outbox.ActorRef{CustomerID: customerID},
			Data: outbox.PreOrderFulfilledData{
				PreOrderID: row.ID,
				OrderID:    created.ID,
				CustomerID: customerID,
			},
		})
	}); err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return nil, typed
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeTransactionFailed, err, "fulfill pre-order")
	}
	return order, nil
}

// List returns the customer's pre-orders, newest first.
func (s *service) List(ctx context.Context, customerID uuid.UUID) ([]models.PreOrder, error) {
	if customerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id is required")
	}
	rows, err := s.repo.ListByCustomer(ctx, customerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list pre-orders")
	}
	return rows, nil
}

func (s *service) advance(ctx context.Context, customerID, preOrderID uuid.UUID, next enums.PreOrderStatus) (*models.PreOrder, error) {
	row, err := s.load(ctx, customerID, preOrderID)
	if err != nil {
		return nil, err
	}
	if !row.Status.CanTransitionTo(next) {
		return nil, transitionConflict(row.Status, next)
	}
	row.Status = next
	return s.save(ctx, row)
}

func (s *service) load(ctx context.Context, customerID, preOrderID uuid.UUID) (*models.PreOrder, error) {
	if customerID == uuid.Nil || preOrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id and pre-order id are required")
	}
	row, err := s.repo.FindByIDAndCustomer(ctx, preOrderID, customerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "pre-order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load pre-order")
	}
	return row, nil
}

func (s *service) save(ctx context.Context, row *models.PreOrder) (*models.PreOrder, error) {
	updated, err := s.repo.Update(ctx, row)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeTransactionFailed, err, "update pre-order")
	}
	return updated, nil
}

func transitionConflict(from, to enums.PreOrderStatus) error {
	return pkgerrors.New(
		pkgerrors.CodeStateConflict,
		fmt.Sprintf("cannot move pre-order from %s to %s", from, to),
	)
}

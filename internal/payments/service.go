package payments

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
	dbpkg "github.com/inkwellbooks/inkwell-backend/pkg/db"
	"github.com/inkwellbooks/inkwell-backend/pkg/db/models"
	"github.com/inkwellbooks/inkwell-backend/pkg/enums"
	pkgerrors "github.com/inkwellbooks/inkwell-backend/pkg/errors"
	"github.com/inkwellbooks/inkwell-backend/pkg/outbox"
)

const transactionIDAttempts = 3

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type eventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type stockRestocker interface {
	Restock(ctx context.Context, tx *gorm.DB, requests []inventory.Request) error
}

// Service owns the payment record lifecycle. It models records only; talking
// to an external gateway is someone else's problem.
type Service interface {
	Create(ctx context.Context, customerID uuid.UUID, input CreateInput) (*models.Payment, error)
	Complete(ctx context.Context, customerID, paymentID uuid.UUID, transactionID string) (*models.Payment, error)
	Refund(ctx context.Context, customerID uuid.UUID, input RefundInput) (*models.Payment, error)
	CreatePendingTx(ctx context.Context, tx *gorm.DB, order *models.Order, method enums.PaymentMethod) (*models.Payment, error)
}

type service struct {
	repo      PaymentRepository
	orderRepo orders.OrderRepository
	tx        txRunner
	events    eventEmitter
	stock     stockRestocker
	cfg       config.CheckoutConfig
}

// NewService builds a payment service backed by the provided stack.
func NewService(repo PaymentRepository, orderRepo orders.OrderRepository, tx txRunner, events eventEmitter, stock stockRestocker, cfg config.CheckoutConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("payment repository required")
	}
	if orderRepo == nil {
		return nil, fmt.Errorf("order repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if events == nil {
		return nil, fmt.Errorf("event emitter required")
	}
	if stock == nil {
		return nil, fmt.Errorf("inventory service required")
	}
	return &service{repo: repo, orderRepo: orderRepo, tx: tx, events: events, stock: stock, cfg: cfg}, nil
}

// CreateInput captures the payload for recording a payment against an order.
type CreateInput struct {
	OrderID       uuid.UUID
	Method        enums.PaymentMethod
	AmountCents   int
	TransactionID string
}

// RefundInput captures the payload for refunding part or all of a payment.
type RefundInput struct {
	PaymentID   uuid.UUID
	AmountCents int
	Reason      string
}

// NewTransactionID mints a fresh transaction reference.
func NewTransactionID() string {
	return "txn_" + uuid.NewString()
}

// Create records a pending payment for an order. At most one non-refunded
// payment row is authoritative per order.
func (s *service) Create(ctx context.Context, customerID uuid.UUID, input CreateInput) (*models.Payment, error) {
	if customerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id is required")
	}
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	if !input.Method.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method")
	}
	if input.AmountCents <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment amount must be positive")
	}

	order, err := s.orderRepo.FindByIDAndCustomer(ctx, input.OrderID, customerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if order.Status == enums.OrderStatusCancelled {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order is cancelled")
	}
	if input.AmountCents > order.TotalCents+s.cfg.PaymentToleranceCents {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment amount exceeds order total")
	}

	var created *models.Payment
	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		// The check runs inside the insert transaction; a concurrent Create
		// that slips past it trips ux_payments_order_active instead.
		if _, err := txRepo.FindActiveByOrder(ctx, order.ID); err == nil {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order already has an active payment")
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load active payment")
		}

		row, err := s.insertWithUniqueTransactionID(ctx, txRepo, &models.Payment{
			OrderID:     order.ID,
			CustomerID:  customerID,
			Method:      input.Method,
			Status:      enums.PaymentStatusPending,
			AmountCents: input.AmountCents,
		}, input.TransactionID)
		if err != nil {
			return err
		}
		created = row
		return nil
	}); err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return nil, typed
		}
		if dbpkg.IsUniqueViolation(err, "ux_payments_order_active") {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order already has an active payment")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeTransactionFailed, err, "persist payment")
	}
	return created, nil
}

// CreatePendingTx records the pending payment for a freshly checked-out order
// inside the caller's transaction.
func (s *service) CreatePendingTx(ctx context.Context, tx *gorm.DB, order *models.Order, method enums.PaymentMethod) (*models.Payment, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction required")
	}
	if order == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "order required")
	}
	return s.insertWithUniqueTransactionID(ctx, s.repo.WithTx(tx), &models.Payment{
		OrderID:     order.ID,
		CustomerID:  order.CustomerID,
		Method:      method,
		Status:      enums.PaymentStatusPending,
		AmountCents: order.TotalCents,
	}, "")
}

// Complete transitions a pending payment to completed and confirms its order.
func (s *service) Complete(ctx context.Context, customerID, paymentID uuid.UUID, transactionID string) (*models.Payment, error) {
	if paymentID == uuid.Nil || transactionID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment id and transaction id are required")
	}

	row, err := s.repo.FindPendingByIDAndTransaction(ctx, paymentID, transactionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no matching pending payment")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment")
	}
	if row.CustomerID != customerID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no matching pending payment")
	}

	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		txOrders := s.orderRepo.WithTx(tx)

		now := nowUTC()
		row.Status = enums.PaymentStatusCompleted
		row.CompletedAt = &now
		if _, err := txRepo.Update(ctx, row); err != nil {
			return err
		}

		order, err := txOrders.FindByIDAndCustomer(ctx, row.OrderID, customerID)
		if err != nil {
			return err
		}
		if order.Status == enums.OrderStatusPending {
			if err := txOrders.UpdateStatus(ctx, order.ID, enums.OrderStatusConfirmed); err != nil {
				return err
			}
			if err := s.events.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventOrderConfirmed,
				AggregateType: enums.AggregateOrder,
				AggregateID:   order.ID,
				Actor:         &outbox.ActorRef{CustomerID: customerID},
				Data: outbox.OrderConfirmedData{
					OrderID:     order.ID,
					CustomerID:  customerID,
					ConfirmedAt: now,
				},
			}); err != nil {
				return err
			}
		}

		return s.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventPaymentCompleted,
			AggregateType: enums.AggregatePayment,
			AggregateID:   row.ID,
			Actor:         &outbox.ActorRef{CustomerID: customerID},
			Data: outbox.PaymentCompletedData{
				PaymentID:     row.ID,
				OrderID:       row.OrderID,
				TransactionID: row.TransactionID,
				AmountCents:   row.AmountCents,
			},
		})
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeTransactionFailed, err, "complete payment")
	}
	return row, nil
}

// Refund creates a linked negative-amount payment row. The original row is
// marked refunded only when refunds add up to the full amount; a partial
// refund leaves it completed with an audit note. A full refund also returns
// the order's line quantities to stock.
func (s *service) Refund(ctx context.Context, customerID uuid.UUID, input RefundInput) (*models.Payment, error) {
	if input.PaymentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment id is required")
	}
	if input.AmountCents <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "refund amount must be positive")
	}

	original, err := s.repo.FindByIDAndCustomer(ctx, input.PaymentID, customerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment")
	}
	if original.IsRefund() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "cannot refund a refund")
	}
	if original.Status != enums.PaymentStatusCompleted {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "only completed payments can be refunded")
	}

	alreadyRefunded, err := s.repo.SumRefundsFor(ctx, original.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum refunds")
	}
	remaining := original.AmountCents - alreadyRefunded
	if input.AmountCents > remaining {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "refund amount exceeds refundable balance")
	}

	var refund *models.Payment
	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		note := input.Reason
		row, err := s.insertWithUniqueTransactionID(ctx, txRepo, &models.Payment{
			OrderID:     original.OrderID,
			CustomerID:  original.CustomerID,
			Method:      original.Method,
			Status:      enums.PaymentStatusCompleted,
			AmountCents: -input.AmountCents,
			RefundOfID:  &original.ID,
			Note:        &note,
		}, "")
		if err != nil {
			return err
		}
		refund = row

		fully := alreadyRefunded+input.AmountCents == original.AmountCents
		if fully {
			original.Status = enums.PaymentStatusRefunded

			order, err := s.orderRepo.WithTx(tx).FindByIDAndCustomer(ctx, original.OrderID, customerID)
			if err != nil {
				return err
			}
			requests := make([]inventory.Request, 0, len(order.Lines))
			for _, line := range order.Lines {
				requests = append(requests, inventory.Request{
					BookID:   line.BookID,
					Title:    line.Title,
					Quantity: line.Quantity,
				})
			}
			if len(requests) > 0 {
				if err := s.stock.Restock(ctx, tx, requests); err != nil {
					return err
				}
			}
		} else {
			audit := fmt.Sprintf("partial refund of %d cents", input.AmountCents)
			if original.Note != nil && *original.Note != "" {
				audit = *original.Note + "; " + audit
			}
			original.Note = &audit
		}
		if _, err := txRepo.Update(ctx, original); err != nil {
			return err
		}

		return s.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventPaymentRefunded,
			AggregateType: enums.AggregatePayment,
			AggregateID:   original.ID,
			Actor:         &outbox.ActorRef{CustomerID: customerID},
			Data: outbox.PaymentRefundedData{
				PaymentID:       original.ID,
				RefundPaymentID: row.ID,
				OrderID:         original.OrderID,
				AmountCents:     input.AmountCents,
				FullyRefunded:   fully,
			},
		})
	}); err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return nil, typed
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeTransactionFailed, err, "persist refund")
	}
	return refund, nil
}

func nowUTC() time.Time {
	return time.Now().UTC()
}

// insertWithUniqueTransactionID creates the row, generating a transaction id
// when the caller did not supply one and retrying on collision. A collision on
// a caller-supplied id is the caller's error, not ours to retry.
func (s *service) insertWithUniqueTransactionID(ctx context.Context, repo PaymentRepository, row *models.Payment, suppliedID string) (*models.Payment, error) {
	if suppliedID != "" {
		row.TransactionID = suppliedID
		created, err := repo.Create(ctx, row)
		if err != nil {
			if dbpkg.IsUniqueViolation(err, "ux_payments_transaction_id") {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction id already used")
			}
			return nil, err
		}
		return created, nil
	}

	var lastErr error
	for attempt := 0; attempt < transactionIDAttempts; attempt++ {
		row.TransactionID = NewTransactionID()
		created, err := repo.Create(ctx, row)
		if err == nil {
			return created, nil
		}
		if !dbpkg.IsUniqueViolation(err, "ux_payments_transaction_id") {
			return nil, err
		}
		lastErr = err
	}
	return nil, pkgerrors.Wrap(pkgerrors.CodeTransactionFailed, lastErr, "allocating transaction id")
}

package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/inkwellbooks/inkwell-backend/internal/cart"
	"github.com/inkwellbooks/inkwell-backend/internal/inventory"
	"github.com/inkwellbooks/inkwell-backend/internal/orders"
	"github.com/inkwellbooks/inkwell-backend/pkg/config"
	dbpkg "github.com/inkwellbooks/inkwell-backend/pkg/db"
	"github.com/inkwellbooks/inkwell-backend/pkg/db/models"
	"github.com/inkwellbooks/inkwell-backend/pkg/enums"
	pkgerrors "github.com/inkwellbooks/inkwell-backend/pkg/errors"
	"github.com/inkwellbooks/inkwell-backend/pkg/metrics"
	"github.com/inkwellbooks/inkwell-backend/pkg/outbox"
	"github.com/inkwellbooks/inkwell-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type bookLoader interface {
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Book, error)
}

type paymentCreator interface {
	CreatePendingTx(ctx context.Context, tx *gorm.DB, order *models.Order, method enums.PaymentMethod) (*models.Payment, error)
}

type eventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service converts the customer's active cart into an order. Everything that
// must hold together (stock reservation, the order and its lines, the pending
// payment, cart cleanup, the outbox event) happens in one transaction.
type Service interface {
	Checkout(ctx context.Context, customerID uuid.UUID, input Input) (*Result, error)
}

// Input captures the checkout request payload.
type Input struct {
	IdempotencyKey  string
	PaymentMethod   enums.PaymentMethod
	ShippingOption  enums.ShippingOption
	PromoCode       string
	ShippingAddress types.Address
	BillingAddress  types.Address
	ContactEmail    string
}

// Result is the committed (or replayed) order.
type Result struct {
	Order    *models.Order
	Replayed bool
}

type service struct {
	carts    cart.CartRepository
	books    bookLoader
	orders   orders.OrderRepository
	payments paymentCreator
	stock    inventory.Service
	tx       txRunner
	events   eventEmitter
	observe  *metrics.CheckoutMetrics
	cfg      config.CheckoutConfig
}

// NewService builds a checkout service backed by the provided stack.
func NewService(
	carts cart.CartRepository,
	books bookLoader,
	orderRepo orders.OrderRepository,
	payments paymentCreator,
	stock inventory.Service,
	tx txRunner,
	events eventEmitter,
	observe *metrics.CheckoutMetrics,
	cfg config.CheckoutConfig,
) (Service, error) {
	if carts == nil {
		return nil, fmt.Errorf("cart repository required")
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
		carts:    carts,
		books:    books,
		orders:   orderRepo,
		payments: payments,
		stock:    stock,
		tx:       tx,
		events:   events,
		observe:  observe,
		cfg:      cfg,
	}, nil
}

// Checkout runs the all-or-nothing conversion of the active cart into an
// order. A replayed idempotency key returns the order the first attempt
// committed, without touching stock or cart again.
func (s *service) Checkout(ctx context.Context, customerID uuid.UUID, input Input) (*Result, error) {
	started := time.Now()
	result, err := s.checkout(ctx, customerID, input)
	if err != nil {
		s.observe.ObserveDuration("failure", time.Since(started))
		if typed := pkgerrors.As(err); typed != nil {
			s.observe.IncFailure(string(typed.Code()))
		}
		return nil, err
	}
	s.observe.ObserveDuration("success", time.Since(started))
	if !result.Replayed {
		s.observe.IncSuccess(result.Order.ShippingOption.String())
		s.observe.ObserveOrderTotal(result.Order.ShippingOption.String(), result.Order.TotalCents)
	}
	return result, nil
}

func (s *service) checkout(ctx context.Context, customerID uuid.UUID, input Input) (*Result, error) {
	promoPercent, promoCode, err := s.validate(customerID, &input)
	if err != nil {
		return nil, err
	}

	if existing, err := s.orders.FindByCustomerAndIdempotencyKey(ctx, customerID, input.IdempotencyKey); err == nil {
		return &Result{Order: existing, Replayed: true}, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "idempotency lookup")
	}

	var order *models.Order
	txErr := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txCarts := s.carts.WithTx(tx)

		lines, err := txCarts.ListActiveForCheckout(ctx, customerID)
		if err != nil {
			return err
		}
		if len(lines) == 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
		}

		bookIDs := make([]uuid.UUID, 0, len(lines))
		for _, line := range lines {
			bookIDs = append(bookIDs, line.BookID)
		}
		books, err := s.books.FindByIDs(ctx, bookIDs)
		if err != nil {
			return err
		}
		byID := make(map[uuid.UUID]models.Book, len(books))
		for _, book := range books {
			byID[book.ID] = book
		}

		subtotal := 0
		requests := make([]inventory.Request, 0, len(lines))
		orderLines := make([]models.OrderLine, 0, len(lines))
		lineIDs := make([]uuid.UUID, 0, len(lines))
		for _, line := range lines {
			book, ok := byID[line.BookID]
			if !ok {
				return pkgerrors.New(pkgerrors.CodeNotFound, "a book in the cart no longer exists")
			}
			lineSubtotal := book.PriceCents * line.Quantity
			subtotal += lineSubtotal
			requests = append(requests, inventory.Request{
				BookID:   book.ID,
				Title:    book.Title,
				Quantity: line.Quantity,
			})
			orderLines = append(orderLines, models.OrderLine{
				BookID:         book.ID,
				Title:          book.Title,
				Quantity:       line.Quantity,
				UnitPriceCents: book.PriceCents,
				SubtotalCents:  lineSubtotal,
			})
			lineIDs = append(lineIDs, line.ID)
		}

		quote := computeQuote(subtotal, promoPercent, s.cfg.TaxRateBasisPoints, s.shippingCents(input.ShippingOption))

		if err := s.stock.Reserve(ctx, tx, requests); err != nil {
			return err
		}

		created, err := s.orders.WithTx(tx).Create(ctx, &models.Order{
			CustomerID:      customerID,
			IdempotencyKey:  input.IdempotencyKey,
			Status:          enums.OrderStatusPending,
			SubtotalCents:   quote.SubtotalCents,
			DiscountCents:   quote.DiscountCents,
			TaxCents:        quote.TaxCents,
			ShippingCents:   quote.ShippingCents,
			TotalCents:      quote.TotalCents,
			PromoCode:       promoCode,
			ShippingOption:  input.ShippingOption,
			ShippingAddress: input.ShippingAddress,
			BillingAddress:  input.BillingAddress,
			ContactEmail:    input.ContactEmail,
			Lines:           orderLines,
		})
		if err != nil {
			if dbpkg.IsUniqueViolation(err, "ux_orders_customer_idempotency") {
				return pkgerrors.New(pkgerrors.CodeDuplicateCheckout, "checkout with this key already committed")
			}
			return err
		}
		order = created

		if _, err := s.payments.CreatePendingTx(ctx, tx, created, input.PaymentMethod); err != nil {
			return err
		}

		if err := txCarts.DeleteByIDsAndCustomer(ctx, lineIDs, customerID); err != nil {
			return err
		}

		return s.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   created.ID,
			Actor:         &outbox.ActorRef{CustomerID: customerID},
			Data: outbox.OrderCreatedData{
				OrderID:    created.ID,
				CustomerID: customerID,
				TotalCents: created.TotalCents,
				LineCount:  len(created.Lines),
			},
		})
	})
	if txErr != nil {
		if typed := pkgerrors.As(txErr); typed != nil {
			// Lost the race on the idempotency key: the winner's order is
			// the answer for this key.
			if typed.Code() == pkgerrors.CodeDuplicateCheckout {
				if existing, lookupErr := s.orders.FindByCustomerAndIdempotencyKey(ctx, customerID, input.IdempotencyKey); lookupErr == nil {
					return &Result{Order: existing, Replayed: true}, nil
				}
			}
			return nil, typed
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeTransactionFailed, txErr, "checkout transaction")
	}
	return &Result{Order: order}, nil
}

// validate normalizes the input and resolves the promo code. Billing address
// defaults to the shipping address when omitted.
func (s *service) validate(customerID uuid.UUID, input *Input) (int, *string, error) {
	if customerID == uuid.Nil {
		return 0, nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id is required")
	}
	if strings.TrimSpace(input.IdempotencyKey) == "" {
		return 0, nil, pkgerrors.New(pkgerrors.CodeValidation, "idempotency key is required")
	}
	if !input.PaymentMethod.IsValid() {
		return 0, nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method")
	}
	if !input.ShippingOption.IsValid() {
		return 0, nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid shipping option")
	}
	if len(input.ShippingAddress.String()) < s.cfg.AddressMinLength {
		return 0, nil, pkgerrors.New(pkgerrors.CodeValidation, "shipping address is too short")
	}
	if input.BillingAddress.IsZero() {
		input.BillingAddress = input.ShippingAddress
	}
	if strings.TrimSpace(input.ContactEmail) == "" {
		return 0, nil, pkgerrors.New(pkgerrors.CodeValidation, "contact email is required")
	}

	if strings.TrimSpace(input.PromoCode) == "" {
		return 0, nil, nil
	}
	table, err := s.cfg.PromoPercents()
	if err != nil {
		return 0, nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "promo configuration")
	}
	code := strings.ToUpper(strings.TrimSpace(input.PromoCode))
	percent, ok := table[code]
	if !ok {
		return 0, nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown promo code")
	}
	return percent, &code, nil
}

func (s *service) shippingCents(option enums.ShippingOption) int {
	if option == enums.ShippingOptionExpress {
		return s.cfg.ShippingExpressCents
	}
	return s.cfg.ShippingStandardCents
}

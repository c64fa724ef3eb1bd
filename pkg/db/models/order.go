package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/inkwellbooks/inkwell-backend/pkg/enums"
	"github.com/inkwellbooks/inkwell-backend/pkg/types"
)

// Order is the durable result of a successful checkout. Its line items are
// immutable once created and carry price-at-purchase snapshots. The
// idempotency key is unique per customer so a retried checkout resolves to
// the same row.
type Order struct {
	ID              uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CustomerID      uuid.UUID            `gorm:"column:customer_id;type:uuid;not null;index;uniqueIndex:ux_orders_customer_idempotency,priority:1"`
	IdempotencyKey  string               `gorm:"column:idempotency_key;not null;uniqueIndex:ux_orders_customer_idempotency,priority:2"`
	Status          enums.OrderStatus    `gorm:"column:status;not null;default:'pending'"`
	SubtotalCents   int                  `gorm:"column:subtotal_cents;not null"`
	DiscountCents   int                  `gorm:"column:discount_cents;not null;default:0"`
	TaxCents        int                  `gorm:"column:tax_cents;not null;default:0"`
	ShippingCents   int                  `gorm:"column:shipping_cents;not null;default:0"`
	TotalCents      int                  `gorm:"column:total_cents;not null"`
	PromoCode       *string              `gorm:"column:promo_code"`
	ShippingOption  enums.ShippingOption `gorm:"column:shipping_option;not null;default:'standard'"`
	ShippingAddress types.Address        `gorm:"column:shipping_address;type:jsonb;serializer:json"`
	BillingAddress  types.Address        `gorm:"column:billing_address;type:jsonb;serializer:json"`
	ContactEmail    string               `gorm:"column:contact_email;not null;default:''"`
	Lines           []OrderLine          `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Payments        []Payment            `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	ConfirmedAt     *time.Time           `gorm:"column:confirmed_at"`
	CancelledAt     *time.Time           `gorm:"column:cancelled_at"`
	CreatedAt       time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

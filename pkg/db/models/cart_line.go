package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CartLine is one (customer, book, quantity) entry in a shopping cart.
// Pre-order sub-state lives exclusively on the referenced PreOrder row;
// a line with a non-nil PreOrderID never participates in stock reservation.
type CartLine struct {
	ID         uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CustomerID uuid.UUID  `gorm:"column:customer_id;type:uuid;not null;index"`
	BookID     uuid.UUID  `gorm:"column:book_id;type:uuid;not null"`
	Quantity   int        `gorm:"column:quantity;not null"`
	Saved      bool       `gorm:"column:saved;not null;default:false"`
	PreOrderID *uuid.UUID `gorm:"column:pre_order_id;type:uuid"`
	CreatedAt  time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

// IsPreOrder reports whether the line defers to a pre-order record.
func (c CartLine) IsPreOrder() bool {
	return c.PreOrderID != nil
}

func (c *CartLine) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

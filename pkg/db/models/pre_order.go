package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/inkwellbooks/inkwell-backend/pkg/enums"
)

// PreOrder is a deferred purchase intent for a title that was out of stock
// when the customer asked for it. It never competes for live stock; promotion
// to an order happens only through an explicit fulfill that re-checks stock.
type PreOrder struct {
	ID                   uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CustomerID           uuid.UUID            `gorm:"column:customer_id;type:uuid;not null;index"`
	BookID               uuid.UUID            `gorm:"column:book_id;type:uuid;not null"`
	Quantity             int                  `gorm:"column:quantity;not null"`
	TotalCents           int                  `gorm:"column:total_cents;not null"`
	Status               enums.PreOrderStatus `gorm:"column:status;not null;default:'pending'"`
	ExpectedDeliveryDate *time.Time           `gorm:"column:expected_delivery_date"`
	CreatedAt            time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *PreOrder) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Book is the read-only catalog record this core consumes. StockQty is the
// single stock authority and is mutated only through the inventory package.
type Book struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Title      string    `gorm:"column:title;not null"`
	Author     string    `gorm:"column:author;not null;default:''"`
	PriceCents int       `gorm:"column:price_cents;not null"`
	StockQty   int       `gorm:"column:stock_qty;not null;default:0"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (b *Book) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

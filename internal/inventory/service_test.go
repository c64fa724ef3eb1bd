package inventory

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/inkwellbooks/inkwell-backend/pkg/db/models"
	pkgerrors "github.com/inkwellbooks/inkwell-backend/pkg/errors"
)

func setupStockTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:inventory_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	books := `
CREATE TABLE IF NOT EXISTS books (
  id TEXT PRIMARY KEY,
  title TEXT NOT NULL,
  author TEXT NOT NULL DEFAULT '',
  price_cents INTEGER NOT NULL,
  stock_qty INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(books).Error)
	return db
}

func seedBook(t *testing.T, db *gorm.DB, title string, priceCents, stock int) *models.Book {
	t.Helper()
	book := &models.Book{
		ID:         uuid.New(),
		Title:      title,
		PriceCents: priceCents,
		StockQty:   stock,
	}
	require.NoError(t, db.Create(book).Error)
	return book
}

func stockOf(t *testing.T, db *gorm.DB, id uuid.UUID) int {
	t.Helper()
	var book models.Book
	require.NoError(t, db.First(&book, "id = ?", id).Error)
	return book.StockQty
}

func TestReserveDecrementsAllLines(t *testing.T) {
	t.Parallel()

	db := setupStockTestDB(t)
	svc, err := NewService(NewRepository(db))
	require.NoError(t, err)

	bookA := seedBook(t, db, "Book A", 2000, 5)
	bookB := seedBook(t, db, "Book B", 1500, 1)

	err = db.Transaction(func(tx *gorm.DB) error {
		return svc.Reserve(context.Background(), tx, []Request{
			{BookID: bookA.ID, Title: bookA.Title, Quantity: 3},
			{BookID: bookB.ID, Title: bookB.Title, Quantity: 1},
		})
	})
	require.NoError(t, err)

	assert.Equal(t, 2, stockOf(t, db, bookA.ID))
	assert.Equal(t, 0, stockOf(t, db, bookB.ID), "sell-to-zero is allowed")
}

func TestReserveShortageRollsBackEverything(t *testing.T) {
	t.Parallel()

	db := setupStockTestDB(t)
	svc, err := NewService(NewRepository(db))
	require.NoError(t, err)

	bookA := seedBook(t, db, "Book A", 2000, 5)
	bookB := seedBook(t, db, "Book B", 1500, 0)

	txErr := db.Transaction(func(tx *gorm.DB) error {
		return svc.Reserve(context.Background(), tx, []Request{
			{BookID: bookA.ID, Title: bookA.Title, Quantity: 2},
			{BookID: bookB.ID, Title: bookB.Title, Quantity: 1},
		})
	})
	require.Error(t, txErr)

	typed := pkgerrors.As(txErr)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeInsufficientStock, typed.Code())
	assert.Contains(t, typed.Message(), "Book B")

	details, ok := typed.Details().(map[string]any)
	require.True(t, ok)
	shortages, ok := details["shortages"].([]Shortage)
	require.True(t, ok)
	require.Len(t, shortages, 1)
	assert.Equal(t, bookB.ID, shortages[0].BookID)
	assert.Equal(t, 1, shortages[0].Requested)
	assert.Equal(t, 0, shortages[0].Available)

	assert.Equal(t, 5, stockOf(t, db, bookA.ID), "rollback must restore decremented lines")
	assert.Equal(t, 0, stockOf(t, db, bookB.ID))
}

func TestReserveReportsEveryShortTitle(t *testing.T) {
	t.Parallel()

	db := setupStockTestDB(t)
	svc, err := NewService(NewRepository(db))
	require.NoError(t, err)

	bookA := seedBook(t, db, "Book A", 2000, 1)
	bookB := seedBook(t, db, "Book B", 1500, 0)

	txErr := db.Transaction(func(tx *gorm.DB) error {
		return svc.Reserve(context.Background(), tx, []Request{
			{BookID: bookA.ID, Title: bookA.Title, Quantity: 2},
			{BookID: bookB.ID, Title: bookB.Title, Quantity: 3},
		})
	})
	require.Error(t, txErr)

	typed := pkgerrors.As(txErr)
	require.NotNil(t, typed)
	details, ok := typed.Details().(map[string]any)
	require.True(t, ok)
	shortages, ok := details["shortages"].([]Shortage)
	require.True(t, ok)
	require.Len(t, shortages, 2)
}

func TestReserveRejectsNonPositiveQuantity(t *testing.T) {
	t.Parallel()

	db := setupStockTestDB(t)
	svc, err := NewService(NewRepository(db))
	require.NoError(t, err)

	book := seedBook(t, db, "Book A", 2000, 5)

	txErr := db.Transaction(func(tx *gorm.DB) error {
		return svc.Reserve(context.Background(), tx, []Request{
			{BookID: book.ID, Title: book.Title, Quantity: 0},
		})
	})
	require.Error(t, txErr)
	typed := pkgerrors.As(txErr)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestRestockIncrements(t *testing.T) {
	t.Parallel()

	db := setupStockTestDB(t)
	svc, err := NewService(NewRepository(db))
	require.NoError(t, err)

	book := seedBook(t, db, "Book A", 2000, 0)
	require.NoError(t, svc.Restock(context.Background(), nil, []Request{
		{BookID: book.ID, Quantity: 7},
	}))
	assert.Equal(t, 7, stockOf(t, db, book.ID))

	err = svc.Restock(context.Background(), nil, []Request{
		{BookID: book.ID, Quantity: -1},
	})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestRestockRollsBackWithTransaction(t *testing.T) {
	t.Parallel()

	db := setupStockTestDB(t)
	svc, err := NewService(NewRepository(db))
	require.NoError(t, err)

	book := seedBook(t, db, "Book A", 2000, 1)

	txErr := db.Transaction(func(tx *gorm.DB) error {
		if err := svc.Restock(context.Background(), tx, []Request{
			{BookID: book.ID, Quantity: 3},
		}); err != nil {
			return err
		}
		return gorm.ErrInvalidTransaction
	})
	require.Error(t, txErr)
	assert.Equal(t, 1, stockOf(t, db, book.ID), "rollback discards the increment")
}

func TestReserveSerializesConcurrentCheckouts(t *testing.T) {
	t.Parallel()

	db := setupStockTestDB(t)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	svc, err := NewService(NewRepository(db))
	require.NoError(t, err)

	book := seedBook(t, db, "Last Copy", 2000, 1)

	results := make(chan error, 2)
	for i := 0; i < 2; i++ {
		go func() {
			results <- db.Transaction(func(tx *gorm.DB) error {
				return svc.Reserve(context.Background(), tx, []Request{
					{BookID: book.ID, Title: book.Title, Quantity: 1},
				})
			})
		}()
	}

	var wins, shortages int
	for i := 0; i < 2; i++ {
		err := <-results
		if err == nil {
			wins++
			continue
		}
		typed := pkgerrors.As(err)
		require.NotNil(t, typed)
		assert.Equal(t, pkgerrors.CodeInsufficientStock, typed.Code())
		shortages++
	}

	assert.Equal(t, 1, wins, "exactly one reservation may take the last unit")
	assert.Equal(t, 1, shortages)
	assert.Equal(t, 0, stockOf(t, db, book.ID))
}

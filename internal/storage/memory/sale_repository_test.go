package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/pos/internal/domain"
	"github.com/vladislavdragonenkov/pos/internal/storage/memory"
)

func seedSale(t *testing.T, store *memory.Store, saleID, userID string, createdAt time.Time) {
	t.Helper()

	uow := memory.NewUnitOfWork(store)
	err := uow.Do(context.Background(), func(tx domain.SaleTx) error {
		sale := domain.Sale{
			ID:            saleID,
			UserID:        userID,
			Subtotal:      decimal.RequireFromString("100.00"),
			DiscountTotal: decimal.Zero,
			Total:         decimal.RequireFromString("100.00"),
			CreatedAt:     createdAt,
		}
		if err := tx.InsertSale(context.Background(), sale); err != nil {
			return err
		}
		return tx.InsertSaleItem(context.Background(), domain.SaleItem{
			ID:                 saleID + "-item-1",
			SaleID:             saleID,
			ProductID:          "prod-1",
			ProductName:        "Monitor",
			Quantity:           1,
			UnitPrice:          decimal.RequireFromString("100.00"),
			EffectiveUnitPrice: decimal.RequireFromString("100.00"),
			Subtotal:           decimal.RequireFromString("100.00"),
			OfferType:          domain.OfferTypeNone,
			CreatedAt:          createdAt,
		})
	})
	if err != nil {
		t.Fatalf("seed sale: %v", err)
	}
}

func TestSaleRepository_Get(t *testing.T) {
	store := memory.NewStore()
	repo := memory.NewSaleRepository(store)
	seedSale(t, store, "sale-1", "user-1", time.Now().UTC())

	sale, err := repo.Get(context.Background(), "sale-1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if len(sale.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(sale.Items))
	}
	if sale.Items[0].ProductName != "Monitor" {
		t.Fatalf("unexpected item: %+v", sale.Items[0])
	}
}

func TestSaleRepository_GetMissing(t *testing.T) {
	repo := memory.NewSaleRepository(memory.NewStore())

	_, err := repo.Get(context.Background(), "ghost")
	if err != domain.ErrSaleNotFound {
		t.Fatalf("expected ErrSaleNotFound, got %v", err)
	}
}

func TestSaleRepository_ListByUser(t *testing.T) {
	store := memory.NewStore()
	repo := memory.NewSaleRepository(store)
	base := time.Now().UTC()

	seedSale(t, store, "sale-1", "user-1", base.Add(-2*time.Hour))
	seedSale(t, store, "sale-2", "user-1", base.Add(-1*time.Hour))
	seedSale(t, store, "sale-3", "user-2", base)

	sales, err := repo.ListByUser(context.Background(), "user-1", 10)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(sales) != 2 {
		t.Fatalf("expected 2 sales, got %d", len(sales))
	}
	// Свежие первыми.
	if sales[0].ID != "sale-2" || sales[1].ID != "sale-1" {
		t.Fatalf("unexpected order: %s, %s", sales[0].ID, sales[1].ID)
	}
}

func TestSaleRepository_ListByUserLimit(t *testing.T) {
	store := memory.NewStore()
	repo := memory.NewSaleRepository(store)
	base := time.Now().UTC()

	seedSale(t, store, "sale-1", "user-1", base.Add(-2*time.Hour))
	seedSale(t, store, "sale-2", "user-1", base.Add(-1*time.Hour))

	sales, err := repo.ListByUser(context.Background(), "user-1", 1)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(sales) != 1 {
		t.Fatalf("expected 1 sale, got %d", len(sales))
	}
	if sales[0].ID != "sale-2" {
		t.Fatalf("expected newest sale, got %s", sales[0].ID)
	}
}

package pos_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/pos/internal/domain"
	"github.com/vladislavdragonenkov/pos/internal/service/pos"
	"github.com/vladislavdragonenkov/pos/internal/service/pricing"
	"github.com/vladislavdragonenkov/pos/internal/storage/memory"
)

var testNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func intPtr(v int) *int { return &v }

func decPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func timePtr(t time.Time) *time.Time { return &t }

type fixture struct {
	store     *memory.Store
	products  domain.ProductRepository
	sales     domain.SaleRepository
	outbox    domain.OutboxRepository
	processor *pos.Processor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := memory.NewStore()
	return &fixture{
		store:    store,
		products: memory.NewProductRepository(store),
		sales:    memory.NewSaleRepository(store),
		outbox:   memory.NewOutboxRepository(store),
		processor: pos.NewProcessorWithoutMetrics(
			memory.NewUnitOfWork(store),
			pricing.NewSelector(),
			domain.FixedClock{At: testNow},
			nil,
		),
	}
}

func (f *fixture) addProduct(t *testing.T, product domain.Product) domain.Product {
	t.Helper()
	if err := f.products.Create(context.Background(), product); err != nil {
		t.Fatalf("create product: %v", err)
	}
	return product
}

func (f *fixture) stockOf(t *testing.T, id string) int {
	t.Helper()
	product, err := f.products.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("get product: %v", err)
	}
	return product.Stock
}

func discountLaptop(stock int) domain.Product {
	return domain.Product{
		ID:              "laptop",
		Name:            "Laptop",
		Price:           decimal.RequireFromString("1000.00"),
		Stock:           stock,
		DiscountPercent: decPtr("10"),
		OfferStartsAt:   timePtr(testNow.AddDate(0, 0, -5)),
		OfferEndsAt:     timePtr(testNow.AddDate(0, 0, 30)),
	}
}

func tradeOfferMouse(stock int) domain.Product {
	return domain.Product{
		ID:               "mouse",
		Name:             "Mouse",
		Price:            decimal.RequireFromString("25.00"),
		Stock:            stock,
		TradeOfferMinQty: intPtr(3),
		TradeOfferGetQty: intPtr(1),
		OfferStartsAt:    timePtr(testNow.AddDate(0, 0, -10)),
		OfferEndsAt:      timePtr(testNow.AddDate(0, 0, 20)),
	}
}

func plainMonitor(stock int) domain.Product {
	return domain.Product{
		ID:    "monitor",
		Name:  "Monitor",
		Price: decimal.RequireFromString("300.00"),
		Stock: stock,
	}
}

func TestProcessSale_SingleDiscountLine(t *testing.T) {
	f := newFixture(t)
	f.addProduct(t, discountLaptop(50))

	sale, err := f.processor.ProcessSale(context.Background(), "user-1", []domain.SaleLine{
		{ProductID: "laptop", Quantity: 3},
	})
	if err != nil {
		t.Fatalf("process sale: %v", err)
	}

	if !sale.Subtotal.Equal(decimal.RequireFromString("2700.00")) {
		t.Fatalf("expected subtotal 2700.00, got %s", sale.Subtotal)
	}
	if !sale.DiscountTotal.Equal(decimal.RequireFromString("300.00")) {
		t.Fatalf("expected discount total 300.00, got %s", sale.DiscountTotal)
	}
	if !sale.Total.Equal(sale.Subtotal) {
		t.Fatalf("expected total to equal subtotal, got %s", sale.Total)
	}
	if len(sale.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(sale.Items))
	}

	item := sale.Items[0]
	if item.OfferType != domain.OfferTypeDiscount {
		t.Fatalf("expected discount offer, got %s", item.OfferType)
	}
	if !item.EffectiveUnitPrice.Equal(decimal.RequireFromString("900.00")) {
		t.Fatalf("expected effective price 900.00, got %s", item.EffectiveUnitPrice)
	}

	if got := f.stockOf(t, "laptop"); got != 47 {
		t.Fatalf("expected stock 47, got %d", got)
	}
}

func TestProcessSale_TradeOfferDeductsFreeUnits(t *testing.T) {
	f := newFixture(t)
	f.addProduct(t, tradeOfferMouse(100))

	sale, err := f.processor.ProcessSale(context.Background(), "user-1", []domain.SaleLine{
		{ProductID: "mouse", Quantity: 7},
	})
	if err != nil {
		t.Fatalf("process sale: %v", err)
	}

	item := sale.Items[0]
	if item.FreeQuantity != 2 {
		t.Fatalf("expected 2 free units, got %d", item.FreeQuantity)
	}
	// Покупатель платит полную цену за 7 единиц.
	if !item.Subtotal.Equal(decimal.RequireFromString("175.00")) {
		t.Fatalf("expected subtotal 175.00, got %s", item.Subtotal)
	}
	// Стоимость бесплатных единиц отчётная и Total не уменьшает.
	if !sale.DiscountTotal.Equal(decimal.RequireFromString("50.00")) {
		t.Fatalf("expected discount total 50.00, got %s", sale.DiscountTotal)
	}
	if !sale.Total.Equal(decimal.RequireFromString("175.00")) {
		t.Fatalf("expected total 175.00, got %s", sale.Total)
	}

	// Со склада списаны и оплаченные, и бесплатные единицы.
	if got := f.stockOf(t, "mouse"); got != 91 {
		t.Fatalf("expected stock 91, got %d", got)
	}
}

func TestProcessSale_InsufficientStockForFreeUnits(t *testing.T) {
	f := newFixture(t)
	// Запрошенные 3 помещаются, но с бесплатной единицей нужно 4.
	f.addProduct(t, tradeOfferMouse(3))

	_, err := f.processor.ProcessSale(context.Background(), "user-1", []domain.SaleLine{
		{ProductID: "mouse", Quantity: 3},
	})
	if !domain.IsInsufficientStock(err) {
		t.Fatalf("expected insufficient stock error, got %v", err)
	}

	if got := f.stockOf(t, "mouse"); got != 3 {
		t.Fatalf("expected stock unchanged, got %d", got)
	}
}

func TestProcessSale_UnknownProductRejectsWholeSale(t *testing.T) {
	f := newFixture(t)
	f.addProduct(t, plainMonitor(30))

	_, err := f.processor.ProcessSale(context.Background(), "user-1", []domain.SaleLine{
		{ProductID: "monitor", Quantity: 1},
		{ProductID: "ghost", Quantity: 1},
	})
	if !domain.IsProductNotFound(err) {
		t.Fatalf("expected product not found error, got %v", err)
	}

	if got := f.stockOf(t, "monitor"); got != 30 {
		t.Fatalf("expected stock unchanged, got %d", got)
	}
	sales, err := f.sales.ListByUser(context.Background(), "user-1", 10)
	if err != nil {
		t.Fatalf("list sales: %v", err)
	}
	if len(sales) != 0 {
		t.Fatalf("expected no sales persisted, got %d", len(sales))
	}
}

func TestProcessSale_MultiLineFailureCommitsNothing(t *testing.T) {
	f := newFixture(t)
	f.addProduct(t, discountLaptop(50))
	f.addProduct(t, plainMonitor(1))

	_, err := f.processor.ProcessSale(context.Background(), "user-1", []domain.SaleLine{
		{ProductID: "laptop", Quantity: 2},
		{ProductID: "monitor", Quantity: 5},
	})
	if !domain.IsInsufficientStock(err) {
		t.Fatalf("expected insufficient stock error, got %v", err)
	}

	if got := f.stockOf(t, "laptop"); got != 50 {
		t.Fatalf("expected laptop stock unchanged, got %d", got)
	}
	if got := f.stockOf(t, "monitor"); got != 1 {
		t.Fatalf("expected monitor stock unchanged, got %d", got)
	}

	sales, err := f.sales.ListByUser(context.Background(), "user-1", 10)
	if err != nil {
		t.Fatalf("list sales: %v", err)
	}
	if len(sales) != 0 {
		t.Fatalf("expected no sales persisted, got %d", len(sales))
	}

	stats, err := f.outbox.Stats()
	if err != nil {
		t.Fatalf("outbox stats: %v", err)
	}
	if stats.PendingCount != 0 {
		t.Fatalf("expected empty outbox, got %d pending", stats.PendingCount)
	}
}

func TestProcessSale_DuplicateLinesExceedStock(t *testing.T) {
	f := newFixture(t)
	f.addProduct(t, plainMonitor(10))

	// Каждая позиция проходит проверку по снимку (6 <= 10), но второе
	// списание в сумме требует 12 и должно откатить продажу целиком.
	_, err := f.processor.ProcessSale(context.Background(), "user-1", []domain.SaleLine{
		{ProductID: "monitor", Quantity: 6},
		{ProductID: "monitor", Quantity: 6},
	})
	if !domain.IsInsufficientStock(err) {
		t.Fatalf("expected insufficient stock error, got %v", err)
	}

	// Ошибка показывает остаток с учётом первого списания в транзакции.
	var stockErr *domain.InsufficientStockError
	if !errors.As(err, &stockErr) {
		t.Fatalf("expected InsufficientStockError, got %T", err)
	}
	if stockErr.Available != 4 {
		t.Fatalf("expected available 4, got %d", stockErr.Available)
	}
	if stockErr.Required != 6 {
		t.Fatalf("expected required 6, got %d", stockErr.Required)
	}

	if got := f.stockOf(t, "monitor"); got != 10 {
		t.Fatalf("expected stock unchanged, got %d", got)
	}
	sales, err := f.sales.ListByUser(context.Background(), "user-1", 10)
	if err != nil {
		t.Fatalf("list sales: %v", err)
	}
	if len(sales) != 0 {
		t.Fatalf("expected no sales persisted, got %d", len(sales))
	}
}

func TestProcessSale_DuplicateLinesWithinStock(t *testing.T) {
	f := newFixture(t)
	f.addProduct(t, plainMonitor(10))

	sale, err := f.processor.ProcessSale(context.Background(), "user-1", []domain.SaleLine{
		{ProductID: "monitor", Quantity: 4},
		{ProductID: "monitor", Quantity: 3},
	})
	if err != nil {
		t.Fatalf("process sale: %v", err)
	}

	if len(sale.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(sale.Items))
	}
	if got := f.stockOf(t, "monitor"); got != 3 {
		t.Fatalf("expected stock 3, got %d", got)
	}
}

func TestProcessSale_AggregatesEqualItemSums(t *testing.T) {
	f := newFixture(t)
	f.addProduct(t, discountLaptop(50))
	f.addProduct(t, tradeOfferMouse(100))
	f.addProduct(t, plainMonitor(30))

	sale, err := f.processor.ProcessSale(context.Background(), "user-1", []domain.SaleLine{
		{ProductID: "laptop", Quantity: 2},
		{ProductID: "mouse", Quantity: 6},
		{ProductID: "monitor", Quantity: 1},
	})
	if err != nil {
		t.Fatalf("process sale: %v", err)
	}

	subtotal := decimal.Zero
	discount := decimal.Zero
	for _, item := range sale.Items {
		subtotal = subtotal.Add(item.Subtotal)
		discount = discount.Add(item.DiscountAmount)
	}

	if !sale.Subtotal.Equal(subtotal) {
		t.Fatalf("subtotal %s does not match item sum %s", sale.Subtotal, subtotal)
	}
	if !sale.DiscountTotal.Equal(discount) {
		t.Fatalf("discount total %s does not match item sum %s", sale.DiscountTotal, discount)
	}
	if !sale.Total.Equal(sale.Subtotal) {
		t.Fatalf("total %s does not equal subtotal %s", sale.Total, sale.Subtotal)
	}

	// Сохранённая продажа совпадает с возвращённой.
	stored, err := f.sales.Get(context.Background(), sale.ID)
	if err != nil {
		t.Fatalf("get sale: %v", err)
	}
	if len(stored.Items) != len(sale.Items) {
		t.Fatalf("expected %d stored items, got %d", len(sale.Items), len(stored.Items))
	}
	if !stored.Total.Equal(sale.Total) {
		t.Fatalf("stored total %s does not match %s", stored.Total, sale.Total)
	}
}

func TestProcessSale_WritesOutboxEvent(t *testing.T) {
	f := newFixture(t)
	f.addProduct(t, plainMonitor(30))

	sale, err := f.processor.ProcessSale(context.Background(), "user-1", []domain.SaleLine{
		{ProductID: "monitor", Quantity: 2},
	})
	if err != nil {
		t.Fatalf("process sale: %v", err)
	}

	pending, err := f.outbox.PullPending(10)
	if err != nil {
		t.Fatalf("pull pending: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected 1 outbox message, got %d", len(pending))
	}

	msg := pending[0]
	if msg.AggregateID != sale.ID {
		t.Fatalf("expected aggregate id %s, got %s", sale.ID, msg.AggregateID)
	}
	if msg.EventType != "sale.completed" {
		t.Fatalf("expected sale.completed event, got %s", msg.EventType)
	}
	if len(msg.Payload) == 0 {
		t.Fatal("expected non-empty payload")
	}
}

func TestProcessSale_EmptyLines(t *testing.T) {
	f := newFixture(t)

	if _, err := f.processor.ProcessSale(context.Background(), "user-1", nil); err == nil {
		t.Fatal("expected error for empty sale")
	}
}

func TestProcessSale_ConcurrentSalesNeverOversell(t *testing.T) {
	f := newFixture(t)
	f.addProduct(t, plainMonitor(10))

	const workers = 20

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.processor.ProcessSale(context.Background(), "user-1", []domain.SaleLine{
				{ProductID: "monitor", Quantity: 1},
			})
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			} else if !domain.IsInsufficientStock(err) {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if succeeded != 10 {
		t.Fatalf("expected exactly 10 successful sales, got %d", succeeded)
	}
	if got := f.stockOf(t, "monitor"); got != 0 {
		t.Fatalf("expected stock 0, got %d", got)
	}
}

func TestProcessSale_ConcurrentLastUnit(t *testing.T) {
	f := newFixture(t)
	f.addProduct(t, plainMonitor(1))

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)

	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.processor.ProcessSale(context.Background(), "user-1", []domain.SaleLine{
				{ProductID: "monitor", Quantity: 1},
			})
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if succeeded != 1 {
		t.Fatalf("expected exactly one sale to succeed, got %d", succeeded)
	}
	if got := f.stockOf(t, "monitor"); got != 0 {
		t.Fatalf("expected stock 0, got %d", got)
	}
}

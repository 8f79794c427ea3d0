package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/vladislavdragonenkov/pos/internal/domain"
	"github.com/vladislavdragonenkov/pos/internal/storage/postgres"
)

const defaultTimeout = 30 * time.Second

// seedProduct описывает демо-товар для наполнения каталога.
type seedProduct struct {
	name            string
	price           string
	stock           int
	discountPercent string
	tradeOfferMin   int
	tradeOfferGet   int
	// Смещения окна акции в днях относительно текущего момента.
	startsInDays int
	endsInDays   int
	hasWindow    bool
}

// Демо-товары покрывают все сценарии акций: активная скидка, trade-offer,
// без акции, истёкшая и будущая акции.
var seedProducts = []seedProduct{
	{name: "Laptop", price: "1000.00", stock: 50, discountPercent: "10.00", startsInDays: -5, endsInDays: 30, hasWindow: true},
	{name: "Mouse", price: "25.00", stock: 100, tradeOfferMin: 3, tradeOfferGet: 1, startsInDays: -10, endsInDays: 20, hasWindow: true},
	{name: "Keyboard", price: "50.00", stock: 75, tradeOfferMin: 5, tradeOfferGet: 2, startsInDays: -3, endsInDays: 15, hasWindow: true},
	{name: "Monitor", price: "300.00", stock: 30},
	{name: "Webcam", price: "75.00", stock: 40, discountPercent: "15.00", startsInDays: -30, endsInDays: -5, hasWindow: true},
	{name: "Headphones", price: "100.00", stock: 60, discountPercent: "20.00", startsInDays: 5, endsInDays: 30, hasWindow: true},
	{name: "USB Cable", price: "10.00", stock: 200, discountPercent: "25.00", startsInDays: -2, endsInDays: 10, hasWindow: true},
	{name: "Phone Case", price: "15.00", stock: 150, tradeOfferMin: 2, tradeOfferGet: 1, startsInDays: -1, endsInDays: 25, hasWindow: true},
}

func main() {
	var dsn string
	flag.StringVar(&dsn, "dsn", "", "PostgreSQL DSN (fallback: POS_POSTGRES_DSN)")
	flag.Parse()

	if strings.TrimSpace(dsn) == "" {
		dsn = strings.TrimSpace(os.Getenv("POS_POSTGRES_DSN"))
	}
	if dsn == "" {
		fail("POS_POSTGRES_DSN (or -dsn) is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	store, err := postgres.Open(ctx, dsn)
	if err != nil {
		fail("open postgres store: %v", err)
	}
	defer store.Close()

	if err := store.EnsureSchema(ctx); err != nil {
		fail("ensure schema: %v", err)
	}

	if err := seedUser(ctx, store); err != nil {
		fail("seed user: %v", err)
	}

	products := postgres.NewProductRepository(store)
	now := time.Now().UTC()
	for _, sp := range seedProducts {
		if err := products.Create(ctx, sp.toDomain(now)); err != nil {
			fail("seed product %q: %v", sp.name, err)
		}
		fmt.Printf("seeded product: %s\n", sp.name)
	}

	fmt.Println("seed completed")
}

func (sp seedProduct) toDomain(now time.Time) domain.Product {
	product := domain.Product{
		ID:        uuid.NewString(),
		Name:      sp.name,
		Price:     decimal.RequireFromString(sp.price),
		Stock:     sp.stock,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if sp.discountPercent != "" {
		pct := decimal.RequireFromString(sp.discountPercent)
		product.DiscountPercent = &pct
	}
	if sp.tradeOfferMin > 0 {
		minQty, getQty := sp.tradeOfferMin, sp.tradeOfferGet
		product.TradeOfferMinQty = &minQty
		product.TradeOfferGetQty = &getQty
	}
	if sp.hasWindow {
		starts := now.AddDate(0, 0, sp.startsInDays)
		ends := now.AddDate(0, 0, sp.endsInDays)
		product.OfferStartsAt = &starts
		product.OfferEndsAt = &ends
	}

	return product
}

func seedUser(ctx context.Context, store *postgres.Store) error {
	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	users := postgres.NewUserRepository(store)
	err = users.Create(ctx, domain.User{
		ID:           uuid.NewString(),
		Name:         "Test User",
		Email:        "test@example.com",
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil && !errors.Is(err, domain.ErrEmailTaken) {
		return err
	}

	fmt.Println("seeded user: test@example.com")
	return nil
}

func fail(format string, args ...any) {
	_, _ = fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/pos/internal/domain"
)

const (
	opTimeout = 5 * time.Second
)

const productColumns = `
	id, name, price, stock,
	trade_offer_min_qty, trade_offer_get_qty, discount_percent,
	offer_starts_at, offer_ends_at, created_at, updated_at
`

type productRepository struct {
	db *sql.DB
}

// NewProductRepository создаёт PostgreSQL-реализацию ProductRepository.
func NewProductRepository(store *Store) domain.ProductRepository {
	return &productRepository{db: store.DB()}
}

func (r *productRepository) Create(ctx context.Context, product domain.Product) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO products (
			id, name, price, stock,
			trade_offer_min_qty, trade_offer_get_qty, discount_percent,
			offer_starts_at, offer_ends_at, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	`,
		product.ID, product.Name, product.Price, product.Stock,
		nullableInt(product.TradeOfferMinQty), nullableInt(product.TradeOfferGetQty),
		nullableDecimal(product.DiscountPercent),
		nullableTime(product.OfferStartsAt), nullableTime(product.OfferEndsAt),
		product.CreatedAt, product.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

func (r *productRepository) Get(ctx context.Context, id string) (domain.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	row := r.db.QueryRowContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = $1`, id)

	product, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Product{}, &domain.ProductNotFoundError{ProductID: id}
		}
		return domain.Product{}, fmt.Errorf("select product: %w", err)
	}
	return product, nil
}

func (r *productRepository) FindByIDs(ctx context.Context, ids []string) (map[string]domain.Product, error) {
	if len(ids) == 0 {
		return map[string]domain.Product{}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	query, args := productsByIDsQuery(ids)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select products by ids: %w", err)
	}
	defer rows.Close()

	return collectProducts(rows)
}

func (r *productRepository) List(ctx context.Context) ([]domain.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+productColumns+` FROM products ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	products := make([]domain.Product, 0)
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product row: %w", err)
		}
		products = append(products, product)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate product rows: %w", err)
	}

	return products, nil
}

func (r *productRepository) Update(ctx context.Context, product domain.Product) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `
		UPDATE products
		SET name = $1,
		    price = $2,
		    stock = $3,
		    trade_offer_min_qty = $4,
		    trade_offer_get_qty = $5,
		    discount_percent = $6,
		    offer_starts_at = $7,
		    offer_ends_at = $8,
		    updated_at = $9
		WHERE id = $10
	`,
		product.Name, product.Price, product.Stock,
		nullableInt(product.TradeOfferMinQty), nullableInt(product.TradeOfferGetQty),
		nullableDecimal(product.DiscountPercent),
		nullableTime(product.OfferStartsAt), nullableTime(product.OfferEndsAt),
		product.UpdatedAt, product.ID,
	)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return &domain.ProductNotFoundError{ProductID: product.ID}
	}
	return nil
}

// productsByIDsQuery строит запрос с плейсхолдерами под список ID.
func productsByIDsQuery(ids []string) (string, []interface{}) {
	placeholders := make([]string, len(ids))
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}
	query := `SELECT ` + productColumns + ` FROM products WHERE id IN (` +
		strings.Join(placeholders, ",") + `)`
	return query, args
}

func collectProducts(rows *sql.Rows) (map[string]domain.Product, error) {
	result := make(map[string]domain.Product)
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product row: %w", err)
		}
		result[product.ID] = product
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate product rows: %w", err)
	}
	return result, nil
}

// rowScanner покрывает *sql.Row и *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProduct(row rowScanner) (domain.Product, error) {
	var (
		product  domain.Product
		minQty   sql.NullInt64
		getQty   sql.NullInt64
		discount decimal.NullDecimal
		startsAt sql.NullTime
		endsAt   sql.NullTime
	)

	if err := row.Scan(
		&product.ID, &product.Name, &product.Price, &product.Stock,
		&minQty, &getQty, &discount,
		&startsAt, &endsAt, &product.CreatedAt, &product.UpdatedAt,
	); err != nil {
		return domain.Product{}, err
	}

	if minQty.Valid {
		v := int(minQty.Int64)
		product.TradeOfferMinQty = &v
	}
	if getQty.Valid {
		v := int(getQty.Int64)
		product.TradeOfferGetQty = &v
	}
	if discount.Valid {
		v := discount.Decimal
		product.DiscountPercent = &v
	}
	if startsAt.Valid {
		v := startsAt.Time
		product.OfferStartsAt = &v
	}
	if endsAt.Valid {
		v := endsAt.Time
		product.OfferEndsAt = &v
	}

	return product, nil
}

func nullableInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func nullableDecimal(v *decimal.Decimal) decimal.NullDecimal {
	if v == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *v, Valid: true}
}

func nullableTime(v *time.Time) sql.NullTime {
	if v == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *v, Valid: true}
}

var _ domain.ProductRepository = (*productRepository)(nil)

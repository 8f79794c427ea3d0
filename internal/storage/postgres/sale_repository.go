package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/pos/internal/domain"
)

type saleRepository struct {
	db *sql.DB
}

// NewSaleRepository создаёт PostgreSQL-реализацию SaleRepository.
// Записи продаж создаются только внутри UnitOfWork; здесь — чтение.
func NewSaleRepository(store *Store) domain.SaleRepository {
	return &saleRepository{db: store.DB()}
}

func (r *saleRepository) Get(ctx context.Context, id string) (domain.Sale, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var sale domain.Sale
	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, subtotal, discount_total, total, created_at
		FROM sales
		WHERE id = $1
	`, id).Scan(
		&sale.ID, &sale.UserID, &sale.Subtotal, &sale.DiscountTotal,
		&sale.Total, &sale.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Sale{}, domain.ErrSaleNotFound
		}
		return domain.Sale{}, fmt.Errorf("select sale: %w", err)
	}

	items, err := r.loadItems(ctx, sale.ID)
	if err != nil {
		return domain.Sale{}, err
	}
	sale.Items = items

	return sale, nil
}

func (r *saleRepository) ListByUser(ctx context.Context, userID string, limit int) ([]domain.Sale, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	query := `
		SELECT id, user_id, subtotal, discount_total, total, created_at
		FROM sales
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
	`

	var (
		rows *sql.Rows
		err  error
	)
	if limit > 0 {
		rows, err = r.db.QueryContext(ctx, query+" LIMIT $2", userID, limit)
	} else {
		rows, err = r.db.QueryContext(ctx, query, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}
	defer rows.Close()

	sales := make([]domain.Sale, 0)
	for rows.Next() {
		var sale domain.Sale
		if err := rows.Scan(
			&sale.ID, &sale.UserID, &sale.Subtotal, &sale.DiscountTotal,
			&sale.Total, &sale.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan sale row: %w", err)
		}
		sales = append(sales, sale)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sale rows: %w", err)
	}

	for i := range sales {
		items, err := r.loadItems(ctx, sales[i].ID)
		if err != nil {
			return nil, err
		}
		sales[i].Items = items
	}

	return sales, nil
}

func (r *saleRepository) loadItems(ctx context.Context, saleID string) ([]domain.SaleItem, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, sale_id, product_id, product_name, quantity, free_quantity,
		       unit_price, effective_unit_price, discount_percent,
		       discount_amount, subtotal, offer_type, offer_details, created_at
		FROM sale_items
		WHERE sale_id = $1
		ORDER BY created_at ASC, id ASC
	`, saleID)
	if err != nil {
		return nil, fmt.Errorf("load sale items: %w", err)
	}
	defer rows.Close()

	items := make([]domain.SaleItem, 0)
	for rows.Next() {
		var (
			item      domain.SaleItem
			offerType string
			discount  decimal.NullDecimal
		)
		if err := rows.Scan(
			&item.ID, &item.SaleID, &item.ProductID, &item.ProductName,
			&item.Quantity, &item.FreeQuantity,
			&item.UnitPrice, &item.EffectiveUnitPrice, &discount,
			&item.DiscountAmount, &item.Subtotal, &offerType,
			&item.OfferDetails, &item.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan sale item: %w", err)
		}
		item.OfferType = domain.OfferType(offerType)
		if discount.Valid {
			v := discount.Decimal
			item.DiscountPercent = &v
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sale items: %w", err)
	}

	return items, nil
}

var _ domain.SaleRepository = (*saleRepository)(nil)

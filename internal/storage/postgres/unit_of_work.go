package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/vladislavdragonenkov/pos/internal/domain"
)

const txTimeout = 10 * time.Second

// unitOfWork выполняет транзакцию продажи поверх одной SQL-транзакции.
type unitOfWork struct {
	db *sql.DB
}

// NewUnitOfWork возвращает PostgreSQL-единицу работы для продаж.
func NewUnitOfWork(store *Store) domain.UnitOfWork {
	return &unitOfWork{db: store.DB()}
}

// Do открывает транзакцию, выполняет fn и коммитит при успехе.
// Любая ошибка из fn откатывает транзакцию и возвращается без изменений.
func (u *unitOfWork) Do(ctx context.Context, fn func(tx domain.SaleTx) error) error {
	ctx, cancel := context.WithTimeout(ctx, txTimeout)
	defer cancel()

	tx, err := u.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	if err := fn(&saleTx{tx: tx}); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit sale tx: %w", err)
	}
	return nil
}

// saleTx реализует операции транзакции продажи поверх *sql.Tx.
type saleTx struct {
	tx *sql.Tx
}

func (t *saleTx) ProductsByIDs(ctx context.Context, ids []string) (map[string]domain.Product, error) {
	if len(ids) == 0 {
		return map[string]domain.Product{}, nil
	}

	query, args := productsByIDsQuery(ids)
	rows, err := t.tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select products by ids: %w", err)
	}
	defer rows.Close()

	return collectProducts(rows)
}

func (t *saleTx) InsertSale(ctx context.Context, sale domain.Sale) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO sales (id, user_id, subtotal, discount_total, total, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)
	`,
		sale.ID, sale.UserID, sale.Subtotal, sale.DiscountTotal, sale.Total, sale.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert sale: %w", err)
	}
	return nil
}

func (t *saleTx) InsertSaleItem(ctx context.Context, item domain.SaleItem) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO sale_items (
			id, sale_id, product_id, product_name, quantity, free_quantity,
			unit_price, effective_unit_price, discount_percent,
			discount_amount, subtotal, offer_type, offer_details, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
	`,
		item.ID, item.SaleID, item.ProductID, item.ProductName,
		item.Quantity, item.FreeQuantity,
		item.UnitPrice, item.EffectiveUnitPrice, nullableDecimal(item.DiscountPercent),
		item.DiscountAmount, item.Subtotal, string(item.OfferType),
		item.OfferDetails, item.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert sale item: %w", err)
	}
	return nil
}

// DecrementStock — условное списание одним UPDATE: проверка остатка и
// запись атомарны относительно конкурентных списаний того же товара.
func (t *saleTx) DecrementStock(ctx context.Context, productID string, qty int) (bool, error) {
	res, err := t.tx.ExecContext(ctx, `
		UPDATE products
		SET stock = stock - $1,
		    updated_at = NOW()
		WHERE id = $2
		  AND stock >= $1
	`, qty, productID)
	if err != nil {
		return false, fmt.Errorf("decrement stock: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

func (t *saleTx) EnqueueOutbox(ctx context.Context, msg domain.OutboxMessage) error {
	now := time.Now().UTC()
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO outbox_messages (
			id, aggregate_type, aggregate_id, event_type, payload,
			status, attempt_count, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,'pending',0,$6,$7)
	`,
		msg.ID, msg.AggregateType, msg.AggregateID, msg.EventType, msg.Payload, now, now,
	)
	if err != nil {
		return fmt.Errorf("enqueue outbox message: %w", err)
	}
	return nil
}

var _ domain.SaleTx = (*saleTx)(nil)
var _ domain.UnitOfWork = (*unitOfWork)(nil)

package memory

import (
	"context"

	"github.com/vladislavdragonenkov/pos/internal/domain"
)

// unitOfWork выполняет транзакции продаж поверх Store. Store-wide мьютекс
// сериализует транзакции целиком, поэтому конкурентные продажи одного
// товара видят уже списанный остаток и не могут увести его в минус.
type unitOfWork struct {
	store *Store
}

// NewUnitOfWork возвращает in-memory единицу работы для продаж.
func NewUnitOfWork(store *Store) domain.UnitOfWork {
	return &unitOfWork{store: store}
}

// Do выполняет fn атомарно: при ошибке состояние восстанавливается из
// снимка, сделанного перед вызовом.
func (u *unitOfWork) Do(ctx context.Context, fn func(tx domain.SaleTx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	u.store.mu.Lock()
	defer u.store.mu.Unlock()

	products, sales, outbox := u.store.snapshot()

	if err := fn(&saleTx{store: u.store}); err != nil {
		u.store.products = products
		u.store.sales = sales
		u.store.outbox = outbox
		return err
	}
	return nil
}

// saleTx работает с состоянием Store напрямую; блокировку держит Do.
type saleTx struct {
	store *Store
}

func (t *saleTx) ProductsByIDs(_ context.Context, ids []string) (map[string]domain.Product, error) {
	result := make(map[string]domain.Product, len(ids))
	for _, id := range ids {
		if product, ok := t.store.products[id]; ok {
			result[id] = product
		}
	}
	return result, nil
}

func (t *saleTx) InsertSale(_ context.Context, sale domain.Sale) error {
	// Позиции добавляются отдельными InsertSaleItem.
	sale.Items = nil
	t.store.sales[sale.ID] = sale
	return nil
}

func (t *saleTx) InsertSaleItem(_ context.Context, item domain.SaleItem) error {
	sale, ok := t.store.sales[item.SaleID]
	if !ok {
		return domain.ErrSaleNotFound
	}
	sale.Items = append(sale.Items, item)
	t.store.sales[item.SaleID] = sale
	return nil
}

func (t *saleTx) DecrementStock(_ context.Context, productID string, qty int) (bool, error) {
	product, ok := t.store.products[productID]
	if !ok || product.Stock < qty {
		return false, nil
	}
	product.Stock -= qty
	t.store.products[productID] = product
	return true, nil
}

func (t *saleTx) EnqueueOutbox(_ context.Context, msg domain.OutboxMessage) error {
	t.store.outbox[msg.ID] = outboxRecord{
		msg:       msg,
		status:    outboxStatusPending,
		createdAt: nowFunc(),
	}
	return nil
}

var _ domain.SaleTx = (*saleTx)(nil)
var _ domain.UnitOfWork = (*unitOfWork)(nil)

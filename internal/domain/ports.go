package domain

import "context"

// ProductRepository описывает требования к хранилищу товаров вне
// транзакции продажи (управление каталогом).
type ProductRepository interface {
	// Create сохраняет новый товар.
	Create(ctx context.Context, product Product) error
	// Get возвращает товар по идентификатору или ErrProductNotFound.
	Get(ctx context.Context, id string) (Product, error)
	// FindByIDs возвращает товары по списку идентификаторов; отсутствующие
	// ID просто не попадают в результат, это не ошибка.
	FindByIDs(ctx context.Context, ids []string) (map[string]Product, error)
	// List возвращает все товары каталога.
	List(ctx context.Context) ([]Product, error)
	// Update перезаписывает поля товара или возвращает ErrProductNotFound.
	Update(ctx context.Context, product Product) error
}

// SaleRepository — read-side хранилища продаж. Продажи создаются
// исключительно внутри UnitOfWork.
type SaleRepository interface {
	// Get возвращает продажу с позициями или ErrSaleNotFound.
	Get(ctx context.Context, id string) (Sale, error)
	// ListByUser возвращает продажи пользователя, свежие первыми.
	ListByUser(ctx context.Context, userID string, limit int) ([]Sale, error)
}

// UserRepository описывает хранилище учётных записей.
type UserRepository interface {
	// Create сохраняет пользователя; занятый email — ErrEmailTaken.
	Create(ctx context.Context, user User) error
	// Get возвращает пользователя по идентификатору или ErrUserNotFound.
	Get(ctx context.Context, id string) (User, error)
	// GetByEmail возвращает пользователя по email или ErrUserNotFound.
	GetByEmail(ctx context.Context, email string) (User, error)
}

// SaleTx — операции, доступные внутри транзакции продажи. Все вызовы
// действуют на одном атомарном снимке хранилища: либо фиксируются все
// записи (продажа, позиции, событие, списания), либо ни одна.
type SaleTx interface {
	// ProductsByIDs возвращает товары по списку идентификаторов;
	// отсутствующие ID не попадают в результат.
	ProductsByIDs(ctx context.Context, ids []string) (map[string]Product, error)
	// InsertSale сохраняет заголовок продажи.
	InsertSale(ctx context.Context, sale Sale) error
	// InsertSaleItem сохраняет позицию продажи.
	InsertSaleItem(ctx context.Context, item SaleItem) error
	// DecrementStock уменьшает остаток товара на qty, только если остатка
	// достаточно, и сообщает, прошло ли списание. Проверка и запись — одно
	// атомарное действие относительно конкурентных списаний того же товара.
	DecrementStock(ctx context.Context, productID string, qty int) (bool, error)
	// EnqueueOutbox записывает событие в outbox в рамках той же транзакции.
	EnqueueOutbox(ctx context.Context, msg OutboxMessage) error
}

// UnitOfWork выполняет fn в одной атомарной транзакции. Ошибка из fn
// откатывает все изменения и возвращается вызывающему без изменений.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(tx SaleTx) error) error
}

// OutboxRepository позволяет читать и помечать события для публикации.
type OutboxRepository interface {
	Enqueue(msg OutboxMessage) (OutboxMessage, error)
	PullPending(limit int) ([]OutboxMessage, error)
	Stats() (OutboxStats, error)
	MarkSent(id string) error
	MarkFailed(id string) error
}

// OutboxPublisher публикует события из transactional outbox.
type OutboxPublisher interface {
	// Publish передаёт событие наружу; должен быть идемпотентным.
	Publish(event OutboxMessage) error
}

// Package memory содержит in-memory реализацию хранилища для локальной
// разработки и тестов. Все репозитории разделяют одно состояние Store;
// единица работы сериализует транзакции store-wide мьютексом и
// восстанавливает снимок состояния при ошибке, повторяя all-or-nothing
// семантику SQL-транзакции.
package memory

import (
	"sync"
	"time"

	"github.com/vladislavdragonenkov/pos/internal/domain"
)

// outboxRecord — outbox-сообщение со статусом доставки.
type outboxRecord struct {
	msg       domain.OutboxMessage
	status    string
	createdAt time.Time
}

const (
	outboxStatusPending = "pending"
	outboxStatusSent    = "sent"
	outboxStatusFailed  = "failed"
)

// nowFunc вынесен для детерминированных тестов backlog-статистики.
var nowFunc = func() time.Time { return time.Now().UTC() }

// Store хранит всё состояние in-memory бэкенда.
type Store struct {
	mu       sync.RWMutex
	products map[string]domain.Product
	sales    map[string]domain.Sale
	users    map[string]domain.User
	outbox   map[string]outboxRecord
}

// NewStore создаёт пустое in-memory хранилище.
func NewStore() *Store {
	return &Store{
		products: make(map[string]domain.Product),
		sales:    make(map[string]domain.Sale),
		users:    make(map[string]domain.User),
		outbox:   make(map[string]outboxRecord),
	}
}

// snapshot делает глубокую копию состояния для отката транзакции.
// Вызывается только под write-блокировкой.
func (s *Store) snapshot() (map[string]domain.Product, map[string]domain.Sale, map[string]outboxRecord) {
	products := make(map[string]domain.Product, len(s.products))
	for k, v := range s.products {
		products[k] = v
	}
	sales := make(map[string]domain.Sale, len(s.sales))
	for k, v := range s.sales {
		// Копируем срез позиций: транзакция может дописывать items.
		copied := v
		copied.Items = append([]domain.SaleItem(nil), v.Items...)
		sales[k] = copied
	}
	outbox := make(map[string]outboxRecord, len(s.outbox))
	for k, v := range s.outbox {
		outbox[k] = v
	}
	return products, sales, outbox
}

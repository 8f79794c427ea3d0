package kafka

import "time"

// EventType определяет тип события
type EventType string

const (
	// События продаж
	EventTypeSaleCompleted EventType = "sale.completed"
)

// Topics для Kafka
const (
	TopicSaleEvents = "pos.sale.events"
)

// Aggregate types для outbox-сообщений
const (
	AggregateTypeSale = "sale"
)

// SaleEventItem — краткая сводка позиции в событии продажи.
type SaleEventItem struct {
	ProductID      string `json:"product_id"`
	ProductName    string `json:"product_name"`
	Quantity       int    `json:"quantity"`
	FreeQuantity   int    `json:"free_quantity"`
	OfferType      string `json:"offer_type"`
	Subtotal       string `json:"subtotal"`
	DiscountAmount string `json:"discount_amount"`
}

// SaleCompletedEvent публикуется после фиксации транзакции продажи.
// Денежные поля сериализуются строками, чтобы не терять точность
// fixed-point представления.
type SaleCompletedEvent struct {
	EventType     EventType       `json:"event_type"`
	SaleID        string          `json:"sale_id"`
	UserID        string          `json:"user_id"`
	Subtotal      string          `json:"subtotal"`
	DiscountTotal string          `json:"discount_total"`
	Total         string          `json:"total"`
	Items         []SaleEventItem `json:"items"`
	OccurredAt    time.Time       `json:"occurred_at"`
}

// NewSaleCompletedEvent создаёт событие фиксации продажи.
func NewSaleCompletedEvent(saleID, userID, subtotal, discountTotal, total string, items []SaleEventItem, occurredAt time.Time) *SaleCompletedEvent {
	return &SaleCompletedEvent{
		EventType:     EventTypeSaleCompleted,
		SaleID:        saleID,
		UserID:        userID,
		Subtotal:      subtotal,
		DiscountTotal: discountTotal,
		Total:         total,
		Items:         items,
		OccurredAt:    occurredAt,
	}
}

package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// SaleLine — одна позиция запроса на продажу: товар и запрошенное количество.
// Не сохраняется в хранилище.
type SaleLine struct {
	ProductID string
	Quantity  int
}

// Sale — заголовок совершённой продажи. После создания запись неизменяема.
type Sale struct {
	ID            string
	UserID        string
	Subtotal      decimal.Decimal
	DiscountTotal decimal.Decimal
	Total         decimal.Decimal
	CreatedAt     time.Time
	Items         []SaleItem
}

// SaleItem — позиция продажи, замороженный снимок цен на момент сделки.
// Последующие изменения товара на сохранённые позиции не влияют.
type SaleItem struct {
	ID          string
	SaleID      string
	ProductID   string
	ProductName string
	// Quantity — запрошенное (оплаченное) количество.
	Quantity int
	// FreeQuantity — бесплатные единицы по trade-offer; списываются со склада.
	FreeQuantity int
	// UnitPrice — базовая цена единицы на момент продажи.
	UnitPrice decimal.Decimal
	// EffectiveUnitPrice — цена единицы после скидки.
	EffectiveUnitPrice decimal.Decimal
	// DiscountPercent — применённый процент скидки; nil, если скидки не было.
	DiscountPercent *decimal.Decimal
	// DiscountAmount — сумма скидки по позиции. Для trade-offer это денежная
	// стоимость бесплатных единиц: она отчётная и не уменьшает Subtotal.
	DiscountAmount decimal.Decimal
	Subtotal       decimal.Decimal
	OfferType      OfferType
	// OfferDetails — человекочитаемое описание применённой акции.
	OfferDetails string
	CreatedAt    time.Time
}

// TotalQuantity возвращает полное списание со склада по позиции:
// оплаченные плюс бесплатные единицы.
func (i *SaleItem) TotalQuantity() int {
	return i.Quantity + i.FreeQuantity
}

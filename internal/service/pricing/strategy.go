// Package pricing содержит стратегии расчёта цены позиции продажи.
// Вся денежная арифметика ведётся в fixed-point с двумя знаками:
// каждая вычисленная сумма округляется один раз, накопления ошибки
// плавающей точки между позициями нет.
package pricing

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/pos/internal/domain"
)

// LineResult — результат расчёта одной позиции: цены, количества,
// скидка и подытог. Стратегии не имеют состояния, поэтому одинаковые
// входы всегда дают одинаковый результат.
type LineResult struct {
	OfferType domain.OfferType
	// UnitPrice — базовая цена единицы.
	UnitPrice decimal.Decimal
	// EffectiveUnitPrice — цена единицы после скидки; для trade-offer и
	// отсутствия акции совпадает с UnitPrice.
	EffectiveUnitPrice decimal.Decimal
	// Quantity — запрошенное (оплачиваемое) количество.
	Quantity int
	// FreeQuantity — бесплатные единицы; списываются со склада вместе с
	// оплаченными.
	FreeQuantity int
	// DiscountPercent — применённый процент; nil вне стратегии скидки.
	DiscountPercent *decimal.Decimal
	// DiscountAmount — сумма скидки. Для trade-offer это стоимость
	// бесплатных единиц: отчётная величина, Subtotal она не уменьшает.
	DiscountAmount decimal.Decimal
	Subtotal       decimal.Decimal
	// Description — человекочитаемое описание применённой акции.
	Description string
}

// TotalQuantity возвращает полное списание со склада по позиции.
func (r LineResult) TotalQuantity() int {
	return r.Quantity + r.FreeQuantity
}

// Strategy рассчитывает позицию для товара и запрошенного количества.
type Strategy interface {
	// CanApply сообщает, применима ли стратегия к товару в момент now.
	CanApply(product domain.Product, now time.Time) bool
	// Calculate считает цены и количества; now нужен только для чтения
	// полей акции, побочных эффектов нет.
	Calculate(product domain.Product, qty int, now time.Time) LineResult
}

// discountStrategy применяет процентную скидку к цене единицы.
type discountStrategy struct{}

func (discountStrategy) CanApply(product domain.Product, now time.Time) bool {
	return product.HasActiveDiscount(now)
}

func (discountStrategy) Calculate(product domain.Product, qty int, now time.Time) LineResult {
	qtyDec := decimal.NewFromInt(int64(qty))
	effective := product.DiscountedPrice(now)
	percent := *product.DiscountPercent

	return LineResult{
		OfferType:          domain.OfferTypeDiscount,
		UnitPrice:          product.Price,
		EffectiveUnitPrice: effective,
		Quantity:           qty,
		FreeQuantity:       0,
		DiscountPercent:    &percent,
		DiscountAmount:     product.Price.Sub(effective).Mul(qtyDec).Round(2),
		Subtotal:           effective.Mul(qtyDec).Round(2),
		Description:        fmt.Sprintf("%s%% discount applied", percent.String()),
	}
}

// tradeOfferStrategy реализует акцию "купи X, получи Y бесплатно".
// Покупатель платит только за запрошенные единицы; стоимость бесплатных
// учитывается в DiscountAmount для аналитики.
type tradeOfferStrategy struct{}

func (tradeOfferStrategy) CanApply(product domain.Product, now time.Time) bool {
	return product.HasActiveTradeOffer(now)
}

func (tradeOfferStrategy) Calculate(product domain.Product, qty int, now time.Time) LineResult {
	qtyDec := decimal.NewFromInt(int64(qty))
	freeQty := product.FreeQuantity(now, qty)

	return LineResult{
		OfferType:          domain.OfferTypeTradeOffer,
		UnitPrice:          product.Price,
		EffectiveUnitPrice: product.Price,
		Quantity:           qty,
		FreeQuantity:       freeQty,
		DiscountPercent:    nil,
		DiscountAmount:     product.Price.Mul(decimal.NewFromInt(int64(freeQty))).Round(2),
		Subtotal:           product.Price.Mul(qtyDec).Round(2),
		Description: fmt.Sprintf(
			"Buy %d Get %d Free (Total: %d items, Paid for: %d)",
			*product.TradeOfferMinQty, *product.TradeOfferGetQty, qty+freeQty, qty,
		),
	}
}

// noOfferStrategy — терминальный fallback: обычная цена без акций.
type noOfferStrategy struct{}

func (noOfferStrategy) CanApply(domain.Product, time.Time) bool {
	return true
}

func (noOfferStrategy) Calculate(product domain.Product, qty int, _ time.Time) LineResult {
	return LineResult{
		OfferType:          domain.OfferTypeNone,
		UnitPrice:          product.Price,
		EffectiveUnitPrice: product.Price,
		Quantity:           qty,
		FreeQuantity:       0,
		DiscountPercent:    nil,
		DiscountAmount:     decimal.Zero,
		Subtotal:           product.Price.Mul(decimal.NewFromInt(int64(qty))).Round(2),
		Description:        "No active offer",
	}
}

package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OfferType описывает вид акции, действующей на товар.
type OfferType string

const (
	// OfferTypeDiscount — процентная скидка от цены.
	OfferTypeDiscount OfferType = "discount"
	// OfferTypeTradeOffer — акция "купи X, получи Y бесплатно".
	OfferTypeTradeOffer OfferType = "trade_offer"
	// OfferTypeNone — акции нет, товар продаётся по обычной цене.
	OfferTypeNone OfferType = "none"
)

// Product представляет товар каталога.
// Поля trade-offer задаются парой (оба или ни одного), скидка — процентом
// в диапазоне [0,100]. Акция действует только внутри окна [OfferStartsAt,
// OfferEndsAt].
type Product struct {
	ID    string
	Name  string
	Price decimal.Decimal
	Stock int
	// TradeOfferMinQty — сколько единиц нужно купить для одного комплекта акции.
	TradeOfferMinQty *int
	// TradeOfferGetQty — сколько единиц выдаётся бесплатно за комплект.
	TradeOfferGetQty *int
	// DiscountPercent — процент скидки; nil означает отсутствие скидки.
	DiscountPercent *decimal.Decimal
	OfferStartsAt   *time.Time
	OfferEndsAt     *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// HasActiveOffer сообщает, попадает ли момент now в окно действия акции.
// Обе границы окна должны быть заданы.
func (p *Product) HasActiveOffer(now time.Time) bool {
	if p.OfferStartsAt == nil || p.OfferEndsAt == nil {
		return false
	}
	return !now.Before(*p.OfferStartsAt) && !now.After(*p.OfferEndsAt)
}

// HasActiveDiscount сообщает, действует ли сейчас процентная скидка.
func (p *Product) HasActiveDiscount(now time.Time) bool {
	return p.HasActiveOffer(now) &&
		p.DiscountPercent != nil &&
		p.DiscountPercent.GreaterThan(decimal.Zero)
}

// HasActiveTradeOffer сообщает, действует ли сейчас акция "купи X, получи Y".
func (p *Product) HasActiveTradeOffer(now time.Time) bool {
	return p.HasActiveOffer(now) &&
		p.TradeOfferMinQty != nil &&
		p.TradeOfferGetQty != nil
}

// ActiveOfferType возвращает вид действующей акции.
// Скидка имеет приоритет над trade-offer.
func (p *Product) ActiveOfferType(now time.Time) OfferType {
	switch {
	case p.HasActiveDiscount(now):
		return OfferTypeDiscount
	case p.HasActiveTradeOffer(now):
		return OfferTypeTradeOffer
	default:
		return OfferTypeNone
	}
}

// DiscountedPrice возвращает цену единицы с учётом действующей скидки,
// округлённую до 2 знаков. Без активной скидки возвращается базовая цена.
func (p *Product) DiscountedPrice(now time.Time) decimal.Decimal {
	if !p.HasActiveDiscount(now) {
		return p.Price
	}
	discount := p.Price.Mul(*p.DiscountPercent).Div(decimal.NewFromInt(100))
	return p.Price.Sub(discount).Round(2)
}

// FreeQuantity возвращает количество бесплатных единиц за qty купленных.
// Количество меньше TradeOfferMinQty не даёт частичного комплекта.
func (p *Product) FreeQuantity(now time.Time, qty int) int {
	if !p.HasActiveTradeOffer(now) || qty < *p.TradeOfferMinQty {
		return 0
	}
	completeSets := qty / *p.TradeOfferMinQty
	return completeSets * *p.TradeOfferGetQty
}

// ValidateOfferConfig проверяет согласованность полей акции и возвращает
// список замечаний. Движок продаж эти проверки не выполняет — они
// применяются при создании и изменении товара.
func (p *Product) ValidateOfferConfig() []error {
	var errs []error

	if p.Name == "" {
		errs = append(errs, ErrProductNameRequired)
	}
	if p.Price.IsNegative() {
		errs = append(errs, ErrPriceNegative)
	}
	if p.Stock < 0 {
		errs = append(errs, ErrStockNegative)
	}

	hasDiscount := p.DiscountPercent != nil && p.DiscountPercent.GreaterThan(decimal.Zero)
	hasTradeOffer := p.TradeOfferMinQty != nil || p.TradeOfferGetQty != nil

	if p.DiscountPercent != nil {
		if p.DiscountPercent.IsNegative() || p.DiscountPercent.GreaterThan(decimal.NewFromInt(100)) {
			errs = append(errs, ErrDiscountOutOfRange)
		}
	}

	if (p.TradeOfferMinQty == nil) != (p.TradeOfferGetQty == nil) {
		errs = append(errs, ErrTradeOfferIncomplete)
	}
	if p.TradeOfferMinQty != nil && *p.TradeOfferMinQty < 1 {
		errs = append(errs, ErrTradeOfferQtyInvalid)
	}
	if p.TradeOfferGetQty != nil && *p.TradeOfferGetQty < 1 {
		errs = append(errs, ErrTradeOfferQtyInvalid)
	}

	// Скидка и trade-offer одновременно запрещены.
	if hasDiscount && p.TradeOfferMinQty != nil && p.TradeOfferGetQty != nil {
		errs = append(errs, ErrOfferConflict)
	}

	if (p.OfferStartsAt == nil) != (p.OfferEndsAt == nil) {
		errs = append(errs, ErrOfferWindowIncomplete)
	}
	if p.OfferStartsAt != nil && p.OfferEndsAt != nil {
		if p.OfferEndsAt.Before(*p.OfferStartsAt) {
			errs = append(errs, ErrOfferWindowInverted)
		}
		if !hasDiscount && !hasTradeOffer {
			errs = append(errs, ErrOfferWindowWithoutOffer)
		}
	}

	return errs
}

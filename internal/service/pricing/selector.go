package pricing

import (
	"time"

	"github.com/vladislavdragonenkov/pos/internal/domain"
)

// Selector выбирает стратегию расчёта для товара в фиксированном порядке
// приоритета: скидка → trade-offer → без акции. Первая применимая
// стратегия выигрывает; noOfferStrategy применима всегда, поэтому выбор
// не может завершиться неудачей.
//
// Товар с одновременно заполненными скидкой и trade-offer запрещён на
// уровне управления каталогом, но порядок приоритета разрешает и этот
// случай: выигрывает скидка.
type Selector struct {
	strategies []Strategy
}

// NewSelector создаёт селектор со штатным набором стратегий.
func NewSelector() *Selector {
	return &Selector{
		strategies: []Strategy{
			discountStrategy{},
			tradeOfferStrategy{},
			noOfferStrategy{},
		},
	}
}

// For возвращает первую применимую стратегию для товара.
func (s *Selector) For(product domain.Product, now time.Time) Strategy {
	for _, strategy := range s.strategies {
		if strategy.CanApply(product, now) {
			return strategy
		}
	}
	// Недостижимо: noOfferStrategy замыкает список.
	return noOfferStrategy{}
}

// Calculate выбирает стратегию и сразу считает позицию.
func (s *Selector) Calculate(product domain.Product, qty int, now time.Time) LineResult {
	return s.For(product, now).Calculate(product, qty, now)
}

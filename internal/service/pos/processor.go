// Package pos содержит транзакционное ядро обработки продаж.
package pos

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/pos/internal/domain"
	"github.com/vladislavdragonenkov/pos/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/pos/internal/metrics"
	"github.com/vladislavdragonenkov/pos/internal/service/pricing"
)

// Processor выполняет продажу как одну атомарную единицу работы:
// резолв товаров → расчёт позиций → проверка остатков по всем позициям →
// запись Sale/SaleItem и outbox-события → условные списания со склада.
// Ошибка любого шага откатывает все изменения; частичная продажа
// невозможна.
type Processor struct {
	uow      domain.UnitOfWork
	selector *pricing.Selector
	clock    domain.Clock
	logger   *log.Entry
	metrics  *metrics.POSMetrics
}

// NewProcessor создаёт рабочий экземпляр обработчика продаж.
func NewProcessor(uow domain.UnitOfWork, selector *pricing.Selector, clock domain.Clock, logger *log.Entry) *Processor {
	if selector == nil {
		selector = pricing.NewSelector()
	}
	if clock == nil {
		clock = domain.SystemClock{}
	}
	if logger == nil {
		logger = log.New().WithField("component", "pos")
	}
	return &Processor{
		uow:      uow,
		selector: selector,
		clock:    clock,
		logger:   logger,
		metrics:  metrics.NewPOSMetrics(),
	}
}

// NewProcessorWithoutMetrics создаёт обработчик без метрик (для тестов).
func NewProcessorWithoutMetrics(uow domain.UnitOfWork, selector *pricing.Selector, clock domain.Clock, logger *log.Entry) *Processor {
	p := NewProcessor(uow, selector, clock, logger)
	p.metrics = nil
	return p
}

// pricedLine — позиция после расчёта, готовая к проверке остатка и записи.
type pricedLine struct {
	product domain.Product
	result  pricing.LineResult
}

// ProcessSale обрабатывает продажу пользователя userID по списку позиций.
// Возвращает сохранённую продажу с позициями либо одну из доменных ошибок:
// ErrProductNotFound, ErrInsufficientStock.
func (p *Processor) ProcessSale(ctx context.Context, userID string, lines []domain.SaleLine) (domain.Sale, error) {
	start := time.Now()
	p.metrics.RecordSaleStarted()
	defer func() {
		p.metrics.RecordSaleDuration(time.Since(start))
	}()

	if len(lines) == 0 {
		p.metrics.RecordSaleFailed()
		return domain.Sale{}, fmt.Errorf("sale must contain at least one line")
	}

	var sale domain.Sale
	err := p.uow.Do(ctx, func(tx domain.SaleTx) error {
		priced, err := p.resolveAndPrice(ctx, tx, lines)
		if err != nil {
			return err
		}

		if err := p.validateStock(priced); err != nil {
			return err
		}

		sale = p.aggregate(userID, priced)

		if err := p.persist(ctx, tx, &sale, priced); err != nil {
			return err
		}

		if err := p.enqueueEvent(ctx, tx, sale); err != nil {
			return err
		}

		// Списания идут последними и повторно проверяют остаток в момент
		// записи: bulk-проверка выше — ранний выход, а не гарантия.
		return p.decrementStock(ctx, tx, priced)
	})
	if err != nil {
		p.recordFailure(err)
		return domain.Sale{}, err
	}

	p.metrics.RecordSaleCompleted(len(sale.Items))
	p.logger.WithFields(log.Fields{
		"sale_id":  sale.ID,
		"user_id":  userID,
		"lines":    len(sale.Items),
		"subtotal": sale.Subtotal.String(),
		"total":    sale.Total.String(),
	}).Info("sale committed")

	return sale, nil
}

// resolveAndPrice загружает все товары запроса и считает каждую позицию.
// Любой неизвестный ID отклоняет запрос целиком.
func (p *Processor) resolveAndPrice(ctx context.Context, tx domain.SaleTx, lines []domain.SaleLine) ([]pricedLine, error) {
	ids := make([]string, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.ProductID)
	}

	products, err := tx.ProductsByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("resolve products: %w", err)
	}

	now := p.clock.Now()
	priced := make([]pricedLine, 0, len(lines))
	for _, line := range lines {
		product, ok := products[line.ProductID]
		if !ok {
			return nil, &domain.ProductNotFoundError{ProductID: line.ProductID}
		}
		priced = append(priced, pricedLine{
			product: product,
			result:  p.selector.Calculate(product, line.Quantity, now),
		})
	}

	return priced, nil
}

// validateStock проверяет остатки по всем позициям до какой-либо записи.
func (p *Processor) validateStock(priced []pricedLine) error {
	for _, line := range priced {
		needed := line.result.TotalQuantity()
		if line.product.Stock < needed {
			return &domain.InsufficientStockError{
				ProductID:   line.product.ID,
				ProductName: line.product.Name,
				Available:   line.product.Stock,
				Required:    needed,
			}
		}
	}
	return nil
}

// aggregate собирает заголовок продажи. Total равен Subtotal: позиции уже
// посчитаны по эффективным ценам, скидка отчитывается отдельно и второй
// раз не вычитается.
func (p *Processor) aggregate(userID string, priced []pricedLine) domain.Sale {
	subtotal := decimal.Zero
	discountTotal := decimal.Zero
	for _, line := range priced {
		subtotal = subtotal.Add(line.result.Subtotal)
		discountTotal = discountTotal.Add(line.result.DiscountAmount)
	}

	now := p.clock.Now()
	saleID := uuid.NewString()

	sale := domain.Sale{
		ID:            saleID,
		UserID:        userID,
		Subtotal:      subtotal.Round(2),
		DiscountTotal: discountTotal.Round(2),
		Total:         subtotal.Round(2),
		CreatedAt:     now,
		Items:         make([]domain.SaleItem, 0, len(priced)),
	}

	for _, line := range priced {
		res := line.result
		sale.Items = append(sale.Items, domain.SaleItem{
			ID:                 uuid.NewString(),
			SaleID:             saleID,
			ProductID:          line.product.ID,
			ProductName:        line.product.Name,
			Quantity:           res.Quantity,
			FreeQuantity:       res.FreeQuantity,
			UnitPrice:          res.UnitPrice,
			EffectiveUnitPrice: res.EffectiveUnitPrice,
			DiscountPercent:    res.DiscountPercent,
			DiscountAmount:     res.DiscountAmount,
			Subtotal:           res.Subtotal,
			OfferType:          res.OfferType,
			OfferDetails:       res.Description,
			CreatedAt:          now,
		})
	}

	return sale
}

func (p *Processor) persist(ctx context.Context, tx domain.SaleTx, sale *domain.Sale, priced []pricedLine) error {
	if err := tx.InsertSale(ctx, *sale); err != nil {
		return fmt.Errorf("insert sale: %w", err)
	}
	for _, item := range sale.Items {
		if err := tx.InsertSaleItem(ctx, item); err != nil {
			return fmt.Errorf("insert sale item: %w", err)
		}
	}
	return nil
}

// enqueueEvent записывает событие sale.completed в outbox той же
// транзакцией: событие становится видимым только вместе с продажей.
func (p *Processor) enqueueEvent(ctx context.Context, tx domain.SaleTx, sale domain.Sale) error {
	items := make([]kafka.SaleEventItem, 0, len(sale.Items))
	for _, item := range sale.Items {
		items = append(items, kafka.SaleEventItem{
			ProductID:      item.ProductID,
			ProductName:    item.ProductName,
			Quantity:       item.Quantity,
			FreeQuantity:   item.FreeQuantity,
			OfferType:      string(item.OfferType),
			Subtotal:       item.Subtotal.StringFixed(2),
			DiscountAmount: item.DiscountAmount.StringFixed(2),
		})
	}

	event := kafka.NewSaleCompletedEvent(
		sale.ID,
		sale.UserID,
		sale.Subtotal.StringFixed(2),
		sale.DiscountTotal.StringFixed(2),
		sale.Total.StringFixed(2),
		items,
		sale.CreatedAt,
	)

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal sale event: %w", err)
	}

	return tx.EnqueueOutbox(ctx, domain.OutboxMessage{
		ID:            uuid.NewString(),
		AggregateType: kafka.AggregateTypeSale,
		AggregateID:   sale.ID,
		EventType:     string(kafka.EventTypeSaleCompleted),
		Payload:       payload,
	})
}

// decrementStock списывает остатки условным декрементом по каждой позиции.
// Неудачное списание (конкурентная продажа успела раньше либо тот же товар
// в нескольких позициях запроса) откатывает всю транзакцию с
// InsufficientStockError. Остаток в ошибке и журнале учитывает уже
// прошедшие в этой транзакции списания того же товара.
func (p *Processor) decrementStock(ctx context.Context, tx domain.SaleTx, priced []pricedLine) error {
	deducted := make(map[string]int)
	for _, line := range priced {
		needed := line.result.TotalQuantity()
		ok, err := tx.DecrementStock(ctx, line.product.ID, needed)
		if err != nil {
			return fmt.Errorf("decrement stock: %w", err)
		}
		if !ok {
			return &domain.InsufficientStockError{
				ProductID:   line.product.ID,
				ProductName: line.product.Name,
				Available:   line.product.Stock - deducted[line.product.ID],
				Required:    needed,
			}
		}
		deducted[line.product.ID] += needed

		// Журнал списаний для аудита.
		p.logger.WithFields(log.Fields{
			"product_id":        line.product.ID,
			"product_name":      line.product.Name,
			"quantity_deducted": needed,
			"remaining_stock":   line.product.Stock - deducted[line.product.ID],
		}).Info("stock updated")
	}
	return nil
}

func (p *Processor) recordFailure(err error) {
	p.metrics.RecordSaleFailed()
	switch {
	case domain.IsProductNotFound(err):
		p.metrics.RecordProductNotFound()
	case domain.IsInsufficientStock(err):
		p.metrics.RecordInsufficientStock()
	}
	p.logger.WithError(err).Warn("sale rolled back")
}

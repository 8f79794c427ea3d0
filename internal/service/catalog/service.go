package catalog

import (
	"context"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/pos/internal/domain"
)

// Service управляет каталогом товаров: CRUD плюс проверка
// согласованности полей акции перед записью.
type Service struct {
	products domain.ProductRepository
	clock    domain.Clock
	logger   *log.Entry
}

// NewService создаёт сервис каталога.
func NewService(products domain.ProductRepository, clock domain.Clock, logger *log.Entry) *Service {
	if clock == nil {
		clock = domain.SystemClock{}
	}
	if logger == nil {
		logger = log.WithField("component", "catalog-service")
	}
	return &Service{products: products, clock: clock, logger: logger}
}

// Create валидирует и сохраняет новый товар.
func (s *Service) Create(ctx context.Context, product domain.Product) (domain.Product, error) {
	if violations := product.ValidateOfferConfig(); len(violations) > 0 {
		return domain.Product{}, &domain.InvalidOfferError{Violations: violations}
	}

	if product.ID == "" {
		product.ID = uuid.NewString()
	}
	now := s.clock.Now()
	product.CreatedAt = now
	product.UpdatedAt = now

	if err := s.products.Create(ctx, product); err != nil {
		return domain.Product{}, err
	}

	s.logger.WithFields(log.Fields{
		"product_id": product.ID,
		"name":       product.Name,
		"offer_type": product.ActiveOfferType(now),
	}).Info("product created")

	return product, nil
}

// Get возвращает товар по идентификатору.
func (s *Service) Get(ctx context.Context, id string) (domain.Product, error) {
	return s.products.Get(ctx, id)
}

// List возвращает весь каталог.
func (s *Service) List(ctx context.Context) ([]domain.Product, error) {
	return s.products.List(ctx)
}

// Update валидирует и перезаписывает товар. Дата создания сохраняется.
func (s *Service) Update(ctx context.Context, product domain.Product) (domain.Product, error) {
	if violations := product.ValidateOfferConfig(); len(violations) > 0 {
		return domain.Product{}, &domain.InvalidOfferError{Violations: violations}
	}

	existing, err := s.products.Get(ctx, product.ID)
	if err != nil {
		return domain.Product{}, err
	}

	product.CreatedAt = existing.CreatedAt
	product.UpdatedAt = s.clock.Now()

	if err := s.products.Update(ctx, product); err != nil {
		return domain.Product{}, err
	}

	s.logger.WithField("product_id", product.ID).Info("product updated")
	return product, nil
}

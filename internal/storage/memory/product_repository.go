package memory

import (
	"context"
	"sort"

	"github.com/vladislavdragonenkov/pos/internal/domain"
)

// productRepository — in-memory реализация ProductRepository.
type productRepository struct {
	store *Store
}

// NewProductRepository возвращает in-memory репозиторий товаров.
func NewProductRepository(store *Store) domain.ProductRepository {
	return &productRepository{store: store}
}

// Create сохраняет новый товар.
func (r *productRepository) Create(_ context.Context, product domain.Product) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	// Сохраняем копию, чтобы избежать непредсказуемых мутаций извне.
	r.store.products[product.ID] = product
	return nil
}

// Get возвращает товар или ErrProductNotFound.
func (r *productRepository) Get(_ context.Context, id string) (domain.Product, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	product, ok := r.store.products[id]
	if !ok {
		return domain.Product{}, &domain.ProductNotFoundError{ProductID: id}
	}
	return product, nil
}

// FindByIDs возвращает найденные товары; отсутствующие ID — не ошибка.
func (r *productRepository) FindByIDs(_ context.Context, ids []string) (map[string]domain.Product, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	result := make(map[string]domain.Product, len(ids))
	for _, id := range ids {
		if product, ok := r.store.products[id]; ok {
			result[id] = product
		}
	}
	return result, nil
}

// List возвращает все товары, стабильно отсортированные по имени и ID.
func (r *productRepository) List(_ context.Context) ([]domain.Product, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	result := make([]domain.Product, 0, len(r.store.products))
	for _, product := range r.store.products {
		result = append(result, product)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Name != result[j].Name {
			return result[i].Name < result[j].Name
		}
		return result[i].ID < result[j].ID
	})

	return result, nil
}

// Update перезаписывает поля товара.
func (r *productRepository) Update(_ context.Context, product domain.Product) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	current, ok := r.store.products[product.ID]
	if !ok {
		return &domain.ProductNotFoundError{ProductID: product.ID}
	}
	product.CreatedAt = current.CreatedAt
	r.store.products[product.ID] = product
	return nil
}

var _ domain.ProductRepository = (*productRepository)(nil)

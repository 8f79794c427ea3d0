package memory

import (
	"context"
	"sort"

	"github.com/vladislavdragonenkov/pos/internal/domain"
)

// saleRepository — in-memory read-side хранилища продаж.
type saleRepository struct {
	store *Store
}

// NewSaleRepository возвращает in-memory репозиторий продаж.
func NewSaleRepository(store *Store) domain.SaleRepository {
	return &saleRepository{store: store}
}

// Get возвращает продажу с позициями или ErrSaleNotFound.
func (r *saleRepository) Get(_ context.Context, id string) (domain.Sale, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	sale, ok := r.store.sales[id]
	if !ok {
		return domain.Sale{}, domain.ErrSaleNotFound
	}
	sale.Items = append([]domain.SaleItem(nil), sale.Items...)
	return sale, nil
}

// ListByUser возвращает продажи пользователя, свежие первыми.
func (r *saleRepository) ListByUser(_ context.Context, userID string, limit int) ([]domain.Sale, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	result := make([]domain.Sale, 0)
	for _, sale := range r.store.sales {
		if sale.UserID != userID {
			continue
		}
		sale.Items = append([]domain.SaleItem(nil), sale.Items...)
		result = append(result, sale)
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID > result[j].ID
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}

	return result, nil
}

var _ domain.SaleRepository = (*saleRepository)(nil)

package memory

import (
	"context"
	"strings"

	"github.com/vladislavdragonenkov/pos/internal/domain"
)

// userRepository — in-memory реализация UserRepository.
type userRepository struct {
	store *Store
}

// NewUserRepository возвращает in-memory репозиторий пользователей.
func NewUserRepository(store *Store) domain.UserRepository {
	return &userRepository{store: store}
}

// Create сохраняет пользователя; занятый email — ErrEmailTaken.
func (r *userRepository) Create(_ context.Context, user domain.User) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, existing := range r.store.users {
		if strings.EqualFold(existing.Email, user.Email) {
			return domain.ErrEmailTaken
		}
	}
	r.store.users[user.ID] = user
	return nil
}

// Get возвращает пользователя или ErrUserNotFound.
func (r *userRepository) Get(_ context.Context, id string) (domain.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	user, ok := r.store.users[id]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return user, nil
}

// GetByEmail возвращает пользователя по email (без учёта регистра).
func (r *userRepository) GetByEmail(_ context.Context, email string) (domain.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for _, user := range r.store.users {
		if strings.EqualFold(user.Email, email) {
			return user, nil
		}
	}
	return domain.User{}, domain.ErrUserNotFound
}

var _ domain.UserRepository = (*userRepository)(nil)

package repository

import (
	"context"
	"sync"
	"time"

	"plantio/internal/domain/entity"
	"plantio/internal/domain/repository"
	"plantio/pkg/errors"
)

type memoryUserRepository struct {
	mu    sync.RWMutex
	users map[string]*entity.User
}

func NewMemoryUserRepository() repository.UserRepository {
	return &memoryUserRepository{
		users: make(map[string]*entity.User),
	}
}

func (r *memoryUserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return nil, errors.NotFound("User", nil)
	}

	copied := *user
	return &copied, nil
}

func (r *memoryUserRepository) ListByRole(ctx context.Context, role string) ([]*entity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var users []*entity.User
	for _, user := range r.users {
		if user.Role == role {
			copied := *user
			users = append(users, &copied)
		}
	}

	return users, nil
}

func (r *memoryUserRepository) Save(ctx context.Context, user *entity.User) error {
	if user.ID == "" {
		return errors.BadRequest("User id is required", nil)
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	user.UpdatedAt = time.Now()

	r.mu.Lock()
	defer r.mu.Unlock()

	copied := *user
	r.users[user.ID] = &copied

	return nil
}

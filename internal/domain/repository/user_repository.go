package repository

import (
	"context"

	"plantio/internal/domain/entity"
)

type UserRepository interface {
	GetByID(ctx context.Context, id string) (*entity.User, error)
	ListByRole(ctx context.Context, role string) ([]*entity.User, error)
	Save(ctx context.Context, user *entity.User) error
}

package service

import (
	"context"

	"userhub/internal/models"
	"userhub/internal/repository"
)

// UserStore is the slice of the user repository the services depend on.
// Satisfied by *repository.UserRepository.
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	FindByEmail(ctx context.Context, email string) (models.User, error)
	GetByID(ctx context.Context, id int64) (models.User, error)
	Update(ctx context.Context, id int64, patch repository.UserPatch) (models.User, error)
	SoftDelete(ctx context.Context, id int64) error
	IncrementTokenVersion(ctx context.Context, id int64) (int, error)
	List(ctx context.Context, filter repository.ListFilter) ([]models.User, int, error)
}

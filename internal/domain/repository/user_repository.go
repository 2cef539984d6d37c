package repository

import (
	"context"

	"github.com/jhoicas/farmacia-api/internal/domain/entity"
)

// UserRepository define el puerto de lectura de usuarios para resolver el actor de un movimiento.
type UserRepository interface {
	GetActiveByID(ctx context.Context, id string) (*entity.User, error)
	GetByUsername(ctx context.Context, username string) (*entity.User, error)
}

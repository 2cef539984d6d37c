package repository

import (
	"context"

	"github.com/jhoicas/farmacia-api/internal/domain/entity"
)

// ProductRepository es la vista mínima del catálogo que usa el motor de stock.
type ProductRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Product, error)
}

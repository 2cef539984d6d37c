package repository

import (
	"context"

	"github.com/jhoicas/farmacia-api/internal/domain/entity"
)

// LocationRepository define el puerto de lectura de ubicaciones (sucursales, bodegas, fabricantes...).
// GetBy* devuelven (nil, nil) si no existe.
type LocationRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Location, error)
	GetByCode(ctx context.Context, code string) (*entity.Location, error)
	List(ctx context.Context, includeInactive bool, locationType string) ([]*entity.Location, error)
}

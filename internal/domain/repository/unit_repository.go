package repository

import (
	"context"

	"github.com/jhoicas/farmacia-api/internal/domain/entity"
)

// UnitTypeRepository define el puerto de persistencia para unidades de medida globales.
// Create devuelve domain.ErrDuplicate si el código ya existe (carrera entre transacciones).
type UnitTypeRepository interface {
	GetByCode(ctx context.Context, code string) (*entity.UnitType, error)
	Create(ctx context.Context, unit *entity.UnitType) error
}

// UnitLevelRepository define el puerto de persistencia para niveles de unidad por producto.
// Create devuelve domain.ErrDuplicate si (product_id, code) ya existe.
type UnitLevelRepository interface {
	GetByCode(ctx context.Context, productID, code string) (*entity.ProductUnitLevel, error)
	// Stats devuelve el sort_order máximo y la cantidad de niveles del producto.
	Stats(ctx context.Context, productID string) (maxSortOrder, count int, err error)
	Create(ctx context.Context, level *entity.ProductUnitLevel) error
}

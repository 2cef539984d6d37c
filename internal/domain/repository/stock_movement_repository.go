package repository

import (
	"context"

	"github.com/jhoicas/farmacia-api/internal/domain/entity"
)

// StockMovementRepository es el libro de movimientos: solo inserción.
type StockMovementRepository interface {
	Create(ctx context.Context, movement *entity.StockMovement) error
}

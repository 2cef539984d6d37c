package repository

import (
	"context"
	"time"

	"github.com/jhoicas/farmacia-api/internal/domain/entity"
)

// LotRepository define el puerto de persistencia para lotes.
// Create devuelve domain.ErrDuplicate si (product_id, lot_no, exp_date) ya existe.
type LotRepository interface {
	GetByID(ctx context.Context, id string) (*entity.ProductLot, error)
	Find(ctx context.Context, productID, lotNo string, expDate time.Time) (*entity.ProductLot, error)
	Create(ctx context.Context, lot *entity.ProductLot) error
}

package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/farmacia-api/internal/domain"
	"github.com/jhoicas/farmacia-api/internal/domain/entity"
	"github.com/jhoicas/farmacia-api/internal/domain/inventory"
	"github.com/jhoicas/farmacia-api/internal/domain/repository"
)

// ApplyStockDelta ajusta el saldo de key en delta dentro de la transacción del caller.
// Bloquea la fila (GetForUpdate) antes de leer; un saldo nunca queda negativo.
// Delta cero no toma bloqueo. No escribe en el libro de movimientos.
func ApplyStockDelta(ctx context.Context, stock repository.StockRepository, key entity.BalanceKey, delta decimal.Decimal, now time.Time) error {
	if delta.IsZero() {
		return nil
	}

	bal, err := stock.GetForUpdate(ctx, key)
	if err != nil {
		return err
	}
	if bal == nil {
		if delta.IsNegative() {
			return fmt.Errorf("%w: producto %s sin saldo en la sucursal, solicitado %s",
				domain.ErrInsufficientStock, key.ProductID, delta.Neg().String())
		}
		bal = &entity.StockBalance{
			ID:        uuid.New().String(),
			Key:       key,
			Quantity:  delta,
			UpdatedAt: now,
		}
		err = stock.Insert(ctx, bal)
		if err == nil {
			return nil
		}
		if !errors.Is(err, domain.ErrDuplicate) {
			return err
		}
		// Otra transacción creó la fila entre la lectura y el insert: se relee bloqueando.
		bal, err = stock.GetForUpdate(ctx, key)
		if err != nil {
			return err
		}
		if bal == nil {
			return fmt.Errorf("%w: saldo del producto %s", domain.ErrConflict, key.ProductID)
		}
	}

	next, err := inventory.NextQuantity(bal.Quantity, delta)
	if err != nil {
		return fmt.Errorf("%w (producto %s)", err, key.ProductID)
	}
	return stock.UpdateQuantity(ctx, bal.ID, next, now)
}

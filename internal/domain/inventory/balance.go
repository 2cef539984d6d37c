package inventory

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/farmacia-api/internal/domain"
)

// NextQuantity aplica delta sobre el saldo actual (servicio de dominio).
// Un saldo nunca queda negativo: si current+delta < 0 devuelve ErrInsufficientStock.
func NextQuantity(current, delta decimal.Decimal) (decimal.Decimal, error) {
	next := current.Add(delta)
	if next.IsNegative() {
		return current, fmt.Errorf("%w: disponible %s, solicitado %s",
			domain.ErrInsufficientStock, current.String(), delta.Neg().String())
	}
	return next, nil
}

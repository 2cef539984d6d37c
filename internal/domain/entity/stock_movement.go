package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de movimiento de stock.
const (
	MovementTypeReceive     = "RECEIVE"
	MovementTypeTransferOut = "TRANSFER_OUT"
	MovementTypeTransferIn  = "TRANSFER_IN"
	MovementTypeDispense    = "DISPENSE"
)

// SourceRefDispenseHeader enlaza un movimiento DISPENSE con su cabecera.
const SourceRefDispenseHeader = "DISPENSE_HEADER"

// StockMovement es una fila inmutable del libro de movimientos. Quantity siempre es positivo;
// la dirección la dan el tipo y las ubicaciones origen/destino.
type StockMovement struct {
	ID             string
	MovementType   string
	FromLocationID string // vacío = NULL
	ToLocationID   string // vacío = NULL
	ProductID      string
	LotID          string
	Quantity       decimal.Decimal
	UnitLevelID    string
	DispenseLineID string
	SourceRefType  string
	SourceRefID    string
	OccurredAt     time.Time
	CreatedBy      string
	Note           string
	CreatedAt      time.Time
}

// SignedQuantity devuelve el efecto del movimiento sobre el saldo de la ubicación afectada.
func (m *StockMovement) SignedQuantity() decimal.Decimal {
	switch m.MovementType {
	case MovementTypeTransferOut, MovementTypeDispense:
		return m.Quantity.Neg()
	}
	return m.Quantity
}

// AffectedLocationID devuelve la ubicación cuyo saldo modifica el movimiento.
func (m *StockMovement) AffectedLocationID() string {
	switch m.MovementType {
	case MovementTypeTransferOut, MovementTypeDispense:
		return m.FromLocationID
	}
	return m.ToLocationID
}

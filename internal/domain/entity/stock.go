package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// BalanceKey identifica una fila de stock_on_hand: sucursal × producto × nivel base × lote (o sin lote).
type BalanceKey struct {
	BranchID    string
	ProductID   string
	UnitLevelID string
	LotID       string // vacío = sin lote
}

// StockBalance es el saldo materializado de una BalanceKey. Quantity nunca es negativo.
type StockBalance struct {
	ID        string
	Key       BalanceKey
	Quantity  decimal.Decimal
	UpdatedAt time.Time
}

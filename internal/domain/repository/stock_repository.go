package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/farmacia-api/internal/domain/entity"
)

// StockRepository define el puerto sobre stock_on_hand. Solo el libro (ApplyStockDelta) escribe aquí.
type StockRepository interface {
	// Get lee el saldo sin bloquear; (nil, nil) si la clave nunca recibió stock.
	Get(ctx context.Context, key entity.BalanceKey) (*entity.StockBalance, error)
	// GetForUpdate lee el saldo bloqueando la fila hasta el fin de la transacción (SELECT FOR UPDATE).
	// El lote vacío solo coincide con filas sin lote.
	GetForUpdate(ctx context.Context, key entity.BalanceKey) (*entity.StockBalance, error)
	// Insert crea la fila; domain.ErrDuplicate si otra transacción la creó primero.
	Insert(ctx context.Context, balance *entity.StockBalance) error
	UpdateQuantity(ctx context.Context, id string, quantity decimal.Decimal, updatedAt time.Time) error
}

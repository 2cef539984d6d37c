package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/farmacia-api/internal/domain"
	"github.com/jhoicas/farmacia-api/internal/domain/entity"
	"github.com/jhoicas/farmacia-api/internal/domain/repository"
)

var _ repository.StockRepository = (*StockRepo)(nil)

// StockRepo implementación de StockRepository sobre stock_on_hand (usable con pool o tx).
type StockRepo struct {
	q Querier
}

// NewStockRepository construye el adaptador de stock. Pasar pool o tx (Querier).
func NewStockRepository(q Querier) *StockRepo {
	return &StockRepo{q: q}
}

// El lote vacío solo coincide con la fila sin lote (IS NOT DISTINCT FROM).
const stockByKey = `
	SELECT id, branch_id, product_id, base_unit_level_id, lot_id, quantity_on_hand, updated_at
	FROM stock_on_hand
	WHERE branch_id = $1 AND product_id = $2 AND base_unit_level_id = $3 AND lot_id IS NOT DISTINCT FROM $4::uuid`

// Get obtiene el saldo de una clave sin bloquear.
func (r *StockRepo) Get(ctx context.Context, key entity.BalanceKey) (*entity.StockBalance, error) {
	return r.get(ctx, stockByKey, key)
}

// GetForUpdate obtiene el saldo y bloquea la fila para update (SELECT FOR UPDATE).
func (r *StockRepo) GetForUpdate(ctx context.Context, key entity.BalanceKey) (*entity.StockBalance, error) {
	return r.get(ctx, stockByKey+` FOR UPDATE`, key)
}

func (r *StockRepo) get(ctx context.Context, query string, key entity.BalanceKey) (*entity.StockBalance, error) {
	var b entity.StockBalance
	var lotID *string
	err := r.q.QueryRow(ctx, query, key.BranchID, key.ProductID, key.UnitLevelID, nullable(key.LotID)).Scan(
		&b.ID, &b.Key.BranchID, &b.Key.ProductID, &b.Key.UnitLevelID, &lotID, &b.Quantity, &b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, wrapErr("get stock", err)
	}
	b.Key.LotID = deref(lotID)
	return &b, nil
}

// Insert crea la fila de saldo; ErrDuplicate si otra transacción la creó primero.
func (r *StockRepo) Insert(ctx context.Context, b *entity.StockBalance) error {
	query := `
		INSERT INTO stock_on_hand (id, branch_id, product_id, base_unit_level_id, lot_id, quantity_on_hand, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT ON CONSTRAINT stock_on_hand_key DO NOTHING
		RETURNING id`
	var id string
	err := r.q.QueryRow(ctx, query,
		b.ID, b.Key.BranchID, b.Key.ProductID, b.Key.UnitLevelID, nullable(b.Key.LotID), b.Quantity, b.UpdatedAt,
	).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrDuplicate
		}
		return wrapErr("insert stock", err)
	}
	return nil
}

// UpdateQuantity fija la cantidad de una fila ya bloqueada.
func (r *StockRepo) UpdateQuantity(ctx context.Context, id string, quantity decimal.Decimal, updatedAt time.Time) error {
	tag, err := r.q.Exec(ctx,
		`UPDATE stock_on_hand SET quantity_on_hand = $2, updated_at = $3 WHERE id = $1`,
		id, quantity, updatedAt)
	if err != nil {
		return wrapErr("update stock", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

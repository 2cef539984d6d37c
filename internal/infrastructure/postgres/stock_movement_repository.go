package postgres

import (
	"context"

	"github.com/jhoicas/farmacia-api/internal/domain/entity"
	"github.com/jhoicas/farmacia-api/internal/domain/repository"
)

var _ repository.StockMovementRepository = (*StockMovementRepo)(nil)

// StockMovementRepo libro de movimientos sobre PostgreSQL (usable con pool o tx). Solo inserción.
type StockMovementRepo struct {
	q Querier
}

// NewStockMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockMovementRepository(q Querier) *StockMovementRepo {
	return &StockMovementRepo{q: q}
}

// Create persiste un movimiento de stock.
func (r *StockMovementRepo) Create(ctx context.Context, m *entity.StockMovement) error {
	query := `
		INSERT INTO stock_movements (
			id, movement_type, from_location_id, to_location_id, product_id, lot_id, quantity, unit_level_id,
			dispense_line_id, source_ref_type, source_ref_id, occurred_at, created_by, note, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`
	_, err := r.q.Exec(ctx, query,
		m.ID, m.MovementType, nullable(m.FromLocationID), nullable(m.ToLocationID), m.ProductID, nullable(m.LotID),
		m.Quantity, m.UnitLevelID, nullable(m.DispenseLineID), nullable(m.SourceRefType), nullable(m.SourceRefID),
		m.OccurredAt, m.CreatedBy, nullable(m.Note), m.CreatedAt,
	)
	if err != nil {
		return wrapErr("create stock movement", err)
	}
	return nil
}

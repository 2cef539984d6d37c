package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/farmacia-api/internal/domain"
	"github.com/jhoicas/farmacia-api/internal/domain/entity"
	"github.com/jhoicas/farmacia-api/internal/domain/repository"
)

var _ repository.LotRepository = (*LotRepo)(nil)

// LotRepo lotes de fabricante.
type LotRepo struct {
	q Querier
}

// NewLotRepository construye el adaptador. Pasar pool o tx (Querier).
func NewLotRepository(q Querier) *LotRepo {
	return &LotRepo{q: q}
}

const lotColumns = `id, product_id, lot_no, mfg_date, exp_date, COALESCE(manufacturer, ''), created_at`

// GetByID obtiene un lote por ID.
func (r *LotRepo) GetByID(ctx context.Context, id string) (*entity.ProductLot, error) {
	return r.scanOne(r.q.QueryRow(ctx, `SELECT `+lotColumns+` FROM product_lots WHERE id = $1`, id))
}

// Find busca por la clave natural (producto, número de lote, vencimiento).
func (r *LotRepo) Find(ctx context.Context, productID, lotNo string, expDate time.Time) (*entity.ProductLot, error) {
	return r.scanOne(r.q.QueryRow(ctx,
		`SELECT `+lotColumns+` FROM product_lots WHERE product_id = $1 AND lot_no = $2 AND exp_date = $3`,
		productID, lotNo, expDate))
}

func (r *LotRepo) scanOne(row pgx.Row) (*entity.ProductLot, error) {
	var l entity.ProductLot
	err := row.Scan(&l.ID, &l.ProductID, &l.LotNo, &l.MfgDate, &l.ExpDate, &l.Manufacturer, &l.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, wrapErr("get lot", err)
	}
	return &l, nil
}

// Create inserta el lote; ErrDuplicate si la clave natural ya existe.
func (r *LotRepo) Create(ctx context.Context, l *entity.ProductLot) error {
	query := `
		INSERT INTO product_lots (id, product_id, lot_no, mfg_date, exp_date, manufacturer, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (product_id, lot_no, exp_date) DO NOTHING
		RETURNING id`
	var id string
	err := r.q.QueryRow(ctx, query, l.ID, l.ProductID, l.LotNo, l.MfgDate, l.ExpDate, nullable(l.Manufacturer), l.CreatedAt).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrDuplicate
		}
		return wrapErr("insert lot", err)
	}
	return nil
}

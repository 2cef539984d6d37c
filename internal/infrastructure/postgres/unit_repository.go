package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/farmacia-api/internal/domain"
	"github.com/jhoicas/farmacia-api/internal/domain/entity"
	"github.com/jhoicas/farmacia-api/internal/domain/repository"
)

var (
	_ repository.UnitTypeRepository  = (*UnitTypeRepo)(nil)
	_ repository.UnitLevelRepository = (*UnitLevelRepo)(nil)
)

// UnitTypeRepo unidades de medida globales.
type UnitTypeRepo struct {
	q Querier
}

// NewUnitTypeRepository construye el adaptador. Pasar pool o tx (Querier).
func NewUnitTypeRepository(q Querier) *UnitTypeRepo {
	return &UnitTypeRepo{q: q}
}

// GetByCode obtiene una unidad por código.
func (r *UnitTypeRepo) GetByCode(ctx context.Context, code string) (*entity.UnitType, error) {
	query := `
		SELECT id, code, name, unit_kind, COALESCE(symbol, ''), precision_scale, is_active
		FROM unit_types WHERE code = $1`
	var u entity.UnitType
	err := r.q.QueryRow(ctx, query, code).Scan(&u.ID, &u.Code, &u.Name, &u.UnitKind, &u.Symbol, &u.PrecisionScale, &u.IsActive)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, wrapErr("get unit type", err)
	}
	return &u, nil
}

// Create inserta la unidad; ErrDuplicate si el código ya existe.
func (r *UnitTypeRepo) Create(ctx context.Context, u *entity.UnitType) error {
	query := `
		INSERT INTO unit_types (id, code, name, unit_kind, symbol, precision_scale, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (code) DO NOTHING
		RETURNING id`
	var id string
	err := r.q.QueryRow(ctx, query, u.ID, u.Code, u.Name, u.UnitKind, nullable(u.Symbol), u.PrecisionScale, u.IsActive).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrDuplicate
		}
		return wrapErr("insert unit type", err)
	}
	return nil
}

// UnitLevelRepo niveles de unidad por producto.
type UnitLevelRepo struct {
	q Querier
}

// NewUnitLevelRepository construye el adaptador. Pasar pool o tx (Querier).
func NewUnitLevelRepository(q Querier) *UnitLevelRepo {
	return &UnitLevelRepo{q: q}
}

// GetByCode obtiene el nivel del producto con ese código.
func (r *UnitLevelRepo) GetByCode(ctx context.Context, productID, code string) (*entity.ProductUnitLevel, error) {
	query := `
		SELECT id, product_id, code, display_name, unit_type_id, is_base, is_sellable, sort_order, created_at
		FROM product_unit_levels WHERE product_id = $1 AND code = $2`
	var l entity.ProductUnitLevel
	err := r.q.QueryRow(ctx, query, productID, code).Scan(
		&l.ID, &l.ProductID, &l.Code, &l.DisplayName, &l.UnitTypeID, &l.IsBase, &l.IsSellable, &l.SortOrder, &l.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, wrapErr("get unit level", err)
	}
	return &l, nil
}

// Stats devuelve el sort_order máximo y la cantidad de niveles del producto.
func (r *UnitLevelRepo) Stats(ctx context.Context, productID string) (int, int, error) {
	var maxOrder, count int
	err := r.q.QueryRow(ctx,
		`SELECT COALESCE(MAX(sort_order), 0), COUNT(*) FROM product_unit_levels WHERE product_id = $1`,
		productID,
	).Scan(&maxOrder, &count)
	if err != nil {
		return 0, 0, wrapErr("unit level stats", err)
	}
	return maxOrder, count, nil
}

// Create inserta el nivel. ErrDuplicate si el código ya existe o si ya hay nivel base.
func (r *UnitLevelRepo) Create(ctx context.Context, l *entity.ProductUnitLevel) error {
	query := `
		INSERT INTO product_unit_levels (id, product_id, code, display_name, unit_type_id, is_base, is_sellable, sort_order, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT DO NOTHING
		RETURNING id`
	var id string
	err := r.q.QueryRow(ctx, query,
		l.ID, l.ProductID, l.Code, l.DisplayName, l.UnitTypeID, l.IsBase, l.IsSellable, l.SortOrder, l.CreatedAt,
	).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrDuplicate
		}
		return wrapErr("insert unit level", err)
	}
	return nil
}

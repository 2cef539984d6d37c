package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/farmacia-api/internal/domain/entity"
	"github.com/jhoicas/farmacia-api/internal/domain/repository"
)

var _ repository.LocationRepository = (*LocationRepo)(nil)

// LocationRepo implementación del puerto LocationRepository sobre PostgreSQL (usable con pool o tx).
type LocationRepo struct {
	q Querier
}

// NewLocationRepository construye el adaptador de ubicaciones. Pasar pool o tx (Querier).
func NewLocationRepository(q Querier) *LocationRepo {
	return &LocationRepo{q: q}
}

const locationColumns = `id, code, name, location_type, is_active, created_at`

// GetByID obtiene una ubicación por ID.
func (r *LocationRepo) GetByID(ctx context.Context, id string) (*entity.Location, error) {
	return r.getOne(ctx, `SELECT `+locationColumns+` FROM locations WHERE id = $1`, id)
}

// GetByCode obtiene una ubicación por código.
func (r *LocationRepo) GetByCode(ctx context.Context, code string) (*entity.Location, error) {
	return r.getOne(ctx, `SELECT `+locationColumns+` FROM locations WHERE code = $1`, code)
}

func (r *LocationRepo) getOne(ctx context.Context, query string, arg string) (*entity.Location, error) {
	var l entity.Location
	err := r.q.QueryRow(ctx, query, arg).Scan(&l.ID, &l.Code, &l.Name, &l.LocationType, &l.IsActive, &l.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, wrapErr("get location", err)
	}
	return &l, nil
}

// List lista ubicaciones por tipo y código; locationType vacío = todas.
func (r *LocationRepo) List(ctx context.Context, includeInactive bool, locationType string) ([]*entity.Location, error) {
	query := `
		SELECT ` + locationColumns + `
		FROM locations
		WHERE ($1 OR is_active) AND ($2 = '' OR location_type = $2)
		ORDER BY location_type, code, name`
	rows, err := r.q.Query(ctx, query, includeInactive, locationType)
	if err != nil {
		return nil, wrapErr("list locations", err)
	}
	defer rows.Close()
	var list []*entity.Location
	for rows.Next() {
		var l entity.Location
		if err := rows.Scan(&l.ID, &l.Code, &l.Name, &l.LocationType, &l.IsActive, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan location: %w", err)
		}
		list = append(list, &l)
	}
	return list, rows.Err()
}

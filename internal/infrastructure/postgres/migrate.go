package postgres

import (
	"context"
	"embed"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Migrate aplica las migraciones embebidas (esquema y datos semilla) con goose.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	db := stdlib.OpenDBFromPool(pool)
	defer func() { _ = db.Close() }()

	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	return nil
}

// SetInitialPassword asigna el hash a un usuario sembrado que aún no tiene contraseña ('!').
// Devuelve false si el usuario ya tenía una.
func SetInitialPassword(ctx context.Context, q Querier, username, hash string) (bool, error) {
	tag, err := q.Exec(ctx,
		`UPDATE users SET password_hash = $2 WHERE username = $1 AND password_hash = '!'`,
		username, hash)
	if err != nil {
		return false, wrapErr("set initial password", err)
	}
	return tag.RowsAffected() == 1, nil
}

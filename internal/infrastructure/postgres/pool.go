package postgres

import (
	"context"
	"fmt"
	"strconv"
	"time"

	pgxdecimal "github.com/jackc/pgx-shopspring-decimal"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/farmacia-api/pkg/config"
)

const defaultMaxConns = 25

// NewPool crea el pool PostgreSQL del libro de stock.
// Usa DATABASE_URL si está definido; si no, arma el DSN desde DB_HOST, DB_PORT, etc.
func NewPool(ctx context.Context, cfg config.DBConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("parse DSN: %w", err)
	}
	applyRuntimeParams(poolConfig.ConnConfig.RuntimeParams, cfg)

	poolConfig.MaxConns = defaultMaxConns
	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = int32(cfg.MaxConns)
	}
	poolConfig.MinConns = 2
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	// NUMERIC -> shopspring/decimal en todas las conexiones: cantidades sin float.
	poolConfig.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		pgxdecimal.Register(conn.TypeMap())
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("crear pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping DB: %w", err)
	}
	return pool, nil
}

// applyRuntimeParams acota las esperas por el bloqueo de fila del libro.
// Un lock_timeout o statement_timeout agotado se traduce a domain.ErrBusy (ver isBusy).
func applyRuntimeParams(rp map[string]string, cfg config.DBConfig) {
	if cfg.LockTimeoutMS > 0 {
		rp["lock_timeout"] = strconv.Itoa(cfg.LockTimeoutMS)
	}
	if cfg.StatementTimeoutMS > 0 {
		rp["statement_timeout"] = strconv.Itoa(cfg.StatementTimeoutMS)
	}
	if _, ok := rp["application_name"]; !ok {
		rp["application_name"] = "farmacia-api"
	}
}

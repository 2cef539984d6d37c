package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/farmacia-api/internal/application/inventory"
	"github.com/jhoicas/farmacia-api/internal/domain/repository"
)

var _ inventory.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// Run inicia una transacción, ejecuta fn con repos atados a la tx y hace Commit o Rollback.
func (r *TxRunner) Run(ctx context.Context, fn func(repos inventory.Repos) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return wrapErr("begin transaction", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(txRepos{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return wrapErr("commit transaction", err)
	}
	return nil
}

// txRepos construye los adaptadores sobre la misma pgx.Tx.
type txRepos struct {
	tx pgx.Tx
}

func (r txRepos) Locations() repository.LocationRepository   { return NewLocationRepository(r.tx) }
func (r txRepos) Products() repository.ProductRepository     { return NewProductRepository(r.tx) }
func (r txRepos) UnitTypes() repository.UnitTypeRepository   { return NewUnitTypeRepository(r.tx) }
func (r txRepos) UnitLevels() repository.UnitLevelRepository { return NewUnitLevelRepository(r.tx) }
func (r txRepos) Lots() repository.LotRepository             { return NewLotRepository(r.tx) }
func (r txRepos) Stock() repository.StockRepository          { return NewStockRepository(r.tx) }
func (r txRepos) Movements() repository.StockMovementRepository {
	return NewStockMovementRepository(r.tx)
}
func (r txRepos) Dispenses() repository.DispenseRepository { return NewDispenseRepository(r.tx) }
func (r txRepos) Patients() repository.PatientRepository   { return NewPatientRepository(r.tx) }
func (r txRepos) Users() repository.UserRepository         { return NewUserRepository(r.tx) }

// Ping comprueba la conexión (usado por /health).
func (r *TxRunner) Ping(ctx context.Context) error {
	if err := r.pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping DB: %w", err)
	}
	return nil
}

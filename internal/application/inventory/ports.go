package inventory

import (
	"context"
	"io"
	"time"

	"github.com/jhoicas/farmacia-api/internal/domain/repository"
)

// Repos expone los repositorios atados a una misma transacción.
type Repos interface {
	Locations() repository.LocationRepository
	Products() repository.ProductRepository
	UnitTypes() repository.UnitTypeRepository
	UnitLevels() repository.UnitLevelRepository
	Lots() repository.LotRepository
	Stock() repository.StockRepository
	Movements() repository.StockMovementRepository
	Dispenses() repository.DispenseRepository
	Patients() repository.PatientRepository
	Users() repository.UserRepository
}

// TxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios atados a esa tx.
// Si fn retorna error se hace Rollback de todo; si no, Commit.
type TxRunner interface {
	Run(ctx context.Context, fn func(repos Repos) error) error
}

// StockCache caché de lectura de la proyección de existencias, por código de sucursal ("" = todas).
//
// Cada entrada tiene una generación que Invalidate incrementa. Quien llena la caché lee la generación
// antes de consultar la proyección y SetStockOnHand no escribe si cambió entretanto: una invalidación
// concurrente nunca queda tapada por filas viejas.
type StockCache interface {
	GetStockOnHand(ctx context.Context, branchCode string) ([]repository.StockOnHandResult, bool, error)
	Generation(ctx context.Context, branchCode string) (int64, error)
	SetStockOnHand(ctx context.Context, branchCode string, gen int64, rows []repository.StockOnHandResult) error
	// Invalidate borra las entradas de las sucursales indicadas y la vista global e incrementa sus generaciones.
	Invalidate(ctx context.Context, branchCodes ...string) error
}

// Metrics registra contadores de operaciones del libro.
type Metrics interface {
	ObserveOperation(operation string, err error, elapsed time.Duration)
	MovementsWritten(movementType string, n int)
}

// MovementExporter escribe el historial de movimientos en un libro de cálculo.
type MovementExporter interface {
	WriteMovements(w io.Writer, rows []repository.MovementResult) error
}

// DispenseSlipGenerator genera el comprobante imprimible de una dispensación.
type DispenseSlipGenerator interface {
	GenerateDispenseSlip(ctx context.Context, slip *repository.DispenseSlipResult) ([]byte, error)
}

type nopMetrics struct{}

func (nopMetrics) ObserveOperation(string, error, time.Duration) {}
func (nopMetrics) MovementsWritten(string, int)                  {}

// NopMetrics descarta las métricas.
func NopMetrics() Metrics { return nopMetrics{} }

package inventory

import (
	"context"
	"time"

	"github.com/jhoicas/farmacia-api/internal/application/dto"
	"github.com/jhoicas/farmacia-api/internal/domain/repository"
	"github.com/jhoicas/farmacia-api/pkg/logger"
)

// ReconcileUseCase compara stock_on_hand con la suma con signo del libro de movimientos.
// Solo reporta: nunca reescribe saldos.
type ReconcileUseCase struct {
	queries repository.QueryRepository
	log     *logger.Logger
	now     func() time.Time
}

// NewReconcileUseCase construye el caso de uso.
func NewReconcileUseCase(queries repository.QueryRepository, log *logger.Logger) *ReconcileUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &ReconcileUseCase{queries: queries, log: log, now: time.Now}
}

// Reconcile devuelve las claves de saldo cuyo valor difiere del libro o es negativo.
func (uc *ReconcileUseCase) Reconcile(ctx context.Context) (*dto.ReconcileReport, error) {
	ctx, span := tracer.Start(ctx, "inventory.Reconcile")
	defer span.End()

	rows, err := uc.queries.LedgerDrift(ctx)
	if err != nil {
		return nil, err
	}
	report := &dto.ReconcileReport{CheckedAt: uc.now(), Drift: make([]dto.LedgerDriftRow, 0, len(rows))}
	for _, r := range rows {
		report.Drift = append(report.Drift, dto.LedgerDriftRow{
			BranchID:      r.BranchID,
			BranchCode:    r.BranchCode,
			ProductID:     r.ProductID,
			UnitLevelID:   r.UnitLevelID,
			LotID:         r.LotID,
			OnHand:        r.OnHand,
			MovementTotal: r.MovementTotal,
			Negative:      r.OnHand.IsNegative(),
		})
		uc.log.Warn().
			Str("branch", r.BranchCode).
			Str("product", r.ProductID).
			Str("unit_level", r.UnitLevelID).
			Str("lot", r.LotID).
			Str("on_hand", r.OnHand.String()).
			Str("movements", r.MovementTotal.String()).
			Msg("saldo inconsistente con el libro")
	}
	uc.log.Info().Int("drift", len(report.Drift)).Msg("conciliación terminada")
	return report, nil
}

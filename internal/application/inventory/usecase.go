package inventory

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jhoicas/farmacia-api/pkg/logger"
)

var tracer = otel.Tracer("farmacia-api/inventory")

// MovementUseCase orquesta las operaciones que mueven stock (recepción, transferencia, dispensación
// y movimiento genérico). Cada operación corre en una sola transacción: todo o nada.
type MovementUseCase struct {
	txRunner TxRunner
	resolver *Resolver
	cache    StockCache
	metrics  Metrics
	log      *logger.Logger
	tracer   trace.Tracer
	now      func() time.Time
}

// NewMovementUseCase construye el caso de uso. cache y metrics pueden ser nil.
func NewMovementUseCase(txRunner TxRunner, resolver *Resolver, cache StockCache, metrics Metrics, log *logger.Logger) *MovementUseCase {
	if metrics == nil {
		metrics = NopMetrics()
	}
	if log == nil {
		log = logger.Nop()
	}
	return &MovementUseCase{
		txRunner: txRunner,
		resolver: resolver,
		cache:    cache,
		metrics:  metrics,
		log:      log,
		tracer:   tracer,
		now:      time.Now,
	}
}

// observe envuelve una operación con span y métricas.
func (uc *MovementUseCase) observe(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	ctx, span := uc.tracer.Start(ctx, "inventory."+op)
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	uc.metrics.ObserveOperation(op, err, time.Since(start))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

// committed se ejecuta tras el Commit: invalida la caché de existencias y registra los movimientos.
func (uc *MovementUseCase) committed(ctx context.Context, movementType string, count int, branchCodes ...string) {
	uc.metrics.MovementsWritten(movementType, count)
	if uc.cache == nil {
		return
	}
	if err := uc.cache.Invalidate(ctx, branchCodes...); err != nil {
		uc.log.Warn().Err(err).Strs("branches", branchCodes).Msg("no se pudo invalidar la caché de existencias")
	}
}

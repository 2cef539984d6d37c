package inventory

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jhoicas/farmacia-api/internal/application/dto"
	"github.com/jhoicas/farmacia-api/internal/domain"
	"github.com/jhoicas/farmacia-api/internal/domain/entity"
	"github.com/jhoicas/farmacia-api/internal/domain/repository"
	"github.com/jhoicas/farmacia-api/pkg/logger"
)

// Límites del historial de movimientos.
const (
	DefaultMovementLimit = 1000
	MaxMovementLimit     = 1000
)

// QueryUseCase proyecciones de solo lectura: existencias, historial de movimientos,
// historial de dispensación por paciente, ubicaciones, exportación XLSX y comprobante PDF.
type QueryUseCase struct {
	queries   repository.QueryRepository
	locations repository.LocationRepository
	cache     StockCache
	exporter  MovementExporter
	slips     DispenseSlipGenerator
	log       *logger.Logger
}

// NewQueryUseCase construye el caso de uso. cache, exporter y slips pueden ser nil.
func NewQueryUseCase(
	queries repository.QueryRepository,
	locations repository.LocationRepository,
	cache StockCache,
	exporter MovementExporter,
	slips DispenseSlipGenerator,
	log *logger.Logger,
) *QueryUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &QueryUseCase{
		queries:   queries,
		locations: locations,
		cache:     cache,
		exporter:  exporter,
		slips:     slips,
		log:       log,
	}
}

// StockOnHand devuelve existencias de una sucursal (o de todas si branchCode es vacío), pasando por la caché.
func (uc *QueryUseCase) StockOnHand(ctx context.Context, q dto.StockOnHandQuery) ([]dto.StockOnHandRow, error) {
	branchCode := strings.TrimSpace(q.BranchCode)
	ctx, span := tracer.Start(ctx, "inventory.StockOnHand")
	defer span.End()

	if uc.cache != nil {
		rows, ok, err := uc.cache.GetStockOnHand(ctx, branchCode)
		if err != nil {
			uc.log.Warn().Err(err).Str("branch", branchCode).Msg("caché de existencias no disponible")
		} else if ok {
			return toStockOnHandRows(rows), nil
		}
	}

	// La generación se toma antes de leer: si un movimiento invalida mientras tanto, no se guarda.
	var (
		gen       int64
		cacheable bool
	)
	if uc.cache != nil {
		g, err := uc.cache.Generation(ctx, branchCode)
		if err != nil {
			uc.log.Warn().Err(err).Str("branch", branchCode).Msg("caché de existencias no disponible")
		} else {
			gen, cacheable = g, true
		}
	}

	rows, err := uc.queries.StockOnHand(ctx, branchCode)
	if err != nil {
		return nil, err
	}
	if cacheable {
		if err := uc.cache.SetStockOnHand(ctx, branchCode, gen, rows); err != nil {
			uc.log.Warn().Err(err).Str("branch", branchCode).Msg("no se pudo guardar la caché de existencias")
		}
	}
	return toStockOnHandRows(rows), nil
}

// BuildMovementFilter traduce la consulta a filtro aplicando el alcance del caller:
// un caller no ADMIN solo ve su sucursal y pedir otra es Forbidden. Limit queda en [1, 1000].
func BuildMovementFilter(caller dto.Caller, q dto.MovementQuery) (repository.MovementFilter, error) {
	f := repository.MovementFilter{
		ProductID:  strings.TrimSpace(q.ProductID),
		BranchCode: strings.TrimSpace(q.BranchCode),
		LocationID: strings.TrimSpace(q.LocationID),
		Limit:      q.Limit,
	}
	if !strings.EqualFold(caller.Role, entity.RoleAdmin) {
		if f.LocationID != "" && f.LocationID != caller.LocationID {
			return f, fmt.Errorf("%w: el filtro de ubicación no coincide con la sucursal del usuario", domain.ErrForbidden)
		}
		if caller.LocationID != "" {
			f.LocationID = caller.LocationID
		}
	}
	if f.ProductID != "" {
		if err := requireUUID("productId", f.ProductID); err != nil {
			return f, err
		}
	}
	if f.LocationID != "" {
		if err := requireUUID("locationId", f.LocationID); err != nil {
			return f, err
		}
	}
	var err error
	if f.From, err = parseOptionalTimestamp("from", q.From); err != nil {
		return f, err
	}
	if f.To, err = parseOptionalTimestamp("to", q.To); err != nil {
		return f, err
	}
	switch {
	case f.Limit <= 0:
		f.Limit = DefaultMovementLimit
	case f.Limit > MaxMovementLimit:
		f.Limit = MaxMovementLimit
	}
	return f, nil
}

// Movements devuelve el historial de movimientos, más recientes primero.
func (uc *QueryUseCase) Movements(ctx context.Context, caller dto.Caller, q dto.MovementQuery) ([]dto.MovementRow, error) {
	f, err := BuildMovementFilter(caller, q)
	if err != nil {
		return nil, err
	}
	ctx, span := tracer.Start(ctx, "inventory.Movements")
	defer span.End()

	rows, err := uc.queries.Movements(ctx, f)
	if err != nil {
		return nil, err
	}
	out := make([]dto.MovementRow, len(rows))
	for i, r := range rows {
		out[i] = dto.MovementRow(r)
	}
	return out, nil
}

// ExportMovementsXLSX escribe en w el mismo historial que Movements como libro XLSX.
func (uc *QueryUseCase) ExportMovementsXLSX(ctx context.Context, caller dto.Caller, q dto.MovementQuery, w io.Writer) error {
	if uc.exporter == nil {
		return fmt.Errorf("exportación XLSX no configurada")
	}
	f, err := BuildMovementFilter(caller, q)
	if err != nil {
		return err
	}
	ctx, span := tracer.Start(ctx, "inventory.ExportMovementsXLSX")
	defer span.End()

	rows, err := uc.queries.Movements(ctx, f)
	if err != nil {
		return err
	}
	return uc.exporter.WriteMovements(w, rows)
}

// PatientDispenseHistory devuelve las líneas dispensadas a un paciente en la ventana [from, to).
func (uc *QueryUseCase) PatientDispenseHistory(ctx context.Context, pid string, q dto.PatientDispenseQuery) ([]dto.PatientDispenseRow, error) {
	pid = strings.TrimSpace(pid)
	if pid == "" {
		return nil, fmt.Errorf("%w: pid requerido", domain.ErrInvalidInput)
	}
	from, err := parseOptionalTimestamp("from", q.From)
	if err != nil {
		return nil, err
	}
	to, err := parseOptionalTimestamp("to", q.To)
	if err != nil {
		return nil, err
	}
	rows, err := uc.queries.PatientDispenseHistory(ctx, pid, from, to)
	if err != nil {
		return nil, err
	}
	out := make([]dto.PatientDispenseRow, len(rows))
	for i, r := range rows {
		out[i] = dto.PatientDispenseRow(r)
	}
	return out, nil
}

// ListLocations lista ubicaciones; por defecto solo activas.
func (uc *QueryUseCase) ListLocations(ctx context.Context, q dto.LocationQuery) ([]dto.LocationResponse, error) {
	locationType := strings.ToUpper(strings.TrimSpace(q.LocationType))
	if locationType != "" && !entity.ValidLocationType(locationType) {
		return nil, fmt.Errorf("%w: locationType no soportado: %s", domain.ErrInvalidInput, locationType)
	}
	locs, err := uc.locations.List(ctx, q.IncludeInactive, locationType)
	if err != nil {
		return nil, err
	}
	out := make([]dto.LocationResponse, len(locs))
	for i, l := range locs {
		out[i] = dto.LocationResponse{
			ID:           l.ID,
			Code:         l.Code,
			Name:         l.Name,
			LocationType: l.LocationType,
			IsActive:     l.IsActive,
		}
	}
	return out, nil
}

// DispenseSlipPDF genera el comprobante PDF de una dispensación. Un caller no ADMIN
// solo puede imprimir dispensaciones de su sucursal.
func (uc *QueryUseCase) DispenseSlipPDF(ctx context.Context, caller dto.Caller, headerID string) ([]byte, string, error) {
	if uc.slips == nil {
		return nil, "", fmt.Errorf("generador de comprobantes no configurado")
	}
	if err := requireUUID("headerId", headerID); err != nil {
		return nil, "", err
	}
	slip, err := uc.queries.DispenseSlip(ctx, headerID)
	if err != nil {
		return nil, "", err
	}
	if slip == nil {
		return nil, "", fmt.Errorf("%w: dispensación %s", domain.ErrNotFound, headerID)
	}
	if !strings.EqualFold(caller.Role, entity.RoleAdmin) {
		loc, err := uc.locations.GetByCode(ctx, slip.BranchCode)
		if err != nil {
			return nil, "", err
		}
		if loc == nil || loc.ID != caller.LocationID {
			return nil, "", domain.ErrForbidden
		}
	}
	pdf, err := uc.slips.GenerateDispenseSlip(ctx, slip)
	if err != nil {
		return nil, "", fmt.Errorf("pdf: generar comprobante: %w", err)
	}
	filename := fmt.Sprintf("dispensacion_%s_%s.pdf", slip.BranchCode, slip.DispensedAt.Format("20060102_150405"))
	return pdf, filename, nil
}

func toStockOnHandRows(rows []repository.StockOnHandResult) []dto.StockOnHandRow {
	out := make([]dto.StockOnHandRow, len(rows))
	for i, r := range rows {
		out[i] = dto.StockOnHandRow(r)
	}
	return out
}

func parseOptionalTimestamp(field, raw string) (*time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	t, err := ParseTimestamp(field, raw, time.Time{})
	if err != nil {
		return nil, err
	}
	return &t, nil
}

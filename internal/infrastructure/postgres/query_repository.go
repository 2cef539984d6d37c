package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/farmacia-api/internal/domain/repository"
)

var _ repository.QueryRepository = (*QueryRepo)(nil)

const patientHistoryLimit = 1000

// QueryRepo proyecciones de solo lectura sobre el pool.
type QueryRepo struct {
	q Querier
}

// NewQueryRepository construye el adaptador de consultas.
func NewQueryRepository(q Querier) *QueryRepo {
	return &QueryRepo{q: q}
}

// StockOnHand existencias de sucursales; branchCode vacío = todas.
func (r *QueryRepo) StockOnHand(ctx context.Context, branchCode string) ([]repository.StockOnHandResult, error) {
	query := `
		SELECT l.code, l.name, p.id, p.product_code, p.trade_name,
		       soh.lot_id, COALESCE(pl.lot_no, ''), pl.exp_date,
		       soh.quantity_on_hand, pul.code, pul.display_name
		FROM stock_on_hand soh
		JOIN locations l ON l.id = soh.branch_id AND l.location_type = 'BRANCH'
		JOIN products p ON p.id = soh.product_id
		LEFT JOIN product_lots pl ON pl.id = soh.lot_id
		JOIN product_unit_levels pul ON pul.id = soh.base_unit_level_id
		WHERE ($1 = '' OR l.code = $1)
		ORDER BY l.code, p.trade_name, pl.exp_date NULLS LAST, pl.lot_no`
	rows, err := r.q.Query(ctx, query, branchCode)
	if err != nil {
		return nil, wrapErr("stock on hand", err)
	}
	defer rows.Close()
	var list []repository.StockOnHandResult
	for rows.Next() {
		var s repository.StockOnHandResult
		var lotID *string
		if err := rows.Scan(&s.BranchCode, &s.BranchName, &s.ProductID, &s.ProductCode, &s.TradeName,
			&lotID, &s.LotNo, &s.ExpDate, &s.Quantity, &s.UnitCode, &s.UnitLabel); err != nil {
			return nil, fmt.Errorf("scan stock on hand: %w", err)
		}
		s.LotID = deref(lotID)
		list = append(list, s)
	}
	return list, rows.Err()
}

// Movements historial filtrado, más recientes primero.
func (r *QueryRepo) Movements(ctx context.Context, f repository.MovementFilter) ([]repository.MovementResult, error) {
	var (
		where []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if f.ProductID != "" {
		add("m.product_id = $%d", f.ProductID)
	}
	if f.BranchCode != "" {
		args = append(args, f.BranchCode)
		n := len(args)
		where = append(where, fmt.Sprintf("(fl.code = $%d OR tl.code = $%d)", n, n))
	}
	if f.LocationID != "" {
		args = append(args, f.LocationID)
		n := len(args)
		where = append(where, fmt.Sprintf("(m.from_location_id = $%d OR m.to_location_id = $%d)", n, n))
	}
	if f.From != nil {
		add("m.occurred_at >= $%d", *f.From)
	}
	if f.To != nil {
		add("m.occurred_at < $%d", *f.To)
	}

	var b strings.Builder
	b.WriteString(`
		SELECT m.id, m.movement_type, m.occurred_at, m.quantity, COALESCE(m.note, ''),
		       p.id, p.product_code, p.trade_name, m.lot_id, COALESCE(pl.lot_no, ''), pul.display_name,
		       COALESCE(fl.code, ''), COALESCE(fl.name, ''), COALESCE(tl.code, ''), COALESCE(tl.name, ''),
		       m.created_by
		FROM stock_movements m
		JOIN products p ON p.id = m.product_id
		LEFT JOIN product_lots pl ON pl.id = m.lot_id
		JOIN product_unit_levels pul ON pul.id = m.unit_level_id
		LEFT JOIN locations fl ON fl.id = m.from_location_id
		LEFT JOIN locations tl ON tl.id = m.to_location_id`)
	if len(where) > 0 {
		b.WriteString("\n\t\tWHERE ")
		b.WriteString(strings.Join(where, " AND "))
	}
	args = append(args, f.Limit)
	fmt.Fprintf(&b, "\n\t\tORDER BY m.occurred_at DESC, m.created_at DESC\n\t\tLIMIT $%d", len(args))

	rows, err := r.q.Query(ctx, b.String(), args...)
	if err != nil {
		return nil, wrapErr("list movements", err)
	}
	defer rows.Close()
	var list []repository.MovementResult
	for rows.Next() {
		var m repository.MovementResult
		var lotID *string
		if err := rows.Scan(&m.ID, &m.MovementType, &m.OccurredAt, &m.Quantity, &m.Note,
			&m.ProductID, &m.ProductCode, &m.TradeName, &lotID, &m.LotNo, &m.UnitLabel,
			&m.FromBranchCode, &m.FromBranchName, &m.ToBranchCode, &m.ToBranchName, &m.CreatedBy); err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		m.LotID = deref(lotID)
		list = append(list, m)
	}
	return list, rows.Err()
}

// PatientDispenseHistory líneas dispensadas a un paciente en [from, to).
func (r *QueryRepo) PatientDispenseHistory(ctx context.Context, pid string, from, to *time.Time) ([]repository.PatientDispenseResult, error) {
	query := `
		SELECT h.id, h.dispensed_at, pa.pid, pa.full_name, l.code, l.name,
		       p.id, p.product_code, p.trade_name, dl.quantity, pul.display_name,
		       COALESCE(pl.lot_no, ''), COALESCE(dl.note, ''), COALESCE(h.note, '')
		FROM dispense_headers h
		JOIN patients pa ON pa.id = h.patient_id
		JOIN locations l ON l.id = h.branch_id
		JOIN dispense_lines dl ON dl.header_id = h.id
		JOIN products p ON p.id = dl.product_id
		JOIN product_unit_levels pul ON pul.id = dl.unit_level_id
		LEFT JOIN product_lots pl ON pl.id = dl.lot_id
		WHERE pa.pid = $1
		  AND ($2::timestamptz IS NULL OR h.dispensed_at >= $2)
		  AND ($3::timestamptz IS NULL OR h.dispensed_at < $3)
		ORDER BY h.dispensed_at DESC, dl.line_no
		LIMIT $4`
	rows, err := r.q.Query(ctx, query, pid, from, to, patientHistoryLimit)
	if err != nil {
		return nil, wrapErr("patient dispense history", err)
	}
	defer rows.Close()
	var list []repository.PatientDispenseResult
	for rows.Next() {
		var d repository.PatientDispenseResult
		if err := rows.Scan(&d.HeaderID, &d.DispensedAt, &d.PID, &d.PatientName, &d.BranchCode, &d.BranchName,
			&d.ProductID, &d.ProductCode, &d.TradeName, &d.Quantity, &d.UnitLabel,
			&d.LotNo, &d.LineNote, &d.HeaderNote); err != nil {
			return nil, fmt.Errorf("scan dispense history: %w", err)
		}
		list = append(list, d)
	}
	return list, rows.Err()
}

// DispenseSlip cabecera y líneas para el comprobante; (nil, nil) si no existe.
func (r *QueryRepo) DispenseSlip(ctx context.Context, headerID string) (*repository.DispenseSlipResult, error) {
	var s repository.DispenseSlipResult
	err := r.q.QueryRow(ctx, `
		SELECT h.id, h.dispensed_at, l.code, l.name, pa.pid, pa.full_name, u.full_name, COALESCE(h.note, '')
		FROM dispense_headers h
		JOIN locations l ON l.id = h.branch_id
		JOIN patients pa ON pa.id = h.patient_id
		JOIN users u ON u.id = h.pharmacist_user_id
		WHERE h.id = $1`, headerID,
	).Scan(&s.HeaderID, &s.DispensedAt, &s.BranchCode, &s.BranchName, &s.PID, &s.PatientName, &s.PharmacistName, &s.Note)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, wrapErr("dispense slip", err)
	}

	rows, err := r.q.Query(ctx, `
		SELECT dl.line_no, p.trade_name, COALESCE(pl.lot_no, ''), pl.exp_date, dl.quantity, pul.display_name
		FROM dispense_lines dl
		JOIN products p ON p.id = dl.product_id
		JOIN product_unit_levels pul ON pul.id = dl.unit_level_id
		LEFT JOIN product_lots pl ON pl.id = dl.lot_id
		WHERE dl.header_id = $1
		ORDER BY dl.line_no`, headerID)
	if err != nil {
		return nil, wrapErr("dispense slip lines", err)
	}
	defer rows.Close()
	for rows.Next() {
		var l repository.DispenseSlipLine
		if err := rows.Scan(&l.LineNo, &l.TradeName, &l.LotNo, &l.ExpDate, &l.Quantity, &l.UnitLabel); err != nil {
			return nil, fmt.Errorf("scan dispense slip line: %w", err)
		}
		s.Lines = append(s.Lines, l)
	}
	return &s, rows.Err()
}

// LedgerDrift compara cada saldo con la suma con signo de sus movimientos.
// La clave del libro es la ubicación afectada: origen para TRANSFER_OUT y DISPENSE, destino para el resto.
func (r *QueryRepo) LedgerDrift(ctx context.Context) ([]repository.LedgerDriftResult, error) {
	query := `
		WITH ledger AS (
			SELECT CASE WHEN movement_type IN ('TRANSFER_OUT', 'DISPENSE') THEN from_location_id ELSE to_location_id END AS branch_id,
			       product_id, unit_level_id, lot_id,
			       SUM(CASE WHEN movement_type IN ('TRANSFER_OUT', 'DISPENSE') THEN -quantity ELSE quantity END) AS total
			FROM stock_movements
			GROUP BY 1, 2, 3, 4
		), joined AS (
			SELECT COALESCE(s.branch_id, g.branch_id) AS branch_id,
			       COALESCE(s.product_id, g.product_id) AS product_id,
			       COALESCE(s.base_unit_level_id, g.unit_level_id) AS unit_level_id,
			       COALESCE(s.lot_id, g.lot_id) AS lot_id,
			       COALESCE(s.quantity_on_hand, 0) AS on_hand,
			       COALESCE(g.total, 0) AS total
			FROM stock_on_hand s
			FULL OUTER JOIN ledger g
			  ON s.branch_id = g.branch_id
			 AND s.product_id = g.product_id
			 AND s.base_unit_level_id = g.unit_level_id
			 AND COALESCE(s.lot_id, '00000000-0000-0000-0000-000000000000') = COALESCE(g.lot_id, '00000000-0000-0000-0000-000000000000')
		)
		SELECT j.branch_id, COALESCE(l.code, ''), j.product_id, j.unit_level_id, j.lot_id, j.on_hand, j.total
		FROM joined j
		LEFT JOIN locations l ON l.id = j.branch_id
		WHERE j.on_hand <> j.total OR j.on_hand < 0
		ORDER BY l.code, j.product_id`
	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, wrapErr("ledger drift", err)
	}
	defer rows.Close()
	var list []repository.LedgerDriftResult
	for rows.Next() {
		var d repository.LedgerDriftResult
		var lotID *string
		if err := rows.Scan(&d.BranchID, &d.BranchCode, &d.ProductID, &d.UnitLevelID, &lotID, &d.OnHand, &d.MovementTotal); err != nil {
			return nil, fmt.Errorf("scan ledger drift: %w", err)
		}
		d.LotID = deref(lotID)
		list = append(list, d)
	}
	return list, rows.Err()
}

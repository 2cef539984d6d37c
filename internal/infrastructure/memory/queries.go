package memory

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/farmacia-api/internal/domain/entity"
	"github.com/jhoicas/farmacia-api/internal/domain/repository"
)

const patientHistoryLimit = 1000

func (st *state) lotFields(lotID string) (lotNo string, expDate *time.Time) {
	if lot, ok := st.lots[lotID]; ok {
		exp := lot.ExpDate
		return lot.LotNo, &exp
	}
	return "", nil
}

// StockOnHand proyecta stock_on_hand de sucursales, ordenado por sucursal, nombre, vencimiento (sin lote al final) y lote.
func (s *Store) StockOnHand(ctx context.Context, branchCode string) ([]repository.StockOnHandResult, error) {
	var out []repository.StockOnHandResult
	err := s.read(ctx, func(st *state) error {
		for _, b := range st.stock {
			loc := st.locations[b.Key.BranchID]
			if !loc.IsBranch() || (branchCode != "" && loc.Code != branchCode) {
				continue
			}
			p := st.products[b.Key.ProductID]
			lvl := st.unitLevels[b.Key.UnitLevelID]
			lotNo, exp := st.lotFields(b.Key.LotID)
			out = append(out, repository.StockOnHandResult{
				BranchCode:  loc.Code,
				BranchName:  loc.Name,
				ProductID:   p.ID,
				ProductCode: p.ProductCode,
				TradeName:   p.TradeName,
				LotID:       b.Key.LotID,
				LotNo:       lotNo,
				ExpDate:     exp,
				Quantity:    b.Quantity,
				UnitCode:    lvl.Code,
				UnitLabel:   lvl.DisplayName,
			})
		}
		return nil
	})
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.BranchCode != b.BranchCode {
			return a.BranchCode < b.BranchCode
		}
		if a.TradeName != b.TradeName {
			return a.TradeName < b.TradeName
		}
		if (a.ExpDate == nil) != (b.ExpDate == nil) {
			return b.ExpDate == nil
		}
		if a.ExpDate != nil && !a.ExpDate.Equal(*b.ExpDate) {
			return a.ExpDate.Before(*b.ExpDate)
		}
		return a.LotNo < b.LotNo
	})
	return out, err
}

// Movements filtra el libro; más recientes primero.
func (s *Store) Movements(ctx context.Context, f repository.MovementFilter) ([]repository.MovementResult, error) {
	var out []repository.MovementResult
	err := s.read(ctx, func(st *state) error {
		for i := len(st.movements) - 1; i >= 0; i-- {
			m := st.movements[i]
			from, to := st.locations[m.FromLocationID], st.locations[m.ToLocationID]
			if f.ProductID != "" && m.ProductID != f.ProductID {
				continue
			}
			if f.BranchCode != "" && from.Code != f.BranchCode && to.Code != f.BranchCode {
				continue
			}
			if f.LocationID != "" && m.FromLocationID != f.LocationID && m.ToLocationID != f.LocationID {
				continue
			}
			if f.From != nil && m.OccurredAt.Before(*f.From) {
				continue
			}
			if f.To != nil && !m.OccurredAt.Before(*f.To) {
				continue
			}
			p := st.products[m.ProductID]
			lotNo, _ := st.lotFields(m.LotID)
			out = append(out, repository.MovementResult{
				ID:             m.ID,
				MovementType:   m.MovementType,
				OccurredAt:     m.OccurredAt,
				Quantity:       m.Quantity,
				Note:           m.Note,
				ProductID:      p.ID,
				ProductCode:    p.ProductCode,
				TradeName:      p.TradeName,
				LotID:          m.LotID,
				LotNo:          lotNo,
				UnitLabel:      st.unitLevels[m.UnitLevelID].DisplayName,
				FromBranchCode: from.Code,
				FromBranchName: from.Name,
				ToBranchCode:   to.Code,
				ToBranchName:   to.Name,
				CreatedBy:      m.CreatedBy,
			})
		}
		return nil
	})
	// el recorrido inverso ya deja primero lo más reciente dentro del mismo occurred_at
	sort.SliceStable(out, func(i, j int) bool { return out[i].OccurredAt.After(out[j].OccurredAt) })
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, err
}

// PatientDispenseHistory devuelve las líneas dispensadas al paciente en [from, to).
func (s *Store) PatientDispenseHistory(ctx context.Context, pid string, from, to *time.Time) ([]repository.PatientDispenseResult, error) {
	var out []repository.PatientDispenseResult
	err := s.read(ctx, func(st *state) error {
		for _, l := range st.lines {
			h := st.headers[l.HeaderID]
			pa := st.patients[h.PatientID]
			if pa.PID != pid {
				continue
			}
			if from != nil && h.DispensedAt.Before(*from) {
				continue
			}
			if to != nil && !h.DispensedAt.Before(*to) {
				continue
			}
			loc := st.locations[h.BranchID]
			p := st.products[l.ProductID]
			lotNo, _ := st.lotFields(l.LotID)
			out = append(out, repository.PatientDispenseResult{
				HeaderID:    h.ID,
				DispensedAt: h.DispensedAt,
				PID:         pa.PID,
				PatientName: pa.FullName,
				BranchCode:  loc.Code,
				BranchName:  loc.Name,
				ProductID:   p.ID,
				ProductCode: p.ProductCode,
				TradeName:   p.TradeName,
				Quantity:    l.Quantity,
				UnitLabel:   st.unitLevels[l.UnitLevelID].DisplayName,
				LotNo:       lotNo,
				LineNote:    l.Note,
				HeaderNote:  h.Note,
			})
		}
		return nil
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].DispensedAt.After(out[j].DispensedAt) })
	if len(out) > patientHistoryLimit {
		out = out[:patientHistoryLimit]
	}
	return out, err
}

// DispenseSlip arma el comprobante de una cabecera; (nil, nil) si no existe.
func (s *Store) DispenseSlip(ctx context.Context, headerID string) (*repository.DispenseSlipResult, error) {
	var out *repository.DispenseSlipResult
	err := s.read(ctx, func(st *state) error {
		h, ok := st.headers[headerID]
		if !ok {
			return nil
		}
		loc := st.locations[h.BranchID]
		pa := st.patients[h.PatientID]
		out = &repository.DispenseSlipResult{
			HeaderID:       h.ID,
			DispensedAt:    h.DispensedAt,
			BranchCode:     loc.Code,
			BranchName:     loc.Name,
			PID:            pa.PID,
			PatientName:    pa.FullName,
			PharmacistName: st.users[h.PharmacistUserID].FullName,
			Note:           h.Note,
		}
		for _, l := range st.lines {
			if l.HeaderID != h.ID {
				continue
			}
			lotNo, exp := st.lotFields(l.LotID)
			out.Lines = append(out.Lines, repository.DispenseSlipLine{
				LineNo:    l.LineNo,
				TradeName: st.products[l.ProductID].TradeName,
				LotNo:     lotNo,
				ExpDate:   exp,
				Quantity:  l.Quantity,
				UnitLabel: st.unitLevels[l.UnitLevelID].DisplayName,
			})
		}
		sort.Slice(out.Lines, func(i, j int) bool { return out.Lines[i].LineNo < out.Lines[j].LineNo })
		return nil
	})
	return out, err
}

// LedgerDrift suma los movimientos con signo por clave y los compara con stock_on_hand.
func (s *Store) LedgerDrift(ctx context.Context) ([]repository.LedgerDriftResult, error) {
	var out []repository.LedgerDriftResult
	err := s.read(ctx, func(st *state) error {
		totals := make(map[entity.BalanceKey]decimal.Decimal)
		for _, m := range st.movements {
			key := entity.BalanceKey{
				BranchID:    m.AffectedLocationID(),
				ProductID:   m.ProductID,
				UnitLevelID: m.UnitLevelID,
				LotID:       m.LotID,
			}
			totals[key] = totals[key].Add(m.SignedQuantity())
		}
		onHand := make(map[entity.BalanceKey]decimal.Decimal, len(st.stock))
		for _, b := range st.stock {
			onHand[b.Key] = b.Quantity
			if _, ok := totals[b.Key]; !ok {
				totals[b.Key] = decimal.Zero
			}
		}
		for key, total := range totals {
			qty := onHand[key]
			if qty.Equal(total) && !qty.IsNegative() {
				continue
			}
			out = append(out, repository.LedgerDriftResult{
				BranchID:      key.BranchID,
				BranchCode:    st.locations[key.BranchID].Code,
				ProductID:     key.ProductID,
				UnitLevelID:   key.UnitLevelID,
				LotID:         key.LotID,
				OnHand:        qty,
				MovementTotal: total,
			})
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].BranchCode != out[j].BranchCode {
			return out[i].BranchCode < out[j].BranchCode
		}
		return out[i].ProductID < out[j].ProductID
	})
	return out, err
}

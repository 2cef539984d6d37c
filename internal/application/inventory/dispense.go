package inventory

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/jhoicas/farmacia-api/internal/application/dto"
	"github.com/jhoicas/farmacia-api/internal/domain"
	"github.com/jhoicas/farmacia-api/internal/domain/entity"
)

// Dispense entrega medicamentos a un paciente en una sucursal. Crea o actualiza el paciente por PID,
// la cabecera y, por línea, la línea de dispensación, el movimiento DISPENSE enlazado a la cabecera
// y el descuento del saldo.
func (uc *MovementUseCase) Dispense(ctx context.Context, req dto.DispenseRequest) (*dto.DispenseResponse, error) {
	branchCode := strings.TrimSpace(req.BranchCode)
	if branchCode == "" {
		return nil, fmt.Errorf("%w: branchCode requerido", domain.ErrInvalidInput)
	}
	if len(req.Lines) == 0 {
		return nil, fmt.Errorf("%w: lines debe contener al menos un ítem", domain.ErrInvalidInput)
	}
	patient, err := patientFromRequest(req.Patient)
	if err != nil {
		return nil, err
	}
	occurredAt, err := ParseTimestamp("occurredAt", req.OccurredAt, uc.now())
	if err != nil {
		return nil, err
	}
	for i, line := range req.Lines {
		field := fmt.Sprintf("lines[%d]", i)
		if err := requirePositive(field+".qty", line.Qty); err != nil {
			return nil, err
		}
		if err := requireText(field+".unitLabel", line.UnitLabel); err != nil {
			return nil, err
		}
	}

	var res dto.DispenseResponse
	err = uc.observe(ctx, "Dispense", func(ctx context.Context) error {
		return uc.txRunner.Run(ctx, func(repos Repos) error {
			res = dto.DispenseResponse{OK: true}
			branch, err := uc.resolver.ResolveBranch(ctx, repos, branchCode)
			if err != nil {
				return err
			}
			pharmacistID, err := uc.resolver.ResolveActorUser(ctx, repos, req.PharmacistUserID)
			if err != nil {
				return err
			}
			now := uc.now()
			p := *patient
			p.UpdatedAt = now
			if err := repos.Patients().UpsertByPID(ctx, &p); err != nil {
				return err
			}

			header := &entity.DispenseHeader{
				ID:               uuid.New().String(),
				BranchID:         branch.ID,
				PatientID:        p.ID,
				PharmacistUserID: pharmacistID,
				DispensedAt:      occurredAt,
				Note:             req.Note,
				CreatedBy:        pharmacistID,
				CreatedAt:        now,
			}
			if err := repos.Dispenses().CreateHeader(ctx, header); err != nil {
				return err
			}
			res.HeaderID, res.BranchCode, res.PatientID = header.ID, branch.Code, p.ID

			for i, in := range req.Lines {
				line, err := uc.dispenseLine(ctx, repos, header, i+1, in)
				if err != nil {
					return fmt.Errorf("lines[%d]: %w", i, err)
				}
				res.Lines = append(res.Lines, *line)
			}
			res.LineCount = len(res.Lines)
			return nil
		})
	})
	if err != nil {
		uc.log.Warn().Err(err).Str("branch", branchCode).Int("lines", len(req.Lines)).Msg("dispensación rechazada")
		return nil, err
	}

	uc.committed(ctx, entity.MovementTypeDispense, res.LineCount, res.BranchCode)
	uc.log.Info().Str("branch", res.BranchCode).Str("header", res.HeaderID).Int("lines", res.LineCount).Msg("dispensación registrada")
	return &res, nil
}

func (uc *MovementUseCase) dispenseLine(ctx context.Context, repos Repos, header *entity.DispenseHeader, lineNo int, in dto.DispenseLineRequest) (*dto.DispensedLine, error) {
	if _, err := uc.resolver.EnsureProductExists(ctx, repos, in.ProductID); err != nil {
		return nil, err
	}
	level, _, err := uc.resolver.ResolveOrCreateUnitLevel(ctx, repos, in.ProductID, in.UnitLabel)
	if err != nil {
		return nil, err
	}
	lotID := strings.TrimSpace(in.LotID)
	if err := uc.resolver.AssertLotBelongsToProduct(ctx, repos, in.ProductID, lotID); err != nil {
		return nil, err
	}

	line := &entity.DispenseLine{
		ID:          uuid.New().String(),
		HeaderID:    header.ID,
		LineNo:      lineNo,
		ProductID:   in.ProductID,
		LotID:       lotID,
		UnitLevelID: level.ID,
		Quantity:    in.Qty,
		Note:        in.Note,
	}
	if err := repos.Dispenses().CreateLine(ctx, line); err != nil {
		return nil, err
	}
	mov := &entity.StockMovement{
		ID:             uuid.New().String(),
		MovementType:   entity.MovementTypeDispense,
		FromLocationID: header.BranchID,
		ProductID:      in.ProductID,
		LotID:          lotID,
		Quantity:       in.Qty,
		UnitLevelID:    level.ID,
		DispenseLineID: line.ID,
		SourceRefType:  entity.SourceRefDispenseHeader,
		SourceRefID:    header.ID,
		OccurredAt:     header.DispensedAt,
		CreatedBy:      header.PharmacistUserID,
		Note:           header.Note,
		CreatedAt:      header.CreatedAt,
	}
	if err := repos.Movements().Create(ctx, mov); err != nil {
		return nil, err
	}
	key := entity.BalanceKey{BranchID: header.BranchID, ProductID: in.ProductID, UnitLevelID: level.ID, LotID: lotID}
	if err := ApplyStockDelta(ctx, repos.Stock(), key, in.Qty.Neg(), header.CreatedAt); err != nil {
		return nil, err
	}
	return &dto.DispensedLine{
		ID:         line.ID,
		LineNo:     lineNo,
		ProductID:  in.ProductID,
		LotID:      lotID,
		Quantity:   in.Qty,
		UnitLabel:  strings.TrimSpace(in.UnitLabel),
		MovementID: mov.ID,
	}, nil
}

func patientFromRequest(in dto.PatientRequest) (*entity.Patient, error) {
	pid := strings.TrimSpace(in.PID)
	if pid == "" {
		return nil, fmt.Errorf("%w: patient.pid requerido", domain.ErrInvalidInput)
	}
	fullName := strings.TrimSpace(in.FullName)
	if fullName == "" {
		return nil, fmt.Errorf("%w: patient.fullName requerido", domain.ErrInvalidInput)
	}
	p := &entity.Patient{
		PID:            pid,
		FullName:       fullName,
		Sex:            entity.NormalizeSex(in.Sex),
		CardIssuePlace: strings.TrimSpace(in.CardIssuePlace),
		AddressText:    strings.TrimSpace(in.AddressText),
		AddressLine1:   strings.TrimSpace(in.AddressLine1),
		District:       strings.TrimSpace(in.District),
		Province:       strings.TrimSpace(in.Province),
		PostalCode:     strings.TrimSpace(in.PostalCode),
	}
	var err error
	if p.BirthDate, err = ParseOptionalDate("patient.birthDate", in.BirthDate); err != nil {
		return nil, err
	}
	if p.CardIssuedDate, err = ParseOptionalDate("patient.cardIssuedDate", in.CardIssuedDate); err != nil {
		return nil, err
	}
	if p.CardExpiryDate, err = ParseOptionalDate("patient.cardExpiryDate", in.CardExpiryDate); err != nil {
		return nil, err
	}
	return p, nil
}

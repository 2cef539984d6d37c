package inventory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/farmacia-api/internal/application/dto"
	"github.com/jhoicas/farmacia-api/internal/domain"
	"github.com/jhoicas/farmacia-api/internal/domain/entity"
)

type receiveLine struct {
	dto.ReceiveItemRequest
	expDate *time.Time
	mfgDate *time.Time
}

// Receive registra la entrada de mercancía en una sucursal. Por ítem: producto, nivel de unidad
// (resuelto o creado), lote (resuelto o creado, o lotId validado), movimiento RECEIVE y saldo +qty.
func (uc *MovementUseCase) Receive(ctx context.Context, req dto.ReceiveRequest) (*dto.ReceiveResponse, error) {
	branchCode := strings.TrimSpace(req.ToBranchCode)
	if branchCode == "" {
		return nil, fmt.Errorf("%w: toBranchCode requerido", domain.ErrInvalidInput)
	}
	if len(req.Items) == 0 {
		return nil, fmt.Errorf("%w: items debe contener al menos un ítem", domain.ErrInvalidInput)
	}
	occurredAt, err := ParseTimestamp("occurredAt", req.OccurredAt, uc.now())
	if err != nil {
		return nil, err
	}
	lines := make([]receiveLine, len(req.Items))
	for i, item := range req.Items {
		field := fmt.Sprintf("items[%d]", i)
		if err := requirePositive(field+".qty", item.Qty); err != nil {
			return nil, err
		}
		if err := requireText(field+".unitLabel", item.UnitLabel); err != nil {
			return nil, err
		}
		lines[i].ReceiveItemRequest = item
		if lines[i].expDate, err = ParseOptionalDate(field+".expDate", item.ExpDate); err != nil {
			return nil, err
		}
		if lines[i].mfgDate, err = ParseOptionalDate(field+".mfgDate", item.MfgDate); err != nil {
			return nil, err
		}
	}

	var res dto.ReceiveResponse
	err = uc.observe(ctx, "Receive", func(ctx context.Context) error {
		return uc.txRunner.Run(ctx, func(repos Repos) error {
			res = dto.ReceiveResponse{OK: true}
			branch, err := uc.resolver.ResolveBranch(ctx, repos, branchCode)
			if err != nil {
				return err
			}
			res.BranchCode = branch.Code
			actorID, err := uc.resolver.ResolveActorUser(ctx, repos, req.CreatedByUserID)
			if err != nil {
				return err
			}
			now := uc.now()
			for i, line := range lines {
				if err := uc.receiveItem(ctx, repos, branch, actorID, occurredAt, req.Note, now, line, &res); err != nil {
					return fmt.Errorf("items[%d]: %w", i, err)
				}
			}
			return nil
		})
	})
	if err != nil {
		uc.log.Warn().Err(err).Str("branch", branchCode).Int("items", len(lines)).Msg("recepción rechazada")
		return nil, err
	}

	uc.committed(ctx, entity.MovementTypeReceive, res.MovementCount, res.BranchCode)
	uc.log.Info().Str("branch", res.BranchCode).Int("movements", res.MovementCount).Msg("recepción registrada")
	return &res, nil
}

func (uc *MovementUseCase) receiveItem(
	ctx context.Context,
	repos Repos,
	branch *entity.Location,
	actorID string,
	occurredAt time.Time,
	note string,
	now time.Time,
	line receiveLine,
	res *dto.ReceiveResponse,
) error {
	if _, err := uc.resolver.EnsureProductExists(ctx, repos, line.ProductID); err != nil {
		return err
	}
	level, levelRes, err := uc.resolver.ResolveOrCreateUnitLevel(ctx, repos, line.ProductID, line.UnitLabel)
	if err != nil {
		return err
	}
	if levelRes.Created {
		res.CreatedUnitLevelIDs = append(res.CreatedUnitLevelIDs, levelRes.ID)
	}

	lotID := strings.TrimSpace(line.LotID)
	if lotID != "" {
		if err := uc.resolver.AssertLotBelongsToProduct(ctx, repos, line.ProductID, lotID); err != nil {
			return err
		}
	} else {
		lotRes, err := uc.resolver.ResolveOrCreateLot(ctx, repos, LotSpec{
			ProductID:    line.ProductID,
			LotNo:        line.LotNo,
			ExpDate:      line.expDate,
			MfgDate:      line.mfgDate,
			Manufacturer: line.Manufacturer,
		})
		if err != nil {
			return err
		}
		lotID = lotRes.ID
		if lotRes.Created {
			res.CreatedLotIDs = append(res.CreatedLotIDs, lotRes.ID)
		}
	}

	mov := &entity.StockMovement{
		ID:           uuid.New().String(),
		MovementType: entity.MovementTypeReceive,
		ToLocationID: branch.ID,
		ProductID:    line.ProductID,
		LotID:        lotID,
		Quantity:     line.Qty,
		UnitLevelID:  level.ID,
		OccurredAt:   occurredAt,
		CreatedBy:    actorID,
		Note:         note,
		CreatedAt:    now,
	}
	if err := repos.Movements().Create(ctx, mov); err != nil {
		return err
	}
	key := entity.BalanceKey{BranchID: branch.ID, ProductID: line.ProductID, UnitLevelID: level.ID, LotID: lotID}
	if err := ApplyStockDelta(ctx, repos.Stock(), key, line.Qty, now); err != nil {
		return err
	}
	res.MovementCount++
	res.MovementIDs = append(res.MovementIDs, mov.ID)
	return nil
}

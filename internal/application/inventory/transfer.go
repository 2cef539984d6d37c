package inventory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/farmacia-api/internal/application/dto"
	"github.com/jhoicas/farmacia-api/internal/domain"
	"github.com/jhoicas/farmacia-api/internal/domain/entity"
)

// Transfer mueve stock entre dos sucursales. Por ítem descuenta en origen, suma en destino
// y escribe el par TRANSFER_OUT / TRANSFER_IN con la misma cantidad, fecha, actor y lote.
func (uc *MovementUseCase) Transfer(ctx context.Context, req dto.TransferRequest) (*dto.TransferResponse, error) {
	fromCode := strings.TrimSpace(req.FromBranchCode)
	toCode := strings.TrimSpace(req.ToBranchCode)
	if fromCode == "" {
		return nil, fmt.Errorf("%w: fromBranchCode requerido", domain.ErrInvalidInput)
	}
	if toCode == "" {
		return nil, fmt.Errorf("%w: toBranchCode requerido", domain.ErrInvalidInput)
	}
	if fromCode == toCode {
		return nil, fmt.Errorf("%w: fromBranchCode y toBranchCode deben ser distintos", domain.ErrInvalidInput)
	}
	if len(req.Items) == 0 {
		return nil, fmt.Errorf("%w: items debe contener al menos un ítem", domain.ErrInvalidInput)
	}
	occurredAt, err := ParseTimestamp("occurredAt", req.OccurredAt, uc.now())
	if err != nil {
		return nil, err
	}
	for i, item := range req.Items {
		field := fmt.Sprintf("items[%d]", i)
		if err := requirePositive(field+".qty", item.Qty); err != nil {
			return nil, err
		}
		if err := requireText(field+".unitLabel", item.UnitLabel); err != nil {
			return nil, err
		}
	}

	var res dto.TransferResponse
	err = uc.observe(ctx, "Transfer", func(ctx context.Context) error {
		return uc.txRunner.Run(ctx, func(repos Repos) error {
			res = dto.TransferResponse{OK: true}
			from, err := uc.resolver.ResolveBranch(ctx, repos, fromCode)
			if err != nil {
				return err
			}
			to, err := uc.resolver.ResolveBranch(ctx, repos, toCode)
			if err != nil {
				return err
			}
			res.FromBranchCode, res.ToBranchCode = from.Code, to.Code
			actorID, err := uc.resolver.ResolveActorUser(ctx, repos, req.CreatedByUserID)
			if err != nil {
				return err
			}
			now := uc.now()
			for i, item := range req.Items {
				if err := uc.transferItem(ctx, repos, from, to, actorID, occurredAt, req.Note, now, item, &res); err != nil {
					return fmt.Errorf("items[%d]: %w", i, err)
				}
			}
			return nil
		})
	})
	if err != nil {
		uc.log.Warn().Err(err).Str("from", fromCode).Str("to", toCode).Int("items", len(req.Items)).Msg("transferencia rechazada")
		return nil, err
	}

	uc.metrics.MovementsWritten(entity.MovementTypeTransferIn, res.MovementCount/2)
	uc.committed(ctx, entity.MovementTypeTransferOut, res.MovementCount/2, res.FromBranchCode, res.ToBranchCode)
	uc.log.Info().Str("from", res.FromBranchCode).Str("to", res.ToBranchCode).Int("movements", res.MovementCount).Msg("transferencia registrada")
	return &res, nil
}

func (uc *MovementUseCase) transferItem(
	ctx context.Context,
	repos Repos,
	from, to *entity.Location,
	actorID string,
	occurredAt time.Time,
	note string,
	now time.Time,
	item dto.TransferItemRequest,
	res *dto.TransferResponse,
) error {
	if _, err := uc.resolver.EnsureProductExists(ctx, repos, item.ProductID); err != nil {
		return err
	}
	level, levelRes, err := uc.resolver.ResolveOrCreateUnitLevel(ctx, repos, item.ProductID, item.UnitLabel)
	if err != nil {
		return err
	}
	if levelRes.Created {
		res.CreatedUnitLevelIDs = append(res.CreatedUnitLevelIDs, levelRes.ID)
	}
	lotID := strings.TrimSpace(item.LotID)
	if err := uc.resolver.AssertLotBelongsToProduct(ctx, repos, item.ProductID, lotID); err != nil {
		return err
	}

	ids, err := transferPair(ctx, repos, transferLeg{
		fromID: from.ID, toID: to.ID, productID: item.ProductID, lotID: lotID, unitLevelID: level.ID,
		qty: item.Qty, occurredAt: occurredAt, actorID: actorID, note: note,
	}, now)
	if err != nil {
		return err
	}
	res.MovementCount += len(ids)
	res.MovementIDs = append(res.MovementIDs, ids...)
	return nil
}

// transferLeg describe un traslado de una cantidad de una clave de saldo a otra ubicación.
type transferLeg struct {
	fromID, toID string
	productID    string
	lotID        string
	unitLevelID  string
	qty          decimal.Decimal
	occurredAt   time.Time
	actorID      string
	note         string
}

// transferPair aplica -qty en origen, +qty en destino y escribe TRANSFER_OUT y TRANSFER_IN.
func transferPair(ctx context.Context, repos Repos, leg transferLeg, now time.Time) ([]string, error) {
	src := entity.BalanceKey{BranchID: leg.fromID, ProductID: leg.productID, UnitLevelID: leg.unitLevelID, LotID: leg.lotID}
	if err := ApplyStockDelta(ctx, repos.Stock(), src, leg.qty.Neg(), now); err != nil {
		return nil, err
	}
	dst := src
	dst.BranchID = leg.toID
	if err := ApplyStockDelta(ctx, repos.Stock(), dst, leg.qty, now); err != nil {
		return nil, err
	}

	ids := make([]string, 0, 2)
	for _, mt := range []string{entity.MovementTypeTransferOut, entity.MovementTypeTransferIn} {
		mov := &entity.StockMovement{
			ID:             uuid.New().String(),
			MovementType:   mt,
			FromLocationID: leg.fromID,
			ToLocationID:   leg.toID,
			ProductID:      leg.productID,
			LotID:          leg.lotID,
			Quantity:       leg.qty,
			UnitLevelID:    leg.unitLevelID,
			OccurredAt:     leg.occurredAt,
			CreatedBy:      leg.actorID,
			Note:           leg.note,
			CreatedAt:      now,
		}
		if err := repos.Movements().Create(ctx, mov); err != nil {
			return nil, err
		}
		ids = append(ids, mov.ID)
	}
	return ids, nil
}

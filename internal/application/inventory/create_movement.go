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

// CreateMovement registra un movimiento genérico con ids de ubicación explícitos.
// Un caller no ADMIN queda fijado a su sucursal: RECEIVE entra a ella; TRANSFER_OUT y DISPENSE salen de ella.
func (uc *MovementUseCase) CreateMovement(ctx context.Context, caller dto.Caller, req dto.CreateMovementRequest) (*dto.CreateMovementResponse, error) {
	movementType := strings.ToUpper(strings.TrimSpace(req.MovementType))
	switch movementType {
	case entity.MovementTypeReceive, entity.MovementTypeTransferOut, entity.MovementTypeDispense:
	default:
		return nil, fmt.Errorf("%w: movementType no soportado: %q", domain.ErrInvalidInput, req.MovementType)
	}
	productID := strings.TrimSpace(req.ProductID)
	if err := requireText("productId", productID); err != nil {
		return nil, err
	}
	if err := requirePositive("qty", req.Qty); err != nil {
		return nil, err
	}
	if err := requireText("unitLabel", req.UnitLabel); err != nil {
		return nil, err
	}
	occurredAt, err := ParseTimestamp("occurredAt", req.OccurredAt, uc.now())
	if err != nil {
		return nil, err
	}

	fromID, toID, err := effectiveLocations(caller, movementType, strings.TrimSpace(req.FromLocationID), strings.TrimSpace(req.ToLocationID))
	if err != nil {
		return nil, err
	}

	res := dto.CreateMovementResponse{OK: true, MovementType: movementType, FromLocationID: fromID, ToLocationID: toID}
	var touched []string
	err = uc.observe(ctx, "CreateMovement", func(ctx context.Context) error {
		return uc.txRunner.Run(ctx, func(repos Repos) error {
			res.MovementCount, res.MovementIDs, touched = 0, nil, nil
			actorID, err := uc.resolver.ResolveActorUser(ctx, repos, caller.UserID)
			if err != nil {
				return err
			}
			if _, err := uc.resolver.EnsureProductExists(ctx, repos, productID); err != nil {
				return err
			}
			level, levelRes, err := uc.resolver.ResolveOrCreateUnitLevel(ctx, repos, productID, req.UnitLabel)
			if err != nil {
				return err
			}
			res.UnitLevelID, res.UnitLevelNew = levelRes.ID, levelRes.Created
			lotID := strings.TrimSpace(req.LotID)
			if err := uc.resolver.AssertLotBelongsToProduct(ctx, repos, productID, lotID); err != nil {
				return err
			}

			var from, to *entity.Location
			if fromID != "" {
				if from, err = uc.resolver.ResolveActiveLocation(ctx, repos, fromID, "fromLocationId"); err != nil {
					return err
				}
				touched = append(touched, from.Code)
			}
			if toID != "" {
				if to, err = uc.resolver.ResolveActiveLocation(ctx, repos, toID, "toLocationId"); err != nil {
					return err
				}
				touched = append(touched, to.Code)
			}

			now := uc.now()
			switch movementType {
			case entity.MovementTypeTransferOut:
				ids, err := transferPair(ctx, repos, transferLeg{
					fromID: from.ID, toID: to.ID, productID: productID, lotID: lotID, unitLevelID: level.ID,
					qty: req.Qty, occurredAt: occurredAt, actorID: actorID, note: req.Note,
				}, now)
				if err != nil {
					return err
				}
				res.MovementIDs = ids
			default:
				mov := &entity.StockMovement{
					ID:           uuid.New().String(),
					MovementType: movementType,
					ProductID:    productID,
					LotID:        lotID,
					Quantity:     req.Qty,
					UnitLevelID:  level.ID,
					OccurredAt:   occurredAt,
					CreatedBy:    actorID,
					Note:         req.Note,
					CreatedAt:    now,
				}
				key := entity.BalanceKey{ProductID: productID, UnitLevelID: level.ID, LotID: lotID}
				delta := req.Qty
				if movementType == entity.MovementTypeReceive {
					if from != nil {
						mov.FromLocationID = from.ID
					}
					mov.ToLocationID = to.ID
					key.BranchID = to.ID
				} else {
					mov.FromLocationID = from.ID
					key.BranchID = from.ID
					delta = delta.Neg()
				}
				if err := ApplyStockDelta(ctx, repos.Stock(), key, delta, now); err != nil {
					return err
				}
				if err := repos.Movements().Create(ctx, mov); err != nil {
					return err
				}
				res.MovementIDs = []string{mov.ID}
			}
			res.MovementCount = len(res.MovementIDs)
			return nil
		})
	})
	if err != nil {
		uc.log.Warn().Err(err).Str("type", movementType).Str("product", productID).Str("user", caller.UserID).Msg("movimiento rechazado")
		return nil, err
	}

	if movementType == entity.MovementTypeTransferOut {
		uc.metrics.MovementsWritten(entity.MovementTypeTransferIn, 1)
	}
	uc.committed(ctx, movementType, 1, touched...)
	uc.log.Info().Str("type", movementType).Str("product", productID).Int("movements", res.MovementCount).Msg("movimiento registrado")
	return &res, nil
}

// effectiveLocations aplica el alcance por sucursal del caller y los campos obligatorios por tipo.
func effectiveLocations(caller dto.Caller, movementType, fromID, toID string) (string, string, error) {
	isAdmin := strings.EqualFold(caller.Role, entity.RoleAdmin)
	if !isAdmin {
		if caller.LocationID == "" {
			return "", "", fmt.Errorf("%w: el acceso por sucursal requiere location_id", domain.ErrForbidden)
		}
		switch movementType {
		case entity.MovementTypeReceive:
			if toID != "" && toID != caller.LocationID {
				return "", "", fmt.Errorf("%w: toLocationId no coincide con la sucursal del usuario", domain.ErrForbidden)
			}
			toID = caller.LocationID
		case entity.MovementTypeTransferOut, entity.MovementTypeDispense:
			if fromID != "" && fromID != caller.LocationID {
				return "", "", fmt.Errorf("%w: fromLocationId no coincide con la sucursal del usuario", domain.ErrForbidden)
			}
			fromID = caller.LocationID
		}
	}
	if movementType == entity.MovementTypeDispense {
		toID = ""
	}

	switch movementType {
	case entity.MovementTypeReceive:
		if toID == "" {
			return "", "", fmt.Errorf("%w: toLocationId requerido para RECEIVE", domain.ErrInvalidInput)
		}
	case entity.MovementTypeTransferOut:
		if fromID == "" {
			return "", "", fmt.Errorf("%w: fromLocationId requerido para TRANSFER_OUT", domain.ErrInvalidInput)
		}
		if toID == "" {
			return "", "", fmt.Errorf("%w: toLocationId requerido para TRANSFER_OUT", domain.ErrInvalidInput)
		}
	case entity.MovementTypeDispense:
		if fromID == "" {
			return "", "", fmt.Errorf("%w: fromLocationId requerido para DISPENSE", domain.ErrInvalidInput)
		}
	}
	if fromID != "" && fromID == toID {
		return "", "", fmt.Errorf("%w: fromLocationId y toLocationId deben ser distintos", domain.ErrInvalidInput)
	}
	return fromID, toID, nil
}

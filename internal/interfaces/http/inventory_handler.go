package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/farmacia-api/internal/application/dto"
	"github.com/jhoicas/farmacia-api/internal/application/inventory"
	"github.com/jhoicas/farmacia-api/internal/domain/entity"
)

// InventoryHandler maneja las operaciones que mueven stock (protegido).
type InventoryHandler struct {
	uc *inventory.MovementUseCase
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(uc *inventory.MovementUseCase) *InventoryHandler {
	return &InventoryHandler{uc: uc}
}

// Receive godoc
// @Summary      Recibir mercadería en una sucursal
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ReceiveRequest  true  "toBranchCode, items (productId, qty, unitLabel, lotId o lotNo+expDate)"
// @Success      201   {object}  dto.ReceiveResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/inventory/receive [post]
func (h *InventoryHandler) Receive(c *fiber.Ctx) error {
	var in dto.ReceiveRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if ok, err := scopeBranch(c, "toBranchCode", &in.ToBranchCode); !ok {
		return err
	}
	if err := validate.Struct(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: validationMessage(err)})
	}
	if ok, err := pinActor(c, "createdByUserId", &in.CreatedByUserID); !ok {
		return err
	}

	out, err := h.uc.Receive(c.UserContext(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Transfer godoc
// @Summary      Transferir stock entre sucursales
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.TransferRequest  true  "fromBranchCode, toBranchCode, items"
// @Success      201   {object}  dto.TransferResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/inventory/transfer [post]
func (h *InventoryHandler) Transfer(c *fiber.Ctx) error {
	var in dto.TransferRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	// el alcance se aplica antes de validar: un PHARMACIST puede omitir fromBranchCode
	if ok, err := scopeBranch(c, "fromBranchCode", &in.FromBranchCode); !ok {
		return err
	}
	if err := validate.Struct(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: validationMessage(err)})
	}
	if ok, err := pinActor(c, "createdByUserId", &in.CreatedByUserID); !ok {
		return err
	}

	out, err := h.uc.Transfer(c.UserContext(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// CreateMovement godoc
// @Summary      Registrar un movimiento por ids de ubicación
// @Description  RECEIVE, TRANSFER_OUT (escribe el par OUT/IN) o DISPENSE. Los usuarios no ADMIN
//
//	quedan fijados a su ubicación.
//
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateMovementRequest  true  "movementType, productId, qty, unitLabel, from/toLocationId"
// @Success      201   {object}  dto.CreateMovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/inventory/movements [post]
func (h *InventoryHandler) CreateMovement(c *fiber.Ctx) error {
	var in dto.CreateMovementRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	out, err := h.uc.CreateMovement(c.UserContext(), GetCaller(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Dispense godoc
// @Summary      Dispensar medicamentos a un paciente
// @Tags         dispense
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.DispenseRequest  true  "branchCode, patient, lines"
// @Success      201   {object}  dto.DispenseResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/dispense [post]
func (h *InventoryHandler) Dispense(c *fiber.Ctx) error {
	var in dto.DispenseRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if ok, err := scopeBranch(c, "branchCode", &in.BranchCode); !ok {
		return err
	}
	if err := validate.Struct(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: validationMessage(err)})
	}
	if ok, err := pinActor(c, "pharmacistUserId", &in.PharmacistUserID); !ok {
		return err
	}

	out, err := h.uc.Dispense(c.UserContext(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// pinActor fija el usuario que firma la operación.
// ADMIN puede registrar a nombre de otro usuario (el caso de uso valida que exista y esté activo);
// sin valor en el cuerpo firma el propio ADMIN. Para el resto de roles el actor es el usuario del token
// y un id distinto en el cuerpo es 403.
func pinActor(c *fiber.Ctx, field string, value *string) (bool, error) {
	tokenID := GetUserID(c)
	body := strings.TrimSpace(*value)
	if GetRole(c) == entity.RoleAdmin {
		if body == "" {
			*value = tokenID
		} else {
			*value = body
		}
		return true, nil
	}
	if body != "" && body != tokenID {
		return false, forbidden(c, field+" debe ser el usuario autenticado")
	}
	*value = tokenID
	return true, nil
}

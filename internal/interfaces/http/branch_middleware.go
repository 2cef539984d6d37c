package http

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/farmacia-api/internal/application/dto"
	"github.com/jhoicas/farmacia-api/internal/domain/entity"
)

// locationGetter es el contrato mínimo que necesita el middleware para resolver la sucursal del usuario.
// Lo implementan los repositorios de ubicaciones (postgres y memoria).
type locationGetter interface {
	GetByID(ctx context.Context, id string) (*entity.Location, error)
}

// RequireBranchAccess limita a un PHARMACIST a la sucursal de su token. Debe usarse DESPUÉS de
// AuthMiddleware y RequireRole. ADMIN pasa sin restricción; cualquier otro rol recibe 403.
//
// El código de sucursal queda en c.Locals(LocalBranchCode); el handler lo aplica con scopeBranch.
//
//   - 403 Forbidden → sin location_id, ubicación inexistente, no BRANCH o inactiva.
//   - 503 Service Unavailable → fallo de infraestructura al consultar la ubicación.
func RequireBranchAccess(locations locationGetter) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role := GetRole(c)
		if role == entity.RoleAdmin {
			return c.Next()
		}
		if role != entity.RolePharmacist {
			return forbidden(c, "el acceso por sucursal requiere PHARMACIST o ADMIN")
		}
		locationID := GetLocationID(c)
		if locationID == "" {
			return forbidden(c, "el usuario no tiene sucursal asignada")
		}

		loc, err := locations.GetByID(c.UserContext(), locationID)
		if err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{
				Code:    "BRANCH_CHECK_FAILED",
				Message: "no se pudo verificar la sucursal, intente más tarde",
			})
		}
		switch {
		case loc == nil:
			return forbidden(c, "la ubicación del usuario no existe")
		case !loc.IsBranch():
			return forbidden(c, "la ubicación del usuario no es una sucursal")
		case !loc.IsActive:
			return forbidden(c, "la sucursal del usuario está inactiva")
		}

		c.Locals(LocalBranchCode, loc.Code)
		return c.Next()
	}
}

// scopeBranch aplica el alcance de RequireBranchAccess a un campo del cuerpo: vacío se completa
// con la sucursal del usuario; distinto es 403. Devuelve false si ya respondió.
func scopeBranch(c *fiber.Ctx, field string, value *string) (bool, error) {
	code := localString(c, LocalBranchCode)
	if code == "" {
		return true, nil
	}
	if *value != "" && *value != code {
		return false, forbidden(c, "sin acceso a la sucursal indicada en "+field)
	}
	*value = code
	return true, nil
}

func forbidden(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: msg})
}

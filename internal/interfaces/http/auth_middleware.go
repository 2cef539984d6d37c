package http

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/farmacia-api/internal/application/dto"
	"github.com/jhoicas/farmacia-api/internal/domain/entity"
	"github.com/jhoicas/farmacia-api/pkg/jwt"
)

// Locals keys para los claims del token en Fiber.
const (
	LocalUserID     = "user_id"
	LocalRole       = "role"
	LocalLocationID = "location_id"
	LocalBranchCode = "branch_code"
)

// AuthMiddleware valida el Bearer Token JWT y carga user_id, role y location_id en c.Locals.
func AuthMiddleware(jwtSecret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "MISSING_TOKEN", Message: "Authorization header requerido"})
		}
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "INVALID_TOKEN", Message: "formato: Bearer <token>"})
		}
		tokenString := strings.TrimSpace(parts[1])
		if tokenString == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "MISSING_TOKEN", Message: "token vacío"})
		}
		claims, err := jwt.Parse(jwtSecret, tokenString)
		if errors.Is(err, jwt.ErrTokenExpired) {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "TOKEN_EXPIRED", Message: "token expirado"})
		}
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "INVALID_TOKEN", Message: "token inválido"})
		}
		c.Locals(LocalUserID, claims.UserID)
		c.Locals(LocalRole, strings.ToUpper(strings.TrimSpace(claims.Role)))
		c.Locals(LocalLocationID, claims.LocationID)
		return c.Next()
	}
}

// RequireRole autoriza por rol. ADMIN siempre pasa; OPERATOR es de solo lectura en cualquier ruta.
// Sin roles permitidos basta con estar autenticado.
//
//   - 401 MISSING_ROLE → el token no trae rol.
//   - 403 READ_ONLY    → OPERATOR en un método que escribe.
//   - 403 FORBIDDEN    → rol fuera de la lista.
func RequireRole(allowed ...string) fiber.Handler {
	set := make(map[string]struct{}, len(allowed))
	for _, r := range allowed {
		set[strings.ToUpper(r)] = struct{}{}
	}
	return func(c *fiber.Ctx) error {
		role := GetRole(c)
		if role == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "MISSING_ROLE", Message: "el token no incluye rol"})
		}
		if role == entity.RoleOperator && !isReadMethod(c.Method()) {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "READ_ONLY", Message: "el rol OPERATOR es de solo lectura"})
		}
		if role == entity.RoleAdmin || len(set) == 0 {
			return c.Next()
		}
		if _, ok := set[role]; !ok {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "rol sin permiso para esta operación"})
		}
		return c.Next()
	}
}

func isReadMethod(method string) bool {
	switch method {
	case fiber.MethodGet, fiber.MethodHead, fiber.MethodOptions:
		return true
	}
	return false
}

// GetUserID devuelve el UserID del contexto (después del middleware de auth).
func GetUserID(c *fiber.Ctx) string { return localString(c, LocalUserID) }

// GetRole devuelve el rol normalizado en mayúsculas.
func GetRole(c *fiber.Ctx) string { return localString(c, LocalRole) }

// GetLocationID devuelve la ubicación asignada al usuario (vacía para ADMIN).
func GetLocationID(c *fiber.Ctx) string { return localString(c, LocalLocationID) }

// GetCaller arma la identidad que consumen los casos de uso.
func GetCaller(c *fiber.Ctx) dto.Caller {
	return dto.Caller{UserID: GetUserID(c), Role: GetRole(c), LocationID: GetLocationID(c)}
}

func localString(c *fiber.Ctx, key string) string {
	v := c.Locals(key)
	if v == nil {
		return ""
	}
	s, _ := v.(string)
	return s
}

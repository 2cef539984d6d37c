package http_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apphttp "github.com/jhoicas/farmacia-api/internal/interfaces/http"
	pkgjwt "github.com/jhoicas/farmacia-api/pkg/jwt"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

const (
	testJWTSecret = "test-secret-key-for-unit-tests"
	testUserID    = "00000000-0000-0000-0000-000000000010"
	testBranchID  = "10000000-0000-0000-0000-000000000001"
	testIssuer    = "farmacia-api-test"
	testExpMin    = 60
)

// buildTestApp construye una aplicación Fiber mínima con:
//   - AuthMiddleware para parsear el JWT y cargar locals
//   - RequireRole para autorizar el acceso
//   - Un handler dummy en GET y POST que devuelve 200 si pasa los middlewares
func buildTestApp(allowedRoles ...string) *fiber.App {
	app := fiber.New(fiber.Config{
		// Silenciar errores internos en los tests
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		},
	})
	ok := func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"ok":   true,
			"role": apphttp.GetRole(c),
		})
	}
	// Ruta protegida: JWT + RBAC
	app.Get("/protected", apphttp.AuthMiddleware(testJWTSecret), apphttp.RequireRole(allowedRoles...), ok)
	app.Post("/protected", apphttp.AuthMiddleware(testJWTSecret), apphttp.RequireRole(allowedRoles...), ok)
	return app
}

// tokenForRole genera un JWT con el rol indicado.
func tokenForRole(t *testing.T, role string) string {
	t.Helper()
	tok, err := pkgjwt.Generate(testJWTSecret, testUserID, role, testBranchID, testIssuer, testExpMin)
	require.NoError(t, err, "debe generarse un token JWT válido")
	return "Bearer " + tok
}

// doRequest lanza una petición a /protected y devuelve la respuesta.
func doRequest(t *testing.T, app *fiber.App, method, authHeader string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(method, "/protected", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

// ──────────────────────────────────────────────────────────────────────────────
// Tests RequireRole
// ──────────────────────────────────────────────────────────────────────────────

// Caso 1: El usuario tiene el rol requerido → debe pasar (HTTP 200).
func TestRequireRole_PharmacistAccedeRutaPharmacist(t *testing.T) {
	app := buildTestApp("PHARMACIST")
	resp := doRequest(t, app, http.MethodPost, tokenForRole(t, "PHARMACIST"))
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, true, body["ok"], "la respuesta debe incluir ok:true")
	assert.Equal(t, "PHARMACIST", body["role"])
}

// Caso 1b: ADMIN pasa aunque no esté en la lista.
func TestRequireRole_AdminSiemprePasa(t *testing.T) {
	app := buildTestApp("PHARMACIST")
	resp := doRequest(t, app, http.MethodPost, tokenForRole(t, "ADMIN"))
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

// Caso 1c: el rol del token se normaliza a mayúsculas.
func TestRequireRole_RolEnMinusculas(t *testing.T) {
	app := buildTestApp("PHARMACIST")
	resp := doRequest(t, app, http.MethodPost, tokenForRole(t, "pharmacist"))
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

// Caso 2: OPERATOR puede leer pero no escribir.
func TestRequireRole_OperatorSoloLectura(t *testing.T) {
	app := buildTestApp()

	resp := doRequest(t, app, http.MethodGet, tokenForRole(t, "OPERATOR"))
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode, "OPERATOR puede leer")

	resp = doRequest(t, app, http.MethodPost, tokenForRole(t, "OPERATOR"))
	defer resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode, "OPERATOR no puede escribir")
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "READ_ONLY")
}

// Caso 2b: rol fuera de la lista → HTTP 403.
func TestRequireRole_RolNoPermitido(t *testing.T) {
	app := buildTestApp("ADMIN")
	resp := doRequest(t, app, http.MethodGet, tokenForRole(t, "PHARMACIST"))
	defer resp.Body.Close()

	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "FORBIDDEN")
}

// Caso 3: Token sin claim de rol → HTTP 401.
func TestRequireRole_TokenSinRol_Retorna401(t *testing.T) {
	app := buildTestApp("ADMIN")
	resp := doRequest(t, app, http.MethodGet, tokenForRole(t, ""))
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, "token sin rol debe retornar 401")
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "MISSING_ROLE")
}

// Caso 4: Sin header Authorization → HTTP 401 MISSING_TOKEN.
func TestRequireRole_SinAuthHeader_Retorna401(t *testing.T) {
	app := buildTestApp("ADMIN")
	resp := doRequest(t, app, http.MethodGet, "")
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "MISSING_TOKEN")
}

// Caso 5: Token inválido / malformado → HTTP 401 INVALID_TOKEN.
func TestRequireRole_TokenInvalido_Retorna401(t *testing.T) {
	app := buildTestApp("ADMIN")
	resp := doRequest(t, app, http.MethodGet, "Bearer token.invalido.aqui")
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

// Caso 6: token firmado con otro secret → HTTP 401.
func TestRequireRole_SecretIncorrecto_Retorna401(t *testing.T) {
	app := buildTestApp("ADMIN")
	tok, err := pkgjwt.Generate("otro-secret-completamente-distinto", testUserID, "ADMIN", "", testIssuer, testExpMin)
	require.NoError(t, err)

	resp := doRequest(t, app, http.MethodGet, "Bearer "+tok)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

// ──────────────────────────────────────────────────────────────────────────────
// Tests AuthMiddleware: extracción de claims del token
// ──────────────────────────────────────────────────────────────────────────────

func TestAuthMiddleware_ExtraeClaims(t *testing.T) {
	app := fiber.New()
	app.Get("/me", apphttp.AuthMiddleware(testJWTSecret), func(c *fiber.Ctx) error {
		caller := apphttp.GetCaller(c)
		return c.JSON(fiber.Map{
			"user_id":     caller.UserID,
			"location_id": caller.LocationID,
			"role":        caller.Role,
		})
	})

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", tokenForRole(t, "PHARMACIST"))
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, testUserID, body["user_id"])
	assert.Equal(t, testBranchID, body["location_id"])
	assert.Equal(t, "PHARMACIST", body["role"])
}

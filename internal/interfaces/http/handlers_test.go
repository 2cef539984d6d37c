package http_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/farmacia-api/internal/application/auth"
	"github.com/jhoicas/farmacia-api/internal/application/dto"
	"github.com/jhoicas/farmacia-api/internal/application/inventory"
	"github.com/jhoicas/farmacia-api/internal/domain/entity"
	"github.com/jhoicas/farmacia-api/internal/infrastructure/memory"
	"github.com/jhoicas/farmacia-api/internal/infrastructure/pdf"
	"github.com/jhoicas/farmacia-api/internal/infrastructure/xlsx"
	apphttp "github.com/jhoicas/farmacia-api/internal/interfaces/http"
	pkgjwt "github.com/jhoicas/farmacia-api/pkg/jwt"
	"github.com/jhoicas/farmacia-api/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Aplicación completa sobre el store en memoria
// ──────────────────────────────────────────────────────────────────────────────

const (
	productPara      = "20000000-0000-0000-0000-000000000001"
	pharmacist003ID  = "00000000-0000-0000-0000-000000000020"
	operatorID       = "00000000-0000-0000-0000-000000000030"
	closedBranchID   = "10000000-0000-0000-0000-000000000099"
	closedPharmacist = "00000000-0000-0000-0000-000000000040"
	testPassword     = "clave-segura-1"
)

type apiEnv struct {
	app   *fiber.App
	store *memory.Store
}

func newAPI(t *testing.T) *apiEnv {
	t.Helper()
	t.Setenv("SEED_ADMIN_PASSWORD", testPassword)
	store := memory.NewSeeded("system", logger.Nop())

	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)
	now := time.Now()
	store.AddLocation(entity.Location{ID: closedBranchID, Code: "099", Name: "Sucursal cerrada", LocationType: entity.LocationTypeBranch, IsActive: false, CreatedAt: now})
	store.AddUser(entity.User{ID: testUserID, Username: "farma001", PasswordHash: string(hash), FullName: "Farmacéutico 001", Role: entity.RolePharmacist, LocationID: memory.Branch001ID, IsActive: true, CreatedAt: now})
	store.AddUser(entity.User{ID: pharmacist003ID, Username: "farma003", PasswordHash: string(hash), FullName: "Farmacéutico 003", Role: entity.RolePharmacist, LocationID: memory.Branch003ID, IsActive: true, CreatedAt: now})
	store.AddUser(entity.User{ID: operatorID, Username: "operador", PasswordHash: string(hash), FullName: "Operador", Role: entity.RoleOperator, IsActive: true, CreatedAt: now})
	store.AddUser(entity.User{ID: closedPharmacist, Username: "cerrada", PasswordHash: string(hash), Role: entity.RolePharmacist, LocationID: closedBranchID, IsActive: true, CreatedAt: now})

	log := logger.Nop()
	movementUC := inventory.NewMovementUseCase(store, inventory.NewResolver("system"), nil, nil, log)
	queryUC := inventory.NewQueryUseCase(store, store.Locations(), nil, xlsx.NewMovementExporter(), pdf.NewMarotoPDFGenerator(), log)
	authUC := auth.NewAuthUseCase(store.Users(), auth.JWTConfig{Secret: testJWTSecret, ExpMinutes: testExpMin, Issuer: testIssuer}, "system")

	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		AuthUC:     authUC,
		MovementUC: movementUC,
		QueryUC:    queryUC,
		Locations:  store.Locations(),
		JWTSecret:  testJWTSecret,
	})
	return &apiEnv{app: app, store: store}
}

func bearer(t *testing.T, userID, role, locationID string) string {
	t.Helper()
	tok, err := pkgjwt.Generate(testJWTSecret, userID, role, locationID, testIssuer, testExpMin)
	require.NoError(t, err)
	return "Bearer " + tok
}

func (e *apiEnv) admin(t *testing.T) string {
	return bearer(t, memory.AdminUserID, entity.RoleAdmin, "")
}

func (e *apiEnv) do(t *testing.T, method, path, token string, body interface{}) *http.Response {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func receiveBody(branch string, q int64) dto.ReceiveRequest {
	return dto.ReceiveRequest{
		ToBranchCode: branch,
		Items: []dto.ReceiveItemRequest{{
			ProductID: productPara, Qty: decimal.NewFromInt(q), UnitLabel: "tableta", LotNo: "L1", ExpDate: "2027-01-31",
		}},
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Login
// ──────────────────────────────────────────────────────────────────────────────

func TestLogin(t *testing.T) {
	e := newAPI(t)

	resp := e.do(t, http.MethodPost, "/api/auth/login", "", dto.LoginRequest{Username: "farma001", Password: testPassword})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	out := decode[dto.LoginResponse](t, resp)
	assert.NotEmpty(t, out.Token)
	assert.Equal(t, memory.Branch001ID, out.User.LocationID)

	claims, err := pkgjwt.Parse(testJWTSecret, out.Token)
	require.NoError(t, err)
	assert.Equal(t, entity.RolePharmacist, claims.Role)
}

func TestLogin_Rechazos(t *testing.T) {
	e := newAPI(t)

	resp := e.do(t, http.MethodPost, "/api/auth/login", "", dto.LoginRequest{Username: "farma001", Password: "otra"})
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = e.do(t, http.MethodPost, "/api/auth/login", "", dto.LoginRequest{Username: "system", Password: testPassword})
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, "la cuenta de sistema no inicia sesión")

	resp = e.do(t, http.MethodPost, "/api/auth/login", "", dto.LoginRequest{Username: "farma001"})
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

// ──────────────────────────────────────────────────────────────────────────────
// Recepción y alcance por sucursal
// ──────────────────────────────────────────────────────────────────────────────

func TestReceive_PharmacistForzadoASuSucursal(t *testing.T) {
	e := newAPI(t)
	tok := bearer(t, testUserID, entity.RolePharmacist, memory.Branch001ID)

	resp := e.do(t, http.MethodPost, "/api/inventory/receive", tok, receiveBody("", 100))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	out := decode[dto.ReceiveResponse](t, resp)
	assert.Equal(t, "001", out.BranchCode)
	assert.Equal(t, 1, out.MovementCount)

	movs := e.store.AllMovements()
	require.Len(t, movs, 1)
	assert.Equal(t, testUserID, movs[0].CreatedBy, "el actor es el usuario del token")
}

func TestReceive_PharmacistOtraSucursal_403(t *testing.T) {
	e := newAPI(t)
	tok := bearer(t, testUserID, entity.RolePharmacist, memory.Branch001ID)

	resp := e.do(t, http.MethodPost, "/api/inventory/receive", tok, receiveBody("003", 10))
	defer resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Empty(t, e.store.AllMovements())
}

func TestReceive_SucursalInactivaDelUsuario_403(t *testing.T) {
	e := newAPI(t)
	tok := bearer(t, closedPharmacist, entity.RolePharmacist, closedBranchID)

	resp := e.do(t, http.MethodPost, "/api/inventory/receive", tok, receiveBody("", 10))
	defer resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestReceive_OperatorNoEscribe(t *testing.T) {
	e := newAPI(t)
	tok := bearer(t, operatorID, entity.RoleOperator, "")

	resp := e.do(t, http.MethodPost, "/api/inventory/receive", tok, receiveBody("001", 10))
	defer resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestReceive_ErroresDeDominio(t *testing.T) {
	e := newAPI(t)

	cases := []struct {
		name   string
		body   dto.ReceiveRequest
		status int
		code   string
	}{
		{"sin ítems", dto.ReceiveRequest{ToBranchCode: "001"}, http.StatusBadRequest, "VALIDATION"},
		{"sucursal inexistente", receiveBody("777", 10), http.StatusNotFound, "NOT_FOUND"},
		{"sucursal inactiva", receiveBody("099", 10), http.StatusForbidden, "INACTIVE"},
		{"cantidad cero", receiveBody("001", 0), http.StatusBadRequest, "VALIDATION"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			resp := e.do(t, http.MethodPost, "/api/inventory/receive", e.admin(t), c.body)
			out := decode[dto.ErrorResponse](t, resp)
			assert.Equal(t, c.status, resp.StatusCode)
			assert.Equal(t, c.code, out.Code)
		})
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Transferencia, dispensación y reportes
// ──────────────────────────────────────────────────────────────────────────────

func TestTransfer_StockInsuficiente_400(t *testing.T) {
	e := newAPI(t)
	resp := e.do(t, http.MethodPost, "/api/inventory/receive", e.admin(t), receiveBody("001", 10))
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = e.do(t, http.MethodPost, "/api/inventory/transfer", e.admin(t), dto.TransferRequest{
		FromBranchCode: "001", ToBranchCode: "003",
		Items: []dto.TransferItemRequest{{ProductID: productPara, Qty: decimal.NewFromInt(11), UnitLabel: "tableta"}},
	})
	out := decode[dto.ErrorResponse](t, resp)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INSUFFICIENT_STOCK", out.Code)
}

func TestTransfer_MismaSucursal_400(t *testing.T) {
	e := newAPI(t)
	tok := bearer(t, testUserID, entity.RolePharmacist, memory.Branch001ID)

	resp := e.do(t, http.MethodPost, "/api/inventory/transfer", tok, dto.TransferRequest{
		ToBranchCode: "001",
		Items:        []dto.TransferItemRequest{{ProductID: productPara, Qty: decimal.NewFromInt(1), UnitLabel: "tableta"}},
	})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "fromBranchCode forzado a 001 coincide con el destino")
}

func TestDispense_YComprobantePDF(t *testing.T) {
	e := newAPI(t)
	tok := bearer(t, pharmacist003ID, entity.RolePharmacist, memory.Branch003ID)

	resp := e.do(t, http.MethodPost, "/api/inventory/receive", tok, receiveBody("", 50))
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	lotID := e.store.Lots(productPara)[0].ID
	resp = e.do(t, http.MethodPost, "/api/dispense", tok, dto.DispenseRequest{
		Patient: dto.PatientRequest{PID: "1100700123456", FullName: "Somchai Jaidee"},
		Lines:   []dto.DispenseLineRequest{{ProductID: productPara, Qty: decimal.NewFromInt(20), UnitLabel: "tableta", LotID: lotID}},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	out := decode[dto.DispenseResponse](t, resp)
	assert.Equal(t, "003", out.BranchCode)

	resp = e.do(t, http.MethodGet, "/api/dispense/"+out.HeaderID+"/pdf", tok, nil)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))

	// otro farmacéutico no puede imprimir dispensaciones de 003
	other := bearer(t, testUserID, entity.RolePharmacist, memory.Branch001ID)
	resp2 := e.do(t, http.MethodGet, "/api/dispense/"+out.HeaderID+"/pdf", other, nil)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp2.StatusCode)

	resp3 := e.do(t, http.MethodGet, "/api/patients/1100700123456/dispense", other, nil)
	hist := decode[dto.ListResponse[dto.PatientDispenseRow]](t, resp3)
	assert.Equal(t, 1, hist.Count)
}

func TestDispense_AdminRegistraANombreDelFarmaceutico(t *testing.T) {
	e := newAPI(t)
	resp := e.do(t, http.MethodPost, "/api/inventory/receive", e.admin(t), receiveBody("003", 30))
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	lotID := e.store.Lots(productPara)[0].ID

	resp = e.do(t, http.MethodPost, "/api/dispense", e.admin(t), dto.DispenseRequest{
		BranchCode:       "003",
		Patient:          dto.PatientRequest{PID: "1100700999999", FullName: "Malee Sukjai"},
		Lines:            []dto.DispenseLineRequest{{ProductID: productPara, Qty: decimal.NewFromInt(5), UnitLabel: "tableta", LotID: lotID}},
		PharmacistUserID: pharmacist003ID,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	decode[dto.DispenseResponse](t, resp)

	var dispensed []entity.StockMovement
	for _, m := range e.store.AllMovements() {
		if m.MovementType == entity.MovementTypeDispense {
			dispensed = append(dispensed, m)
		}
	}
	require.Len(t, dispensed, 1)
	assert.Equal(t, pharmacist003ID, dispensed[0].CreatedBy)

	// sin pharmacistUserId firma el propio ADMIN
	resp = e.do(t, http.MethodPost, "/api/dispense", e.admin(t), dto.DispenseRequest{
		BranchCode: "003",
		Patient:    dto.PatientRequest{PID: "1100700999999", FullName: "Malee Sukjai"},
		Lines:      []dto.DispenseLineRequest{{ProductID: productPara, Qty: decimal.NewFromInt(1), UnitLabel: "tableta", LotID: lotID}},
	})
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	last := e.store.AllMovements()
	assert.Equal(t, memory.AdminUserID, last[len(last)-1].CreatedBy)
}

func TestDispense_FarmaceuticoNoFirmaPorOtro_403(t *testing.T) {
	e := newAPI(t)
	tok := bearer(t, pharmacist003ID, entity.RolePharmacist, memory.Branch003ID)

	resp := e.do(t, http.MethodPost, "/api/dispense", tok, dto.DispenseRequest{
		Patient:          dto.PatientRequest{PID: "1100700999999", FullName: "Malee Sukjai"},
		Lines:            []dto.DispenseLineRequest{{ProductID: productPara, Qty: decimal.NewFromInt(1), UnitLabel: "tableta"}},
		PharmacistUserID: testUserID,
	})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Empty(t, e.store.AllDispenseLines())

	// el propio id en el cuerpo es aceptado
	resp2 := e.do(t, http.MethodPost, "/api/inventory/receive", tok, dto.ReceiveRequest{
		Items:           receiveBody("", 3).Items,
		CreatedByUserID: pharmacist003ID,
	})
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusCreated, resp2.StatusCode)
}

func TestStockOnHandYMovimientos(t *testing.T) {
	e := newAPI(t)
	resp := e.do(t, http.MethodPost, "/api/inventory/receive", e.admin(t), receiveBody("001", 70))
	resp.Body.Close()
	resp = e.do(t, http.MethodPost, "/api/inventory/receive", e.admin(t), receiveBody("003", 30))
	resp.Body.Close()

	operator := bearer(t, operatorID, entity.RoleOperator, "")
	resp = e.do(t, http.MethodGet, "/api/stock/on-hand?branchCode=001", operator, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	stock := decode[dto.ListResponse[dto.StockOnHandRow]](t, resp)
	require.Equal(t, 1, stock.Count)
	assert.True(t, stock.Items[0].Quantity.Equal(decimal.NewFromInt(70)))

	// un farmacéutico solo ve los movimientos de su sucursal
	pharm := bearer(t, testUserID, entity.RolePharmacist, memory.Branch001ID)
	resp = e.do(t, http.MethodGet, "/api/movements", pharm, nil)
	movs := decode[dto.ListResponse[dto.MovementRow]](t, resp)
	require.Equal(t, 1, movs.Count)
	assert.Equal(t, "001", movs.Items[0].ToBranchCode)

	resp = e.do(t, http.MethodGet, "/api/movements?locationId="+memory.Branch003ID, pharm, nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = e.do(t, http.MethodGet, "/api/movements/export", e.admin(t), nil)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), ".xlsx")
}

func TestListLocations(t *testing.T) {
	e := newAPI(t)

	resp := e.do(t, http.MethodGet, "/api/locations?locationType=BRANCH", e.admin(t), nil)
	out := decode[dto.ListResponse[dto.LocationResponse]](t, resp)
	assert.Equal(t, 3, out.Count, "solo sucursales activas")

	resp = e.do(t, http.MethodGet, "/api/locations?includeInactive=true&locationType=branch", e.admin(t), nil)
	out = decode[dto.ListResponse[dto.LocationResponse]](t, resp)
	assert.Equal(t, 4, out.Count)

	resp = e.do(t, http.MethodGet, "/api/locations?locationType=PLANET", e.admin(t), nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRutasProtegidas_SinToken(t *testing.T) {
	e := newAPI(t)
	resp := e.do(t, http.MethodGet, "/api/stock/on-hand", "", nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

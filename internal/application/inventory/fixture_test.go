package inventory_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/farmacia-api/internal/application/dto"
	"github.com/jhoicas/farmacia-api/internal/application/inventory"
	"github.com/jhoicas/farmacia-api/internal/domain/entity"
	"github.com/jhoicas/farmacia-api/internal/infrastructure/memory"
	"github.com/jhoicas/farmacia-api/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

const (
	systemUserID   = "00000000-0000-0000-0000-000000000001"
	pharmacistID   = "00000000-0000-0000-0000-000000000010"
	inactiveUserID = "00000000-0000-0000-0000-000000000011"
	branch001      = "10000000-0000-0000-0000-000000000001"
	branch003      = "10000000-0000-0000-0000-000000000003"
	branch009      = "10000000-0000-0000-0000-000000000009" // inactiva
	officeID       = "10000000-0000-0000-0000-000000000100"
	productP       = "20000000-0000-0000-0000-000000000001"
	productQ       = "20000000-0000-0000-0000-000000000002"
	unknownID      = "99999999-9999-9999-9999-999999999999"
)

var occurred = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

type fixture struct {
	store *memory.Store
	uc    *inventory.MovementUseCase
	ctx   context.Context
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.New()
	now := time.Now()
	store.AddUser(entity.User{ID: systemUserID, Username: "system", FullName: "System User", Role: entity.RoleAdmin, IsActive: true, CreatedAt: now})
	store.AddUser(entity.User{ID: pharmacistID, Username: "farma", FullName: "Ana Farma", Role: entity.RolePharmacist, LocationID: branch001, IsActive: true, CreatedAt: now})
	store.AddUser(entity.User{ID: inactiveUserID, Username: "baja", Role: entity.RolePharmacist, IsActive: false, CreatedAt: now})
	store.AddLocation(entity.Location{ID: branch001, Code: "001", Name: "Sucursal 001", LocationType: entity.LocationTypeBranch, IsActive: true})
	store.AddLocation(entity.Location{ID: branch003, Code: "003", Name: "Sucursal 003", LocationType: entity.LocationTypeBranch, IsActive: true})
	store.AddLocation(entity.Location{ID: branch009, Code: "009", Name: "Sucursal 009", LocationType: entity.LocationTypeBranch, IsActive: false})
	store.AddLocation(entity.Location{ID: officeID, Code: "HQ", Name: "Oficina", LocationType: entity.LocationTypeOffice, IsActive: true})
	store.AddProduct(entity.Product{ID: productP, ProductCode: "P", TradeName: "Paracetamol"})
	store.AddProduct(entity.Product{ID: productQ, ProductCode: "Q", TradeName: "Amoxicilina"})

	uc := inventory.NewMovementUseCase(store, inventory.NewResolver("system"), nil, nil, logger.Nop())
	return &fixture{store: store, uc: uc, ctx: context.Background()}
}

func qty(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

// receive registra una recepción de un solo ítem con lote L1 y devuelve la respuesta.
func (f *fixture) receive(t *testing.T, branch, productID string, q int64, unit string) *dto.ReceiveResponse {
	t.Helper()
	res, err := f.uc.Receive(f.ctx, dto.ReceiveRequest{
		ToBranchCode: branch,
		OccurredAt:   occurred.Format(time.RFC3339),
		Items: []dto.ReceiveItemRequest{{
			ProductID: productID, Qty: qty(q), UnitLabel: unit, LotNo: "L1", ExpDate: "2027-01-31",
		}},
	})
	require.NoError(t, err)
	return res
}

func (f *fixture) levelID(t *testing.T, productID, code string) string {
	t.Helper()
	for _, l := range f.store.UnitLevels(productID) {
		if l.Code == code {
			return l.ID
		}
	}
	t.Fatalf("nivel de unidad %s no encontrado para %s", code, productID)
	return ""
}

func (f *fixture) lotID(t *testing.T, productID, lotNo string) string {
	t.Helper()
	for _, l := range f.store.Lots(productID) {
		if l.LotNo == lotNo {
			return l.ID
		}
	}
	t.Fatalf("lote %s no encontrado para %s", lotNo, productID)
	return ""
}

func (f *fixture) balance(t *testing.T, branchID, productID, unitCode, lotID string) (decimal.Decimal, bool) {
	t.Helper()
	return f.store.Balance(entity.BalanceKey{
		BranchID: branchID, ProductID: productID, UnitLevelID: f.levelID(t, productID, unitCode), LotID: lotID,
	})
}

func countByType(movs []entity.StockMovement, movementType string) int {
	n := 0
	for _, m := range movs {
		if m.MovementType == movementType {
			n++
		}
	}
	return n
}

package postgres_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/farmacia-api/internal/application/dto"
	"github.com/jhoicas/farmacia-api/internal/application/inventory"
	"github.com/jhoicas/farmacia-api/internal/domain"
	"github.com/jhoicas/farmacia-api/internal/infrastructure/postgres"
	"github.com/jhoicas/farmacia-api/pkg/config"
)

const (
	branch001 = "10000000-0000-0000-0000-000000000001"
	branch003 = "10000000-0000-0000-0000-000000000003"
)

func openPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	databaseURL := os.Getenv("FARMACIA_TEST_DATABASE_URL")
	if databaseURL == "" {
		t.Skip("set FARMACIA_TEST_DATABASE_URL to run postgres integration test")
	}
	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, config.DBConfig{DatabaseURL: databaseURL, LockTimeoutMS: 5000})
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, postgres.Migrate(ctx, pool))
	return pool
}

// seedProduct crea un producto propio del test y borra todo lo que cuelga de él al terminar.
func seedProduct(t *testing.T, pool *pgxpool.Pool) string {
	t.Helper()
	ctx := context.Background()
	id := uuid.New().String()
	code := fmt.Sprintf("IT-%d", time.Now().UnixNano())
	_, err := pool.Exec(ctx, `INSERT INTO products (id, product_code, trade_name) VALUES ($1, $2, 'Producto IT')`, id, code)
	require.NoError(t, err)

	t.Cleanup(func() {
		_, _ = pool.Exec(ctx, `DELETE FROM stock_movements WHERE product_id = $1`, id)
		_, _ = pool.Exec(ctx, `DELETE FROM dispense_lines WHERE product_id = $1`, id)
		_, _ = pool.Exec(ctx, `DELETE FROM dispense_headers h WHERE NOT EXISTS (SELECT 1 FROM dispense_lines dl WHERE dl.header_id = h.id)`)
		_, _ = pool.Exec(ctx, `DELETE FROM stock_on_hand WHERE product_id = $1`, id)
		_, _ = pool.Exec(ctx, `DELETE FROM product_lots WHERE product_id = $1`, id)
		_, _ = pool.Exec(ctx, `DELETE FROM product_unit_levels WHERE product_id = $1`, id)
		_, _ = pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	})
	return id
}

func balance(t *testing.T, pool *pgxpool.Pool, branchID, productID string) decimal.Decimal {
	t.Helper()
	var q decimal.Decimal
	err := pool.QueryRow(context.Background(),
		`SELECT COALESCE(SUM(quantity_on_hand), 0) FROM stock_on_hand WHERE branch_id = $1 AND product_id = $2`,
		branchID, productID).Scan(&q)
	require.NoError(t, err)
	return q
}

func TestLedger_RecepcionTransferenciaYDispensacion(t *testing.T) {
	pool := openPool(t)
	productID := seedProduct(t, pool)
	ctx := context.Background()
	uc := inventory.NewMovementUseCase(postgres.NewTxRunner(pool), inventory.NewResolver("system"), nil, nil, nil)

	rec, err := uc.Receive(ctx, dto.ReceiveRequest{
		ToBranchCode: "001",
		Items: []dto.ReceiveItemRequest{{
			ProductID: productID, Qty: decimal.NewFromInt(100), UnitLabel: "Box", LotNo: "IT1", ExpDate: "2030-01-31",
		}},
	})
	require.NoError(t, err)
	require.Len(t, rec.CreatedLotIDs, 1)
	lotID := rec.CreatedLotIDs[0]
	assert.True(t, balance(t, pool, branch001, productID).Equal(decimal.NewFromInt(100)))

	_, err = uc.Transfer(ctx, dto.TransferRequest{
		FromBranchCode: "001", ToBranchCode: "003",
		Items: []dto.TransferItemRequest{{ProductID: productID, Qty: decimal.NewFromInt(30), UnitLabel: "BOX", LotID: lotID}},
	})
	require.NoError(t, err)
	assert.True(t, balance(t, pool, branch001, productID).Equal(decimal.NewFromInt(70)))
	assert.True(t, balance(t, pool, branch003, productID).Equal(decimal.NewFromInt(30)))

	_, err = uc.Dispense(ctx, dto.DispenseRequest{
		BranchCode: "001",
		Patient:    dto.PatientRequest{PID: "IT-" + productID, FullName: "Paciente IT"},
		Lines:      []dto.DispenseLineRequest{{ProductID: productID, Qty: decimal.NewFromInt(80), UnitLabel: "BOX", LotID: lotID}},
	})
	require.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.True(t, balance(t, pool, branch001, productID).Equal(decimal.NewFromInt(70)))

	rows, err := postgres.NewQueryRepository(pool).StockOnHand(ctx, "001")
	require.NoError(t, err)
	var found bool
	for _, r := range rows {
		if r.ProductID == productID {
			found = true
			assert.Equal(t, "IT1", r.LotNo)
			assert.Equal(t, "BOX", r.UnitCode)
		}
	}
	assert.True(t, found)
}

func TestLedger_DescuentosConcurrentes(t *testing.T) {
	pool := openPool(t)
	productID := seedProduct(t, pool)
	ctx := context.Background()
	uc := inventory.NewMovementUseCase(postgres.NewTxRunner(pool), inventory.NewResolver("system"), nil, nil, nil)

	_, err := uc.CreateMovement(ctx, dto.Caller{Role: "ADMIN"}, dto.CreateMovementRequest{
		MovementType: "RECEIVE", ProductID: productID, Qty: decimal.NewFromInt(100), UnitLabel: "TABLET", ToLocationID: branch001,
	})
	require.NoError(t, err)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		ok, fail int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := uc.CreateMovement(ctx, dto.Caller{Role: "ADMIN"}, dto.CreateMovementRequest{
				MovementType: "DISPENSE", ProductID: productID, Qty: decimal.NewFromInt(10), UnitLabel: "TABLET", FromLocationID: branch001,
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, domain.ErrInsufficientStock):
				fail++
			default:
				t.Errorf("error inesperado: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, ok)
	assert.Equal(t, 10, fail)
	assert.True(t, balance(t, pool, branch001, productID).IsZero())

	drift, err := postgres.NewQueryRepository(pool).LedgerDrift(ctx)
	require.NoError(t, err)
	for _, d := range drift {
		assert.NotEqual(t, productID, d.ProductID, "el libro del producto debe cuadrar")
	}
}

func TestLedger_CantidadesConPrecisionCompleta(t *testing.T) {
	pool := openPool(t)
	productID := seedProduct(t, pool)
	ctx := context.Background()
	uc := inventory.NewMovementUseCase(postgres.NewTxRunner(pool), inventory.NewResolver("system"), nil, nil, nil)

	for _, q := range []string{"1.0004", "0.0004"} {
		_, err := uc.CreateMovement(ctx, dto.Caller{Role: "ADMIN"}, dto.CreateMovementRequest{
			MovementType: "RECEIVE", ProductID: productID, Qty: decimal.RequireFromString(q), UnitLabel: "ML", ToLocationID: branch001,
		})
		require.NoError(t, err, q)
	}
	assert.True(t, balance(t, pool, branch001, productID).Equal(decimal.RequireFromString("1.0008")))

	var minQty decimal.Decimal
	require.NoError(t, pool.QueryRow(ctx,
		`SELECT MIN(quantity) FROM stock_movements WHERE product_id = $1`, productID).Scan(&minQty))
	assert.True(t, minQty.Equal(decimal.RequireFromString("0.0004")))
}

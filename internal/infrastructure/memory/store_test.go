package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/farmacia-api/internal/application/dto"
	"github.com/jhoicas/farmacia-api/internal/application/inventory"
	"github.com/jhoicas/farmacia-api/internal/domain"
	"github.com/jhoicas/farmacia-api/internal/domain/entity"
	"github.com/jhoicas/farmacia-api/internal/infrastructure/memory"
	"github.com/jhoicas/farmacia-api/pkg/logger"
)

const productPara = "20000000-0000-0000-0000-000000000001"

// ──────────────────────────────────────────────────────────────────────────────
// Exclusividad: una transacción en curso hace que otra con deadline corto sea Busy
// ──────────────────────────────────────────────────────────────────────────────

func TestRun_TransaccionOcupadaDevuelveBusy(t *testing.T) {
	store := memory.NewSeeded("system", logger.Nop())
	uc := inventory.NewMovementUseCase(store, inventory.NewResolver("system"), nil, nil, logger.Nop())

	held := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- store.Run(context.Background(), func(inventory.Repos) error {
			close(held)
			<-release
			return nil
		})
	}()
	<-held

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := uc.Dispense(ctx, dto.DispenseRequest{
		BranchCode: "001",
		Patient:    dto.PatientRequest{PID: "1100700123456", FullName: "Somchai Jaidee"},
		Lines:      []dto.DispenseLineRequest{{ProductID: productPara, Qty: decimal.NewFromInt(1), UnitLabel: "tableta"}},
	})
	assert.ErrorIs(t, err, domain.ErrBusy)

	close(release)
	require.NoError(t, <-done)
	assert.Empty(t, store.AllDispenseLines())
}

// ──────────────────────────────────────────────────────────────────────────────
// Rollback: error o pánico dentro de fn restauran el estado y liberan el turno
// ──────────────────────────────────────────────────────────────────────────────

func TestRun_PanicoRestauraEstado(t *testing.T) {
	store := memory.NewSeeded("system", logger.Nop())
	key := entity.BalanceKey{BranchID: memory.Branch001ID, ProductID: productPara, UnitLevelID: "30000000-0000-0000-0000-000000000001"}

	assert.Panics(t, func() {
		_ = store.Run(context.Background(), func(repos inventory.Repos) error {
			require.NoError(t, inventory.ApplyStockDelta(context.Background(), repos.Stock(), key, decimal.NewFromInt(10), time.Now()))
			panic("fallo a mitad de la transacción")
		})
	})

	_, found := store.Balance(key)
	assert.False(t, found, "el saldo a medio aplicar no debe quedar")

	// el turno quedó libre
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, store.Run(ctx, func(repos inventory.Repos) error {
		return inventory.ApplyStockDelta(ctx, repos.Stock(), key, decimal.NewFromInt(4), time.Now())
	}))
	q, found := store.Balance(key)
	require.True(t, found)
	assert.True(t, q.Equal(decimal.NewFromInt(4)))
}

func TestRun_ErrorRestauraEstado(t *testing.T) {
	store := memory.NewSeeded("system", logger.Nop())
	key := entity.BalanceKey{BranchID: memory.Branch001ID, ProductID: productPara, UnitLevelID: "30000000-0000-0000-0000-000000000001"}

	err := store.Run(context.Background(), func(repos inventory.Repos) error {
		require.NoError(t, inventory.ApplyStockDelta(context.Background(), repos.Stock(), key, decimal.NewFromInt(10), time.Now()))
		return inventory.ApplyStockDelta(context.Background(), repos.Stock(), key, decimal.NewFromInt(-11), time.Now())
	})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	_, found := store.Balance(key)
	assert.False(t, found)
}

package inventory_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/farmacia-api/internal/application/dto"
	"github.com/jhoicas/farmacia-api/internal/domain"
	"github.com/jhoicas/farmacia-api/internal/domain/entity"
)

// Con 100 en 001, transferir 30 a 003 deja 70/30 y un par OUT/IN gemelo.
func TestTransfer_ParDeMovimientos(t *testing.T) {
	f := newFixture(t)
	f.receive(t, "001", productP, 100, "BOX")
	lot := f.lotID(t, productP, "L1")

	res, err := f.uc.Transfer(f.ctx, dto.TransferRequest{
		FromBranchCode:  "001",
		ToBranchCode:    "003",
		OccurredAt:      occurred.Add(time.Hour).Format(time.RFC3339),
		CreatedByUserID: pharmacistID,
		Note:            "reposición",
		Items:           []dto.TransferItemRequest{{ProductID: productP, Qty: qty(30), UnitLabel: "BOX", LotID: lot}},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.MovementCount)
	assert.Len(t, res.MovementIDs, 2)
	assert.Empty(t, res.CreatedUnitLevelIDs)

	src, _ := f.balance(t, branch001, productP, "BOX", lot)
	dst, ok := f.balance(t, branch003, productP, "BOX", lot)
	require.True(t, ok)
	assert.True(t, src.Equal(qty(70)), "origen: %s", src)
	assert.True(t, dst.Equal(qty(30)), "destino: %s", dst)

	movs := f.store.AllMovements()
	require.Equal(t, 1, countByType(movs, entity.MovementTypeTransferOut))
	require.Equal(t, 1, countByType(movs, entity.MovementTypeTransferIn))
	var out, in entity.StockMovement
	for _, m := range movs {
		switch m.MovementType {
		case entity.MovementTypeTransferOut:
			out = m
		case entity.MovementTypeTransferIn:
			in = m
		}
	}
	assert.True(t, out.Quantity.Equal(in.Quantity))
	assert.True(t, out.OccurredAt.Equal(in.OccurredAt))
	assert.Equal(t, out.LotID, in.LotID)
	assert.Equal(t, out.CreatedBy, in.CreatedBy)
	assert.Equal(t, pharmacistID, out.CreatedBy)
	for _, m := range []entity.StockMovement{out, in} {
		assert.Equal(t, branch001, m.FromLocationID)
		assert.Equal(t, branch003, m.ToLocationID)
		assert.Equal(t, "reposición", m.Note)
	}
}

// Si el segundo ítem falla, el primero tampoco queda aplicado.
func TestTransfer_AtomicidadEntreItems(t *testing.T) {
	f := newFixture(t)
	f.receive(t, "001", productP, 100, "BOX")
	f.receive(t, "001", productQ, 5, "BOX")
	lotP := f.lotID(t, productP, "L1")
	lotQ := f.lotID(t, productQ, "L1")
	before := len(f.store.AllMovements())

	_, err := f.uc.Transfer(f.ctx, dto.TransferRequest{
		FromBranchCode: "001",
		ToBranchCode:   "003",
		Items: []dto.TransferItemRequest{
			{ProductID: productP, Qty: qty(30), UnitLabel: "BOX", LotID: lotP},
			{ProductID: productQ, Qty: qty(6), UnitLabel: "BOX", LotID: lotQ},
		},
	})
	require.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Contains(t, err.Error(), "items[1]")

	src, _ := f.balance(t, branch001, productP, "BOX", lotP)
	assert.True(t, src.Equal(qty(100)))
	_, ok := f.balance(t, branch003, productP, "BOX", lotP)
	assert.False(t, ok, "el destino no debe tener saldo")
	assert.Len(t, f.store.AllMovements(), before)
}

// Sin saldo en origen no se puede transferir, aunque la etiqueta sea nueva.
func TestTransfer_SinSaldoEnOrigen(t *testing.T) {
	f := newFixture(t)

	_, err := f.uc.Transfer(f.ctx, dto.TransferRequest{
		FromBranchCode: "001",
		ToBranchCode:   "003",
		Items:          []dto.TransferItemRequest{{ProductID: productP, Qty: qty(1), UnitLabel: "BOX"}},
	})
	require.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Empty(t, f.store.UnitLevels(productP), "el nivel creado se revierte con la transacción")
}

// Transferir todo el saldo lo deja en cero, sin negativos.
func TestTransfer_SaldoCompleto(t *testing.T) {
	f := newFixture(t)
	f.receive(t, "001", productP, 10, "BOX")
	lot := f.lotID(t, productP, "L1")

	_, err := f.uc.Transfer(f.ctx, dto.TransferRequest{
		FromBranchCode: "001",
		ToBranchCode:   "003",
		Items:          []dto.TransferItemRequest{{ProductID: productP, Qty: qty(10), UnitLabel: "BOX", LotID: lot}},
	})
	require.NoError(t, err)
	src, ok := f.balance(t, branch001, productP, "BOX", lot)
	require.True(t, ok)
	assert.True(t, src.IsZero())
}

func TestTransfer_Validaciones(t *testing.T) {
	item := []dto.TransferItemRequest{{ProductID: productP, Qty: qty(1), UnitLabel: "BOX"}}

	cases := []struct {
		name string
		req  dto.TransferRequest
		want error
	}{
		{"misma sucursal", dto.TransferRequest{FromBranchCode: "001", ToBranchCode: "001", Items: item}, domain.ErrInvalidInput},
		{"sin origen", dto.TransferRequest{ToBranchCode: "003", Items: item}, domain.ErrInvalidInput},
		{"sin destino", dto.TransferRequest{FromBranchCode: "001", Items: item}, domain.ErrInvalidInput},
		{"sin ítems", dto.TransferRequest{FromBranchCode: "001", ToBranchCode: "003"}, domain.ErrInvalidInput},
		{"cantidad cero", dto.TransferRequest{FromBranchCode: "001", ToBranchCode: "003", Items: []dto.TransferItemRequest{{ProductID: productP, Qty: qty(0), UnitLabel: "BOX"}}}, domain.ErrInvalidInput},
		{"destino inactivo", dto.TransferRequest{FromBranchCode: "001", ToBranchCode: "009", Items: item}, domain.ErrInactive},
		{"destino no sucursal", dto.TransferRequest{FromBranchCode: "001", ToBranchCode: "HQ", Items: item}, domain.ErrNotFound},
		{"lote mal formado", dto.TransferRequest{FromBranchCode: "001", ToBranchCode: "003", Items: []dto.TransferItemRequest{{ProductID: productP, Qty: qty(1), UnitLabel: "BOX", LotID: "x"}}}, domain.ErrInvalidInput},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			_, err := f.uc.Transfer(f.ctx, tc.req)
			assert.ErrorIs(t, err, tc.want)
			assert.Empty(t, f.store.AllMovements())
		})
	}
}

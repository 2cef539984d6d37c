package xlsx_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/jhoicas/farmacia-api/internal/domain/repository"
	"github.com/jhoicas/farmacia-api/internal/infrastructure/xlsx"
)

// ── Exportación de movimientos ───────────────────────────────────────────────

func TestWriteMovements(t *testing.T) {
	rows := []repository.MovementResult{
		{
			ID: "m-1", MovementType: "TRANSFER_OUT", OccurredAt: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
			Quantity: decimal.NewFromInt(30), ProductCode: "P", TradeName: "Paracetamol", LotNo: "L1",
			UnitLabel: "tableta", FromBranchCode: "001", FromBranchName: "Sucursal 001", ToBranchCode: "003",
			CreatedBy: "system",
		},
		{
			ID: "m-2", MovementType: "DISPENSE", OccurredAt: time.Date(2026, 3, 2, 8, 15, 0, 0, time.UTC),
			Quantity: decimal.RequireFromString("2.5"), ProductCode: "P", TradeName: "Paracetamol",
			UnitLabel: "tableta", FromBranchCode: "003",
		},
	}
	var buf bytes.Buffer
	require.NoError(t, xlsx.NewMovementExporter().WriteMovements(&buf, rows))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	got, err := f.GetRows("Movimientos")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "Fecha", got[0][0])
	assert.Equal(t, "TRANSFER_OUT", got[1][1])
	assert.Equal(t, "001 - Sucursal 001", got[1][7])
	assert.Equal(t, "003", got[1][8])
	assert.Equal(t, "2.5", got[2][5])
	assert.Equal(t, "m-2", got[2][11])
}

func TestWriteMovements_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, xlsx.NewMovementExporter().WriteMovements(&buf, nil))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()
	got, err := f.GetRows("Movimientos")
	require.NoError(t, err)
	assert.Len(t, got, 1, "solo cabecera")
}

// ── Lectura de catálogo ──────────────────────────────────────────────────────

func catalogBook(t *testing.T, rows [][]interface{}) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, r := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		row := r
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	var buf bytes.Buffer
	_, err := f.WriteTo(&buf)
	require.NoError(t, err)
	return &buf
}

func TestReadCatalog(t *testing.T) {
	buf := catalogBook(t, [][]interface{}{
		{"trade_name", "Product_Code", "base_unit", "ky_type"},
		{"Paracetamol 500 mg", "PARA500", "tableta", ""},
		{"", "", "", ""},
		{"Amoxicilina 250 mg", "AMOX250", "cápsula", "KY11"},
	})

	rows, err := xlsx.ReadCatalog(buf)

	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, xlsx.CatalogRow{ProductCode: "PARA500", TradeName: "Paracetamol 500 mg", BaseUnit: "tableta"}, rows[0])
	assert.Equal(t, "KY11", rows[1].KYType)
}

func TestReadCatalog_Errors(t *testing.T) {
	t.Run("columna faltante", func(t *testing.T) {
		_, err := xlsx.ReadCatalog(catalogBook(t, [][]interface{}{{"product_code", "trade_name"}}))
		assert.ErrorContains(t, err, "base_unit")
	})
	t.Run("código repetido", func(t *testing.T) {
		_, err := xlsx.ReadCatalog(catalogBook(t, [][]interface{}{
			{"product_code", "trade_name", "base_unit"},
			{"P", "Uno", "tableta"},
			{"P", "Dos", "tableta"},
		}))
		assert.ErrorContains(t, err, "repetido")
	})
	t.Run("unidad vacía", func(t *testing.T) {
		_, err := xlsx.ReadCatalog(catalogBook(t, [][]interface{}{
			{"product_code", "trade_name", "base_unit"},
			{"P", "Uno", ""},
		}))
		assert.ErrorContains(t, err, "obligatorios")
	})
}

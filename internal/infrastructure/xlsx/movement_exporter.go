// Package xlsx lee y escribe libros de cálculo del inventario (exportación de movimientos
// para el libro regulatorio e importación del catálogo inicial).
package xlsx

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/jhoicas/farmacia-api/internal/domain/repository"
)

const movementsSheet = "Movimientos"

var movementHeaders = []string{
	"Fecha", "Tipo", "Código", "Producto", "Lote", "Cantidad", "Unidad",
	"Origen", "Destino", "Registrado por", "Nota", "ID",
}

// MovementExporter implementa inventory.MovementExporter con excelize.
type MovementExporter struct{}

// NewMovementExporter construye el exportador.
func NewMovementExporter() *MovementExporter { return &MovementExporter{} }

// WriteMovements escribe una hoja con una fila por movimiento, en el orden recibido.
func (e *MovementExporter) WriteMovements(w io.Writer, rows []repository.MovementResult) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", movementsSheet); err != nil {
		return fmt.Errorf("xlsx: renombrar hoja: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"006E5A"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("xlsx: estilo de cabecera: %w", err)
	}
	dateFmt := "yyyy-mm-dd hh:mm"
	dateStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: &dateFmt})
	if err != nil {
		return fmt.Errorf("xlsx: estilo de fecha: %w", err)
	}

	for i, h := range movementHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(movementsSheet, cell, h); err != nil {
			return fmt.Errorf("xlsx: cabecera: %w", err)
		}
	}
	last, _ := excelize.CoordinatesToCellName(len(movementHeaders), 1)
	if err := f.SetCellStyle(movementsSheet, "A1", last, headerStyle); err != nil {
		return fmt.Errorf("xlsx: cabecera: %w", err)
	}

	for i, r := range rows {
		rowNo := i + 2
		values := []interface{}{
			r.OccurredAt,
			r.MovementType,
			r.ProductCode,
			r.TradeName,
			r.LotNo,
			r.Quantity.InexactFloat64(),
			r.UnitLabel,
			locationLabel(r.FromBranchCode, r.FromBranchName),
			locationLabel(r.ToBranchCode, r.ToBranchName),
			r.CreatedBy,
			r.Note,
			r.ID,
		}
		cell, _ := excelize.CoordinatesToCellName(1, rowNo)
		if err := f.SetSheetRow(movementsSheet, cell, &values); err != nil {
			return fmt.Errorf("xlsx: fila %d: %w", rowNo, err)
		}
		if err := f.SetCellStyle(movementsSheet, cell, cell, dateStyle); err != nil {
			return fmt.Errorf("xlsx: fila %d: %w", rowNo, err)
		}
	}

	_ = f.SetColWidth(movementsSheet, "A", "A", 18)
	_ = f.SetColWidth(movementsSheet, "D", "D", 32)
	_ = f.SetColWidth(movementsSheet, "H", "I", 22)
	if err := f.SetPanes(movementsSheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		return fmt.Errorf("xlsx: inmovilizar cabecera: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("xlsx: escribir libro: %w", err)
	}
	return nil
}

func locationLabel(code, name string) string {
	switch {
	case code == "":
		return ""
	case name == "":
		return code
	default:
		return code + " - " + name
	}
}

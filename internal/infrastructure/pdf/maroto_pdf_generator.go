// Package pdf implementa el comprobante imprimible de una dispensación.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Sucursal + código    │  N° Dispensación + Fecha     │
//	│  ─────────────────────────────────────────────────────────  │
//	│  PACIENTE: Nombre + PID                                      │
//	│  FARMACÉUTICO: Nombre                                        │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: # | Producto | Lote | Vence | Cant. | Unidad         │
//	│  ─────────────────────────────────────────────────────────  │
//	│  FOOTER: Observación + firma                                 │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"
	"strconv"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"github.com/jhoicas/farmacia-api/internal/domain/repository"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 110, Blue: 90}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorWhite   = &props.Color{Red: 255, Green: 255, Blue: 255}
)

// ── Generator ─────────────────────────────────────────────────────────────────

// MarotoPDFGenerator implementa inventory.DispenseSlipGenerator usando Maroto v2.
type MarotoPDFGenerator struct{}

// NewMarotoPDFGenerator construye el generador.
func NewMarotoPDFGenerator() *MarotoPDFGenerator { return &MarotoPDFGenerator{} }

// GenerateDispenseSlip genera el PDF y devuelve sus bytes.
func (g *MarotoPDFGenerator) GenerateDispenseSlip(
	_ context.Context,
	slip *repository.DispenseSlipResult,
) ([]byte, error) {
	if slip == nil {
		return nil, fmt.Errorf("pdf: comprobante vacío")
	}
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Comprobante de dispensación", true).
		WithAuthor(slip.BranchName, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(slip))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(patientRow(slip))
	m.AddRows(pharmacistRow(slip))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(tableHeaderRow())
	for _, r := range tableDetailRows(slip.Lines) {
		m.AddRows(r)
	}

	m.AddRows(line.NewRow(3))
	m.AddRows(line.NewRow(1, props.Line{Color: colorGray, Thickness: 0.3}))
	for _, r := range footerRows(slip) {
		m.AddRows(r)
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

// headerRow: sucursal (izq) y N° de dispensación + fecha (der).
func headerRow(slip *repository.DispenseSlipResult) core.Row {
	fecha := slip.DispensedAt.Format("02/01/2006 15:04")

	return row.New(18).Add(
		col.New(7).Add(
			text.New(nonEmpty(slip.BranchName, slip.BranchCode), props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New("Sucursal: "+slip.BranchCode, props.Text{
				Size: 9, Top: 9, Color: colorGray,
			}),
		),
		col.New(5).Add(
			text.New("COMPROBANTE DE DISPENSACIÓN", props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Right,
				Color: colorPrimary, Top: 1,
			}),
			text.New(shortID(slip.HeaderID), props.Text{
				Style: fontstyle.Bold, Size: 12, Align: align.Right, Top: 7,
			}),
			text.New("Fecha: "+fecha, props.Text{
				Size: 8, Align: align.Right, Top: 14, Color: colorGray,
			}),
		),
	)
}

// patientRow: datos del paciente.
func patientRow(slip *repository.DispenseSlipResult) core.Row {
	return row.New(14).Add(
		col.New(12).Add(
			text.New("PACIENTE", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
			text.New(nonEmpty(slip.PatientName, "Sin nombre registrado"), props.Text{
				Style: fontstyle.Bold, Size: 10, Top: 6,
			}),
			text.New("Identificación: "+slip.PID, props.Text{
				Size: 8, Top: 12, Color: colorGray,
			}),
		),
	)
}

// pharmacistRow: usuario que registró la dispensación.
func pharmacistRow(slip *repository.DispenseSlipResult) core.Row {
	return row.New(12).Add(
		col.New(12).Add(
			text.New("DISPENSADO POR", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
			text.New(nonEmpty(slip.PharmacistName, "—"), props.Text{
				Size: 9, Top: 6,
			}),
		),
	)
}

// tableHeaderRow: cabecera de la tabla de líneas.
func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a,
			Color: colorWhite, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).WithStyle(&props.Cell{BackgroundColor: colorPrimary}).Add(
		h("#", 1, align.Center),
		h("Producto", 5, align.Left),
		h("Lote", 2, align.Left),
		h("Vence", 2, align.Center),
		h("Cant.", 1, align.Right),
		h("Unidad", 1, align.Left),
	)
}

// tableDetailRows: una fila por línea dispensada.
func tableDetailRows(lines []repository.DispenseSlipLine) []core.Row {
	result := make([]core.Row, 0, len(lines))
	for _, l := range lines {
		vence := "—"
		if l.ExpDate != nil {
			vence = l.ExpDate.Format("01/2006")
		}
		result = append(result, row.New(7).Add(
			col.New(1).Add(text.New(
				strconv.Itoa(l.LineNo),
				props.Text{Size: 8, Align: align.Center, Top: 1},
			)),
			col.New(5).Add(text.New(
				l.TradeName,
				props.Text{Size: 8, Align: align.Left, Top: 1, Left: 1},
			)),
			col.New(2).Add(text.New(
				nonEmpty(l.LotNo, "—"),
				props.Text{Size: 8, Align: align.Left, Top: 1, Left: 1},
			)),
			col.New(2).Add(text.New(
				vence,
				props.Text{Size: 8, Align: align.Center, Top: 1},
			)),
			col.New(1).Add(text.New(
				l.Quantity.String(),
				props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1},
			)),
			col.New(1).Add(text.New(
				l.UnitLabel,
				props.Text{Size: 8, Align: align.Left, Top: 1, Left: 1},
			)),
		))
	}
	return result
}

// footerRows: observación, código de barras del id y espacio de firma.
func footerRows(slip *repository.DispenseSlipResult) []core.Row {
	rows := []core.Row{}
	if slip.Note != "" {
		rows = append(rows,
			row.New(6).Add(col.New(12).Add(
				text.New("OBSERVACIÓN", props.Text{
					Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
				}),
			)),
			row.New(8).Add(col.New(12).Add(
				text.New(slip.Note, props.Text{Size: 8, Top: 1, Color: colorGray}),
			)),
		)
	}

	rows = append(rows, row.New(20).Add(
		col.New(6).Add(code.NewBar(slip.HeaderID, props.Barcode{
			Percent: 90,
		})),
		col.New(6).Add(
			text.New("_______________________________", props.Text{
				Size: 9, Align: align.Center, Top: 10,
			}),
			text.New("Firma de quien recibe", props.Text{
				Size: 8, Align: align.Center, Top: 15, Color: colorGray,
			}),
		),
	))
	return rows
}

// ── helpers ───────────────────────────────────────────────────────────────────

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

// shortID devuelve los primeros 8 caracteres del UUID, suficiente para identificar el comprobante en mostrador.
func shortID(id string) string {
	if len(id) > 8 {
		return "N° " + id[:8]
	}
	return "N° " + id
}

package xlsx

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// CatalogRow producto leído de la planilla de catálogo.
type CatalogRow struct {
	ProductCode string
	TradeName   string
	KYType      string
	BaseUnit    string // etiqueta de la unidad base (ej. "tableta")
}

// ReadCatalog lee la primera hoja: cabecera en la fila 1 con las columnas
// product_code, trade_name, ky_type (opcional) y base_unit, en cualquier orden.
// Las filas sin código se ignoran; un código repetido es error.
func ReadCatalog(r io.Reader) ([]CatalogRow, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("xlsx: abrir catálogo: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("xlsx: el libro no tiene hojas")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("xlsx: leer hoja %s: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("xlsx: hoja %s vacía", sheets[0])
	}

	idx := map[string]int{}
	for i, h := range rows[0] {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, required := range []string{"product_code", "trade_name", "base_unit"} {
		if _, ok := idx[required]; !ok {
			return nil, fmt.Errorf("xlsx: falta la columna %s", required)
		}
	}
	cell := func(row []string, name string) string {
		i, ok := idx[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	seen := map[string]int{}
	out := make([]CatalogRow, 0, len(rows)-1)
	for n, row := range rows[1:] {
		line := n + 2
		c := CatalogRow{
			ProductCode: cell(row, "product_code"),
			TradeName:   cell(row, "trade_name"),
			KYType:      cell(row, "ky_type"),
			BaseUnit:    cell(row, "base_unit"),
		}
		if c.ProductCode == "" {
			continue
		}
		if prev, dup := seen[c.ProductCode]; dup {
			return nil, fmt.Errorf("xlsx: fila %d: código %s repetido (fila %d)", line, c.ProductCode, prev)
		}
		if c.TradeName == "" || c.BaseUnit == "" {
			return nil, fmt.Errorf("xlsx: fila %d: trade_name y base_unit son obligatorios", line)
		}
		seen[c.ProductCode] = line
		out = append(out, c)
	}
	return out, nil
}

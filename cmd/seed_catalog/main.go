// seed_catalog genera una migración goose para poblar el catálogo mínimo que usa el motor de stock
// (productos, unidades globales y nivel base de cada producto) a partir de una planilla XLSX.
//
// Uso: go run ./cmd/seed_catalog [ruta/catalogo.xlsx]
// Por defecto busca catalogo.xlsx en el directorio actual.
// Columnas: product_code, trade_name, base_unit y opcionalmente ky_type.
// Escribe: internal/infrastructure/postgres/migrations/00003_seed_catalog.sql
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/jhoicas/farmacia-api/internal/domain/inventory"
	"github.com/jhoicas/farmacia-api/internal/infrastructure/xlsx"
)

// namespace fijo: los ids generados son estables entre ejecuciones.
var namespace = uuid.MustParse("6f1c8e34-2b1a-4c55-9d0e-5a7f3e1b9c20")

type unitSeed struct {
	code, label, kind string
}

func main() {
	xlsxPath := "catalogo.xlsx"
	if len(os.Args) > 1 {
		xlsxPath = os.Args[1]
	}
	f, err := os.Open(xlsxPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Abrir planilla: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	rows, err := xlsx.ReadCatalog(f)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Leer catálogo: %v\n", err)
		os.Exit(1)
	}

	// Unidades únicas por código normalizado
	units := make(map[string]unitSeed)
	baseUnit := make(map[string]string, len(rows))
	for _, r := range rows {
		code := inventory.NormalizeUnitCode(r.BaseUnit)
		if code == "" {
			fmt.Fprintf(os.Stderr, "Producto %s: unidad base inválida %q\n", r.ProductCode, r.BaseUnit)
			os.Exit(1)
		}
		if _, ok := units[code]; !ok {
			units[code] = unitSeed{code: code, label: r.BaseUnit, kind: inventory.UnitKindFromCode(code)}
		}
		baseUnit[r.ProductCode] = code
	}
	var unitCodes []string
	for c := range units {
		unitCodes = append(unitCodes, c)
	}
	sort.Strings(unitCodes)

	moduleRoot := findModuleRoot()
	outPath := filepath.Join(moduleRoot, "internal", "infrastructure", "postgres", "migrations", "00003_seed_catalog.sql")
	out, err := os.Create(outPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Crear archivo: %v\n", err)
		os.Exit(1)
	}
	defer out.Close()

	out.WriteString("-- +goose Up\n")
	fmt.Fprintf(out, "-- Catálogo generado desde %s\n\n", filepath.Base(xlsxPath))

	out.WriteString("-- 1. Unidades globales\n")
	for _, c := range unitCodes {
		u := units[c]
		fmt.Fprintf(out, "INSERT INTO unit_types (id, code, name, unit_kind, symbol) VALUES ('%s', '%s', '%s', '%s', '%s')\n",
			stableID("unit:"+u.code), u.code, escapeSQL(u.label), u.kind, escapeSQL(u.label))
		out.WriteString("ON CONFLICT (code) DO NOTHING;\n")
	}

	out.WriteString("\n-- 2. Productos\n")
	for _, r := range rows {
		fmt.Fprintf(out, "INSERT INTO products (id, product_code, trade_name, ky_type) VALUES ('%s', '%s', '%s', %s)\n",
			stableID("product:"+r.ProductCode), escapeSQL(r.ProductCode), escapeSQL(r.TradeName), nullableSQL(r.KYType))
		out.WriteString("ON CONFLICT (product_code) DO UPDATE SET trade_name = EXCLUDED.trade_name, ky_type = EXCLUDED.ky_type;\n")
	}

	// 3. Nivel base: solo si el producto todavía no tiene uno
	out.WriteString("\n-- 3. Nivel base de cada producto\n")
	for _, r := range rows {
		code := baseUnit[r.ProductCode]
		fmt.Fprintf(out, "INSERT INTO product_unit_levels (id, product_id, code, display_name, unit_type_id, is_base, is_sellable, sort_order)\n")
		fmt.Fprintf(out, "SELECT '%s', p.id, '%s', '%s', u.id, TRUE, TRUE, 1\n",
			stableID("level:"+r.ProductCode+":"+code), code, escapeSQL(r.BaseUnit))
		fmt.Fprintf(out, "FROM products p, unit_types u WHERE p.product_code = '%s' AND u.code = '%s'\n", escapeSQL(r.ProductCode), code)
		out.WriteString("  AND NOT EXISTS (SELECT 1 FROM product_unit_levels l WHERE l.product_id = p.id AND l.is_base)\n")
		out.WriteString("ON CONFLICT (product_id, code) DO NOTHING;\n")
	}

	out.WriteString("\n-- +goose Down\n")
	out.WriteString("-- Los productos pueden tener movimientos: la reversión es manual.\n")
	out.WriteString("SELECT 1;\n")

	fmt.Printf("Generado %s: %d unidades, %d productos\n", outPath, len(unitCodes), len(rows))
}

func stableID(key string) string {
	return uuid.NewSHA1(namespace, []byte(key)).String()
}

func nullableSQL(s string) string {
	if strings.TrimSpace(s) == "" {
		return "NULL"
	}
	return "'" + escapeSQL(s) + "'"
}

func escapeSQL(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

func findModuleRoot() string {
	dir, _ := os.Getwd()
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return dir
		}
		dir = parent
	}
}

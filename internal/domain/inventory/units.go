package inventory

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/width"

	"github.com/jhoicas/farmacia-api/internal/domain/entity"
)

// NormalizeUnitCode convierte una etiqueta libre ("Box", "ｂｏｘ", "10 x 10 tab") en código de unidad:
// ancho normalizado, mayúsculas, corridas no alfanuméricas → "_", sin "_" en los extremos.
// Devuelve "" si la etiqueta no tiene ningún carácter alfanumérico ASCII.
func NormalizeUnitCode(label string) string {
	s := cases.Upper(language.Und).String(width.Fold.String(strings.TrimSpace(label)))
	var b strings.Builder
	b.Grow(len(s))
	pendingSep := false
	for _, r := range s {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(r)
			continue
		}
		pendingSep = true
	}
	return b.String()
}

// UnitKindFromCode clasifica un código de unidad normalizado.
func UnitKindFromCode(code string) string {
	switch code {
	case "MG", "MCG", "G":
		return entity.UnitKindMass
	case "ML", "L":
		return entity.UnitKindVolume
	case "TABLET", "CAPSULE", "TAB", "CAP", "INHALATION":
		return entity.UnitKindCount
	}
	return entity.UnitKindPackage
}

package inventory

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/farmacia-api/internal/domain"
)

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTimestamp interpreta un instante; vacío devuelve fallback.
func ParseTimestamp(field, raw string, fallback time.Time) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %s no es una fecha válida: %q", domain.ErrInvalidInput, field, raw)
}

// ParseOptionalDate interpreta una fecha de calendario; vacío devuelve nil.
func ParseOptionalDate(field, raw string) (*time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	t, err := ParseTimestamp(field, raw, time.Time{})
	if err != nil {
		return nil, err
	}
	d := truncateDate(t)
	return &d, nil
}

func requirePositive(field string, q decimal.Decimal) error {
	if !q.IsPositive() {
		return fmt.Errorf("%w: %s debe ser un número positivo", domain.ErrInvalidInput, field)
	}
	return nil
}

func requireText(field, v string) error {
	if strings.TrimSpace(v) == "" {
		return fmt.Errorf("%w: %s requerido", domain.ErrInvalidInput, field)
	}
	return nil
}

package metrics_test

import (
	"errors"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/farmacia-api/internal/domain"
	"github.com/jhoicas/farmacia-api/internal/infrastructure/metrics"
)

func TestOutcome(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{nil, "ok"},
		{fmt.Errorf("%w: items[0]", domain.ErrInsufficientStock), "insufficient_stock"},
		{fmt.Errorf("%w: qty", domain.ErrInvalidInput), "invalid"},
		{domain.ErrNotFound, "not_found"},
		{domain.ErrInactive, "forbidden"},
		{domain.ErrForbidden, "forbidden"},
		{domain.ErrBusy, "busy"},
		{domain.ErrDuplicate, "conflict"},
		{errors.New("boom"), "error"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, metrics.Outcome(c.err))
	}
}

func TestPrometheus_CountsOperationsAndMovements(t *testing.T) {
	p := metrics.NewPrometheus()

	p.ObserveOperation("Dispense", nil, 10*time.Millisecond)
	p.ObserveOperation("Dispense", domain.ErrInsufficientStock, time.Millisecond)
	p.MovementsWritten("TRANSFER_OUT", 2)
	p.MovementsWritten("TRANSFER_OUT", 0)

	rec := httptest.NewRecorder()
	p.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body := rec.Body.String()

	assert.Contains(t, body, `farmacia_inventory_operations_total{operation="Dispense",outcome="ok"} 1`)
	assert.Contains(t, body, `farmacia_inventory_operations_total{operation="Dispense",outcome="insufficient_stock"} 1`)
	assert.Contains(t, body, `farmacia_inventory_movements_written_total{movement_type="TRANSFER_OUT"} 2`)

	assert.Contains(t, body, `farmacia_inventory_operation_duration_seconds_count{operation="Dispense"} 2`)
	assert.True(t, strings.Contains(body, "go_goroutines"))

	families, err := p.Registry().Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

// Package metrics expone los contadores del libro de stock en formato Prometheus.
package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jhoicas/farmacia-api/internal/domain"
)

// Prometheus implementa inventory.Metrics sobre un registro propio.
type Prometheus struct {
	registry   *prometheus.Registry
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	movements  *prometheus.CounterVec
}

// NewPrometheus registra los colectores del servicio más los de proceso y runtime de Go.
func NewPrometheus() *Prometheus {
	reg := prometheus.NewRegistry()
	p := &Prometheus{
		registry: reg,
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "farmacia",
			Subsystem: "inventory",
			Name:      "operations_total",
			Help:      "Operaciones del libro de stock por resultado.",
		}, []string{"operation", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "farmacia",
			Subsystem: "inventory",
			Name:      "operation_duration_seconds",
			Help:      "Duración de las operaciones del libro de stock.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		movements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "farmacia",
			Subsystem: "inventory",
			Name:      "movements_written_total",
			Help:      "Movimientos confirmados en el libro por tipo.",
		}, []string{"movement_type"}),
	}
	reg.MustRegister(
		p.operations, p.duration, p.movements,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return p
}

// ObserveOperation cuenta la operación con su resultado y registra su duración.
func (p *Prometheus) ObserveOperation(operation string, err error, elapsed time.Duration) {
	p.operations.WithLabelValues(operation, Outcome(err)).Inc()
	p.duration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// MovementsWritten suma n movimientos confirmados del tipo dado.
func (p *Prometheus) MovementsWritten(movementType string, n int) {
	if n <= 0 {
		return
	}
	p.movements.WithLabelValues(movementType).Add(float64(n))
}

// Handler devuelve el handler HTTP de /metrics.
func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{Registry: p.registry})
}

// Registry expone el registro (tests).
func (p *Prometheus) Registry() *prometheus.Registry { return p.registry }

// Outcome clasifica un error en una etiqueta de baja cardinalidad.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, domain.ErrInvalidInput):
		return "invalid"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrInactive), errors.Is(err, domain.ErrForbidden):
		return "forbidden"
	case errors.Is(err, domain.ErrBusy):
		return "busy"
	case errors.Is(err, domain.ErrDuplicate), errors.Is(err, domain.ErrConflict):
		return "conflict"
	default:
		return "error"
	}
}

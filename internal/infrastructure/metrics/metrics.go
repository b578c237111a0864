package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nerrad567/gray-logic-bus/internal/bus"
	"github.com/nerrad567/gray-logic-bus/internal/grid"
	"github.com/nerrad567/gray-logic-bus/internal/rpc"
)

// Invocation outcomes.
const (
	OutcomeOK               = "ok"
	OutcomeUnknownMethod    = "unknown_method"
	OutcomeInvalidArgument  = "invalid_argument"
	OutcomeInvocationFailed = "invocation_failed"
	OutcomeDeviceNotFound   = "device_not_found"
	OutcomeTimeout          = "timeout"
	OutcomeError            = "error"
)

// Collector holds the bus metrics.
type Collector struct {
	gatherer prometheus.Gatherer

	Scans        *prometheus.CounterVec
	ScanDuration prometheus.Histogram
	Devices      *prometheus.GaugeVec
	Energy       *prometheus.GaugeVec
	Invocations  *prometheus.CounterVec
}

// NewCollector registers the bus metrics against reg, or the default
// registerer when reg is nil.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	scans, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bus_scans_total",
		Help: "Committed bus scans by resulting controller state.",
	}, []string{"state"}))
	if err != nil {
		return nil, err
	}

	duration, err := register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "bus_scan_duration_seconds",
		Help:    "Duration of one bus scan.",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
	}))
	if err != nil {
		return nil, err
	}

	devices, err := register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "bus_discovered_devices",
		Help: "Devices reachable from a controller after its latest scan.",
	}, []string{"controller"}))
	if err != nil {
		return nil, err
	}

	energy, err := register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "bus_energy_consumption",
		Help: "Per-tick energy drawn by the bus of a controller.",
	}, []string{"controller"}))
	if err != nil {
		return nil, err
	}

	invocations, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bus_rpc_invocations_total",
		Help: "Remote method invocations by method and outcome.",
	}, []string{"method", "outcome"}))
	if err != nil {
		return nil, err
	}

	return &Collector{
		gatherer:     gatherer,
		Scans:        scans,
		ScanDuration: duration,
		Devices:      devices,
		Energy:       energy,
		Invocations:  invocations,
	}, nil
}

// Handler serves the collector's registry.
func (c *Collector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// ScanCompleted implements bus.ScanObserver.
func (c *Collector) ScanCompleted(controller grid.Pos, result *bus.ScanResult, took time.Duration) {
	if c == nil || result == nil {
		return
	}
	label := controller.Key()
	c.Scans.WithLabelValues(string(result.State)).Inc()
	c.ScanDuration.Observe(took.Seconds())

	if result.State == bus.StateRemoved {
		c.Devices.DeleteLabelValues(label)
		c.Energy.DeleteLabelValues(label)
		return
	}
	c.Devices.WithLabelValues(label).Set(float64(len(result.Devices)))
	c.Energy.WithLabelValues(label).Set(result.Energy)
}

// ObserveInvocation counts one remote call of method that returned err.
func (c *Collector) ObserveInvocation(method string, err error) {
	if c == nil {
		return
	}
	c.Invocations.WithLabelValues(method, Outcome(err)).Inc()
}

// Outcome classifies an invocation error.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, rpc.ErrUnknownMethod):
		return OutcomeUnknownMethod
	case errors.Is(err, rpc.ErrInvalidArgument):
		return OutcomeInvalidArgument
	case errors.Is(err, rpc.ErrInvocationFailed):
		return OutcomeInvocationFailed
	case errors.Is(err, bus.ErrDeviceNotFound):
		return OutcomeDeviceNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return OutcomeTimeout
	default:
		return OutcomeError
	}
}

func register[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
			var zero T
			return zero, fmt.Errorf("metrics: collector already registered with an incompatible type: %w", err)
		}
		var zero T
		return zero, fmt.Errorf("metrics: registering collector: %w", err)
	}
	return c, nil
}

var _ bus.ScanObserver = (*Collector)(nil)

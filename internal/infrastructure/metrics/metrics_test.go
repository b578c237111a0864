package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/nerrad567/gray-logic-bus/internal/bus"
	"github.com/nerrad567/gray-logic-bus/internal/grid"
	"github.com/nerrad567/gray-logic-bus/internal/rpc"
)

func newTestCollector(t *testing.T) (*Collector, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	c, err := NewCollector(reg)
	if err != nil {
		t.Fatalf("NewCollector: %v", err)
	}
	return c, reg
}

func TestCollector_ScanCompleted(t *testing.T) {
	c, _ := newTestCollector(t)
	pos := grid.Pos{X: 1, Y: 2, Z: 3}

	c.ScanCompleted(pos, &bus.ScanResult{
		State:   bus.StateReady,
		Devices: make([]bus.DiscoveredDevice, 3),
		Energy:  1.5,
	}, 2*time.Millisecond)
	c.ScanCompleted(pos, &bus.ScanResult{State: bus.StateTooComplex}, time.Millisecond)

	if got := testutil.ToFloat64(c.Scans.WithLabelValues("ready")); got != 1 {
		t.Errorf("bus_scans_total{ready} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.Scans.WithLabelValues("too_complex")); got != 1 {
		t.Errorf("bus_scans_total{too_complex} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.Devices.WithLabelValues("1_2_3")); got != 0 {
		t.Errorf("bus_discovered_devices = %v, want 0 after the too-complex scan", got)
	}
	if got := testutil.CollectAndCount(c.ScanDuration); got != 1 {
		t.Errorf("histogram series = %d, want 1", got)
	}
}

func TestCollector_RemovedControllerDropsSeries(t *testing.T) {
	c, _ := newTestCollector(t)
	pos := grid.Pos{}

	c.ScanCompleted(pos, &bus.ScanResult{State: bus.StateReady, Energy: 2}, 0)
	if got := testutil.CollectAndCount(c.Energy); got != 1 {
		t.Fatalf("energy series = %d, want 1", got)
	}
	c.ScanCompleted(pos, &bus.ScanResult{State: bus.StateRemoved}, 0)
	if got := testutil.CollectAndCount(c.Energy); got != 0 {
		t.Errorf("energy series after removal = %d, want 0", got)
	}
}

func TestOutcome(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, OutcomeOK},
		{fmt.Errorf("x: %w", rpc.ErrUnknownMethod), OutcomeUnknownMethod},
		{fmt.Errorf("x: %w", rpc.ErrInvalidArgument), OutcomeInvalidArgument},
		{fmt.Errorf("x: %w", rpc.ErrInvocationFailed), OutcomeInvocationFailed},
		{bus.ErrDeviceNotFound, OutcomeDeviceNotFound},
		{context.DeadlineExceeded, OutcomeTimeout},
		{errors.New("boom"), OutcomeError},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := Outcome(tt.err); got != tt.want {
				t.Errorf("Outcome(%v) = %q, want %q", tt.err, got, tt.want)
			}
		})
	}
}

func TestCollector_ObserveInvocation(t *testing.T) {
	c, _ := newTestCollector(t)
	c.ObserveInvocation("setRedstoneOutput", nil)
	c.ObserveInvocation("setRedstoneOutput", nil)
	c.ObserveInvocation("setRedstoneOutput", rpc.ErrInvalidArgument)

	if got := testutil.ToFloat64(c.Invocations.WithLabelValues("setRedstoneOutput", OutcomeOK)); got != 2 {
		t.Errorf("ok count = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.Invocations.WithLabelValues("setRedstoneOutput", OutcomeInvalidArgument)); got != 1 {
		t.Errorf("invalid_argument count = %v, want 1", got)
	}

	var nilCollector *Collector
	nilCollector.ObserveInvocation("x", nil)
	nilCollector.ScanCompleted(grid.Pos{}, &bus.ScanResult{}, 0)
}

func TestNewCollector_ReusesRegistered(t *testing.T) {
	c1, reg := newTestCollector(t)
	c2, err := NewCollector(reg)
	if err != nil {
		t.Fatalf("second NewCollector: %v", err)
	}
	c1.ObserveInvocation("m", nil)
	if got := testutil.ToFloat64(c2.Invocations.WithLabelValues("m", OutcomeOK)); got != 1 {
		t.Errorf("shared counter = %v, want 1", got)
	}
}

func TestCollector_Handler(t *testing.T) {
	c, _ := newTestCollector(t)
	c.ScanCompleted(grid.Pos{}, &bus.ScanResult{State: bus.StateReady}, 0)

	rr := httptest.NewRecorder()
	c.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `bus_scans_total{state="ready"} 1`) {
		t.Errorf("body missing scan counter:\n%s", rr.Body.String())
	}
}

package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/nerrad567/gray-logic-bus/internal/bus"
	"github.com/nerrad567/gray-logic-bus/internal/grid"
)

// Measurement names.
const (
	MeasurementScan       = "bus_scan"
	MeasurementInvocation = "bus_invocation"
)

// ScanCompleted implements bus.ScanObserver.
func (c *Client) ScanCompleted(controller grid.Pos, result *bus.ScanResult, took time.Duration) {
	c.WriteScan(controller, result, took)
}

// WriteScan records one committed scan of the controller at pos.
func (c *Client) WriteScan(controller grid.Pos, result *bus.ScanResult, took time.Duration) {
	if !c.IsConnected() || result == nil {
		return
	}
	ts := result.ScannedAt
	if ts.IsZero() {
		ts = c.now()
	}
	c.writeAPI.WritePoint(scanPoint(controller, result, took, ts))
}

// WriteInvocation records one remote method call.
func (c *Client) WriteInvocation(method, outcome string, took time.Duration) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(write.NewPoint(
		MeasurementInvocation,
		map[string]string{"method": method, "outcome": outcome},
		map[string]any{"duration_ms": float64(took) / float64(time.Millisecond)},
		c.now(),
	))
}

// WritePoint writes a custom point stamped with the current time.
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]any) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(write.NewPoint(measurement, tags, fields, c.now()))
}

func scanPoint(controller grid.Pos, result *bus.ScanResult, took time.Duration, ts time.Time) *write.Point {
	return write.NewPoint(
		MeasurementScan,
		map[string]string{
			"controller": controller.Key(),
			"state":      string(result.State),
		},
		map[string]any{
			"devices":     len(result.Devices),
			"elements":    len(result.Elements),
			"energy":      result.Energy,
			"generation":  int64(result.Generation), //nolint:gosec // generations stay far below MaxInt64
			"duration_ms": float64(took) / float64(time.Millisecond),
		},
		ts,
	)
}

var _ bus.ScanObserver = (*Client)(nil)

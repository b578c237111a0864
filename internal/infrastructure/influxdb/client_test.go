package influxdb

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/nerrad567/gray-logic-bus/internal/bus"
	"github.com/nerrad567/gray-logic-bus/internal/grid"
	"github.com/nerrad567/gray-logic-bus/internal/infrastructure/config"
)

// fakeInflux answers ping and records line protocol writes.
type fakeInflux struct {
	mu     sync.Mutex
	lines  []string
	writes int
}

func (f *fakeInflux) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/ping":
		w.WriteHeader(http.StatusNoContent)
	case "/api/v2/write":
		body, _ := io.ReadAll(r.Body) //nolint:errcheck // test server
		f.mu.Lock()
		f.writes++
		for _, line := range strings.Split(strings.TrimSpace(string(body)), "\n") {
			f.lines = append(f.lines, line)
		}
		f.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	default:
		http.NotFound(w, r)
	}
}

func (f *fakeInflux) Lines() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.lines...)
}

func testConfig(url string) config.InfluxDBConfig {
	return config.InfluxDBConfig{
		Enabled:       true,
		URL:           url,
		Token:         "test-token",
		Org:           "graylogic",
		Bucket:        "bus",
		BatchSize:     100,
		FlushInterval: 60,
	}
}

func connectFake(t *testing.T) (*Client, *fakeInflux) {
	t.Helper()
	fake := &fakeInflux{}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	client, err := Connect(testConfig(srv.URL))
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	t.Cleanup(func() { client.Close() }) //nolint:errcheck // test cleanup
	return client, fake
}

func TestConnect_Disabled(t *testing.T) {
	cfg := testConfig("http://127.0.0.1:8086")
	cfg.Enabled = false

	if _, err := Connect(cfg); !errors.Is(err, ErrDisabled) {
		t.Errorf("Connect() error = %v, want ErrDisabled", err)
	}
}

func TestConnect_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	if _, err := Connect(testConfig(url)); !errors.Is(err, ErrConnectionFailed) {
		t.Errorf("Connect() error = %v, want ErrConnectionFailed", err)
	}
}

func TestClient_HealthCheck(t *testing.T) {
	client, _ := connectFake(t)

	if err := client.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}

	client.Close() //nolint:errcheck // closing twice is safe
	if err := client.HealthCheck(context.Background()); !errors.Is(err, ErrNotConnected) {
		t.Errorf("HealthCheck() after Close error = %v, want ErrNotConnected", err)
	}
}

func TestClient_WriteScan(t *testing.T) {
	client, fake := connectFake(t)

	result := &bus.ScanResult{
		State:     bus.StateReady,
		Devices:   make([]bus.DiscoveredDevice, 2),
		Elements:  []grid.Pos{{}, {X: 1}, {X: 2}},
		Energy:    1.1,
		ScannedAt: time.Unix(1700000000, 0),
	}
	var observer bus.ScanObserver = client
	observer.ScanCompleted(grid.Pos{X: 1, Y: 2, Z: 3}, result, 3*time.Millisecond)
	client.WriteInvocation("setRedstoneOutput", "ok", time.Millisecond)
	client.Flush()

	lines := fake.Lines()
	if len(lines) != 2 {
		t.Fatalf("wrote %d lines, want 2: %v", len(lines), lines)
	}
	if !strings.HasPrefix(lines[0], "bus_scan,controller=1_2_3,state=ready ") {
		t.Errorf("scan line = %q", lines[0])
	}
	if !strings.Contains(lines[0], "devices=2i") || !strings.Contains(lines[0], "elements=3i") {
		t.Errorf("scan line fields = %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "bus_invocation,method=setRedstoneOutput,outcome=ok ") {
		t.Errorf("invocation line = %q", lines[1])
	}
}

func TestClient_WritesDroppedAfterClose(t *testing.T) {
	client, fake := connectFake(t)
	client.Close() //nolint:errcheck // test

	client.WriteScan(grid.Pos{}, &bus.ScanResult{State: bus.StateReady}, 0)
	client.WritePoint("custom", nil, map[string]any{"v": 1})
	client.Flush()

	if lines := fake.Lines(); len(lines) != 0 {
		t.Errorf("wrote %v after Close", lines)
	}
}

func TestScanPoint(t *testing.T) {
	ts := time.Unix(10, 0)
	p := scanPoint(grid.Pos{X: -1}, &bus.ScanResult{
		State:      bus.StateTooComplex,
		Energy:     0,
		Generation: 4,
	}, 1500*time.Microsecond, ts)

	line := write.PointToLineProtocol(p, time.Second)
	want := []string{
		"bus_scan,controller=-1_0_0,state=too_complex ",
		"devices=0i",
		"generation=4i",
		"duration_ms=1.5",
	}
	if !strings.HasSuffix(strings.TrimSpace(line), " 10") {
		t.Errorf("line %q not stamped with the scan time", line)
	}
	for _, w := range want {
		if !strings.Contains(line, w) {
			t.Errorf("line %q missing %q", line, w)
		}
	}
}

func TestClient_NilSafe(t *testing.T) {
	var c *Client
	if c.IsConnected() {
		t.Error("nil client reports connected")
	}
	if err := c.Close(); err != nil {
		t.Errorf("Close() on nil client = %v", err)
	}
}

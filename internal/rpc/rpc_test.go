package rpc

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/nerrad567/gray-logic-bus/internal/grid"
)

type dimmer struct {
	levels [grid.FaceCount]int
	label  string
}

func (d *dimmer) Callbacks() []Callback {
	return []Callback{
		{Method: "SetLevel", Params: []string{"side", "value"}},
		{Method: "GetLevel", Params: []string{"side"}, Async: true},
		{Method: "Rename", Name: "setLabel", Params: []string{"label"}},
		{Method: "Explode"},
		{Method: "Fail", Params: []string{"reason"}},
		{Method: "Deadline"},
		{Method: "Pair"},
	}
}

func (d *dimmer) DeviceTypeNames() []string {
	return []string{"dimmer", "light"}
}

func (d *dimmer) DocumentDevice(v DeviceVisitor) {
	v.VisitCallback("setLevel").
		Description("Sets the level on a side.").
		ParameterDescription("side", "the side").
		ParameterDescription("value", "the level, clamped to 0..15")
	v.VisitCallback("getLevel").
		Description("Gets the level on a side.").
		ReturnValueDescription("the level")
}

func (d *dimmer) SetLevel(side *grid.Direction, value int) error {
	if side == nil {
		return fmt.Errorf("%w: side is required", ErrInvalidArgument)
	}
	d.levels[*side] = max(0, min(15, value))
	return nil
}

func (d *dimmer) GetLevel(side grid.Direction) int {
	return d.levels[side]
}

func (d *dimmer) Rename(label *string) {
	if label == nil {
		d.label = ""
		return
	}
	d.label = *label
}

func (d *dimmer) Explode() {
	panic("boom")
}

func (d *dimmer) Fail(reason string) error {
	return errors.New(reason)
}

func (d *dimmer) Deadline(ctx context.Context) bool {
	_, ok := ctx.Deadline()
	return ok
}

func (d *dimmer) Pair() (int, string) {
	return 1, "two"
}

type countingExecutor struct {
	calls int
}

func (e *countingExecutor) Execute(ctx context.Context, fn func()) error {
	e.calls++
	fn()
	return nil
}

func TestBindMethods(t *testing.T) {
	b := NewBinder(8)
	methods, err := b.BindMethods(&dimmer{})
	if err != nil {
		t.Fatalf("BindMethods() error: %v", err)
	}

	var names []string
	for _, m := range methods {
		names = append(names, m.Name())
	}
	want := []string{"setLevel", "getLevel", "setLabel", "explode", "fail", "deadline", "pair"}
	if !reflect.DeepEqual(names, want) {
		t.Fatalf("method names = %v, want %v", names, want)
	}

	set := methods[0]
	if !set.Synchronize() {
		t.Error("setLevel should synchronize by default")
	}
	if methods[1].Synchronize() {
		t.Error("getLevel is async and should not synchronize")
	}
	params := set.Parameters()
	if len(params) != 2 {
		t.Fatalf("setLevel has %d parameters, want 2", len(params))
	}
	if params[0].Name != "side" || params[0].Type != "side" || !params[0].Nullable {
		t.Errorf("side parameter = %+v", params[0])
	}
	if params[1].Name != "value" || params[1].Type != "int" || params[1].Nullable {
		t.Errorf("value parameter = %+v", params[1])
	}
}

func TestBindMethodsCachesPerType(t *testing.T) {
	b := NewBinder(8)
	for i := 0; i < 3; i++ {
		if _, err := b.BindMethods(&dimmer{}); err != nil {
			t.Fatalf("BindMethods() error: %v", err)
		}
	}
	if got := b.CachedTypes(); got != 1 {
		t.Errorf("CachedTypes() = %d, want 1", got)
	}
}

type badHost struct{}

func (badHost) Callbacks() []Callback {
	return []Callback{
		{Method: "Do", Params: []string{"x"}},
		{Method: "Do", Name: "do", Params: []string{"x"}},
		{Method: "Other", Params: []string{"not a tag"}},
		{Method: "Missing"},
		{Method: "Do", Name: "arity"},
	}
}

func (badHost) Do(x int)       {}
func (badHost) Other(y string) {}

func TestBindMethodsConfigurationErrors(t *testing.T) {
	_, err := NewBinder(8).BindMethods(badHost{})
	if err == nil {
		t.Fatal("BindMethods() expected error")
	}
	for _, target := range []error{ErrDuplicateMethod, ErrInvalidParameterTag, ErrInvalidCallback} {
		if !errors.Is(err, target) {
			t.Errorf("error %v does not wrap %v", err, target)
		}
	}

	if _, err := Wrap(badHost{}); err == nil {
		t.Error("Wrap() should refuse a host with invalid callbacks")
	}
}

type repeatedTag struct{}

func (repeatedTag) Callbacks() []Callback {
	return []Callback{{Method: "Move", Params: []string{"a", "a"}}}
}

func (repeatedTag) Move(a, b int) {}

func TestBindMethodsRepeatedTag(t *testing.T) {
	_, err := NewBinder(8).BindMethods(repeatedTag{})
	if !errors.Is(err, ErrInvalidParameterTag) {
		t.Errorf("BindMethods() error = %v, want ErrInvalidParameterTag", err)
	}
}

type namedKind interface {
	ArgumentTypeName() string
	Kind() int
}

type interfaceParam struct{}

func (interfaceParam) Callbacks() []Callback {
	return []Callback{{Method: "Accept", Params: []string{"kind"}}}
}

func (interfaceParam) Accept(k namedKind) {}

func TestBindMethodsTypedInterfaceParameter(t *testing.T) {
	_, err := NewBinder(8).BindMethods(interfaceParam{})
	if !errors.Is(err, ErrInvalidCallback) {
		t.Errorf("BindMethods() error = %v, want ErrInvalidCallback", err)
	}
}

func TestInvoke(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		method  string
		args    map[string]any
		wantErr error
		check   func(t *testing.T, d *dimmer, res Result)
	}{
		{
			name:   "clamps out of range value",
			method: "setLevel",
			args:   map[string]any{"side": float64(2), "value": float64(20)},
			check: func(t *testing.T, d *dimmer, _ Result) {
				if d.levels[grid.North] != 15 {
					t.Errorf("level = %d, want 15", d.levels[grid.North])
				}
			},
		},
		{
			name:   "side by name",
			method: "setLevel",
			args:   map[string]any{"side": "east", "value": 7},
			check: func(t *testing.T, d *dimmer, _ Result) {
				if d.levels[grid.East] != 7 {
					t.Errorf("level = %d, want 7", d.levels[grid.East])
				}
			},
		},
		{
			name:    "null nullable parameter reaches the body",
			method:  "setLevel",
			args:    map[string]any{"side": nil, "value": 1},
			wantErr: ErrInvalidArgument,
		},
		{
			name:   "absent nullable parameter is accepted",
			method: "setLabel",
			args:   map[string]any{},
			check: func(t *testing.T, d *dimmer, _ Result) {
				if d.label != "" {
					t.Errorf("label = %q, want empty", d.label)
				}
			},
		},
		{
			name:    "missing required parameter",
			method:  "getLevel",
			args:    map[string]any{},
			wantErr: ErrInvalidArgument,
		},
		{
			name:    "fractional integer",
			method:  "setLevel",
			args:    map[string]any{"side": 1, "value": 2.5},
			wantErr: ErrInvalidArgument,
		},
		{
			name:    "side out of range",
			method:  "getLevel",
			args:    map[string]any{"side": 9},
			wantErr: ErrInvalidArgument,
		},
		{
			name:    "wrong type",
			method:  "setLabel",
			args:    map[string]any{"label": true},
			wantErr: ErrInvalidArgument,
		},
		{
			name:    "unexpected parameter",
			method:  "getLevel",
			args:    map[string]any{"side": 1, "colour": "red"},
			wantErr: ErrInvalidArgument,
		},
		{
			name:    "unknown method",
			method:  "selfDestruct",
			wantErr: ErrUnknownMethod,
		},
		{
			name:    "panic is recovered",
			method:  "explode",
			wantErr: ErrInvocationFailed,
		},
		{
			name:    "returned error",
			method:  "fail",
			args:    map[string]any{"reason": "jammed"},
			wantErr: ErrInvocationFailed,
		},
		{
			name:   "multiple results",
			method: "pair",
			check: func(t *testing.T, _ *dimmer, res Result) {
				want := []any{1, "two"}
				if !reflect.DeepEqual(res.Value(), want) {
					t.Errorf("Value() = %v, want %v", res.Value(), want)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			host := &dimmer{}
			dev, err := Wrap(host)
			if err != nil {
				t.Fatalf("Wrap() error: %v", err)
			}
			res, err := dev.Invoke(ctx, DirectExecutor{}, tt.method, tt.args)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Invoke() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Invoke() unexpected error: %v", err)
			}
			if tt.check != nil {
				tt.check(t, host, res)
			}
		})
	}
}

type mixer struct {
	offsets []*int
	levels  []int
	weights map[string]int
}

func (m *mixer) Callbacks() []Callback {
	return []Callback{
		{Method: "SetOffsets", Params: []string{"values"}},
		{Method: "SetLevels", Params: []string{"values"}},
		{Method: "SetWeights", Params: []string{"weights"}},
	}
}

func (m *mixer) SetOffsets(values []*int)          { m.offsets = values }
func (m *mixer) SetLevels(values []int)            { m.levels = values }
func (m *mixer) SetWeights(weights map[string]int) { m.weights = weights }

func TestInvokeNestedNull(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		method  string
		args    map[string]any
		wantErr error
		check   func(t *testing.T, m *mixer)
	}{
		{
			name:   "null pointer element becomes nil",
			method: "setOffsets",
			args:   map[string]any{"values": []any{1.0, nil}},
			check: func(t *testing.T, m *mixer) {
				if len(m.offsets) != 2 {
					t.Fatalf("len(offsets) = %d, want 2", len(m.offsets))
				}
				if m.offsets[0] == nil || *m.offsets[0] != 1 {
					t.Errorf("offsets[0] = %v, want 1", m.offsets[0])
				}
				if m.offsets[1] != nil {
					t.Errorf("offsets[1] = %v, want nil", *m.offsets[1])
				}
			},
		},
		{
			name:    "null int element",
			method:  "setLevels",
			args:    map[string]any{"values": []any{1.0, nil}},
			wantErr: ErrInvalidArgument,
		},
		{
			name:    "null map value",
			method:  "setWeights",
			args:    map[string]any{"weights": map[string]any{"k": nil}},
			wantErr: ErrInvalidArgument,
		},
		{
			name:   "plain map",
			method: "setWeights",
			args:   map[string]any{"weights": map[string]any{"k": 3.0}},
			check: func(t *testing.T, m *mixer) {
				if m.weights["k"] != 3 {
					t.Errorf("weights[k] = %d, want 3", m.weights["k"])
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			host := &mixer{}
			dev, err := Wrap(host)
			if err != nil {
				t.Fatalf("Wrap() error: %v", err)
			}
			_, err = dev.Invoke(ctx, DirectExecutor{}, tt.method, tt.args)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Invoke() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Invoke() unexpected error: %v", err)
			}
			if tt.check != nil {
				tt.check(t, host)
			}
		})
	}
}

func TestInvokeSynchronizeRouting(t *testing.T) {
	host := &dimmer{}
	dev, err := Wrap(host)
	if err != nil {
		t.Fatalf("Wrap() error: %v", err)
	}
	exec := &countingExecutor{}
	ctx := context.Background()

	if _, err := dev.Invoke(ctx, exec, "setLevel", map[string]any{"side": 0, "value": 3}); err != nil {
		t.Fatalf("setLevel: %v", err)
	}
	if exec.calls != 1 {
		t.Errorf("executor calls after setLevel = %d, want 1", exec.calls)
	}

	res, err := dev.Invoke(ctx, exec, "getLevel", map[string]any{"side": "down"})
	if err != nil {
		t.Fatalf("getLevel: %v", err)
	}
	if exec.calls != 1 {
		t.Errorf("async getLevel went through the executor")
	}
	if res.Value() != 3 {
		t.Errorf("getLevel = %v, want 3", res.Value())
	}
}

type stoppedExecutor struct{}

func (stoppedExecutor) Execute(ctx context.Context, fn func()) error {
	return errors.New("loop stopped")
}

func TestInvokeExecutorFailure(t *testing.T) {
	dev, err := Wrap(&dimmer{})
	if err != nil {
		t.Fatalf("Wrap() error: %v", err)
	}
	_, err = dev.Invoke(context.Background(), stoppedExecutor{}, "setLevel", map[string]any{"side": 0, "value": 1})
	if !errors.Is(err, ErrInvocationFailed) {
		t.Errorf("Invoke() error = %v, want ErrInvocationFailed", err)
	}
}

func TestInvokePassesContext(t *testing.T) {
	dev, err := Wrap(&dimmer{})
	if err != nil {
		t.Fatalf("Wrap() error: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	res, err := dev.Invoke(ctx, nil, "deadline", nil)
	if err != nil {
		t.Fatalf("Invoke() error: %v", err)
	}
	if res.Value() != true {
		t.Errorf("deadline() = %v, want true", res.Value())
	}
}

func TestWrapTypeNames(t *testing.T) {
	dev, err := Wrap(&dimmer{}, "light", " ", "actuator")
	if err != nil {
		t.Fatalf("Wrap() error: %v", err)
	}
	want := []string{"light", "actuator", "dimmer"}
	if got := dev.TypeNames(); !reflect.DeepEqual(got, want) {
		t.Errorf("TypeNames() = %v, want %v", got, want)
	}
	if !dev.HasTypeName("dimmer") || dev.HasTypeName("switch") {
		t.Error("HasTypeName() mismatch")
	}
}

func TestWrapIdentity(t *testing.T) {
	host := &dimmer{}
	a, err := Wrap(host)
	if err != nil {
		t.Fatalf("Wrap() error: %v", err)
	}
	b, err := Wrap(host, "extra")
	if err != nil {
		t.Fatalf("Wrap() error: %v", err)
	}
	other, err := Wrap(&dimmer{})
	if err != nil {
		t.Fatalf("Wrap() error: %v", err)
	}

	if !a.Equal(b) || a.Key() != b.Key() {
		t.Error("devices around the same host should be equal")
	}
	if a.Equal(other) {
		t.Error("devices around different hosts should differ")
	}
}

func TestWrapNotComparable(t *testing.T) {
	type sliceHost []int
	if _, err := Wrap(sliceHost{1}); !errors.Is(err, ErrNotComparable) {
		t.Errorf("Wrap() error = %v, want ErrNotComparable", err)
	}
}

func TestTypeNameDeviceEquality(t *testing.T) {
	a := NewTypeNameDevice("printer")
	b := NewTypeNameDevice("printer")
	c := NewTypeNameDevice("scanner")

	if !a.Equal(b) {
		t.Error("type name devices with the same name should be equal")
	}
	if a.Equal(c) {
		t.Error("type name devices with different names should differ")
	}
	if got := a.TypeNames(); !reflect.DeepEqual(got, []string{"printer"}) {
		t.Errorf("TypeNames() = %v", got)
	}
	if len(a.Methods()) != 0 {
		t.Errorf("type name device has %d methods, want 0", len(a.Methods()))
	}
}

func TestDocumentation(t *testing.T) {
	dev, err := Wrap(&dimmer{})
	if err != nil {
		t.Fatalf("Wrap() error: %v", err)
	}
	m, ok := dev.Method("setLevel")
	if !ok {
		t.Fatal("setLevel not found")
	}
	if m.Doc().Description != "Sets the level on a side." {
		t.Errorf("Description = %q", m.Doc().Description)
	}

	rec := newDocRecorder()
	dev.Document(rec)
	if len(rec.docs) != 2 {
		t.Fatalf("documented %d callbacks, want 2", len(rec.docs))
	}
	if got := rec.docs["getLevel"].Returns; got != "the level" {
		t.Errorf("getLevel returns = %q", got)
	}
	if got := rec.docs["setLevel"].Parameters["value"]; got != "the level, clamped to 0..15" {
		t.Errorf("setLevel value doc = %q", got)
	}
}

func TestResultValue(t *testing.T) {
	if v := Result(nil).Value(); v != nil {
		t.Errorf("empty Value() = %v", v)
	}
	if v := (Result{42}).Value(); v != 42 {
		t.Errorf("single Value() = %v", v)
	}
}

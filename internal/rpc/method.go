package rpc

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sort"
)

// Parameter describes one named argument of a Method.
type Parameter struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Nullable bool   `json:"nullable,omitempty"`

	goType reflect.Type
}

// Method is a callable bound to one host instance.
type Method struct {
	spec *methodSpec
	recv reflect.Value
	doc  MethodDoc
}

// Name returns the externally visible method name.
func (m *Method) Name() string {
	return m.spec.name
}

// Parameters returns a copy of the parameter list in declaration order.
func (m *Method) Parameters() []Parameter {
	out := make([]Parameter, len(m.spec.params))
	copy(out, m.spec.params)
	return out
}

// Synchronize reports whether the method must run on the executor.
func (m *Method) Synchronize() bool {
	return m.spec.synchronize
}

// Doc returns the method documentation, if the host provided any.
func (m *Method) Doc() MethodDoc {
	return m.doc
}

// Invoke binds args by parameter name and calls the method.
//
// Synchronised methods are handed to exec and the call blocks until the
// executor has run them; asynchronous methods run on the calling goroutine.
// A nil exec runs every method directly.
func (m *Method) Invoke(ctx context.Context, exec Executor, args map[string]any) (Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	in, err := m.bindArgs(ctx, args)
	if err != nil {
		return nil, err
	}

	var (
		out     Result
		callErr error
	)
	call := func() {
		out, callErr = m.call(in)
	}

	if m.spec.synchronize && exec != nil {
		if err := exec.Execute(ctx, call); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrInvocationFailed, m.spec.name, err)
		}
	} else {
		call()
	}
	if callErr != nil {
		return nil, callErr
	}
	return out, nil
}

func (m *Method) bindArgs(ctx context.Context, args map[string]any) ([]reflect.Value, error) {
	if unknown := m.unknownArgs(args); len(unknown) > 0 {
		return nil, fmt.Errorf("%w: %s does not take %q", ErrInvalidArgument, m.spec.name, unknown)
	}

	in := make([]reflect.Value, 0, len(m.spec.params)+1)
	if m.spec.withContext {
		in = append(in, reflect.ValueOf(ctx))
	}
	for _, p := range m.spec.params {
		raw, present := args[p.Name]
		if !present || raw == nil {
			if !p.Nullable {
				return nil, fmt.Errorf("%w: %s: missing required parameter %q", ErrInvalidArgument, m.spec.name, p.Name)
			}
			in = append(in, reflect.Zero(p.goType))
			continue
		}
		v, err := convert(raw, p.goType)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: parameter %q: %v", ErrInvalidArgument, m.spec.name, p.Name, err)
		}
		in = append(in, v)
	}
	return in, nil
}

func (m *Method) unknownArgs(args map[string]any) []string {
	var unknown []string
	for name := range args {
		if !m.hasParam(name) {
			unknown = append(unknown, name)
		}
	}
	sort.Strings(unknown)
	return unknown
}

func (m *Method) hasParam(name string) bool {
	for _, p := range m.spec.params {
		if p.Name == name {
			return true
		}
	}
	return false
}

func (m *Method) call(in []reflect.Value) (result Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("%w: %s panicked: %v", ErrInvocationFailed, m.spec.name, r)
		}
	}()

	out := m.recv.Method(m.spec.index).Call(in)
	if m.spec.hasError {
		last := out[len(out)-1]
		out = out[:len(out)-1]
		if !last.IsNil() {
			callErr := last.Interface().(error)
			if errors.Is(callErr, ErrInvalidArgument) {
				return nil, callErr
			}
			return nil, fmt.Errorf("%w: %s: %w", ErrInvocationFailed, m.spec.name, callErr)
		}
	}

	result = make(Result, len(out))
	for i, v := range out {
		result[i] = v.Interface()
	}
	return result, nil
}

// Result holds the values returned by a method, error excluded.
type Result []any

// Value returns nil for no values, the value itself for one, or the whole
// slice for several.
func (r Result) Value() any {
	switch len(r) {
	case 0:
		return nil
	case 1:
		return r[0]
	default:
		return []any(r)
	}
}

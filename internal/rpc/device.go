package rpc

import (
	"context"
	"fmt"
	"reflect"
	"strings"
)

// Device is a host object exposed on the bus.
//
// A Device carries an ordered, duplicate-free set of type names and the
// host's bound methods. Its identity is the host itself: two Devices wrapping
// the same host are Equal and share a Key.
type Device struct {
	host      any
	typeNames []string
	methods   []*Method
	byName    map[string]*Method
}

// Wrap binds host with DefaultBinder. See Binder.Wrap.
func Wrap(host any, typeNames ...string) (*Device, error) {
	return DefaultBinder.Wrap(host, typeNames...)
}

// Wrap builds a Device around host.
//
// Type names are the explicit names followed by those the host reports
// through NamedDevice; blanks are dropped and repeats keep their first
// position. Any configuration error in the host's callbacks fails the wrap.
func (b *Binder) Wrap(host any, typeNames ...string) (*Device, error) {
	if host == nil {
		return nil, fmt.Errorf("%w: nil host", ErrInvalidCallback)
	}
	if !reflect.TypeOf(host).Comparable() {
		return nil, fmt.Errorf("%w: %T", ErrNotComparable, host)
	}

	methods, err := b.BindMethods(host)
	if err != nil {
		return nil, fmt.Errorf("binding %T: %w", host, err)
	}

	names := append([]string(nil), typeNames...)
	if named, ok := host.(NamedDevice); ok {
		names = append(names, named.DeviceTypeNames()...)
	}

	if documented, ok := host.(DocumentedDevice); ok {
		rec := newDocRecorder()
		documented.DocumentDevice(rec)
		for _, m := range methods {
			if doc, ok := rec.docs[m.Name()]; ok {
				m.doc = *doc
			}
		}
	}

	return newDevice(host, names, methods), nil
}

func newDevice(host any, typeNames []string, methods []*Method) *Device {
	d := &Device{
		host:      host,
		typeNames: uniqueNames(typeNames),
		methods:   methods,
		byName:    make(map[string]*Method, len(methods)),
	}
	for _, m := range methods {
		d.byName[m.Name()] = m
	}
	return d
}

func uniqueNames(names []string) []string {
	out := make([]string, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	return out
}

// Key returns the identity of the device, suitable as a map key.
func (d *Device) Key() any {
	return d.host
}

// Host returns the wrapped host object.
func (d *Device) Host() any {
	return d.host
}

// Equal reports whether both devices wrap the same host.
func (d *Device) Equal(other *Device) bool {
	if d == nil || other == nil {
		return d == other
	}
	return d.host == other.host
}

// TypeNames returns a copy of the device type names in declaration order.
func (d *Device) TypeNames() []string {
	return append([]string(nil), d.typeNames...)
}

// HasTypeName reports whether the device declares name.
func (d *Device) HasTypeName(name string) bool {
	for _, n := range d.typeNames {
		if n == name {
			return true
		}
	}
	return false
}

// Methods returns the device methods in declaration order.
func (d *Device) Methods() []*Method {
	return append([]*Method(nil), d.methods...)
}

// Method returns the method called name.
func (d *Device) Method(name string) (*Method, bool) {
	m, ok := d.byName[name]
	return m, ok
}

// Invoke calls the method called name with named arguments.
func (d *Device) Invoke(ctx context.Context, exec Executor, name string, args map[string]any) (Result, error) {
	m, ok := d.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMethod, name)
	}
	return m.Invoke(ctx, exec, args)
}

// Document replays the recorded method documentation to v.
func (d *Device) Document(v DeviceVisitor) {
	for _, m := range d.methods {
		if m.doc.Empty() {
			continue
		}
		cv := v.VisitCallback(m.Name())
		if m.doc.Description != "" {
			cv = cv.Description(m.doc.Description)
		}
		if m.doc.Returns != "" {
			cv = cv.ReturnValueDescription(m.doc.Returns)
		}
		for _, p := range m.spec.params {
			if text, ok := m.doc.Parameters[p.Name]; ok {
				cv = cv.ParameterDescription(p.Name, text)
			}
		}
	}
}

// String returns a short description such as "redstone(3 methods)".
func (d *Device) String() string {
	return fmt.Sprintf("%s(%d methods)", strings.Join(d.typeNames, ","), len(d.methods))
}

package rpc

// TypeNameDevice is a device that only carries a type name.
//
// Bus nodes use it to expose a labelled face as a named virtual device. It is
// a comparable value, so wrapping the same name twice yields equal devices.
type TypeNameDevice struct {
	name string
}

// DeviceTypeNames implements NamedDevice.
func (d TypeNameDevice) DeviceTypeNames() []string {
	return []string{d.name}
}

// Name returns the type name.
func (d TypeNameDevice) Name() string {
	return d.name
}

// NewTypeNameDevice returns a method-less device named name.
func NewTypeNameDevice(name string) *Device {
	host := TypeNameDevice{name: name}
	return newDevice(host, []string{name}, nil)
}

package rpc

import "errors"

// Domain errors for the rpc package.
//
// Configuration errors are returned by Binder.BindMethods and Wrap; the
// affected host must not be registered as a device. Invocation errors are
// returned by Method.Invoke and Device.Invoke.
var (
	// ErrInvalidCallback is returned when a declared callback does not match a
	// usable method on the host.
	ErrInvalidCallback = errors.New("rpc: invalid callback")

	// ErrDuplicateMethod is returned when two callbacks share an external name.
	ErrDuplicateMethod = errors.New("rpc: duplicate method name")

	// ErrInvalidParameterTag is returned when a parameter name tag is empty,
	// malformed or repeated within one callback.
	ErrInvalidParameterTag = errors.New("rpc: invalid parameter tag")

	// ErrNotComparable is returned when a host cannot serve as a device identity.
	ErrNotComparable = errors.New("rpc: host is not comparable")

	// ErrUnknownMethod is returned when invoking a method name the device does not have.
	ErrUnknownMethod = errors.New("rpc: unknown method")

	// ErrInvalidArgument is returned when an argument is missing, unexpected,
	// or cannot be converted to the declared parameter type.
	ErrInvalidArgument = errors.New("rpc: invalid argument")

	// ErrInvocationFailed is returned when the callable panics, returns an
	// error, or cannot be scheduled on the executor.
	ErrInvocationFailed = errors.New("rpc: invocation failed")
)

package rpc

import "context"

// Callback declares one remotely callable method of a host.
type Callback struct {
	// Method is the Go method name on the host.
	Method string

	// Name is the externally visible name. Empty means Method with its first
	// letter lower-cased.
	Name string

	// Params holds one name tag per Go parameter, in order. A leading
	// context.Context parameter is supplied by the invoker and takes no tag.
	Params []string

	// Async marks the callback as safe to run off the bus loop.
	Async bool
}

// CallbackProvider is implemented by hosts that expose callbacks.
type CallbackProvider interface {
	Callbacks() []Callback
}

// NamedDevice is implemented by hosts that report their own type names.
type NamedDevice interface {
	DeviceTypeNames() []string
}

// DocumentedDevice is implemented by hosts that document their callbacks.
type DocumentedDevice interface {
	DocumentDevice(v DeviceVisitor)
}

// Executor runs fn on the authoritative execution context and waits for it.
type Executor interface {
	Execute(ctx context.Context, fn func()) error
}

// DirectExecutor runs fn on the calling goroutine.
type DirectExecutor struct{}

// Execute runs fn immediately unless ctx is already done.
func (DirectExecutor) Execute(ctx context.Context, fn func()) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	fn()
	return nil
}

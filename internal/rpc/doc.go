// Package rpc turns host objects into remotely callable devices.
//
// A host declares its callable surface explicitly through CallbackProvider.
// The Binder inspects the declared callbacks once per Go type, validates
// them (names, parameter tags, parameter and result types) and caches the
// resulting method table. Binding a concrete host produces Methods that
// accept named arguments, convert them to the declared Go types and invoke
// the underlying method.
//
// # Synchronisation
//
// Every callback is synchronised by default: invocation is handed to an
// Executor (the bus loop) and runs serialised with topology mutations and
// scans. Callbacks declared Async run on the caller's goroutine and must not
// touch shared bus state.
//
// # Usage
//
//	func (r *Relay) Callbacks() []rpc.Callback {
//	    return []rpc.Callback{
//	        {Method: "SetLevel", Params: []string{"side", "value"}},
//	        {Method: "GetLevel", Params: []string{"side"}, Async: true},
//	    }
//	}
//
//	dev, err := rpc.Wrap(relay, "relay")
//	if err != nil {
//	    return err // configuration error, device must not register
//	}
//	res, err := dev.Invoke(ctx, loop, "setLevel", map[string]any{"side": "north", "value": 12})
//
// # Documentation
//
// Hosts implementing DocumentedDevice describe their callbacks through a
// DeviceVisitor. Documentation is informational only and never affects
// dispatch.
package rpc

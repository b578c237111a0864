// Package redstone implements the redstone interface device and a constant
// signal emitter.
//
// The interface exposes three callbacks to the bus:
//
//	getRedstoneInput(side)          level received on side
//	getRedstoneOutput(side)         level last set on side (runs off the loop)
//	setRedstoneOutput(side, value)  set the level emitted on side, clamped to 0..15
//
// Sides are relative to the device's facing. Names or zero-based indices
// are accepted.
package redstone

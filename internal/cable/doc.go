// Package cable implements the bus cable node.
//
// A cable connects to each neighbour through a per-face connection kind:
//
//	none       the face is closed
//	link       the bus continues through the face
//	interface  the bus continues and devices on the face are detected
//
// Each face may carry an interface label. A labelled face that is scanned
// for devices exposes a method-less device named after the label, so a
// program can address "the thing on the left" by name.
//
// A cable may also carry a facade, a cosmetic appearance reference. Only
// opaque, solid appearances without behaviour of their own are accepted;
// anything else collapses to no facade.
//
// Labels and facades are replicated to trackers and persisted through
// SaveState and LoadState.
package cable

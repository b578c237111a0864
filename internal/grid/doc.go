// Package grid provides the spatial primitives of the bus network.
//
// Every bus node lives at an integer position in a 3D grid and talks to its
// neighbours through one of six faces. Nodes never hold references to each
// other: an edge is resolved at traversal time by offsetting a position by a
// direction and looking the result up in the world arena.
//
// # Key Types
//
//   - Pos: integer grid coordinate
//   - Direction: one of the six faces, in data-value order (down, up, north,
//     south, west, east)
//   - ConnectionType: per-face connection kind (none, link, interface)
//
// # Rotation
//
// Oriented nodes (for example a redstone interface) address their faces in
// local space. ToGlobal and ToLocal convert between the two using the node's
// horizontal facing; north is the identity facing and vertical faces never
// rotate.
package grid

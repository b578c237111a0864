// Package layout loads the nodes placed in the world at startup.
//
// A layout file is YAML:
//
//	appearances:
//	  - ref: stone
//	    render_shape: model
//	    solid: true
//	nodes:
//	  - pos: "0,64,0"
//	    kind: controller
//	    connections: {east: link}
//	  - pos: "1,64,0"
//	    kind: cable
//	    connections: {west: link, north: interface}
//	    labels: {north: lamp}
//	    facade: stone
//	  - pos: "1,64,-1"
//	    kind: redstone
//	    facing: south
//	  - pos: "2,64,-1"
//	    kind: emitter
//	    signal: 7
//
// A controller node is a cable hosting a bus controller. Parse validates the
// whole file and reports every problem at once. Build places the nodes on a
// network.
package layout

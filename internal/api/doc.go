// Package api implements the HTTP surface of the bus service.
//
// It exposes discovery results, remote method invocation on discovered
// devices, and the label and facade mutators of bus nodes:
//
//	GET    /api/v1/health
//	GET    /api/v1/controllers
//	POST   /api/v1/controllers/{pos}/scan
//	GET    /api/v1/devices
//	GET    /api/v1/devices/{id}
//	POST   /api/v1/devices/{id}/invoke
//	GET    /api/v1/nodes/{pos}
//	PUT    /api/v1/nodes/{pos}/interfaces/{side}
//	PUT    /api/v1/nodes/{pos}/facade
//	DELETE /api/v1/nodes/{pos}/facade
//	GET    /api/v1/ws
//	GET    /metrics
//
// Positions are written "x,y,z" or "x_y_z". Every mutation and every
// synchronised invocation runs on the bus executor.
//
// The WebSocket Hub is a replication.Sink and a bus.ScanObserver: trackers
// subscribe to the "bus.replication" and "bus.scan" channels, and may track
// individual nodes to receive their current snapshot first.
package api

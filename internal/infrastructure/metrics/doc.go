// Package metrics exposes Prometheus metrics for bus scans and remote
// method invocations.
//
//	bus_scans_total{state}                    committed scans by outcome
//	bus_scan_duration_seconds                 scan latency
//	bus_discovered_devices{controller}        devices of the latest scan
//	bus_energy_consumption{controller}        energy of the latest scan
//	bus_rpc_invocations_total{method,outcome} remote calls by outcome
//
// A Collector is a bus.ScanObserver. Collectors register against the
// Registerer they are given and reuse collectors already registered under
// the same name.
package metrics

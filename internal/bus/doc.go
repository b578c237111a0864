// Package bus implements device discovery over a network of bus nodes.
//
// # Architecture
//
//	┌──────────────────────────────────────────────────────────────────┐
//	│                             Loop                                 │
//	│  single goroutine: tasks (rpc.Executor) + periodic Network.Tick  │
//	└───────────────┬──────────────────────────────────────────────────┘
//	                │ Tick drains pending controllers
//	                ▼
//	┌──────────────────────┐   BFS    ┌──────────────────────────────┐
//	│      Network         │────────▶│  Element (per bus node)      │
//	│ controllers, pending │          │  connectivity predicate      │
//	│ providers, observers │          │  CollectDevices(face)        │
//	└──────────┬───────────┘          └──────────────┬───────────────┘
//	           │ positions                           │ capability query
//	           ▼                                     ▼
//	┌──────────────────────────────────────────────────────────────────┐
//	│                 World (arena keyed by grid.Pos)                  │
//	└──────────────────────────────────────────────────────────────────┘
//
// Nodes never reference each other directly. A scan walks from the
// controller's node breadth first; a neighbour is reached only if the
// current element lets the scan continue on that face and the block next
// door offers its own element for the opposite face through the capability
// query. The visited set is keyed by position, so cycles terminate.
//
// # Scheduling
//
// Mutations never scan inline. Elements call ScheduleScan, which adds the
// controller to a pending set; Network.Tick drains a snapshot of that set
// once per tick, so any number of requests between ticks cost one scan.
// Requests raised while a tick is scanning wait for the next tick.
//
// # Results
//
// Each scan produces an immutable ScanResult that is swapped in atomically
// when the scan commits. Readers on other goroutines always see a complete
// result. A controller removed before commit discards its in-flight result.
package bus

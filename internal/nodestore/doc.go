// Package nodestore persists the durable state of bus nodes.
//
// Blocks that implement Persistable are saved as one record per position.
// The Persister listens to the world, collects the positions whose state
// changed, and writes them on Flush, normally once per bus tick. Restore
// loads stored records back into the blocks placed at startup.
package nodestore

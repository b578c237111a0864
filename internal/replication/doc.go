// Package replication propagates node labels and facades to observers.
//
// Local mutators (interface labels, facades) emit a Message after a change
// is applied. The Replicator fans each message out to its sinks: the MQTT
// sink publishes it for remote instances and the WebSocket hub pushes it to
// trackers. Inbound messages (from MQTT or an API call) are applied by the
// Applier through the same mutators local code uses, on the bus loop, so
// normalisation rules hold regardless of origin. Applying a message twice
// is a no-op.
//
// # Topics
//
//	{prefix}/interface_name_changed/{x_y_z}   outbound label change
//	{prefix}/facade_changed/{x_y_z}           outbound facade change
//	{prefix}/inbound/{x_y_z}                  trusted inbound update
package replication

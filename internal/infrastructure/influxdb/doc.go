// Package influxdb records bus scan telemetry in InfluxDB.
//
// It wraps the influxdb-client-go v2 non-blocking write API. A connected
// Client is a bus.ScanObserver: every committed scan becomes one
// "bus_scan" point tagged with the controller position and state.
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//	network.AddObserver(client)
//
// Writes are batched according to batch_size and flush_interval. Write
// errors arrive asynchronously through SetOnError; connection and health
// check errors are returned directly.
package influxdb

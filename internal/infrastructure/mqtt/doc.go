// Package mqtt provides the MQTT client used for bus replication.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Publishing with QoS validation and a payload size cap
//   - Subscriptions that survive reconnects
//   - Last Will and Testament on the service status topic
//
// # Topics
//
// Every topic lives under a configurable prefix (replication.topic_prefix):
//
//	{prefix}/status                                service online/offline (LWT)
//	{prefix}/interface_name_changed/{x_y_z}        outbound label change
//	{prefix}/facade_changed/{x_y_z}                outbound facade change
//	{prefix}/scan/{x_y_z}                          retained controller summary
//	{prefix}/inbound/{x_y_z}                       inbound update
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT, mqtt.NewTopics(cfg.Replication.TopicPrefix))
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.Subscribe(client.Topics().AllInbound(), 1,
//	    func(topic string, payload []byte) error {
//	        return applier.Handle(topic, payload)
//	    })
package mqtt

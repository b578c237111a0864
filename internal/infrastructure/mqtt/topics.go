package mqtt

import (
	"fmt"
	"strings"
)

// DefaultTopicPrefix is used when no prefix is configured.
const DefaultTopicPrefix = "graylogic/bus"

// Topics builds topic names under one prefix.
//
//	topics := mqtt.NewTopics("graylogic/bus")
//	topics.Replication("facade_changed", "1_64_-3")
//	// Returns: "graylogic/bus/facade_changed/1_64_-3"
type Topics struct {
	prefix string
}

// NewTopics creates a builder for prefix. Surrounding slashes are dropped.
func NewTopics(prefix string) Topics {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		prefix = DefaultTopicPrefix
	}
	return Topics{prefix: prefix}
}

// Prefix returns the topic prefix.
func (t Topics) Prefix() string {
	if t.prefix == "" {
		return DefaultTopicPrefix
	}
	return t.prefix
}

// Status returns the service status topic used for online state and LWT.
func (t Topics) Status() string {
	return t.Prefix() + "/status"
}

// Replication returns the topic for an outbound message of msgType about
// the node at posKey.
func (t Topics) Replication(msgType, posKey string) string {
	return fmt.Sprintf("%s/%s/%s", t.Prefix(), msgType, posKey)
}

// ScanState returns the retained scan summary topic of a controller.
func (t Topics) ScanState(posKey string) string {
	return fmt.Sprintf("%s/scan/%s", t.Prefix(), posKey)
}

// Inbound returns the topic for an inbound update to the node at posKey.
func (t Topics) Inbound(posKey string) string {
	return fmt.Sprintf("%s/inbound/%s", t.Prefix(), posKey)
}

// AllInbound matches every inbound update.
func (t Topics) AllInbound() string {
	return t.Prefix() + "/inbound/+"
}

// AllScanStates matches every controller summary.
func (t Topics) AllScanStates() string {
	return t.Prefix() + "/scan/+"
}

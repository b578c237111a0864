package replication

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nerrad567/gray-logic-bus/internal/bus"
	"github.com/nerrad567/gray-logic-bus/internal/grid"
	"github.com/nerrad567/gray-logic-bus/internal/infrastructure/mqtt"
)

// Logger is the logging interface used by the MQTT bridge.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}

// Publisher publishes MQTT messages.
type Publisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
}

// Subscriber manages MQTT subscriptions.
type Subscriber interface {
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	Unsubscribe(topic string) error
}

// SinkQueueSize is the number of outbound messages an MQTTSink buffers
// before dropping.
const SinkQueueSize = 256

type outbound struct {
	topic    string
	payload  []byte
	retained bool
}

// MQTTSink publishes outbound messages. Send and ScanCompleted only queue;
// Run does the publishing so the bus loop never waits on the broker.
type MQTTSink struct {
	pub    Publisher
	topics mqtt.Topics
	qos    byte
	logger Logger
	queue  chan outbound
}

// NewMQTTSink creates a sink publishing under topics with qos.
func NewMQTTSink(pub Publisher, topics mqtt.Topics, qos byte) *MQTTSink {
	return &MQTTSink{
		pub:    pub,
		topics: topics,
		qos:    qos,
		logger: noopLogger{},
		queue:  make(chan outbound, SinkQueueSize),
	}
}

// SetLogger sets the logger for publish failures.
func (s *MQTTSink) SetLogger(l Logger) {
	if l != nil {
		s.logger = l
	}
}

// Run publishes queued messages until ctx is cancelled.
func (s *MQTTSink) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case o := <-s.queue:
			if err := s.pub.Publish(o.topic, o.payload, s.qos, o.retained); err != nil {
				s.logger.Warn("publishing replication message", "topic", o.topic, "error", err)
			}
		}
	}
}

// enqueue never blocks. A full queue drops the message; the next change
// carries the full value again.
func (s *MQTTSink) enqueue(o outbound) {
	select {
	case s.queue <- o:
	default:
		s.logger.Warn("replication queue full, dropping message", "topic", o.topic)
	}
}

// Send implements Sink.
func (s *MQTTSink) Send(m Message) {
	payload, err := json.Marshal(m)
	if err != nil {
		s.logger.Warn("encoding replication message", "type", m.Type, "error", err)
		return
	}
	s.enqueue(outbound{topic: s.topics.Replication(string(m.Type), m.Pos.Key()), payload: payload})
}

// ScanSummary is the retained per-controller state published after scans.
type ScanSummary struct {
	Controller grid.Pos  `json:"controller"`
	State      bus.State `json:"state"`
	Devices    []string  `json:"devices"`
	Elements   int       `json:"elements"`
	Energy     float64   `json:"energy"`
	Generation uint64    `json:"generation"`
	ScannedAt  time.Time `json:"scanned_at"`
}

// Summarize builds the summary of a scan result.
func Summarize(controller grid.Pos, r *bus.ScanResult) ScanSummary {
	ids := make([]string, 0, len(r.Devices))
	for _, d := range r.Devices {
		ids = append(ids, d.ID.String())
	}
	return ScanSummary{
		Controller: controller,
		State:      r.State,
		Devices:    ids,
		Elements:   len(r.Elements),
		Energy:     r.Energy,
		Generation: r.Generation,
		ScannedAt:  r.ScannedAt,
	}
}

// ScanCompleted implements bus.ScanObserver by queueing a retained summary.
func (s *MQTTSink) ScanCompleted(controller grid.Pos, r *bus.ScanResult, _ time.Duration) {
	payload, err := json.Marshal(Summarize(controller, r))
	if err != nil {
		s.logger.Warn("encoding scan summary", "error", err)
		return
	}
	s.enqueue(outbound{topic: s.topics.ScanState(controller.Key()), payload: payload, retained: true})
}

// Source subscribes to inbound updates and applies them.
type Source struct {
	sub     Subscriber
	topics  mqtt.Topics
	qos     byte
	applier *Applier
	logger  Logger
}

// NewSource creates a source feeding applier.
func NewSource(sub Subscriber, topics mqtt.Topics, qos byte, applier *Applier) *Source {
	return &Source{sub: sub, topics: topics, qos: qos, applier: applier, logger: noopLogger{}}
}

// SetLogger sets the logger.
func (s *Source) SetLogger(l Logger) {
	if l != nil {
		s.logger = l
	}
}

// Run subscribes and applies inbound messages until ctx is cancelled.
func (s *Source) Run(ctx context.Context) error {
	topic := s.topics.AllInbound()
	if err := s.sub.Subscribe(topic, s.qos, s.handler(ctx)); err != nil {
		return err
	}
	<-ctx.Done()
	if err := s.sub.Unsubscribe(topic); err != nil {
		s.logger.Debug("unsubscribing inbound topic", "error", err)
	}
	return nil
}

func (s *Source) handler(ctx context.Context) mqtt.MessageHandler {
	return func(topic string, payload []byte) error {
		m, err := Decode(payload)
		if err != nil {
			return err
		}
		if err := s.applier.Apply(ctx, m); err != nil {
			return err
		}
		s.logger.Debug("applied inbound update", "topic", topic, "type", m.Type, "pos", m.Pos.String())
		return nil
	}
}

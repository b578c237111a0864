package replication

import "sync"

// Sink receives replication messages. Send must not block for long.
type Sink interface {
	Send(m Message)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(m Message)

// Send calls f.
func (f SinkFunc) Send(m Message) {
	f(m)
}

// Replicator fans messages out to every registered sink.
type Replicator struct {
	mu    sync.RWMutex
	sinks []Sink
}

// NewReplicator creates a replicator with the given sinks.
func NewReplicator(sinks ...Sink) *Replicator {
	return &Replicator{sinks: sinks}
}

// AddSink registers s.
func (r *Replicator) AddSink(s Sink) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sinks = append(r.sinks, s)
}

// Send delivers m to every sink in registration order.
func (r *Replicator) Send(m Message) {
	r.mu.RLock()
	sinks := append([]Sink(nil), r.sinks...)
	r.mu.RUnlock()

	for _, s := range sinks {
		s.Send(m)
	}
}

package realtime

import (
	"log"

	"github.com/fabiogreco/duet/internal/chat"
	"github.com/fabiogreco/duet/internal/observability"
	"github.com/fabiogreco/duet/internal/protocol"
)

// Fanout pushes a persisted message to the live connections of its sender
// and receiver. A participant without a live connection is a silent no-op;
// storage remains the durable record and the client catches up on its next
// conversation fetch. Never mutates storage.
type Fanout struct {
	registry *Registry
	metrics  *observability.Metrics
}

func NewFanout(registry *Registry, metrics *observability.Metrics) *Fanout {
	return &Fanout{registry: registry, metrics: metrics}
}

// Deliver sends msg as a new-message event to each registered participant.
// No dedup here: the client deduplicates by message id.
func (f *Fanout) Deliver(msg chat.Message) {
	event := protocol.NewMessageEvent{
		Type:    protocol.EventNewMessage,
		Message: msg,
	}
	for _, userID := range []string{msg.SenderID, msg.ReceiverID} {
		conn, ok := f.registry.Lookup(userID)
		if !ok {
			f.metrics.MessagesDelivered.WithLabelValues("offline").Inc()
			continue
		}
		if err := conn.Send(event); err != nil {
			log.Printf("realtime: deliver to %s failed: %v", userID, err)
			f.metrics.MessagesDelivered.WithLabelValues("send_error").Inc()
			continue
		}
		f.metrics.MessagesDelivered.WithLabelValues("pushed").Inc()
	}
}

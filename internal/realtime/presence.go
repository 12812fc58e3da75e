package realtime

import (
	"log"

	"github.com/fabiogreco/duet/internal/observability"
	"github.com/fabiogreco/duet/internal/protocol"
)

// Broadcaster pushes the full online-user snapshot to every live connection
// whenever the registry mutates. Every broadcast carries the complete set, so
// a client that misses one converges on the next.
type Broadcaster struct {
	metrics *observability.Metrics
}

func NewBroadcaster(registry *Registry, metrics *observability.Metrics) *Broadcaster {
	b := &Broadcaster{metrics: metrics}
	registry.SetPresenceHook(b.broadcast)
	return b
}

func (b *Broadcaster) broadcast(users []string, conns []Conn) {
	event := protocol.OnlineUsersEvent{
		Type:  protocol.EventOnlineUsers,
		Users: users,
	}
	for _, c := range conns {
		if err := c.Send(event); err != nil {
			// The write path owns connection teardown; a failed send here
			// just means that client is already on its way out.
			log.Printf("realtime: presence send failed: %v", err)
		}
	}
	b.metrics.PresenceBroadcasts.Inc()
	b.metrics.ActiveConnections.Set(float64(len(users)))
}

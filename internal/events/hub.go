package events

import (
	"sync"

	"go.uber.org/zap"
)

// Hub routes published messages to the clients subscribed to their topic.
// Safe for concurrent use by the sandbox registry, the process service, and
// the gRPC server. A nil *Hub is valid and drops all publishes, so wiring
// the hub is optional in tests.
type Hub struct {
	mu sync.RWMutex
	// topics maps a topic to the set of subscribed clients. clients tracks
	// every connected client regardless of topic; the two maps are always
	// updated together.
	topics  map[string]map[*Client]struct{}
	clients map[*Client]struct{}

	logger *zap.Logger
}

// NewHub creates an empty Hub.
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		topics:  make(map[string]map[*Client]struct{}),
		clients: make(map[*Client]struct{}),
		logger:  logger.Named("events"),
	}
}

// Publish sends msg to every client subscribed to topic. Sends are
// non-blocking and happen under a short read-lock, so a concurrent remove
// cannot close a client's channel mid-send. A client whose send buffer is
// full is disconnected so a slow consumer cannot stall the publisher or
// other subscribers.
func (h *Hub) Publish(topic string, msg Message) {
	if h == nil {
		return
	}

	msg.Topic = topic

	h.mu.RLock()
	var slow []*Client
	for c := range h.topics[topic] {
		select {
		case c.send <- msg:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		h.logger.Warn("dropping slow events client", zap.String("topic", topic))
		h.remove(c)
	}
}

// subscribe registers client under all its topics.
func (h *Hub) subscribe(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[c] = struct{}{}
	for _, topic := range c.topics {
		if h.topics[topic] == nil {
			h.topics[topic] = make(map[*Client]struct{})
		}
		h.topics[topic][c] = struct{}{}
	}
}

// remove unregisters client and closes its send channel, which makes its
// writePump drain and exit. Idempotent.
func (h *Hub) remove(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	for _, topic := range c.topics {
		delete(h.topics[topic], c)
		if len(h.topics[topic]) == 0 {
			delete(h.topics, topic)
		}
	}
	close(c.send)
}

// ConnectedCount returns the number of connected clients.
func (h *Hub) ConnectedCount() int {
	if h == nil {
		return 0
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

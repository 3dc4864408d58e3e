// Package hub fans rendered frames out to connected dashboard clients.
// Clients subscribe to a service day; every reconcile pushes the full frame
// envelope to the subscribers of that day.
package hub

import (
	"encoding/json"
	"log"
	"sync"
	"time"
)

type Subscription struct {
	Day string
}

type Client struct {
	ID           string
	Send         chan []byte
	Subscription Subscription
}

type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
}

type SubscribeMessage struct {
	Action string `json:"action"`
	Day    string `json:"day"`
}

// FrameEnvelope wraps a rendered frame for the wire.
type FrameEnvelope struct {
	Type      string          `json:"type"`
	Day       string          `json:"day"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}

func New() *Hub {
	return &Hub{clients: make(map[string]*Client)}
}

func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client.ID] = client
}

func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, client.ID)
	close(client.Send)
}

func (h *Hub) UpdateSubscription(client *Client, sub Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	client.Subscription = sub
}

// BroadcastFrame delivers a frame envelope to every client subscribed to the
// day. Slow clients are skipped, never blocked on.
func (h *Hub) BroadcastFrame(day string, frame any) {
	payload, err := json.Marshal(frame)
	if err != nil {
		log.Printf("frame marshal error: %v", err)
		return
	}
	envelope, err := json.Marshal(FrameEnvelope{
		Type:      "frame",
		Day:       day,
		Payload:   payload,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		log.Printf("envelope marshal error: %v", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, client := range h.clients {
		if client.Subscription.Day != "" && client.Subscription.Day != day {
			continue
		}
		select {
		case client.Send <- envelope:
		default:
			log.Printf("drop frame for client %s", client.ID)
		}
	}
}

func ParseSubscribe(data []byte) (SubscribeMessage, bool) {
	var msg SubscribeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return SubscribeMessage{}, false
	}
	if msg.Action != "subscribe" && msg.Action != "unsubscribe" {
		return SubscribeMessage{}, false
	}
	return msg, true
}

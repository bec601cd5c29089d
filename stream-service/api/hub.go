package api

import "sync"

// Hub fans updates out to the connected clients of each user.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[chan []byte]struct{}
}

func NewHub() *Hub {
	return &Hub{clients: make(map[string]map[chan []byte]struct{})}
}

func (h *Hub) add(userID string, ch chan []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.clients[userID]
	if !ok {
		set = make(map[chan []byte]struct{})
		h.clients[userID] = set
	}
	set[ch] = struct{}{}
}

func (h *Hub) remove(userID string, ch chan []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set := h.clients[userID]
	delete(set, ch)
	if len(set) == 0 {
		delete(h.clients, userID)
	}
}

// Broadcast delivers data to every client of userID. Slow clients whose
// buffer is full miss the update.
func (h *Hub) Broadcast(userID string, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.clients[userID] {
		select {
		case ch <- data:
		default:
		}
	}
}

// Clients returns the number of open streams of userID.
func (h *Hub) Clients(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

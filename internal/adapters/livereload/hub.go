// Package livereload serves the build output over HTTP and pushes reload and
// stylesheet-inject events to connected browsers over Server-Sent Events.
package livereload

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"go.trai.ch/sitepipe/internal/core/ports"
)

var _ ports.Reloader = (*Hub)(nil)

const clientBuffer = 8

// Event types sent on the sideband.
const (
	EventReload = "reload"
	EventInject = "inject"
)

// Event is one message for connected clients.
type Event struct {
	Type string
	Data string
}

// Hub fans events out to every connected client. A client that does not keep
// up loses events instead of blocking the build.
type Hub struct {
	mu      sync.Mutex
	clients map[string]chan Event
}

// NewHub creates an empty Hub.
func NewHub() *Hub {
	return &Hub{clients: make(map[string]chan Event)}
}

// Subscribe registers a client. The returned cancel function unregisters it
// and closes the channel.
func (h *Hub) Subscribe() (id string, events <-chan Event, cancel func()) {
	id = uuid.NewString()
	ch := make(chan Event, clientBuffer)

	h.mu.Lock()
	h.clients[id] = ch
	h.mu.Unlock()

	var once sync.Once
	return id, ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.clients, id)
			h.mu.Unlock()
			close(ch)
		})
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Reload asks every client to reload the page.
func (h *Hub) Reload() {
	h.broadcast(Event{Type: EventReload, Data: "{}"})
}

// Inject asks every client to refresh the given stylesheets in place.
func (h *Hub) Inject(paths []string) {
	if paths == nil {
		paths = []string{}
	}
	data, _ := json.Marshal(paths) //nolint:errchkjson // []string always encodes
	h.broadcast(Event{Type: EventInject, Data: string(data)})
}

func (h *Hub) broadcast(ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, ch := range h.clients {
		select {
		case ch <- ev:
		default:
		}
	}
}

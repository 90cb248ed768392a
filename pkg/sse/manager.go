package sse

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
)

// Event is a server-sent event addressed to one user's open panels
type Event struct {
	UserID string
	Type   string
	Data   interface{}
}

type client struct {
	userID string
	ch     chan Event
}

// Manager fans out workspace events (automation alerts, AI run results,
// reminder pings) to connected browser tabs over SSE
type Manager struct {
	mu         sync.RWMutex
	clients    map[*client]struct{}
	register   chan *client
	unregister chan *client
	events     chan Event
}

func NewManager() *Manager {
	return &Manager{
		clients:    make(map[*client]struct{}),
		register:   make(chan *client),
		unregister: make(chan *client),
		events:     make(chan Event, 256),
	}
}

// Run processes registrations and event fan-out. Call in a goroutine.
func (m *Manager) Run() {
	for {
		select {
		case c := <-m.register:
			m.mu.Lock()
			m.clients[c] = struct{}{}
			m.mu.Unlock()
		case c := <-m.unregister:
			m.mu.Lock()
			if _, ok := m.clients[c]; ok {
				delete(m.clients, c)
				close(c.ch)
			}
			m.mu.Unlock()
		case ev := <-m.events:
			m.mu.RLock()
			for c := range m.clients {
				if c.userID != ev.UserID {
					continue
				}
				select {
				case c.ch <- ev:
				default:
					// Slow consumer, drop the event rather than block the loop
				}
			}
			m.mu.RUnlock()
		}
	}
}

// Notify queues an event for all of the user's connected clients
func (m *Manager) Notify(userID, eventType string, data interface{}) {
	select {
	case m.events <- Event{UserID: userID, Type: eventType, Data: data}:
	default:
		log.Printf("[SSE] Event queue full, dropping %s for user %s", eventType, userID)
	}
}

// ServeHTTP streams events for the authenticated user until the
// connection closes
func (m *Manager) ServeHTTP(c *gin.Context, userID string) {
	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "streaming unsupported"})
		return
	}

	cl := &client{userID: userID, ch: make(chan Event, 16)}
	m.register <- cl
	defer func() { m.unregister <- cl }()

	// Initial comment keeps proxies from buffering the stream
	fmt.Fprintf(c.Writer, ": connected\n\n")
	flusher.Flush()

	notify := c.Request.Context().Done()
	for {
		select {
		case <-notify:
			return
		case ev, ok := <-cl.ch:
			if !ok {
				return
			}
			payload, err := json.Marshal(ev.Data)
			if err != nil {
				log.Printf("[SSE] Failed to marshal event data: %v", err)
				continue
			}
			fmt.Fprintf(c.Writer, "event: %s\ndata: %s\n\n", ev.Type, payload)
			flusher.Flush()
		}
	}
}

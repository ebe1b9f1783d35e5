// Package sse fans editor events out to the browser tabs following a draft.
package sse

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/debemdeboas/the-archive-writer/internal/model"
)

const (
	EventConnected = "connected"
	EventPreview   = "preview"
	EventNavigate  = "navigate"
)

// Event is one server-sent event.
type Event struct {
	Name string
	Data string
}

// WriteTo writes the event in text/event-stream framing. Multi-line data is
// split across data fields.
func (e Event) WriteTo(w io.Writer) (int64, error) {
	var b strings.Builder
	if e.Name != "" {
		fmt.Fprintf(&b, "event: %s\n", e.Name)
	}
	for _, line := range strings.Split(e.Data, "\n") {
		fmt.Fprintf(&b, "data: %s\n", line)
	}
	b.WriteString("\n")

	n, err := io.WriteString(w, b.String())
	return int64(n), err
}

type Client struct {
	Msg     chan Event
	DraftID model.DraftID
}

func NewClient(id model.DraftID) *Client {
	return &Client{
		Msg:     make(chan Event, 8),
		DraftID: id,
	}
}

type SSEClients struct {
	clients map[*Client]bool
	mu      sync.RWMutex
}

func NewSSEClients() *SSEClients {
	return &SSEClients{
		clients: make(map[*Client]bool),
	}
}

func (s *SSEClients) Add(client *Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients[client] = true
}

func (s *SSEClients) Delete(client *Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clients[client]; !ok {
		return
	}
	delete(s.clients, client)
	close(client.Msg)
}

func (s *SSEClients) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// Broadcast sends ev to every client following draftID. Slow clients miss
// the event instead of blocking the sender.
func (s *SSEClients) Broadcast(draftID model.DraftID, ev Event) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sent := 0
	for client := range s.clients {
		if client.DraftID != draftID {
			continue
		}
		select {
		case client.Msg <- ev:
			sent++
		default:
		}
	}
	return sent
}

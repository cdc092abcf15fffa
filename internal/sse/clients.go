// Package sse provides Server-Sent Events client management for change notifications.
package sse

import (
	"sync"

	"github.com/debemdeboas/folio/internal/model"
)

type Client struct {
	Msg chan string
	// Kind filters events; empty receives every kind.
	Kind model.Kind
}

func NewClient(kind model.Kind) *Client {
	return &Client{Msg: make(chan string, 16), Kind: kind}
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
	if s.clients[client] {
		delete(s.clients, client)
		close(client.Msg)
	}
}

func (s *SSEClients) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// Broadcast hands msg to every client watching kind. Slow clients miss messages
// instead of blocking the sender.
func (s *SSEClients) Broadcast(kind model.Kind, msg string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for client := range s.clients {
		if client.Kind == "" || client.Kind == kind {
			select {
			case client.Msg <- msg:
			default:
			}
		}
	}
}

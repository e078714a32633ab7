package ws

import "context"

// EventHandler receives client lifecycle and messages. All calls happen on the
// hub goroutine, so implementations need no locking.
type EventHandler interface {
	OnConnect(c *Client)
	OnDisconnect(c *Client)
	OnMessage(c *Client, msg Message)
}

type clientMessage struct {
	client *Client
	msg    Message
}

// Hub owns the set of connected clients and serializes everything that
// touches game state.
type Hub struct {
	clients map[*Client]bool

	register   chan *Client
	unregister chan *Client
	incoming   chan clientMessage
	tasks      chan func()
	done       chan struct{}

	handler EventHandler
}

func NewHub(handler EventHandler) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		incoming:   make(chan clientMessage),
		tasks:      make(chan func()),
		done:       make(chan struct{}),
		handler:    handler,
	}
}

// Run processes hub traffic until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for client := range h.clients {
				delete(h.clients, client)
				close(client.send)
			}
			return
		case client := <-h.register:
			h.clients[client] = true
			h.handler.OnConnect(client)
		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				// Closing send stops the client's writeLoop.
				close(client.send)
				h.handler.OnDisconnect(client)
			}
		case m := <-h.incoming:
			if h.clients[m.client] {
				h.handler.OnMessage(m.client, m.msg)
			}
		case fn := <-h.tasks:
			fn()
		}
	}
}

// Do runs fn on the hub goroutine. It reports false once the hub has stopped.
func (h *Hub) Do(fn func()) bool {
	select {
	case h.tasks <- fn:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) enqueue(m clientMessage) bool {
	select {
	case h.incoming <- m:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) join(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) leave(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

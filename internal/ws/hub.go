package ws

import (
	"context"
	"encoding/json"

	"github.com/Abubakar312/chat-app-backend/internal/chat"
	"github.com/Abubakar312/chat-app-backend/internal/metrics"
	"github.com/rs/zerolog"
)

// delivery is a serialized frame and the connections it is addressed to.
// Exactly one of client, room, users or all selects the targets.
type delivery struct {
	client  *Client
	room    string
	users   []string
	all     bool
	payload []byte
}

// request is a client state change the caller waits on.
type request struct {
	client *Client
	room   string
	done   chan struct{}
}

// Hub is the single dispatcher that owns connections, presence and rooms.
// Every mutation of them happens on the goroutine running Run.
type Hub struct {
	// Registered clients.
	clients map[*Client]bool

	presence *Presence
	rooms    *Rooms

	register   chan *Client
	unregister chan *Client
	setup      chan request
	join       chan request
	leave      chan request
	outbound   chan delivery
	snapshot   chan chan []string

	done   chan struct{}
	logger zerolog.Logger
}

func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		presence:   NewPresence(),
		rooms:      NewRooms(),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		setup:      make(chan request),
		join:       make(chan request),
		leave:      make(chan request),
		outbound:   make(chan delivery, 256),
		snapshot:   make(chan chan []string),
		done:       make(chan struct{}),
		logger:     logger.With().Str("component", "hub").Logger(),
	}
}

// Run dispatches until ctx is cancelled, then closes every connection.
func (h *Hub) Run(ctx context.Context) {
	defer h.shutdown()

	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.register:
			h.clients[client] = true
			metrics.WSConnections.Set(float64(len(h.clients)))
			client.logger.Debug().Msg("client registered")

		case client := <-h.unregister:
			h.remove(client)

		case req := <-h.setup:
			if h.clients[req.client] {
				h.presence.SetOnline(req.client.userID, req.client)
				h.presenceChanged()
			}
			close(req.done)

		case req := <-h.join:
			if h.clients[req.client] && h.rooms.Join(req.client, req.room) {
				req.client.logger.Debug().Str("room", req.room).Msg("joined room")
			}
			close(req.done)

		case req := <-h.leave:
			h.rooms.Leave(req.client, req.room)
			close(req.done)

		case d := <-h.outbound:
			h.deliver(d)

		case reply := <-h.snapshot:
			reply <- h.presence.Online()
		}
	}
}

func (h *Hub) shutdown() {
	close(h.done)
	for client := range h.clients {
		close(client.send)
		delete(h.clients, client)
	}
	metrics.WSConnections.Set(0)
	metrics.OnlineUsers.Set(0)
}

// remove forgets client and closes its send buffer. It is a no-op for a
// client that is already gone.
func (h *Hub) remove(client *Client) {
	if !h.clients[client] {
		return
	}
	delete(h.clients, client)
	close(client.send)
	h.rooms.LeaveAll(client)
	metrics.WSConnections.Set(float64(len(h.clients)))
	client.logger.Debug().Msg("client unregistered")

	if h.presence.SetOffline(client) {
		h.presenceChanged()
	}
}

func (h *Hub) presenceChanged() {
	online := h.presence.Online()
	metrics.OnlineUsers.Set(float64(len(online)))
	payload, err := json.Marshal(Outbound{Event: chat.EventOnlineUsers, Data: online})
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to encode online users")
		return
	}
	h.deliver(delivery{all: true, payload: payload})
}

func (h *Hub) deliver(d delivery) {
	var targets []*Client
	switch {
	case d.client != nil:
		targets = []*Client{d.client}
	case d.room != "":
		targets = h.rooms.Members(d.room)
	case d.all:
		targets = make([]*Client, 0, len(h.clients))
		for client := range h.clients {
			targets = append(targets, client)
		}
	default:
		wanted := make(map[string]bool, len(d.users))
		for _, id := range d.users {
			wanted[id] = true
		}
		for client := range h.clients {
			if wanted[client.userID] {
				targets = append(targets, client)
			}
		}
	}

	var slow []*Client
	for _, client := range targets {
		if !h.clients[client] {
			continue
		}
		select {
		case client.send <- d.payload:
		default:
			slow = append(slow, client)
		}
	}
	for _, client := range slow {
		client.logger.Warn().Msg("dropping slow client")
		h.remove(client)
	}
}

func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		close(client.send)
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Setup marks the client's user online and waits until the hub applied it.
func (h *Hub) Setup(client *Client) {
	h.await(h.setup, request{client: client, done: make(chan struct{})})
}

// Join subscribes client to a room. The caller is responsible for checking
// that the user belongs to the conversation.
func (h *Hub) Join(client *Client, room string) {
	h.await(h.join, request{client: client, room: room, done: make(chan struct{})})
}

func (h *Hub) Leave(client *Client, room string) {
	h.await(h.leave, request{client: client, room: room, done: make(chan struct{})})
}

func (h *Hub) await(ch chan request, req request) {
	select {
	case ch <- req:
	case <-h.done:
		return
	}
	select {
	case <-req.done:
	case <-h.done:
	}
}

// Online returns the current presence snapshot, or nil once the hub stopped.
func (h *Hub) Online() []string {
	reply := make(chan []string, 1)
	select {
	case h.snapshot <- reply:
	case <-h.done:
		return nil
	}
	select {
	case online := <-reply:
		return online
	case <-h.done:
		return nil
	}
}

func (h *Hub) BroadcastToRoom(conversationID, event string, data any) {
	h.enqueue(delivery{room: conversationID}, event, data)
}

func (h *Hub) SendToUsers(userIDs []string, event string, data any) {
	if len(userIDs) == 0 {
		return
	}
	h.enqueue(delivery{users: userIDs}, event, data)
}

// Reply sends an event to a single connection.
func (h *Hub) Reply(client *Client, event string, data any) {
	h.enqueue(delivery{client: client}, event, data)
}

func (h *Hub) enqueue(d delivery, event string, data any) {
	payload, err := json.Marshal(Outbound{Event: event, Data: data})
	if err != nil {
		h.logger.Error().Err(err).Str("event", event).Msg("failed to encode event")
		return
	}
	d.payload = payload
	select {
	case h.outbound <- d:
	case <-h.done:
	}
}

var _ chat.Broadcaster = (*Hub)(nil)

package chatws

import (
	"context"
	"encoding/json"
	"errors"
	"log"

	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"

	"github.com/Mohit-kumar-saw/court-kuchery-backend/internal/models"
	"github.com/Mohit-kumar-saw/court-kuchery-backend/internal/services"
)

// Hub fans socket traffic out to connected participants. All maps are owned
// by the Run goroutine; everything else talks to it over channels, so no
// mutex guards the client sets.
type Hub struct {
	clients    map[int64]map[*Client]struct{}
	rooms      map[uuid.UUID]map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	join       chan roomChange
	leave      chan roomChange
	outbound   chan delivery
}

type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	userID int64
	send   chan []byte
}

type roomChange struct {
	client    *Client
	sessionID uuid.UUID
}

type delivery struct {
	userID    int64
	sessionID uuid.UUID
	client    *Client
	toRoom    bool
	payload   []byte
}

// Envelope is the wire shape of every frame the hub writes.
type Envelope struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

type relay interface {
	SendMessage(
		ctx context.Context,
		senderID int64,
		sessionID uuid.UUID,
		content string,
	) (*services.ChatDelivery, error)
	EnsureParticipant(
		ctx context.Context,
		userID int64,
		sessionID uuid.UUID,
	) (*models.ConsultSession, error)
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[int64]map[*Client]struct{}),
		rooms:      make(map[uuid.UUID]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		join:       make(chan roomChange),
		leave:      make(chan roomChange),
		outbound:   make(chan delivery, 64),
	}
}

func NewClient(hub *Hub, conn *websocket.Conn, userID int64) *Client {
	return &Client{
		hub:    hub,
		conn:   conn,
		userID: userID,
		send:   make(chan []byte, 32),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			set, ok := h.clients[client.userID]
			if !ok {
				set = make(map[*Client]struct{})
				h.clients[client.userID] = set
			}
			set[client] = struct{}{}
		case client := <-h.unregister:
			h.drop(client)
		case change := <-h.join:
			set, ok := h.rooms[change.sessionID]
			if !ok {
				set = make(map[*Client]struct{})
				h.rooms[change.sessionID] = set
			}
			set[change.client] = struct{}{}
		case change := <-h.leave:
			h.leaveRoom(change.client, change.sessionID)
		case d := <-h.outbound:
			switch {
			case d.client != nil:
				h.sendToClient(d.client, d.payload)
			case d.toRoom:
				h.sendToRoom(d.sessionID, d.payload)
			default:
				h.sendToUser(d.userID, d.payload)
			}
		}
	}
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// NotifyUser implements services.Notifier. Encoding failures and closed
// sockets are logged and swallowed; delivery is best-effort.
func (h *Hub) NotifyUser(userID int64, event string, payload any) {
	encoded, err := json.Marshal(Envelope{Event: event, Data: payload})
	if err != nil {
		log.Printf("chat hub encode %s: %v", event, err)
		return
	}
	h.outbound <- delivery{userID: userID, payload: encoded}
}

// NotifySession implements services.Notifier for session-room delivery.
func (h *Hub) NotifySession(sessionID uuid.UUID, event string, payload any) {
	encoded, err := json.Marshal(Envelope{Event: event, Data: payload})
	if err != nil {
		log.Printf("chat hub encode %s: %v", event, err)
		return
	}
	h.outbound <- delivery{sessionID: sessionID, toRoom: true, payload: encoded}
}

func (h *Hub) drop(client *Client) {
	for sessionID := range h.rooms {
		h.leaveRoom(client, sessionID)
	}

	set, ok := h.clients[client.userID]
	if !ok {
		return
	}
	if _, exists := set[client]; exists {
		delete(set, client)
		close(client.send)
	}
	if len(set) == 0 {
		delete(h.clients, client.userID)
	}
}

func (h *Hub) leaveRoom(client *Client, sessionID uuid.UUID) {
	set, ok := h.rooms[sessionID]
	if !ok {
		return
	}
	delete(set, client)
	if len(set) == 0 {
		delete(h.rooms, sessionID)
	}
}

func (h *Hub) sendToUser(userID int64, payload []byte) {
	set, ok := h.clients[userID]
	if !ok {
		return
	}

	for client := range set {
		select {
		case client.send <- payload:
		default:
			delete(set, client)
			close(client.send)
		}
	}
	if len(set) == 0 {
		delete(h.clients, userID)
	}
}

// sendToClient targets one connection. The registration check keeps the Run
// goroutine from writing to a send channel it already closed on eviction.
func (h *Hub) sendToClient(client *Client, payload []byte) {
	set, ok := h.clients[client.userID]
	if !ok {
		return
	}
	if _, exists := set[client]; !exists {
		return
	}

	select {
	case client.send <- payload:
	default:
		delete(set, client)
		close(client.send)
		if len(set) == 0 {
			delete(h.clients, client.userID)
		}
	}
}

func (h *Hub) sendToRoom(sessionID uuid.UUID, payload []byte) {
	set, ok := h.rooms[sessionID]
	if !ok {
		return
	}

	for client := range set {
		select {
		case client.send <- payload:
		default:
			h.leaveRoom(client, sessionID)
		}
	}
}

func (c *Client) ReadPump(service relay) {
	defer func() {
		c.hub.Unregister(c)
		_ = c.conn.Close()
	}()

	for {
		_, payload, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var incoming struct {
			Event     string `json:"event"`
			SessionID string `json:"sessionId"`
			Content   string `json:"content"`
		}
		if err := json.Unmarshal(payload, &incoming); err != nil {
			writeError(c, "invalid message payload")
			continue
		}

		sessionID, err := uuid.Parse(incoming.SessionID)
		if err != nil {
			writeError(c, "invalid session id")
			continue
		}

		switch incoming.Event {
		case "JOIN_SESSION":
			if _, err := service.EnsureParticipant(
				context.Background(), c.userID, sessionID,
			); err != nil {
				writeError(c, "not a session participant")
				continue
			}
			c.hub.join <- roomChange{client: c, sessionID: sessionID}
		case "LEAVE_SESSION":
			c.hub.leave <- roomChange{client: c, sessionID: sessionID}
		case "SEND_MESSAGE":
			d, err := service.SendMessage(
				context.Background(), c.userID, sessionID, incoming.Content,
			)
			if err != nil {
				writeError(c, sendErrorText(err))
				continue
			}
			// Room delivery reaches the sender's echo and the other
			// participant when both have joined; a recipient outside
			// the room catches up through GET /chat/:sessionId.
			c.hub.NotifySession(sessionID, services.EventReceiveMessage, d.Message)
		default:
			writeError(c, "unsupported event")
		}
	}
}

func (c *Client) WritePump() {
	defer func() {
		_ = c.conn.Close()
	}()

	for payload := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			return
		}
	}
}

func sendErrorText(err error) string {
	switch {
	case errors.Is(err, services.ErrSessionNotActive):
		return "session is not active"
	case errors.Is(err, services.ErrForbidden):
		return "not a session participant"
	case errors.Is(err, services.ErrInvalidInput):
		return "invalid message content"
	default:
		return "failed to send message"
	}
}

func writeError(client *Client, message string) {
	payload, err := json.Marshal(Envelope{
		Event: "ERROR",
		Data:  map[string]string{"message": message},
	})
	if err != nil {
		return
	}
	client.hub.outbound <- delivery{client: client, payload: payload}
}

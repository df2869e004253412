package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	wsWriteWait      = 10 * time.Second
	wsSendBuffer     = 64
	maxWSMessageSize = 512 * 1024
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// wsEnvelope is the wire shape in both directions: clients send
// {action, data}, the server sends {event, data}.
type wsEnvelope struct {
	Action string          `json:"action,omitempty"`
	Event  string          `json:"event,omitempty"`
	Data   json.RawMessage `json:"data,omitempty"`
}

type outEnvelope struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

// wsClient is one connection. All writes go through the send channel
// and a single writer goroutine, so concurrent broadcasts never touch
// the conn directly.
type wsClient struct {
	hub      *wsHub
	conn     *websocket.Conn
	send     chan []byte
	playerID string
}

type wsHub struct {
	server *Server

	mu      sync.Mutex
	clients map[string]*wsClient
}

func newWSHub(server *Server) *wsHub {
	return &wsHub{
		server:  server,
		clients: make(map[string]*wsClient),
	}
}

func (h *wsHub) register(client *wsClient) {
	h.mu.Lock()
	if previous, ok := h.clients[client.playerID]; ok {
		close(previous.send)
	}
	h.clients[client.playerID] = client
	h.mu.Unlock()
}

func (h *wsHub) unregister(client *wsClient) {
	h.mu.Lock()
	if current, ok := h.clients[client.playerID]; ok && current == client {
		delete(h.clients, client.playerID)
		close(client.send)
	}
	h.mu.Unlock()
}

// deliver queues a frame for one client, dropping it if the client's
// buffer is full. A slow consumer loses events rather than stalling a
// room's critical section.
func (h *wsHub) deliver(client *wsClient, frame []byte) {
	select {
	case client.send <- frame:
	default:
		h.server.log.Warn().Str("player_id", client.playerID).
			Msg("dropping frame for slow websocket client")
	}
}

func encodeFrame(event string, payload any) ([]byte, bool) {
	frame, err := json.Marshal(outEnvelope{Event: event, Data: payload})
	if err != nil {
		return nil, false
	}
	return frame, true
}

func (h *wsHub) ToPlayer(playerID, event string, payload any) {
	frame, ok := encodeFrame(event, payload)
	if !ok {
		return
	}
	h.mu.Lock()
	client, found := h.clients[playerID]
	h.mu.Unlock()
	if found {
		h.deliver(client, frame)
	}
}

func (h *wsHub) ToRoom(roomID, event string, payload any) {
	frame, ok := encodeFrame(event, payload)
	if !ok {
		return
	}
	h.mu.Lock()
	clients := make([]*wsClient, 0, len(h.clients))
	for _, client := range h.clients {
		clients = append(clients, client)
	}
	h.mu.Unlock()

	for _, client := range clients {
		if id, ok := h.server.registry.RoomForPlayer(client.playerID); ok && id == roomID {
			h.deliver(client, frame)
		}
	}
}

func (h *wsHub) ToAll(event string, payload any) {
	frame, ok := encodeFrame(event, payload)
	if !ok {
		return
	}
	h.mu.Lock()
	clients := make([]*wsClient, 0, len(h.clients))
	for _, client := range h.clients {
		clients = append(clients, client)
	}
	h.mu.Unlock()

	for _, client := range clients {
		h.deliver(client, frame)
	}
}

// handleWebsocket upgrades the connection and runs the read loop. The
// player identity comes from the player_id query parameter, letting a
// dropped client reconnect as itself; absent one, a fresh id is issued.
func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	playerID := normalizeText(r.URL.Query().Get("player_id"))
	if playerID == "" || !isSafeText(playerID) {
		playerID = newPlayerID()
	}
	client := &wsClient{
		hub:      s.hub,
		conn:     conn,
		send:     make(chan []byte, wsSendBuffer),
		playerID: playerID,
	}
	s.hub.register(client)
	s.events.ToPlayer(playerID, eventConnected, map[string]any{"player_id": playerID})

	go client.writeLoop()
	client.readLoop(s)
}

func (c *wsClient) writeLoop() {
	defer c.conn.Close()
	for frame := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
			return
		}
	}
	c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}

func (c *wsClient) readLoop(s *Server) {
	defer func() {
		c.hub.unregister(c)
		s.Disconnect(c.playerID)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxWSMessageSize)
	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var envelope wsEnvelope
		if err := json.Unmarshal(raw, &envelope); err != nil {
			s.sendActionError(c.playerID, "", errors.New("malformed message"))
			continue
		}
		s.dispatchAction(c.playerID, envelope.Action, envelope.Data)
	}
}

func (s *Server) sendActionError(playerID, action string, err error) {
	s.events.ToPlayer(playerID, eventActionError, map[string]any{
		"action": action,
		"error":  err.Error(),
	})
}

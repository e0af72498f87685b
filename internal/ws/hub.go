package ws

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"fleet-service/internal/model"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

type statusEvent struct {
	VehicleID string    `json:"vehicle_id"`
	Status    string    `json:"status"`
	Mileage   int64     `json:"mileage"`
	ChangedAt time.Time `json:"changed_at"`
}

type statusMessage struct {
	Type string      `json:"type"`
	Data statusEvent `json:"data"`
}

// Hub fans vehicle status changes out to connected clients. The feed is
// one-way; inbound frames are read only to detect closed connections.
type Hub struct {
	clients    map[*client]bool
	register   chan *client
	unregister chan *client
	broadcast  chan []byte
	log        zerolog.Logger
}

func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		clients:    make(map[*client]bool),
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan []byte, 64),
		log:        log,
	}
}

// Run owns the client set. Start it in its own goroutine before serving
// the first connection.
func (h *Hub) Run() {
	for {
		select {
		case c := <-h.register:
			h.clients[c] = true

		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}

		case message := <-h.broadcast:
			for c := range h.clients {
				select {
				case c.send <- message:
				default:
					delete(h.clients, c)
					close(c.send)
				}
			}
		}
	}
}

// BroadcastVehicleStatus queues a status event for every connected
// client. It never blocks: when the feed is backlogged the event is
// dropped, clients resync from the REST API anyway.
func (h *Hub) BroadcastVehicleStatus(v *model.Vehicle) {
	msg := statusMessage{
		Type: "vehicle_status",
		Data: statusEvent{
			VehicleID: v.ID.String(),
			Status:    string(v.Status),
			Mileage:   v.Mileage,
			ChangedAt: time.Now().UTC(),
		},
	}
	data, err := json.Marshal(msg)
	if err != nil {
		h.log.Error().Err(err).Msg("marshal vehicle status event")
		return
	}

	select {
	case h.broadcast <- data:
	default:
		h.log.Warn().Msg("status feed backlogged, event dropped")
	}
}

// Serve upgrades the request and attaches the connection to the hub.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	c := &client{conn: conn, send: make(chan []byte, 16)}
	h.register <- c

	go c.writePump()
	go c.readPump(h)
}

func (c *client) writePump() {
	defer c.conn.Close()

	for message := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
	c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}

func (c *client) readPump(h *Hub) {
	defer func() {
		h.unregister <- c
		c.conn.Close()
	}()

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

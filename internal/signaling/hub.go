package signaling

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/kindlyrobotics/huddle/internal/models"
	"github.com/kindlyrobotics/huddle/internal/registry"
)

type inboundFrame struct {
	client *Client
	msg    models.WSMessage
}

// Hub routes signaling traffic between websocket connections. A single
// goroutine (Run) consumes the register/unregister/inbound channels, so every
// membership mutation and the broadcast computed from it happen atomically
// with respect to other connections' events.
//
// The hub holds no room state of its own; the injected registry is the
// authority on rooms and membership.
type Hub struct {
	registry *registry.Registry

	// clients maps connection id to the live client.
	clients map[string]*Client

	register   chan *Client
	unregister chan *Client
	inbound    chan inboundFrame

	log *logrus.Entry
}

func NewHub(reg *registry.Registry) *Hub {
	return &Hub{
		registry:   reg,
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		inbound:    make(chan inboundFrame, 256),
		log:        logrus.WithField("component", "hub"),
	}
}

// HandleConnection registers an accepted websocket and starts its pumps.
// Called from the HTTP upgrade handler.
func (h *Hub) HandleConnection(conn *websocket.Conn) {
	client := &Client{
		ID:   uuid.New().String(),
		hub:  h,
		conn: conn,
		send: make(chan []byte, 256),
	}
	h.register <- client
	go client.WritePump()
	go client.ReadPump()
}

// Run is the hub's event loop. It exits when ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	h.log.Info("Hub running")
	for {
		select {
		case client := <-h.register:
			h.clients[client.ID] = client
			h.log.WithField("connection_id", client.ID).Info("Client connected")

		case client := <-h.unregister:
			h.handleDisconnect(client)

		case frame := <-h.inbound:
			h.handleMessage(frame.client, frame.msg)

		case <-ctx.Done():
			h.log.Info("Hub shutting down")
			return
		}
	}
}

func (h *Hub) handleMessage(c *Client, msg models.WSMessage) {
	// ReadPump queues its frames before the unregister, and the event loop
	// picks between ready channels in arbitrary order, so a frame can arrive
	// here after its client was unregistered and its send channel closed.
	// Such frames are dropped.
	if _, registered := h.clients[c.ID]; !registered {
		return
	}

	switch msg.Type {
	case models.TypeJoinRoom:
		h.handleJoin(c, msg)
	case models.TypeOffer, models.TypeAnswer, models.TypeICECandidate:
		h.handleRelay(c, msg)
	case models.TypeLeaveRoom:
		h.handleLeave(c)
	default:
		h.log.WithFields(logrus.Fields{
			"connection_id": c.ID,
			"type":          msg.Type,
		}).Warn("Unknown message type")
		h.sendError(c, "unknown message type: "+msg.Type)
	}
}

// handleJoin resolves the room per the creating flag and admits the
// connection. A connection may occupy at most one room: a second join is a
// protocol error and leaves the existing membership untouched.
func (h *Hub) handleJoin(c *Client, msg models.WSMessage) {
	if c.state == stateJoined {
		h.sendError(c, "already joined a room")
		return
	}
	if c.state == stateLeft {
		h.sendError(c, "connection has left; reconnect to join again")
		return
	}
	if msg.RoomID == "" {
		h.sendError(c, "roomId is required")
		return
	}

	member := models.Member{
		ConnectionID: c.ID,
		UserID:       msg.UserID,
		UserName:     msg.UserName,
	}

	others, err := h.registry.Join(msg.RoomID, member, msg.Creating)
	if errors.Is(err, registry.ErrRoomNotFound) {
		h.send(c, models.WSMessage{Type: models.TypeRoomNotFound, RoomID: msg.RoomID})
		return
	}
	if err != nil {
		h.sendError(c, err.Error())
		return
	}

	c.roomID = msg.RoomID
	c.state = stateJoined

	// Tell the room about the newcomer, then hand the newcomer the members
	// it should open negotiations with. Both lists come from the same
	// registry snapshot, so no participant appears in one and not the other.
	for _, other := range others {
		h.sendTo(other.ConnectionID, models.WSMessage{
			Type:         models.TypeUserJoined,
			UserID:       member.UserID,
			UserName:     member.UserName,
			ConnectionID: c.ID,
		})
	}

	h.send(c, models.WSMessage{
		Type:         models.TypeRoomParticipants,
		RoomID:       msg.RoomID,
		Participants: others,
	})
	h.send(c, models.WSMessage{Type: models.TypeRoomJoined, RoomID: msg.RoomID})
}

// handleRelay forwards a negotiation payload untouched to the target
// connection, stamped with the sender's id. A vanished target is a benign
// race: the frame is dropped without notifying the sender.
func (h *Hub) handleRelay(c *Client, msg models.WSMessage) {
	if c.state != stateJoined {
		h.sendError(c, "join a room before signaling")
		return
	}
	if msg.TargetID == "" {
		h.sendError(c, "targetId is required")
		return
	}

	target, ok := h.clients[msg.TargetID]
	if !ok {
		h.log.WithFields(logrus.Fields{
			"connection_id": c.ID,
			"target_id":     msg.TargetID,
			"type":          msg.Type,
		}).Debug("Relay target gone, dropping")
		return
	}

	h.send(target, models.WSMessage{
		Type:     msg.Type,
		SenderID: c.ID,
		Payload:  msg.Payload,
	})
}

func (h *Hub) handleLeave(c *Client) {
	if c.state != stateJoined {
		h.sendError(c, "not in a room")
		return
	}
	h.departRoom(c)
	c.state = stateLeft
}

func (h *Hub) handleDisconnect(c *Client) {
	if _, known := h.clients[c.ID]; !known {
		return
	}
	if c.state == stateJoined {
		h.departRoom(c)
	}
	c.state = stateLeft
	delete(h.clients, c.ID)
	close(c.send)
	h.log.WithField("connection_id", c.ID).Info("Client disconnected")
}

// departRoom removes the connection from its room and notifies the remaining
// members exactly once.
func (h *Hub) departRoom(c *Client) {
	roomID, member, remaining, ok := h.registry.Leave(c.ID)
	if !ok {
		return
	}
	c.roomID = ""
	for _, m := range remaining {
		h.sendTo(m.ConnectionID, models.WSMessage{
			Type:         models.TypeUserLeft,
			RoomID:       roomID,
			UserID:       member.UserID,
			ConnectionID: c.ID,
		})
	}
}

func (h *Hub) sendTo(connectionID string, msg models.WSMessage) {
	client, ok := h.clients[connectionID]
	if !ok {
		return
	}
	h.send(client, msg)
}

// send marshals and queues a frame without blocking. A full send buffer means
// the client is not keeping up; its WritePump tears the connection down when
// writes stall.
func (h *Hub) send(c *Client, msg models.WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.log.WithError(err).Error("Failed to marshal outbound frame")
		return
	}
	select {
	case c.send <- data:
	default:
		h.log.WithField("connection_id", c.ID).Warn("Send buffer full, dropping frame")
	}
}

func (h *Hub) sendError(c *Client, reason string) {
	h.send(c, models.WSMessage{Type: models.TypeError, Error: reason})
}

package models

import (
	"encoding/json"
	"time"
)

// Member is one connection's participation record within a room.
type Member struct {
	// ConnectionID is assigned by the transport layer when the websocket is
	// accepted. Unique per live connection.
	ConnectionID string `json:"connectionId"`

	// UserID is the client-chosen identity. Stable across reconnects from
	// the same logical user; not verified.
	UserID string `json:"userId"`

	// UserName is a free-text display label.
	UserName string `json:"userName"`
}

// Room is a named group of connections permitted to negotiate peer-to-peer
// media with each other. Members are kept in join order.
type Room struct {
	ID        string
	CreatedAt time.Time

	// Durable rooms are written to the persistence snapshot and survive a
	// restart (existence only, never membership).
	Durable bool

	Members []Member
}

// MemberByConnection returns the member entry for a connection, if present.
func (r *Room) MemberByConnection(connectionID string) (Member, bool) {
	for _, m := range r.Members {
		if m.ConnectionID == connectionID {
			return m, true
		}
	}
	return Member{}, false
}

// RoomInfo is the management API view of a room.
type RoomInfo struct {
	RoomID       string    `json:"roomId"`
	Participants int       `json:"participants"`
	CreatedAt    time.Time `json:"createdAt"`
	Exists       bool      `json:"exists,omitempty"`
}

// ContactMessage is a message submitted through the contact form.
type ContactMessage struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Signaling message types exchanged over the websocket. Inbound and outbound
// frames share one envelope; negotiation payloads stay opaque RawMessage and
// are relayed verbatim.
const (
	// Client -> server
	TypeJoinRoom     = "join-room"
	TypeLeaveRoom    = "leave-room"
	TypeOffer        = "offer"
	TypeAnswer       = "answer"
	TypeICECandidate = "ice-candidate"

	// Server -> client
	TypeRoomJoined       = "room-joined"
	TypeRoomNotFound     = "room-not-found"
	TypeRoomParticipants = "room-participants"
	TypeUserJoined       = "user-joined"
	TypeUserLeft         = "user-left"
	TypeError            = "error"
)

// WSMessage is the websocket envelope.
type WSMessage struct {
	Type   string `json:"type"`
	RoomID string `json:"roomId,omitempty"`

	// Join fields.
	UserID   string `json:"userId,omitempty"`
	UserName string `json:"userName,omitempty"`
	Creating bool   `json:"creating,omitempty"`

	// Relay addressing. TargetID names the recipient connection on inbound
	// frames; SenderID is stamped by the server on relayed frames so the
	// recipient knows provenance.
	TargetID string `json:"targetId,omitempty"`
	SenderID string `json:"senderId,omitempty"`

	// ConnectionID identifies the subject of membership events.
	ConnectionID string `json:"connectionId,omitempty"`

	// Participants carries the existing-members list sent to a joiner.
	Participants []Member `json:"participants,omitempty"`

	// Payload is the opaque negotiation body (SDP, ICE candidate).
	Payload json.RawMessage `json:"payload,omitempty"`

	// Error holds a human-readable message on type "error".
	Error string `json:"error,omitempty"`
}

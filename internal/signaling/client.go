package signaling

import (
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/kindlyrobotics/huddle/internal/models"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer. 64 KB fits the largest SDP
	// payloads with room to spare.
	maxMessageSize = 64 * 1024
)

type connState int

const (
	stateUnjoined connState = iota
	stateJoined
	stateLeft
)

// Client wraps a single websocket connection. All of its mutable fields
// (state, roomID) are touched only from the hub goroutine.
type Client struct {
	ID   string
	hub  *Hub
	conn *websocket.Conn

	// send is the buffered channel of outbound frames. The hub closes it
	// when the client unregisters, which stops WritePump.
	send chan []byte

	roomID string
	state  connState
}

// ReadPump pumps frames from the websocket to the hub. It runs in its own
// goroutine; the hub sees a disconnect when it exits.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var msg models.WSMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logrus.WithField("connection_id", c.ID).WithError(err).Warn("Websocket read error")
			}
			break
		}
		c.hub.inbound <- inboundFrame{client: c, msg: msg}
	}
}

// WritePump pumps frames from the send channel to the websocket and keeps the
// connection alive with periodic pings. One WritePump goroutine per
// connection is the only writer on it.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

package ws

import (
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
	sendBuffer     = 512
)

// Client is one WebSocket connection.
type Client struct {
	ID string

	conn *websocket.Conn
	hub  *Hub
	send chan Message
	log  *logrus.Entry
}

func newClient(conn *websocket.Conn, hub *Hub, log *logrus.Entry) *Client {
	id := uuid.NewString()
	return &Client{
		ID:   id,
		conn: conn,
		hub:  hub,
		send: make(chan Message, sendBuffer),
		log:  log.WithFields(logrus.Fields{"client": id, "remote": conn.RemoteAddr().String()}),
	}
}

// Send queues msg without blocking the hub. A client that cannot keep up loses
// the message; it can recover with get_state.
func (c *Client) Send(msg Message) {
	select {
	case c.send <- msg:
	default:
		c.log.WithField("type", msg.Type).Warn("send buffer full, dropping message")
	}
}

func (c *Client) readLoop() {
	defer func() {
		c.hub.leave(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.log.WithError(err).Warn("unexpected close")
			}
			return
		}
		if !c.hub.enqueue(clientMessage{client: c, msg: msg}) {
			return
		}
	}
}

func (c *Client) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				c.log.WithError(err).Debug("write failed")
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

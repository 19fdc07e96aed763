package push

import (
	"encoding/json"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/careline/go-careline/internal/messaging"
	"github.com/careline/go-careline/internal/stats"
	"github.com/careline/go-careline/internal/types"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingInterval   = (pongWait * 9) / 10
	maxMessageSize = 4096
)

type Client struct {
	conn     *websocket.Conn
	ps       *PushServer
	log      *log.Logger
	session  types.Session
	send     chan *ServerMessage
	stop     chan struct{}
	stopOnce sync.Once
}

func NewClient(session types.Session, conn *websocket.Conn, ps *PushServer, l *log.Logger) *Client {
	return &Client{
		conn:    conn,
		ps:      ps,
		log:     l,
		session: session,
		send:    make(chan *ServerMessage, 256),
		stop:    make(chan struct{}),
	}
}

func (c *Client) Write() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				return
			}

			bytes, err := json.Marshal(msg)
			if err != nil {
				c.log.Println("failed to serialize message:", err)
				continue
			}

			if !c.sendMessage(websocket.TextMessage, bytes) {
				return
			}
		case <-c.stop:
			return
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !c.sendMessage(websocket.PingMessage, nil) {
				return
			}
		}
	}
}

func (c *Client) Read() {
	defer func() {
		c.conn.Close()
		c.cleanup()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(appData string) error { c.conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })
	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				c.log.Printf("ws: read: %v", err)
			}
			break
		}

		var msg ClientMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			c.log.Println("error parsing message:", err)
			c.queueMessage(ErrInvalidMessage(-1))
			continue
		}

		msg.client = c
		msg.session = c.session
		msg.Timestamp = Now()

		if msg.Publish != nil {
			c.handlePublish(&msg)
		}
	}
}

// handlePublish routes a websocket send through the same messaging
// service as the REST path, then notifies the receiver's connections.
func (c *Client) handlePublish(msg *ClientMessage) {
	select {
	case <-c.ps.done:
		c.queueMessage(ErrServiceUnavailable(msg.Id))
		return
	default:
	}

	callerId := c.session.UserId
	if c.session.Role == types.RoleDoctor {
		callerId = c.session.DoctorId
	}

	chat, err := c.ps.messages.Send(c.session.Role, callerId, msg.Publish.CounterpartId, msg.Publish.Body)
	if err != nil {
		switch {
		case errors.Is(err, messaging.ErrEmptyMessage):
			c.queueMessage(ErrBadRequest(msg.Id, err.Error()))
		case errors.Is(err, messaging.ErrDoctorNotFound):
			c.queueMessage(ErrRecipientNotFound(msg.Id))
		default:
			c.log.Println("publish:", err)
			c.queueMessage(ErrInternalError(msg.Id))
		}
		return
	}

	c.ps.stats.Incr(stats.MessagesSent)
	c.queueMessage(NoErrOK(msg.Id, map[string]any{"conversation_id": chat.ConversationId}))
	c.ps.Deliver(chat.ReceiverId, &ServerMessage{
		BaseMessage: BaseMessage{Timestamp: chat.Timestamp},
		Message:     &chat,
	})
}

func (c *Client) queueMessage(msg *ServerMessage) bool {
	select {
	case c.send <- msg:
	default:
		c.log.Println("failed to send message to client, channel is full")
		return false
	}

	return true
}

func (c *Client) sendMessage(msgType int, msg []byte) bool {
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))

	if err := c.conn.WriteMessage(msgType, msg); err != nil {
		if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure,
			websocket.CloseNormalClosure) {
			c.log.Printf("write message: %s", err)
		}
		return false
	}

	return true
}

func (c *Client) stopClient() {
	c.stopOnce.Do(func() { close(c.stop) })
}

func (c *Client) cleanup() {
	select {
	case c.ps.deRegisterChan <- c:
	case <-c.ps.done:
		// server already shut down
	}
	c.stopClient()
}

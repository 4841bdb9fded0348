package client

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/XavierBriggs/fortuna/services/football-dashboard/internal/session"
	"github.com/XavierBriggs/fortuna/services/football-dashboard/pkg/models"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer; cell edits carry arbitrary text
	maxMessageSize = 16 * 1024

	// Buffer size for outbound messages
	sendBufferSize = 256
)

// Client is one browser connection driving one dashboard session
type Client struct {
	ID      string
	conn    *websocket.Conn
	Send    chan models.ServerMessage
	hub     Hub
	session *session.Session

	connectedAt      time.Time
	messagesSent     int64
	messagesReceived int64
	lastMessageAt    time.Time
	lastVersion      int64
	closed           bool
	mu               sync.Mutex
}

// Hub defines the interface for the session hub
type Hub interface {
	Unregister(client *Client)
}

// NewClient creates a new client bound to a session
func NewClient(id string, conn *websocket.Conn, hub Hub, s *session.Session) *Client {
	return &Client{
		ID:          id,
		conn:        conn,
		Send:        make(chan models.ServerMessage, sendBufferSize),
		hub:         hub,
		session:     s,
		connectedAt: time.Now(),
		lastVersion: -1,
	}
}

// Session returns the session this client drives
func (c *Client) Session() *session.Session {
	return c.session
}

// ReadPump reads events from the WebSocket connection and applies them to the session
func (c *Client) ReadPump(ctx context.Context) {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		select {
		case <-ctx.Done():
			return
		default:
			var msg models.ClientMessage
			if err := c.conn.ReadJSON(&msg); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					log.Warn().Err(err).Str("client", c.ID).Msg("unexpected close")
				}
				return
			}

			c.updateReceived()
			c.handleClientMessage(ctx, msg)
		}
	}
}

// WritePump pumps messages from the session to the WebSocket connection
func (c *Client) WritePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case message, ok := <-c.Send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteJSON(message); err != nil {
				log.Warn().Err(err).Str("client", c.ID).Msg("write error")
				return
			}

			c.updateSent()

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// TrySend queues a message without blocking.
// Returns false if the buffer is full or the client is closed.
func (c *Client) TrySend(msg models.ServerMessage) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false
	}

	select {
	case c.Send <- msg:
		return true
	default:
		return false
	}
}

// Close closes the outbound channel; later sends are dropped
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.Send)
	}
}

func (c *Client) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// SendState pushes the current session state
func (c *Client) SendState() {
	c.sendState(c.session.State())
}

// GetStats returns connection statistics
func (c *Client) GetStats() models.ConnectionStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	bufferUtilization := float64(len(c.Send)) / float64(sendBufferSize) * 100.0

	return models.ConnectionStats{
		ClientID:          c.ID,
		SessionID:         c.session.ID(),
		ConnectedAt:       c.connectedAt,
		MessagesSent:      c.messagesSent,
		MessagesReceived:  c.messagesReceived,
		LastMessageAt:     c.lastMessageAt,
		BufferSize:        sendBufferSize,
		BufferUtilization: bufferUtilization,
	}
}

// handleClientMessage processes messages from the client.
// Topic and sub-filter changes fetch upstream, so they run concurrently and
// let a newer selection overtake a slow one.
func (c *Client) handleClientMessage(ctx context.Context, msg models.ClientMessage) {
	if msg.Type == models.MessageTypeHeartbeat {
		c.sendHeartbeat()
		return
	}

	ev, err := session.DecodeEvent(msg)
	if err != nil {
		c.sendEventError(err)
		return
	}

	switch ev.(type) {
	case session.TopicChanged, session.SubFilterChanged:
		go c.dispatch(ctx, ev)
	default:
		c.dispatch(ctx, ev)
	}
}

func (c *Client) dispatch(ctx context.Context, ev session.Event) {
	update, err := c.session.Handle(ctx, ev)
	if err != nil {
		c.sendEventError(err)
		return
	}
	c.deliver(update)
}

// deliver sends the state followed by any clipboard or download payload
func (c *Client) deliver(u *session.Update) {
	c.sendState(u.State)

	if u.Clipboard != nil {
		c.send(models.MessageTypeClipboard, models.ClipboardPayload{Text: *u.Clipboard})
	}

	if u.Download != nil {
		c.send(models.MessageTypeDownload, models.DownloadPayload{
			FileName:    u.Download.FileName,
			ContentType: u.Download.ContentType,
			Data:        u.Download.Data,
		})
	}
}

// sendState only sends states newer than the last one sent
func (c *Client) sendState(state models.SessionState) {
	c.mu.Lock()
	if state.Version <= c.lastVersion {
		c.mu.Unlock()
		return
	}
	c.lastVersion = state.Version
	c.mu.Unlock()

	c.send(models.MessageTypeState, state)
}

func (c *Client) send(msgType string, payload interface{}) {
	ok := c.TrySend(models.ServerMessage{
		Type:      msgType,
		Payload:   payload,
		Timestamp: time.Now(),
	})
	if !ok && !c.isClosed() {
		log.Warn().Str("client", c.ID).Str("type", msgType).Msg("client buffer full, disconnecting")
		go c.hub.Unregister(c)
	}
}

// sendHeartbeat sends a heartbeat response
func (c *Client) sendHeartbeat() {
	c.send(models.MessageTypeHeartbeat, c.GetStats())
}

func (c *Client) sendEventError(err error) {
	code := "internal_error"
	switch {
	case errors.Is(err, session.ErrUnknownEvent):
		code = "unknown_message_type"
	case session.IsInvalidEvent(err):
		code = "invalid_event"
	default:
		log.Error().Err(err).Str("client", c.ID).Msg("event failed")
	}
	c.sendError(code, err.Error())
}

// sendError sends an error message to the client
func (c *Client) sendError(code, message string) {
	c.send(models.MessageTypeError, models.ErrorMessage{
		Code:    code,
		Message: message,
	})
}

// updateSent increments the sent message counter
func (c *Client) updateSent() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messagesSent++
	c.lastMessageAt = time.Now()
}

// updateReceived increments the received message counter
func (c *Client) updateReceived() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messagesReceived++
	c.lastMessageAt = time.Now()
}

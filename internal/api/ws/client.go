package ws

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/playground/internal/shared/types"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// sendBuffer is how many messages may queue before a client counts as slow
	sendBuffer = 256
)

// client is one WebSocket connection. It implements sink.Surface so a
// session can fan output to it; writes happen on a single goroutine.
type client struct {
	conn    *websocket.Conn
	logger  *zap.Logger
	metrics Metrics

	send chan types.WSMessage
	done chan struct{}
	once sync.Once
}

func newClient(conn *websocket.Conn, logger *zap.Logger, metrics Metrics) *client {
	return &client{
		conn:    conn,
		logger:  logger,
		metrics: metrics,
		send:    make(chan types.WSMessage, sendBuffer),
		done:    make(chan struct{}),
	}
}

// enqueue queues msg without blocking. A full queue disconnects the client
// rather than stall the sink that is calling us.
func (c *client) enqueue(msg types.WSMessage) {
	msg.Timestamp = time.Now().Unix()
	select {
	case <-c.done:
	case c.send <- msg:
	default:
		c.logger.Warn("WebSocket client too slow, disconnecting")
		c.shutdown()
	}
}

func (c *client) shutdown() {
	c.once.Do(func() { close(c.done) })
}

// Append implements sink.Surface
func (c *client) Append(entry types.LogEntry) {
	c.enqueue(types.WSMessage{Type: types.WSEntry, Entry: &entry})
}

// Reset implements sink.Surface
func (c *client) Reset(banner []string) {
	c.enqueue(types.WSMessage{Type: types.WSReset, Banner: banner})
}

// SetVisible implements sink.Surface
func (c *client) SetVisible(visible bool) {
	c.enqueue(types.WSMessage{Type: types.WSVisible, Visible: &visible})
}

// render forwards a new sanitized render
func (c *client) render(html string) {
	c.enqueue(types.WSMessage{Type: types.WSRender, HTML: &html})
}

func (c *client) sendError(msg string) {
	c.enqueue(types.WSMessage{Type: types.WSError, Message: msg})
}

// writeLoop drains the queue and keeps the connection alive with pings
func (c *client) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case msg := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(msg); err != nil {
				c.logger.Debug("WebSocket write failed", zap.Error(err))
				c.shutdown()
				return
			}
			if c.metrics != nil {
				c.metrics.RecordWSMessage("out", msg.Type)
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.shutdown()
				return
			}
		}
	}
}

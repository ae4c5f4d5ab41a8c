package gateway

import (
	"sync"
	"time"

	usermodel "CityTalk/module/user/model"

	"github.com/gorilla/websocket"
)

// Client is one live transport session. Identity fields are set exactly once,
// after a successful handshake, before the client is visible to any registry.
// The write pump is the only goroutine that touches the socket for writes.
type Client struct {
	ConnID    string
	UserID    string
	Profile   *usermodel.UserProfile
	Addr      string // source address, throttling key
	CreatedAt time.Time

	WS   *websocket.Conn
	Send chan []byte // outbound queue, drained by writePump

	closeOnce sync.Once
	done      chan struct{}
}

// NewClient creates an unauthenticated client for a fresh connection.
// WS may be nil in tests; the pump is simply never started then.
func NewClient(connID string, ws *websocket.Conn, addr string, sendQueueSize int) *Client {
	return &Client{
		ConnID:    connID,
		Addr:      addr,
		CreatedAt: time.Now(),
		WS:        ws,
		Send:      make(chan []byte, sendQueueSize),
		done:      make(chan struct{}),
	}
}

// enqueue queues a frame without blocking. A full queue means a slow client;
// the frame is dropped rather than stalling the sender's event loop.
func (c *Client) enqueue(payload []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.Send <- payload:
		return true
	default:
		return false
	}
}

// Close makes the client unreachable for new frames and wakes the write pump
// so it can send the close frame and release the socket.
func (c *Client) Close() {
	c.closeOnce.Do(func() { close(c.done) })
}

// writePump drains Send onto the socket and keeps the connection alive with
// pings. Runs as the connection's single writer goroutine.
func (c *Client) writePump(pingPeriod, writeWait time.Duration) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.WS.Close()
	}()

	for {
		select {
		case <-c.done:
			// flush frames queued before Close (eviction notice among them),
			// then say goodbye
			_ = c.WS.SetWriteDeadline(time.Now().Add(writeWait))
			for {
				select {
				case payload := <-c.Send:
					if err := c.WS.WriteMessage(websocket.TextMessage, payload); err != nil {
						return
					}
				default:
					_ = c.WS.WriteMessage(websocket.CloseMessage,
						websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
					return
				}
			}
		case payload := <-c.Send:
			_ = c.WS.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.WS.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.WS.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.WS.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

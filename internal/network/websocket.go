package network

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/gorilla/websocket"
)

// ErrTextFrame is returned when a peer sends a text message on a control channel
var ErrTextFrame = errors.New("websocket: control channel accepts binary messages only")

// WSConn reads the payloads of consecutive binary messages as one byte stream
type WSConn struct {
	conn   *websocket.Conn
	reader io.Reader

	closeOnce sync.Once
	closeErr  error
}

// NewWSConn wraps an upgraded websocket connection
func NewWSConn(conn *websocket.Conn) *WSConn {
	return &WSConn{conn: conn}
}

// Read implements io.Reader. A normal close from the peer reads as io.EOF.
func (c *WSConn) Read(p []byte) (int, error) {
	for {
		if c.reader == nil {
			messageType, r, err := c.conn.NextReader()
			if err != nil {
				return 0, translateWSError(err)
			}
			if messageType != websocket.BinaryMessage {
				return 0, ErrTextFrame
			}
			c.reader = r
		}

		n, err := c.reader.Read(p)
		if errors.Is(err, io.EOF) {
			// message boundaries are not frame boundaries
			c.reader = nil
			if n > 0 {
				return n, nil
			}
			continue
		}
		return n, err
	}
}

// Close sends a close message and closes the underlying connection
func (c *WSConn) Close() error {
	c.closeOnce.Do(func() {
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = c.conn.WriteMessage(websocket.CloseMessage, msg)
		c.closeErr = c.conn.Close()
	})
	return c.closeErr
}

func translateWSError(err error) error {
	if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
		return io.EOF
	}
	var closeErr *websocket.CloseError
	if errors.As(err, &closeErr) {
		return fmt.Errorf("websocket closed: %w", err)
	}
	return err
}

package gemini

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/koscakluka/lingua-live/core/events"
)

type conn struct {
	ws *websocket.Conn

	writeMu   sync.Mutex
	closeOnce sync.Once
}

func newConn(ws *websocket.Conn) *conn {
	return &conn{ws: ws}
}

func (c *conn) SendAudio(pcm []byte) error {
	return c.write(newAudioMessage(pcm))
}

func (c *conn) SendText(text string) error {
	return c.write(newTextMessage(text))
}

func (c *conn) write(msg clientMessage) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.ws.WriteJSON(msg); err != nil {
		return fmt.Errorf("failed to write to websocket: %w", err)
	}
	return nil
}

// Receive reads frames until one carries events. Frames that fail to parse
// are logged and skipped.
func (c *conn) Receive() ([]events.Event, error) {
	for {
		msgType, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil, io.EOF
			}
			var closeErr *websocket.CloseError
			if errors.As(err, &closeErr) {
				return nil, fmt.Errorf("server closed connection (code %d): %s", closeErr.Code, closeErr.Text)
			}
			return nil, err
		}

		switch msgType {
		case websocket.TextMessage, websocket.BinaryMessage:
		default:
			continue
		}

		msg, out, err := decodeServerMessage(data)
		if err != nil {
			logger.Warn("skipping malformed server message", "error", err, "bytes", len(data))
			continue
		}
		if msg.GoAway != nil {
			logger.Info("server is about to close the session", "time_left", msg.GoAway.TimeLeft)
		}
		if len(out) > 0 {
			return out, nil
		}
	}
}

func (c *conn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		_ = c.ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		err = c.ws.Close()
	})
	return err
}

package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/koscakluka/lingua-live/core/transport"
)

const (
	DefaultEndpoint = "wss://generativelanguage.googleapis.com/ws/google.ai.generativelanguage.v1beta.GenerativeService.BidiGenerateContent"
	DefaultModel    = "gemini-2.5-flash-native-audio-preview-09-2025"

	defaultHandshakeTimeout = 15 * time.Second
)

var _ transport.Dialer = (*Client)(nil)

// Client dials Gemini Live sessions over a raw websocket.
type Client struct {
	apiKey           string
	endpoint         string
	model            string
	handshakeTimeout time.Duration
	dialer           *websocket.Dialer
}

type ClientOption func(*Client)

// WithEndpoint overrides the websocket endpoint, e.g. for a proxy.
func WithEndpoint(endpoint string) ClientOption {
	return func(c *Client) { c.endpoint = endpoint }
}

// WithDefaultModel sets the model used when the setup names none.
func WithDefaultModel(model string) ClientOption {
	return func(c *Client) { c.model = model }
}

func WithHandshakeTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		if timeout > 0 {
			c.handshakeTimeout = timeout
		}
	}
}

// WithWebsocketDialer replaces [websocket.DefaultDialer], e.g. to route
// through a proxy.
func WithWebsocketDialer(dialer *websocket.Dialer) ClientOption {
	return func(c *Client) {
		if dialer != nil {
			c.dialer = dialer
		}
	}
}

func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		apiKey:           apiKey,
		endpoint:         DefaultEndpoint,
		model:            DefaultModel,
		handshakeTimeout: defaultHandshakeTimeout,
		dialer:           websocket.DefaultDialer,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Dial opens the websocket, sends the setup and waits for the server to
// confirm it.
func (c *Client) Dial(ctx context.Context, setup transport.Setup) (transport.Conn, error) {
	if c.apiKey == "" {
		return nil, errors.New("gemini api key not set")
	}

	endpoint, err := url.Parse(c.endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid endpoint: %w", err)
	}
	query := endpoint.Query()
	query.Set("key", c.apiKey)
	endpoint.RawQuery = query.Encode()

	dialCtx := ctx
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, c.handshakeTimeout)
		defer cancel()
	}

	ws, resp, err := c.dialer.DialContext(dialCtx, endpoint.String(), nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("websocket dial failed (status %d): %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("websocket dial failed: %w", err)
	}

	model := setup.Model
	if model == "" {
		model = c.model
	}
	if !strings.HasPrefix(model, "models/") {
		model = "models/" + model
	}

	if err := ws.WriteJSON(newSetupMessage(model, setup.SystemInstructions, setup.VoiceName, setup.LanguageCode)); err != nil {
		_ = ws.Close()
		return nil, fmt.Errorf("failed to send setup: %w", err)
	}

	if err := awaitSetupComplete(dialCtx, ws, c.handshakeTimeout); err != nil {
		_ = ws.Close()
		return nil, err
	}

	logger.Debug("gemini live setup complete", "model", model)
	return newConn(ws), nil
}

func awaitSetupComplete(ctx context.Context, ws *websocket.Conn, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}
	_ = ws.SetReadDeadline(deadline)
	defer func() { _ = ws.SetReadDeadline(time.Time{}) }()

	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			var closeErr *websocket.CloseError
			if errors.As(err, &closeErr) {
				return fmt.Errorf("server closed during setup (code %d): %s", closeErr.Code, closeErr.Text)
			}
			return fmt.Errorf("failed to read setup response: %w", err)
		}

		msg, _, err := decodeServerMessage(data)
		if err != nil {
			return err
		}
		if msg.SetupComplete != nil {
			return nil
		}
	}
}

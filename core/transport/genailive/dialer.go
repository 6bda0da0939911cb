package genailive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"google.golang.org/genai"

	"github.com/koscakluka/lingua-live/core/audio"
	"github.com/koscakluka/lingua-live/core/events"
	"github.com/koscakluka/lingua-live/core/transport"
)

const DefaultModel = "gemini-2.5-flash-native-audio-preview-09-2025"

var _ transport.Dialer = (*Dialer)(nil)

// Dialer opens live sessions through the Gen AI SDK.
type Dialer struct {
	client *genai.Client
	model  string
}

type DialerOption func(*Dialer)

func WithDefaultModel(model string) DialerOption {
	return func(d *Dialer) { d.model = model }
}

func NewDialer(ctx context.Context, apiKey string, opts ...DialerOption) (*Dialer, error) {
	if apiKey == "" {
		return nil, errors.New("gemini api key not set")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	d := &Dialer{client: client, model: DefaultModel}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

func (d *Dialer) Dial(ctx context.Context, setup transport.Setup) (transport.Conn, error) {
	model := setup.Model
	if model == "" {
		model = d.model
	}

	session, err := d.client.Live.Connect(ctx, model, connectConfig(setup))
	if err != nil {
		return nil, fmt.Errorf("failed to open live session: %w", err)
	}
	return &conn{session: session}, nil
}

func connectConfig(setup transport.Setup) *genai.LiveConnectConfig {
	config := &genai.LiveConnectConfig{
		ResponseModalities:       []genai.Modality{genai.ModalityAudio},
		InputAudioTranscription:  &genai.AudioTranscriptionConfig{},
		OutputAudioTranscription: &genai.AudioTranscriptionConfig{},
	}
	if setup.VoiceName != "" || setup.LanguageCode != "" {
		config.SpeechConfig = &genai.SpeechConfig{LanguageCode: setup.LanguageCode}
		if setup.VoiceName != "" {
			config.SpeechConfig.VoiceConfig = &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: setup.VoiceName},
			}
		}
	}
	if setup.SystemInstructions != "" {
		config.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: setup.SystemInstructions}}}
	}
	return config
}

type conn struct {
	session *genai.Session

	closeOnce sync.Once
	closeErr  error
}

func (c *conn) SendAudio(pcm []byte) error {
	return c.session.SendRealtimeInput(genai.LiveRealtimeInput{
		Audio: &genai.Blob{MIMEType: audio.Linear16Mono16K().MIMEType(), Data: pcm},
	})
}

func (c *conn) SendText(text string) error {
	return c.session.SendRealtimeInput(genai.LiveRealtimeInput{Text: text})
}

func (c *conn) Receive() ([]events.Event, error) {
	for {
		msg, err := c.session.Receive()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil, io.EOF
			}
			return nil, err
		}
		if msg.GoAway != nil {
			logger.Info("server is about to close the session")
		}
		if out := eventsFromMessage(msg); len(out) > 0 {
			return out, nil
		}
	}
}

func (c *conn) Close() error {
	c.closeOnce.Do(func() { c.closeErr = c.session.Close() })
	return c.closeErr
}

// eventsFromMessage maps one server message to events: interruption, then
// transcription, then audio, then turn completion.
func eventsFromMessage(msg *genai.LiveServerMessage) []events.Event {
	if msg == nil || msg.ServerContent == nil {
		return nil
	}

	sc := msg.ServerContent
	var out []events.Event
	if sc.Interrupted {
		out = append(out, events.NewInterrupted())
	}
	if sc.InputTranscription != nil && sc.InputTranscription.Text != "" {
		out = append(out, events.NewInputTranscriptDelta(sc.InputTranscription.Text))
	}
	if sc.OutputTranscription != nil && sc.OutputTranscription.Text != "" {
		out = append(out, events.NewOutputTranscriptDelta(sc.OutputTranscription.Text))
	}
	if sc.ModelTurn != nil {
		for _, part := range sc.ModelTurn.Parts {
			if part == nil || part.InlineData == nil || len(part.InlineData.Data) == 0 {
				continue
			}
			out = append(out, events.NewAudioChunk(part.InlineData.Data))
		}
	}
	if sc.TurnComplete {
		out = append(out, events.NewTurnComplete())
	}
	return out
}

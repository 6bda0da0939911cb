package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/koscakluka/lingua-live/core/audio"
	"github.com/koscakluka/lingua-live/core/events"
	"github.com/koscakluka/lingua-live/core/transport"
)

func newLiveTestServer(t *testing.T, handler func(r *http.Request, conn *websocket.Conn)) string {
	t.Helper()

	upgrader := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		handler(r, conn)
	}))
	t.Cleanup(server.Close)

	return "ws" + strings.TrimPrefix(server.URL, "http") + "/live"
}

func closeNormally(conn *websocket.Conn) {
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
}

func TestDialSendsSetupAndWaitsForConfirmation(t *testing.T) {
	type received struct {
		key   string
		setup map[string]any
	}
	got := make(chan received, 1)

	endpoint := newLiveTestServer(t, func(r *http.Request, conn *websocket.Conn) {
		defer conn.Close()
		var msg map[string]any
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}
		got <- received{key: r.URL.Query().Get("key"), setup: msg}
		_ = conn.WriteJSON(map[string]any{"setupComplete": map[string]any{}})
		closeNormally(conn)
	})

	client := NewClient("test-key", WithEndpoint(endpoint))
	conn, err := client.Dial(context.Background(), transport.Setup{
		Model:              "live-test",
		SystemInstructions: "Speak French",
		VoiceName:          "Aoede",
		LanguageCode:       "fr-FR",
	})
	if err != nil {
		t.Fatalf("expected dial to succeed, got %v", err)
	}
	defer conn.Close()

	request := <-got
	if request.key != "test-key" {
		t.Fatalf("expected api key in query, got %q", request.key)
	}

	encoded, _ := json.Marshal(request.setup)
	var setup struct {
		Setup struct {
			Model            string `json:"model"`
			GenerationConfig struct {
				ResponseModalities []string `json:"responseModalities"`
				SpeechConfig       struct {
					VoiceConfig struct {
						PrebuiltVoiceConfig struct {
							VoiceName string `json:"voiceName"`
						} `json:"prebuiltVoiceConfig"`
					} `json:"voiceConfig"`
					LanguageCode string `json:"languageCode"`
				} `json:"speechConfig"`
			} `json:"generationConfig"`
			SystemInstruction struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"systemInstruction"`
			InputAudioTranscription  *struct{} `json:"inputAudioTranscription"`
			OutputAudioTranscription *struct{} `json:"outputAudioTranscription"`
		} `json:"setup"`
	}
	if err := json.Unmarshal(encoded, &setup); err != nil {
		t.Fatalf("expected setup to be valid json, got %v", err)
	}

	if setup.Setup.Model != "models/live-test" {
		t.Fatalf("expected model models/live-test, got %q", setup.Setup.Model)
	}
	if mods := setup.Setup.GenerationConfig.ResponseModalities; len(mods) != 1 || mods[0] != "AUDIO" {
		t.Fatalf("expected AUDIO response modality, got %v", mods)
	}
	if got := setup.Setup.GenerationConfig.SpeechConfig.VoiceConfig.PrebuiltVoiceConfig.VoiceName; got != "Aoede" {
		t.Fatalf("expected voice Aoede, got %q", got)
	}
	if got := setup.Setup.GenerationConfig.SpeechConfig.LanguageCode; got != "fr-FR" {
		t.Fatalf("expected language fr-FR, got %q", got)
	}
	if parts := setup.Setup.SystemInstruction.Parts; len(parts) != 1 || parts[0].Text != "Speak French" {
		t.Fatalf("expected system instruction text, got %v", parts)
	}
	if setup.Setup.InputAudioTranscription == nil || setup.Setup.OutputAudioTranscription == nil {
		t.Fatalf("expected both transcription directions to be requested")
	}
}

func TestDialFailsWhenServerClosesDuringSetup(t *testing.T) {
	endpoint := newLiveTestServer(t, func(_ *http.Request, conn *websocket.Conn) {
		defer conn.Close()
		var msg map[string]any
		_ = conn.ReadJSON(&msg)
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "API key not valid"),
			time.Now().Add(time.Second))
	})

	_, err := NewClient("bad-key", WithEndpoint(endpoint)).Dial(context.Background(), transport.Setup{})
	if err == nil {
		t.Fatalf("expected dial to fail")
	}
	if !strings.Contains(err.Error(), "API key not valid") {
		t.Fatalf("expected close reason in error, got %v", err)
	}
}

func TestDialRequiresAPIKey(t *testing.T) {
	if _, err := NewClient("").Dial(context.Background(), transport.Setup{}); err == nil {
		t.Fatalf("expected dial without api key to fail")
	}
}

func TestDialTimesOutWithoutSetupComplete(t *testing.T) {
	endpoint := newLiveTestServer(t, func(_ *http.Request, conn *websocket.Conn) {
		defer conn.Close()
		var msg map[string]any
		_ = conn.ReadJSON(&msg)
		time.Sleep(500 * time.Millisecond)
	})

	client := NewClient("key", WithEndpoint(endpoint), WithHandshakeTimeout(100*time.Millisecond))
	if _, err := client.Dial(context.Background(), transport.Setup{}); err == nil {
		t.Fatalf("expected dial to time out")
	}
}

func TestConnMapsServerContentToOrderedEvents(t *testing.T) {
	pcm := audio.EncodeLinear16([]float32{0.25, -0.25})

	endpoint := newLiveTestServer(t, func(_ *http.Request, conn *websocket.Conn) {
		defer conn.Close()
		var msg map[string]any
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}
		_ = conn.WriteJSON(map[string]any{"setupComplete": map[string]any{}})

		payload, _ := json.Marshal(map[string]any{
			"serverContent": map[string]any{
				"turnComplete":        true,
				"interrupted":         true,
				"inputTranscription":  map[string]any{"text": "je suis"},
				"outputTranscription": map[string]any{"text": "Bon"},
				"modelTurn": map[string]any{"parts": []any{
					map[string]any{"inlineData": map[string]any{"mimeType": "audio/pcm;rate=24000", "data": audio.EncodeBase64(pcm)}},
					map[string]any{"inlineData": map[string]any{"mimeType": "audio/pcm;rate=24000", "data": "%%%"}},
				}},
			},
		})
		_ = conn.WriteMessage(websocket.BinaryMessage, payload)
		_ = conn.WriteMessage(websocket.TextMessage, []byte("not json"))
		_ = conn.WriteJSON(map[string]any{"goAway": map[string]any{"timeLeft": "10s"}})
		closeNormally(conn)
	})

	conn, err := NewClient("key", WithEndpoint(endpoint)).Dial(context.Background(), transport.Setup{})
	if err != nil {
		t.Fatalf("expected dial to succeed, got %v", err)
	}
	defer conn.Close()

	batch, err := conn.Receive()
	if err != nil {
		t.Fatalf("expected events, got %v", err)
	}

	expected := []events.Kind{
		events.KindInterrupted,
		events.KindInputTranscriptDelta,
		events.KindOutputTranscriptDelta,
		events.KindAudioChunk,
		events.KindTurnComplete,
	}
	if len(batch) != len(expected) {
		t.Fatalf("expected %d events, got %d", len(expected), len(batch))
	}
	for i, kind := range expected {
		if batch[i].Kind() != kind {
			t.Fatalf("event %d: expected %s, got %s", i, kind, batch[i].Kind())
		}
	}
	chunk := batch[3].(events.AudioChunk)
	if string(chunk.Audio) != string(pcm) {
		t.Fatalf("expected decoded pcm %v, got %v", pcm, chunk.Audio)
	}
	if delta := batch[2].(events.OutputTranscriptDelta); delta.Text != "Bon" {
		t.Fatalf("expected output delta %q, got %q", "Bon", delta.Text)
	}

	if _, err := conn.Receive(); !errors.Is(err, io.EOF) {
		t.Fatalf("expected io.EOF after normal close, got %v", err)
	}
}

func TestConnWritesAudioAndTextFrames(t *testing.T) {
	frames := make(chan map[string]any, 2)

	endpoint := newLiveTestServer(t, func(_ *http.Request, conn *websocket.Conn) {
		defer conn.Close()
		var msg map[string]any
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}
		_ = conn.WriteJSON(map[string]any{"setupComplete": map[string]any{}})
		for range 2 {
			var frame map[string]any
			if err := conn.ReadJSON(&frame); err != nil {
				return
			}
			frames <- frame
		}
	})

	conn, err := NewClient("key", WithEndpoint(endpoint)).Dial(context.Background(), transport.Setup{})
	if err != nil {
		t.Fatalf("expected dial to succeed, got %v", err)
	}
	defer conn.Close()

	pcm := []byte{0x01, 0x02, 0x03, 0x04}
	if err := conn.SendAudio(pcm); err != nil {
		t.Fatalf("expected audio send to succeed, got %v", err)
	}
	if err := conn.SendText("Comment ça va?"); err != nil {
		t.Fatalf("expected text send to succeed, got %v", err)
	}

	audioFrame := <-frames
	realtime, ok := audioFrame["realtimeInput"].(map[string]any)
	if !ok {
		t.Fatalf("expected realtimeInput frame, got %v", audioFrame)
	}
	blob := realtime["audio"].(map[string]any)
	if blob["mimeType"] != "audio/pcm;rate=16000" {
		t.Fatalf("expected capture mime type, got %v", blob["mimeType"])
	}
	if blob["data"] != audio.EncodeBase64(pcm) {
		t.Fatalf("expected base64 pcm, got %v", blob["data"])
	}

	textFrame := <-frames
	clientContent, ok := textFrame["clientContent"].(map[string]any)
	if !ok {
		t.Fatalf("expected clientContent frame, got %v", textFrame)
	}
	if clientContent["turnComplete"] != true {
		t.Fatalf("expected text turn to be complete, got %v", clientContent["turnComplete"])
	}
	turns := clientContent["turns"].([]any)
	turn := turns[0].(map[string]any)
	parts := turn["parts"].([]any)
	if turn["role"] != "user" || parts[0].(map[string]any)["text"] != "Comment ça va?" {
		t.Fatalf("expected user text turn, got %v", turn)
	}
}

func TestDecodeServerMessageWithoutContentHasNoEvents(t *testing.T) {
	msg, out, err := decodeServerMessage([]byte(`{"setupComplete":{}}`))
	if err != nil {
		t.Fatalf("expected message to decode, got %v", err)
	}
	if msg.SetupComplete == nil {
		t.Fatalf("expected setupComplete to be recognised")
	}
	if len(out) != 0 {
		t.Fatalf("expected no events, got %d", len(out))
	}
}

func TestDialUsesConfiguredWebsocketDialer(t *testing.T) {
	endpoint := newLiveTestServer(t, func(_ *http.Request, conn *websocket.Conn) {
		defer conn.Close()
		var msg map[string]any
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}
		_ = conn.WriteJSON(map[string]any{"setupComplete": map[string]any{}})
		closeNormally(conn)
	})

	var dials atomic.Int32
	netDialer := &net.Dialer{}
	wsDialer := &websocket.Dialer{
		HandshakeTimeout: time.Second,
		NetDialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			dials.Add(1)
			return netDialer.DialContext(ctx, network, addr)
		},
	}

	client := NewClient("key", WithEndpoint(endpoint), WithWebsocketDialer(wsDialer))
	conn, err := client.Dial(context.Background(), transport.Setup{Model: "live-test"})
	if err != nil {
		t.Fatalf("expected dial to succeed, got %v", err)
	}
	defer conn.Close()

	if got := dials.Load(); got != 1 {
		t.Fatalf("expected configured dialer to be used once, got %d", got)
	}
}

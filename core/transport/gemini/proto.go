package gemini

import (
	"encoding/json"
	"fmt"

	"github.com/koscakluka/lingua-live/core/audio"
	"github.com/koscakluka/lingua-live/core/events"
)

type clientMessage struct {
	Setup         *setupMessage  `json:"setup,omitempty"`
	RealtimeInput *realtimeInput `json:"realtimeInput,omitempty"`
	ClientContent *clientContent `json:"clientContent,omitempty"`
}

type setupMessage struct {
	Model                    string           `json:"model"`
	GenerationConfig         generationConfig `json:"generationConfig"`
	SystemInstruction        *content         `json:"systemInstruction,omitempty"`
	InputAudioTranscription  *struct{}        `json:"inputAudioTranscription"`
	OutputAudioTranscription *struct{}        `json:"outputAudioTranscription"`
}

type generationConfig struct {
	ResponseModalities []string      `json:"responseModalities"`
	SpeechConfig       *speechConfig `json:"speechConfig,omitempty"`
}

type speechConfig struct {
	VoiceConfig  *voiceConfig `json:"voiceConfig,omitempty"`
	LanguageCode string       `json:"languageCode,omitempty"`
}

type voiceConfig struct {
	PrebuiltVoiceConfig prebuiltVoiceConfig `json:"prebuiltVoiceConfig"`
}

type prebuiltVoiceConfig struct {
	VoiceName string `json:"voiceName"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text       string `json:"text,omitempty"`
	InlineData *blob  `json:"inlineData,omitempty"`
}

type blob struct {
	MIMEType string `json:"mimeType"`
	Data     string `json:"data"`
}

type realtimeInput struct {
	Audio *blob `json:"audio,omitempty"`
}

type clientContent struct {
	Turns        []content `json:"turns"`
	TurnComplete bool      `json:"turnComplete"`
}

type serverMessage struct {
	SetupComplete *struct{}      `json:"setupComplete,omitempty"`
	ServerContent *serverContent `json:"serverContent,omitempty"`
	GoAway        *goAway        `json:"goAway,omitempty"`
}

type serverContent struct {
	ModelTurn           *content       `json:"modelTurn,omitempty"`
	TurnComplete        bool           `json:"turnComplete,omitempty"`
	Interrupted         bool           `json:"interrupted,omitempty"`
	InputTranscription  *transcription `json:"inputTranscription,omitempty"`
	OutputTranscription *transcription `json:"outputTranscription,omitempty"`
}

type transcription struct {
	Text string `json:"text"`
}

type goAway struct {
	TimeLeft string `json:"timeLeft"`
}

func newSetupMessage(model, instructions, voice, language string) clientMessage {
	setup := &setupMessage{
		Model: model,
		GenerationConfig: generationConfig{
			ResponseModalities: []string{"AUDIO"},
		},
		InputAudioTranscription:  &struct{}{},
		OutputAudioTranscription: &struct{}{},
	}
	if voice != "" || language != "" {
		setup.GenerationConfig.SpeechConfig = &speechConfig{LanguageCode: language}
		if voice != "" {
			setup.GenerationConfig.SpeechConfig.VoiceConfig = &voiceConfig{
				PrebuiltVoiceConfig: prebuiltVoiceConfig{VoiceName: voice},
			}
		}
	}
	if instructions != "" {
		setup.SystemInstruction = &content{Parts: []part{{Text: instructions}}}
	}
	return clientMessage{Setup: setup}
}

func newAudioMessage(pcm []byte) clientMessage {
	return clientMessage{RealtimeInput: &realtimeInput{Audio: &blob{
		MIMEType: audio.Linear16Mono16K().MIMEType(),
		Data:     audio.EncodeBase64(pcm),
	}}}
}

func newTextMessage(text string) clientMessage {
	return clientMessage{ClientContent: &clientContent{
		Turns:        []content{{Role: "user", Parts: []part{{Text: text}}}},
		TurnComplete: true,
	}}
}

// decodeServerMessage parses one server frame into events, in the order
// the session consumes them: interruption first, then transcription, then
// audio, then turn completion.
func decodeServerMessage(data []byte) (serverMessage, []events.Event, error) {
	var msg serverMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return msg, nil, fmt.Errorf("failed to unmarshal server message: %w", err)
	}
	if msg.ServerContent == nil {
		return msg, nil, nil
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
		for _, p := range sc.ModelTurn.Parts {
			if p.InlineData == nil || p.InlineData.Data == "" {
				continue
			}
			pcm, err := audio.DecodeBase64(p.InlineData.Data)
			if err != nil {
				logger.Warn("dropping undecodable audio part", "mime_type", p.InlineData.MIMEType, "error", err)
				continue
			}
			out = append(out, events.NewAudioChunk(pcm))
		}
	}
	if sc.TurnComplete {
		out = append(out, events.NewTurnComplete())
	}
	return msg, out, nil
}

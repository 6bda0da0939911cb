package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"text/template"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	tutoring "github.com/koscakluka/lingua-live/core"
	"github.com/koscakluka/lingua-live/core/transport"
)

const (
	TransportWebsocket = "websocket"
	TransportGenAI     = "genai"

	InputPortAudio = "portaudio"
	InputMiniaudio = "miniaudio"
	InputNone      = "none"

	OutputMiniaudio = "miniaudio"
	OutputVirtual   = "virtual"
)

// APIKeyEnvVars are checked in order for the live API key.
var APIKeyEnvVars = []string{"GEMINI_API_KEY", "GOOGLE_API_KEY"}

const defaultInstructions = `You are a patient {{.LanguageName}} tutor talking with a Portuguese speaking learner.
Speak only {{.LanguageName}}, in short and natural sentences.
When the learner makes a mistake, repeat the sentence correctly and keep the conversation going.`

// Config is the application configuration.
type Config struct {
	// APIKey is never read from the file.
	APIKey string `yaml:"-"`

	Model              string           `yaml:"model"`
	Transport          string           `yaml:"transport"`
	Connection         ConnectionConfig `yaml:"connection"`
	Audio              AudioConfig      `yaml:"audio"`
	SystemInstructions string           `yaml:"system_instructions"`
	DefaultLanguage    string           `yaml:"default_language"`
	Languages          []LanguageConfig `yaml:"languages"`
}

// ConnectionConfig tunes the live connection.
type ConnectionConfig struct {
	QueueSize        int           `yaml:"queue_size"`   // outbound frames
	EventBuffer      int           `yaml:"event_buffer"` // inbound events
	HandshakeTimeout time.Duration `yaml:"handshake_timeout"`
}

type AudioConfig struct {
	Input     string `yaml:"input"`
	Output    string `yaml:"output"`
	FrameSize int    `yaml:"frame_size"` // samples
}

type LanguageConfig struct {
	Name         string `yaml:"name"`
	DisplayName  string `yaml:"display_name"`
	LanguageName string `yaml:"language_name"`
	VoiceName    string `yaml:"voice"`
	LanguageCode string `yaml:"language_code"`
}

// Default is the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Transport: TransportWebsocket,
		Connection: ConnectionConfig{
			QueueSize:        transport.DefaultQueueSize,
			EventBuffer:      transport.DefaultEventBuffer,
			HandshakeTimeout: 15 * time.Second,
		},
		Audio: AudioConfig{
			Input:     InputPortAudio,
			Output:    OutputMiniaudio,
			FrameSize: tutoring.DefaultFrameSize,
		},
		SystemInstructions: defaultInstructions,
		DefaultLanguage:    "fr",
		Languages: []LanguageConfig{
			{Name: "fr", DisplayName: "Francês", LanguageName: "French", VoiceName: "Aoede", LanguageCode: "fr-FR"},
			{Name: "es", DisplayName: "Espanhol", LanguageName: "Spanish", VoiceName: "Puck", LanguageCode: "es-ES"},
			{Name: "en", DisplayName: "Inglês", LanguageName: "English", VoiceName: "Kore", LanguageCode: "en-US"},
			{Name: "de", DisplayName: "Alemão", LanguageName: "German", VoiceName: "Charon", LanguageCode: "de-DE"},
			{Name: "it", DisplayName: "Italiano", LanguageName: "Italian", VoiceName: "Fenrir", LanguageCode: "it-IT"},
		},
	}
}

// Load reads the YAML file at path over the defaults, then the environment.
// An empty path uses the defaults only. Environment files are loaded first and
// never override variables that are already set; missing ones are skipped.
// A file that lists its own languages without a default_language starts with
// the first of them.
func Load(path string, envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, file := range envFiles {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load env file %s: %w", file, err)
		}
	}

	config := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}

		var overrides struct {
			DefaultLanguage *string          `yaml:"default_language"`
			Languages       []LanguageConfig `yaml:"languages"`
		}
		if err := yaml.Unmarshal(data, &overrides); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
		if overrides.Languages != nil && overrides.DefaultLanguage == nil {
			config.DefaultLanguage = ""
		}
	}

	for _, name := range APIKeyEnvVars {
		if key := strings.TrimSpace(os.Getenv(name)); key != "" {
			config.APIKey = key
			break
		}
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return config, nil
}

// Validate checks the configuration. A missing API key is not an error here;
// providers report it when dialing.
func (c *Config) Validate() error {
	switch c.Transport {
	case TransportWebsocket, TransportGenAI:
	default:
		return fmt.Errorf("transport must be %q or %q, got %q", TransportWebsocket, TransportGenAI, c.Transport)
	}

	if err := c.Connection.Validate(); err != nil {
		return fmt.Errorf("connection config: %w", err)
	}

	if err := c.Audio.Validate(); err != nil {
		return fmt.Errorf("audio config: %w", err)
	}

	if _, err := c.instructionsTemplate(); err != nil {
		return fmt.Errorf("system_instructions: %w", err)
	}

	if len(c.Languages) == 0 {
		return fmt.Errorf("at least one language is required")
	}
	seen := make(map[string]bool, len(c.Languages))
	for i := range c.Languages {
		language := &c.Languages[i]
		if err := language.Validate(); err != nil {
			return fmt.Errorf("languages[%d]: %w", i, err)
		}
		if seen[language.Name] {
			return fmt.Errorf("languages[%d]: duplicate name %q", i, language.Name)
		}
		seen[language.Name] = true
	}
	if c.DefaultLanguage != "" && !seen[c.DefaultLanguage] {
		return fmt.Errorf("default_language %q is not configured", c.DefaultLanguage)
	}

	return nil
}

func (c *ConnectionConfig) Validate() error {
	if c.QueueSize < 1 {
		return fmt.Errorf("queue_size must be positive, got %d", c.QueueSize)
	}
	if c.EventBuffer < 0 {
		return fmt.Errorf("event_buffer cannot be negative, got %d", c.EventBuffer)
	}
	if c.HandshakeTimeout <= 0 {
		return fmt.Errorf("handshake_timeout must be positive, got %s", c.HandshakeTimeout)
	}
	return nil
}

func (a *AudioConfig) Validate() error {
	switch a.Input {
	case InputPortAudio, InputMiniaudio, InputNone:
	default:
		return fmt.Errorf("input must be one of %s, %s, %s; got %q", InputPortAudio, InputMiniaudio, InputNone, a.Input)
	}

	switch a.Output {
	case OutputMiniaudio, OutputVirtual:
	default:
		return fmt.Errorf("output must be %s or %s, got %q", OutputMiniaudio, OutputVirtual, a.Output)
	}

	if a.FrameSize < 256 || a.FrameSize > 16384 {
		return fmt.Errorf("frame_size must be between 256 and 16384 samples, got %d", a.FrameSize)
	}
	return nil
}

func (l *LanguageConfig) Validate() error {
	if l.Name == "" {
		return fmt.Errorf("name cannot be empty")
	}
	if l.LanguageName == "" {
		return fmt.Errorf("language_name cannot be empty")
	}
	if l.DisplayName == "" {
		l.DisplayName = l.LanguageName
	}
	return nil
}

// Language returns the profile for name, or the default language when name
// is empty.
func (c *Config) Language(name string) (tutoring.LanguageProfile, error) {
	if name == "" {
		name = c.DefaultLanguage
	}
	if name == "" && len(c.Languages) > 0 {
		name = c.Languages[0].Name
	}

	for _, language := range c.Languages {
		if language.Name == name {
			return language.Profile(), nil
		}
	}

	names := make([]string, 0, len(c.Languages))
	for _, language := range c.Languages {
		names = append(names, language.Name)
	}
	return tutoring.LanguageProfile{}, fmt.Errorf("unknown language %q (available: %s)", name, strings.Join(names, ", "))
}

func (l LanguageConfig) Profile() tutoring.LanguageProfile {
	return tutoring.LanguageProfile{
		Name:         l.Name,
		DisplayName:  l.DisplayName,
		LanguageName: l.LanguageName,
		VoiceName:    l.VoiceName,
		LanguageCode: l.LanguageCode,
	}
}

// Instructions renders the system instructions for a profile. The template
// sees the fields of [tutoring.LanguageProfile].
func (c *Config) Instructions() (func(tutoring.LanguageProfile) (string, error), error) {
	tmpl, err := c.instructionsTemplate()
	if err != nil {
		return nil, err
	}

	return func(profile tutoring.LanguageProfile) (string, error) {
		var out strings.Builder
		if err := tmpl.Execute(&out, profile); err != nil {
			return "", fmt.Errorf("failed to render system instructions: %w", err)
		}
		return strings.TrimSpace(out.String()), nil
	}, nil
}

func (c *Config) instructionsTemplate() (*template.Template, error) {
	text := c.SystemInstructions
	if strings.TrimSpace(text) == "" {
		text = defaultInstructions
	}
	return template.New("system_instructions").Option("missingkey=error").Parse(text)
}

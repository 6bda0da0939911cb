package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("expected default config to be valid, got %v", err)
	}
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*Config)
		errorMsg string
	}{
		{
			name:     "unknown transport",
			mutate:   func(c *Config) { c.Transport = "grpc" },
			errorMsg: "transport must be",
		},
		{
			name:     "unknown input",
			mutate:   func(c *Config) { c.Audio.Input = "pulse" },
			errorMsg: "input must be one of",
		},
		{
			name:     "empty outbound queue",
			mutate:   func(c *Config) { c.Connection.QueueSize = 0 },
			errorMsg: "queue_size must be positive",
		},
		{
			name:     "negative event buffer",
			mutate:   func(c *Config) { c.Connection.EventBuffer = -1 },
			errorMsg: "event_buffer cannot be negative",
		},
		{
			name:     "no handshake timeout",
			mutate:   func(c *Config) { c.Connection.HandshakeTimeout = 0 },
			errorMsg: "handshake_timeout must be positive",
		},
		{
			name:     "frame size too small",
			mutate:   func(c *Config) { c.Audio.FrameSize = 10 },
			errorMsg: "frame_size must be between",
		},
		{
			name:     "no languages",
			mutate:   func(c *Config) { c.Languages = nil },
			errorMsg: "at least one language",
		},
		{
			name: "duplicate language",
			mutate: func(c *Config) {
				c.Languages = append(c.Languages, LanguageConfig{Name: "fr", LanguageName: "French"})
			},
			errorMsg: "duplicate name",
		},
		{
			name:     "unknown default language",
			mutate:   func(c *Config) { c.DefaultLanguage = "ja" },
			errorMsg: "default_language",
		},
		{
			name:     "broken template",
			mutate:   func(c *Config) { c.SystemInstructions = "{{.LanguageName" },
			errorMsg: "system_instructions",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := Default()
			tt.mutate(config)

			err := config.Validate()
			if err == nil {
				t.Fatalf("expected error containing %q", tt.errorMsg)
			}
			if !strings.Contains(err.Error(), tt.errorMsg) {
				t.Fatalf("expected error containing %q, got %v", tt.errorMsg, err)
			}
		})
	}
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "google-key")

	path := writeFile(t, "config.yaml", `
model: custom-live-model
transport: genai
audio:
  input: none
  output: virtual
  frame_size: 2048
default_language: pt
languages:
  - name: pt
    language_name: Portuguese
    voice: Kore
    language_code: pt-BR
`)

	config, err := Load(path, filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("expected config to load, got %v", err)
	}

	if config.Model != "custom-live-model" || config.Transport != TransportGenAI {
		t.Fatalf("expected model and transport from file, got %q %q", config.Model, config.Transport)
	}
	if config.Audio.FrameSize != 2048 || config.Audio.Input != InputNone {
		t.Fatalf("expected audio section from file, got %+v", config.Audio)
	}
	if len(config.Languages) != 1 {
		t.Fatalf("expected file languages to replace defaults, got %d", len(config.Languages))
	}
	if config.Languages[0].DisplayName != "Portuguese" {
		t.Fatalf("expected display name to default to language name, got %q", config.Languages[0].DisplayName)
	}
	if config.APIKey != "google-key" {
		t.Fatalf("expected api key from GOOGLE_API_KEY, got %q", config.APIKey)
	}
	if config.SystemInstructions == "" {
		t.Fatalf("expected default system instructions to be kept")
	}
}

func TestLoadFileLanguagesWithoutDefaultUsesFirst(t *testing.T) {
	path := writeFile(t, "config.yaml", `
languages:
  - name: ja
    language_name: Japanese
  - name: ko
    language_name: Korean
`)

	config, err := Load(path, filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("expected config to load, got %v", err)
	}
	if config.DefaultLanguage != "" {
		t.Fatalf("expected inherited default language to be cleared, got %q", config.DefaultLanguage)
	}

	profile, err := config.Language("")
	if err != nil {
		t.Fatalf("expected first language as default, got %v", err)
	}
	if profile.Name != "ja" {
		t.Fatalf("expected ja, got %q", profile.Name)
	}
}

func TestLoadKeepsDefaultLanguageWhenFileOmitsLanguages(t *testing.T) {
	path := writeFile(t, "config.yaml", "model: custom-live-model\n")

	config, err := Load(path, filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("expected config to load, got %v", err)
	}
	if config.DefaultLanguage != "fr" || len(config.Languages) != 5 {
		t.Fatalf("expected default languages to be kept, got %q and %d languages", config.DefaultLanguage, len(config.Languages))
	}
}

func TestLoadReadsConnectionSection(t *testing.T) {
	path := writeFile(t, "config.yaml", `
connection:
  queue_size: 8
  handshake_timeout: 3s
`)

	config, err := Load(path, filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("expected config to load, got %v", err)
	}
	if config.Connection.QueueSize != 8 || config.Connection.HandshakeTimeout != 3*time.Second {
		t.Fatalf("expected connection section from file, got %+v", config.Connection)
	}
	if config.Connection.EventBuffer != Default().Connection.EventBuffer {
		t.Fatalf("expected default event buffer to be kept, got %d", config.Connection.EventBuffer)
	}
}

func TestLoadReadsEnvFile(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	os.Unsetenv("GEMINI_API_KEY")
	t.Setenv("GOOGLE_API_KEY", "")

	envFile := writeFile(t, ".env", "GEMINI_API_KEY=from-env-file\n")

	config, err := Load("", envFile)
	if err != nil {
		t.Fatalf("expected config to load, got %v", err)
	}
	if config.APIKey != "from-env-file" {
		t.Fatalf("expected api key from env file, got %q", config.APIKey)
	}
}

func TestLoadRejectsUnreadableFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), filepath.Join(t.TempDir(), "missing.env")); err == nil {
		t.Fatalf("expected missing config file to fail")
	}
}

func TestLanguageLookup(t *testing.T) {
	config := Default()

	profile, err := config.Language("")
	if err != nil {
		t.Fatalf("expected default language, got %v", err)
	}
	if profile.Name != "fr" || profile.VoiceName != "Aoede" {
		t.Fatalf("expected french profile, got %+v", profile)
	}

	if _, err := config.Language("ja"); err == nil || !strings.Contains(err.Error(), "available") {
		t.Fatalf("expected unknown language error listing options, got %v", err)
	}
}

func TestInstructionsRenderProfile(t *testing.T) {
	config := Default()
	config.SystemInstructions = "  Teach {{.LanguageName}} with voice {{.VoiceName}}.  "

	render, err := config.Instructions()
	if err != nil {
		t.Fatalf("expected template to parse, got %v", err)
	}
	profile, _ := config.Language("es")

	got, err := render(profile)
	if err != nil {
		t.Fatalf("expected template to render, got %v", err)
	}
	if got != "Teach Spanish with voice Puck." {
		t.Fatalf("expected rendered instructions, got %q", got)
	}
}

package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	tutoring "github.com/koscakluka/lingua-live/core"
	"github.com/koscakluka/lingua-live/core/audio/miniaudio"
	"github.com/koscakluka/lingua-live/core/audio/portaudio"
	"github.com/koscakluka/lingua-live/core/playback"
	"github.com/koscakluka/lingua-live/core/transport"
	"github.com/koscakluka/lingua-live/core/transport/gemini"
	"github.com/koscakluka/lingua-live/core/transport/genailive"
	"github.com/koscakluka/lingua-live/internal/config"
	"github.com/koscakluka/lingua-live/internal/tui"
)

type flags struct {
	configPath string
	language   string
	model      string
	transport  string
	input      string
	output     string
	debugLog   string
}

func newRootCmd() *cobra.Command {
	var f flags

	cmd := &cobra.Command{
		Use:           "lingua-live",
		Short:         "Practice a language by talking with a live voice tutor",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), cmd, f)
		},
	}

	cmd.Flags().StringVarP(&f.configPath, "config", "c", "", "path to a YAML config file")
	cmd.Flags().StringVarP(&f.language, "language", "l", "", "language to practice (default from config)")
	cmd.Flags().StringVar(&f.model, "model", "", "live model name")
	cmd.Flags().StringVar(&f.transport, "transport", "", "live transport: websocket or genai")
	cmd.Flags().StringVar(&f.input, "input", "", "microphone backend: portaudio, miniaudio or none")
	cmd.Flags().StringVar(&f.output, "output", "", "speaker backend: miniaudio or virtual")
	cmd.Flags().StringVar(&f.debugLog, "debug", "", "write debug logs to this file")

	return cmd
}

func loadConfig(cmd *cobra.Command, f flags) (*config.Config, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return nil, err
	}

	if cmd.Flags().Changed("model") {
		cfg.Model = f.model
	}
	if cmd.Flags().Changed("transport") {
		cfg.Transport = f.transport
	}
	if cmd.Flags().Changed("input") {
		cfg.Audio.Input = f.input
	}
	if cmd.Flags().Changed("output") {
		cfg.Audio.Output = f.output
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func run(ctx context.Context, cmd *cobra.Command, f flags) error {
	if f.debugLog != "" {
		logFile, err := tea.LogToFile(f.debugLog, "lingua-live")
		if err != nil {
			return fmt.Errorf("failed to open debug log: %w", err)
		}
		defer logFile.Close()
	}

	cfg, err := loadConfig(cmd, f)
	if err != nil {
		return err
	}
	profile, err := cfg.Language(f.language)
	if err != nil {
		return err
	}
	instructions, err := cfg.Instructions()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dialer, err := newDialer(ctx, cfg)
	if err != nil {
		return err
	}

	audioDevices, err := openDevices(cfg)
	if err != nil {
		return err
	}
	defer audioDevices.Close()

	if virtual, ok := audioDevices.output.(*playback.VirtualOutput); ok {
		go virtual.Run(ctx, 20*time.Millisecond)
	}

	updates := tui.NewUpdates()
	opts := []tutoring.SessionOption{
		tutoring.WithDialer(dialer),
		tutoring.WithModel(cfg.Model),
		tutoring.WithFrameSize(cfg.Audio.FrameSize),
		tutoring.WithInstructions(instructions),
		tutoring.WithAudioOutput(audioDevices.output),
		tutoring.WithUpdateCallback(updates.Publish),
		tutoring.WithTransportOptions(
			transport.WithQueueSize(cfg.Connection.QueueSize),
			transport.WithEventBuffer(cfg.Connection.EventBuffer),
		),
	}
	if audioDevices.input != nil {
		opts = append(opts, tutoring.WithAudioInput(audioDevices.input))
	}
	session := tutoring.NewSession(opts...)
	defer func() {
		if err := session.Close(); err != nil {
			log.Printf("failed to close session: %v", err)
		}
	}()

	profiles := make([]tutoring.LanguageProfile, 0, len(cfg.Languages))
	selected := 0
	for i, language := range cfg.Languages {
		if language.Name == profile.Name {
			selected = i
		}
		profiles = append(profiles, language.Profile())
	}

	program := tea.NewProgram(tui.New(session, updates, profiles, selected), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("failed to run interface: %w", err)
	}
	return nil
}

func newDialer(ctx context.Context, cfg *config.Config) (transport.Dialer, error) {
	switch cfg.Transport {
	case config.TransportGenAI:
		var opts []genailive.DialerOption
		if cfg.Model != "" {
			opts = append(opts, genailive.WithDefaultModel(cfg.Model))
		}
		return genailive.NewDialer(ctx, cfg.APIKey, opts...)
	default:
		opts := []gemini.ClientOption{
			gemini.WithHandshakeTimeout(cfg.Connection.HandshakeTimeout),
			gemini.WithWebsocketDialer(&websocket.Dialer{
				Proxy:            http.ProxyFromEnvironment,
				HandshakeTimeout: cfg.Connection.HandshakeTimeout,
			}),
		}
		if cfg.Model != "" {
			opts = append(opts, gemini.WithDefaultModel(cfg.Model))
		}
		return gemini.NewClient(cfg.APIKey, opts...), nil
	}
}

type devices struct {
	input  tutoring.AudioInput
	output playback.Output
	close  []func()
}

func (d *devices) Close() {
	for i := len(d.close) - 1; i >= 0; i-- {
		d.close[i]()
	}
}

// openDevices opens the configured backends. A single miniaudio client serves
// both directions when both are miniaudio.
func openDevices(cfg *config.Config) (*devices, error) {
	d := &devices{}

	var mini *miniaudio.Client
	openMini := func() (*miniaudio.Client, error) {
		if mini != nil {
			return mini, nil
		}
		client, err := miniaudio.NewClient()
		if err != nil {
			return nil, fmt.Errorf("failed to open miniaudio: %w", err)
		}
		mini = client
		d.close = append(d.close, client.Close)
		return client, nil
	}

	switch cfg.Audio.Output {
	case config.OutputVirtual:
		d.output = playback.NewVirtualOutput(0)
	default:
		client, err := openMini()
		if err != nil {
			return nil, err
		}
		d.output = client
	}

	switch cfg.Audio.Input {
	case config.InputNone:
	case config.InputMiniaudio:
		client, err := openMini()
		if err != nil {
			d.Close()
			return nil, err
		}
		d.input = client
	default:
		client, err := portaudio.NewClient(cfg.Audio.FrameSize)
		if err != nil {
			d.Close()
			return nil, fmt.Errorf("failed to open portaudio: %w", err)
		}
		// The session closes its audio input.
		d.input = client
	}

	return d, nil
}

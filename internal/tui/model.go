package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	tutoring "github.com/koscakluka/lingua-live/core"
	"github.com/koscakluka/lingua-live/core/conversations"
)

// Controller is the part of [tutoring.Session] the interface drives.
type Controller interface {
	Connect(ctx context.Context, profile tutoring.LanguageProfile) error
	ToggleMicrophone(ctx context.Context) error
	Disconnect() error
	SendTextMessage(text string) error
	Snapshot() tutoring.Snapshot
}

const helpText = "c conectar • m microfone • d desconectar • l idioma • t escrever • q sair"

type actionResultMsg struct{ err error }

// Model is the bubbletea model of the tutor screen. Session calls run inside
// commands, never in Update, as the session may be publishing a snapshot at
// the same time.
type Model struct {
	controller Controller
	updates    *Updates
	profiles   []tutoring.LanguageProfile
	selected   int

	snapshot  tutoring.Snapshot
	actionErr error

	spinner  spinner.Model
	viewport viewport.Model
	input    textinput.Model
	typing   bool
	styles   styles

	width  int
	height int
	ready  bool
}

func New(controller Controller, updates *Updates, profiles []tutoring.LanguageProfile, selected int) Model {
	input := textinput.New()
	input.Placeholder = "Escreva uma mensagem..."
	input.CharLimit = 500

	if selected < 0 || selected >= len(profiles) {
		selected = 0
	}

	return Model{
		controller: controller,
		updates:    updates,
		profiles:   profiles,
		selected:   selected,
		snapshot:   controller.Snapshot(),
		spinner:    spinner.New(spinner.WithSpinner(spinner.Dot)),
		input:      input,
		styles:     newStyles(),
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.updates.listen(), m.spinner.Tick)
}

func (m Model) profile() tutoring.LanguageProfile {
	if len(m.profiles) == 0 {
		return tutoring.LanguageProfile{}
	}
	return m.profiles[m.selected]
}

func (m Model) run(action func() error) tea.Cmd {
	return func() tea.Msg { return actionResultMsg{err: action()} }
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()

	case snapshotMsg:
		m.snapshot = tutoring.Snapshot(msg)
		m.refreshTranscript()
		cmds = append(cmds, m.updates.listen())

	case actionResultMsg:
		m.actionErr = msg.err

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case tea.KeyMsg:
		if m.typing {
			return m.updateTyping(msg)
		}
		return m.updateKeys(msg)
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func (m Model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "c":
		profile := m.profile()
		return m, m.run(func() error { return m.controller.Connect(context.Background(), profile) })
	case "m":
		return m, m.run(func() error { return m.controller.ToggleMicrophone(context.Background()) })
	case "d":
		return m, m.run(m.controller.Disconnect)
	case "l":
		if m.snapshot.State.CanConnect() && len(m.profiles) > 0 {
			m.selected = (m.selected + 1) % len(m.profiles)
		}
		return m, nil
	case "t", "tab":
		m.typing = true
		return m, m.input.Focus()
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) updateTyping(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		return m, tea.Quit
	case tea.KeyEsc:
		m.typing = false
		m.input.Blur()
		return m, nil
	case tea.KeyEnter:
		text := m.input.Value()
		m.input.Reset()
		m.typing = false
		m.input.Blur()
		return m, m.run(func() error { return m.controller.SendTextMessage(text) })
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) resize() {
	width := max(m.width-4, 10)
	height := max(m.height-9, 3)
	if !m.ready {
		m.viewport = viewport.New(width, height)
		m.ready = true
	} else {
		m.viewport.Width = width
		m.viewport.Height = height
	}
	m.input.Width = width - 4
	m.refreshTranscript()
}

func (m *Model) refreshTranscript() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(renderTranscript(m.snapshot, m.viewport.Width, m.styles))
	m.viewport.GotoBottom()
}

func speakerLabel(speaker conversations.Speaker) string {
	if speaker == conversations.SpeakerUser {
		return "Você"
	}
	return "Tutor"
}

func renderTranscript(snapshot tutoring.Snapshot, width int, s styles) string {
	var b strings.Builder
	line := func(style lipgloss.Style, speaker conversations.Speaker, text string, partial bool) {
		body := wordwrap.String(text, max(width-2, 10))
		if partial {
			body = s.Partial.Render(body)
		}
		b.WriteString(style.Render(speakerLabel(speaker) + ":"))
		b.WriteString("\n")
		b.WriteString(body)
		b.WriteString("\n\n")
	}

	for _, message := range snapshot.Messages {
		style := s.Tutor
		if message.Speaker == conversations.SpeakerUser {
			style = s.User
		}
		line(style, message.Speaker, message.Text, false)
	}
	if snapshot.UserPartial != "" {
		line(s.User, conversations.SpeakerUser, snapshot.UserPartial, true)
	}
	if snapshot.TutorPartial != "" {
		line(s.Tutor, conversations.SpeakerTutor, snapshot.TutorPartial, true)
	}

	if b.Len() == 0 {
		return s.Help.Render("Nenhuma mensagem ainda.")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m Model) View() string {
	if !m.ready {
		return "Carregando..."
	}

	status := m.snapshot.Status
	if status == "" {
		status = m.snapshot.State.Status()
	}
	if m.snapshot.State == tutoring.StateConnecting {
		status = m.spinner.View() + " " + status
	}
	mic := "mic desligado"
	if m.snapshot.MicrophoneOn {
		mic = "mic ligado"
	}
	header := lipgloss.JoinHorizontal(lipgloss.Top,
		m.styles.Title.Render("lingua-live · "+m.profile().DisplayName),
		m.styles.Status.Render(fmt.Sprintf("[%s] [%s]", status, mic)),
	)

	var footer []string
	if err := m.errorText(); err != "" {
		footer = append(footer, m.styles.Error.Render(err))
	}
	counters := m.snapshot.Counters
	footer = append(footer, m.styles.Help.Render(fmt.Sprintf(
		"quadros enviados %d • descartados %d • áudio %d • fila %s • interrupções %d",
		counters.FramesSent, counters.FramesDropped, counters.ChunksScheduled,
		m.snapshot.BufferedAudio.Round(100*time.Millisecond), counters.Interruptions)))
	if m.typing {
		footer = append(footer, m.input.View())
	}
	footer = append(footer, m.styles.Help.Render(helpText))

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		m.styles.Border.Render(m.viewport.View()),
		strings.Join(footer, "\n"),
	)
}

func (m Model) errorText() string {
	if m.snapshot.Err != nil {
		return m.snapshot.Err.Error()
	}
	if m.actionErr != nil {
		return m.actionErr.Error()
	}
	return ""
}

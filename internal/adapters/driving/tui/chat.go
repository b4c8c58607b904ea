// Package tui provides the interactive chat interface following the
// Elm architecture. It talks to the core only through the driving
// Conversation port, so it stays a thin rendering layer.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/meridian-labs/briefing/internal/core/domain"
	"github.com/meridian-labs/briefing/internal/core/ports/driving"
)

// Styles for the chat transcript.
var (
	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("12")).
			Bold(true)

	assistantStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10")).
			Bold(true)

	citationStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("8")).
			Italic(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("8"))
)

// turnMsg carries a completed turn back into the update loop.
type turnMsg struct {
	result *domain.TurnResult
	err    error
}

// Model is the chat TUI state.
type Model struct {
	conversation driving.Conversation
	ctx          context.Context

	viewport   viewport.Model
	input      textarea.Model
	spin       spinner.Model
	transcript []string

	sessionID string
	waiting   bool
	ready     bool
	width     int
	height    int
}

// NewModel creates the chat model.
func NewModel(ctx context.Context, conversation driving.Conversation) *Model {
	input := textarea.New()
	input.Placeholder = "Ask about your documents..."
	input.SetHeight(2)
	input.CharLimit = 2000
	input.ShowLineNumbers = false
	input.Focus()

	spin := spinner.New()
	spin.Spinner = spinner.Dot

	return &Model{
		conversation: conversation,
		ctx:          ctx,
		input:        input,
		spin:         spin,
	}
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return textarea.Blink
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		inputHeight := m.input.Height() + 2
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-inputHeight-1)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - inputHeight - 1
		}
		m.input.SetWidth(msg.Width - 2)
		m.refreshViewport()

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			if m.waiting {
				return m, nil
			}
			text := strings.TrimSpace(m.input.Value())
			if text == "" {
				return m, nil
			}
			m.appendUser(text)
			m.input.Reset()
			m.waiting = true
			cmds = append(cmds, m.sendTurn(text), m.spin.Tick)
		}

	case turnMsg:
		m.waiting = false
		if msg.err != nil {
			m.transcript = append(m.transcript,
				errorStyle.Render(fmt.Sprintf("error: %v", msg.err)))
		} else {
			m.sessionID = msg.result.SessionID
			m.appendAssistant(msg.result)
		}
		m.refreshViewport()

	case spinner.TickMsg:
		if m.waiting {
			var cmd tea.Cmd
			m.spin, cmd = m.spin.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	if !m.waiting {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// View implements tea.Model.
func (m *Model) View() string {
	if !m.ready {
		return "starting..."
	}

	status := helpStyle.Render("enter: send  esc: quit")
	if m.waiting {
		status = m.spin.View() + " thinking..."
	}

	return fmt.Sprintf("%s\n%s\n%s", m.viewport.View(), m.input.View(), status)
}

func (m *Model) sendTurn(text string) tea.Cmd {
	sessionID := m.sessionID
	return func() tea.Msg {
		result, err := m.conversation.Converse(m.ctx, domain.TurnRequest{
			Message:   text,
			SessionID: sessionID,
		})
		return turnMsg{result: result, err: err}
	}
}

func (m *Model) appendUser(text string) {
	m.transcript = append(m.transcript, userStyle.Render("You: ")+text)
	m.refreshViewport()
}

func (m *Model) appendAssistant(result *domain.TurnResult) {
	m.transcript = append(m.transcript, assistantStyle.Render("Briefing: ")+result.Message)

	if len(result.Metadata.Articles) > 0 {
		refs := make([]string, 0, len(result.Metadata.Articles))
		for _, a := range result.Metadata.Articles {
			refs = append(refs, fmt.Sprintf("%s (%.2f)", a.Title, a.Score))
		}
		m.transcript = append(m.transcript,
			citationStyle.Render("  sources: "+strings.Join(refs, ", ")))
	}
}

func (m *Model) refreshViewport() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(strings.Join(m.transcript, "\n\n"))
	m.viewport.GotoBottom()
}

// Run starts the chat program and blocks until the user quits.
func Run(ctx context.Context, conversation driving.Conversation) error {
	p := tea.NewProgram(NewModel(ctx, conversation), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

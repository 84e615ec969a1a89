package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/reinhart/finAgent/internal/assistant"
)

// Agent is what the TUI drives.
type Agent interface {
	ProcessQuery(ctx context.Context, query string) (string, error)
	Updates() <-chan assistant.StatusUpdate
}

const (
	agentName = "finAgent"

	// queryTimeout bounds one query including every tool call it makes.
	queryTimeout = 180 * time.Second

	// chrome is the rows taken by borders, the status line and the input box.
	chrome       = 7
	inputHeight  = 3
	maxStatuses  = 3
	inputPadding = 4
)

var (
	colorText    = lipgloss.Color("#cdd6f4")
	colorSubtext = lipgloss.Color("#9399b2")
	colorInput   = lipgloss.Color("#f5e0dc")
	colorUser    = lipgloss.Color("#ef9f76")
	colorAgent   = lipgloss.Color("#a6e3a1")
	colorPrompt  = lipgloss.Color("#fab387")
	colorSpinner = lipgloss.Color("#cba6f7")
	colorBorder  = lipgloss.Color("#45475a")
	colorFocus   = lipgloss.Color("#f9e2af")
	colorError   = lipgloss.Color("#f38ba8")

	styleText = lipgloss.NewStyle().Foreground(colorText)

	stylePane = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(0, 1)

	styleInputPane = stylePane.BorderForeground(colorFocus)

	styleUser  = lipgloss.NewStyle().Foreground(colorUser).Bold(true).MarginTop(1)
	styleAgent = lipgloss.NewStyle().Foreground(colorAgent).Bold(true).MarginTop(1)
	styleError = lipgloss.NewStyle().Foreground(colorError).Bold(true)
	styleState = lipgloss.NewStyle().Foreground(colorSubtext).Italic(true)
)

type State int

const (
	StateReady State = iota
	StateThinking
)

type Model struct {
	agent    Agent
	input    textarea.Model
	viewport viewport.Model
	spinner  spinner.Model
	state    State

	// transcript is everything shown in the viewport; the viewport only
	// renders the visible window of it.
	transcript    string
	statusHistory []string

	width  int
	height int
}

// newInput builds the query box. Enter submits, so it is recreated after
// every query to drop the textarea's line position.
func newInput(width int) textarea.Model {
	ta := textarea.New()
	ta.Placeholder = "Ask about a stock, e.g. price of AAPL... ('quit' to exit)"
	ta.Focus()
	ta.SetHeight(inputHeight)
	ta.ShowLineNumbers = false
	ta.Prompt = ""
	ta.CharLimit = 280

	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.FocusedStyle.Placeholder = lipgloss.NewStyle().Foreground(colorSubtext)
	ta.FocusedStyle.Text = lipgloss.NewStyle().Foreground(colorInput)
	if width > 0 {
		ta.SetWidth(width)
	}
	return ta
}

func NewModel(agent Agent) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(colorSpinner)

	m := Model{
		agent:    agent,
		input:    newInput(0),
		viewport: viewport.New(80, 20),
		spinner:  s,
		state:    StateReady,
	}
	m.appendTranscript(styleAgent.Render(agentName) + "\n" +
		styleText.Render("MCP Client Started! Type your queries or 'quit' to exit."))
	return m
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, m.spinner.Tick)
}

type agentMsg struct {
	response string
	err      error
}

type statusMsg struct {
	msg string
}

func (m *Model) appendTranscript(block string) {
	if m.transcript != "" {
		m.transcript += "\n"
	}
	m.transcript += block
	m.viewport.SetContent(m.transcript)
	m.viewport.GotoBottom()
}

func waitForStatus(sub <-chan assistant.StatusUpdate) tea.Cmd {
	return func() tea.Msg {
		update, ok := <-sub
		if !ok {
			return nil
		}
		return statusMsg{msg: update.Message}
	}
}

func (m Model) runQuery(query string) tea.Cmd {
	agent := m.agent
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
		defer cancel()

		resp, err := agent.ProcessQuery(ctx, query)
		return agentMsg{response: resp, err: err}
	}
}

func (m Model) resize(msg tea.WindowSizeMsg) Model {
	m.width = msg.Width
	m.height = msg.Height

	m.viewport.Width = msg.Width - inputPadding
	m.viewport.Height = max(msg.Height-chrome, 5)
	m.input.SetWidth(msg.Width - inputPadding)
	return m
}

// submit handles Enter while ready. ok is false when there is nothing to send.
func (m Model) submit() (Model, tea.Cmd, bool) {
	query := strings.TrimSpace(m.input.Value())
	if query == "" {
		return m, nil, false
	}
	if strings.EqualFold(query, "quit") {
		return m, tea.Quit, true
	}

	m.appendTranscript(styleUser.Render("You") + "\n" + styleText.Render(query))
	m.state = StateThinking
	m.statusHistory = []string{"Processing query..."}
	m.input = newInput(m.width - inputPadding)

	return m, tea.Batch(waitForStatus(m.agent.Updates()), m.runQuery(query)), true
}

func (m Model) finish(msg agentMsg) Model {
	m.state = StateReady

	body := styleText.Render(msg.response)
	if msg.err != nil {
		body = styleError.Render(fmt.Sprintf("Error: %v", msg.err))
	}
	rule := lipgloss.NewStyle().Foreground(colorBorder).Render(strings.Repeat("─", max(m.width/2, 1)))
	m.appendTranscript(styleAgent.Render(agentName) + "\n" + body + "\n\n" + rule)

	m.input.Focus()
	return m
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m = m.resize(msg)

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			if msg.Alt || m.state != StateReady {
				break
			}
			if next, cmd, ok := m.submit(); ok {
				// The Enter key must not reach the fresh textarea.
				return next, cmd
			}
		}

	case statusMsg:
		m.statusHistory = append(m.statusHistory, msg.msg)
		if len(m.statusHistory) > maxStatuses {
			m.statusHistory = m.statusHistory[len(m.statusHistory)-maxStatuses:]
		}
		if m.state == StateThinking {
			cmds = append(cmds, waitForStatus(m.agent.Updates()))
		}

	case agentMsg:
		return m.finish(msg), nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	// Input is frozen while a query runs.
	if m.state == StateReady {
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m Model) View() string {
	chat := stylePane.Width(m.width - 2).Height(m.viewport.Height + 2).Render(m.viewport.View())

	status := styleState.Render(" Ready.")
	if m.state == StateThinking {
		status = fmt.Sprintf(" %s %s", m.spinner.View(),
			styleState.Render(strings.Join(m.statusHistory, "  ➜  ")))
	}
	statusLine := lipgloss.NewStyle().Width(m.width).PaddingLeft(1).Render(status)

	prompt := lipgloss.NewStyle().Foreground(colorPrompt).Render("Query: ")
	input := styleInputPane.Width(m.width - 2).
		Render(lipgloss.JoinHorizontal(lipgloss.Top, prompt, m.input.View()))

	return lipgloss.JoinVertical(lipgloss.Left, chat, statusLine, input)
}

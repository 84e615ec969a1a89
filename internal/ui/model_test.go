package ui

import (
	"context"
	"fmt"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reinhart/finAgent/internal/assistant"
)

type stubAgent struct {
	queries []string
	updates chan assistant.StatusUpdate
}

func newStubAgent() *stubAgent {
	return &stubAgent{updates: make(chan assistant.StatusUpdate, 4)}
}

func (s *stubAgent) ProcessQuery(_ context.Context, q string) (string, error) {
	s.queries = append(s.queries, q)
	return "The current price of AAPL is $150.00", nil
}

func (s *stubAgent) Updates() <-chan assistant.StatusUpdate { return s.updates }

func sized(t *testing.T, m Model) Model {
	t.Helper()
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return next.(Model)
}

func TestQuitExitsWithoutQuerying(t *testing.T) {
	agent := newStubAgent()
	m := sized(t, NewModel(agent))
	m.input.SetValue("  Quit ")

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Empty(t, agent.queries)
}

func TestEnterStartsQuery(t *testing.T) {
	agent := newStubAgent()
	m := sized(t, NewModel(agent))
	m.input.SetValue("price of AAPL")

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	nm := next.(Model)
	assert.Equal(t, StateThinking, nm.state)
	assert.Empty(t, nm.input.Value())
	assert.Contains(t, nm.viewport.View(), "price of AAPL")
	assert.Contains(t, nm.View(), "Processing query...")
}

func TestBlankEnterIsIgnored(t *testing.T) {
	m := sized(t, NewModel(newStubAgent()))
	m.input.SetValue("   ")

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, StateReady, next.(Model).state)
}

func TestStatusUpdatesKeepLastThree(t *testing.T) {
	m := sized(t, NewModel(newStubAgent()))
	m.state = StateThinking
	for _, s := range []string{"Listing tools...", "Thinking...", "Calling get_stock_price...", "Done"} {
		next, _ := m.Update(statusMsg{msg: s})
		m = next.(Model)
	}
	assert.Equal(t, []string{"Thinking...", "Calling get_stock_price...", "Done"}, m.statusHistory)
}

func TestAgentReplyIsRendered(t *testing.T) {
	m := sized(t, NewModel(newStubAgent()))
	m.state = StateThinking

	next, _ := m.Update(agentMsg{response: "The current price of AAPL is $150.00"})
	nm := next.(Model)
	assert.Equal(t, StateReady, nm.state)
	assert.Contains(t, nm.viewport.View(), "$150.00")

	next, _ = nm.Update(agentMsg{err: errors.New("Unknown tool name: wire_money")})
	assert.Contains(t, next.(Model).viewport.View(), "Error: Unknown tool name: wire_money")
}

func TestTranscriptKeepsScrolledOffHistory(t *testing.T) {
	m := NewModel(newStubAgent())
	next, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 12})
	m = next.(Model)

	for i := 0; i < 10; i++ {
		next, _ = m.Update(agentMsg{response: fmt.Sprintf("answer %d", i)})
		m = next.(Model)
	}
	assert.Contains(t, m.transcript, "answer 0")
	assert.Contains(t, m.viewport.View(), "answer 9")
	assert.NotContains(t, m.viewport.View(), "answer 0")
}

package repl

import (
	"os"
	"strings"

	"github.com/peterh/liner"
)

// Terminal is a LineReader with line editing and persistent history.
type Terminal struct {
	line        *liner.State
	historyFile string
}

// NewTerminal takes over the terminal. historyFile may be empty.
func NewTerminal(historyFile string) *Terminal {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	t := &Terminal{line: line, historyFile: historyFile}
	if historyFile != "" {
		if f, err := os.Open(historyFile); err == nil {
			_, _ = line.ReadHistory(f)
			f.Close()
		}
	}
	return t
}

func (t *Terminal) Prompt(p string) (string, error) {
	input, err := t.line.Prompt(p)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		t.line.AppendHistory(input)
	}
	return input, nil
}

// Close saves history and restores the terminal.
func (t *Terminal) Close() error {
	if t.historyFile != "" {
		if f, err := os.OpenFile(t.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600); err == nil {
			_, _ = t.line.WriteHistory(f)
			f.Close()
		}
	}
	return t.line.Close()
}

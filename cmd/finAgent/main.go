package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/reinhart/finAgent/internal/assistant"
	"github.com/reinhart/finAgent/internal/configuration"
	"github.com/reinhart/finAgent/internal/logger"
	"github.com/reinhart/finAgent/internal/mcpsession"
	"github.com/reinhart/finAgent/internal/repl"
	"github.com/reinhart/finAgent/internal/ui"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var useTUI bool

	cmd := &cobra.Command{
		Use:   "finAgent <server-script>",
		Short: "Answer finance questions with an LLM and an MCP tool provider",
		Long: "finAgent launches the MCP tool provider at <server-script>, then answers queries\n" +
			"typed at the prompt using the configured LLM and the provider's finance tools.",
		Args:          cobra.ExactArgs(1),
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			return runInteractive(cmd.Context(), args[0], useTUI)
		},
	}
	cmd.Flags().BoolVar(&useTUI, "tui", false, "use the full-screen terminal UI instead of the line prompt")

	cmd.AddCommand(newServeCmd())
	return cmd
}

// setupLogging sends logs to debug.log in TUI mode, to stderr otherwise.
// Outside debug mode the line prompt stays quiet.
func setupLogging(cfg *configuration.Config, tui bool) (func(), error) {
	logger.Init()
	if cfg.Agent.Debug {
		logger.SetDebug(true)
	}

	if tui {
		if !logger.DebugMode {
			return func() {}, nil
		}
		f, err := tea.LogToFile("debug.log", "debug")
		if err != nil {
			return nil, errors.Wrap(err, "could not open debug.log")
		}
		logger.SetOutput(f)
		return func() { f.Close() }, nil
	}

	if logger.DebugMode {
		logger.SetOutput(os.Stderr)
	}
	return func() {}, nil
}

// connect builds the LLM provider, launches the tool provider and wires the agent.
func connect(ctx context.Context, cfg *configuration.Config, script string) (*assistant.Agent, *mcpsession.Session, error) {
	llm, err := assistant.NewProvider(ctx, cfg.LLM)
	if err != nil {
		return nil, nil, err
	}
	logger.Debug("Selected provider: %s", cfg.LLM.Provider)

	interpreter, err := cfg.Interpreter(script)
	if err != nil {
		return nil, nil, assistant.NewConnectionError("unsupported server script", err)
	}

	session, err := mcpsession.Connect(ctx, script, interpreter)
	if err != nil {
		return nil, nil, err
	}
	return assistant.NewAgent(llm, session, assistant.NewFinanceRegistry()), session, nil
}

func runInteractive(ctx context.Context, script string, useTUI bool) error {
	cfg, err := configuration.LoadConfig()
	if err != nil {
		return err
	}
	closeLog, err := setupLogging(cfg, useTUI)
	if err != nil {
		return err
	}
	defer closeLog()

	agent, session, err := connect(ctx, cfg, script)
	if err != nil {
		return err
	}
	defer session.Close()

	if useTUI {
		p := tea.NewProgram(ui.NewModel(agent), tea.WithAltScreen(), tea.WithContext(ctx))
		if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
			return errors.Wrap(err, "running finAgent")
		}
		return nil
	}

	term := repl.NewTerminal(historyFile())
	defer term.Close()
	return repl.Run(ctx, agent, term, os.Stdout)
}

func historyFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	dir = filepath.Join(dir, "finagent")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return ""
	}
	return filepath.Join(dir, "history")
}

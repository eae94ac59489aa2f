package cli

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sktbrd/skatehive-ops/internal/config"
	"github.com/sktbrd/skatehive-ops/internal/dashboard"
	"github.com/sktbrd/skatehive-ops/internal/errors"
	"github.com/sktbrd/skatehive-ops/internal/logger"
	"github.com/sktbrd/skatehive-ops/internal/monitor"
)

// dashboardCommand starts the TUI monitoring dashboard.
func dashboardCommand(configPath string) error {
	cfg, mon, err := buildMonitor(configPath)
	if err != nil {
		return err
	}
	defer mon.Close()

	model := dashboard.NewModel(cfg, mon)
	program := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return errors.WrapWithCode(err, errors.ErrExec,
			"Dashboard terminated unexpectedly",
			"Check that this terminal supports the alternate screen")
	}
	return nil
}

// buildMonitor loads configuration and constructs the aggregator shared
// by every command.
func buildMonitor(configPath string) (*config.Config, *monitor.Monitor, error) {
	log := logger.NewEnvLogger("cli")
	cfg, err := config.Load(context.Background(), config.Options{
		Path:   configPath,
		Logger: log,
	})
	if err != nil {
		return nil, nil, err
	}
	mon := monitor.New(cfg, monitor.Options{Logger: log})
	return cfg, mon, nil
}

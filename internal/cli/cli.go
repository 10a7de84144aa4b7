package cli

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/vk/tickrig/internal/app"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Parse processes command-line arguments. It returns a populated app.Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("tickrig", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
tickrig - A tick-driven block-graph execution engine.

Usage:
  tickrig [options] [GRAPH_PATH]

Arguments:
  GRAPH_PATH
    Path to a graph document (.hcl file or directory). When given, the
    graph is planned into a fresh run directory and then executed unless
    -plan-only is set. Without it, the latest run directory is executed.

Options:
`)
		flagSet.PrintDefaults()
	}

	graphFlag := flagSet.String("graph", "", "Path to the graph document file or directory.")
	gFlag := flagSet.String("g", "", "Path to the graph document (shorthand).")
	blocksFlag := flagSet.String("blocks", "modules", "Path to the block catalog manifests.")
	runsDirFlag := flagSet.String("runs-dir", "runs", "Root directory run directories are created under.")
	planOnlyFlag := flagSet.Bool("plan-only", false, "Plan and persist run artifacts without executing.")
	runFlag := flagSet.String("run", "", "Execute this specific run directory instead of planning.")
	hzFlag := flagSet.Int("hz", 0, "Override the run's tick rate. 0 keeps the graph's value.")
	durationFlag := flagSet.Int("duration", 0, "Override the run's duration in seconds. 0 keeps the graph's value.")
	viewerFlag := flagSet.Bool("viewer", false, "Open live viewer blocks during execution.")
	headlessFlag := flagSet.Bool("headless", false, "Keep live viewer blocks closed. Wins over -viewer.")
	healthPortFlag := flagSet.Int("healthcheck-port", 0, "Port for the HTTP health check server. 0 is disabled.")
	logFormatFlag := flagSet.String("log-format", "json", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	graphPath := ""
	if *graphFlag != "" {
		graphPath = *graphFlag
	} else if *gFlag != "" {
		graphPath = *gFlag
	} else if flagSet.NArg() > 0 {
		graphPath = flagSet.Arg(0)
	}
	slog.Debug("Graph path determined.", "path", graphPath)

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}
	slog.Debug("CLI parameter validation complete.")

	cfg := &app.Config{
		GraphPath:       graphPath,
		BlocksPath:      *blocksFlag,
		RunsDir:         *runsDirFlag,
		PlanOnly:        *planOnlyFlag,
		RunDir:          *runFlag,
		Hz:              *hzFlag,
		DurationSec:     *durationFlag,
		Viewer:          *viewerFlag,
		Headless:        *headlessFlag,
		HealthcheckPort: *healthPortFlag,
		LogFormat:       logFormat,
		LogLevel:        logLevel,
	}
	if err := cfg.Validate(); err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", cfg)
	return cfg, false, nil
}

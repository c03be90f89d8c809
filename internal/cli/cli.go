package cli

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/vk/stackforge/internal/app"
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

// Parse processes command-line arguments. It returns a populated Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("stackforge", flag.ContinueOnError)
	flagSet.SetOutput(output)

	// Custom usage/help text function
	flagSet.Usage = func() {
		fmt.Fprint(output, `
stackforge - Builds Lambda, layer, and AppSync schema artifacts.

Usage:
  stackforge [options] [PROJECT_ROOT]

Arguments:
  PROJECT_ROOT
    Path to the project root. Defaults to auto-detection by walking up
    from the working directory looking for a stackforge.hcl manifest.

Options:
`)
		flagSet.PrintDefaults()
	}

	rootFlag := flagSet.String("project-root", "", "Path to the project root directory.")
	manifestFlag := flagSet.String("manifest", "", "Path to the build manifest. Defaults to <root>/stackforge.hcl when present.")
	cleanFlag := flagSet.Bool("clean", false, "Only clean build artifacts, don't build.")
	verboseFlag := flagSet.Bool("verbose", false, "Enable verbose (debug) logging.")
	vFlag := flagSet.Bool("v", false, "Enable verbose (debug) logging (shorthand).")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	workersFlag := flagSet.Int("workers", 4, "Number of concurrent unit builds per phase.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	root := *rootFlag
	if root == "" && flagSet.NArg() > 0 {
		root = flagSet.Arg(0)
	}

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
	if *verboseFlag || *vFlag {
		logLevel = "debug"
	}
	slog.Debug("CLI parameter validation complete.")

	config, err := app.NewConfig(app.Config{
		ProjectRoot:  root,
		ManifestPath: *manifestFlag,
		CleanOnly:    *cleanFlag,
		LogFormat:    logFormat,
		LogLevel:     logLevel,
		WorkerCount:  *workersFlag,
	})

	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.")
	return config, false, nil
}

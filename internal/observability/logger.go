// Package observability owns the process-wide loggers and the telemetry
// system. The CLI logs human-readable lines; `mimin serve` switches to JSON
// on stderr.
package observability

import (
	"fmt"
	"os"
	"strings"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/fulmenhq/gofulmen/logging"
)

var (
	// CLILogger is used by commands (SIMPLE profile).
	CLILogger *logging.Logger

	// ServerLogger is used once the HTTP server starts (STRUCTURED profile).
	ServerLogger *logging.Logger
)

// InitCLILogger installs CLILogger. verbose lowers the level to DEBUG.
func InitCLILogger(serviceName string, verbose bool) {
	logger, err := logging.NewCLI(serviceName)
	if err != nil {
		fatal(foundry.ExitConfigInvalid, "Failed to initialize CLI logger", err)
	}
	if verbose {
		logger.SetLevel(logging.DEBUG)
	}
	CLILogger = logger
}

// InitServerLogger installs ServerLogger. debug forces DEBUG and tags the
// records with environment=development. A non-empty namespace is attached
// to every record.
func InitServerLogger(serviceName string, logLevel string, debug bool, namespace ...string) {
	ns := ""
	if len(namespace) > 0 {
		ns = namespace[0]
	}

	logger, err := logging.New(serverLoggerConfig(serviceName, parseLogLevel(logLevel), debug, ns))
	if err != nil {
		fatal(foundry.ExitConfigInvalid, "Failed to initialize server logger", err)
	}
	ServerLogger = logger
}

func serverLoggerConfig(service, level string, debug bool, namespace string) *logging.LoggerConfig {
	environment := "production"
	if debug {
		level, environment = "DEBUG", "development"
	}

	static := map[string]any{}
	if namespace != "" {
		static["namespace"] = namespace
	}

	return &logging.LoggerConfig{
		Profile:      logging.ProfileStructured,
		DefaultLevel: level,
		Service:      service,
		Environment:  environment,
		StaticFields: static,
		Middleware: []logging.MiddlewareConfig{
			{Name: "correlation", Enabled: true, Order: 100, Config: map[string]any{}},
		},
		Sinks: []logging.SinkConfig{{
			Type:    "console",
			Format:  "json",
			Console: &logging.ConsoleSinkConfig{Stream: "stderr"},
		}},
		EnableCaller:     true,
		EnableStacktrace: true,
	}
}

// Component returns the logger core packages should use: the server logger
// when serving, otherwise the CLI logger. It may return nil.
func Component() *logging.Logger {
	if ServerLogger != nil {
		return ServerLogger
	}
	return CLILogger
}

// parseLogLevel maps a config value to a logging severity. Unknown values
// fall back to INFO.
func parseLogLevel(levelStr string) string {
	switch level := strings.ToUpper(strings.TrimSpace(levelStr)); level {
	case "TRACE", "DEBUG", "INFO", "WARN", "ERROR":
		return level
	case "WARNING":
		return "WARN"
	default:
		return "INFO"
	}
}

// fatal reports a logger construction failure on stderr, where no logger
// exists yet, and exits.
func fatal(code foundry.ExitCode, msg string, err error) {
	fmt.Fprintf(os.Stderr, "FATAL: %s: %v\n", msg, err)
	if info, ok := foundry.GetExitCodeInfo(code); ok {
		fmt.Fprintf(os.Stderr, "Exit Code: %d (%s) - %s\n", info.Code, info.Name, info.Description)
		os.Exit(info.Code)
	}
	os.Exit(int(code))
}

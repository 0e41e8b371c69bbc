package triggerfeed

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/okian/monopad/pkg/logger"
)

const logFilePermission = 0600

// SetupLogging sends log output to stdout and to logFile. An empty logFile
// gets a timestamped name.
func SetupLogging(logFile string, verbose bool) error {
	if logFile == "" {
		logFile = "trigger_feed_" + time.Now().Format("20060102_150405") + ".log"
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}
	if err := logger.InitWriter(io.MultiWriter(os.Stdout, file)); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	if verbose {
		_ = logger.SetLevelString("debug")
	}
	logger.Get().Info(context.Background(), "logging to file", logger.String("logFile", logFile))
	return nil
}

// ShowHelp prints usage information.
func ShowHelp() {
	os.Stdout.WriteString(`monopad trigger feed
====================

Registers entities, submits concurrent triggers (some of them twice) and
checks every resulting rating against a local replay.

Usage:
  go run ./cmd/trigger-feed [options]

Options:
  -url string        Base URL of the service (default "http://localhost:9080")
  -entities int      Number of entities to register (default 20)
  -triggers int      Number of distinct triggers (default 2000)
  -replays int       Number of triggers submitted twice (default 200)
  -workers int       Number of concurrent workers (default CPU cores * 2)
  -timeout duration  HTTP request timeout (default 30s)
  -log string        Log file (default: trigger_feed_TIMESTAMP.log)
  -verbose           Enable verbose logging
  -help              Show this help message
`)
}

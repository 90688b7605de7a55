package testevents

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/kyoden/utagoe/pkg/logger"
)

// File permission constants.
const (
	logFilePermission = 0600
)

// SetupLogging configures logging to both console and file.
// If logFile is empty, a timestamped filename is generated.
func SetupLogging(logFile string) error {
	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if logFile == "" {
		timestamp := time.Now().Format("20060102_150405")
		logFile = "smoke_log_" + timestamp + ".log"
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}

	multiWriter := io.MultiWriter(os.Stdout, file)
	log.SetOutput(multiWriter)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	logger.Get().Info(context.Background(), "logging to file", logger.String("logFile", logFile))

	return nil
}

// ShowHelp prints usage information for the smoke test tool.
func ShowHelp() {
	fmt.Println(`utagoe webhook smoke test

Posts signed synthetic webhook deliveries (follow events plus text
commands) against a running instance, then checks the /stats snapshot.

Flags:
  -url      Base URL of the service (default http://localhost:8080)
  -secret   Channel secret used to sign deliveries (required)
  -users    Number of synthetic users (default 100)
  -events   Text events per user after the follow (default 3)
  -workers  Concurrent submission workers (default 2x CPUs)
  -timeout  HTTP request timeout (default 30s)
  -log      Log file (default smoke_log_TIMESTAMP.log)
  -verbose  Enable verbose logging`)
}

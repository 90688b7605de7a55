package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/kyoden/utagoe/internal/testevents"
)

// Default configuration constants.
const (
	defaultNumUsers      = 100
	defaultEventsPerUser = 3
	defaultWorkers       = 2 // multiplier for runtime.NumCPU()
	defaultTimeout       = 30 * time.Second
	defaultTestTimeout   = 10 * time.Minute
)

func main() {
	var (
		baseURL       = flag.String("url", "http://localhost:8080", "Base URL of the service")
		channelSecret = flag.String("secret", "", "Channel secret used to sign deliveries")
		numUsers      = flag.Int("users", defaultNumUsers, "Number of synthetic users")
		eventsPerUser = flag.Int("events", defaultEventsPerUser, "Text events per user after the follow")
		workers       = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent workers")
		timeout       = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		logFile       = flag.String("log", "", "Log file for test output (default: smoke_log_TIMESTAMP.log)")
		verbose       = flag.Bool("verbose", false, "Enable verbose logging")
		help          = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		testevents.ShowHelp()
		return
	}
	if *channelSecret == "" {
		os.Stderr.WriteString("missing -secret: deliveries must be signed with the channel secret\n")
		return
	}

	if err := testevents.SetupLogging(*logFile); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultTestTimeout)
	defer cancel()

	config := &testevents.Config{
		BaseURL:       *baseURL,
		ChannelSecret: *channelSecret,
		NumUsers:      *numUsers,
		EventsPerUser: *eventsPerUser,
		Workers:       *workers,
		Timeout:       *timeout,
		LogFile:       *logFile,
		Verbose:       *verbose,
	}

	if err := testevents.Run(ctx, config); err != nil {
		os.Stderr.WriteString("Smoke test failed: " + err.Error() + "\n")
		return
	}
}

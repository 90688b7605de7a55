package testevents

import "time"

// Config holds configuration for the webhook smoke test
type Config struct {
	BaseURL       string        // Base URL of the service
	ChannelSecret string        // Secret used to sign deliveries
	NumUsers      int           // Number of synthetic users
	EventsPerUser int           // Number of text events after each follow
	Workers       int           // Number of concurrent workers
	Timeout       time.Duration // HTTP request timeout
	LogFile       string        // Log file for test output
	Verbose       bool          // Enable verbose logging
}

// Delivery is one signed webhook request, ready to post.
type Delivery struct {
	Body      []byte
	Signature string
	UserID    string
	Kind      string // follow or text
}

// Stats holds test statistics
type Stats struct {
	DeliveriesGenerated int
	DeliveriesSubmitted int
	DeliveriesAccepted  int
	DeliveriesRejected  int
	DeliveriesFailed    int
	StartTime           time.Time
	EndTime             time.Time
	Duration            time.Duration
}

// Package worker drains artist registration jobs off the queue.
package worker

import (
	"github.com/kyoden/utagoe/pkg/logger"
)

// Option applies a configuration option to the RegistrationWorker.
type Option func(*RegistrationWorker)

// WithName sets the worker name for identification and logging.
func WithName(name string) Option {
	return func(w *RegistrationWorker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets a custom logger for the worker.
func WithLogger(l logger.Logger) Option {
	return func(w *RegistrationWorker) {
		if l != nil {
			w.logger = l
		}
	}
}

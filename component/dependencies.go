package component

import (
	"log/slog"

	"github.com/AndyTempel/victron-dlms-gird-meter/metric"
	"github.com/AndyTempel/victron-dlms-gird-meter/natsclient"
)

// Dependencies carries the shared services a component is built with.
type Dependencies struct {
	NATSClient      *natsclient.Client      // can be nil in tests
	MetricsRegistry *metric.MetricsRegistry // nil disables metrics
	Logger          *slog.Logger            // nil falls back to slog.Default()
}

// GetLogger returns the configured logger or slog.Default.
func (d *Dependencies) GetLogger() *slog.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return slog.Default()
}

// GetLoggerWithComponent returns a logger tagged with the component name.
func (d *Dependencies) GetLoggerWithComponent(componentName string) *slog.Logger {
	return d.GetLogger().With("component", componentName)
}

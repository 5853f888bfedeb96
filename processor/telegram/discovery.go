package telegramprocessor

import (
	"sync/atomic"
	"time"

	"github.com/AndyTempel/victron-dlms-gird-meter/component"
	"github.com/AndyTempel/victron-dlms-gird-meter/message"
)

// Meta returns metadata describing this processor component.
func (p *Processor) Meta() component.Metadata {
	return component.Metadata{
		Name:        p.name,
		Type:        "processor",
		Description: "DLMS telegram matcher and decoder (" + p.engine.Profile().ID() + ")",
		Version:     "1.0.0",
	}
}

// InputPorts returns the subject raw structures arrive on.
func (p *Processor) InputPorts() []component.Port {
	return []component.Port{
		{
			Name:        "telegrams",
			Direction:   component.DirectionInput,
			Required:    true,
			Description: "DLMS structures as listener XML or dlms.telegram.v1 messages",
			Config: component.NATSPort{
				Subject: p.config.InputSubject,
				Interface: &component.InterfaceContract{
					Type:    message.TelegramType.Key(),
					Version: message.TelegramType.Version,
				},
			},
		},
	}
}

// OutputPorts returns the reading output and, when configured, the state
// bucket.
func (p *Processor) OutputPorts() []component.Port {
	contract := &component.InterfaceContract{
		Type:    message.ReadingType.Key(),
		Version: message.ReadingType.Version,
	}

	var output component.Portable = component.NATSPort{Subject: p.config.OutputSubject, Interface: contract}
	if p.config.Stream != "" {
		output = component.JetStreamPort{
			StreamName: p.config.Stream,
			Subjects:   []string{p.config.OutputSubject},
			Interface:  contract,
		}
	}

	ports := []component.Port{
		{
			Name:        "readings",
			Direction:   component.DirectionOutput,
			Required:    true,
			Description: "Decoded, transformed and derived meter readings",
			Config:      output,
		},
	}
	if p.config.StateBucket != "" {
		ports = append(ports, component.Port{
			Name:        "latest",
			Direction:   component.DirectionOutput,
			Description: "Latest reading per telegram name",
			Config:      component.KVWritePort{Bucket: p.config.StateBucket, Interface: contract},
		})
	}
	return ports
}

// ConfigSchema returns the configuration schema for this processor.
func (p *Processor) ConfigSchema() component.ConfigSchema {
	defaults := DefaultConfig()
	return component.ConfigSchema{
		Properties: map[string]component.PropertySchema{
			"input_subject": {
				Type:        "string",
				Description: "Subject carrying raw DLMS structures",
				Default:     defaults.InputSubject,
				Category:    "basic",
			},
			"output_subject": {
				Type:        "string",
				Description: "Subject readings are published to",
				Default:     defaults.OutputSubject,
				Category:    "basic",
			},
			"profile_id": {
				Type:        "string",
				Description: "Telegram profile selecting definitions and transformations",
				Default:     defaults.ProfileID,
				Category:    "basic",
			},
			"profiles_dir": {
				Type:        "string",
				Description: "Directory of profile documents replacing the built-in set",
				Category:    "advanced",
			},
			"stream": {
				Type:        "string",
				Description: "JetStream stream capturing the output subject",
				Category:    "advanced",
			},
			"state_bucket": {
				Type:        "string",
				Description: "KV bucket holding the latest reading per telegram",
				Category:    "advanced",
			},
		},
		Required: []string{"input_subject", "output_subject", "profile_id"},
	}
}

// Health returns the current health status.
func (p *Processor) Health() component.HealthStatus {
	p.mu.RLock()
	defer p.mu.RUnlock()

	var uptime time.Duration
	if p.running {
		uptime = time.Since(p.startTime)
	}
	return component.HealthStatus{
		Healthy:    p.running,
		LastCheck:  time.Now(),
		ErrorCount: int(atomic.LoadInt64(&p.errorCount)),
		LastError:  p.lastError,
		Uptime:     uptime,
	}
}

// DataFlow returns averages since the processor was last started.
func (p *Processor) DataFlow() component.FlowMetrics {
	p.mu.RLock()
	defer p.mu.RUnlock()

	flow := component.FlowMetrics{LastActivity: p.lastActivity}
	if !p.running {
		return flow
	}

	elapsed := time.Since(p.startTime).Seconds()
	processed := atomic.LoadInt64(&p.messagesProcessed)
	if elapsed > 0 {
		flow.MessagesPerSecond = float64(processed) / elapsed
		flow.BytesPerSecond = float64(atomic.LoadInt64(&p.bytesPublished)) / elapsed
	}
	if processed > 0 {
		flow.ErrorRate = float64(atomic.LoadInt64(&p.errorCount)) / float64(processed)
	}
	return flow
}

package telegramprocessor

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/AndyTempel/victron-dlms-gird-meter/message"
	"github.com/AndyTempel/victron-dlms-gird-meter/metric"
)

// Telegram outcomes used as the "outcome" label.
const (
	outcomePublished     = "published"
	outcomeUnmatched     = "unmatched"
	outcomeDecodeFailed  = "decode_failed"
	outcomeInvalidInput  = "invalid_input"
	outcomePublishFailed = "publish_failed"
)

const subsystem = "telegram"

// telegramMetrics holds Prometheus metrics for the telegram processor. A nil
// *telegramMetrics records nothing.
type telegramMetrics struct {
	core *metric.Metrics

	telegramsTotal        *prometheus.CounterVec   // component, outcome
	decodeErrors          *prometheus.CounterVec   // component, kind
	powerFactorAbstention *prometheus.CounterVec   // component
	missingRequired       *prometheus.CounterVec   // component, key
	processingDuration    *prometheus.HistogramVec // component
	outputSize            *prometheus.HistogramVec // component
}

// newTelegramMetrics creates and registers telegram metrics with the provided
// registry.
func newTelegramMetrics(registry *metric.MetricsRegistry, core *metric.Metrics, componentName string) (*telegramMetrics, error) {
	if registry == nil {
		return nil, nil // Metrics disabled
	}

	m := &telegramMetrics{
		core: core,

		telegramsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metric.Namespace,
			Subsystem: subsystem,
			Name:      "telegrams_total",
			Help:      "Telegrams handled, by outcome",
		}, []string{"component", "outcome"}),

		decodeErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metric.Namespace,
			Subsystem: subsystem,
			Name:      "decode_errors_total",
			Help:      "Telegrams dropped by the engine, by failure kind",
		}, []string{"component", "kind"}), // no_match, tag_mismatch, position_mismatch, field_decode

		powerFactorAbstention: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metric.Namespace,
			Subsystem: subsystem,
			Name:      "power_factor_abstentions_total",
			Help:      "Telegrams where only some phases had usable apparent power",
		}, []string{"component"}),

		missingRequired: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metric.Namespace,
			Subsystem: subsystem,
			Name:      "missing_required_keys_total",
			Help:      "Required profile keys absent from a published reading",
		}, []string{"component", "key"}),

		processingDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metric.Namespace,
			Subsystem: subsystem,
			Name:      "processing_duration_seconds",
			Help:      "Time from receipt to published reading",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		}, []string{"component"}),

		outputSize: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metric.Namespace,
			Subsystem: subsystem,
			Name:      "output_size_bytes",
			Help:      "Size of published reading messages",
			Buckets:   prometheus.ExponentialBuckets(256, 2, 8),
		}, []string{"component"}),
	}

	if err := registry.RegisterCounterVec(componentName, "telegrams_total", m.telegramsTotal); err != nil {
		return nil, err
	}
	if err := registry.RegisterCounterVec(componentName, "decode_errors", m.decodeErrors); err != nil {
		return nil, err
	}
	if err := registry.RegisterCounterVec(componentName, "power_factor_abstentions", m.powerFactorAbstention); err != nil {
		return nil, err
	}
	if err := registry.RegisterCounterVec(componentName, "missing_required_keys", m.missingRequired); err != nil {
		return nil, err
	}
	if err := registry.RegisterHistogramVec(componentName, "processing_duration", m.processingDuration); err != nil {
		return nil, err
	}
	if err := registry.RegisterHistogramVec(componentName, "output_size", m.outputSize); err != nil {
		return nil, err
	}

	return m, nil
}

func (m *telegramMetrics) received(componentName string) {
	if m == nil || m.core == nil {
		return
	}
	m.core.RecordMessageReceived(componentName, message.TelegramType.Key())
}

// processed records the final outcome of one telegram. duration is only
// observed for published readings.
func (m *telegramMetrics) processed(componentName, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.telegramsTotal.WithLabelValues(componentName, outcome).Inc()
	if outcome == outcomePublished {
		m.processingDuration.WithLabelValues(componentName).Observe(duration.Seconds())
	}
	if m.core != nil {
		m.core.RecordMessageProcessed(componentName, message.TelegramType.Key(), outcome)
		if outcome == outcomePublished {
			m.core.RecordProcessingDuration(componentName, "process", duration)
		}
	}
}

func (m *telegramMetrics) published(componentName, subject string, size int) {
	if m == nil {
		return
	}
	m.outputSize.WithLabelValues(componentName).Observe(float64(size))
	if m.core != nil {
		m.core.RecordMessagePublished(componentName, subject)
	}
}

func (m *telegramMetrics) decodeError(componentName, kind string) {
	if m == nil {
		return
	}
	m.decodeErrors.WithLabelValues(componentName, kind).Inc()
}

func (m *telegramMetrics) powerFactorAbstained(componentName string) {
	if m == nil {
		return
	}
	m.powerFactorAbstention.WithLabelValues(componentName).Inc()
}

func (m *telegramMetrics) missingKeys(componentName string, keys []string) {
	if m == nil {
		return
	}
	for _, key := range keys {
		m.missingRequired.WithLabelValues(componentName, key).Inc()
	}
}

func (m *telegramMetrics) error(componentName, errorType string) {
	if m == nil || m.core == nil {
		return
	}
	m.core.RecordError(componentName, errorType)
}

func (m *telegramMetrics) serviceStatus(componentName string, status int) {
	if m == nil || m.core == nil {
		return
	}
	m.core.RecordServiceStatus(componentName, status)
}

func (m *telegramMetrics) health(componentName string, healthy bool) {
	if m == nil || m.core == nil {
		return
	}
	m.core.RecordHealthStatus(componentName, healthy)
}

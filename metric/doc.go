// Package metric provides the Prometheus registry and HTTP endpoint of the
// meter service.
//
// NewMetricsRegistry builds a registry preloaded with the core metrics in
// the dlms_meter namespace and the Go runtime collectors. Components add
// their own collectors through MetricsRegistrar, keyed by service and metric
// name so they can be released again with Unregister:
//
//	registry := metric.NewMetricsRegistry()
//	decoded := prometheus.NewCounterVec(opts, []string{"outcome"})
//	if err := registry.RegisterCounterVec("telegram-processor", "telegrams_total", decoded); err != nil {
//		return err
//	}
//
// Server serves the registry in OpenMetrics format together with a /health
// endpoint backed by a HealthFunc.
package metric

// Package config loads the meter service configuration.
//
// Configuration is JSON. A Loader starts from Default, merges each layer
// added with AddLayer on top (objects merge key by key, scalars and arrays
// are replaced), and finally applies DLMS_METER_* environment overrides:
//
//	loader := config.NewLoader()
//	loader.AddLayer("configs/base.json")
//	loader.AddLayer("configs/site.json")
//	loader.EnableValidation(true)
//
//	cfg, err := loader.Load()
//	if err != nil {
//		return err
//	}
//	raw, err := cfg.ProcessorConfig()
//
// Recognised overrides:
//
//	DLMS_METER_PROFILE_ID      meter.profile_id
//	DLMS_METER_PROFILES_DIR    meter.profiles_dir
//	DLMS_METER_NATS_URLS       nats.urls (comma separated)
//	DLMS_METER_NATS_USERNAME   nats.username
//	DLMS_METER_NATS_PASSWORD   nats.password
//	DLMS_METER_NATS_TOKEN      nats.token
//	DLMS_METER_METRICS_ENABLED metrics.enabled
//	DLMS_METER_METRICS_PORT    metrics.port
//	DLMS_METER_METRICS_PATH    metrics.path
//
// nats.reconnect_wait accepts either a Go duration string ("2s") or
// nanoseconds. Config files must end in .json, stay under 1 MiB and may not
// resolve outside the working directory when given as relative paths.
package config

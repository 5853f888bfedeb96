package config

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/AndyTempel/victron-dlms-gird-meter/errors"
)

// DefaultProfileID is the meter profile used when none is configured.
const DefaultProfileID = "si-sodo-reduxi"

// EnvPrefix prefixes every environment override.
const EnvPrefix = "DLMS_METER"

// Config is the complete application configuration.
type Config struct {
	Version   string          `json:"version,omitempty"`
	Meter     MeterConfig     `json:"meter"`
	NATS      NATSConfig      `json:"nats"`
	Processor json.RawMessage `json:"processor,omitempty"` // passed to the telegram processor
	Metrics   MetricsConfig   `json:"metrics"`
}

// MeterConfig selects the telegram profile.
type MeterConfig struct {
	ProfileID   string `json:"profile_id"`
	ProfilesDir string `json:"profiles_dir,omitempty"` // empty uses the embedded profiles
}

// NATSConfig defines NATS connection settings
type NATSConfig struct {
	URLs          []string      `json:"urls,omitempty"`
	Name          string        `json:"name,omitempty"`
	MaxReconnects int           `json:"max_reconnects,omitempty"`
	ReconnectWait time.Duration `json:"reconnect_wait,omitempty"`
	Username      string        `json:"username,omitempty"`
	Password      string        `json:"password,omitempty"`
	Token         string        `json:"token,omitempty"`
	TLS           NATSTLSConfig `json:"tls,omitempty"`
}

// NATSTLSConfig for secure NATS connections
type NATSTLSConfig struct {
	Enabled  bool   `json:"enabled"`
	CertFile string `json:"cert_file,omitempty"`
	KeyFile  string `json:"key_file,omitempty"`
	CAFile   string `json:"ca_file,omitempty"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `json:"enabled"`
	Port    int    `json:"port,omitempty"`
	Path    string `json:"path,omitempty"`
}

// Default returns the configuration used before any layer is applied.
func Default() *Config {
	return &Config{
		Meter: MeterConfig{ProfileID: DefaultProfileID},
		NATS: NATSConfig{
			URLs:          []string{"nats://localhost:4222"},
			Name:          "dlms-meter",
			MaxReconnects: -1,
			ReconnectWait: 2 * time.Second,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Port:    9090,
			Path:    "/metrics",
		},
	}
}

// Validate checks the configuration for values the service cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Meter.ProfileID == "" {
		errs = append(errs, stderrors.New("meter.profile_id is required"))
	}
	if len(c.NATS.URLs) == 0 {
		errs = append(errs, stderrors.New("nats.urls must name at least one server"))
	}
	for i, u := range c.NATS.URLs {
		if !strings.Contains(u, "://") {
			errs = append(errs, fmt.Errorf("nats.urls[%d] %q has no scheme", i, u))
		}
	}
	if c.NATS.TLS.Enabled && (c.NATS.TLS.CertFile == "") != (c.NATS.TLS.KeyFile == "") {
		errs = append(errs, stderrors.New("nats.tls.cert_file and nats.tls.key_file must be set together"))
	}
	if c.Metrics.Enabled && (c.Metrics.Port < 1 || c.Metrics.Port > 65535) {
		errs = append(errs, fmt.Errorf("metrics.port %d out of range", c.Metrics.Port))
	}
	if c.Metrics.Path != "" && !strings.HasPrefix(c.Metrics.Path, "/") {
		errs = append(errs, fmt.Errorf("metrics.path %q must start with /", c.Metrics.Path))
	}
	if len(c.Processor) > 0 && !json.Valid(c.Processor) {
		errs = append(errs, stderrors.New("processor is not valid JSON"))
	}

	if err := stderrors.Join(errs...); err != nil {
		return errors.WrapFatal(fmt.Errorf("%w: %w", errors.ErrInvalidConfig, err), "Config", "Validate", "validate configuration")
	}
	return nil
}

// ProcessorConfig returns the processor section with the meter's profile
// settings applied on top.
func (c *Config) ProcessorConfig() (json.RawMessage, error) {
	section := map[string]any{}
	if len(c.Processor) > 0 {
		if err := json.Unmarshal(c.Processor, &section); err != nil {
			return nil, errors.WrapInvalid(err, "Config", "ProcessorConfig", "decode processor section")
		}
	}
	if c.Meter.ProfileID != "" {
		section["profile_id"] = c.Meter.ProfileID
	}
	if c.Meter.ProfilesDir != "" {
		section["profiles_dir"] = c.Meter.ProfilesDir
	}
	data, err := json.Marshal(section)
	if err != nil {
		return nil, errors.WrapInvalid(err, "Config", "ProcessorConfig", "encode processor section")
	}
	return data, nil
}

// String returns the configuration as indented JSON with secrets masked.
func (c *Config) String() string {
	redacted := *c
	if redacted.NATS.Password != "" {
		redacted.NATS.Password = "***"
	}
	if redacted.NATS.Token != "" {
		redacted.NATS.Token = "***"
	}
	data, _ := json.MarshalIndent(&redacted, "", "  ")
	return string(data)
}

// Loader merges JSON configuration layers over the defaults and applies
// environment overrides.
type Loader struct {
	layers     []string
	validation bool
	envPrefix  string
	lookupEnv  func(string) (string, bool)
}

// NewLoader creates a loader reading DLMS_METER_* overrides.
func NewLoader() *Loader {
	return &Loader{envPrefix: EnvPrefix, lookupEnv: os.LookupEnv}
}

// AddLayer adds a configuration file layer. Later layers win.
func (l *Loader) AddLayer(path string) {
	l.layers = append(l.layers, path)
}

// EnableValidation makes Load call Validate on the result.
func (l *Loader) EnableValidation(enable bool) {
	l.validation = enable
}

// LoadFile loads configuration from a single file
func (l *Loader) LoadFile(path string) (*Config, error) {
	l.layers = []string{path}
	return l.Load()
}

// Load merges every layer over the defaults, then applies environment
// overrides and optional validation.
func (l *Loader) Load() (*Config, error) {
	cfg := Default()

	for _, path := range l.layers {
		raw, err := l.loadRawJSON(path)
		if err != nil {
			return nil, errors.WrapFatal(err, "Loader", "Load", "load "+path)
		}
		if cfg, err = mergeFromMap(cfg, raw); err != nil {
			return nil, errors.WrapFatal(err, "Loader", "Load", "merge "+path)
		}
	}

	if err := l.applyEnvOverrides(cfg); err != nil {
		return nil, errors.WrapFatal(err, "Loader", "Load", "apply environment overrides")
	}

	if l.validation {
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func (l *Loader) loadRawJSON(path string) (map[string]any, error) {
	data, err := safeReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := validateJSONDepth(data); err != nil {
		return nil, fmt.Errorf("invalid JSON structure: %w", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	if err := parseDurations(raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// parseDurations rewrites duration strings such as "2s" into nanoseconds so
// they decode into time.Duration fields.
func parseDurations(data map[string]any) error {
	nats, ok := data["nats"].(map[string]any)
	if !ok {
		return nil
	}
	wait, ok := nats["reconnect_wait"].(string)
	if !ok {
		return nil
	}
	d, err := time.ParseDuration(wait)
	if err != nil {
		return fmt.Errorf("nats.reconnect_wait: %w", err)
	}
	nats["reconnect_wait"] = d.Nanoseconds()
	return nil
}

// mergeFromMap overlays override onto base. Nested objects merge key by key;
// everything else, arrays included, is replaced.
func mergeFromMap(base *Config, override map[string]any) (*Config, error) {
	baseJSON, err := json.Marshal(base)
	if err != nil {
		return nil, err
	}
	var baseMap map[string]any
	if err := json.Unmarshal(baseJSON, &baseMap); err != nil {
		return nil, err
	}

	mergedJSON, err := json.Marshal(deepMergeMaps(baseMap, override))
	if err != nil {
		return nil, err
	}
	var merged Config
	if err := json.Unmarshal(mergedJSON, &merged); err != nil {
		return nil, err
	}
	return &merged, nil
}

func deepMergeMaps(base, override map[string]any) map[string]any {
	result := make(map[string]any, len(base)+len(override))
	for k, v := range base {
		result[k] = v
	}
	for k, v := range override {
		if v == nil {
			continue
		}
		if baseMap, ok := base[k].(map[string]any); ok {
			if overrideMap, ok := v.(map[string]any); ok {
				result[k] = deepMergeMaps(baseMap, overrideMap)
				continue
			}
		}
		result[k] = v
	}
	return result
}

// applyEnvOverrides applies DLMS_METER_* variables on top of the loaded
// layers.
func (l *Loader) applyEnvOverrides(cfg *Config) error {
	env := func(name string) (string, bool, error) {
		key := l.envPrefix + "_" + name
		val, ok := l.lookupEnv(key)
		if !ok || val == "" {
			return "", false, nil
		}
		if err := validateEnvVar(key, val); err != nil {
			return "", false, err
		}
		return val, true, nil
	}

	var errs []error
	str := func(name string, dst *string) {
		val, ok, err := env(name)
		if err != nil {
			errs = append(errs, err)
		} else if ok {
			*dst = val
		}
	}

	str("PROFILE_ID", &cfg.Meter.ProfileID)
	str("PROFILES_DIR", &cfg.Meter.ProfilesDir)
	str("NATS_USERNAME", &cfg.NATS.Username)
	str("NATS_PASSWORD", &cfg.NATS.Password)
	str("NATS_TOKEN", &cfg.NATS.Token)
	str("METRICS_PATH", &cfg.Metrics.Path)

	if val, ok, err := env("NATS_URLS"); err != nil {
		errs = append(errs, err)
	} else if ok {
		cfg.NATS.URLs = strings.Split(val, ",")
	}
	if val, ok, err := env("METRICS_PORT"); err != nil {
		errs = append(errs, err)
	} else if ok {
		port, err := strconv.Atoi(val)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s_METRICS_PORT: %w", l.envPrefix, err))
		} else {
			cfg.Metrics.Port = port
		}
	}
	if val, ok, err := env("METRICS_ENABLED"); err != nil {
		errs = append(errs, err)
	} else if ok {
		enabled, err := strconv.ParseBool(val)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s_METRICS_ENABLED: %w", l.envPrefix, err))
		} else {
			cfg.Metrics.Enabled = enabled
		}
	}
	return stderrors.Join(errs...)
}

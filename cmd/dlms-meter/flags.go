package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"time"
)

// CLIConfig holds command-line configuration
type CLIConfig struct {
	ConfigPath      string
	LogLevel        string
	LogFormat       string
	Debug           bool
	Profile         string
	ShutdownTimeout time.Duration
	ShowVersion     bool
	Validate        bool
	Describe        bool
}

func parseFlags(args []string, stderr io.Writer) (*CLIConfig, error) {
	cfg := &CLIConfig{}
	fs := flag.NewFlagSet(appName, flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.StringVar(&cfg.ConfigPath, "config",
		getEnv("DLMS_METER_CONFIG", ""),
		"Path to a JSON configuration file, empty for defaults (env: DLMS_METER_CONFIG)")
	fs.StringVar(&cfg.LogLevel, "log-level",
		getEnv("DLMS_METER_LOG_LEVEL", "info"),
		"Log level: debug, info, warn, error (env: DLMS_METER_LOG_LEVEL)")
	fs.StringVar(&cfg.LogFormat, "log-format",
		getEnv("DLMS_METER_LOG_FORMAT", "json"),
		"Log format: json, text (env: DLMS_METER_LOG_FORMAT)")
	fs.BoolVar(&cfg.Debug, "debug",
		getEnvBool("DLMS_METER_DEBUG", false),
		"Shorthand for --log-level=debug (env: DLMS_METER_DEBUG)")
	fs.StringVar(&cfg.Profile, "profile", "",
		"Telegram profile id, overrides meter.profile_id")
	fs.DurationVar(&cfg.ShutdownTimeout, "shutdown-timeout",
		getEnvDuration("DLMS_METER_SHUTDOWN_TIMEOUT", 10*time.Second),
		"Graceful shutdown timeout (env: DLMS_METER_SHUTDOWN_TIMEOUT)")
	fs.BoolVar(&cfg.ShowVersion, "version", false, "Show version information")
	fs.BoolVar(&cfg.Validate, "validate", false, "Load configuration and profiles, then exit")
	fs.BoolVar(&cfg.Describe, "describe", false, "Print the processor's ports and config schema as JSON, then exit")

	fs.Usage = func() { printUsage(fs, stderr) }

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if cfg.Debug {
		cfg.LogLevel = "debug"
	}
	return cfg, nil
}

func validateFlags(cfg *CLIConfig) error {
	if cfg.ShowVersion {
		return nil
	}
	if cfg.ConfigPath != "" {
		if _, err := os.Stat(cfg.ConfigPath); err != nil {
			return fmt.Errorf("config file not found: %s", cfg.ConfigPath)
		}
	}
	if !slices.Contains([]string{"debug", "info", "warn", "error"}, cfg.LogLevel) {
		return fmt.Errorf("invalid log level: %s", cfg.LogLevel)
	}
	if !slices.Contains([]string{"json", "text"}, cfg.LogFormat) {
		return fmt.Errorf("invalid log format: %s", cfg.LogFormat)
	}
	if cfg.ShutdownTimeout <= 0 {
		return fmt.Errorf("shutdown timeout must be positive, got %v", cfg.ShutdownTimeout)
	}
	return nil
}

func printUsage(fs *flag.FlagSet, w io.Writer) {
	_, _ = fmt.Fprintf(w, `%s - DLMS smart meter telegram decoder

Usage: %s [options]

Options:
`, appName, appName)
	fs.PrintDefaults()
	_, _ = fmt.Fprintf(w, `
Examples:
  # Run with the built-in SODO profile against a local NATS server
  %[1]s

  # Run another profile with a config file and readable logs
  %[1]s --config=configs/example.json --profile=si-iskra-me162 --log-format=text

  # Check configuration and profiles without connecting
  %[1]s --config=configs/example.json --validate

  # Show the subjects, stream and bucket the processor will use
  %[1]s --config=configs/example.json --describe

Version: %[2]s
`, appName, Version)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

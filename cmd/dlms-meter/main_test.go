package main

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	cli, err := parseFlags([]string{"--debug", "--profile=si-iskra-me162", "--shutdown-timeout=3s"}, io.Discard)
	require.NoError(t, err)

	assert.Equal(t, "debug", cli.LogLevel, "--debug raises the level")
	assert.Equal(t, "si-iskra-me162", cli.Profile)
	assert.Equal(t, 3*time.Second, cli.ShutdownTimeout)
	assert.Equal(t, "json", cli.LogFormat)
}

func TestParseFlags_Unknown(t *testing.T) {
	var stderr bytes.Buffer
	_, err := parseFlags([]string{"--frobnicate"}, &stderr)
	require.Error(t, err)
	assert.Contains(t, stderr.String(), "DLMS smart meter telegram decoder")
}

func TestValidateFlags(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "meter.json")
	require.NoError(t, os.WriteFile(existing, []byte(`{}`), 0o600))

	valid := CLIConfig{LogLevel: "info", LogFormat: "json", ShutdownTimeout: time.Second}

	tests := []struct {
		name    string
		mutate  func(*CLIConfig)
		wantErr string
	}{
		{"defaults", func(*CLIConfig) {}, ""},
		{"existing config", func(c *CLIConfig) { c.ConfigPath = existing }, ""},
		{"missing config", func(c *CLIConfig) { c.ConfigPath = filepath.Join(dir, "absent.json") }, "config file not found"},
		{"bad level", func(c *CLIConfig) { c.LogLevel = "trace" }, "invalid log level"},
		{"bad format", func(c *CLIConfig) { c.LogFormat = "xml" }, "invalid log format"},
		{"zero timeout", func(c *CLIConfig) { c.ShutdownTimeout = 0 }, "shutdown timeout"},
		{"version skips checks", func(c *CLIConfig) {
			c.ShowVersion = true
			c.LogLevel = "trace"
		}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cli := valid
			tt.mutate(&cli)
			err := validateFlags(&cli)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSetupLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := setupLogger(&buf, "warn", "json")

	logger.Info("hidden")
	logger.Warn("shown", "telegram", "reduxi")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &entry))
	assert.Equal(t, "shown", entry[slog.MessageKey])
	assert.Equal(t, appName, entry["service"])
	assert.Equal(t, Version, entry["version"])
	assert.Equal(t, "reduxi", entry["telegram"])
}

func TestLoadConfig_ProfileFlagWins(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "meter.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"meter": {"profile_id": "si-sodo-reduxi"}}`), 0o600))

	cfg, err := loadConfig(&CLIConfig{ConfigPath: path, Profile: "si-iskra-me162"})
	require.NoError(t, err)
	assert.Equal(t, "si-iskra-me162", cfg.Meter.ProfileID)
}

func TestValidateOnly(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	cfg, err := loadConfig(&CLIConfig{})
	require.NoError(t, err)
	raw, err := cfg.ProcessorConfig()
	require.NoError(t, err)
	assert.NoError(t, validateOnly(cfg, raw, logger))

	cfg.Meter.ProfileID = "xx-unknown"
	raw, err = cfg.ProcessorConfig()
	require.NoError(t, err)
	assert.Error(t, validateOnly(cfg, raw, logger))
}

func TestDescribe(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	cfg, err := loadConfig(&CLIConfig{})
	require.NoError(t, err)
	cfg.Processor = json.RawMessage(`{"stream":"DLMS_READINGS","state_bucket":"dlms_latest"}`)
	raw, err := cfg.ProcessorConfig()
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, describe(&out, raw, logger))

	var got struct {
		Meta struct {
			Name string `json:"name"`
		} `json:"meta"`
		Profile     string   `json:"profile"`
		Telegrams   []string `json:"telegrams"`
		OutputPorts []struct {
			Name   string         `json:"name"`
			Config map[string]any `json:"config"`
		} `json:"output_ports"`
		ConfigSchema struct {
			Required []string `json:"required"`
		} `json:"config_schema"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))

	assert.Equal(t, "telegram-processor", got.Meta.Name)
	assert.Equal(t, "si-sodo-reduxi", got.Profile)
	assert.Equal(t, []string{"reduxi"}, got.Telegrams)
	require.Len(t, got.OutputPorts, 2)
	assert.Equal(t, "DLMS_READINGS", got.OutputPorts[0].Config["stream_name"])
	assert.Equal(t, "dlms_latest", got.OutputPorts[1].Config["bucket"])
	assert.Contains(t, got.ConfigSchema.Required, "profile_id")
}

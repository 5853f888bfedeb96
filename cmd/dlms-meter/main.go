// Package main runs the DLMS meter service: it decodes smart meter push
// telegrams arriving on NATS and publishes readings for the Victron grid
// meter bridge.
package main

import (
	"context"
	stderrors "errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/AndyTempel/victron-dlms-gird-meter/component"
	"github.com/AndyTempel/victron-dlms-gird-meter/config"
	"github.com/AndyTempel/victron-dlms-gird-meter/errors"
	"github.com/AndyTempel/victron-dlms-gird-meter/metric"
	"github.com/AndyTempel/victron-dlms-gird-meter/natsclient"
	"github.com/AndyTempel/victron-dlms-gird-meter/pkg/retry"
	telegramprocessor "github.com/AndyTempel/victron-dlms-gird-meter/processor/telegram"
	"github.com/AndyTempel/victron-dlms-gird-meter/profile"
	"github.com/AndyTempel/victron-dlms-gird-meter/telegrams"
)

// Build information, overridden with -ldflags at release time.
var (
	Version   = "0.1.0"
	BuildTime = "dev"
)

const appName = "dlms-meter"

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := run(os.Args[1:]); err != nil {
		if stderrors.Is(err, flag.ErrHelp) {
			return
		}
		slog.Error("Application failed", "error", err, "exit_code", 1)
		os.Exit(1)
	}
}

func run(args []string) error {
	cli, err := parseFlags(args, os.Stderr)
	if err != nil {
		return err
	}
	if err := validateFlags(cli); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}
	if cli.ShowVersion {
		fmt.Printf("%s version %s (%s)\n", appName, Version, BuildTime)
		return nil
	}

	var logOut io.Writer = os.Stdout
	if cli.Describe {
		// stdout carries the description
		logOut = os.Stderr
	}
	logger := setupLogger(logOut, cli.LogLevel, cli.LogFormat)
	slog.SetDefault(logger)
	logger.Info("Starting DLMS meter service",
		"build_time", BuildTime,
		"config_path", cli.ConfigPath)

	cfg, err := loadConfig(cli)
	if err != nil {
		return err
	}
	logger.Debug("Configuration loaded", "config", cfg.String())

	procConfig, err := cfg.ProcessorConfig()
	if err != nil {
		return err
	}

	if cli.Validate {
		return validateOnly(cfg, procConfig, logger)
	}
	if cli.Describe {
		return describe(os.Stdout, procConfig, logger)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	registry := metric.NewMetricsRegistry()

	natsClient, err := newNATSClient(cfg, registry, logger)
	if err != nil {
		return err
	}
	if err := connectToNATS(ctx, natsClient, logger); err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), cli.ShutdownTimeout)
		defer cancel()
		if err := natsClient.Close(closeCtx); err != nil {
			logger.Warn("NATS close failed", "error", err)
		}
	}()

	proc, err := telegramprocessor.NewProcessor(procConfig, component.Dependencies{
		NATSClient:      natsClient,
		MetricsRegistry: registry,
		Logger:          logger,
	})
	if err != nil {
		return fmt.Errorf("create telegram processor: %w", err)
	}

	var metricsServer *metric.Server
	if cfg.Metrics.Enabled {
		metricsServer = metric.NewServer(cfg.Metrics.Port, cfg.Metrics.Path, registry, healthCheck(natsClient, proc))
		if err := metricsServer.Start(); err != nil {
			return fmt.Errorf("start metrics server: %w", err)
		}
		logger.Info("Metrics server listening", "address", metricsServer.Address(), "path", cfg.Metrics.Path)
	}

	if err := proc.Initialize(); err != nil {
		return fmt.Errorf("initialize telegram processor: %w", err)
	}
	if err := proc.Start(ctx); err != nil {
		return fmt.Errorf("start telegram processor: %w", err)
	}
	logger.Info("DLMS meter service started", "profile", proc.Profile().ID())

	<-ctx.Done()
	logger.Info("Received shutdown signal")

	return shutdown(proc, metricsServer, cli.ShutdownTimeout, logger)
}

// loadConfig applies the config file, if any, over the defaults and lets
// --profile win over both.
func loadConfig(cli *CLIConfig) (*config.Config, error) {
	loader := config.NewLoader()
	if cli.ConfigPath != "" {
		loader.AddLayer(cli.ConfigPath)
	}

	cfg, err := loader.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if cli.Profile != "" {
		cfg.Meter.ProfileID = cli.Profile
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// validateOnly checks the profile documents and builds the processor without
// connecting anywhere.
func validateOnly(cfg *config.Config, procConfig []byte, logger *slog.Logger) error {
	var fsys fs.FS = telegrams.FS
	if cfg.Meter.ProfilesDir != "" {
		fsys = os.DirFS(cfg.Meter.ProfilesDir)
	}

	validator, err := profile.NewValidator()
	if err != nil {
		return err
	}
	issues, err := validator.ValidateFS(fsys)
	if err != nil {
		return fmt.Errorf("validate profiles: %w", err)
	}
	for _, issue := range issues {
		logger.Error("Profile document issue", "file", issue.File, "path", issue.Path, "message", issue.Message)
	}
	if len(issues) > 0 {
		return fmt.Errorf("%d profile document issue(s)", len(issues))
	}

	proc, err := telegramprocessor.NewProcessor(procConfig, component.Dependencies{Logger: logger})
	if err != nil {
		return fmt.Errorf("create telegram processor: %w", err)
	}
	logger.Info("Configuration is valid",
		"profile", proc.Profile().ID(),
		"definitions", len(proc.Profile().Definitions))
	return nil
}

func newNATSClient(cfg *config.Config, registry *metric.MetricsRegistry, logger *slog.Logger) (*natsclient.Client, error) {
	opts := []natsclient.ClientOption{
		natsclient.WithLogger(logger),
		natsclient.WithMetrics(registry.CoreMetrics()),
		natsclient.WithMaxReconnects(cfg.NATS.MaxReconnects),
		natsclient.WithName(cfg.NATS.Name),
		natsclient.WithHealthChangeCallback(func(healthy bool) {
			logger.Info("NATS health changed", "healthy", healthy)
		}),
	}
	if cfg.NATS.ReconnectWait > 0 {
		opts = append(opts, natsclient.WithReconnectWait(cfg.NATS.ReconnectWait))
	}
	switch {
	case cfg.NATS.Token != "":
		opts = append(opts, natsclient.WithToken(cfg.NATS.Token))
	case cfg.NATS.Username != "":
		opts = append(opts, natsclient.WithCredentials(cfg.NATS.Username, cfg.NATS.Password))
	}
	if cfg.NATS.TLS.Enabled {
		opts = append(opts, natsclient.WithTLS(cfg.NATS.TLS.CertFile, cfg.NATS.TLS.KeyFile, cfg.NATS.TLS.CAFile))
	}

	client, err := natsclient.NewClient(strings.Join(cfg.NATS.URLs, ","), opts...)
	if err != nil {
		return nil, fmt.Errorf("create NATS client: %w", err)
	}
	return client, nil
}

// connectToNATS retries the initial connection with backoff. Once connected,
// reconnects are left to the NATS client.
func connectToNATS(ctx context.Context, client *natsclient.Client, logger *slog.Logger) error {
	attempt := 0
	err := retry.Do(ctx, errors.DefaultRetryConfig().ToRetryConfig(), func() error {
		attempt++
		err := client.Connect(ctx)
		if err == nil {
			return nil
		}
		logger.Warn("NATS connection attempt failed", "attempt", attempt, "error", err)
		if errors.IsFatal(err) || errors.IsInvalid(err) {
			return retry.NonRetryable(err)
		}
		return err
	})
	if err != nil {
		return fmt.Errorf("connect to NATS: %w", err)
	}

	waitCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.WaitForConnection(waitCtx); err != nil {
		return fmt.Errorf("NATS connection timeout: %w", err)
	}
	return nil
}

func healthCheck(client *natsclient.Client, proc *telegramprocessor.Processor) metric.HealthFunc {
	return func() error {
		if !client.IsHealthy() {
			return fmt.Errorf("nats: %s", client.Status())
		}
		if h := proc.Health(); !h.Healthy {
			return fmt.Errorf("telegram processor not running (last error: %s)", h.LastError)
		}
		return nil
	}
}

func shutdown(proc *telegramprocessor.Processor, server *metric.Server, timeout time.Duration, logger *slog.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var g errgroup.Group
	g.Go(func() error {
		if err := proc.Stop(timeout); err != nil {
			return fmt.Errorf("stop telegram processor: %w", err)
		}
		return nil
	})
	if server != nil {
		g.Go(func() error {
			if err := server.Stop(ctx); err != nil {
				return fmt.Errorf("stop metrics server: %w", err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	logger.Info("DLMS meter service stopped")
	return nil
}

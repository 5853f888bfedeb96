package telegramprocessor

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"golang.org/x/time/rate"

	"github.com/AndyTempel/victron-dlms-gird-meter/component"
	"github.com/AndyTempel/victron-dlms-gird-meter/errors"
	"github.com/AndyTempel/victron-dlms-gird-meter/message"
	"github.com/AndyTempel/victron-dlms-gird-meter/metric"
	"github.com/AndyTempel/victron-dlms-gird-meter/natsclient"
	"github.com/AndyTempel/victron-dlms-gird-meter/profile"
	"github.com/AndyTempel/victron-dlms-gird-meter/telegram"
	"github.com/AndyTempel/victron-dlms-gird-meter/telegrams"
	"github.com/AndyTempel/victron-dlms-gird-meter/vocabulary"
)

const componentName = "telegram-processor"

// Transport is the core NATS surface the processor needs. *natsclient.Client
// and testutil.MockNATSClient both satisfy it.
type Transport interface {
	Subscribe(ctx context.Context, subject string, handler func(context.Context, []byte)) error
	Publish(ctx context.Context, subject string, data []byte) error
}

// StreamPublisher publishes through JetStream.
type StreamPublisher interface {
	CreateStream(ctx context.Context, cfg jetstream.StreamConfig) (jetstream.Stream, error)
	PublishToStream(ctx context.Context, subject string, data []byte) error
}

// ReadingStore keeps the latest reading per telegram name.
type ReadingStore interface {
	PutJSON(ctx context.Context, key string, v any) (uint64, error)
}

type bucketClient interface {
	CreateKeyValueBucket(ctx context.Context, cfg jetstream.KeyValueConfig) (jetstream.KeyValue, error)
	NewKVStore(bucket jetstream.KeyValue, opts ...func(*natsclient.KVOptions)) *natsclient.KVStore
}

// Option customises a Processor after the dependencies are applied.
type Option func(*Processor)

// WithTransport replaces the NATS client taken from the dependencies.
func WithTransport(t Transport) Option {
	return func(p *Processor) { p.transport = t }
}

// WithReadingStore sets the latest-reading store directly instead of
// creating the configured KV bucket on start.
func WithReadingStore(s ReadingStore) Option {
	return func(p *Processor) { p.store = s }
}

// Processor turns raw DLMS structures into meter readings
type Processor struct {
	name      string
	config    Config
	engine    *telegram.Engine
	transport Transport
	stream    StreamPublisher
	store     ReadingStore
	logger    *slog.Logger

	// Lifecycle management
	running     bool
	subscribed  bool
	startTime   time.Time
	mu          sync.RWMutex
	lifecycleMu sync.Mutex
	wg          sync.WaitGroup

	// Counters for Health and DataFlow
	messagesProcessed int64
	readingsPublished int64
	bytesPublished    int64
	errorCount        int64
	lastActivity      time.Time
	lastError         string

	metrics *telegramMetrics

	// a meter sending garbage once a second must not flood the log
	dropLog *rate.Limiter
}

// NewProcessor loads the profile catalog, selects the configured profile and
// builds the processor. An unknown profile id is fatal.
func NewProcessor(rawConfig json.RawMessage, deps component.Dependencies, opts ...Option) (*Processor, error) {
	cfg := DefaultConfig()
	if len(bytes.TrimSpace(rawConfig)) > 0 {
		if err := json.Unmarshal(rawConfig, &cfg); err != nil {
			return nil, errors.WrapInvalid(err, "TelegramProcessor", "NewProcessor", "config unmarshal")
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := deps.GetLoggerWithComponent(componentName)

	var fsys fs.FS = telegrams.FS
	if cfg.ProfilesDir != "" {
		fsys = os.DirFS(cfg.ProfilesDir)
	}
	catalog, err := profile.LoadFS(fsys, logger)
	if err != nil {
		return nil, errors.WrapFatal(err, "TelegramProcessor", "NewProcessor", "load profiles")
	}
	prof, err := catalog.Select(cfg.ProfileID)
	if err != nil {
		return nil, err
	}

	var core *metric.Metrics
	if deps.MetricsRegistry != nil {
		core = deps.MetricsRegistry.CoreMetrics()
	}
	metrics, err := newTelegramMetrics(deps.MetricsRegistry, core, componentName)
	if err != nil {
		logger.Error("Failed to initialize telegram metrics", "error", err)
		metrics = nil
	}

	p := &Processor{
		name:    componentName,
		config:  cfg,
		engine:  telegram.NewEngine(prof, logger),
		logger:  logger,
		metrics: metrics,
		dropLog: rate.NewLimiter(rate.Every(time.Second), 5),
	}
	if deps.NATSClient != nil {
		p.transport = deps.NATSClient
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Profile returns the selected profile.
func (p *Processor) Profile() *profile.Profile {
	return p.engine.Profile()
}

// Initialize prepares the processor (no-op, the profile is resolved in
// NewProcessor)
func (p *Processor) Initialize() error {
	return nil
}

// Start prepares the JetStream resources when configured and subscribes to
// the input subject. A processor can be started again after Stop.
func (p *Processor) Start(ctx context.Context) error {
	p.lifecycleMu.Lock()
	defer p.lifecycleMu.Unlock()

	if err := ctx.Err(); err != nil {
		return errors.WrapTransient(err, "TelegramProcessor", "Start", "check context")
	}

	p.mu.RLock()
	running := p.running
	p.mu.RUnlock()
	if running {
		return errors.WrapFatal(errors.ErrAlreadyStarted, "TelegramProcessor", "Start", "check running state")
	}

	if p.transport == nil {
		return errors.WrapFatal(errors.ErrMissingConfig, "TelegramProcessor", "Start", "NATS client required")
	}

	p.metrics.serviceStatus(p.name, metric.StatusStarting)

	if err := p.prepareStream(ctx); err != nil {
		p.metrics.serviceStatus(p.name, metric.StatusFailed)
		return err
	}
	if err := p.prepareStore(ctx); err != nil {
		p.metrics.serviceStatus(p.name, metric.StatusFailed)
		return err
	}

	if !p.subscribed {
		if err := p.transport.Subscribe(ctx, p.config.InputSubject, p.handleMessage); err != nil {
			p.logger.Error("Failed to subscribe to NATS subject",
				"subject", p.config.InputSubject,
				"error", err)
			p.metrics.serviceStatus(p.name, metric.StatusFailed)
			return errors.WrapTransient(err, "TelegramProcessor", "Start", "subscribe to "+p.config.InputSubject)
		}
		p.subscribed = true
	}

	p.mu.Lock()
	p.running = true
	p.startTime = time.Now()
	p.mu.Unlock()

	p.metrics.serviceStatus(p.name, metric.StatusRunning)
	p.metrics.health(p.name, true)

	p.logger.Info("Telegram processor started",
		"profile", p.engine.Profile().ID(),
		"input_subject", p.config.InputSubject,
		"output_subject", p.config.OutputSubject,
		"stream", p.config.Stream,
		"state_bucket", p.config.StateBucket)
	return nil
}

func (p *Processor) prepareStream(ctx context.Context) error {
	if p.config.Stream == "" || p.stream != nil {
		return nil
	}
	sp, ok := p.transport.(StreamPublisher)
	if !ok {
		return errors.WrapFatal(
			fmt.Errorf("%w: stream %q needs a JetStream capable client", errors.ErrMissingConfig, p.config.Stream),
			"TelegramProcessor", "Start", "prepare stream")
	}
	_, err := sp.CreateStream(ctx, jetstream.StreamConfig{
		Name:        p.config.Stream,
		Description: "DLMS meter readings",
		Subjects:    []string{p.config.OutputSubject},
		Storage:     jetstream.FileStorage,
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      24 * time.Hour,
	})
	if err != nil {
		return errors.WrapTransient(err, "TelegramProcessor", "Start", "create stream "+p.config.Stream)
	}
	p.stream = sp
	return nil
}

func (p *Processor) prepareStore(ctx context.Context) error {
	if p.config.StateBucket == "" || p.store != nil {
		return nil
	}
	bc, ok := p.transport.(bucketClient)
	if !ok {
		return errors.WrapFatal(
			fmt.Errorf("%w: state bucket %q needs a JetStream capable client", errors.ErrMissingConfig, p.config.StateBucket),
			"TelegramProcessor", "Start", "prepare state bucket")
	}
	bucket, err := bc.CreateKeyValueBucket(ctx, jetstream.KeyValueConfig{
		Bucket:      p.config.StateBucket,
		Description: "Latest DLMS reading per telegram",
		History:     1,
	})
	if err != nil {
		return errors.WrapTransient(err, "TelegramProcessor", "Start", "create bucket "+p.config.StateBucket)
	}
	p.store = bc.NewKVStore(bucket)
	return nil
}

// Stop stops accepting telegrams and waits for the one in flight.
func (p *Processor) Stop(timeout time.Duration) error {
	p.lifecycleMu.Lock()
	defer p.lifecycleMu.Unlock()

	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = false
	p.mu.Unlock()

	p.metrics.serviceStatus(p.name, metric.StatusStopping)

	waitCh := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(waitCh)
	}()

	select {
	case <-waitCh:
	case <-time.After(timeout):
		return errors.WrapTransient(
			fmt.Errorf("shutdown timeout after %v", timeout),
			"TelegramProcessor", "Stop", "graceful shutdown")
	}

	p.metrics.serviceStatus(p.name, metric.StatusStopped)
	p.metrics.health(p.name, false)
	p.logger.Info("Telegram processor stopped",
		"messages_processed", atomic.LoadInt64(&p.messagesProcessed),
		"readings_published", atomic.LoadInt64(&p.readingsPublished))
	return nil
}

// handleMessage is the subscription callback. Messages arriving while the
// processor is stopped are dropped.
func (p *Processor) handleMessage(ctx context.Context, data []byte) {
	p.mu.RLock()
	if !p.running {
		p.mu.RUnlock()
		return
	}
	p.wg.Add(1)
	p.mu.RUnlock()
	defer p.wg.Done()

	_, _ = p.process(ctx, data)
}

// process runs one incoming structure through the engine and publishes the
// resulting reading. Errors are counted and logged here; the returned error
// is for callers that want to inspect it.
func (p *Processor) process(ctx context.Context, data []byte) (*message.MeterReading, error) {
	start := time.Now()
	atomic.AddInt64(&p.messagesProcessed, 1)
	p.mu.Lock()
	p.lastActivity = start
	p.mu.Unlock()
	p.metrics.received(p.name)

	s, err := p.parseInput(data)
	if err != nil {
		p.fail(err, outcomeInvalidInput, "parse")
		p.logger.Log(ctx, p.dropLevel(), "Dropping unreadable telegram", "size_bytes", len(data), "error", err)
		return nil, err
	}

	res, err := p.engine.Process(s)
	if err != nil {
		outcome, kind := classify(err)
		p.fail(err, outcome, kind)
		p.metrics.decodeError(p.name, kind)
		p.logDropped(ctx, s, err)
		return nil, err
	}

	if res.Report.Abstained {
		p.metrics.powerFactorAbstained(p.name)
	}

	reading := message.NewMeterReading(p.engine.Profile().ID(), res)
	reading.Victron = vocabulary.VictronValues(res.Data)
	reading.Missing = p.engine.MissingRequired(res.Data)
	if len(reading.Missing) > 0 {
		p.metrics.missingKeys(p.name, reading.Missing)
		p.logger.Warn("Telegram lacks required keys",
			"telegram", res.Name,
			"missing", reading.Missing)
	}

	if err := p.publish(ctx, reading); err != nil {
		return nil, err
	}
	p.storeLatest(ctx, reading)

	p.metrics.processed(p.name, outcomePublished, time.Since(start))
	p.logger.Debug("Telegram processed",
		"telegram", res.Name,
		"readings", len(res.Data),
		"duration_us", time.Since(start).Microseconds())
	return reading, nil
}

// parseInput accepts the listener's XML rendering or a JSON envelope with a
// dlms.telegram.v1 payload.
func (p *Processor) parseInput(data []byte) (telegram.Structure, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return telegram.Structure{}, errors.WrapInvalid(errors.ErrInvalidData, "TelegramProcessor", "parseInput", "empty message")
	}
	if trimmed[0] == '<' {
		return telegram.ParseStructure(trimmed)
	}

	var msg message.BaseMessage
	if err := json.Unmarshal(trimmed, &msg); err != nil {
		return telegram.Structure{}, errors.WrapInvalid(err, "TelegramProcessor", "parseInput", "decode message envelope")
	}
	payload, ok := msg.Payload().(*message.TelegramPayload)
	if !ok {
		return telegram.Structure{}, errors.WrapInvalid(
			fmt.Errorf("%w: payload is %s, want %s", errors.ErrInvalidData, msg.Type(), message.TelegramType),
			"TelegramProcessor", "parseInput", "check payload type")
	}
	if err := payload.Validate(); err != nil {
		return telegram.Structure{}, err
	}
	return payload.Structure, nil
}

func (p *Processor) publish(ctx context.Context, reading *message.MeterReading) error {
	msg := message.NewBaseMessage(reading, p.name)
	data, err := json.Marshal(msg)
	if err != nil {
		err = errors.WrapFatal(err, "TelegramProcessor", "publish", "marshal reading")
		p.fail(err, outcomePublishFailed, "marshal")
		p.logger.Error("Failed to marshal reading", "telegram", reading.Name, "error", err)
		return err
	}

	if p.stream != nil {
		err = p.stream.PublishToStream(ctx, p.config.OutputSubject, data)
	} else {
		err = p.transport.Publish(ctx, p.config.OutputSubject, data)
	}
	if err != nil {
		p.fail(err, outcomePublishFailed, "publish")
		p.logger.Error("Failed to publish reading",
			"telegram", reading.Name,
			"subject", p.config.OutputSubject,
			"error", err)
		return err
	}

	atomic.AddInt64(&p.readingsPublished, 1)
	atomic.AddInt64(&p.bytesPublished, int64(len(data)))
	p.metrics.published(p.name, p.config.OutputSubject, len(data))
	return nil
}

// storeLatest writes reading under its telegram name when a store is set.
func (p *Processor) storeLatest(ctx context.Context, reading *message.MeterReading) {
	if p.store == nil {
		return
	}
	if _, err := p.store.PutJSON(ctx, reading.Name, reading); err != nil {
		// the reading was already published, so this is not a dropped telegram
		atomic.AddInt64(&p.errorCount, 1)
		p.metrics.error(p.name, "store")
		p.logger.Warn("Failed to store latest reading",
			"telegram", reading.Name,
			"bucket", p.config.StateBucket,
			"error", err)
	}
}

func (p *Processor) fail(err error, outcome, errorType string) {
	atomic.AddInt64(&p.errorCount, 1)
	p.mu.Lock()
	p.lastError = err.Error()
	p.mu.Unlock()
	p.metrics.processed(p.name, outcome, 0)
	p.metrics.error(p.name, errorType)
}

// dropLevel returns warn until the drop log budget is spent, then debug.
func (p *Processor) dropLevel() slog.Level {
	if p.dropLog.Allow() {
		return slog.LevelWarn
	}
	return slog.LevelDebug
}

func (p *Processor) logDropped(ctx context.Context, s telegram.Structure, err error) {
	level := p.dropLevel()

	var de *telegram.DecodeError
	if stderrors.As(err, &de) {
		p.logger.Log(ctx, level, "Dropping telegram",
			"telegram", de.Record,
			"position", de.Position,
			"field", de.Field,
			"error", err)
		return
	}
	p.logger.Log(ctx, level, "Dropping telegram",
		"qty", s.Qty,
		"tags", s.Tags(),
		"error", err)
}

// classify maps an engine error to a telegram outcome and decode error kind.
func classify(err error) (outcome, kind string) {
	switch {
	case stderrors.Is(err, telegram.ErrNoMatch):
		return outcomeUnmatched, "no_match"
	case stderrors.Is(err, telegram.ErrTagMismatch):
		return outcomeDecodeFailed, "tag_mismatch"
	case stderrors.Is(err, telegram.ErrPositionMismatch):
		return outcomeDecodeFailed, "position_mismatch"
	case stderrors.Is(err, telegram.ErrFieldDecode):
		return outcomeDecodeFailed, "field_decode"
	default:
		return outcomeDecodeFailed, "other"
	}
}

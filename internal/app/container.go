package app

import (
	"context"
	"errors"
	"fmt"

	otelkafka "github.com/Trendyol/otel-kafka-konsumer"
	kafkago "github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"stockservice/internal/config"
	"stockservice/internal/inventory"
	"stockservice/internal/platform/kafka"
	"stockservice/internal/platform/nats"
	"stockservice/internal/platform/observability"
	"stockservice/internal/store"
	"stockservice/internal/store/memory"
	mongostore "stockservice/internal/store/mongo"
	"stockservice/internal/store/sheets"
)

// Replaced in tests.
var (
	setupLoggingSDK = observability.SetupLoggingSDK
	setupTracingSDK = observability.SetupTracingSDK
	setupMetricsSDK = observability.SetupMetricsSDK
	newMetrics      = observability.NewMetrics
)

// Container holds expensive-to-create singleton resources and dependencies
type Container struct {
	config  *config.Config
	logger  *zap.Logger
	tracer  observability.Tracer
	metrics observability.Metrics

	store     store.Store
	publisher inventory.EventPublisher

	messageConsumer  kafka.Consumer
	settledProducer  kafka.Producer
	rejectedProducer kafka.Producer
	natsPublisher    *nats.Publisher
	mongoStore       *mongostore.Store

	otelLogShutdown    func(context.Context) error
	otelTraceShutdown  func(context.Context) error
	otelMetricShutdown func(context.Context) error
}

// NewContainer creates and initializes all infrastructure components
func NewContainer(ctx context.Context) (*Container, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return newContainer(ctx, cfg)
}

func newContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	container := &Container{
		config: cfg,
	}

	if err := container.setupLogger(); err != nil {
		return nil, err
	}

	tp, err := container.setupObservability(ctx)
	if err != nil {
		container.Shutdown(ctx)
		return nil, err
	}

	if err := container.setupStore(ctx); err != nil {
		container.Shutdown(ctx)
		return nil, err
	}

	if err := container.setupEvents(tp); err != nil {
		container.Shutdown(ctx)
		return nil, err
	}

	return container, nil
}

// setupLogger starts with a basic logger until the OTel bridge is ready
func (c *Container) setupLogger() error {
	logger, err := zap.NewProduction()
	if err != nil {
		return err
	}

	c.logger = logger
	return nil
}

// setupObservability configures OpenTelemetry logging, tracing and metrics
func (c *Container) setupObservability(ctx context.Context) (trace.TracerProvider, error) {
	otelLogShutdown, err := setupLoggingSDK(ctx, c.config)
	c.logSetupError("logging", err)
	c.otelLogShutdown = otelLogShutdown

	tp, otelTraceShutdown, err := setupTracingSDK(ctx, c.config)
	c.logSetupError("tracing", err)
	c.otelTraceShutdown = otelTraceShutdown

	otelMetricShutdown, err := setupMetricsSDK(ctx, c.config)
	c.logSetupError("metrics", err)
	c.otelMetricShutdown = otelMetricShutdown

	// Re-initialize logger with OTel bridge
	c.logger = observability.NewLogger()
	c.logger.Info("Logger re-initialized with OpenTelemetry bridge",
		zap.Bool("otlp_export", c.config.OtelEnabled()),
	)

	c.tracer = otel.Tracer(config.ServiceName)

	metrics, err := newMetrics(otel.Meter(config.ServiceName))
	if err != nil {
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}
	c.metrics = metrics

	if tp == nil {
		return otel.GetTracerProvider(), nil
	}
	return tp, nil
}

func (c *Container) logSetupError(signal string, err error) {
	switch {
	case err == nil:
	case errors.Is(err, observability.ErrExportDisabled):
		c.logger.Info("OpenTelemetry export disabled", zap.String("signal", signal))
	default:
		c.logger.Error("Failed to setup OpenTelemetry", zap.String("signal", signal), zap.Error(err))
	}
}

// setupStore connects the tabular store backend
func (c *Container) setupStore(ctx context.Context) error {
	switch c.config.StoreBackend {
	case config.StoreSheets:
		st, err := sheets.New(ctx, c.config.SheetsSpreadsheetID, []byte(c.config.SheetsCredentials))
		if err != nil {
			return fmt.Errorf("failed to open spreadsheet store: %w", err)
		}
		c.store = st

	case config.StoreMongo:
		st, err := mongostore.Connect(ctx, c.config.MongoURL, c.config.MongoDatabase)
		if err != nil {
			return fmt.Errorf("failed to connect to mongo store: %w", err)
		}
		c.mongoStore = st
		c.store = st

	default:
		st := memory.New()
		if c.config.DemoSeed {
			st.SeedDemo()
		}
		c.store = st
	}

	c.logger.Info("📦 Store ready",
		zap.String("backend", c.config.StoreBackend),
		zap.Bool("demo_seed", c.config.DemoSeed && c.config.StoreBackend == config.StoreMemory),
	)
	return nil
}

// setupEvents initializes the event backend used for settlement events
func (c *Container) setupEvents(tp trace.TracerProvider) error {
	switch c.config.EventsBackend {
	case config.EventsKafka:
		return c.setupKafkaWithTracer(tp)

	case config.EventsNATS:
		publisher, err := nats.NewPublisher(c.config.NATSURL)
		if err != nil {
			return err
		}
		c.natsPublisher = publisher
		c.publisher = inventory.NewBusEventPublisher(publisher, config.StockSettledSubject, config.SettlementRejectedSubject)

	default:
		c.publisher = inventory.NoopEventPublisher{}
	}

	c.logger.Info("📡 Event backend ready", zap.String("backend", c.config.EventsBackend))
	return nil
}

// setupKafkaWithTracer initializes the Kafka consumer and producers with OpenTelemetry
func (c *Container) setupKafkaWithTracer(tp trace.TracerProvider) error {
	readerConfig := kafkago.ReaderConfig{
		Brokers: []string{c.config.KafkaBroker},
		Topic:   config.SettlementRequestedTopic,
		GroupID: config.GroupID,
	}

	baseReader := kafkago.NewReader(readerConfig)
	reader, err := otelkafka.NewReader(baseReader)
	if err != nil {
		return err
	}
	c.messageConsumer = reader

	if c.settledProducer, err = c.newProducer(tp, config.StockSettledTopic); err != nil {
		return err
	}
	if c.rejectedProducer, err = c.newProducer(tp, config.SettlementRejectedTopic); err != nil {
		return err
	}

	c.publisher = inventory.NewKafkaEventPublisher(c.settledProducer, c.rejectedProducer)
	return nil
}

func (c *Container) newProducer(tp trace.TracerProvider, topic string) (kafka.Producer, error) {
	baseWriter := &kafkago.Writer{
		Addr:         kafkago.TCP(c.config.KafkaBroker),
		Topic:        topic,
		Balancer:     &kafkago.LeastBytes{},
		BatchTimeout: config.BatchTimeout,
		BatchSize:    config.BatchSize,
	}

	writer, err := otelkafka.NewWriter(baseWriter,
		otelkafka.WithTracerProvider(tp),
		otelkafka.WithPropagator(propagation.TraceContext{}),
		otelkafka.WithAttributes(
			[]attribute.KeyValue{
				semconv.MessagingDestinationNameKey.String(topic),
				attribute.String("messaging.kafka.client_id", config.ServiceName),
			},
		),
	)
	if err != nil {
		return nil, err
	}
	return writer, nil
}

// Shutdown gracefully shuts down all infrastructure components
func (c *Container) Shutdown(ctx context.Context) {
	c.logger.Info("Shutting down infrastructure...")

	var errs []error
	closeWith := func(name string, fn func() error) {
		if err := fn(); err != nil {
			c.logger.Error("Failed to close "+name, zap.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}

	if c.messageConsumer != nil {
		closeWith("message consumer", c.messageConsumer.Close)
	}
	if c.settledProducer != nil {
		closeWith("settled producer", c.settledProducer.Close)
	}
	if c.rejectedProducer != nil {
		closeWith("rejected producer", c.rejectedProducer.Close)
	}
	if c.natsPublisher != nil {
		closeWith("nats publisher", c.natsPublisher.Close)
	}
	if c.mongoStore != nil {
		closeWith("mongo store", func() error { return c.mongoStore.Close(ctx) })
	}

	// Shutdown OpenTelemetry
	otelShutdowns := []struct {
		name string
		fn   func(context.Context) error
	}{
		{"OTel metrics", c.otelMetricShutdown},
		{"OTel tracing", c.otelTraceShutdown},
		{"OTel logging", c.otelLogShutdown},
	}
	for _, s := range otelShutdowns {
		if s.fn != nil {
			closeWith(s.name, func() error { return s.fn(ctx) })
		}
	}

	if err := errors.Join(errs...); err != nil {
		c.logger.Warn("Infrastructure shutdown finished with errors", zap.Error(err))
	} else {
		c.logger.Info("Infrastructure shutdown complete")
	}

	// Can't log a sync error since the logger might be closed
	_ = c.logger.Sync()
}

// Getters for accessing infrastructure components
func (c *Container) Config() *config.Config              { return c.config }
func (c *Container) Logger() *zap.Logger                 { return c.logger }
func (c *Container) Tracer() observability.Tracer        { return c.tracer }
func (c *Container) Metrics() observability.Metrics      { return c.metrics }
func (c *Container) Store() store.Store                  { return c.store }
func (c *Container) Publisher() inventory.EventPublisher { return c.publisher }
func (c *Container) MessageConsumer() kafka.Consumer     { return c.messageConsumer }

package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

const (
	ServiceName    = "stock-service"
	ServiceVersion = "0.1.0"
)

const (
	SettlementRequestedTopic = "SettlementRequested"
	StockSettledTopic        = "StockSettled"
	SettlementRejectedTopic  = "SettlementRejected"
	GroupID                  = "stock-service-group"
	BatchTimeout             = 10 * time.Millisecond
	BatchSize                = 100
)

const (
	StockSettledSubject       = "stock.settled"
	SettlementRejectedSubject = "stock.rejected"
)

const (
	LogsPath        = "/otlp/v1/logs"    // Grafana Cloud OTLP path
	TracesPath      = "/otlp/v1/traces"  // Grafana Cloud OTLP path
	MetricsPath     = "/otlp/v1/metrics" // Grafana Cloud OTLP path
	ExportTimeout   = 30 * time.Second
	MaxQueueSize    = 2048
	MetricsInterval = 15 * time.Second
)

const (
	ReadHeaderTimeout = 5 * time.Second
	WriteTimeout      = 30 * time.Second
	ShutdownTimeout   = 15 * time.Second
)

// Store backends.
const (
	StoreMemory = "memory"
	StoreSheets = "sheets"
	StoreMongo  = "mongo"
)

// Event backends.
const (
	EventsNone  = "none"
	EventsKafka = "kafka"
	EventsNATS  = "nats"
)

type Config struct {
	HTTPAddr string

	StoreBackend        string
	SheetsSpreadsheetID string
	SheetsCredentials   string
	MongoURL            string
	MongoDatabase       string
	DemoSeed            bool

	EventsBackend string
	KafkaBroker   string
	NATSURL       string

	OtelEndpoint   string
	OtelAuthHeader string

	LowStockThreshold         decimal.Decimal
	CompensatePartialFailures bool
}

// OtelEnabled reports whether OTLP export is configured.
func (c *Config) OtelEnabled() bool {
	return c.OtelEndpoint != "" && c.OtelAuthHeader != ""
}

func LoadConfig() (*Config, error) {
	config := &Config{
		HTTPAddr:            getEnvOrDefault("HTTP_ADDR", ":8080"),
		StoreBackend:        getEnvOrDefault("STORE_BACKEND", StoreMemory),
		SheetsSpreadsheetID: os.Getenv("SHEETS_SPREADSHEET_ID"),
		SheetsCredentials:   os.Getenv("SHEETS_CREDENTIALS"),
		MongoURL:            getEnvOrDefault("MONGO_URL", "mongodb://localhost:27017"),
		MongoDatabase:       getEnvOrDefault("MONGO_DATABASE", "restaurant_stock"),
		EventsBackend:       getEnvOrDefault("EVENTS_BACKEND", EventsNone),
		KafkaBroker:         getEnvOrDefault("KAFKA_BROKER", "localhost:9092"),
		NATSURL:             getEnvOrDefault("NATS_URL", "nats://localhost:4222"),
		OtelEndpoint:        os.Getenv("OTEL_ENDPOINT"),
		OtelAuthHeader:      os.Getenv("OTEL_AUTH_HEADER"),
	}

	var err error
	if config.DemoSeed, err = getBool("DEMO_SEED", config.StoreBackend == StoreMemory); err != nil {
		return nil, err
	}
	if config.CompensatePartialFailures, err = getBool("COMPENSATE_PARTIAL_FAILURES", false); err != nil {
		return nil, err
	}

	threshold := getEnvOrDefault("LOW_STOCK_THRESHOLD", "5")
	config.LowStockThreshold, err = decimal.NewFromString(threshold)
	if err != nil {
		return nil, fmt.Errorf("LOW_STOCK_THRESHOLD must be a number, got %q", threshold)
	}
	if config.LowStockThreshold.IsNegative() {
		return nil, fmt.Errorf("LOW_STOCK_THRESHOLD cannot be negative")
	}

	switch config.StoreBackend {
	case StoreMemory:
	case StoreSheets:
		if config.SheetsSpreadsheetID == "" {
			return nil, fmt.Errorf("SHEETS_SPREADSHEET_ID environment variable is required for the sheets store")
		}
		if config.SheetsCredentials == "" {
			return nil, fmt.Errorf("SHEETS_CREDENTIALS environment variable is required for the sheets store")
		}
	case StoreMongo:
		if config.MongoURL == "" {
			return nil, fmt.Errorf("MONGO_URL cannot be empty")
		}
	default:
		return nil, fmt.Errorf("unknown STORE_BACKEND %q", config.StoreBackend)
	}

	switch config.EventsBackend {
	case EventsNone:
	case EventsKafka:
		if config.KafkaBroker == "" {
			return nil, fmt.Errorf("KAFKA_BROKER cannot be empty")
		}
	case EventsNATS:
		if config.NATSURL == "" {
			return nil, fmt.Errorf("NATS_URL cannot be empty")
		}
	default:
		return nil, fmt.Errorf("unknown EVENTS_BACKEND %q", config.EventsBackend)
	}

	if config.HTTPAddr == "" {
		return nil, fmt.Errorf("HTTP_ADDR cannot be empty")
	}

	return config, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean, got %q", key, value)
	}
	return b, nil
}

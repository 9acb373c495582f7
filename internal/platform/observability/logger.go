package observability

import (
	"os"

	"go.opentelemetry.io/contrib/bridges/otelzap"
	"go.opentelemetry.io/otel/log/global"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"stockservice/internal/config"
)

const instrumentationScope = "stock-service.manual"

// NewLogger tees a JSON console core with the OTel log bridge. When the
// logging SDK was not set up the bridge writes to the global no-op provider.
func NewLogger() *zap.Logger {
	otelZapCore := otelzap.NewCore(instrumentationScope,
		otelzap.WithLoggerProvider(global.GetLoggerProvider()),
	)

	consoleEncoderConfig := zap.NewProductionEncoderConfig()
	consoleEncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	consoleCore := zapcore.NewCore(
		zapcore.NewJSONEncoder(consoleEncoderConfig),
		zapcore.Lock(os.Stdout),
		zap.InfoLevel,
	)

	return zap.New(zapcore.NewTee(otelZapCore, consoleCore),
		zap.AddCaller(),
		zap.AddStacktrace(zapcore.ErrorLevel),
		zap.Fields(zap.String("service.name", config.ServiceName)),
	)
}

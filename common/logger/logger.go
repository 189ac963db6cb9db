package logger

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds the service logger. Production uses JSON with ISO8601
// timestamps; anything else gets the colored development console. When
// shipper is non-nil every entry is also written to it as JSON.
func New(env string, shipper io.Writer) (*zap.Logger, error) {
	var config zap.Config
	if env == "production" {
		config = zap.NewProductionConfig()
		config.EncoderConfig.TimeKey = "timestamp"
		config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	} else {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	if shipper == nil {
		return config.Build()
	}

	level := zap.NewAtomicLevelAt(config.Level.Level())
	consoleCore := zapcore.NewCore(zapcore.NewConsoleEncoder(config.EncoderConfig), zapcore.AddSync(os.Stdout), level)

	jsonConfig := config.EncoderConfig
	jsonConfig.EncodeLevel = zapcore.LowercaseLevelEncoder
	shipCore := zapcore.NewCore(zapcore.NewJSONEncoder(jsonConfig), zapcore.AddSync(shipper), level)

	return zap.New(zapcore.NewTee(consoleCore, shipCore), zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)), nil
}

// WithSession tags a logger with the shopper session id.
func WithSession(l *zap.Logger, sessionID string) *zap.Logger {
	return l.With(zap.String("session_id", sessionID))
}

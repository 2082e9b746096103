package logging

import (
	"maps"

	"go.uber.org/zap"
)

// ZapLogger adapts a zap.Logger to the Logger interface so the service and
// the analysis packages share one logging backend.
type ZapLogger struct {
	logger *zap.Logger
	level  Level
}

// NewZapLogger wraps an existing zap logger
func NewZapLogger(logger *zap.Logger) *ZapLogger {
	return &ZapLogger{
		logger: logger,
		level:  DebugLevel, // zap applies its own level filtering
	}
}

func (z *ZapLogger) zapFields(fields []Fields) []zap.Field {
	merged := make(Fields)
	for _, f := range fields {
		maps.Copy(merged, f)
	}

	zf := make([]zap.Field, 0, len(merged))
	for k, v := range merged {
		zf = append(zf, zap.Any(k, v))
	}
	return zf
}

func (z *ZapLogger) Debug(msg string, fields ...Fields) {
	z.logger.Debug(msg, z.zapFields(fields)...)
}

func (z *ZapLogger) Info(msg string, fields ...Fields) {
	z.logger.Info(msg, z.zapFields(fields)...)
}

func (z *ZapLogger) Warn(msg string, fields ...Fields) {
	z.logger.Warn(msg, z.zapFields(fields)...)
}

func (z *ZapLogger) Error(err error, msg string, fields ...Fields) {
	zf := append(z.zapFields(fields), zap.Error(err))
	z.logger.Error(msg, zf...)
}

func (z *ZapLogger) WithFields(fields Fields) Logger {
	return &ZapLogger{
		logger: z.logger.With(z.zapFields([]Fields{fields})...),
		level:  z.level,
	}
}

func (z *ZapLogger) SetLevel(level Level) {
	z.level = level
}

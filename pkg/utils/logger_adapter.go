package utils

import "go.uber.org/zap"

// ZapKV adapts *zap.Logger to the key-value Logger interfaces the
// application services depend on.
type ZapKV struct {
	logger *zap.Logger
}

// NewZapKV creates a new key-value logger adapter
func NewZapKV(logger *zap.Logger) *ZapKV {
	return &ZapKV{logger: logger}
}

func (a *ZapKV) Info(msg string, keysAndValues ...interface{}) {
	a.logger.Info(msg, convertToZapFields(keysAndValues...)...)
}

func (a *ZapKV) Warn(msg string, keysAndValues ...interface{}) {
	a.logger.Warn(msg, convertToZapFields(keysAndValues...)...)
}

func (a *ZapKV) Error(msg string, keysAndValues ...interface{}) {
	a.logger.Error(msg, convertToZapFields(keysAndValues...)...)
}

// convertToZapFields converts key-value pairs to zap fields.
func convertToZapFields(keysAndValues ...interface{}) []zap.Field {
	fields := make([]zap.Field, 0, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			continue
		}
		fields = append(fields, zap.Any(key, keysAndValues[i+1]))
	}
	return fields
}
